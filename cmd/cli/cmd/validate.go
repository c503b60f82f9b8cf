package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/limaJavier/exam-timetabling/pkg/model"
	"github.com/limaJavier/exam-timetabling/pkg/solver"
)

var dimacsFile string

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate <instance.json>",
	Short: "Validate an instance file",
	Long:  `Parse and validate a timetabling instance, printing a structural summary. Optionally export the SAT encoding in DIMACS form.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&dimacsFile, "dimacs", "", "write the instance's CNF encoding to this file")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	m, err := model.InstanceFromJson(args[0])
	if err != nil {
		return err
	}
	selection, err := parseSelection(constraints)
	if err != nil {
		return err
	}

	if dimacsFile != "" {
		if err := os.WriteFile(dimacsFile, []byte(solver.EncodeDIMACS(m, selection)), 0644); err != nil {
			return err
		}
	}

	conflicts := 0
	for first := uint64(0); first < m.NumExams(); first++ {
		for second := first + 1; second < m.NumExams(); second++ {
			if m.Conflicting(first, second) {
				conflicts++
			}
		}
	}

	if outputFormat == "json" {
		return printJson(map[string]any{
			"exams":        m.NumExams(),
			"timeslots":    m.NumTimeslots(),
			"rooms":        m.NumRooms(),
			"invigilators": m.NumInvigilators(),
			"students":     m.NumStudents(),
			"days":         len(m.Days()),
			"conflicts":    conflicts,
		})
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Field", "Value")
	table.Append("Exams", fmt.Sprintf("%d", m.NumExams()))
	table.Append("Timeslots", fmt.Sprintf("%d", m.NumTimeslots()))
	table.Append("Rooms", fmt.Sprintf("%d", m.NumRooms()))
	table.Append("Invigilators", fmt.Sprintf("%d", m.NumInvigilators()))
	table.Append("Students", fmt.Sprintf("%d", m.NumStudents()))
	table.Append("Days", fmt.Sprintf("%d", len(m.Days())))
	table.Append("Conflicting Exam Pairs", fmt.Sprintf("%d", conflicts))
	table.Render()
	return nil
}
