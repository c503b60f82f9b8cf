package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/limaJavier/exam-timetabling/pkg/metrics"
	"github.com/limaJavier/exam-timetabling/pkg/model"
)

var (
	strategyName string
	solutionFile string
)

// solveCmd represents the solve command
var solveCmd = &cobra.Command{
	Use:   "solve <instance.json>",
	Short: "Solve an instance with one strategy",
	Long:  `Solve a timetabling instance with a single strategy and report the resulting schedule's quality metrics.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSolve,
}

func init() {
	solveCmd.Flags().StringVar(&strategyName, "strategy", "exact", "strategy: exact, local-search, tabu-search or genetic")
	solveCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed for heuristic strategies")
	solveCmd.Flags().StringVar(&solutionFile, "solution", "", "write the solved schedule as JSON to this file")
	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
	m, err := model.InstanceFromJson(args[0])
	if err != nil {
		return err
	}
	selection, err := parseSelection(constraints)
	if err != nil {
		return err
	}
	strategy, err := newStrategy(strategyName, seed)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), budget)
	defer cancel()
	result := strategy.Solve(ctx, m, selection, budget)
	if result.Err != nil {
		return result.Err
	}

	record, err := metrics.Evaluate(m, result)
	if err != nil {
		return err
	}

	if solutionFile != "" && result.Assignment != nil {
		content, err := json.MarshalIndent(newScheduleView(result.Assignment), "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(solutionFile, content, 0644); err != nil {
			return err
		}
	}

	if outputFormat == "json" {
		return printJson(record)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Field", "Value")
	table.Append("Strategy", record.Strategy)
	table.Append("Status", string(record.Status))
	table.Append("Duration", record.Duration.String())
	table.Append("Hard Violations", formatViolations(record))
	table.Append("Soft Penalty", formatPenalty(record))
	if record.HasAssignment {
		table.Append("Avg Room Utilization", fmt.Sprintf("%.1f%%", record.Analysis.AverageRoomUtilization))
		table.Append("Avg Exams Per Slot", fmt.Sprintf("%.2f", record.Analysis.AverageExamsPerSlot))
		table.Append("Avg Student Spread", fmt.Sprintf("%.2f", record.Analysis.AverageStudentSpread))
	}
	table.Render()
	return nil
}
