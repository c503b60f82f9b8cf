package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/limaJavier/exam-timetabling/pkg/comparison"
	"github.com/limaJavier/exam-timetabling/pkg/model"
	"github.com/limaJavier/exam-timetabling/pkg/solver"
)

var strategyNames string

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare <instance.json>",
	Short: "Compare strategies on an instance",
	Long:  `Run several strategies against the same instance in parallel, each under the same time budget, and report their metrics side by side.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runCompare,
}

func init() {
	compareCmd.Flags().StringVar(&strategyNames, "strategies", "exact,local-search,tabu-search,genetic", "comma-separated strategies to compare")
	compareCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed for heuristic strategies")
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	m, err := model.InstanceFromJson(args[0])
	if err != nil {
		return err
	}
	selection, err := parseSelection(constraints)
	if err != nil {
		return err
	}

	names := lo.Map(strings.Split(strategyNames, ","), func(name string, _ int) string {
		return strings.TrimSpace(name)
	})
	strategies := make([]solver.Strategy, 0, len(names))
	for _, name := range names {
		strategy, err := newStrategy(name, seed)
		if err != nil {
			return err
		}
		strategies = append(strategies, strategy)
	}

	report, err := comparison.RunComparison(context.Background(), m, selection, strategies, budget)
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		return printJson(report)
	}

	best, hasBest := report.Best()

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Strategy", "Status", "Duration", "Hard Violations", "Soft Penalty", "Best")
	for _, entry := range report.Entries {
		if entry.Err != nil {
			table.Append(entry.Strategy, "error", entry.Result.Duration.String(), "-", "-", "")
			continue
		}
		marker := ""
		if hasBest && entry.RunId == best.RunId {
			marker = "*"
		}
		table.Append(
			entry.Strategy,
			string(entry.Result.Status),
			entry.Result.Duration.Round(time.Millisecond).String(),
			formatViolations(entry.Record),
			formatPenalty(entry.Record),
			marker,
		)
	}
	table.Render()

	for _, entry := range report.Entries {
		if entry.Err != nil {
			fmt.Fprintf(os.Stderr, "%v: %v\n", entry.Strategy, entry.Err)
		}
	}
	return nil
}
