package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"

	"github.com/limaJavier/exam-timetabling/pkg/constraint"
	"github.com/limaJavier/exam-timetabling/pkg/metrics"
	"github.com/limaJavier/exam-timetabling/pkg/model"
	"github.com/limaJavier/exam-timetabling/pkg/solver"
)

// parseSelection turns the --constraints flag into a constraint selection.
func parseSelection(value string) (constraint.Selection, error) {
	switch value {
	case "full":
		return constraint.FullSelection(), nil
	case "default":
		return constraint.DefaultSelection(), nil
	default:
		names := lo.Map(strings.Split(value, ","), func(name string, _ int) string {
			return strings.TrimSpace(name)
		})
		return constraint.Select(names...)
	}
}

// newStrategy builds a strategy by name. Heuristic strategies take the seed
// so runs stay reproducible.
func newStrategy(name string, seed int64) (solver.Strategy, error) {
	switch name {
	case "exact":
		return solver.NewExact(), nil
	case "local-search":
		return solver.NewLocalSearch(seed), nil
	case "tabu-search":
		return solver.NewTabuSearch(seed), nil
	case "genetic":
		return solver.NewGenetic(seed), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (known: exact, local-search, tabu-search, genetic)", name)
	}
}

// placementView and dutyView are the JSON shapes of a solved schedule.
type placementView struct {
	Exam uint64 `json:"exam"`
	Slot uint64 `json:"slot"`
	Room uint64 `json:"room"`
}

type dutyView struct {
	Slot        uint64 `json:"slot"`
	Room        uint64 `json:"room"`
	Invigilator uint64 `json:"invigilator"`
}

type scheduleView struct {
	Placements []placementView `json:"placements"`
	Duties     []dutyView      `json:"duties"`
}

func newScheduleView(a *model.Assignment) scheduleView {
	view := scheduleView{
		Placements: make([]placementView, len(a.Placements)),
		Duties:     make([]dutyView, 0, len(a.Duties)),
	}
	for exam, placement := range a.Placements {
		view.Placements[exam] = placementView{
			Exam: uint64(exam),
			Slot: placement.Slot,
			Room: placement.Room,
		}
	}
	for pair, invigilator := range a.Duties {
		view.Duties = append(view.Duties, dutyView{
			Slot:        pair[0],
			Room:        pair[1],
			Invigilator: invigilator,
		})
	}
	return view
}

func printJson(value any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func formatPenalty(record metrics.Record) string {
	if !record.HasAssignment {
		return "-"
	}
	return fmt.Sprintf("%d", record.TotalSoftPenalty)
}

func formatViolations(record metrics.Record) string {
	if !record.HasAssignment {
		return "-"
	}
	return fmt.Sprintf("%d", record.TotalHardViolations)
}
