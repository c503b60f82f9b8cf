// Package metrics derives comparable quality and performance statistics from
// a solver result, independent of which strategy produced it.
package metrics

import (
	"time"

	"github.com/limaJavier/exam-timetabling/pkg/constraint"
	"github.com/limaJavier/exam-timetabling/pkg/model"
	"github.com/limaJavier/exam-timetabling/pkg/solver"
)

// Record summarizes one strategy run. When the run produced no assignment
// the metric maps stay nil and HasAssignment is false, so "no solution" can
// never read as "perfect solution".
type Record struct {
	Strategy string
	Status   solver.Status
	Duration time.Duration

	HasAssignment       bool
	HardViolations      map[string]uint64
	TotalHardViolations uint64
	SoftPenalties       map[string]uint64
	TotalSoftPenalty    uint64

	HasObjective bool
	Objective    float64

	Analysis *Analysis
}

// Valid reports whether the run produced an assignment with zero hard
// violations across the full catalogue.
func (r Record) Valid() bool {
	return r.HasAssignment && r.TotalHardViolations == 0
}

// Evaluate re-validates the result's assignment against every hard
// constraint in the catalogue regardless of which were enabled for the run,
// so a strategy cannot pass by disabling a constraint it violates. The soft
// penalty sums the weighted penalty of every soft constraint. Evaluation is
// idempotent: the same result always yields the same record.
func Evaluate(m *model.Model, result solver.Result) (Record, error) {
	record := Record{
		Strategy: result.Strategy,
		Status:   result.Status,
		Duration: result.Duration,
	}

	if objective, ok := result.Diagnostics["objective"].(float64); ok {
		record.HasObjective = true
		record.Objective = objective
	}

	if result.Assignment == nil {
		return record, nil
	}

	record.HasAssignment = true
	record.HardViolations = make(map[string]uint64)
	record.SoftPenalties = make(map[string]uint64)

	for _, c := range constraint.All() {
		value, err := c.SafeEvaluate(m, result.Assignment)
		if err != nil {
			return Record{}, err
		}
		if c.Hard {
			record.HardViolations[c.Name] = value
			record.TotalHardViolations += value
		} else {
			weighted := c.Weight * value
			record.SoftPenalties[c.Name] = weighted
			record.TotalSoftPenalty += weighted
		}
	}

	record.Analysis = Analyze(m, result.Assignment)
	return record, nil
}
