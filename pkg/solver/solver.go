// Package solver defines the uniform solving contract and the four concrete
// strategies: an exact SAT-backed solver, local search, tabu search and a
// genetic search. Strategies treat the model and constraint selection as
// read-only input, own their search state exclusively, and honor the caller's
// time budget cooperatively.
package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/limaJavier/exam-timetabling/pkg/constraint"
	"github.com/limaJavier/exam-timetabling/pkg/model"
)

type Status string

const (
	StatusOptimal    Status = "optimal"
	StatusFeasible   Status = "feasible"
	StatusInfeasible Status = "infeasible"
	StatusTimeout    Status = "timeout"
	StatusError      Status = "error"
)

// Result is created fresh per solver invocation and never mutated afterwards;
// a re-run produces a new Result. Diagnostics is a backend-specific payload,
// opaque to everything but the metrics evaluator.
type Result struct {
	Strategy    string
	Assignment  *model.Assignment
	Status      Status
	Duration    time.Duration
	Diagnostics map[string]any
	Err         error
}

type Strategy interface {
	Name() string

	// Solve produces an assignment plus diagnostics within the budget,
	// reporting StatusTimeout rather than blocking once the budget or the
	// context expires.
	Solve(ctx context.Context, m *model.Model, selection constraint.Selection, budget time.Duration) Result
}

// BackendError marks an internal strategy failure. It is caught per strategy
// and recorded as a StatusError result rather than aborting a comparison.
type BackendError struct {
	Strategy string
	Cause    any
}

func (err *BackendError) Error() string {
	return fmt.Sprintf("solver backend %q failed: %v", err.Strategy, err.Cause)
}

// guardedSolve stamps strategy name and wall-clock duration on the result and
// converts backend panics into StatusError results.
func guardedSolve(strategy string, fn func() Result) (result Result) {
	start := time.Now()
	defer func() {
		if cause := recover(); cause != nil {
			result = Result{
				Status: StatusError,
				Err:    &BackendError{Strategy: strategy, Cause: cause},
			}
		}
		result.Strategy = strategy
		result.Duration = time.Since(start)
	}()
	return fn()
}

// Verify reports whether the assignment satisfies the default five hard
// constraints.
func Verify(m *model.Model, a *model.Assignment) bool {
	for _, c := range constraint.DefaultSelection().Hard() {
		if c.Evaluate(m, a) != 0 {
			return false
		}
	}
	return true
}

func expired(ctx context.Context, deadline time.Time) bool {
	return ctx.Err() != nil || !time.Now().Before(deadline)
}
