// Package comparison runs several solving strategies against the same
// instance and collects their metrics into a single report.
package comparison

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/limaJavier/exam-timetabling/internal/logger"
	"github.com/limaJavier/exam-timetabling/pkg/constraint"
	"github.com/limaJavier/exam-timetabling/pkg/metrics"
	"github.com/limaJavier/exam-timetabling/pkg/model"
	"github.com/limaJavier/exam-timetabling/pkg/solver"
)

var log = logger.NewNamedLogger("comparison")

// BusyError signals that a strategy is already running against the same
// instance in another comparison.
type BusyError struct {
	Strategy string
}

func (e BusyError) Error() string {
	return fmt.Sprintf("strategy %v is already running on this instance", e.Strategy)
}

// Entry holds the outcome of one strategy within a comparison, in the order
// the strategy was submitted.
type Entry struct {
	RunId    string
	Strategy string
	Result   solver.Result
	Record   metrics.Record
	Err      error
}

// Report aggregates the entries of one comparison run.
type Report struct {
	Id      string
	Entries []Entry
}

// Best returns the entry with the lowest soft penalty among those whose
// assignments satisfy every hard constraint, and false when none qualifies.
func (r Report) Best() (Entry, bool) {
	valid := lo.Filter(r.Entries, func(entry Entry, _ int) bool {
		return entry.Err == nil && entry.Record.Valid()
	})
	if len(valid) == 0 {
		return Entry{}, false
	}
	return lo.MinBy(valid, func(a, b Entry) bool {
		return a.Record.TotalSoftPenalty < b.Record.TotalSoftPenalty
	}), true
}

type runKey struct {
	model    *model.Model
	strategy string
}

var (
	busyMu sync.Mutex
	busy   = make(map[runKey]bool)
)

func acquire(m *model.Model, strategies []solver.Strategy) error {
	busyMu.Lock()
	defer busyMu.Unlock()
	for _, strategy := range strategies {
		if busy[runKey{m, strategy.Name()}] {
			return BusyError{Strategy: strategy.Name()}
		}
	}
	for _, strategy := range strategies {
		busy[runKey{m, strategy.Name()}] = true
	}
	return nil
}

func release(m *model.Model, strategies []solver.Strategy) {
	busyMu.Lock()
	defer busyMu.Unlock()
	for _, strategy := range strategies {
		delete(busy, runKey{m, strategy.Name()})
	}
}

// RunComparison solves the instance with each strategy in parallel, each
// under its own deadline, and evaluates every outcome against the full
// constraint catalogue. Entries keep the submission order of the
// strategies. A failing strategy never aborts the others; its entry carries
// the error instead. Running the same strategy on the same instance
// concurrently yields a BusyError.
func RunComparison(
	ctx context.Context,
	m *model.Model,
	selection constraint.Selection,
	strategies []solver.Strategy,
	budget time.Duration,
) (Report, error) {
	if len(strategies) == 0 {
		return Report{}, fmt.Errorf("no strategies submitted")
	}
	if err := acquire(m, strategies); err != nil {
		return Report{}, err
	}
	defer release(m, strategies)

	report := Report{
		Id:      uuid.NewString(),
		Entries: make([]Entry, len(strategies)),
	}
	log.Infow("comparison started",
		"id", report.Id,
		"strategies", lo.Map(strategies, func(s solver.Strategy, _ int) string { return s.Name() }),
		"budget", budget,
	)

	var wg sync.WaitGroup
	for i, strategy := range strategies {
		wg.Add(1)
		go func(i int, strategy solver.Strategy) {
			defer wg.Done()
			runCtx, cancel := context.WithTimeout(ctx, budget)
			defer cancel()

			entry := Entry{
				RunId:    uuid.NewString(),
				Strategy: strategy.Name(),
			}
			entry.Result = strategy.Solve(runCtx, m, selection, budget)
			if entry.Result.Err != nil {
				entry.Err = entry.Result.Err
				log.Warnw("strategy failed",
					"comparison", report.Id,
					"strategy", strategy.Name(),
					"error", entry.Err,
				)
			}
			// Failed runs still get a record carrying strategy, status and
			// duration; Evaluate handles the missing assignment.
			record, evalErr := metrics.Evaluate(m, entry.Result)
			entry.Record = record
			if evalErr != nil && entry.Err == nil {
				entry.Err = evalErr
			}
			report.Entries[i] = entry
			log.Infow("strategy finished",
				"comparison", report.Id,
				"strategy", strategy.Name(),
				"status", entry.Result.Status,
				"duration", entry.Result.Duration,
			)
		}(i, strategy)
	}
	wg.Wait()

	log.Infow("comparison finished", "id", report.Id)
	return report, nil
}
