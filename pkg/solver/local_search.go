package solver

import (
	"context"
	"math/rand"
	"time"

	"github.com/limaJavier/exam-timetabling/pkg/constraint"
	"github.com/limaJavier/exam-timetabling/pkg/model"
)

const (
	localSearchAttempts   = 50
	localSearchIterations = 1000
)

// localSearchStrategy runs steepest descent over single-exam and pairwise
// swap moves under the lexicographic (hard violations, soft penalty) order,
// restarting from a fresh seed whenever a plateau exhausts the moves. It can
// prove neither optimality nor infeasibility, so it only ever reports
// feasible or timeout.
type localSearchStrategy struct {
	seed int64
}

func NewLocalSearch(seed int64) Strategy {
	return &localSearchStrategy{seed: seed}
}

func (strategy *localSearchStrategy) Name() string { return "local-search" }

func (strategy *localSearchStrategy) Solve(ctx context.Context, m *model.Model, selection constraint.Selection, budget time.Duration) Result {
	return guardedSolve(strategy.Name(), func() Result {
		deadline := time.Now().Add(budget)
		rng := rand.New(rand.NewSource(strategy.seed))

		var best *model.Assignment
		var bestScore score
		var iterations uint64

		for attempt := 0; attempt < localSearchAttempts; attempt++ {
			if expired(ctx, deadline) {
				return strategy.finish(StatusTimeout, best, bestScore, iterations)
			}

			current := greedyAssignment(m, rng)
			currentScore := evaluateScore(m, selection, current)
			if best == nil || currentScore.less(bestScore) {
				best, bestScore = current, currentScore
			}

			for range localSearchIterations {
				if expired(ctx, deadline) {
					return strategy.finish(StatusTimeout, best, bestScore, iterations)
				}
				iterations++

				improved := false
				for _, candidate := range neighbors(m, current, rng, 0) {
					if expired(ctx, deadline) {
						break
					}
					candidateScore := evaluateCandidate(m, selection, candidate)
					if candidateScore.less(currentScore) {
						current, currentScore = candidate, candidateScore
						improved = true
						break
					}
				}

				if currentScore.less(bestScore) {
					best, bestScore = current, currentScore
				}
				if !improved || currentScore.perfect() {
					break // plateau: no move strictly improves
				}
			}

			if bestScore.perfect() {
				break
			}
		}

		return strategy.finish(StatusFeasible, best, bestScore, iterations)
	})
}

func (strategy *localSearchStrategy) finish(status Status, best *model.Assignment, bestScore score, iterations uint64) Result {
	result := Result{
		Status: status,
		Diagnostics: map[string]any{
			"iterations": iterations,
		},
	}
	if best != nil {
		result.Assignment = best
		result.Diagnostics["objective"] = float64(bestScore.soft)
		result.Diagnostics["hard_violations"] = bestScore.hard
	}
	return result
}
