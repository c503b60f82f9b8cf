package solver

import (
	"context"
	"math/rand"
	"time"

	"github.com/limaJavier/exam-timetabling/pkg/constraint"
	"github.com/limaJavier/exam-timetabling/pkg/model"
)

const (
	tabuTenure        = 10
	tabuIterations    = 1000
	tabuNeighborLimit = 20
)

// tabuSearchStrategy explores like local search but forbids revisiting the
// last tabuTenure accepted placements, accepting the best non-tabu move even
// when it worsens the score. Aspiration: a move beating the global best is
// taken regardless of its tabu status.
type tabuSearchStrategy struct {
	seed int64
}

func NewTabuSearch(seed int64) Strategy {
	return &tabuSearchStrategy{seed: seed}
}

func (strategy *tabuSearchStrategy) Name() string { return "tabu-search" }

func (strategy *tabuSearchStrategy) Solve(ctx context.Context, m *model.Model, selection constraint.Selection, budget time.Duration) Result {
	return guardedSolve(strategy.Name(), func() Result {
		deadline := time.Now().Add(budget)
		rng := rand.New(rand.NewSource(strategy.seed))

		current := randomAssignment(m, rng)
		currentScore := evaluateScore(m, selection, current)
		best, bestScore := current, currentScore

		tabuList := make([]string, 0, tabuTenure)
		isTabu := func(key string) bool {
			for _, entry := range tabuList {
				if entry == key {
					return true
				}
			}
			return false
		}

		var iterations uint64
		for range tabuIterations {
			if expired(ctx, deadline) {
				return strategy.finish(StatusTimeout, best, bestScore, iterations)
			}
			iterations++

			var chosen *model.Assignment
			var chosenScore score
			for _, candidate := range neighbors(m, current, rng, tabuNeighborLimit) {
				if expired(ctx, deadline) {
					break
				}
				candidateScore := evaluateCandidate(m, selection, candidate)
				aspiration := candidateScore.less(bestScore)
				if !aspiration && isTabu(placementKey(candidate)) {
					continue
				}
				if chosen == nil || candidateScore.less(chosenScore) {
					chosen, chosenScore = candidate, candidateScore
				}
			}
			if chosen == nil {
				break // every neighbor tabu: nothing left to explore
			}

			current, currentScore = chosen, chosenScore
			if currentScore.less(bestScore) {
				best, bestScore = current, currentScore
			}

			tabuList = append(tabuList, placementKey(current))
			if len(tabuList) > tabuTenure {
				tabuList = tabuList[1:]
			}

			if bestScore.perfect() {
				break
			}
		}

		return strategy.finish(StatusFeasible, best, bestScore, iterations)
	})
}

func (strategy *tabuSearchStrategy) finish(status Status, best *model.Assignment, bestScore score, iterations uint64) Result {
	result := Result{
		Status: status,
		Diagnostics: map[string]any{
			"iterations":  iterations,
			"tabu_tenure": uint64(tabuTenure),
		},
	}
	if best != nil {
		result.Assignment = best
		result.Diagnostics["objective"] = float64(bestScore.soft)
		result.Diagnostics["hard_violations"] = bestScore.hard
	}
	return result
}
