package solver

import (
	"context"
	"math/rand"
	"time"

	"github.com/limaJavier/exam-timetabling/pkg/constraint"
	"github.com/limaJavier/exam-timetabling/pkg/model"
)

const (
	geneticPopulation  = 60
	geneticGenerations = 200
	geneticTournament  = 3
	geneticCrossover   = 0.7
	geneticMutation    = 0.2
	geneticGeneRate    = 0.05
)

// geneticStrategy evolves a fixed-size population of assignments with
// tournament selection, single-point crossover over per-exam genes and
// per-gene mutation. Every operator works on whole placements, so each exam
// appears exactly once in every individual by construction. The best
// individual at budget exhaustion is reported feasible.
type geneticStrategy struct {
	seed int64
}

func NewGenetic(seed int64) Strategy {
	return &geneticStrategy{seed: seed}
}

func (strategy *geneticStrategy) Name() string { return "genetic" }

type individual struct {
	assignment *model.Assignment
	fitness    score
}

func (strategy *geneticStrategy) Solve(ctx context.Context, m *model.Model, selection constraint.Selection, budget time.Duration) Result {
	return guardedSolve(strategy.Name(), func() Result {
		deadline := time.Now().Add(budget)
		rng := rand.New(rand.NewSource(strategy.seed))

		// Seed the population with one greedy individual so the search never
		// starts worse than the constructive heuristic.
		population := make([]individual, 0, geneticPopulation)
		population = append(population, newIndividual(m, selection, greedyAssignment(m, rng)))
		for len(population) < geneticPopulation {
			if expired(ctx, deadline) {
				break
			}
			population = append(population, newIndividual(m, selection, randomAssignment(m, rng)))
		}

		best := fittest(population)
		var generations uint64

		for range geneticGenerations {
			if expired(ctx, deadline) || best.fitness.perfect() {
				break
			}
			generations++

			offspring := make([]individual, 0, len(population))
			for len(offspring) < len(population) {
				if expired(ctx, deadline) {
					break
				}

				parent1 := tournament(population, rng)
				parent2 := tournament(population, rng)

				child := parent1.assignment.Clone()
				if rng.Float64() < geneticCrossover {
					crossover(child, parent2.assignment, rng)
				}
				if rng.Float64() < geneticMutation {
					mutate(m, child, rng)
				}
				offspring = append(offspring, newIndividual(m, selection, child))
			}
			if len(offspring) == 0 {
				break
			}

			population = offspring
			if candidate := fittest(population); candidate.fitness.less(best.fitness) {
				best = candidate
			}
		}

		status := StatusFeasible
		if expired(ctx, deadline) && generations == 0 {
			status = StatusTimeout
		}

		return Result{
			Status:     status,
			Assignment: best.assignment,
			Diagnostics: map[string]any{
				"generations":     generations,
				"population":      uint64(geneticPopulation),
				"objective":       float64(best.fitness.soft),
				"hard_violations": best.fitness.hard,
			},
		}
	})
}

func newIndividual(m *model.Model, selection constraint.Selection, assignment *model.Assignment) individual {
	return individual{
		assignment: assignment,
		fitness:    evaluateCandidate(m, selection, assignment),
	}
}

func fittest(population []individual) individual {
	best := population[0]
	for _, candidate := range population[1:] {
		if candidate.fitness.less(best.fitness) {
			best = candidate
		}
	}
	return best
}

func tournament(population []individual, rng *rand.Rand) individual {
	best := population[rng.Intn(len(population))]
	for range geneticTournament - 1 {
		candidate := population[rng.Intn(len(population))]
		if candidate.fitness.less(best.fitness) {
			best = candidate
		}
	}
	return best
}

// crossover copies the tail of placements from the other parent, starting at
// a random cut point. Genes are whole placements: the exam set is invariant.
func crossover(child *model.Assignment, other *model.Assignment, rng *rand.Rand) {
	if len(child.Placements) < 2 {
		return
	}
	cut := 1 + rng.Intn(len(child.Placements)-1)
	copy(child.Placements[cut:], other.Placements[cut:])
}

func mutate(m *model.Model, child *model.Assignment, rng *rand.Rand) {
	for exam := range child.Placements {
		if rng.Float64() < geneticGeneRate {
			child.Placements[exam].Slot = uint64(rng.Intn(int(m.NumTimeslots())))
		}
		if rng.Float64() < geneticGeneRate {
			child.Placements[exam].Room = uint64(rng.Intn(int(m.NumRooms())))
		}
	}
}
