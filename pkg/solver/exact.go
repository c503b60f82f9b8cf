package solver

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/limaJavier/exam-timetabling/internal/logger"
	"github.com/limaJavier/exam-timetabling/internal/sat"
	"github.com/limaJavier/exam-timetabling/pkg/constraint"
	"github.com/limaJavier/exam-timetabling/pkg/model"
)

// exactStrategy proves feasibility with a SAT backend. Enabled hard
// constraints become CNF clauses; duty covering and many-cohort capacity
// overflows are checked after decoding, and violating configurations are
// excluded with blocking clauses before re-solving. Soft constraints are then
// reduced by a feasibility-preserving descent: the strategy reports optimal
// only when the weighted penalty reaches its zero lower bound.
type exactStrategy struct {
	solver sat.SATSolver
	log    *zap.SugaredLogger
}

func NewExact() Strategy {
	return &exactStrategy{
		solver: sat.NewGiniSolver(),
		log:    logger.NewNamedLogger("solver.exact"),
	}
}

func (strategy *exactStrategy) Name() string { return "exact" }

func (strategy *exactStrategy) Solve(ctx context.Context, m *model.Model, selection constraint.Selection, budget time.Duration) Result {
	return guardedSolve(strategy.Name(), func() Result {
		deadline := time.Now().Add(budget)
		ix := newIndexer(m.NumExams(), m.NumTimeslots(), m.NumRooms())
		instance := buildSAT(m, selection)

		diagnostics := map[string]any{
			"variables": instance.Variables,
			"clauses":   uint64(len(instance.Clauses)),
			"resolves":  uint64(0),
		}

		for {
			if expired(ctx, deadline) {
				return Result{Status: StatusTimeout, Diagnostics: diagnostics}
			}

			solution, outcome, err := strategy.solver.Solve(instance, time.Until(deadline))
			if err != nil {
				return Result{
					Status:      StatusError,
					Diagnostics: diagnostics,
					Err:         &BackendError{Strategy: strategy.Name(), Cause: err},
				}
			}

			switch outcome {
			case sat.ResultUnsatisfiable:
				return Result{Status: StatusInfeasible, Diagnostics: diagnostics}
			case sat.ResultUnknown:
				return Result{Status: StatusTimeout, Diagnostics: diagnostics}
			}

			assignment := decodeSolution(m, ix, solution)
			blocked := strategy.blockViolations(m, ix, selection, assignment, &instance)
			if blocked {
				diagnostics["resolves"] = diagnostics["resolves"].(uint64) + 1
				diagnostics["clauses"] = uint64(len(instance.Clauses))
				continue
			}

			assignment, penalty := strategy.softDescent(ctx, deadline, m, selection, assignment)
			diagnostics["objective"] = float64(penalty)

			status := StatusFeasible
			if penalty == 0 {
				status = StatusOptimal
			}
			return Result{Status: status, Assignment: assignment, Diagnostics: diagnostics}
		}
	})
}

// blockViolations checks the decoded assignment for violations the CNF does
// not capture exactly and appends a blocking clause per finding. Blocking
// clauses only ever exclude violating configurations, so an unsatisfiable
// instance after blocking is genuinely infeasible.
func (strategy *exactStrategy) blockViolations(m *model.Model, ix indexer, selection constraint.Selection, assignment *model.Assignment, instance *sat.SAT) bool {
	blocked := false

	if selection.Contains(constraint.RoomCapacity) {
		seatedExams := make(map[model.DutyKey][]uint64)
		for exam := uint64(0); exam < m.NumExams(); exam++ {
			placement := assignment.Placements[exam]
			key := model.DutyKey{placement.Slot, placement.Room}
			seatedExams[key] = append(seatedExams[key], exam)
		}
		for key, exams := range seatedExams {
			var students uint64
			for _, exam := range exams {
				students += uint64(len(m.Exam(exam).Students))
			}
			if students > m.Room(key[1]).Capacity {
				instance.Clauses = append(instance.Clauses, blockingClause(ix, assignment, exams))
				strategy.log.Debugw("blocked overfull room configuration", "slot", key[0], "room", key[1], "students", students)
				blocked = true
			}
		}
	}

	if selection.Contains(constraint.InvigilatorAvailability) {
		uncovered := assignDuties(m, assignment)
		if len(uncovered) > 0 {
			// Uncoverability is a property of a whole overlap component, not
			// of the uncovered slots alone: moving any exam in the component
			// can make the rest coverable. Block the complete component so
			// only genuinely invalid configurations are excluded.
			uncoveredSlots := make(map[uint64]bool, len(uncovered))
			for _, key := range uncovered {
				uncoveredSlots[key[0]] = true
			}
			for _, component := range overlapComponents(m, assignment.OccupiedPairs()) {
				hit := false
				for slot := range uncoveredSlots {
					if component[slot] {
						hit = true
						break
					}
				}
				if !hit {
					continue
				}
				exams := make([]uint64, 0)
				for exam := uint64(0); exam < m.NumExams(); exam++ {
					if component[assignment.Placements[exam].Slot] {
						exams = append(exams, exam)
					}
				}
				if len(exams) > 0 {
					instance.Clauses = append(instance.Clauses, blockingClause(ix, assignment, exams))
					blocked = true
				}
			}
			strategy.log.Debugw("blocked uncoverable duty configuration", "uncovered", len(uncovered))
		}
	} else {
		assignDuties(m, assignment)
	}

	return blocked
}

// softDescent lowers the weighted soft penalty with first-improvement moves
// that keep the enabled hard constraints at zero violations.
func (strategy *exactStrategy) softDescent(ctx context.Context, deadline time.Time, m *model.Model, selection constraint.Selection, start *model.Assignment) (*model.Assignment, uint64) {
	rng := rand.New(rand.NewSource(int64(m.NumExams())))
	current := start
	currentScore := evaluateScore(m, selection, current)

	for currentScore.soft > 0 && !expired(ctx, deadline) {
		improved := false
		for _, candidate := range neighbors(m, current, rng, 0) {
			if expired(ctx, deadline) {
				break
			}
			candidateScore := evaluateCandidate(m, selection, candidate)
			if candidateScore.hard == 0 && candidateScore.soft < currentScore.soft {
				current, currentScore = candidate, candidateScore
				improved = true
				break
			}
		}
		if !improved {
			break
		}
	}

	return current, currentScore.soft
}
