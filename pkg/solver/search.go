package solver

import (
	"math/rand"
	"slices"

	"github.com/samber/lo"

	"github.com/limaJavier/exam-timetabling/pkg/constraint"
	"github.com/limaJavier/exam-timetabling/pkg/model"
)

// score orders candidate assignments lexicographically: hard violations
// first, weighted soft penalty second.
type score struct {
	hard uint64
	soft uint64
}

func (s score) less(other score) bool {
	if s.hard != other.hard {
		return s.hard < other.hard
	}
	return s.soft < other.soft
}

func (s score) perfect() bool {
	return s.hard == 0 && s.soft == 0
}

func evaluateScore(m *model.Model, selection constraint.Selection, a *model.Assignment) score {
	var result score
	for _, c := range selection.Hard() {
		result.hard += c.Evaluate(m, a)
	}
	for _, c := range selection.Soft() {
		result.soft += c.WeightedPenalty(m, a)
	}
	return result
}

// evaluateCandidate completes the candidate with invigilator duties and
// scores it against the enabled constraints.
func evaluateCandidate(m *model.Model, selection constraint.Selection, a *model.Assignment) score {
	assignDuties(m, a)
	return evaluateScore(m, selection, a)
}

func randomAssignment(m *model.Model, rng *rand.Rand) *model.Assignment {
	assignment := model.NewAssignment(m.NumExams())
	for exam := range assignment.Placements {
		assignment.Placements[exam] = model.Placement{
			Slot: uint64(rng.Intn(int(m.NumTimeslots()))),
			Room: uint64(rng.Intn(int(m.NumRooms()))),
		}
	}
	assignDuties(m, assignment)
	return assignment
}

// greedyAssignment seats exams largest-first into the (slot, room) pair with
// the fewest capacity overflows and student clashes.
func greedyAssignment(m *model.Model, rng *rand.Rand) *model.Assignment {
	assignment := model.NewAssignment(m.NumExams())

	order := lo.Range(int(m.NumExams()))
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	slices.SortStableFunc(order, func(a, b int) int {
		return len(m.Exam(uint64(b)).Students) - len(m.Exam(uint64(a)).Students)
	})

	seated := make(map[model.DutyKey]uint64)
	studentSlots := make(map[uint64][]uint64)

	for _, examIndex := range order {
		exam := uint64(examIndex)
		enrollment := uint64(len(m.Exam(exam).Students))

		best := model.Placement{}
		bestConflicts := ^uint64(0)
		for slot := uint64(0); slot < m.NumTimeslots(); slot++ {
			for room := uint64(0); room < m.NumRooms(); room++ {
				var conflicts uint64
				if seated[model.DutyKey{slot, room}]+enrollment > m.Room(room).Capacity {
					conflicts += 1000
				}
				for _, student := range m.Exam(exam).Students {
					for _, taken := range studentSlots[student] {
						if m.Overlapping(slot, taken) {
							conflicts++
						}
					}
				}
				if conflicts < bestConflicts {
					bestConflicts = conflicts
					best = model.Placement{Slot: slot, Room: room}
				}
			}
		}

		assignment.Placements[exam] = best
		seated[model.DutyKey{best.Slot, best.Room}] += enrollment
		for _, student := range m.Exam(exam).Students {
			studentSlots[student] = append(studentSlots[student], best.Slot)
		}
	}

	assignDuties(m, assignment)
	return assignment
}

// neighbors yields candidate assignments one single-exam reassignment or one
// pairwise placement swap away, shuffled and capped at limit.
func neighbors(m *model.Model, a *model.Assignment, rng *rand.Rand, limit int) []*model.Assignment {
	candidates := make([]*model.Assignment, 0)

	for exam := uint64(0); exam < m.NumExams(); exam++ {
		current := a.Placements[exam]
		for slot := uint64(0); slot < m.NumTimeslots(); slot++ {
			for room := uint64(0); room < m.NumRooms(); room++ {
				if slot == current.Slot && room == current.Room {
					continue
				}
				candidate := a.Clone()
				candidate.Placements[exam] = model.Placement{Slot: slot, Room: room}
				candidates = append(candidates, candidate)
			}
		}
	}

	for exam1 := uint64(0); exam1+1 < m.NumExams(); exam1++ {
		for exam2 := exam1 + 1; exam2 < m.NumExams(); exam2++ {
			if a.Placements[exam1] == a.Placements[exam2] {
				continue
			}
			candidate := a.Clone()
			candidate.Placements[exam1], candidate.Placements[exam2] =
				candidate.Placements[exam2], candidate.Placements[exam1]
			candidates = append(candidates, candidate)
		}
	}

	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// placementKey fingerprints an assignment's placements, used by the tabu list.
func placementKey(a *model.Assignment) string {
	key := make([]byte, 0, len(a.Placements)*4)
	for _, placement := range a.Placements {
		key = append(key,
			byte(placement.Slot), byte(placement.Slot>>8),
			byte(placement.Room), byte(placement.Room>>8))
	}
	return string(key)
}
