package solver

import (
	"github.com/limaJavier/exam-timetabling/internal/sat"
	"github.com/limaJavier/exam-timetabling/pkg/constraint"
	"github.com/limaJavier/exam-timetabling/pkg/model"
)

// The exact strategy encodes one Boolean variable per (exam, slot, room)
// triple. Placement structure (every exam exactly one pair) is always
// encoded; the remaining hard constraints contribute clauses only when
// enabled for the run. Soft constraints never appear in the CNF.

type encodeState struct {
	m  *model.Model
	ix indexer
}

func buildSAT(m *model.Model, selection constraint.Selection) sat.SAT {
	state := encodeState{
		m:  m,
		ix: newIndexer(m.NumExams(), m.NumTimeslots(), m.NumRooms()),
	}

	builders := []func(state encodeState) [][]int64{placementClauses}
	if selection.Contains(constraint.StudentConflict) {
		builders = append(builders, studentConflictClauses)
	}
	if selection.Contains(constraint.RoomConflict) {
		builders = append(builders, roomConflictClauses)
	}
	if selection.Contains(constraint.RoomCapacity) {
		builders = append(builders, roomCapacityClauses)
	}
	if selection.Contains(constraint.InvigilatorAvailability) {
		builders = append(builders, uncoverableSlotClauses)
	}

	instance := sat.SAT{
		Variables: state.ix.variables(),
		Clauses:   [][]int64{},
	}

	// Execute clause builders on different goroutines to improve performance
	clausesChannel := make(chan [][]int64)
	for _, builder := range builders {
		go func(builder func(state encodeState) [][]int64) {
			clausesChannel <- builder(state)
		}(builder)
	}

	collected := 0
	for clauses := range clausesChannel {
		instance.Clauses = append(instance.Clauses, clauses...)
		if collected++; collected == len(builders) {
			close(clausesChannel)
		}
	}

	return instance
}

// EncodeDIMACS renders the CNF encoding of the instance in DIMACS form, for
// inspection or for feeding external SAT tooling.
func EncodeDIMACS(m *model.Model, selection constraint.Selection) string {
	return buildSAT(m, selection).ToDIMACS()
}

// placementClauses pin the assignment invariant: every exam takes exactly one
// (slot, room) pair, and never a room too small for the exam alone.
func placementClauses(state encodeState) [][]int64 {
	m, ix := state.m, state.ix
	clauses := make([][]int64, 0)

	for exam := uint64(0); exam < m.NumExams(); exam++ {
		// At least one feasible pair
		atLeastOne := make([]int64, 0)
		for slot := uint64(0); slot < m.NumTimeslots(); slot++ {
			for room := uint64(0); room < m.NumRooms(); room++ {
				index := int64(ix.index(exam, slot, room))
				if m.Fits(exam, room) {
					atLeastOne = append(atLeastOne, index)
				} else {
					clauses = append(clauses, []int64{-index})
				}
			}
		}
		clauses = append(clauses, atLeastOne)

		// At most one pair
		pairs := ix.slots * ix.rooms
		for first := uint64(0); first+1 < pairs; first++ {
			for second := first + 1; second < pairs; second++ {
				index1 := ix.index(exam, first%ix.slots, first/ix.slots)
				index2 := ix.index(exam, second%ix.slots, second/ix.slots)
				clauses = append(clauses, []int64{-int64(index1), -int64(index2)})
			}
		}
	}

	return clauses
}

// studentConflictClauses forbid exams sharing a student in overlapping slots.
func studentConflictClauses(state encodeState) [][]int64 {
	m, ix := state.m, state.ix
	clauses := make([][]int64, 0)

	for exam1 := uint64(0); exam1+1 < m.NumExams(); exam1++ {
		for exam2 := exam1 + 1; exam2 < m.NumExams(); exam2++ {
			if !m.Conflicting(exam1, exam2) {
				continue
			}
			for slot1 := uint64(0); slot1 < m.NumTimeslots(); slot1++ {
				for slot2 := uint64(0); slot2 < m.NumTimeslots(); slot2++ {
					if !m.Overlapping(slot1, slot2) {
						continue
					}
					for room1 := uint64(0); room1 < m.NumRooms(); room1++ {
						for room2 := uint64(0); room2 < m.NumRooms(); room2++ {
							index1 := ix.index(exam1, slot1, room1)
							index2 := ix.index(exam2, slot2, room2)
							clauses = append(clauses, []int64{-int64(index1), -int64(index2)})
						}
					}
				}
			}
		}
	}

	return clauses
}

// roomConflictClauses forbid two exams in one room in distinct slots that
// overlap in wall time.
func roomConflictClauses(state encodeState) [][]int64 {
	m, ix := state.m, state.ix
	clauses := make([][]int64, 0)

	for exam1 := uint64(0); exam1+1 < m.NumExams(); exam1++ {
		for exam2 := exam1 + 1; exam2 < m.NumExams(); exam2++ {
			for slot1 := uint64(0); slot1 < m.NumTimeslots(); slot1++ {
				for slot2 := uint64(0); slot2 < m.NumTimeslots(); slot2++ {
					if slot1 == slot2 || !m.Overlapping(slot1, slot2) {
						continue
					}
					for room := uint64(0); room < m.NumRooms(); room++ {
						index1 := ix.index(exam1, slot1, room)
						index2 := ix.index(exam2, slot2, room)
						clauses = append(clauses, []int64{-int64(index1), -int64(index2)})
					}
				}
			}
		}
	}

	return clauses
}

// roomCapacityClauses forbid exam pairs whose combined enrollment overflows a
// shared (slot, room). Overflows only visible with three or more cohorts are
// caught after solving and excluded with a blocking clause.
func roomCapacityClauses(state encodeState) [][]int64 {
	m, ix := state.m, state.ix
	clauses := make([][]int64, 0)

	for exam1 := uint64(0); exam1+1 < m.NumExams(); exam1++ {
		for exam2 := exam1 + 1; exam2 < m.NumExams(); exam2++ {
			combined := uint64(len(m.Exam(exam1).Students)) + uint64(len(m.Exam(exam2).Students))
			for room := uint64(0); room < m.NumRooms(); room++ {
				if combined <= m.Room(room).Capacity {
					continue
				}
				for slot := uint64(0); slot < m.NumTimeslots(); slot++ {
					index1 := ix.index(exam1, slot, room)
					index2 := ix.index(exam2, slot, room)
					clauses = append(clauses, []int64{-int64(index1), -int64(index2)})
				}
			}
		}
	}

	return clauses
}

// uncoverableSlotClauses forbid placing any exam in a slot no invigilator can
// attend: the duty there could never be covered.
func uncoverableSlotClauses(state encodeState) [][]int64 {
	m, ix := state.m, state.ix
	clauses := make([][]int64, 0)

	for slot := uint64(0); slot < m.NumTimeslots(); slot++ {
		if len(m.AvailableInvigilators(slot)) > 0 {
			continue
		}
		for exam := uint64(0); exam < m.NumExams(); exam++ {
			for room := uint64(0); room < m.NumRooms(); room++ {
				clauses = append(clauses, []int64{-int64(ix.index(exam, slot, room))})
			}
		}
	}

	return clauses
}

// decodeSolution reads exam placements back from the SAT model.
func decodeSolution(m *model.Model, ix indexer, solution sat.SATSolution) *model.Assignment {
	assignment := model.NewAssignment(m.NumExams())
	for _, variable := range solution {
		if variable <= 0 {
			continue
		}
		exam, slot, room := ix.attributes(uint64(variable))
		assignment.Placements[exam] = model.Placement{Slot: slot, Room: room}
	}
	return assignment
}

// blockingClause excludes the current placements of the given exams, so the
// next solve cannot reproduce a combination found violating after decoding.
func blockingClause(ix indexer, a *model.Assignment, exams []uint64) []int64 {
	clause := make([]int64, 0, len(exams))
	for _, exam := range exams {
		placement := a.Placements[exam]
		clause = append(clause, -int64(ix.index(exam, placement.Slot, placement.Room)))
	}
	return clause
}
