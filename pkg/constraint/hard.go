package constraint

import (
	"github.com/limaJavier/exam-timetabling/pkg/model"
)

// placed reports whether the exam's placement is inside the model's domains.
// Out-of-range placements are counted by the completeness constraint only;
// every other predicate skips them so constraints stay independent.
func placed(m *model.Model, a *model.Assignment, exam uint64) bool {
	if exam >= uint64(len(a.Placements)) {
		return false
	}
	placement := a.Placements[exam]
	return placement.Slot < m.NumTimeslots() && placement.Room < m.NumRooms()
}

// studentConflict counts exam pairs sharing a student in overlapping
// timeslots.
func studentConflict(m *model.Model, a *model.Assignment) uint64 {
	var violations uint64
	for exam1 := uint64(0); exam1+1 < m.NumExams(); exam1++ {
		for exam2 := exam1 + 1; exam2 < m.NumExams(); exam2++ {
			if !placed(m, a, exam1) || !placed(m, a, exam2) {
				continue
			}
			if m.Conflicting(exam1, exam2) &&
				m.Overlapping(a.Placements[exam1].Slot, a.Placements[exam2].Slot) {
				violations++
			}
		}
	}
	return violations
}

// roomConflict counts exam pairs sharing a room in distinct timeslots that
// overlap in wall time. Two exams seated in the very same slot and room are
// allowed (cohorts share a hall); roomCapacity bounds how many students fit.
func roomConflict(m *model.Model, a *model.Assignment) uint64 {
	var violations uint64
	for exam1 := uint64(0); exam1+1 < m.NumExams(); exam1++ {
		for exam2 := exam1 + 1; exam2 < m.NumExams(); exam2++ {
			if !placed(m, a, exam1) || !placed(m, a, exam2) {
				continue
			}
			placement1, placement2 := a.Placements[exam1], a.Placements[exam2]
			if placement1.Room == placement2.Room &&
				placement1.Slot != placement2.Slot &&
				m.Overlapping(placement1.Slot, placement2.Slot) {
				violations++
			}
		}
	}
	return violations
}

// roomCapacity counts occupied (slot, room) pairs whose combined enrollment
// exceeds the room's capacity.
func roomCapacity(m *model.Model, a *model.Assignment) uint64 {
	seated := make(map[model.DutyKey]uint64)
	for exam := uint64(0); exam < m.NumExams(); exam++ {
		if !placed(m, a, exam) {
			continue
		}
		placement := a.Placements[exam]
		seated[model.DutyKey{placement.Slot, placement.Room}] += uint64(len(m.Exam(exam).Students))
	}

	var violations uint64
	for key, students := range seated {
		if students > m.Room(key[1]).Capacity {
			violations++
		}
	}
	return violations
}

// completeness counts exams without exactly one in-range (slot, room) pair.
func completeness(m *model.Model, a *model.Assignment) uint64 {
	var violations uint64
	if uint64(len(a.Placements)) < m.NumExams() {
		violations += m.NumExams() - uint64(len(a.Placements))
	}
	for exam := uint64(0); exam < m.NumExams() && exam < uint64(len(a.Placements)); exam++ {
		if !placed(m, a, exam) {
			violations++
		}
	}
	return violations
}

// invigilatorAvailability counts occupied pairs without a distinct available
// invigilator: uncovered duties, invigilators scheduled outside their
// availability, and invigilators covering two rooms in overlapping slots.
func invigilatorAvailability(m *model.Model, a *model.Assignment) uint64 {
	var violations uint64

	pairs := make([]model.DutyKey, 0)
	for exam := uint64(0); exam < m.NumExams(); exam++ {
		if !placed(m, a, exam) {
			continue
		}
		placement := a.Placements[exam]
		key := model.DutyKey{placement.Slot, placement.Room}
		if !containsKey(pairs, key) {
			pairs = append(pairs, key)
		}
	}

	for i, key := range pairs {
		invigilator, ok := a.Duties[key]
		if !ok {
			violations++
			continue
		}
		if invigilator >= m.NumInvigilators() || !m.InvigilatorAvailable(invigilator, key[0]) {
			violations++
			continue
		}
		// Same invigilator on two rooms at once
		for _, previous := range pairs[:i] {
			if other, ok := a.Duties[previous]; ok && other == invigilator && m.Overlapping(previous[0], key[0]) {
				violations++
				break
			}
		}
	}
	return violations
}

func containsKey(keys []model.DutyKey, key model.DutyKey) bool {
	for _, candidate := range keys {
		if candidate == key {
			return true
		}
	}
	return false
}
