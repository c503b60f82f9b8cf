package constraint

import (
	"slices"

	"github.com/samber/lo"

	"github.com/limaJavier/exam-timetabling/pkg/model"
)

// sameDayClustering penalizes every exam beyond the first a student sits on
// one day.
func sameDayClustering(m *model.Model, a *model.Assignment) uint64 {
	var penalty uint64
	for student := uint64(0); student < m.NumStudents(); student++ {
		perDay := make(map[uint64]uint64)
		for _, exam := range m.StudentExams(student) {
			if !placed(m, a, exam) {
				continue
			}
			perDay[m.Timeslot(a.Placements[exam].Slot).Day]++
		}
		for _, count := range perDay {
			if count > 1 {
				penalty += count - 1
			}
		}
	}
	return penalty
}

// roomBalancing penalizes the spread between the busiest and the idlest room.
func roomBalancing(m *model.Model, a *model.Assignment) uint64 {
	counts := make([]uint64, m.NumRooms())
	for exam := uint64(0); exam < m.NumExams(); exam++ {
		if placed(m, a, exam) {
			counts[a.Placements[exam].Room]++
		}
	}
	return lo.Max(counts) - lo.Min(counts)
}

// invigilatorBalance penalizes the duty-count spread across invigilators.
func invigilatorBalance(m *model.Model, a *model.Assignment) uint64 {
	if m.NumInvigilators() == 0 {
		return 0
	}
	counts := make([]uint64, m.NumInvigilators())
	for _, invigilator := range a.Duties {
		if invigilator < m.NumInvigilators() {
			counts[invigilator]++
		}
	}
	return lo.Max(counts) - lo.Min(counts)
}

// capabilityMatch penalizes exams seated in rooms lacking their requested
// capability.
func capabilityMatch(m *model.Model, a *model.Assignment) uint64 {
	var penalty uint64
	for exam := uint64(0); exam < m.NumExams(); exam++ {
		capability := m.Exam(exam).Capability
		if capability == "" || !placed(m, a, exam) {
			continue
		}
		if !m.RoomOffers(a.Placements[exam].Room, capability) {
			penalty++
		}
	}
	return penalty
}

// idleRoomGaps penalizes idle slots between the first and last use of a room
// within one day.
func idleRoomGaps(m *model.Model, a *model.Assignment) uint64 {
	used := make(map[uint64]map[uint64]bool) // room -> set of used slots
	for exam := uint64(0); exam < m.NumExams(); exam++ {
		if !placed(m, a, exam) {
			continue
		}
		placement := a.Placements[exam]
		if used[placement.Room] == nil {
			used[placement.Room] = make(map[uint64]bool)
		}
		used[placement.Room][placement.Slot] = true
	}

	var penalty uint64
	for room := uint64(0); room < m.NumRooms(); room++ {
		for _, day := range m.Days() {
			var positions []uint64
			for position, slot := range m.SlotsOfDay(day) {
				if used[room][slot] {
					positions = append(positions, uint64(position))
				}
			}
			if len(positions) > 1 {
				span := positions[len(positions)-1] - positions[0] + 1
				penalty += span - uint64(len(positions))
			}
		}
	}
	return penalty
}

// studentSpacing penalizes a student's consecutive same-day exams closer than
// two slot positions apart.
func studentSpacing(m *model.Model, a *model.Assignment) uint64 {
	var penalty uint64
	for student := uint64(0); student < m.NumStudents(); student++ {
		indexes := make([]uint64, 0)
		for _, exam := range m.StudentExams(student) {
			if placed(m, a, exam) {
				indexes = append(indexes, a.Placements[exam].Slot)
			}
		}
		slices.Sort(indexes)
		for i := 0; i+1 < len(indexes); i++ {
			slot1, slot2 := indexes[i], indexes[i+1]
			if m.Timeslot(slot1).Day != m.Timeslot(slot2).Day {
				continue
			}
			gap := m.Timeslot(slot2).Index - m.Timeslot(slot1).Index
			if gap < 2 {
				penalty += 2 - gap
			}
		}
	}
	return penalty
}

// lastSlotOverflow penalizes exams seated in the final slot of a day.
func lastSlotOverflow(m *model.Model, a *model.Assignment) uint64 {
	var penalty uint64
	for exam := uint64(0); exam < m.NumExams(); exam++ {
		if placed(m, a, exam) && m.IsLastSlotOfDay(a.Placements[exam].Slot) {
			penalty++
		}
	}
	return penalty
}

// dayLoadBalance penalizes invigilators whose duties bunch up on some days
// while other days stay empty.
func dayLoadBalance(m *model.Model, a *model.Assignment) uint64 {
	days := m.Days()
	if len(days) < 2 || m.NumInvigilators() == 0 {
		return 0
	}

	perDay := make(map[uint64]map[uint64]uint64) // invigilator -> day -> duties
	for key, invigilator := range a.Duties {
		if invigilator >= m.NumInvigilators() || key[0] >= m.NumTimeslots() {
			continue
		}
		if perDay[invigilator] == nil {
			perDay[invigilator] = make(map[uint64]uint64)
		}
		perDay[invigilator][m.Timeslot(key[0]).Day]++
	}

	var penalty uint64
	for _, duties := range perDay {
		var minimum, maximum uint64
		minimum = ^uint64(0)
		for _, day := range days {
			count := duties[day]
			minimum = min(minimum, count)
			maximum = max(maximum, count)
		}
		penalty += maximum - minimum
	}
	return penalty
}
