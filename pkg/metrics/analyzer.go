package metrics

import (
	"github.com/samber/lo"

	"github.com/limaJavier/exam-timetabling/pkg/model"
)

// Analysis captures structural properties of an assignment that are not
// constraint violations but still matter when comparing schedules.
type Analysis struct {
	// RoomUtilization maps each used room to the percentage of its capacity
	// occupied, averaged over the timeslots in which it hosts exams.
	RoomUtilization map[uint64]float64
	// ExamsPerSlot maps each timeslot to the number of exams placed in it.
	ExamsPerSlot map[uint64]uint64
	// StudentSpread is a histogram from slot-span (distance in timeslots
	// between a student's first and last exam) to the number of students
	// with that span.
	StudentSpread map[uint64]uint64

	AverageRoomUtilization float64
	AverageExamsPerSlot    float64
	AverageStudentSpread   float64
}

// Analyze computes utilization and distribution statistics for an
// assignment. Exams without an in-range placement are skipped, so the
// analysis stays meaningful for partial assignments coming out of heuristic
// strategies.
func Analyze(m *model.Model, a *model.Assignment) *Analysis {
	analysis := &Analysis{
		RoomUtilization: make(map[uint64]float64),
		ExamsPerSlot:    make(map[uint64]uint64),
		StudentSpread:   make(map[uint64]uint64),
	}

	seated := make(map[model.DutyKey]uint64)
	for exam, placement := range a.Placements {
		if uint64(exam) >= m.NumExams() ||
			placement.Slot >= m.NumTimeslots() || placement.Room >= m.NumRooms() {
			continue
		}
		seated[model.DutyKey{placement.Slot, placement.Room}] += uint64(len(m.Exam(uint64(exam)).Students))
		analysis.ExamsPerSlot[placement.Slot]++
	}

	//** Room utilization
	occupancy := make(map[uint64][]float64)
	for pair, students := range seated {
		room := m.Room(pair[1])
		occupancy[room.Id] = append(occupancy[room.Id], 100*float64(students)/float64(room.Capacity))
	}
	for room, rates := range occupancy {
		analysis.RoomUtilization[room] = lo.Sum(rates) / float64(len(rates))
	}
	if len(analysis.RoomUtilization) > 0 {
		analysis.AverageRoomUtilization = lo.Sum(lo.Values(analysis.RoomUtilization)) / float64(len(analysis.RoomUtilization))
	}

	//** Exams per slot
	if len(analysis.ExamsPerSlot) > 0 {
		analysis.AverageExamsPerSlot = float64(lo.Sum(lo.Values(analysis.ExamsPerSlot))) / float64(len(analysis.ExamsPerSlot))
	}

	//** Student spread
	var spreadTotal, spreadStudents uint64
	for student := uint64(0); student < m.NumStudents(); student++ {
		exams := m.StudentExams(student)
		if len(exams) == 0 {
			continue
		}
		slots := make([]uint64, 0, len(exams))
		for _, exam := range exams {
			if exam >= uint64(len(a.Placements)) {
				continue
			}
			placement := a.Placements[exam]
			if placement.Slot < m.NumTimeslots() {
				slots = append(slots, placement.Slot)
			}
		}
		if len(slots) == 0 {
			continue
		}
		span := lo.Max(slots) - lo.Min(slots)
		analysis.StudentSpread[span]++
		spreadTotal += span
		spreadStudents++
	}
	if spreadStudents > 0 {
		analysis.AverageStudentSpread = float64(spreadTotal) / float64(spreadStudents)
	}

	return analysis
}
