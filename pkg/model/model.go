package model

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
)

// ModelError marks a structurally invalid instance. It is fatal: no solve is
// attempted against a model that failed construction.
type ModelError struct {
	Reason string
}

func (err *ModelError) Error() string {
	return fmt.Sprintf("invalid model: %v", err.Reason)
}

func modelErrorf(format string, args ...any) error {
	return &ModelError{Reason: fmt.Sprintf(format, args...)}
}

// Model is an immutable exam-scheduling instance. All accessors are
// read-only; returned slices must not be modified by callers. A Model is
// safely shared by reference across concurrent solver runs.
type Model struct {
	raw RawInstance

	studentExams  map[uint64][]uint64
	slotsByDay    map[uint64][]uint64
	lastSlotOfDay map[uint64]uint64
	overlaps      [][]bool
	examsGraph    [][]bool // (i, j) = true if and only if exam_i and exam_j have at least one student in common; exams[i][i] = true for all i
}

func NewModel(raw RawInstance) (*Model, error) {
	if len(raw.Exams) == 0 {
		return nil, modelErrorf("instance must contain at least one exam")
	} else if len(raw.Timeslots) == 0 {
		return nil, modelErrorf("instance must contain at least one timeslot")
	} else if len(raw.Rooms) == 0 {
		return nil, modelErrorf("instance must contain at least one room")
	}

	//** Verify entity identifiers match their positions
	for i, exam := range raw.Exams {
		if exam.Id != uint64(i) {
			return nil, modelErrorf("exam %q has id %v but position %v", exam.Name, exam.Id, i)
		}
		if exam.Duration == 0 {
			return nil, modelErrorf("exam %q must have a positive duration", exam.Name)
		}
	}
	for i, room := range raw.Rooms {
		if room.Id != uint64(i) {
			return nil, modelErrorf("room %q has id %v but position %v", room.Name, room.Id, i)
		}
		if room.Capacity == 0 {
			return nil, modelErrorf("room %q must have a positive capacity", room.Name)
		}
	}

	//** Verify enrolled students are known
	for _, exam := range raw.Exams {
		for _, student := range exam.Students {
			if student >= raw.Students {
				return nil, modelErrorf("exam %q enrolls unknown student %v (instance declares %v students)", exam.Name, student, raw.Students)
			}
		}
		if len(lo.Uniq(exam.Students)) != len(exam.Students) {
			return nil, modelErrorf("exam %q enrolls a student more than once", exam.Name)
		}
	}

	//** Verify every required capability is offered by some room
	for _, exam := range raw.Exams {
		if exam.Capability == "" {
			continue
		}
		offered := lo.SomeBy(raw.Rooms, func(room Room) bool {
			return slices.Contains(room.Capabilities, exam.Capability)
		})
		if !offered {
			return nil, modelErrorf("exam %q requires capability %q offered by no room", exam.Name, exam.Capability)
		}
	}

	//** Verify timeslot ordering is strictly increasing
	for i, slot := range raw.Timeslots {
		if slot.Id != uint64(i) {
			return nil, modelErrorf("timeslot %v has id %v but position %v", i, slot.Id, i)
		}
		if slot.End <= slot.Start {
			return nil, modelErrorf("timeslot %v must end after it starts", slot.Id)
		}
		if i > 0 {
			previous := raw.Timeslots[i-1]
			if slot.Index <= previous.Index {
				return nil, modelErrorf("timeslot ordering must be strictly increasing: slot %v has index %v after index %v", slot.Id, slot.Index, previous.Index)
			}
			if slot.Day < previous.Day {
				return nil, modelErrorf("timeslot days must be non-decreasing: slot %v is on day %v after day %v", slot.Id, slot.Day, previous.Day)
			}
		}
	}

	//** Verify invigilator availability vectors
	for i, invigilator := range raw.Invigilators {
		if invigilator.Id != uint64(i) {
			return nil, modelErrorf("invigilator %q has id %v but position %v", invigilator.Name, invigilator.Id, i)
		}
		if len(invigilator.Availability) != len(raw.Timeslots) {
			return nil, modelErrorf("invigilator %q declares %v availabilities for %v timeslots", invigilator.Name, len(invigilator.Availability), len(raw.Timeslots))
		}
	}

	return &Model{
		raw:           raw,
		studentExams:  buildStudentExams(raw),
		slotsByDay:    buildSlotsByDay(raw),
		lastSlotOfDay: buildLastSlotOfDay(raw),
		overlaps:      buildOverlaps(raw),
		examsGraph:    buildExamsGraph(raw),
	}, nil
}

func (m *Model) Raw() RawInstance { return m.raw }

func (m *Model) NumExams() uint64        { return uint64(len(m.raw.Exams)) }
func (m *Model) NumTimeslots() uint64    { return uint64(len(m.raw.Timeslots)) }
func (m *Model) NumRooms() uint64        { return uint64(len(m.raw.Rooms)) }
func (m *Model) NumInvigilators() uint64 { return uint64(len(m.raw.Invigilators)) }
func (m *Model) NumStudents() uint64     { return m.raw.Students }

func (m *Model) Exam(exam uint64) Exam                      { return m.raw.Exams[exam] }
func (m *Model) Timeslot(slot uint64) Timeslot              { return m.raw.Timeslots[slot] }
func (m *Model) Room(room uint64) Room                      { return m.raw.Rooms[room] }
func (m *Model) Invigilator(invigilator uint64) Invigilator { return m.raw.Invigilators[invigilator] }

// StudentExams returns the exams a student sits, in exam order.
func (m *Model) StudentExams(student uint64) []uint64 {
	return m.studentExams[student]
}

// Overlapping reports whether two timeslots overlap in wall time. A slot
// always overlaps itself.
func (m *Model) Overlapping(slot1, slot2 uint64) bool {
	return m.overlaps[slot1][slot2]
}

// Conflicting reports whether two exams share at least one student.
func (m *Model) Conflicting(exam1, exam2 uint64) bool {
	return m.examsGraph[exam1][exam2]
}

func (m *Model) SlotsOfDay(day uint64) []uint64 {
	return m.slotsByDay[day]
}

func (m *Model) Days() []uint64 {
	days := lo.Keys(m.slotsByDay)
	slices.Sort(days)
	return days
}

func (m *Model) IsLastSlotOfDay(slot uint64) bool {
	return m.lastSlotOfDay[m.raw.Timeslots[slot].Day] == slot
}

func (m *Model) Fits(exam, room uint64) bool {
	return uint64(len(m.raw.Exams[exam].Students)) <= m.raw.Rooms[room].Capacity
}

func (m *Model) RoomOffers(room uint64, capability string) bool {
	return slices.Contains(m.raw.Rooms[room].Capabilities, capability)
}

func (m *Model) InvigilatorAvailable(invigilator, slot uint64) bool {
	return m.raw.Invigilators[invigilator].Availability[slot]
}

// AvailableInvigilators returns the invigilators available in a slot.
func (m *Model) AvailableInvigilators(slot uint64) []uint64 {
	available := make([]uint64, 0)
	for _, invigilator := range m.raw.Invigilators {
		if invigilator.Availability[slot] {
			available = append(available, invigilator.Id)
		}
	}
	return available
}

func buildStudentExams(raw RawInstance) map[uint64][]uint64 {
	studentExams := make(map[uint64][]uint64)
	for _, exam := range raw.Exams {
		for _, student := range exam.Students {
			studentExams[student] = append(studentExams[student], exam.Id)
		}
	}
	return studentExams
}

func buildSlotsByDay(raw RawInstance) map[uint64][]uint64 {
	slotsByDay := make(map[uint64][]uint64)
	for _, slot := range raw.Timeslots {
		slotsByDay[slot.Day] = append(slotsByDay[slot.Day], slot.Id)
	}
	return slotsByDay
}

func buildLastSlotOfDay(raw RawInstance) map[uint64]uint64 {
	lastSlotOfDay := make(map[uint64]uint64)
	for _, slot := range raw.Timeslots {
		lastSlotOfDay[slot.Day] = slot.Id // slots are ordered, the last write wins
	}
	return lastSlotOfDay
}

func buildExamsGraph(raw RawInstance) [][]bool {
	examsGraph := make([][]bool, len(raw.Exams))
	for i := range examsGraph {
		examsGraph[i] = make([]bool, len(raw.Exams))
		examsGraph[i][i] = true
	}

	for i := range len(raw.Exams) - 1 {
		for j := i + 1; j < len(raw.Exams); j++ {
			if lo.SomeBy(raw.Exams[i].Students, func(student uint64) bool {
				return slices.Contains(raw.Exams[j].Students, student)
			}) {
				examsGraph[i][j] = true
				examsGraph[j][i] = true
			}
		}
	}
	return examsGraph
}

func buildOverlaps(raw RawInstance) [][]bool {
	overlaps := make([][]bool, len(raw.Timeslots))
	for i := range overlaps {
		overlaps[i] = make([]bool, len(raw.Timeslots))
	}
	for i, slot1 := range raw.Timeslots {
		for j, slot2 := range raw.Timeslots {
			overlaps[i][j] = slot1.Day == slot2.Day &&
				slot1.Start < slot2.End && slot2.Start < slot1.End
		}
	}
	return overlaps
}
