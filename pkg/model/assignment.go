package model

import "maps"

// Placement locates one exam in the timetable.
type Placement struct {
	Slot uint64
	Room uint64
}

// DutyKey identifies an occupied (timeslot, room) pair.
type DutyKey [2]uint64

// Assignment maps every exam to exactly one (timeslot, room) pair and every
// occupied pair to an invigilator. A missing Duties key means the duty is
// uncovered. Assignments are owned by the solver invocation that produced
// them and are never mutated afterwards; search code clones before moving.
type Assignment struct {
	Placements []Placement
	Duties     map[DutyKey]uint64
}

func NewAssignment(exams uint64) *Assignment {
	return &Assignment{
		Placements: make([]Placement, exams),
		Duties:     make(map[DutyKey]uint64),
	}
}

func (a *Assignment) Clone() *Assignment {
	placements := make([]Placement, len(a.Placements))
	copy(placements, a.Placements)
	return &Assignment{
		Placements: placements,
		Duties:     maps.Clone(a.Duties),
	}
}

// OccupiedPairs returns the distinct (slot, room) pairs used by placements,
// in exam order.
func (a *Assignment) OccupiedPairs() []DutyKey {
	seen := make(map[DutyKey]bool, len(a.Placements))
	pairs := make([]DutyKey, 0, len(a.Placements))
	for _, placement := range a.Placements {
		key := DutyKey{placement.Slot, placement.Room}
		if !seen[key] {
			seen[key] = true
			pairs = append(pairs, key)
		}
	}
	return pairs
}
