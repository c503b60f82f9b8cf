package model

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRaw() RawInstance {
	return RawInstance{
		Students: 6,
		Exams: []Exam{
			{Id: 0, Name: "algebra", Duration: 120, Students: []uint64{0, 1}},
			{Id: 1, Name: "calculus", Duration: 120, Students: []uint64{1, 2}},
			{Id: 2, Name: "chemistry", Duration: 90, Students: []uint64{3, 4, 5}, Capability: "lab"},
		},
		Timeslots: []Timeslot{
			{Id: 0, Day: 0, Index: 0, Start: 540, End: 660},
			{Id: 1, Day: 0, Index: 1, Start: 600, End: 720},
			{Id: 2, Day: 0, Index: 2, Start: 720, End: 840},
			{Id: 3, Day: 1, Index: 3, Start: 540, End: 660},
		},
		Rooms: []Room{
			{Id: 0, Name: "aula-magna", Capacity: 4},
			{Id: 1, Name: "lab-1", Capacity: 3, Capabilities: []string{"lab"}},
		},
		Invigilators: []Invigilator{
			{Id: 0, Name: "ada", Availability: []bool{true, true, true, true}},
			{Id: 1, Name: "grace", Availability: []bool{true, false, true, true}},
		},
	}
}

func TestNewModelAcceptsValidInstance(t *testing.T) {
	m, err := NewModel(validRaw())

	assert.Nil(t, err)
	assert.NotNil(t, m)
	assert.Equal(t, uint64(3), m.NumExams())
	assert.Equal(t, uint64(4), m.NumTimeslots())
	assert.Equal(t, uint64(2), m.NumRooms())
	assert.Equal(t, uint64(2), m.NumInvigilators())
	assert.Equal(t, uint64(6), m.NumStudents())
}

func TestNewModelRejectsBrokenInstances(t *testing.T) {
	cases := []struct {
		name  string
		mutate func(raw *RawInstance)
	}{
		{"no exams", func(raw *RawInstance) { raw.Exams = nil }},
		{"no timeslots", func(raw *RawInstance) { raw.Timeslots = nil }},
		{"no rooms", func(raw *RawInstance) { raw.Rooms = nil }},
		{"exam id mismatch", func(raw *RawInstance) { raw.Exams[1].Id = 5 }},
		{"zero duration", func(raw *RawInstance) { raw.Exams[0].Duration = 0 }},
		{"room id mismatch", func(raw *RawInstance) { raw.Rooms[1].Id = 0 }},
		{"zero capacity", func(raw *RawInstance) { raw.Rooms[0].Capacity = 0 }},
		{"unknown student", func(raw *RawInstance) { raw.Exams[0].Students = []uint64{99} }},
		{"duplicate enrollment", func(raw *RawInstance) { raw.Exams[0].Students = []uint64{0, 0} }},
		{"unoffered capability", func(raw *RawInstance) { raw.Exams[0].Capability = "observatory" }},
		{"timeslot id mismatch", func(raw *RawInstance) { raw.Timeslots[2].Id = 0 }},
		{"slot ends before start", func(raw *RawInstance) { raw.Timeslots[0].End = raw.Timeslots[0].Start }},
		{"non-increasing index", func(raw *RawInstance) { raw.Timeslots[1].Index = 0 }},
		{"decreasing day", func(raw *RawInstance) { raw.Timeslots[3].Day = 0; raw.Timeslots[2].Day = 1 }},
		{"invigilator id mismatch", func(raw *RawInstance) { raw.Invigilators[1].Id = 0 }},
		{"short availability", func(raw *RawInstance) { raw.Invigilators[0].Availability = []bool{true} }},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			raw := validRaw()
			c.mutate(&raw)

			m, err := NewModel(raw)

			assert.Nil(t, m)
			var modelErr *ModelError
			assert.ErrorAs(t, err, &modelErr)
		})
	}
}

func TestDerivedViews(t *testing.T) {
	m, err := NewModel(validRaw())
	require.Nil(t, err)

	t.Run("overlapping slots", func(t *testing.T) {
		assert.True(t, m.Overlapping(0, 0))
		assert.True(t, m.Overlapping(0, 1)) // 540-660 intersects 600-720
		assert.True(t, m.Overlapping(1, 0))
		assert.False(t, m.Overlapping(1, 2)) // 600-720 only touches 720-840
		assert.False(t, m.Overlapping(0, 3)) // different days never overlap
	})

	t.Run("conflicting exams", func(t *testing.T) {
		assert.True(t, m.Conflicting(0, 1)) // share student 1
		assert.True(t, m.Conflicting(1, 0))
		assert.False(t, m.Conflicting(0, 2))
		assert.True(t, m.Conflicting(2, 2))
	})

	t.Run("student exams", func(t *testing.T) {
		assert.ElementsMatch(t, []uint64{0, 1}, m.StudentExams(1))
		assert.ElementsMatch(t, []uint64{2}, m.StudentExams(4))
		assert.Empty(t, m.StudentExams(uint64(len(validRaw().Exams))+10))
	})

	t.Run("days and slots", func(t *testing.T) {
		assert.ElementsMatch(t, []uint64{0, 1}, m.Days())
		assert.Equal(t, []uint64{0, 1, 2}, m.SlotsOfDay(0))
		assert.Equal(t, []uint64{3}, m.SlotsOfDay(1))
		assert.True(t, m.IsLastSlotOfDay(2))
		assert.True(t, m.IsLastSlotOfDay(3))
		assert.False(t, m.IsLastSlotOfDay(0))
	})

	t.Run("room fit", func(t *testing.T) {
		assert.True(t, m.Fits(0, 0))
		assert.False(t, m.Fits(2, 0)) // chemistry needs the lab
		assert.True(t, m.Fits(2, 1))
		assert.True(t, m.RoomOffers(1, "lab"))
		assert.False(t, m.RoomOffers(0, "lab"))
	})

	t.Run("invigilator availability", func(t *testing.T) {
		assert.True(t, m.InvigilatorAvailable(0, 1))
		assert.False(t, m.InvigilatorAvailable(1, 1))
		assert.ElementsMatch(t, []uint64{0}, m.AvailableInvigilators(1))
		assert.ElementsMatch(t, []uint64{0, 1}, m.AvailableInvigilators(0))
	})
}

func TestInstanceJsonRoundTrip(t *testing.T) {
	m, err := NewModel(validRaw())
	require.Nil(t, err)
	file := filepath.Join(t.TempDir(), "instance.json")

	require.Nil(t, InstanceToJson(m, file))
	loaded, err := InstanceFromJson(file)

	assert.Nil(t, err)
	assert.Equal(t, m.Raw(), loaded.Raw())
}

func TestInstanceFromJsonRejectsMissingFile(t *testing.T) {
	m, err := InstanceFromJson(filepath.Join(t.TempDir(), "absent.json"))

	assert.Nil(t, m)
	assert.NotNil(t, err)
}

func TestAssignmentCloneIsIndependent(t *testing.T) {
	a := NewAssignment(3)
	a.Placements[0] = Placement{Slot: 1, Room: 0}
	a.Duties[DutyKey{1, 0}] = 0

	clone := a.Clone()
	clone.Placements[0] = Placement{Slot: 2, Room: 1}
	clone.Duties[DutyKey{2, 1}] = 1

	assert.Equal(t, Placement{Slot: 1, Room: 0}, a.Placements[0])
	assert.NotContains(t, a.Duties, DutyKey{2, 1})
}

func TestOccupiedPairsDeduplicates(t *testing.T) {
	a := NewAssignment(3)
	a.Placements[0] = Placement{Slot: 0, Room: 0}
	a.Placements[1] = Placement{Slot: 0, Room: 0}
	a.Placements[2] = Placement{Slot: 1, Room: 0}

	assert.Equal(t, []DutyKey{{0, 0}, {1, 0}}, a.OccupiedPairs())
}
