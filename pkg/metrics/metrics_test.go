package metrics

import (
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limaJavier/exam-timetabling/pkg/constraint"
	"github.com/limaJavier/exam-timetabling/pkg/model"
	"github.com/limaJavier/exam-timetabling/pkg/solver"
)

func testModel() *model.Model {
	m, err := model.NewModel(model.RawInstance{
		Students: 6,
		Exams: []model.Exam{
			{Id: 0, Name: "algebra", Duration: 120, Students: []uint64{0, 1}},
			{Id: 1, Name: "calculus", Duration: 120, Students: []uint64{2, 3}},
			{Id: 2, Name: "history", Duration: 120, Students: []uint64{4, 5}},
		},
		Timeslots: []model.Timeslot{
			{Id: 0, Day: 0, Index: 0, Start: 540, End: 660},
			{Id: 1, Day: 0, Index: 1, Start: 720, End: 840},
		},
		Rooms: []model.Room{
			{Id: 0, Name: "aula-magna", Capacity: 4},
		},
		Invigilators: []model.Invigilator{
			{Id: 0, Name: "ada", Availability: []bool{true, true}},
		},
	})
	if err != nil {
		log.Fatalf("cannot build test model: %v", err)
	}
	return m
}

func validAssignment() *model.Assignment {
	a := model.NewAssignment(3)
	a.Placements[0] = model.Placement{Slot: 0, Room: 0}
	a.Placements[1] = model.Placement{Slot: 0, Room: 0}
	a.Placements[2] = model.Placement{Slot: 1, Room: 0}
	a.Duties = map[model.DutyKey]uint64{
		{0, 0}: 0,
		{1, 0}: 0,
	}
	return a
}

func TestEvaluateValidAssignment(t *testing.T) {
	m := testModel()
	result := solver.Result{
		Strategy:    "exact",
		Assignment:  validAssignment(),
		Status:      solver.StatusFeasible,
		Duration:    42 * time.Millisecond,
		Diagnostics: map[string]any{"objective": float64(5)},
	}

	record, err := Evaluate(m, result)

	require.Nil(t, err)
	assert.True(t, record.HasAssignment)
	assert.True(t, record.Valid())
	assert.Equal(t, "exact", record.Strategy)
	assert.Equal(t, solver.StatusFeasible, record.Status)
	assert.Equal(t, 42*time.Millisecond, record.Duration)
	assert.True(t, record.HasObjective)
	assert.Equal(t, float64(5), record.Objective)
	assert.Zero(t, record.TotalHardViolations)
	assert.Len(t, record.HardViolations, 5)
	assert.Len(t, record.SoftPenalties, 8)
	// exam 2 sits alone in the last slot of the day
	assert.Equal(t, uint64(5), record.SoftPenalties[constraint.LastSlotOverflow])
}

// Evaluation counts every hard constraint in the catalogue, even for runs
// that were executed with a reduced selection.
func TestEvaluateRecountsFullCatalogue(t *testing.T) {
	m := testModel()
	a := validAssignment()
	a.Placements[2] = model.Placement{Slot: 0, Room: 0} // 6 students in 4 seats

	record, err := Evaluate(m, solver.Result{Strategy: "local-search", Assignment: a})

	require.Nil(t, err)
	assert.False(t, record.Valid())
	assert.Equal(t, uint64(1), record.HardViolations[constraint.RoomCapacity])
	assert.Equal(t, uint64(1), record.TotalHardViolations)
}

func TestEvaluateIsIdempotent(t *testing.T) {
	m := testModel()
	result := solver.Result{Strategy: "tabu-search", Assignment: validAssignment()}

	first, err1 := Evaluate(m, result)
	second, err2 := Evaluate(m, result)

	assert.Nil(t, err1)
	assert.Nil(t, err2)
	assert.Equal(t, first, second)
}

func TestEvaluateWithoutAssignment(t *testing.T) {
	m := testModel()
	result := solver.Result{Strategy: "exact", Status: solver.StatusInfeasible}

	record, err := Evaluate(m, result)

	require.Nil(t, err)
	assert.False(t, record.HasAssignment)
	assert.False(t, record.Valid())
	assert.Nil(t, record.HardViolations)
	assert.Nil(t, record.SoftPenalties)
	assert.Nil(t, record.Analysis)
}

func TestAnalyze(t *testing.T) {
	m := testModel()

	analysis := Analyze(m, validAssignment())

	// slot 0 seats 4 of 4, slot 1 seats 2 of 4
	assert.InDelta(t, 75.0, analysis.RoomUtilization[0], 0.001)
	assert.InDelta(t, 75.0, analysis.AverageRoomUtilization, 0.001)
	assert.Equal(t, uint64(2), analysis.ExamsPerSlot[0])
	assert.Equal(t, uint64(1), analysis.ExamsPerSlot[1])
	assert.InDelta(t, 1.5, analysis.AverageExamsPerSlot, 0.001)
	// every student sits exactly one exam, so every span is zero
	assert.Equal(t, uint64(6), analysis.StudentSpread[0])
	assert.Zero(t, analysis.AverageStudentSpread)
}

func TestAnalyzeSkipsOutOfRangePlacements(t *testing.T) {
	m := testModel()
	a := validAssignment()
	a.Placements[2] = model.Placement{Slot: 99, Room: 0}

	analysis := Analyze(m, a)

	assert.NotContains(t, analysis.ExamsPerSlot, uint64(99))
	assert.Equal(t, uint64(2), analysis.ExamsPerSlot[0])
}
