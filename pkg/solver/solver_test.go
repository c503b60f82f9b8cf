package solver

import (
	"context"
	"log"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limaJavier/exam-timetabling/pkg/constraint"
	"github.com/limaJavier/exam-timetabling/pkg/model"
)

const testBudget = 5 * time.Second

func mustModel(raw model.RawInstance) *model.Model {
	m, err := model.NewModel(raw)
	if err != nil {
		log.Fatalf("cannot build test model: %v", err)
	}
	return m
}

// feasibleModel holds three disjoint two-student exams, two non-overlapping
// slots and a four-seat room: one slot must host two exams side by side.
func feasibleModel() *model.Model {
	return mustModel(model.RawInstance{
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
}

// infeasibleModel forces two exams sharing a student into a single slot.
func infeasibleModel() *model.Model {
	return mustModel(model.RawInstance{
		Students: 2,
		Exams: []model.Exam{
			{Id: 0, Name: "algebra", Duration: 60, Students: []uint64{0, 1}},
			{Id: 1, Name: "calculus", Duration: 60, Students: []uint64{1}},
		},
		Timeslots: []model.Timeslot{
			{Id: 0, Day: 0, Index: 0, Start: 540, End: 600},
		},
		Rooms: []model.Room{
			{Id: 0, Name: "aula-magna", Capacity: 4},
		},
		Invigilators: []model.Invigilator{
			{Id: 0, Name: "ada", Availability: []bool{true}},
		},
	})
}

func strategies() []Strategy {
	return []Strategy{
		NewExact(),
		NewLocalSearch(7),
		NewTabuSearch(7),
		NewGenetic(7),
	}
}

func TestStrategiesSolveFeasibleInstance(t *testing.T) {
	m := feasibleModel()

	for _, strategy := range strategies() {
		t.Run(strategy.Name(), func(t *testing.T) {
			result := strategy.Solve(context.Background(), m, constraint.FullSelection(), testBudget)

			assert.Nil(t, result.Err)
			assert.Equal(t, strategy.Name(), result.Strategy)
			assert.Contains(t, []Status{StatusOptimal, StatusFeasible}, result.Status)
			require.NotNil(t, result.Assignment)
			assert.True(t, Verify(m, result.Assignment))
			assert.Len(t, result.Assignment.Placements, 3)
			assert.Positive(t, result.Duration)
		})
	}
}

func TestExactProvesInfeasibility(t *testing.T) {
	m := infeasibleModel()

	result := NewExact().Solve(context.Background(), m, constraint.FullSelection(), testBudget)

	assert.Equal(t, StatusInfeasible, result.Status)
	assert.Nil(t, result.Assignment)
	assert.Nil(t, result.Err)
}

func TestHeuristicsReportViolationsOnInfeasibleInstance(t *testing.T) {
	m := infeasibleModel()

	for _, strategy := range strategies()[1:] {
		t.Run(strategy.Name(), func(t *testing.T) {
			result := strategy.Solve(context.Background(), m, constraint.FullSelection(), testBudget)

			assert.Nil(t, result.Err)
			require.NotNil(t, result.Assignment)
			assert.Positive(t, result.Diagnostics["hard_violations"])
			assert.False(t, Verify(m, result.Assignment))
		})
	}
}

func TestExactTimesOutOnExhaustedBudget(t *testing.T) {
	result := NewExact().Solve(context.Background(), feasibleModel(), constraint.FullSelection(), 0)

	assert.Equal(t, StatusTimeout, result.Status)
	assert.Nil(t, result.Assignment)
}

func TestLocalSearchTimesOutOnExhaustedBudget(t *testing.T) {
	result := NewLocalSearch(7).Solve(context.Background(), feasibleModel(), constraint.FullSelection(), 0)

	assert.Equal(t, StatusTimeout, result.Status)
}

func TestStrategiesHonorCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := NewExact().Solve(ctx, feasibleModel(), constraint.FullSelection(), testBudget)

	assert.Equal(t, StatusTimeout, result.Status)
}

// Every placement of three two-student cohorts into one slot and one
// four-seat room overflows, and the overflow only shows up with all three
// together, so the exact strategy must discover it through blocking clauses.
func TestExactBlocksManyCohortOverflow(t *testing.T) {
	m := mustModel(model.RawInstance{
		Students: 6,
		Exams: []model.Exam{
			{Id: 0, Name: "algebra", Duration: 60, Students: []uint64{0, 1}},
			{Id: 1, Name: "calculus", Duration: 60, Students: []uint64{2, 3}},
			{Id: 2, Name: "history", Duration: 60, Students: []uint64{4, 5}},
		},
		Timeslots: []model.Timeslot{
			{Id: 0, Day: 0, Index: 0, Start: 540, End: 600},
		},
		Rooms: []model.Room{
			{Id: 0, Name: "aula-magna", Capacity: 4},
		},
		Invigilators: []model.Invigilator{
			{Id: 0, Name: "ada", Availability: []bool{true}},
		},
	})

	result := NewExact().Solve(context.Background(), m, constraint.FullSelection(), testBudget)

	assert.Equal(t, StatusInfeasible, result.Status)
	assert.Positive(t, result.Diagnostics["resolves"])
}

// Two single-room-capacity exams in two overlapping slots with one
// invigilator: every CNF solution leaves one duty uncovered, so blocking must
// eventually prove infeasibility.
func TestExactBlocksUncoverableDuties(t *testing.T) {
	m := mustModel(model.RawInstance{
		Students: 4,
		Exams: []model.Exam{
			{Id: 0, Name: "algebra", Duration: 120, Students: []uint64{0, 1}},
			{Id: 1, Name: "calculus", Duration: 120, Students: []uint64{2, 3}},
		},
		Timeslots: []model.Timeslot{
			{Id: 0, Day: 0, Index: 0, Start: 540, End: 660},
			{Id: 1, Day: 0, Index: 1, Start: 600, End: 720},
		},
		Rooms: []model.Room{
			{Id: 0, Name: "room-a", Capacity: 2},
			{Id: 1, Name: "room-b", Capacity: 2},
		},
		Invigilators: []model.Invigilator{
			{Id: 0, Name: "ada", Availability: []bool{true, true}},
		},
	})

	result := NewExact().Solve(context.Background(), m, constraint.FullSelection(), testBudget)

	assert.Equal(t, StatusInfeasible, result.Status)
	assert.Positive(t, result.Diagnostics["resolves"])
}

func TestIndexerRoundTrip(t *testing.T) {
	ix := newIndexer(5, 4, 3)

	assert.Equal(t, uint64(60), ix.variables())

	var next uint64 = 1
	for room := uint64(0); room < 3; room++ {
		for slot := uint64(0); slot < 4; slot++ {
			for exam := uint64(0); exam < 5; exam++ {
				index := ix.index(exam, slot, room)
				assert.Equal(t, next, index)

				gotExam, gotSlot, gotRoom := ix.attributes(index)
				assert.Equal(t, exam, gotExam)
				assert.Equal(t, slot, gotSlot)
				assert.Equal(t, room, gotRoom)
				next++
			}
		}
	}
}

func TestAssignDuties(t *testing.T) {
	t.Run("covers non-overlapping duties with one invigilator", func(t *testing.T) {
		m := feasibleModel()
		a := model.NewAssignment(3)
		a.Placements[0] = model.Placement{Slot: 0, Room: 0}
		a.Placements[1] = model.Placement{Slot: 0, Room: 0}
		a.Placements[2] = model.Placement{Slot: 1, Room: 0}

		uncovered := assignDuties(m, a)

		assert.Empty(t, uncovered)
		assert.Equal(t, uint64(0), a.Duties[model.DutyKey{0, 0}])
		assert.Equal(t, uint64(0), a.Duties[model.DutyKey{1, 0}])
	})

	t.Run("reports uncoverable overlapping duties", func(t *testing.T) {
		m := mustModel(model.RawInstance{
			Students: 4,
			Exams: []model.Exam{
				{Id: 0, Name: "algebra", Duration: 120, Students: []uint64{0, 1}},
				{Id: 1, Name: "calculus", Duration: 120, Students: []uint64{2, 3}},
			},
			Timeslots: []model.Timeslot{
				{Id: 0, Day: 0, Index: 0, Start: 540, End: 660},
				{Id: 1, Day: 0, Index: 1, Start: 600, End: 720},
			},
			Rooms: []model.Room{
				{Id: 0, Name: "room-a", Capacity: 2},
				{Id: 1, Name: "room-b", Capacity: 2},
			},
			Invigilators: []model.Invigilator{
				{Id: 0, Name: "ada", Availability: []bool{true, true}},
			},
		})
		a := model.NewAssignment(2)
		a.Placements[0] = model.Placement{Slot: 0, Room: 0}
		a.Placements[1] = model.Placement{Slot: 1, Room: 1}

		uncovered := assignDuties(m, a)

		assert.Len(t, uncovered, 1)
		assert.Len(t, a.Duties, 1)
	})
}

// chainedOverlapModel has three slots where 0-1 and 1-2 overlap but 0 and 2
// do not, one-seat rooms, and availabilities that force one invigilator to
// take both ends of the chain.
func chainedOverlapModel() *model.Model {
	return mustModel(model.RawInstance{
		Students: 3,
		Exams: []model.Exam{
			{Id: 0, Name: "algebra", Duration: 120, Students: []uint64{0}},
			{Id: 1, Name: "calculus", Duration: 120, Students: []uint64{1}},
			{Id: 2, Name: "history", Duration: 120, Students: []uint64{2}},
		},
		Timeslots: []model.Timeslot{
			{Id: 0, Day: 0, Index: 0, Start: 540, End: 660},
			{Id: 1, Day: 0, Index: 1, Start: 600, End: 720},
			{Id: 2, Day: 0, Index: 2, Start: 660, End: 780},
		},
		Rooms: []model.Room{
			{Id: 0, Name: "room-a", Capacity: 1},
			{Id: 1, Name: "room-b", Capacity: 1},
			{Id: 2, Name: "room-c", Capacity: 1},
		},
		Invigilators: []model.Invigilator{
			{Id: 0, Name: "ada", Availability: []bool{true, false, true}},
			{Id: 1, Name: "grace", Availability: []bool{false, true, false}},
		},
	})
}

// An invigilator may hold two duties whose slots are bridged by a third
// overlapping slot but do not overlap each other.
func TestAssignDutiesReusesInvigilatorAcrossChainedSlots(t *testing.T) {
	m := chainedOverlapModel()
	a := model.NewAssignment(3)
	a.Placements[0] = model.Placement{Slot: 0, Room: 0}
	a.Placements[1] = model.Placement{Slot: 1, Room: 1}
	a.Placements[2] = model.Placement{Slot: 2, Room: 2}

	uncovered := assignDuties(m, a)

	assert.Empty(t, uncovered)
	assert.Equal(t, uint64(0), a.Duties[model.DutyKey{0, 0}])
	assert.Equal(t, uint64(1), a.Duties[model.DutyKey{1, 1}])
	assert.Equal(t, uint64(0), a.Duties[model.DutyKey{2, 2}])
	assert.True(t, Verify(m, a))
}

func TestExactSolvesChainedOverlapInstance(t *testing.T) {
	m := chainedOverlapModel()

	result := NewExact().Solve(context.Background(), m, constraint.FullSelection(), testBudget)

	assert.Nil(t, result.Err)
	assert.Contains(t, []Status{StatusOptimal, StatusFeasible}, result.Status)
	require.NotNil(t, result.Assignment)
	assert.True(t, Verify(m, result.Assignment))
}

func TestHeuristicsReachZeroViolationsOnChainedOverlapInstance(t *testing.T) {
	m := chainedOverlapModel()

	for _, strategy := range strategies()[1:] {
		t.Run(strategy.Name(), func(t *testing.T) {
			result := strategy.Solve(context.Background(), m, constraint.FullSelection(), testBudget)

			assert.Nil(t, result.Err)
			require.NotNil(t, result.Assignment)
			assert.Equal(t, uint64(0), result.Diagnostics["hard_violations"])
			assert.True(t, Verify(m, result.Assignment))
		})
	}
}

func TestNeighborsPreserveExamSet(t *testing.T) {
	m := feasibleModel()
	rng := rand.New(rand.NewSource(1))
	a := greedyAssignment(m, rng)

	candidates := neighbors(m, a, rng, 10)

	assert.NotEmpty(t, candidates)
	assert.LessOrEqual(t, len(candidates), 10)
	for _, candidate := range candidates {
		assert.Len(t, candidate.Placements, len(a.Placements))
		assert.NotEqual(t, a.Placements, candidate.Placements)
	}
}

func TestGreedyAssignmentSeatsWithinCapacity(t *testing.T) {
	m := feasibleModel()
	a := greedyAssignment(m, rand.New(rand.NewSource(1)))

	assert.True(t, Verify(m, a))
}

func TestGeneticOperatorsKeepGenesInRange(t *testing.T) {
	m := feasibleModel()
	rng := rand.New(rand.NewSource(1))
	parent1 := randomAssignment(m, rng)
	parent2 := randomAssignment(m, rng)

	child := parent1.Clone()
	crossover(child, parent2, rng)
	for range 100 {
		mutate(m, child, rng)
	}

	assert.Len(t, child.Placements, len(parent1.Placements))
	for _, placement := range child.Placements {
		assert.Less(t, placement.Slot, m.NumTimeslots())
		assert.Less(t, placement.Room, m.NumRooms())
	}
}

func TestEncodeDIMACSHeader(t *testing.T) {
	m := feasibleModel()

	dimacs := EncodeDIMACS(m, constraint.DefaultSelection())

	assert.Contains(t, dimacs, "p cnf 6 ")
}
