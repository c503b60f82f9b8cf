// Package constraint holds the catalogue of named timetabling rules. Hard
// constraints count violations an assignment must not have; soft constraints
// return a raw penalty that ranks otherwise-valid assignments. Every
// constraint is a pure function over (model, assignment): stateless,
// side-effect free and safe for concurrent evaluation, so enabling any subset
// never changes the semantics of the rest.
package constraint

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/limaJavier/exam-timetabling/pkg/model"
)

type EvaluateFunc func(m *model.Model, a *model.Assignment) uint64

type Constraint struct {
	Name     string
	Hard     bool
	Weight   uint64 // fixed weighting policy; 1 for hard constraints
	Evaluate EvaluateFunc
}

// WeightedPenalty is Weight times the raw evaluation. Only meaningful for
// soft constraints.
func (c Constraint) WeightedPenalty(m *model.Model, a *model.Assignment) uint64 {
	return c.Weight * c.Evaluate(m, a)
}

// EvaluationError marks a constraint predicate that panicked on otherwise
// valid input. It is a catalogue bug: surfaced, never retried.
type EvaluationError struct {
	Constraint string
	Cause      any
}

func (err *EvaluationError) Error() string {
	return fmt.Sprintf("constraint %q failed to evaluate: %v", err.Constraint, err.Cause)
}

// SafeEvaluate evaluates the constraint, converting a panic inside the
// predicate into an EvaluationError.
func (c Constraint) SafeEvaluate(m *model.Model, a *model.Assignment) (value uint64, err error) {
	defer func() {
		if cause := recover(); cause != nil {
			err = &EvaluationError{Constraint: c.Name, Cause: cause}
		}
	}()
	return c.Evaluate(m, a), nil
}

// Constraint names, pinned: runs reference constraints by these keys.
const (
	StudentConflict         = "student-conflict"
	RoomConflict            = "room-conflict"
	RoomCapacity            = "room-capacity"
	Completeness            = "completeness"
	InvigilatorAvailability = "invigilator-availability"
	SameDayClustering       = "same-day-clustering"
	RoomBalancing           = "room-balancing"
	InvigilatorBalance      = "invigilator-balance"
	CapabilityMatch         = "capability-match"
	IdleRoomGaps            = "idle-room-gaps"
	StudentSpacing          = "student-spacing"
	LastSlotOverflow        = "last-slot-overflow"
	DayLoadBalance          = "day-load-balance"
)

var catalogue = []Constraint{
	{Name: StudentConflict, Hard: true, Weight: 1, Evaluate: studentConflict},
	{Name: RoomConflict, Hard: true, Weight: 1, Evaluate: roomConflict},
	{Name: RoomCapacity, Hard: true, Weight: 1, Evaluate: roomCapacity},
	{Name: Completeness, Hard: true, Weight: 1, Evaluate: completeness},
	{Name: InvigilatorAvailability, Hard: true, Weight: 1, Evaluate: invigilatorAvailability},
	{Name: SameDayClustering, Hard: false, Weight: 8, Evaluate: sameDayClustering},
	{Name: RoomBalancing, Hard: false, Weight: 2, Evaluate: roomBalancing},
	{Name: InvigilatorBalance, Hard: false, Weight: 3, Evaluate: invigilatorBalance},
	{Name: CapabilityMatch, Hard: false, Weight: 10, Evaluate: capabilityMatch},
	{Name: IdleRoomGaps, Hard: false, Weight: 1, Evaluate: idleRoomGaps},
	{Name: StudentSpacing, Hard: false, Weight: 12, Evaluate: studentSpacing},
	{Name: LastSlotOverflow, Hard: false, Weight: 5, Evaluate: lastSlotOverflow},
	{Name: DayLoadBalance, Hard: false, Weight: 3, Evaluate: dayLoadBalance},
}

// All returns the full catalogue in registration order.
func All() []Constraint {
	constraints := make([]Constraint, len(catalogue))
	copy(constraints, catalogue)
	return constraints
}

func ByName(name string) (Constraint, bool) {
	return lo.Find(catalogue, func(c Constraint) bool { return c.Name == name })
}

// Selection is the subset of constraints a run enforces (hard) or scores
// (soft). Which constraints apply is an input to a run, not a property of the
// constraints themselves.
type Selection struct {
	constraints []Constraint
}

func Select(names ...string) (Selection, error) {
	constraints := make([]Constraint, 0, len(names))
	for _, name := range names {
		c, ok := ByName(name)
		if !ok {
			return Selection{}, fmt.Errorf("unknown constraint %q", name)
		}
		constraints = append(constraints, c)
	}
	return Selection{constraints: constraints}, nil
}

// DefaultSelection is the five structural hard constraints: the correctness
// contract every valid timetable must uphold.
func DefaultSelection() Selection {
	return Selection{constraints: lo.Filter(catalogue, func(c Constraint, _ int) bool { return c.Hard })}
}

// FullSelection enables the whole catalogue.
func FullSelection() Selection {
	return Selection{constraints: All()}
}

func (s Selection) Constraints() []Constraint {
	constraints := make([]Constraint, len(s.constraints))
	copy(constraints, s.constraints)
	return constraints
}

func (s Selection) Hard() []Constraint {
	return lo.Filter(s.constraints, func(c Constraint, _ int) bool { return c.Hard })
}

func (s Selection) Soft() []Constraint {
	return lo.Filter(s.constraints, func(c Constraint, _ int) bool { return !c.Hard })
}

func (s Selection) Names() []string {
	return lo.Map(s.constraints, func(c Constraint, _ int) string { return c.Name })
}

func (s Selection) Contains(name string) bool {
	return lo.SomeBy(s.constraints, func(c Constraint) bool { return c.Name == name })
}
