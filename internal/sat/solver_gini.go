package sat

import (
	"fmt"
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"
)

// SolveResult is the outcome reported by a SATSolver run.
type SolveResult int

const (
	// ResultUnknown means the budget was exhausted before a proof either way.
	ResultUnknown SolveResult = iota
	ResultSatisfiable
	ResultUnsatisfiable
)

type SATSolver interface {
	// Solve attempts the instance within the budget. The solution is non-nil
	// only when the result is ResultSatisfiable.
	Solve(instance SAT, budget time.Duration) (SATSolution, SolveResult, error)
}

type giniSolver struct{}

func NewGiniSolver() SATSolver {
	return &giniSolver{}
}

func (solver *giniSolver) Solve(instance SAT, budget time.Duration) (SATSolution, SolveResult, error) {
	g := gini.NewV(int(instance.Variables))

	for _, clause := range instance.Clauses {
		for _, literal := range clause {
			lit, err := toGiniLit(literal)
			if err != nil {
				return nil, ResultUnknown, err
			}
			g.Add(lit)
		}
		g.Add(0)
	}

	switch g.GoSolve().Try(budget) {
	case 1:
		solution := make(SATSolution, 0, instance.Variables)
		for variable := uint64(1); variable <= instance.Variables; variable++ {
			if g.Value(z.Var(variable).Pos()) {
				solution = append(solution, int64(variable))
			} else {
				solution = append(solution, -int64(variable))
			}
		}
		return solution, ResultSatisfiable, nil
	case -1:
		return nil, ResultUnsatisfiable, nil
	default:
		return nil, ResultUnknown, nil
	}
}

func toGiniLit(literal int64) (z.Lit, error) {
	if literal == 0 {
		return 0, fmt.Errorf("literal must not be zero")
	}
	if literal > 0 {
		return z.Var(literal).Pos(), nil
	}
	return z.Var(-literal).Pos().Not(), nil
}
