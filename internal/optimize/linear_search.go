// Package optimize implements the linear-search optimisation driver:
// given an initial feasible solution, it repeatedly tightens a
// generalised-totaliser bound on the objective and re-solves from the
// root, keeping the best solution found, until the encoder proves
// optimality or the core reports infeasibility or the deadline passes.
package optimize

import (
	"time"

	"github.com/oskarlind/pumpkin/internal/cardinality"
	"github.com/oskarlind/pumpkin/internal/engine"
	"github.com/oskarlind/pumpkin/internal/sat"
)

// Outcome classifies a linear-search run's result.
type Outcome int

const (
	// Optimal means Result.Value is the minimum objective value and
	// Result.Model a witnessing assignment.
	Optimal Outcome = iota
	// Infeasible means the instance has no satisfying assignment at all
	// (no feasible solution was ever found).
	Infeasible
	// TimedOut means the deadline passed before optimality could be
	// proven; Result.HasSolution reports whether a feasible solution
	// was found before that happened.
	TimedOut
)

// Result is what a linear-search run reports.
type Result struct {
	Outcome     Outcome
	HasSolution bool
	Value       uint64
	Model       []bool
}

// Solve minimises Σ objective[i].Weight·objective[i].Literal + constant
// subject to eng's current clause set and CP propagators. eng must be at
// decision level 0 (Ready) when this is called. timeLimit is the total
// wall-clock budget for the whole run; negative means unbounded.
func Solve(eng *engine.Engine, objective []cardinality.WeightedLiteral, constant uint64, restartThreshold int64, timeLimit time.Duration) Result {
	var stopwatch engine.Stopwatch
	stopwatch.Reset(timeLimit)

	seedOptimisticPhases(eng, objective)

	outcome := eng.SolveUnderAssumptions(nil, stopwatch.Remaining(), restartThreshold)
	switch outcome {
	case engine.Unsatisfiable:
		return Result{Outcome: Infeasible}
	case engine.Unknown:
		return Result{Outcome: TimedOut}
	}

	best := objectiveValue(eng.Solver, objective, constant)
	model := append([]bool(nil), eng.Solver.Model...)

	gt := cardinality.NewGeneralisedTotaliser(eng.Solver, objective, constant)

	for best > 0 {
		eng.RestoreStateAtRoot()

		if stopwatch.Expired() {
			return Result{Outcome: TimedOut, HasSolution: true, Value: best, Model: model}
		}

		if gt.ConstrainAtMostK(best-1) == cardinality.ConflictDetected {
			break // no assignment can do better than best: it is optimal
		}

		outcome = eng.SolveUnderAssumptions(nil, stopwatch.Remaining(), restartThreshold)
		switch outcome {
		case engine.Feasible:
			best = objectiveValue(eng.Solver, objective, constant)
			model = append([]bool(nil), eng.Solver.Model...)
		case engine.Unsatisfiable:
			return Result{Outcome: Optimal, HasSolution: true, Value: best, Model: model}
		case engine.Unknown:
			return Result{Outcome: TimedOut, HasSolution: true, Value: best, Model: model}
		}
	}

	return Result{Outcome: Optimal, HasSolution: true, Value: best, Model: model}
}

// seedOptimisticPhases fixes every objective literal's saved decision
// phase to false, the optimistic guess that minimises the objective,
// mirroring the upstream driver's practice of seeding phase-saving with
// the all-zero objective assignment before the first solve.
func seedOptimisticPhases(eng *engine.Engine, objective []cardinality.WeightedLiteral) {
	for _, wl := range objective {
		phase := sat.False
		if !wl.Literal.IsPositive() {
			phase = sat.True
		}
		eng.Solver.Order.SetPhase(wl.Literal.VarID(), phase)
	}
}

func objectiveValue(solver *sat.Solver, objective []cardinality.WeightedLiteral, constant uint64) uint64 {
	sum := constant
	for _, wl := range objective {
		litTrue := solver.Model[wl.Literal.VarID()] == wl.Literal.IsPositive()
		if litTrue {
			sum += wl.Weight
		}
	}
	return sum
}
