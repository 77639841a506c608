// Package engine drives the combined CDCL+CP search loop: it interleaves
// clausal propagation, the SAT↔CP mediator syncs, and CP propagator
// scheduling, while reusing the sat package's trail, arena, conflict
// analyser, and variable order unmodified.
package engine

import (
	"time"

	"github.com/oskarlind/pumpkin/internal/cp"
	"github.com/oskarlind/pumpkin/internal/mediator"
	"github.com/oskarlind/pumpkin/internal/sat"
)

// State is one of the combined search loop's terminal or transient states.
type State int

const (
	Ready State = iota
	Solving
	ContainsSolution
	ConflictClausal
	ConflictCP
	Infeasible
	InfeasibleUnderAssumptions
	Timeout
)

// Outcome is returned by SolveUnderAssumptions.
type Outcome int

const (
	Feasible Outcome = iota
	Unsatisfiable
	Unknown
	InfeasibleUnderAssumptionsOutcome
)

// Engine owns the propositional core, the CP layer, and the mediator
// bridging them, and drives the combined search loop.
type Engine struct {
	Solver    *sat.Solver
	Mediator  *mediator.Mediator
	Scheduler *cp.Scheduler
	IntTrail  *cp.Trail

	propagators map[int]cp.Propagator

	state              State
	violatedAssumption sat.Literal
	stopwatch          Stopwatch
	rootInfeasible     bool

	conflictsSinceRestart int64
}

// New returns an engine whose propositional core uses opts.
func New(opts sat.Options) *Engine {
	solver := sat.NewSolver(opts)
	m := mediator.New(solver)
	e := &Engine{
		Solver:      solver,
		Mediator:    m,
		Scheduler:   cp.NewScheduler(),
		IntTrail:    m.IntTrail(),
		propagators: make(map[int]cp.Propagator),
		state:       Ready,
	}
	solver.Analyzer.SetSentinelExplainer(e.explainSentinel)
	return e
}

// explainSentinel resolves a literal whose trail reason is the
// mediator's cpPropagated sentinel: it looks up which CP propagator (if
// any) asserted the underlying predicate and asks that propagator to
// justify it, the same way ExplainAssign justifies a clausal unit
// propagation.
func (e *Engine) explainSentinel(_ sat.ClauseRef, lit sat.Literal) []sat.Literal {
	pred, propagatorID, ok := e.Mediator.PredicateAndPropagator(lit)
	if !ok || propagatorID == cp.NoPropagator {
		return nil
	}
	p := e.propagators[int(propagatorID)]
	return e.Mediator.ExplainCPAntecedents(p.ExplainPropagation(pred))
}

// RegisterPropagator adds a CP propagator and runs its root propagation
// immediately. A conflict discovered here means the problem is infeasible
// before search even starts; SolveUnderAssumptions reports it up front.
func (e *Engine) RegisterPropagator(p cp.Propagator) {
	id := e.Scheduler.Register(p)
	e.propagators[id] = p
	dm := cp.NewDomainManager(e.IntTrail, cp.PropagatorID(id))
	if p.InitialiseAtRoot(dm) == cp.ConflictDetected {
		e.rootInfeasible = true
	}
}

// restartCondition is the fixed-interval restart policy, sharing its
// default threshold with the plain SAT solver.
func (e *Engine) restartCondition(threshold int64) bool {
	return threshold > 0 && e.conflictsSinceRestart >= threshold
}

// SolveUnderAssumptions runs the combined search loop with a list of
// assumed-true literals and a wall-clock budget (negative = unbounded).
func (e *Engine) SolveUnderAssumptions(assumptions []sat.Literal, timeLimit time.Duration, restartThreshold int64) Outcome {
	if e.rootInfeasible || e.Solver.IsUnsat() {
		e.state = Infeasible
		return Unsatisfiable
	}

	e.state = Solving
	e.stopwatch.Reset(timeLimit)
	assumptionIdx := 0

	for {
		if e.stopwatch.Expired() {
			e.state = Timeout
			return Unknown
		}

		clausalConflict, cpConflict := e.propagateToFixpoint()

		if clausalConflict == sat.InvalidRef && cpConflict == nil {
			if e.restartCondition(restartThreshold) {
				e.conflictsSinceRestart = 0
				e.backtrack(0)
				assumptionIdx = 0
			}

			lit, needsDecision, violated := e.nextAssumption(assumptions, &assumptionIdx)
			if violated {
				e.state = InfeasibleUnderAssumptions
				e.violatedAssumption = lit
				return InfeasibleUnderAssumptionsOutcome
			}
			if needsDecision {
				e.decide(lit)
				continue
			}

			branch, ok := e.nextDecision()
			if !ok {
				e.state = ContainsSolution
				e.Solver.SaveModel()
				return Feasible
			}
			e.decide(branch)
			continue
		}

		if e.Solver.DecisionLevel() == 0 {
			e.state = Infeasible
			return Unsatisfiable
		}

		var confRef sat.ClauseRef
		if clausalConflict != sat.InvalidRef {
			e.state = ConflictClausal
			confRef = clausalConflict
		} else {
			e.state = ConflictCP
			confRef = e.installCPConflictClause(cpConflict)
		}

		learnt, backjump := e.Solver.Analyzer.Analyze(confRef)
		e.backtrack(backjump)
		assumptionIdx = 0
		e.Solver.RecordLearnt(learnt)

		e.Solver.Order.DecayScores()
		e.Solver.Propagator.DecayClauseActivity()

		e.conflictsSinceRestart++
		e.state = Solving
	}
}

// decide raises the decision level on both trails together: lit becomes
// a propositional decision and the integer trail opens a matching level,
// so BacktrackTo on either side always undoes exactly the same span of
// decisions (spec §4.6 step 3b, §3's "both trails agree on decision
// level" invariant).
func (e *Engine) decide(lit sat.Literal) {
	e.Solver.Decide(lit)
	e.IntTrail.PushLevel()
}

// nextAssumption walks past every assumption already satisfied by the
// current assignment and reports the next one that needs acting on: a
// literal to decide (needsDecision), a violated one (violated), or
// neither once the list is exhausted.
func (e *Engine) nextAssumption(assumptions []sat.Literal, idx *int) (lit sat.Literal, needsDecision bool, violated bool) {
	for *idx < len(assumptions) {
		lit = assumptions[*idx]
		*idx++
		switch e.Solver.Value(lit) {
		case sat.Unknown:
			return lit, true, false
		case sat.True:
			continue
		default:
			return lit, false, true
		}
	}
	return 0, false, false
}

// nextDecision returns the next branching literal, or false if every
// propositional variable is already assigned.
func (e *Engine) nextDecision() (sat.Literal, bool) {
	if e.Solver.Trail.Size() == e.Solver.NumVariables() {
		return 0, false
	}
	return e.Solver.NextDecision(), true
}

// conflictReason is the CP-side conflict explanation: the propagator
// that raised it and the conjunction of predicates witnessing it.
type conflictReason struct {
	propagator cp.Propagator
	reason     cp.Conjunction
}

// propagateToFixpoint runs clausal propagation, the two mediator syncs,
// and one CP scheduler step repeatedly until either side reports a
// conflict or the whole system reaches a fixed point.
func (e *Engine) propagateToFixpoint() (clausalConflict sat.ClauseRef, cpConflict *conflictReason) {
	for {
		if !e.Mediator.IntegerToPropositional() {
			// The encoding literal contradicted an existing propositional
			// assignment; re-run clausal propagation so the actual
			// conflicting clause surfaces through the normal path.
			if ref := e.Solver.Propagator.Propagate(); ref != sat.InvalidRef {
				return ref, nil
			}
		}

		if ref := e.Solver.Propagator.Propagate(); ref != sat.InvalidRef {
			return ref, nil
		}

		e.Mediator.PropositionalToInteger()

		if e.Scheduler.IsEmpty() {
			return sat.InvalidRef, nil
		}

		p, id, _ := e.Scheduler.Pop()
		dm := cp.NewDomainManager(e.IntTrail, cp.PropagatorID(id))
		if p.Propagate(dm) == cp.ConflictDetected {
			return sat.InvalidRef, &conflictReason{propagator: p, reason: e.conflictWitness(p)}
		}
		// A propagator that made progress re-enters clausal/CP
		// propagation on the next loop iteration.
	}
}

// conflictWitness asks the propagator that just reported infeasibility
// for the predicates witnessing it. Passing a predicate over a variable
// no propagator ever allocates means ExplainPropagation's "exclude the
// predicate's own variable" rule excludes nothing, so every currently
// binding contributing predicate comes back.
func (e *Engine) conflictWitness(p cp.Propagator) cp.Conjunction {
	return p.ExplainPropagation(cp.Predicate{Var: -1})
}

// installCPConflictClause negates every predicate in cr.reason, maps
// each to its encoding literal, and installs the resulting clause into
// the arena as a learned clause (bypassing AddClause's root-level
// falsified-literal simplification, which would otherwise discard every
// literal of a clause built entirely from currently-false literals) so
// that conflict analysis can resolve it exactly like a clausal conflict.
func (e *Engine) installCPConflictClause(cr *conflictReason) sat.ClauseRef {
	literals := make([]sat.Literal, 0, len(cr.reason))
	for _, p := range cr.reason {
		literals = append(literals, e.Mediator.EncodingLiteral(p.Opposite()))
	}
	ref, _ := e.Solver.Propagator.AddClause(literals, true)
	return ref
}

// backtrack undoes both trails past level, resyncs the mediator's
// cursors, and lets every registered CP propagator recompute its cached
// state against the restored domains before it can be scheduled again.
func (e *Engine) backtrack(level int) {
	e.Solver.BacktrackTo(level)
	e.IntTrail.BacktrackTo(level)
	e.Mediator.BacktrackSync()

	dm := cp.NewDomainManager(e.IntTrail, cp.NoPropagator)
	for id, p := range e.propagators {
		p.Synchronise(dm)
		e.Scheduler.Enqueue(id)
	}
}

// State returns the engine's current high-level state.
func (e *Engine) State() State { return e.state }

// ViolatedAssumption returns the assumption literal that made the
// instance infeasible; valid only when State() == InfeasibleUnderAssumptions.
func (e *Engine) ViolatedAssumption() sat.Literal { return e.violatedAssumption }

// RestoreStateAtRoot resets the engine back to Ready at decision level 0,
// used between optimisation iterations that tighten a bound and re-solve.
func (e *Engine) RestoreStateAtRoot() {
	e.backtrack(0)
	e.state = Ready
}
