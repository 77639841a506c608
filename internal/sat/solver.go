package sat

import (
	"math/rand"
	"time"
)

// Options configures a Solver's search behaviour.
type Options struct {
	ClauseDecay            float64
	VariableDecay          float64
	PhaseSaving            bool
	NumConflictsPerRestart int64
	ThresholdLearnedClauses int
	ReduceStrategy         ReduceStrategy
	RandomSeed             int64
	MaxConflicts           int64 // <0 means unlimited
	Timeout                time.Duration
}

// DefaultOptions mirrors the reference defaults: a fixed 4000-conflict
// restart interval, LBD-based clause reduction once learned clauses
// outnumber the threshold, and unlimited search.
var DefaultOptions = Options{
	ClauseDecay:             0.999,
	VariableDecay:           0.95,
	PhaseSaving:             true,
	NumConflictsPerRestart:  4000,
	ThresholdLearnedClauses: 10000,
	ReduceStrategy:          ReduceByLBD,
	RandomSeed:              1,
	MaxConflicts:            -1,
	Timeout:                 -1,
}

// Stats tracks search-level counters, printed by callers that want
// MiniSat-style progress output.
type Stats struct {
	Conflicts  int64
	Restarts   int64
	Decisions  int64
	Propagations int64
}

// Solver is a self-contained CDCL core: clause arena, trail, clausal
// propagator, VSIDS variable order, first-UIP conflict analysis and
// LBD/activity clause reduction. It solves plain CNF on its own, and is
// reused unmodified by the engine package as the propositional half of
// the combined CDCL+CP search loop.
type Solver struct {
	Arena      *Arena
	Trail      *Trail
	Propagator *Propagator
	Order      *VarOrder
	Analyzer   *ConflictAnalyzer
	ReduceDB   *ReduceDB

	opts  Options
	rng   *rand.Rand
	stats Stats

	unsat     bool
	startTime time.Time

	Model []bool
}

// NewSolver returns an empty solver ready to receive variables via
// AddVar and clauses via AddClause.
func NewSolver(opts Options) *Solver {
	arena := NewArena()
	trail := NewTrail(0)
	prop := NewPropagator(arena, trail, opts.ClauseDecay)
	order := NewVarOrder(opts.VariableDecay, opts.PhaseSaving)
	analyzer := NewConflictAnalyzer(prop, trail)
	reduce := NewReduceDB(prop, arena, opts.ReduceStrategy)

	return &Solver{
		Arena:      arena,
		Trail:      trail,
		Propagator: prop,
		Order:      order,
		Analyzer:   analyzer,
		ReduceDB:   reduce,
		opts:       opts,
		rng:        rand.New(rand.NewSource(opts.RandomSeed)),
	}
}

// NumVariables returns the number of propositional variables declared so
// far.
func (s *Solver) NumVariables() int { return len(s.Order.scores) }

// AddVar declares a new propositional variable and returns its ID.
func (s *Solver) AddVar() int {
	id := s.NumVariables()
	s.Trail.Grow(id + 1)
	s.Propagator.GrowWatchers(id + 1)
	s.Order.AddVar(0, false)
	s.Analyzer.GrowSeen(id + 1)
	return id
}

// Value reports the current truth value of lit.
func (s *Solver) Value(lit Literal) LBool { return s.Trail.Value(lit) }

// VarValue reports the current truth value of variable v.
func (s *Solver) VarValue(v int) LBool { return s.Trail.Value(PositiveLiteral(v)) }

// AddClause adds literals as a problem clause. It must only be called at
// decision level 0. If the clause is discovered to make the problem
// unsatisfiable (an empty resolvent), the solver is marked permanently
// unsat and subsequent Solve calls return False immediately.
func (s *Solver) AddClause(literals []Literal) {
	if s.unsat {
		return
	}
	_, ok := s.Propagator.AddClause(literals, false)
	if !ok {
		s.unsat = true
	}
}

// IsUnsat reports whether the solver has already determined the problem
// unsatisfiable at the root level, e.g. from a unit or empty clause
// added via AddClause. Callers that add clauses incrementally (the
// cardinality encoders, the WCNF reader) check this after each call
// instead of threading a separate error return through AddClause.
func (s *Solver) IsUnsat() bool { return s.unsat }

// DecisionLevel returns the solver's current decision level.
func (s *Solver) DecisionLevel() int { return s.Trail.DecisionLevel() }

// BacktrackTo undoes every decision above level, reinserting freed
// variables into the decision order with their saved phase.
func (s *Solver) BacktrackTo(level int) {
	undone := s.Trail.BacktrackTo(level)
	for _, lit := range undone {
		val := True
		if !lit.IsPositive() {
			val = False
		}
		s.Order.Reinsert(lit.VarID(), val)
	}
}

// Propagate runs BCP to a fixpoint, returning the conflicting clause (or
// InvalidRef if none).
func (s *Solver) Propagate() ClauseRef {
	ref := s.Propagator.Propagate()
	if ref != InvalidRef {
		s.stats.Conflicts++
	}
	return ref
}

// recordLearnt allocates the learned clause, computes its LBD, enqueues
// its asserting literal and registers it with the reduction manager.
func (s *Solver) recordLearnt(literals []Literal) {
	lbd := s.Analyzer.LBD(literals)
	ref, _ := s.Propagator.AddClause(literals, true)
	if ref == InvalidRef {
		// Unit clause: AddClause already enqueued it directly.
		return
	}
	s.Arena.Clause(ref).lbd = lbd
	s.ReduceDB.Track(ref)
	s.Propagator.Enqueue(literals[0], ref)
}

// RecordLearnt is recordLearnt's exported twin, for callers outside this
// package (the combined CDCL+CP loop) that resolve a conflict originating
// on the CP side down to a learned clause via the same analyzer.
func (s *Solver) RecordLearnt(literals []Literal) {
	s.recordLearnt(literals)
}

// SaveModel copies the current, complete assignment into Model. Callers
// outside this package use it once a search loop they drive by hand
// (rather than via Solve) reaches a satisfying assignment.
func (s *Solver) SaveModel() {
	s.saveModel()
}

func (s *Solver) shouldStop(conflictsThisRun int64) bool {
	if s.opts.MaxConflicts >= 0 && s.stats.Conflicts >= s.opts.MaxConflicts {
		return true
	}
	if s.opts.Timeout >= 0 && time.Since(s.startTime) >= s.opts.Timeout {
		return true
	}
	return false
}

// StepResult is the outcome of one Step of the CDCL loop. Step is driven
// by Solve; the engine package does not call it and instead drives the
// trail, propagator and analyzer directly so it can interleave CP
// propagation between propositional fixpoints.
type StepResult int

const (
	StepContinue StepResult = iota
	StepConflictAtRoot
	StepSatisfied
	StepNeedDecision
)

// Step performs one unit-propagation pass and conflict-analysis cycle. It
// returns StepNeedDecision when propagation reaches a fixpoint with some
// variable still unassigned (the caller makes the decision);
// StepSatisfied when every variable is assigned; StepConflictAtRoot on
// root-level UNSAT; StepContinue after learning a clause and backjumping.
func (s *Solver) Step() StepResult {
	if s.unsat {
		return StepConflictAtRoot
	}

	conflict := s.Propagator.Propagate()
	if conflict == InvalidRef {
		if s.Trail.Size() == s.NumVariables() {
			return StepSatisfied
		}
		return StepNeedDecision
	}

	if s.DecisionLevel() == 0 {
		s.unsat = true
		return StepConflictAtRoot
	}

	learnt, backtrackLevel := s.Analyzer.Analyze(conflict)
	s.BacktrackTo(backtrackLevel)
	s.recordLearnt(learnt)
	s.Order.DecayScores()
	s.Propagator.DecayClauseActivity()

	return StepContinue
}

// NextDecision returns the next branching literal chosen by the variable
// order.
func (s *Solver) NextDecision() Literal {
	return s.Order.NextDecision(s.VarValue)
}

// Decide pushes lit as a new decision.
func (s *Solver) Decide(lit Literal) {
	s.stats.Decisions++
	s.Propagator.EnqueueDecision(lit)
}

// Solve runs the full CDCL search loop (with fixed-interval restarts and
// periodic learned-clause reduction) on a plain CNF problem.
func (s *Solver) Solve() LBool {
	s.startTime = time.Now()
	if s.unsat {
		return False
	}

	conflictsSinceRestart := int64(0)

	for {
		res := s.Step()
		switch res {
		case StepConflictAtRoot:
			return False
		case StepSatisfied:
			s.saveModel()
			s.BacktrackTo(0)
			return True
		case StepContinue:
			conflictsSinceRestart++
			if s.shouldStop(conflictsSinceRestart) {
				s.BacktrackTo(0)
				return Unknown
			}
			if s.opts.NumConflictsPerRestart > 0 && conflictsSinceRestart >= s.opts.NumConflictsPerRestart {
				s.stats.Restarts++
				conflictsSinceRestart = 0
				s.BacktrackTo(0)
			}
			if s.ReduceDB.Count() >= s.opts.ThresholdLearnedClauses {
				s.ReduceDB.Reduce()
			}
		case StepNeedDecision:
			if s.shouldStop(conflictsSinceRestart) {
				s.BacktrackTo(0)
				return Unknown
			}
			s.Decide(s.NextDecision())
		}
	}
}

func (s *Solver) saveModel() {
	model := make([]bool, s.NumVariables())
	for v := range model {
		lb := s.VarValue(v)
		if lb == Unknown {
			panic("sat: saveModel called with an incomplete assignment")
		}
		model[v] = lb == True
	}
	s.Model = model
}

// Stats returns a snapshot of the solver's search counters.
func (s *Solver) Stats() Stats { return s.stats }
