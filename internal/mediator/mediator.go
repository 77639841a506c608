// Package mediator bridges the propositional (SAT) and constraint
// (CP) layers: it bijects every integer predicate to a Boolean encoding
// literal and keeps the two trails synchronized in both directions.
package mediator

import (
	"github.com/oskarlind/pumpkin/internal/cp"
	"github.com/oskarlind/pumpkin/internal/sat"
)

// Mediator owns the predicate ↔ literal side tables, breaking the
// propositional-trail ↔ integer-trail ↔ mediator reference cycle by
// being the single owner both trails read through, and drives the two
// synchronisation passes.
type Mediator struct {
	solver   *sat.Solver
	cpTrail  *cp.Trail
	assigns  *cp.Assignments

	litToPred map[sat.Literal]cp.Predicate
	predToLit map[cp.Predicate]sat.Literal

	// litPropagator remembers which CP propagator (if any) was responsible
	// for the predicate behind a literal the last time IntegerToPropositional
	// synced it in, so conflict analysis can ask that same propagator to
	// explain it on demand.
	litPropagator map[sat.Literal]cp.PropagatorID

	// cpPropagated is the sentinel clause reference used as the reason
	// for every propositional literal asserted by syncing an integer
	// predicate in, when that predicate did not come from an already
	// assigned Boolean literal.
	cpPropagated sat.ClauseRef

	// propSyncCursor/cpSyncCursor track how far each trail has already
	// been scanned by the corresponding synchronisation pass.
	propSyncCursor int
	cpSyncCursor   int
}

// New returns a mediator wired to solver's propositional core and to a
// fresh integer-variable store.
func New(solver *sat.Solver) *Mediator {
	assigns := cp.NewAssignments()
	return &Mediator{
		solver:       solver,
		cpTrail:      cp.NewTrail(assigns),
		assigns:      assigns,
		litToPred:     make(map[sat.Literal]cp.Predicate),
		predToLit:     make(map[cp.Predicate]sat.Literal),
		litPropagator: make(map[sat.Literal]cp.PropagatorID),
		cpPropagated:  solver.Arena.ReserveSentinel(),
	}
}

// Assignments exposes the integer-variable domain store, e.g. for
// propagators or the CLI driver to read final bounds from.
func (m *Mediator) Assignments() *cp.Assignments { return m.assigns }

// IntTrail exposes the integer trail, e.g. for propagator registration.
func (m *Mediator) IntTrail() *cp.Trail { return m.cpTrail }

// NewIntVar creates an integer variable with the given bounds and
// returns its identifier. No encoding literals are allocated eagerly;
// they are created lazily the first time a predicate over this variable
// needs one (EncodingLiteral).
func (m *Mediator) NewIntVar(lower, upper int) cp.IntVar {
	v := m.assigns.Grow(lower, upper)
	m.cpTrail.GrowInitial(v, cp.Domain{Lower: lower, Upper: upper})
	return v
}

// EncodingLiteral returns the Boolean literal encoding predicate p,
// lazily allocating a fresh propositional variable (and the monotonicity
// clauses linking it to p's neighbouring predicates over the same
// variable) the first time p is requested.
func (m *Mediator) EncodingLiteral(p cp.Predicate) sat.Literal {
	if lit, ok := m.predToLit[p]; ok {
		return lit
	}

	varID := m.solver.AddVar()
	lit := sat.PositiveLiteral(varID)

	m.predToLit[p] = lit
	m.litToPred[lit] = p
	m.litToPred[lit.Opposite()] = p.Opposite()
	m.predToLit[p.Opposite()] = lit.Opposite()

	m.linkMonotonicity(p, lit)
	return lit
}

// linkMonotonicity adds the permanent clauses enforcing [x<=k]->[x<=k+1]
// and [x>=k]->[x>=k-1] against whichever neighbouring bound predicate
// over the same variable has already been allocated a literal.
func (m *Mediator) linkMonotonicity(p cp.Predicate, lit sat.Literal) {
	switch p.Kind {
	case cp.LowerBoundKind:
		if neighborLit, ok := m.predToLit[cp.LowerBound(p.Var, p.Value+1)]; ok {
			// [x>=k+1] -> [x>=k]
			m.solver.AddClause([]sat.Literal{neighborLit.Opposite(), lit})
		}
		if neighborLit, ok := m.predToLit[cp.LowerBound(p.Var, p.Value-1)]; ok {
			// [x>=k] -> [x>=k-1]
			m.solver.AddClause([]sat.Literal{lit.Opposite(), neighborLit})
		}
	case cp.UpperBoundKind:
		if neighborLit, ok := m.predToLit[cp.UpperBound(p.Var, p.Value-1)]; ok {
			// [x<=k-1] -> [x<=k]
			m.solver.AddClause([]sat.Literal{neighborLit.Opposite(), lit})
		}
		if neighborLit, ok := m.predToLit[cp.UpperBound(p.Var, p.Value+1)]; ok {
			// [x<=k] -> [x<=k+1]
			m.solver.AddClause([]sat.Literal{lit.Opposite(), neighborLit})
		}
	}
}

// PropositionalToInteger scans propositional trail entries appended
// since the last call and applies every one that is the encoding literal
// of a predicate to the integer trail. It returns nothing: when the
// integer trail rejects a predicate, the rejection is not reported and
// no conflict is raised for it.
func (m *Mediator) PropositionalToInteger() {
	trail := m.solver.Trail
	for m.propSyncCursor < trail.Size() {
		lit := trail.LitAt(m.propSyncCursor)
		m.propSyncCursor++

		p, ok := m.litToPred[lit]
		if !ok {
			continue
		}
		m.applyPredicate(p)
	}
}

func (m *Mediator) applyPredicate(p cp.Predicate) {
	switch p.Kind {
	case cp.LowerBoundKind:
		m.cpTrail.TightenLowerBound(p.Var, p.Value, cp.NoPropagator)
	case cp.UpperBoundKind:
		m.cpTrail.TightenUpperBound(p.Var, p.Value, cp.NoPropagator)
	case cp.NotEqualKind:
		m.cpTrail.RemoveValue(p.Var, p.Value, cp.NoPropagator)
	case cp.EqualKind:
		m.cpTrail.Fix(p.Var, p.Value, cp.NoPropagator)
	}
}

// IntegerToPropositional scans integer trail entries appended since the
// last call and enqueues the encoding literal of each predicate on the
// propositional trail, with cpPropagated as its reason (the CDCL loop's
// conflict analysis treats that sentinel as an opaque clause and asks
// the mediator, not the arena, to explain it — see ExplainCPAntecedents).
func (m *Mediator) IntegerToPropositional() bool {
	for m.cpSyncCursor < m.cpTrail.Size() {
		pred, propagatorID, _ := m.cpTrail.At(m.cpSyncCursor)
		m.cpSyncCursor++

		lit := m.EncodingLiteral(pred)
		m.litPropagator[lit] = propagatorID
		if !m.solver.Propagator.Enqueue(lit, m.cpPropagated) {
			return false
		}
	}
	return true
}

// BacktrackSync clamps both synchronisation cursors down to the
// post-backtrack trail sizes. Without this, a cursor left pointing past
// the (now shorter) trail would skip every literal re-asserted at the
// restored level, since the corresponding sync pass would never see the
// cursor fall behind Size() again.
func (m *Mediator) BacktrackSync() {
	if m.propSyncCursor > m.solver.Trail.Size() {
		m.propSyncCursor = m.solver.Trail.Size()
	}
	if m.cpSyncCursor > m.cpTrail.Size() {
		m.cpSyncCursor = m.cpTrail.Size()
	}
}

// CPReasonRef is the sentinel clause reference conflict analysis sees
// for any literal asserted by a CP propagator via the mediator.
func (m *Mediator) CPReasonRef() sat.ClauseRef { return m.cpPropagated }

// PredicateAndPropagator returns the predicate lit encodes and the CP
// propagator (if any) that asserted it the last time it was synced onto
// the propositional trail by IntegerToPropositional.
func (m *Mediator) PredicateAndPropagator(lit sat.Literal) (cp.Predicate, cp.PropagatorID, bool) {
	pred, ok := m.litToPred[lit]
	if !ok {
		return cp.Predicate{}, cp.NoPropagator, false
	}
	return pred, m.litPropagator[lit], true
}

// ExplainCPAntecedents translates a propagator's justifying conjunction
// for a CP-asserted literal into the antecedent literals conflict
// analysis expects from ExplainAssign: the encoding literal of each
// predicate in the conjunction.
func (m *Mediator) ExplainCPAntecedents(reason cp.Conjunction) []sat.Literal {
	out := make([]sat.Literal, 0, len(reason))
	for _, p := range reason {
		out = append(out, m.EncodingLiteral(p))
	}
	return out
}
