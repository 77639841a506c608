package cp

// ChangeStatus is the outcome of an atomic integer-trail operation.
type ChangeStatus int

const (
	NoChange ChangeStatus = iota
	Changed
	Failure
)

// PropagatorID identifies a registered CP propagator. The mediator uses
// a reserved, out-of-range PropagatorID to mean "this predicate came
// straight from the Boolean encoding literal, not from a propagator".
type PropagatorID int

// NoPropagator marks a trail entry produced by the mediator syncing a
// Boolean literal into the integer trail, rather than by a propagator.
const NoPropagator PropagatorID = -1

// trailEntry records one atomic domain change.
type trailEntry struct {
	pred      Predicate
	propagator PropagatorID
	level     int
}

// Trail is the integer analogue of sat.Trail: a chronological record of
// every domain-tightening predicate that has been applied, with
// per-level head indices for O(1) backtracking.
type Trail struct {
	assignments *Assignments

	entries    []trailEntry
	levelHeads []int

	// initial snapshots each variable's domain as it stood when the
	// trail was created, used by undo to know what to restore a bound to
	// when no earlier trail entry mentions the variable.
	initial []Domain
}

// NewTrail returns an integer trail backed by assignments.
func NewTrail(assignments *Assignments) *Trail {
	initial := make([]Domain, len(assignments.domains))
	copy(initial, assignments.domains)
	return &Trail{assignments: assignments, levelHeads: []int{0}, initial: initial}
}

// GrowInitial extends the initial-domain snapshot to cover a freshly
// created variable (used when the mediator allocates integer variables
// lazily after the trail already exists).
func (t *Trail) GrowInitial(v IntVar, d Domain) {
	for len(t.initial) <= int(v) {
		t.initial = append(t.initial, Domain{})
	}
	t.initial[v] = d
}

func (t *Trail) DecisionLevel() int { return len(t.levelHeads) - 1 }

func (t *Trail) Size() int { return len(t.entries) }

func (t *Trail) At(i int) (Predicate, PropagatorID, int) {
	e := t.entries[i]
	return e.pred, e.propagator, e.level
}

// PushLevel opens a new decision level without applying any predicate
// (mirrors sat.Trail.EnqueueDecision; the engine's decide calls both
// when the CDCL loop raises the decision level).
func (t *Trail) PushLevel() {
	t.levelHeads = append(t.levelHeads, len(t.entries))
}

func (t *Trail) record(pred Predicate, propagator PropagatorID) {
	t.entries = append(t.entries, trailEntry{pred: pred, propagator: propagator, level: t.DecisionLevel()})
}

// TightenLowerBound raises v's lower bound to k if k is strictly higher
// than the current one.
func (t *Trail) TightenLowerBound(v IntVar, k int, propagator PropagatorID) ChangeStatus {
	d := t.assignments.domains[v]
	if k <= d.Lower {
		return NoChange
	}
	if k > d.Upper {
		return Failure
	}
	t.assignments.domains[v].Lower = k
	t.record(LowerBound(v, k), propagator)
	return Changed
}

// TightenUpperBound lowers v's upper bound to k if k is strictly lower
// than the current one.
func (t *Trail) TightenUpperBound(v IntVar, k int, propagator PropagatorID) ChangeStatus {
	d := t.assignments.domains[v]
	if k >= d.Upper {
		return NoChange
	}
	if k < d.Lower {
		return Failure
	}
	t.assignments.domains[v].Upper = k
	t.record(UpperBound(v, k), propagator)
	return Changed
}

// RemoveValue excludes k from v's domain, tightening a bound if k sits at
// the edge of the interval.
func (t *Trail) RemoveValue(v IntVar, k int, propagator PropagatorID) ChangeStatus {
	d := t.assignments.domains[v]
	if !d.Contains(k) {
		return NoChange
	}
	switch {
	case d.Lower == d.Upper:
		return Failure
	case k == d.Lower:
		return t.TightenLowerBound(v, k+1, propagator)
	case k == d.Upper:
		return t.TightenUpperBound(v, k-1, propagator)
	default:
		t.record(NotEqual(v, k), propagator)
		return Changed
	}
}

// Fix collapses v's domain to the single value k.
func (t *Trail) Fix(v IntVar, k int, propagator PropagatorID) ChangeStatus {
	d := t.assignments.domains[v]
	if d.Lower == k && d.Upper == k {
		return NoChange
	}
	if !d.Contains(k) {
		return Failure
	}
	lo := t.TightenLowerBound(v, k, propagator)
	if lo == Failure {
		return Failure
	}
	hi := t.TightenUpperBound(v, k, propagator)
	if hi == Failure {
		return Failure
	}
	if lo == NoChange && hi == NoChange {
		return NoChange
	}
	return Changed
}

// BacktrackTo undoes every domain change made above targetLevel.
func (t *Trail) BacktrackTo(targetLevel int) {
	if targetLevel >= t.DecisionLevel() {
		return
	}
	cut := t.levelHeads[targetLevel+1]
	for i := len(t.entries) - 1; i >= cut; i-- {
		t.undo(i)
	}
	t.entries = t.entries[:cut]
	t.levelHeads = t.levelHeads[:targetLevel+1]
}

func (t *Trail) undo(i int) {
	// Undoing a bound change means restoring the domain to whatever it
	// was before this predicate's entry: since intervals only ever
	// shrink going forward, the value to restore to is exactly the
	// previous trail entry for this variable, or the variable's original
	// bound if none remains. We recompute it by scanning entries strictly
	// below i, not the whole trail, since entries above i in the undone
	// suffix have not been (or are about to be) discarded themselves and
	// cannot stand in as a prior value. This is a straightforward
	// approach suitable for the bounds-only domains this solver supports
	// (no holes are ever recorded by the linear propagator).
	pred := t.entries[i].pred
	switch pred.Kind {
	case LowerBoundKind:
		t.assignments.domains[pred.Var].Lower = t.priorLowerBound(pred.Var, i)
	case UpperBoundKind:
		t.assignments.domains[pred.Var].Upper = t.priorUpperBound(pred.Var, i)
	}
}

func (t *Trail) priorLowerBound(v IntVar, before int) int {
	for i := before - 1; i >= 0; i-- {
		e := t.entries[i]
		if e.pred.Var == v && e.pred.Kind == LowerBoundKind {
			return e.pred.Value
		}
	}
	return t.initialBound(v).Lower
}

func (t *Trail) priorUpperBound(v IntVar, before int) int {
	for i := before - 1; i >= 0; i-- {
		e := t.entries[i]
		if e.pred.Var == v && e.pred.Kind == UpperBoundKind {
			return e.pred.Value
		}
	}
	return t.initialBound(v).Upper
}

func (t *Trail) initialBound(v IntVar) Domain {
	if int(v) >= len(t.initial) {
		return t.assignments.domains[v]
	}
	return t.initial[v]
}
