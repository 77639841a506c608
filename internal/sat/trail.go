package sat

// trailEntry records one literal's assignment, in the order it became
// true. Conflict analysis walks the trail backwards following reason
// pointers (never by arithmetic clause-index decrement) to build the
// first-UIP learned clause.
type trailEntry struct {
	lit    Literal
	reason ClauseRef
	level  int
}

// Trail is the propositional assignment trail: the chronological record
// of every literal that has been made true, together with the decision
// level it belongs to and the clause (if any) that implied it.
type Trail struct {
	entries []trailEntry

	// levelHeads[i] is the index into entries of the first literal
	// assigned at decision level i (the decision literal itself, for i>0).
	levelHeads []int

	value  []LBool
	level  []int
	reason []ClauseRef

	propagated int // number of entries already handed out for propagation
}

// NewTrail returns an empty trail sized for numVars propositional
// variables.
func NewTrail(numVars int) *Trail {
	t := &Trail{
		entries:    make([]trailEntry, 0, numVars),
		levelHeads: []int{0},
		value:      make([]LBool, numVars),
		level:      make([]int, numVars),
		reason:     make([]ClauseRef, numVars),
	}
	for i := range t.reason {
		t.reason[i] = NoReason
	}
	return t
}

// Grow extends the trail's per-variable bookkeeping to accommodate a new
// total of numVars variables (used when the mediator allocates fresh
// Boolean twins for CP predicates).
func (t *Trail) Grow(numVars int) {
	for len(t.value) < numVars {
		t.value = append(t.value, Unknown)
		t.level = append(t.level, 0)
		t.reason = append(t.reason, NoReason)
	}
}

// DecisionLevel returns the current decision level. Level 0 is the root.
func (t *Trail) DecisionLevel() int {
	return len(t.levelHeads) - 1
}

// Value returns the current truth value of lit's variable, lifted through
// lit's polarity.
func (t *Trail) Value(lit Literal) LBool {
	v := t.value[lit.VarID()]
	if v == Unknown {
		return Unknown
	}
	if lit.IsPositive() {
		return v
	}
	return v.Opposite()
}

// LevelOf returns the decision level at which v was assigned. Meaningless
// if v is unassigned.
func (t *Trail) LevelOf(v int) int { return t.level[v] }

// ReasonOf returns the clause that implied v's current assignment, or
// NoReason if v is a decision literal, a root-level unit, or unassigned.
func (t *Trail) ReasonOf(v int) ClauseRef { return t.reason[v] }

// Size returns the number of literals currently on the trail.
func (t *Trail) Size() int { return len(t.entries) }

// At returns the i-th trail entry, in assignment order.
func (t *Trail) At(i int) trailEntry { return t.entries[i] }

// LitAt returns the literal asserted by the i-th trail entry.
func (t *Trail) LitAt(i int) Literal { return t.entries[i].lit }

func (t *Trail) assign(lit Literal, reason ClauseRef) {
	v := lit.VarID()
	val := True
	if !lit.IsPositive() {
		val = False
	}
	t.value[v] = val
	t.level[v] = t.DecisionLevel()
	t.reason[v] = reason
	t.entries = append(t.entries, trailEntry{lit: lit, reason: reason, level: t.level[v]})
}

// EnqueueRootUnit asserts lit unconditionally at decision level 0, with no
// reason clause. Unit clauses added through Propagator.AddClause do not
// use it; they are enqueued by Propagator.Enqueue.
func (t *Trail) EnqueueRootUnit(lit Literal) {
	assertSimple(t.DecisionLevel() == 0, "root unit enqueued above decision level 0")
	t.assign(lit, NoReason)
}

// EnqueueDecision pushes a new decision level and assigns lit as the
// branching literal for it.
func (t *Trail) EnqueueDecision(lit Literal) {
	t.levelHeads = append(t.levelHeads, len(t.entries))
	t.assign(lit, NoReason)
}

// EnqueuePropagated asserts lit at the current decision level, implied by
// reason.
func (t *Trail) EnqueuePropagated(lit Literal, reason ClauseRef) {
	t.assign(lit, reason)
}

// NextToPropagate returns the next trail literal awaiting propagation and
// advances the propagation cursor. ok is false once the queue is drained.
func (t *Trail) NextToPropagate() (lit Literal, ok bool) {
	if t.propagated >= len(t.entries) {
		return 0, false
	}
	lit = t.entries[t.propagated].lit
	t.propagated++
	return lit, true
}

// QueueSize returns the number of trail literals not yet handed out by
// NextToPropagate.
func (t *Trail) QueueSize() int { return len(t.entries) - t.propagated }

// BacktrackTo undoes every assignment made above targetLevel, resetting
// each unassigned variable to Unknown and rewinding the propagation
// cursor. It returns the literals that were undone, in trail order, so
// callers (e.g. the VarOrder) can reinsert them into the search heap.
func (t *Trail) BacktrackTo(targetLevel int) []Literal {
	assertSimple(targetLevel >= 0 && targetLevel <= t.DecisionLevel(), "backtrack target out of range")
	if targetLevel == t.DecisionLevel() {
		return nil
	}
	cut := t.levelHeads[targetLevel+1]
	undone := make([]Literal, 0, len(t.entries)-cut)
	for i := len(t.entries) - 1; i >= cut; i-- {
		e := t.entries[i]
		t.value[e.lit.VarID()] = Unknown
		t.reason[e.lit.VarID()] = NoReason
		undone = append(undone, e.lit)
	}
	t.entries = t.entries[:cut]
	t.levelHeads = t.levelHeads[:targetLevel+1]
	if t.propagated > len(t.entries) {
		t.propagated = len(t.entries)
	}
	return undone
}
