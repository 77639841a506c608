package sat

// watcher attaches a clause to one literal's watch list. guard is one of
// the clause's other literals; when it is already true there is no need
// to even load the clause, which is the single biggest win of the
// two-watched-literal scheme.
type watcher struct {
	ref   ClauseRef
	guard Literal
}

// Propagator is the clausal unit-propagation engine: it owns the watch
// lists and the propagation queue, and drives BCP (Boolean constraint
// propagation) to fixpoint over the clauses held in an Arena.
type Propagator struct {
	arena *Arena
	trail *Trail

	watchers [][]watcher
	queue    *Queue[Literal]

	tmpWatchers []watcher
	tmpReason   []Literal

	clauseInc   float64
	clauseDecay float64
}

// NewPropagator returns a propagator over the given arena and trail.
func NewPropagator(arena *Arena, trail *Trail, clauseDecay float64) *Propagator {
	return &Propagator{
		arena:       arena,
		trail:       trail,
		queue:       NewQueue[Literal](128),
		clauseInc:   1,
		clauseDecay: clauseDecay,
	}
}

// bumpClauseActivity rewards a learned clause used in conflict analysis so
// that ReduceDB's activity-based strategy keeps recently-useful
// clauses longer.
func (p *Propagator) bumpClauseActivity(ref ClauseRef) {
	p.arena.BumpActivity(ref, &p.clauseInc)
}

// DecayClauseActivity inflates the bump increment, cheaply devaluing past
// activity relative to future bumps.
func (p *Propagator) DecayClauseActivity() {
	p.clauseInc /= p.clauseDecay
}

// GrowWatchers extends the watch-list table to cover numVars variables
// (i.e. 2*numVars literals).
func (p *Propagator) GrowWatchers(numVars int) {
	for len(p.watchers) < 2*numVars {
		p.watchers = append(p.watchers, nil)
	}
}

// Watch registers the clause at ref to be woken up when watch becomes
// true. guard must be a different literal of the same clause.
func (p *Propagator) Watch(ref ClauseRef, watch Literal, guard Literal) {
	assertModerate(watch != guard, "watch and guard literal must differ")
	p.watchers[watch] = append(p.watchers[watch], watcher{ref: ref, guard: guard})
}

// Unwatch removes the clause at ref from watch's watch list.
func (p *Propagator) Unwatch(ref ClauseRef, watch Literal) {
	ws := p.watchers[watch]
	j := 0
	for i := 0; i < len(ws); i++ {
		if ws[i].ref != ref {
			ws[j] = ws[i]
			j++
		}
	}
	p.watchers[watch] = ws[:j]
}

// Enqueue attempts to assert lit as a consequence of reason. It returns
// false if lit's variable is already assigned to the opposite value
// (a conflict), true otherwise (including when lit was already true).
func (p *Propagator) Enqueue(lit Literal, reason ClauseRef) bool {
	switch p.trail.Value(lit) {
	case False:
		return false
	case True:
		return true
	default:
		p.trail.EnqueuePropagated(lit, reason)
		p.queue.Push(lit)
		return true
	}
}

// EnqueueDecision pushes a new decision level and immediately queues the
// decision literal for propagation.
func (p *Propagator) EnqueueDecision(lit Literal) {
	p.trail.EnqueueDecision(lit)
	p.queue.Push(lit)
}

// Drain empties the propagation queue without processing it, used when a
// conflict is discovered mid-fixpoint and the remaining queue is stale.
func (p *Propagator) Drain() {
	p.queue.Clear()
}

// AddClause constructs a clause from literals (removing duplicates and
// tautologies, and dropping root-level falsified literals, unless learned
// is true in which case the literals are trusted as-is) and attaches it
// to the watch lists. It returns the allocated reference (InvalidRef if
// the clause reduced to nothing but a unit fact or a tautology), and ok
// which is false only if the clause is empty (root-level UNSAT).
const InvalidRef ClauseRef = -1 << 30

func (p *Propagator) AddClause(literals []Literal, learned bool) (ClauseRef, bool) {
	size := len(literals)

	if !learned {
		seen := map[Literal]struct{}{}
		for i := size - 1; i >= 0; i-- {
			if _, ok := seen[literals[i].Opposite()]; ok {
				return InvalidRef, true // tautology
			}
			if _, ok := seen[literals[i]]; ok {
				size--
				literals[i], literals[size] = literals[size], literals[i]
				continue
			}
			seen[literals[i]] = struct{}{}

			switch p.trail.Value(literals[i]) {
			case True:
				return InvalidRef, true
			case False:
				size--
				literals[i], literals[size] = literals[size], literals[i]
			}
		}
		literals = literals[:size]
	}

	switch size {
	case 0:
		return InvalidRef, false
	case 1:
		return InvalidRef, p.Enqueue(literals[0], NoReason)
	default:
		ref := p.arena.Alloc(literals, learned)
		lits := p.arena.Literals(ref)

		if learned {
			// Watch the most-recently-falsified literal (besides the
			// asserting literal at index 0) so that backtracking past the
			// conflict level immediately makes the watch usable again.
			maxLevel, wl := -1, 1
			for i := 1; i < len(lits); i++ {
				if lvl := p.trail.LevelOf(lits[i].VarID()); lvl > maxLevel {
					maxLevel = lvl
					wl = i
				}
			}
			lits[wl], lits[1] = lits[1], lits[wl]
		}

		p.Watch(ref, lits[0].Opposite(), lits[1])
		p.Watch(ref, lits[1].Opposite(), lits[0])
		return ref, true
	}
}

// IsSentinel reports whether ref is a reason reference reserved by a
// caller outside this package (see Arena.ReserveSentinel) rather than a
// real clause stored in the arena.
func (p *Propagator) IsSentinel(ref ClauseRef) bool {
	return p.arena.IsSentinel(ref)
}

// RemoveClause detaches ref from the watch lists and frees its storage.
// The caller is responsible for ensuring ref is not a trail reason.
func (p *Propagator) RemoveClause(ref ClauseRef) {
	lits := p.arena.Literals(ref)
	p.Unwatch(ref, lits[0].Opposite())
	p.Unwatch(ref, lits[1].Opposite())
	p.arena.Free(ref)
}

// locked reports whether ref is currently the reason clause for its own
// first watched literal, i.e. removing it would invalidate a live
// implication on the trail.
func (p *Propagator) locked(ref ClauseRef) bool {
	lits := p.arena.Literals(ref)
	return p.trail.ReasonOf(lits[0].VarID()) == ref
}

// simplifyClause reports whether the clause at ref is satisfied at the
// root level and, if it is not, compacts its literals. Must only run at
// decision level 0 with an empty propagation queue.
func (p *Propagator) simplifyClause(ref ClauseRef) (satisfied bool) {
	lits := p.arena.Literals(ref)
	j := 0
	for i := 0; i < len(lits); i++ {
		switch p.trail.Value(lits[i]) {
		case True:
			return true
		case False:
			// drop
		default:
			lits[j] = lits[i]
			j++
		}
	}
	p.arena.records[ref].literals = lits[:j]
	return false
}

// Propagate runs BCP to a fixpoint and returns the conflicting clause, or
// InvalidRef if none was found and the queue drained cleanly.
func (p *Propagator) Propagate() ClauseRef {
	for p.queue.Size() > 0 {
		l := p.queue.Pop()

		p.tmpWatchers = p.tmpWatchers[:0]
		p.tmpWatchers = append(p.tmpWatchers, p.watchers[l]...)
		p.watchers[l] = p.watchers[l][:0]

		for i, w := range p.tmpWatchers {
			if p.trail.Value(w.guard) == True {
				p.watchers[l] = append(p.watchers[l], w)
				continue
			}

			if p.propagateClause(w.ref, l) {
				continue
			}

			p.watchers[l] = append(p.watchers[l], p.tmpWatchers[i+1:]...)
			p.queue.Clear()
			return w.ref
		}
	}
	return InvalidRef
}

// propagateClause is invoked when l (one of ref's watched literals) has
// just become true. It restores the two-watched-literal invariant,
// returning true if it succeeds (possibly enqueuing a new unit fact) and
// false if the clause is now conflicting.
func (p *Propagator) propagateClause(ref ClauseRef, l Literal) bool {
	lits := p.arena.Literals(ref)

	opp := l.Opposite()
	if lits[0] == opp {
		lits[0], lits[1] = lits[1], opp
	}

	if p.trail.Value(lits[0]) == True {
		p.Watch(ref, l, lits[0])
		return true
	}

	for i := 2; i < len(lits); i++ {
		if p.trail.Value(lits[i]) != False {
			lits[1], lits[i] = lits[i], l.Opposite()
			p.Watch(ref, lits[1].Opposite(), lits[0])
			return true
		}
	}

	p.Watch(ref, l, lits[0])
	return p.Enqueue(lits[0], ref)
}

// ExplainFailure returns the negation of every literal of a clause that is
// currently falsified in full (a conflict), for use as the starting
// resolvent in conflict analysis.
func (p *Propagator) ExplainFailure(ref ClauseRef) []Literal {
	p.tmpReason = p.tmpReason[:0]
	for _, l := range p.arena.Literals(ref) {
		p.tmpReason = append(p.tmpReason, l.Opposite())
	}
	if p.arena.Clause(ref).isLearned() {
		p.bumpClauseActivity(ref)
	}
	return p.tmpReason
}

// ExplainAssign returns the negation of every literal but lit of ref,
// ref being lit's reason clause.
func (p *Propagator) ExplainAssign(ref ClauseRef, lit Literal) []Literal {
	p.tmpReason = p.tmpReason[:0]
	lits := p.arena.Literals(ref)
	for i := 1; i < len(lits); i++ {
		p.tmpReason = append(p.tmpReason, lits[i].Opposite())
	}
	if p.arena.Clause(ref).isLearned() {
		p.bumpClauseActivity(ref)
	}
	return p.tmpReason
}
