package sat

// ClauseRef is an opaque, stable reference to a clause stored in the
// Arena. Non-negative values index real clauses; negative values are
// sentinels reserved for propagators that need a "this literal was
// assigned by me, not by a clause" reason (see ReserveSentinel).
type ClauseRef int

// NoReason is the reason carried by decision literals and by root-level
// unit facts: there is nothing to resolve against.
const NoReason ClauseRef = 1<<31 - 1

// clauseRecord is the arena's packed representation of a clause.
type clauseRecord struct {
	literals []Literal

	activity float64
	lbd      uint32

	learned   bool
	deleted   bool
	protected bool
}

func (c *clauseRecord) isLearned() bool { return c.learned }

// Arena is an append-only allocator for clauses. It hands out ClauseRef
// values that remain valid for the lifetime of the arena, except that
// ReduceDB.Reduce may invalidate references to learned clauses that are not
// currently a propagation reason on the trail.
type Arena struct {
	records []clauseRecord

	// nextSentinel counts downward so that sentinel references (see
	// ReserveSentinel) never collide with a real, non-negative clause
	// index. The mediator reserves a single sentinel, which every CP
	// propagator's literals share; there is no sentinel per propagator.
	nextSentinel ClauseRef
}

// NewArena returns an empty clause arena.
func NewArena() *Arena {
	return &Arena{nextSentinel: -1}
}

// ReserveSentinel reduces the arena's available reference range by one and
// returns a ClauseRef that can never alias a real clause. CP propagators
// use the returned value as the "reason" for literals they assign via the
// mediator.
func (a *Arena) ReserveSentinel() ClauseRef {
	r := a.nextSentinel
	a.nextSentinel--
	return r
}

// IsSentinel reports whether ref was returned by ReserveSentinel (as
// opposed to indexing a real clause).
func (a *Arena) IsSentinel(ref ClauseRef) bool {
	return ref < 0
}

// Alloc appends a new clause to the arena and returns its reference. The
// caller must not retain literals after passing it in; Alloc copies it.
func (a *Arena) Alloc(literals []Literal, learned bool) ClauseRef {
	lits := allocLiterals(len(literals))
	*lits = append(*lits, literals...)

	a.records = append(a.records, clauseRecord{
		literals: *lits,
		learned:  learned,
	})
	return ClauseRef(len(a.records) - 1)
}

// Clause returns a pointer to the backing record for ref. The pointer is
// invalidated by any later ReduceDB.Reduce call that deletes ref (callers
// must re-resolve the reference after a reduction pass).
func (a *Arena) Clause(ref ClauseRef) *clauseRecord {
	return &a.records[ref]
}

// Literals returns the (mutable) literal slice of the clause at ref.
func (a *Arena) Literals(ref ClauseRef) []Literal {
	return a.records[ref].literals
}

// BumpActivity increases the activity score of a learned clause, rescaling
// all learned-clause activities (and the increment itself) if it would
// otherwise overflow. Mirrors the teacher's BumpClaActivity.
func (a *Arena) BumpActivity(ref ClauseRef, inc *float64) {
	r := &a.records[ref]
	r.activity += *inc
	if r.activity > 1e100 {
		*inc *= 1e-100
		for i := range a.records {
			if a.records[i].learned {
				a.records[i].activity *= 1e-100
			}
		}
	}
}

// Free releases the literal backing slice of a deleted clause back to the
// allocator. It must only be called once per ref.
func (a *Arena) Free(ref ClauseRef) {
	r := &a.records[ref]
	r.deleted = true
	lits := r.literals
	r.literals = nil
	freeLiterals(&lits)
}
