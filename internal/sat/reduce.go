package sat

import "sort"

// ReduceStrategy selects how learned clauses are ranked for deletion when
// the clause database grows past its threshold.
type ReduceStrategy int

const (
	// ReduceByLBD keeps clauses with a low literal block distance,
	// discarding those believed to generalize poorly.
	ReduceByLBD ReduceStrategy = iota
	// ReduceByActivity keeps clauses that have recently participated in
	// conflict analysis, MiniSat-style.
	ReduceByActivity
)

// ParseReduceStrategy maps the CLI's learned-clause-sorting-strategy flag
// value to a ReduceStrategy.
func ParseReduceStrategy(s string) (ReduceStrategy, bool) {
	switch s {
	case "lbd":
		return ReduceByLBD, true
	case "activity":
		return ReduceByActivity, true
	default:
		return 0, false
	}
}

// ReduceDB is the learned-clause database manager: it halves the learned
// set on each call, always keeping the better-ranked half plus any clause
// currently locked as a trail reason.
type ReduceDB struct {
	propagator *Propagator
	arena      *Arena
	strategy   ReduceStrategy

	learnts []ClauseRef
}

// NewReduceDB returns a reduction manager using the given strategy.
func NewReduceDB(propagator *Propagator, arena *Arena, strategy ReduceStrategy) *ReduceDB {
	return &ReduceDB{propagator: propagator, arena: arena, strategy: strategy}
}

// Track registers a freshly learned clause as eligible for future
// reduction.
func (r *ReduceDB) Track(ref ClauseRef) {
	r.learnts = append(r.learnts, ref)
}

// Count returns the number of learned clauses currently tracked.
func (r *ReduceDB) Count() int { return len(r.learnts) }

// Reduce deletes the worse half of the tracked learned clauses, per the
// configured strategy. Protected and locked clauses always survive.
func (r *ReduceDB) Reduce() {
	switch r.strategy {
	case ReduceByLBD:
		sort.Slice(r.learnts, func(i, j int) bool {
			return r.arena.Clause(r.learnts[i]).lbd > r.arena.Clause(r.learnts[j]).lbd
		})
	default:
		sort.Slice(r.learnts, func(i, j int) bool {
			return r.arena.Clause(r.learnts[i]).activity < r.arena.Clause(r.learnts[j]).activity
		})
	}

	j := 0
	half := len(r.learnts) / 2
	for i := 0; i < half; i++ {
		ref := r.learnts[i]
		c := r.arena.Clause(ref)
		if c.protected || r.propagator.locked(ref) {
			r.learnts[j] = ref
			j++
			continue
		}
		r.propagator.RemoveClause(ref)
	}
	for i := half; i < len(r.learnts); i++ {
		r.learnts[j] = r.learnts[i]
		j++
	}
	r.learnts = r.learnts[:j]
}
