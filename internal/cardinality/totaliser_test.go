package cardinality

import (
	"testing"

	"github.com/oskarlind/pumpkin/internal/sat"
)

func newVars(s *sat.Solver, n int) []sat.Literal {
	lits := make([]sat.Literal, n)
	for i := 0; i < n; i++ {
		lits[i] = sat.PositiveLiteral(s.AddVar())
	}
	return lits
}

// fixTrue asserts lit as a root-level fact (a unit clause) and propagates
// it to a fixpoint, returning whether the solver stayed consistent.
func fixTrue(s *sat.Solver, lit sat.Literal) bool {
	s.AddClause([]sat.Literal{lit})
	if s.IsUnsat() {
		return false
	}
	s.Propagate()
	return !s.IsUnsat()
}

// TestTotaliser_AtMostK reproduces spec.md §8 scenario S2: encoding
// at-most-k over n literals, fixing exactly k of them true must leave the
// solver consistent and propagate the rest false; fixing a (k+1)-th
// literal true must raise a root-level conflict.
func TestTotaliser_AtMostK(t *testing.T) {
	const n, k = 6, 3

	s := sat.NewSolver(sat.DefaultOptions)
	lits := newVars(s, n)
	tot := NewTotaliser(s, lits)

	if got := tot.ConstrainAtMostK(k); got != NoConflict {
		t.Fatalf("ConstrainAtMostK(%d) = %v, want NoConflict", k, got)
	}

	for i := 0; i < k; i++ {
		if ok := fixTrue(s, lits[i]); !ok {
			t.Fatalf("fixing literal %d true (only %d of %d) produced a conflict", i, i+1, k)
		}
	}

	for i := k; i < n; i++ {
		if got := s.Value(lits[i]); got != sat.False {
			t.Errorf("lits[%d] = %s, want false (forced by at-most-%d with %d already true)", i, got, k, k)
		}
	}

	if ok := fixTrue(s, lits[k]); ok {
		t.Errorf("fixing a (k+1)-th literal true succeeded, want a root-level conflict")
	}
}

// TestTotaliser_IncrementalStrengthening reproduces spec.md §8 scenario S3:
// after encoding at-most-k1 and fixing k2 < k1 literals true, successively
// strengthening down to k2 stays conflict-free, and strengthening one step
// further (to k2-1) is rejected.
func TestTotaliser_IncrementalStrengthening(t *testing.T) {
	const n, k1, k2 = 10, 6, 2

	s := sat.NewSolver(sat.DefaultOptions)
	lits := newVars(s, n)
	tot := NewTotaliser(s, lits)

	if got := tot.ConstrainAtMostK(k1); got != NoConflict {
		t.Fatalf("ConstrainAtMostK(%d) = %v, want NoConflict", k1, got)
	}

	for i := 0; i < k2; i++ {
		if ok := fixTrue(s, lits[i]); !ok {
			t.Fatalf("fixing literal %d true produced a conflict", i)
		}
	}

	for newK := k1 - 1; newK >= k2; newK-- {
		if got := tot.ConstrainAtMostK(newK); got != NoConflict {
			t.Fatalf("ConstrainAtMostK(%d) = %v, want NoConflict", newK, got)
		}
	}

	if got := tot.ConstrainAtMostK(k2 - 1); got != ConflictDetected {
		t.Errorf("ConstrainAtMostK(%d) = %v, want ConflictDetected", k2-1, got)
	}
}
