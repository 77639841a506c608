package sat

import (
	"sort"
	"testing"
)

// TestAnalyze_FirstUIP reproduces spec.md §8 scenario S1: over 9 variables
// x0..x8, a chain of four decisions drives unit propagation into a
// conflict whose first-UIP learned clause is exactly {¬x3, x7, x8} with a
// backjump level of 3.
func TestAnalyze_FirstUIP(t *testing.T) {
	s := NewSolver(DefaultOptions)
	for i := 0; i < 9; i++ {
		s.AddVar()
	}

	s.AddClause([]Literal{PositiveLiteral(0), PositiveLiteral(1)})                          // (x0, x1)
	s.AddClause([]Literal{PositiveLiteral(0), PositiveLiteral(2), PositiveLiteral(6)})       // (x0, x2, x6)
	s.AddClause([]Literal{NegativeLiteral(1), NegativeLiteral(2), PositiveLiteral(3)})       // (¬x1, ¬x2, x3)
	s.AddClause([]Literal{NegativeLiteral(3), PositiveLiteral(4), PositiveLiteral(7)})       // (¬x3, x4, x7)
	s.AddClause([]Literal{NegativeLiteral(3), PositiveLiteral(5), PositiveLiteral(8)})       // (¬x3, x5, x8)
	s.AddClause([]Literal{NegativeLiteral(4), NegativeLiteral(5)})                           // (¬x4, ¬x5)

	if s.IsUnsat() {
		t.Fatalf("problem reported unsat while adding root clauses")
	}

	decisions := []Literal{
		NegativeLiteral(6),
		NegativeLiteral(7),
		NegativeLiteral(8),
		NegativeLiteral(0),
	}

	var confl ClauseRef
	for _, d := range decisions {
		s.Decide(d)
		confl = s.Propagate()
		if confl != InvalidRef {
			break
		}
	}

	if confl == InvalidRef {
		t.Fatalf("expected a conflict after enqueuing all four decisions, got none")
	}

	learnt, backtrackLevel := s.Analyzer.Analyze(confl)

	if got, want := backtrackLevel, 3; got != want {
		t.Errorf("backtrackLevel = %d, want %d", got, want)
	}

	got := literalSet(learnt)
	want := []string{"!3", "7", "8"}
	sort.Strings(got)
	sort.Strings(want)
	if !equalStrings(got, want) {
		t.Errorf("learnt clause (as a set) = %v, want %v", got, want)
	}
}

func literalSet(lits []Literal) []string {
	out := make([]string, len(lits))
	for i, l := range lits {
		out[i] = l.String()
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
