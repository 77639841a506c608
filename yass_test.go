package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/oskarlind/pumpkin/internal/dimacs"
	"github.com/oskarlind/pumpkin/internal/engine"
	"github.com/oskarlind/pumpkin/internal/optimize"
	"github.com/oskarlind/pumpkin/internal/sat"
)

// This suite evaluates the combined CDCL+CP driver end to end: it loads a
// small self-contained instance, runs the real engine and optimisation
// driver against it, and checks the result either by directly verifying
// every clause against the returned model or, for the optimisation case,
// against a brute-force enumeration of every assignment.

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("could not write %s: %s", path, err)
	}
	return path
}

// clauseSatisfied reports whether lits contains at least one literal that
// is true under model.
func clauseSatisfied(model []bool, lits []sat.Literal) bool {
	for _, l := range lits {
		if model[l.VarID()] == l.IsPositive() {
			return true
		}
	}
	return false
}

func TestSolveCNF(t *testing.T) {
	tests := []struct {
		name    string
		cnf     string
		wantSAT bool
		clauses [][]sat.Literal
	}{
		{
			name: "satisfiable pigeonhole-free instance",
			cnf: "" +
				"p cnf 4 4\n" +
				"1 2 0\n" +
				"-1 3 0\n" +
				"-3 4 0\n" +
				"-2 -4 0\n",
			wantSAT: true,
			clauses: [][]sat.Literal{
				{sat.PositiveLiteral(0), sat.PositiveLiteral(1)},
				{sat.NegativeLiteral(0), sat.PositiveLiteral(2)},
				{sat.NegativeLiteral(2), sat.PositiveLiteral(3)},
				{sat.NegativeLiteral(1), sat.NegativeLiteral(3)},
			},
		},
		{
			name: "unsatisfiable binary instance",
			cnf: "" +
				"p cnf 2 4\n" +
				"1 2 0\n" +
				"1 -2 0\n" +
				"-1 2 0\n" +
				"-1 -2 0\n",
			wantSAT: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeTempFile(t, "instance.cnf", tc.cnf)

			s := sat.NewSolver(sat.DefaultOptions)
			if err := dimacs.LoadCNF(path, false, s); err != nil {
				t.Fatalf("LoadCNF(): %s", err)
			}

			got := s.Solve()
			if tc.wantSAT && got != sat.True {
				t.Fatalf("Solve() = %s, want true", got)
			}
			if !tc.wantSAT && got != sat.False {
				t.Fatalf("Solve() = %s, want false", got)
			}
			if !tc.wantSAT {
				return
			}

			model := s.Model
			for i, c := range tc.clauses {
				if !clauseSatisfied(model, c) {
					t.Errorf("clause %d not satisfied by model %v", i, model)
				}
			}
		})
	}
}

// bruteForceMinCost enumerates every assignment of n boolean variables and
// returns the minimum cost among those satisfying every hard clause, where
// the cost of an assignment is the sum of the weights of every soft clause
// it falsifies.
func bruteForceMinCost(n int, hard [][]sat.Literal, soft []struct {
	weight uint64
	lits   []sat.Literal
}) (uint64, bool) {
	best := uint64(0)
	found := false
	for bits := 0; bits < 1<<n; bits++ {
		model := make([]bool, n)
		for i := 0; i < n; i++ {
			model[i] = bits&(1<<i) != 0
		}

		feasible := true
		for _, c := range hard {
			if !clauseSatisfied(model, c) {
				feasible = false
				break
			}
		}
		if !feasible {
			continue
		}

		var cost uint64
		for _, sc := range soft {
			if !clauseSatisfied(model, sc.lits) {
				cost += sc.weight
			}
		}

		if !found || cost < best {
			best = cost
			found = true
		}
	}
	return best, found
}

// TestOptimizeWCNF reproduces spec.md §8 scenario S6: the linear-search
// driver's reported optimum must match a brute-force enumeration of the
// same small instance.
func TestOptimizeWCNF(t *testing.T) {
	// Variables x1, x2 cannot both be true (hard). Leaving x1 false costs
	// 5; leaving x2 false costs 3. The brute-force optimum trades x2's
	// smaller cost away, landing on x1=true, x2=false.
	path := writeTempFile(t, "instance.wcnf", ""+
		"p wcnf 2 3 100\n"+
		"100 -1 -2 0\n"+
		"5 1 0\n"+
		"3 2 0\n")

	eng := engine.New(sat.DefaultOptions)
	result, err := dimacs.LoadWCNF(path, false, eng.Solver)
	if err != nil {
		t.Fatalf("LoadWCNF(): %s", err)
	}

	got := optimize.Solve(eng, result.Objective, result.Constant, 4000, -1)
	if got.Outcome != optimize.Optimal {
		t.Fatalf("Solve() outcome = %v, want Optimal", got.Outcome)
	}

	hard := [][]sat.Literal{
		{sat.NegativeLiteral(0), sat.NegativeLiteral(1)},
	}
	soft := []struct {
		weight uint64
		lits   []sat.Literal
	}{
		{weight: 5, lits: []sat.Literal{sat.PositiveLiteral(0)}},
		{weight: 3, lits: []sat.Literal{sat.PositiveLiteral(1)}},
	}

	want, ok := bruteForceMinCost(2, hard, soft)
	if !ok {
		t.Fatalf("brute force found no feasible assignment")
	}
	if got.Value != want {
		t.Errorf("Solve() value = %d, want %d (brute force)", got.Value, want)
	}
	if !clauseSatisfied(got.Model, hard[0]) {
		t.Errorf("returned model %v violates the hard clause", got.Model)
	}
}

func TestOptimizeWCNF_infeasible(t *testing.T) {
	path := writeTempFile(t, "instance.wcnf", ""+
		"p wcnf 1 3 100\n"+
		"100 1 0\n"+
		"100 -1 0\n"+
		"1 1 0\n")

	eng := engine.New(sat.DefaultOptions)
	result, err := dimacs.LoadWCNF(path, false, eng.Solver)
	if err != nil {
		t.Fatalf("LoadWCNF(): %s", err)
	}

	got := optimize.Solve(eng, result.Objective, result.Constant, 4000, -1)
	if got.Outcome != optimize.Infeasible {
		t.Errorf("Solve() outcome = %v, want Infeasible", got.Outcome)
	}
}
