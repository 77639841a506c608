package dimacs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/oskarlind/pumpkin/internal/sat"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("could not write %s: %s", path, err)
	}
	return path
}

func TestLoadCNF(t *testing.T) {
	path := writeTemp(t, "test.cnf", ""+
		"c a trivial instance\n"+
		"p cnf 3 2\n"+
		"1 2 0\n"+
		"-1 -2 3 0\n")

	s := sat.NewSolver(sat.DefaultOptions)
	if err := LoadCNF(path, false, s); err != nil {
		t.Fatalf("LoadCNF(): want no error, got %s", err)
	}
	if got, want := s.NumVariables(), 3; got != want {
		t.Errorf("NumVariables() = %d, want %d", got, want)
	}
	if got := s.Solve(); got != sat.True {
		t.Errorf("Solve() = %s, want true", got)
	}
}

func TestLoadCNF_noFile(t *testing.T) {
	s := sat.NewSolver(sat.DefaultOptions)
	if err := LoadCNF("", false, s); err == nil {
		t.Errorf("LoadCNF(): want error, got none")
	}
}

func TestLoadCNF_unsat(t *testing.T) {
	path := writeTemp(t, "test.cnf", "p cnf 1 2\n1 0\n-1 0\n")

	s := sat.NewSolver(sat.DefaultOptions)
	if err := LoadCNF(path, false, s); err != nil {
		t.Fatalf("LoadCNF(): want no error, got %s", err)
	}
	if got := s.Solve(); got != sat.False {
		t.Errorf("Solve() = %s, want false", got)
	}
}

func TestLoadWCNF(t *testing.T) {
	// Variable 1 is hard-forced true. Three unit soft clauses are left
	// unresolved at the root (they all mention x2/x3, neither fixed by the
	// hard clause), so each becomes a weighted objective literal (the
	// clause literal's negation) rather than a constant or a selector.
	path := writeTemp(t, "test.wcnf", ""+
		"p wcnf 3 4 100\n"+
		"100 1 0\n"+ // hard: x1
		"1 2 0\n"+ // soft: prefer x2 true, weight 1
		"2 -2 0\n"+ // soft: prefer x2 false, weight 2
		"5 3 0\n") // soft: prefer x3 true, weight 5

	s := sat.NewSolver(sat.DefaultOptions)
	result, err := LoadWCNF(path, false, s)
	if err != nil {
		t.Fatalf("LoadWCNF(): want no error, got %s", err)
	}

	if got, want := s.NumVariables(), 3; got != want {
		t.Errorf("NumVariables() = %d, want %d", got, want)
	}
	if got, want := len(result.Objective), 3; got != want {
		t.Fatalf("len(Objective) = %d, want %d", got, want)
	}
	if got, want := result.Constant, uint64(0); got != want {
		t.Errorf("Constant = %d, want %d", got, want)
	}

	var total uint64
	for _, wl := range result.Objective {
		total += wl.Weight
	}
	if got, want := total, uint64(1+2+5); got != want {
		t.Errorf("sum of objective weights = %d, want %d", got, want)
	}
}

func TestLoadWCNF_rootResolvedSoftClauses(t *testing.T) {
	// Variable 1 is hard-forced true, so the unit soft clause (1) is
	// already satisfied at the root (dropped, no cost) and the unit soft
	// clause (-1) is already falsified at the root (folded into the
	// constant).
	path := writeTemp(t, "test.wcnf", ""+
		"p wcnf 1 3 100\n"+
		"100 1 0\n"+
		"7 1 0\n"+
		"3 -1 0\n")

	s := sat.NewSolver(sat.DefaultOptions)
	result, err := LoadWCNF(path, false, s)
	if err != nil {
		t.Fatalf("LoadWCNF(): want no error, got %s", err)
	}
	if got, want := len(result.Objective), 0; got != want {
		t.Errorf("len(Objective) = %d, want %d", got, want)
	}
	if got, want := result.Constant, uint64(3); got != want {
		t.Errorf("Constant = %d, want %d", got, want)
	}
}

func TestLoadWCNF_noFile(t *testing.T) {
	s := sat.NewSolver(sat.DefaultOptions)
	if _, err := LoadWCNF("", false, s); err == nil {
		t.Errorf("LoadWCNF(): want error, got none")
	}
}
