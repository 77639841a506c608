// Package dimacs reads DIMACS CNF and (pre-2022) WCNF problem files and
// loads them into a sat.Solver. Concrete file formats are deliberately kept
// out of the solver core (spec.md §1 treats parsers as external
// collaborators); this package is the only place that knows them.
package dimacs

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"

	dimacsio "github.com/rhartert/dimacs"

	"github.com/oskarlind/pumpkin/internal/sat"
)

func open(filename string, gzipped bool) (io.ReadCloser, error) {
	if filename == "" {
		return nil, fmt.Errorf("dimacs: empty file location")
	}
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	rc := io.ReadCloser(file)
	if gzipped {
		rc, err = gzip.NewReader(rc)
		if err != nil {
			file.Close()
			return nil, err
		}
	}
	return rc, nil
}

// LoadCNF parses filename as a DIMACS CNF file (a `p cnf N M` header
// followed by M zero-terminated clauses) and adds its variables and
// clauses to solver. Variable indices run 1..=N; index 0 is illegal and
// rejected by the underlying dimacs.ReadBuilder call.
func LoadCNF(filename string, gzipped bool, solver *sat.Solver) error {
	r, err := open(filename, gzipped)
	if err != nil {
		return fmt.Errorf("dimacs: %w", err)
	}
	defer r.Close()

	b := &cnfBuilder{solver: solver}
	if err := dimacsio.ReadBuilder(r, b); err != nil {
		return fmt.Errorf("dimacs: %w", err)
	}
	return nil
}

// cnfBuilder adapts a sat.Solver to dimacs.Builder.
type cnfBuilder struct {
	solver *sat.Solver
}

func (b *cnfBuilder) Problem(problem string, nVars int, nClauses int) error {
	if problem != "cnf" {
		return fmt.Errorf("instance of type %q is not supported by LoadCNF", problem)
	}
	for i := 0; i < nVars; i++ {
		b.solver.AddVar()
	}
	return nil
}

func (b *cnfBuilder) Clause(tmpClause []int) error {
	b.solver.AddClause(toLiterals(tmpClause))
	return nil
}

func (b *cnfBuilder) Comment(_ string) error { return nil }

func toLiterals(tmpClause []int) []sat.Literal {
	lits := make([]sat.Literal, len(tmpClause))
	for i, l := range tmpClause {
		if l < 0 {
			lits[i] = sat.NegativeLiteral(-l - 1)
		} else {
			lits[i] = sat.PositiveLiteral(l - 1)
		}
	}
	return lits
}
