package dimacs

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/oskarlind/pumpkin/internal/cardinality"
	"github.com/oskarlind/pumpkin/internal/sat"
)

// WCNFResult is the weighted objective extracted from a WCNF file's soft
// clauses: minimise Σ Objective[i].Weight·Objective[i].Literal + Constant.
type WCNFResult struct {
	Objective []cardinality.WeightedLiteral
	Constant  uint64
}

type softClause struct {
	weight   uint64
	literals []sat.Literal
}

// LoadWCNF parses filename as a pre-2022 DIMACS WCNF file (a `p wcnf N M W`
// header, where W is the "top" weight) and adds solver's N variables and
// every hard clause (the ones prefixed by W). It returns the weighted
// objective built from the soft clauses (the ones prefixed by a weight
// w < W), following the four-way case split described in SPEC_FULL.md's
// SUPPLEMENTED FEATURES section, grounded on
// original_source/Homework_6/src/engine/pumpkin.rs's soft-clause
// preprocessing: a soft clause already satisfied at the root is dropped, one
// already falsified at the root adds its weight as a constant cost, a unit
// soft clause uses its single literal's negation directly as the weighted
// objective literal (no selector needed), and every other soft clause gets
// a fresh selector variable appended to the clause.
//
// This format is not expressible through github.com/rhartert/dimacs's
// Builder (its Problem callback carries no slot for the fourth header
// field), so this function parses it directly with the same bufio-scanning
// idiom the teacher's own internal/dimacs/dimacs.go uses for plain CNF.
func LoadWCNF(filename string, gzipped bool, solver *sat.Solver) (WCNFResult, error) {
	r, err := open(filename, gzipped)
	if err != nil {
		return WCNFResult{}, fmt.Errorf("dimacs: %w", err)
	}
	defer r.Close()

	softs, err := loadWCNFClauses(r, solver)
	if err != nil {
		return WCNFResult{}, fmt.Errorf("dimacs: %w", err)
	}

	// Propagate the hard clauses to a fixpoint at the root before
	// classifying soft clauses against the current assignment. If the
	// hard clauses are already contradictory, the engine's first solve
	// call discovers that independently (spec.md §4.6 step 4a); this
	// loader only needs Value() to be as informed as possible.
	solver.Propagate()

	return foldSoftClauses(solver, softs), nil
}

func loadWCNFClauses(r io.Reader, solver *sat.Solver) ([]softClause, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	nVars, nClauses, top, err := readWCNFHeader(scanner)
	if err != nil {
		return nil, err
	}
	for i := 0; i < nVars; i++ {
		solver.AddVar()
	}

	softs := make([]softClause, 0)
	for remaining := nClauses; remaining > 0 && scanner.Scan(); {
		line := scanner.Text()
		if line == "" || line[0] == 'c' {
			continue
		}
		parts := strings.Fields(line)
		weight, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("could not parse clause weight %q: %w", parts[0], err)
		}

		lits := make([]sat.Literal, 0, len(parts)-2)
		for _, p := range parts[1:] {
			l, err := strconv.Atoi(p)
			if err != nil {
				return nil, fmt.Errorf("could not parse literal %q: %w", p, err)
			}
			switch {
			case l < 0:
				lits = append(lits, sat.NegativeLiteral(-l-1))
			case l > 0:
				lits = append(lits, sat.PositiveLiteral(l-1))
			default:
				// clause terminator
			}
		}

		if weight == top {
			solver.AddClause(lits)
		} else {
			softs = append(softs, softClause{weight: weight, literals: lits})
		}
		remaining--
	}

	return softs, nil
}

func readWCNFHeader(scanner *bufio.Scanner) (nVars, nClauses int, top uint64, err error) {
	for {
		if !scanner.Scan() {
			return 0, 0, 0, fmt.Errorf("header line not found")
		}
		line := scanner.Text()
		if line == "" || line[0] == 'c' {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 5 || parts[1] != "wcnf" {
			return 0, 0, 0, fmt.Errorf("not a wcnf header: %q", line)
		}
		nVars, err = strconv.Atoi(parts[2])
		if err != nil {
			return 0, 0, 0, fmt.Errorf("could not parse header: %w", err)
		}
		nClauses, err = strconv.Atoi(parts[3])
		if err != nil {
			return 0, 0, 0, fmt.Errorf("could not parse header: %w", err)
		}
		top, err = strconv.ParseUint(parts[4], 10, 64)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("could not parse top weight: %w", err)
		}
		return nVars, nClauses, top, nil
	}
}

// foldSoftClauses classifies each soft clause against the solver's current
// root assignment and builds the resulting objective.
func foldSoftClauses(solver *sat.Solver, softs []softClause) WCNFResult {
	result := WCNFResult{Objective: make([]cardinality.WeightedLiteral, 0, len(softs))}

	for _, sc := range softs {
		switch {
		case clauseSatisfied(solver, sc.literals):
			// Already true: no cost, nothing to encode.
		case clauseFalsified(solver, sc.literals):
			result.Constant += sc.weight
		case len(sc.literals) == 1:
			result.Objective = append(result.Objective, cardinality.WeightedLiteral{
				Literal: sc.literals[0].Opposite(),
				Weight:  sc.weight,
			})
		default:
			selector := solver.AddVar()
			clause := append(append([]sat.Literal(nil), sc.literals...), sat.PositiveLiteral(selector))
			solver.AddClause(clause)
			result.Objective = append(result.Objective, cardinality.WeightedLiteral{
				Literal: sat.PositiveLiteral(selector),
				Weight:  sc.weight,
			})
		}
	}

	return result
}

func clauseSatisfied(solver *sat.Solver, literals []sat.Literal) bool {
	for _, l := range literals {
		if solver.Value(l) == sat.True {
			return true
		}
	}
	return false
}

func clauseFalsified(solver *sat.Solver, literals []sat.Literal) bool {
	for _, l := range literals {
		if solver.Value(l) != sat.False {
			return false
		}
	}
	return true
}
