package cardinality

import "github.com/oskarlind/pumpkin/internal/sat"

// Totaliser incrementally encodes "at most k of these literals are
// true" as a balanced binary merge tree: every node holds an ordered
// sequence of auxiliary literals s[1..bound] with the meaning "at least
// i of the leaves under this node are true". The tree is built once, at
// the loosest bound, and later calls to ConstrainAtMostK only add unit
// clauses against the already-built literals.
type Totaliser struct {
	solver *sat.Solver
	root   *totaliserNode
	k      int
}

type totaliserNode struct {
	left, right *totaliserNode
	s           []sat.Literal // index 0 unused; -1 means "not yet allocated"
	bound       int
}

// NewTotaliser builds the merge tree over literals, with no constraint
// installed yet (k is initialised to len(literals), i.e. vacuous).
func NewTotaliser(solver *sat.Solver, literals []sat.Literal) *Totaliser {
	return &Totaliser{solver: solver, root: buildTotaliserTree(literals), k: len(literals)}
}

func buildTotaliserTree(literals []sat.Literal) *totaliserNode {
	if len(literals) == 1 {
		return &totaliserNode{s: []sat.Literal{-1, literals[0]}, bound: 1}
	}

	mid := len(literals) / 2
	left := buildTotaliserTree(literals[:mid])
	right := buildTotaliserTree(literals[mid:])

	bound := left.bound + right.bound
	s := make([]sat.Literal, bound+1)
	for i := range s {
		s[i] = -1
	}
	return &totaliserNode{left: left, right: right, bound: bound, s: s}
}

// ConstrainAtMostK encodes Σ literals ≤ k into the solver's clause set,
// reusing whatever part of the tree earlier calls already built. Calling
// it with a k larger than any previous call is undefined behaviour: the
// tree is sized against the loosest k seen so far.
func (t *Totaliser) ConstrainAtMostK(k int) Status {
	if k > t.k {
		panic("cardinality: Totaliser.ConstrainAtMostK called with an increasing k")
	}
	updateTotaliserClauses(t.root, k, t.solver)
	t.k = k
	if t.solver.IsUnsat() {
		return ConflictDetected
	}
	return NoConflict
}

func updateTotaliserClauses(n *totaliserNode, k int, solver *sat.Solver) {
	if n.bound != 1 && n.s[1] != -1 {
		// Built by an earlier call at a looser k: only the new cutoff
		// units are added.
		updateTotaliserClauses(n.left, k, solver)
		updateTotaliserClauses(n.right, k, solver)
		if k+1 < len(n.s) {
			solver.AddClause([]sat.Literal{n.s[k+1].Opposite()})
		}
		return
	}

	if n.bound != 1 {
		left, right := n.left, n.right
		updateTotaliserClauses(left, k, solver)
		updateTotaliserClauses(right, k, solver)

		for i := 1; i <= min(n.bound, 2*k); i++ {
			if n.s[i] == -1 {
				n.s[i] = sat.PositiveLiteral(solver.AddVar())
			}
			if i > 1 {
				// s[i] -> s[i-1]: monotonicity of the partial-sum bits.
				solver.AddClause([]sat.Literal{n.s[i].Opposite(), n.s[i-1]})
			}
		}

		leftLimit, rightLimit := min(left.bound, k), min(right.bound, k)
		for i := 0; i <= leftLimit; i++ {
			for j := 0; j <= rightLimit; j++ {
				if i+j == 0 {
					continue
				}
				clause := make([]sat.Literal, 0, 3)
				if i != 0 {
					clause = append(clause, left.s[i].Opposite())
				}
				if j != 0 {
					clause = append(clause, right.s[j].Opposite())
				}
				clause = append(clause, n.s[i+j])
				solver.AddClause(clause)
			}
		}
	}

	if k+1 < len(n.s) {
		solver.AddClause([]sat.Literal{n.s[k+1].Opposite()})
	}
}
