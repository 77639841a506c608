package cardinality

import (
	"sort"

	"github.com/oskarlind/pumpkin/internal/sat"
)

// WeightedLiteral pairs a literal with the weight it contributes to an
// objective function when true.
type WeightedLiteral struct {
	Literal sat.Literal
	Weight  uint64
}

// GeneralisedTotaliser encodes Σ w_i·x_i ≤ k as a bottom-up binary merge
// tree: every node holds a set of weighted literals {(v, L_v)} meaning
// "the sum of selected weights below this node is at least v". The tree
// is built once, at the loosest k, and later calls to ConstrainAtMostK
// only add unit clauses against the root node's literals.
type GeneralisedTotaliser struct {
	solver *sat.Solver

	initial       []WeightedLiteral
	constant      uint64
	internalK     uint64
	rootFixedCost uint64

	// layers holds every level of the merge tree, leaves first; it stays
	// empty until the first non-trivial encoding is built (see
	// encodeAtMostK's trivially-satisfied early-out, mirroring the
	// upstream encoder's own has_encoding() check).
	layers [][][]WeightedLiteral
}

// NewGeneralisedTotaliser prepares an encoder for Σ literals + constant
// ≤ k. No clauses are added until the first call to ConstrainAtMostK.
func NewGeneralisedTotaliser(solver *sat.Solver, literals []WeightedLiteral, constant uint64) *GeneralisedTotaliser {
	return &GeneralisedTotaliser{solver: solver, initial: literals, constant: constant}
}

func (g *GeneralisedTotaliser) hasEncoding() bool { return len(g.layers) > 0 }

// ConstrainAtMostK encodes Σ w_i·x_i ≤ k. The first call builds the
// merge tree (or detects the constraint is already trivially satisfied,
// or already violated at the root); every later call strengthens the
// already-built tree with unit clauses only and must pass a smaller k.
func (g *GeneralisedTotaliser) ConstrainAtMostK(k uint64) Status {
	if g.hasEncoding() {
		return g.decreaseK(k)
	}
	return g.encodeAtMostK(k)
}

// initialise folds every currently-true input literal's weight into the
// fixed cost, rejects outright if that alone exceeds k, forces every
// unassigned literal whose weight alone exceeds the residual budget to
// false, and returns the remaining (still unassigned, still relevant)
// weighted literals.
func (g *GeneralisedTotaliser) initialise(k uint64) (terms []WeightedLiteral, ok bool) {
	var trueCost uint64
	for _, wl := range g.initial {
		if g.solver.Value(wl.Literal) == sat.True {
			trueCost += wl.Weight
		}
	}
	g.rootFixedCost = g.constant + trueCost
	if g.rootFixedCost > k {
		return nil, false
	}
	g.internalK = k - g.rootFixedCost

	terms = make([]WeightedLiteral, 0, len(g.initial))
	for _, wl := range g.initial {
		if g.solver.Value(wl.Literal) != sat.Unknown {
			continue
		}
		if wl.Weight > g.internalK {
			g.solver.AddClause([]sat.Literal{wl.Literal.Opposite()})
			if g.solver.IsUnsat() {
				return nil, false
			}
			continue
		}
		terms = append(terms, wl)
	}
	return terms, true
}

func (g *GeneralisedTotaliser) encodeAtMostK(k uint64) Status {
	terms, ok := g.initialise(k)
	if !ok {
		return ConflictDetected
	}

	var sum uint64
	for _, wl := range terms {
		sum += wl.Weight
	}
	if sum <= g.internalK {
		// Every term could be true at once without exceeding k: no tree
		// is needed. hasEncoding() stays false, so a later, tighter call
		// re-runs this same check from scratch.
		return NoConflict
	}

	sort.Slice(terms, func(i, j int) bool { return terms[i].Weight < terms[j].Weight })
	g.buildTree(terms)
	return NoConflict
}

func (g *GeneralisedTotaliser) buildTree(terms []WeightedLiteral) {
	layer := make([][]WeightedLiteral, len(terms))
	for i, wl := range terms {
		layer[i] = []WeightedLiteral{wl}
	}
	g.layers = [][][]WeightedLiteral{layer}

	for len(layer) > 1 {
		next := make([][]WeightedLiteral, 0, (len(layer)+1)/2)
		for i := 0; i+1 < len(layer); i += 2 {
			next = append(next, g.mergeNodes(layer[i], layer[i+1]))
		}
		if len(layer)%2 == 1 {
			next = append(next, layer[len(layer)-1])
		}
		g.layers = append(g.layers, next)
		layer = next
	}
}

// mergeNodes combines two sibling nodes into their parent: every
// achievable partial sum not exceeding internalK gets a fresh literal,
// linked to its contributing child literals by implication, with every
// combination that would exceed internalK explicitly forbidden.
func (g *GeneralisedTotaliser) mergeNodes(a, b []WeightedLiteral) []WeightedLiteral {
	sums := map[uint64]bool{}
	for _, wa := range a {
		sums[wa.Weight] = true
	}
	for _, wb := range b {
		sums[wb.Weight] = true
	}
	for _, wa := range a {
		for _, wb := range b {
			if c := wa.Weight + wb.Weight; c <= g.internalK {
				sums[c] = true
			}
		}
	}

	values := make([]uint64, 0, len(sums))
	for v := range sums {
		values = append(values, v)
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	litFor := make(map[uint64]sat.Literal, len(values))
	node := make([]WeightedLiteral, 0, len(values))
	for _, v := range values {
		lit := sat.PositiveLiteral(g.solver.AddVar())
		litFor[v] = lit
		node = append(node, WeightedLiteral{Literal: lit, Weight: v})
	}

	for _, wa := range a {
		// L_A,a -> L_C,a
		g.solver.AddClause([]sat.Literal{wa.Literal.Opposite(), litFor[wa.Weight]})
	}
	for _, wb := range b {
		// L_B,b -> L_C,b
		g.solver.AddClause([]sat.Literal{wb.Literal.Opposite(), litFor[wb.Weight]})
	}
	for _, wa := range a {
		for _, wb := range b {
			c := wa.Weight + wb.Weight
			if c <= g.internalK {
				// L_A,a ∧ L_B,b -> L_C,a+b
				g.solver.AddClause([]sat.Literal{wa.Literal.Opposite(), wb.Literal.Opposite(), litFor[c]})
			} else {
				// forbid the combination outright
				g.solver.AddClause([]sat.Literal{wa.Literal.Opposite(), wb.Literal.Opposite()})
			}
		}
	}

	return node
}

// decreaseK strengthens an already-built tree: every root literal whose
// weight exceeds the new, smaller internalK is forced false, scanning
// from the heaviest down and stopping at the first one that still fits
// (root literals are sorted by weight, so every lighter one still fits
// too).
func (g *GeneralisedTotaliser) decreaseK(newK uint64) Status {
	if newK < g.rootFixedCost {
		return ConflictDetected
	}
	g.internalK = newK - g.rootFixedCost

	root := g.layers[len(g.layers)-1]
	if len(root) == 0 {
		return NoConflict
	}
	literals := root[0]
	for i := len(literals) - 1; i >= 0; i-- {
		if literals[i].Weight <= g.internalK {
			break
		}
		g.solver.AddClause([]sat.Literal{literals[i].Literal.Opposite()})
		if g.solver.IsUnsat() {
			return ConflictDetected
		}
	}
	return NoConflict
}
