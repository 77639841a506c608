// Package cp implements the constraint-programming layer over
// finite-domain integer variables: the integer trail, the propagator
// scheduler, and the bounds-consistent linear-inequality propagator.
package cp

// IntVar is a dense non-negative integer identifier for an integer
// variable, analogous to sat.Literal's variable half.
type IntVar int

// Domain is the current interval [Lower, Upper] of an integer variable.
// Holes (excluded interior values) are not modelled as a separate set
// here: the linear-inequality propagator only ever needs bound reasoning,
// so the hole-change notification exists to satisfy the propagator
// interface but the domain manager never fires it.
type Domain struct {
	Lower int
	Upper int
}

func (d Domain) IsFixed() bool { return d.Lower == d.Upper }

func (d Domain) Contains(v int) bool { return d.Lower <= v && v <= d.Upper }

// Assignments owns the current domain of every integer variable. It is
// the Go analogue of the Rust AssignmentsInteger: a flat store the
// DomainManager façade reads and writes through.
type Assignments struct {
	domains []Domain
}

// NewAssignments returns an empty integer-variable store.
func NewAssignments() *Assignments {
	return &Assignments{}
}

// Grow creates a new integer variable with the given initial bounds and
// returns its identifier.
func (a *Assignments) Grow(lower, upper int) IntVar {
	a.domains = append(a.domains, Domain{Lower: lower, Upper: upper})
	return IntVar(len(a.domains) - 1)
}

func (a *Assignments) NumVariables() int { return len(a.domains) }

func (a *Assignments) LowerBound(v IntVar) int { return a.domains[v].Lower }

func (a *Assignments) UpperBound(v IntVar) int { return a.domains[v].Upper }

func (a *Assignments) Domain(v IntVar) Domain { return a.domains[v] }

func (a *Assignments) IsFixed(v IntVar) bool { return a.domains[v].IsFixed() }
