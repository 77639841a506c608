package sat

import "fmt"

// Literal represents a propositional literal: a variable together with a
// polarity bit. Literals double as the encoding handles the SAT-CP mediator
// allocates for integer predicates (see the cp package), so a literal may
// either be a genuine problem variable or the Boolean twin of a predicate
// such as [x <= v].
type Literal int

// PositiveLiteral returns the positive literal of variable v.
func PositiveLiteral(v int) Literal {
	return Literal(v * 2)
}

// NegativeLiteral returns the negative literal of variable v.
func NegativeLiteral(v int) Literal {
	return Literal(v*2 + 1)
}

// VarID returns the ID of the literal's variable.
func (l Literal) VarID() int {
	return int(l) / 2
}

// IsPositive returns true if and only if the literal represent the value of
// its boolean variable (i.e. not its negation)
func (l Literal) IsPositive() bool {
	return l&1 == 0
}

// Opposite returns the opposite literal.
func (l Literal) Opposite() Literal {
	return l ^ 1
}

// Sign returns 1 for a positive literal and -1 for a negative one.
func (l Literal) Sign() int {
	if l.IsPositive() {
		return 1
	}
	return -1
}

func (l Literal) String() string {
	if l.IsPositive() {
		return fmt.Sprintf("%d", l.VarID())
	}
	return fmt.Sprintf("!%d", l.VarID())
}
