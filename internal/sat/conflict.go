package sat

// ConflictAnalyzer implements first-UIP conflict analysis: starting from
// a conflicting clause, it walks the trail backwards strictly along each
// falsified literal's reason pointer (never by decrementing a clause
// index) until exactly one literal assigned at the current decision
// level remains. That literal's negation becomes the asserting literal
// of the learned clause.
type ConflictAnalyzer struct {
	propagator *Propagator
	trail      *Trail
	seen       *ResetSet

	// explainSentinel resolves a reason ref that IsSentinel reports true
	// for (a reason owned by a caller outside this package) into the
	// usual negated-antecedents resolvent. Left nil, a solver that never
	// hands out such a reason never needs it.
	explainSentinel func(ref ClauseRef, lit Literal) []Literal

	learnt []Literal
}

// NewConflictAnalyzer returns an analyzer bound to propagator and trail.
func NewConflictAnalyzer(propagator *Propagator, trail *Trail) *ConflictAnalyzer {
	return &ConflictAnalyzer{
		propagator: propagator,
		trail:      trail,
		seen:       &ResetSet{},
	}
}

// SetSentinelExplainer registers the callback used to resolve a reason
// ref outside the arena's own range, e.g. the mediator package's
// CP-assertion sentinel.
func (ca *ConflictAnalyzer) SetSentinelExplainer(fn func(ref ClauseRef, lit Literal) []Literal) {
	ca.explainSentinel = fn
}

// GrowSeen extends the analyzer's scratch set to cover numVars variables.
func (ca *ConflictAnalyzer) GrowSeen(numVars int) {
	for len(ca.seen.addedAt) < numVars {
		ca.seen.Expand()
	}
}

// Analyze resolves confl back to its first UIP and returns the learned
// clause (asserting literal first) together with the level the solver
// should backjump to.
func (ca *ConflictAnalyzer) Analyze(confl ClauseRef) (learnt []Literal, backtrackLevel int) {
	nImplicationPoints := 0

	ca.learnt = ca.learnt[:0]
	ca.learnt = append(ca.learnt, -1) // placeholder for the UIP literal

	nextIdx := ca.trail.Size() - 1
	l := Literal(-1)
	ca.seen.Clear()
	backtrackLevel = 0

	for {
		var resolvent []Literal
		switch {
		case l == -1:
			resolvent = ca.propagator.ExplainFailure(confl)
		case ca.propagator.IsSentinel(confl):
			resolvent = ca.explainSentinel(confl, l)
		default:
			resolvent = ca.propagator.ExplainAssign(confl, l)
		}

		for _, q := range resolvent {
			v := q.VarID()
			if ca.seen.Contains(v) {
				continue
			}
			ca.seen.Add(v)

			if ca.trail.LevelOf(v) == ca.trail.DecisionLevel() {
				nImplicationPoints++
				continue
			}

			ca.learnt = append(ca.learnt, q.Opposite())
			if lvl := ca.trail.LevelOf(v); lvl > backtrackLevel {
				backtrackLevel = lvl
			}
		}

		for {
			e := ca.trail.At(nextIdx)
			l = e.lit
			nextIdx--
			v := l.VarID()
			confl = ca.trail.ReasonOf(v)
			if ca.seen.Contains(v) {
				break
			}
		}

		nImplicationPoints--
		if nImplicationPoints <= 0 {
			break
		}
	}

	ca.learnt[0] = l.Opposite()
	assertAdvanced(ca.allButFirstAreFalsified(), "every literal but the asserting one must be falsified")
	return ca.learnt, backtrackLevel
}

// allButFirstAreFalsified checks the standard CDCL post-condition on a
// freshly derived learned clause: with the asserting literal at index 0,
// every other literal must currently be false.
func (ca *ConflictAnalyzer) allButFirstAreFalsified() bool {
	for _, lit := range ca.learnt[1:] {
		if ca.trail.Value(lit) != False {
			return false
		}
	}
	return true
}

// LBD returns the literal block distance of a candidate clause: the
// number of distinct decision levels among its literals.
func (ca *ConflictAnalyzer) LBD(literals []Literal) uint32 {
	levels := make([]int, len(literals))
	for i, lit := range literals {
		levels[i] = ca.trail.LevelOf(lit.VarID())
	}
	return clauseLBD(levels, ca.seen)
}
