package sat

import (
	"log"

	"github.com/rhartert/yagh"
)

// VarOrder maintains the order in which propositional variables are
// offered up as CDCL decisions, ranked by VSIDS-style activity.
type VarOrder struct {
	// order is a binary heap giving O(log n) access to the unassigned
	// variable with the highest score. Ties break on insertion order,
	// i.e. the order in which variables were declared with AddVar.
	order *yagh.IntMap[float64]

	scores     []float64 // in [0, 1e100)
	scoreInc   float64   // in (0, 1e100)
	scoreDecay float64   // in (0, 1]

	phases      []LBool
	phaseSaving bool
}

// NewVarOrder returns a new, empty VarOrder. decay controls how quickly
// past activity bumps fade relative to new ones; phaseSaving controls
// whether a variable's last assigned value is replayed as its next
// decision polarity (versus always deciding the polarity the variable was
// given when it was added).
func NewVarOrder(decay float64, phaseSaving bool) *VarOrder {
	return &VarOrder{
		order:       yagh.New[float64](0),
		scoreInc:    1,
		scoreDecay:  decay,
		phases:      make([]LBool, 0),
		phaseSaving: phaseSaving,
	}
}

// AddVar registers a new variable with the given initial score and phase.
func (vo *VarOrder) AddVar(initScore float64, initPhase bool) {
	varID := len(vo.phases)

	vo.scores = append(vo.scores, initScore)
	vo.phases = append(vo.phases, Lift(initPhase))

	vo.order.GrowBy(1)
	vo.order.Put(varID, -initScore)
}

// SetPhase forces the saved phase of v, used by the optimisation driver to
// seed search with a previously found solution (solution-guided search).
func (vo *VarOrder) SetPhase(v int, val LBool) {
	vo.phases[v] = val
}

// Reinsert adds variable v back to the pool of decision candidates. The
// CDCL loop calls this for every variable undone by a backtrack.
func (vo *VarOrder) Reinsert(v int, val LBool) {
	if vo.phaseSaving && val != Unknown {
		vo.phases[v] = val
	}
	act := vo.scores[v]
	vo.order.Put(v, -act)
}

// DecayScores slightly decreases the relative weight of past activity
// bumps compared to future ones, by inflating the bump increment instead
// of touching every score.
func (vo *VarOrder) DecayScores() {
	vo.scoreInc /= vo.scoreDecay
	if vo.scoreInc > 1e100 {
		vo.rescaleScoresAndIncrement()
	}
}

// BumpScore increases the activity score of v, as happens whenever v
// appears in a clause involved in conflict analysis.
func (vo *VarOrder) BumpScore(v int) {
	newScore := vo.scores[v] + vo.scoreInc
	vo.scores[v] = newScore
	if vo.order.Contains(v) {
		vo.order.Put(v, -newScore)
	}
	if vo.scores[v] > 1e100 {
		vo.rescaleScoresAndIncrement()
	}
}

// NextDecision pops the highest-activity unassigned variable and returns
// the literal matching its saved (or default) phase. valueOf reports the
// current assignment of a variable, letting the heap lazily skip entries
// that were assigned since they were last pushed.
func (vo *VarOrder) NextDecision(valueOf func(v int) LBool) Literal {
	for {
		next, ok := vo.order.Pop()
		if !ok {
			log.Fatalln("var order: decision requested with no unassigned variables left")
		}
		if valueOf(next.Elem) != Unknown {
			continue
		}

		switch vo.phases[next.Elem] {
		case True:
			return PositiveLiteral(next.Elem)
		case False:
			return NegativeLiteral(next.Elem)
		default:
			return PositiveLiteral(next.Elem)
		}
	}
}

func (vo *VarOrder) rescaleScoresAndIncrement() {
	vo.scoreInc *= 1e-100
	for v, s := range vo.scores {
		newScore := s * 1e-100
		vo.scores[v] = newScore
		if vo.order.Contains(v) {
			vo.order.Put(v, -newScore)
		}
	}
}
