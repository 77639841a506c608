package sat

// clauseLBD computes the literal block distance of a clause given the
// decision level of every one of its falsified literals: the number of
// distinct levels represented. A learned clause's LBD is computed once,
// when recordLearnt creates it, and is not recomputed afterwards.
func clauseLBD(levels []int, seen *ResetSet) uint32 {
	seen.Clear()
	var distinct uint32
	for _, lvl := range levels {
		if lvl == 0 {
			continue
		}
		if !seen.Contains(lvl) {
			seen.Add(lvl)
			distinct++
		}
	}
	return distinct
}

// isSatisfied reports whether the clause at ref currently has a true
// literal under trail.
func (a *Arena) isSatisfied(trail *Trail, ref ClauseRef) bool {
	for _, lit := range a.Literals(ref) {
		if trail.Value(lit) == True {
			return true
		}
	}
	return false
}
