//go:build !clausepool

package sat

// allocLiterals returns a fresh slice with the given capacity. The
// non-pooled build simply lets the garbage collector reclaim clause
// storage; see arena_literals_pool.go for the tiered sync.Pool variant.
func allocLiterals(capacity int) *[]Literal {
	s := make([]Literal, 0, capacity)
	return &s
}

// freeLiterals is a no-op in the non-pooled build.
func freeLiterals(s *[]Literal) {}
