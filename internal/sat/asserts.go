package sat

// Asserts are layered by cost, mirroring the pumpkin_assert_simple! /
// _moderate! / _advanced! macro hierarchy: the simple tier below always
// runs, while the moderate and advanced tiers are each enabled by their own
// build tag so a release build can keep the cheap invariant checks while
// dropping the expensive ones.

func assertSimple(cond bool, msg string) {
	if !cond {
		panic("assertion failure (simple): " + msg)
	}
}
