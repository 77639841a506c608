package cp

import "testing"

func newAssignmentsWithDomains(domains ...Domain) (*Assignments, []IntVar) {
	a := NewAssignments()
	vars := make([]IntVar, len(domains))
	for i, d := range domains {
		vars[i] = a.Grow(d.Lower, d.Upper)
	}
	return a, vars
}

// TestLinearInequalityPropagator_Propagate reproduces spec.md §8 scenario
// S4: three independent Σ w_i·x_i ≥ c instances, each checked against its
// expected post-propagation domains.
func TestLinearInequalityPropagator_Propagate(t *testing.T) {
	tests := []struct {
		name    string
		weights []int64
		c       int64
		domains []Domain
		want    []Domain
	}{
		{
			name:    "three negative weights",
			weights: []int64{-4, -3, -2},
			c:       -9,
			domains: []Domain{{0, 9}, {0, 9}, {0, 9}},
			want:    []Domain{{0, 2}, {0, 3}, {0, 4}},
		},
		{
			name:    "two positive weights",
			weights: []int64{2, 5},
			c:       12,
			domains: []Domain{{0, 10}, {0, 2}},
			want:    []Domain{{1, 10}, {0, 2}},
		},
		{
			name:    "mixed signs",
			weights: []int64{-4, 20},
			c:       0,
			domains: []Domain{{12, 50}, {0, 10}},
			want:    []Domain{{12, 50}, {3, 10}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assignments, vars := newAssignmentsWithDomains(tc.domains...)
			trail := NewTrail(assignments)
			dm := NewDomainManager(trail, PropagatorID(0))

			p := NewLinearInequalityPropagator(tc.weights, vars, tc.c)
			if got := p.InitialiseAtRoot(dm); got != NoConflictDetected {
				t.Fatalf("InitialiseAtRoot() = %v, want NoConflictDetected", got)
			}

			for i, v := range vars {
				got := Domain{Lower: dm.LowerBound(v), Upper: dm.UpperBound(v)}
				if got != tc.want[i] {
					t.Errorf("domain[%d] = %+v, want %+v", i, got, tc.want[i])
				}
			}
		})
	}
}

// TestLinearInequalityPropagator_Explanation reproduces spec.md §8
// scenario S5: weights [3,1,1,1] over 0/1 variables with c=3; tightening
// x0's upper bound to 0 must propagate x1, x2, x3 each to >= 1 with the
// explanation {UpperBound(x0, 0)}.
func TestLinearInequalityPropagator_Explanation(t *testing.T) {
	assignments, vars := newAssignmentsWithDomains(Domain{0, 1}, Domain{0, 1}, Domain{0, 1}, Domain{0, 1})
	trail := NewTrail(assignments)
	dm := NewDomainManager(trail, PropagatorID(0))

	p := NewLinearInequalityPropagator([]int64{3, 1, 1, 1}, vars, 3)
	if got := p.InitialiseAtRoot(dm); got != NoConflictDetected {
		t.Fatalf("InitialiseAtRoot() = %v, want NoConflictDetected", got)
	}

	x0 := vars[0]
	trail.PushLevel()
	oldUB := dm.UpperBound(x0)
	if got := dm.TightenUpperBound(x0, 0); got != Changed {
		t.Fatalf("TightenUpperBound(x0, 0) = %v, want Changed", got)
	}
	// A real propagator scheduler would fire this notification the moment
	// the bound changes; call it directly since no scheduler is wired up
	// here, matching the contract ExplainPropagation relies on.
	p.NotifyUpperBoundChange(x0, oldUB, 0, dm)

	if got := p.Propagate(dm); got != NoConflictDetected {
		t.Fatalf("Propagate() = %v, want NoConflictDetected", got)
	}

	for i := 1; i < len(vars); i++ {
		if got, want := dm.LowerBound(vars[i]), 1; got != want {
			t.Errorf("LowerBound(x%d) = %d, want %d", i, got, want)
		}
	}

	wantReason := Conjunction{UpperBound(x0, 0)}
	for i := 1; i < len(vars); i++ {
		got := p.ExplainPropagation(LowerBound(vars[i], 1))
		if len(got) != len(wantReason) || got[0] != wantReason[0] {
			t.Errorf("ExplainPropagation(x%d >= 1) = %v, want %v", i, got, wantReason)
		}
	}
}
