package schednode

import "github.com/sbl8/sublation/dep"

// matchesAWrite reports whether d is structurally equal to any write in
// writes — used to drop an unmet dependency already satisfied by the
// fused bundle's own write set (spec.md invariant 5).
func matchesAWrite(d dep.Dep, writes dep.Set) bool {
	for _, w := range writes.Items() {
		if d.Equal(w) {
			return true
		}
	}
	return false
}

// constituentsOf returns a's own constituents if it is already Fused,
// otherwise a itself as a single-element slice — used to keep fusion
// chains flat rather than nesting Fused-of-Fused nodes.
func constituentsOf(n *Node) []*Node {
	if n.Kind == KindFused {
		return n.Constituents
	}
	return []*Node{n}
}

// Fuse combines a and b into a new Fused node (spec.md §4.5
// "Application", invariant 5). Callers must have already established
// legality (CanFuse) and acyclicity (WillFusionCreateCycle) — Fuse itself
// performs no legality checks.
func Fuse(a, b *Node) *Node {
	constituents := append(append([]*Node{}, constituentsOf(a)...), constituentsOf(b)...)

	name := a.Name + "_" + b.Name
	fused := New(KindFused, name)
	fused.Constituents = constituents
	fused.RW = a.RW.Merge(b.RW)

	memberNames := map[string]bool{}
	for _, c := range constituents {
		for _, nm := range c.GetNames() {
			memberNames[nm] = true
		}
	}

	unmet := dep.Set{}
	for _, c := range constituents {
		for _, d := range c.UnmetDependencies.Items() {
			if memberNames[d.BufName()] {
				continue // internal edge collapses
			}
			if matchesAWrite(d, fused.RW.Writes) {
				continue
			}
			unmet.Add(d)
		}
	}
	fused.UnmetDependencies = unmet

	if a.MinOrderVal <= b.MinOrderVal {
		fused.MinOrderVal = a.MinOrderVal
	} else {
		fused.MinOrderVal = b.MinOrderVal
	}
	if a.MaxOrderVal >= b.MaxOrderVal {
		fused.MaxOrderVal = a.MaxOrderVal
	} else {
		fused.MaxOrderVal = b.MaxOrderVal
	}

	recur := map[string]bool{}
	for nm := range a.RecursivePreds {
		if !memberNames[nm] {
			recur[nm] = true
		}
	}
	for nm := range b.RecursivePreds {
		if !memberNames[nm] {
			recur[nm] = true
		}
	}
	fused.RecursivePreds = recur

	return fused
}
