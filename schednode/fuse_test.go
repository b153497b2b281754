package schednode

import (
	"testing"

	"github.com/sbl8/sublation/dep"
)

func TestFuseUnionsNamesAndCollapsesInternalDeps(t *testing.T) {
	t.Parallel()

	a := New(KindComputed, "A")
	a.RW = dep.ReadWrites{Writes: dep.NewSet(dep.MemoryDep{Name: "x"})}
	a.UnmetDependencies = dep.Set{}

	b := New(KindComputed, "B")
	b.RW = dep.ReadWrites{
		Reads:  dep.NewSet(dep.MemoryDep{Name: "x"}),
		Writes: dep.NewSet(dep.MemoryDep{Name: "y"}),
	}
	b.UnmetDependencies = dep.NewSet(dep.MemoryDep{Name: "x"})

	fused := Fuse(a, b)

	names := fused.GetNames()
	if len(names) != 2 {
		t.Fatalf("expected 2 constituent names, got %v", names)
	}

	if fused.UnmetDependencies.Contains("x") {
		t.Errorf("internal dep on x should have collapsed: %v", fused.UnmetDependencies.Items())
	}
}

func TestFuseDropsDepsSatisfiedByFusedWrites(t *testing.T) {
	t.Parallel()

	a := New(KindComputed, "A")
	a.RW = dep.ReadWrites{Writes: dep.NewSet(dep.MemoryDep{Name: "shared", Index: dep.NewVar("i")})}

	c := New(KindComputed, "C")
	c.RW = dep.ReadWrites{Reads: dep.NewSet(dep.MemoryDep{Name: "other"})}
	c.UnmetDependencies = dep.NewSet(
		dep.MemoryDep{Name: "shared", Index: dep.NewVar("i")},
		dep.MemoryDep{Name: "other"},
	)

	fused := Fuse(a, c)

	if fused.UnmetDependencies.Contains("shared") {
		t.Errorf("dep satisfied by fused write should be dropped: %v", fused.UnmetDependencies.Items())
	}
	if !fused.UnmetDependencies.Contains("other") {
		t.Errorf("unrelated dep should survive: %v", fused.UnmetDependencies.Items())
	}
}

func TestFuseFlattensChains(t *testing.T) {
	t.Parallel()

	a := New(KindComputed, "A")
	b := New(KindComputed, "B")
	c := New(KindComputed, "C")

	ab := Fuse(a, b)
	abc := Fuse(ab, c)

	if len(abc.Constituents) != 3 {
		t.Fatalf("expected flat 3-constituent fused node, got %d", len(abc.Constituents))
	}
}

func TestFuseSpansMinMaxOrder(t *testing.T) {
	t.Parallel()

	a := New(KindComputed, "A")
	a.MinOrderVal, a.MaxOrderVal = 2, 2
	b := New(KindComputed, "B")
	b.MinOrderVal, b.MaxOrderVal = 5, 5

	fused := Fuse(a, b)
	if fused.MinOrderVal != 2 || fused.MaxOrderVal != 5 {
		t.Errorf("expected span [2,5], got [%d,%d]", fused.MinOrderVal, fused.MaxOrderVal)
	}
}
