package schednode

import (
	"errors"
	"testing"
)

func TestVariantOnlyMethodsFailOnFused(t *testing.T) {
	t.Parallel()
	a := New(KindComputed, "A")
	b := New(KindComputed, "B")
	fused := Fuse(a, b)

	if _, err := fused.GetAliasNames(); !errors.Is(err, ErrNotApplicable) {
		t.Errorf("expected ErrNotApplicable from GetAliasNames on fused node, got %v", err)
	}
	if _, err := fused.GetMutationNames(); !errors.Is(err, ErrNotApplicable) {
		t.Errorf("expected ErrNotApplicable from GetMutationNames on fused node, got %v", err)
	}
}

func TestOutputNodePinning(t *testing.T) {
	t.Parallel()
	out := NewOutput("z")
	if out.Kind != KindOutput {
		t.Fatalf("expected KindOutput, got %v", out.Kind)
	}
	if out.PinnedName() != "z" {
		t.Errorf("expected pinned name z, got %q", out.PinnedName())
	}
	if !out.UnmetDependencies.Contains("z") {
		t.Errorf("expected output node to read z, got %v", out.UnmetDependencies.Items())
	}
}

func TestSetUsersDeduplicatesAndAndsCanInplace(t *testing.T) {
	t.Parallel()
	n := New(KindComputed, "A")
	consumer := New(KindComputed, "B")

	n.SetUsers([]NodeUser{
		{Node: consumer, CanInplace: true},
		{Node: consumer, CanInplace: false},
	})

	if len(n.Users) != 1 {
		t.Fatalf("expected deduplicated single user, got %d", len(n.Users))
	}
	if n.Users[0].CanInplace {
		t.Errorf("expected CanInplace to AND to false across duplicates")
	}
}

func TestShouldAllocateNopAndOutputAlwaysFalse(t *testing.T) {
	t.Parallel()
	nop := New(KindNop, "n")
	if nop.ShouldAllocate() {
		t.Error("Nop should never allocate")
	}
	out := NewOutput("z")
	if out.ShouldAllocate() {
		t.Error("Output should never allocate")
	}
}
