package schednode

import (
	"testing"

	"github.com/sbl8/sublation/dep"
	"github.com/sbl8/sublation/ir"
)

func TestClassifyNop(t *testing.T) {
	t.Parallel()
	b := &fakeBuffer{name: "x", noOp: true}
	nodes, err := NewFromBuffers([]ir.Buffer{b}, fakeBackends())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 1 || nodes[0].Kind != KindNop {
		t.Fatalf("expected a single Nop node, got %+v", nodes)
	}
}

func TestClassifyComputed(t *testing.T) {
	t.Parallel()
	rw := dep.ReadWrites{
		Reads:  dep.NewSet(dep.MemoryDep{Name: "x"}),
		Writes: dep.NewSet(dep.MemoryDep{Name: "y"}),
	}
	b := &fakeBuffer{
		name:      "y",
		device:    "cpu",
		kind:      ir.KindComputed,
		pointwise: dep.Size{dep.NewConst(4)},
		body:      fakeBody{rw: rw},
	}
	nodes, err := NewFromBuffers([]ir.Buffer{b}, fakeBackends())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n := nodes[0]
	if n.Kind != KindComputed {
		t.Fatalf("expected Computed, got %v", n.Kind)
	}
	if n.RW.Reads.Len() != 1 || !n.RW.Reads.Contains("x") {
		t.Errorf("expected read of x, got %v", n.RW.Reads.Items())
	}
	if n.Group.Device != "cpu" {
		t.Errorf("expected device cpu, got %v", n.Group.Device)
	}
}

func TestClassifyReductionWidensWrites(t *testing.T) {
	t.Parallel()
	rw := dep.ReadWrites{
		Writes: dep.NewSet(dep.MemoryDep{Name: "r", Index: dep.NewVar("idx"), Sizes: dep.Size{dep.NewConst(4), dep.NewConst(8)}}),
	}
	b := &fakeBuffer{
		name:      "r",
		device:    "cpu",
		kind:      ir.KindComputed,
		reduction: true,
		body:      fakeBody{rw: rw},
	}
	nodes, err := NewFromBuffers([]ir.Buffer{b}, fakeBackends())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nodes[0].RW.Writes.Len() != 2 {
		t.Errorf("expected widened write set, got %v", nodes[0].RW.Writes.Items())
	}
}

func TestClassifyUnknownKindIsFatal(t *testing.T) {
	t.Parallel()
	b := &fakeBuffer{name: "bad", kind: ir.Kind(99)}
	_, err := NewFromBuffers([]ir.Buffer{b}, fakeBackends())
	if err == nil {
		t.Fatal("expected classification error for unknown kind")
	}
}

func TestClassifyCollectsAllErrors(t *testing.T) {
	t.Parallel()
	bad1 := &fakeBuffer{name: "bad1", kind: ir.Kind(99)}
	bad2 := &fakeBuffer{name: "bad2", kind: ir.Kind(98)}
	_, err := NewFromBuffers([]ir.Buffer{bad1, bad2}, fakeBackends())
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !contains(msg, "bad1") || !contains(msg, "bad2") {
		t.Errorf("expected both buffer names in aggregated error, got: %s", msg)
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
