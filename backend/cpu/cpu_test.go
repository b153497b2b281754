package cpu

import (
	"strings"
	"testing"

	"github.com/sbl8/sublation/config"
	"github.com/sbl8/sublation/dep"
	"github.com/sbl8/sublation/ir"
)

type fakeNode struct {
	names []string
}

func (f fakeNode) GetNames() []string                      { return f.names }
func (f fakeNode) ReadWrites() dep.ReadWrites               { return dep.ReadWrites{} }
func (f fakeNode) IsReduction() bool                        { return false }
func (f fakeNode) MinOrder() int                            { return 0 }
func (f fakeNode) MaxOrder() int                            { return 0 }
func (f fakeNode) RecursivePredecessors() map[string]bool   { return nil }

func TestGroupFnRoundsByChunkSize(t *testing.T) {
	t.Parallel()
	b := New("cpu", config.CPUConfig{MinChunkSize: 16}, nil)

	k1 := b.GroupFn(dep.Size{dep.NewConst(33)})
	k2 := b.GroupFn(dep.Size{dep.NewConst(40)})
	if k1.Key != k2.Key {
		t.Errorf("expected sizes in the same chunk bucket to share a group key, got %q vs %q", k1.Key, k2.Key)
	}

	k3 := b.GroupFn(dep.Size{dep.NewConst(64)})
	if k1.Key == k3.Key {
		t.Errorf("expected sizes in different chunk buckets to differ, got same key %q", k1.Key)
	}
}

func TestCodegenNodesThenFlushProducesOutput(t *testing.T) {
	t.Parallel()
	b := New("cpu", config.Default().CPU, nil)

	if err := b.CodegenNodes([]ir.SchedNode{fakeNode{names: []string{"x", "y"}}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(b.Output) != 0 {
		t.Fatalf("expected no output before Flush, got %v", b.Output)
	}

	if err := b.Flush(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(b.Output) != 1 {
		t.Fatalf("expected one flushed program, got %v", b.Output)
	}
	if !strings.Contains(b.Output[0], "x") || !strings.Contains(b.Output[0], "y") {
		t.Errorf("expected flushed program to mention both names, got %q", b.Output[0])
	}
}

func TestFlushWithNoPendingIsNoop(t *testing.T) {
	t.Parallel()
	b := New("cpu", config.Default().CPU, nil)
	if err := b.Flush(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(b.Output) != 0 {
		t.Errorf("expected no output, got %v", b.Output)
	}
}
