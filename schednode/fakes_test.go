package schednode

import (
	"github.com/sbl8/sublation/dep"
	"github.com/sbl8/sublation/ir"
)

// fakeBackend is a minimal ir.Backend stand-in for classification tests.
type fakeBackend struct{}

func (fakeBackend) GroupFn(sizes dep.Size) ir.GroupKey {
	return ir.GroupKey{Device: "cpu", Key: "group"}
}
func (fakeBackend) CanFuseVertical(a, b ir.SchedNode) bool   { return true }
func (fakeBackend) CanFuseHorizontal(a, b ir.SchedNode) bool { return true }
func (fakeBackend) CodegenNodes(nodes []ir.SchedNode) error  { return nil }
func (fakeBackend) Flush() error                             { return nil }

func fakeBackends() map[ir.Device]ir.Backend {
	return map[ir.Device]ir.Backend{"cpu": fakeBackend{}}
}

// fakeBody is a LoopBody stand-in returning a fixed ReadWrites regardless
// of the index variables supplied.
type fakeBody struct {
	rw dep.ReadWrites
}

func (b fakeBody) Invoke(indexVars []string) dep.ReadWrites { return b.rw }

// fakeBuffer is a minimal ir.Buffer stand-in.
type fakeBuffer struct {
	name       string
	device     ir.Device
	kind       ir.Kind
	noOp       bool
	reduction  bool
	alias      []string
	mutates    []string
	rw         dep.ReadWrites
	pointwise  dep.Size
	reductionS dep.Size
	body       ir.LoopBody
	groupSizes dep.Size
}

func (b *fakeBuffer) GetName() string             { return b.name }
func (b *fakeBuffer) GetDevice() ir.Device         { return b.device }
func (b *fakeBuffer) GetAliasNames() []string      { return b.alias }
func (b *fakeBuffer) GetMutationNames() []string   { return b.mutates }
func (b *fakeBuffer) GetReadWrites() dep.ReadWrites { return b.rw }
func (b *fakeBuffer) IsNoOp() bool                 { return b.noOp }
func (b *fakeBuffer) ShouldAllocate() bool         { return true }
func (b *fakeBuffer) Kind() ir.Kind                { return b.kind }
func (b *fakeBuffer) Origins() []string            { return nil }
func (b *fakeBuffer) IsReduction() bool            { return b.reduction }

func (b *fakeBuffer) SimplifyAndReorder() (dep.Size, dep.Size, ir.LoopBody, error) {
	return b.pointwise, b.reductionS, b.body, nil
}
func (b *fakeBuffer) Canonicalize() error { return nil }
func (b *fakeBuffer) GetGroupStride() (dep.Size, []int, error) {
	return b.groupSizes, nil, nil
}
func (b *fakeBuffer) Codegen(w ir.WrapperCode) error { return nil }
