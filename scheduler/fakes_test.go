package scheduler

import (
	"github.com/sbl8/sublation/dep"
	"github.com/sbl8/sublation/ir"
)

type fakeBackend struct {
	aggressive bool
}

func (b fakeBackend) GroupFn(sizes dep.Size) ir.GroupKey {
	parts := ""
	for _, s := range sizes {
		parts += s.String() + ","
	}
	return ir.GroupKey{Device: "cpu", Key: parts}
}
func (fakeBackend) CanFuseVertical(a, b ir.SchedNode) bool   { return true }
func (fakeBackend) CanFuseHorizontal(a, b ir.SchedNode) bool { return true }
func (fakeBackend) CodegenNodes(nodes []ir.SchedNode) error  { return nil }
func (fakeBackend) Flush() error                             { return nil }

func fakeBackends() map[ir.Device]ir.Backend {
	return map[ir.Device]ir.Backend{"cpu": fakeBackend{}}
}

type fakeBody struct {
	rw dep.ReadWrites
}

func (b fakeBody) Invoke(indexVars []string) dep.ReadWrites { return b.rw }

// fakeBuffer is a minimal ir.Buffer stand-in shaped like schednode's test
// fake, duplicated here since it is unexported in that package.
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
}

func computed(name string, reads, writes []dep.Dep) *fakeBuffer {
	rw := dep.ReadWrites{Reads: dep.NewSet(reads...), Writes: dep.NewSet(writes...)}
	return &fakeBuffer{
		name:      name,
		device:    "cpu",
		kind:      ir.KindComputed,
		pointwise: dep.Size{dep.NewConst(4)},
		body:      fakeBody{rw: rw},
	}
}

func extern(name string, reads, writes []dep.Dep, mutates []string) *fakeBuffer {
	rw := dep.ReadWrites{Reads: dep.NewSet(reads...), Writes: dep.NewSet(writes...)}
	return &fakeBuffer{name: name, device: "cpu", kind: ir.KindExtern, rw: rw, mutates: mutates}
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
	return b.pointwise, nil, nil
}
func (b *fakeBuffer) Codegen(w ir.WrapperCode) error {
	if w == nil {
		return nil
	}
	w.WriteComment("extern " + b.name)
	return nil
}

type fakeWrapper struct {
	allocated []string
	freed     []string
	comments  []string
}

func (w *fakeWrapper) CodegenAllocation(buf ir.Buffer) error {
	w.allocated = append(w.allocated, buf.GetName())
	return nil
}
func (w *fakeWrapper) CodegenFree(buf ir.Buffer) error {
	w.freed = append(w.freed, buf.GetName())
	return nil
}
func (w *fakeWrapper) CanReuse(n ir.SchedNode) bool { return false }
func (w *fakeWrapper) CodegenInplaceReuse(old, new ir.SchedNode) error { return nil }
func (w *fakeWrapper) WriteComment(line string) { w.comments = append(w.comments, line) }

type fakeDebugSink struct {
	writes map[string][]byte
}

func (d *fakeDebugSink) Write(label string, payload []byte) error {
	if d.writes == nil {
		d.writes = map[string][]byte{}
	}
	d.writes[label] = payload
	return nil
}

func newTestContext(outputs []string, mutatedInputs []string) *ir.Context {
	g := ir.NewGraph(nil, nil, outputs)
	for _, m := range mutatedInputs {
		g.MutatedInputs[m] = true
	}
	return ir.NewContext(g, &fakeWrapper{}, nil, &fakeDebugSink{})
}
