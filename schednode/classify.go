package schednode

import (
	"fmt"

	"github.com/sbl8/sublation/dep"
	"github.com/sbl8/sublation/ir"
	"go.uber.org/multierr"
)

// freshIndexVars names fresh index variables for symbolic body invocation
// (spec.md §4.1: "extracts read/writes by symbolically invoking the body
// over fresh index variables with normalize=True"). Deterministic names
// keep classification reproducible across runs.
func freshIndexVars(n int) []string {
	vars := make([]string, n)
	for i := range vars {
		vars[i] = fmt.Sprintf("i%d", i)
	}
	return vars
}

// NewFromBuffers classifies every IR buffer into its SchedulerNode variant
// in declaration order (spec.md §4.1). backends supplies the per-device
// Backend used to compute each Computed/Template node's group key.
//
// Every unclassifiable buffer is collected via multierr rather than
// aborting at the first one, so a caller sees the full set of offending
// buffers in one report; the overall result is still fatal (spec.md §7:
// invariant-violation) if any error was collected.
func NewFromBuffers(bufs []ir.Buffer, backends map[ir.Device]ir.Backend) ([]*Node, error) {
	nodes := make([]*Node, 0, len(bufs))
	var errs error

	for _, b := range bufs {
		n, err := classifyOne(b, backends)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("buffer %q: %w", b.GetName(), err))
			continue
		}
		nodes = append(nodes, n)
	}

	if errs != nil {
		return nil, errs
	}
	return nodes, nil
}

func classifyOne(b ir.Buffer, backends map[ir.Device]ir.Backend) (*Node, error) {
	if b.IsNoOp() {
		return newNop(b), nil
	}

	switch b.Kind() {
	case ir.KindComputed:
		return newComputed(b, backends)
	case ir.KindExternTemplate:
		return newTemplate(b, backends)
	case ir.KindExtern:
		return newExtern(b), nil
	default:
		return nil, fmt.Errorf("unclassifiable IR buffer kind %v", b.Kind())
	}
}

func newNop(b ir.Buffer) *Node {
	n := New(KindNop, b.GetName())
	n.Buffer = b
	n.UnmetDependencies = dep.Set{}
	return n
}

func newComputed(b ir.Buffer, backends map[ir.Device]ir.Backend) (*Node, error) {
	pointwise, reduction, body, err := b.SimplifyAndReorder()
	if err != nil {
		return nil, fmt.Errorf("simplify_and_reorder: %w", err)
	}

	backend, ok := backends[b.GetDevice()]
	if !ok {
		return nil, fmt.Errorf("no backend registered for device %q", b.GetDevice())
	}

	sizes := append(append(dep.Size{}, pointwise...), reduction...)
	group := backend.GroupFn(sizes)

	allVars := freshIndexVars(len(pointwise) + len(reduction))
	rw := body.Invoke(allVars)
	if b.IsReduction() {
		rw = rw.WidenReductionWrites()
	}

	n := New(KindComputed, b.GetName())
	n.Buffer = b
	n.RW = rw
	n.UnmetDependencies = rw.Reads
	n.Group = GroupInfo{Device: b.GetDevice(), Key: group}
	return n, nil
}

func newTemplate(b ir.Buffer, backends map[ir.Device]ir.Backend) (*Node, error) {
	sizes, _, err := b.GetGroupStride()
	if err != nil {
		return nil, fmt.Errorf("get_group_stride: %w", err)
	}

	backend, ok := backends[b.GetDevice()]
	if !ok {
		return nil, fmt.Errorf("no backend registered for device %q", b.GetDevice())
	}
	group := backend.GroupFn(sizes)

	if err := b.Canonicalize(); err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}

	rw := b.GetReadWrites()

	n := New(KindTemplate, b.GetName())
	n.Buffer = b
	n.RW = rw
	n.UnmetDependencies = rw.Reads
	n.Group = GroupInfo{Device: b.GetDevice(), Key: group}
	return n, nil
}

func newExtern(b ir.Buffer) *Node {
	rw := b.GetReadWrites()
	n := New(KindExtern, b.GetName())
	n.Buffer = b
	n.RW = rw
	n.UnmetDependencies = rw.Reads
	return n
}
