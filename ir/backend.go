package ir

import "github.com/sbl8/sublation/dep"

// GroupKey is the opaque, hashable bucketing tag a Backend computes from a
// node's iteration-domain shape, used to restrict horizontal-fusion search
// (spec.md Glossary: Group key).
type GroupKey struct {
	Device Device
	Key    string
}

// SchedNode is the minimal read-only view of a scheduler node a Backend
// implementation needs. Declared here (rather than importing package
// schednode, which itself imports ir for the Buffer façade) to keep the
// dependency a one-way street: schednode.Node satisfies this interface
// structurally, ir never imports schednode.
type SchedNode interface {
	GetNames() []string
	ReadWrites() dep.ReadWrites
	IsReduction() bool
	MinOrder() int
	MaxOrder() int
	RecursivePredecessors() map[string]bool
}

// Backend is the per-device capability the scheduler drives (spec.md §6).
type Backend interface {
	// GroupFn buckets a node's iteration-domain shape for horizontal
	// fusion candidate generation.
	GroupFn(sizes dep.Size) GroupKey

	// CanFuseVertical applies device-specific legality on top of the
	// scheduler's own vertical-fusion checks (spec.md §4.5).
	CanFuseVertical(a, b SchedNode) bool

	// CanFuseHorizontal applies device-specific legality on top of the
	// scheduler's own horizontal-fusion checks (spec.md §4.5).
	CanFuseHorizontal(a, b SchedNode) bool

	// CodegenNodes emits one kernel realizing the given, already
	// fusion-grouped node list.
	CodegenNodes(nodes []SchedNode) error

	// Flush finalizes any pending kernel.
	Flush() error
}

// WrapperCode is the append-only wrapper-code capability the scheduler
// drives during codegen (spec.md §6).
type WrapperCode interface {
	CodegenAllocation(buf Buffer) error
	CodegenFree(buf Buffer) error
	CanReuse(n SchedNode) bool
	CodegenInplaceReuse(old, new SchedNode) error
	WriteComment(line string)
}
