// Package ir declares the read-only capabilities the scheduler consumes
// from IR buffers and the per-device/backend capabilities it drives. IR
// construction, shape/stride algebra, and dependency extraction from loop
// bodies are all out of scope (spec.md §1) — this package only names the
// narrow surface the scheduler calls through.
package ir

import "github.com/sbl8/sublation/dep"

// Kind tags which SchedulerNode variant a Buffer should be wrapped in
// (spec.md §4.1).
type Kind uint8

const (
	KindComputed Kind = iota
	KindExternTemplate
	KindExtern
)

// Device identifies the target device a buffer's computation runs on.
// Opaque and comparable; the scheduler never interprets its value beyond
// equality.
type Device string

// Buffer is the read-only façade the scheduler consumes for every IR
// buffer (spec.md §6).
type Buffer interface {
	GetName() string
	GetDevice() Device
	GetAliasNames() []string
	GetMutationNames() []string
	GetReadWrites() dep.ReadWrites
	IsNoOp() bool
	ShouldAllocate() bool
	Kind() Kind
	Origins() []string

	// SimplifyAndReorder returns the (pointwise, reduction) size tuples
	// and an opaque loop-body token for a Computed buffer. Callers must
	// only invoke this when Kind() == KindComputed.
	SimplifyAndReorder() (pointwise, reduction dep.Size, body LoopBody, err error)

	// Canonicalize rewrites a lone StarDep write into a MemoryDep using
	// the buffer's own canonical index/size, for Template buffers only.
	Canonicalize() error

	// GetGroupStride returns the (sizes, stride) descriptor used by a
	// Template buffer's group key. Callers must only invoke this when
	// Kind() == KindExternTemplate.
	GetGroupStride() (sizes dep.Size, stride []int, err error)

	// Codegen emits this buffer's own code against the wrapper, for
	// Extern buffers only.
	Codegen(w WrapperCode) error

	// IsReduction reports whether this buffer's computation reduces over
	// one or more trailing dimensions.
	IsReduction() bool
}

// LoopBody is an opaque callable the scheduler invokes (through the
// out-of-scope dependency-extraction collaborator) to obtain read/writes
// by symbolic execution over fresh index variables. The scheduler never
// calls it itself outside of node construction.
type LoopBody interface {
	// Invoke symbolically executes the body over freshly-named index
	// variables with normalize=true semantics (spec.md §4.1) and returns
	// the resulting read/write bundle.
	Invoke(indexVars []string) dep.ReadWrites
}
