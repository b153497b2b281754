// Package wrapper implements the ir.WrapperCode the scheduler drives
// during codegen: allocation and free of buffers that survive fusion and
// dead-code elimination, plus origin comments.
//
// Shaped after the backend packages' own choice to emit a deterministic
// textual program rather than real device code (spec.md §1 scope) — here
// the "device" is the host wrapper that sequences kernel calls and owns
// buffer lifetimes.
package wrapper

import (
	"fmt"

	"github.com/sbl8/sublation/ir"
	"go.uber.org/zap"
)

// Wrapper is the host-side ir.WrapperCode implementation.
type Wrapper struct {
	log *zap.Logger

	Output []string // allocation/free/comment lines, in emission order
}

// New builds a Wrapper.
func New(log *zap.Logger) *Wrapper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Wrapper{log: log}
}

// CodegenAllocation emits an allocation line for buf. Buffers with
// ShouldAllocate() == false (views, removed buffers) must not reach here;
// the scheduler filters those out before calling.
func (w *Wrapper) CodegenAllocation(buf ir.Buffer) error {
	w.Output = append(w.Output, fmt.Sprintf("alloc %s", buf.GetName()))
	w.log.Debug("allocation", zap.String("buffer", buf.GetName()))
	return nil
}

// CodegenFree emits a free line for buf, once it has passed its last use.
func (w *Wrapper) CodegenFree(buf ir.Buffer) error {
	w.Output = append(w.Output, fmt.Sprintf("free %s", buf.GetName()))
	w.log.Debug("free", zap.String("buffer", buf.GetName()))
	return nil
}

// CanReuse always reports false: in-place buffer reuse is a permanent
// no-op (spec.md §9 Open Questions), matching schednode.Node.CanInplace.
func (w *Wrapper) CanReuse(n ir.SchedNode) bool { return false }

// CodegenInplaceReuse is unreachable while CanReuse returns false; it
// exists only to satisfy ir.WrapperCode.
func (w *Wrapper) CodegenInplaceReuse(old, new ir.SchedNode) error {
	return fmt.Errorf("wrapper: in-place reuse is disabled")
}

// WriteComment emits a free-standing comment line. Extern-call markers
// are its only callers; no origin annotations are written through it.
func (w *Wrapper) WriteComment(line string) {
	w.Output = append(w.Output, "# "+line)
}
