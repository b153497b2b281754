// Package cpu implements the CPU ir.Backend. Real machine-code emission
// is out of scope (spec.md §1); CodegenNodes instead emits a
// deterministic textual "kernel program" listing the sorted buffer names
// of the fused node group, suitable for golden-file testing. The program
// does not record a loop order.
//
// Adapted from the teacher's kernels package: the opcode catalog
// (kernels/ops.go) becomes the backend's textual-program opcode table,
// and the asm.go/asm_fallback.go build-tag split is preserved as the
// vectorized-vs-scalar program-string choice (programKind in
// program_vector.go / program_fallback.go).
package cpu

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sbl8/sublation/config"
	"github.com/sbl8/sublation/dep"
	"github.com/sbl8/sublation/ir"
	"github.com/sbl8/sublation/looporder"
	"go.uber.org/zap"
)

// Backend is the CPU device's ir.Backend implementation.
type Backend struct {
	device ir.Device
	cfg    config.CPUConfig
	log    *zap.Logger

	pending []string
	Output  []string // finalized kernel programs, in flush order
}

// New builds a CPU backend bound to device (usually "cpu").
func New(device ir.Device, cfg config.CPUConfig, log *zap.Logger) *Backend {
	if log == nil {
		log = zap.NewNop()
	}
	return &Backend{device: device, cfg: cfg, log: log}
}

// GroupFn buckets by the rounded size tuple: every constant dimension is
// rounded down to a multiple of MinChunkSize so nodes whose extents differ
// only below the CPU sub-group's chunk granularity still land in the same
// horizontal-fusion bucket (spec.md §4.1, §6 "CPU sub-group
// min_chunk_size"). sizes arrives as one pointwise-then-reduction tuple,
// and pointwise and reduction dimensions are rounded alike.
func (b *Backend) GroupFn(sizes dep.Size) ir.GroupKey {
	parts := make([]string, len(sizes))
	for i, s := range sizes {
		parts[i] = roundedSizeKey(s, b.cfg.MinChunkSize)
	}
	return ir.GroupKey{Device: b.device, Key: strings.Join(parts, "x")}
}

func roundedSizeKey(s dep.Expr, chunk int) string {
	if s.Kind == dep.ExprConst && chunk > 0 {
		rounded := (int(s.Const) / chunk) * chunk
		return fmt.Sprintf("c%d", rounded)
	}
	return s.String()
}

// CanFuseVertical applies CPU-specific vertical-fusion legality on top of
// the scheduler's own checks. The CPU backend imposes no further
// restriction beyond device match, which the scheduler already enforces.
func (b *Backend) CanFuseVertical(a, b2 ir.SchedNode) bool { return true }

// CanFuseHorizontal applies CPU-specific horizontal-fusion legality. No
// further restriction beyond the scheduler's own checks.
func (b *Backend) CanFuseHorizontal(a, b2 ir.SchedNode) bool { return true }

// CodegenNodes emits one textual kernel program for the given
// fusion-grouped node list.
func (b *Backend) CodegenNodes(nodes []ir.SchedNode) error {
	if len(nodes) == 0 {
		return nil
	}
	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		names = append(names, n.GetNames()...)
	}
	sort.Strings(names)

	program := fmt.Sprintf("%s_kernel[%s]", programKind(), strings.Join(names, ","))
	b.log.Debug("cpu codegen", zap.String("program", program))
	b.pending = append(b.pending, program)
	return nil
}

// Flush finalizes pending kernel programs into Output.
func (b *Backend) Flush() error {
	if len(b.pending) == 0 {
		return nil
	}
	b.Output = append(b.Output, strings.Join(b.pending, ";"))
	b.pending = nil
	return nil
}

// LoopOrderFor exposes the loop-order heuristic (package looporder) to
// callers assembling a kernel program by hand, honoring
// cfg.PickLoopOrders. Nothing in this repository calls it; CodegenNodes
// does not consult it.
func LoopOrderFor(strides looporder.StrideMatrix, sizes []int64, cfg config.Config) []int {
	return looporder.Pick(strides, sizes, nil, cfg.PickLoopOrders)
}
