// Package gpu implements a second ir.Backend so the scheduler's
// same-device legality filter (spec.md §4.5) and multi-backend flush
// interleaving (spec.md §4.7) are exercisable end to end. Like package
// cpu, it emits a deterministic textual program rather than real device
// code (spec.md §1 scope).
package gpu

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sbl8/sublation/dep"
	"github.com/sbl8/sublation/ir"
	"go.uber.org/zap"
)

// Backend is the GPU device's ir.Backend implementation.
type Backend struct {
	device ir.Device
	log    *zap.Logger

	pending []string
	Output  []string
}

// New builds a GPU backend bound to device (usually "gpu").
func New(device ir.Device, log *zap.Logger) *Backend {
	if log == nil {
		log = zap.NewNop()
	}
	return &Backend{device: device, log: log}
}

// GroupFn buckets purely by size-tuple shape; the GPU backend has no
// sub-group chunk rounding (that is CPU-specific, spec.md §6).
func (b *Backend) GroupFn(sizes dep.Size) ir.GroupKey {
	parts := make([]string, len(sizes))
	for i, s := range sizes {
		parts[i] = s.String()
	}
	return ir.GroupKey{Device: b.device, Key: strings.Join(parts, "x")}
}

// CanFuseVertical imposes no further GPU-specific restriction beyond the
// scheduler's own checks.
func (b *Backend) CanFuseVertical(a, b2 ir.SchedNode) bool { return true }

// CanFuseHorizontal imposes no further GPU-specific restriction beyond
// the scheduler's own checks.
func (b *Backend) CanFuseHorizontal(a, b2 ir.SchedNode) bool { return true }

// CodegenNodes emits one textual kernel-launch program for the given
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

	program := fmt.Sprintf("gpu_launch[%s]", strings.Join(names, ","))
	b.log.Debug("gpu codegen", zap.String("program", program))
	b.pending = append(b.pending, program)
	return nil
}

// Flush finalizes pending kernel-launch programs into Output.
func (b *Backend) Flush() error {
	if len(b.pending) == 0 {
		return nil
	}
	b.Output = append(b.Output, strings.Join(b.pending, ";"))
	b.pending = nil
	return nil
}
