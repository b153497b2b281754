package scheduler

import (
	"fmt"

	"github.com/sbl8/sublation/ir"
	"github.com/sbl8/sublation/schednode"
	"go.uber.org/zap"
)

// Codegen drives the final schedule forward in order: it allocates each
// node's buffers, hands non-extern nodes to their device backend (batching
// consecutive same-device nodes into one kernel via the backend's own
// pending/Flush split), codegens extern nodes directly against the
// wrapper, frees buffers at their last use, and flushes whenever the
// device changes or an extern/template node is reached (spec.md §4.7).
func (s *Scheduler) Codegen() error {
	bufIndex := s.buildBufferIndex()

	var lastDevice ir.Device
	first := true

	for _, n := range s.nodes {
		if n.Kind == schednode.KindOutput || n.IsNoOp() {
			continue
		}

		device := n.Device()
		backend, ok := s.backends[device]
		if !ok {
			return fmt.Errorf("codegen: no backend registered for device %q (node %q)", device, n.Name)
		}

		if !first && (device != lastDevice || n.IsExtern() || n.IsTemplate()) {
			if err := s.flushAllBackends(); err != nil {
				return err
			}
		}

		for _, buf := range buffersOf(n) {
			if buf.ShouldAllocate() && s.ctx.Wrapper != nil {
				if err := s.ctx.Wrapper.CodegenAllocation(buf); err != nil {
					return fmt.Errorf("codegen: allocate for %q: %w", n.Name, err)
				}
			}
		}

		if n.IsExtern() {
			if err := n.Buffer.Codegen(s.ctx.Wrapper); err != nil {
				return fmt.Errorf("codegen: extern %q: %w", n.Name, err)
			}
		} else {
			if err := backend.CodegenNodes([]ir.SchedNode{n}); err != nil {
				return fmt.Errorf("codegen: %q: %w", n.Name, err)
			}
		}

		s.freeLastUsage(n, bufIndex)

		lastDevice = device
		first = false
	}

	if err := s.flushAllBackends(); err != nil {
		return err
	}

	return s.removeKernelLocalBuffers()
}

func (s *Scheduler) freeLastUsage(n *schednode.Node, bufIndex map[string]ir.Buffer) {
	if s.ctx.Wrapper == nil {
		return
	}
	for name := range n.LastUsage {
		if s.ctx.Graph.RemovedBuffers[name] {
			continue
		}
		buf, ok := bufIndex[name]
		if !ok {
			continue
		}
		if err := s.ctx.Wrapper.CodegenFree(buf); err != nil {
			s.log().Warn("codegen: free failed", zap.String("buffer", name), zap.Error(err))
		}
	}
}

// buffersOf returns the underlying IR buffers a node stands for: itself for
// any simple variant, or the flattened set of its constituents' buffers for
// a Fused node.
func buffersOf(n *schednode.Node) []ir.Buffer {
	if n.Kind != schednode.KindFused {
		if n.Buffer == nil {
			return nil
		}
		return []ir.Buffer{n.Buffer}
	}
	var out []ir.Buffer
	for _, c := range n.Constituents {
		out = append(out, buffersOf(c)...)
	}
	return out
}

func (s *Scheduler) buildBufferIndex() map[string]ir.Buffer {
	idx := map[string]ir.Buffer{}
	for _, n := range s.nodes {
		for _, buf := range buffersOf(n) {
			idx[buf.GetName()] = buf
		}
	}
	return idx
}

// removeKernelLocalBuffers marks every buffer produced inside a fused
// kernel and read only by sibling constituents of that same kernel as
// removed: such a buffer never crosses a kernel boundary (spec.md §4.8).
// Codegen calls it after every node has been emitted, so it only records
// the names on the graph's removed set; the allocations and frees already
// issued to the wrapper for those buffers are not withdrawn.
func (s *Scheduler) removeKernelLocalBuffers() error {
	outputs := map[string]bool{}
	for _, name := range s.ctx.Graph.GetOutputNames() {
		outputs[s.resolve(name)] = true
	}
	for name := range s.ctx.Graph.MutatedInputs {
		outputs[s.resolve(name)] = true
	}

	for _, n := range s.nodes {
		if n.Kind != schednode.KindFused {
			continue
		}
		memberNames := map[string]bool{}
		for _, c := range n.Constituents {
			for _, nm := range c.GetNames() {
				memberNames[nm] = true
			}
		}

		for nm := range memberNames {
			if outputs[nm] {
				continue
			}
			if readByOutsider(s.nodes, n, nm) {
				continue
			}
			s.ctx.Graph.RemovedBuffers[nm] = true
		}
	}
	return nil
}

func readByOutsider(nodes []*schednode.Node, self *schednode.Node, name string) bool {
	for _, other := range nodes {
		if other == self {
			continue
		}
		for _, d := range other.RW.Reads.Items() {
			if d.BufName() == name {
				return true
			}
		}
	}
	return false
}
