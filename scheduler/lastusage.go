package scheduler

// computeLastUsage walks the final schedule in reverse, tracking which
// canonical buffer names are still needed by some later node
// (future_used_buffers). A node's LastUsage is the set of buffers it
// touches that no later node touches — the point at which the wrapper may
// free them (spec.md §4.6).
func (s *Scheduler) computeLastUsage() {
	futureUsed := map[string]bool{}
	for _, name := range s.ctx.Graph.GetOutputNames() {
		futureUsed[s.resolve(name)] = true
	}
	for name := range s.ctx.Graph.MutatedInputs {
		futureUsed[s.resolve(name)] = true
	}

	for i := len(s.nodes) - 1; i >= 0; i-- {
		n := s.nodes[i]

		touched := map[string]bool{}
		for _, d := range n.RW.Reads.Items() {
			touched[s.resolve(d.BufName())] = true
		}
		for _, d := range n.RW.Writes.Items() {
			touched[s.resolve(d.BufName())] = true
		}

		last := map[string]bool{}
		for nm := range touched {
			if !futureUsed[nm] {
				last[nm] = true
			}
		}
		n.LastUsage = last

		for nm := range touched {
			futureUsed[nm] = true
		}
	}
}
