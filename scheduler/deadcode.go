package scheduler

import "github.com/sbl8/sublation/schednode"

// eliminateDeadNodes repeatedly drops any non-Output node whose user list
// is empty, recording its names as removed on the shared graph. Dropping a
// node can empty out one of its own producers' user lists in turn, so this
// runs to a fixed point rather than a single pass (spec.md §4.4).
func (s *Scheduler) eliminateDeadNodes() {
	for {
		dead := map[*schednode.Node]bool{}
		for _, n := range s.nodes {
			if n.Kind != schednode.KindOutput && len(n.Users) == 0 {
				dead[n] = true
			}
		}
		if len(dead) == 0 {
			return
		}

		kept := s.nodes[:0]
		for _, n := range s.nodes {
			if dead[n] {
				for _, nm := range n.GetNames() {
					s.ctx.Graph.RemovedBuffers[nm] = true
				}
				continue
			}
			kept = append(kept, n)
		}
		s.nodes = kept

		for _, n := range s.nodes {
			n.Users = pruneDead(n.Users, dead)
			n.InverseUsers = pruneDead(n.InverseUsers, dead)
		}
	}
}

func pruneDead(users []schednode.NodeUser, dead map[*schednode.Node]bool) []schednode.NodeUser {
	out := users[:0]
	for _, u := range users {
		if !dead[u.Node] {
			out = append(out, u)
		}
	}
	return out
}
