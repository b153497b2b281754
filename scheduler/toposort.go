package scheduler

import (
	"sort"

	"github.com/sbl8/sublation/schednode"
)

// topologicalSortSchedule orders s.nodes by a DFS postorder traversal over
// each node's inverse-user edges (its established producers, including
// write-after-read mutation edges) — visited in producer-name sort order so
// the result is deterministic across runs (spec.md §4.3).
func (s *Scheduler) topologicalSortSchedule() {
	visited := map[*schednode.Node]bool{}
	order := make([]*schednode.Node, 0, len(s.nodes))

	var visit func(n *schednode.Node)
	visit = func(n *schednode.Node) {
		if visited[n] {
			return
		}
		visited[n] = true

		preds := append([]schednode.NodeUser{}, n.InverseUsers...)
		sort.Slice(preds, func(i, j int) bool { return preds[i].Node.Name < preds[j].Node.Name })
		for _, u := range preds {
			visit(u.Node)
		}
		order = append(order, n)
	}

	for _, n := range s.nodes {
		visit(n)
	}

	s.nodes = order
	for i, n := range s.nodes {
		n.MinOrderVal = i
		n.MaxOrderVal = i
	}
}

// computeRecursivePredecessors runs a single forward pass over the already
// topologically-sorted schedule, accumulating each node's transitive
// dependency closure as a least fixed point over its direct predecessors'
// own names and closures (spec.md §4.3).
func (s *Scheduler) computeRecursivePredecessors() {
	for _, n := range s.nodes {
		preds := map[string]bool{}
		for _, u := range n.InverseUsers {
			for _, nm := range u.Node.GetNames() {
				preds[nm] = true
			}
			for nm := range u.Node.RecursivePreds {
				preds[nm] = true
			}
		}
		n.RecursivePreds = preds
	}
}
