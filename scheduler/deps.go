package scheduler

import (
	"errors"
	"fmt"

	"github.com/sbl8/sublation/dep"
	"github.com/sbl8/sublation/schednode"
)

// unionFind groups buffer names into alias classes. The canonical member of
// a class is always its lexicographically smallest name, so the resolved
// name of a class never depends on the order aliases were declared in
// (spec.md §4.2 determinism requirement).
type unionFind struct {
	parent map[string]string
}

func newUnionFind() *unionFind { return &unionFind{parent: map[string]string{}} }

func (u *unionFind) find(name string) string {
	root, ok := u.parent[name]
	if !ok {
		return name
	}
	if root == name {
		return name
	}
	canon := u.find(root)
	u.parent[name] = canon
	return canon
}

func (u *unionFind) union(a, b string) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if rb < ra {
		u.parent[ra] = rb
	} else {
		u.parent[rb] = ra
	}
}

// computeDependencies builds every producer→consumer edge in the graph:
// it resolves alias classes and mutation-induced renames to a single
// canonical name per storage location, wires each node's unmet
// dependencies to the node currently producing that storage, enforces
// write-after-read ordering across a mutation, and pins graph outputs
// and mutated inputs against dead-code elimination (spec.md §4.2).
func (s *Scheduler) computeDependencies() error {
	aliases := newUnionFind()
	for _, n := range s.nodes {
		names, err := n.GetAliasNames()
		if err != nil && !errors.Is(err, schednode.ErrNotApplicable) {
			return fmt.Errorf("node %q: %w", n.Name, err)
		}
		for _, a := range names {
			aliases.union(n.Name, a)
		}
	}

	// resolve chases a name through its alias class and then forward
	// through every mutation rename recorded so far, so a name always
	// resolves to whichever node currently owns that storage location
	// (spec.md §4.2 "mutation_renames", §3 invariant 6).
	resolve := func(name string) string {
		return s.renameThroughMutations(aliases.find(name))
	}

	renameMapFor := func(names []string) map[string]string {
		m := make(map[string]string, len(names))
		for _, nm := range names {
			if real := resolve(nm); real != nm {
				m[nm] = real
			}
		}
		return m
	}

	producerOf := map[string]*schednode.Node{}
	readersOf := map[string][]*schednode.Node{}
	s.canonical = map[string]string{}

	connect := func(producer, consumer *schednode.Node, canInplace bool) {
		if producer == consumer {
			return
		}
		producer.Users = append(producer.Users, schednode.NodeUser{Node: consumer, CanInplace: canInplace})
		consumer.InverseUsers = append(consumer.InverseUsers, schednode.NodeUser{Node: producer, CanInplace: canInplace})
	}

	for _, n := range s.nodes {
		// Rewrite this node's own reads/writes/unmet-dependencies through
		// every alias and mutation rename established by earlier nodes
		// before using them below (spec.md §4.2 step 4: "node.read_writes
		// = node.read_writes.rename(mutation_renames)"). This is the pure
		// rename machinery ReadWrites.Rename/Set.Rename exist for.
		rwNames := append(append([]string{}, n.RW.Reads.Names()...), n.RW.Writes.Names()...)
		if m := renameMapFor(rwNames); len(m) > 0 {
			n.RW = n.RW.Rename(m)
		}
		if m := renameMapFor(n.UnmetDependencies.Names()); len(m) > 0 {
			n.UnmetDependencies = n.UnmetDependencies.Rename(m)
		}

		mutTargets, err := n.GetMutationNames()
		if err != nil && !errors.Is(err, schednode.ErrNotApplicable) {
			return fmt.Errorf("node %q: %w", n.Name, err)
		}

		for _, target := range mutTargets {
			real := resolve(target)
			s.canonical[target] = real
			n.RW = n.RW.WithRead(real)
			n.UnmetDependencies.Add(dep.StarDep{Name: real})

			// The StarDep above resolves to n itself once the rename below
			// is recorded, so the edge from the prior writer is made here.
			if producer, ok := producerOf[real]; ok {
				connect(producer, n, false)
			}

			for _, reader := range readersOf[real] {
				if reader != n {
					connect(reader, n, false)
				}
			}

			// mutation_real_name: n's own name maps back to whatever real
			// underlying storage name survives the rename chain, for
			// backend emission (spec.md §4.2 step 5).
			priorReal := real
			if r, ok := s.mutationRealName[real]; ok {
				priorReal = r
			}
			s.mutationRealName[n.Name] = priorReal

			// mutation_renames: from here on, every reference to `real`
			// must resolve forward to n, the node that now owns this
			// storage location (spec.md §4.2 step 6, §3 invariant 6).
			s.mutationRenames[real] = n.Name
		}

		for _, d := range n.UnmetDependencies.Items() {
			real := resolve(d.BufName())
			s.canonical[d.BufName()] = real
			readersOf[real] = append(readersOf[real], n)
			if producer, ok := producerOf[real]; ok {
				connect(producer, n, n.CanInplace(d))
			}
		}

		for _, name := range n.GetNames() {
			real := resolve(name)
			s.canonical[name] = real
			producerOf[real] = n
		}
	}

	for _, name := range s.ctx.Graph.GetOutputNames() {
		out := schednode.NewOutput(name)
		if producer, ok := producerOf[resolve(name)]; ok {
			connect(producer, out, false)
		}
		s.nodes = append(s.nodes, out)
	}
	for name := range s.ctx.Graph.MutatedInputs {
		out := schednode.NewOutput(name)
		if producer, ok := producerOf[resolve(name)]; ok {
			connect(producer, out, false)
		}
		s.nodes = append(s.nodes, out)
	}

	for _, n := range s.nodes {
		n.SetUsers(n.Users)
	}

	return nil
}

// renameThroughMutations follows the mutation-rename chain (an original or
// prior-alias name to the name of the node currently owning that storage)
// to its fixed point, path-compressing every name visited along the way so
// later lookups are O(1) (spec.md §4.2 "mutation_renames").
func (s *Scheduler) renameThroughMutations(name string) string {
	var visited []string
	cur := name
	for {
		next, ok := s.mutationRenames[cur]
		if !ok || next == cur {
			break
		}
		visited = append(visited, cur)
		cur = next
	}
	for _, v := range visited {
		s.mutationRenames[v] = cur
	}
	return cur
}
