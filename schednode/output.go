package schednode

import "github.com/sbl8/sublation/dep"

// NewOutput builds the synthetic terminal node pinning a single graph
// output name against dead-code elimination and frees (spec.md §3
// OutputNode, §4.2 "Output pinning").
func NewOutput(name string) *Node {
	n := New(KindOutput, "output:"+name)
	n.OutputDep = dep.StarDep{Name: name}
	n.RW = dep.ReadWrites{Reads: dep.NewSet(n.OutputDep)}
	n.UnmetDependencies = n.RW.Reads
	return n
}

// PinnedName returns the buffer name this OutputNode pins.
func (n *Node) PinnedName() string {
	if n.Kind != KindOutput {
		return ""
	}
	return n.OutputDep.Name
}
