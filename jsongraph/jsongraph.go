// Package jsongraph loads a textual description of IR buffers from JSON
// and exposes each as an ir.Buffer, so the scheduler can be driven from a
// file on disk instead of requiring a real compiler front end (which is
// out of scope; see the command built on top of this package).
package jsongraph

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/sbl8/sublation/dep"
	"github.com/sbl8/sublation/ir"
)

// Dep is one read or write entry in a node's JSON description.
type Dep struct {
	Name  string  `json:"name"`
	Star  bool    `json:"star"`
	Index string  `json:"index"`
	Sizes []int64 `json:"sizes"`
}

func (d Dep) toDep() dep.Dep {
	if d.Star {
		return dep.StarDep{Name: d.Name}
	}
	sizes := make(dep.Size, len(d.Sizes))
	for i, sz := range d.Sizes {
		sizes[i] = dep.NewConst(sz)
	}
	idx := dep.NewConst(0)
	if d.Index != "" {
		idx = dep.NewVar(d.Index)
	}
	return dep.MemoryDep{Name: d.Name, Index: idx, Sizes: sizes}
}

// Node is one buffer's JSON description.
type Node struct {
	Name       string   `json:"name"`
	Device     string   `json:"device"`
	Kind       string   `json:"kind"` // "computed", "extern", "externtemplate"
	NoOp       bool     `json:"noOp"`
	Reduction  bool     `json:"reduction"`
	Alias      []string `json:"alias"`
	Mutates    []string `json:"mutates"`
	Reads      []Dep    `json:"reads"`
	Writes     []Dep    `json:"writes"`
	Pointwise  []int64  `json:"pointwise"`
	ReductionS []int64  `json:"reductionSizes"`
	GroupSizes []int64  `json:"groupSizes"`
}

// Graph is the top-level JSON document: the node list plus the graph's
// output and mutated-input names.
type Graph struct {
	GraphInputs   []string `json:"graphInputs"`
	Constants     []string `json:"constants"`
	Outputs       []string `json:"outputs"`
	MutatedInputs []string `json:"mutatedInputs"`
	Nodes         []Node   `json:"nodes"`
}

// Parse decodes a Graph from r.
func Parse(r io.Reader) (*Graph, error) {
	var g Graph
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return nil, fmt.Errorf("jsongraph: decode: %w", err)
	}
	return &g, nil
}

// Buffers converts every node in the graph to an ir.Buffer in declaration
// order.
func (g *Graph) Buffers() []ir.Buffer {
	out := make([]ir.Buffer, len(g.Nodes))
	for i, n := range g.Nodes {
		out[i] = &buffer{n: n}
	}
	return out
}

func sizesOf(vals []int64) dep.Size {
	out := make(dep.Size, len(vals))
	for i, v := range vals {
		out[i] = dep.NewConst(v)
	}
	return out
}

// buffer adapts a Node to ir.Buffer.
type buffer struct {
	n Node
}

func (b *buffer) GetName() string        { return b.n.Name }
func (b *buffer) GetDevice() ir.Device   { return ir.Device(b.n.Device) }
func (b *buffer) GetAliasNames() []string { return b.n.Alias }
func (b *buffer) GetMutationNames() []string {
	return b.n.Mutates
}
func (b *buffer) GetReadWrites() dep.ReadWrites {
	reads := make([]dep.Dep, len(b.n.Reads))
	for i, r := range b.n.Reads {
		reads[i] = r.toDep()
	}
	writes := make([]dep.Dep, len(b.n.Writes))
	for i, w := range b.n.Writes {
		writes[i] = w.toDep()
	}
	return dep.ReadWrites{Reads: dep.NewSet(reads...), Writes: dep.NewSet(writes...)}
}
func (b *buffer) IsNoOp() bool { return b.n.NoOp }
func (b *buffer) ShouldAllocate() bool {
	return b.n.Kind != "nop"
}
func (b *buffer) Kind() ir.Kind {
	switch b.n.Kind {
	case "externtemplate":
		return ir.KindExternTemplate
	case "extern":
		return ir.KindExtern
	default:
		return ir.KindComputed
	}
}
func (b *buffer) Origins() []string { return nil }
func (b *buffer) IsReduction() bool { return b.n.Reduction }

func (b *buffer) SimplifyAndReorder() (dep.Size, dep.Size, ir.LoopBody, error) {
	return sizesOf(b.n.Pointwise), sizesOf(b.n.ReductionS), constBody{rw: b.GetReadWrites()}, nil
}
func (b *buffer) Canonicalize() error { return nil }
func (b *buffer) GetGroupStride() (dep.Size, []int, error) {
	return sizesOf(b.n.GroupSizes), nil, nil
}
func (b *buffer) Codegen(w ir.WrapperCode) error {
	if w == nil {
		return nil
	}
	w.WriteComment(fmt.Sprintf("extern call: %s", b.n.Name))
	return nil
}

type constBody struct {
	rw dep.ReadWrites
}

func (c constBody) Invoke(indexVars []string) dep.ReadWrites { return c.rw }
