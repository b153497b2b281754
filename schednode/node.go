// Package schednode implements the scheduler's polymorphic node type: a
// tagged sum over Computed, Template, Extern, Nop, Fused, and the
// synthetic Output variants (spec.md §3, §4.1, §9).
package schednode

import (
	"errors"
	"fmt"

	"github.com/sbl8/sublation/dep"
	"github.com/sbl8/sublation/ir"
)

// Kind tags which variant a Node carries.
type Kind uint8

const (
	KindComputed Kind = iota
	KindTemplate
	KindExtern
	KindNop
	KindFused
	KindOutput
)

func (k Kind) String() string {
	switch k {
	case KindComputed:
		return "computed"
	case KindTemplate:
		return "template"
	case KindExtern:
		return "extern"
	case KindNop:
		return "nop"
	case KindFused:
		return "fused"
	case KindOutput:
		return "output"
	default:
		return "unknown"
	}
}

// ErrNotApplicable is returned by variant-only methods called on the
// wrong variant (spec.md §9: "methods forbidden on the fused variant ...
// are best expressed as fallible operations"). Callers never invoke these
// on the wrong variant during normal flow; tests exercise the error path
// directly.
var ErrNotApplicable = errors.New("schednode: operation not applicable to this node variant")

// NodeUser is an edge out of a producer to a downstream consumer.
type NodeUser struct {
	Node       *Node
	CanInplace bool
}

// Node is the common header plus variant payload for every scheduler
// node (spec.md §3).
type Node struct {
	Kind Kind
	Name string

	Buffer ir.Buffer // nil for Fused and Output

	RW                 dep.ReadWrites
	UnmetDependencies  dep.Set
	Users              []NodeUser
	InverseUsers       []NodeUser
	RecursivePreds     map[string]bool
	MinOrderVal        int
	MaxOrderVal        int
	LastUsage          map[string]bool

	// Computed/Template-only
	Group GroupInfo

	// Fused-only
	Constituents []*Node

	// Output-only: the single StarDep pinning a graph output.
	OutputDep dep.StarDep
}

// GroupInfo is the (device, opaque-group-key) pair computed for Computed
// and Template nodes (spec.md §4.1).
type GroupInfo struct {
	Device ir.Device
	Key    ir.GroupKey
}

// New builds a bare node of the given kind/name with empty bookkeeping
// fields initialized. Variant-specific construction lives in classify.go.
func New(kind Kind, name string) *Node {
	return &Node{
		Kind:           kind,
		Name:           name,
		UnmetDependencies: dep.Set{},
		RecursivePreds: map[string]bool{},
		LastUsage:      map[string]bool{},
	}
}

// GetNames returns the set of buffer names this node stands for: a single
// name for every variant except Fused, where it is the union of
// constituent names (spec.md invariant 5).
func (n *Node) GetNames() []string {
	if n.Kind != KindFused {
		return []string{n.Name}
	}
	var names []string
	seen := map[string]bool{}
	for _, c := range n.Constituents {
		for _, nm := range c.GetNames() {
			if !seen[nm] {
				seen[nm] = true
				names = append(names, nm)
			}
		}
	}
	return names
}

// ReadWrites returns the node's read/write bundle.
func (n *Node) ReadWrites() dep.ReadWrites { return n.RW }

// MinOrder / MaxOrder report the schedule positions the node spans. A
// fused node spans its constituents' min/max (spec.md §3).
func (n *Node) MinOrder() int { return n.MinOrderVal }
func (n *Node) MaxOrder() int { return n.MaxOrderVal }

// RecursivePredecessors returns the transitive closure of names this node
// (directly or indirectly) depends on.
func (n *Node) RecursivePredecessors() map[string]bool { return n.RecursivePreds }

// IsReduction reports whether the underlying buffer reduces over a
// trailing dimension. Fused nodes are a reduction if any constituent is.
func (n *Node) IsReduction() bool {
	switch n.Kind {
	case KindFused:
		for _, c := range n.Constituents {
			if c.IsReduction() {
				return true
			}
		}
		return false
	case KindComputed:
		return n.Buffer != nil && n.Buffer.IsReduction()
	default:
		return false
	}
}

// IsNoOp reports whether this node is the Nop variant.
func (n *Node) IsNoOp() bool { return n.Kind == KindNop }

// IsExtern reports whether this node is the (non-template) Extern
// variant.
func (n *Node) IsExtern() bool { return n.Kind == KindExtern }

// IsTemplate reports whether this node is the Template variant, or a
// Fused node headed by one.
func (n *Node) IsTemplate() bool {
	if n.Kind == KindTemplate {
		return true
	}
	if n.Kind == KindFused && len(n.Constituents) > 0 {
		return n.Constituents[0].IsTemplate()
	}
	return false
}

// GetAliasNames returns the underlying buffer's alias names. Not
// applicable to Fused or Output nodes.
func (n *Node) GetAliasNames() ([]string, error) {
	if n.Buffer == nil {
		return nil, fmt.Errorf("%w: GetAliasNames on %s node %q", ErrNotApplicable, n.Kind, n.Name)
	}
	return n.Buffer.GetAliasNames(), nil
}

// GetMutationNames returns the underlying buffer's mutation targets. Not
// applicable to Fused or Output nodes.
func (n *Node) GetMutationNames() ([]string, error) {
	if n.Buffer == nil {
		return nil, fmt.Errorf("%w: GetMutationNames on %s node %q", ErrNotApplicable, n.Kind, n.Name)
	}
	return n.Buffer.GetMutationNames(), nil
}

// ShouldAllocate reports whether a wrapper allocation is needed for this
// node. Nop and Output nodes never allocate.
func (n *Node) ShouldAllocate() bool {
	switch n.Kind {
	case KindNop, KindOutput:
		return false
	case KindFused:
		for _, c := range n.Constituents {
			if c.ShouldAllocate() {
				return true
			}
		}
		return false
	default:
		return n.Buffer != nil && n.Buffer.ShouldAllocate()
	}
}

// Device returns the node's device, or "" for variants with no device
// (Nop, Output, or an empty Fused node).
func (n *Node) Device() ir.Device {
	switch n.Kind {
	case KindComputed, KindTemplate:
		return n.Group.Device
	case KindExtern:
		if n.Buffer != nil {
			return n.Buffer.GetDevice()
		}
	case KindFused:
		if len(n.Constituents) > 0 {
			return n.Constituents[0].Device()
		}
	}
	return ""
}

// CanInplace reports whether reading r may reuse its buffer in place.
// Always false here: the in-place buffer reuse path is an Open Question
// left disabled (spec.md §9) and is never exercised.
func (n *Node) CanInplace(r dep.Dep) bool {
	return false
}

// SetUsers installs the node's user list, deduplicating by node identity
// and AND-ing CanInplace across duplicates (spec.md §4.2).
func (n *Node) SetUsers(users []NodeUser) {
	byNode := map[*Node]*NodeUser{}
	var order []*Node
	for _, u := range users {
		if existing, ok := byNode[u.Node]; ok {
			existing.CanInplace = existing.CanInplace && u.CanInplace
			continue
		}
		uCopy := u
		byNode[u.Node] = &uCopy
		order = append(order, u.Node)
	}
	out := make([]NodeUser, 0, len(order))
	for _, node := range order {
		out = append(out, *byNode[node])
	}
	n.Users = out
}
