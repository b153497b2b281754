package dep

// Dep is either a MemoryDep or a StarDep. Equality is structural: a
// StarDep and a MemoryDep naming the same buffer are never equal — this
// is load-bearing for the vertical-fusion legality check (spec.md §3).
type Dep interface {
	// BufName is the buffer name this dependency refers to.
	BufName() string
	// Equal reports structural equality against another Dep.
	Equal(other Dep) bool
	// Rename returns a copy of this Dep with its buffer name substituted
	// per m, or itself unchanged if m has no entry for BufName().
	Rename(m map[string]string) Dep
	// String renders the dep for debug logging.
	String() string
	isDep()
}

// MemoryDep is a read or write of a named buffer at a symbolic index over
// a symbolic size. Equality is structural over all three fields.
type MemoryDep struct {
	Name  string
	Index Expr
	Sizes Size
}

func (d MemoryDep) isDep() {}

func (d MemoryDep) BufName() string { return d.Name }

func (d MemoryDep) Equal(other Dep) bool {
	o, ok := other.(MemoryDep)
	if !ok {
		return false
	}
	return d.Name == o.Name && d.Index.Equal(o.Index) && d.Sizes.Equal(o.Sizes)
}

func (d MemoryDep) Rename(m map[string]string) Dep {
	if nn, ok := m[d.Name]; ok {
		d.Name = nn
	}
	return d
}

func (d MemoryDep) String() string {
	return "MemoryDep(" + d.Name + ", " + d.Index.String() + ")"
}

// WithoutLastSize returns a copy of d with the innermost size dimension
// dropped, used to widen a reduction's write set (spec.md §4.1).
func (d MemoryDep) WithoutLastSize() MemoryDep {
	d.Sizes = d.Sizes.WithoutLast()
	return d
}

// StarDep is a conservative whole-buffer dependency, used for mutation
// edges and graph outputs.
type StarDep struct {
	Name string
}

func (d StarDep) isDep() {}

func (d StarDep) BufName() string { return d.Name }

func (d StarDep) Equal(other Dep) bool {
	o, ok := other.(StarDep)
	if !ok {
		return false
	}
	return d.Name == o.Name
}

func (d StarDep) Rename(m map[string]string) Dep {
	if nn, ok := m[d.Name]; ok {
		d.Name = nn
	}
	return d
}

func (d StarDep) String() string {
	return "StarDep(" + d.Name + ")"
}
