package dep

import "github.com/samber/lo"

// Set is an order-preserving, structurally-deduplicated collection of
// Deps. Insertion order is kept because scheduler diagnostics (debug logs,
// golden-file tests) are stable across runs only if set iteration is.
type Set struct {
	items []Dep
}

// NewSet builds a Set from the given deps, deduplicating structurally.
func NewSet(items ...Dep) Set {
	s := Set{}
	for _, it := range items {
		s.Add(it)
	}
	return s
}

// Add inserts d if no structurally-equal element is already present.
func (s *Set) Add(d Dep) {
	for _, existing := range s.items {
		if existing.Equal(d) {
			return
		}
	}
	s.items = append(s.items, d)
}

// Items returns the set's elements in insertion order. Callers must not
// mutate the returned slice.
func (s Set) Items() []Dep { return s.items }

// Len reports the number of elements.
func (s Set) Len() int { return len(s.items) }

// Names returns the deduplicated buffer names referenced by the set's
// elements, in first-seen order.
func (s Set) Names() []string {
	return lo.Uniq(lo.Map(s.items, func(d Dep, _ int) string { return d.BufName() }))
}

// Contains reports whether any element names buf.
func (s Set) Contains(buf string) bool {
	for _, d := range s.items {
		if d.BufName() == buf {
			return true
		}
	}
	return false
}

// Find returns the first element naming buf, if any.
func (s Set) Find(buf string) (Dep, bool) {
	for _, d := range s.items {
		if d.BufName() == buf {
			return d, true
		}
	}
	return nil, false
}

// Rename returns a new Set with every element renamed through m. Pure:
// never mutates the receiver (spec.md §3.1 — callers may still hold the
// old set for debug output after renaming).
func (s Set) Rename(m map[string]string) Set {
	out := Set{items: make([]Dep, 0, len(s.items))}
	for _, d := range s.items {
		out.Add(d.Rename(m))
	}
	return out
}

// Union returns a new Set containing the elements of both sets.
func (s Set) Union(o Set) Set {
	out := Set{items: make([]Dep, 0, len(s.items)+len(o.items))}
	for _, d := range s.items {
		out.Add(d)
	}
	for _, d := range o.items {
		out.Add(d)
	}
	return out
}

// Minus returns a new Set containing elements of s with no structurally
// equal element in o.
func (s Set) Minus(o Set) Set {
	out := Set{}
	for _, d := range s.items {
		found := false
		for _, od := range o.items {
			if d.Equal(od) {
				found = true
				break
			}
		}
		if !found {
			out.Add(d)
		}
	}
	return out
}

// FilterByName returns the subset of elements whose BufName is in names.
func (s Set) FilterByName(names map[string]bool) Set {
	out := Set{}
	for _, d := range s.items {
		if names[d.BufName()] {
			out.Add(d)
		}
	}
	return out
}

// ReadWrites is the (reads, writes) bundle every scheduler node carries.
type ReadWrites struct {
	Reads  Set
	Writes Set
}

// Merge returns the union of reads and writes of rw and other — used when
// forming a fused node's bundle from its constituents.
func (rw ReadWrites) Merge(other ReadWrites) ReadWrites {
	return ReadWrites{
		Reads:  rw.Reads.Union(other.Reads),
		Writes: rw.Writes.Union(other.Writes),
	}
}

// Rename returns a new ReadWrites with every dep renamed through m.
func (rw ReadWrites) Rename(m map[string]string) ReadWrites {
	return ReadWrites{
		Reads:  rw.Reads.Rename(m),
		Writes: rw.Writes.Rename(m),
	}
}

// WithRead returns a copy of rw with an added StarDep read on name.
func (rw ReadWrites) WithRead(name string) ReadWrites {
	reads := rw.Reads
	reads.Add(StarDep{Name: name})
	return ReadWrites{Reads: reads, Writes: rw.Writes}
}

// WidenReductionWrites widens the write set of a last-dim reduction: for
// every MemoryDep write, it also adds a copy with the innermost size
// dimension stripped, so downstream MemoryDep comparisons against
// non-reduction consumers match on the non-reduction prefix (spec.md
// §4.1, worked scenario 6).
//
// The original implementation also widened non-last-dim reductions by
// swapping sizes; that was reverted upstream because it broke a
// downstream symbolic comparison (spec.md §9 Open Questions) and is not
// reproduced here — only the last-dim strip runs.
func (rw ReadWrites) WidenReductionWrites() ReadWrites {
	writes := rw.Writes
	for _, d := range rw.Writes.Items() {
		if md, ok := d.(MemoryDep); ok && len(md.Sizes) > 0 {
			writes.Add(md.WithoutLastSize())
		}
	}
	return ReadWrites{Reads: rw.Reads, Writes: writes}
}
