// Package looporder implements the stride-based loop-order permutation
// heuristic used by device backends when emitting kernels (spec.md
// §4.9). The comparator logic mirrors core.OptimalBatchSize /
// kernels.BatchSize's stride/cache-width reasoning (teacher:
// core/layout.go, kernels/optimize.go), generalized from "pick a batch
// width" to "pick a dimension order".
package looporder

import "sort"

// StrideMatrix is S[reader][dim]: the stride buffer reader takes over
// dimension dim. A stride of 0 means the reader does not vary along that
// dimension.
type StrideMatrix [][]int64

// Pick returns a permutation of [0, len(sizes)) from outermost to
// innermost loop, per spec.md §4.9. If priorityIdx is non-empty, the
// ordering is computed using only those readers' rows. If enabled is
// false, the default ordering reversed(range(n_dims)) is returned
// without consulting strides at all.
func Pick(strides StrideMatrix, sizes []int64, priorityIdx []int, enabled bool) []int {
	n := len(sizes)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	if !enabled {
		reverse(order)
		return order
	}

	rows := strides
	if len(priorityIdx) > 0 {
		rows = make(StrideMatrix, len(priorityIdx))
		for i, r := range priorityIdx {
			if r >= 0 && r < len(strides) {
				rows[i] = strides[r]
			}
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return precedes(order[i], order[j], rows, sizes)
	})

	return order
}

// precedes reports whether dim a should be placed before dim b (a is
// "more outer") under the spec.md §4.9 comparator.
func precedes(a, b int, rows StrideMatrix, sizes []int64) bool {
	aIsOne := sizes[a] == 1
	bIsOne := sizes[b] == 1
	if aIsOne || bIsOne {
		// Push size-1 dims to the innermost positions: a precedes b iff b
		// is the size-1 one (a stays outer, more significant).
		if aIsOne && bIsOne {
			return false
		}
		return bIsOne
	}

	aBeforeB := true
	bBeforeA := true
	for _, row := range rows {
		if row == nil {
			continue
		}
		sa, sb := row[a], row[b]
		if !(sb == 0 || sa < sb) {
			aBeforeB = false
		}
		if !(sa == 0 || sb < sa) {
			bBeforeA = false
		}
	}

	switch {
	case aBeforeB && !bBeforeA:
		return true
	case bBeforeA && !aBeforeB:
		return false
	default:
		// Fall back to cmp(b, a): prefer higher-index, i.e. stay
		// contiguous (spec.md §4.9).
		return b < a
	}
}

func reverse(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
