package looporder

import (
	"reflect"
	"testing"
)

func TestPickDisabledReturnsReversed(t *testing.T) {
	t.Parallel()
	got := Pick(nil, []int64{4, 8, 16}, nil, false)
	want := []int{2, 1, 0}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Pick(disabled) = %v, want %v", got, want)
	}
}

func TestPickPushesSizeOneDimsInnermost(t *testing.T) {
	t.Parallel()
	strides := StrideMatrix{
		{1, 0, 4},
	}
	got := Pick(strides, []int64{8, 1, 8}, nil, true)

	pos := map[int]int{}
	for i, d := range got {
		pos[d] = i
	}
	if pos[1] <= pos[0] || pos[1] <= pos[2] {
		t.Errorf("expected size-1 dim 1 to be innermost, got order %v", got)
	}
}

func TestPickPrioritySubsetUsesOnlyThoseRows(t *testing.T) {
	t.Parallel()
	strides := StrideMatrix{
		{1, 8},
		{8, 1},
	}
	sizes := []int64{4, 4}

	full := Pick(strides, sizes, nil, true)
	prio0 := Pick(strides, sizes, []int{0}, true)
	prio1 := Pick(strides, sizes, []int{1}, true)

	if reflect.DeepEqual(prio0, prio1) {
		t.Errorf("expected different orders for disjoint priority subsets, got %v for both", prio0)
	}
	_ = full
}

func TestAlignSize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		size, align, want int
	}{
		{0, 32, 0},
		{1, 32, 32},
		{32, 32, 32},
		{33, 32, 64},
	}
	for _, tt := range tests {
		if got := AlignSize(tt.size, tt.align); got != tt.want {
			t.Errorf("AlignSize(%d, %d) = %d, want %d", tt.size, tt.align, got, tt.want)
		}
	}
}
