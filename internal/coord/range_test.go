package coord

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRangeIntersects(t *testing.T) {
	tests := []struct {
		name string
		a, b Range
		want bool
	}{
		{name: "overlapping", a: NewRange(1, 1, 3, 5), b: NewRange(2, 1, 4, 1), want: true},
		{name: "touching end to start", a: NewRange(1, 1, 2, 4), b: NewRange(2, 4, 3, 1), want: true},
		{name: "disjoint lines", a: NewRange(1, 1, 1, 5), b: NewRange(3, 1, 3, 5), want: false},
		{name: "contained", a: NewRange(1, 1, 5, 1), b: NewRange(2, 1, 3, 1), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Intersects(tt.b))
			assert.Equal(t, tt.want, tt.b.Intersects(tt.a))
		})
	}
}

func TestRangeOverlapsExcludesTouching(t *testing.T) {
	a := NewRange(1, 1, 2, 4)
	b := NewRange(2, 4, 3, 1)
	assert.True(t, a.Intersects(b))
	assert.False(t, a.Overlaps(b))
}

func TestRangeMerge(t *testing.T) {
	a := NewRange(2, 1, 4, 6)
	b := NewRange(4, 1, 6, 3)
	assert.Equal(t, NewRange(2, 1, 6, 3), a.Merge(b))
	assert.Equal(t, NewRange(2, 1, 6, 3), b.Merge(a))
}

func TestUnion(t *testing.T) {
	tests := []struct {
		name   string
		ranges []Range
		want   []Range
	}{
		{
			name:   "touching ranges collapse",
			ranges: []Range{NewRange(2, 1, 4, 6), NewRange(4, 1, 6, 3)},
			want:   []Range{NewRange(2, 1, 6, 3)},
		},
		{
			name:   "disjoint ranges stay separate",
			ranges: []Range{NewRange(1, 1, 1, 6), NewRange(3, 1, 3, 6)},
			want:   []Range{NewRange(1, 1, 1, 6), NewRange(3, 1, 3, 6)},
		},
		{
			name:   "unsorted input is ordered",
			ranges: []Range{NewRange(5, 1, 6, 1), NewRange(1, 1, 2, 1), NewRange(2, 1, 3, 1)},
			want:   []Range{NewRange(1, 1, 3, 1), NewRange(5, 1, 6, 1)},
		},
		{
			name:   "empty input",
			ranges: nil,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Union(tt.ranges))
		})
	}
}
