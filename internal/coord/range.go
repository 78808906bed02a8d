package coord

import "sort"

// Range is a span between two Positions, Start inclusive and End
// exclusive in the usual splice sense. Start must not sort after End
// once both are resolved.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// NewRange builds a Range from raw coordinates.
func NewRange(startLine, startChar, endLine, endChar int) Range {
	return Range{
		Start: Position{Line: startLine, Character: startChar},
		End:   Position{Line: endLine, Character: endChar},
	}
}

// IsEmpty reports whether the range covers no content.
func (r Range) IsEmpty() bool {
	return r.Start == r.End
}

// Contains reports whether the resolved position lies within the range,
// boundaries included.
func (r Range) Contains(p Position) bool {
	return r.Start.IsBeforeOrEqual(p) && p.IsBeforeOrEqual(r.End)
}

// Intersects reports whether two resolved ranges overlap or touch.
func (r Range) Intersects(other Range) bool {
	return r.Start.IsBeforeOrEqual(other.End) && other.Start.IsBeforeOrEqual(r.End)
}

// Overlaps reports whether two resolved ranges share content, touching
// endpoints excluded. Used to reject conflicting edit batches while still
// permitting adjacent edits.
func (r Range) Overlaps(other Range) bool {
	return r.Start.IsBefore(other.End) && other.Start.IsBefore(r.End)
}

// Merge returns the smallest Range covering both r and other.
// Only meaningful when Intersects(other) is true.
func (r Range) Merge(other Range) Range {
	merged := r
	if other.Start.IsBefore(merged.Start) {
		merged.Start = other.Start
	}
	if merged.End.IsBefore(other.End) {
		merged.End = other.End
	}
	return merged
}

// Union collapses a set of resolved ranges into a minimal ordered cover:
// sorted by start, with every intersecting or touching pair merged.
// The input slice is not modified.
func Union(ranges []Range) []Range {
	if len(ranges) == 0 {
		return nil
	}

	sorted := make([]Range, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start.IsBefore(sorted[j].Start)
		}
		return sorted[i].End.IsBefore(sorted[j].End)
	})

	cover := []Range{sorted[0]}
	for _, r := range sorted[1:] {
		last := &cover[len(cover)-1]
		if last.Intersects(r) {
			*last = last.Merge(r)
			continue
		}
		cover = append(cover, r)
	}
	return cover
}
