// Package interval provides the two value types the memory planner builds on:
// LiveRange, an ordinal span of execution steps during which a buffer must
// stay valid, and Region, a byte span inside the planned arena. Both are
// plain comparable structs, so they work directly as map keys.
package interval

import "sort"

// LiveRange is the half-open span [Begin, End) of execution ticks during
// which a buffer's contents must remain valid. Ticks are ordinal positions in
// execution order, not wall-clock time. Ranges are immutable value types.
type LiveRange struct {
	Begin int64
	End   int64
}

// Overlaps reports whether r and other share at least one tick. Two ranges
// are disjoint iff one ends at or before the other begins.
func (r LiveRange) Overlaps(other LiveRange) bool {
	return !(r.End <= other.Begin || other.End <= r.Begin)
}

// StartsBefore orders ranges by Begin, tie-broken by End. Sorting with it is
// deterministic for any set of distinct ranges.
func (r LiveRange) StartsBefore(other LiveRange) bool {
	if r.Begin != other.Begin {
		return r.Begin < other.Begin
	}
	return r.End < other.End
}

// SortRanges orders ranges by (Begin, End) in place. Anything that iterates a
// map keyed by LiveRange and emits output sorts its keys first, so plans
// never depend on map iteration order.
func SortRanges(ranges []LiveRange) {
	sort.Slice(ranges, func(i, j int) bool {
		return ranges[i].StartsBefore(ranges[j])
	})
}

// Region is the byte sub-range [Offset, Offset+Size) of the arena assigned
// to one buffer.
type Region struct {
	Offset uint64
	Size   uint64
}

// End returns the first byte past the region.
func (g Region) End() uint64 {
	return g.Offset + g.Size
}

// Overlaps reports whether two regions share at least one byte. A zero-sized
// region occupies no bytes and overlaps nothing, wherever its offset falls.
func (g Region) Overlaps(other Region) bool {
	if g.Size == 0 || other.Size == 0 {
		return false
	}
	return !(g.End() <= other.Offset || other.End() <= g.Offset)
}
