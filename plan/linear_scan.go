package plan

import (
	"sort"

	"github.com/LaudateCorpus1/memplan/plan/interval"
)

// freeList keeps expired byte ranges sorted by offset, coalescing neighbors
// on release so adjacent gaps merge back into one.
type freeList struct {
	gaps []interval.Region
}

// release returns reg to the free list, merging it with any adjacent or
// overlapping gap.
func (f *freeList) release(reg interval.Region) {
	idx := sort.Search(len(f.gaps), func(i int) bool {
		return f.gaps[i].Offset >= reg.Offset
	})
	f.gaps = append(f.gaps, interval.Region{})
	copy(f.gaps[idx+1:], f.gaps[idx:])
	f.gaps[idx] = reg

	// Coalesce around the insertion point.
	merged := f.gaps[:0]
	for _, g := range f.gaps {
		if n := len(merged); n > 0 && g.Offset <= merged[n-1].End() {
			if g.End() > merged[n-1].End() {
				merged[n-1].Size = g.End() - merged[n-1].Offset
			}
			continue
		}
		merged = append(merged, g)
	}
	f.gaps = merged
}

// takeBestFit removes and returns the offset of the smallest gap that can
// hold size bytes, keeping any remainder on the list. Returns false when no
// gap is adequate.
func (f *freeList) takeBestFit(size uint64) (uint64, bool) {
	best := -1
	for i, g := range f.gaps {
		if g.Size < size {
			continue
		}
		if best == -1 || g.Size < f.gaps[best].Size {
			best = i
		}
	}
	if best == -1 {
		return 0, false
	}
	g := f.gaps[best]
	if g.Size == size {
		f.gaps = append(f.gaps[:best], f.gaps[best+1:]...)
	} else {
		f.gaps[best] = interval.Region{Offset: g.Offset + size, Size: g.Size - size}
	}
	return g.Offset, true
}

// linearScanAllocations packs buffers in live-range start order, the way
// linear-scan register allocation assigns registers. Buffers whose ranges
// have expired return their bytes to a free list; each new buffer takes the
// smallest adequate gap, or extends the arena when none fits. O(n log n)
// with the sorted free list.
func linearScanAllocations(managed map[interval.LiveRange]uint64) Allocations {
	order := make([]interval.LiveRange, 0, len(managed))
	for lvr := range managed {
		order = append(order, lvr)
	}
	interval.SortRanges(order)

	var (
		free   freeList
		active []placement
		top    uint64
	)
	allocations := make(Allocations, len(order))
	for _, lvr := range order {
		// Expire everything that died before this buffer begins.
		stillActive := active[:0]
		for _, p := range active {
			if p.lvr.End <= lvr.Begin {
				free.release(p.reg)
			} else {
				stillActive = append(stillActive, p)
			}
		}
		active = stillActive

		size := managed[lvr]
		offset, ok := free.takeBestFit(size)
		if !ok {
			offset = top
			top += size
		}
		reg := interval.Region{Offset: offset, Size: size}
		active = append(active, placement{lvr: lvr, reg: reg})
		allocations[lvr] = reg
	}
	return allocations
}
