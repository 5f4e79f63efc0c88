package plan

import (
	"sort"

	"github.com/LaudateCorpus1/memplan/plan/interval"
)

// placement pairs a live range with the region already assigned to it while a
// strategy is running.
type placement struct {
	lvr interval.LiveRange
	reg interval.Region
}

// findLowestOffset returns the smallest offset at which size bytes fit
// without byte-overlapping any already placed region whose live range
// overlaps lvr. Regions with disjoint ranges are invisible here, which is
// exactly what lets them share bytes.
func findLowestOffset(placed []placement, lvr interval.LiveRange, size uint64) uint64 {
	conflicts := make([]interval.Region, 0, len(placed))
	for _, p := range placed {
		if p.lvr.Overlaps(lvr) {
			conflicts = append(conflicts, p.reg)
		}
	}
	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].Offset != conflicts[j].Offset {
			return conflicts[i].Offset < conflicts[j].Offset
		}
		return conflicts[i].Size < conflicts[j].Size
	})

	var prevEnd uint64
	for _, c := range conflicts {
		if c.Offset >= prevEnd && c.Offset-prevEnd >= size {
			break
		}
		if c.End() > prevEnd {
			prevEnd = c.End()
		}
	}
	return prevEnd
}

// greedyBySizeAllocations packs buffers largest first. Each buffer takes the
// lowest offset clear of every already placed buffer it is ever concurrently
// live with, falling past the furthest conflicting extent when no gap fits.
// A classic best-fit interval-graph coloring heuristic: deterministic, not
// guaranteed optimal, O(n^2) in the number of buffers.
func greedyBySizeAllocations(managed map[interval.LiveRange]uint64) Allocations {
	order := sortedBySizeDesc(managed)

	placed := make([]placement, 0, len(order))
	allocations := make(Allocations, len(order))
	for _, lvr := range order {
		size := managed[lvr]
		reg := interval.Region{Offset: findLowestOffset(placed, lvr, size), Size: size}
		placed = append(placed, placement{lvr: lvr, reg: reg})
		allocations[lvr] = reg
	}
	return allocations
}
