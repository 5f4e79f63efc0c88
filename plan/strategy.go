package plan

import (
	"fmt"
	"sort"

	"github.com/LaudateCorpus1/memplan/plan/interval"
)

// Strategy selects the heuristic used to pack buffers into the arena. The set
// is closed; the planner's dispatch switches over every member.
type Strategy int

const (
	// NoPlan disables planning entirely; the graph is left untouched.
	NoPlan Strategy = iota
	// LinearScan packs in live-range start order, recycling expired byte
	// ranges through a best-fit free list.
	LinearScan
	// GreedyBySize packs largest buffers first, each at the lowest offset
	// clear of its time-overlapping neighbors.
	GreedyBySize
	// GreedyByBreadth packs the outputs of the busiest operators first,
	// prioritizing peak concurrent footprint over raw size.
	GreedyByBreadth
)

var strategyNames = map[Strategy]string{
	NoPlan:          "none",
	LinearScan:      "linear-scan",
	GreedyBySize:    "greedy-by-size",
	GreedyByBreadth: "greedy-by-breadth",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy maps a strategy name to its Strategy value.
func ParseStrategy(name string) (Strategy, error) {
	for s, n := range strategyNames {
		if n == name {
			return s, nil
		}
	}
	return NoPlan, fmt.Errorf("unknown planning strategy %q", name)
}

// Allocations is one memory plan: each managed live range mapped to the arena
// region serving its buffer.
type Allocations map[interval.LiveRange]interval.Region

// TotalSize returns the arena size the plan implies: the furthest byte any
// region reaches.
func (a Allocations) TotalSize() uint64 {
	var total uint64
	for _, reg := range a {
		if reg.End() > total {
			total = reg.End()
		}
	}
	return total
}

// SortedRanges returns the plan's keys in (Begin, End) order.
func (a Allocations) SortedRanges() []interval.LiveRange {
	ranges := make([]interval.LiveRange, 0, len(a))
	for lvr := range a {
		ranges = append(ranges, lvr)
	}
	interval.SortRanges(ranges)
	return ranges
}

// sortedBySizeDesc orders the managed ranges by size descending, tie-broken
// by range start then end so the result is stable across runs.
func sortedBySizeDesc(managed map[interval.LiveRange]uint64) []interval.LiveRange {
	ranges := make([]interval.LiveRange, 0, len(managed))
	for lvr := range managed {
		ranges = append(ranges, lvr)
	}
	sort.Slice(ranges, func(i, j int) bool {
		if managed[ranges[i]] != managed[ranges[j]] {
			return managed[ranges[i]] > managed[ranges[j]]
		}
		return ranges[i].StartsBefore(ranges[j])
	})
	return ranges
}
