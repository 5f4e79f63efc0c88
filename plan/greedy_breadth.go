package plan

import (
	"sort"

	"github.com/LaudateCorpus1/memplan/plan/graph"
	"github.com/LaudateCorpus1/memplan/plan/interval"
)

// greedyByBreadthAllocations packs by operator breadth: the operators whose
// managed outputs make up the largest concurrent footprint place their
// buffers first, so the buffers competing for memory at the same execution
// step are co-located before smaller traffic fills the gaps. Placement itself
// reuses the lowest-offset search from greedy-by-size, so the disjointness
// guarantee is identical; only the ordering differs.
func greedyByBreadthAllocations(
	sizes map[*graph.Value]uint64,
	ranges map[*graph.Value]interval.LiveRange,
	outNodes []*graph.Node,
) Allocations {
	type opEntry struct {
		node    *graph.Node
		breadth uint64
		begin   int64
		outputs []*graph.Value
	}

	ops := make([]opEntry, 0, len(outNodes))
	for _, n := range outNodes {
		entry := opEntry{node: n, begin: int64(1) << 62}
		for _, out := range n.Outputs() {
			size, ok := sizes[out]
			if !ok {
				continue
			}
			entry.breadth += size
			entry.outputs = append(entry.outputs, out)
			if lvr, ok := ranges[out]; ok && lvr.Begin < entry.begin {
				entry.begin = lvr.Begin
			}
		}
		if len(entry.outputs) > 0 {
			ops = append(ops, entry)
		}
	}
	sort.Slice(ops, func(i, j int) bool {
		if ops[i].breadth != ops[j].breadth {
			return ops[i].breadth > ops[j].breadth
		}
		if ops[i].begin != ops[j].begin {
			return ops[i].begin < ops[j].begin
		}
		return ops[i].node.Header() < ops[j].node.Header()
	})

	placed := make([]placement, 0, len(sizes))
	allocations := make(Allocations, len(sizes))
	seen := make(map[interval.LiveRange]bool, len(sizes))

	place := func(lvr interval.LiveRange, size uint64) {
		if seen[lvr] {
			return
		}
		seen[lvr] = true
		reg := interval.Region{Offset: findLowestOffset(placed, lvr, size), Size: size}
		placed = append(placed, placement{lvr: lvr, reg: reg})
		allocations[lvr] = reg
	}

	for _, op := range ops {
		outs := op.outputs
		sort.Slice(outs, func(i, j int) bool {
			if sizes[outs[i]] != sizes[outs[j]] {
				return sizes[outs[i]] > sizes[outs[j]]
			}
			return ranges[outs[i]].StartsBefore(ranges[outs[j]])
		})
		for _, out := range outs {
			place(ranges[out], sizes[out])
		}
	}

	// Managed values not produced by any out-capable node cannot happen when
	// the static adapter built the input, but the contract is over the maps.
	leftovers := make([]interval.LiveRange, 0)
	leftoverSizes := make(map[interval.LiveRange]uint64)
	for v, lvr := range ranges {
		if size, ok := sizes[v]; ok && !seen[lvr] {
			leftovers = append(leftovers, lvr)
			leftoverSizes[lvr] = size
		}
	}
	sort.Slice(leftovers, func(i, j int) bool {
		if leftoverSizes[leftovers[i]] != leftoverSizes[leftovers[j]] {
			return leftoverSizes[leftovers[i]] > leftoverSizes[leftovers[j]]
		}
		return leftovers[i].StartsBefore(leftovers[j])
	})
	for _, lvr := range leftovers {
		place(lvr, leftoverSizes[lvr])
	}

	return allocations
}
