package plan

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/LaudateCorpus1/memplan/plan/graph"
	"github.com/LaudateCorpus1/memplan/plan/interval"
	"github.com/LaudateCorpus1/memplan/plan/trace"
)

// ErrPlanExceedsArena signals a planner defect: a strategy produced a region
// reaching past the arena size derived from its own output. User input can
// never trigger it.
var ErrPlanExceedsArena = errors.New("allocation exceeds previously planned memory")

// sizesStrides returns the shape and strides to wire into a binding node.
// Profiled sizes are used when present with a nonzero leading dimension,
// else the shape collapses to [0]; missing strides derive row-major from the
// shape. Both slices are fresh copies: the binding attributes must not track
// later mutations of the value's type.
func sizesStrides(t *graph.TensorType) ([]int64, []int64) {
	sizes := []int64{0}
	if len(t.Sizes) > 0 && t.Sizes[0] != 0 {
		sizes = append([]int64(nil), t.Sizes...)
	}
	strides := append([]int64(nil), t.Strides...)
	if len(strides) == 0 || strides[0] == 0 {
		strides = graph.DefaultStrides(sizes)
	}
	return sizes, strides
}

// insertAllocStorageNode prepends the single arena reservation: one
// AllocateStorage node carrying the total size and target device.
func insertAllocStorageNode(g *graph.Graph, totalSize uint64) *graph.Node {
	storage := g.Create(graph.KindAllocateStorage, 1)
	storage.SetInt(graph.AttrTotalSize, int64(totalSize))
	storage.SetInt(graph.AttrDevice, int64(graph.PickDevice(g)))
	g.Prepend(storage)
	return storage
}

// rangeValue pairs a managed live range with the value the rewriter binds it
// to, in the deterministic order the binding nodes are emitted.
type rangeValue struct {
	lvr interval.LiveRange
	val *graph.Value
}

// collectRangeValues inverts the value-to-range mapping into emission order.
// Two distinct values sharing one live range is a documented aliasing
// ambiguity: both are warned about and the later value (by name order) wins
// the binding, mirroring what the liveness analysis guarantees for aliases.
func collectRangeValues(managedRanges map[*graph.Value]interval.LiveRange) []rangeValue {
	values := make([]*graph.Value, 0, len(managedRanges))
	for v := range managedRanges {
		values = append(values, v)
	}
	sort.Slice(values, func(i, j int) bool { return values[i].Name() < values[j].Name() })

	byRange := make(map[interval.LiveRange]*graph.Value, len(values))
	for _, v := range values {
		lvr := managedRanges[v]
		if prev, ok := byRange[lvr]; ok {
			logrus.Warnf("overlapping live ranges: %s with %s", v.Name(), prev.Name())
		}
		byRange[lvr] = v
	}

	out := make([]rangeValue, 0, len(byRange))
	for lvr, v := range byRange {
		out = append(out, rangeValue{lvr: lvr, val: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].lvr != out[j].lvr {
			return out[i].lvr.StartsBefore(out[j].lvr)
		}
		return out[i].val.Name() < out[j].val.Name()
	})
	return out
}

// insertAllocTensorNodes emits one AllocateTensor binding per managed value,
// spliced before the producing node and wired as an extra input to it. The
// extra input plus the AllocBound tag is what switches the node to its
// out-style execution variant at dispatch time.
func insertAllocTensorNodes(g *graph.Graph, storage *graph.Node, allocations Allocations, rangeValues []rangeValue) error {
	totalSize := uint64(storage.Int(graph.AttrTotalSize))
	for _, rv := range rangeValues {
		region := allocations[rv.lvr]
		if region.End() > totalSize {
			return fmt.Errorf("binding %s to [%d, %d) in a %d byte arena: %w",
				rv.val.Name(), region.Offset, region.End(), totalSize, ErrPlanExceedsArena)
		}

		node := rv.val.Node()
		allocNode := g.Create(graph.KindAllocateTensor, 1)
		node.AddInput(allocNode.Output(0))
		logrus.Debugf("inserting allocation op for %s", node.Schema())
		allocNode.InsertBefore(node)
		allocNode.AddInput(storage.Output(0))

		sizes, strides := sizesStrides(rv.val.Type())
		allocNode.SetInt(graph.AttrSize, int64(region.Size))
		allocNode.SetInt(graph.AttrOffset, int64(region.Offset))
		allocNode.SetInts(graph.AttrSizes, sizes)
		allocNode.SetInts(graph.AttrStride, strides)
		allocNode.SetInt(graph.AttrDevice, storage.Int(graph.AttrDevice))
		allocNode.SetInt(graph.AttrDtype, int64(rv.val.Type().Dtype))
		node.SetVariant(graph.OpAllocBound)
	}
	return nil
}

// insertPreAllocTensorNodes emits PreAllocateTensor markers for trace-derived
// regions. Locations are matched against the graph in one forward scan by
// node header, so the graph's node order at rewrite time must match the order
// recorded during tracing; running past the last node means the graph was
// mutated between capture and rewrite, which is fatal.
func insertPreAllocTensorNodes(g *graph.Graph, storage *graph.Node, allocations Allocations, collected []nodeRanges) error {
	nodes := g.Nodes()
	idx := 0
	for _, item := range collected {
		for idx < len(nodes) && nodes[idx].Header() != item.frame.NodeHeader {
			idx++
		}
		if idx == len(nodes) {
			return fmt.Errorf("no node matching traced location %q; graph changed since trace capture", item.frame.NodeHeader)
		}
		node := nodes[idx]

		for _, lvr := range item.ranges {
			region := allocations[lvr]
			logrus.Debugf("inserting allocation op for %s with size %d", node.Header(), region.Size)
			allocNode := g.Create(graph.KindPreAllocateTensor, 0)
			allocNode.InsertBefore(node)
			allocNode.SetInt(graph.AttrSize, int64(region.Size))
			allocNode.SetInt(graph.AttrOffset, int64(region.Offset))
		}
		// Inserting shifts the matched node forward by the ranges emitted;
		// resume the scan just past it.
		nodes = g.Nodes()
		idx += len(item.ranges) + 1
	}
	return nil
}

// PlanMemory statically plans memory for the graph's intermediate buffers and
// rewrites the graph in place: one AllocateStorage node sized to the whole
// arena before the first node, plus one AllocateTensor binding per manageable
// value carrying its offset, size, shape, strides, device, and element type.
// The NoPlan strategy deliberately leaves the graph untouched.
func PlanMemory(g *graph.Graph, strat Strategy) error {
	if strat == NoPlan {
		return nil
	}

	outNodes, managedSizes, managedRanges := managedStuff(g)
	rangeValues := collectRangeValues(managedRanges)

	// The strategy input is keyed by range, so values sharing one range
	// collapse to a single size. Take it from the value the binding will be
	// emitted for, not from whichever value map iteration yields last.
	managed := make(map[interval.LiveRange]uint64, len(rangeValues))
	for _, rv := range rangeValues {
		managed[rv.lvr] = managedSizes[rv.val]
	}

	var allocations Allocations
	switch strat {
	case LinearScan:
		allocations = linearScanAllocations(managed)
	case GreedyBySize:
		allocations = greedyBySizeAllocations(managed)
	case GreedyByBreadth:
		allocations = greedyByBreadthAllocations(managedSizes, managedRanges, outNodes)
	default:
		logrus.Warnf("unrecognized planning strategy %v; leaving graph unplanned", strat)
		return nil
	}

	totalSize := allocations.TotalSize()
	logrus.Infof("planned %d buffers into a %d byte arena with %s", len(allocations), totalSize, strat)
	logrus.Debugf("allocation plan:\n%s", formatPlan(allocations, rangeValues))

	storage := insertAllocStorageNode(g, totalSize)
	return insertAllocTensorNodes(g, storage, allocations, rangeValues)
}

// PlanMemoryWithTracing plans from an observed allocate/free event log
// instead of static analysis, inserting per-location PreAllocateTensor
// markers carrying only offset and size. Precondition: the graph's node order
// matches the order of locations recorded during tracing. The NoPlan strategy
// returns with the graph untouched; so does GreedyByBreadth, which needs
// operator identity that traces never recover.
func PlanMemoryWithTracing(g *graph.Graph, strat Strategy, events []trace.MemEvent) error {
	if len(events) == 0 {
		return errors.New("planning from an empty allocation trace")
	}
	managed, pairs, err := liveRangesFromEvents(events)
	if err != nil {
		return fmt.Errorf("validating allocation trace: %w", err)
	}

	var allocations Allocations
	switch strat {
	case NoPlan:
		return nil
	case LinearScan:
		allocations = linearScanAllocations(managed)
	case GreedyBySize:
		allocations = greedyBySizeAllocations(managed)
	case GreedyByBreadth:
		logrus.Warnf("%s needs operator identity that traces do not record; leaving graph unplanned", strat)
		return nil
	default:
		logrus.Warnf("unrecognized planning strategy %v; leaving graph unplanned", strat)
		return nil
	}

	totalSize := allocations.TotalSize()
	logrus.Infof("planned %d traced buffers into a %d byte arena with %s", len(allocations), totalSize, strat)

	storage := insertAllocStorageNode(g, totalSize)
	return insertPreAllocTensorNodes(g, storage, allocations, collectNodeLiveRanges(pairs))
}
