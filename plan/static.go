package plan

import (
	"github.com/sirupsen/logrus"

	"github.com/LaudateCorpus1/memplan/plan/graph"
	"github.com/LaudateCorpus1/memplan/plan/interval"
)

// computeStorageSize returns the exact byte footprint of a value, or false
// when the value cannot be sized: no tensor type, unknown scalar type, or
// unknown shape/element count. Unsizable values fall back to ordinary
// allocation.
func computeStorageSize(v *graph.Value) (uint64, bool) {
	t := v.Type()
	if t == nil {
		logrus.Warnf("out isn't a tensor type: %s", v.Name())
		return 0, false
	}
	if t.Dtype == graph.ScalarUnknown {
		logrus.Warnf("this output was profiled but didn't have a scalar type: %s", v.Name())
		return 0, false
	}
	numel, ok := t.Numel()
	if !ok {
		logrus.Warnf("this output was profiled but doesn't have sizes: %s", v.Name())
		return 0, false
	}
	return uint64(numel) * t.Dtype.ElementSize(), true
}

// managedValues walks the graph and divides the outputs of out-capable nodes
// into managed values (sizable intermediates the planner will place) and
// leaked values (excluded, left on the ordinary allocation path). Always-alive
// values are skipped outright. Returns the out-capable nodes in execution
// order alongside the managed sizes.
func managedValues(g *graph.Graph, alwaysAlive map[*graph.Value]bool) ([]*graph.Node, map[*graph.Value]uint64) {
	managed := make(map[*graph.Value]uint64)
	leaked := make(map[*graph.Value]bool)
	var outNodes []*graph.Node

	for _, node := range g.Nodes() {
		if !g.HasOutVariant(node) {
			continue
		}
		outNodes = append(outNodes, node)
		for _, outV := range node.Outputs() {
			if alwaysAlive[outV] {
				continue
			}
			size, ok := computeStorageSize(outV)
			switch {
			case ok && size > 0:
				managed[outV] = size
			case g.IsContainerOutput(node):
				leaked[outV] = true
			default:
				logrus.Warnf("not handling unsupported value: %s", outV.Name())
				leaked[outV] = true
			}
		}
	}
	if len(leaked) > 0 {
		logrus.Debugf("leaving %d values on the ordinary allocation path", len(leaked))
	}
	return outNodes, managed
}

// ManagedBuffers exposes the static adapter's output: the out-capable nodes
// in execution order, each manageable value's byte footprint, and its live
// range. PlanMemory runs this internally; it is exported for callers that
// inspect what would be planned without rewriting.
func ManagedBuffers(g *graph.Graph) ([]*graph.Node, map[*graph.Value]uint64, map[*graph.Value]interval.LiveRange) {
	return managedStuff(g)
}

// managedStuff runs alias and liveness analysis over the graph and correlates
// every managed value with its live range. This is the static front-end
// feeding the strategies.
func managedStuff(g *graph.Graph) ([]*graph.Node, map[*graph.Value]uint64, map[*graph.Value]interval.LiveRange) {
	alwaysAlive := graph.AlwaysAliveValues(g)
	liveRanges := graph.Liveness(g, alwaysAlive)

	outNodes, managed := managedValues(g, alwaysAlive)

	managedRanges := make(map[*graph.Value]interval.LiveRange, len(managed))
	for v, lvr := range liveRanges {
		if _, ok := managed[v]; ok {
			managedRanges[v] = lvr
		}
	}
	return outNodes, managed, managedRanges
}
