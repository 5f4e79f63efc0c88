package graph

import (
	"github.com/LaudateCorpus1/memplan/plan/interval"
)

// AlwaysAliveValues returns the set of values the planner must never manage:
// graph inputs and outputs, and constants. Their buffers are owned outside
// the planned arena for the whole run.
func AlwaysAliveValues(g *Graph) map[*Value]bool {
	alive := make(map[*Value]bool)
	for _, v := range g.inputs {
		alive[v] = true
	}
	for _, v := range g.outputs {
		alive[v] = true
	}
	for _, n := range g.nodes {
		if n.kind == KindConstant {
			for _, out := range n.outputs {
				alive[out] = true
			}
		}
	}
	return alive
}

// Liveness computes, for each value not in alwaysAlive, the half-open range
// of execution positions during which its buffer must stay valid: from the
// position of the producing node to one past its last use. An unused value
// dies immediately after its producer.
func Liveness(g *Graph, alwaysAlive map[*Value]bool) map[*Value]interval.LiveRange {
	position := make(map[*Node]int64, len(g.nodes))
	for i, n := range g.nodes {
		position[n] = int64(i)
	}

	ranges := make(map[*Value]interval.LiveRange)
	for _, n := range g.nodes {
		for _, out := range n.outputs {
			if alwaysAlive[out] {
				continue
			}
			begin := position[n]
			end := begin + 1
			for _, use := range out.uses {
				if p, ok := position[use]; ok && p+1 > end {
					end = p + 1
				}
			}
			ranges[out] = interval.LiveRange{Begin: begin, End: end}
		}
	}
	return ranges
}
