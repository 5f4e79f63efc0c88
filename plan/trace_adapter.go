package plan

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/LaudateCorpus1/memplan/plan/interval"
	"github.com/LaudateCorpus1/memplan/plan/trace"
)

// rangeFrame ties a trace-derived live range to the graph location whose
// execution allocated it.
type rangeFrame struct {
	lvr   interval.LiveRange
	frame trace.FrameNodeId
}

// nodeRanges groups every live range allocated at one graph location, sorted
// by range start.
type nodeRanges struct {
	frame  trace.FrameNodeId
	ranges []interval.LiveRange
}

// liveRangesFromEvents validates the allocate/free pairing of a chronological
// event log and derives one live range per pair. Any pairing violation —
// free of a never-allocated pointer, double allocation without a free, size
// or node-identity mismatch within a pair, free not strictly after allocate,
// or an allocation still outstanding at end of log — is fatal: it means
// capture was stopped mid-flight or an allocator bypassed interception, and
// no plan built from such a trace can be trusted.
func liveRangesFromEvents(events []trace.MemEvent) (map[interval.LiveRange]uint64, []rangeFrame, error) {
	managed := make(map[interval.LiveRange]uint64)
	var pairs []rangeFrame

	outstanding := make(map[string]trace.MemEvent)
	for _, ev := range events {
		switch ev.Kind {
		case trace.Allocate:
			if prev, ok := outstanding[ev.Addr]; ok {
				return nil, nil, fmt.Errorf(
					"pointer %s allocated at t=%d and again at t=%d with no free in between",
					ev.Addr, prev.Time, ev.Time)
			}
			outstanding[ev.Addr] = ev
		case trace.Free:
			alloc, ok := outstanding[ev.Addr]
			if !ok {
				return nil, nil, fmt.Errorf("free of pointer %s at t=%d with no matching allocation", ev.Addr, ev.Time)
			}
			if alloc.Size != ev.Size {
				return nil, nil, fmt.Errorf(
					"pointer %s allocated with %d bytes but freed with %d", ev.Addr, alloc.Size, ev.Size)
			}
			if alloc.Time >= ev.Time {
				return nil, nil, fmt.Errorf(
					"pointer %s freed at t=%d, not after its allocation at t=%d", ev.Addr, ev.Time, alloc.Time)
			}
			if alloc.NodeSchema != ev.NodeSchema || alloc.NodeHeader != ev.NodeHeader {
				return nil, nil, fmt.Errorf(
					"pointer %s allocated at %q but freed at %q", ev.Addr, alloc.NodeHeader, ev.NodeHeader)
			}
			delete(outstanding, ev.Addr)

			lvr := interval.LiveRange{Begin: alloc.Time, End: ev.Time}
			if _, dup := managed[lvr]; dup {
				logrus.Warnf("multiple traced allocations share live range [%d, %d)", lvr.Begin, lvr.End)
			}
			managed[lvr] = alloc.Size
			pairs = append(pairs, rangeFrame{lvr: lvr, frame: alloc.Frame()})
		default:
			return nil, nil, fmt.Errorf("trace event for pointer %s has unknown kind %d", ev.Addr, ev.Kind)
		}
	}
	if len(outstanding) > 0 {
		addrs := make([]string, 0, len(outstanding))
		for addr := range outstanding {
			addrs = append(addrs, addr)
		}
		sort.Strings(addrs)
		return nil, nil, fmt.Errorf("%d allocations never freed by end of trace, first: %s", len(addrs), addrs[0])
	}
	return managed, pairs, nil
}

// collectNodeLiveRanges groups traced live ranges by originating graph
// location. Groups come back in canonical graph-position order and each
// group's ranges in start order, so per-location rewriting is deterministic.
func collectNodeLiveRanges(pairs []rangeFrame) []nodeRanges {
	byFrame := make(map[trace.FrameNodeId][]interval.LiveRange)
	for _, p := range pairs {
		byFrame[p.frame] = append(byFrame[p.frame], p.lvr)
	}

	collected := make([]nodeRanges, 0, len(byFrame))
	for frame, lvrs := range byFrame {
		interval.SortRanges(lvrs)
		collected = append(collected, nodeRanges{frame: frame, ranges: lvrs})
	}
	sort.Slice(collected, func(i, j int) bool {
		return trace.FrameLess(collected[i].frame, collected[j].frame)
	})
	return collected
}
