// Package trace holds the pure-data records produced while profiling
// allocations. This package has no dependencies on plan/ or plan/alloc/ — it
// stores the event log and the orderings the planner sorts it with.
package trace

// EventKind distinguishes the two sides of an allocation's lifetime.
type EventKind int

const (
	Allocate EventKind = iota
	Free
)

func (k EventKind) String() string {
	switch k {
	case Allocate:
		return "allocate"
	case Free:
		return "free"
	default:
		return "unknown"
	}
}

// FrameNodeId identifies the graph location executing when an allocation was
// observed. Trace-driven planning never recovers value identity; the node's
// schema and rendered header are all there is to re-attach a traced range to
// a graph position.
type FrameNodeId struct {
	Time       int64
	NodeSchema string
	NodeHeader string
}

// FrameLess is the canonical graph-position ordering for frame ids: by time,
// then header, then schema. Per-location rewriting sorts with it so output is
// deterministic.
func FrameLess(a, b FrameNodeId) bool {
	if a.Time != b.Time {
		return a.Time < b.Time
	}
	if a.NodeHeader != b.NodeHeader {
		return a.NodeHeader < b.NodeHeader
	}
	return a.NodeSchema < b.NodeSchema
}

// MemEvent is one record of the allocation trace. Allocate and Free events
// for the same pointer must pair: same size and node identity, allocate
// strictly before free.
type MemEvent struct {
	Time       int64
	Addr       string
	Size       uint64
	NodeSchema string
	NodeHeader string
	Kind       EventKind
}

// Frame returns the graph location recorded on the event.
func (e MemEvent) Frame() FrameNodeId {
	return FrameNodeId{Time: e.Time, NodeSchema: e.NodeSchema, NodeHeader: e.NodeHeader}
}
