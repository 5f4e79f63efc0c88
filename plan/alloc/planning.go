package alloc

import (
	"fmt"

	"github.com/LaudateCorpus1/memplan/plan/graph"
)

type plannedAlloc struct {
	size uint64
	buf  []byte
}

// PlanningAllocator replays a finished memory plan at execution time. Planned
// regions are pushed before execution begins, in the order the plan was
// constructed; Allocate consumes exactly one entry per call, in push order,
// and fails if the requested size does not match the head of the queue. This
// assumes a fixed, single-threaded execution whose allocation order matches
// the order used when the plan was built — a mismatch means plan and
// execution have diverged, which must never pass silently.
type PlanningAllocator struct {
	device graph.DeviceType
	arena  []byte
	queue  []plannedAlloc
}

// NewPlanningAllocator serves allocations for device out of arena, which must
// already be sized to the plan's total.
func NewPlanningAllocator(device graph.DeviceType, arena []byte) *PlanningAllocator {
	return &PlanningAllocator{device: device, arena: arena}
}

// Device returns the device this allocator serves.
func (p *PlanningAllocator) Device() graph.DeviceType { return p.device }

// Push registers the next planned allocation as the arena bytes
// [offset, offset+size). Regions must be pushed in plan order.
func (p *PlanningAllocator) Push(size, offset uint64) error {
	if offset+size > uint64(len(p.arena)) {
		return fmt.Errorf("planned region [%d, %d) exceeds arena of %d bytes",
			offset, offset+size, len(p.arena))
	}
	p.queue = append(p.queue, plannedAlloc{size: size, buf: p.arena[offset : offset+size : offset+size]})
	return nil
}

// Allocate consumes the head of the planned queue. The requested size must
// match the planned size exactly.
func (p *PlanningAllocator) Allocate(nbytes uint64) ([]byte, error) {
	if len(p.queue) == 0 {
		return nil, fmt.Errorf("planning allocator: %d byte request with no planned allocations left", nbytes)
	}
	head := p.queue[0]
	if head.size != nbytes {
		return nil, fmt.Errorf("planning allocator: requested %d bytes but next planned allocation is %d bytes",
			nbytes, head.size)
	}
	p.queue = p.queue[1:]
	return head.buf, nil
}

// Free is a no-op: planned buffers live inside the arena and are reclaimed
// with it.
func (p *PlanningAllocator) Free([]byte) {}

// Remaining returns how many planned allocations have not been consumed.
func (p *PlanningAllocator) Remaining() int { return len(p.queue) }
