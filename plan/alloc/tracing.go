package alloc

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/LaudateCorpus1/memplan/plan/graph"
	"github.com/LaudateCorpus1/memplan/plan/trace"
)

// FrameFunc reports the graph location currently executing. The tracing
// allocator stamps every captured event with it; returning ok=false means no
// frame is executing, which is fatal for an allocation because the resulting
// trace could never be matched back to the graph.
type FrameFunc func() (trace.FrameNodeId, bool)

// TracingAllocator wraps another allocator and records a MemEvent for every
// allocation and free it serves. Buffers are still satisfied by the wrapped
// allocator; tracing only observes.
type TracingAllocator struct {
	inner  Allocator
	frame  FrameFunc
	events []trace.MemEvent
	live   map[string]trace.MemEvent
}

// NewTracingAllocator wraps inner, stamping events via frame.
func NewTracingAllocator(inner Allocator, frame FrameFunc) *TracingAllocator {
	return &TracingAllocator{
		inner: inner,
		frame: frame,
		live:  make(map[string]trace.MemEvent),
	}
}

// Allocate serves the request from the wrapped allocator and records an
// Allocate event tagged with the executing frame. Zero-byte requests pass
// through untraced: their buffers share one backing address, so recording
// them would collide in the trace, and the planner excludes zero-sized
// buffers anyway.
func (t *TracingAllocator) Allocate(nbytes uint64) ([]byte, error) {
	buf, err := t.inner.Allocate(nbytes)
	if err != nil || nbytes == 0 {
		return buf, err
	}
	frame, ok := t.frame()
	if !ok {
		return nil, fmt.Errorf("tracing allocator: %d byte allocation outside any frame", nbytes)
	}
	ev := trace.MemEvent{
		Time:       frame.Time,
		Addr:       bufAddr(buf),
		Size:       nbytes,
		NodeSchema: frame.NodeSchema,
		NodeHeader: frame.NodeHeader,
		Kind:       trace.Allocate,
	}
	t.events = append(t.events, ev)
	t.live[ev.Addr] = ev
	return buf, nil
}

// Free records the Free event paired with the buffer's Allocate and releases
// the buffer to the wrapped allocator. The free carries the node identity of
// the allocation so the pair always matches; only the timestamp comes from
// the frame executing at free time.
func (t *TracingAllocator) Free(buf []byte) {
	if cap(buf) == 0 {
		t.inner.Free(buf)
		return
	}
	addr := bufAddr(buf)
	allocEv, ok := t.live[addr]
	if !ok {
		logrus.Warnf("tracing allocator: free of untraced pointer %s", addr)
		t.inner.Free(buf)
		return
	}
	delete(t.live, addr)
	when := allocEv.Time + 1
	if frame, ok := t.frame(); ok && frame.Time > allocEv.Time {
		when = frame.Time
	}
	t.events = append(t.events, trace.MemEvent{
		Time:       when,
		Addr:       addr,
		Size:       allocEv.Size,
		NodeSchema: allocEv.NodeSchema,
		NodeHeader: allocEv.NodeHeader,
		Kind:       trace.Free,
	})
	t.inner.Free(buf)
}

// Traces returns the captured event log in capture order.
func (t *TracingAllocator) Traces() []trace.MemEvent {
	return t.events
}

// bufAddr keys a buffer by its backing array address. Callers filter out
// zero-capacity buffers, which have no address of their own.
func bufAddr(buf []byte) string {
	return fmt.Sprintf("%p", buf[:1])
}

// ProfileGuard scopes allocation tracing for one device: constructing it
// swaps a TracingAllocator into the registry, Stop restores the displaced
// allocator. Restoration is unconditional and idempotent; call Stop on every
// exit path, including early failure. Tracing observes every allocation the
// registry serves for the device while active, so unrelated concurrent
// workloads sharing the registry will pollute the trace — profiling runs must
// be serialized by the caller.
type ProfileGuard struct {
	registry *Registry
	device   graph.DeviceType
	tracer   *TracingAllocator
	orig     Allocator
	stopped  bool
}

// NewProfileGuard installs a tracing allocator for device and returns the
// guard that undoes the substitution.
func NewProfileGuard(registry *Registry, device graph.DeviceType, frame FrameFunc) *ProfileGuard {
	orig := registry.Get(device)
	tracer := NewTracingAllocator(orig, frame)
	registry.Set(device, tracer)
	logrus.Debugf("profiling guard: tracing %s allocations", device)
	return &ProfileGuard{
		registry: registry,
		device:   device,
		tracer:   tracer,
		orig:     orig,
	}
}

// Stop restores the allocator that was registered before the guard. Safe to
// call more than once; later calls are no-ops.
func (g *ProfileGuard) Stop() {
	if g.stopped {
		return
	}
	g.stopped = true
	g.registry.Set(g.device, g.orig)
	logrus.Debugf("profiling guard: restored %s allocator", g.device)
}

// AllocationTraces returns the events captured so far, in capture order.
func (g *ProfileGuard) AllocationTraces() []trace.MemEvent {
	return g.tracer.Traces()
}
