// Package alloc provides the allocator capability layer around the planner:
// a per-device allocator registry, the tracing allocator that captures the
// event log trace-driven planning consumes, and the planning allocator that
// replays a finished plan at execution time.
package alloc

import (
	"github.com/LaudateCorpus1/memplan/plan/graph"
)

// Allocator hands out byte buffers for one device type.
type Allocator interface {
	Allocate(nbytes uint64) ([]byte, error)
	Free(buf []byte)
}

// SystemAllocator satisfies allocations from the Go heap.
type SystemAllocator struct{}

// Allocate returns a fresh zeroed buffer.
func (SystemAllocator) Allocate(nbytes uint64) ([]byte, error) {
	return make([]byte, nbytes), nil
}

// Free is a no-op; the heap reclaims buffers.
func (SystemAllocator) Free([]byte) {}

// Registry maps each device type to the allocator serving it. It is an
// explicit capability passed to whoever allocates, not process-global state;
// substituting an allocator affects only callers holding this registry.
// Registry methods take no locks — planning and profiling are single-threaded
// by contract, and callers must serialize profiling runs.
type Registry struct {
	allocators map[graph.DeviceType]Allocator
}

// NewRegistry returns a registry serving every device from the system
// allocator until a substitution is installed.
func NewRegistry() *Registry {
	return &Registry{allocators: make(map[graph.DeviceType]Allocator)}
}

// Get returns the allocator registered for device, defaulting to the system
// allocator.
func (r *Registry) Get(device graph.DeviceType) Allocator {
	if a, ok := r.allocators[device]; ok {
		return a
	}
	return SystemAllocator{}
}

// Set installs a for device, returning the allocator it displaced.
func (r *Registry) Set(device graph.DeviceType, a Allocator) Allocator {
	prev := r.Get(device)
	r.allocators[device] = a
	return prev
}
