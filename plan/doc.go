// Package plan statically plans memory for the intermediate buffers of a
// dataflow graph, so execution can carve every such buffer out of one
// pre-allocated arena.
//
// # Reading Guide
//
// Start with these three files to understand the planning kernel:
//   - static.go: which values are manageable and how their byte footprints
//     and live ranges are collected
//   - greedy_size.go / linear_scan.go / greedy_breadth.go: the packing
//     heuristics mapping live ranges to arena regions
//   - planner.go: the driver that runs an adapter, dispatches a strategy,
//     sizes the arena, and rewrites the graph
//
// # Architecture
//
// The plan package orchestrates; supporting types live in sub-packages:
//   - plan/interval/: LiveRange and Region value types
//   - plan/graph/: the graph IR, operation catalog, and liveness analysis
//   - plan/trace/: allocation-trace records (pure data)
//   - plan/alloc/: allocator registry, tracing allocator, profiling guard,
//     and the planning allocator that replays a plan at execution time
//
// Two front-ends feed the strategies: PlanMemory derives buffer sizes and
// live ranges from profiled types and liveness analysis; PlanMemoryWithTracing
// reconstructs them from an allocate/free event log captured by a
// ProfileGuard. Both end by inserting one AllocateStorage node sized to the
// arena plus per-buffer binding nodes carrying explicit offsets and sizes.
//
// Every strategy honors the same invariant: two buffers whose live ranges
// overlap never share bytes; buffers with disjoint ranges may reuse the same
// bytes. Which strategy packs tighter depends on the input; correctness does
// not.
package plan
