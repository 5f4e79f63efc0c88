package graph

// Node kinds the planner inserts while rewriting. AllocateStorage reserves
// the arena; AllocateTensor binds one value's buffer to an arena region;
// PreAllocateTensor marks a trace-derived region ahead of the node that
// allocated it.
const (
	KindAllocateStorage   = "prim::AllocateStorage"
	KindAllocateTensor    = "prim::AllocateTensor"
	KindPreAllocateTensor = "prim::PreAllocateTensor"
	KindConstant          = "prim::Constant"
)

// Integer and integer-list attribute names used on inserted nodes.
const (
	AttrTotalSize = "total_size"
	AttrSize      = "size"
	AttrOffset    = "offset"
	AttrSizes     = "sizes"
	AttrStride    = "stride"
	AttrDevice    = "device"
	AttrDtype     = "dtype"
)

// OpInfo describes the planner-relevant capabilities of one operation kind.
type OpInfo struct {
	Kind string
	// Schema is the canonical schema string for the kind; falls back to Kind
	// when empty.
	Schema string
	// HasOutVariant marks kinds with an overload that writes the result into
	// a caller-supplied buffer. Only outputs of such operations are
	// candidates for planning.
	HasOutVariant bool
	// ContainerOutput marks kinds producing a container (list/tuple) rather
	// than a single tensor; their outputs are leaked, not planned.
	ContainerOutput bool
}

// Catalog is the operation registry a graph resolves kinds against.
type Catalog struct {
	ops map[string]OpInfo
}

// NewCatalog returns an empty catalog. A graph with an empty catalog has no
// out-capable operations and nothing to plan.
func NewCatalog() *Catalog {
	return &Catalog{ops: make(map[string]OpInfo)}
}

// Register records or replaces the info for one kind.
func (c *Catalog) Register(info OpInfo) {
	c.ops[info.Kind] = info
}

// Lookup returns the info registered for a kind.
func (c *Catalog) Lookup(kind string) (OpInfo, bool) {
	info, ok := c.ops[kind]
	return info, ok
}
