// Package graph holds the minimal dataflow IR the memory planner rewrites:
// values carrying profiled tensor types, nodes in execution order, an
// operation catalog, and the alias/liveness analysis the planner consumes.
package graph

import (
	"fmt"
	"strings"
)

// OpVariant tags how a node executes. A node becomes AllocBound when the
// planner wires an AllocateTensor input into it; dispatch then selects the
// out-style overload that writes into the planned buffer.
type OpVariant int

const (
	OpStandard OpVariant = iota
	OpAllocBound
)

// Value is one SSA value flowing between nodes. Tensor-typed values carry the
// profiled type facts needed to size their buffers.
type Value struct {
	name string
	typ  *TensorType
	node *Node
	uses []*Node
}

// Name returns the value's debug name.
func (v *Value) Name() string { return v.name }

// Type returns the value's tensor type, or nil for non-tensor values.
func (v *Value) Type() *TensorType { return v.typ }

// SetType attaches profiled type facts to the value.
func (v *Value) SetType(t *TensorType) { v.typ = t }

// Node returns the node producing this value, or nil for graph inputs.
func (v *Value) Node() *Node { return v.node }

// Node is one operation in the graph's execution order.
type Node struct {
	kind      string
	inputs    []*Value
	outputs   []*Value
	intAttrs  map[string]int64
	intsAttrs map[string][]int64
	variant   OpVariant
	graph     *Graph
}

// Kind returns the operation kind.
func (n *Node) Kind() string { return n.kind }

// Inputs returns the node's input values.
func (n *Node) Inputs() []*Value { return n.inputs }

// Outputs returns the node's output values.
func (n *Node) Outputs() []*Value { return n.outputs }

// Output returns output i.
func (n *Node) Output(i int) *Value { return n.outputs[i] }

// Variant returns the node's execution variant tag.
func (n *Node) Variant() OpVariant { return n.variant }

// SetVariant retags the node's execution variant.
func (n *Node) SetVariant(v OpVariant) { n.variant = v }

// AddOutput appends a named output value to the node and returns it.
func (n *Node) AddOutput(name string) *Value {
	v := &Value{name: name, node: n}
	n.outputs = append(n.outputs, v)
	return v
}

// AddInput appends v to the node's inputs and records the use.
func (n *Node) AddInput(v *Value) {
	if v == nil {
		panic("AddInput: v must not be nil")
	}
	n.inputs = append(n.inputs, v)
	v.uses = append(v.uses, n)
}

// SetInt sets an integer attribute.
func (n *Node) SetInt(name string, val int64) {
	n.intAttrs[name] = val
}

// Int returns an integer attribute; the attribute must have been set.
func (n *Node) Int(name string) int64 {
	val, ok := n.intAttrs[name]
	if !ok {
		panic(fmt.Sprintf("Int: node %s has no attribute %q", n.kind, name))
	}
	return val
}

// SetInts sets an integer-list attribute.
func (n *Node) SetInts(name string, vals []int64) {
	n.intsAttrs[name] = vals
}

// Ints returns an integer-list attribute, or nil when unset.
func (n *Node) Ints(name string) []int64 {
	return n.intsAttrs[name]
}

// Schema returns the canonical schema string for the node's kind, falling
// back to the kind itself for unregistered operations.
func (n *Node) Schema() string {
	if n.graph != nil && n.graph.catalog != nil {
		if info, ok := n.graph.catalog.Lookup(n.kind); ok && info.Schema != "" {
			return info.Schema
		}
	}
	return n.kind
}

// Header renders the node the way a graph dump prints it, e.g.
// "%c = aten::mm(%a, %b)". Trace records carry this text to identify the
// originating node without value identity.
func (n *Node) Header() string {
	var sb strings.Builder
	for i, out := range n.outputs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(out.name)
	}
	if len(n.outputs) > 0 {
		sb.WriteString(" = ")
	}
	sb.WriteString(n.kind)
	sb.WriteString("(")
	for i, in := range n.inputs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(in.name)
	}
	sb.WriteString(")")
	return sb.String()
}

// InsertBefore splices n into the graph's node list immediately before
// target, which must already be in the graph.
func (n *Node) InsertBefore(target *Node) {
	g := n.graph
	for i, existing := range g.nodes {
		if existing == target {
			g.nodes = append(g.nodes, nil)
			copy(g.nodes[i+1:], g.nodes[i:])
			g.nodes[i] = n
			return
		}
	}
	panic(fmt.Sprintf("InsertBefore: target node %s not in graph", target.kind))
}

// Graph is an ordered list of nodes plus the boundary values that stay alive
// for the whole run.
type Graph struct {
	catalog   *Catalog
	nodes     []*Node
	inputs    []*Value
	outputs   []*Value
	nextValue int
}

// NewGraph returns an empty graph resolving operation kinds against catalog.
// A nil catalog is treated as empty.
func NewGraph(catalog *Catalog) *Graph {
	if catalog == nil {
		catalog = NewCatalog()
	}
	return &Graph{catalog: catalog}
}

// Catalog returns the graph's operation catalog.
func (g *Graph) Catalog() *Catalog { return g.catalog }

// Nodes returns the nodes in execution order. The returned slice is the
// graph's internal storage; callers must not append to or reslice it.
func (g *Graph) Nodes() []*Node { return g.nodes }

// Inputs returns the graph's input values.
func (g *Graph) Inputs() []*Value { return g.inputs }

// Outputs returns the graph's output values.
func (g *Graph) Outputs() []*Value { return g.outputs }

// AddInput declares a graph input value.
func (g *Graph) AddInput(name string) *Value {
	v := &Value{name: name}
	g.inputs = append(g.inputs, v)
	return v
}

// RegisterOutput marks v as a graph output.
func (g *Graph) RegisterOutput(v *Value) {
	g.outputs = append(g.outputs, v)
}

// Create builds a detached node with numOutputs fresh output values. The node
// joins the execution order via Append, Prepend, or InsertBefore.
func (g *Graph) Create(kind string, numOutputs int) *Node {
	n := &Node{
		kind:      kind,
		intAttrs:  make(map[string]int64),
		intsAttrs: make(map[string][]int64),
		graph:     g,
	}
	for i := 0; i < numOutputs; i++ {
		v := &Value{name: fmt.Sprintf("%%%d", g.nextValue), node: n}
		g.nextValue++
		n.outputs = append(n.outputs, v)
	}
	return n
}

// Append adds n at the end of the execution order and returns it.
func (g *Graph) Append(n *Node) *Node {
	g.nodes = append(g.nodes, n)
	return n
}

// Prepend adds n at the front of the execution order.
func (g *Graph) Prepend(n *Node) {
	g.nodes = append([]*Node{n}, g.nodes...)
}

// HasOutVariant reports whether the node's kind has an out-style overload
// per the graph's catalog.
func (g *Graph) HasOutVariant(n *Node) bool {
	info, ok := g.catalog.Lookup(n.kind)
	return ok && info.HasOutVariant
}

// IsContainerOutput reports whether the node's kind produces a container
// rather than a single tensor.
func (g *Graph) IsContainerOutput(n *Node) bool {
	info, ok := g.catalog.Lookup(n.kind)
	return ok && info.ContainerOutput
}

// PickDevice returns the device the planned arena should live on: the device
// of the first tensor-typed value found, defaulting to CPU.
func PickDevice(g *Graph) DeviceType {
	for _, n := range g.nodes {
		for _, out := range n.outputs {
			if out.typ != nil {
				return out.typ.Device
			}
		}
	}
	return DeviceCPU
}

// String renders the graph one node header per line.
func (g *Graph) String() string {
	var sb strings.Builder
	for _, n := range g.nodes {
		sb.WriteString(n.Header())
		sb.WriteString("\n")
	}
	return sb.String()
}
