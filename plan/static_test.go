package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LaudateCorpus1/memplan/plan/graph"
)

// testCatalog registers the kinds the planning tests build graphs from.
func testCatalog() *graph.Catalog {
	c := graph.NewCatalog()
	c.Register(graph.OpInfo{Kind: "aten::mm", Schema: "aten::mm(Tensor self, Tensor mat2) -> Tensor", HasOutVariant: true})
	c.Register(graph.OpInfo{Kind: "aten::relu", Schema: "aten::relu(Tensor self) -> Tensor", HasOutVariant: true})
	c.Register(graph.OpInfo{Kind: "aten::cat", Schema: "aten::cat(Tensor[] tensors, int dim) -> Tensor", HasOutVariant: true, ContainerOutput: true})
	c.Register(graph.OpInfo{Kind: "aten::nonzero", Schema: "aten::nonzero(Tensor self) -> Tensor"})
	return c
}

// chainGraph builds in -> mm -> relu -> relu -> out with float [4] tensors,
// returning the graph and the two intermediate values.
func chainGraph() (*graph.Graph, *graph.Value, *graph.Value) {
	g := graph.NewGraph(testCatalog())
	in := g.AddInput("%in")

	floatVec := func(n int64) *graph.TensorType {
		return &graph.TensorType{Dtype: graph.Float, Sizes: []int64{n}}
	}

	mm := g.Create("aten::mm", 0)
	mm.AddInput(in)
	x := mm.AddOutput("%x")
	x.SetType(floatVec(4))
	g.Append(mm)

	relu := g.Create("aten::relu", 0)
	relu.AddInput(x)
	y := relu.AddOutput("%y")
	y.SetType(floatVec(4))
	g.Append(relu)

	relu2 := g.Create("aten::relu", 0)
	relu2.AddInput(y)
	out := relu2.AddOutput("%out")
	out.SetType(floatVec(4))
	g.Append(relu2)
	g.RegisterOutput(out)

	return g, x, y
}

func TestManagedBuffers_SizesAndRanges(t *testing.T) {
	g, x, y := chainGraph()
	outNodes, sizes, ranges := ManagedBuffers(g)

	// All three nodes have out variants, but %out is a graph output and
	// therefore always alive.
	require.Len(t, outNodes, 3)
	require.Len(t, sizes, 2)
	assert.Equal(t, uint64(16), sizes[x], "4 floats = 16 bytes")
	assert.Equal(t, uint64(16), sizes[y])
	assert.Len(t, ranges, 2)
	assert.Equal(t, int64(0), ranges[x].Begin)
	assert.Equal(t, int64(2), ranges[x].End)
}

func TestManagedBuffers_ZeroShapeExcluded(t *testing.T) {
	// GIVEN a value whose leading dimension is zero
	g := graph.NewGraph(testCatalog())
	mm := g.Create("aten::mm", 0)
	v := mm.AddOutput("%empty")
	v.SetType(&graph.TensorType{Dtype: graph.Float, Sizes: []int64{0}})
	g.Append(mm)

	// WHEN the static adapter collects manageable buffers
	_, sizes, ranges := ManagedBuffers(g)

	// THEN the zero-sized value is excluded from planning entirely
	assert.NotContains(t, sizes, v)
	assert.NotContains(t, ranges, v)
}

func TestManagedBuffers_UnsizableValuesExcluded(t *testing.T) {
	g := graph.NewGraph(testCatalog())

	mm := g.Create("aten::mm", 0)
	untyped := mm.AddOutput("%untyped") // no tensor type at all
	noDtype := mm.AddOutput("%nodtype")
	noDtype.SetType(&graph.TensorType{Sizes: []int64{4}})
	noShape := mm.AddOutput("%noshape")
	noShape.SetType(&graph.TensorType{Dtype: graph.Float})
	sized := mm.AddOutput("%sized")
	sized.SetType(&graph.TensorType{Dtype: graph.Double, Sizes: []int64{2, 2}})
	g.Append(mm)

	_, sizes, _ := ManagedBuffers(g)

	assert.NotContains(t, sizes, untyped)
	assert.NotContains(t, sizes, noDtype)
	assert.NotContains(t, sizes, noShape)
	require.Contains(t, sizes, sized)
	assert.Equal(t, uint64(32), sizes[sized])
}

func TestManagedBuffers_NoOutVariantSkipped(t *testing.T) {
	g := graph.NewGraph(testCatalog())
	nz := g.Create("aten::nonzero", 0)
	v := nz.AddOutput("%v")
	v.SetType(&graph.TensorType{Dtype: graph.Long, Sizes: []int64{3}})
	g.Append(nz)

	outNodes, sizes, _ := ManagedBuffers(g)
	assert.Empty(t, outNodes, "nodes without an out variant are not candidates")
	assert.Empty(t, sizes)
}
