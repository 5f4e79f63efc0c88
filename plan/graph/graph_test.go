package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LaudateCorpus1/memplan/plan/interval"
)

// testCatalog registers a couple of out-capable kinds for graph construction.
func testCatalog() *Catalog {
	c := NewCatalog()
	c.Register(OpInfo{Kind: "aten::mm", Schema: "aten::mm(Tensor self, Tensor mat2) -> Tensor", HasOutVariant: true})
	c.Register(OpInfo{Kind: "aten::relu", HasOutVariant: true})
	return c
}

func TestLiveness_ProducerToLastUse(t *testing.T) {
	g := NewGraph(testCatalog())
	a := g.AddInput("%a")

	mm := g.Create("aten::mm", 0)
	mm.AddInput(a)
	x := mm.AddOutput("%x")
	g.Append(mm)

	relu := g.Create("aten::relu", 0)
	relu.AddInput(x)
	y := relu.AddOutput("%y")
	g.Append(relu)

	relu2 := g.Create("aten::relu", 0)
	relu2.AddInput(y)
	out := relu2.AddOutput("%out")
	g.Append(relu2)
	g.RegisterOutput(out)

	alive := AlwaysAliveValues(g)
	assert.True(t, alive[a], "graph input is always alive")
	assert.True(t, alive[out], "graph output is always alive")
	assert.False(t, alive[x])

	ranges := Liveness(g, alive)
	// %x is produced at position 0 and last used at position 1.
	require.Contains(t, ranges, x)
	assert.Equal(t, interval.LiveRange{Begin: 0, End: 2}, ranges[x])
	// %y is produced at position 1 and last used at position 2.
	assert.Equal(t, interval.LiveRange{Begin: 1, End: 3}, ranges[y])
	// %out is always alive and has no range.
	assert.NotContains(t, ranges, out)
}

func TestLiveness_UnusedValueDiesImmediately(t *testing.T) {
	g := NewGraph(testCatalog())
	mm := g.Create("aten::mm", 0)
	x := mm.AddOutput("%x")
	g.Append(mm)

	ranges := Liveness(g, AlwaysAliveValues(g))
	assert.Equal(t, interval.LiveRange{Begin: 0, End: 1}, ranges[x])
}

func TestInsertBefore_SplicesInOrder(t *testing.T) {
	g := NewGraph(nil)
	first := g.Append(g.Create("aten::mm", 1))
	second := g.Append(g.Create("aten::relu", 1))

	inserted := g.Create(KindAllocateTensor, 1)
	inserted.InsertBefore(second)

	require.Len(t, g.Nodes(), 3)
	assert.Same(t, first, g.Nodes()[0])
	assert.Same(t, inserted, g.Nodes()[1])
	assert.Same(t, second, g.Nodes()[2])
}

func TestPrepend_EmptyGraph(t *testing.T) {
	g := NewGraph(nil)
	storage := g.Create(KindAllocateStorage, 1)
	g.Prepend(storage)
	require.Len(t, g.Nodes(), 1)
	assert.Same(t, storage, g.Nodes()[0])
}

func TestNodeHeader(t *testing.T) {
	g := NewGraph(testCatalog())
	a := g.AddInput("%a")
	b := g.AddInput("%b")
	mm := g.Create("aten::mm", 0)
	mm.AddInput(a)
	mm.AddInput(b)
	mm.AddOutput("%c")
	g.Append(mm)

	assert.Equal(t, "%c = aten::mm(%a, %b)", mm.Header())
	assert.Equal(t, "aten::mm(Tensor self, Tensor mat2) -> Tensor", mm.Schema())
}

func TestNumel(t *testing.T) {
	tt := &TensorType{Dtype: Float, Sizes: []int64{2, 3, 4}}
	n, ok := tt.Numel()
	require.True(t, ok)
	assert.Equal(t, int64(24), n)

	unknown := &TensorType{Dtype: Float}
	_, ok = unknown.Numel()
	assert.False(t, ok, "nil sizes cannot be counted")

	partial := &TensorType{Dtype: Float, Sizes: []int64{2, -1}}
	_, ok = partial.Numel()
	assert.False(t, ok, "negative dimension means unprofiled")

	zero := &TensorType{Dtype: Float, Sizes: []int64{0}}
	n, ok = zero.Numel()
	require.True(t, ok)
	assert.Equal(t, int64(0), n)
}

func TestDefaultStrides_RowMajor(t *testing.T) {
	assert.Equal(t, []int64{12, 4, 1}, DefaultStrides([]int64{2, 3, 4}))
	assert.Equal(t, []int64{1}, DefaultStrides([]int64{5}))
	assert.Empty(t, DefaultStrides(nil))
}

func TestElementSize(t *testing.T) {
	assert.Equal(t, uint64(4), Float.ElementSize())
	assert.Equal(t, uint64(8), Double.ElementSize())
	assert.Equal(t, uint64(2), Half.ElementSize())
	assert.Equal(t, uint64(1), Bool.ElementSize())
	assert.Equal(t, uint64(0), ScalarUnknown.ElementSize())
}
