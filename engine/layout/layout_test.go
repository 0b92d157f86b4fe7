package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftgl/drift/engine/mesh"
)

func quadTemplate() *mesh.Template {
	return mesh.NewTemplate(
		[][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		[]uint32{0, 1, 2, 0, 2, 3},
	)
}

func triTemplate() *mesh.Template {
	return mesh.NewTemplate(
		[][3]float32{{0, 0, 0}, {2, 0, 0}, {0, 2, 0}},
		[]uint32{0, 1, 2},
	)
}

func TestBuildPacksMixedTemplates(t *testing.T) {
	l, err := NewBuilder(WithRandSeed(1)).
		Append(quadTemplate(), 1).
		Append(triTemplate(), 1).
		Build()
	require.NoError(t, err)

	assert.Equal(t, 7, l.TotalVertices())
	assert.Equal(t, 9, l.TotalIndices())
	require.Len(t, l.Instances(), 2)
	assert.Equal(t, uint32(4), l.Instances()[0].VertexCount)
	assert.Equal(t, uint32(3), l.Instances()[1].VertexCount)

	// the second instance's indices address the packed buffer, shifted past
	// the first instance's four vertices
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3, 4, 5, 6}, l.Indices())
	assert.Equal(t, []uint32{0, 4, 7}, l.Starts())
}

func TestBuildPrefixSumPartition(t *testing.T) {
	l, err := NewBuilder(WithRandSeed(7)).
		Append(quadTemplate(), 3).
		Append(triTemplate(), 2).
		Append(quadTemplate(), 1).
		Build()
	require.NoError(t, err)

	starts := l.Starts()
	require.Len(t, starts, len(l.Instances())+1)
	assert.Equal(t, uint32(0), starts[0])
	for i, inst := range l.Instances() {
		assert.Equal(t, starts[i]+inst.VertexCount, starts[i+1])
	}
	assert.Equal(t, uint32(l.TotalVertices()), starts[len(starts)-1])

	// every index stays inside the packed buffer
	for _, idx := range l.Indices() {
		assert.Less(t, int(idx), l.TotalVertices())
	}
}

func TestBuildRestPoseVertices(t *testing.T) {
	tri := triTemplate()
	l, err := NewBuilder(WithRandSeed(3)).Append(tri, 2).Build()
	require.NoError(t, err)

	require.Equal(t, 6, l.TotalVertices())
	for i := 0; i < 2; i++ {
		for vi, p := range tri.Positions() {
			got := l.Vertices()[i*3+vi]
			assert.Equal(t, [4]float32{p[0], p[1], p[2], 1}, got)
		}
	}
}

func TestBuildCeilingBoundary(t *testing.T) {
	// Two quads pack 8 vertices but 12 indices; the ceiling bounds the
	// index count, so 12 is the boundary, not 8.
	quad := quadTemplate()

	// exactly at the ceiling: allowed
	l, err := NewBuilder(WithRandSeed(1), WithMappingCeiling(12)).Append(quad, 2).Build()
	require.NoError(t, err)
	assert.Equal(t, 12, l.TotalIndices())
	assert.Equal(t, 8, l.TotalVertices())

	// one index over: rejected before allocation
	l, err = NewBuilder(WithRandSeed(1), WithMappingCeiling(11)).Append(quad, 2).Build()
	require.Error(t, err)
	assert.Nil(t, l)

	var ce *CapacityExceeded
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, uint64(12), ce.Requested)
	assert.Equal(t, uint64(11), ce.Ceiling)
}

func TestBuildVelocityRange(t *testing.T) {
	l, err := NewBuilder(WithRandSeed(42), WithVelocityRange(-2, 2)).
		Append(triTemplate(), 100).
		Build()
	require.NoError(t, err)

	for _, inst := range l.Instances() {
		for _, v := range inst.Velocity {
			assert.GreaterOrEqual(t, v, float32(-2))
			assert.Less(t, v, float32(2))
		}
	}
}

func TestBuildSeedReproducible(t *testing.T) {
	build := func() *Layout {
		l, err := NewBuilder(WithRandSeed(99)).Append(quadTemplate(), 10).Build()
		require.NoError(t, err)
		return l
	}
	a, b := build(), build()
	assert.Equal(t, a.Instances(), b.Instances())
	assert.Equal(t, a.Vertices(), b.Vertices())
	assert.Equal(t, a.Indices(), b.Indices())
}

func TestBuildTemplateIDsAndBounds(t *testing.T) {
	quad, tri := quadTemplate(), triTemplate()
	l, err := NewBuilder(WithRandSeed(5)).
		Append(quad, 2).
		Append(tri, 1).
		Append(quad, 1).
		Build()
	require.NoError(t, err)

	ids := make([]int, 0, len(l.Instances()))
	for _, inst := range l.Instances() {
		ids = append(ids, inst.TemplateID)
	}
	assert.Equal(t, []int{0, 0, 1, 0}, ids)

	min, max := l.Bounds()
	assert.Equal(t, [3]float32{0, 0, 0}, min)
	assert.Equal(t, [3]float32{2, 2, 0}, max)
}

func TestBuildEmpty(t *testing.T) {
	l, err := NewBuilder(WithRandSeed(1)).Build()
	require.NoError(t, err)
	assert.Zero(t, l.TotalVertices())
	assert.Zero(t, l.TotalIndices())
	assert.Equal(t, []uint32{0}, l.Starts())
}
