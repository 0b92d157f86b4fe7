package kinetics

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftgl/drift/engine/layout"
	"github.com/driftgl/drift/engine/mesh"
)

func buildLayout(t *testing.T, counts ...int) *layout.Layout {
	t.Helper()
	b := layout.NewBuilder(layout.WithRandSeed(11))
	for _, n := range counts {
		positions := make([][3]float32, n)
		indices := make([]uint32, 0, (n-2)*3)
		for i := 2; i < n; i++ {
			indices = append(indices, 0, uint32(i-1), uint32(i))
		}
		b.Append(mesh.NewTemplate(positions, indices), 1)
	}
	l, err := b.Build()
	require.NoError(t, err)
	return l
}

func TestResolversPartitionEveryVertex(t *testing.T) {
	l := buildLayout(t, 4, 3, 7, 5)
	linear := NewLinearResolver(l.Starts())
	binary := NewBinaryResolver(l.Starts())

	// every packed vertex has exactly one owner, and both resolvers agree
	claimed := make([]int, len(l.Instances()))
	for v := 0; v < l.TotalVertices(); v++ {
		lo, ok := linear.Owner(uint32(v))
		require.True(t, ok, "vertex %d unowned", v)
		bo, ok := binary.Owner(uint32(v))
		require.True(t, ok)
		assert.Equal(t, lo, bo, "resolvers disagree on vertex %d", v)
		claimed[lo]++
	}
	for i, inst := range l.Instances() {
		assert.Equal(t, int(inst.VertexCount), claimed[i])
	}
}

func TestResolversRejectOutOfRange(t *testing.T) {
	l := buildLayout(t, 4, 3)
	for _, r := range []Resolver{NewLinearResolver(l.Starts()), NewBinaryResolver(l.Starts())} {
		_, ok := r.Owner(uint32(l.TotalVertices()))
		assert.False(t, ok)
		_, ok = r.Owner(1 << 30)
		assert.False(t, ok)
	}
}

func TestResolversEmptyLayout(t *testing.T) {
	for _, r := range []Resolver{NewLinearResolver([]uint32{0}), NewBinaryResolver([]uint32{0})} {
		_, ok := r.Owner(0)
		assert.False(t, ok)
	}
}

func TestBinaryResolverMatchesLinearFuzz(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	counts := make([]int, 50)
	for i := range counts {
		counts[i] = rng.Intn(40) + 3
	}
	l := buildLayout(t, counts...)
	linear := NewLinearResolver(l.Starts())
	binary := NewBinaryResolver(l.Starts())

	for i := 0; i < 2000; i++ {
		v := uint32(rng.Intn(l.TotalVertices() + 10))
		lo, lok := linear.Owner(v)
		bo, bok := binary.Owner(v)
		require.Equal(t, lok, bok, "vertex %d", v)
		if lok {
			assert.Equal(t, lo, bo, "vertex %d", v)
		}
	}
}
