package kinetics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftgl/drift/engine/layout"
)

func TestKernelMotionLaw(t *testing.T) {
	instances := []layout.Instance{{VertexCount: 1, Velocity: [3]float32{1, 0, 0}}}
	k := NewKernel(instances, NewLinearResolver([]uint32{0, 1}))

	rest := [][4]float32{{0, 0, 0, 1}}
	out := make([][4]float32, 1)
	misses := k.Step(rest, out, 2)
	assert.Zero(t, misses)
	assert.Equal(t, [4]float32{2, 0, 0, 1}, out[0])
}

func TestKernelSwapsDisplacementChannels(t *testing.T) {
	instances := []layout.Instance{{VertexCount: 1, Velocity: [3]float32{0, 3, 5}}}
	k := NewKernel(instances, NewLinearResolver([]uint32{0, 1}))

	rest := [][4]float32{{10, 20, 30, 1}}
	out := make([][4]float32, 1)
	k.Step(rest, out, 1)

	// x keeps its channel; the y and z displacement terms land swapped
	assert.Equal(t, [4]float32{10, 35, 23, 1}, out[0])
}

func TestKernelHomogeneousW(t *testing.T) {
	instances := []layout.Instance{{VertexCount: 2, Velocity: [3]float32{0.5, -0.5, 0.25}}}
	k := NewKernel(instances, NewBinaryResolver([]uint32{0, 2}))

	rest := [][4]float32{{1, 2, 3, 0}, {4, 5, 6, 7}}
	out := make([][4]float32, 2)
	k.Step(rest, out, 0.5)
	for _, p := range out {
		assert.Equal(t, float32(1), p[3])
	}
}

func TestKernelZeroElapsedReproducesRestPose(t *testing.T) {
	instances := []layout.Instance{
		{VertexCount: 2, Velocity: [3]float32{1, 2, 3}},
		{VertexCount: 1, Velocity: [3]float32{-1, -2, -3}},
	}
	k := NewKernel(instances, NewLinearResolver([]uint32{0, 2, 3}))

	rest := [][4]float32{{1, 2, 3, 1}, {4, 5, 6, 1}, {7, 8, 9, 1}}
	out := make([][4]float32, 3)
	k.Step(rest, out, 0)

	// at t=0 positions equal the rest pose with the y/z channels swapped
	assert.Equal(t, [4]float32{1, 3, 2, 1}, out[0])
	assert.Equal(t, [4]float32{4, 6, 5, 1}, out[1])
	assert.Equal(t, [4]float32{7, 9, 8, 1}, out[2])
}

func TestKernelCountsMisses(t *testing.T) {
	// starts deliberately cover only 2 of the 3 vertices
	instances := []layout.Instance{{VertexCount: 2, Velocity: [3]float32{1, 1, 1}}}
	k := NewKernel(instances, NewLinearResolver([]uint32{0, 2}))

	rest := [][4]float32{{0, 0, 0, 1}, {0, 0, 0, 1}, {9, 9, 9, 9}}
	out := make([][4]float32, 3)
	copy(out, rest)

	misses := k.Step(rest, out, 1)
	require.Equal(t, uint64(1), misses)
	assert.Equal(t, uint64(1), k.Misses())

	// the unowned vertex is left exactly as it was
	assert.Equal(t, [4]float32{9, 9, 9, 9}, out[2])

	k.Step(rest, out, 2)
	assert.Equal(t, uint64(2), k.Misses())
}

func TestKernelIsDeterministicInElapsed(t *testing.T) {
	instances := []layout.Instance{{VertexCount: 1, Velocity: [3]float32{2, 4, 6}}}
	k := NewKernel(instances, NewLinearResolver([]uint32{0, 1}))

	rest := [][4]float32{{0, 0, 0, 1}}
	a := make([][4]float32, 1)
	b := make([][4]float32, 1)

	// absolute time, not accumulation: stepping to t twice gives the same
	// result regardless of what ran in between
	k.Step(rest, a, 3)
	k.Step(rest, b, 7)
	k.Step(rest, b, 3)
	assert.Equal(t, a, b)
}
