package verify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftgl/drift/engine/kinetics"
	"github.com/driftgl/drift/engine/layout"
	"github.com/driftgl/drift/engine/mesh"
)

func buildLayout(t *testing.T, counts ...int) *layout.Layout {
	t.Helper()
	b := layout.NewBuilder(layout.WithRandSeed(19))
	for _, n := range counts {
		positions := make([][3]float32, n)
		for i := range positions {
			positions[i] = [3]float32{float32(i), float32(i) * 2, float32(i) * 3}
		}
		indices := make([]uint32, 0, 3*(n-2))
		for i := 2; i < n; i++ {
			indices = append(indices, 0, uint32(i-1), uint32(i))
		}
		b.Append(mesh.NewTemplate(positions, indices), 1)
	}
	l, err := b.Build()
	require.NoError(t, err)
	return l
}

func TestDumpLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.bin")
	positions := []float32{0, 1.5, -2.25, 1, 4, 5, 6, 1}

	require.NoError(t, Dump(path, positions))

	loaded, err := LoadReference(path)
	require.NoError(t, err)
	assert.Equal(t, positions, loaded)
}

func TestLoadReferenceRejectsMisalignedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.bin")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o644))

	_, err := LoadReference(path)
	assert.Error(t, err)
}

func TestCompareWithinEpsilon(t *testing.T) {
	actual := []float32{1.0, 2.0, 3.0, 4.0}
	reference := []float32{1.5, 2.0, 3.5, 4.0}

	res, err := Compare(actual, reference, DefaultEpsilon)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Total)
	assert.Zero(t, res.Mismatches)
	assert.InDelta(t, 0.5, res.MaxError, 1e-6)
	assert.True(t, res.Match(DefaultThreshold))
}

func TestCompareRatioThreshold(t *testing.T) {
	actual := make([]float32, 10)
	reference := make([]float32, 10)
	// 3 of 10 elements outside epsilon: exactly at the 0.30 threshold
	reference[0] = 100
	reference[1] = 100
	reference[2] = 100

	res, err := Compare(actual, reference, DefaultEpsilon)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Mismatches)
	assert.InDelta(t, 0.3, res.Ratio(), 1e-9)
	assert.True(t, res.Match(DefaultThreshold))

	// one more mismatch pushes it over
	reference[3] = 100
	res, err = Compare(actual, reference, DefaultEpsilon)
	require.NoError(t, err)
	assert.False(t, res.Match(DefaultThreshold))
}

func TestCompareLengthMismatch(t *testing.T) {
	_, err := Compare([]float32{1}, []float32{1, 2}, DefaultEpsilon)
	assert.Error(t, err)
}

func TestReplayMatchesKernel(t *testing.T) {
	l := buildLayout(t, 4, 3)

	flat, err := Replay(l, 2.0)
	require.NoError(t, err)
	require.Len(t, flat, int(l.TotalVertices())*4)

	rest := l.Vertices()
	out := make([][4]float32, len(rest))
	kernel := kinetics.NewKernel(l.Instances(), kinetics.NewLinearResolver(l.Starts()))
	require.Zero(t, kernel.Step(rest, out, 2.0))

	for i, v := range out {
		assert.Equal(t, v[0], flat[i*4+0])
		assert.Equal(t, v[1], flat[i*4+1])
		assert.Equal(t, v[2], flat[i*4+2])
		assert.Equal(t, float32(1), flat[i*4+3])
	}
}

func TestReplayAgreesWithItselfThroughDump(t *testing.T) {
	l := buildLayout(t, 5, 4, 3)
	path := filepath.Join(t.TempDir(), "ref.bin")

	flat, err := Replay(l, 0.5)
	require.NoError(t, err)
	require.NoError(t, Dump(path, flat))

	ref, err := LoadReference(path)
	require.NoError(t, err)

	res, err := Compare(flat, ref, DefaultEpsilon)
	require.NoError(t, err)
	assert.Zero(t, res.Mismatches)
	assert.True(t, res.Match(DefaultThreshold))
}
