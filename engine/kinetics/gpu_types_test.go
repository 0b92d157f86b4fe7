package kinetics

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGPUFrameGlobalsLayout(t *testing.T) {
	g := GPUFrameGlobals{InstanceCount: 1500, TotalVertices: 54000, Elapsed: 1.25}
	require.Equal(t, 16, g.Size())

	buf := g.Marshal()
	require.Len(t, buf, 16)
	assert.Equal(t, uint32(1500), binary.LittleEndian.Uint32(buf[0:4]))
	assert.Equal(t, uint32(54000), binary.LittleEndian.Uint32(buf[4:8]))
	assert.Equal(t, float32(1.25), math.Float32frombits(binary.LittleEndian.Uint32(buf[8:12])))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(buf[12:16]))
}

func TestGPUObjectInstanceLayout(t *testing.T) {
	g := GPUObjectInstance{Velocity: [3]float32{0.5, -1, 2}, VertexCount: 36}
	require.Equal(t, 16, g.Size())

	buf := g.Marshal()
	require.Len(t, buf, 16)
	assert.Equal(t, float32(0.5), math.Float32frombits(binary.LittleEndian.Uint32(buf[0:4])))
	assert.Equal(t, float32(-1), math.Float32frombits(binary.LittleEndian.Uint32(buf[4:8])))
	assert.Equal(t, float32(2), math.Float32frombits(binary.LittleEndian.Uint32(buf[8:12])))
	assert.Equal(t, uint32(36), binary.LittleEndian.Uint32(buf[12:16]))
}

func TestMotionComputeSourceMatchesCanonicalStructs(t *testing.T) {
	// the standalone shader must carry the exact struct definitions the Go
	// types mirror
	assert.True(t, strings.Contains(MotionComputeSource, strings.TrimSpace(GPUFrameGlobalsSource)))
	assert.True(t, strings.Contains(MotionComputeSource, strings.TrimSpace(GPUObjectInstanceSource)))

	assert.Contains(t, MotionComputeSource, "@workgroup_size(256)")
	assert.Contains(t, MotionComputeSource, "@binding(0) var<uniform> globals")
	assert.Contains(t, MotionComputeSource, "@binding(3) var<storage, read_write> positions")
}
