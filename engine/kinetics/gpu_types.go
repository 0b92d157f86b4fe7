package kinetics

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// Binding indices of the motion compute shader's single bind group.
// These match the @binding declarations in MotionComputeSource.
const (
	BindingFrameGlobals  = 0
	BindingInstanceTable = 1
	BindingRestPose      = 2
	BindingAnimated      = 3
)

// WorkgroupSize is the X dimension of the motion compute workgroup. One
// invocation animates one vertex.
const WorkgroupSize = 256

// MotionComputeSource is the motion compute shader. Each invocation resolves
// the owning instance of one packed vertex and rewrites its position from the
// rest pose, the instance velocity and the elapsed time.
//
//go:embed assets/motion_compute.wgsl
var MotionComputeSource string

// GPUFrameGlobalsSource is the canonical WGSL definition of the FrameGlobals struct.
// Matches GPUFrameGlobals layout exactly (16 bytes, std140 aligned).
//
//go:embed assets/frame_globals.wgsl
var GPUFrameGlobalsSource string

// GPUFrameGlobals is the GPU-aligned representation of per-frame uniform data
// for the motion compute shader.
// Matches the WGSL FrameGlobals struct layout exactly (see GPUFrameGlobalsSource).
// Size: 16 bytes.
type GPUFrameGlobals struct {
	InstanceCount uint32  // offset 0: number of entries in the instance table
	TotalVertices uint32  // offset 4: packed vertex count, bounds the dispatch
	Elapsed       float32 // offset 8: absolute animation time in seconds
	_pad0         float32 // offset 12: struct pad to 16 bytes
}

// Size returns the size of the GPUFrameGlobals struct in bytes.
//
// Returns:
//   - int: The size of the struct in bytes.
func (g *GPUFrameGlobals) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUFrameGlobals struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload.
func (g *GPUFrameGlobals) Marshal() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], g.InstanceCount)
	binary.LittleEndian.PutUint32(buf[4:8], g.TotalVertices)
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Elapsed))
	binary.LittleEndian.PutUint32(buf[12:16], 0) // _pad0
	return buf
}

// GPUObjectInstanceSource is the canonical WGSL definition of the ObjectInstance struct.
// Matches GPUObjectInstance layout exactly (16 bytes, std430 aligned).
//
//go:embed assets/object_instance.wgsl
var GPUObjectInstanceSource string

// GPUObjectInstance is the GPU-aligned representation of one instance table
// entry: the instance velocity and its cached vertex count.
// Matches the WGSL ObjectInstance struct layout exactly (see GPUObjectInstanceSource).
// Size: 16 bytes (vec3 velocity + u32 count, std430 aligned).
type GPUObjectInstance struct {
	Velocity    [3]float32 // offset 0: velocity (x, y, z)
	VertexCount uint32     // offset 12: vertex count, fills the vec3 pad slot
}

// Size returns the size of the GPUObjectInstance struct in bytes.
//
// Returns:
//   - int: The size of the struct in bytes.
func (g *GPUObjectInstance) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUObjectInstance struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload.
func (g *GPUObjectInstance) Marshal() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Velocity[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Velocity[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Velocity[2]))
	binary.LittleEndian.PutUint32(buf[12:16], g.VertexCount)
	return buf
}
