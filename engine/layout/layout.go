// Package layout packs many mesh instances into a single shared vertex and
// index buffer and records the per-instance bookkeeping (vertex counts,
// velocities, running offsets) that the motion kernel consumes.
package layout

import "fmt"

// MaxMappings is the default ceiling on the packed index count. The index
// buffer grows with instance-count * template-index-count and this guard
// keeps a misconfigured scene from attempting a multi-gigabyte allocation.
const MaxMappings = 100_000_000

// CapacityExceeded reports a build whose total index count would exceed the
// configured mapping ceiling. It is returned before any buffer is allocated.
type CapacityExceeded struct {
	Requested uint64
	Ceiling   uint64
}

func (e *CapacityExceeded) Error() string {
	return fmt.Sprintf("layout: %d indices requested, ceiling is %d", e.Requested, e.Ceiling)
}

// Instance describes one packed mesh instance. VertexCount caches the
// template's position count so per-frame descriptor uploads and ownership
// resolution never chase the template pointer; it is never zero for a built
// instance.
type Instance struct {
	TemplateID  int
	VertexCount uint32
	Velocity    [3]float32
}

// Layout is the immutable result of a Build: the packed rest-pose vertex
// buffer, the offset index buffer, the instance table, and the running
// vertex-start offsets.
type Layout struct {
	instances []Instance
	vertices  [][4]float32
	indices   []uint32
	starts    []uint32
	boundsMin [3]float32
	boundsMax [3]float32
}

// Instances returns the packed instance table in build order.
// The returned slice is shared - callers must not modify it.
//
// Returns:
//   - []Instance: the instance table
func (l *Layout) Instances() []Instance {
	return l.instances
}

// Vertices returns the packed rest-pose positions, one vec4 (x, y, z, 1) per
// vertex, instance-major. The returned slice is shared - callers must not
// modify it.
//
// Returns:
//   - [][4]float32: packed rest-pose positions
func (l *Layout) Vertices() [][4]float32 {
	return l.vertices
}

// Indices returns the packed triangle indices. Each instance's indices are
// offset by that instance's vertex start so they address the packed buffer
// directly. The returned slice is shared - callers must not modify it.
//
// Returns:
//   - []uint32: packed triangle indices
func (l *Layout) Indices() []uint32 {
	return l.indices
}

// Starts returns the running vertex-start offsets: Starts()[i] is the first
// packed vertex of instance i and Starts()[len(instances)] is the total
// vertex count. The returned slice is shared - callers must not modify it.
//
// Returns:
//   - []uint32: len(instances)+1 running offsets
func (l *Layout) Starts() []uint32 {
	return l.starts
}

// TotalVertices returns the packed vertex count.
//
// Returns:
//   - int: total vertices across all instances
func (l *Layout) TotalVertices() int {
	return len(l.vertices)
}

// TotalIndices returns the packed index count.
//
// Returns:
//   - int: total indices across all instances
func (l *Layout) TotalIndices() int {
	return len(l.indices)
}

// Bounds returns the axis-aligned bounding box of the packed rest pose,
// the union of the bounds of every template used.
//
// Returns:
//   - [3]float32: minimum corner
//   - [3]float32: maximum corner
func (l *Layout) Bounds() ([3]float32, [3]float32) {
	return l.boundsMin, l.boundsMax
}
