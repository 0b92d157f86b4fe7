package kinetics

import (
	"sync/atomic"

	"github.com/driftgl/drift/engine/layout"
)

// kernel is the implementation of the Kernel interface.
type kernel struct {
	instances []layout.Instance
	resolver  Resolver
	misses    atomic.Uint64
}

// Kernel is the CPU reference of the motion compute shader. The verification
// path replays frames through it to produce the expected buffer contents,
// and tests use it as the oracle for the GPU-side law.
//
// The motion law rewrites each owned vertex from its rest pose:
//
//	out = (x + vx*t, z + vz*t, y + vy*t, 1)
//
// The y and z displacement channels are intentionally swapped; the swap is
// part of the observable output contract and must match the shader exactly.
type Kernel interface {
	// Step writes one animation frame into out. Every owned vertex is
	// recomputed from rest; unowned vertices are left untouched in out and
	// counted as misses.
	//
	// Parameters:
	//   - rest: packed rest-pose positions
	//   - out: destination buffer, len(out) must equal len(rest)
	//   - elapsed: absolute animation time in seconds
	//
	// Returns:
	//   - uint64: the number of unowned vertices encountered this step
	Step(rest, out [][4]float32, elapsed float32) uint64

	// Misses returns the cumulative unowned-vertex count across all steps.
	//
	// Returns:
	//   - uint64: total misses since construction
	Misses() uint64
}

var _ Kernel = &kernel{}

// NewKernel creates a CPU reference kernel over the given instance table and
// ownership resolver.
//
// Parameters:
//   - instances: the packed instance table
//   - resolver: the vertex ownership resolver
//
// Returns:
//   - Kernel: the new kernel
func NewKernel(instances []layout.Instance, resolver Resolver) Kernel {
	return &kernel{instances: instances, resolver: resolver}
}

func (k *kernel) Step(rest, out [][4]float32, elapsed float32) uint64 {
	var misses uint64
	for vi := range rest {
		owner, ok := k.resolver.Owner(uint32(vi))
		if !ok {
			misses++
			continue
		}
		v := k.instances[owner].Velocity
		p := rest[vi]
		out[vi] = [4]float32{
			p[0] + v[0]*elapsed,
			p[2] + v[2]*elapsed,
			p[1] + v[1]*elapsed,
			1,
		}
	}
	if misses > 0 {
		k.misses.Add(misses)
	}
	return misses
}

func (k *kernel) Misses() uint64 {
	return k.misses.Load()
}
