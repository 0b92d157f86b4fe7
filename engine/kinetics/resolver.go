// Package kinetics animates the packed vertex buffer: it resolves which
// instance owns each vertex and applies the velocity-driven motion law,
// either on the GPU (motion compute shader) or on the CPU (reference
// kernel used by verification and tests).
package kinetics

import "sort"

// Resolver maps a packed vertex index to the instance that owns it.
// Implementations are immutable once constructed and safe for concurrent
// reads.
type Resolver interface {
	// Owner resolves the owning instance of a packed vertex.
	//
	// Parameters:
	//   - vertex: the packed vertex index
	//
	// Returns:
	//   - int: the owning instance index
	//   - bool: false if the vertex is outside every instance's range
	Owner(vertex uint32) (int, bool)
}

// linearResolver is the implementation of Resolver that walks the running
// offsets front to back, mirroring the walk the compute shader performs.
type linearResolver struct {
	starts []uint32
}

// binaryResolver is the implementation of Resolver that binary-searches the
// running offsets.
type binaryResolver struct {
	starts []uint32
}

var _ Resolver = &linearResolver{}
var _ Resolver = &binaryResolver{}

// NewLinearResolver creates a Resolver that scans the running vertex-start
// offsets sequentially. It is the baseline oracle the binary resolver is
// checked against.
//
// Parameters:
//   - starts: running offsets as produced by layout.Layout.Starts
//
// Returns:
//   - Resolver: the new resolver
func NewLinearResolver(starts []uint32) Resolver {
	return &linearResolver{starts: starts}
}

// NewBinaryResolver creates a Resolver that binary-searches the running
// vertex-start offsets. Observable behavior is identical to the linear
// resolver.
//
// Parameters:
//   - starts: running offsets as produced by layout.Layout.Starts
//
// Returns:
//   - Resolver: the new resolver
func NewBinaryResolver(starts []uint32) Resolver {
	return &binaryResolver{starts: starts}
}

func (r *linearResolver) Owner(vertex uint32) (int, bool) {
	for i := 0; i+1 < len(r.starts); i++ {
		if vertex >= r.starts[i] && vertex < r.starts[i+1] {
			return i, true
		}
	}
	return 0, false
}

func (r *binaryResolver) Owner(vertex uint32) (int, bool) {
	n := len(r.starts)
	if n < 2 || vertex >= r.starts[n-1] {
		return 0, false
	}
	// first offset strictly greater than vertex; the owner is the run
	// preceding it
	i := sort.Search(n, func(i int) bool {
		return r.starts[i] > vertex
	})
	return i - 1, true
}
