// Package verify implements the offline correctness check: it replays the
// motion pass on the CPU, dumps animated positions as raw little-endian
// float32, and compares a dump against a reference within an epsilon and
// an allowed mismatch ratio.
package verify

import (
	"fmt"
	"math"
	"os"

	"github.com/driftgl/drift/common"
	"github.com/driftgl/drift/engine/kinetics"
	"github.com/driftgl/drift/engine/layout"
)

const (
	// DefaultEpsilon is the per-element absolute tolerance.
	DefaultEpsilon = 10.0
	// DefaultThreshold is the allowed fraction of elements outside the
	// epsilon before the comparison fails.
	DefaultThreshold = 0.30
)

// Result summarizes an element-wise comparison of two position dumps.
type Result struct {
	// Total is the number of float32 elements compared.
	Total int
	// Mismatches is the number of elements whose absolute difference
	// exceeded the epsilon.
	Mismatches int
	// MaxError is the largest absolute difference observed.
	MaxError float64
}

// Ratio returns the mismatch fraction, or 0 for an empty comparison.
//
// Returns:
//   - float64: mismatches divided by total
func (r Result) Ratio() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Mismatches) / float64(r.Total)
}

// Match reports whether the mismatch ratio is within the given threshold.
//
// Parameters:
//   - threshold: the allowed mismatch fraction
//
// Returns:
//   - bool: true if the dumps agree within the threshold
func (r Result) Match(threshold float64) bool {
	return r.Ratio() <= threshold
}

// Dump writes animated positions to a file as raw little-endian float32,
// four components per vertex, in packed vertex order.
//
// Parameters:
//   - path: the output file path
//   - positions: the flattened position data
//
// Returns:
//   - error: an error if the file cannot be written
func Dump(path string, positions []float32) error {
	if err := os.WriteFile(path, common.SliceToBytes(positions), 0o644); err != nil {
		return fmt.Errorf("verify: dump %s: %w", path, err)
	}
	return nil
}

// LoadReference reads a position dump written by Dump (or by another
// implementation using the same raw float32 format).
//
// Parameters:
//   - path: the reference file path
//
// Returns:
//   - []float32: the flattened position data
//   - error: an error if the file cannot be read or is not float32-aligned
func LoadReference(path string) ([]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("verify: load %s: %w", path, err)
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("verify: %s: %d bytes is not a whole number of float32 values", path, len(data))
	}
	return common.BytesToFloat32(data), nil
}

// Compare checks two position dumps element-wise against an absolute
// epsilon. The dumps must be the same length.
//
// Parameters:
//   - actual: the dump under test
//   - reference: the trusted dump
//   - epsilon: the per-element absolute tolerance
//
// Returns:
//   - Result: the comparison summary
//   - error: an error if the lengths differ
func Compare(actual, reference []float32, epsilon float64) (Result, error) {
	if len(actual) != len(reference) {
		return Result{}, fmt.Errorf("verify: length mismatch: %d vs %d elements", len(actual), len(reference))
	}

	res := Result{Total: len(actual)}
	for i := range actual {
		diff := math.Abs(float64(actual[i]) - float64(reference[i]))
		if diff > res.MaxError {
			res.MaxError = diff
		}
		if diff > epsilon {
			res.Mismatches++
		}
	}
	return res, nil
}

// Replay computes the animated positions for a layout at the given elapsed
// time on the CPU, using the same motion law as the compute shader. The
// result is flattened in packed vertex order, four floats per vertex.
//
// Parameters:
//   - l: the packed layout
//   - elapsed: the absolute animation time in seconds
//
// Returns:
//   - []float32: the flattened animated positions
//   - error: an OwnershipResolutionMiss if any vertex resolved to no owner
func Replay(l *layout.Layout, elapsed float32) ([]float32, error) {
	rest := l.Vertices()
	out := make([][4]float32, len(rest))
	kernel := kinetics.NewKernel(l.Instances(), kinetics.NewBinaryResolver(l.Starts()))

	if misses := kernel.Step(rest, out, elapsed); misses > 0 {
		return nil, &kinetics.OwnershipResolutionMiss{
			Misses:        misses,
			TotalVertices: uint32(len(rest)),
		}
	}

	flat := make([]float32, 0, len(out)*4)
	for _, v := range out {
		flat = append(flat, v[0], v[1], v[2], v[3])
	}
	return flat, nil
}
