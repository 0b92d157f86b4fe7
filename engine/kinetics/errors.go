package kinetics

import "fmt"

// OwnershipResolutionMiss reports packed vertices that no instance claims.
// The partition law guarantees this never happens for a well-formed layout,
// so any miss is an integrity violation and treated as fatal by the frame
// driver.
type OwnershipResolutionMiss struct {
	Misses        uint64
	TotalVertices uint32
}

func (e *OwnershipResolutionMiss) Error() string {
	return fmt.Sprintf("kinetics: %d of %d vertices resolved to no owner", e.Misses, e.TotalVertices)
}
