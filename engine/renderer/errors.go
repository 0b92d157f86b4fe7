package renderer

import "fmt"

// DeviceError wraps a failure reported by the GPU backend. Frame-level
// operations surface these so callers can distinguish a lost or failing
// device from ordinary errors and stop the run loop.
type DeviceError struct {
	// Op names the backend operation that failed.
	Op string
	// Err is the underlying backend error.
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("renderer: %s: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}
