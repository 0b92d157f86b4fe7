// Package sharedbuf guards the animated vertex buffer that the motion
// compute pass writes and the draw pass reads. The buffer is a single GPU
// allocation aliased by both passes; the guard enforces the handoff so a
// frame never draws while the compute side holds the write view.
package sharedbuf

import (
	"errors"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/driftgl/drift/engine/core"
)

var (
	// ErrWriteHeld is returned when a view is requested while the exclusive
	// write view is outstanding.
	ErrWriteHeld = errors.New("sharedbuf: write view outstanding")
	// ErrReadHeld is returned when the write view is requested while read
	// views are outstanding.
	ErrReadHeld = errors.New("sharedbuf: read views outstanding")
	// ErrDestroyed is returned for any acquire after Destroy.
	ErrDestroyed = errors.New("sharedbuf: buffer destroyed")
)

// sharedBuffer is the implementation of the SharedBuffer interface.
type sharedBuffer struct {
	mu sync.Mutex

	buffer *wgpu.Buffer
	size   uint64

	writeHeld bool
	readers   int
	destroyed bool
}

// SharedBuffer is the ownership guard around the animated vertex buffer.
// One writer or any number of readers may hold the buffer at a time, never
// both. All methods are safe for concurrent use.
type SharedBuffer interface {
	// AcquireForWrite takes the exclusive write view. Fails if any view is
	// outstanding or the buffer is destroyed.
	//
	// Returns:
	//   - *WriteView: the exclusive view
	//   - error: ErrWriteHeld, ErrReadHeld or ErrDestroyed
	AcquireForWrite() (*WriteView, error)

	// AcquireForRead takes a shared read view for the draw path. Fails if
	// the write view is outstanding or the buffer is destroyed.
	//
	// Returns:
	//   - *ReadView: the shared view
	//   - error: ErrWriteHeld or ErrDestroyed
	AcquireForRead() (*ReadView, error)

	// Size returns the buffer size in bytes.
	//
	// Returns:
	//   - uint64: the size in bytes
	Size() uint64

	// Destroy releases the underlying GPU buffer. Safe to call more than
	// once and safe to call mid-frame; outstanding views keep their Go-side
	// state but the GPU allocation is gone.
	Destroy()
}

var _ SharedBuffer = &sharedBuffer{}

// New wraps a GPU buffer in a SharedBuffer guard. The guard takes ownership;
// Destroy releases the buffer.
//
// Parameters:
//   - buffer: the GPU buffer, created with Vertex|Storage usage
//   - size: the buffer size in bytes
//
// Returns:
//   - SharedBuffer: the new guard
func New(buffer *wgpu.Buffer, size uint64) SharedBuffer {
	return &sharedBuffer{buffer: buffer, size: size}
}

// WriteView is the exclusive handle the compute pass holds while rewriting
// the buffer. Release returns the buffer to the pool; releasing more than
// once is a no-op.
type WriteView struct {
	owner    *sharedBuffer
	released bool
}

// Buffer returns the underlying GPU buffer for binding as read_write storage.
//
// Returns:
//   - *wgpu.Buffer: the buffer, or nil after Destroy
func (v *WriteView) Buffer() *wgpu.Buffer {
	v.owner.mu.Lock()
	defer v.owner.mu.Unlock()
	return v.owner.buffer
}

// Release gives up the exclusive view. Idempotent.
func (v *WriteView) Release() {
	v.owner.mu.Lock()
	defer v.owner.mu.Unlock()
	if v.released {
		return
	}
	v.released = true
	v.owner.writeHeld = false
}

// ReadView is a shared handle the draw path holds while the buffer is bound
// as the vertex source. Release is idempotent.
type ReadView struct {
	owner    *sharedBuffer
	released bool
}

// Buffer returns the underlying GPU buffer for binding as the vertex source.
//
// Returns:
//   - *wgpu.Buffer: the buffer, or nil after Destroy
func (v *ReadView) Buffer() *wgpu.Buffer {
	v.owner.mu.Lock()
	defer v.owner.mu.Unlock()
	return v.owner.buffer
}

// Release gives up the shared view. Idempotent.
func (v *ReadView) Release() {
	v.owner.mu.Lock()
	defer v.owner.mu.Unlock()
	if v.released {
		return
	}
	v.released = true
	v.owner.readers--
}

func (s *sharedBuffer) AcquireForWrite() (*WriteView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return nil, ErrDestroyed
	}
	if s.writeHeld {
		return nil, ErrWriteHeld
	}
	if s.readers > 0 {
		return nil, ErrReadHeld
	}
	s.writeHeld = true
	return &WriteView{owner: s}, nil
}

func (s *sharedBuffer) AcquireForRead() (*ReadView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return nil, ErrDestroyed
	}
	if s.writeHeld {
		return nil, ErrWriteHeld
	}
	s.readers++
	return &ReadView{owner: s}, nil
}

func (s *sharedBuffer) Size() uint64 {
	return s.size
}

func (s *sharedBuffer) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	s.destroyed = true
	if s.writeHeld || s.readers > 0 {
		core.LogWarn("sharedbuf: destroying with views outstanding")
	}
	if s.buffer != nil {
		s.buffer.Release()
		s.buffer = nil
	}
}
