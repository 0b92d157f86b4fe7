package engine

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubWindow is a headless Window whose message loop returns immediately,
// standing in for the user closing the window.
type stubWindow struct {
	closed bool
}

func (w *stubWindow) SetUpdateCallback(func())                   {}
func (w *stubWindow) SetResizeCallback(func(int, int))           {}
func (w *stubWindow) SetKeyDownCallback(func(uint32))            {}
func (w *stubWindow) SetKeyUpCallback(func(uint32))              {}
func (w *stubWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor { return nil }
func (w *stubWindow) IsRunning() bool                            { return !w.closed }
func (w *stubWindow) Close() error                               { w.closed = true; return nil }
func (w *stubWindow) ProcessMessages()                           { w.closed = true }
func (w *stubWindow) Width() int                                 { return 640 }
func (w *stubWindow) Height() int                                { return 480 }

func TestRunJoinsLoopsOnWindowClose(t *testing.T) {
	e := NewEngine(WithWindow(&stubWindow{}))

	var frames atomic.Int64
	e.SetRenderCallback(func(float32) {
		frames.Add(1)
	})

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after the message loop exited")
	}

	// Once Run has returned the render goroutine must be stopped, so the
	// frame counter no longer advances.
	after := frames.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, frames.Load())
}

func TestQuitIdempotent(t *testing.T) {
	e := NewEngine(WithWindow(&stubWindow{}))
	require.NotPanics(t, func() {
		e.Quit()
		e.Quit()
	})
}
