// Package driver owns the per-frame animation sequence: advance elapsed
// time, stage the uniform and instance-table uploads, take the exclusive
// write view on the shared animation buffer, and dispatch the motion
// compute pass. All animation state lives in an explicit value owned by
// the driver; there is no package-level mutable state.
package driver

import (
	"errors"
	"sync"

	"github.com/driftgl/drift/common"
	"github.com/driftgl/drift/engine/kinetics"
	"github.com/driftgl/drift/engine/layout"
	"github.com/driftgl/drift/engine/renderer/bind_group_provider"
	"github.com/driftgl/drift/engine/renderer/sharedbuf"
)

// MotionPipelineKey is the renderer cache key of the motion compute pipeline.
const MotionPipelineKey = "motion-compute"

// ErrClosed is returned by Step after the driver has been closed.
var ErrClosed = errors.New("driver: closed")

// Phase describes where the driver is in its frame cycle.
type Phase int

const (
	// PhaseIdle means no frame is in flight.
	PhaseIdle Phase = iota
	// PhaseAnimating means a frame is being staged and dispatched.
	PhaseAnimating
)

// AnimationState is a snapshot of the driver's animation progress.
type AnimationState struct {
	// Phase is the current frame cycle phase.
	Phase Phase
	// Frame is the number of completed animation frames.
	Frame uint64
	// Elapsed is the absolute animation time in seconds.
	Elapsed float32
	// RestUploaded reports whether the rest pose has been uploaded for the
	// current layout.
	RestUploaded bool
}

// GPU is the narrow renderer surface the driver needs for a frame. The
// Renderer satisfies it; tests substitute a fake.
type GPU interface {
	// WriteBuffers writes all staged buffer writes to the GPU queue.
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginComputeFrame opens the batched compute command encoder.
	BeginComputeFrame() error

	// DispatchCompute encodes the keyed compute pass into the open frame.
	DispatchCompute(pipelineKey string, computeProvider bind_group_provider.BindGroupProvider, workGroupCount [3]uint32)

	// EndComputeFrame submits the batched compute commands.
	EndComputeFrame()
}

// driverImpl is the implementation of the Driver interface.
type driverImpl struct {
	mu *sync.Mutex

	gpu      GPU
	kin      kinetics.Kinetics
	lay      *layout.Layout
	provider bind_group_provider.BindGroupProvider
	shared   sharedbuf.SharedBuffer

	state       AnimationState
	timeStep    float32
	pipelineKey string
	closed      bool
}

// Driver advances the animation one frame at a time. All methods are safe
// for concurrent use; Close waits for an in-flight frame to finish.
type Driver interface {
	// Step runs one animation frame: uploads the rest pose if needed,
	// advances elapsed time, stages the frame uniforms and instance table,
	// and dispatches the motion compute pass while holding the exclusive
	// write view on the shared animation buffer.
	//
	// Returns:
	//   - error: ErrClosed after Close, a sharedbuf error if the buffer is
	//     unavailable, or a renderer DeviceError if the dispatch fails
	Step() error

	// State returns a snapshot of the animation state.
	//
	// Returns:
	//   - AnimationState: the current state
	State() AnimationState

	// SetLayout swaps in a new packed layout. The instance table mirror is
	// rebuilt and the rest pose is re-uploaded on the next Step.
	//
	// Parameters:
	//   - l: the new packed layout
	SetLayout(l *layout.Layout)

	// Kinetics returns the motion pass manager, for the verification path.
	//
	// Returns:
	//   - kinetics.Kinetics: the kinetics instance
	Kinetics() kinetics.Kinetics

	// Close destroys the shared animation buffer and releases the compute
	// pass's GPU resources. Waits for an in-flight Step to finish. Safe to
	// call more than once.
	//
	// Returns:
	//   - error: always nil; the signature matches the rest of the teardown path
	Close() error
}

var _ Driver = &driverImpl{}

// NewDriver creates a Driver for the given layout. The provider must carry
// the motion pass's bind group with the shared buffer retained at the
// animated position binding; the driver takes ownership of the shared
// buffer and the provider.
//
// Parameters:
//   - gpu: the renderer surface used to stage and dispatch frames
//   - l: the packed layout to animate
//   - provider: the motion compute pass's BindGroupProvider
//   - shared: the guard around the animated vertex buffer
//   - options: functional options to configure the driver
//
// Returns:
//   - Driver: the new instance
func NewDriver(gpu GPU, l *layout.Layout, provider bind_group_provider.BindGroupProvider, shared sharedbuf.SharedBuffer, options ...DriverOption) Driver {
	d := &driverImpl{
		mu:          &sync.Mutex{},
		gpu:         gpu,
		lay:         l,
		provider:    provider,
		shared:      shared,
		timeStep:    0.01,
		pipelineKey: MotionPipelineKey,
	}
	d.kin = kinetics.NewKinetics(l)
	d.kin.SetProvider(provider)
	for _, opt := range options {
		opt(d)
	}
	return d
}

func (d *driverImpl) Step() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}

	d.state.Phase = PhaseAnimating
	defer func() { d.state.Phase = PhaseIdle }()

	view, err := d.shared.AcquireForWrite()
	if err != nil {
		return err
	}
	defer view.Release()

	if !d.state.RestUploaded {
		d.gpu.WriteBuffers([]bind_group_provider.BufferWrite{{
			Provider: d.provider,
			Binding:  kinetics.BindingRestPose,
			Offset:   0,
			Data:     common.SliceToBytes(d.lay.Vertices()),
		}})
		d.state.RestUploaded = true
	}

	d.state.Elapsed += d.timeStep

	d.kin.PrepareFrame(d.state.Elapsed)
	d.kin.Flush()
	d.gpu.WriteBuffers(d.kin.StagedWriteData())
	d.kin.ClearStagedWriteData()

	if err := d.gpu.BeginComputeFrame(); err != nil {
		return err
	}
	d.gpu.DispatchCompute(d.pipelineKey, d.provider, d.kin.WorkgroupCount())
	d.gpu.EndComputeFrame()

	d.state.Frame++
	return nil
}

func (d *driverImpl) State() AnimationState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *driverImpl) SetLayout(l *layout.Layout) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lay = l
	d.kin.SetLayout(l)
	d.state.RestUploaded = false
}

func (d *driverImpl) Kinetics() kinetics.Kinetics {
	return d.kin
}

func (d *driverImpl) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.shared.Destroy()
	if d.provider != nil {
		d.provider.Release()
	}
	return nil
}
