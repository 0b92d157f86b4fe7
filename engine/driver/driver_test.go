package driver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftgl/drift/engine/kinetics"
	"github.com/driftgl/drift/engine/layout"
	"github.com/driftgl/drift/engine/mesh"
	"github.com/driftgl/drift/engine/renderer/bind_group_provider"
	"github.com/driftgl/drift/engine/renderer/sharedbuf"
)

// fakeGPU records the frame sequence the driver issues.
type fakeGPU struct {
	writes     [][]bind_group_provider.BufferWrite
	dispatches [][3]uint32
	keys       []string

	beginErr    error
	beginCalls  int
	endCalls    int
	onDispatch  func()
	submitCount int
}

func (f *fakeGPU) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	copied := make([]bind_group_provider.BufferWrite, len(writes))
	copy(copied, writes)
	f.writes = append(f.writes, copied)
}

func (f *fakeGPU) BeginComputeFrame() error {
	f.beginCalls++
	return f.beginErr
}

func (f *fakeGPU) DispatchCompute(pipelineKey string, _ bind_group_provider.BindGroupProvider, workGroupCount [3]uint32) {
	f.keys = append(f.keys, pipelineKey)
	f.dispatches = append(f.dispatches, workGroupCount)
	if f.onDispatch != nil {
		f.onDispatch()
	}
}

func (f *fakeGPU) EndComputeFrame() {
	f.endCalls++
	f.submitCount++
}

func buildLayout(t *testing.T, counts ...int) *layout.Layout {
	t.Helper()
	b := layout.NewBuilder(layout.WithRandSeed(3))
	for _, n := range counts {
		positions := make([][3]float32, n)
		indices := make([]uint32, 0, 3*(n-2))
		for i := 2; i < n; i++ {
			indices = append(indices, 0, uint32(i-1), uint32(i))
		}
		b.Append(mesh.NewTemplate(positions, indices), 1)
	}
	l, err := b.Build()
	require.NoError(t, err)
	return l
}

// bindings staged in one frame's writes
func stagedBindings(writes [][]bind_group_provider.BufferWrite) []int {
	var bindings []int
	for _, batch := range writes {
		for _, w := range batch {
			bindings = append(bindings, w.Binding)
		}
	}
	return bindings
}

func TestStepUploadsRestPoseOnce(t *testing.T) {
	gpu := &fakeGPU{}
	l := buildLayout(t, 4, 3)
	shared := sharedbuf.New(nil, uint64(l.TotalVertices()*16))
	provider := bind_group_provider.NewBindGroupProvider("motion")
	d := NewDriver(gpu, l, provider, shared)

	require.NoError(t, d.Step())
	first := stagedBindings(gpu.writes)
	assert.Contains(t, first, kinetics.BindingRestPose)
	assert.Contains(t, first, kinetics.BindingFrameGlobals)
	assert.Contains(t, first, kinetics.BindingInstanceTable)

	gpu.writes = nil
	require.NoError(t, d.Step())
	second := stagedBindings(gpu.writes)
	assert.NotContains(t, second, kinetics.BindingRestPose)
	assert.Contains(t, second, kinetics.BindingFrameGlobals)
	assert.Contains(t, second, kinetics.BindingInstanceTable)

	assert.True(t, d.State().RestUploaded)
}

func TestRestPoseUploadDeterministic(t *testing.T) {
	// Two drivers over identically built layouts must stage byte-identical
	// rest-pose payloads; the upload is a pure function of the layout.
	restPose := func() []byte {
		gpu := &fakeGPU{}
		b := layout.NewBuilder(layout.WithRandSeed(3))
		b.Append(mesh.NewTemplate(
			[][3]float32{{0.5, -1.25, 2}, {3, 0, -0.75}, {1, 1, 1}},
			[]uint32{0, 1, 2},
		), 2)
		l, err := b.Build()
		require.NoError(t, err)

		shared := sharedbuf.New(nil, uint64(l.TotalVertices()*16))
		d := NewDriver(gpu, l, bind_group_provider.NewBindGroupProvider("motion"), shared)
		require.NoError(t, d.Step())

		for _, batch := range gpu.writes {
			for _, w := range batch {
				if w.Binding == kinetics.BindingRestPose {
					return w.Data
				}
			}
		}
		t.Fatal("no rest-pose write staged")
		return nil
	}

	assert.Equal(t, restPose(), restPose())
}

func TestStepAdvancesElapsedByTimeStep(t *testing.T) {
	gpu := &fakeGPU{}
	l := buildLayout(t, 4)
	shared := sharedbuf.New(nil, 64)
	d := NewDriver(gpu, l, bind_group_provider.NewBindGroupProvider("motion"), shared, WithTimeStep(0.25))

	for range 4 {
		require.NoError(t, d.Step())
	}

	st := d.State()
	assert.Equal(t, uint64(4), st.Frame)
	assert.InDelta(t, 1.0, st.Elapsed, 1e-6)
	assert.Equal(t, PhaseIdle, st.Phase)
}

func TestStepDispatchesMotionPipeline(t *testing.T) {
	gpu := &fakeGPU{}
	l := buildLayout(t, 4, 3)
	shared := sharedbuf.New(nil, 112)
	d := NewDriver(gpu, l, bind_group_provider.NewBindGroupProvider("motion"), shared)

	require.NoError(t, d.Step())

	require.Len(t, gpu.dispatches, 1)
	assert.Equal(t, [3]uint32{1, 1, 1}, gpu.dispatches[0])
	assert.Equal(t, MotionPipelineKey, gpu.keys[0])
	assert.Equal(t, 1, gpu.beginCalls)
	assert.Equal(t, 1, gpu.endCalls)
}

func TestStepHoldsWriteViewDuringDispatch(t *testing.T) {
	gpu := &fakeGPU{}
	l := buildLayout(t, 4)
	shared := sharedbuf.New(nil, 64)
	d := NewDriver(gpu, l, bind_group_provider.NewBindGroupProvider("motion"), shared)

	var duringDispatch error
	gpu.onDispatch = func() {
		_, duringDispatch = shared.AcquireForRead()
	}

	require.NoError(t, d.Step())
	assert.ErrorIs(t, duringDispatch, sharedbuf.ErrWriteHeld)

	// released after the frame
	r, err := shared.AcquireForRead()
	require.NoError(t, err)
	r.Release()
}

func TestStepPropagatesBeginError(t *testing.T) {
	gpu := &fakeGPU{beginErr: errors.New("device lost")}
	l := buildLayout(t, 4)
	shared := sharedbuf.New(nil, 64)
	d := NewDriver(gpu, l, bind_group_provider.NewBindGroupProvider("motion"), shared)

	err := d.Step()
	require.Error(t, err)
	assert.Equal(t, PhaseIdle, d.State().Phase)
	assert.Zero(t, d.State().Frame)

	// the write view must be released on the error path
	w, err := shared.AcquireForWrite()
	require.NoError(t, err)
	w.Release()
}

func TestSetLayoutReuploadsRestPose(t *testing.T) {
	gpu := &fakeGPU{}
	l := buildLayout(t, 4)
	shared := sharedbuf.New(nil, 64)
	d := NewDriver(gpu, l, bind_group_provider.NewBindGroupProvider("motion"), shared)

	require.NoError(t, d.Step())
	gpu.writes = nil

	d.SetLayout(buildLayout(t, 3, 3))
	require.NoError(t, d.Step())
	assert.Contains(t, stagedBindings(gpu.writes), kinetics.BindingRestPose)
	assert.Equal(t, uint32(6), d.Kinetics().TotalVertices())
}

func TestCloseIsExactlyOnce(t *testing.T) {
	gpu := &fakeGPU{}
	l := buildLayout(t, 4)
	shared := sharedbuf.New(nil, 64)
	d := NewDriver(gpu, l, bind_group_provider.NewBindGroupProvider("motion"), shared)

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())

	assert.ErrorIs(t, d.Step(), ErrClosed)

	_, err := shared.AcquireForWrite()
	assert.ErrorIs(t, err, sharedbuf.ErrDestroyed)
}
