// Package scene wires the packed layout to the GPU: it creates the shared
// animation buffer, the motion compute pass and the draw pass, and frames
// the whole packed scene with a fixed camera derived from the layout's
// bounding box.
package scene

import (
	_ "embed"
	"math"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/driftgl/drift/common"
	"github.com/driftgl/drift/engine/driver"
	"github.com/driftgl/drift/engine/kinetics"
	"github.com/driftgl/drift/engine/layout"
	"github.com/driftgl/drift/engine/renderer"
	"github.com/driftgl/drift/engine/renderer/bind_group_provider"
	"github.com/driftgl/drift/engine/renderer/pipeline"
	"github.com/driftgl/drift/engine/renderer/sharedbuf"
)

// RenderPipelineKey is the renderer cache key of the scene draw pipeline.
const RenderPipelineKey = "scene-render"

//go:embed assets/scene_render.wgsl
var sceneRenderSource string

// sceneImpl is the implementation of the Scene interface.
type sceneImpl struct {
	mu *sync.Mutex

	rend renderer.Renderer
	lay  *layout.Layout
	drv  driver.Driver

	// shared guards the animated vertex buffer handed between the motion
	// compute pass (writer) and the draw pass (reader).
	shared sharedbuf.SharedBuffer

	computeProvider bind_group_provider.BindGroupProvider
	meshProvider    bind_group_provider.BindGroupProvider
	sceneProvider   bind_group_provider.BindGroupProvider

	timeStep float32
	aspect   float32
	active   bool
	released bool
}

// Scene owns the GPU resources for one packed animated scene and runs its
// per-frame compute and draw phases.
type Scene interface {
	// Renderer returns the renderer this scene draws with.
	//
	// Returns:
	//   - renderer.Renderer: the renderer
	Renderer() renderer.Renderer

	// Driver returns the frame driver, or nil before Init.
	//
	// Returns:
	//   - driver.Driver: the frame driver
	Driver() driver.Driver

	// Init creates the scene's GPU resources: the shared animation buffer,
	// the motion compute pass's bind group, the packed index buffer, the
	// camera uniform, and both pipelines. Must be called once before the
	// frame loop.
	//
	// Returns:
	//   - error: a renderer DeviceError if resource creation fails
	Init() error

	// PrepareCompute advances the animation one frame by running the
	// driver's motion dispatch.
	//
	// Returns:
	//   - error: an error from the frame driver
	PrepareCompute() error

	// DrawCalls encodes the scene's draw command within the current render
	// pass, holding a read view on the shared animation buffer for the
	// duration of the call.
	//
	// Returns:
	//   - error: an error if the draw buffer or pipeline is unavailable
	DrawCalls() error

	// ReadbackPositions copies the animated position buffer back to host
	// memory, blocking until the device finishes. Intended for the
	// verification path, not the per-frame loop.
	//
	// Returns:
	//   - []float32: the animated positions, four floats per vertex
	//   - error: a renderer DeviceError if the copy fails
	ReadbackPositions() ([]float32, error)

	// Active reports whether the scene participates in the frame loop.
	//
	// Returns:
	//   - bool: true if active
	Active() bool

	// SetActive toggles the scene's participation in the frame loop.
	//
	// Parameters:
	//   - active: the new active state
	SetActive(active bool)

	// Release tears down the scene's GPU resources. Safe to call more than
	// once.
	Release()
}

var _ Scene = &sceneImpl{}

// NewScene creates a Scene over a packed layout. Init must be called before
// the frame loop starts.
//
// Parameters:
//   - rend: the renderer to create resources on
//   - l: the packed layout to animate and draw
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the new instance
func NewScene(rend renderer.Renderer, l *layout.Layout, options ...SceneOption) Scene {
	s := &sceneImpl{
		mu:       &sync.Mutex{},
		rend:     rend,
		lay:      l,
		timeStep: 0.01,
		aspect:   16.0 / 9.0,
		active:   true,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *sceneImpl) Renderer() renderer.Renderer {
	return s.rend
}

func (s *sceneImpl) Driver() driver.Driver {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drv
}

func (s *sceneImpl) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	totalBytes := uint64(max(s.lay.TotalVertices(), 1)) * 16

	buf, err := s.rend.CreateSharedVertexBuffer("Animated Positions", totalBytes)
	if err != nil {
		return err
	}
	s.shared = sharedbuf.New(buf, totalBytes)

	// Motion compute pass. The animated position buffer is retained: the
	// sharedbuf guard owns it, the provider only binds it.
	motionLayout := motionBindGroupLayout(len(s.lay.Instances()), s.lay.TotalVertices())
	s.computeProvider = bind_group_provider.NewBindGroupProvider("motion",
		bind_group_provider.WithRetainedBuffer(kinetics.BindingAnimated, buf),
	)
	if err := s.rend.InitBindGroup(s.computeProvider, motionLayout, nil, nil); err != nil {
		return err
	}

	// Draw pass geometry: the packed index buffer plus the shared animated
	// buffer as the vertex source.
	s.meshProvider = bind_group_provider.NewBindGroupProvider("scene-mesh")
	if err := s.rend.InitMeshBuffers(s.meshProvider, nil, common.SliceToBytes(s.lay.Indices()), s.lay.TotalIndices()); err != nil {
		return err
	}
	s.meshProvider.SetRetainedVertexBuffer(buf)

	// Camera uniform, written once; the camera is fixed on the layout's
	// bounding box.
	s.sceneProvider = bind_group_provider.NewBindGroupProvider("scene-globals")
	if err := s.rend.InitBindGroup(s.sceneProvider, sceneBindGroupLayout(), nil, nil); err != nil {
		return err
	}
	s.rend.WriteBuffers([]bind_group_provider.BufferWrite{{
		Provider: s.sceneProvider,
		Binding:  0,
		Offset:   0,
		Data:     common.SliceToBytes(s.viewProjection()),
	}})

	if err := s.rend.RegisterPipelines(
		pipeline.NewPipeline(driver.MotionPipelineKey, pipeline.PipelineTypeCompute,
			pipeline.WithSource(pipeline.StageCompute, kinetics.MotionComputeSource),
			pipeline.WithBindGroupLayout(motionLayout),
		),
		pipeline.NewPipeline(RenderPipelineKey, pipeline.PipelineTypeRender,
			pipeline.WithSource(pipeline.StageVertex, sceneRenderSource),
			pipeline.WithSource(pipeline.StageFragment, sceneRenderSource),
			pipeline.WithBindGroupLayout(sceneBindGroupLayout()),
			pipeline.WithVertexBufferLayouts(wgpu.VertexBufferLayout{
				ArrayStride: 16,
				StepMode:    wgpu.VertexStepModeVertex,
				Attributes: []wgpu.VertexAttribute{{
					Format:         wgpu.VertexFormatFloat32x4,
					Offset:         0,
					ShaderLocation: 0,
				}},
			}),
		),
	); err != nil {
		return err
	}

	s.drv = driver.NewDriver(s.rend, s.lay, s.computeProvider, s.shared,
		driver.WithTimeStep(s.timeStep),
	)
	return nil
}

func (s *sceneImpl) PrepareCompute() error {
	return s.drv.Step()
}

func (s *sceneImpl) DrawCalls() error {
	view, err := s.shared.AcquireForRead()
	if err != nil {
		return err
	}
	defer view.Release()

	return s.rend.DrawCall(RenderPipelineKey, s.meshProvider, 1, []bind_group_provider.BindGroupProvider{s.sceneProvider})
}

func (s *sceneImpl) ReadbackPositions() ([]float32, error) {
	view, err := s.shared.AcquireForRead()
	if err != nil {
		return nil, err
	}
	defer view.Release()

	data, err := s.rend.ReadbackBuffer(view.Buffer(), s.shared.Size())
	if err != nil {
		return nil, err
	}
	return common.BytesToFloat32(data), nil
}

func (s *sceneImpl) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *sceneImpl) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *sceneImpl) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	s.released = true

	if s.drv != nil {
		// Close destroys the shared buffer and releases the compute provider.
		_ = s.drv.Close()
	}
	if s.meshProvider != nil {
		s.meshProvider.Release()
		s.meshProvider = nil
	}
	if s.sceneProvider != nil {
		s.sceneProvider.Release()
		s.sceneProvider = nil
	}
}

// viewProjection builds the fixed camera matrix framing the layout's
// bounding box, in the measure-then-frame style of the classic demo.
func (s *sceneImpl) viewProjection() []float32 {
	bmin, bmax := s.lay.Bounds()

	center := [3]float32{
		(bmin[0] + bmax[0]) / 2,
		(bmin[1] + bmax[1]) / 2,
		(bmin[2] + bmax[2]) / 2,
	}
	radius := float32(1)
	for i := range 3 {
		if extent := (bmax[i] - bmin[i]) / 2; extent > radius {
			radius = extent
		}
	}

	eye := [3]float32{center[0], center[1] + radius*0.75, center[2] + radius*2.5 + 3}

	proj := make([]float32, 16)
	view := make([]float32, 16)
	out := make([]float32, 16)
	common.Perspective(proj, float32(math.Pi/3), s.aspect, 0.1, radius*20+100)
	common.LookAt(view, eye[0], eye[1], eye[2], center[0], center[1], center[2], 0, 1, 0)
	common.Mul4(out, proj, view)
	return out
}

// motionBindGroupLayout describes group 0 of the motion compute shader:
// frame globals, instance table, rest pose and animated positions.
func motionBindGroupLayout(instanceCount, totalVertices int) wgpu.BindGroupLayoutDescriptor {
	tableSize := uint64(max(instanceCount, 1)) * 16
	positionsSize := uint64(max(totalVertices, 1)) * 16

	return wgpu.BindGroupLayoutDescriptor{
		Label: "Motion Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    uint32(kinetics.BindingFrameGlobals),
				Visibility: wgpu.ShaderStageCompute,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: 16,
				},
			},
			{
				Binding:    uint32(kinetics.BindingInstanceTable),
				Visibility: wgpu.ShaderStageCompute,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeReadOnlyStorage,
					MinBindingSize: tableSize,
				},
			},
			{
				Binding:    uint32(kinetics.BindingRestPose),
				Visibility: wgpu.ShaderStageCompute,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeReadOnlyStorage,
					MinBindingSize: positionsSize,
				},
			},
			{
				Binding:    uint32(kinetics.BindingAnimated),
				Visibility: wgpu.ShaderStageCompute,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeStorage,
					MinBindingSize: positionsSize,
				},
			},
		},
	}
}

// sceneBindGroupLayout describes group 0 of the draw shader: the camera
// uniform.
func sceneBindGroupLayout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "Scene Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: 64,
				},
			},
		},
	}
}
