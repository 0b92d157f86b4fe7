package kinetics

import (
	"sync"

	"github.com/driftgl/drift/common"
	"github.com/driftgl/drift/engine/layout"
	"github.com/driftgl/drift/engine/renderer/bind_group_provider"
)

// kineticsImpl is the implementation of the Kinetics interface.
type kineticsImpl struct {
	mu *sync.Mutex

	// provider exposes the GPU resources of the motion compute pass: the
	// frame globals uniform, the instance table, the rest pose and the
	// animated position buffer.
	provider bind_group_provider.BindGroupProvider

	// stagedWriteData batches pending GPU buffer writes so the renderer can
	// submit them in one pass before dispatch.
	stagedWriteData []bind_group_provider.BufferWrite

	// instanceTable is the CPU-side source of truth for the GPU instance
	// table. The full table is restaged every frame; instance velocities are
	// small and the re-upload keeps the GPU view trivially consistent with
	// any layout swap.
	instanceTable []GPUObjectInstance

	totalVertices uint32

	// Reusable staging buffers. wgpu's queue.WriteBuffer copies data before
	// returning, so one buffer reused every frame is safe.
	stagingTable   []byte
	stagingGlobals []byte
}

// Kinetics manages the GPU side of the motion pass: it mirrors the packed
// instance table, stages the per-frame uniform and table uploads, and sizes
// the compute dispatch.
type Kinetics interface {
	// Provider returns the BindGroupProvider for the motion compute shader.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the provider, or nil before SetProvider
	Provider() bind_group_provider.BindGroupProvider

	// SetProvider sets the BindGroupProvider for the motion compute shader.
	// Called once the renderer has created the pass's GPU buffers.
	//
	// Parameters:
	//   - provider: the new provider
	SetProvider(provider bind_group_provider.BindGroupProvider)

	// SetLayout replaces the mirrored instance table with the given layout's
	// instances. The next Flush uploads the new table in full.
	//
	// Parameters:
	//   - l: the packed layout
	SetLayout(l *layout.Layout)

	// InstanceCount returns the number of entries in the mirrored table.
	//
	// Returns:
	//   - uint32: the instance count
	InstanceCount() uint32

	// TotalVertices returns the packed vertex count of the current layout.
	//
	// Returns:
	//   - uint32: the vertex count
	TotalVertices() uint32

	// PrepareFrame stages the per-frame uniform upload (instance count, total
	// vertices, elapsed time) for the motion compute shader.
	//
	// Parameters:
	//   - elapsed: absolute animation time in seconds
	PrepareFrame(elapsed float32)

	// Flush stages the full instance table upload. Called every frame after
	// PrepareFrame so the GPU table always matches the CPU mirror.
	//
	// Returns:
	//   - uint32: the number of table entries staged
	Flush() uint32

	// StagedWriteData returns the pending GPU buffer writes. The renderer
	// drains this via WriteBuffers before dispatching the compute pass.
	//
	// Returns:
	//   - []bind_group_provider.BufferWrite: the staged writes
	StagedWriteData() []bind_group_provider.BufferWrite

	// ClearStagedWriteData discards all staged writes. Called by the renderer
	// after submitting them.
	ClearStagedWriteData()

	// WorkgroupCount returns the compute dispatch dimensions covering one
	// invocation per packed vertex.
	//
	// Returns:
	//   - [3]uint32: workgroup counts (x, y, z)
	WorkgroupCount() [3]uint32
}

var _ Kinetics = &kineticsImpl{}

// NewKinetics creates a Kinetics mirror for the given layout. The provider
// must be set before staged writes are submitted.
//
// Parameters:
//   - l: the packed layout to mirror
//
// Returns:
//   - Kinetics: the new instance
func NewKinetics(l *layout.Layout) Kinetics {
	k := &kineticsImpl{
		mu: &sync.Mutex{},
	}
	k.SetLayout(l)
	return k
}

func (k *kineticsImpl) Provider() bind_group_provider.BindGroupProvider {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.provider
}

func (k *kineticsImpl) SetProvider(provider bind_group_provider.BindGroupProvider) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.provider = provider
}

func (k *kineticsImpl) SetLayout(l *layout.Layout) {
	k.mu.Lock()
	defer k.mu.Unlock()

	instances := l.Instances()
	k.instanceTable = make([]GPUObjectInstance, len(instances))
	for i, inst := range instances {
		k.instanceTable[i] = GPUObjectInstance{
			Velocity:    inst.Velocity,
			VertexCount: inst.VertexCount,
		}
	}
	k.totalVertices = uint32(l.TotalVertices())

	tableSize := len(instances) * (&GPUObjectInstance{}).Size()
	if cap(k.stagingTable) < tableSize {
		k.stagingTable = make([]byte, tableSize)
	}
	k.stagingTable = k.stagingTable[:tableSize]
	if k.stagingGlobals == nil {
		k.stagingGlobals = make([]byte, (&GPUFrameGlobals{}).Size())
	}
}

func (k *kineticsImpl) InstanceCount() uint32 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return uint32(len(k.instanceTable))
}

func (k *kineticsImpl) TotalVertices() uint32 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.totalVertices
}

func (k *kineticsImpl) PrepareFrame(elapsed float32) {
	k.mu.Lock()
	defer k.mu.Unlock()

	globals := GPUFrameGlobals{
		InstanceCount: uint32(len(k.instanceTable)),
		TotalVertices: k.totalVertices,
		Elapsed:       elapsed,
	}
	copy(k.stagingGlobals, globals.Marshal())

	k.stagedWriteData = append(k.stagedWriteData, bind_group_provider.BufferWrite{
		Provider: k.provider,
		Binding:  BindingFrameGlobals,
		Offset:   0,
		Data:     k.stagingGlobals,
	})
}

func (k *kineticsImpl) Flush() uint32 {
	k.mu.Lock()
	defer k.mu.Unlock()
	if len(k.instanceTable) == 0 {
		return 0
	}

	raw := common.SliceToBytes(k.instanceTable)
	copy(k.stagingTable, raw)

	k.stagedWriteData = append(k.stagedWriteData, bind_group_provider.BufferWrite{
		Provider: k.provider,
		Binding:  BindingInstanceTable,
		Offset:   0,
		Data:     k.stagingTable,
	})
	return uint32(len(k.instanceTable))
}

func (k *kineticsImpl) StagedWriteData() []bind_group_provider.BufferWrite {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.stagedWriteData
}

func (k *kineticsImpl) ClearStagedWriteData() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.stagedWriteData = k.stagedWriteData[:0]
}

func (k *kineticsImpl) WorkgroupCount() [3]uint32 {
	k.mu.Lock()
	defer k.mu.Unlock()
	groups := (k.totalVertices + WorkgroupSize - 1) / WorkgroupSize
	return [3]uint32{groups, 1, 1}
}
