package layout

import (
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"

	"github.com/driftgl/drift/engine/core"
	"github.com/driftgl/drift/engine/mesh"
)

// assignment is one ordered run of instances sharing a template.
type assignment struct {
	tmpl  *mesh.Template
	count int
}

// builder is the implementation of the Builder interface.
type builder struct {
	assignments []assignment
	templates   []*mesh.Template
	templateIDs map[*mesh.Template]int

	ceiling     uint64
	velocityMin float32
	velocityMax float32
	rng         *rand.Rand
	workers     int
}

// Builder assembles a packed Layout from ordered template assignments.
// Append order is preserved: the packed buffer holds each instance's
// vertices contiguously, in the order the instances were appended.
type Builder interface {
	// Append schedules count instances of the given template. Templates may
	// repeat across calls; each call extends the ordered instance list.
	//
	// Parameters:
	//   - tmpl: the mesh template shared by these instances
	//   - count: how many instances to add
	//
	// Returns:
	//   - Builder: the builder, for chaining
	Append(tmpl *mesh.Template, count int) Builder

	// Build validates the total index count against the mapping ceiling and
	// packs the layout. The capacity check runs before any buffer allocation;
	// a failed build allocates nothing.
	//
	// Returns:
	//   - *Layout: the packed layout
	//   - error: *CapacityExceeded if the total index count exceeds the ceiling
	Build() (*Layout, error)
}

var _ Builder = &builder{}

// NewBuilder creates a layout builder with the given options applied.
// Defaults: MaxMappings ceiling, velocities uniform per axis in [-1, 1),
// time-seeded randomness, one worker per spare CPU.
//
// Parameters:
//   - opts: functional options configuring the builder
//
// Returns:
//   - Builder: the new builder
func NewBuilder(opts ...BuilderOption) Builder {
	b := &builder{
		templateIDs: make(map[*mesh.Template]int),
		ceiling:     MaxMappings,
		velocityMin: -1,
		velocityMax: 1,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		workers:     max(runtime.NumCPU()-1, 1),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuilderOption is a functional option for configuring a layout Builder during construction.
type BuilderOption func(*builder)

// WithMappingCeiling sets the maximum total index count a Build may produce.
//
// Parameters:
//   - ceiling: the index-count ceiling
//
// Returns:
//   - BuilderOption: functional option to set the ceiling
func WithMappingCeiling(ceiling uint64) BuilderOption {
	return func(b *builder) {
		b.ceiling = ceiling
	}
}

// WithVelocityRange sets the per-axis uniform range instance velocities are
// drawn from. Each velocity component is sampled independently in [min, max).
//
// Parameters:
//   - min: inclusive lower bound
//   - max: exclusive upper bound
//
// Returns:
//   - BuilderOption: functional option to set the velocity range
func WithVelocityRange(min, max float32) BuilderOption {
	return func(b *builder) {
		b.velocityMin = min
		b.velocityMax = max
	}
}

// WithRandSeed seeds the velocity generator, making builds reproducible.
//
// Parameters:
//   - seed: the random seed
//
// Returns:
//   - BuilderOption: functional option to seed the generator
func WithRandSeed(seed int64) BuilderOption {
	return func(b *builder) {
		b.rng = rand.New(rand.NewSource(seed))
	}
}

// WithWorkers sets the number of workers used for the parallel vertex copy.
//
// Parameters:
//   - n: worker count (values < 1 are clamped to 1)
//
// Returns:
//   - BuilderOption: functional option to set the worker count
func WithWorkers(n int) BuilderOption {
	return func(b *builder) {
		b.workers = max(n, 1)
	}
}

func (b *builder) Append(tmpl *mesh.Template, count int) Builder {
	if tmpl == nil || count <= 0 {
		return b
	}
	if _, ok := b.templateIDs[tmpl]; !ok {
		b.templateIDs[tmpl] = len(b.templates)
		b.templates = append(b.templates, tmpl)
	}
	b.assignments = append(b.assignments, assignment{tmpl: tmpl, count: count})
	return b
}

func (b *builder) Build() (*Layout, error) {
	// Size everything up front; the ceiling check must reject oversized
	// scenes before the packed buffers exist.
	var totalInstances int
	var totalVertices, totalIndices uint64
	for _, a := range b.assignments {
		totalInstances += a.count
		totalVertices += uint64(a.count) * uint64(a.tmpl.VertexCount())
		totalIndices += uint64(a.count) * uint64(len(a.tmpl.Indices()))
	}
	if totalIndices > b.ceiling {
		return nil, &CapacityExceeded{Requested: totalIndices, Ceiling: b.ceiling}
	}

	l := &Layout{
		instances: make([]Instance, 0, totalInstances),
		vertices:  make([][4]float32, totalVertices),
		indices:   make([]uint32, totalIndices),
		starts:    make([]uint32, 0, totalInstances+1),
	}

	// Instance table, prefix sums and velocities are cheap and order
	// sensitive (the rng draw order defines reproducibility), so they stay
	// on the calling goroutine.
	vertexCursor := uint32(0)
	indexCursor := 0
	type copyTask struct {
		tmpl        *mesh.Template
		vertexStart uint32
		indexStart  int
	}
	tasks := make([]copyTask, 0, totalInstances)
	for _, a := range b.assignments {
		id := b.templateIDs[a.tmpl]
		n := uint32(a.tmpl.VertexCount())
		for i := 0; i < a.count; i++ {
			l.instances = append(l.instances, Instance{
				TemplateID:  id,
				VertexCount: n,
				Velocity:    b.randomVelocity(),
			})
			l.starts = append(l.starts, vertexCursor)
			tasks = append(tasks, copyTask{tmpl: a.tmpl, vertexStart: vertexCursor, indexStart: indexCursor})
			vertexCursor += n
			indexCursor += len(a.tmpl.Indices())
		}
	}
	l.starts = append(l.starts, vertexCursor)

	// Each task writes a disjoint region of the packed buffers, so the
	// fan-out needs no locking. A WaitGroup provides the barrier since
	// pool.Wait() blocks until workers idle-exit.
	pool := worker.NewDynamicWorkerPool(b.workers, 256, 1*time.Second)
	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		tCap := task
		pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				for vi, p := range tCap.tmpl.Positions() {
					l.vertices[tCap.vertexStart+uint32(vi)] = [4]float32{p[0], p[1], p[2], 1}
				}
				for ii, idx := range tCap.tmpl.Indices() {
					l.indices[tCap.indexStart+ii] = idx + tCap.vertexStart
				}
				return nil, nil
			},
		})
	}
	wg.Wait()
	pool.Stop()

	for i, tmpl := range b.templates {
		min, max := tmpl.Bounds()
		if i == 0 {
			l.boundsMin, l.boundsMax = min, max
			continue
		}
		for c := 0; c < 3; c++ {
			if min[c] < l.boundsMin[c] {
				l.boundsMin[c] = min[c]
			}
			if max[c] > l.boundsMax[c] {
				l.boundsMax[c] = max[c]
			}
		}
	}

	core.LogDebug("layout: packed %d instances, %d vertices, %d indices", totalInstances, totalVertices, totalIndices)
	return l, nil
}

func (b *builder) randomVelocity() [3]float32 {
	span := b.velocityMax - b.velocityMin
	return [3]float32{
		b.velocityMin + b.rng.Float32()*span,
		b.velocityMin + b.rng.Float32()*span,
		b.velocityMin + b.rng.Float32()*span,
	}
}
