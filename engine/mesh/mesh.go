// Package mesh loads and caches immutable mesh templates from the plain-text
// record format used by the demo assets.
package mesh

import (
	"sync"

	"github.com/driftgl/drift/engine/core"
)

// Template is an immutable triangle mesh: a position array and a triangle
// index list referencing it. Instances share a Template; per-instance state
// never lives here.
type Template struct {
	positions [][3]float32
	indices   []uint32
	boundsMin [3]float32
	boundsMax [3]float32
}

// Positions returns the template's vertex positions. The returned slice is
// shared - callers must not modify it.
//
// Returns:
//   - [][3]float32: vertex positions in declaration order
func (t *Template) Positions() [][3]float32 {
	return t.positions
}

// Indices returns the template's triangle indices (0-based, three per face).
// The returned slice is shared - callers must not modify it.
//
// Returns:
//   - []uint32: triangle index list
func (t *Template) Indices() []uint32 {
	return t.indices
}

// VertexCount returns the number of positions in the template.
//
// Returns:
//   - int: position count
func (t *Template) VertexCount() int {
	return len(t.positions)
}

// TriangleCount returns the number of faces in the template.
//
// Returns:
//   - int: face count
func (t *Template) TriangleCount() int {
	return len(t.indices) / 3
}

// Bounds returns the axis-aligned bounding box of the template's positions.
// A template with no positions reports a zero box.
//
// Returns:
//   - [3]float32: minimum corner
//   - [3]float32: maximum corner
func (t *Template) Bounds() ([3]float32, [3]float32) {
	return t.boundsMin, t.boundsMax
}

// NewTemplate builds a template from in-memory data, bypassing the file
// parser. Useful for procedural meshes and tests. Indices must already be
// 0-based and in range; the slices are retained, not copied.
//
// Parameters:
//   - positions: vertex positions
//   - indices: triangle indices, three per face
//
// Returns:
//   - *Template: the new template
func NewTemplate(positions [][3]float32, indices []uint32) *Template {
	t := &Template{positions: positions, indices: indices}
	t.boundsMin, t.boundsMax = computeBounds(positions)
	return t
}

func computeBounds(positions [][3]float32) ([3]float32, [3]float32) {
	var min, max [3]float32
	if len(positions) == 0 {
		return min, max
	}
	min, max = positions[0], positions[0]
	for _, p := range positions[1:] {
		for i := 0; i < 3; i++ {
			if p[i] < min[i] {
				min[i] = p[i]
			}
			if p[i] > max[i] {
				max[i] = p[i]
			}
		}
	}
	return min, max
}

// store is the implementation of the Store interface.
type store struct {
	mu sync.RWMutex

	templateCache map[string]*Template
}

// Store defines the public-facing interface for loading and caching mesh
// templates. Templates are cached by file path; repeated loads of the same
// path return the same immutable Template.
type Store interface {
	// Load parses a mesh record file and caches the result.
	// If the template is already cached (by file path), the cached version is
	// returned without touching the filesystem.
	//
	// Parameters:
	//   - path: the file path to the mesh record file
	//
	// Returns:
	//   - *Template: the loaded and cached template
	//   - error: *NotFoundError if the file cannot be opened, *ParseError if
	//     the file is malformed
	Load(path string) (*Template, error)

	// Get retrieves a cached template by path. Returns nil if not loaded.
	//
	// Parameters:
	//   - path: the cache key to look up
	//
	// Returns:
	//   - *Template: the cached template or nil
	Get(path string) *Template

	// Templates returns the full template cache.
	//
	// Returns:
	//   - map[string]*Template: all cached templates keyed by path
	Templates() map[string]*Template
}

var _ Store = &store{}

// NewStore creates an empty template store.
//
// Returns:
//   - Store: the new store
func NewStore() Store {
	return &store{
		templateCache: make(map[string]*Template),
	}
}

func (s *store) Load(path string) (*Template, error) {
	s.mu.RLock()
	if cached, ok := s.templateCache[path]; ok {
		s.mu.RUnlock()
		return cached, nil
	}
	s.mu.RUnlock()

	tmpl, err := parseFile(path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.templateCache[path]; ok {
		return cached, nil
	}
	s.templateCache[path] = tmpl
	core.LogDebug("mesh: loaded %s (%d vertices, %d triangles)", path, tmpl.VertexCount(), tmpl.TriangleCount())
	return tmpl, nil
}

func (s *store) Get(path string) *Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.templateCache[path]
}

func (s *store) Templates() map[string]*Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*Template, len(s.templateCache))
	for k, v := range s.templateCache {
		out[k] = v
	}
	return out
}
