package mesh

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRecordFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRoundTrip(t *testing.T) {
	path := writeRecordFile(t, "quad.mesh", `
# a quad split into two triangles
position 0 0 0
position 1 0 0
position 1 1 0
position 0 1 0
face 1 2 3
face 1 3 4
`)

	s := NewStore()
	tmpl, err := s.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4, tmpl.VertexCount())
	assert.Equal(t, 2, tmpl.TriangleCount())
	assert.Len(t, tmpl.Indices(), 6)
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, tmpl.Indices())
	for _, idx := range tmpl.Indices() {
		assert.Less(t, int(idx), tmpl.VertexCount())
	}
	assert.Equal(t, [3]float32{1, 0, 0}, tmpl.Positions()[1])
}

func TestLoadSkipsUnknownRecords(t *testing.T) {
	path := writeRecordFile(t, "commented.mesh", `
// generated by hand
position 0 0 0
normal 0 1 0
position 1 0 0
position 0 1 0
face 1 2 3
`)

	tmpl, err := NewStore().Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, tmpl.VertexCount())
	assert.Equal(t, 1, tmpl.TriangleCount())
}

func TestLoadQuadFaceFails(t *testing.T) {
	path := writeRecordFile(t, "quadface.mesh", `
position 0 0 0
position 1 0 0
position 1 1 0
position 0 1 0
face 1 2 3 4
`)

	s := NewStore()
	tmpl, err := s.Load(path)
	require.Error(t, err)
	assert.Nil(t, tmpl)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 6, pe.Line)

	// nothing partial lands in the cache
	assert.Nil(t, s.Get(path))
}

func TestLoadBadPositionFails(t *testing.T) {
	path := writeRecordFile(t, "bad.mesh", "position 0 zero 0\n")

	_, err := NewStore().Load(path)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}

func TestLoadIndexOutOfRangeFails(t *testing.T) {
	path := writeRecordFile(t, "range.mesh", `
position 0 0 0
position 1 0 0
face 1 2 3
`)

	_, err := NewStore().Load(path)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewStore().Load(filepath.Join(t.TempDir(), "nope.mesh"))
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestLoadCachesByPath(t *testing.T) {
	path := writeRecordFile(t, "tri.mesh", `
position 0 0 0
position 1 0 0
position 0 1 0
face 1 2 3
`)

	s := NewStore()
	a, err := s.Load(path)
	require.NoError(t, err)

	// delete the backing file; the cached template must still be served
	require.NoError(t, os.Remove(path))
	b, err := s.Load(path)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Same(t, a, s.Get(path))
	assert.Len(t, s.Templates(), 1)
}

func TestTemplateBounds(t *testing.T) {
	path := writeRecordFile(t, "bounds.mesh", `
position -1 2 0
position 3 -4 5
position 0 0 0
face 1 2 3
`)

	tmpl, err := NewStore().Load(path)
	require.NoError(t, err)
	min, max := tmpl.Bounds()
	assert.Equal(t, [3]float32{-1, -4, 0}, min)
	assert.Equal(t, [3]float32{3, 2, 5}, max)
}
