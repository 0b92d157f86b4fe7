package sharedbuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteViewIsExclusive(t *testing.T) {
	s := New(nil, 256)

	w, err := s.AcquireForWrite()
	require.NoError(t, err)

	_, err = s.AcquireForWrite()
	assert.ErrorIs(t, err, ErrWriteHeld)
	_, err = s.AcquireForRead()
	assert.ErrorIs(t, err, ErrWriteHeld)

	w.Release()

	_, err = s.AcquireForRead()
	assert.NoError(t, err)
}

func TestReadersBlockWriter(t *testing.T) {
	s := New(nil, 256)

	r1, err := s.AcquireForRead()
	require.NoError(t, err)
	r2, err := s.AcquireForRead()
	require.NoError(t, err)

	_, err = s.AcquireForWrite()
	assert.ErrorIs(t, err, ErrReadHeld)

	r1.Release()
	_, err = s.AcquireForWrite()
	assert.ErrorIs(t, err, ErrReadHeld)

	r2.Release()
	w, err := s.AcquireForWrite()
	require.NoError(t, err)
	w.Release()
}

func TestReleaseIsIdempotent(t *testing.T) {
	s := New(nil, 256)

	w, err := s.AcquireForWrite()
	require.NoError(t, err)
	w.Release()
	w.Release()

	// a double release must not unlock someone else's view
	w2, err := s.AcquireForWrite()
	require.NoError(t, err)
	w.Release()
	_, err = s.AcquireForWrite()
	assert.ErrorIs(t, err, ErrWriteHeld)
	w2.Release()

	r, err := s.AcquireForRead()
	require.NoError(t, err)
	r.Release()
	r.Release()
	w3, err := s.AcquireForWrite()
	require.NoError(t, err)
	w3.Release()
}

func TestDestroyIsExactlyOnce(t *testing.T) {
	s := New(nil, 256)
	s.Destroy()
	s.Destroy()

	_, err := s.AcquireForWrite()
	assert.ErrorIs(t, err, ErrDestroyed)
	_, err = s.AcquireForRead()
	assert.ErrorIs(t, err, ErrDestroyed)
}

func TestDestroyMidFrame(t *testing.T) {
	s := New(nil, 256)
	w, err := s.AcquireForWrite()
	require.NoError(t, err)

	s.Destroy()

	// the outstanding view survives Go-side but the allocation is gone
	assert.Nil(t, w.Buffer())
	w.Release()
	_, err = s.AcquireForWrite()
	assert.ErrorIs(t, err, ErrDestroyed)
}

func TestSize(t *testing.T) {
	s := New(nil, 1024)
	assert.Equal(t, uint64(1024), s.Size())
}
