package local

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalImageStoreRoundTrip(t *testing.T) {
	s, err := NewLocalImageStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	data := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	require.NoError(t, s.Save(ctx, "100001.jpg", bytes.NewReader(data)))

	exists, err := s.Exists(ctx, "100001.jpg")
	require.NoError(t, err)
	assert.True(t, exists)

	rc, err := s.Get(ctx, "100001.jpg")
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, data, got)
}

func TestLocalImageStoreGet_Missing(t *testing.T) {
	s, err := NewLocalImageStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Get(context.Background(), "missing.jpg")
	assert.Error(t, err)
}

func TestLocalImageStoreDelete(t *testing.T) {
	s, err := NewLocalImageStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "x.jpg", bytes.NewReader([]byte{1})))
	require.NoError(t, s.Delete(ctx, "x.jpg"))

	exists, err := s.Exists(ctx, "x.jpg")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalImageStoreRejectsTraversal(t *testing.T) {
	s, err := NewLocalImageStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	err = s.Save(ctx, "../evil.jpg", bytes.NewReader([]byte{1}))
	assert.Error(t, err)

	_, err = s.Get(ctx, "../../etc/passwd")
	assert.Error(t, err)
}
