package local

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/kebunku/internal/media"
)

func TestUploadAndOpen(t *testing.T) {
	store, err := NewStore(t.TempDir(), "http://localhost:8080/media/", nil)
	require.NoError(t, err)

	var last float64
	data := []byte("fake jpeg data")
	url, err := store.Upload(context.Background(), "user1", media.File{Name: "a.jpg", ContentType: "image/jpeg", Data: data}, func(p float64) { last = p })
	require.NoError(t, err)
	assert.Equal(t, float64(100), last)
	require.True(t, strings.HasPrefix(url, "http://localhost:8080/media/activities/user1/"), url)

	key := strings.TrimPrefix(url, "http://localhost:8080/media/")
	rc, mime, err := store.Open(key)
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, "image/jpeg", mime)
}

func TestUploadRejectsOwnerTraversal(t *testing.T) {
	store, err := NewStore(t.TempDir(), "http://x", nil)
	require.NoError(t, err)

	_, err = store.Upload(context.Background(), "../evil", media.File{Data: []byte("x")}, nil)
	assert.Error(t, err)
}

func TestSaveHonoursCancelledContext(t *testing.T) {
	store, err := NewStore(t.TempDir(), "http://x", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Save(ctx, "activities/u", "image/png", bytes.NewReader([]byte("data")))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDeleteAndNotFound(t *testing.T) {
	store, err := NewStore(t.TempDir(), "http://x", nil)
	require.NoError(t, err)

	key, err := store.Save(context.Background(), "activities/u", "image/png", bytes.NewReader([]byte("data")))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(key, ".png"))

	require.NoError(t, store.Delete(key))
	_, _, err = store.Open(key)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(key), ErrNotFound)
}

func TestOpenRejectsTraversal(t *testing.T) {
	store, err := NewStore(t.TempDir(), "http://x", nil)
	require.NoError(t, err)

	_, _, err = store.Open("../../etc/passwd")
	assert.Error(t, err)
}
