package objectstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflow-app/taskflow-api/internal/platform/logger"
)

func TestDiskStore_Put(t *testing.T) {
	log, _ := logger.NewTestLogger(t)

	t.Run("writes the blob and returns its URL", func(t *testing.T) {
		root := t.TempDir()
		store, err := NewDiskStore(root, "http://localhost:8080/blobs/", log)
		require.NoError(t, err)

		url, err := store.Put(context.Background(), "abc123/report.pdf", []byte("payload"))
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080/blobs/abc123/report.pdf", url)

		data, err := os.ReadFile(filepath.Join(root, "abc123", "report.pdf"))
		require.NoError(t, err)
		assert.Equal(t, []byte("payload"), data)
	})

	t.Run("escapes unsafe path segments in the URL", func(t *testing.T) {
		store, err := NewDiskStore(t.TempDir(), "http://localhost:8080/blobs", log)
		require.NoError(t, err)

		url, err := store.Put(context.Background(), "abc/my file.png", []byte("x"))
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080/blobs/abc/my%20file.png", url)
	})

	t.Run("rejects traversal outside the root", func(t *testing.T) {
		store, err := NewDiskStore(t.TempDir(), "http://localhost:8080/blobs", log)
		require.NoError(t, err)

		_, err = store.Put(context.Background(), "../escape.txt", []byte("x"))
		assert.Error(t, err)

		_, err = store.Put(context.Background(), "/etc/passwd", []byte("x"))
		assert.Error(t, err)
	})

	t.Run("requires root and base URL", func(t *testing.T) {
		_, err := NewDiskStore("", "http://localhost", log)
		assert.Error(t, err)

		_, err = NewDiskStore(t.TempDir(), "", log)
		assert.Error(t, err)
	})
}
