package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStore_Upload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(dir, "http://localhost:8084/media")
	require.NoError(t, err)

	url, err := store.Upload(context.Background(), []byte("fake png bytes"), "image/png")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "http://localhost:8084/media/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	name := url[strings.LastIndex(url, "/")+1:]
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, []byte("fake png bytes"), data)
}

func TestDiskStore_UnsupportedContentType(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "http://localhost:8084/media")
	require.NoError(t, err)

	_, err = store.Upload(context.Background(), []byte("<svg/>"), "image/svg+xml")
	assert.Error(t, err)
}

func TestNewDiskStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "media")
	_, err := NewDiskStore(dir, "http://localhost:8084/media")
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
