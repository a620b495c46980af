package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir, "/uploads", []string{".jpg", "png"})
	require.NoError(t, err)

	publicPath, err := store.Save("pickup_photos", "evidence.JPG", strings.NewReader("fake-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(publicPath, "/uploads/pickup_photos/"))
	assert.True(t, strings.HasSuffix(publicPath, ".jpg"))

	rel := strings.TrimPrefix(publicPath, "/uploads/")
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	assert.Equal(t, "fake-bytes", string(data))

	require.NoError(t, store.Delete(publicPath))
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(rel)))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStorageRejectsDisallowedExtension(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "/uploads", []string{".jpg"})
	require.NoError(t, err)

	_, err = store.Save("avatars", "payload.exe", strings.NewReader("nope"))
	require.Error(t, err)

	_, err = store.Save("avatars", "noext", strings.NewReader("nope"))
	require.Error(t, err)
}
