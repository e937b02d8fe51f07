package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func TestValidateImage(t *testing.T) {
	path := writeFile(t, "photo.jpg", []byte("jpeg-bytes"))

	info, err := ValidateImage(path)
	require.NoError(t, err)
	assert.Equal(t, "photo.jpg", info.Name)
	assert.Equal(t, int64(10), info.Size)
	assert.Equal(t, "image/jpeg", info.Type)
	assert.True(t, filepath.IsAbs(info.Path))
}

func TestValidateImageRejections(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := ValidateImage(filepath.Join(t.TempDir(), "nope.png"))
		assert.Error(t, err)
	})

	t.Run("directory", func(t *testing.T) {
		_, err := ValidateImage(t.TempDir())
		assert.Error(t, err)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := ValidateImage(writeFile(t, "empty.png", nil))
		assert.Error(t, err)
	})

	t.Run("not an image", func(t *testing.T) {
		_, err := ValidateImage(writeFile(t, "notes.txt", []byte("text")))
		assert.Error(t, err)
	})
}
