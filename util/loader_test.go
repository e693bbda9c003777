package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListImageFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"frame-10.jpg", "frame-2.png", "street.JPEG", "alley.bmp", "notes.txt", "frame-x.jpg"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.jpg"), 0o700))

	files, err := ListImageFiles(dir)
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, f.Name)
		assert.Equal(t, filepath.Join(dir, f.Name), f.Path)
	}
	assert.Equal(t, []string{"frame-2.png", "frame-10.jpg", "alley.bmp", "frame-x.jpg", "street.JPEG"}, names)
	assert.Equal(t, 2, files[0].Frame)
	assert.Equal(t, -1, files[2].Frame)
}

func TestListImageFilesMissingDir(t *testing.T) {
	_, err := ListImageFiles(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
