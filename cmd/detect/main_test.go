package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	saved := os.Args
	os.Args = append([]string{"detect"}, args...)
	t.Cleanup(func() { os.Args = saved })
}

// TestRunInputSelection validates that exactly one input source is accepted.
func TestRunInputSelection(t *testing.T) {
	dir := t.TempDir()
	withArgs(t, "-m", dir, "-i", "a.jpg", "-d", dir, "-o", dir)

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one of --image, --image-dir or --video")
}

// TestRunLoadFailure validates that a model load failure is returned to the caller.
func TestRunLoadFailure(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	withArgs(t, "-m", filepath.Join(t.TempDir(), "missing"), "-i", "a.jpg", "-o", out, "--log-level", "error")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load model")
	assert.DirExists(t, out)
}
