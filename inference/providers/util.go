// Package providers - Runtime library discovery and environment setup.
package providers

import (
	"os"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// LibraryPathEnv overrides the shared library location returned by GetSharedLibPath.
const LibraryPathEnv = "ONNXRUNTIME_SHARED_LIBRARY_PATH"

// GetSharedLibPath returns the path to the shared library for the current platform.
//
// Returns:
//   - string: The path to the shared library, or "" when the platform has no known default.
func GetSharedLibPath() string {
	if p := os.Getenv(LibraryPathEnv); p != "" {
		return p
	}
	switch runtime.GOOS {
	case "windows":
		return "./third_party/onnxruntime.dll"
	case "darwin":
		return "./third_party/libonnxruntime.dylib"
	case "linux":
		if runtime.GOARCH == "arm64" {
			return "./third_party/onnxruntime_arm64.so"
		}
		return "./third_party/onnxruntime.so"
	default:
		return ""
	}
}

var envMu sync.Mutex

// Initialize loads the ONNX Runtime shared library and prepares the process-wide environment.
//
// It is safe to call more than once; calls after the first successful one are no-ops.
//
// Arguments:
//   - libPath: The shared library path. Empty selects GetSharedLibPath.
//
// Returns:
//   - error: An error if the library is missing or fails to initialize.
func Initialize(libPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}
	if libPath == "" {
		libPath = GetSharedLibPath()
	}
	if libPath == "" {
		return errors.Errorf("no default ONNX Runtime library for %s/%s, set %s", runtime.GOOS, runtime.GOARCH, LibraryPathEnv)
	}
	if _, err := os.Stat(libPath); err != nil {
		return errors.Wrapf(err, "ONNX Runtime library not found at %s", libPath)
	}

	ort.SetSharedLibraryPath(libPath)
	if err := ort.InitializeEnvironment(); err != nil {
		return errors.Wrap(err, "initialize ONNX Runtime environment")
	}
	return nil
}

// Shutdown releases the process-wide environment. Sessions must be closed first.
func Shutdown() error {
	envMu.Lock()
	defer envMu.Unlock()

	if !ort.IsInitialized() {
		return nil
	}
	return errors.Wrap(ort.DestroyEnvironment(), "destroy ONNX Runtime environment")
}
