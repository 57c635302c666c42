// Package inference - Runs the fish disease model and post-processes its output.
package inference

import (
	"os"
	"runtime"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// ErrLibraryNotFound is returned when the onnxruntime shared library is missing.
var ErrLibraryNotFound = errors.New("onnxruntime library not found")

// DefaultSharedLibPath returns the conventional location of the onnxruntime
// shared library for the current platform.
func DefaultSharedLibPath() string {
	switch runtime.GOOS {
	case "windows":
		return "./third_party/onnxruntime.dll"
	case "darwin":
		return "./third_party/libonnxruntime.dylib"
	default:
		if runtime.GOARCH == "arm64" {
			return "./third_party/onnxruntime_arm64.so"
		}
		return "./third_party/onnxruntime.so"
	}
}

// Environment owns the process-wide onnxruntime environment.
//
// onnxruntime allows one environment per process. Create it once at startup,
// load any number of sessions against it and Close it last.
type Environment struct {
	libPath string
}

// NewEnvironment loads the shared library and initializes onnxruntime.
//
// Arguments:
//   - libPath: The shared library. Empty selects DefaultSharedLibPath.
//
// Returns:
//   - *Environment: The initialized environment.
//   - error: ErrLibraryNotFound, or the onnxruntime initialization error.
func NewEnvironment(libPath string) (*Environment, error) {
	if libPath == "" {
		libPath = DefaultSharedLibPath()
	}
	if _, err := os.Stat(libPath); err != nil {
		return nil, errors.Wrapf(ErrLibraryNotFound, "%s: %v", libPath, err)
	}

	if !ort.IsInitialized() {
		ort.SetSharedLibraryPath(libPath)
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, errors.Wrap(err, "error initializing ORT environment")
		}
	}
	return &Environment{libPath: libPath}, nil
}

// LibraryPath returns the shared library the environment was loaded from.
func (e *Environment) LibraryPath() string {
	return e.libPath
}

// Close destroys the onnxruntime environment. Sessions must be closed first.
func (e *Environment) Close() error {
	if !ort.IsInitialized() {
		return nil
	}
	return errors.Wrap(ort.DestroyEnvironment(), "error destroying ORT environment")
}
