package ffi

import (
	"os"
	"path/filepath"
	"runtime"
)

// libraryName returns the platform file name of the engine library.
func libraryName() string {
	switch runtime.GOOS {
	case "darwin":
		return "libpywire_engine.dylib"
	case "windows":
		return "pywire_engine.dll"
	default:
		return "libpywire_engine.so"
	}
}

// locateLibrary resolves the engine library path. Order: the
// PYWIRE_ENGINE_PATH environment variable, then the working directory, a
// development build tree, and the executable's directory. When nothing
// matches, the bare library name is returned so the system loader gets a
// chance to resolve it from its own search path.
func locateLibrary() string {
	if path := os.Getenv("PYWIRE_ENGINE_PATH"); path != "" {
		return path
	}

	libName := libraryName()
	searchPaths := []string{
		libName,
		filepath.Join("engine", "target", "release", libName),
		filepath.Join("engine", "target", "debug", libName),
	}
	if execPath, err := os.Executable(); err == nil {
		execDir := filepath.Dir(execPath)
		searchPaths = append(searchPaths,
			filepath.Join(execDir, libName),
			filepath.Join(execDir, "..", "lib", libName),
		)
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}
	return libName
}
