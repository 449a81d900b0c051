package config

import (
	"os"
	"path/filepath"
)

// Version is the current Bendu version.
// Set at build time via -ldflags "-X github.com/bendu-lang/bendu/internal/config.Version=...".
var Version = "0.1.0"

// SourceFileExt is the canonical Bendu source extension.
const SourceFileExt = ".bendu"

// SourceFileExtensions are all recognized source file extensions.
var SourceFileExtensions = []string{".bendu"}

// TrimSourceExt removes any recognized source extension from a filename.
// Returns the original string if no extension matches.
func TrimSourceExt(name string) string {
	for _, ext := range SourceFileExtensions {
		if len(name) >= len(ext) && name[len(name)-len(ext):] == ext {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

// HasSourceExt returns true if the path ends with any recognized source extension.
func HasSourceExt(path string) bool {
	for _, ext := range SourceFileExtensions {
		if len(path) >= len(ext) && path[len(path)-len(ext):] == ext {
			return true
		}
	}
	return false
}

// IsTestMode indicates the driver is running the `bendu test` subcommand.
var IsTestMode = false

// CacheDirName is the directory under $HOME that holds compiled artifacts.
const CacheDirName = ".bendu"

// CacheRoot returns the absolute path to the cache root, honouring $HOME.
// Falls back to the current directory's ".bendu" if HOME is unset, which
// only happens in unusual sandboxed environments.
func CacheRoot() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return filepath.Join(home, CacheDirName)
}

// Bytecode file magic, per the bytecode file format (spec §6).
var BytecodeMagic = [2]byte{'H', 'W'}

const (
	BytecodeMajorVersion byte = 0
	BytecodeMinorVersion byte = 1
)
