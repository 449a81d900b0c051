package utils

import (
	"path/filepath"

	"github.com/bendu-lang/bendu/internal/config"
)

// ResolveImportPath resolves an import path relative to a base directory if it starts with a dot.
// Otherwise returns the import path as is.
func ResolveImportPath(baseDir, importPath string) string {
	if len(importPath) > 0 && importPath[0] == '.' {
		if baseDir != "." && baseDir != "" {
			return filepath.Join(baseDir, importPath)
		}
	}
	return importPath
}

// ExtractModuleName derives a module name from a file path.
// It takes the base filename and removes any recognized source extension.
func ExtractModuleName(path string) string {
	name := filepath.Base(path)
	return config.TrimSourceExt(name)
}

// GetModuleDir returns the directory context for a module path.
// If the path points to a source file, returns the file's directory.
// If the path points to a directory (no extension), returns the path itself.
func GetModuleDir(path string) string {
	if config.HasSourceExt(path) {
		return filepath.Dir(path)
	}
	return path
}

// ResolveSourceID turns an import path written in the file at fromPath
// into the absolute source path it names, so that the same import
// resolves identically whether it is seen while compiling fromPath (the
// Package Cache's RelativeEntry) or read back later out of a compiled
// bytecode file's import table (the Loader, with no access to
// fromPath any more). importPath is resolved against fromPath's
// directory regardless of whether it carries the "./" prefix, the
// source extension is added if missing, and the result is made
// absolute.
func ResolveSourceID(fromPath, importPath string) (string, error) {
	dir := GetModuleDir(fromPath)
	target := ResolveImportPath(dir, importPath)
	if !config.HasSourceExt(target) {
		target += config.SourceFileExt
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(dir, target)
	}
	return filepath.Abs(target)
}
