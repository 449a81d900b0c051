// Package loader implements the Bytecode Loader of spec §2/§4.5: it
// turns a source-id the VM doesn't yet have bytecode for into a parsed
// header (import table) plus a raw instruction stream, driving
// compilation through the Package Cache when no fresh artifact exists.
// This is the one place spec's "leaves-first" dependency order
// (Builtins <- VM <- Loader <- Cache <- Compiler <- Inferencer) is
// materialized as Go imports: package vm never imports package cache,
// only the vm.Resolver interface loader.Loader implements.
package loader

import (
	"fmt"
	"os"

	"github.com/bendu-lang/bendu/internal/bytecode"
	"github.com/bendu-lang/bendu/internal/cache"
	"github.com/bendu-lang/bendu/internal/config"
)

// Loader adapts a *cache.Cache into the vm.Resolver interface
// (internal/vm/package.go), compiling on demand when an entry is not
// up to date and then stripping the bytecode file header before
// handing the instruction stream to the VM.
type Loader struct {
	Cache *cache.Cache
}

func New(c *cache.Cache) *Loader { return &Loader{Cache: c} }

// Resolve implements vm.Resolver: sourceID is an absolute path to a
// .bendu file (or, transitively, the path recorded in a dependency
// file); Resolve ensures it is compiled and returns its parsed import
// table and instruction stream.
func (l *Loader) Resolve(sourceID string) (imports []string, code []byte, err error) {
	entry, err := l.Cache.EntryFor(sourceID)
	if err != nil {
		return nil, nil, err
	}
	if !entry.UpToDate() {
		if err := entry.Compile(); err != nil {
			return nil, nil, fmt.Errorf("loader: compiling %s: %w", sourceID, err)
		}
	}
	return l.readBytecode(entry)
}

func (l *Loader) readBytecode(entry *cache.Entry) ([]string, []byte, error) {
	bcFile, err := entry.ByteCodeFile()
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(bcFile)
	if err != nil {
		return nil, nil, err
	}
	h, off, err := bytecode.ParseHeader(data)
	if err != nil {
		return nil, nil, err
	}
	if err := bytecode.VerifyMagic(h, config.BytecodeMagic, config.BytecodeMajorVersion, config.BytecodeMinorVersion); err != nil {
		return nil, nil, err
	}
	return h.Imports, data[off:], nil
}

// LoadFile is the driver's top-level entry point: compile (if needed)
// and register the named top-level source file as a VM package. The
// register callback receives the source-id, import table and code (a
// caller wraps vm.VM.RegisterPackage, whose *Package result the
// callback does not return); it is passed in by the caller so this
// package has no import-cycle with internal/vm.
func (l *Loader) LoadFile(absPath string, register func(sourceID string, imports []string, code []byte)) error {
	imports, code, err := l.Resolve(absPath)
	if err != nil {
		return err
	}
	register(absPath, imports, code)
	return nil
}
