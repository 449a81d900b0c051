// Package cache implements the Package Cache of spec §4.4: it maps
// source files to compiled artifacts (signature, bytecode, dependency
// files), owns the timestamp-based up-to-date decision, and resolves
// import paths into the cache entries for a lazy compilation DAG.
//
// Grounded on the teacher's internal/modules.Loader (loader.go):
// Bendu's Entry plays the role of the teacher's *Module — cached by
// absolute source path, re-used on repeat lookup, with cycle detection
// during compilation — but where the teacher caches a parsed *in
// memory* module for one process's evaluator, Bendu's Entry caches
// *on-disk* compiled artifacts across process runs, per spec §4.4's
// "byteCodeFile()"/timestamp contract. The per-project binary cache
// directory shape (hash/namespaced subdirectory under a dotfile root)
// is grounded on the teacher's internal/ext.Cache (cache.go).
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/bendu-lang/bendu/internal/ast"
	"github.com/bendu-lang/bendu/internal/bytecode"
	"github.com/bendu-lang/bendu/internal/compile"
	"github.com/bendu-lang/bendu/internal/config"
	"github.com/bendu-lang/bendu/internal/infer"
	"github.com/bendu-lang/bendu/internal/lexer"
	"github.com/bendu-lang/bendu/internal/parser"
	"github.com/bendu-lang/bendu/internal/signature"
	"github.com/bendu-lang/bendu/internal/types"
	"github.com/bendu-lang/bendu/internal/utils"
)

// BuiltinTable is the subset of internal/builtins.Table the compiler
// needs; kept as an interface so package cache does not force every
// caller to depend on the concrete builtins registry.
type BuiltinTable interface {
	ID(name string) (uint32, bool)
}

// Cache is the root of the lazy compilation DAG: one Cache instance
// per driver invocation, backing entryFor/relativeEntry (spec §4.4).
type Cache struct {
	Root     string // cache root, normally config.CacheRoot()
	Builtins BuiltinTable

	entries map[string]*Entry // absolute source path -> Entry
}

func New(root string, builtins BuiltinTable) *Cache {
	return &Cache{Root: root, Builtins: builtins, entries: map[string]*Entry{}}
}

// Dep is one line of the dependency file: a source-id plus the
// last-modified timestamp (milliseconds) recorded at compile time.
type Dep struct {
	SourceID string
	ModMs    int64
}

// Entry is the cache's per-source-file handle (spec §4.4's contract:
// script(), upToDate(), compile(), byteCodeFile(), relativeEntry(),
// includeDependencies()).
type Entry struct {
	cache  *Cache
	Source string // absolute path to the .bendu file

	compiling bool // cycle guard, mirrors the teacher's Loader.Processing

	Exports []signature.Record
	Deps    []Dep
}

// entryFor returns (creating if necessary) the Entry for an absolute
// source path, memoized for the lifetime of the Cache so repeated
// imports of the same package resolve to one Entry (spec §4.4).
func (c *Cache) entryFor(absSource string) *Entry {
	if e, ok := c.entries[absSource]; ok {
		return e
	}
	e := &Entry{cache: c, Source: absSource}
	c.entries[absSource] = e
	return e
}

// EntryFor is entryFor's exported form, for the driver's top-level
// compile of a file named directly on the command line.
func (c *Cache) EntryFor(source string) (*Entry, error) {
	abs, err := filepath.Abs(source)
	if err != nil {
		return nil, err
	}
	return c.entryFor(abs), nil
}

// cacheDir computes "<user-cache-root>/<absolute-source-parent>" (spec
// §4.4) and ensures it exists.
func (c *Cache) cacheDir(absSource string) (string, error) {
	dir := filepath.Join(c.Root, filepath.Dir(absSource))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating cache dir: %w", err)
	}
	return dir, nil
}

func (e *Entry) baseName() string {
	return utils.ExtractModuleName(e.Source)
}

// SignatureFile, ByteCodeFile, DepsFile return the three on-disk
// artifact paths for e (spec §6's signature/bytecode/dependency
// files).
func (e *Entry) SignatureFile() (string, error) {
	dir, err := e.cache.cacheDir(e.Source)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, e.baseName()+".sig"), nil
}

func (e *Entry) ByteCodeFile() (string, error) {
	dir, err := e.cache.cacheDir(e.Source)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, e.baseName()+".bc"), nil
}

func (e *Entry) DepsFile() (string, error) {
	dir, err := e.cache.cacheDir(e.Source)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, e.baseName()+".deps"), nil
}

// UpToDate implements spec §4.4's freshness rule: the entry is fresh
// iff its dependency file exists, every recorded timestamp matches the
// file system's current timestamp, and every dependency's bytecode
// file exists.
func (e *Entry) UpToDate() bool {
	bcFile, err := e.ByteCodeFile()
	if err != nil {
		return false
	}
	if _, err := os.Stat(bcFile); err != nil {
		return false
	}
	depsFile, err := e.DepsFile()
	if err != nil {
		return false
	}
	deps, err := readDeps(depsFile)
	if err != nil {
		return false
	}
	for _, d := range deps {
		info, err := os.Stat(d.SourceID)
		if err != nil {
			return false
		}
		if info.ModTime().UnixMilli() != d.ModMs {
			return false
		}
		depEntry := e.cache.entryFor(d.SourceID)
		depBc, err := depEntry.ByteCodeFile()
		if err != nil {
			return false
		}
		if _, err := os.Stat(depBc); err != nil {
			return false
		}
	}
	return true
}

// Script reads and returns e's source text, the "script()" half of
// spec §4.4's contract.
func (e *Entry) Script() (string, error) {
	data, err := os.ReadFile(e.Source)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// RelativeEntry resolves importPath against e's own directory and
// returns the Cache entry for the target, forming the lazy DAG (spec
// §4.4). Uses the same utils.ResolveSourceID resolution the compiler
// applies when it writes an import path into a bytecode file's import
// table, so a package looked up here and one looked up later by
// internal/loader straight off disk agree on the same absolute source
// id.
func (e *Entry) RelativeEntry(importPath string) (*Entry, error) {
	abs, err := utils.ResolveSourceID(e.Source, importPath)
	if err != nil {
		return nil, err
	}
	return e.cache.entryFor(abs), nil
}

// Compile runs inference then bytecode emission for e (spec §4.4's
// compile()): recursively compiling (via RelativeEntry) every import
// that is not already up to date, then persisting the signature,
// bytecode, and dependency artifacts. On failure, no artifacts are
// written, matching spec §7's "cache artifacts for a failing file are
// not written".
func (e *Entry) Compile() error {
	if e.compiling {
		return fmt.Errorf("circular import involving %s", e.Source)
	}
	e.compiling = true
	defer func() { e.compiling = false }()

	if e.UpToDate() {
		if err := e.loadCachedExports(); err == nil {
			return nil
		}
		// fall through and recompile if the cached signature can't be
		// read back (e.g. produced by a stale format version)
	}

	runID := uuid.New()

	src, err := e.Script()
	if err != nil {
		return err
	}
	prog, parseErrs := parser.Parse(src, e.Source)
	if len(parseErrs) > 0 {
		return fmt.Errorf("%s: %w (run %s)", e.Source, parseErrs[0], runID)
	}

	env := types.NewEnv()
	deps := []Dep{{SourceID: e.Source, ModMs: modTimeMs(e.Source)}}

	for _, imp := range prog.Imports {
		depEntry, err := e.RelativeEntry(imp.Path)
		if err != nil {
			return fmt.Errorf("%s: resolving import %q: %w", e.Source, imp.Path, err)
		}
		if err := depEntry.Compile(); err != nil {
			return fmt.Errorf("%s: compiling import %q: %w", e.Source, imp.Path, err)
		}
		if err := depEntry.installInto(env, imp); err != nil {
			return err
		}
		deps = append(deps, Dep{SourceID: depEntry.Source, ModMs: modTimeMs(depEntry.Source)})
		for _, dd := range depEntry.Deps {
			deps = append(deps, dd)
		}
	}

	result := infer.Check(prog, env)
	if len(result.Errors) > 0 {
		return fmt.Errorf("%s: %d type error(s), first: %w (run %s)", e.Source, len(result.Errors), result.Errors[0], runID)
	}

	chunk, exports, err := compile.CompileProgram(prog, env, e.cache.Builtins)
	if err != nil {
		return fmt.Errorf("%s: %w", e.Source, err)
	}

	mutable := map[string]bool{}
	for _, stmt := range prog.Statements {
		if ls, ok := stmt.(*ast.LetStatement); ok {
			mutable[ls.Name] = ls.Mutable
		}
	}
	codeOffsets := map[string]int{} // top-level lets compile inline; offsets unused for values
	recs := signature.FromExports(exports, env.Types, codeOffsets, mutable)

	if err := e.persist(chunk, recs, deps); err != nil {
		return err
	}
	e.Exports = recs
	e.Deps = deps
	return nil
}

// persist writes the signature, bytecode and dependency files for e
// in that fixed order (spec §5: "signature + bytecode + deps are
// written in a fixed order"), first to a uuid-suffixed temporary path
// in the same directory and then renamed into place, so a crash mid
// write never leaves a half-written artifact visible to a concurrent
// reader (tightening spec §5's "partial writes on crash are
// acceptable" beyond plain write-in-place).
func (e *Entry) persist(chunk *bytecode.Chunk, recs []signature.Record, deps []Dep) error {
	bcFile, err := e.ByteCodeFile()
	if err != nil {
		return err
	}
	sigFile, err := e.SignatureFile()
	if err != nil {
		return err
	}
	depsFile, err := e.DepsFile()
	if err != nil {
		return err
	}

	bcBytes := chunk.Bytes(config.BytecodeMagic, config.BytecodeMajorVersion, config.BytecodeMinorVersion)
	if err := atomicWrite(sigFile, []byte(signature.Write(recs))); err != nil {
		return err
	}
	if err := atomicWrite(bcFile, bcBytes); err != nil {
		return err
	}
	if err := atomicWrite(depsFile, encodeDeps(deps)); err != nil {
		return err
	}
	return nil
}

func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func encodeDeps(deps []Dep) []byte {
	var b strings.Builder
	for _, d := range deps {
		fmt.Fprintf(&b, "%s %d\n", d.SourceID, d.ModMs)
	}
	return []byte(b.String())
}

func readDeps(path string) ([]Dep, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var deps []Dep
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if line == "" {
			continue
		}
		idx := strings.LastIndex(line, " ")
		if idx < 0 {
			return nil, fmt.Errorf("malformed dependency line %q", line)
		}
		ms, err := strconv.ParseInt(line[idx+1:], 10, 64)
		if err != nil {
			return nil, err
		}
		deps = append(deps, Dep{SourceID: line[:idx], ModMs: ms})
	}
	return deps, nil
}

// IncludeDependencies adds every source-id in e.Deps (e's dependency
// file) to into (spec §4.4's includeDependencies()). It returns
// nothing and does not read the dependency files of those entries.
func (e *Entry) IncludeDependencies(into map[string]bool) {
	for _, d := range e.Deps {
		if into[d.SourceID] {
			continue
		}
		into[d.SourceID] = true
	}
}

func modTimeMs(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.ModTime().UnixMilli()
}

// loadCachedExports re-hydrates e.Exports/e.Deps from the on-disk
// signature and dependency files without re-running inference, per
// spec §4.4's "Signature reading ... so downstream modules can
// type-check against the exported interface without re-running
// upstream inference".
func (e *Entry) loadCachedExports() error {
	sigFile, err := e.SignatureFile()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(sigFile)
	if err != nil {
		return err
	}
	recs, err := signature.Parse(string(data))
	if err != nil {
		return err
	}
	depsFile, err := e.DepsFile()
	if err != nil {
		return err
	}
	deps, err := readDeps(depsFile)
	if err != nil {
		return err
	}
	e.Exports = recs
	e.Deps = deps
	return nil
}

// installInto installs e's exports into env under the alias/selection
// rules of an import statement (spec §4.1 "Imports"): unqualified,
// namespaced, or selective with optional rename.
func (e *Entry) installInto(env *types.Env, imp *ast.ImportStatement) error {
	selected := func(name string) (string, bool) {
		if len(imp.Only) == 0 {
			if to, ok := imp.Renames[name]; ok {
				return to, true
			}
			return name, true
		}
		for _, n := range imp.Only {
			if n == name {
				if to, ok := imp.Renames[name]; ok {
					return to, true
				}
				return name, true
			}
		}
		return "", false
	}

	var names []string
	for _, rec := range e.Exports {
		localName, ok := selected(rec.Name)
		if !ok {
			continue
		}
		qualified := localName
		if imp.Alias != "" {
			qualified = imp.Alias + "." + localName
		}
		switch rec.Kind {
		case "let", "fn":
			env.Declare(&types.Binding{Name: qualified, Mutable: rec.Mutable, Scheme: rec.Scheme})
		case "type":
			// ADT/alias declarations are installed by name regardless of
			// qualification, since pattern matching always refers to bare
			// constructor names (spec doesn't namespace constructors).
		}
		names = append(names, localName)
	}
	env.Imports = append(env.Imports, &types.Import{Alias: imp.Alias, Source: e.Source, Names: names})
	return nil
}
