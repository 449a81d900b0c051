package vm

import "fmt"

// Package is spec §3's runtime Package: a source file's identity plus
// its image (imports, bytecode, frame), materialized by Load. Grounded
// on the teacher's internal/modules package-registry shape. Load
// resolves and loads all of a package's imports before running its
// initializer; loading is not deferred to a first cross-package access.
type Package struct {
	SourceID string
	ID       int // assigned by the VM in load order; stable for one run

	Imports []string // source-ids this package's bytecode references
	Code    []byte    // instruction stream (post-header)

	resolvedImports []*Package // parallel to Imports, filled by Load
	Frame           *Object    // package frame, valid once Loaded
	Loaded          bool
	loading         bool // cycle guard during Load
}

// Resolver is the collaborator that turns a source-id into parsed
// bytecode (header already stripped) for a package the VM has not yet
// seen — implemented by internal/loader on top of internal/cache.
// Kept as an interface here (rather than importing cache directly) so
// the VM has no dependency on the cache/loader layer, matching spec
// §2's leaves-first dependency order (Builtins <- VM <- Loader <-
// Cache <- Compiler <- Inferencer).
type Resolver interface {
	Resolve(sourceID string) (imports []string, code []byte, err error)
}

// RegisterPackage installs a parsed package under sourceID, assigning
// it the next sequential package id if this is the first time the VM
// has seen it, and returns the (possibly pre-existing) Package.
func (vm *VM) RegisterPackage(sourceID string, imports []string, code []byte) *Package {
	if pkg, ok := vm.packages[sourceID]; ok {
		return pkg
	}
	pkg := &Package{SourceID: sourceID, ID: len(vm.packageOrder), Imports: imports, Code: code}
	vm.packages[sourceID] = pkg
	vm.packageOrder = append(vm.packageOrder, pkg)
	return pkg
}

// Load materializes pkg's frame by resolving every import (recursively
// loading each), then executing pkg's instruction stream from offset 0
// to the first RET, which initializes its public bindings (spec §4.5,
// "Package loading"). A package is loaded at most once; subsequent
// calls are no-ops.
func (vm *VM) Load(pkg *Package) error {
	if pkg.Loaded {
		return nil
	}
	if pkg.loading {
		return fmt.Errorf("circular package dependency involving %s", pkg.SourceID)
	}
	pkg.loading = true
	defer func() { pkg.loading = false }()

	pkg.resolvedImports = make([]*Package, len(pkg.Imports))
	for i, sourceID := range pkg.Imports {
		dep, err := vm.resolveAndLoad(sourceID)
		if err != nil {
			return err
		}
		pkg.resolvedImports[i] = dep
	}

	frame := vm.heap.NewFrame(nil, 0)
	pkg.Frame = frame
	if err := vm.runInit(pkg); err != nil {
		return err
	}
	pkg.Loaded = true
	return nil
}

func (vm *VM) resolveAndLoad(sourceID string) (*Package, error) {
	if pkg, ok := vm.packages[sourceID]; ok {
		return pkg, vm.Load(pkg)
	}
	if vm.Resolver == nil {
		return nil, fmt.Errorf("no resolver configured for import %q", sourceID)
	}
	imports, code, err := vm.Resolver.Resolve(sourceID)
	if err != nil {
		return nil, err
	}
	pkg := vm.RegisterPackage(sourceID, imports, code)
	return pkg, vm.Load(pkg)
}

// importedPackage resolves a chunk-local import index (as emitted in
// LOAD_PACKAGE/STORE_PACKAGE/CALL_PACKAGE immediates) to the loaded
// Package it refers to.
func (pkg *Package) importedPackage(localIdx uint32) (*Package, error) {
	if int(localIdx) >= len(pkg.resolvedImports) {
		return nil, fmt.Errorf("package %s: import index %d out of range", pkg.SourceID, localIdx)
	}
	return pkg.resolvedImports[localIdx], nil
}
