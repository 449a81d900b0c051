// Package builtins implements the Builtins Dispatcher of spec §4.6: a
// fixed, numerically indexed table of host procedures reachable from
// bytecode via CALL_BUILTIN. Grounded on the teacher's
// internal/evaluator builtin-table shape (a name -> function map with
// a stable registration order), adapted to spec §4.6's requirement
// that dispatch be by *numeric id* rather than by name at run time —
// the name survives only in the table built here at VM-construction
// time, matching the compiler's builtinTable interface
// (internal/compile/compiler.go).
package builtins

import (
	"strings"

	"github.com/bendu-lang/bendu/internal/utils"
	"github.com/bendu-lang/bendu/internal/vm"
)

// entry pairs a builtin's dotted name with its dispatch function, in
// the fixed order that determines its CALL_BUILTIN id (its index in
// Table()).
type entry struct {
	name string
	fn   vm.BuiltinFn
}

// registry is the initial set named explicitly by spec §4.6:
// "string.length -> Int, string.at(s, i) -> Option[Char]". Appended to
// (never reordered, never have entries removed) as Bendu grows its
// standard library, since ids are positional and must stay stable
// across a compile and a later run of the same bytecode file.
var registry = []entry{
	{"string.length", builtinStringLength},
	{"string.at", builtinStringAt},
}

// byName maps a builtin's dotted name, AND its flattened UFCS fallback
// spelling (e.g. "string.length" also reachable as "stringLength"), to
// its CALL_BUILTIN id, computed once from registry's fixed order. The
// flattened alias is derived via utils.ModuleMemberFallbackName, the
// same derivation the teacher's parser front end uses when lowering a
// method-call site where the module qualifier and member name are only
// known as separate tokens rather than an already-dotted string.
var byName = func() map[string]uint32 {
	m := make(map[string]uint32, len(registry)*2)
	for i, e := range registry {
		m[e.name] = uint32(i)
		if mod, member, found := strings.Cut(e.name, "."); found {
			m[utils.ModuleMemberFallbackName(mod, member)] = uint32(i)
		}
	}
	return m
}()

// Table implements internal/compile.builtinTable: a name -> id lookup
// for `CALL_BUILTIN id`. The compiler holds a Table but never calls
// ID, so compiled programs contain no CALL_BUILTIN.
type Table struct{}

func NewTable() *Table { return &Table{} }

// ID resolves name to its CALL_BUILTIN dispatch id. name is either the
// dotted form registered in registry ("string.length") or its
// flattened camelCase form ("stringLength"); both spellings resolve to
// the same id via byName.
func (Table) ID(name string) (uint32, bool) {
	id, ok := byName[name]
	return id, ok
}

// Funcs returns the dispatch table in id order, ready to install as
// vm.VM.Builtins. A VM indexes into this slice directly for
// CALL_BUILTIN, per spec §4.6 ("Unknown id is a fatal VM error" is the
// VM's responsibility when the index is out of range).
func Funcs() []vm.BuiltinFn {
	fns := make([]vm.BuiltinFn, len(registry))
	for i, e := range registry {
		fns[i] = e.fn
	}
	return fns
}
