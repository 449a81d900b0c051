// Package compile lowers a type-checked Bendu program (an *ast.Program
// whose nodes already carry InferredType() from internal/infer) into a
// bytecode.Chunk (spec §4.3, §6). Grounded on the teacher's
// internal/vm/compiler.go: a single Compiler struct walking the AST with
// a type switch (not the ast.Visitor double-dispatch interface, which
// the teacher reserves for its analyzer), tracking locals as
// frame-relative (depth, slot) pairs the way the teacher tracks
// (Local.Depth, Local.Slot) pairs relative to its own call frames.
//
// Bendu's calling convention differs from the teacher's constant-pool
// VM in one structural way: there is no separate function/constant
// table, so a compiled function's body is emitted inline in the
// package's instruction stream and jumped over by its definition site,
// exactly as CALL/CALL_CLOSURE/CALL_PACKAGE address a raw code offset
// (spec §6).
package compile

import (
	"fmt"

	"github.com/bendu-lang/bendu/internal/ast"
	"github.com/bendu-lang/bendu/internal/bytecode"
	"github.com/bendu-lang/bendu/internal/types"
	"github.com/bendu-lang/bendu/internal/utils"
)

// Export is one publicly-exported binding, used both to build the VM's
// package Frame addressing table and to emit the signature file (spec
// §6, "Signature file grammar").
type Export struct {
	Name string
	Slot int
	Type types.Type
}

// funcScope is one function's (or the top-level package's) local
// variable table: names resolve to a slot in that function's own Frame.
type funcScope struct {
	blocks   []map[string]int // innermost-last; a stack of lexical blocks
	nextSlot int
}

func newFuncScope(startSlot int) *funcScope {
	return &funcScope{blocks: []map[string]int{{}}, nextSlot: startSlot}
}

func (fs *funcScope) pushBlock() { fs.blocks = append(fs.blocks, map[string]int{}) }

func (fs *funcScope) popBlock() { fs.blocks = fs.blocks[:len(fs.blocks)-1] }

// declare assigns a fresh slot to name in the innermost block and
// returns it; a name declared twice in nested blocks shadows rather
// than aliases, matching spec's "Shadowing ... across scopes is
// silent".
func (fs *funcScope) declare(name string) int {
	slot := fs.nextSlot
	fs.nextSlot++
	fs.blocks[len(fs.blocks)-1][name] = slot
	return slot
}

func (fs *funcScope) resolve(name string) (int, bool) {
	for i := len(fs.blocks) - 1; i >= 0; i-- {
		if slot, ok := fs.blocks[i][name]; ok {
			return slot, true
		}
	}
	return 0, false
}

// builtinTable maps a builtin's dotted name (e.g. "string.length") to
// its CALL_BUILTIN dispatch id, shared with internal/builtins (spec
// §4.6).
type builtinTable interface {
	ID(name string) (uint32, bool)
}

// Compiler lowers one package's AST into a bytecode.Chunk.
type Compiler struct {
	chunk    *bytecode.Chunk
	env      *types.Env
	funcs    []*funcScope // innermost-last; funcs[len-1] is currently compiling
	builtins builtinTable
	exports  []Export
	errors   []error
}

func NewCompiler(env *types.Env, builtins builtinTable, file string) *Compiler {
	c := &Compiler{
		chunk:    bytecode.NewChunk(file),
		env:      env,
		builtins: builtins,
	}
	c.funcs = []*funcScope{newFuncScope(0)}
	return c
}

func (c *Compiler) fail(line int, format string, args ...interface{}) {
	c.errors = append(c.errors, fmt.Errorf("%s:%d: %s", c.chunk.File, line, fmt.Sprintf(format, args...)))
}

func (c *Compiler) current() *funcScope { return c.funcs[len(c.funcs)-1] }

// emitOp/emitU32/... are thin wrappers so compile_*.go files read as a
// flat sequence of instruction emissions, matching the teacher's
// c.emit(OP_X, line) style.
func (c *Compiler) emitOp(op bytecode.Opcode, line int) { c.chunk.Op(op, line) }
func (c *Compiler) emitU32(v uint32)                    { c.chunk.U32(v) }
func (c *Compiler) emitI32(v int32)                     { c.chunk.I32(v) }
func (c *Compiler) emitF32(v float32)                    { c.chunk.F32(v) }
func (c *Compiler) emitU8(v byte)                       { c.chunk.U8(v) }
func (c *Compiler) emitString(s string)                 { c.chunk.String(s) }

// emitJump writes op followed by a placeholder u32 target and returns
// the placeholder's byte offset for a later PatchU32.
func (c *Compiler) emitJump(op bytecode.Opcode, line int) int {
	c.chunk.Op(op, line)
	pos := c.chunk.Here()
	c.chunk.U32(0)
	return pos
}

func (c *Compiler) patchJumpHere(pos int) { c.chunk.PatchU32(pos, uint32(c.chunk.Here())) }

// resolveVar searches the function-scope stack innermost-first and
// returns the frame depth (0 = currently compiling function) and slot
// a load/store of name should address.
func (c *Compiler) resolveVar(name string) (depth, slot int, ok bool) {
	for i := len(c.funcs) - 1; i >= 0; i-- {
		if s, found := c.funcs[i].resolve(name); found {
			return len(c.funcs) - 1 - i, s, true
		}
	}
	return 0, 0, false
}

// CompileProgram lowers every top-level statement of prog in order,
// appending to the package frame (function scope 0), and returns the
// finished chunk plus the export table for public bindings.
//
// A bytecode file's import table must survive being loaded by a
// process that has no notion of "the file that compiled this" (spec
// §4.5's lazy cross-package loader reads the table straight off disk),
// so a relative import path (e.g. "./helpers") is resolved here,
// against prog.File's own directory, into an absolute source id before
// it is written to the chunk — via utils.ResolveSourceID, the same
// resolution internal/cache.Entry.RelativeEntry performs when it
// recompiles a file directly, so both agree on what "relative to this
// file" means regardless of which one runs first.
func CompileProgram(prog *ast.Program, env *types.Env, builtins builtinTable) (*bytecode.Chunk, []Export, error) {
	c := NewCompiler(env, builtins, prog.File)
	for _, imp := range prog.Imports {
		resolved, err := utils.ResolveSourceID(prog.File, imp.Path)
		if err != nil {
			resolved = imp.Path
		}
		c.chunk.AddImport(resolved)
	}
	for _, stmt := range prog.Statements {
		c.compileStatement(stmt)
	}
	c.emitOp(bytecode.RET, 0)
	if len(c.errors) > 0 {
		return nil, nil, c.errors[0]
	}
	return c.chunk, c.exports, nil
}
