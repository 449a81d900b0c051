package compile

import (
	"github.com/bendu-lang/bendu/internal/ast"
	"github.com/bendu-lang/bendu/internal/bytecode"
	"github.com/bendu-lang/bendu/internal/types"
)

// compileStatement lowers one top-level statement. Grounded on the
// teacher's compiler_statements.go dispatch, narrowed to Bendu's
// statement set (spec §3): `type` declarations have no runtime
// footprint (their constructors were already registered in the type
// environment by internal/infer), `let` installs a package-frame slot
// and, when Public, an export table entry (spec §6).
func (c *Compiler) compileStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.TypeDeclStatement:
		// Declared once in types.Env by inference; nothing to emit.

	case *ast.LetStatement:
		c.compileLetStatement(s)

	case *ast.ExpressionStatement:
		line := s.Tok.Line
		c.compileExpr(s.Expr)
		c.emitOp(bytecode.DISCARD, line)

	default:
		c.fail(stmt.GetToken().Line, "compile: unsupported statement %T", s)
	}
}

func (c *Compiler) compileLetStatement(s *ast.LetStatement) {
	line := s.Tok.Line

	if s.Params == nil {
		slot := c.current().declare(s.Name)
		c.compileExpr(s.Value)
		c.emitOp(bytecode.STORE, line)
		c.emitU32(0)
		c.emitU32(uint32(slot))
		c.recordExport(s, slot)
		return
	}

	// A function binding reserves its slot before compiling the body so
	// a `rec` binding's own name resolves to this slot from inside the
	// body (the closure's captured frame is the same mutable Frame the
	// STORE below fills in after the PUSH_CLOSURE, so the recursive call
	// sees the finished binding by the time it actually runs).
	slot := c.current().declare(s.Name)
	offset := c.compileFunctionBody(s.Params, s.Value, line)
	c.emitOp(bytecode.PUSH_CLOSURE, line)
	c.emitU32(0)
	c.emitU32(uint32(offset))
	c.emitOp(bytecode.STORE, line)
	c.emitU32(0)
	c.emitU32(uint32(slot))
	c.recordExport(s, slot)
}

func (c *Compiler) recordExport(s *ast.LetStatement, slot int) {
	if !s.Public {
		return
	}
	var ty types.Type
	if b, ok := c.env.Lookup(s.Name); ok {
		ty = b.Scheme.Body
	}
	c.exports = append(c.exports, Export{Name: s.Name, Slot: slot, Type: ty})
}
