package compile

import (
	"sort"

	"github.com/bendu-lang/bendu/internal/ast"
	"github.com/bendu-lang/bendu/internal/bytecode"
	"github.com/bendu-lang/bendu/internal/types"
)

// compilePattern emits a test against the value currently on top of the
// stack, net-zero on the stack in both outcomes: every fail path is
// recorded into *fails (to be patched to the next match arm) and every
// success path leaves the stack exactly as it found it, having stored
// any bound variables into the current function's frame as a side
// effect. ty is the scrutinee's best-known static type at this
// position, used only to resolve a RecordPattern's field order; it may
// be nil where that information wasn't threaded all the way down, in
// which case RecordPattern falls back to its own mentioned fields.
func (c *Compiler) compilePattern(pat ast.Pattern, ty types.Type, fails *[]int, line int) {
	switch p := pat.(type) {
	case *ast.WildcardPattern:
		return

	case *ast.VarPattern:
		slot := c.current().declare(p.Name)
		c.emitOp(bytecode.DUP, line)
		c.emitOp(bytecode.STORE, line)
		c.emitU32(0)
		c.emitU32(uint32(slot))

	case *ast.AsPattern:
		slot := c.current().declare(p.Name)
		c.emitOp(bytecode.DUP, line)
		c.emitOp(bytecode.STORE, line)
		c.emitU32(0)
		c.emitU32(uint32(slot))
		c.compilePattern(p.Inner, ty, fails, line)

	case *ast.LiteralPattern:
		c.emitOp(bytecode.DUP, line)
		c.emitLiteralPatternValue(p, line)
		op := literalEqOpcode(p.Kind)
		c.emitOp(op, line)
		*fails = append(*fails, c.emitJump(bytecode.JMP_FALSE, line))

	case *ast.TuplePattern:
		elemTypes := tupleElemTypes(ty, len(p.Elements))
		for i, sub := range p.Elements {
			c.emitOp(bytecode.DUP, line)
			c.emitOp(bytecode.PUSH_TUPLE_COMPONENT, line)
			c.emitU32(uint32(i))
			c.compilePattern(sub, elemTypes[i], fails, line)
			c.emitOp(bytecode.DISCARD, line)
		}

	case *ast.ConstructorPattern:
		ctor, ok := c.env.Ctors[p.Name]
		if !ok {
			c.fail(line, "compile: unknown constructor %q in pattern", p.Name)
			return
		}
		c.emitOp(bytecode.DUP, line)
		c.emitOp(bytecode.CHECK_TAG, line)
		c.emitU32(uint32(ctor.Tag))
		*fails = append(*fails, c.emitJump(bytecode.JMP_FALSE, line))
		for i, sub := range p.Args {
			c.emitOp(bytecode.DUP, line)
			c.emitOp(bytecode.PUSH_CONSTRUCTOR_COMPONENT, line)
			c.emitU32(uint32(i))
			var fieldTy types.Type
			if i < len(ctor.Fields) {
				fieldTy = ctor.Fields[i]
			}
			c.compilePattern(sub, fieldTy, fails, line)
			c.emitOp(bytecode.DISCARD, line)
		}

	case *ast.RecordPattern:
		order := recordFieldOrder(ty)
		if order == nil {
			for n := range p.Fields {
				order = append(order, n)
			}
			sort.Strings(order)
		}
		for i, name := range order {
			sub, ok := p.Fields[name]
			if !ok {
				continue
			}
			c.emitOp(bytecode.DUP, line)
			c.emitOp(bytecode.PUSH_TUPLE_COMPONENT, line)
			c.emitU32(uint32(i))
			var fieldTy types.Type
			if rec, ok := ty.(types.TyRecord); ok {
				fieldTy = rec.Fields[name]
			}
			c.compilePattern(sub, fieldTy, fails, line)
			c.emitOp(bytecode.DISCARD, line)
		}

	default:
		c.fail(line, "compile: unsupported pattern %T", p)
	}
}

func (c *Compiler) emitLiteralPatternValue(p *ast.LiteralPattern, line int) {
	switch p.Kind {
	case "Int":
		c.emitOp(bytecode.PUSH_I32_LITERAL, line)
		c.emitI32(p.Value.(int32))
	case "Float":
		c.emitOp(bytecode.PUSH_F32_LITERAL, line)
		c.emitF32(p.Value.(float32))
	case "Char":
		c.emitOp(bytecode.PUSH_U8_LITERAL, line)
		c.emitU8(p.Value.(byte))
	case "String":
		c.emitOp(bytecode.PUSH_STRING_LITERAL, line)
		c.emitString(p.Value.(string))
	case "Bool":
		if p.Value.(bool) {
			c.emitOp(bytecode.PUSH_BOOL_TRUE, line)
		} else {
			c.emitOp(bytecode.PUSH_BOOL_FALSE, line)
		}
	default:
		c.emitOp(bytecode.PUSH_UNIT_LITERAL, line)
	}
}

func literalEqOpcode(kind string) bytecode.Opcode {
	switch kind {
	case "Int":
		return bytecode.EQ_I32
	case "Float":
		return bytecode.EQ_F32
	case "Char":
		return bytecode.EQ_CHAR
	case "String":
		return bytecode.EQ_STRING
	case "Bool":
		return bytecode.EQ_BOOL
	}
	return bytecode.EQ
}

func tupleElemTypes(ty types.Type, n int) []types.Type {
	out := make([]types.Type, n)
	if tup, ok := ty.(types.TyTuple); ok {
		for i := 0; i < n && i < len(tup.Elements); i++ {
			out[i] = tup.Elements[i]
		}
	}
	return out
}

// compileMatch lowers a match expression as an ordered sequence of arm
// tests (spec §4.1 exhaustiveness is already enforced by internal/dtree
// during inference; codegen here just needs arm order and each arm's
// pattern/guard/body, mirroring the teacher's compileMatchExpression
// control flow of try-this-arm/jump-to-next-arm-on-failure).
func (c *Compiler) compileMatch(e *ast.MatchExpr, line int) {
	c.compileExpr(e.Scrutinee)
	scrutTy := exprType(e.Scrutinee)

	var endJumps []int
	for _, arm := range e.Cases {
		c.current().pushBlock()
		var fails []int
		c.compilePattern(arm.Pattern, scrutTy, &fails, line)

		if arm.Guard != nil {
			c.compileExpr(arm.Guard)
			fails = append(fails, c.emitJump(bytecode.JMP_FALSE, line))
		}

		c.emitOp(bytecode.DISCARD, line) // drop the scrutinee; arm owns its bindings now
		c.compileExpr(arm.Body)
		endJumps = append(endJumps, c.emitJump(bytecode.JMP, line))

		for _, f := range fails {
			c.patchJumpHere(f)
		}
		c.current().popBlock()
	}

	// Falling through every arm means a non-exhaustive match reached
	// here at runtime — unreachable once inference's exhaustiveness
	// check has passed, but the instruction stream still needs a
	// defined outcome rather than running off the end of the arms.
	c.emitOp(bytecode.DISCARD, line)
	c.emitOp(bytecode.PUSH_UNIT_LITERAL, line)

	for _, j := range endJumps {
		c.patchJumpHere(j)
	}
}
