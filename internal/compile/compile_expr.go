package compile

import (
	"sort"

	"github.com/bendu-lang/bendu/internal/ast"
	"github.com/bendu-lang/bendu/internal/bytecode"
	"github.com/bendu-lang/bendu/internal/types"
)

func exprType(e ast.Expression) types.Type {
	t, _ := e.InferredType().(types.Type)
	return t
}

func isCon(t types.Type, name string) bool {
	c, ok := t.(types.TyCon)
	return ok && c.Name == name
}

// compileExpr lowers one expression, leaving exactly one value on the
// operand stack (spec §4.3's "every expression leaves one value").
// Grounded on the teacher's compileExpression type switch
// (internal/vm/compiler_expressions.go), generalized to Bendu's typed
// AST and type-driven opcode selection (spec §4.3).
func (c *Compiler) compileExpr(expr ast.Expression) {
	line := expr.GetToken().Line
	switch e := expr.(type) {
	case *ast.IntLiteral:
		c.emitOp(bytecode.PUSH_I32_LITERAL, line)
		c.emitI32(e.Value)
	case *ast.FloatLiteral:
		c.emitOp(bytecode.PUSH_F32_LITERAL, line)
		c.emitF32(e.Value)
	case *ast.CharLiteral:
		c.emitOp(bytecode.PUSH_U8_LITERAL, line)
		c.emitU8(e.Value)
	case *ast.StringLiteral:
		c.emitOp(bytecode.PUSH_STRING_LITERAL, line)
		c.emitString(e.Value)
	case *ast.BoolLiteral:
		if e.Value {
			c.emitOp(bytecode.PUSH_BOOL_TRUE, line)
		} else {
			c.emitOp(bytecode.PUSH_BOOL_FALSE, line)
		}
	case *ast.UnitLiteral:
		c.emitOp(bytecode.PUSH_UNIT_LITERAL, line)

	case *ast.Identifier:
		c.compileIdentifier(e, line)

	case *ast.BinaryExpr:
		c.compileBinary(e, line)

	case *ast.UnaryExpr:
		c.compileUnary(e, line)

	case *ast.IfExpr:
		c.compileExpr(e.Cond)
		elseJump := c.emitJump(bytecode.JMP_FALSE, line)
		c.compileExpr(e.Then)
		endJump := c.emitJump(bytecode.JMP, line)
		c.patchJumpHere(elseJump)
		c.compileExpr(e.Else)
		c.patchJumpHere(endJump)

	case *ast.LambdaExpr:
		offset := c.compileFunctionBody(e.Params, e.Body, line)
		c.emitOp(bytecode.PUSH_CLOSURE, line)
		c.emitU32(0) // current package
		c.emitU32(uint32(offset))

	case *ast.ApplyExpr:
		c.compileApply(e, line)

	case *ast.LetExpr:
		c.compileLetExpr(e, line)

	case *ast.MatchExpr:
		c.compileMatch(e, line)

	case *ast.RecordExpr:
		c.compileRecord(e, line)

	case *ast.FieldAccessExpr:
		c.compileFieldAccess(e, line)

	case *ast.TupleExpr:
		for _, el := range e.Elements {
			c.compileExpr(el)
		}
		c.emitOp(bytecode.PUSH_TUPLE, line)
		c.emitU32(uint32(len(e.Elements)))

	case *ast.ArrayLiteral:
		for _, el := range e.Elements {
			c.compileExpr(el)
		}
		c.emitOp(bytecode.PUSH_ARRAY, line)
		c.emitU32(uint32(len(e.Elements)))

	case *ast.ArrayProjectionExpr:
		c.compileArrayProjection(e, line)

	case *ast.AnnotatedExpr:
		c.compileExpr(e.Expr)

	default:
		c.fail(line, "compile: unsupported expression %T", e)
		c.emitOp(bytecode.PUSH_UNIT_LITERAL, line)
	}
}

func (c *Compiler) compileIdentifier(e *ast.Identifier, line int) {
	if depth, slot, ok := c.resolveVar(e.Name); ok {
		c.emitOp(bytecode.LOAD, line)
		c.emitU32(uint32(depth))
		c.emitU32(uint32(slot))
		return
	}
	if ctor, ok := c.env.Ctors[e.Name]; ok && len(ctor.Fields) == 0 {
		c.emitOp(bytecode.PUSH_CUSTOM, line)
		c.emitString(ctor.Name)
		c.emitU32(uint32(ctor.Tag))
		c.emitU32(0)
		return
	}
	c.fail(line, "compile: unresolved identifier %q", e.Name)
	c.emitOp(bytecode.PUSH_UNIT_LITERAL, line)
}

func (c *Compiler) compileBinary(e *ast.BinaryExpr, line int) {
	switch e.Op {
	case "&&":
		c.compileExpr(e.Left)
		skip := c.emitJump(bytecode.JMP_DUP_FALSE, line)
		c.emitOp(bytecode.DISCARD, line)
		c.compileExpr(e.Right)
		c.patchJumpHere(skip)
		return
	case "||":
		c.compileExpr(e.Left)
		skip := c.emitJump(bytecode.JMP_DUP_TRUE, line)
		c.emitOp(bytecode.DISCARD, line)
		c.compileExpr(e.Right)
		c.patchJumpHere(skip)
		return
	}

	c.compileExpr(e.Left)
	c.compileExpr(e.Right)
	ty := exprType(e.Left)
	op, ok := binaryOpcode(e.Op, ty)
	if !ok {
		c.fail(line, "compile: no opcode for operator %q on %v", e.Op, ty)
		op = bytecode.ADD_I32
	}
	c.emitOp(op, line)
}

// binaryOpcode picks the monomorphic opcode matching the operator and
// the (already type-checked) operand type, falling back to the generic
// EQ/NEQ opcodes when the operand type is still a variable — spec
// §4.3's "dispatch at runtime on the value's kind tag" escape hatch for
// genuinely polymorphic equality.
func binaryOpcode(op string, ty types.Type) (bytecode.Opcode, bool) {
	switch op {
	case "+":
		switch {
		case isCon(ty, "Int"):
			return bytecode.ADD_I32, true
		case isCon(ty, "Float"):
			return bytecode.ADD_F32, true
		case isCon(ty, "String"):
			return bytecode.ADD_STRING, true
		}
	case "-":
		switch {
		case isCon(ty, "Int"):
			return bytecode.SUB_I32, true
		case isCon(ty, "Float"):
			return bytecode.SUB_F32, true
		}
	case "*":
		switch {
		case isCon(ty, "Int"):
			return bytecode.MUL_I32, true
		case isCon(ty, "Float"):
			return bytecode.MUL_F32, true
		}
	case "/":
		switch {
		case isCon(ty, "Int"):
			return bytecode.DIV_I32, true
		case isCon(ty, "Float"):
			return bytecode.DIV_F32, true
		}
	case "%":
		return bytecode.MOD_I32, true
	case "==":
		switch {
		case isCon(ty, "Int"):
			return bytecode.EQ_I32, true
		case isCon(ty, "Float"):
			return bytecode.EQ_F32, true
		case isCon(ty, "String"):
			return bytecode.EQ_STRING, true
		case isCon(ty, "Char"):
			return bytecode.EQ_CHAR, true
		case isCon(ty, "Bool"):
			return bytecode.EQ_BOOL, true
		}
		return bytecode.EQ, true
	case "!=":
		if _, ok := binaryOpcode("==", ty); ok {
			return bytecode.NEQ, true
		}
		return bytecode.NEQ, true
	case "<":
		switch {
		case isCon(ty, "Int"):
			return bytecode.LT_I32, true
		case isCon(ty, "Float"):
			return bytecode.LT_F32, true
		case isCon(ty, "String"):
			return bytecode.LT_STRING, true
		}
	case ">":
		switch {
		case isCon(ty, "Int"):
			return bytecode.GT_I32, true
		case isCon(ty, "Float"):
			return bytecode.GT_F32, true
		}
	case "<=":
		switch {
		case isCon(ty, "Int"):
			return bytecode.LE_I32, true
		case isCon(ty, "Float"):
			return bytecode.LE_F32, true
		}
	case ">=":
		switch {
		case isCon(ty, "Int"):
			return bytecode.GE_I32, true
		case isCon(ty, "Float"):
			return bytecode.GE_F32, true
		}
	}
	return 0, false
}

func (c *Compiler) compileUnary(e *ast.UnaryExpr, line int) {
	switch e.Op {
	case "!":
		c.compileExpr(e.Operand)
		c.emitOp(bytecode.NOT_BOOL, line)
	case "-":
		ty := exprType(e.Operand)
		if isCon(ty, "Float") {
			c.emitOp(bytecode.PUSH_F32_LITERAL, line)
			c.emitF32(0)
			c.compileExpr(e.Operand)
			c.emitOp(bytecode.SUB_F32, line)
		} else {
			c.emitOp(bytecode.PUSH_I32_LITERAL, line)
			c.emitI32(0)
			c.compileExpr(e.Operand)
			c.emitOp(bytecode.SUB_I32, line)
		}
	default:
		c.fail(line, "compile: unsupported unary operator %q", e.Op)
		c.compileExpr(e.Operand)
	}
}

// compileFunctionBody emits params/body as an inline, jumped-over code
// region (spec §6: CALL/CALL_CLOSURE/CALL_PACKAGE all address a raw
// code offset, so a "function" is just a label into the same stream)
// and returns the body's entry offset.
func (c *Compiler) compileFunctionBody(params []ast.Param, body ast.Expression, line int) int {
	skip := c.emitJump(bytecode.JMP, line)
	offset := c.chunk.Here()

	c.funcs = append(c.funcs, newFuncScope(0))
	for _, p := range params {
		c.current().declare(p.Name)
	}
	c.compileExpr(body)
	c.emitOp(bytecode.RET, line)
	c.funcs = c.funcs[:len(c.funcs)-1]

	c.patchJumpHere(skip)
	return offset
}

func (c *Compiler) compileApply(e *ast.ApplyExpr, line int) {
	if id, ok := e.Fn.(*ast.Identifier); ok {
		if ctor, ok := c.env.Ctors[id.Name]; ok {
			for _, a := range e.Args {
				c.compileExpr(a)
			}
			c.emitOp(bytecode.PUSH_CUSTOM, line)
			c.emitString(ctor.Name)
			c.emitU32(uint32(ctor.Tag))
			c.emitU32(uint32(len(e.Args)))
			return
		}
	}
	for _, a := range e.Args {
		c.compileExpr(a)
	}
	c.compileExpr(e.Fn)
	c.emitOp(bytecode.CALL_CLOSURE, line)
	c.emitU32(uint32(len(e.Args)))
}

func (c *Compiler) compileLetExpr(e *ast.LetExpr, line int) {
	c.current().pushBlock()
	defer c.current().popBlock()

	if e.Recursive {
		slot := c.current().declare(e.Name)
		c.compileExpr(e.Value)
		c.emitOp(bytecode.STORE, line)
		c.emitU32(0)
		c.emitU32(uint32(slot))
	} else {
		c.compileExpr(e.Value)
		slot := c.current().declare(e.Name)
		c.emitOp(bytecode.STORE, line)
		c.emitU32(0)
		c.emitU32(uint32(slot))
	}
	c.compileExpr(e.Body)
}

// recordFieldOrder returns a closed record type's field names in the
// canonical sorted order used both by RecordExpr construction and by
// FieldAccessExpr/RecordPattern index resolution (spec has no separate
// "record" heap kind; Bendu represents a record as an ObjTuple built in
// this order, matching the alphabetic order types.TyRecord.String()
// already uses for display).
func recordFieldOrder(ty types.Type) []string {
	rec, ok := ty.(types.TyRecord)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(rec.Fields))
	for n := range rec.Fields {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (c *Compiler) compileRecord(e *ast.RecordExpr, line int) {
	order := recordFieldOrder(exprType(e))
	if order == nil {
		// Fallback for a record type not fully resolved to TyRecord
		// (e.g. a still-generic field of an as-yet-unspecialized ADT
		// constructor): use the literal's own mentioned fields.
		for _, f := range e.Fields {
			order = append(order, f.Name)
		}
		sort.Strings(order)
	}

	byName := map[string]ast.Expression{}
	for _, f := range e.Fields {
		byName[f.Name] = f.Value
	}

	var spreadSlot int
	var spreadOrder []string
	if e.Spread != nil {
		c.compileExpr(e.Spread)
		spreadSlot = c.current().declare("")
		c.emitOp(bytecode.STORE, line)
		c.emitU32(0)
		c.emitU32(uint32(spreadSlot))
		spreadOrder = recordFieldOrder(exprType(e.Spread))
	}

	for _, name := range order {
		if v, ok := byName[name]; ok {
			c.compileExpr(v)
			continue
		}
		idx := indexOf(spreadOrder, name)
		c.emitOp(bytecode.LOAD, line)
		c.emitU32(0)
		c.emitU32(uint32(spreadSlot))
		c.emitOp(bytecode.PUSH_TUPLE_COMPONENT, line)
		c.emitU32(uint32(idx))
	}
	c.emitOp(bytecode.PUSH_TUPLE, line)
	c.emitU32(uint32(len(order)))
}

func indexOf(ss []string, s string) int {
	for i, v := range ss {
		if v == s {
			return i
		}
	}
	return 0
}

func (c *Compiler) compileFieldAccess(e *ast.FieldAccessExpr, line int) {
	order := recordFieldOrder(exprType(e.Record))
	idx := indexOf(order, e.Field)
	c.compileExpr(e.Record)
	c.emitOp(bytecode.PUSH_TUPLE_COMPONENT, line)
	c.emitU32(uint32(idx))
}

func (c *Compiler) compileArrayProjection(e *ast.ArrayProjectionExpr, line int) {
	c.compileExpr(e.Array)
	if !e.Slice {
		c.compileExpr(e.From)
		c.emitOp(bytecode.ARRAY_INDEX, line)
		return
	}
	if e.From != nil {
		c.compileExpr(e.From)
	} else {
		c.emitOp(bytecode.PUSH_I32_LITERAL, line)
		c.emitI32(0)
	}
	if e.To != nil {
		c.compileExpr(e.To)
	} else {
		c.emitOp(bytecode.PUSH_I32_LITERAL, line)
		c.emitI32(-1) // ARRAY_SLICE clamps a negative/overflowing `to` to length
	}
	c.emitOp(bytecode.ARRAY_SLICE, line)
}
