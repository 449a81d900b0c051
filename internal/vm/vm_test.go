package vm

import (
	"testing"

	"github.com/bendu-lang/bendu/internal/bytecode"
)

func TestArithmeticExpression(t *testing.T) {
	c := bytecode.NewChunk("arith")
	c.Op(bytecode.PUSH_I32_LITERAL, 1)
	c.I32(10)
	c.Op(bytecode.PUSH_I32_LITERAL, 1)
	c.I32(20)
	c.Op(bytecode.ADD_I32, 1)
	c.Op(bytecode.RET, 1)

	m := New()
	pkg := m.RegisterPackage("main", nil, c.Code)
	if err := m.Load(pkg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := m.pop()
	if !got.IsInt() || got.AsInt() != 30 {
		t.Fatalf("got %v, want IntVal(30)", got)
	}
}

func TestDivisionByZero(t *testing.T) {
	c := bytecode.NewChunk("div0")
	c.Op(bytecode.PUSH_I32_LITERAL, 1)
	c.I32(1)
	c.Op(bytecode.PUSH_I32_LITERAL, 1)
	c.I32(0)
	c.Op(bytecode.DIV_I32, 1)
	c.Op(bytecode.RET, 1)

	m := New()
	pkg := m.RegisterPackage("main", nil, c.Code)
	err := m.Load(pkg)
	if err == nil {
		t.Fatalf("expected division-by-zero error")
	}
	if _, ok := err.(*RuntimeError); !ok {
		t.Fatalf("expected *RuntimeError, got %T", err)
	}
}

func TestCallAndReturn(t *testing.T) {
	c := bytecode.NewChunk("call")
	c.Op(bytecode.CALL, 1)
	offsetPos := c.Here()
	c.U32(0) // offset placeholder
	c.U32(0) // arity
	c.U32(0) // depth
	c.Op(bytecode.RET, 1)

	fnStart := c.Here()
	c.PatchU32(offsetPos, uint32(fnStart))
	c.Op(bytecode.PUSH_I32_LITERAL, 2)
	c.I32(99)
	c.Op(bytecode.RET, 2)

	m := New()
	pkg := m.RegisterPackage("main", nil, c.Code)
	if err := m.Load(pkg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := m.pop()
	if !got.IsInt() || got.AsInt() != 99 {
		t.Fatalf("got %v, want IntVal(99)", got)
	}
}

func TestCallClosure(t *testing.T) {
	c := bytecode.NewChunk("closure")
	c.Op(bytecode.PUSH_CLOSURE, 1)
	c.U32(0) // owning package: 0 means "current package"
	entryPos := c.Here()
	c.U32(0) // entry placeholder
	c.Op(bytecode.CALL_CLOSURE, 1)
	c.U32(0) // arity
	c.Op(bytecode.RET, 1)

	fnStart := c.Here()
	c.PatchU32(entryPos, uint32(fnStart))
	c.Op(bytecode.PUSH_I32_LITERAL, 2)
	c.I32(7)
	c.Op(bytecode.RET, 2)

	m := New()
	pkg := m.RegisterPackage("main", nil, c.Code)
	if err := m.Load(pkg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := m.pop()
	if !got.IsInt() || got.AsInt() != 7 {
		t.Fatalf("got %v, want IntVal(7)", got)
	}
}

func TestArrayIndexOutOfBounds(t *testing.T) {
	c := bytecode.NewChunk("idx")
	c.Op(bytecode.PUSH_I32_LITERAL, 1)
	c.I32(1)
	c.Op(bytecode.PUSH_ARRAY, 1)
	c.U32(1)
	c.Op(bytecode.PUSH_I32_LITERAL, 1)
	c.I32(5)
	c.Op(bytecode.ARRAY_INDEX, 1)
	c.Op(bytecode.RET, 1)

	m := New()
	pkg := m.RegisterPackage("main", nil, c.Code)
	err := m.Load(pkg)
	if err == nil {
		t.Fatalf("expected out-of-bounds error")
	}
	want := "Index out of bounds: index: 5, length: 1"
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}

func TestCheckTagAndComponentConsumeAScrutineeTheCallerDuped(t *testing.T) {
	c := bytecode.NewChunk("tag")
	c.Op(bytecode.PUSH_I32_LITERAL, 1)
	c.I32(5)
	c.Op(bytecode.PUSH_CUSTOM, 1)
	c.String("Some")
	c.U32(1) // tag
	c.U32(1) // arity

	c.Op(bytecode.DUP, 1)
	c.Op(bytecode.CHECK_TAG, 1)
	c.U32(1)
	c.Op(bytecode.DISCARD, 1) // drop the bool, original scrutinee still on stack

	c.Op(bytecode.DUP, 1)
	c.Op(bytecode.PUSH_CONSTRUCTOR_COMPONENT, 1)
	c.U32(0)
	c.Op(bytecode.RET, 1)

	m := New()
	pkg := m.RegisterPackage("main", nil, c.Code)
	if err := m.Load(pkg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := m.pop()
	if !got.IsInt() || got.AsInt() != 5 {
		t.Fatalf("got %v, want IntVal(5) extracted from a duped scrutinee", got)
	}
	// The original scrutinee (consumed by its own DUP's copy) is still
	// underneath, untouched by either consuming opcode.
	scrutinee := m.pop()
	if !scrutinee.IsHeap() || scrutinee.Obj.CtorName != "Some" {
		t.Fatalf("original scrutinee should still be on the stack, got %v", scrutinee)
	}
}
