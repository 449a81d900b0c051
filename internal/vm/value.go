// Package vm implements the bytecode interpreter of spec §4.5: a
// stack-based machine with tagged values, a reference-counted +
// mark-sweep heap, heap-allocated frames linked to their enclosing
// frame (one kind, used for every call, closure or not), and packages
// whose imports are all loaded before their own initializer runs.
//
// The value representation follows the teacher's internal/vm/value.go
// shape — a small tagged struct (Kind + Data + Obj) rather than a
// hand-packed machine word — because Go's garbage collector cannot
// trace a real heap pointer that has been bit-packed into a uint64:
// doing so would silently break memory safety the moment the GC moved
// or collected the referent. Immediates (Int, Char, Bool, Unit) still
// carry no heap allocation, matching spec §3's "tagged 64-bit word"
// cost model even though the Go encoding is a tagged struct rather than
// literal packed bits.
package vm

import "fmt"

// Kind discriminates a Value's payload, mirroring spec §3's "Low bits
// discriminate" enumeration (pointer, Int, Char, Bool, Unit) plus the
// heap kinds every non-immediate value carries via Obj.
type Kind uint8

const (
	KindUnit Kind = iota
	KindInt
	KindChar
	KindBool
	KindHeap
)

// Value is the VM's operand-stack element: an immediate payload or a
// pointer to a heap-allocated Object, never both.
type Value struct {
	Kind Kind
	Data int64 // Int (sign-extended), Char (byte), Bool (0/1)
	Obj  *Object
}

func IntVal(v int32) Value  { return Value{Kind: KindInt, Data: int64(v)} }
func CharVal(v byte) Value  { return Value{Kind: KindChar, Data: int64(v)} }
func BoolVal(v bool) Value {
	d := int64(0)
	if v {
		d = 1
	}
	return Value{Kind: KindBool, Data: d}
}
func UnitVal() Value        { return Value{Kind: KindUnit} }
func HeapVal(o *Object) Value { return Value{Kind: KindHeap, Obj: o} }

func (v Value) IsInt() bool  { return v.Kind == KindInt }
func (v Value) IsChar() bool { return v.Kind == KindChar }
func (v Value) IsBool() bool { return v.Kind == KindBool }
func (v Value) IsUnit() bool { return v.Kind == KindUnit }
func (v Value) IsHeap() bool { return v.Kind == KindHeap }

func (v Value) AsInt() int32  { return int32(v.Data) }
func (v Value) AsChar() byte  { return byte(v.Data) }
func (v Value) AsBool() bool  { return v.Data != 0 }

// AsFloat, AsString, AsArray etc. all go through Obj since those kinds
// are always heap-allocated (spec §3: "Float, String, Array, Tuple,
// Custom, Closure, and Frame are heap-allocated").

func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return fmt.Sprintf("%d", v.AsInt())
	case KindChar:
		return fmt.Sprintf("%c", v.AsChar())
	case KindBool:
		return fmt.Sprintf("%t", v.AsBool())
	case KindUnit:
		return "()"
	case KindHeap:
		return v.Obj.String()
	}
	return "<invalid>"
}

// Equal implements value equality for the generic EQ/NEQ fallback
// opcodes (spec §4.3: dispatch at runtime on the value's kind tag when
// the operand type is still a variable at codegen time).
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindHeap:
		return v.Obj.Equal(o.Obj)
	default:
		return v.Data == o.Data
	}
}
