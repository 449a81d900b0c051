package vm

import (
	"fmt"
	"strings"
)

// ObjKind discriminates a heap Object's payload shape (spec §3, "Heap
// object").
type ObjKind byte

const (
	ObjFloat ObjKind = iota
	ObjString
	ObjArray
	ObjTuple
	ObjCustom
	ObjClosure
	ObjFrame
)

// color is the tri-colour mark used by the heap's mark-sweep GC (spec
// §4.5 "GC"). White/black swap meaning on every full sweep; grey marks
// a cell that has been freed and is sitting on the free list, ready
// for reuse — not, as in a classic tri-colour collector, a cell still
// awaiting scan. Bendu's sweep is stop-the-world and single-threaded,
// so there is no separate "awaiting scan" state to track.
type color uint8

const (
	white color = iota
	black
	grey
)

// Object is one heap-allocated Bendu value. The payload fields used
// depend on Kind; unused fields are simply zero.
type Object struct {
	Kind  ObjKind
	color color
	// RefCount is not read or updated anywhere in the VM. The refcount
	// discipline of spec §5 (string concatenation decrementing both
	// operands) is kept on StrHandle by the StringPool instead.
	RefCount int

	Float float32

	Str *StrHandle // String

	Items []Value // Array, Tuple

	CtorName string // Custom
	CtorTag  int
	Fields   []Value // Custom

	ClosurePkg   int // Closure: owning package id
	ClosureEntry uint32
	ClosureFrame *Object // Closure: captured enclosing Frame

	FrameParent *Object // Frame: enclosing-frame link, nil at a package's root frame
	Slots       []Value // Frame: local slots; slot 0 reserved when closures capture it
}

func (o *Object) String() string {
	if o == nil {
		return "<nil>"
	}
	switch o.Kind {
	case ObjFloat:
		return fmt.Sprintf("%g", o.Float)
	case ObjString:
		return o.Str.Value
	case ObjArray:
		parts := make([]string, len(o.Items))
		for i, v := range o.Items {
			parts[i] = v.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case ObjTuple:
		parts := make([]string, len(o.Items))
		for i, v := range o.Items {
			parts[i] = v.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case ObjCustom:
		if len(o.Fields) == 0 {
			return o.CtorName
		}
		parts := make([]string, len(o.Fields))
		for i, v := range o.Fields {
			parts[i] = v.String()
		}
		return o.CtorName + "(" + strings.Join(parts, ", ") + ")"
	case ObjClosure:
		return "<closure>"
	case ObjFrame:
		return "<frame>"
	}
	return "<object>"
}

// Equal implements structural equality for the generic EQ fallback.
func (o *Object) Equal(other *Object) bool {
	if o == other {
		return true
	}
	if o == nil || other == nil || o.Kind != other.Kind {
		return false
	}
	switch o.Kind {
	case ObjFloat:
		return o.Float == other.Float
	case ObjString:
		return o.Str.Value == other.Str.Value
	case ObjArray, ObjTuple:
		if len(o.Items) != len(other.Items) {
			return false
		}
		for i := range o.Items {
			if !o.Items[i].Equal(other.Items[i]) {
				return false
			}
		}
		return true
	case ObjCustom:
		if o.CtorTag != other.CtorTag || len(o.Fields) != len(other.Fields) {
			return false
		}
		for i := range o.Fields {
			if !o.Fields[i].Equal(other.Fields[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Heap owns every Object allocated during a VM run and the capacity
// bookkeeping that drives spec §4.5's trigger rule: "triggered when
// heap size exceeds capacity; capacity doubles whenever the live-to-
// capacity ratio exceeds 0.25 after a sweep."
type Heap struct {
	objects  []*Object
	free     []*Object
	capacity int
	strings  *StringPool
	// liveColor is the color that currently means "marked alive" — it
	// flips between black and white on every sweep (spec §4.5: "Two
	// colours black and white swap on each full sweep").
	liveColor color
}

const initialHeapCapacity = 256

func NewHeap() *Heap {
	return &Heap{capacity: initialHeapCapacity, strings: NewStringPool()}
}

// Live reports the number of currently-allocated (non-freed) objects.
func (h *Heap) Live() int { return len(h.objects) }

func (h *Heap) Capacity() int { return h.capacity }

// NeedsCollection reports whether the next allocation would exceed the
// heap's current capacity.
func (h *Heap) NeedsCollection() bool { return len(h.objects) >= h.capacity }

// alloc reuses a freed (grey) cell when the free list is non-empty,
// otherwise mints a new Object, and registers it in the live set.
func (h *Heap) alloc(kind ObjKind) *Object {
	var o *Object
	if n := len(h.free); n > 0 {
		o = h.free[n-1]
		h.free = h.free[:n-1]
		*o = Object{Kind: kind}
	} else {
		o = &Object{Kind: kind}
	}
	// A fresh object is colored to match the *current* meaning of
	// "marked alive" (liveColor), which is always the losing color for
	// the next sweep (colors swap every collection) — so an unreached
	// object allocated between two sweeps still gets correctly freed by
	// the next one instead of surviving by color coincidence.
	o.color = h.liveColor
	h.objects = append(h.objects, o)
	return o
}

func (h *Heap) NewFloat(f float32) *Object {
	o := h.alloc(ObjFloat)
	o.Float = f
	return o
}

func (h *Heap) NewString(s string) *Object {
	o := h.alloc(ObjString)
	o.Str = h.strings.Intern(s)
	return o
}

func (h *Heap) NewArray(items []Value) *Object {
	o := h.alloc(ObjArray)
	o.Items = items
	return o
}

func (h *Heap) NewTuple(items []Value) *Object {
	o := h.alloc(ObjTuple)
	o.Items = items
	return o
}

func (h *Heap) NewCustom(name string, tag int, fields []Value) *Object {
	o := h.alloc(ObjCustom)
	o.CtorName = name
	o.CtorTag = tag
	o.Fields = fields
	return o
}

func (h *Heap) NewClosure(pkgID int, entry uint32, frame *Object) *Object {
	o := h.alloc(ObjClosure)
	o.ClosurePkg = pkgID
	o.ClosureEntry = entry
	o.ClosureFrame = frame
	return o
}

func (h *Heap) NewFrame(parent *Object, slotCount int) *Object {
	o := h.alloc(ObjFrame)
	o.FrameParent = parent
	o.Slots = make([]Value, slotCount)
	return o
}
