package vm

import "testing"

func TestHeapAllocAndString(t *testing.T) {
	h := NewHeap()
	s := h.NewString("hello")
	if s.String() != "hello" {
		t.Fatalf("NewString: got %q", s.String())
	}
	if h.Live() != 1 {
		t.Fatalf("Live() = %d, want 1", h.Live())
	}
}

func TestHeapArrayAndTupleString(t *testing.T) {
	h := NewHeap()
	arr := h.NewArray([]Value{IntVal(1), IntVal(2), IntVal(3)})
	if got, want := arr.String(), "[1, 2, 3]"; got != want {
		t.Fatalf("array String() = %q, want %q", got, want)
	}
	tup := h.NewTuple([]Value{IntVal(1), BoolVal(true)})
	if got, want := tup.String(), "(1, true)"; got != want {
		t.Fatalf("tuple String() = %q, want %q", got, want)
	}
}

func TestHeapCustomString(t *testing.T) {
	h := NewHeap()
	none := h.NewCustom("None", 0, nil)
	if got, want := none.String(), "None"; got != want {
		t.Fatalf("nullary custom String() = %q, want %q", got, want)
	}
	some := h.NewCustom("Some", 1, []Value{IntVal(5)})
	if got, want := some.String(), "Some(5)"; got != want {
		t.Fatalf("custom String() = %q, want %q", got, want)
	}
}

func TestHeapAllocReusesFreeListAndRecolors(t *testing.T) {
	h := NewHeap()
	h.liveColor = black
	o1 := h.alloc(ObjFloat)
	if o1.color != black {
		t.Fatalf("fresh object should carry the heap's current liveColor")
	}
	h.free = append(h.free, o1)
	h.objects = h.objects[:0]

	h.liveColor = white
	o2 := h.alloc(ObjFloat)
	if o2 != o1 {
		t.Fatalf("alloc should reuse a free-list cell before minting a new one")
	}
	if o2.color != white {
		t.Fatalf("reused object should be recolored to the heap's current liveColor")
	}
}

func TestHeapEqual(t *testing.T) {
	h := NewHeap()
	a := h.NewArray([]Value{IntVal(1), IntVal(2)})
	b := h.NewArray([]Value{IntVal(1), IntVal(2)})
	if !a.Equal(b) {
		t.Fatalf("structurally identical arrays should be Equal")
	}
	c := h.NewArray([]Value{IntVal(1), IntVal(3)})
	if a.Equal(c) {
		t.Fatalf("structurally different arrays should not be Equal")
	}
}
