package vm

import "testing"

func TestStringPoolInterns(t *testing.T) {
	p := NewStringPool()
	a := p.Intern("hi")
	b := p.Intern("hi")
	if a != b {
		t.Fatalf("Intern should return the same handle for equal content")
	}
	if p.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", p.Size())
	}
}

func TestStringPoolDecRefEvicts(t *testing.T) {
	p := NewStringPool()
	h := p.Intern("hi") // refs=1
	p.IncRef(h)         // refs=2
	p.DecRef(h)         // refs=1
	if p.Size() != 1 {
		t.Fatalf("handle should survive while refs remain")
	}
	p.DecRef(h) // refs=0, evicted
	if p.Size() != 0 {
		t.Fatalf("handle should be evicted once refs reach zero")
	}
	fresh := p.Intern("hi")
	if fresh == h {
		t.Fatalf("evicted handle must not be reused for new interns")
	}
}
