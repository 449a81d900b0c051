package vm

// StrHandle is one entry in the process-wide string pool (spec §3,
// "String: interned handle (content owned by a process-wide string
// pool)"; spec §5, "String pool is a process-wide interning table;
// strings are reference-counted with incRef/decRef").
type StrHandle struct {
	Value string
	refs  int
}

// StringPool interns string content so equal strings share one
// allocation and one refcount, torn down on VM shutdown after a final
// GC (spec §5).
type StringPool struct {
	table map[string]*StrHandle
}

func NewStringPool() *StringPool {
	return &StringPool{table: map[string]*StrHandle{}}
}

// Intern returns the pool's shared handle for s, minting one on first
// use, and bumps its refcount.
func (p *StringPool) Intern(s string) *StrHandle {
	if h, ok := p.table[s]; ok {
		h.refs++
		return h
	}
	h := &StrHandle{Value: s, refs: 1}
	p.table[s] = h
	return h
}

// IncRef and DecRef implement spec §5's refcount discipline: operators
// that transfer ownership of a scratch string (e.g. ADD_STRING
// concatenation) decrement both operands and increment the result.
func (p *StringPool) IncRef(h *StrHandle) {
	if h != nil {
		h.refs++
	}
}

// DecRef drops a reference and evicts the handle once nothing holds it
// any longer; the mark-sweep GC remains the ultimate collector for
// handles still reachable only from heap objects it will eventually
// mark, so eviction here is strictly an early-free optimization.
func (p *StringPool) DecRef(h *StrHandle) {
	if h == nil {
		return
	}
	h.refs--
	if h.refs <= 0 {
		delete(p.table, h.Value)
	}
}

func (p *StringPool) Size() int { return len(p.table) }
