package vm

import (
	"fmt"
	"testing"

	"github.com/bendu-lang/bendu/internal/bytecode"
)

type fakeResolver struct {
	packages map[string][2]any // sourceID -> [imports []string, code []byte]
}

func (r *fakeResolver) Resolve(sourceID string) ([]string, []byte, error) {
	entry, ok := r.packages[sourceID]
	if !ok {
		return nil, nil, fmt.Errorf("unknown package %q", sourceID)
	}
	return entry[0].([]string), entry[1].([]byte), nil
}

func TestLoadResolvesCrossPackageImport(t *testing.T) {
	dep := bytecode.NewChunk("dep")
	dep.Op(bytecode.PUSH_I32_LITERAL, 1)
	dep.I32(42)
	dep.Op(bytecode.STORE, 1)
	dep.U32(0) // depth
	dep.U32(0) // slot
	dep.Op(bytecode.RET, 1)

	main := bytecode.NewChunk("main")
	main.AddImport("dep")
	main.Op(bytecode.LOAD_PACKAGE, 1)
	main.U32(0) // import index
	main.U32(0) // slot
	main.Op(bytecode.RET, 1)

	m := New()
	resolver := &fakeResolver{packages: map[string][2]any{
		"dep": {[]string(nil), dep.Code},
	}}
	m.Resolver = resolver

	pkg := m.RegisterPackage("main", main.Imports, main.Code)
	if err := m.Load(pkg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := m.pop()
	if !got.IsInt() || got.AsInt() != 42 {
		t.Fatalf("got %v, want IntVal(42) loaded from imported package", got)
	}
}

func TestRegisterPackageIsIdempotent(t *testing.T) {
	m := New()
	a := m.RegisterPackage("same", nil, []byte{byte(bytecode.RET)})
	b := m.RegisterPackage("same", nil, []byte{byte(bytecode.RET)})
	if a != b {
		t.Fatalf("RegisterPackage should return the existing Package for a repeated sourceID")
	}
}
