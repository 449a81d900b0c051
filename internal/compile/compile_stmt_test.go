package compile

import (
	"testing"

	"github.com/bendu-lang/bendu/internal/ast"
	"github.com/bendu-lang/bendu/internal/types"
)

// TestRecordExportPopulatesType exercises a public `let` binding end
// to end through CompileProgram: the inferencer would normally have
// already declared the binding's principal scheme in the environment
// by the time the compiler runs, so recordExport's job is to read it
// back out, not recompute it.
func TestRecordExportPopulatesType(t *testing.T) {
	env := types.NewEnv()
	env.Declare(&types.Binding{Name: "answer", Scheme: types.Scheme{Body: types.TyInt}})

	prog := &ast.Program{
		File: "test.bendu",
		Statements: []ast.Statement{
			&ast.LetStatement{
				Name:   "answer",
				Public: true,
				Value:  &ast.IntLiteral{Value: 42},
			},
		},
	}

	_, exports, err := CompileProgram(prog, env, nil)
	if err != nil {
		t.Fatalf("CompileProgram: %v", err)
	}
	if len(exports) != 1 {
		t.Fatalf("len(exports) = %d, want 1", len(exports))
	}
	if exports[0].Name != "answer" {
		t.Fatalf("exports[0].Name = %q, want %q", exports[0].Name, "answer")
	}
	if exports[0].Type == nil || exports[0].Type.String() != types.TyInt.String() {
		t.Fatalf("exports[0].Type = %v, want %v", exports[0].Type, types.TyInt)
	}
}

// TestRecordExportSkipsPrivateBindings confirms a non-public `let`
// contributes no export entry.
func TestRecordExportSkipsPrivateBindings(t *testing.T) {
	env := types.NewEnv()
	env.Declare(&types.Binding{Name: "hidden", Scheme: types.Scheme{Body: types.TyInt}})

	prog := &ast.Program{
		File: "test.bendu",
		Statements: []ast.Statement{
			&ast.LetStatement{
				Name:   "hidden",
				Public: false,
				Value:  &ast.IntLiteral{Value: 1},
			},
		},
	}

	_, exports, err := CompileProgram(prog, env, nil)
	if err != nil {
		t.Fatalf("CompileProgram: %v", err)
	}
	if len(exports) != 0 {
		t.Fatalf("len(exports) = %d, want 0 for a private binding", len(exports))
	}
}
