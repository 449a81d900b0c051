package dtree

import (
	"testing"

	"github.com/bendu-lang/bendu/internal/ast"
	"github.com/bendu-lang/bendu/internal/types"
)

// listEnv builds a types.Env with a two-constructor ADT
// `type List[a] = Nil | Cons[a, List[a]]`, matching spec §8 scenario 5.
func listEnv() *types.Env {
	env := types.NewEnv()
	decl := &types.ADTDecl{
		Name:   "List",
		Params: []string{"a"},
		Ctors: []types.CtorDecl{
			{Name: "Nil", Parent: "List", Tag: 0},
			{Name: "Cons", Parent: "List", Fields: nil, Tag: 1},
		},
	}
	env.Types["List"] = decl
	env.Ctors["Nil"] = &decl.Ctors[0]
	env.Ctors["Cons"] = &decl.Ctors[1]
	return env
}

func ctorPat(name string, args ...ast.Pattern) ast.Pattern {
	return &ast.ConstructorPattern{Name: name, Args: args}
}

func wildcard() ast.Pattern { return &ast.WildcardPattern{} }

func varPat(name string) ast.Pattern { return &ast.VarPattern{Name: name} }

func tuplePat(elems ...ast.Pattern) ast.Pattern {
	return &ast.TuplePattern{Elements: elems}
}

// TestExhaustiveTupleOfConstructors reproduces spec §8 scenario 5:
//
//	match (Nil(), Nil()) with
//	| (Nil(), _) -> 0
//	| (_, Nil()) -> 1
//	| (Cons(x,_), Cons(y,_)) -> x+y
//
// which must type-check (be judged exhaustive) with no catch-all arm.
func TestExhaustiveTupleOfConstructors(t *testing.T) {
	env := listEnv()
	patterns := []ast.Pattern{
		tuplePat(ctorPat("Nil"), wildcard()),
		tuplePat(wildcard(), ctorPat("Nil")),
		tuplePat(ctorPat("Cons", varPat("x"), wildcard()), ctorPat("Cons", varPat("y"), wildcard())),
	}
	comp := NewCompiler(env)
	tree := comp.Compile(patterns)
	if w, ok := CheckExhaustive(tree); !ok {
		t.Fatalf("expected exhaustive match, got witness %q", w.Description)
	}
}

// TestNonExhaustiveMissingConstructor drops the `(_, Nil())` arm from
// the scenario above; the remaining two arms no longer cover every
// combination of Nil/Cons, so the checker must report a gap.
func TestNonExhaustiveMissingConstructor(t *testing.T) {
	env := listEnv()
	patterns := []ast.Pattern{
		tuplePat(ctorPat("Nil"), wildcard()),
		tuplePat(ctorPat("Cons", varPat("x"), wildcard()), ctorPat("Cons", varPat("y"), wildcard())),
	}
	comp := NewCompiler(env)
	tree := comp.Compile(patterns)
	if _, ok := CheckExhaustive(tree); ok {
		t.Fatalf("expected a non-exhaustive match to be reported")
	}
}

// TestExhaustiveSingleConstructorADT checks a simple, single-column
// match over all of an ADT's constructors with no wildcard arm.
func TestExhaustiveSingleConstructorADT(t *testing.T) {
	env := listEnv()
	patterns := []ast.Pattern{
		ctorPat("Nil"),
		ctorPat("Cons", varPat("x"), varPat("xs")),
	}
	comp := NewCompiler(env)
	tree := comp.Compile(patterns)
	if w, ok := CheckExhaustive(tree); !ok {
		t.Fatalf("expected exhaustive match, got witness %q", w.Description)
	}
}

// TestWildcardCoversRemainingConstructor checks that a trailing
// wildcard arm covers a constructor that isn't listed explicitly.
func TestWildcardCoversRemainingConstructor(t *testing.T) {
	env := listEnv()
	patterns := []ast.Pattern{
		ctorPat("Nil"),
		wildcard(),
	}
	comp := NewCompiler(env)
	tree := comp.Compile(patterns)
	if w, ok := CheckExhaustive(tree); !ok {
		t.Fatalf("expected exhaustive match, got witness %q", w.Description)
	}
}

// TestUnreachableArmAfterWildcard checks that an arm appearing after a
// wildcard catch-all is reported unreachable (OverlappingPatterns).
func TestUnreachableArmAfterWildcard(t *testing.T) {
	env := listEnv()
	patterns := []ast.Pattern{
		wildcard(),
		ctorPat("Cons", varPat("x"), varPat("xs")),
	}
	comp := NewCompiler(env)
	comp.Compile(patterns)
	unreachable := comp.UnreachableArms(len(patterns))
	if len(unreachable) != 1 || unreachable[0] != 1 {
		t.Fatalf("expected arm 1 to be unreachable, got %v", unreachable)
	}
}
