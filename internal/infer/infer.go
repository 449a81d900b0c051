// Package infer implements the Hindley-Milner constraint-based
// inferencer of spec §4.1: constraint generation by a bottom-up AST
// walk, iterative constraint solving via the types package's Unifier,
// and substitution application back onto the AST. Grounded on the
// teacher's internal/analyzer package (constraints.go's Constraint
// struct and inference_solver.go's fixed-point solve loop), adapted to
// Bendu's type forms (rows, unions, intersections, no traits) and to
// spec's exact inference rules per AST form (§4.1).
package infer

import (
	"github.com/bendu-lang/bendu/internal/ast"
	"github.com/bendu-lang/bendu/internal/token"
	"github.com/bendu-lang/bendu/internal/types"
)

// Result is the outcome of inferring one file.
type Result struct {
	Env     *types.Env
	Exports []string
	Errors  []error
}

// Inferer carries the mutable state of one inference run: the pump,
// the environment, the accumulated constraint list and the error list.
// Failure semantics follow spec §4.1 exactly: every failure is
// recorded and inference continues with a fresh stand-in variable, so
// one error never cascades into spurious follow-on errors.
type Inferer struct {
	Env         *types.Env
	Pump        *types.Pump
	constraints []Constraint
	errors      []error
	knownNames  []string // for Levenshtein suggestions
}

func New(env *types.Env) *Inferer {
	return &Inferer{Env: env, Pump: &types.Pump{}}
}

// Check runs the full pipeline over one file: generate, solve, apply.
func Check(prog *ast.Program, env *types.Env) *Result {
	inf := New(env)
	inf.collectKnownNames(prog)

	for _, imp := range prog.Imports {
		inf.checkImport(imp)
	}
	for _, stmt := range prog.Statements {
		inf.checkStatement(stmt)
	}

	subst, errs := inf.solve()
	inf.errors = append(inf.errors, errs...)
	inf.applyToProgram(prog, subst)

	var exports []string
	for _, stmt := range prog.Statements {
		if ls, ok := stmt.(*ast.LetStatement); ok && ls.Public {
			exports = append(exports, ls.Name)
		}
	}

	return &Result{Env: env, Exports: exports, Errors: inf.errors}
}

func (inf *Inferer) collectKnownNames(prog *ast.Program) {
	for _, stmt := range prog.Statements {
		if ls, ok := stmt.(*ast.LetStatement); ok {
			inf.knownNames = append(inf.knownNames, ls.Name)
		}
	}
}

func (inf *Inferer) fail(err error) {
	inf.errors = append(inf.errors, err)
}

func (inf *Inferer) fresh() types.Type { return inf.Pump.Fresh() }

func (inf *Inferer) emit(left, right types.Type, origin OriginKind, node ast.Node) {
	inf.constraints = append(inf.constraints, Constraint{Left: left, Right: right, Origin: origin, Node: node})
}

// solve iteratively applies unification to the constraint list until
// it reaches a fixed point, then makes a final pass to surface any
// constraint that still fails, matching the teacher's
// InferenceContext.SolveConstraints loop shape.
func (inf *Inferer) solve() (types.Subst, []error) {
	global := types.Subst{}
	changed := true
	for changed {
		changed = false
		for _, c := range inf.constraints {
			l := c.Left.Apply(global)
			r := c.Right.Apply(global)
			s, err := types.UnifyWithResolver(l, r, inf.Env)
			if err == nil && len(s) > 0 {
				global = s.Compose(global)
				changed = true
			}
		}
	}

	var errs []error
	for _, c := range inf.constraints {
		l := c.Left.Apply(global)
		r := c.Right.Apply(global)
		if _, err := types.UnifyWithResolver(l, r, inf.Env); err != nil {
			tok := tokenOf(c.Node)
			errs = append(errs, &TypeMismatchError{Expected: l, Actual: r, Tok: tok})
		}
	}
	return global, errs
}

// tokenHaver is implemented by every Expression, Statement and Pattern.
type tokenHaver interface {
	GetToken() token.Token
}

// tokenOf extracts the source position to blame for a constraint's
// failure, falling back to the zero Token when Node doesn't carry one
// (e.g. a synthetic constraint with no direct source origin).
func tokenOf(n ast.Node) token.Token {
	if th, ok := n.(tokenHaver); ok {
		return th.GetToken()
	}
	return token.Token{}
}
