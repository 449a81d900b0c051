package infer

import (
	"github.com/bendu-lang/bendu/internal/ast"
	"github.com/bendu-lang/bendu/internal/types"
)

// applyToProgram bakes the solved substitution into every expression's
// inferred type (spec §4.1 step 3: "Apply the solved substitution to
// every type annotation in the AST").
func (inf *Inferer) applyToProgram(prog *ast.Program, subst types.Subst) {
	for _, stmt := range prog.Statements {
		inf.applyStatement(stmt, subst)
	}
}

func (inf *Inferer) applyStatement(stmt ast.Statement, subst types.Subst) {
	switch s := stmt.(type) {
	case *ast.LetStatement:
		inf.applyExpr(s.Value, subst)
	case *ast.ExpressionStatement:
		inf.applyExpr(s.Expr, subst)
	}
}

func (inf *Inferer) applyExpr(e ast.Expression, subst types.Subst) {
	if e == nil {
		return
	}
	if t, ok := e.InferredType().(types.Type); ok {
		e.SetInferredType(t.Apply(subst))
	}
	switch x := e.(type) {
	case *ast.BinaryExpr:
		inf.applyExpr(x.Left, subst)
		inf.applyExpr(x.Right, subst)
	case *ast.UnaryExpr:
		inf.applyExpr(x.Operand, subst)
	case *ast.IfExpr:
		inf.applyExpr(x.Cond, subst)
		inf.applyExpr(x.Then, subst)
		inf.applyExpr(x.Else, subst)
	case *ast.LambdaExpr:
		inf.applyExpr(x.Body, subst)
	case *ast.ApplyExpr:
		inf.applyExpr(x.Fn, subst)
		for _, a := range x.Args {
			inf.applyExpr(a, subst)
		}
	case *ast.LetExpr:
		inf.applyExpr(x.Value, subst)
		inf.applyExpr(x.Body, subst)
	case *ast.MatchExpr:
		inf.applyExpr(x.Scrutinee, subst)
		for _, c := range x.Cases {
			if c.Guard != nil {
				inf.applyExpr(c.Guard, subst)
			}
			inf.applyExpr(c.Body, subst)
		}
	case *ast.RecordExpr:
		for _, f := range x.Fields {
			inf.applyExpr(f.Value, subst)
		}
		if x.Spread != nil {
			inf.applyExpr(x.Spread, subst)
		}
	case *ast.FieldAccessExpr:
		inf.applyExpr(x.Record, subst)
	case *ast.TupleExpr:
		for _, el := range x.Elements {
			inf.applyExpr(el, subst)
		}
	case *ast.ArrayLiteral:
		for _, el := range x.Elements {
			inf.applyExpr(el, subst)
		}
	case *ast.ArrayProjectionExpr:
		inf.applyExpr(x.Array, subst)
		if x.From != nil {
			inf.applyExpr(x.From, subst)
		}
		if x.To != nil {
			inf.applyExpr(x.To, subst)
		}
	case *ast.AnnotatedExpr:
		inf.applyExpr(x.Expr, subst)
	}
}
