package infer

import (
	"github.com/bendu-lang/bendu/internal/ast"
	"github.com/bendu-lang/bendu/internal/types"
)

// resolveTypeExpr turns surface type syntax into a types.Type,
// freshening any lowercase type variable not already bound in vars
// (spec §4.1, "Type annotations... after alias expansion and
// row-variable freshening").
func (inf *Inferer) resolveTypeExpr(t ast.TypeExpr, vars map[string]types.Type) types.Type {
	if vars == nil {
		vars = map[string]types.Type{}
	}
	switch te := t.(type) {
	case *ast.VarTypeExpr:
		if v, ok := vars[te.Name]; ok {
			return v
		}
		v := inf.fresh()
		vars[te.Name] = v
		return v
	case *ast.NamedTypeExpr:
		if decl, ok := inf.Env.Aliases[te.Name]; ok {
			args := make([]types.Type, len(te.Args))
			for i, a := range te.Args {
				args[i] = inf.resolveTypeExpr(a, vars)
			}
			return inf.Env.ExpandAlias(decl, args)
		}
		args := make([]types.Type, len(te.Args))
		for i, a := range te.Args {
			args[i] = inf.resolveTypeExpr(a, vars)
		}
		return types.TyCon{Name: te.Name, Args: args}
	case *ast.FuncTypeExpr:
		dom := make([]types.Type, len(te.Params))
		for i, p := range te.Params {
			dom[i] = inf.resolveTypeExpr(p, vars)
		}
		return types.TyArr{Domain: dom, Range: inf.resolveTypeExpr(te.Result, vars)}
	case *ast.TupleTypeExpr:
		els := make([]types.Type, len(te.Elements))
		for i, e := range te.Elements {
			els[i] = inf.resolveTypeExpr(e, vars)
		}
		return types.TyTuple{Elements: els}
	case *ast.RecordTypeExpr:
		fields := map[string]types.Type{}
		for _, f := range te.Fields {
			fields[f.Name] = inf.resolveTypeExpr(f.Type, vars)
		}
		row := ""
		if te.Row != "" {
			rv, ok := vars[te.Row]
			if !ok {
				rv = inf.fresh()
				vars[te.Row] = rv
			}
			row = rv.String()
		}
		return types.TyRecord{Fields: fields, Row: row}
	case *ast.UnionTypeExpr:
		members := make([]types.Type, len(te.Members))
		for i, m := range te.Members {
			members[i] = inf.resolveTypeExpr(m, vars)
		}
		return types.NormalizeUnion(members)
	case *ast.IntersectTypeExpr:
		members := make([]types.Type, len(te.Members))
		for i, m := range te.Members {
			members[i] = inf.resolveTypeExpr(m, vars)
		}
		return types.NormalizeIntersect(members)
	case *ast.LitStringTypeExpr:
		return types.TyLitString{Value: te.Value}
	}
	return inf.fresh()
}
