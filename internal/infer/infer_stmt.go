package infer

import (
	"github.com/bendu-lang/bendu/internal/ast"
	"github.com/bendu-lang/bendu/internal/types"
)

func (inf *Inferer) checkImport(s *ast.ImportStatement) {
	// The Package Cache resolves the actual source; at the inference
	// layer an import just needs to install bindings into the
	// environment. Before Check runs, the Package Cache (internal/cache,
	// Entry.installInto) declares the imported bindings in the
	// environment, named "alias.name" when the import has an alias. We
	// only record the import for signature emission.
	inf.Env.Imports = append(inf.Env.Imports, &types.Import{Alias: s.Alias, Source: s.Path, Names: s.Only})
}

func (inf *Inferer) checkStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.TypeDeclStatement:
		inf.checkTypeDecl(s)
	case *ast.LetStatement:
		inf.checkLetStatement(s)
	case *ast.ExpressionStatement:
		inf.checkExpr(s.Expr)
	}
}

func (inf *Inferer) checkTypeDecl(s *ast.TypeDeclStatement) {
	if s.Alias != nil {
		body := inf.resolveTypeExpr(s.Alias, paramVars(s.Params, inf))
		inf.Env.Aliases[s.Name] = &types.AliasDecl{Name: s.Name, Params: rowNames(s.Params, inf), Body: body}
		return
	}
	vars := paramVars(s.Params, inf)
	decl := &types.ADTDecl{Name: s.Name, Params: rowNames(s.Params, inf)}
	for i, c := range s.Ctors {
		fields := make([]types.Type, len(c.Fields))
		for j, f := range c.Fields {
			fields[j] = inf.resolveTypeExpr(f, vars)
		}
		cd := types.CtorDecl{Name: c.Name, Parent: s.Name, Fields: fields, Tag: i}
		decl.Ctors = append(decl.Ctors, cd)
		cdCopy := cd
		inf.Env.Ctors[c.Name] = &cdCopy
	}
	inf.Env.Types[s.Name] = decl
}

// paramVars assigns one fresh TyVar per declared type parameter name.
func paramVars(params []string, inf *Inferer) map[string]types.Type {
	m := map[string]types.Type{}
	for _, p := range params {
		m[p] = inf.fresh()
	}
	return m
}

func rowNames(params []string, inf *Inferer) []string {
	// Param name -> the canonical "tN" name of its fresh variable, so
	// alias expansion's positional substitution lines up with
	// resolveTypeExpr's lookup.
	var out []string
	for range params {
		out = append(out, inf.fresh().String())
	}
	return out
}

func (inf *Inferer) checkLetStatement(s *ast.LetStatement) {
	if inf.Env.DeclaredInCurrentScope(s.Name) {
		inf.fail(&DuplicateDefinitionError{Name: s.Name, Tok: s.Tok})
	}

	if len(s.Params) == 0 {
		inf.checkValueLet(s)
		return
	}
	inf.checkFunctionLet(s)
}

func (inf *Inferer) checkValueLet(s *ast.LetStatement) {
	var valueType types.Type
	if s.Recursive {
		self := inf.fresh()
		inf.Env.Declare(&types.Binding{Name: s.Name, Mutable: s.Mutable, Scheme: types.Scheme{Body: self}})
		valueType = inf.checkExpr(s.Value)
		inf.emit(self, valueType, OriginInference, s)
	} else {
		valueType = inf.checkExpr(s.Value)
	}
	if s.Annotation != nil {
		declared := inf.resolveTypeExpr(s.Annotation, nil)
		inf.emit(declared, valueType, OriginUnification, s)
		valueType = declared
	}
	scheme := types.Generalize(inf.Env.FreeInEnv(), valueType)
	inf.Env.Declare(&types.Binding{Name: s.Name, Line: s.Tok.Line, Column: s.Tok.Column, Mutable: s.Mutable, Scheme: scheme})
}

func (inf *Inferer) checkFunctionLet(s *ast.LetStatement) {
	self := inf.fresh()
	if s.Recursive || true { // top-level functions may always self-reference
		inf.Env.Declare(&types.Binding{Name: s.Name, Mutable: s.Mutable, Scheme: types.Scheme{Body: self}})
	}

	inf.Env.PushScope()
	paramTypes := make([]types.Type, len(s.Params))
	for i, p := range s.Params {
		pt := inf.fresh()
		if p.Annotation != nil {
			pt = inf.resolveTypeExpr(p.Annotation, nil)
		}
		paramTypes[i] = pt
		inf.Env.Declare(&types.Binding{Name: p.Name, Scheme: types.Scheme{Body: pt}})
	}
	bodyType := inf.checkExpr(s.Value)
	inf.Env.PopScope()

	fnType := types.Type(types.TyArr{Domain: paramTypes, Range: bodyType})
	if s.Annotation != nil {
		declared := inf.resolveTypeExpr(s.Annotation, nil)
		inf.emit(declared, fnType, OriginUnification, s)
		fnType = declared
	}
	inf.emit(self, fnType, OriginInference, s)

	scheme := types.Generalize(inf.Env.FreeInEnv(), fnType)
	inf.Env.Declare(&types.Binding{Name: s.Name, Line: s.Tok.Line, Column: s.Tok.Column, Mutable: s.Mutable, Scheme: scheme})
}
