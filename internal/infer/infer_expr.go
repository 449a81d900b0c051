package infer

import (
	"github.com/bendu-lang/bendu/internal/ast"
	"github.com/bendu-lang/bendu/internal/diag"
	"github.com/bendu-lang/bendu/internal/dtree"
	"github.com/bendu-lang/bendu/internal/types"
)

// checkExpr assigns a fresh or literal type to every subexpression
// bottom-up (spec §4.1 step 1), recording the result on the node via
// SetInferredType so that applyToProgram's final substitution pass has
// something to rewrite, and returns the (possibly still-unresolved)
// type for use by the caller.
func (inf *Inferer) checkExpr(e ast.Expression) types.Type {
	t := inf.checkExprInner(e)
	e.SetInferredType(t)
	return t
}

func (inf *Inferer) checkExprInner(e ast.Expression) types.Type {
	switch x := e.(type) {
	case *ast.IntLiteral:
		return types.TyInt
	case *ast.FloatLiteral:
		return types.TyFloat
	case *ast.CharLiteral:
		return types.TyChar
	case *ast.StringLiteral:
		return types.TyString
	case *ast.BoolLiteral:
		return types.TyBool
	case *ast.UnitLiteral:
		return types.TyUnit

	case *ast.Identifier:
		b, ok := inf.Env.Lookup(x.Name)
		if !ok {
			suggestions := diag.Suggest(x.Name, inf.knownNames, 2, 1)
			inf.fail(&UnknownIdentifierError{Name: x.Name, Suggestions: suggestions, Tok: x.Tok})
			return inf.fresh()
		}
		return b.Scheme.Instantiate(inf.Pump)

	case *ast.BinaryExpr:
		return inf.checkBinary(x)

	case *ast.UnaryExpr:
		operand := inf.checkExpr(x.Operand)
		if x.Op == "-" {
			return inf.resolveOverload(operand, operand, []types.Type{types.TyInt, types.TyFloat}, x)
		}
		inf.emit(operand, types.TyBool, OriginTypeclass, x)
		return types.TyBool

	case *ast.IfExpr:
		cond := inf.checkExpr(x.Cond)
		inf.emit(cond, types.TyBool, OriginUnification, x.Cond)
		thenT := inf.checkExpr(x.Then)
		elseT := inf.checkExpr(x.Else)
		inf.emit(thenT, elseT, OriginUnification, x)
		return thenT

	case *ast.LambdaExpr:
		inf.Env.PushScope()
		params := make([]types.Type, len(x.Params))
		for i, p := range x.Params {
			pt := inf.fresh()
			if p.Annotation != nil {
				pt = inf.resolveTypeExpr(p.Annotation, nil)
			}
			params[i] = pt
			inf.Env.Declare(&types.Binding{Name: p.Name, Scheme: types.Scheme{Body: pt}})
		}
		body := inf.checkExpr(x.Body)
		inf.Env.PopScope()
		return types.TyArr{Domain: params, Range: body}

	case *ast.ApplyExpr:
		fnType := inf.checkExpr(x.Fn)
		argTypes := make([]types.Type, len(x.Args))
		for i, a := range x.Args {
			argTypes[i] = inf.checkExpr(a)
		}
		result := inf.fresh()
		inf.emit(fnType, types.TyArr{Domain: argTypes, Range: result}, OriginUnification, x)
		return result

	case *ast.LetExpr:
		var valueType types.Type
		if x.Recursive {
			self := inf.fresh()
			inf.Env.PushScope()
			inf.Env.Declare(&types.Binding{Name: x.Name, Scheme: types.Scheme{Body: self}})
			valueType = inf.checkExpr(x.Value)
			inf.emit(self, valueType, OriginInference, x)
		} else {
			valueType = inf.checkExpr(x.Value)
			inf.Env.PushScope()
			scheme := types.Generalize(inf.Env.FreeInEnv(), valueType)
			inf.Env.Declare(&types.Binding{Name: x.Name, Scheme: scheme})
		}
		body := inf.checkExpr(x.Body)
		inf.Env.PopScope()
		return body

	case *ast.MatchExpr:
		return inf.checkMatch(x)

	case *ast.RecordExpr:
		fields := map[string]types.Type{}
		for _, f := range x.Fields {
			fields[f.Name] = inf.checkExpr(f.Value)
		}
		row := ""
		if x.Spread != nil {
			spreadT := inf.checkExpr(x.Spread)
			rv := inf.fresh()
			inf.emit(spreadT, types.TyRecord{Fields: fields, Row: rv.String()}, OriginSubtyping, x)
			row = rv.String()
		}
		return types.TyRecord{Fields: fields, Row: row}

	case *ast.FieldAccessExpr:
		recT := inf.checkExpr(x.Record)
		fieldT := inf.fresh()
		rho := inf.fresh()
		inf.emit(recT, types.TyRecord{Fields: map[string]types.Type{x.Field: fieldT}, Row: rho.String()}, OriginUnification, x)
		return fieldT

	case *ast.TupleExpr:
		els := make([]types.Type, len(x.Elements))
		for i, el := range x.Elements {
			els[i] = inf.checkExpr(el)
		}
		return types.TyTuple{Elements: els}

	case *ast.ArrayLiteral:
		elemT := inf.fresh()
		for _, el := range x.Elements {
			et := inf.checkExpr(el)
			inf.emit(elemT, et, OriginUnification, el)
		}
		return types.TyCon{Name: "Array", Args: []types.Type{elemT}}

	case *ast.ArrayProjectionExpr:
		arrT := inf.checkExpr(x.Array)
		elemT := inf.fresh()
		inf.emit(arrT, types.TyCon{Name: "Array", Args: []types.Type{elemT}}, OriginUnification, x)
		if x.From != nil {
			ft := inf.checkExpr(x.From)
			inf.emit(ft, types.TyInt, OriginUnification, x.From)
		}
		if x.To != nil {
			tt := inf.checkExpr(x.To)
			inf.emit(tt, types.TyInt, OriginUnification, x.To)
		}
		if x.Slice {
			return types.TyCon{Name: "Array", Args: []types.Type{elemT}}
		}
		return elemT

	case *ast.AnnotatedExpr:
		inner := inf.checkExpr(x.Expr)
		declared := inf.resolveTypeExpr(x.Annotation, nil)
		inf.emit(declared, inner, OriginUnification, x)
		return declared
	}
	return inf.fresh()
}

// checkBinary implements spec §4.1's "type-class-like" operator
// constraint: both operands must unify with *one* of the operator's
// supported primitive types, and the result type follows that choice.
func (inf *Inferer) checkBinary(x *ast.BinaryExpr) types.Type {
	left := inf.checkExpr(x.Left)
	right := inf.checkExpr(x.Right)

	switch x.Op {
	case "&&", "||":
		inf.emit(left, types.TyBool, OriginTypeclass, x)
		inf.emit(right, types.TyBool, OriginTypeclass, x)
		return types.TyBool
	case "==", "!=", "<", ">", "<=", ">=":
		inf.emit(left, right, OriginTypeclass, x)
		return types.TyBool
	case "+":
		supported := []types.Type{types.TyInt, types.TyFloat, types.TyString, types.TyChar}
		return inf.resolveOverload(left, right, supported, x)
	case "-", "*", "/":
		supported := []types.Type{types.TyInt, types.TyFloat}
		return inf.resolveOverload(left, right, supported, x)
	case "%":
		inf.emit(left, types.TyInt, OriginTypeclass, x)
		inf.emit(right, types.TyInt, OriginTypeclass, x)
		return types.TyInt
	}
	inf.emit(left, right, OriginUnification, x)
	return left
}

// resolveOverload picks the first supported primitive both operands
// already agree with (when inference has already pinned one side),
// falling back to leaving both sides as fresh-variable constraints
// against the first candidate, which keeps polymorphic contexts (e.g.
// inside a generic function body) solvable once the caller
// instantiates concretely.
func (inf *Inferer) resolveOverload(left, right types.Type, supported []types.Type, node ast.Node) types.Type {
	for _, cand := range supported {
		if sameHead(left, cand) || sameHead(right, cand) {
			inf.emit(left, cand, OriginTypeclass, node)
			inf.emit(right, cand, OriginTypeclass, node)
			return cand
		}
	}
	inf.emit(left, right, OriginTypeclass, node)
	return left
}

func sameHead(t types.Type, cand types.Type) bool {
	tc, ok1 := t.(types.TyCon)
	cc, ok2 := cand.(types.TyCon)
	return ok1 && ok2 && tc.Name == cc.Name
}

// checkMatch implements spec §4.1's Match rule plus exhaustiveness
// (delegated to internal/dtree) and overlap detection.
func (inf *Inferer) checkMatch(x *ast.MatchExpr) types.Type {
	scrutT := inf.checkExpr(x.Scrutinee)
	result := inf.fresh()

	patterns := make([]ast.Pattern, len(x.Cases))
	for i, c := range x.Cases {
		patterns[i] = c.Pattern
		inf.Env.PushScope()
		inf.checkPattern(c.Pattern, scrutT)
		if c.Guard != nil {
			guardT := inf.checkExpr(c.Guard)
			inf.emit(guardT, types.TyBool, OriginUnification, c.Guard)
		}
		bodyT := inf.checkExpr(c.Body)
		inf.emit(result, bodyT, OriginUnification, c.Body)
		inf.Env.PopScope()
	}

	comp := dtree.NewCompiler(inf.Env)
	tree := comp.Compile(patterns)
	if w, ok := dtree.CheckExhaustive(tree); !ok {
		inf.fail(&NonExhaustiveMatchError{Witness: w.Description, Tok: x.Tok})
	}
	for _, idx := range comp.UnreachableArms(len(patterns)) {
		inf.fail(&OverlappingPatternWarning{ArmIndex: idx, Tok: x.Cases[idx].Body.GetToken()})
	}

	return result
}

// checkPattern binds the variables a pattern introduces and emits
// constraints tying the pattern's shape to the scrutinee type.
func (inf *Inferer) checkPattern(p ast.Pattern, scrutT types.Type) {
	switch pat := p.(type) {
	case *ast.WildcardPattern:
		return
	case *ast.VarPattern:
		inf.Env.Declare(&types.Binding{Name: pat.Name, Scheme: types.Scheme{Body: scrutT}})
	case *ast.LiteralPattern:
		var lt types.Type
		switch pat.Kind {
		case "Int":
			lt = types.TyInt
		case "Float":
			lt = types.TyFloat
		case "Char":
			lt = types.TyChar
		case "String":
			lt = types.TyString
		case "Bool":
			lt = types.TyBool
		default:
			lt = types.TyUnit
		}
		inf.emit(scrutT, lt, OriginUnification, pat)
	case *ast.ConstructorPattern:
		ctor, ok := inf.Env.Ctors[pat.Name]
		if !ok {
			inf.fail(&UnknownIdentifierError{Name: pat.Name, Tok: pat.Tok})
			for _, a := range pat.Args {
				inf.checkPattern(a, inf.fresh())
			}
			return
		}
		decl := inf.Env.Types[ctor.Parent]
		args := make([]types.Type, len(decl.Params))
		for i := range decl.Params {
			args[i] = inf.fresh()
		}
		sub := types.Subst{}
		for i, p := range decl.Params {
			if id, ok2 := rowVarID(p); ok2 {
				sub[id] = args[i]
			}
		}
		inf.emit(scrutT, types.TyCon{Name: ctor.Parent, Args: args}, OriginUnification, pat)
		for i, fieldPat := range pat.Args {
			if i < len(ctor.Fields) {
				inf.checkPattern(fieldPat, ctor.Fields[i].Apply(sub))
			}
		}
	case *ast.TuplePattern:
		els := make([]types.Type, len(pat.Elements))
		for i := range pat.Elements {
			els[i] = inf.fresh()
		}
		inf.emit(scrutT, types.TyTuple{Elements: els}, OriginUnification, pat)
		for i, ep := range pat.Elements {
			inf.checkPattern(ep, els[i])
		}
	case *ast.RecordPattern:
		fields := map[string]types.Type{}
		for name := range pat.Fields {
			fields[name] = inf.fresh()
		}
		row := ""
		if pat.Rest {
			row = inf.fresh().String()
		}
		inf.emit(scrutT, types.TyRecord{Fields: fields, Row: row}, OriginUnification, pat)
		for name, sub := range pat.Fields {
			inf.checkPattern(sub, fields[name])
		}
	case *ast.AsPattern:
		inf.checkPattern(pat.Inner, scrutT)
		inf.Env.Declare(&types.Binding{Name: pat.Name, Scheme: types.Scheme{Body: scrutT}})
	}
}

// rowVarID is a tiny re-export so infer_expr.go doesn't need to reach
// into types' unexported helper via reflection; kept local since the
// parsing rule ("tN") is an implementation detail shared only between
// these two packages by convention, not by API.
func rowVarID(name string) (int, bool) {
	if len(name) < 2 || name[0] != 't' {
		return 0, false
	}
	n := 0
	for _, c := range name[1:] {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
