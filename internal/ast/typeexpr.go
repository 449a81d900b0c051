package ast

// TypeExpr is the surface syntax for a type annotation, ADT field, or
// type alias body. It is resolved into a typesystem.Type by the
// inferencer, expanding aliases and freshening row/type variables
// (spec §4.1, "Type annotations").
type TypeExpr interface {
	typeExprNode()
}

type baseTypeExpr struct{}

func (baseTypeExpr) typeExprNode() {}

// NamedTypeExpr is `Name[arg1, arg2, ...]`, covering primitives, ADTs
// and aliases alike; `arg` may itself reference type variables spelled
// as lowercase identifiers.
type NamedTypeExpr struct {
	baseTypeExpr
	Name string
	Args []TypeExpr
}

// VarTypeExpr is a lowercase type-variable reference in a signature,
// e.g. the `a` in `fn id(x: a): a`.
type VarTypeExpr struct {
	baseTypeExpr
	Name string
}

// FuncTypeExpr is `(T1, T2) -> R`.
type FuncTypeExpr struct {
	baseTypeExpr
	Params []TypeExpr
	Result TypeExpr
}

// TupleTypeExpr is `T1 * T2 * ... * Tn`.
type TupleTypeExpr struct {
	baseTypeExpr
	Elements []TypeExpr
}

// RecordFieldExpr is one `name: Type` entry in a record type.
type RecordFieldExpr struct {
	Name string
	Type TypeExpr
}

// RecordTypeExpr is `{ f1: T1, f2: T2 | rho }`; Row is "" for a closed
// record.
type RecordTypeExpr struct {
	baseTypeExpr
	Fields []RecordFieldExpr
	Row    string
}

// UnionTypeExpr is `T1 | T2 | ...`.
type UnionTypeExpr struct {
	baseTypeExpr
	Members []TypeExpr
}

// IntersectTypeExpr is `T1 & T2 & ...`.
type IntersectTypeExpr struct {
	baseTypeExpr
	Members []TypeExpr
}

// LitStringTypeExpr is a singleton string-literal type used as a
// discriminator, e.g. in `{ tag: "circle", radius: Float }`.
type LitStringTypeExpr struct {
	baseTypeExpr
	Value string
}
