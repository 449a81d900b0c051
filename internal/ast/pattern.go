package ast

import "github.com/bendu-lang/bendu/internal/token"

// Pattern is a node in a match arm's pattern. Patterns are consumed by
// the inferencer (to bind fresh variables and check against the
// scrutinee type) and by the decision-tree exhaustiveness checker.
type Pattern interface {
	Node
	patternNode()
	GetToken() token.Token
}

type BasePattern struct {
	Tok token.Token
}

func (p *BasePattern) patternNode()         {}
func (p *BasePattern) TokenLiteral() string { return p.Tok.Lexeme }
func (p *BasePattern) GetToken() token.Token { return p.Tok }
func (p *BasePattern) Accept(v Visitor)     {}

// WildcardPattern matches anything and binds nothing: `_`.
type WildcardPattern struct{ BasePattern }

// VarPattern binds the scrutinee (or sub-scrutinee) to a name.
type VarPattern struct {
	BasePattern
	Name string
}

// LiteralPattern matches an exact literal value (Int, Float, Char,
// String, Bool, Unit).
type LiteralPattern struct {
	BasePattern
	Kind  string // "Int" | "Float" | "Char" | "String" | "Bool" | "Unit"
	Value interface{}
}

// ConstructorPattern matches an ADT constructor application, e.g.
// `Cons(x, xs)` or a bare `Nil`.
type ConstructorPattern struct {
	BasePattern
	Name string
	Args []Pattern
}

// TuplePattern destructures a tuple.
type TuplePattern struct {
	BasePattern
	Elements []Pattern
}

// RecordPattern destructures named fields from a record; Rest is true
// when the pattern ends with `, ...`.
type RecordPattern struct {
	BasePattern
	Fields map[string]Pattern
	Rest   bool
}

// AsPattern binds a name to the whole value matched by Inner:
// `xs as all`.
type AsPattern struct {
	BasePattern
	Name  string
	Inner Pattern
}
