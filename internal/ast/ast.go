// Package ast defines the typed surface AST that the Bendu compiler
// pipeline consumes. Per the design, lexing and parsing are the only
// externally-specified collaborators; this package fixes the node
// shapes the inferencer and bytecode compiler agree on.
package ast

import "github.com/bendu-lang/bendu/internal/token"

// Node is the base interface for every AST node.
type Node interface {
	TokenLiteral() string
	Accept(v Visitor)
}

// Expression is a Node that yields a value and carries an inferred type
// once the inferencer has run.
type Expression interface {
	Node
	expressionNode()
	GetToken() token.Token
	InferredType() interface{} // holds typesystem.Type once the inferencer runs; interface{} to avoid import cycle
	SetInferredType(t interface{})
}

// Statement is a top-level or block-level statement.
type Statement interface {
	Node
	statementNode()
	GetToken() token.Token
}

// Visitor is the double-dispatch interface every AST consumer implements.
type Visitor interface {
	VisitProgram(p *Program)
	VisitImportStatement(s *ImportStatement)
	VisitTypeDeclStatement(s *TypeDeclStatement)
	VisitLetStatement(s *LetStatement)
	VisitExpressionStatement(s *ExpressionStatement)

	VisitIntLiteral(e *IntLiteral)
	VisitFloatLiteral(e *FloatLiteral)
	VisitCharLiteral(e *CharLiteral)
	VisitStringLiteral(e *StringLiteral)
	VisitBoolLiteral(e *BoolLiteral)
	VisitUnitLiteral(e *UnitLiteral)
	VisitIdentifier(e *Identifier)
	VisitBinaryExpr(e *BinaryExpr)
	VisitUnaryExpr(e *UnaryExpr)
	VisitIfExpr(e *IfExpr)
	VisitLambdaExpr(e *LambdaExpr)
	VisitApplyExpr(e *ApplyExpr)
	VisitLetExpr(e *LetExpr)
	VisitMatchExpr(e *MatchExpr)
	VisitRecordExpr(e *RecordExpr)
	VisitFieldAccessExpr(e *FieldAccessExpr)
	VisitTupleExpr(e *TupleExpr)
	VisitArrayLiteral(e *ArrayLiteral)
	VisitArrayProjectionExpr(e *ArrayProjectionExpr)
	VisitAnnotatedExpr(e *AnnotatedExpr)
}

type BaseExpr struct {
	Tok  token.Token
	Type interface{}
}

func (b *BaseExpr) expressionNode()            {}
func (b *BaseExpr) GetToken() token.Token       { return b.Tok }
func (b *BaseExpr) TokenLiteral() string        { return b.Tok.Lexeme }
func (b *BaseExpr) InferredType() interface{}   { return b.Type }
func (b *BaseExpr) SetInferredType(t interface{}) { b.Type = t }

// Program is the root of one source file's AST.
type Program struct {
	File       string
	Imports    []*ImportStatement
	Statements []Statement
}

func (p *Program) Accept(v Visitor)     { v.VisitProgram(p) }
func (p *Program) TokenLiteral() string { return "" }

// ImportStatement binds another package into this file's environment,
// unqualified, aliased, or with a selective symbol list.
type ImportStatement struct {
	Tok     token.Token // 'import'
	Path    string
	Alias   string   // "" when unqualified
	Only    []string // selective import names; nil means "all exports"
	Renames map[string]string
}

func (s *ImportStatement) Accept(v Visitor)      { v.VisitImportStatement(s) }
func (s *ImportStatement) statementNode()        {}
func (s *ImportStatement) TokenLiteral() string  { return s.Tok.Lexeme }
func (s *ImportStatement) GetToken() token.Token { return s.Tok }

// ConstructorDecl is one variant of a `type` declaration.
type ConstructorDecl struct {
	Name   string
	Fields []TypeExpr
}

// TypeDeclStatement declares an ADT or type alias.
// Alias != nil and len(Ctors) == 0 means `type Name[params] = <TypeExpr>`.
type TypeDeclStatement struct {
	Tok    token.Token
	Name   string
	Params []string
	Ctors  []ConstructorDecl
	Alias  TypeExpr // non-nil only for alias declarations
}

func (s *TypeDeclStatement) Accept(v Visitor)      { v.VisitTypeDeclStatement(s) }
func (s *TypeDeclStatement) statementNode()        {}
func (s *TypeDeclStatement) TokenLiteral() string  { return s.Tok.Lexeme }
func (s *TypeDeclStatement) GetToken() token.Token { return s.Tok }

// LetStatement is a top-level or block-level binding. Public (exported)
// bindings are marked with a trailing `*` in source; Mutable bindings
// are marked with a trailing `!`.
type LetStatement struct {
	Tok       token.Token
	Name      string
	Public    bool
	Mutable   bool
	Params    []Param // nil for a plain value binding
	Recursive bool
	Value     Expression
	Annotation TypeExpr // optional declared type
}

func (s *LetStatement) Accept(v Visitor)      { v.VisitLetStatement(s) }
func (s *LetStatement) statementNode()        {}
func (s *LetStatement) TokenLiteral() string  { return s.Tok.Lexeme }
func (s *LetStatement) GetToken() token.Token { return s.Tok }

// Param is one function-parameter name (type comes from inference or
// an optional annotation).
type Param struct {
	Name       string
	Annotation TypeExpr
}

// ExpressionStatement wraps a top-level expression evaluated for effect.
type ExpressionStatement struct {
	Tok  token.Token
	Expr Expression
}

func (s *ExpressionStatement) Accept(v Visitor)      { v.VisitExpressionStatement(s) }
func (s *ExpressionStatement) statementNode()        {}
func (s *ExpressionStatement) TokenLiteral() string  { return s.Tok.Lexeme }
func (s *ExpressionStatement) GetToken() token.Token { return s.Tok }

// ---- Expressions ----

type IntLiteral struct {
	BaseExpr
	Value int32
}

func (e *IntLiteral) Accept(v Visitor) { v.VisitIntLiteral(e) }

type FloatLiteral struct {
	BaseExpr
	Value float32
}

func (e *FloatLiteral) Accept(v Visitor) { v.VisitFloatLiteral(e) }

type CharLiteral struct {
	BaseExpr
	Value byte
}

func (e *CharLiteral) Accept(v Visitor) { v.VisitCharLiteral(e) }

type StringLiteral struct {
	BaseExpr
	Value string
}

func (e *StringLiteral) Accept(v Visitor) { v.VisitStringLiteral(e) }

type BoolLiteral struct {
	BaseExpr
	Value bool
}

func (e *BoolLiteral) Accept(v Visitor) { v.VisitBoolLiteral(e) }

type UnitLiteral struct {
	BaseExpr
}

func (e *UnitLiteral) Accept(v Visitor) { v.VisitUnitLiteral(e) }

type Identifier struct {
	BaseExpr
	Name string
}

func (e *Identifier) Accept(v Visitor) { v.VisitIdentifier(e) }

// BinaryExpr covers arithmetic, comparison and logical binary operators.
// The concrete opcode chosen at codegen time depends on the operand
// types fixed by inference (spec §4.3).
type BinaryExpr struct {
	BaseExpr
	Op    string
	Left  Expression
	Right Expression
}

func (e *BinaryExpr) Accept(v Visitor) { v.VisitBinaryExpr(e) }

type UnaryExpr struct {
	BaseExpr
	Op      string
	Operand Expression
}

func (e *UnaryExpr) Accept(v Visitor) { v.VisitUnaryExpr(e) }

type IfExpr struct {
	BaseExpr
	Cond Expression
	Then Expression
	Else Expression
}

func (e *IfExpr) Accept(v Visitor) { v.VisitIfExpr(e) }

type LambdaExpr struct {
	BaseExpr
	Params []Param
	Body   Expression
}

func (e *LambdaExpr) Accept(v Visitor) { v.VisitLambdaExpr(e) }

type ApplyExpr struct {
	BaseExpr
	Fn   Expression
	Args []Expression
}

func (e *ApplyExpr) Accept(v Visitor) { v.VisitApplyExpr(e) }

// LetExpr is a local (non-top-level) `let name = value ; body` binding
// inside a function body or block.
type LetExpr struct {
	BaseExpr
	Name      string
	Recursive bool
	Value     Expression
	Body      Expression
}

func (e *LetExpr) Accept(v Visitor) { v.VisitLetExpr(e) }

type MatchCase struct {
	Pattern Pattern
	Guard   Expression // optional
	Body    Expression
}

type MatchExpr struct {
	BaseExpr
	Scrutinee Expression
	Cases     []MatchCase
}

func (e *MatchExpr) Accept(v Visitor) { v.VisitMatchExpr(e) }

type RecordField struct {
	Name  string
	Value Expression
}

// RecordExpr constructs a record value; Spread is non-nil when the
// literal uses `{ ...rest, field: value }` syntax.
type RecordExpr struct {
	BaseExpr
	Fields []RecordField
	Spread Expression
}

func (e *RecordExpr) Accept(v Visitor) { v.VisitRecordExpr(e) }

type FieldAccessExpr struct {
	BaseExpr
	Record Expression
	Field  string
}

func (e *FieldAccessExpr) Accept(v Visitor) { v.VisitFieldAccessExpr(e) }

type TupleExpr struct {
	BaseExpr
	Elements []Expression
}

func (e *TupleExpr) Accept(v Visitor) { v.VisitTupleExpr(e) }

type ArrayLiteral struct {
	BaseExpr
	Elements []Expression
}

func (e *ArrayLiteral) Accept(v Visitor) { v.VisitArrayLiteral(e) }

// ArrayProjectionExpr covers `a!i`, `a!i:j`, `a!i:`, `a!:j`.
type ArrayProjectionExpr struct {
	BaseExpr
	Array Expression
	From  Expression // nil for `a!:j`
	To    Expression // nil for both `a!i` and `a!i:`
	Slice bool       // true when any colon form was used
}

func (e *ArrayProjectionExpr) Accept(v Visitor) { v.VisitArrayProjectionExpr(e) }

// AnnotatedExpr is `expr : Type`.
type AnnotatedExpr struct {
	BaseExpr
	Expr       Expression
	Annotation TypeExpr
}

func (e *AnnotatedExpr) Accept(v Visitor) { v.VisitAnnotatedExpr(e) }
