package parser

import (
	"github.com/bendu-lang/bendu/internal/ast"
	"github.com/bendu-lang/bendu/internal/lexer"
	"github.com/bendu-lang/bendu/internal/token"
)

// Precedence levels for the Pratt expression parser, loosest first.
const (
	lowest int = iota
	orPrec
	andPrec
	equality
	relational
	additive
	multiplicative
	unary
	postfix
)

var precedences = map[token.Type]int{
	token.PIPE_PIPE: orPrec,
	token.AMP_AMP:   andPrec,
	token.EQ:        equality,
	token.NOT_EQ:    equality,
	token.LT:        relational,
	token.GT:        relational,
	token.LT_EQ:     relational,
	token.GT_EQ:     relational,
	token.PLUS:      additive,
	token.MINUS:     additive,
	token.STAR:      multiplicative,
	token.SLASH:     multiplicative,
	token.PERCENT:   multiplicative,
	token.LPAREN:    postfix, // call
	token.DOT:       postfix, // field access
	token.BANG:      postfix, // array projection: a!i, a!i:j, a!i:, a!:j
	token.BANG_BANG: postfix, // array projection, alternate spelling
	token.COLON:     postfix, // type annotation
}

// parseExpression is the Pratt driver: parse one prefix term, then
// repeatedly fold in infix/postfix operators whose precedence exceeds
// minPrec.
func (p *Parser) parseExpression(minPrec int) ast.Expression {
	left := p.parsePrefix()
	for !p.curIs(token.NEWLINE) && !p.curIs(token.SEMICOLON) && minPrec < p.curPrecedence() {
		left = p.parseInfix(left)
	}
	return left
}

// curPrecedence reports the precedence of the operator sitting at
// p.cur (the token immediately following the term just parsed, since
// p.next() always keeps cur pointing at the next unconsumed token).
func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.cur.Type]; ok {
		return pr
	}
	return lowest
}

func (p *Parser) parsePrefix() ast.Expression {
	switch p.cur.Type {
	case token.INT:
		return p.parseIntLiteral()
	case token.FLOAT:
		return p.parseFloatLiteral()
	case token.STRING:
		return p.parseStringLiteral()
	case token.CHAR:
		return p.parseCharLiteral()
	case token.TRUE, token.FALSE:
		return p.parseBoolLiteral()
	case token.IDENT:
		return p.parseIdentifier()
	case token.MINUS, token.BANG:
		return p.parseUnary()
	case token.LPAREN:
		return p.parseParenOrTupleOrUnit()
	case token.LBRACKET:
		return p.parseArrayLiteral()
	case token.LBRACE:
		return p.parseRecordExpr()
	case token.IF:
		return p.parseIfExpr()
	case token.FN:
		return p.parseLambda()
	case token.MATCH:
		return p.parseMatchExpr()
	case token.LET:
		return p.parseLetExpr()
	default:
		p.errorf("unexpected token %q in expression", p.cur.Lexeme)
		tok := p.cur
		p.next()
		u := &ast.UnitLiteral{}
		u.Tok = tok
		return u
	}
}

func (p *Parser) parseInfix(left ast.Expression) ast.Expression {
	switch p.cur.Type {
	case token.LPAREN:
		return p.parseCall(left)
	case token.DOT:
		return p.parseFieldAccess(left)
	case token.BANG, token.BANG_BANG:
		return p.parseArrayProjection(left)
	case token.COLON:
		return p.parseAnnotated(left)
	default:
		return p.parseBinary(left)
	}
}

func (p *Parser) parseBinary(left ast.Expression) ast.Expression {
	opTok := p.cur
	op := binaryOpSymbol(opTok.Type)
	prec := precedences[opTok.Type]
	p.next()
	right := p.parseExpression(prec)
	e := &ast.BinaryExpr{Op: op, Left: left, Right: right}
	e.Tok = opTok
	return e
}

func binaryOpSymbol(t token.Type) string {
	switch t {
	case token.PIPE_PIPE:
		return "||"
	case token.AMP_AMP:
		return "&&"
	case token.EQ:
		return "=="
	case token.NOT_EQ:
		return "!="
	case token.LT:
		return "<"
	case token.GT:
		return ">"
	case token.LT_EQ:
		return "<="
	case token.GT_EQ:
		return ">="
	case token.PLUS:
		return "+"
	case token.MINUS:
		return "-"
	case token.STAR:
		return "*"
	case token.SLASH:
		return "/"
	case token.PERCENT:
		return "%"
	default:
		return "?"
	}
}

func (p *Parser) parseUnary() ast.Expression {
	opTok := p.cur
	op := "-"
	if opTok.Type == token.BANG {
		op = "!"
	}
	p.next()
	operand := p.parseExpression(unary)
	e := &ast.UnaryExpr{Op: op, Operand: operand}
	e.Tok = opTok
	return e
}

func (p *Parser) parseIntLiteral() ast.Expression {
	tok := p.cur
	v, err := lexer.ParseIntLiteral(tok.Lexeme)
	if err != nil {
		p.errorf("invalid integer literal %q", tok.Lexeme)
	}
	p.next()
	e := &ast.IntLiteral{Value: v}
	e.Tok = tok
	return e
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	tok := p.cur
	v, err := lexer.ParseFloatLiteral(tok.Lexeme)
	if err != nil {
		p.errorf("invalid float literal %q", tok.Lexeme)
	}
	p.next()
	e := &ast.FloatLiteral{Value: v}
	e.Tok = tok
	return e
}

func (p *Parser) parseStringLiteral() ast.Expression {
	tok := p.cur
	p.next()
	e := &ast.StringLiteral{Value: tok.Lexeme}
	e.Tok = tok
	return e
}

func (p *Parser) parseCharLiteral() ast.Expression {
	tok := p.cur
	p.next()
	var b byte
	if len(tok.Lexeme) > 0 {
		b = tok.Lexeme[0]
	}
	e := &ast.CharLiteral{Value: b}
	e.Tok = tok
	return e
}

func (p *Parser) parseBoolLiteral() ast.Expression {
	tok := p.cur
	p.next()
	e := &ast.BoolLiteral{Value: tok.Type == token.TRUE}
	e.Tok = tok
	return e
}

func (p *Parser) parseIdentifier() ast.Expression {
	tok := p.cur
	p.next()
	e := &ast.Identifier{Name: tok.Lexeme}
	e.Tok = tok
	return e
}

// parseParenOrTupleOrUnit disambiguates `()`, `(expr)`, and
// `(e1, e2, ...)` (tuple, arity >= 2 per spec §3).
func (p *Parser) parseParenOrTupleOrUnit() ast.Expression {
	tok := p.cur
	p.next() // '('
	if p.curIs(token.RPAREN) {
		p.next()
		u := &ast.UnitLiteral{}
		u.Tok = tok
		return u
	}
	first := p.parseExpression(lowest)
	if !p.curIs(token.COMMA) {
		p.expect(token.RPAREN)
		return first
	}
	elems := []ast.Expression{first}
	for p.curIs(token.COMMA) {
		p.next()
		elems = append(elems, p.parseExpression(lowest))
	}
	p.expect(token.RPAREN)
	e := &ast.TupleExpr{Elements: elems}
	e.Tok = tok
	return e
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	tok := p.cur
	p.next() // '['
	var elems []ast.Expression
	for !p.curIs(token.RBRACKET) && !p.curIs(token.EOF) {
		elems = append(elems, p.parseExpression(lowest))
		if p.curIs(token.COMMA) {
			p.next()
		}
	}
	p.expect(token.RBRACKET)
	e := &ast.ArrayLiteral{Elements: elems}
	e.Tok = tok
	return e
}

// parseRecordExpr parses `{ ...rest, f1: v1, f2: v2 }`.
func (p *Parser) parseRecordExpr() ast.Expression {
	tok := p.cur
	p.next() // '{'
	r := &ast.RecordExpr{}
	r.Tok = tok
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		if p.curIs(token.DOT_DOT_DOT) {
			p.next()
			r.Spread = p.parseExpression(lowest)
			if p.curIs(token.COMMA) {
				p.next()
			}
			continue
		}
		name := p.cur.Lexeme
		p.expect(token.IDENT)
		p.expect(token.COLON)
		val := p.parseExpression(lowest)
		r.Fields = append(r.Fields, ast.RecordField{Name: name, Value: val})
		if p.curIs(token.COMMA) {
			p.next()
		}
	}
	p.expect(token.RBRACE)
	return r
}

func (p *Parser) parseIfExpr() ast.Expression {
	tok := p.cur
	p.next() // 'if'
	cond := p.parseExpression(lowest)
	p.expect(token.THEN)
	then := p.parseExpression(lowest)
	p.expect(token.ELSE)
	els := p.parseExpression(lowest)
	e := &ast.IfExpr{Cond: cond, Then: then, Else: els}
	e.Tok = tok
	return e
}

// parseLambda parses `fn(params) = body` or `fn(params) => body`.
func (p *Parser) parseLambda() ast.Expression {
	tok := p.cur
	p.next() // 'fn'
	params := p.parseParamList()
	if p.curIs(token.ASSIGN) || p.curIs(token.FAT_ARROW) {
		p.next()
	} else {
		p.errorf("expected '=' or '=>' after lambda parameters")
	}
	body := p.parseExpression(lowest)
	e := &ast.LambdaExpr{Params: params, Body: body}
	e.Tok = tok
	return e
}

// parseLetExpr parses a local binding used as an expression:
// `let [rec] name = value ; body`.
func (p *Parser) parseLetExpr() ast.Expression {
	tok := p.cur
	p.next() // 'let'
	rec := false
	if p.curIs(token.REC) {
		rec = true
		p.next()
	}
	name := p.cur.Lexeme
	p.expect(token.IDENT)
	p.expect(token.ASSIGN)
	value := p.parseExpression(lowest)
	p.skipNewlines()
	if !p.curIs(token.SEMICOLON) {
		p.errorf("expected ';' after let-binding's value")
	} else {
		p.next()
	}
	p.skipNewlines()
	body := p.parseExpression(lowest)
	e := &ast.LetExpr{Name: name, Recursive: rec, Value: value, Body: body}
	e.Tok = tok
	return e
}

func (p *Parser) parseCall(fn ast.Expression) ast.Expression {
	tok := p.cur
	p.next() // '('
	var args []ast.Expression
	for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
		args = append(args, p.parseExpression(lowest))
		if p.curIs(token.COMMA) {
			p.next()
		}
	}
	p.expect(token.RPAREN)
	e := &ast.ApplyExpr{Fn: fn, Args: args}
	e.Tok = tok
	return e
}

func (p *Parser) parseFieldAccess(record ast.Expression) ast.Expression {
	tok := p.cur
	p.next() // '.'
	field := p.cur.Lexeme
	p.expect(token.IDENT)
	e := &ast.FieldAccessExpr{Record: record, Field: field}
	e.Tok = tok
	return e
}

// parseArrayProjection parses `a!i`, `a!i:j`, `a!i:`, `a!:j` (spec §4.1).
func (p *Parser) parseArrayProjection(arr ast.Expression) ast.Expression {
	tok := p.cur
	p.next() // '!!'
	e := &ast.ArrayProjectionExpr{Array: arr}
	e.Tok = tok
	if p.curIs(token.COLON) {
		e.Slice = true
		p.next()
		if !p.curIs(token.RBRACKET) && !p.curIs(token.RPAREN) && !p.curIs(token.COMMA) && !p.curIs(token.NEWLINE) {
			e.To = p.parseExpression(lowest + 1)
		}
		return e
	}
	e.From = p.parseExpression(unary)
	if p.curIs(token.COLON) {
		e.Slice = true
		p.next()
		if !p.curIs(token.RBRACKET) && !p.curIs(token.RPAREN) && !p.curIs(token.COMMA) && !p.curIs(token.NEWLINE) {
			e.To = p.parseExpression(lowest + 1)
		}
	}
	return e
}

func (p *Parser) parseAnnotated(e ast.Expression) ast.Expression {
	tok := p.cur
	p.next() // ':'
	ty := p.parseTypeExpr()
	a := &ast.AnnotatedExpr{Expr: e, Annotation: ty}
	a.Tok = tok
	return a
}

// parseMatchExpr parses `match scrutinee with | pattern [if guard] => body ...`.
func (p *Parser) parseMatchExpr() ast.Expression {
	tok := p.cur
	p.next() // 'match'
	scrutinee := p.parseExpression(lowest)
	p.expect(token.WITH)
	p.skipNewlines()

	m := &ast.MatchExpr{Scrutinee: scrutinee}
	m.Tok = tok
	for p.curIs(token.PIPE) {
		p.next()
		c := ast.MatchCase{Pattern: p.parsePattern()}
		if p.curIs(token.IF) {
			p.next()
			c.Guard = p.parseExpression(lowest)
		}
		if !p.expect(token.FAT_ARROW) {
			// best-effort recovery: also accept '=' here
			if p.curIs(token.ASSIGN) {
				p.next()
			}
		}
		c.Body = p.parseExpression(lowest)
		m.Cases = append(m.Cases, c)
		p.skipNewlines()
	}
	return m
}
