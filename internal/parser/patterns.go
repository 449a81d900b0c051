package parser

import (
	"github.com/bendu-lang/bendu/internal/ast"
	"github.com/bendu-lang/bendu/internal/lexer"
	"github.com/bendu-lang/bendu/internal/token"
)

// parsePattern parses one match-arm pattern: wildcard, variable,
// literal, constructor application, tuple, record, or an `as` binding
// wrapped around any of the above.
func (p *Parser) parsePattern() ast.Pattern {
	base := p.parsePrimaryPattern()
	if p.curIs(token.AS) {
		tok := p.cur
		p.next()
		name := p.cur.Lexeme
		p.expect(token.IDENT)
		ap := &ast.AsPattern{Name: name, Inner: base}
		ap.Tok = tok
		return ap
	}
	return base
}

func (p *Parser) parsePrimaryPattern() ast.Pattern {
	switch p.cur.Type {
	case token.IDENT:
		if p.cur.Lexeme == "_" {
			tok := p.cur
			p.next()
			w := &ast.WildcardPattern{}
			w.Tok = tok
			return w
		}
		if isCtorStart(p.cur) {
			return p.parseConstructorPattern()
		}
		tok := p.cur
		p.next()
		v := &ast.VarPattern{Name: tok.Lexeme}
		v.Tok = tok
		return v
	case token.INT:
		tok := p.cur
		p.next()
		n, _ := lexer.ParseIntLiteral(tok.Lexeme)
		lp := &ast.LiteralPattern{Kind: "Int", Value: n}
		lp.Tok = tok
		return lp
	case token.FLOAT:
		tok := p.cur
		p.next()
		f, _ := lexer.ParseFloatLiteral(tok.Lexeme)
		lp := &ast.LiteralPattern{Kind: "Float", Value: f}
		lp.Tok = tok
		return lp
	case token.STRING:
		tok := p.cur
		p.next()
		lp := &ast.LiteralPattern{Kind: "String", Value: tok.Lexeme}
		lp.Tok = tok
		return lp
	case token.CHAR:
		tok := p.cur
		p.next()
		var b byte
		if len(tok.Lexeme) > 0 {
			b = tok.Lexeme[0]
		}
		lp := &ast.LiteralPattern{Kind: "Char", Value: b}
		lp.Tok = tok
		return lp
	case token.TRUE, token.FALSE:
		tok := p.cur
		p.next()
		lp := &ast.LiteralPattern{Kind: "Bool", Value: tok.Type == token.TRUE}
		lp.Tok = tok
		return lp
	case token.MINUS:
		// negative numeric literal pattern
		tok := p.cur
		p.next()
		switch p.cur.Type {
		case token.INT:
			n, _ := lexer.ParseIntLiteral(p.cur.Lexeme)
			lp := &ast.LiteralPattern{Kind: "Int", Value: -n}
			lp.Tok = tok
			p.next()
			return lp
		case token.FLOAT:
			f, _ := lexer.ParseFloatLiteral(p.cur.Lexeme)
			lp := &ast.LiteralPattern{Kind: "Float", Value: -f}
			lp.Tok = tok
			p.next()
			return lp
		default:
			p.errorf("expected numeric literal after '-' in pattern")
			w := &ast.WildcardPattern{}
			w.Tok = tok
			return w
		}
	case token.LPAREN:
		return p.parseTuplePattern()
	case token.LBRACE:
		return p.parseRecordPattern()
	default:
		p.errorf("unexpected token %q in pattern", p.cur.Lexeme)
		tok := p.cur
		p.next()
		w := &ast.WildcardPattern{}
		w.Tok = tok
		return w
	}
}

// parseConstructorPattern parses a bare `Nil` or applied `Cons(x, xs)`.
func (p *Parser) parseConstructorPattern() ast.Pattern {
	tok := p.cur
	name := tok.Lexeme
	p.next()
	cp := &ast.ConstructorPattern{Name: name}
	cp.Tok = tok
	if p.curIs(token.LPAREN) {
		p.next()
		for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
			cp.Args = append(cp.Args, p.parsePattern())
			if p.curIs(token.COMMA) {
				p.next()
			}
		}
		p.expect(token.RPAREN)
	}
	return cp
}

// parseTuplePattern parses `()`, `(p)` (parenthesized, not a tuple),
// and `(p1, p2, ...)`.
func (p *Parser) parseTuplePattern() ast.Pattern {
	tok := p.cur
	p.next() // '('
	if p.curIs(token.RPAREN) {
		p.next()
		lp := &ast.LiteralPattern{Kind: "Unit", Value: nil}
		lp.Tok = tok
		return lp
	}
	first := p.parsePattern()
	if !p.curIs(token.COMMA) {
		p.expect(token.RPAREN)
		return first
	}
	elems := []ast.Pattern{first}
	for p.curIs(token.COMMA) {
		p.next()
		elems = append(elems, p.parsePattern())
	}
	p.expect(token.RPAREN)
	tp := &ast.TuplePattern{Elements: elems}
	tp.Tok = tok
	return tp
}

// parseRecordPattern parses `{ f1: p1, f2: p2, ... }` and the
// trailing-rest form `{ f1: p1, ... }`.
func (p *Parser) parseRecordPattern() ast.Pattern {
	tok := p.cur
	p.next() // '{'
	rp := &ast.RecordPattern{Fields: map[string]ast.Pattern{}}
	rp.Tok = tok
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		if p.curIs(token.DOT_DOT_DOT) {
			p.next()
			rp.Rest = true
			if p.curIs(token.COMMA) {
				p.next()
			}
			continue
		}
		name := p.cur.Lexeme
		p.expect(token.IDENT)
		var fp ast.Pattern
		if p.curIs(token.COLON) {
			p.next()
			fp = p.parsePattern()
		} else {
			vp := &ast.VarPattern{Name: name}
			vp.Tok = p.cur
			fp = vp
		}
		rp.Fields[name] = fp
		if p.curIs(token.COMMA) {
			p.next()
		}
	}
	p.expect(token.RBRACE)
	return rp
}
