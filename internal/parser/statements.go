package parser

import (
	"github.com/bendu-lang/bendu/internal/ast"
	"github.com/bendu-lang/bendu/internal/token"
)

// parseLetStatement parses both plain bindings (`let x = 1`) and
// function definitions (`let f(a, b) = body`), plus the trailing `*`
// (public/exported) and `!` (mutable) markers spec §6's signature
// grammar reads back.
func (p *Parser) parseLetStatement() *ast.LetStatement {
	tok := p.cur
	p.next() // 'let'

	s := &ast.LetStatement{Tok: tok}
	if p.curIs(token.REC) {
		s.Recursive = true
		p.next()
	}

	s.Name = p.cur.Lexeme
	p.expect(token.IDENT)

	if p.curIs(token.LPAREN) {
		s.Params = p.parseParamList()
	}

	if p.curIs(token.COLON) {
		p.next()
		s.Annotation = p.parseTypeExpr()
	}

	if p.curIs(token.STAR) {
		s.Public = true
		p.next()
	}
	if p.curIs(token.BANG) {
		s.Mutable = true
		p.next()
	}

	if !p.expect(token.ASSIGN) {
		return s
	}
	s.Value = p.parseExpression(lowest)
	return s
}

// parseParamList parses `(name [: Type], ...)`.
func (p *Parser) parseParamList() []ast.Param {
	p.next() // '('
	var params []ast.Param
	for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
		name := p.cur.Lexeme
		p.expect(token.IDENT)
		param := ast.Param{Name: name}
		if p.curIs(token.COLON) {
			p.next()
			param.Annotation = p.parseTypeExpr()
		}
		params = append(params, param)
		if p.curIs(token.COMMA) {
			p.next()
		}
	}
	p.expect(token.RPAREN)
	return params
}

// parseTypeDecl parses `type Name[params] = Ctor1[...] | Ctor2 | ...`
// (an ADT) or `type Name[params] = <TypeExpr>` (an alias), distinguishing
// the two by whether the right-hand side parses as a `|`-joined list of
// capitalized constructor names.
func (p *Parser) parseTypeDecl() *ast.TypeDeclStatement {
	tok := p.cur
	p.next() // 'type'

	s := &ast.TypeDeclStatement{Tok: tok}
	s.Name = p.cur.Lexeme
	p.expect(token.IDENT)

	if p.curIs(token.LBRACKET) {
		p.next()
		for !p.curIs(token.RBRACKET) && !p.curIs(token.EOF) {
			s.Params = append(s.Params, p.cur.Lexeme)
			p.expect(token.IDENT)
			if p.curIs(token.COMMA) {
				p.next()
			}
		}
		p.expect(token.RBRACKET)
	}

	if !p.curIs(token.ASSIGN) {
		return s
	}
	p.next() // '='

	if isCtorStart(p.cur) {
		for {
			s.Ctors = append(s.Ctors, p.parseCtorDecl())
			if p.curIs(token.PIPE) {
				p.next()
				continue
			}
			break
		}
		return s
	}

	s.Alias = p.parseTypeExpr()
	return s
}

// isCtorStart reports whether tok can only begin a constructor name
// (capitalized identifier), used to disambiguate an ADT declaration's
// right-hand side from a type alias's.
func isCtorStart(t token.Token) bool {
	if t.Type != token.IDENT || len(t.Lexeme) == 0 {
		return false
	}
	c := t.Lexeme[0]
	return c >= 'A' && c <= 'Z'
}

func (p *Parser) parseCtorDecl() ast.ConstructorDecl {
	c := ast.ConstructorDecl{Name: p.cur.Lexeme}
	p.next()
	if p.curIs(token.LBRACKET) {
		p.next()
		for !p.curIs(token.RBRACKET) && !p.curIs(token.EOF) {
			c.Fields = append(c.Fields, p.parseTypeExpr())
			if p.curIs(token.COMMA) {
				p.next()
			}
		}
		p.expect(token.RBRACKET)
	}
	return c
}
