package parser

import "github.com/bendu-lang/bendu/internal/ast"
import "github.com/bendu-lang/bendu/internal/token"

// parseTypeExpr parses a type annotation, ADT field type, or alias
// body (ast.TypeExpr), with the same loosest-to-tightest precedence as
// internal/signature's reader: intersection (&) > union (|) > tuple
// (*) > primary/arrow.
func (p *Parser) parseTypeExpr() ast.TypeExpr {
	return p.parseIntersectType()
}

func (p *Parser) parseIntersectType() ast.TypeExpr {
	first := p.parseUnionType()
	members := []ast.TypeExpr{first}
	for p.curIs(token.AMP_AMP) || p.isAmp() {
		p.next()
		members = append(members, p.parseUnionType())
	}
	if len(members) == 1 {
		return members[0]
	}
	return &ast.IntersectTypeExpr{Members: members}
}

// isAmp recognizes a lone '&' if the lexer ever produces one as
// ILLEGAL-with-lexeme "&" (single ampersand has no other meaning in
// Bendu's expression grammar, so the type grammar repurposes it for
// intersections per spec §3's TyIntersect).
func (p *Parser) isAmp() bool { return p.cur.Lexeme == "&" }

func (p *Parser) parseUnionType() ast.TypeExpr {
	first := p.parseTupleType()
	members := []ast.TypeExpr{first}
	for p.curIs(token.PIPE) {
		p.next()
		members = append(members, p.parseTupleType())
	}
	if len(members) == 1 {
		return members[0]
	}
	return &ast.UnionTypeExpr{Members: members}
}

func (p *Parser) parseTupleType() ast.TypeExpr {
	first := p.parseArrowOrPrimaryType()
	elems := []ast.TypeExpr{first}
	for p.curIs(token.STAR) {
		p.next()
		elems = append(elems, p.parseArrowOrPrimaryType())
	}
	if len(elems) == 1 {
		return elems[0]
	}
	return &ast.TupleTypeExpr{Elements: elems}
}

// parseArrowOrPrimaryType handles `(T1, T2) -> R` by first parsing a
// parenthesized list and checking whether '->' follows.
func (p *Parser) parseArrowOrPrimaryType() ast.TypeExpr {
	if !p.curIs(token.LPAREN) {
		return p.parsePrimaryType()
	}
	p.next() // '('
	var params []ast.TypeExpr
	if !p.curIs(token.RPAREN) {
		for {
			params = append(params, p.parseTypeExpr())
			if p.curIs(token.COMMA) {
				p.next()
				continue
			}
			break
		}
	}
	p.expect(token.RPAREN)
	if p.curIs(token.ARROW) {
		p.next()
		result := p.parseTypeExpr()
		return &ast.FuncTypeExpr{Params: params, Result: result}
	}
	if len(params) == 1 {
		return params[0]
	}
	return &ast.TupleTypeExpr{Elements: params}
}

func (p *Parser) parsePrimaryType() ast.TypeExpr {
	switch p.cur.Type {
	case token.STRING:
		v := p.cur.Lexeme
		p.next()
		return &ast.LitStringTypeExpr{Value: v}
	case token.LBRACE:
		return p.parseRecordType()
	case token.IDENT:
		name := p.cur.Lexeme
		p.next()
		if isLowerVarName(name) && !p.curIs(token.LBRACKET) {
			return &ast.VarTypeExpr{Name: name}
		}
		var args []ast.TypeExpr
		if p.curIs(token.LBRACKET) {
			p.next()
			for !p.curIs(token.RBRACKET) && !p.curIs(token.EOF) {
				args = append(args, p.parseTypeExpr())
				if p.curIs(token.COMMA) {
					p.next()
				}
			}
			p.expect(token.RBRACKET)
		}
		return &ast.NamedTypeExpr{Name: name, Args: args}
	default:
		p.errorf("expected type, got %q", p.cur.Lexeme)
		p.next()
		return &ast.NamedTypeExpr{Name: "Error"}
	}
}

func (p *Parser) parseRecordType() ast.TypeExpr {
	p.next() // '{'
	r := &ast.RecordTypeExpr{}
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		if p.curIs(token.PIPE) {
			p.next()
			r.Row = p.cur.Lexeme
			p.expect(token.IDENT)
			continue
		}
		name := p.cur.Lexeme
		p.expect(token.IDENT)
		p.expect(token.COLON)
		ft := p.parseTypeExpr()
		r.Fields = append(r.Fields, ast.RecordFieldExpr{Name: name, Type: ft})
		if p.curIs(token.COMMA) {
			p.next()
		}
	}
	p.expect(token.RBRACE)
	return r
}

// isLowerVarName reports whether name is a bare type-variable spelling:
// lowercase-initial with no declared arguments, per spec's "type
// variables spelled as lowercase identifiers" (and the primitive
// TyCons Bool/Char/Float/Int/String/Unit/Error are all upper-initial,
// so this never misclassifies a primitive).
func isLowerVarName(name string) bool {
	if name == "" {
		return false
	}
	c := name[0]
	return c >= 'a' && c <= 'z'
}
