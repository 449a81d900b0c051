// Package parser turns a Bendu token stream into the *ast.Program the
// type inferencer consumes. Like internal/lexer, this sits outside
// spec.md's core scope (the front-end is an external collaborator per
// spec §1) but is built here so the Package Cache and the `bendu`
// driver have a real producer of the AST spec §6 assumes already
// exists. A Pratt expression parser (prefix/infix parse functions keyed
// by token.Type, precedence climbing) over a small recursive-descent
// statement/pattern/type grammar — the classic shape for a language
// this size, and the one the teacher's own front-end uses.
package parser

import (
	"fmt"

	"github.com/bendu-lang/bendu/internal/ast"
	"github.com/bendu-lang/bendu/internal/lexer"
	"github.com/bendu-lang/bendu/internal/token"
)

// Parser holds the two-token lookahead window Pratt parsing needs plus
// the accumulated error list (spec §7: "errors are accumulated, not
// thrown on first sighting").
type Parser struct {
	l *lexer.Lexer

	cur  token.Token
	peek token.Token

	errors []error
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	p.next()
	p.next()
	return p
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.errors = append(p.errors, fmt.Errorf("%d:%d: %s", p.cur.Line, p.cur.Column, fmt.Sprintf(format, args...)))
}

func (p *Parser) Errors() []error { return p.errors }

func (p *Parser) curIs(t token.Type) bool  { return p.cur.Type == t }
func (p *Parser) peekIs(t token.Type) bool { return p.peek.Type == t }

func (p *Parser) expect(t token.Type) bool {
	if p.curIs(t) {
		p.next()
		return true
	}
	p.errorf("expected %v, got %q", t, p.cur.Lexeme)
	return false
}

// skipNewlines consumes statement-separator tokens (newline or ';')
// that carry no meaning between top-level items.
func (p *Parser) skipNewlines() {
	for p.curIs(token.NEWLINE) || p.curIs(token.SEMICOLON) {
		p.next()
	}
}

// Parse reads the whole token stream into a Program. file is recorded
// on the result for diagnostics and cache keys.
func Parse(src string, file string) (*ast.Program, []error) {
	p := New(lexer.New(src))
	prog := &ast.Program{File: file}

	p.skipNewlines()
	for p.curIs(token.IMPORT) {
		if imp := p.parseImport(); imp != nil {
			prog.Imports = append(prog.Imports, imp)
		}
		p.skipNewlines()
	}

	for !p.curIs(token.EOF) {
		if stmt := p.parseTopLevelStatement(); stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		} else if !p.curIs(token.EOF) {
			// Parse failure: skip the offending token so one bad
			// statement doesn't stall the whole file (spec §7's
			// accumulate-and-continue discipline, applied to syntax too
			// even though spec.md treats syntax errors as the parser's
			// own external concern).
			p.next()
		}
		p.skipNewlines()
	}
	return prog, p.errors
}

func (p *Parser) parseImport() *ast.ImportStatement {
	tok := p.cur
	p.next() // 'import'
	if !p.curIs(token.STRING) && !p.curIs(token.IDENT) {
		p.errorf("expected import path, got %q", p.cur.Lexeme)
		return nil
	}
	path := p.cur.Lexeme
	p.next()

	imp := &ast.ImportStatement{Tok: tok, Path: path}
	if p.curIs(token.AS) {
		p.next()
		imp.Alias = p.cur.Lexeme
		p.expect(token.IDENT)
	} else if p.curIs(token.LPAREN) {
		p.next()
		imp.Renames = map[string]string{}
		for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
			name := p.cur.Lexeme
			p.expect(token.IDENT)
			imp.Only = append(imp.Only, name)
			if p.curIs(token.AS) {
				p.next()
				imp.Renames[name] = p.cur.Lexeme
				p.expect(token.IDENT)
			}
			if p.curIs(token.COMMA) {
				p.next()
			}
		}
		p.expect(token.RPAREN)
	}
	return imp
}

func (p *Parser) parseTopLevelStatement() ast.Statement {
	switch p.cur.Type {
	case token.TYPE:
		return p.parseTypeDecl()
	case token.LET:
		return p.parseLetStatement()
	default:
		tok := p.cur
		expr := p.parseExpression(lowest)
		return &ast.ExpressionStatement{Tok: tok, Expr: expr}
	}
}
