// Package signature implements the signature file format of spec §6:
// one textual record per exported `let`/`fn`/`type`, carrying a
// rehydratable principal scheme so a downstream compilation unit can
// type-check against an upstream package's interface without
// re-running the upstream inference (spec §4.4, "Signature reading").
//
// Grounded on the teacher's internal/modules loader, which persists a
// module's exported symbol table as a flat textual listing it re-parses
// on import; Bendu's format differs (full scheme syntax, frame/code
// offsets) but the "write what Export() produced, read it back into the
// same shape" discipline is the same.
package signature

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bendu-lang/bendu/internal/compile"
	"github.com/bendu-lang/bendu/internal/types"
)

// CtorSig is one ADT constructor's exported shape: its field types and
// the code offset its constructor function compiles to (spec §6:
// "ADT exports encode constructors and their code offsets").
type CtorSig struct {
	Name       string
	Fields     []types.Type
	CodeOffset int
}

// Record is one parsed line of a signature file.
type Record struct {
	Kind string // "let", "fn", "type"

	Name    string
	Mutable bool
	Scheme  types.Scheme

	FrameOffset    int
	HasFrameOffset bool
	CodeOffset     int // fn only

	Params []string  // type only
	Ctors  []CtorSig  // type only
}

// FromExports converts the bytecode compiler's Export table (plus the
// ADT declarations live in env) into signature Records ready for
// Write, giving every `let ... *` binding and every declared type its
// textual line (spec §6).
func FromExports(exports []compile.Export, adts map[string]*types.ADTDecl, codeOffsets map[string]int, mutable map[string]bool) []Record {
	var recs []Record
	for _, exp := range exports {
		kind := "let"
		if _, ok := exp.Type.(types.TyArr); ok {
			kind = "fn"
		}
		r := Record{
			Kind:           kind,
			Name:           exp.Name,
			Mutable:        mutable[exp.Name],
			Scheme:         types.Generalize(nil, exp.Type),
			FrameOffset:    exp.Slot,
			HasFrameOffset: true,
		}
		if kind == "fn" {
			r.CodeOffset = codeOffsets[exp.Name]
		}
		recs = append(recs, r)
	}
	for _, decl := range adts {
		r := Record{Kind: "type", Name: decl.Name, Params: decl.Params}
		for _, c := range decl.Ctors {
			r.Ctors = append(r.Ctors, CtorSig{Name: c.Name, Fields: c.Fields, CodeOffset: codeOffsets[c.Name]})
		}
		recs = append(recs, r)
	}
	return recs
}

// Write renders recs into the signature file's textual format (spec
// §6): one semicolon-terminated record per line.
func Write(recs []Record) string {
	var b strings.Builder
	for _, r := range recs {
		switch r.Kind {
		case "let":
			fmt.Fprintf(&b, "let %s%s: %s = %d;\n", r.Name, mutSuffix(r.Mutable), renderScheme(r.Scheme), r.FrameOffset)
		case "fn":
			fmt.Fprintf(&b, "fn  %s%s: %s = %d", r.Name, mutSuffix(r.Mutable), renderScheme(r.Scheme), r.CodeOffset)
			if r.HasFrameOffset {
				fmt.Fprintf(&b, " %d", r.FrameOffset)
			}
			b.WriteString(";\n")
		case "type":
			b.WriteString("type " + r.Name)
			if len(r.Params) > 0 {
				b.WriteString("[" + strings.Join(r.Params, ", ") + "]")
			}
			if len(r.Ctors) > 0 {
				parts := make([]string, len(r.Ctors))
				for i, c := range r.Ctors {
					parts[i] = renderCtor(c)
				}
				b.WriteString(" = " + strings.Join(parts, " | "))
			}
			b.WriteString(";\n")
		}
	}
	return b.String()
}

func mutSuffix(mutable bool) string {
	if mutable {
		return "!"
	}
	return ""
}

func renderCtor(c CtorSig) string {
	if len(c.Fields) == 0 {
		return c.Name
	}
	parts := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		parts[i] = f.String()
	}
	return c.Name + "[" + strings.Join(parts, ", ") + "]"
}

// renderScheme prints s with its quantified variables renamed to
// successive lowercase letters (spec §6: "Schemes print with
// universally-quantified variables inferred and rendered as lowercase
// letters").
func renderScheme(s types.Scheme) string {
	names := make([]string, 26)
	for i := range names {
		names[i] = string(rune('a' + i))
	}
	sub := types.Subst{}
	for i, v := range s.Vars {
		letter := names[i%26]
		if i >= 26 {
			letter = fmt.Sprintf("%s%d", letter, i/26)
		}
		sub[v] = renamedVar{letter}
	}
	return s.Body.Apply(sub).String()
}

// renamedVar is a display-only Type standing in for a TyVar during
// rendering; it is never fed back into unification.
type renamedVar struct{ letter string }

func (r renamedVar) String() string                 { return r.letter }
func (r renamedVar) Apply(types.Subst) types.Type    { return r }
func (r renamedVar) FreeTypeVariables() []string     { return []string{r.letter} }

// Parse reads a signature file's contents back into Records, the
// inverse of Write (spec testable property 7, "bytecode round-trip").
func Parse(data string) ([]Record, error) {
	var recs []Record
	for _, raw := range splitRecords(data) {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		rec, err := parseRecord(line)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// splitRecords splits on ';' terminators, the textual record separator
// spec §6 specifies.
func splitRecords(data string) []string {
	return strings.Split(data, ";")
}

func parseRecord(line string) (Record, error) {
	p := newTypeParser(line)
	switch {
	case p.consumeKeyword("let"):
		return parseBinding(p, "let")
	case p.consumeKeyword("fn"):
		return parseBinding(p, "fn")
	case p.consumeKeyword("type"):
		return parseTypeRecord(p)
	default:
		return Record{}, fmt.Errorf("signature: unrecognized record kind in %q", line)
	}
}

func parseBinding(p *typeParser, kind string) (Record, error) {
	name, mutable := p.name()
	if !p.consumeByte(':') {
		return Record{}, fmt.Errorf("signature: expected ':' after %s %s", kind, name)
	}
	scheme, err := p.scheme()
	if err != nil {
		return Record{}, err
	}
	if !p.consumeByte('=') {
		return Record{}, fmt.Errorf("signature: expected '=' in %s %s", kind, name)
	}
	n1, err := p.number()
	if err != nil {
		return Record{}, err
	}
	r := Record{Kind: kind, Name: name, Mutable: mutable, Scheme: scheme}
	if kind == "let" {
		r.FrameOffset, r.HasFrameOffset = n1, true
	} else {
		r.CodeOffset = n1
		p.skipSpace()
		if n2, ok := p.tryNumber(); ok {
			r.FrameOffset, r.HasFrameOffset = n2, true
		}
	}
	return r, nil
}

func parseTypeRecord(p *typeParser) (Record, error) {
	name, _ := p.name()
	r := Record{Kind: "type", Name: name}
	if p.consumeByte('[') {
		for {
			pn, _ := p.name()
			r.Params = append(r.Params, pn)
			if p.consumeByte(',') {
				p.skipSpace()
				continue
			}
			break
		}
		if !p.consumeByte(']') {
			return Record{}, fmt.Errorf("signature: expected ']' closing type params for %s", name)
		}
	}
	p.skipSpace()
	if p.consumeByte('=') {
		for {
			c, err := p.ctor()
			if err != nil {
				return Record{}, err
			}
			r.Ctors = append(r.Ctors, c)
			p.skipSpace()
			if p.consumeByte('|') {
				continue
			}
			break
		}
	}
	return r, nil
}

func (p *typeParser) ctor() (CtorSig, error) {
	name, _ := p.name()
	c := CtorSig{Name: name}
	if p.consumeByte('[') {
		for {
			t, err := p.typeExpr()
			if err != nil {
				return CtorSig{}, err
			}
			c.Fields = append(c.Fields, t)
			if p.consumeByte(',') {
				p.skipSpace()
				continue
			}
			break
		}
		if !p.consumeByte(']') {
			return CtorSig{}, fmt.Errorf("signature: expected ']' closing ctor %s fields", name)
		}
	}
	return c, nil
}

// --- tiny recursive-descent parser over the scheme/type text emitted
// by renderScheme/types.Type.String() ---

type typeParser struct {
	s   string
	pos int
}

func newTypeParser(s string) *typeParser { return &typeParser{s: s} }

func (p *typeParser) skipSpace() {
	for p.pos < len(p.s) && (p.s[p.pos] == ' ' || p.s[p.pos] == '\t' || p.s[p.pos] == '\n') {
		p.pos++
	}
}

func (p *typeParser) consumeKeyword(kw string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.s[p.pos:], kw) {
		rest := p.s[p.pos+len(kw):]
		if len(rest) == 0 || rest[0] == ' ' {
			p.pos += len(kw)
			return true
		}
	}
	return false
}

func (p *typeParser) consumeByte(b byte) bool {
	p.skipSpace()
	if p.pos < len(p.s) && p.s[p.pos] == b {
		p.pos++
		return true
	}
	return false
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// name reads an identifier, stripping a trailing '!' mutability marker.
func (p *typeParser) name() (string, bool) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.s) && isIdentByte(p.s[p.pos]) {
		p.pos++
	}
	n := p.s[start:p.pos]
	mutable := false
	if p.pos < len(p.s) && p.s[p.pos] == '!' {
		mutable = true
		p.pos++
	}
	return n, mutable
}

func (p *typeParser) number() (int, error) {
	n, ok := p.tryNumber()
	if !ok {
		return 0, fmt.Errorf("signature: expected number at %q", p.s[p.pos:])
	}
	return n, nil
}

func (p *typeParser) tryNumber() (int, bool) {
	p.skipSpace()
	start := p.pos
	if p.pos < len(p.s) && p.s[p.pos] == '-' {
		p.pos++
	}
	for p.pos < len(p.s) && p.s[p.pos] >= '0' && p.s[p.pos] <= '9' {
		p.pos++
	}
	if p.pos == start {
		return 0, false
	}
	v, err := strconv.Atoi(p.s[start:p.pos])
	if err != nil {
		return 0, false
	}
	return v, true
}

// scheme parses a type expression and closes it into a Scheme whose
// quantified vars are every lowercase-single-letter TyVar it mentions
// (the inverse of renderScheme's a/b/c naming).
func (p *typeParser) scheme() (types.Scheme, error) {
	body, err := p.typeExpr()
	if err != nil {
		return types.Scheme{}, err
	}
	seen := map[string]bool{}
	var vars []int
	for _, v := range body.FreeTypeVariables() {
		if !seen[v] {
			seen[v] = true
			vars = append(vars, letterVarID(v))
		}
	}
	return types.Scheme{Vars: vars, Body: body}, nil
}

// letterVarID maps a rendered scheme-variable letter ("a", "b", ...,
// "z", "a1", ...) back to a stable negative id space distinct from any
// real inference-time TyVar id, since the letters' original ids are
// not recoverable from text alone and a re-hydrated signature scheme
// is only ever instantiated (never unified against its own source
// module again).
func letterVarID(letter string) int {
	h := 0
	for _, r := range letter {
		h = h*31 + int(r)
	}
	if h > 0 {
		h = -h
	}
	return h
}

// typeExpr parses with precedence, loosest-first: intersection (&) >
// union (|) > tuple (*) > arrow/primary. Bendu's own Write output is
// the only input this parser needs to round-trip (testable property
// 7), so this precedence is an internal convention, not a claim about
// surface-language operator precedence.
func (p *typeParser) typeExpr() (types.Type, error) {
	return p.parseIntersect()
}

func (p *typeParser) parseIntersect() (types.Type, error) {
	first, err := p.parseUnion()
	if err != nil {
		return nil, err
	}
	members := []types.Type{first}
	for {
		save := p.pos
		p.skipSpace()
		if p.pos < len(p.s) && p.s[p.pos] == '&' {
			p.pos++
			m, err := p.parseUnion()
			if err != nil {
				return nil, err
			}
			members = append(members, m)
			continue
		}
		p.pos = save
		break
	}
	if len(members) == 1 {
		return members[0], nil
	}
	return types.NormalizeIntersect(members), nil
}

func (p *typeParser) parseUnion() (types.Type, error) {
	first, err := p.parseTuple()
	if err != nil {
		return nil, err
	}
	members := []types.Type{first}
	for {
		save := p.pos
		p.skipSpace()
		if p.pos < len(p.s) && p.s[p.pos] == '|' {
			p.pos++
			m, err := p.parseTuple()
			if err != nil {
				return nil, err
			}
			members = append(members, m)
			continue
		}
		p.pos = save
		break
	}
	if len(members) == 1 {
		return members[0], nil
	}
	return types.NormalizeUnion(members), nil
}

func (p *typeParser) parseTuple() (types.Type, error) {
	first, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	elems := []types.Type{first}
	for {
		save := p.pos
		p.skipSpace()
		if p.pos < len(p.s) && p.s[p.pos] == '*' {
			p.pos++
			e, err := p.parsePrimary()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
			continue
		}
		p.pos = save
		break
	}
	if len(elems) == 1 {
		return elems[0], nil
	}
	return types.TyTuple{Elements: elems}, nil
}

func (p *typeParser) parsePrimary() (types.Type, error) {
	p.skipSpace()
	if p.pos >= len(p.s) {
		return nil, fmt.Errorf("signature: unexpected end of type expression")
	}
	switch p.s[p.pos] {
	case '(':
		return p.parseArrowOrParen()
	case '{':
		return p.parseRecord()
	case '"':
		return p.parseStringLit()
	default:
		return p.parseConOrVar()
	}
}

// parseArrowOrParen handles both a parenthesized sub-expression and an
// arrow type's "(d1, d2) -> r" domain list, disambiguated by whether
// "->" follows the closing paren.
func (p *typeParser) parseArrowOrParen() (types.Type, error) {
	start := p.pos
	p.pos++ // '('
	var domain []types.Type
	p.skipSpace()
	if p.pos < len(p.s) && p.s[p.pos] != ')' {
		for {
			t, err := p.typeExpr()
			if err != nil {
				return nil, err
			}
			domain = append(domain, t)
			p.skipSpace()
			if p.pos < len(p.s) && p.s[p.pos] == ',' {
				p.pos++
				continue
			}
			break
		}
	}
	if !p.consumeByte(')') {
		return nil, fmt.Errorf("signature: unclosed '(' at %q", p.s[start:])
	}
	p.skipSpace()
	if strings.HasPrefix(p.s[p.pos:], "->") {
		p.pos += 2
		r, err := p.typeExpr()
		if err != nil {
			return nil, err
		}
		return types.TyArr{Domain: domain, Range: r}, nil
	}
	if len(domain) == 1 {
		return domain[0], nil
	}
	return types.TyTuple{Elements: domain}, nil
}

func (p *typeParser) parseRecord() (types.Type, error) {
	p.pos++ // '{'
	fields := map[string]types.Type{}
	row := ""
	p.skipSpace()
	for p.pos < len(p.s) && p.s[p.pos] != '}' {
		if p.s[p.pos] == '|' {
			p.pos++
			p.skipSpace()
			row, _ = p.name()
			p.skipSpace()
			continue
		}
		fname, _ := p.name()
		if !p.consumeByte(':') {
			return nil, fmt.Errorf("signature: expected ':' in record field %s", fname)
		}
		ft, err := p.typeExpr()
		if err != nil {
			return nil, err
		}
		fields[fname] = ft
		p.skipSpace()
		if p.pos < len(p.s) && p.s[p.pos] == ',' {
			p.pos++
			p.skipSpace()
		}
	}
	if !p.consumeByte('}') {
		return nil, fmt.Errorf("signature: unclosed record")
	}
	return types.TyRecord{Fields: fields, Row: row}, nil
}

func (p *typeParser) parseStringLit() (types.Type, error) {
	p.pos++ // opening quote
	start := p.pos
	for p.pos < len(p.s) && p.s[p.pos] != '"' {
		p.pos++
	}
	if p.pos >= len(p.s) {
		return nil, fmt.Errorf("signature: unterminated string literal type")
	}
	val := p.s[start:p.pos]
	p.pos++ // closing quote
	return types.TyLitString{Value: val}, nil
}

// parseConOrVar reads a bare identifier: a lone lowercase letter (with
// optional trailing digits, e.g. "a1" from renderScheme's overflow
// naming) is a type variable, anything else is a nullary or applied
// TyCon.
func (p *typeParser) parseConOrVar() (types.Type, error) {
	name, _ := p.name()
	if name == "" {
		return nil, fmt.Errorf("signature: expected type at %q", p.s[p.pos:])
	}
	if isSchemeVarLetter(name) {
		return renamedVar{name}, nil
	}
	var args []types.Type
	if p.consumeByte('[') {
		for {
			t, err := p.typeExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, t)
			p.skipSpace()
			if p.pos < len(p.s) && p.s[p.pos] == ',' {
				p.pos++
				continue
			}
			break
		}
		if !p.consumeByte(']') {
			return nil, fmt.Errorf("signature: expected ']' closing %s's arguments", name)
		}
	}
	return types.TyCon{Name: name, Args: args}, nil
}

func isSchemeVarLetter(name string) bool {
	if name == "" || name[0] < 'a' || name[0] > 'z' {
		return false
	}
	if len(name) == 1 {
		return true
	}
	for _, c := range name[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
