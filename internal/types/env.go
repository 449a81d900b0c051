package types

// Binding is one entry in a scope: an identifier's declaration site,
// whether it is mutable (`!`), and its principal scheme.
type Binding struct {
	Name     string
	Line     int
	Column   int
	Mutable  bool
	Scheme   Scheme
}

type scope struct {
	bindings map[string]*Binding
}

// ADTDecl records one `type Name[params] = Ctor1 | Ctor2 | ...`
// declaration, keyed by the ADT's name in Env.Types.
type ADTDecl struct {
	Name    string
	Params  []string
	Ctors   []CtorDecl
}

// CtorDecl is one constructor of an ADT: its name, the ADT it belongs
// to, its field types (in terms of the ADT's own type parameters), and
// its 0-based tag within the declaration (used as the Custom heap
// object's constructor-id at runtime).
type CtorDecl struct {
	Name   string
	Parent string
	Fields []Type
	Tag    int
}

// AliasDecl records one `type Name[params] = <Type>` alias.
type AliasDecl struct {
	Name   string
	Params []string
	Body   Type
}

// Import records one resolved import: the package alias ("" for
// unqualified) and the set of bindings it installed.
type Import struct {
	Alias   string
	Source  string
	Names   []string
}

// Env is the Type Environment (spec §3): a stack of scopes plus the
// ADT declaration table, the alias registry, and the imports table.
// Modeled directly on the spec's description rather than copied from
// the teacher's symbols.SymbolTable, which carries trait/instance
// machinery Bendu has no use for.
type Env struct {
	scopes  []*scope
	Types   map[string]*ADTDecl
	Ctors   map[string]*CtorDecl // constructor name -> decl, for pattern/codegen lookup
	Aliases map[string]*AliasDecl
	Imports []*Import
}

// NewEnv creates a fresh environment with one (global) scope.
func NewEnv() *Env {
	e := &Env{
		Types:   map[string]*ADTDecl{},
		Ctors:   map[string]*CtorDecl{},
		Aliases: map[string]*AliasDecl{},
	}
	e.PushScope()
	return e
}

func (e *Env) PushScope() { e.scopes = append(e.scopes, &scope{bindings: map[string]*Binding{}}) }

func (e *Env) PopScope() {
	if len(e.scopes) > 0 {
		e.scopes = e.scopes[:len(e.scopes)-1]
	}
}

// Declare installs a binding in the current (innermost) scope.
// Shadowing *within* the same scope is the caller's responsibility to
// reject (spec: "Shadowing within the same scope is an error; across
// scopes it is silent").
func (e *Env) Declare(b *Binding) {
	cur := e.scopes[len(e.scopes)-1]
	cur.bindings[b.Name] = b
}

// DeclaredInCurrentScope reports whether name already has a binding in
// the innermost scope, used to detect the illegal same-scope shadowing
// case above.
func (e *Env) DeclaredInCurrentScope(name string) bool {
	cur := e.scopes[len(e.scopes)-1]
	_, ok := cur.bindings[name]
	return ok
}

// Lookup searches scopes innermost-first.
func (e *Env) Lookup(name string) (*Binding, bool) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if b, ok := e.scopes[i].bindings[name]; ok {
			return b, true
		}
	}
	return nil, false
}

// FreeInEnv collects the set of type-variable names free anywhere in
// the environment's live scopes, used by Generalize to decide which
// variables of a new binding's type may be quantified.
func (e *Env) FreeInEnv() map[string]bool {
	out := map[string]bool{}
	for _, sc := range e.scopes {
		for _, b := range sc.bindings {
			for _, v := range b.Scheme.Body.FreeTypeVariables() {
				out[v] = true
			}
		}
	}
	return out
}

// ResolveTypeAlias implements the Resolver interface Unify expects:
// expanding one level of alias without instantiating fresh variables
// for the alias's own parameters (callers that need fresh parameters
// use ExpandAlias instead).
func (e *Env) ResolveTypeAlias(t Type) Type {
	alias, ok := t.(TyAlias)
	if !ok {
		return t
	}
	decl, ok := e.Aliases[alias.Name]
	if !ok {
		return t
	}
	return e.ExpandAlias(decl, alias.Args)
}

// ExpandAlias substitutes decl's declared parameters with args and
// returns the expanded body. When the body's own free variables
// include the alias's own name (a directly recursive alias such as
// `type T = { head: a, tail: T }`), the expansion is wrapped in a
// RecursiveType mu-binder instead of naively re-substituting forever
// (spec §9).
func (e *Env) ExpandAlias(decl *AliasDecl, args []Type) Type {
	sub := Subst{}
	for i, p := range decl.Params {
		if i < len(args) {
			if id, ok := rowVarID(p); ok {
				sub[id] = args[i]
			}
		}
	}
	body := decl.Body.Apply(sub)
	if referencesAlias(body, decl.Name, map[string]bool{}) {
		return RecursiveType{Name: decl.Name, Var: "t#" + decl.Name, Body: body}
	}
	return body
}

func referencesAlias(t Type, name string, visited map[string]bool) bool {
	switch v := t.(type) {
	case TyAlias:
		if v.Name == name {
			return true
		}
	case TyRecord:
		for _, f := range v.Fields {
			if referencesAlias(f, name, visited) {
				return true
			}
		}
	case TyArr:
		for _, d := range v.Domain {
			if referencesAlias(d, name, visited) {
				return true
			}
		}
		return referencesAlias(v.Range, name, visited)
	case TyTuple:
		for _, el := range v.Elements {
			if referencesAlias(el, name, visited) {
				return true
			}
		}
	case TyUnion:
		for _, m := range v.Members {
			if referencesAlias(m, name, visited) {
				return true
			}
		}
	case TyIntersect:
		for _, m := range v.Members {
			if referencesAlias(m, name, visited) {
				return true
			}
		}
	case TyCon:
		for _, a := range v.Args {
			if referencesAlias(a, name, visited) {
				return true
			}
		}
	}
	return false
}
