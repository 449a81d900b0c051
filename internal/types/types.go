// Package types implements Bendu's type universe (spec §3): the shapes
// an inference run produces and a unifier consumes. The structural
// design — a Type interface with Apply/FreeTypeVariables/String, a
// map-based Subst with left-biased Compose, and cycle-safe structural
// substitution — is grounded in the teacher's internal/typesystem
// package (types.go), generalized here to add TyIntersect (which the
// teacher's union-only type system has no precedent for) and to match
// Bendu's exact data model instead of Funxy's.
package types

import (
	"fmt"
	"sort"
	"strings"
)

// Type is implemented by every member of the type universe.
type Type interface {
	String() string
	Apply(s Subst) Type
	FreeTypeVariables() []string
}

// TyVar is a fresh type variable, identified by a monotonically
// increasing integer minted by a Pump (see subst.go).
type TyVar struct {
	ID int
}

func (t TyVar) String() string { return fmt.Sprintf("t%d", t.ID) }

func (t TyVar) Apply(s Subst) Type {
	if repl, ok := s[t.ID]; ok {
		// Substitutions are applied structurally and may themselves
		// still contain variables bound later in the same chain.
		if rv, ok := repl.(TyVar); ok && rv.ID == t.ID {
			return t
		}
		return repl
	}
	return t
}

func (t TyVar) FreeTypeVariables() []string { return []string{t.String()} }

// TyCon is a type constructor applied to an ordered argument list.
// Primitive nullary constructors (Bool, Char, Float, Int, String, Unit,
// Error) and user ADTs share this shape; the argument list is empty
// for nullary constructors.
type TyCon struct {
	Name string
	Args []Type
}

func (t TyCon) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	return t.Name + "[" + strings.Join(parts, ", ") + "]"
}

func (t TyCon) Apply(s Subst) Type {
	if len(t.Args) == 0 {
		return t
	}
	args := make([]Type, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.Apply(s)
	}
	return TyCon{Name: t.Name, Args: args}
}

func (t TyCon) FreeTypeVariables() []string {
	var out []string
	for _, a := range t.Args {
		out = append(out, a.FreeTypeVariables()...)
	}
	return out
}

// TyArr is an n-ary function type; currying is a surface-language
// concern handled by the lambda-lowering rules, not by this shape.
type TyArr struct {
	Domain []Type
	Range  Type
}

func (t TyArr) String() string {
	parts := make([]string, len(t.Domain))
	for i, d := range t.Domain {
		parts[i] = d.String()
	}
	return "(" + strings.Join(parts, ", ") + ") -> " + t.Range.String()
}

func (t TyArr) Apply(s Subst) Type {
	dom := make([]Type, len(t.Domain))
	for i, d := range t.Domain {
		dom[i] = d.Apply(s)
	}
	return TyArr{Domain: dom, Range: t.Range.Apply(s)}
}

func (t TyArr) FreeTypeVariables() []string {
	var out []string
	for _, d := range t.Domain {
		out = append(out, d.FreeTypeVariables()...)
	}
	return append(out, t.Range.FreeTypeVariables()...)
}

// TyTuple is an ordered product type of arity >= 2.
type TyTuple struct {
	Elements []Type
}

func (t TyTuple) String() string {
	parts := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		parts[i] = e.String()
	}
	return strings.Join(parts, " * ")
}

func (t TyTuple) Apply(s Subst) Type {
	els := make([]Type, len(t.Elements))
	for i, e := range t.Elements {
		els[i] = e.Apply(s)
	}
	return TyTuple{Elements: els}
}

func (t TyTuple) FreeTypeVariables() []string {
	var out []string
	for _, e := range t.Elements {
		out = append(out, e.FreeTypeVariables()...)
	}
	return out
}

// TyRecord is a field-name -> type mapping with an optional row
// variable. Open (Row != "") when unclosed; closed (Row == "")
// otherwise, in which case the explicit field set is exact.
type TyRecord struct {
	Fields map[string]Type
	Row    string // "" means closed
}

func (t TyRecord) String() string {
	names := make([]string, 0, len(t.Fields))
	for n := range t.Fields {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = n + ": " + t.Fields[n].String()
	}
	body := strings.Join(parts, ", ")
	if t.Row != "" {
		if body != "" {
			body += " | " + t.Row
		} else {
			body = t.Row
		}
	}
	return "{ " + body + " }"
}

func (t TyRecord) Apply(s Subst) Type {
	fields := make(map[string]Type, len(t.Fields))
	for n, ty := range t.Fields {
		fields[n] = ty.Apply(s)
	}
	row := t.Row
	if row != "" {
		if rv, ok := rowVarID(row); ok {
			if repl, ok := s[rv]; ok {
				switch r := repl.(type) {
				case TyRecord:
					for n, ty := range r.Fields {
						fields[n] = ty
					}
					row = r.Row
				case TyVar:
					row = r.String()
				}
			}
		}
	}
	return TyRecord{Fields: fields, Row: row}
}

func (t TyRecord) FreeTypeVariables() []string {
	var out []string
	for _, ty := range t.Fields {
		out = append(out, ty.FreeTypeVariables()...)
	}
	if t.Row != "" {
		out = append(out, t.Row)
	}
	return out
}

// rowVarID parses a row-variable name of the canonical "t%d" shape
// back into the variable's integer id, for substitution lookups.
func rowVarID(name string) (int, bool) {
	if len(name) < 2 || name[0] != 't' {
		return 0, false
	}
	n := 0
	for _, c := range name[1:] {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// TyUnion is a set of >= 2 alternatives.
type TyUnion struct {
	Members []Type
}

func (t TyUnion) String() string {
	parts := make([]string, len(t.Members))
	for i, m := range t.Members {
		parts[i] = m.String()
	}
	return strings.Join(parts, " | ")
}

func (t TyUnion) Apply(s Subst) Type {
	members := make([]Type, len(t.Members))
	for i, m := range t.Members {
		members[i] = m.Apply(s)
	}
	return NormalizeUnion(members)
}

func (t TyUnion) FreeTypeVariables() []string {
	var out []string
	for _, m := range t.Members {
		out = append(out, m.FreeTypeVariables()...)
	}
	return out
}

// NormalizeUnion flattens nested unions and removes duplicate members
// (by String() identity), mirroring the teacher's TUnion normalization
// so that unions built incrementally during inference stay canonical.
func NormalizeUnion(members []Type) Type {
	var flat []Type
	seen := map[string]bool{}
	var walk func(Type)
	walk = func(ty Type) {
		if u, ok := ty.(TyUnion); ok {
			for _, m := range u.Members {
				walk(m)
			}
			return
		}
		key := ty.String()
		if !seen[key] {
			seen[key] = true
			flat = append(flat, ty)
		}
	}
	for _, m := range members {
		walk(m)
	}
	if len(flat) == 1 {
		return flat[0]
	}
	sort.Slice(flat, func(i, j int) bool { return flat[i].String() < flat[j].String() })
	return TyUnion{Members: flat}
}

// TyIntersect is a set of >= 2 members that must all unify with
// whatever the intersection is compared against (spec §4.2,
// "TyIntersect ~ t"). There is no teacher precedent for this shape —
// the teacher's type system only models unions — so this type is
// modeled directly on TyUnion's flatten/dedupe/sort discipline.
type TyIntersect struct {
	Members []Type
}

func (t TyIntersect) String() string {
	parts := make([]string, len(t.Members))
	for i, m := range t.Members {
		parts[i] = m.String()
	}
	return strings.Join(parts, " & ")
}

func (t TyIntersect) Apply(s Subst) Type {
	members := make([]Type, len(t.Members))
	for i, m := range t.Members {
		members[i] = m.Apply(s)
	}
	return NormalizeIntersect(members)
}

func (t TyIntersect) FreeTypeVariables() []string {
	var out []string
	for _, m := range t.Members {
		out = append(out, m.FreeTypeVariables()...)
	}
	return out
}

// NormalizeIntersect is TyIntersect's analogue of NormalizeUnion.
func NormalizeIntersect(members []Type) Type {
	var flat []Type
	seen := map[string]bool{}
	var walk func(Type)
	walk = func(ty Type) {
		if u, ok := ty.(TyIntersect); ok {
			for _, m := range u.Members {
				walk(m)
			}
			return
		}
		key := ty.String()
		if !seen[key] {
			seen[key] = true
			flat = append(flat, ty)
		}
	}
	for _, m := range members {
		walk(m)
	}
	if len(flat) == 1 {
		return flat[0]
	}
	sort.Slice(flat, func(i, j int) bool { return flat[i].String() < flat[j].String() })
	return TyIntersect{Members: flat}
}

// TyLitString is a singleton string-literal type, used as a
// discriminator in tagged-union record shapes.
type TyLitString struct {
	Value string
}

func (t TyLitString) String() string                  { return fmt.Sprintf("%q", t.Value) }
func (t TyLitString) Apply(s Subst) Type              { return t }
func (t TyLitString) FreeTypeVariables() []string      { return nil }

// TyAlias is an unexpanded reference to a name in the alias registry.
// Expansion happens lazily via Env.ExpandAlias (spec §9: recursive
// aliases materialize an explicit RecursiveType mu-binder rather than a
// cyclic object graph).
type TyAlias struct {
	Name string
	Args []Type
}

func (t TyAlias) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	return t.Name + "[" + strings.Join(parts, ", ") + "]"
}

func (t TyAlias) Apply(s Subst) Type {
	args := make([]Type, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.Apply(s)
	}
	return TyAlias{Name: t.Name, Args: args}
}

func (t TyAlias) FreeTypeVariables() []string {
	var out []string
	for _, a := range t.Args {
		out = append(out, a.FreeTypeVariables()...)
	}
	return out
}

// RecursiveType is the explicit mu-binder materialized when an alias
// expansion would otherwise produce a directly cyclic type (spec §9).
// `Var` is the bound recursion variable's canonical name (e.g. "t#self"),
// referenced by name within Body — never shared as a pointer cycle.
type RecursiveType struct {
	Name string
	Var  string
	Body Type
}

func (t RecursiveType) String() string {
	return "mu " + t.Var + ". " + t.Body.String()
}

func (t RecursiveType) Apply(s Subst) Type {
	// The bound variable is never substituted; only free variables in
	// Body besides Var are.
	filtered := Subst{}
	for k, v := range s {
		filtered[k] = v
	}
	return RecursiveType{Name: t.Name, Var: t.Var, Body: t.Body.Apply(filtered)}
}

func (t RecursiveType) FreeTypeVariables() []string {
	fv := t.Body.FreeTypeVariables()
	out := fv[:0]
	for _, v := range fv {
		if v != t.Var {
			out = append(out, v)
		}
	}
	return out
}

// Primitive type constructors, per spec §3's TyCon primitive set.
var (
	TyBool  = TyCon{Name: "Bool"}
	TyChar  = TyCon{Name: "Char"}
	TyFloat = TyCon{Name: "Float"}
	TyInt   = TyCon{Name: "Int"}
	TyString = TyCon{Name: "String"}
	TyUnit  = TyCon{Name: "Unit"}
	TyError = TyCon{Name: "Error"}
)
