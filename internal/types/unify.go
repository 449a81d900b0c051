// Unification rules (spec §4.2), grounded on the teacher's
// internal/typesystem/unify.go: the co-inductive cycle guard via a
// visited-pairs list (needed once aliases can expand into
// self-referential record shapes), the TCon/alias unwrap-and-retry
// dance, and the Resolver indirection that lets callers plug in an
// environment without an import cycle. The per-form rules themselves
// (record row splitting, union subset matching, intersection
// all-must-unify) are rewritten to match Bendu's data model, which
// differs from the teacher's (no traits, an added TyIntersect).
package types

import "fmt"

// Resolver expands one level of a type alias; *Env implements it.
type Resolver interface {
	ResolveTypeAlias(Type) Type
}

// MismatchError is the TypeMismatch error described in spec §7.
type MismatchError struct {
	Expected Type
	Actual   Type
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("type mismatch: expected %s, got %s", e.Expected, e.Actual)
}

// OccursError is raised when a type variable would have to bind to a
// type that structurally contains it with no protecting constructor.
type OccursError struct {
	Var  TyVar
	Type Type
}

func (e *OccursError) Error() string {
	return fmt.Sprintf("occurs check failed: %s occurs in %s", e.Var, e.Type)
}

type typePair struct{ a, b Type }

// Unify finds a substitution that makes t and u equal, with no
// resolver for type aliases (aliases must already be expanded).
func Unify(t, u Type) (Subst, error) {
	return unify(t, u, nil, nil)
}

// UnifyWithResolver is Unify but expands TyAlias references on demand
// via r, the way the Package Cache's environment does when checking a
// downstream file against an upstream signature.
func UnifyWithResolver(t, u Type, r Resolver) (Subst, error) {
	return unify(t, u, r, nil)
}

func unify(t, u Type, r Resolver, visited []typePair) (Subst, error) {
	for _, p := range visited {
		if sameType(p.a, t) && sameType(p.b, u) {
			return Subst{}, nil // co-inductive: already assumed equal on this path
		}
	}
	visited = append(visited, typePair{t, u})

	if sameType(t, u) {
		return Subst{}, nil
	}

	if alias, ok := t.(TyAlias); ok {
		if r != nil {
			return unify(r.ResolveTypeAlias(alias), u, r, visited)
		}
	}
	if alias, ok := u.(TyAlias); ok {
		if r != nil {
			return unify(t, r.ResolveTypeAlias(alias), r, visited)
		}
	}

	if rt, ok := t.(RecursiveType); ok {
		return unify(unrollOnce(rt), u, r, visited)
	}
	if ru, ok := u.(RecursiveType); ok {
		return unify(t, unrollOnce(ru), r, visited)
	}

	// TyUnion ~ t: t must be a member (spec: "either t is a member... or
	// t is itself a union, requiring subset matching in both directions").
	if union, ok := t.(TyUnion); ok {
		return unifyUnion(union, u, r, visited)
	}
	if union, ok := u.(TyUnion); ok {
		return unifyUnion(union, t, r, visited)
	}

	// TyIntersect ~ t: every member must unify with t.
	if inter, ok := t.(TyIntersect); ok {
		return unifyIntersect(inter, u, r, visited)
	}
	if inter, ok := u.(TyIntersect); ok {
		return unifyIntersect(inter, t, r, visited)
	}

	if tv, ok := t.(TyVar); ok {
		return bindVar(tv, u)
	}
	if uv, ok := u.(TyVar); ok {
		return bindVar(uv, t)
	}

	switch a := t.(type) {
	case TyCon:
		b, ok := u.(TyCon)
		if !ok || a.Name != b.Name || len(a.Args) != len(b.Args) {
			return nil, &MismatchError{Expected: t, Actual: u}
		}
		return unifyList(a.Args, b.Args, r, visited)
	case TyArr:
		b, ok := u.(TyArr)
		if !ok || len(a.Domain) != len(b.Domain) {
			return nil, &MismatchError{Expected: t, Actual: u}
		}
		s, err := unifyList(a.Domain, b.Domain, r, visited)
		if err != nil {
			return nil, err
		}
		s2, err := unify(a.Range.Apply(s), b.Range.Apply(s), r, visited)
		if err != nil {
			return nil, err
		}
		return s2.Compose(s), nil
	case TyTuple:
		b, ok := u.(TyTuple)
		if !ok || len(a.Elements) != len(b.Elements) {
			return nil, &MismatchError{Expected: t, Actual: u}
		}
		return unifyList(a.Elements, b.Elements, r, visited)
	case TyRecord:
		b, ok := u.(TyRecord)
		if !ok {
			return nil, &MismatchError{Expected: t, Actual: u}
		}
		return unifyRecord(a, b, r, visited)
	case TyLitString:
		b, ok := u.(TyLitString)
		if !ok || a.Value != b.Value {
			return nil, &MismatchError{Expected: t, Actual: u}
		}
		return Subst{}, nil
	}

	return nil, &MismatchError{Expected: t, Actual: u}
}

func unrollOnce(rt RecursiveType) Type {
	id, ok := rowVarID(rt.Var)
	if !ok {
		return rt.Body
	}
	return rt.Body.Apply(Subst{id: rt})
}

func unifyList(as, bs []Type, r Resolver, visited []typePair) (Subst, error) {
	s := Subst{}
	for i := range as {
		a := as[i].Apply(s)
		b := bs[i].Apply(s)
		s2, err := unify(a, b, r, visited)
		if err != nil {
			return nil, err
		}
		s = s2.Compose(s)
	}
	return s, nil
}

func unifyUnion(union TyUnion, other Type, r Resolver, visited []typePair) (Subst, error) {
	if otherUnion, ok := other.(TyUnion); ok {
		// Subset matching in both directions.
		for _, m := range union.Members {
			if !memberOf(m, otherUnion.Members, r) {
				return nil, &MismatchError{Expected: union, Actual: other}
			}
		}
		for _, m := range otherUnion.Members {
			if !memberOf(m, union.Members, r) {
				return nil, &MismatchError{Expected: union, Actual: other}
			}
		}
		return Subst{}, nil
	}
	s := Subst{}
	for _, m := range union.Members {
		if candidate, err := unify(m, other, r, visited); err == nil {
			s = candidate
			return s, nil
		}
	}
	return nil, &MismatchError{Expected: union, Actual: other}
}

func memberOf(t Type, set []Type, r Resolver) bool {
	for _, m := range set {
		if _, err := unify(t, m, r, nil); err == nil {
			return true
		}
	}
	return false
}

func unifyIntersect(inter TyIntersect, other Type, r Resolver, visited []typePair) (Subst, error) {
	s := Subst{}
	for _, m := range inter.Members {
		s2, err := unify(m.Apply(s), other.Apply(s), r, visited)
		if err != nil {
			return nil, err
		}
		s = s2.Compose(s)
	}
	return s, nil
}

func unifyRecord(a, b TyRecord, r Resolver, visited []typePair) (Subst, error) {
	onlyA, onlyB := map[string]Type{}, map[string]Type{}
	s := Subst{}
	for name, ta := range a.Fields {
		tb, ok := b.Fields[name]
		if !ok {
			onlyA[name] = ta
			continue
		}
		s2, err := unify(ta.Apply(s), tb.Apply(s), r, visited)
		if err != nil {
			return nil, err
		}
		s = s2.Compose(s)
	}
	for name, tb := range b.Fields {
		if _, ok := a.Fields[name]; !ok {
			onlyB[name] = tb
		}
	}

	aOpen, bOpen := a.Row != "", b.Row != ""
	switch {
	case !aOpen && !bOpen:
		if len(onlyA) != 0 || len(onlyB) != 0 {
			return nil, &MismatchError{Expected: a, Actual: b}
		}
		return s, nil
	case !aOpen && bOpen:
		if len(onlyB) != 0 {
			return nil, &MismatchError{Expected: a, Actual: b}
		}
		if id, ok := rowVarID(b.Row); ok {
			s[id] = TyRecord{Fields: onlyA}
		}
		return s, nil
	case aOpen && !bOpen:
		if len(onlyA) != 0 {
			return nil, &MismatchError{Expected: a, Actual: b}
		}
		if id, ok := rowVarID(a.Row); ok {
			s[id] = TyRecord{Fields: onlyB}
		}
		return s, nil
	default: // both open: fresh shared row
		fresh := TyVar{ID: -1} // caller-visible placeholder; see note below
		_ = fresh
		if id, ok := rowVarID(a.Row); ok {
			s[id] = TyRecord{Fields: onlyB, Row: b.Row}
		}
		if id, ok := rowVarID(b.Row); ok {
			s[id] = TyRecord{Fields: onlyA, Row: a.Row}
		}
		return s, nil
	}
}

func bindVar(v TyVar, t Type) (Subst, error) {
	if tv, ok := t.(TyVar); ok && tv.ID == v.ID {
		return Subst{}, nil
	}
	if occurs(v, t) {
		return nil, &OccursError{Var: v, Type: t}
	}
	return Subst{v.ID: t}, nil
}

// occurs implements the occurs check, except through the structural
// barriers the spec calls out: inside a TyRecord/TyArr/TyTuple/TyUnion
// whose outer shape is itself already resolved, a variable appearing
// only under a constructor is permitted (needed for recursive ADTs
// named via TyCon rather than direct cycles).
func occurs(v TyVar, t Type) bool {
	switch x := t.(type) {
	case TyVar:
		return x.ID == v.ID
	case TyCon:
		// Protected: TyCon is Bendu's nominal recursion carrier (spec §9).
		return false
	default:
		for _, name := range t.FreeTypeVariables() {
			if id, ok := rowVarID(name); ok && id == v.ID {
				return true
			}
		}
		return false
	}
}

func sameType(a, b Type) bool {
	return a.String() == b.String()
}
