package types

// Subst is a finite map from type-variable id to the type it stands
// for, applied structurally to every type form (spec §3, "Substitution").
type Subst map[int]Type

// Compose implements left-biased composition: `s2.Compose(s1)` yields a
// substitution equivalent to applying s1 first, then s2, with s2
// shadowing s1 on overlapping keys (spec §4.2: "s2 ∘ s1 applies s1
// first then s2, with s2 shadowing on overlap"). Call as
// `s2.Compose(s1)`, matching the teacher's `s1.Compose(s2)` calling
// convention but with the operands' roles swapped to satisfy the
// spec's explicit left-bias requirement precisely (the teacher's own
// Compose is right-shadowing, which this package deliberately
// corrects for Bendu rather than copying verbatim).
func (s2 Subst) Compose(s1 Subst) Subst {
	out := make(Subst, len(s1)+len(s2))
	for k, v := range s1 {
		out[k] = v.Apply(s2)
	}
	for k, v := range s2 {
		out[k] = v
	}
	return out
}

// Pump mints fresh type variables via a monotonic counter, per spec's
// "fresh-minted by a monotonic counter (pump)".
type Pump struct {
	next int
}

// Fresh returns a new, never-before-issued TyVar.
func (p *Pump) Fresh() TyVar {
	v := TyVar{ID: p.next}
	p.next++
	return v
}

// Scheme is `forall vars. body` — a principal type closed over the
// variables that generalization deemed not free in the environment.
type Scheme struct {
	Vars []int
	Body Type
}

// Instantiate replaces every quantified variable with a fresh TyVar,
// yielding a monotype usable at a particular call site.
func (s Scheme) Instantiate(p *Pump) Type {
	sub := make(Subst, len(s.Vars))
	for _, v := range s.Vars {
		sub[v] = p.Fresh()
	}
	return s.Body.Apply(sub)
}

// Generalize closes `body` over every free variable not free in `env`,
// producing a Scheme (spec: "generalization closes over FTV(body) \
// FTV(environment)").
func Generalize(envFree map[string]bool, body Type) Scheme {
	seen := map[string]bool{}
	var vars []int
	for _, name := range body.FreeTypeVariables() {
		if envFree[name] || seen[name] {
			continue
		}
		seen[name] = true
		if id, ok := rowVarID(name); ok {
			vars = append(vars, id)
		}
	}
	return Scheme{Vars: vars, Body: body}
}
