// Package dtree implements Maranget-style pattern-matrix compilation,
// used by the inferencer (spec §4.1, "Pattern exhaustiveness") to
// check exhaustiveness/overlap. The bytecode compiler does not use it;
// it tries match arms in source order. Grounded on
// sunholo-data-ailang's internal/dtree/decision_tree.go (column-0
// switch-node compilation over a row matrix), generalized here to
// Bendu's ast.Pattern set and to produce the witness value spec §4.1
// requires for a NonExhaustivePatternMatch report.
package dtree

import (
	"fmt"
	"strings"

	"github.com/bendu-lang/bendu/internal/ast"
	"github.com/bendu-lang/bendu/internal/types"
)

// Tree is a compiled decision tree over a pattern matrix.
type Tree interface{ isTree() }

// Leaf selects one original match arm.
type Leaf struct{ ArmIndex int }

func (*Leaf) isTree() {}

// Fail marks a matrix with no matching row: a gap in coverage.
type Fail struct{}

func (*Fail) isTree() {}

// Switch dispatches on the head constructor/literal of one column.
type Switch struct {
	Cases   map[string]Tree
	Default Tree
}

func (*Switch) isTree() {}

type row struct {
	pats []ast.Pattern
	arm  int
}

// Compiler builds a decision tree from a list of patterns (one per
// match arm, sharing a single scrutinee column) and can report
// exhaustiveness against a declared ADT's constructor set.
type Compiler struct {
	env *types.Env
	// usedArms records which arm indices were reached by at least one
	// leaf in the compiled tree, for OverlappingPatterns detection.
	usedArms map[int]bool
}

func NewCompiler(env *types.Env) *Compiler {
	return &Compiler{env: env, usedArms: map[int]bool{}}
}

// Compile builds the tree for one scrutinee column over all arms.
func (c *Compiler) Compile(patterns []ast.Pattern) Tree {
	rows := make([]row, len(patterns))
	for i, p := range patterns {
		rows[i] = row{pats: []ast.Pattern{p}, arm: i}
	}
	t := c.compileMatrix(rows)
	return t
}

// UnreachableArms returns arm indices that were never selected by any
// leaf of the last Compile call — the OverlappingPatterns case.
func (c *Compiler) UnreachableArms(total int) []int {
	var out []int
	for i := 0; i < total; i++ {
		if !c.usedArms[i] {
			out = append(out, i)
		}
	}
	return out
}

func (c *Compiler) compileMatrix(rows []row) Tree {
	if len(rows) == 0 {
		return &Fail{}
	}
	if isDefaultRow(rows[0]) {
		c.usedArms[rows[0].arm] = true
		return &Leaf{ArmIndex: rows[0].arm}
	}
	return c.buildSwitch(rows)
}

func isDefaultRow(r row) bool {
	for _, p := range r.pats {
		switch p.(type) {
		case *ast.WildcardPattern, *ast.VarPattern, nil:
			continue
		case *ast.AsPattern:
			continue
		default:
			return false
		}
	}
	return true
}

func (c *Compiler) buildSwitch(rows []row) Tree {
	cases := map[string][]row{}
	arities := map[string]int{}
	var order []string
	var defaultRows []row

	sawTuple := false
	sawCtor := false
	ctorParent := ""
	sawBoolTrue, sawBoolFalse := false, false

	for _, r := range rows {
		head := r.pats[0]
		switch p := head.(type) {
		case *ast.LiteralPattern:
			key := fmt.Sprintf("lit:%v", p.Value)
			if _, ok := cases[key]; !ok {
				order = append(order, key)
				arities[key] = 0
			}
			cases[key] = append(cases[key], specialize(r, nil))
			if p.Kind == "Bool" {
				if b, ok := p.Value.(bool); ok {
					if b {
						sawBoolTrue = true
					} else {
						sawBoolFalse = true
					}
				}
			}
		case *ast.ConstructorPattern:
			key := "ctor:" + p.Name
			if _, ok := cases[key]; !ok {
				order = append(order, key)
				arities[key] = len(p.Args)
			}
			cases[key] = append(cases[key], specialize(r, p.Args))
			sawCtor = true
			if ctor, ok := c.env.Ctors[p.Name]; ok {
				ctorParent = ctor.Parent
			}
		case *ast.TuplePattern:
			key := fmt.Sprintf("tuple:%d", len(p.Elements))
			if _, ok := cases[key]; !ok {
				order = append(order, key)
				arities[key] = len(p.Elements)
			}
			cases[key] = append(cases[key], specialize(r, p.Elements))
			sawTuple = true
		default:
			defaultRows = append(defaultRows, r)
		}
	}

	if len(cases) == 0 {
		rest := make([]row, len(defaultRows))
		for i, d := range defaultRows {
			rest[i] = specializeDefault(d, 0)
		}
		return c.compileMatrix(rest)
	}

	sw := &Switch{Cases: map[string]Tree{}}
	for _, key := range order {
		arity := arities[key]
		rs := append([]row{}, cases[key]...)
		for _, d := range defaultRows {
			rs = append(rs, specializeDefault(d, arity))
		}
		sw.Cases[key] = c.compileMatrix(rs)
	}

	// A switch is complete — every runtime value of the column's type
	// is covered by a listed case — when the cases already exhaust the
	// type's shapes: a tuple/record type has exactly one shape for its
	// arity, Bool has exactly two literals, and an ADT is complete once
	// every one of its declared constructors appears as a case. A
	// complete switch's Default is structurally unreachable regardless
	// of whether some row used a wildcard at this column (that row's
	// contribution is already folded into every case above).
	complete := false
	switch {
	case sawTuple:
		complete = len(cases) == 1
	case sawBoolTrue && sawBoolFalse:
		complete = true
	case sawCtor && ctorParent != "":
		if decl, ok := c.env.Types[ctorParent]; ok {
			complete = len(cases) == len(decl.Ctors)
		}
	}

	switch {
	case complete:
		sw.Default = nil
	case len(defaultRows) > 0:
		rest := make([]row, len(defaultRows))
		for i, d := range defaultRows {
			rest[i] = specializeDefault(d, 0)
		}
		sw.Default = c.compileMatrix(rest)
	default:
		sw.Default = &Fail{}
	}
	return sw
}

func specialize(r row, args []ast.Pattern) row {
	pats := append(append([]ast.Pattern{}, args...), r.pats[1:]...)
	return row{pats: pats, arm: r.arm}
}

// specializeDefault expands a wildcard/var row's head column into
// arity freshly-built wildcard columns before dropping it, so the row
// stays aligned with the other rows in whichever case matrix it is
// merged into (standard Maranget matrix specialization). arity is 0
// for the unconditional Default branch, where no columns are added.
func specializeDefault(r row, arity int) row {
	pats := make([]ast.Pattern, 0, arity+len(r.pats)-1)
	for i := 0; i < arity; i++ {
		pats = append(pats, &ast.WildcardPattern{})
	}
	pats = append(pats, r.pats[1:]...)
	return row{pats: pats, arm: r.arm}
}

// Witness describes one uncovered case, for the NonExhaustivePatternMatch
// diagnostic (spec §4.1: "Missing cases → NonExhaustivePatternMatch
// carrying a witness").
type Witness struct {
	Description string
}

// CheckExhaustive walks the compiled tree looking for a reachable Fail
// node, reporting the constructor path that leads to it.
func CheckExhaustive(t Tree) (*Witness, bool) {
	return checkNode(t, nil)
}

func checkNode(t Tree, path []string) (*Witness, bool) {
	switch n := t.(type) {
	case *Fail:
		desc := "_"
		if len(path) > 0 {
			desc = strings.Join(path, " -> ")
		}
		return &Witness{Description: desc}, false
	case *Leaf:
		return nil, true
	case *Switch:
		for key, sub := range n.Cases {
			if w, ok := checkNode(sub, append(path, key)); !ok {
				return w, false
			}
		}
		if n.Default != nil {
			if w, ok := checkNode(n.Default, append(path, "_")); !ok {
				return w, false
			}
		}
		return nil, true
	}
	return nil, true
}
