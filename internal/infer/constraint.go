package infer

import (
	"github.com/bendu-lang/bendu/internal/ast"
	"github.com/bendu-lang/bendu/internal/types"
)

// OriginKind classifies why a constraint was emitted (spec §3,
// "Constraints: ordered multiset of pairs t ~ u with provenance").
type OriginKind int

const (
	OriginUnification OriginKind = iota
	OriginSubtyping
	OriginTypeclass
	OriginInference
)

// Constraint is one `t ~ u` pair awaiting solution, carrying enough
// provenance to blame a source location on failure.
type Constraint struct {
	Left, Right Type
	Origin      OriginKind
	Node        ast.Node
}

// Type is a local alias so constraint.go doesn't need to import types
// under a different name at every call site.
type Type = types.Type
