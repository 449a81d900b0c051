package infer

import (
	"fmt"

	"github.com/bendu-lang/bendu/internal/token"
	"github.com/bendu-lang/bendu/internal/types"
)

// TypeMismatchError is spec §7's Type/mismatch taxonomy entry.
type TypeMismatchError struct {
	Expected, Actual types.Type
	Tok              token.Token
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%d:%d: type mismatch: expected %s, got %s", e.Tok.Line, e.Tok.Column, e.Expected, e.Actual)
}

// UnknownIdentifierError carries Levenshtein-based suggestions, per
// spec §7 ("unknown identifier (with similar-name suggestions)").
type UnknownIdentifierError struct {
	Name        string
	Suggestions []string
	Tok         token.Token
}

func (e *UnknownIdentifierError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("%d:%d: unknown identifier %q", e.Tok.Line, e.Tok.Column, e.Name)
	}
	return fmt.Sprintf("%d:%d: unknown identifier %q (did you mean %q?)", e.Tok.Line, e.Tok.Column, e.Name, e.Suggestions[0])
}

// NonExhaustiveMatchError carries the dtree witness.
type NonExhaustiveMatchError struct {
	Witness string
	Tok     token.Token
}

func (e *NonExhaustiveMatchError) Error() string {
	return fmt.Sprintf("%d:%d: non-exhaustive match, missing case: %s", e.Tok.Line, e.Tok.Column, e.Witness)
}

// OverlappingPatternWarning is a warning, not a hard error (spec §9's
// Open Question resolves to "adopt warnings uniformly").
type OverlappingPatternWarning struct {
	ArmIndex int
	Tok      token.Token
}

func (e *OverlappingPatternWarning) Error() string {
	return fmt.Sprintf("%d:%d: warning: match arm %d is unreachable (overlapping pattern)", e.Tok.Line, e.Tok.Column, e.ArmIndex)
}

// DuplicateDefinitionError is the Semantic/duplicate-definition case.
type DuplicateDefinitionError struct {
	Name string
	Tok  token.Token
}

func (e *DuplicateDefinitionError) Error() string {
	return fmt.Sprintf("%d:%d: %q is already defined in this scope", e.Tok.Line, e.Tok.Column, e.Name)
}

// CircularAliasError is the Semantic/circular-type-alias case, raised
// only when the cycle isn't protected by a structural type (spec §7).
type CircularAliasError struct {
	Name string
	Tok  token.Token
}

func (e *CircularAliasError) Error() string {
	return fmt.Sprintf("%d:%d: circular type alias: %s", e.Tok.Line, e.Tok.Column, e.Name)
}
