package utils

import (
	"unicode"
	"unicode/utf8"
)

// ModuleMemberFallbackName flattens a dotted builtin name's module and
// member into one camelCase name ("string" and "length" give
// "stringLength"), the second spelling internal/builtins registers
// each builtin under besides its dotted name. Bendu's parser has no
// method-call sugar that produces this form. Returns "" for either
// empty part, since a half-formed name can never resolve to a builtin
// id.
func ModuleMemberFallbackName(moduleName, member string) string {
	if moduleName == "" || member == "" {
		return ""
	}
	first, width := utf8.DecodeRuneInString(member)
	if first == utf8.RuneError && width == 0 {
		return ""
	}
	capitalized := unicode.ToUpper(first)
	if capitalized == first {
		return moduleName + member
	}
	return moduleName + string(capitalized) + member[width:]
}
