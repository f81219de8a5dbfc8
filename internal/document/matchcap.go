package document

import (
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MatchCap gives replacement the case class of original:
//
//	(foo, bar) -> bar
//	(Foo, bar) -> Bar
//	(FOO, bar) -> BAR
//
// Any other pattern leaves replacement unchanged.
func MatchCap(original, replacement string) string {
	// Casers keep state and must not be shared between goroutines.
	lower := cases.Lower(language.Und)
	upper := cases.Upper(language.Und)
	switch {
	case original == lower.String(original):
		return replacement
	case original == capitalize(original):
		return capitalize(replacement)
	case original == upper.String(original):
		return upper.String(replacement)
	}
	return replacement
}

func capitalize(s string) string {
	_, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return cases.Upper(language.Und).String(s[:n]) + cases.Lower(language.Und).String(s[n:])
}
