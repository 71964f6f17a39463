package record

import (
	"strings"
	"unicode"
)

// Tokenize splits an identifier-like string at CamelCase, snake_case,
// and digit-run boundaries, folding case for indexing. The original
// string is never mutated; only the returned tokens are folded.
//
// "CppCamelCaseSymbol" -> ["cpp", "camel", "case", "symbol"]
// "uses_c_function"    -> ["uses", "c", "function"]
// "buf8kB"              -> ["buf", "8", "kb"]
func Tokenize(s string) []string {
	var tokens []string
	var cur strings.Builder
	// afterDigit marks that cur's token opened immediately after a
	// digit run (e.g. the "k" in "8kB"). A single letter in that
	// position is a unit suffix, not a new CamelCase word, so the
	// next uppercase letter shouldn't split it away unless another
	// lowercase letter follows to confirm a genuine new word.
	afterDigit := false

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, strings.ToLower(cur.String()))
			cur.Reset()
		}
		afterDigit = false
	}

	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == '.' || unicode.IsSpace(r):
			flush()
		case unicode.IsDigit(r):
			if i > 0 && !unicode.IsDigit(runes[i-1]) {
				flush()
			}
			cur.WriteRune(r)
		case unicode.IsUpper(r):
			prevDigit := i > 0 && unicode.IsDigit(runes[i-1])
			prevLower := i > 0 && unicode.IsLower(runes[i-1])
			// Split before a single uppercase letter that starts
			// a new word, and before the last uppercase letter of
			// a run when it's followed by a lowercase letter
			// (e.g. "HTTPServer" -> "http", "server").
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			prevUpper := i > 0 && unicode.IsUpper(runes[i-1])
			switch {
			case afterDigit && cur.Len() == 1 && prevLower:
				if nextLower {
					flush()
				}
			case prevLower || prevDigit || (prevUpper && nextLower):
				flush()
			}
			cur.WriteRune(r)
		default:
			if i > 0 && unicode.IsDigit(runes[i-1]) {
				flush()
				afterDigit = true
			}
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}

// TokenizePath splits a path on path separators, in addition to the
// normal identifier splitting within each component (spec §4.2).
func TokenizePath(p string) []string {
	var tokens []string
	for _, part := range strings.FieldsFunc(p, func(r rune) bool {
		return r == '/' || r == '\\'
	}) {
		tokens = append(tokens, Tokenize(part)...)
	}
	return tokens
}
