package text

import (
	"strings"
	"unicode"
)

// Tokenize splits s into alternating word and single-space tokens.
// Runs of whitespace collapse into one " " token. No-break spaces stay inside words.
func Tokenize(s string) []string {
	var (
		tokens []string
		cur    strings.Builder
	)
	inSpace := false
	for _, r := range s {
		if isBreakingSpace(r) {
			if !inSpace {
				if cur.Len() > 0 {
					tokens = append(tokens, cur.String())
					cur.Reset()
				}
				tokens = append(tokens, " ")
			}
			inSpace = true
			continue
		}
		inSpace = false
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

func isBreakingSpace(r rune) bool {
	return r != '\u00a0' && unicode.IsSpace(r)
}

// IsSpace reports whether the token consists of whitespace only.
func IsSpace(s string) bool {
	return s != "" && strings.TrimFunc(s, isBreakingSpace) == ""
}

// NormalizeWhitespace collapses runs of whitespace into a single space while
// keeping a leading or trailing space.
func NormalizeWhitespace(s string) string {
	var b strings.Builder
	last := false
	for _, r := range s {
		if isBreakingSpace(r) {
			if !last {
				b.WriteByte(' ')
			}
			last = true
			continue
		}
		b.WriteRune(r)
		last = false
	}
	return b.String()
}
