package compiler

import (
	"strings"
	"unicode"

	"github.com/interview-prep/judge/pkg/constants"
)

// Guard rejects degenerate submissions before any process is spawned.
type Guard interface {
	// IsDegenerate reports whether source is too short or equal to the
	// starter template once comments and whitespace are removed. An empty
	// starter means the default template.
	IsDegenerate(source, starter string) bool
}

type guard struct {
	minLength int
}

func NewGuard(minLength int) Guard {
	if minLength < 0 {
		minLength = 0
	}
	return &guard{minLength: minLength}
}

func (g *guard) IsDegenerate(source, starter string) bool {
	if starter == "" {
		starter = constants.DefaultStarterCode
	}
	stripped := Canonicalize(source)
	if len(stripped) < g.minLength {
		return true
	}
	return stripped == Canonicalize(starter)
}

// Canonicalize removes // and /* */ comments and every whitespace rune.
// Comment markers inside string and character literals are kept.
func Canonicalize(source string) string {
	var out strings.Builder
	out.Grow(len(source))

	runes := []rune(source)
	n := len(runes)
	for i := 0; i < n; i++ {
		r := runes[i]
		switch {
		case r == '/' && i+1 < n && runes[i+1] == '/':
			for i < n && runes[i] != '\n' {
				i++
			}
		case r == '/' && i+1 < n && runes[i+1] == '*':
			i += 2
			for i < n && !(runes[i] == '*' && i+1 < n && runes[i+1] == '/') {
				i++
			}
			i++
		case r == '"' || r == '\'':
			i = copyLiteral(&out, runes, i)
		case unicode.IsSpace(r):
		default:
			out.WriteRune(r)
		}
	}
	return out.String()
}

// copyLiteral writes the literal opened at runes[start] verbatim and returns
// the index of its closing quote. Unterminated literals run to the end of the line.
func copyLiteral(out *strings.Builder, runes []rune, start int) int {
	quote := runes[start]
	out.WriteRune(quote)
	i := start + 1
	for ; i < len(runes); i++ {
		r := runes[i]
		if r == '\\' && i+1 < len(runes) {
			out.WriteRune(r)
			out.WriteRune(runes[i+1])
			i++
			continue
		}
		if r == '\n' {
			return i
		}
		out.WriteRune(r)
		if r == quote {
			return i
		}
	}
	return i
}
