package condition

import (
	"fmt"
	"strings"
	"unicode"
)

// Validate rejects syntax a condition never needs. Quoted text is ignored.
func Validate(cond string) error {
	bare := stripQuoted(strings.TrimSpace(cond))
	if strings.TrimSpace(bare) == "" {
		return nil
	}

	illegalChars := []rune{'{', '}', '[', ']', ';', ':', '?', '@', '#', '$', '\\', '|', '&'}
	for _, ch := range illegalChars {
		if strings.ContainsRune(bare, ch) {
			return fmt.Errorf("illegal character %q", ch)
		}
	}

	for i := 0; i < len(bare)-1; i++ {
		if bare[i] == '.' && i > 0 && isIdent(bare[i-1]) && !unicode.IsDigit(rune(bare[i-1])) {
			return fmt.Errorf("dot access is not allowed")
		}
	}

	for i := 0; i < len(bare); i++ {
		if bare[i] != '(' {
			continue
		}
		j := i - 1
		for j >= 0 && unicode.IsSpace(rune(bare[j])) {
			j--
		}
		if j >= 0 && isIdent(bare[j]) {
			k := j
			for k >= 0 && isIdent(bare[k]) {
				k--
			}
			if ident := strings.TrimSpace(bare[k+1 : j+1]); ident != "" {
				return fmt.Errorf("function calls are not allowed (found %q(...))", ident)
			}
		}
	}

	return nil
}

func isIdent(c byte) bool {
	return c == '_' || unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c))
}

// stripQuoted blanks the contents of quoted strings, keeping the quotes.
func stripQuoted(s string) string {
	var b strings.Builder
	var quote rune
	escape := false

	for _, r := range s {
		switch {
		case escape:
			escape = false
			b.WriteRune(' ')
		case quote != 0 && r == '\\':
			escape = true
			b.WriteRune(' ')
		case quote != 0 && r == quote:
			quote = 0
			b.WriteRune(r)
		case quote != 0:
			b.WriteRune(' ')
		case r == '"' || r == '\'':
			quote = r
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
