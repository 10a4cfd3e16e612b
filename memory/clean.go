package memory

import (
	"strings"
	"unicode"
)

// CleanText normalizes a memory description the way the stored cleaned
// table was built: lowercased, punctuation dropped, whitespace collapsed
// to single spaces. The embedding matrix is computed over cleaned text, so
// anything embedded for comparison against it must share this
// normalization.
func CleanText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = true
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		}
	}
	return b.String()
}
