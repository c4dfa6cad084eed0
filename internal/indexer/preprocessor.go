package indexer

import (
	"strings"
	"unicode"
)

// invisible runes that extractors leave behind in PDF and Office text.
var invisible = strings.NewReplacer(
	"\u00ad", "", // soft hyphen
	"\u200b", "",
	"\u200c", "",
	"\u200d", "",
	"\ufeff", "",
)

// Preprocess cleans extracted text before chunking: invisible runes and control
// characters are dropped, words hyphenated across a line break are rejoined and
// whitespace runs collapse to a single space.
func Preprocess(text string) string {
	text = invisible.Replace(text)
	text = strings.ReplaceAll(text, "-\r\n", "")
	text = strings.ReplaceAll(text, "-\n", "")

	var b strings.Builder
	b.Grow(len(text))
	pending := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			pending = b.Len() > 0
		case unicode.IsControl(r) || r == unicode.ReplacementChar:
		default:
			if pending {
				b.WriteByte(' ')
				pending = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}
