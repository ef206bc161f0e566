// Package textnorm holds the Unicode normalization shared by the sentiment
// and bot-detection pipelines.
package textnorm

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Emoji code point ranges treated as emoji by the bot scorer.
var emojiRanges = [...]struct{ lo, hi rune }{
	{0x1F300, 0x1FAFF}, // pictographs, emoticons, transport, supplemental symbols
	{0x2700, 0x27BF},   // dingbats
	{0x2600, 0x26FF},   // miscellaneous symbols
}

// IsEmoji reports whether r falls in one of the emoji ranges.
func IsEmoji(r rune) bool {
	for _, rg := range emojiRanges {
		if r >= rg.lo && r <= rg.hi {
			return true
		}
	}
	return false
}

// Normalize applies NFKC, full case folding and whitespace collapsing.
// Emoji are preserved.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	// cases.Caser is stateful, so the chain is built per call.
	t := transform.Chain(norm.NFKC, cases.Fold())
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = strings.ToLower(norm.NFKC.String(s))
	}
	return strings.Join(strings.Fields(folded), " ")
}

// Fold lowercases s with full Unicode case folding and no other changes.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// StripEmoji removes emoji code points and trims surrounding space. Interior
// spacing is left as is.
func StripEmoji(s string) string {
	stripped, _, err := transform.String(runes.Remove(runes.Predicate(IsEmoji)), s)
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(stripped)
}

// CountEmoji counts emoji code points in s.
func CountEmoji(s string) int {
	n := 0
	for _, r := range s {
		if IsEmoji(r) {
			n++
		}
	}
	return n
}
