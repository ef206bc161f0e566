package sentiment

import (
	"regexp"
	"strings"
)

// Booster weights in the intensity score.
const (
	exclamationWeight = 0.2
	elongationWeight  = 0.3
	capsWordWeight    = 0.4
	fireEmojiWeight   = 0.5
	urgencyWeight     = 0.3

	// minElongationRun is the run length that counts as letter elongation.
	minElongationRun = 3
)

var (
	capsWordRe = regexp.MustCompile(`\b[A-Z]{2,}\b`)

	urgencyWords = []string{"now", "already", "asap", "please"}

	positiveEmoji = map[rune]struct{}{
		'😍': {}, '\u2764': {}, '\uFE0F': {}, '💯': {}, '👑': {}, '🎵': {}, '🎶': {},
	}
)

// BoosterFeatures holds paralinguistic intensity markers of one text.
type BoosterFeatures struct {
	ExclamationCount     int     `json:"exclamation_count"`
	MultipleExclamations float64 `json:"multiple_exclamations"`
	ElongationCount      int     `json:"elongation_count"`
	MaxElongation        int     `json:"max_elongation"`
	CapsWordCount        int     `json:"caps_word_count"`
	CapsRatio            float64 `json:"caps_ratio"`
	FireEmojiCount       int     `json:"fire_emoji_count"`
	PositiveEmojiCount   int     `json:"positive_emoji_count"`
	UrgencyCount         int     `json:"urgency_count"`
}

// Score is the fixed linear intensity score. It only ever strengthens the
// positive vote.
func (b BoosterFeatures) Score() float64 {
	return exclamationWeight*float64(b.ExclamationCount) +
		elongationWeight*float64(b.ElongationCount) +
		capsWordWeight*float64(b.CapsWordCount) +
		fireEmojiWeight*float64(b.FireEmojiCount) +
		urgencyWeight*float64(b.UrgencyCount)
}

// ExtractBoosters computes the booster features of text.
func ExtractBoosters(text string) BoosterFeatures {
	var b BoosterFeatures

	b.ExclamationCount = strings.Count(text, "!")
	if strings.Contains(text, "!!") {
		b.MultipleExclamations = 1
	}

	lower := strings.ToLower(text)
	b.ElongationCount, b.MaxElongation = letterRuns(lower)

	b.CapsWordCount = len(capsWordRe.FindAllStringIndex(text, -1))
	if words := len(strings.Fields(text)); words > 0 {
		b.CapsRatio = float64(b.CapsWordCount) / float64(words)
	} else {
		b.CapsRatio = float64(b.CapsWordCount)
	}

	for _, r := range text {
		if r == '🔥' {
			b.FireEmojiCount++
		}
		if _, ok := positiveEmoji[r]; ok {
			b.PositiveEmojiCount++
		}
	}

	for _, w := range urgencyWords {
		if strings.Contains(lower, w) {
			b.UrgencyCount++
		}
	}
	return b
}

// letterRuns scans runs of one repeated ASCII letter. It returns how many
// runs reach minElongationRun and the longest run of at least two letters.
func letterRuns(s string) (count, longest int) {
	flush := func(run int) {
		if run >= minElongationRun {
			count++
		}
		if run >= 2 && run > longest {
			longest = run
		}
	}

	var prev byte
	run := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' && c == prev {
			run++
			continue
		}
		flush(run)
		prev, run = 0, 0
		if c >= 'a' && c <= 'z' {
			prev, run = c, 1
		}
	}
	flush(run)
	return count, longest
}
