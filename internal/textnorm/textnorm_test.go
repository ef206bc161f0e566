package textnorm_test

import (
	"testing"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/textnorm"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"case and whitespace", "  THIS   Slaps\t\nHARD ", "this slaps hard"},
		{"fullwidth compatibility", "ＦＩＲＥ", "fire"},
		{"sharp s folds", "STRAßE", "strasse"},
		{"emoji kept", "Love This 🔥🔥", "love this 🔥🔥"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, textnorm.Normalize(tt.input))
		})
	}
}

func TestStripAndCountEmoji(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input     string
		stripped  string
		emojiSeen int
	}{
		{"🔥🔥🔥🔥🔥", "", 5},
		{"love 🔥 this", "love  this", 1},
		{"🌊 wavy ✨", "wavy", 2},
		{"no emoji here", "no emoji here", 0},
		{"heart \u2764\ufe0f", "heart \ufe0f", 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.stripped, textnorm.StripEmoji(tt.input), "strip %q", tt.input)
		assert.Equal(t, tt.emojiSeen, textnorm.CountEmoji(tt.input), "count %q", tt.input)
	}
}

func TestIsEmoji(t *testing.T) {
	t.Parallel()

	assert.True(t, textnorm.IsEmoji('🔥'))
	assert.True(t, textnorm.IsEmoji('☀'))
	assert.True(t, textnorm.IsEmoji('✂'))
	assert.False(t, textnorm.IsEmoji('a'))
	assert.False(t, textnorm.IsEmoji('\ufe0f'))
}
