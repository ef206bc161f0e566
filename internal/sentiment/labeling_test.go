package sentiment_test

import (
	"errors"
	"testing"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/domain"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/sentiment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry_NamesCarryIndex(t *testing.T) {
	t.Parallel()

	fns := sentiment.NewDefaultRegistry().Functions()
	require.Len(t, fns, 22)

	want := map[int]string{
		0: "aave_0", 2: "aave_2", 3: "music_pos_3", 6: "music_pos_6", 7: "engagement_7",
		10: "enthus_req_10", 14: "plain_req_14", 17: "plain_req_17", 18: "negative_18", 21: "negative_21",
	}
	for i, name := range want {
		assert.Equal(t, name, fns[i].Name)
	}
	assert.Equal(t, domain.Neutral, fns[14].Label)
	assert.Equal(t, domain.Negative, fns[21].Label)
}

func TestNewRegistry_RejectsBadRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		set  sentiment.RuleSet
	}{
		{"bad pattern", sentiment.RuleSet{{Prefix: "p", Label: domain.Positive, Rules: []sentiment.Rule{{Pattern: "(", Confidence: 0.5}}}}},
		{"zero confidence", sentiment.RuleSet{{Prefix: "p", Label: domain.Positive, Rules: []sentiment.Rule{{Pattern: "x", Confidence: 0}}}}},
		{"confidence above one", sentiment.RuleSet{{Prefix: "p", Label: domain.Positive, Rules: []sentiment.Rule{{Pattern: "x", Confidence: 1.2}}}}},
		{"invalid label", sentiment.RuleSet{{Prefix: "p", Label: 7, Rules: []sentiment.Rule{{Pattern: "x", Confidence: 0.5}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := sentiment.NewRegistry(tt.set)
			var regErr *sentiment.RegistryError
			assert.True(t, errors.As(err, &regErr), "got %v", err)
		})
	}
}

func TestRegistry_MatchIsCaseInsensitiveSearch(t *testing.T) {
	t.Parallel()

	reg := sentiment.NewDefaultRegistry()

	votes := reg.Match("Honestly this is TRASH and BORING")
	require.Len(t, votes, 2)
	assert.Equal(t, "negative_18", votes[0].FunctionName)
	assert.Equal(t, "negative_19", votes[1].FunctionName)

	assert.Empty(t, reg.Match("when does this come out"))
}

func TestExtractBoosters(t *testing.T) {
	t.Parallel()

	b := sentiment.ExtractBoosters("SHEEEESH this is SOOO good!!! 🔥🔥 😍 please")

	assert.Equal(t, 3, b.ExclamationCount)
	assert.InDelta(t, 1.0, b.MultipleExclamations, 0)
	assert.Equal(t, 2, b.ElongationCount)
	assert.Equal(t, 4, b.MaxElongation)
	assert.Equal(t, 2, b.CapsWordCount)
	assert.InDelta(t, 2.0/8.0, b.CapsRatio, 1e-9)
	assert.Equal(t, 2, b.FireEmojiCount)
	assert.Equal(t, 1, b.PositiveEmojiCount)
	assert.Equal(t, 1, b.UrgencyCount)
	assert.InDelta(t, 3*0.2+2*0.3+2*0.4+2*0.5+1*0.3, b.Score(), 1e-9)
}

func TestExtractBoosters_Plain(t *testing.T) {
	t.Parallel()

	b := sentiment.ExtractBoosters("who produced this?")
	assert.Zero(t, b.Score())
	assert.Zero(t, b.MaxElongation)

	assert.Equal(t, 2, sentiment.ExtractBoosters("good").MaxElongation)
}

func TestLabeler_Scenarios(t *testing.T) {
	t.Parallel()

	labeler := sentiment.NewLabeler(sentiment.NewDefaultRegistry())

	tests := []struct {
		name          string
		text          string
		want          domain.SentimentLabel
		minConfidence float64
		explanation   string
	}{
		{"aave praise with fire", "my nigga snapped 🔥🔥🔥", domain.Positive, 0.7, "Functions: aave_0, aave_1 + boosters (1.5)"},
		{"plain request", "who produced this?", domain.Neutral, 0.99, "Functions: plain_req_14"},
		{"enthusiastic request", "drop the album already!!", domain.Positive, 0.99, "Functions: enthus_req_10 + boosters (0.7)"},
		{"negative", "this is trash", domain.Negative, 0.99, "Functions: negative_18"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			wl := labeler.Label(tt.text)
			require.NotNil(t, wl.FinalLabel)
			assert.Equal(t, tt.want, *wl.FinalLabel)
			assert.GreaterOrEqual(t, wl.Confidence, tt.minConfidence)
			assert.Equal(t, tt.explanation, wl.Explanation)
			assert.Equal(t, tt.text, wl.Text)
		})
	}
}

func TestLabeler_NoMatchIsNoOpinion(t *testing.T) {
	t.Parallel()

	wl := sentiment.NewLabeler(sentiment.NewDefaultRegistry()).Label("LETS GOOOO!!!")

	assert.Nil(t, wl.FinalLabel)
	assert.Zero(t, wl.Confidence)
	assert.Equal(t, "No patterns matched", wl.Explanation)
}

func TestLabeler_Deterministic(t *testing.T) {
	t.Parallel()

	labeler := sentiment.NewLabeler(sentiment.NewDefaultRegistry())
	for _, text := range []string{"she ate that", "clean version", "mid but the vibe is there!!", ""} {
		assert.Equal(t, labeler.Label(text), labeler.Label(text), text)
	}
}

func TestLabeler_ApplyPreservesOrder(t *testing.T) {
	t.Parallel()

	texts := []string{"mid", "nothing here", "absolute banger", "mid"}
	out := sentiment.NewLabeler(sentiment.NewDefaultRegistry()).Apply(texts)

	require.Len(t, out, len(texts))
	for i, wl := range out {
		assert.Equal(t, texts[i], wl.Text)
	}
	assert.Nil(t, out[1].FinalLabel)
}

func TestResolve_TieBreakOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		votes []domain.LabelVote
		want  domain.SentimentLabel
	}{
		{"positive beats negative", []domain.LabelVote{{"n", domain.Negative, 0.7}, {"p", domain.Positive, 0.7}}, domain.Positive},
		{"positive beats neutral", []domain.LabelVote{{"u", domain.Neutral, 0.7}, {"p", domain.Positive, 0.7}}, domain.Positive},
		{"negative beats neutral", []domain.LabelVote{{"u", domain.Neutral, 0.7}, {"n", domain.Negative, 0.7}}, domain.Negative},
		{"three way", []domain.LabelVote{{"u", domain.Neutral, 0.5}, {"n", domain.Negative, 0.5}, {"p", domain.Positive, 0.5}}, domain.Positive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			wl := sentiment.Resolve("x", tt.votes, 0)
			require.NotNil(t, wl.FinalLabel)
			assert.Equal(t, tt.want, *wl.FinalLabel)
		})
	}
}

func TestResolve_ExplanationListsFirstThree(t *testing.T) {
	t.Parallel()

	votes := []domain.LabelVote{
		{"a", domain.Positive, 0.5}, {"b", domain.Positive, 0.5}, {"c", domain.Positive, 0.5}, {"d", domain.Negative, 0.5},
	}
	wl := sentiment.Resolve("x", votes, 0.5)

	assert.Equal(t, "Functions: a, b, c", wl.Explanation, "0.5 is not above the booster threshold")
	assert.InDelta(t, 0.75, wl.Confidence, 1e-9)
}

func TestResolve_BoostersNeverProduceNegative(t *testing.T) {
	t.Parallel()

	labeler := sentiment.NewLabeler(sentiment.NewDefaultRegistry())
	texts := []string{
		"WHY IS THIS SO LOUD!!!!!!",
		"clean version NOW!!! 🔥🔥🔥",
		"lyrics?",
		"GOOOOO AAAAA 🔥🔥🔥🔥🔥 please asap",
	}
	for _, text := range texts {
		wl := labeler.Label(text)
		if wl.FinalLabel != nil {
			assert.NotEqual(t, domain.Negative, *wl.FinalLabel, text)
		}
	}

	boosted := sentiment.Resolve("x", []domain.LabelVote{{"n", domain.Negative, 0.85}}, 3.0)
	require.NotNil(t, boosted.FinalLabel)
	assert.Equal(t, domain.Positive, *boosted.FinalLabel, "boosters add to the positive vote only")
}

func TestResolve_ConfidenceBounds(t *testing.T) {
	t.Parallel()

	labeler := sentiment.NewLabeler(sentiment.NewDefaultRegistry())
	texts := []string{
		"", "mid", "FIRE!!!!!!", "who produced this?", "trash but the vibe slaps 🔥",
		"she ate that no cap, on repeat, absolute banger!!!", "boring generic cringe trash",
	}
	for _, text := range texts {
		wl := labeler.Label(text)
		assert.GreaterOrEqual(t, wl.Confidence, 0.0, text)
		assert.LessOrEqual(t, wl.Confidence, 1.0, text)
	}
}

func TestRegistry_CoverageMonotonicity(t *testing.T) {
	t.Parallel()

	base := sentiment.RuleSet{
		{Prefix: "pos", Label: domain.Positive, Rules: []sentiment.Rule{{Pattern: `\bfire\b`, Confidence: 0.8}}},
		{Prefix: "neg", Label: domain.Negative, Rules: []sentiment.Rule{{Pattern: `\bmid\b`, Confidence: 0.85}}},
	}
	extended := append(sentiment.RuleSet{}, base...)
	extended = append(extended, sentiment.RuleGroup{
		Prefix: "extra", Label: domain.Positive, Rules: []sentiment.Rule{{Pattern: `\bbeat\b`, Confidence: 0.6}},
	})

	baseReg, err := sentiment.NewRegistry(base)
	require.NoError(t, err)
	extReg, err := sentiment.NewRegistry(extended)
	require.NoError(t, err)

	weight := func(votes []domain.LabelVote, label domain.SentimentLabel) float64 {
		var sum float64
		for _, v := range votes {
			if v.Label == label {
				sum += v.Confidence
			}
		}
		return sum
	}

	for _, text := range []string{"fire beat", "mid beat", "beat", "fire"} {
		for _, label := range domain.Labels {
			assert.GreaterOrEqual(t, weight(extReg.Match(text), label), weight(baseReg.Match(text), label), "%s/%s", text, label)
		}
	}
}
