package sentiment_test

import (
	"bytes"
	"encoding/gob"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/domain"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/sentiment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fanComments = []string{
	"my nigga snapped 🔥🔥🔥",
	"drop the album already!!",
	"visuals when?!!",
	"these lyrics!",
	"this slaps",
	"goes hard",
	"sick beat",
	"bro this crazy",
	"she ate that",
	"absolute banger",
	"on my playlist",
	"this is fire 🔥",
	"who produced this?",
	"what's the sample?",
	"lyrics?",
	"when does this come out",
	"this is trash",
	"mid",
	"overrated",
	"who approved this?",
	"hate this",
	"boring",
	"generic",
	"fell off",
	"went double wood",
	"terrible",
}

func repeated(texts []string, times int) []string {
	out := make([]string, 0, len(texts)*times)
	for range times {
		out = append(out, texts...)
	}
	return out
}

func trainFanModel(t *testing.T) (*sentiment.Analyzer, domain.TrainingReport) {
	t.Helper()

	a := sentiment.NewAnalyzer(sentiment.NewDefaultRegistry(), sentiment.DefaultTrainerConfig(), nil)
	report, err := a.Train(repeated(fanComments, 10))
	require.NoError(t, err)
	return a, report
}

func TestBuildCorpus_FiltersByConfidence(t *testing.T) {
	t.Parallel()

	pos, neg := domain.Positive, domain.Negative
	weak := []domain.WeakLabel{
		{Text: "a", FinalLabel: &pos, Confidence: 0.9},
		{Text: "b", FinalLabel: &neg, Confidence: 0.3},
		{Text: "c", Confidence: 0},
		{Text: "a", FinalLabel: &pos, Confidence: 0.31},
	}

	corpus := sentiment.BuildCorpus(weak, sentiment.DefaultMinConfidence)

	assert.Equal(t, []domain.SilverLabeledExample{
		{Text: "a", Label: domain.Positive},
		{Text: "a", Label: domain.Positive},
	}, corpus)
	assert.Equal(t, map[domain.SentimentLabel]int{domain.Positive: 2}, sentiment.LabelDistribution(corpus))
}

func TestTrain_FailsFastOnSmallCorpus(t *testing.T) {
	t.Parallel()

	a := sentiment.NewAnalyzer(sentiment.NewDefaultRegistry(), sentiment.DefaultTrainerConfig(), nil)
	_, err := a.Train(repeated(fanComments, 2))

	require.Error(t, err)
	assert.True(t, errors.Is(err, sentiment.ErrInsufficientLabeledData))
	assert.Contains(t, err.Error(), "need at least 100")
	assert.False(t, a.Trained())

	_, err = a.Predict("mid")
	assert.ErrorIs(t, err, sentiment.ErrModelNotTrained)
}

func TestTrain_CalibratedModel(t *testing.T) {
	t.Parallel()

	a, report := trainFanModel(t)

	assert.True(t, report.Calibrated)
	assert.Equal(t, 3, report.CalibrationFolds)
	assert.Equal(t, 250, report.TrainingSize)
	assert.Equal(t, map[domain.SentimentLabel]int{
		domain.Positive: 120,
		domain.Neutral:  30,
		domain.Negative: 100,
	}, report.LabelDistribution)
	assert.Greater(t, report.MacroF1, 0.8)
	assert.NotEmpty(t, report.RunID)
	assert.False(t, report.TrainedAt.IsZero())

	tests := []struct {
		text string
		want domain.SentimentLabel
	}{
		{"this is trash", domain.Negative},
		{"absolute banger", domain.Positive},
		{"who produced this?", domain.Neutral},
		{"went double wood", domain.Negative},
	}
	for _, tt := range tests {
		pred, err := a.Predict(tt.text)
		require.NoError(t, err)
		assert.Equal(t, tt.want, pred.Label(), tt.text)
	}
}

func TestTrain_PredictionInvariants(t *testing.T) {
	t.Parallel()

	a, _ := trainFanModel(t)

	texts := []string{"", "!!!", "this is trash", "unseen words entirely", "fire", strings.Repeat("banger ", 50)}
	preds, err := a.PredictBatch(texts)
	require.NoError(t, err)
	require.Len(t, preds, len(texts))

	for i, p := range preds {
		sum := p.Probabilities.Positive + p.Probabilities.Neutral + p.Probabilities.Negative
		assert.InDelta(t, 1.0, sum, 1e-6, texts[i])
		assert.GreaterOrEqual(t, p.Confidence, 0.0)
		assert.LessOrEqual(t, p.Confidence, 1.0)

		maxProb := math.Max(p.Probabilities.Positive, math.Max(p.Probabilities.Neutral, p.Probabilities.Negative))
		assert.InDelta(t, maxProb, p.Confidence, 1e-12, texts[i])
		assert.Contains(t, []float64{-1, 0, 1}, p.SentimentScore)
	}

	again, err := a.PredictBatch(texts)
	require.NoError(t, err)
	assert.Equal(t, preds, again)
}

func TestTrainer_UncalibratedWhenClassTooSmall(t *testing.T) {
	t.Parallel()

	corpus := make([]domain.SilverLabeledExample, 0, 122)
	for i := range 120 {
		text := "this slaps"
		if i%2 == 0 {
			text = "absolute banger"
		}
		corpus = append(corpus, domain.SilverLabeledExample{Text: text, Label: domain.Positive})
	}
	corpus = append(corpus,
		domain.SilverLabeledExample{Text: "trash", Label: domain.Negative},
		domain.SilverLabeledExample{Text: "garbage", Label: domain.Negative},
	)

	model, err := sentiment.NewTrainer(sentiment.DefaultTrainerConfig(), nil).Fit(corpus, nil)
	require.NoError(t, err)

	assert.False(t, model.Calibrated())
	assert.False(t, model.Report.Calibrated)
	assert.Zero(t, model.Report.CalibrationFolds)
	assert.Equal(t, []domain.SentimentLabel{domain.Negative, domain.Positive}, model.Classes())

	pred, err := model.Predict("absolute banger")
	require.NoError(t, err)
	assert.Equal(t, domain.Positive, pred.Label())
	assert.Zero(t, pred.Probabilities.Neutral)
	assert.InDelta(t, 1.0, pred.Probabilities.Positive+pred.Probabilities.Negative, 1e-9)
}

func TestTrainer_SingleClassFails(t *testing.T) {
	t.Parallel()

	corpus := make([]domain.SilverLabeledExample, 100)
	for i := range corpus {
		corpus[i] = domain.SilverLabeledExample{Text: "this slaps", Label: domain.Positive}
	}

	_, err := sentiment.NewTrainer(sentiment.DefaultTrainerConfig(), nil).Fit(corpus, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, sentiment.ErrInsufficientLabeledData)
}

func TestModel_SaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	trained, report := trainFanModel(t)
	path := filepath.Join(t.TempDir(), "models", "sentiment.gob")
	require.NoError(t, trained.Save(path))

	loaded := sentiment.NewAnalyzer(sentiment.NewDefaultRegistry(), sentiment.DefaultTrainerConfig(), nil)
	require.NoError(t, loaded.Load(path))

	model := loaded.Model()
	require.NotNil(t, model)
	assert.Equal(t, report.RunID, model.Report.RunID)
	assert.Len(t, model.Functions, 22)
	assert.True(t, model.Calibrated())

	for _, text := range append(fanComments, "something new", "") {
		want, err := trained.Predict(text)
		require.NoError(t, err)
		got, err := loaded.Predict(text)
		require.NoError(t, err)
		assert.Equal(t, want, got, text)
	}
}

func TestReadModel_RejectsOtherVersions(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(struct {
		Version int
		Model   *sentiment.TrainedModel
	}{Version: 99}))

	_, err := sentiment.ReadModel(&buf)
	assert.ErrorIs(t, err, sentiment.ErrArtifactVersion)
}

func TestLoadModel_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := sentiment.LoadModel(filepath.Join(t.TempDir(), "absent.gob"))
	require.Error(t, err)
}

func TestSave_WithoutModel(t *testing.T) {
	t.Parallel()

	a := sentiment.NewAnalyzer(sentiment.NewDefaultRegistry(), sentiment.DefaultTrainerConfig(), nil)
	assert.ErrorIs(t, a.Save(filepath.Join(t.TempDir(), "m.gob")), sentiment.ErrModelNotTrained)
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	a, _ := trainFanModel(t)

	result, err := a.Evaluate(sentiment.DefaultEvaluationSet())
	require.NoError(t, err)

	assert.Equal(t, 20, result.Total)
	assert.Equal(t, result.Total-len(result.Misses), result.Correct)
	assert.InDelta(t, float64(result.Correct)/20, result.Accuracy, 1e-12)
	assert.GreaterOrEqual(t, result.MacroF1, 0.0)
	assert.LessOrEqual(t, result.MacroF1, 1.0)
	assert.NotEmpty(t, result.PerClass)
	for _, miss := range result.Misses {
		assert.NotEqual(t, miss.Expected, miss.Predicted)
	}

	_, err = a.Evaluate(nil)
	require.Error(t, err)

	_, err = sentiment.Evaluate(nil, sentiment.DefaultEvaluationSet())
	assert.ErrorIs(t, err, sentiment.ErrModelNotTrained)
}
