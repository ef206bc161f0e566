package analyzer

import (
	"context"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/domain"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/sentiment"
)

// Sentiment analyzer names and priorities.
const (
	WeakSupervisionName = "weak_supervision"
	RuleBasedName       = "rule_based"

	weakSupervisionPriority = 100
	ruleBasedPriority       = 10

	ruleBasedVersion = "rules"
)

// SentimentAnalyzer scores the sentiment of one text.
type SentimentAnalyzer interface {
	Capability
	Predict(ctx context.Context, text string) (domain.Prediction, error)
	// ModelVersion identifies what produced the prediction.
	ModelVersion() string
}

// WeakSupervision serves predictions from the trained calibrated model. It
// is available once a model has been trained or loaded.
type WeakSupervision struct {
	analyzer *sentiment.Analyzer
}

// NewWeakSupervision wraps a sentiment analyzer.
func NewWeakSupervision(a *sentiment.Analyzer) *WeakSupervision {
	return &WeakSupervision{analyzer: a}
}

func (w *WeakSupervision) Name() string    { return WeakSupervisionName }
func (w *WeakSupervision) Priority() int   { return weakSupervisionPriority }
func (w *WeakSupervision) Available() bool { return w.analyzer.Trained() }

// Predict scores text with the current model.
func (w *WeakSupervision) Predict(ctx context.Context, text string) (domain.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return domain.Prediction{}, err
	}
	return w.analyzer.Predict(text)
}

// ModelVersion returns the run id of the current model.
func (w *WeakSupervision) ModelVersion() string {
	if m := w.analyzer.Model(); m != nil {
		return m.Report.RunID
	}
	return ""
}

// RuleBased predicts straight from the labeling functions and boosters. It
// needs no model and is always available.
type RuleBased struct {
	labeler *sentiment.Labeler
}

// NewRuleBased returns a rule-based analyzer over registry.
func NewRuleBased(registry *sentiment.Registry) *RuleBased {
	return &RuleBased{labeler: sentiment.NewLabeler(registry)}
}

func (r *RuleBased) Name() string         { return RuleBasedName }
func (r *RuleBased) Priority() int        { return ruleBasedPriority }
func (r *RuleBased) Available() bool      { return true }
func (r *RuleBased) ModelVersion() string { return ruleBasedVersion }

// Predict gives the resolved label its weak-label confidence and splits the
// rest evenly over the other classes. Text no rule matches is neutral with a
// uniform distribution.
func (r *RuleBased) Predict(ctx context.Context, text string) (domain.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return domain.Prediction{}, err
	}

	wl := r.labeler.Label(text)
	if wl.FinalLabel == nil {
		third := 1.0 / 3.0
		return domain.Prediction{
			SentimentScore: float64(domain.Neutral),
			Confidence:     third,
			Probabilities:  domain.Probabilities{Positive: third, Neutral: third, Negative: third},
		}, nil
	}

	label := *wl.FinalLabel
	rest := (1 - wl.Confidence) / 2
	probs := domain.Probabilities{Positive: rest, Neutral: rest, Negative: rest}
	switch label {
	case domain.Positive:
		probs.Positive = wl.Confidence
	case domain.Neutral:
		probs.Neutral = wl.Confidence
	case domain.Negative:
		probs.Negative = wl.Confidence
	}
	return domain.Prediction{
		SentimentScore: float64(label),
		Confidence:     wl.Confidence,
		Probabilities:  probs,
	}, nil
}
