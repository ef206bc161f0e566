package sentiment

import (
	"errors"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/domain"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/tfidf"
)

// ErrModelNotTrained is returned by prediction before a model is trained or loaded.
var ErrModelNotTrained = errors.New("model not trained")

// TrainedModel is a fitted vectorizer and classifier, plus the calibration
// ensemble when there was enough data for it. It is immutable after training
// and safe for concurrent prediction.
type TrainedModel struct {
	Vectorizer *tfidf.Vectorizer
	Classifier *LogisticRegression
	Folds      []CalibrationFold
	// Functions records the labeling functions that produced the training
	// labels. It is provenance only; prediction never applies them.
	Functions []domain.LabelingFunction
	Report    domain.TrainingReport
}

// Calibrated reports whether predictions use the isotonic ensemble.
func (m *TrainedModel) Calibrated() bool { return len(m.Folds) > 0 }

// Classes returns the class order of Proba.
func (m *TrainedModel) Classes() []domain.SentimentLabel { return m.Classifier.Classes }

// Proba returns class probabilities for text in Classes order: the mean of
// the fold probabilities when calibrated, the softmax otherwise.
func (m *TrainedModel) Proba(text string) []float64 {
	return m.probaRow(m.Vectorizer.Transform(text))
}

func (m *TrainedModel) probaRow(row tfidf.SparseVector) []float64 {
	if !m.Calibrated() {
		return m.Classifier.Proba(row)
	}

	mean := make([]float64, len(m.Classifier.Classes))
	for _, fold := range m.Folds {
		for c, p := range fold.proba(row) {
			mean[c] += p
		}
	}
	for c := range mean {
		mean[c] /= float64(len(m.Folds))
	}
	return mean
}

// Predict returns the calibrated label, confidence and distribution for text.
func (m *TrainedModel) Predict(text string) (domain.Prediction, error) {
	if m == nil || m.Vectorizer == nil || m.Classifier == nil {
		return domain.Prediction{}, ErrModelNotTrained
	}
	return m.predictionFrom(m.Proba(text)), nil
}

func (m *TrainedModel) predictionFrom(probs []float64) domain.Prediction {
	best := 0
	for c, p := range probs {
		if p > probs[best] {
			best = c
		}
	}

	var dist domain.Probabilities
	for c, class := range m.Classifier.Classes {
		switch class {
		case domain.Positive:
			dist.Positive = probs[c]
		case domain.Neutral:
			dist.Neutral = probs[c]
		case domain.Negative:
			dist.Negative = probs[c]
		}
	}

	return domain.Prediction{
		SentimentScore: float64(m.Classifier.Classes[best]),
		Confidence:     probs[best],
		Probabilities:  dist,
	}
}
