// Package domain holds the types shared by the sentiment and bot-detection pipelines.
package domain

import (
	"fmt"
	"time"
)

// SentimentLabel is a sentiment class with its numeric value.
type SentimentLabel int

const (
	Negative SentimentLabel = -1
	Neutral  SentimentLabel = 0
	Positive SentimentLabel = 1
)

// Labels lists every class in tie-break order.
var Labels = []SentimentLabel{Positive, Negative, Neutral}

func (l SentimentLabel) String() string {
	switch l {
	case Positive:
		return "positive"
	case Negative:
		return "negative"
	case Neutral:
		return "neutral"
	default:
		return fmt.Sprintf("label(%d)", int(l))
	}
}

// Valid reports whether l is one of the three classes.
func (l SentimentLabel) Valid() bool {
	return l == Positive || l == Neutral || l == Negative
}

// ParseSentimentLabel accepts the lowercase name or the uppercase constant name.
func ParseSentimentLabel(s string) (SentimentLabel, error) {
	switch s {
	case "positive", "POSITIVE":
		return Positive, nil
	case "neutral", "NEUTRAL":
		return Neutral, nil
	case "negative", "NEGATIVE":
		return Negative, nil
	}
	return 0, fmt.Errorf("unknown sentiment label %q", s)
}

// MarshalText encodes the lowercase name, which also makes it usable as a JSON map key.
func (l SentimentLabel) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid sentiment label %d", int(l))
	}
	return []byte(l.String()), nil
}

func (l *SentimentLabel) UnmarshalText(text []byte) error {
	parsed, err := ParseSentimentLabel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// LabelingFunction is a weak-supervision rule: a case-insensitive regex
// search that votes for Label with the given Confidence.
type LabelingFunction struct {
	Name        string         `json:"name"`
	Pattern     string         `json:"pattern"`
	Label       SentimentLabel `json:"label"`
	Confidence  float64        `json:"confidence"`
	Description string         `json:"description"`
}

// LabelVote is one matched labeling function.
type LabelVote struct {
	FunctionName string         `json:"function_name"`
	Label        SentimentLabel `json:"label"`
	Confidence   float64        `json:"confidence"`
}

// WeakLabel is the resolved outcome of applying every labeling function to Text.
// FinalLabel is nil when nothing matched.
type WeakLabel struct {
	Text        string          `json:"text"`
	Labels      []LabelVote     `json:"labels"`
	FinalLabel  *SentimentLabel `json:"final_label"`
	Confidence  float64         `json:"confidence"`
	Explanation string          `json:"explanation"`
}

// SilverLabeledExample is a training pair taken from a confident WeakLabel.
type SilverLabeledExample struct {
	Text  string         `json:"text"`
	Label SentimentLabel `json:"label"`
}

// Probabilities is the per-class distribution returned by the predictor.
type Probabilities struct {
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

// Prediction is the predictor output for a single text.
type Prediction struct {
	SentimentScore float64       `json:"sentiment_score"`
	Confidence     float64       `json:"confidence"`
	Probabilities  Probabilities `json:"probabilities"`
}

// Label returns the predicted class.
func (p Prediction) Label() SentimentLabel {
	return SentimentLabel(int(p.SentimentScore))
}

// TrainingReport summarises a training run.
type TrainingReport struct {
	RunID             string                 `json:"run_id"`
	MacroF1           float64                `json:"macro_f1"`
	TrainingSize      int                    `json:"training_size"`
	LabelDistribution map[SentimentLabel]int `json:"label_distribution"`
	Calibrated        bool                   `json:"calibrated"`
	CalibrationFolds  int                    `json:"calibration_folds"`
	Iterations        int                    `json:"iterations"`
	TrainedAt         time.Time              `json:"trained_at"`
}

// EvaluationExample is a hand-labeled text used to score a trained model.
type EvaluationExample struct {
	Text     string         `json:"text"`
	Expected SentimentLabel `json:"expected"`
}

// EvaluationResult reports model quality against an evaluation set.
type EvaluationResult struct {
	Total    int                `json:"total"`
	Correct  int                `json:"correct"`
	Accuracy float64            `json:"accuracy"`
	MacroF1  float64            `json:"macro_f1"`
	Misses   []EvaluationMiss   `json:"misses,omitempty"`
	PerClass map[string]float64 `json:"per_class_f1"`
}

// EvaluationMiss records a wrong prediction.
type EvaluationMiss struct {
	Text       string         `json:"text"`
	Expected   SentimentLabel `json:"expected"`
	Predicted  SentimentLabel `json:"predicted"`
	Confidence float64        `json:"confidence"`
}
