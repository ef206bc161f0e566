package sentiment

import (
	"errors"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/domain"
)

// errEmptyEvaluationSet is returned by Evaluate with no examples.
var errEmptyEvaluationSet = errors.New("evaluation set is empty")

// DefaultEvaluationSet is a small hand-labeled set of fan comments.
func DefaultEvaluationSet() []domain.EvaluationExample {
	return []domain.EvaluationExample{
		{Text: "my nigga snapped 🔥🔥🔥", Expected: domain.Positive},
		{Text: "drop the album already!", Expected: domain.Positive},
		{Text: "we need the album now 🔥", Expected: domain.Positive},
		{Text: "visuals when?!!", Expected: domain.Positive},
		{Text: "these lyrics!", Expected: domain.Positive},
		{Text: "she ate that", Expected: domain.Positive},
		{Text: "bro this crazy", Expected: domain.Positive},
		{Text: "on my gym playlist", Expected: domain.Positive},
		{Text: "this is fire", Expected: domain.Positive},
		{Text: "absolute banger", Expected: domain.Positive},
		{Text: "who produced this?", Expected: domain.Neutral},
		{Text: "what's the sample?", Expected: domain.Neutral},
		{Text: "lyrics?", Expected: domain.Neutral},
		{Text: "clean version pls", Expected: domain.Neutral},
		{Text: "when does this come out", Expected: domain.Neutral},
		{Text: "this is trash", Expected: domain.Negative},
		{Text: "mid", Expected: domain.Negative},
		{Text: "overrated", Expected: domain.Negative},
		{Text: "who approved this?", Expected: domain.Negative},
		{Text: "went double wood", Expected: domain.Negative},
	}
}

// Evaluate scores model predictions against hand-labeled examples.
func Evaluate(model *TrainedModel, examples []domain.EvaluationExample) (domain.EvaluationResult, error) {
	if model == nil || model.Vectorizer == nil || model.Classifier == nil {
		return domain.EvaluationResult{}, ErrModelNotTrained
	}
	if len(examples) == 0 {
		return domain.EvaluationResult{}, errEmptyEvaluationSet
	}

	result := domain.EvaluationResult{Total: len(examples)}
	truth := make([]domain.SentimentLabel, len(examples))
	predicted := make([]domain.SentimentLabel, len(examples))

	for i, ex := range examples {
		pred, err := model.Predict(ex.Text)
		if err != nil {
			return domain.EvaluationResult{}, err
		}
		truth[i] = ex.Expected
		predicted[i] = pred.Label()
		if predicted[i] == ex.Expected {
			result.Correct++
			continue
		}
		result.Misses = append(result.Misses, domain.EvaluationMiss{
			Text:       ex.Text,
			Expected:   ex.Expected,
			Predicted:  predicted[i],
			Confidence: pred.Confidence,
		})
	}

	perClass, macroF1 := f1Scores(truth, predicted)
	result.Accuracy = float64(result.Correct) / float64(result.Total)
	result.MacroF1 = macroF1
	result.PerClass = make(map[string]float64, len(perClass))
	for label, f1 := range perClass {
		result.PerClass[label.String()] = f1
	}
	return result, nil
}
