package sentiment

import "github.com/jonesrussell/north-cloud/comment-analyzer/internal/domain"

// f1Scores returns the F1 of every label present in truth or predicted, and
// their unweighted mean.
func f1Scores(truth, predicted []domain.SentimentLabel) (map[domain.SentimentLabel]float64, float64) {
	labels := sortedClasses(append(append([]domain.SentimentLabel{}, truth...), predicted...))
	perClass := make(map[domain.SentimentLabel]float64, len(labels))
	if len(labels) == 0 {
		return perClass, 0
	}

	var sum float64
	for _, label := range labels {
		var tp, fp, fn float64
		for i := range truth {
			switch {
			case truth[i] == label && predicted[i] == label:
				tp++
			case predicted[i] == label:
				fp++
			case truth[i] == label:
				fn++
			}
		}
		var f1 float64
		if denom := 2*tp + fp + fn; denom > 0 {
			f1 = 2 * tp / denom
		}
		perClass[label] = f1
		sum += f1
	}
	return perClass, sum / float64(len(labels))
}
