package sentiment

import (
	"errors"
	"fmt"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/domain"
)

// Corpus defaults.
const (
	DefaultMinConfidence = 0.3
	DefaultMinExamples   = 100
)

// ErrInsufficientLabeledData is returned when too few silver labels survive
// the confidence filter to train on.
var ErrInsufficientLabeledData = errors.New("insufficient labeled data")

// BuildCorpus keeps the (text, label) pairs of weak labels that resolved with
// confidence strictly above minConfidence. Order and duplicates are kept.
func BuildCorpus(weak []domain.WeakLabel, minConfidence float64) []domain.SilverLabeledExample {
	corpus := make([]domain.SilverLabeledExample, 0, len(weak))
	for _, wl := range weak {
		if wl.FinalLabel == nil || wl.Confidence <= minConfidence {
			continue
		}
		corpus = append(corpus, domain.SilverLabeledExample{Text: wl.Text, Label: *wl.FinalLabel})
	}
	return corpus
}

// CheckCorpusSize fails with ErrInsufficientLabeledData when corpus holds
// fewer than minExamples pairs.
func CheckCorpusSize(corpus []domain.SilverLabeledExample, minExamples int) error {
	if len(corpus) < minExamples {
		return fmt.Errorf("%w: %d examples, need at least %d", ErrInsufficientLabeledData, len(corpus), minExamples)
	}
	return nil
}

// LabelDistribution counts examples per label.
func LabelDistribution(corpus []domain.SilverLabeledExample) map[domain.SentimentLabel]int {
	dist := make(map[domain.SentimentLabel]int)
	for _, ex := range corpus {
		dist[ex.Label]++
	}
	return dist
}
