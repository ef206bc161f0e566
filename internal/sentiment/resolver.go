package sentiment

import (
	"fmt"
	"strings"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/domain"
)

const (
	// boosterThreshold is the booster score above which boosters add to the positive vote.
	boosterThreshold = 0.5
	// boosterFactor scales the booster score before it is added.
	boosterFactor = 0.5
	// explainedFunctions caps how many function names the explanation lists.
	explainedFunctions = 3

	explainNoMatch      = "No patterns matched"
	explainNoConfidence = "No confident predictions"
)

// Resolve combines the votes for text with its booster score into a
// WeakLabel. Ties go to POSITIVE, then NEGATIVE, then NEUTRAL. It never fails:
// no votes is a normal "no opinion" result.
func Resolve(text string, votes []domain.LabelVote, boosterScore float64) domain.WeakLabel {
	wl := domain.WeakLabel{Text: text, Labels: votes}
	if len(votes) == 0 {
		wl.Explanation = explainNoMatch
		return wl
	}

	weights := map[domain.SentimentLabel]float64{}
	for _, v := range votes {
		weights[v.Label] += v.Confidence
	}

	boosted := boosterScore > boosterThreshold
	if boosted {
		weights[domain.Positive] += boosterScore * boosterFactor
	}

	var (
		best      domain.SentimentLabel
		maxWeight float64
		total     float64
	)
	// domain.Labels is in tie-break order, so strict > keeps the earlier label.
	for i, label := range domain.Labels {
		w := weights[label]
		total += w
		if i == 0 || w > maxWeight {
			best, maxWeight = label, w
		}
	}

	if maxWeight == 0 || total == 0 {
		wl.Explanation = explainNoConfidence
		return wl
	}

	wl.FinalLabel = &best
	wl.Confidence = maxWeight / total

	names := make([]string, 0, explainedFunctions)
	for i, v := range votes {
		if i == explainedFunctions {
			break
		}
		names = append(names, v.FunctionName)
	}
	wl.Explanation = "Functions: " + strings.Join(names, ", ")
	if boosted {
		wl.Explanation += fmt.Sprintf(" + boosters (%.1f)", boosterScore)
	}
	return wl
}

// Labeler applies a registry and the booster extractor to raw text.
type Labeler struct {
	registry *Registry
}

// NewLabeler returns a Labeler over registry.
func NewLabeler(registry *Registry) *Labeler {
	return &Labeler{registry: registry}
}

// Registry returns the labeling functions the labeler applies.
func (l *Labeler) Registry() *Registry { return l.registry }

// Label resolves one text.
func (l *Labeler) Label(text string) domain.WeakLabel {
	return Resolve(text, l.registry.Match(text), ExtractBoosters(text).Score())
}

// Apply resolves every text, one WeakLabel per input in input order.
func (l *Labeler) Apply(texts []string) []domain.WeakLabel {
	out := make([]domain.WeakLabel, len(texts))
	for i, text := range texts {
		out[i] = l.Label(text)
	}
	return out
}
