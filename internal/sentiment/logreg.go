package sentiment

import (
	"errors"
	"math"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/domain"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/tfidf"
)

// Optimizer defaults.
const (
	defaultC             = 1.0
	defaultLearningRate  = 0.5
	defaultTolerance     = 1e-4
	defaultMaxIterations = 1000
)

// errSingleClass is returned when the training labels hold one class only.
var errSingleClass = errors.New("training data must contain at least two classes")

// LogRegConfig controls logistic regression fitting.
type LogRegConfig struct {
	// C is the inverse L2 regularization strength.
	C             float64
	MaxIterations int
	Tolerance     float64
	LearningRate  float64
	// Balanced weights each sample by n / (classes * count of its class).
	Balanced bool
}

func (c *LogRegConfig) setDefaults() {
	if c.C <= 0 {
		c.C = defaultC
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = defaultMaxIterations
	}
	if c.Tolerance <= 0 {
		c.Tolerance = defaultTolerance
	}
	if c.LearningRate <= 0 {
		c.LearningRate = defaultLearningRate
	}
}

// LogisticRegression is a fitted multinomial (softmax) linear classifier.
// Classes are in ascending label order; Weights is indexed [class][feature].
// Fields are exported for gob encoding.
type LogisticRegression struct {
	Classes    []domain.SentimentLabel
	Weights    [][]float64
	Intercepts []float64
	Iterations int
}

// FitLogisticRegression minimizes the sample-weighted mean cross-entropy plus
// an L2 penalty on the weights (not the intercepts) with Nesterov-accelerated
// full-batch gradient descent.
func FitLogisticRegression(cfg LogRegConfig, x []tfidf.SparseVector, y []domain.SentimentLabel, features int) (*LogisticRegression, error) {
	cfg.setDefaults()

	classes := sortedClasses(y)
	if len(classes) < 2 {
		return nil, errSingleClass
	}
	index := make(map[domain.SentimentLabel]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	targets := make([]int, len(y))
	for i, label := range y {
		targets[i] = index[label]
	}

	sampleWeights := make([]float64, len(y))
	for i := range sampleWeights {
		sampleWeights[i] = 1
	}
	if cfg.Balanced {
		counts := make([]int, len(classes))
		for _, t := range targets {
			counts[t]++
		}
		for i, t := range targets {
			sampleWeights[i] = float64(len(y)) / (float64(len(classes)) * float64(counts[t]))
		}
	}

	p := newLogRegParams(len(classes), features)
	prev := p.clone()
	look := p.clone()
	grad := newLogRegParams(len(classes), features)

	iter := 0
	for iter < cfg.MaxIterations {
		iter++
		gradient(look, grad, x, targets, sampleWeights, cfg.C)
		if grad.maxAbs() < cfg.Tolerance {
			p.copyFrom(look)
			break
		}

		prev.copyFrom(p)
		p.copyFrom(look)
		p.axpy(-cfg.LearningRate, grad)

		momentum := float64(iter-1) / float64(iter+2)
		look.copyFrom(p)
		look.axpy(momentum, p)
		look.axpy(-momentum, prev)
	}

	return &LogisticRegression{
		Classes:    classes,
		Weights:    p.w,
		Intercepts: p.b,
		Iterations: iter,
	}, nil
}

// Decision returns the per-class linear scores for row.
func (m *LogisticRegression) Decision(row tfidf.SparseVector) []float64 {
	scores := make([]float64, len(m.Classes))
	for k := range m.Classes {
		s := m.Intercepts[k]
		w := m.Weights[k]
		for j, idx := range row.Indices {
			if idx < len(w) {
				s += w[idx] * row.Values[j]
			}
		}
		scores[k] = s
	}
	return scores
}

// Proba returns the softmax class probabilities for row.
func (m *LogisticRegression) Proba(row tfidf.SparseVector) []float64 {
	return softmax(m.Decision(row))
}

func softmax(scores []float64) []float64 {
	out := make([]float64, len(scores))
	maxScore := math.Inf(-1)
	for _, s := range scores {
		maxScore = math.Max(maxScore, s)
	}
	var sum float64
	for i, s := range scores {
		out[i] = math.Exp(s - maxScore)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// gradient writes the objective gradient at p into g.
func gradient(p, g *logRegParams, x []tfidf.SparseVector, targets []int, sw []float64, c float64) {
	g.zero()

	var totalWeight float64
	for _, w := range sw {
		totalWeight += w
	}

	for i, row := range x {
		probs := softmax(p.decision(row))
		for k, pk := range probs {
			diff := pk
			if k == targets[i] {
				diff--
			}
			diff *= sw[i] / totalWeight
			g.b[k] += diff
			gk := g.w[k]
			for j, idx := range row.Indices {
				gk[idx] += diff * row.Values[j]
			}
		}
	}

	reg := 1 / (c * totalWeight)
	for k := range g.w {
		gk, wk := g.w[k], p.w[k]
		for j := range gk {
			gk[j] += reg * wk[j]
		}
	}
}

type logRegParams struct {
	w [][]float64
	b []float64
}

func newLogRegParams(classes, features int) *logRegParams {
	p := &logRegParams{w: make([][]float64, classes), b: make([]float64, classes)}
	for k := range p.w {
		p.w[k] = make([]float64, features)
	}
	return p
}

func (p *logRegParams) clone() *logRegParams {
	c := newLogRegParams(len(p.w), len(p.w[0]))
	c.copyFrom(p)
	return c
}

func (p *logRegParams) copyFrom(o *logRegParams) {
	copy(p.b, o.b)
	for k := range p.w {
		copy(p.w[k], o.w[k])
	}
}

func (p *logRegParams) zero() {
	clear(p.b)
	for k := range p.w {
		clear(p.w[k])
	}
}

// axpy adds a*o to p.
func (p *logRegParams) axpy(a float64, o *logRegParams) {
	for k := range p.w {
		p.b[k] += a * o.b[k]
		pk, ok := p.w[k], o.w[k]
		for j := range pk {
			pk[j] += a * ok[j]
		}
	}
}

func (p *logRegParams) maxAbs() float64 {
	var m float64
	for k := range p.w {
		m = math.Max(m, math.Abs(p.b[k]))
		for _, v := range p.w[k] {
			m = math.Max(m, math.Abs(v))
		}
	}
	return m
}

func (p *logRegParams) decision(row tfidf.SparseVector) []float64 {
	scores := make([]float64, len(p.w))
	for k := range p.w {
		s := p.b[k]
		for j, idx := range row.Indices {
			s += p.w[k][idx] * row.Values[j]
		}
		scores[k] = s
	}
	return scores
}

// sortedClasses returns the distinct labels in ascending order.
func sortedClasses(y []domain.SentimentLabel) []domain.SentimentLabel {
	seen := map[domain.SentimentLabel]bool{}
	for _, label := range y {
		seen[label] = true
	}
	var classes []domain.SentimentLabel
	for _, label := range []domain.SentimentLabel{domain.Negative, domain.Neutral, domain.Positive} {
		if seen[label] {
			classes = append(classes, label)
		}
	}
	return classes
}
