// Package tfidf builds sparse TF-IDF vectors over word or character n-grams.
// It backs both the sentiment vectorizer and the bot scorer's near-duplicate
// similarity.
package tfidf

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/textnorm"
)

// AnalyzerKind selects how documents are split into terms.
type AnalyzerKind string

const (
	// AnalyzerWord splits on word tokens of at least two characters.
	AnalyzerWord AnalyzerKind = "word"
	// AnalyzerChar emits every character n-gram, spaces included.
	AnalyzerChar AnalyzerKind = "char"
)

// ErrEmptyVocabulary is returned by Fit when no document yields a term.
var ErrEmptyVocabulary = errors.New("empty vocabulary")

// Config controls term extraction and vocabulary size.
type Config struct {
	Analyzer    AnalyzerKind
	NgramMin    int
	NgramMax    int
	MaxFeatures int
	// StopWords removes English stop words before word n-grams are built.
	StopWords bool
}

// Validate checks the n-gram range and analyzer kind.
func (c Config) Validate() error {
	if c.Analyzer != AnalyzerWord && c.Analyzer != AnalyzerChar {
		return fmt.Errorf("unknown analyzer %q", c.Analyzer)
	}
	if c.NgramMin < 1 || c.NgramMax < c.NgramMin {
		return fmt.Errorf("invalid ngram range [%d, %d]", c.NgramMin, c.NgramMax)
	}
	if c.MaxFeatures < 0 {
		return fmt.Errorf("max features must not be negative, got %d", c.MaxFeatures)
	}
	return nil
}

// SparseVector is a row with strictly increasing Indices.
type SparseVector struct {
	Indices []int
	Values  []float64
}

// Len returns the number of stored entries.
func (v SparseVector) Len() int { return len(v.Indices) }

// Dot returns the inner product of two sparse vectors.
func (v SparseVector) Dot(o SparseVector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.Indices) && j < len(o.Indices) {
		switch {
		case v.Indices[i] == o.Indices[j]:
			sum += v.Values[i] * o.Values[j]
			i++
			j++
		case v.Indices[i] < o.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// Vectorizer is a fitted vocabulary with its idf weights. Fields are
// exported so the value can be gob-encoded into a model artifact.
type Vectorizer struct {
	Config     Config
	Vocabulary map[string]int
	IDF        []float64
}

// Fit learns the vocabulary and idf weights from docs.
func Fit(cfg Config, docs []string) (*Vectorizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	termFreq := make(map[string]int)
	docFreq := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, term := range cfg.terms(doc) {
			termFreq[term]++
			if _, ok := seen[term]; !ok {
				seen[term] = struct{}{}
				docFreq[term]++
			}
		}
	}
	if len(termFreq) == 0 {
		return nil, ErrEmptyVocabulary
	}

	kept := make([]string, 0, len(termFreq))
	for term := range termFreq {
		kept = append(kept, term)
	}
	if cfg.MaxFeatures > 0 && len(kept) > cfg.MaxFeatures {
		sort.Slice(kept, func(i, j int) bool {
			fi, fj := termFreq[kept[i]], termFreq[kept[j]]
			if fi != fj {
				return fi > fj
			}
			return kept[i] < kept[j]
		})
		kept = kept[:cfg.MaxFeatures]
	}
	sort.Strings(kept)

	n := float64(len(docs))
	v := &Vectorizer{
		Config:     cfg,
		Vocabulary: make(map[string]int, len(kept)),
		IDF:        make([]float64, len(kept)),
	}
	for i, term := range kept {
		v.Vocabulary[term] = i
		v.IDF[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}
	return v, nil
}

// FitTransform fits on docs and returns their vectors.
func FitTransform(cfg Config, docs []string) (*Vectorizer, []SparseVector, error) {
	v, err := Fit(cfg, docs)
	if err != nil {
		return nil, nil, err
	}
	return v, v.TransformAll(docs), nil
}

// Features returns the number of vocabulary terms.
func (v *Vectorizer) Features() int { return len(v.IDF) }

// Transform returns the l2-normalized tf-idf row for doc. Terms outside the
// vocabulary are ignored; a document with none yields an empty vector.
func (v *Vectorizer) Transform(doc string) SparseVector {
	counts := make(map[int]float64)
	for _, term := range v.Config.terms(doc) {
		if idx, ok := v.Vocabulary[term]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return SparseVector{}
	}

	row := SparseVector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for idx := range counts {
		row.Indices = append(row.Indices, idx)
	}
	sort.Ints(row.Indices)

	var norm float64
	for _, idx := range row.Indices {
		w := counts[idx] * v.IDF[idx]
		row.Values = append(row.Values, w)
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for i := range row.Values {
		row.Values[i] /= norm
	}
	return row
}

// TransformAll transforms each doc in order.
func (v *Vectorizer) TransformAll(docs []string) []SparseVector {
	rows := make([]SparseVector, len(docs))
	for i, doc := range docs {
		rows[i] = v.Transform(doc)
	}
	return rows
}

func (c Config) terms(doc string) []string {
	doc = textnorm.Fold(doc)
	if c.Analyzer == AnalyzerChar {
		return charNgrams(doc, c.NgramMin, c.NgramMax)
	}
	tokens := tokenize(doc)
	if c.StopWords {
		tokens = removeStopWords(tokens)
	}
	return wordNgrams(tokens, c.NgramMin, c.NgramMax)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// tokenize returns maximal runs of word runes with at least two runes.
func tokenize(doc string) []string {
	var tokens []string
	start, length := -1, 0
	for i, r := range doc {
		if isWordRune(r) {
			if start < 0 {
				start, length = i, 0
			}
			length++
			continue
		}
		if start >= 0 && length >= 2 {
			tokens = append(tokens, doc[start:i])
		}
		start = -1
	}
	if start >= 0 && length >= 2 {
		tokens = append(tokens, doc[start:])
	}
	return tokens
}

func removeStopWords(tokens []string) []string {
	out := tokens[:0:0]
	for _, t := range tokens {
		if _, stop := englishStopWords[t]; !stop {
			out = append(out, t)
		}
	}
	return out
}

func wordNgrams(tokens []string, lo, hi int) []string {
	var grams []string
	for n := lo; n <= hi; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			grams = append(grams, strings.Join(tokens[i:i+n], " "))
		}
	}
	return grams
}

func charNgrams(doc string, lo, hi int) []string {
	text := []rune(strings.Join(strings.Fields(doc), " "))
	var grams []string
	for n := lo; n <= hi; n++ {
		for i := 0; i+n <= len(text); i++ {
			grams = append(grams, string(text[i:i+n]))
		}
	}
	return grams
}
