package botdetect

import (
	"errors"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/tfidf"
)

// similarityMaxFeatures caps the character n-gram vocabulary per group.
const similarityMaxFeatures = 10000

// similarity counts near-duplicates inside a group of texts.
type similarity struct {
	threshold float64
	vectorCfg tfidf.Config
}

func newSimilarity(cfg Config) similarity {
	return similarity{
		threshold: cfg.NearDupeThreshold,
		vectorCfg: tfidf.Config{
			Analyzer:    tfidf.AnalyzerChar,
			NgramMin:    cfg.NgramMin,
			NgramMax:    cfg.NgramMax,
			MaxFeatures: similarityMaxFeatures,
		},
	}
}

// counts returns, for each text, how many texts in the group (itself
// included) have cosine similarity at or above the threshold. A single text
// counts 1, and so does every text of a group with no n-grams at all.
func (s similarity) counts(texts []string) ([]int, error) {
	out := make([]int, len(texts))
	if len(texts) <= 1 {
		for i := range out {
			out[i] = 1
		}
		return out, nil
	}

	_, rows, err := tfidf.FitTransform(s.vectorCfg, texts)
	if errors.Is(err, tfidf.ErrEmptyVocabulary) {
		for i := range out {
			out[i] = 1
		}
		return out, nil
	}
	if err != nil {
		return nil, err
	}

	// Inverted index: feature -> (row, weight).
	type posting struct {
		row    int
		weight float64
	}
	index := make(map[int][]posting)
	for r, row := range rows {
		for k, f := range row.Indices {
			index[f] = append(index[f], posting{row: r, weight: row.Values[k]})
		}
	}

	dots := make([]float64, len(rows))
	touched := make([]int, 0, len(rows))
	for r, row := range rows {
		for k, f := range row.Indices {
			w := row.Values[k]
			for _, p := range index[f] {
				if dots[p.row] == 0 {
					touched = append(touched, p.row)
				}
				dots[p.row] += w * p.weight
			}
		}
		for _, o := range touched {
			if dots[o] != 0 && dots[o] >= s.threshold {
				out[r]++
			}
			dots[o] = 0
		}
		touched = touched[:0]
	}
	return out, nil
}
