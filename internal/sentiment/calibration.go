package sentiment

import (
	"math/rand/v2"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/domain"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/tfidf"
)

const (
	// maxCalibrationFolds caps k for cross-validated calibration.
	maxCalibrationFolds = 3
	// minCalibrationClassCount is the smallest per-class count that allows calibration.
	minCalibrationClassCount = 3
)

// CalibrationFold is one cross-validation member of the calibrated ensemble:
// a classifier fitted without the fold, and one isotonic map per class fitted
// on the fold's held-out decision values.
type CalibrationFold struct {
	Classifier  *LogisticRegression
	Calibrators []*Isotonic
}

// calibrationFolds returns k for the given smallest class count, or 0 when
// calibration must be skipped.
func calibrationFolds(minClassCount int) int {
	if minClassCount < minCalibrationClassCount {
		return 0
	}
	k := min(maxCalibrationFolds, minClassCount)
	if k < 2 {
		return 0
	}
	return k
}

// stratifiedFolds assigns every sample to one of k folds so that each class
// is spread evenly. Within a class the order is shuffled with seed.
func stratifiedFolds(y []domain.SentimentLabel, k int, seed int64) [][]int {
	byClass := map[domain.SentimentLabel][]int{}
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}

	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)) //nolint:gosec // reproducible fold split
	folds := make([][]int, k)
	for _, label := range sortedClasses(y) {
		idx := byClass[label]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		for pos, sample := range idx {
			folds[pos%k] = append(folds[pos%k], sample)
		}
	}
	return folds
}

// fitCalibration fits the k-fold isotonic ensemble.
func fitCalibration(cfg LogRegConfig, x []tfidf.SparseVector, y []domain.SentimentLabel, features, k int, seed int64) ([]CalibrationFold, error) {
	folds := stratifiedFolds(y, k, seed)
	out := make([]CalibrationFold, 0, k)

	for _, held := range folds {
		isHeld := make(map[int]bool, len(held))
		for _, i := range held {
			isHeld[i] = true
		}

		var trainX []tfidf.SparseVector
		var trainY []domain.SentimentLabel
		for i := range x {
			if !isHeld[i] {
				trainX = append(trainX, x[i])
				trainY = append(trainY, y[i])
			}
		}

		clf, err := FitLogisticRegression(cfg, trainX, trainY, features)
		if err != nil {
			return nil, err
		}

		decisions := make([][]float64, len(held))
		for j, i := range held {
			decisions[j] = clf.Decision(x[i])
		}

		calibrators := make([]*Isotonic, len(clf.Classes))
		for c, class := range clf.Classes {
			scores := make([]float64, len(held))
			targets := make([]float64, len(held))
			for j, i := range held {
				scores[j] = decisions[j][c]
				if y[i] == class {
					targets[j] = 1
				}
			}
			calibrators[c] = FitIsotonic(scores, targets)
		}
		out = append(out, CalibrationFold{Classifier: clf, Calibrators: calibrators})
	}
	return out, nil
}

// proba returns the fold's normalized calibrated probabilities.
func (f CalibrationFold) proba(row tfidf.SparseVector) []float64 {
	decision := f.Classifier.Decision(row)
	probs := make([]float64, len(decision))
	var sum float64
	for c, d := range decision {
		probs[c] = f.Calibrators[c].Predict(d)
		sum += probs[c]
	}
	if sum == 0 {
		for c := range probs {
			probs[c] = 1 / float64(len(probs))
		}
		return probs
	}
	for c := range probs {
		probs[c] /= sum
	}
	return probs
}
