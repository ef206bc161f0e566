package sentiment

import (
	"sort"
)

// Isotonic is a fitted non-decreasing step-linear map. Predictions outside
// the fitted range are clipped to the end values.
type Isotonic struct {
	X []float64
	Y []float64
}

// FitIsotonic fits a non-decreasing regression of y on x with the
// pool-adjacent-violators algorithm. Equal x values are merged first.
func FitIsotonic(x, y []float64) *Isotonic {
	if len(x) == 0 {
		return &Isotonic{}
	}

	order := make([]int, len(x))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return x[order[a]] < x[order[b]] })

	type block struct {
		x      float64
		sum    float64
		weight float64
	}

	// Merge duplicate x values into one weighted point.
	points := make([]block, 0, len(x))
	for _, i := range order {
		if n := len(points); n > 0 && points[n-1].x == x[i] {
			points[n-1].sum += y[i]
			points[n-1].weight++
			continue
		}
		points = append(points, block{x: x[i], sum: y[i], weight: 1})
	}

	// PAVA over the merged points; each pool remembers its first point.
	type pool struct {
		start  int
		sum    float64
		weight float64
	}
	pools := make([]pool, 0, len(points))
	for i, p := range points {
		pools = append(pools, pool{start: i, sum: p.sum, weight: p.weight})
		for len(pools) > 1 {
			last, prev := pools[len(pools)-1], pools[len(pools)-2]
			if prev.sum/prev.weight <= last.sum/last.weight {
				break
			}
			pools = pools[:len(pools)-2]
			pools = append(pools, pool{start: prev.start, sum: prev.sum + last.sum, weight: prev.weight + last.weight})
		}
	}

	iso := &Isotonic{X: make([]float64, len(points)), Y: make([]float64, len(points))}
	for pi, pl := range pools {
		end := len(points)
		if pi+1 < len(pools) {
			end = pools[pi+1].start
		}
		mean := pl.sum / pl.weight
		for i := pl.start; i < end; i++ {
			iso.X[i] = points[i].x
			iso.Y[i] = mean
		}
	}
	return iso
}

// Predict interpolates linearly between fitted points.
func (iso *Isotonic) Predict(v float64) float64 {
	n := len(iso.X)
	switch {
	case n == 0:
		return 0
	case v <= iso.X[0]:
		return iso.Y[0]
	case v >= iso.X[n-1]:
		return iso.Y[n-1]
	}

	hi := sort.SearchFloat64s(iso.X, v)
	if iso.X[hi] == v {
		return iso.Y[hi]
	}
	lo := hi - 1
	frac := (v - iso.X[lo]) / (iso.X[hi] - iso.X[lo])
	return iso.Y[lo] + frac*(iso.Y[hi]-iso.Y[lo])
}
