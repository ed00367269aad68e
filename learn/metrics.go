package learn

import (
	"math"
	"sort"
)

// Metrics holds the weighted evaluation metrics of one fold.
type Metrics struct {
	AUC      float64 `json:"auc"`
	Accuracy float64 `json:"accuracy"`
	LogLoss  float64 `json:"log_loss"`
	PRAUC    float64 `json:"pr_auc"`
	AvgPrec  float64 `json:"avg_precision"`
	FMeasure float64 `json:"f_measure"`
}

// Valid reports whether every metric is finite.  A fold that produced
// a non-finite metric is treated as failed.
func (m Metrics) Valid() bool {
	for _, v := range []float64{m.AUC, m.Accuracy, m.LogLoss, m.PRAUC, m.AvgPrec, m.FMeasure} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

const probEps = 1e-12

// Evaluate computes the weighted fold metrics for predicted
// probabilities p against labels y with case weights w.  If either
// class has zero total weight the rank-based metrics are NaN and the
// fold is invalid.
func Evaluate(y, w, p []float64) Metrics {

	var m Metrics
	m.AUC = AUC(y, w, p)
	m.LogLoss = logLoss(y, w, p)
	m.Accuracy, m.FMeasure = thresholdMetrics(y, w, p)
	m.PRAUC, m.AvgPrec = prMetrics(y, w, p)
	return m
}

// AUC computes the weighted area under the ROC curve as a rank
// statistic, with ties counted at half weight.
func AUC(y, w, p []float64) float64 {

	idx := make([]int, len(p))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return p[idx[a]] < p[idx[b]]
	})

	var wpos, wneg, cumneg, a float64
	for _, i := range idx {
		if y[i] == 1 {
			wpos += w[i]
		} else {
			wneg += w[i]
		}
	}
	if wpos == 0 || wneg == 0 {
		return math.NaN()
	}

	for k := 0; k < len(idx); {
		// Process a tie group of equal predicted values.
		var gpos, gneg float64
		j := k
		for j < len(idx) && p[idx[j]] == p[idx[k]] {
			i := idx[j]
			if y[i] == 1 {
				gpos += w[i]
			} else {
				gneg += w[i]
			}
			j++
		}
		a += gpos * (cumneg + gneg/2)
		cumneg += gneg
		k = j
	}

	return a / (wpos * wneg)
}

func logLoss(y, w, p []float64) float64 {

	var ll, tw float64
	for i := range y {
		pi := math.Min(math.Max(p[i], probEps), 1-probEps)
		if y[i] == 1 {
			ll -= w[i] * math.Log(pi)
		} else {
			ll -= w[i] * math.Log(1-pi)
		}
		tw += w[i]
	}
	if tw == 0 {
		return math.NaN()
	}
	return ll / tw
}

// thresholdMetrics computes weighted accuracy and F-measure at the 0.5
// probability threshold.
func thresholdMetrics(y, w, p []float64) (acc, f1 float64) {

	var correct, tw, tp, fp, fn float64
	for i := range y {
		tw += w[i]
		pred := 0.0
		if p[i] >= 0.5 {
			pred = 1
		}
		if pred == y[i] {
			correct += w[i]
		}
		switch {
		case pred == 1 && y[i] == 1:
			tp += w[i]
		case pred == 1 && y[i] == 0:
			fp += w[i]
		case pred == 0 && y[i] == 1:
			fn += w[i]
		}
	}

	if tw == 0 {
		return math.NaN(), math.NaN()
	}
	acc = correct / tw

	if 2*tp+fp+fn == 0 {
		// No positives predicted or present; define F as zero.
		return acc, 0
	}
	return acc, 2 * tp / (2*tp + fp + fn)
}

// prMetrics computes the precision-recall curve, returning its
// trapezoidal area and the step-function average precision.
func prMetrics(y, w, p []float64) (prauc, avgprec float64) {

	idx := make([]int, len(p))
	for i := range idx {
		idx[i] = i
	}
	// Descending by predicted probability.
	sort.Slice(idx, func(a, b int) bool {
		return p[idx[a]] > p[idx[b]]
	})

	var wpos float64
	for i := range y {
		if y[i] == 1 {
			wpos += w[i]
		}
	}
	if wpos == 0 {
		return math.NaN(), math.NaN()
	}

	var tp, pp float64
	prevRecall := 0.0
	prevPrec := 1.0

	for k := 0; k < len(idx); {
		// Advance over a tie group before taking a curve point.
		j := k
		for j < len(idx) && p[idx[j]] == p[idx[k]] {
			i := idx[j]
			pp += w[i]
			if y[i] == 1 {
				tp += w[i]
			}
			j++
		}
		recall := tp / wpos
		prec := tp / pp

		prauc += (recall - prevRecall) * (prec + prevPrec) / 2
		avgprec += (recall - prevRecall) * prec

		prevRecall, prevPrec = recall, prec
		k = j
	}

	return prauc, avgprec
}

// ROCPoint is one point of an ROC curve.
type ROCPoint struct {
	FPR float64 `json:"fpr"`
	TPR float64 `json:"tpr"`
}

// ROCPoints traces the weighted ROC curve from the highest predicted
// probability down, one point per distinct threshold, beginning at
// (0,0) and ending at (1,1).
func ROCPoints(y, w, p []float64) []ROCPoint {

	idx := make([]int, len(p))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return p[idx[a]] > p[idx[b]]
	})

	var wpos, wneg float64
	for i := range y {
		if y[i] == 1 {
			wpos += w[i]
		} else {
			wneg += w[i]
		}
	}
	if wpos == 0 || wneg == 0 {
		return nil
	}

	pts := []ROCPoint{{0, 0}}
	var tp, fp float64
	for k := 0; k < len(idx); {
		j := k
		for j < len(idx) && p[idx[j]] == p[idx[k]] {
			i := idx[j]
			if y[i] == 1 {
				tp += w[i]
			} else {
				fp += w[i]
			}
			j++
		}
		pts = append(pts, ROCPoint{FPR: fp / wneg, TPR: tp / wpos})
		k = j
	}

	return pts
}
