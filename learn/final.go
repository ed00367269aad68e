package learn

import (
	"fmt"

	"github.com/ucsf-bhhi/statewide-survey-non-response/design"
)

// CalibrationBin compares mean predicted probability with the
// weighted observed non-response rate over one slice of predicted-
// probability space.
type CalibrationBin struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`

	// Count is the number of test observations in the bin and
	// Weight their total case weight.
	Count  int     `json:"count"`
	Weight float64 `json:"weight"`

	// MeanPredicted and Observed are the weighted averages of the
	// predicted probability and of the outcome in the bin; both are
	// zero when the bin is empty (Count 0).
	MeanPredicted float64 `json:"mean_predicted"`
	Observed      float64 `json:"observed"`
}

// calibrationEdges are the fixed bin boundaries; the last bin absorbs
// everything from 0.4 up.
var calibrationEdges = []float64{0, 0.1, 0.2, 0.3, 0.4, 1}

// Calibration bins predictions against outcomes over the five fixed
// probability bins.
func Calibration(y, w, p []float64) []CalibrationBin {

	bins := make([]CalibrationBin, len(calibrationEdges)-1)
	for b := range bins {
		bins[b].Lo = calibrationEdges[b]
		bins[b].Hi = calibrationEdges[b+1]
	}

	for i, pi := range p {
		b := len(bins) - 1
		for k := 0; k < len(bins)-1; k++ {
			if pi < bins[k].Hi {
				b = k
				break
			}
		}
		bins[b].Count++
		bins[b].Weight += w[i]
		bins[b].MeanPredicted += w[i] * pi
		bins[b].Observed += w[i] * y[i]
	}

	for b := range bins {
		if bins[b].Weight > 0 {
			bins[b].MeanPredicted /= bins[b].Weight
			bins[b].Observed /= bins[b].Weight
		}
	}

	return bins
}

// TestEval is the one-shot evaluation of the selected model on the
// held-out test split.
type TestEval struct {
	AUC         float64          `json:"auc"`
	Calibration []CalibrationBin `json:"calibration"`
	ROC         []ROCPoint       `json:"roc"`
}

// FinalFit refits a family's selected configuration on the full
// training split and evaluates it once on the held-out test split.
func FinalFit(lr Learner, cfg Config, train, test *design.Dataset) (Model, TestEval, error) {

	model, err := lr.Fit(train, cfg)
	if err != nil {
		return nil, TestEval{}, fmt.Errorf("learn: final fit of %s: %w", lr.Name(), err)
	}

	return model, EvaluateFinal(model, test), nil
}

// EvaluateFinal scores a fitted model on the test split.
func EvaluateFinal(model Model, test *design.Dataset) TestEval {

	p := model.Prob(test.X)
	return TestEval{
		AUC:         AUC(test.Y, test.W, p),
		Calibration: Calibration(test.Y, test.W, p),
		ROC:         ROCPoints(test.Y, test.W, p),
	}
}
