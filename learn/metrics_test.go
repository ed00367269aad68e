package learn

import (
	"math"
	"testing"
)

func scalarClose(x, y, eps float64) bool {
	return math.Abs(x-y) <= eps
}

func TestAUC(t *testing.T) {

	y := []float64{0, 0, 1, 1}
	w := []float64{1, 1, 1, 1}

	// Perfect ranking.
	if a := AUC(y, w, []float64{0.1, 0.2, 0.8, 0.9}); !scalarClose(a, 1, 1e-12) {
		t.Errorf("perfect ranking AUC: got %v", a)
	}

	// Perfectly wrong ranking.
	if a := AUC(y, w, []float64{0.9, 0.8, 0.2, 0.1}); !scalarClose(a, 0, 1e-12) {
		t.Errorf("inverted ranking AUC: got %v", a)
	}

	// All tied: chance level.
	if a := AUC(y, w, []float64{0.5, 0.5, 0.5, 0.5}); !scalarClose(a, 0.5, 1e-12) {
		t.Errorf("tied AUC: got %v", a)
	}

	// One discordant pair out of four: 0.75.
	if a := AUC(y, w, []float64{0.1, 0.8, 0.6, 0.9}); !scalarClose(a, 0.75, 1e-12) {
		t.Errorf("one discordant pair AUC: got %v", a)
	}
}

func TestAUCWeighted(t *testing.T) {

	// Duplicating an observation must equal doubling its weight.
	y1 := []float64{0, 0, 1}
	w1 := []float64{2, 1, 1}
	p1 := []float64{0.3, 0.6, 0.5}

	y2 := []float64{0, 0, 0, 1}
	w2 := []float64{1, 1, 1, 1}
	p2 := []float64{0.3, 0.3, 0.6, 0.5}

	if a, b := AUC(y1, w1, p1), AUC(y2, w2, p2); !scalarClose(a, b, 1e-12) {
		t.Errorf("weighted AUC %v != duplicated AUC %v", a, b)
	}
}

func TestAUCDegenerate(t *testing.T) {

	y := []float64{1, 1}
	w := []float64{1, 1}
	if a := AUC(y, w, []float64{0.5, 0.6}); !math.IsNaN(a) {
		t.Errorf("single-class AUC should be NaN, got %v", a)
	}

	m := Evaluate(y, w, []float64{0.5, 0.6})
	if m.Valid() {
		t.Errorf("single-class metrics reported valid")
	}
}

func TestLogLoss(t *testing.T) {

	y := []float64{1, 0}
	w := []float64{1, 1}
	p := []float64{0.8, 0.4}

	want := -(math.Log(0.8) + math.Log(0.6)) / 2
	if got := logLoss(y, w, p); !scalarClose(got, want, 1e-12) {
		t.Errorf("log loss: got %v, want %v", got, want)
	}
}

func TestThresholdMetrics(t *testing.T) {

	y := []float64{1, 1, 0, 0}
	w := []float64{1, 1, 1, 1}
	p := []float64{0.9, 0.4, 0.6, 0.1}

	acc, f1 := thresholdMetrics(y, w, p)
	if !scalarClose(acc, 0.5, 1e-12) {
		t.Errorf("accuracy: got %v, want 0.5", acc)
	}
	// tp=1, fp=1, fn=1.
	if !scalarClose(f1, 0.5, 1e-12) {
		t.Errorf("F-measure: got %v, want 0.5", f1)
	}
}

func TestPRMetricsPerfect(t *testing.T) {

	y := []float64{0, 1, 1, 0}
	w := []float64{1, 1, 1, 1}
	p := []float64{0.1, 0.9, 0.8, 0.2}

	prauc, ap := prMetrics(y, w, p)
	if !scalarClose(prauc, 1, 1e-12) {
		t.Errorf("PR-AUC of perfect ranking: got %v", prauc)
	}
	if !scalarClose(ap, 1, 1e-12) {
		t.Errorf("average precision of perfect ranking: got %v", ap)
	}
}

func TestROCPoints(t *testing.T) {

	y := []float64{0, 1}
	w := []float64{1, 1}
	p := []float64{0.2, 0.8}

	pts := ROCPoints(y, w, p)
	if len(pts) != 3 {
		t.Fatalf("got %d points, want 3", len(pts))
	}
	if pts[0] != (ROCPoint{0, 0}) || pts[1] != (ROCPoint{0, 1}) || pts[2] != (ROCPoint{1, 1}) {
		t.Errorf("ROC points: %v", pts)
	}
}

func TestCalibrationBins(t *testing.T) {

	y := []float64{0, 1, 0, 1}
	w := []float64{1, 1, 1, 1}
	p := []float64{0.05, 0.15, 0.15, 0.95}

	bins := Calibration(y, w, p)
	if len(bins) != 5 {
		t.Fatalf("got %d bins, want 5", len(bins))
	}

	if bins[0].Count != 1 || !scalarClose(bins[0].Observed, 0, 1e-12) {
		t.Errorf("bin [0,0.1): %+v", bins[0])
	}
	if bins[1].Count != 2 || !scalarClose(bins[1].Observed, 0.5, 1e-12) {
		t.Errorf("bin [0.1,0.2): %+v", bins[1])
	}
	// 0.95 lands in the wide top bin [0.4, 1].
	if bins[4].Count != 1 || !scalarClose(bins[4].MeanPredicted, 0.95, 1e-12) {
		t.Errorf("bin [0.4,1]: %+v", bins[4])
	}
	if bins[2].Count != 0 || bins[3].Count != 0 {
		t.Errorf("expected empty middle bins: %+v %+v", bins[2], bins[3])
	}
}
