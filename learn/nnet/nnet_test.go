package nnet

import (
	"math"
	"testing"

	"github.com/ucsf-bhhi/statewide-survey-non-response/design"
	"github.com/ucsf-bhhi/statewide-survey-non-response/learn"
)

func testData() *design.Dataset {

	n := 40
	x := make([]float64, n)
	y := make([]float64, n)
	w := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = float64(i % 2)
		w[i] = 1
		if i%2 == 1 && i%7 != 0 {
			y[i] = 1
		}
	}

	return &design.Dataset{
		Names: []string{"x"},
		X:     [][]float64{x},
		Y:     y,
		W:     w,
	}
}

func TestNetFit(t *testing.T) {

	ds := testData()
	cfg := learn.Config{"hidden": 3, "decay": 1e-3, "seed": 4}

	m, err := Net{}.Fit(ds, cfg)
	if err != nil {
		t.Fatal(err)
	}

	p := m.Prob(ds.X)
	for i, v := range p {
		if v <= 0 || v >= 1 || math.IsNaN(v) {
			t.Fatalf("probability %d out of range: %v", i, v)
		}
	}

	if a := learn.AUC(ds.Y, ds.W, p); a <= 0.7 {
		t.Errorf("network failed to separate the groups: AUC %v", a)
	}
}

// The numeric gradient must match the analytic one; this pins the
// backpropagation code.
func TestGradMatchesNumeric(t *testing.T) {

	ds := testData()
	nw := &net{p: 1, h: 2, decay: 1e-2, ds: ds, wtot: 40}

	theta := make([]float64, nw.nparam())
	for k := range theta {
		theta[k] = 0.1 * float64(k+1)
	}

	g := make([]float64, len(theta))
	nw.grad(g, theta)

	const eps = 1e-6
	for k := range theta {
		tp := append([]float64(nil), theta...)
		tp[k] += eps
		tm := append([]float64(nil), theta...)
		tm[k] -= eps
		num := (nw.loss(tp) - nw.loss(tm)) / (2 * eps)
		if math.Abs(num-g[k]) > 1e-5 {
			t.Errorf("gradient %d: analytic %v, numeric %v", k, g[k], num)
		}
	}
}

func TestExportRestore(t *testing.T) {

	ds := testData()
	cfg := learn.Config{"hidden": 2, "decay": 1e-2, "seed": 8}

	m, err := Net{}.Fit(ds, cfg)
	if err != nil {
		t.Fatal(err)
	}

	b, err := m.Export()
	if err != nil {
		t.Fatal(err)
	}
	m2, err := Restore(b)
	if err != nil {
		t.Fatal(err)
	}

	p1 := m.Prob(ds.X)
	p2 := m2.Prob(ds.X)
	for i := range p1 {
		if p1[i] != p2[i] {
			t.Fatalf("restored network predicts differently at %d", i)
		}
	}
}
