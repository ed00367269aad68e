package tree

import (
	"math"
	"testing"

	"github.com/ucsf-bhhi/statewide-survey-non-response/design"
	"github.com/ucsf-bhhi/statewide-survey-non-response/learn"
)

// A single binary feature that determines the outcome exactly: one
// split recovers the group means.
func TestGrowPerfectSplit(t *testing.T) {

	x := [][]float64{{0, 0, 0, 0, 1, 1, 1, 1}}
	y := []float64{0, 0, 0, 0, 1, 1, 1, 1}
	w := []float64{1, 1, 1, 1, 1, 1, 1, 1}
	idx := []int{0, 1, 2, 3, 4, 5, 6, 7}

	nd := grow(x, y, w, idx, 0, growConfig{maxDepth: 3, minLeaf: 1})

	if nd.Left == nil {
		t.Fatalf("no split found")
	}
	if nd.Feature != 0 || nd.Cut != 0.5 {
		t.Errorf("split at feature %d cut %v, want feature 0 cut 0.5", nd.Feature, nd.Cut)
	}

	for i := range y {
		if got := nd.Predict(x, i); got != y[i] {
			t.Errorf("predict(%d): got %v, want %v", i, got, y[i])
		}
	}
}

// Weights must move the leaf means.
func TestGrowWeighted(t *testing.T) {

	x := [][]float64{{0, 0, 1, 1}}
	y := []float64{0, 1, 1, 1}
	w := []float64{3, 1, 1, 1}
	idx := []int{0, 1, 2, 3}

	nd := grow(x, y, w, idx, 0, growConfig{maxDepth: 1, minLeaf: 1})

	if nd.Left == nil {
		t.Fatalf("no split found")
	}
	if got, want := nd.Left.Value, 0.25; math.Abs(got-want) > 1e-12 {
		t.Errorf("left leaf: got %v, want %v", got, want)
	}
	if got := nd.Right.Value; got != 1 {
		t.Errorf("right leaf: got %v, want 1", got)
	}
}

// minLeaf must veto splits that isolate too little weight.
func TestGrowMinLeaf(t *testing.T) {

	x := [][]float64{{0, 1, 1, 1, 1, 1}}
	y := []float64{1, 0, 0, 0, 0, 0}
	w := []float64{1, 1, 1, 1, 1, 1}
	idx := []int{0, 1, 2, 3, 4, 5}

	nd := grow(x, y, w, idx, 0, growConfig{maxDepth: 3, minLeaf: 2})
	if nd.Left != nil {
		t.Errorf("split isolating weight 1 allowed with minLeaf 2")
	}
}

func boostData() *design.Dataset {

	n := 60
	x1 := make([]float64, n)
	x2 := make([]float64, n)
	y := make([]float64, n)
	w := make([]float64, n)
	for i := 0; i < n; i++ {
		x1[i] = float64(i % 2)
		x2[i] = float64((i / 2) % 2)
		w[i] = 1
		// Noisy XOR-ish target that a linear model cannot capture.
		if (x1[i] == 1) != (x2[i] == 1) {
			y[i] = 1
		}
		if i%15 == 0 {
			y[i] = 1 - y[i]
		}
	}

	return &design.Dataset{
		Names: []string{"x1", "x2"},
		X:     [][]float64{x1, x2},
		Y:     y,
		W:     w,
	}
}

func TestForestFit(t *testing.T) {

	ds := boostData()
	cfg := learn.Config{"trees": 50, "depth": 4, "min_leaf": 1, "mtry_frac": 1, "seed": 3}

	m, err := Forest{}.Fit(ds, cfg)
	if err != nil {
		t.Fatal(err)
	}

	p := m.Prob(ds.X)
	for i, v := range p {
		if v < 0 || v > 1 {
			t.Fatalf("probability %d out of range: %v", i, v)
		}
	}

	if a := learn.AUC(ds.Y, ds.W, p); a <= 0.8 {
		t.Errorf("forest failed to learn the interaction: AUC %v", a)
	}
}

func TestForestDeterministicForSeed(t *testing.T) {

	ds := boostData()
	cfg := learn.Config{"trees": 20, "depth": 3, "min_leaf": 1, "mtry_frac": 0.5, "seed": 9}

	m1, err := Forest{}.Fit(ds, cfg)
	if err != nil {
		t.Fatal(err)
	}
	m2, err := Forest{}.Fit(ds, cfg)
	if err != nil {
		t.Fatal(err)
	}

	p1 := m1.Prob(ds.X)
	p2 := m2.Prob(ds.X)
	for i := range p1 {
		if p1[i] != p2[i] {
			t.Fatalf("same seed, different forests at %d: %v vs %v", i, p1[i], p2[i])
		}
	}
}

func TestBoostFit(t *testing.T) {

	ds := boostData()
	cfg := learn.Config{"rounds": 100, "depth": 2, "rate": 0.2, "subsample": 1, "seed": 5}

	m, err := Boost{}.Fit(ds, cfg)
	if err != nil {
		t.Fatal(err)
	}

	p := m.Prob(ds.X)
	if a := learn.AUC(ds.Y, ds.W, p); a <= 0.8 {
		t.Errorf("boosting failed to learn the interaction: AUC %v", a)
	}
}

func TestBoostExportRestore(t *testing.T) {

	ds := boostData()
	cfg := learn.Config{"rounds": 20, "depth": 2, "rate": 0.2, "subsample": 1, "seed": 5}

	m, err := Boost{}.Fit(ds, cfg)
	if err != nil {
		t.Fatal(err)
	}

	b, err := m.Export()
	if err != nil {
		t.Fatal(err)
	}
	m2, err := RestoreBoost(b)
	if err != nil {
		t.Fatal(err)
	}

	p1 := m.Prob(ds.X)
	p2 := m2.Prob(ds.X)
	for i := range p1 {
		if p1[i] != p2[i] {
			t.Fatalf("restored ensemble predicts differently at %d", i)
		}
	}
}

func TestForestExportRestore(t *testing.T) {

	ds := boostData()
	cfg := learn.Config{"trees": 10, "depth": 3, "min_leaf": 1, "mtry_frac": 1, "seed": 2}

	m, err := Forest{}.Fit(ds, cfg)
	if err != nil {
		t.Fatal(err)
	}

	b, err := m.Export()
	if err != nil {
		t.Fatal(err)
	}
	m2, err := RestoreForest(b)
	if err != nil {
		t.Fatal(err)
	}

	p1 := m.Prob(ds.X)
	p2 := m2.Prob(ds.X)
	for i := range p1 {
		if p1[i] != p2[i] {
			t.Fatalf("restored forest predicts differently at %d", i)
		}
	}
}
