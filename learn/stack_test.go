package learn

import (
	"context"
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/ucsf-bhhi/statewide-survey-non-response/design"
)

// avgModel predicts the mean of its feature columns, which for meta
// features (base probabilities) is a crude but valid combiner.
type avgModel struct{}

func (avgModel) Prob(x [][]float64) []float64 {
	p := make([]float64, len(x[0]))
	for _, col := range x {
		for i, v := range col {
			p[i] += v / float64(len(x))
		}
	}
	return p
}

func (avgModel) Export() ([]byte, error) {
	return json.Marshal(struct{}{})
}

type avgLearner struct{}

func (avgLearner) Name() string                 { return "average" }
func (avgLearner) Complexity() int              { return 1 }
func (avgLearner) Sample(rng *rand.Rand) Config { return Config{} }
func (avgLearner) Fit(ds *design.Dataset, cfg Config) (Model, error) {
	return avgModel{}, nil
}

func newStacker(folds *design.Folds) *Stacker {
	return &Stacker{
		Bases:     []Learner{probeLearner{"probe a", 1}, probeLearner{"probe b", 2}},
		Configs:   []Config{{"shift": 0.1}, {"shift": 0.2}},
		Meta:      avgLearner{},
		Penalties: []float64{0.001, 0.01, 0.1},
		Folds:     folds,
		Workers:   4,
	}
}

func TestStackerRun(t *testing.T) {

	ds := searchData(100)
	folds := design.NewFolds(ds.Y, 5, 2, 23)

	res, err := newStacker(folds).Run(context.Background(), ds)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Candidates) != 3 {
		t.Fatalf("got %d penalty candidates, want 3", len(res.Candidates))
	}
	for _, c := range res.Candidates {
		if c.Family != EnsembleFamily {
			t.Errorf("candidate family %q", c.Family)
		}
		if c.NFolds != 10 {
			t.Errorf("penalty %v completed %d folds, want 10", c.Config["lambda"], c.NFolds)
		}
	}

	if res.Best() == nil {
		t.Fatalf("no best penalty")
	}
}

func TestStackerDeterministic(t *testing.T) {

	ds := searchData(80)
	folds := design.NewFolds(ds.Y, 4, 2, 31)

	r1, err := newStacker(folds).Run(context.Background(), ds)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := newStacker(folds).Run(context.Background(), ds)
	if err != nil {
		t.Fatal(err)
	}

	for i := range r1.Candidates {
		if r1.Candidates[i].MeanAUC != r2.Candidates[i].MeanAUC {
			t.Fatalf("stacking not deterministic at candidate %d", i)
		}
	}
}

// A base family that always fails marks every cell incomplete; the
// ensemble then has no completed folds but the run itself succeeds.
func TestStackerBaseFailure(t *testing.T) {

	ds := searchData(60)
	folds := design.NewFolds(ds.Y, 3, 1, 7)

	st := newStacker(folds)
	st.Bases = []Learner{failingLearner{}, probeLearner{"probe", 1}}
	st.Configs = []Config{{}, {"shift": 0.1}}

	res, err := st.Run(context.Background(), ds)
	if err != nil {
		t.Fatal(err)
	}

	if res.Best() != nil {
		t.Errorf("ensemble produced a best candidate with no usable base predictions")
	}
	for _, c := range res.Candidates {
		for _, fs := range c.Folds {
			if fs.OK {
				t.Fatalf("fold reported complete despite base failures")
			}
		}
	}
}

func TestStackerFinalModel(t *testing.T) {

	ds := searchData(100)
	folds := design.NewFolds(ds.Y, 5, 2, 23)

	st := newStacker(folds)
	res, err := st.Run(context.Background(), ds)
	if err != nil {
		t.Fatal(err)
	}

	model, err := st.FinalModel(ds, res, res.Best().Config)
	if err != nil {
		t.Fatal(err)
	}

	p := model.Prob(ds.X)
	if len(p) != ds.NumObs() {
		t.Fatalf("prediction length %d", len(p))
	}
	for i, v := range p {
		if v < 0 || v > 1 {
			t.Fatalf("probability %d out of range: %v", i, v)
		}
	}

	// The stacked export round-trips structurally.
	b, err := model.Export()
	if err != nil {
		t.Fatal(err)
	}
	fams, bases, meta, err := DecodeStacked(b)
	if err != nil {
		t.Fatal(err)
	}
	if len(fams) != 2 || len(bases) != 2 || meta == nil {
		t.Errorf("decoded stacked payload: %d families, %d bases", len(fams), len(bases))
	}
}
