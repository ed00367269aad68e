package tree

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"

	"github.com/ucsf-bhhi/statewide-survey-non-response/design"
	"github.com/ucsf-bhhi/statewide-survey-non-response/learn"
)

// ForestModel is a fitted random forest.  The predicted probability
// is the mean of the per-tree leaf values.
type ForestModel struct {
	Trees []*Node `json:"trees"`
}

// Prob averages the tree predictions for each observation.
func (m *ForestModel) Prob(x [][]float64) []float64 {

	n := 0
	if len(x) > 0 {
		n = len(x[0])
	}

	pr := make([]float64, n)
	for _, tr := range m.Trees {
		for i := range pr {
			pr[i] += tr.Predict(x, i)
		}
	}
	for i := range pr {
		pr[i] /= float64(len(m.Trees))
	}
	return pr
}

// Export serializes the forest to JSON.
func (m *ForestModel) Export() ([]byte, error) {
	return json.Marshal(m)
}

// RestoreForest rebuilds a forest from its Export payload.
func RestoreForest(payload []byte) (*ForestModel, error) {
	m := &ForestModel{}
	if err := json.Unmarshal(payload, m); err != nil {
		return nil, fmt.Errorf("tree: decoding forest: %w", err)
	}
	return m, nil
}

// Forest is the random-forest family.  Hyperparameters: trees, depth,
// min_leaf, and mtry_frac (share of features tried per split).
type Forest struct{}

// Name identifies the family.
func (Forest) Name() string { return "random forest" }

// Complexity places the forest after the regularized logistic model.
func (Forest) Complexity() int { return 3 }

// Sample draws the forest hyperparameters, including the bootstrap
// seed so each configuration is reproducible on every fold.
func (Forest) Sample(rng *rand.Rand) learn.Config {
	return learn.Config{
		"trees":     float64(50 + rng.Intn(151)),
		"depth":     float64(2 + rng.Intn(7)),
		"min_leaf":  float64(1 + rng.Intn(10)),
		"mtry_frac": 0.2 + 0.8*rng.Float64(),
		"seed":      float64(rng.Int63n(1 << 31)),
	}
}

// Fit grows the forest by bagging: each tree sees a bootstrap
// resample of the rows and a random feature subset per split.
func (Forest) Fit(ds *design.Dataset, cfg learn.Config) (learn.Model, error) {

	n := ds.NumObs()
	if n == 0 {
		return nil, fmt.Errorf("tree: empty dataset")
	}

	ntree := int(cfg.Get("trees", 100))
	depth := int(cfg.Get("depth", 4))
	minLeaf := cfg.Get("min_leaf", 1)
	mfrac := cfg.Get("mtry_frac", 1)
	rng := rand.New(rand.NewSource(int64(cfg.Get("seed", 1))))

	mtry := int(math.Ceil(mfrac * float64(ds.NumVars())))
	if mtry < 1 {
		mtry = 1
	}

	m := &ForestModel{}
	idx := make([]int, n)

	for b := 0; b < ntree; b++ {

		for k := range idx {
			idx[k] = rng.Intn(n)
		}

		gc := growConfig{maxDepth: depth, minLeaf: minLeaf, mtry: mtry, rng: rng}
		m.Trees = append(m.Trees, grow(ds.X, ds.Y, ds.W, idx, 0, gc))
	}

	return m, nil
}
