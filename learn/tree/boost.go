package tree

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"

	"github.com/ucsf-bhhi/statewide-survey-non-response/design"
	"github.com/ucsf-bhhi/statewide-survey-non-response/learn"
)

// BoostModel is a fitted gradient-boosted tree ensemble on the logit
// scale: the score is Base plus Rate times the sum of the tree
// predictions, and the probability is its logistic transform.
type BoostModel struct {
	Base  float64 `json:"base"`
	Rate  float64 `json:"rate"`
	Trees []*Node `json:"trees"`
}

// Prob returns the logistic transform of the boosted score.
func (m *BoostModel) Prob(x [][]float64) []float64 {

	n := 0
	if len(x) > 0 {
		n = len(x[0])
	}

	pr := make([]float64, n)
	for i := range pr {
		pr[i] = m.Base
	}
	for _, tr := range m.Trees {
		for i := range pr {
			pr[i] += m.Rate * tr.Predict(x, i)
		}
	}
	for i, s := range pr {
		pr[i] = 1 / (1 + math.Exp(-s))
	}
	return pr
}

// Export serializes the ensemble to JSON.
func (m *BoostModel) Export() ([]byte, error) {
	return json.Marshal(m)
}

// RestoreBoost rebuilds a boosted ensemble from its Export payload.
func RestoreBoost(payload []byte) (*BoostModel, error) {
	m := &BoostModel{}
	if err := json.Unmarshal(payload, m); err != nil {
		return nil, fmt.Errorf("tree: decoding boosted ensemble: %w", err)
	}
	return m, nil
}

// Boost is the gradient-boosting family.  Hyperparameters: rounds,
// depth, rate (shrinkage), and subsample (row share per round).
type Boost struct{}

// Name identifies the family.
func (Boost) Name() string { return "gradient boosting" }

// Complexity places boosting after the random forest.
func (Boost) Complexity() int { return 4 }

// Sample draws the boosting hyperparameters, including the subsample
// seed for reproducibility.
func (Boost) Sample(rng *rand.Rand) learn.Config {
	return learn.Config{
		"rounds":    float64(20 + rng.Intn(181)),
		"depth":     float64(1 + rng.Intn(4)),
		"rate":      math.Pow(10, -2+1.5*rng.Float64()),
		"subsample": 0.5 + 0.5*rng.Float64(),
		"seed":      float64(rng.Int63n(1 << 31)),
	}
}

// Fit runs stochastic gradient boosting with a logistic loss: each
// round fits a shallow regression tree to the current residual
// y - p on a row subsample and adds it with shrinkage.
func (Boost) Fit(ds *design.Dataset, cfg learn.Config) (learn.Model, error) {

	n := ds.NumObs()
	if n == 0 {
		return nil, fmt.Errorf("tree: empty dataset")
	}

	rounds := int(cfg.Get("rounds", 100))
	depth := int(cfg.Get("depth", 2))
	rate := cfg.Get("rate", 0.1)
	sub := cfg.Get("subsample", 1)
	rng := rand.New(rand.NewSource(int64(cfg.Get("seed", 1))))

	// Base score: weighted base-rate log odds, clamped away from the
	// degenerate all-one / all-zero cases.
	var wsum, ysum float64
	for i := range ds.Y {
		wsum += ds.W[i]
		ysum += ds.W[i] * ds.Y[i]
	}
	if wsum == 0 {
		return nil, fmt.Errorf("tree: zero total weight")
	}
	p0 := math.Min(math.Max(ysum/wsum, 1e-6), 1-1e-6)

	m := &BoostModel{
		Base: math.Log(p0 / (1 - p0)),
		Rate: rate,
	}

	score := make([]float64, n)
	for i := range score {
		score[i] = m.Base
	}

	resid := make([]float64, n)
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	nsub := int(math.Ceil(sub * float64(n)))

	for b := 0; b < rounds; b++ {

		for i := range resid {
			resid[i] = ds.Y[i] - 1/(1+math.Exp(-score[i]))
		}

		idx := rows
		if nsub < n {
			rng.Shuffle(len(rows), func(a, c int) {
				rows[a], rows[c] = rows[c], rows[a]
			})
			idx = rows[:nsub]
		}

		gc := growConfig{maxDepth: depth, minLeaf: 1, rng: rng}
		tr := grow(ds.X, resid, ds.W, idx, 0, gc)
		m.Trees = append(m.Trees, tr)

		for i := range score {
			score[i] += rate * tr.Predict(ds.X, i)
		}
	}

	return m, nil
}
