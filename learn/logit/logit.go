// Package logit implements the logistic-regression families of the
// non-response model search: the plain weighted logistic regression
// fit by IRLS, and the elastic-net penalized variant fit by
// coordinate descent with soft thresholding.
package logit

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"

	"github.com/ucsf-bhhi/statewide-survey-non-response/design"
	"github.com/ucsf-bhhi/statewide-survey-non-response/learn"
)

// Model is a fitted logistic regression, plain or penalized.  Only
// the scoring state is exported; working vectors from the fit are
// discarded.
type Model struct {
	Names     []string  `json:"names"`
	Intercept float64   `json:"intercept"`
	Coeff     []float64 `json:"coeff"`
}

// Prob returns the predicted probabilities for the column-major
// design matrix x, which must have the model's columns.
func (m *Model) Prob(x [][]float64) []float64 {

	if len(x) != len(m.Coeff) {
		panic(fmt.Sprintf("logit: data has %d columns, model has %d", len(x), len(m.Coeff)))
	}

	n := 0
	if len(x) > 0 {
		n = len(x[0])
	}

	pr := make([]float64, n)
	for i := range pr {
		pr[i] = m.Intercept
	}
	for j, c := range m.Coeff {
		for i, v := range x[j] {
			pr[i] += c * v
		}
	}
	for i, v := range pr {
		pr[i] = sigmoid(v)
	}
	return pr
}

// Export serializes the model to JSON.
func (m *Model) Export() ([]byte, error) {
	return json.Marshal(m)
}

// Restore rebuilds a model from its Export payload.
func Restore(payload []byte) (*Model, error) {
	m := &Model{}
	if err := json.Unmarshal(payload, m); err != nil {
		return nil, fmt.Errorf("logit: decoding model: %w", err)
	}
	return m, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// Logit is the plain logistic-regression family.  It has no
// hyperparameters, so every random draw collapses to one candidate.
type Logit struct{}

// Name identifies the family.
func (Logit) Name() string { return "logistic" }

// Complexity places plain logistic regression first in the simplicity
// ordering.
func (Logit) Complexity() int { return 1 }

// Sample returns the empty configuration.
func (Logit) Sample(rng *rand.Rand) learn.Config { return learn.Config{} }

// Fit estimates the model by iteratively reweighted least squares.
func (Logit) Fit(ds *design.Dataset, cfg learn.Config) (learn.Model, error) {

	icept, coeff, err := fitIRLS(ds, 100)
	if err != nil {
		return nil, err
	}
	return &Model{Names: ds.Names, Intercept: icept, Coeff: coeff}, nil
}

// ElasticNet is the penalized logistic-regression family with L1/L2
// mixing.  Hyperparameters: lambda (total penalty) and alpha (L1
// share).
type ElasticNet struct{}

// Name identifies the family.
func (ElasticNet) Name() string { return "elastic net logistic" }

// Complexity places the penalized model just after the plain one.
func (ElasticNet) Complexity() int { return 2 }

// Sample draws lambda log-uniformly on [1e-4, 1] and alpha uniformly
// on [0, 1].
func (ElasticNet) Sample(rng *rand.Rand) learn.Config {
	return learn.Config{
		"lambda": math.Pow(10, -4*rng.Float64()),
		"alpha":  rng.Float64(),
	}
}

// Fit estimates the model by coordinate descent.
func (ElasticNet) Fit(ds *design.Dataset, cfg learn.Config) (learn.Model, error) {

	lam := cfg.Get("lambda", 0.01)
	alpha := cfg.Get("alpha", 1)

	icept, coeff, err := fitCoordinate(ds, lam, alpha)
	if err != nil {
		return nil, err
	}
	return &Model{Names: ds.Names, Intercept: icept, Coeff: coeff}, nil
}

// L1 is the meta-learner used to stack the tuned families: an
// elastic net pinned to pure L1 so weak base models are zeroed out.
// The penalty comes from the "lambda" hyperparameter.
type L1 struct{}

// Name identifies the meta-learner.
func (L1) Name() string { return "l1 logistic" }

// Complexity is unused for the meta-learner but must be defined.
func (L1) Complexity() int { return 2 }

// Sample returns the empty configuration; the stacking grid supplies
// lambda explicitly.
func (L1) Sample(rng *rand.Rand) learn.Config { return learn.Config{} }

// Fit estimates an L1-penalized logistic regression.
func (L1) Fit(ds *design.Dataset, cfg learn.Config) (learn.Model, error) {

	icept, coeff, err := fitCoordinate(ds, cfg.Get("lambda", 0.01), 1)
	if err != nil {
		return nil, err
	}
	return &Model{Names: ds.Names, Intercept: icept, Coeff: coeff}, nil
}
