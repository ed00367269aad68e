// Package nnet implements the single-hidden-layer neural network
// family of the non-response model search.  The network has tanh
// hidden units and a sigmoid output, and is fit by full-batch BFGS on
// the weighted log-loss with an L2 weight-decay penalty.
package nnet

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"github.com/ucsf-bhhi/statewide-survey-non-response/design"
	"github.com/ucsf-bhhi/statewide-survey-non-response/learn"
)

// Model is a fitted network.  Hidden[h] holds the bias followed by
// the input weights of hidden unit h; Output holds the output bias
// followed by the hidden-to-output weights.
type Model struct {
	Hidden [][]float64 `json:"hidden"`
	Output []float64   `json:"output"`
}

// Prob runs the forward pass for each observation of the column-major
// matrix x.
func (m *Model) Prob(x [][]float64) []float64 {

	n := 0
	if len(x) > 0 {
		n = len(x[0])
	}

	pr := make([]float64, n)
	for i := 0; i < n; i++ {
		z := m.Output[0]
		for h, wh := range m.Hidden {
			a := wh[0]
			for j := range x {
				a += wh[j+1] * x[j][i]
			}
			z += m.Output[h+1] * math.Tanh(a)
		}
		pr[i] = sigmoid(z)
	}
	return pr
}

// Export serializes the network to JSON.
func (m *Model) Export() ([]byte, error) {
	return json.Marshal(m)
}

// Restore rebuilds a network from its Export payload.
func Restore(payload []byte) (*Model, error) {
	m := &Model{}
	if err := json.Unmarshal(payload, m); err != nil {
		return nil, fmt.Errorf("nnet: decoding model: %w", err)
	}
	return m, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// Net is the neural-network family.  Hyperparameters: hidden (unit
// count), decay (L2 penalty), and the initialization seed.
type Net struct{}

// Name identifies the family.
func (Net) Name() string { return "neural network" }

// Complexity places the network last among the base families.
func (Net) Complexity() int { return 5 }

// Sample draws the network hyperparameters.
func (Net) Sample(rng *rand.Rand) learn.Config {
	return learn.Config{
		"hidden": float64(2 + rng.Intn(7)),
		"decay":  math.Pow(10, -4+3*rng.Float64()),
		"seed":   float64(rng.Int63n(1 << 31)),
	}
}

// net packs the flat parameter vector layout: for each hidden unit a
// bias plus p input weights, then an output bias plus one weight per
// hidden unit.
type net struct {
	p     int // inputs
	h     int // hidden units
	decay float64
	ds    *design.Dataset
	wtot  float64
}

func (nw *net) nparam() int {
	return nw.h*(nw.p+1) + nw.h + 1
}

// forward computes the hidden activations and output probability for
// observation i at parameters theta.
func (nw *net) forward(theta []float64, i int, act []float64) float64 {

	for h := 0; h < nw.h; h++ {
		off := h * (nw.p + 1)
		a := theta[off]
		for j := 0; j < nw.p; j++ {
			a += theta[off+j+1] * nw.ds.X[j][i]
		}
		act[h] = math.Tanh(a)
	}

	ooff := nw.h * (nw.p + 1)
	z := theta[ooff]
	for h := 0; h < nw.h; h++ {
		z += theta[ooff+h+1] * act[h]
	}
	return sigmoid(z)
}

// loss is the mean weighted log-loss plus the decay penalty.
func (nw *net) loss(theta []float64) float64 {

	act := make([]float64, nw.h)
	var ll float64

	for i := range nw.ds.Y {
		p := nw.forward(theta, i, act)
		p = math.Min(math.Max(p, 1e-12), 1-1e-12)
		if nw.ds.Y[i] == 1 {
			ll -= nw.ds.W[i] * math.Log(p)
		} else {
			ll -= nw.ds.W[i] * math.Log(1-p)
		}
	}
	ll /= nw.wtot

	var pen float64
	for _, v := range theta {
		pen += v * v
	}
	return ll + nw.decay*pen/2
}

// grad writes the analytic gradient of loss into g.
func (nw *net) grad(g, theta []float64) {

	for k := range g {
		g[k] = nw.decay * theta[k]
	}

	act := make([]float64, nw.h)
	ooff := nw.h * (nw.p + 1)

	for i := range nw.ds.Y {

		p := nw.forward(theta, i, act)
		// d loss / d z for the logistic output and log loss.
		dz := nw.ds.W[i] * (p - nw.ds.Y[i]) / nw.wtot

		g[ooff] += dz
		for h := 0; h < nw.h; h++ {
			g[ooff+h+1] += dz * act[h]

			// Backpropagate through tanh.
			da := dz * theta[ooff+h+1] * (1 - act[h]*act[h])
			off := h * (nw.p + 1)
			g[off] += da
			for j := 0; j < nw.p; j++ {
				g[off+j+1] += da * nw.ds.X[j][i]
			}
		}
	}
}

// Fit trains the network with BFGS.  Optimization failures are
// returned as errors so the search can record the fold as missing.
func (Net) Fit(ds *design.Dataset, cfg learn.Config) (learn.Model, error) {

	n := ds.NumObs()
	if n == 0 {
		return nil, fmt.Errorf("nnet: empty dataset")
	}

	var wtot float64
	for _, w := range ds.W {
		wtot += w
	}
	if wtot == 0 {
		return nil, fmt.Errorf("nnet: zero total weight")
	}

	nw := &net{
		p:     ds.NumVars(),
		h:     int(cfg.Get("hidden", 3)),
		decay: cfg.Get("decay", 1e-2),
		ds:    ds,
		wtot:  wtot,
	}
	if nw.h < 1 {
		return nil, fmt.Errorf("nnet: hidden unit count %d", nw.h)
	}

	rng := rand.New(rand.NewSource(int64(cfg.Get("seed", 1))))
	start := make([]float64, nw.nparam())
	for k := range start {
		start[k] = 0.5 * rng.NormFloat64()
	}

	prob := optimize.Problem{
		Func: nw.loss,
		Grad: func(grad, x []float64) {
			if len(grad) != len(x) {
				panic("nnet: gradient length mismatch")
			}
			nw.grad(grad, x)
		},
	}

	settings := &optimize.Settings{GradientThreshold: 1e-6}

	rslt, err := optimize.Minimize(prob, start, settings, &optimize.BFGS{})
	if err != nil {
		return nil, fmt.Errorf("nnet: optimization failed: %w", err)
	}
	if err := rslt.Status.Err(); err != nil {
		return nil, fmt.Errorf("nnet: optimizer status: %w", err)
	}
	if floats.HasNaN(rslt.X) {
		return nil, fmt.Errorf("nnet: optimizer returned non-finite parameters")
	}

	m := &Model{Output: make([]float64, nw.h+1)}
	for h := 0; h < nw.h; h++ {
		off := h * (nw.p + 1)
		m.Hidden = append(m.Hidden, append([]float64(nil), rslt.X[off:off+nw.p+1]...))
	}
	copy(m.Output, rslt.X[nw.h*(nw.p+1):])

	return m, nil
}
