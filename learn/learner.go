// Package learn runs the non-response model search: repeated
// cross-validated evaluation of several classifier families over
// randomly drawn hyperparameter configurations, a stacked ensemble
// over the tuned families, confidence-interval based model selection,
// and the final fit on the held-out test split.
//
// Every (family, configuration, repeat, fold) fit is an independent
// task; the search schedules them on a bounded worker pool and each
// task writes only to its own result slot.
package learn

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"

	"github.com/ucsf-bhhi/statewide-survey-non-response/design"
)

// Config is one hyperparameter assignment, keyed by parameter name.
type Config map[string]float64

// Get returns the named hyperparameter, or dflt when unset.
func (c Config) Get(name string, dflt float64) float64 {
	if v, ok := c[name]; ok {
		return v
	}
	return dflt
}

// Key returns a canonical string form of the configuration, used to
// collapse duplicate random draws.
func (c Config) Key() string {
	names := make([]string, 0, len(c))
	for k := range c {
		names = append(names, k)
	}
	sort.Strings(names)
	s := ""
	for _, k := range names {
		s += fmt.Sprintf("%s=%g;", k, c[k])
	}
	return s
}

// Clone returns a copy of the configuration.
func (c Config) Clone() Config {
	out := make(Config, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Learner is one classifier family in the model search.
type Learner interface {

	// Name identifies the family in snapshots and reports.
	Name() string

	// Complexity is the family's position in the fixed simplicity
	// ordering used by model selection; lower is simpler.
	Complexity() int

	// Sample draws one hyperparameter configuration.
	Sample(rng *rand.Rand) Config

	// Fit trains the family on the dataset under the given
	// configuration.  A fit that fails to converge returns an error;
	// the search records the cell as missing and continues.
	Fit(ds *design.Dataset, cfg Config) (Model, error)
}

// Model is a fitted classifier.  Implementations carry only the state
// needed for scoring; training-time internals are not exported.
type Model interface {

	// Prob returns the predicted non-response probability for each
	// observation of the column-major design matrix, which must have
	// the same columns as the training data.
	Prob(x [][]float64) []float64

	// Export serializes the scoring state to JSON.
	Export() ([]byte, error)
}

// Stacked is the ensemble model: base-family models whose predicted
// probabilities feed an L1-regularized logistic meta-learner.
type Stacked struct {
	families []string
	bases    []Model
	meta     Model
}

// NewStacked bundles fitted base models and the meta-learner into a
// scoring model.  families[i] names the family of bases[i].
func NewStacked(families []string, bases []Model, meta Model) *Stacked {
	if len(families) != len(bases) {
		panic("learn: family and base model counts differ")
	}
	return &Stacked{families: families, bases: bases, meta: meta}
}

// Families returns the base family names in feature order.
func (s *Stacked) Families() []string {
	return s.families
}

// Prob runs every base model on x and feeds their probabilities to the
// meta-learner.
func (s *Stacked) Prob(x [][]float64) []float64 {

	feats := make([][]float64, len(s.bases))
	for k, m := range s.bases {
		feats[k] = m.Prob(x)
	}
	return s.meta.Prob(feats)
}

// stackedExport is the serialized form of a stacked model.
type stackedExport struct {
	Families []string          `json:"families"`
	Bases    []json.RawMessage `json:"bases"`
	Meta     json.RawMessage   `json:"meta"`
}

// Export serializes the base models and the meta-learner.
func (s *Stacked) Export() ([]byte, error) {

	ex := stackedExport{Families: s.families}
	for _, m := range s.bases {
		b, err := m.Export()
		if err != nil {
			return nil, err
		}
		ex.Bases = append(ex.Bases, b)
	}

	b, err := s.meta.Export()
	if err != nil {
		return nil, err
	}
	ex.Meta = b

	return json.Marshal(ex)
}

// DecodeStacked splits a stacked-model payload into its parts so a
// restorer with access to the family decoders can rebuild the bases.
func DecodeStacked(payload []byte) (families []string, bases []json.RawMessage, meta json.RawMessage, err error) {

	var ex stackedExport
	if err := json.Unmarshal(payload, &ex); err != nil {
		return nil, nil, nil, fmt.Errorf("learn: decoding stacked model: %w", err)
	}
	return ex.Families, ex.Bases, ex.Meta, nil
}
