// Package artifact persists the outcome of a model-fitting run: the
// scoring bundle with the selected model, and the snapshots holding
// the full per-fold metric grids of the search and the stacking.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/ucsf-bhhi/statewide-survey-non-response/design"
	"github.com/ucsf-bhhi/statewide-survey-non-response/learn"
	"github.com/ucsf-bhhi/statewide-survey-non-response/learn/logit"
	"github.com/ucsf-bhhi/statewide-survey-non-response/learn/nnet"
	"github.com/ucsf-bhhi/statewide-survey-non-response/learn/tree"
	"github.com/ucsf-bhhi/statewide-survey-non-response/survey"
)

// Bundle is the self-sufficient scoring artifact.  It carries the
// selected family with its hyperparameters and exported parameters,
// the frozen encoder state, the screen-code table version the flags
// were derived under, and the eligibility rate used for importance
// weights.  No training-time state (fold data, design matrices,
// optimizer internals) is serialized.
type Bundle struct {
	RunID           string             `json:"run_id"`
	CreatedAt       time.Time          `json:"created_at"`
	CodebookVersion string             `json:"codebook_version"`
	Family          string             `json:"family"`
	Config          learn.Config       `json:"config"`
	EligibilityRate float64            `json:"eligibility_rate"`
	Encoder         []design.LevelSpec `json:"encoder"`
	Model           json.RawMessage    `json:"model"`
}

// New builds a bundle around a fitted model, stamping it with a fresh
// run ID and the current time.
func New(family string, cfg learn.Config, model learn.Model, enc *design.Encoder, eligRate float64) (*Bundle, error) {

	payload, err := model.Export()
	if err != nil {
		return nil, fmt.Errorf("artifact: exporting %s model: %w", family, err)
	}

	return &Bundle{
		RunID:           uuid.NewString(),
		CreatedAt:       time.Now().UTC(),
		CodebookVersion: survey.CodebookVersion,
		Family:          family,
		Config:          cfg,
		EligibilityRate: eligRate,
		Encoder:         enc.Specs,
		Model:           payload,
	}, nil
}

// Save writes the bundle as indented JSON.
func (b *Bundle) Save(path string) error {

	buf, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("artifact: encoding bundle: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("artifact: writing %s: %w", path, err)
	}
	return nil
}

// Load reads a bundle written by Save.
func Load(path string) (*Bundle, error) {

	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("artifact: reading %s: %w", path, err)
	}

	b := &Bundle{}
	if err := json.Unmarshal(buf, b); err != nil {
		return nil, fmt.Errorf("artifact: decoding %s: %w", path, err)
	}
	if len(b.Encoder) == 0 {
		return nil, fmt.Errorf("artifact: %s carries no encoder state", path)
	}
	if len(b.Model) == 0 {
		return nil, fmt.Errorf("artifact: %s carries no model parameters", path)
	}
	return b, nil
}

// Restore rebuilds the scoring model from the bundle's exported
// parameters.
func (b *Bundle) Restore() (learn.Model, error) {
	return restoreModel(b.Family, b.Model)
}

// restoreModel dispatches on the family name.  A stacked payload is
// split and its base models restored recursively.
func restoreModel(family string, payload []byte) (learn.Model, error) {

	switch family {
	case "logistic", "elastic net logistic", "l1 logistic":
		return logit.Restore(payload)
	case "random forest":
		return tree.RestoreForest(payload)
	case "gradient boosting":
		return tree.RestoreBoost(payload)
	case "neural network":
		return nnet.Restore(payload)
	case learn.EnsembleFamily:
		return restoreStacked(payload)
	}
	return nil, fmt.Errorf("artifact: unknown model family %q", family)
}

func restoreStacked(payload []byte) (learn.Model, error) {

	families, basePayloads, metaPayload, err := learn.DecodeStacked(payload)
	if err != nil {
		return nil, err
	}
	if len(families) != len(basePayloads) {
		return nil, fmt.Errorf("artifact: stacked payload has %d families but %d base models",
			len(families), len(basePayloads))
	}

	var bases []learn.Model
	for k, fam := range families {
		m, err := restoreModel(fam, basePayloads[k])
		if err != nil {
			return nil, fmt.Errorf("artifact: restoring stacked base %s: %w", fam, err)
		}
		bases = append(bases, m)
	}

	meta, err := logit.Restore(metaPayload)
	if err != nil {
		return nil, fmt.Errorf("artifact: restoring stacked meta-learner: %w", err)
	}

	return learn.NewStacked(families, bases, meta), nil
}

// Score re-derives the predictor encoding for raw records and returns
// their predicted non-response probabilities.  Every record is scored,
// in input order.
func (b *Bundle) Score(records []survey.Record) ([]float64, error) {

	enc, err := design.NewEncoder(b.Encoder)
	if err != nil {
		return nil, fmt.Errorf("artifact: rebuilding encoder: %w", err)
	}

	model, err := b.Restore()
	if err != nil {
		return nil, err
	}

	ds := design.Encode(records, enc)
	return model.Prob(ds.X), nil
}
