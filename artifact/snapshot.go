package artifact

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/ucsf-bhhi/statewide-survey-non-response/learn"
)

// SearchSnapshot records the full per-fold metric grid of the
// hyperparameter search, the model ranking, and the held-out test
// evaluation of the selected model.
type SearchSnapshot struct {
	RunID      string            `json:"run_id"`
	CreatedAt  time.Time         `json:"created_at"`
	Seed       int64             `json:"seed"`
	Folds      int               `json:"folds"`
	Repeats    int               `json:"repeats"`
	Candidates []learn.Candidate `json:"candidates"`
	Ranking    []learn.Ranked    `json:"ranking"`
	Test       *learn.TestEval   `json:"test,omitempty"`
}

// StackSnapshot records the per-penalty evaluation of the stacked
// ensemble's meta-learner.
type StackSnapshot struct {
	RunID      string            `json:"run_id"`
	CreatedAt  time.Time         `json:"created_at"`
	Families   []string          `json:"families"`
	Candidates []learn.Candidate `json:"candidates"`
}

// WriteSnapshot writes a snapshot as indented JSON.
func WriteSnapshot(path string, v any) error {

	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("artifact: encoding snapshot: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("artifact: writing %s: %w", path, err)
	}
	return nil
}

// SanitizeCandidates zeroes the NaN summaries of candidates that
// completed no fold, which JSON cannot represent.  The NFolds field
// distinguishes a true zero from a missing summary.
func SanitizeCandidates(cands []learn.Candidate) []learn.Candidate {

	out := make([]learn.Candidate, len(cands))
	copy(out, cands)
	for i := range out {
		if math.IsNaN(out[i].MeanAUC) {
			out[i].MeanAUC = 0
		}
		if math.IsNaN(out[i].SEAUC) {
			out[i].SEAUC = 0
		}
	}
	return out
}
