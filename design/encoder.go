package design

import (
	"fmt"

	"github.com/ucsf-bhhi/statewide-survey-non-response/survey"
)

// LevelSpec fixes the dummy coding of one categorical predictor: its
// ordered level set and the designated reference level.  The reference
// is an explicit configuration choice, never an alphabetical default.
type LevelSpec struct {
	Name      string   `json:"name" yaml:"name"`
	Levels    []string `json:"levels" yaml:"levels"`
	Reference string   `json:"reference" yaml:"reference"`
}

// Encoder converts categorical predictor values to indicator columns.
// Each predictor contributes one column per non-reference level; a
// value outside the known level set activates the predictor's Missing
// indicator.  The encoder state is frozen at construction and is
// serialized into the scoring artifact.
type Encoder struct {
	Specs []LevelSpec `json:"specs"`
}

// NewEncoder validates the specs and returns an encoder.  Every spec
// must carry a Missing level and a reference drawn from its level set.
func NewEncoder(specs []LevelSpec) (*Encoder, error) {

	for _, sp := range specs {
		if len(sp.Levels) < 2 {
			return nil, fmt.Errorf("design: predictor %s has fewer than two levels", sp.Name)
		}
		var hasRef, hasMissing bool
		seen := make(map[string]bool)
		for _, lv := range sp.Levels {
			if seen[lv] {
				return nil, fmt.Errorf("design: predictor %s repeats level %q", sp.Name, lv)
			}
			seen[lv] = true
			if lv == sp.Reference {
				hasRef = true
			}
			if lv == survey.Missing {
				hasMissing = true
			}
		}
		if !hasRef {
			return nil, fmt.Errorf("design: predictor %s: reference level %q is not a known level",
				sp.Name, sp.Reference)
		}
		if !hasMissing {
			return nil, fmt.Errorf("design: predictor %s has no %s level", sp.Name, survey.Missing)
		}
		if sp.Reference == survey.Missing {
			// Missing must keep its own indicator column so unseen
			// values stay visible after encoding.
			return nil, fmt.Errorf("design: predictor %s uses %s as its reference level",
				sp.Name, survey.Missing)
		}
	}

	return &Encoder{Specs: specs}, nil
}

// ColumnNames returns the names of all indicator columns in encoding
// order, formatted as predictor[level].
func (e *Encoder) ColumnNames() []string {

	var names []string
	for _, sp := range e.Specs {
		for _, lv := range sp.Levels {
			if lv == sp.Reference {
				continue
			}
			names = append(names, fmt.Sprintf("%s[%s]", sp.Name, lv))
		}
	}
	return names
}

// NumCols returns the total number of indicator columns.
func (e *Encoder) NumCols() int {
	n := 0
	for _, sp := range e.Specs {
		n += len(sp.Levels) - 1
	}
	return n
}

// EncodeRow writes the indicator values for one observation into row,
// which must have length NumCols.  values holds one raw value per
// predictor, in spec order.
func (e *Encoder) EncodeRow(values []string, row []float64) {

	if len(values) != len(e.Specs) {
		panic(fmt.Sprintf("design: got %d values for %d predictors", len(values), len(e.Specs)))
	}

	for i := range row {
		row[i] = 0
	}

	off := 0
	for k, sp := range e.Specs {

		v := values[k]
		known := false
		j := off
		for _, lv := range sp.Levels {
			if lv == sp.Reference {
				continue
			}
			if lv == v {
				row[j] = 1
				known = true
			}
			j++
		}
		if !known && v != sp.Reference {
			// Unseen level: activate the Missing indicator.  Missing
			// is never the reference, so it has a column.
			j = off
			for _, lv := range sp.Levels {
				if lv == sp.Reference {
					continue
				}
				if lv == survey.Missing {
					row[j] = 1
					break
				}
				j++
			}
		}

		off += len(sp.Levels) - 1
	}
}

// DecodeRow recovers the category of each predictor from an encoded
// row: the level whose indicator is set, or the reference when the
// predictor's block is all zero.
func (e *Encoder) DecodeRow(row []float64) []string {

	out := make([]string, len(e.Specs))

	off := 0
	for k, sp := range e.Specs {
		out[k] = sp.Reference
		j := off
		for _, lv := range sp.Levels {
			if lv == sp.Reference {
				continue
			}
			if row[j] == 1 {
				out[k] = lv
				break
			}
			j++
		}
		off += len(sp.Levels) - 1
	}

	return out
}
