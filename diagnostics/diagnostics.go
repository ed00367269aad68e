// Package diagnostics produces the descriptive comparisons used to
// judge whether ineligibility can be treated as missing at random
// among eligibility-undetermined records.  The output feeds human
// review; no decision is made here.
package diagnostics

import (
	"github.com/ucsf-bhhi/statewide-survey-non-response/survey"
)

// Contrast is the weighted category distribution of one demographic
// dimension, conditioned on eligibility-determination status.  Shares
// within each column sum to 1 when the column total is positive.
type Contrast struct {
	Dim    survey.Dim
	Levels []string

	// Determined[i] is the weighted share of Levels[i] among records
	// with a determined eligibility outcome; Undetermined likewise
	// for records without one.
	Determined   []float64
	Undetermined []float64

	// Weighted totals of the two groups.
	DeterminedTotal   float64
	UndeterminedTotal float64
}

// DeterminationContrast computes the distribution of a perceived
// demographic dimension by determination status.  Missing appears as
// an ordinary level.
func DeterminationContrast(sm *survey.Sample, dim survey.Dim) Contrast {

	lv := survey.Levels(dim)
	pos := make(map[string]int, len(lv))
	for i, v := range lv {
		pos[v] = i
	}

	c := Contrast{
		Dim:          dim,
		Levels:       lv,
		Determined:   make([]float64, len(lv)),
		Undetermined: make([]float64, len(lv)),
	}

	for i, r := range sm.Records {
		j, ok := pos[r.Perceived.Get(dim)]
		if !ok {
			// Anything outside the level set counts as Missing,
			// which is always the final level.
			j = len(lv) - 1
		}
		if sm.Flags[i].EligibilityDetermined {
			c.Determined[j] += r.Weight
			c.DeterminedTotal += r.Weight
		} else {
			c.Undetermined[j] += r.Weight
			c.UndeterminedTotal += r.Weight
		}
	}

	if c.DeterminedTotal > 0 {
		for j := range c.Determined {
			c.Determined[j] /= c.DeterminedTotal
		}
	}
	if c.UndeterminedTotal > 0 {
		for j := range c.Undetermined {
			c.Undetermined[j] /= c.UndeterminedTotal
		}
	}

	return c
}

// AgreementRow is the perceived/self-reported agreement summary for
// one demographic dimension.
type AgreementRow struct {
	Dim survey.Dim

	// Rate is the weighted share of comparable records where the
	// perceived and self-reported categories match.  Defined is false
	// when no record was comparable.
	Rate    float64
	Defined bool

	// Compared is the weighted total of comparable records; Count is
	// the unweighted number.
	Compared float64
	Count    int
}

// Agreement computes the perceived-vs-actual agreement rate for one
// dimension over response records where both values are observed
// (neither is Missing).
func Agreement(sm *survey.Sample, dim survey.Dim) AgreementRow {

	row := AgreementRow{Dim: dim}

	var match float64
	for i, r := range sm.Records {
		if !sm.Flags[i].Response {
			continue
		}
		p := r.Perceived.Get(dim)
		a := r.Actual.Get(dim)
		if p == survey.Missing || a == survey.Missing {
			continue
		}
		row.Compared += r.Weight
		row.Count++
		if p == a {
			match += r.Weight
		}
	}

	if row.Compared > 0 {
		row.Rate = match / row.Compared
		row.Defined = true
	}

	return row
}
