// Package rates estimates survey non-response rates per geographic
// stratum, adjusting for records whose eligibility screen never
// reached a determination.
//
// The adjustment removes from the non-response count the expected
// number of ineligible individuals among the eligibility-undetermined
// pool, assuming ineligibility is missing at random.  Validating that
// assumption is the job of the diagnostics package, not this one.
package rates

import (
	"github.com/ucsf-bhhi/statewide-survey-non-response/survey"
)

// TotalStratum is the label of the pooled aggregate row.
const TotalStratum = "Total"

// Counts holds the weighted sums of the disposition indicators for one
// stratum.  In unweighted mode every record contributes 1.
type Counts struct {
	Stratum string

	Approached       float64
	Determined       float64
	Ineligible       float64
	Eligible         float64
	ConsentedAtStart float64
	DidNotConsent    float64
	DidNotFinish     float64
	Response         float64
	NonResponse      float64
}

func (c *Counts) add(w float64, f survey.Flags) {

	c.Approached += w
	if f.EligibilityDetermined {
		c.Determined += w
	}
	if f.Ineligible {
		c.Ineligible += w
	}
	if f.Eligible {
		c.Eligible += w
	}
	if f.ConsentedAtStart {
		c.ConsentedAtStart += w
	}
	if f.DidNotConsent {
		c.DidNotConsent += w
	}
	if f.DidNotFinish {
		c.DidNotFinish += w
	}
	if f.Response {
		c.Response += w
	}
	if f.NonResponse {
		c.NonResponse += w
	}
}

// Estimate is the rate row for one stratum.  A rate whose denominator
// vanishes is reported with its Defined flag false rather than as a
// NaN; the row itself is always present.
type Estimate struct {
	Counts

	InitialRate    float64
	InitialDefined bool

	// AdjustedNonResponse may be negative when the ineligible share
	// among determined records is large relative to the undetermined
	// pool.  The raw value is preserved; a negative count is a signal
	// to the analyst, not an error.
	AdjustedNonResponse float64

	AdjustedRate    float64
	AdjustedDefined bool
}

// Compute derives the initial and adjusted non-response rates from the
// stratum sums.
func Compute(c Counts) Estimate {

	e := Estimate{Counts: c}

	if d := c.Response + c.NonResponse; d > 0 {
		e.InitialRate = c.NonResponse / d
		e.InitialDefined = true
	}

	undetermined := c.Approached - c.Determined

	if c.Determined > 0 {
		e.AdjustedNonResponse = c.NonResponse - undetermined*c.Ineligible/c.Determined
		if d := c.Response + e.AdjustedNonResponse; d > 0 {
			e.AdjustedRate = e.AdjustedNonResponse / d
			e.AdjustedDefined = true
		}
	} else if undetermined == 0 {
		// Empty stratum: no determination needed, nothing to adjust.
		e.AdjustedNonResponse = c.NonResponse
	}

	return e
}

// Table holds the per-stratum estimates plus the pooled Total row.
type Table struct {
	Strata []Estimate
	Total  Estimate
}

// Accumulate sums the disposition indicators of a sample by stratum
// and computes the rate estimates.  The strata argument fixes the row
// order; records from counties outside the list are grouped under an
// "Other" row appended at the end.  With weighted false, unit weights
// are used in place of the sample weights.
func Accumulate(sm *survey.Sample, strata []string, weighted bool) *Table {

	idx := make(map[string]int)
	counts := make([]Counts, 0, len(strata)+1)
	for _, s := range strata {
		idx[s] = len(counts)
		counts = append(counts, Counts{Stratum: s})
	}

	var total Counts
	total.Stratum = TotalStratum

	for i, r := range sm.Records {

		w := 1.0
		if weighted {
			w = r.Weight
		}

		j, ok := idx[r.County]
		if !ok {
			// Counties outside the configured list share one row.
			j, ok = idx["Other"]
			if !ok {
				j = len(counts)
				counts = append(counts, Counts{Stratum: "Other"})
				idx["Other"] = j
			}
		}

		counts[j].add(w, sm.Flags[i])
		total.add(w, sm.Flags[i])
	}

	tab := &Table{Total: Compute(total)}
	for _, c := range counts {
		tab.Strata = append(tab.Strata, Compute(c))
	}

	return tab
}
