package report

import (
	"fmt"

	"github.com/ucsf-bhhi/statewide-survey-non-response/diagnostics"
	"github.com/ucsf-bhhi/statewide-survey-non-response/learn"
	"github.com/ucsf-bhhi/statewide-survey-non-response/rates"
	"github.com/ucsf-bhhi/statewide-survey-non-response/survey"
)

// RatesTable renders the per-stratum rate estimates with the pooled
// Total row last.
func RatesTable(tbl *rates.Table, weighted bool) *Table {

	est := append(append([]rates.Estimate{}, tbl.Strata...), tbl.Total)

	var (
		stratum                    []string
		approached, determined     []float64
		ineligible, nonResp, adjNR []float64
		initial, adjusted          []rateVal
	)

	for _, e := range est {
		stratum = append(stratum, e.Stratum)
		approached = append(approached, e.Approached)
		determined = append(determined, e.Determined)
		ineligible = append(ineligible, e.Ineligible)
		nonResp = append(nonResp, e.NonResponse)
		adjNR = append(adjNR, e.AdjustedNonResponse)
		initial = append(initial, rateVal{e.InitialRate, e.InitialDefined})
		adjusted = append(adjusted, rateVal{e.AdjustedRate, e.AdjustedDefined})
	}

	mode := "unweighted"
	if weighted {
		mode = "weighted"
	}

	return &Table{
		Title: "Non-response rates by county",
		Top: []string{
			fmt.Sprintf("Counties: %d", len(tbl.Strata)),
			fmt.Sprintf("Mode:     %s", mode),
		},
		ColNames: []string{"County   ", "Approached", "Determined", "Ineligible", "Non-resp", "Adj non-resp", "Initial", "Adjusted"},
		ColFmt:   []Fmter{StringFmt, CountFmt, CountFmt, CountFmt, CountFmt, CountFmt, RateFmt, RateFmt},
		Cols: []interface{}{
			stratum, approached, determined, ineligible, nonResp, adjNR, initial, adjusted,
		},
		Msg: []string{"A negative adjusted count signals an implausible ineligibility share."},
	}
}

// ContrastTable renders the category distribution of one demographic
// dimension by eligibility-determination status.
func ContrastTable(c diagnostics.Contrast) *Table {

	diff := make([]float64, len(c.Levels))
	for i := range diff {
		diff[i] = c.Undetermined[i] - c.Determined[i]
	}

	return &Table{
		Title: fmt.Sprintf("Determination contrast: %s", c.Dim),
		Top: []string{
			fmt.Sprintf("Determined:   %.1f", c.DeterminedTotal),
			fmt.Sprintf("Undetermined: %.1f", c.UndeterminedTotal),
		},
		ColNames: []string{"Level   ", "Determined", "Undetermined", "Difference"},
		ColFmt:   []Fmter{StringFmt, NumberFmt, NumberFmt, NumberFmt},
		Cols: []interface{}{
			append([]string{}, c.Levels...), c.Determined, c.Undetermined, diff,
		},
	}
}

// AgreementTable renders the perceived-vs-self-reported agreement
// rates over all dimensions.
func AgreementTable(rows []diagnostics.AgreementRow) *Table {

	var (
		dim      []string
		rate     []rateVal
		compared []float64
		count    []int
	)
	for _, r := range rows {
		dim = append(dim, r.Dim.String())
		rate = append(rate, rateVal{r.Rate, r.Defined})
		compared = append(compared, r.Compared)
		count = append(count, r.Count)
	}

	return &Table{
		Title:    "Perceived vs self-reported agreement",
		ColNames: []string{"Dimension   ", "Agreement", "Compared", "N"},
		ColFmt:   []Fmter{StringFmt, RateFmt, CountFmt, IntFmt},
		Cols:     []interface{}{dim, rate, compared, count},
		Msg:      []string{"Computed over completed interviews with both values observed."},
	}
}

// RankingTable renders the cross-validated model ranking with the
// selection marker.
func RankingTable(rows []learn.Ranked) *Table {

	var (
		family             []string
		complexity, nfolds []int
		mean, se, lcb, ucb []float64
		selected           []string
	)
	for _, r := range rows {
		family = append(family, r.Family)
		complexity = append(complexity, r.Complexity)
		nfolds = append(nfolds, r.NFolds)
		mean = append(mean, r.MeanAUC)
		se = append(se, r.SEAUC)
		lcb = append(lcb, r.Lo)
		ucb = append(ucb, r.Hi)
		if r.Selected {
			selected = append(selected, "*")
		} else {
			selected = append(selected, "")
		}
	}

	return &Table{
		Title:    "Model ranking by cross-validated AUC",
		ColNames: []string{"Family   ", "Complexity", "Mean AUC", "SE", "LCB", "UCB", "Folds", "Selected"},
		ColFmt:   []Fmter{StringFmt, IntFmt, NumberFmt, NumberFmt, NumberFmt, NumberFmt, IntFmt, StringFmt},
		Cols:     []interface{}{family, complexity, mean, se, lcb, ucb, nfolds, selected},
		Msg:      []string{"Selected: simplest family whose interval reaches the best model's interval."},
	}
}

// CalibrationTable renders the test-split calibration comparison over
// the fixed probability bins.
func CalibrationTable(bins []learn.CalibrationBin) *Table {

	var (
		rng           []string
		count         []int
		weight        []float64
		pred, observe []rateVal
	)
	for _, b := range bins {
		rng = append(rng, fmt.Sprintf("[%.1f, %.1f)", b.Lo, b.Hi))
		count = append(count, b.Count)
		weight = append(weight, b.Weight)
		pred = append(pred, rateVal{b.MeanPredicted, b.Count > 0})
		observe = append(observe, rateVal{b.Observed, b.Count > 0})
	}

	return &Table{
		Title:    "Calibration on the held-out test split",
		ColNames: []string{"Bin   ", "N", "Weight", "Predicted", "Observed"},
		ColFmt:   []Fmter{StringFmt, IntFmt, CountFmt, RateFmt, RateFmt},
		Cols:     []interface{}{rng, count, weight, pred, observe},
	}
}

// QualityTable renders the data-quality tally of a loaded sample.
func QualityTable(sm *survey.Sample) *Table {

	issue := []string{"Unknown screening codes", "Impossible flag combinations"}
	count := []int{sm.Tally.UnknownScreenCodes, sm.Tally.Conflicts}

	for _, d := range survey.Dims {
		issue = append(issue, fmt.Sprintf("Unrecognized %s values", d))
		count = append(count, sm.Tally.UnrecognizedLevels[d])
	}

	return &Table{
		Title:    "Data quality tally",
		Top:      []string{fmt.Sprintf("Records: %d", sm.Len())},
		ColNames: []string{"Issue   ", "Count"},
		ColFmt:   []Fmter{StringFmt, IntFmt},
		Cols:     []interface{}{issue, count},
		Msg:      []string{"Flagged values are kept (mapped to Missing), never dropped."},
	}
}
