package design

import (
	"fmt"

	"github.com/ucsf-bhhi/statewide-survey-non-response/survey"
)

// Predictor names used by the model encoder, in encoding order:
// county, site, then the five perceived dimensions.
const (
	PredCounty = "county"
	PredSite   = "site"
)

// PredictorNames returns the model predictor names in encoding order.
func PredictorNames() []string {
	names := []string{PredCounty, PredSite}
	for _, d := range survey.Dims {
		names = append(names, d.String())
	}
	return names
}

// BuildEncoder constructs the model encoder from the configured county
// and site level sets and the per-predictor reference levels.  The
// county and site lists are extended with a Missing level; the
// demographic dimensions use their closed level sets from the survey
// package.
func BuildEncoder(counties, sites []string, refs map[string]string) (*Encoder, error) {

	withMissing := func(lv []string) []string {
		out := make([]string, 0, len(lv)+1)
		out = append(out, lv...)
		return append(out, survey.Missing)
	}

	var specs []LevelSpec

	specs = append(specs, LevelSpec{
		Name:      PredCounty,
		Levels:    withMissing(counties),
		Reference: refs[PredCounty],
	})
	specs = append(specs, LevelSpec{
		Name:      PredSite,
		Levels:    withMissing(sites),
		Reference: refs[PredSite],
	})

	for _, d := range survey.Dims {
		ref, ok := refs[d.String()]
		if !ok {
			return nil, fmt.Errorf("design: no reference level configured for %s", d)
		}
		specs = append(specs, LevelSpec{
			Name:      d.String(),
			Levels:    survey.Levels(d),
			Reference: ref,
		})
	}

	return NewEncoder(specs)
}

// predictorValues extracts the raw predictor values of one record in
// encoder spec order.
func predictorValues(r survey.Record) []string {
	vals := []string{r.County, r.Site}
	for _, d := range survey.Dims {
		vals = append(vals, r.Perceived.Get(d))
	}
	return vals
}

// ModelData builds the model dataset from a classified sample.
// Ineligible records are excluded.  The outcome is the non-response
// flag.  Case weights are the sample weights, with eligibility-
// undetermined records additionally scaled by the overall observed
// eligibility rate so their expected contribution matches the rate
// adjustment.
func ModelData(sm *survey.Sample, enc *Encoder, eligRate float64) *Dataset {

	names := enc.ColumnNames()
	p := enc.NumCols()

	ds := &Dataset{Names: names, X: make([][]float64, p)}
	for j := range ds.X {
		ds.X[j] = []float64{}
	}

	row := make([]float64, p)

	for i, r := range sm.Records {

		f := sm.Flags[i]
		if f.Ineligible {
			continue
		}

		enc.EncodeRow(predictorValues(r), row)
		for j := range ds.X {
			ds.X[j] = append(ds.X[j], row[j])
		}

		y := 0.0
		if f.NonResponse {
			y = 1
		}
		ds.Y = append(ds.Y, y)

		w := r.Weight
		if !f.EligibilityDetermined {
			w *= eligRate
		}
		ds.W = append(ds.W, w)
	}

	ds.check()

	return ds
}

// Encode builds a prediction dataset (no outcome labels) from raw
// records, used when scoring future survey waves.  All records are
// encoded, including ineligible ones; the caller decides which scores
// to keep.  Y and W are filled with zeros and ones respectively so
// the dataset is well formed.
func Encode(records []survey.Record, enc *Encoder) *Dataset {

	p := enc.NumCols()
	n := len(records)

	ds := &Dataset{
		Names: enc.ColumnNames(),
		X:     make([][]float64, p),
		Y:     make([]float64, n),
		W:     make([]float64, n),
	}
	for j := range ds.X {
		ds.X[j] = make([]float64, n)
	}

	row := make([]float64, p)
	for i, r := range records {
		enc.EncodeRow(predictorValues(r), row)
		for j := range ds.X {
			ds.X[j][i] = row[j]
		}
		ds.W[i] = 1
	}

	return ds
}
