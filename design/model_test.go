package design

import (
	"math"
	"testing"

	"github.com/ucsf-bhhi/statewide-survey-non-response/survey"
)

func testRefs() map[string]string {
	return map[string]string{
		"county":       "Alameda",
		"site":         "Street",
		"age":          "25-34",
		"gender":       "Male",
		"race":         "White",
		"disability":   "None apparent",
		"intoxication": "Not intoxicated",
	}
}

func TestModelData(t *testing.T) {

	enc, err := BuildEncoder([]string{"Alameda", "Fresno"}, []string{"Street", "Shelter"}, testRefs())
	if err != nil {
		t.Fatal(err)
	}

	records := []survey.Record{
		// Response, determined.
		{County: "Fresno", Site: "Shelter", Screen: survey.ScreenEligibleConsented,
			Finished: true, Weight: 2},
		// Non-response, determined.
		{County: "Alameda", Site: "Street", Screen: survey.ScreenEligibleNoConsent, Weight: 3},
		// Undetermined: weight scaled by the eligibility rate.
		{County: "Alameda", Site: "Street", Screen: survey.ScreenDeclined, Weight: 4},
		// Ineligible: excluded.
		{County: "Fresno", Site: "Street", Screen: survey.ScreenIneligible, Weight: 100},
	}
	sm := survey.NewSample(records)

	ds := ModelData(sm, enc, 0.8)

	if ds.NumObs() != 3 {
		t.Fatalf("observations: got %d, want 3 (ineligible excluded)", ds.NumObs())
	}

	wantY := []float64{0, 1, 1}
	wantW := []float64{2, 3, 4 * 0.8}
	for i := range wantY {
		if ds.Y[i] != wantY[i] {
			t.Errorf("y[%d]: got %v, want %v", i, ds.Y[i], wantY[i])
		}
		if math.Abs(ds.W[i]-wantW[i]) > 1e-12 {
			t.Errorf("w[%d]: got %v, want %v", i, ds.W[i], wantW[i])
		}
	}

	if ds.NumVars() != enc.NumCols() {
		t.Errorf("columns: got %d, want %d", ds.NumVars(), enc.NumCols())
	}

	// First record is Fresno/Shelter; its county[Fresno] indicator is 1.
	jf := -1
	for j, na := range ds.Names {
		if na == "county[Fresno]" {
			jf = j
		}
	}
	if jf < 0 || ds.X[jf][0] != 1 || ds.X[jf][1] != 0 {
		t.Errorf("county[Fresno] column wrong: %v", ds.X[jf])
	}
}

func TestEncodeForScoring(t *testing.T) {

	enc, err := BuildEncoder([]string{"Alameda"}, []string{"Street"}, testRefs())
	if err != nil {
		t.Fatal(err)
	}

	records := []survey.Record{
		// An unseen county maps to the county Missing indicator.
		{County: "Atlantis", Site: "Street"},
	}

	ds := Encode(records, enc)
	if ds.NumObs() != 1 {
		t.Fatalf("observations: got %d", ds.NumObs())
	}

	for j, na := range ds.Names {
		want := 0.0
		// Blank demographics also land on Missing indicators.
		switch na {
		case "county[Missing]", "age[Missing]", "gender[Missing]", "race[Missing]",
			"disability[Missing]", "intoxication[Missing]":
			want = 1
		}
		if ds.X[j][0] != want {
			t.Errorf("%s: got %v, want %v", na, ds.X[j][0], want)
		}
	}
}
