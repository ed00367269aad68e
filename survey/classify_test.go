package survey

import "testing"

var allScreens = []ScreenResult{
	ScreenUnknownCode, ScreenLanguageBarrier, ScreenDeclined,
	ScreenUndetermined, ScreenIneligible, ScreenEligibleNoConsent,
	ScreenEligibleConsented,
}

// Exactly one of response, non-response, and ineligible must hold for
// every combination of screening outcome and completion flag, and
// undetermined records must never land in the ineligible bucket.
func TestDispositionPartition(t *testing.T) {

	for _, sc := range allScreens {
		for _, fin := range []bool{false, true} {

			f := Classify(Record{Screen: sc, Finished: fin, Weight: 1})

			n := 0
			for _, b := range []bool{f.Response, f.NonResponse, f.Ineligible} {
				if b {
					n++
				}
			}
			if n != 1 {
				t.Errorf("screen=%v finished=%v: %d of {response, non-response, ineligible} set", sc, fin, n)
			}

			if !f.EligibilityDetermined && f.Ineligible {
				t.Errorf("screen=%v: undetermined record classified ineligible", sc)
			}
		}
	}
}

func TestClassifyOutcomes(t *testing.T) {

	for _, tc := range []struct {
		screen   ScreenResult
		finished bool
		want     Flags
	}{
		{ScreenEligibleConsented, true, Flags{
			EligibilityDetermined: true, Eligible: true, ConsentedAtStart: true, Response: true}},
		{ScreenEligibleConsented, false, Flags{
			EligibilityDetermined: true, Eligible: true, ConsentedAtStart: true,
			DidNotFinish: true, NonResponse: true}},
		{ScreenEligibleNoConsent, false, Flags{
			EligibilityDetermined: true, Eligible: true, DidNotConsent: true, NonResponse: true}},
		{ScreenIneligible, false, Flags{
			EligibilityDetermined: true, Ineligible: true}},
		{ScreenDeclined, false, Flags{NonResponse: true}},
		{ScreenLanguageBarrier, false, Flags{NonResponse: true}},
		{ScreenUndetermined, false, Flags{NonResponse: true}},
		{ScreenUnknownCode, false, Flags{NonResponse: true}},
	} {
		got := Classify(Record{Screen: tc.screen, Finished: tc.finished, Weight: 1})
		if got != tc.want {
			t.Errorf("screen=%v finished=%v: got %+v, want %+v", tc.screen, tc.finished, got, tc.want)
		}
	}
}

// A finished interview on a record that never consented is an
// impossible combination; it must be flagged, not dropped.
func TestConflictSurfaced(t *testing.T) {

	sm := NewSample([]Record{
		{Screen: ScreenIneligible, Finished: true, Weight: 1},
		{Screen: ScreenEligibleConsented, Finished: true, Weight: 1},
	})

	if !sm.Flags[0].Conflict {
		t.Errorf("finished-but-ineligible not flagged as conflict")
	}
	if sm.Flags[1].Conflict {
		t.Errorf("completed response flagged as conflict")
	}
	if sm.Tally.Conflicts != 1 {
		t.Errorf("conflict tally: got %d, want 1", sm.Tally.Conflicts)
	}
	if !sm.Flags[0].Ineligible {
		t.Errorf("conflicting record lost its screen-derived classification")
	}
}

func TestParseScreenCodeUnknown(t *testing.T) {

	for _, code := range []int{0, -1, 7, 99} {
		if sc := ParseScreenCode(code); sc != ScreenUnknownCode {
			t.Errorf("code %d: got %v, want unknown code sentinel", code, sc)
		}
	}

	sm := NewSample([]Record{{Screen: ParseScreenCode(99), Weight: 1}})
	if sm.Tally.UnknownScreenCodes != 1 {
		t.Errorf("unknown code not tallied")
	}
}

func TestEligibilityRate(t *testing.T) {

	sm := NewSample([]Record{
		{Screen: ScreenEligibleConsented, Finished: true, Weight: 2},
		{Screen: ScreenEligibleNoConsent, Weight: 1},
		{Screen: ScreenIneligible, Weight: 1},
		{Screen: ScreenDeclined, Weight: 10}, // undetermined, excluded
	})

	r, ok := sm.EligibilityRate()
	if !ok {
		t.Fatalf("rate reported undefined")
	}
	if want := 3.0 / 4.0; r != want {
		t.Errorf("eligibility rate: got %v, want %v", r, want)
	}

	sm = NewSample([]Record{{Screen: ScreenDeclined, Weight: 1}})
	if _, ok := sm.EligibilityRate(); ok {
		t.Errorf("rate defined with no determined records")
	}
}
