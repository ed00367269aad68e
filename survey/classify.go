package survey

// ScreenResult is the normalized outcome of the eligibility screen.
type ScreenResult int

// The screening outcomes.  ScreenUnknownCode is the sentinel for a raw
// code outside the codebook; it belongs to the undetermined bucket and
// is never dropped.
const (
	ScreenUnknownCode ScreenResult = iota
	ScreenLanguageBarrier
	ScreenDeclined
	ScreenUndetermined
	ScreenIneligible
	ScreenEligibleNoConsent
	ScreenEligibleConsented
)

func (s ScreenResult) String() string {
	switch s {
	case ScreenUnknownCode:
		return "unknown code"
	case ScreenLanguageBarrier:
		return "language barrier"
	case ScreenDeclined:
		return "declined screening"
	case ScreenUndetermined:
		return "could not determine"
	case ScreenIneligible:
		return "ineligible"
	case ScreenEligibleNoConsent:
		return "eligible, did not consent"
	case ScreenEligibleConsented:
		return "eligible, consented"
	}
	panic("survey: unknown screen result")
}

// CodebookVersion identifies the raw screen-code table implemented by
// ParseScreenCode.  It is stamped into scoring artifacts so a bundle
// records which code table produced its training labels.
const CodebookVersion = "2023.1"

// ParseScreenCode maps a raw screening code from the field data to a
// ScreenResult.  Codes outside the codebook map to ScreenUnknownCode.
func ParseScreenCode(code int) ScreenResult {
	switch code {
	case 1:
		return ScreenEligibleConsented
	case 2:
		return ScreenEligibleNoConsent
	case 3:
		return ScreenIneligible
	case 4:
		return ScreenUndetermined
	case 5:
		return ScreenDeclined
	case 6:
		return ScreenLanguageBarrier
	}
	return ScreenUnknownCode
}

// Flags holds the derived disposition attributes for one record.
// Exactly one of Response, NonResponse, and Ineligible is true when
// eligibility was determined; records without a determination are
// never Ineligible and count as NonResponse.
type Flags struct {
	EligibilityDetermined bool
	Ineligible            bool
	Eligible              bool
	ConsentedAtStart      bool
	DidNotConsent         bool
	DidNotFinish          bool
	Response              bool
	NonResponse           bool

	// Conflict marks an impossible raw combination, e.g. a finished
	// interview on a record screened ineligible.  Conflicting records
	// are classified by their screen outcome and surfaced in the
	// data-quality tally rather than dropped.
	Conflict bool
}

// Classify derives the disposition flags for one record.  It is a pure
// function of the record and is total over all screen outcomes.
func Classify(r Record) Flags {

	var f Flags

	switch r.Screen {
	case ScreenIneligible, ScreenEligibleNoConsent, ScreenEligibleConsented:
		f.EligibilityDetermined = true
	}

	f.Ineligible = r.Screen == ScreenIneligible
	f.Eligible = r.Screen == ScreenEligibleNoConsent || r.Screen == ScreenEligibleConsented
	f.ConsentedAtStart = r.Screen == ScreenEligibleConsented
	f.DidNotConsent = r.Screen == ScreenEligibleNoConsent
	f.DidNotFinish = f.ConsentedAtStart && !r.Finished

	f.Response = f.ConsentedAtStart && r.Finished
	f.NonResponse = !f.Response && !f.Ineligible

	f.Conflict = r.Finished && !f.ConsentedAtStart

	return f
}
