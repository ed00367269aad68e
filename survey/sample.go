package survey

// Tally counts the data-quality issues found while building a sample.
// The counts are reported, never used to drop records.
type Tally struct {

	// UnknownScreenCodes counts records whose raw screening code was
	// outside the codebook.
	UnknownScreenCodes int

	// UnrecognizedLevels counts raw demographic values that matched
	// no known level or alias, by dimension.  Each such value was
	// mapped to Missing.
	UnrecognizedLevels map[Dim]int

	// Conflicts counts impossible raw combinations (see Flags.Conflict).
	Conflicts int
}

func (t *Tally) addUnrecognized(d Dim) {
	if t.UnrecognizedLevels == nil {
		t.UnrecognizedLevels = make(map[Dim]int)
	}
	t.UnrecognizedLevels[d]++
}

// TotalUnrecognized returns the total unrecognized-level count over
// all dimensions.
func (t *Tally) TotalUnrecognized() int {
	var n int
	for _, c := range t.UnrecognizedLevels {
		n += c
	}
	return n
}

// Sample is a collection of classified records.
type Sample struct {
	Records []Record
	Flags   []Flags
	Tally   Tally
}

// NewSample classifies the given records and returns them as a sample.
// The tally counts conflicts and unknown screen codes; unrecognized
// demographic levels are tallied at parse time by Load.
func NewSample(records []Record) *Sample {

	sm := &Sample{Records: records}
	sm.Flags = make([]Flags, len(records))

	for i, r := range records {
		f := Classify(r)
		sm.Flags[i] = f
		if r.Screen == ScreenUnknownCode {
			sm.Tally.UnknownScreenCodes++
		}
		if f.Conflict {
			sm.Tally.Conflicts++
		}
	}

	return sm
}

// Len returns the number of records in the sample.
func (sm *Sample) Len() int {
	return len(sm.Records)
}

// EligibilityRate returns the weighted share of eligible records among
// those with a determined eligibility outcome.  It is the importance
// factor applied to eligibility-undetermined records when fitting the
// non-response model.  The second return is false when no record has a
// determined outcome.
func (sm *Sample) EligibilityRate() (float64, bool) {

	var det, elig float64
	for i, f := range sm.Flags {
		if !f.EligibilityDetermined {
			continue
		}
		w := sm.Records[i].Weight
		det += w
		if f.Eligible {
			elig += w
		}
	}

	if det == 0 {
		return 0, false
	}
	return elig / det, true
}
