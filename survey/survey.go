// Package survey defines the raw record of one approached individual
// in the street/shelter census, and the derived disposition flags used
// throughout the non-response pipeline.
//
// Every nominal attribute is a closed enumeration with an explicit
// Missing level.  An absent or unparseable value is never represented
// as a null; it is mapped to Missing (and tallied) so that grouping
// and dummy-encoding always see it as a visible level.
package survey

// Dim identifies one of the five perceived-demographic dimensions.
type Dim int

const (
	DimAge Dim = iota
	DimGender
	DimRace
	DimDisability
	DimIntoxication
)

// Dims lists the demographic dimensions in their fixed report order.
var Dims = []Dim{DimAge, DimGender, DimRace, DimDisability, DimIntoxication}

func (d Dim) String() string {
	switch d {
	case DimAge:
		return "age"
	case DimGender:
		return "gender"
	case DimRace:
		return "race"
	case DimDisability:
		return "disability"
	case DimIntoxication:
		return "intoxication"
	}
	panic("survey: unknown dimension")
}

// Missing is the explicit level used for any demographic dimension
// with no observed value.
const Missing = "Missing"

// levels holds the closed level set for each dimension.  Missing is
// always the final level.
var levels = map[Dim][]string{
	DimAge:          {"Under 25", "25-34", "35-44", "45-54", "55-64", "65 and over", Missing},
	DimGender:       {"Male", "Female", "Nonbinary", Missing},
	DimRace:         {"White", "Black", "Latino", "Asian", "Native American", "Other", Missing},
	DimDisability:   {"None apparent", "Physical", "Psychiatric", "Both", Missing},
	DimIntoxication: {"Not intoxicated", "Intoxicated", Missing},
}

// Levels returns the closed level set for a dimension, Missing last.
func Levels(d Dim) []string {
	lv, ok := levels[d]
	if !ok {
		panic("survey: unknown dimension")
	}
	return lv
}

// Demographics holds one value per dimension, always a recognized
// level of that dimension (possibly Missing).
type Demographics struct {
	Age          string
	Gender       string
	Race         string
	Disability   string
	Intoxication string
}

// Get returns the value for the given dimension.
func (dm Demographics) Get(d Dim) string {
	switch d {
	case DimAge:
		return dm.Age
	case DimGender:
		return dm.Gender
	case DimRace:
		return dm.Race
	case DimDisability:
		return dm.Disability
	case DimIntoxication:
		return dm.Intoxication
	}
	panic("survey: unknown dimension")
}

func (dm *Demographics) set(d Dim, v string) {
	switch d {
	case DimAge:
		dm.Age = v
	case DimGender:
		dm.Gender = v
	case DimRace:
		dm.Race = v
	case DimDisability:
		dm.Disability = v
	case DimIntoxication:
		dm.Intoxication = v
	default:
		panic("survey: unknown dimension")
	}
}

// Record is one approached individual as read from the field data.
type Record struct {

	// County is the geographic stratum.
	County string

	// Site is the site-category label (encampment, shelter, ...).
	Site string

	// Screen is the normalized eligibility-screening outcome.
	Screen ScreenResult

	// Finished indicates that the interview ran to completion.
	Finished bool

	// Weight is the inverse selection probability.  A missing or
	// non-positive raw weight is replaced by 1 at load time.
	Weight float64

	// Perceived demographics recorded by the interviewer for every
	// approached individual.
	Perceived Demographics

	// Actual demographics self-reported by the respondent; Missing
	// for every dimension when not collected.
	Actual Demographics
}
