package survey

import "strings"

// aliases maps common raw spellings to canonical levels, keyed by
// dimension.  Comparison is case-insensitive after trimming.
var aliases = map[Dim]map[string]string{
	DimAge: {
		"<25":   "Under 25",
		"65+":   "65 and over",
		"65-74": "65 and over",
		"75+":   "65 and over",
	},
	DimGender: {
		"m":          "Male",
		"f":          "Female",
		"man":        "Male",
		"woman":      "Female",
		"non-binary": "Nonbinary",
		"nb":         "Nonbinary",
	},
	DimRace: {
		"african american":  "Black",
		"hispanic":          "Latino",
		"hispanic/latino":   "Latino",
		"aian":              "Native American",
		"american indian":   "Native American",
		"pacific islander":  "Other",
		"multiracial":       "Other",
		"two or more races": "Other",
	},
	DimDisability: {
		"none":    "None apparent",
		"no":      "None apparent",
		"mental":  "Psychiatric",
		"psych":   "Psychiatric",
		"phys":    "Physical",
		"both":    "Both",
		"multiple": "Both",
	},
	DimIntoxication: {
		"no":       "Not intoxicated",
		"sober":    "Not intoxicated",
		"yes":      "Intoxicated",
		"impaired": "Intoxicated",
	},
}

// ParseLevel normalizes a raw demographic string to a level of the
// given dimension.  Empty strings map to Missing.  The second return
// is false when the value was not empty but matched no known level or
// alias; such values also map to Missing so the record keeps a visible
// level, and the caller is expected to tally them.
func ParseLevel(d Dim, raw string) (string, bool) {

	v := strings.TrimSpace(raw)
	if v == "" {
		return Missing, true
	}

	for _, lv := range Levels(d) {
		if strings.EqualFold(v, lv) {
			return lv, true
		}
	}

	if al, ok := aliases[d][strings.ToLower(v)]; ok {
		return al, true
	}

	return Missing, false
}
