package learn

import (
	"sort"
)

// Ranked is one row of the model ranking: the best candidate of one
// family (or the ensemble), with its confidence interval and whether
// the selection policy chose it.
type Ranked struct {
	Family     string  `json:"family"`
	Complexity int     `json:"complexity"`
	Config     Config  `json:"config"`
	MeanAUC    float64 `json:"mean_auc"`
	SEAUC      float64 `json:"se_auc"`
	Lo         float64 `json:"ci_lo"`
	Hi         float64 `json:"ci_hi"`
	NFolds     int     `json:"n_folds"`
	Selected   bool    `json:"selected"`
}

// Rank orders the candidates by mean cross-validated AUC and applies
// the selection policy: among the candidates whose 95% interval
// overlaps the interval of the best, the one with the lowest
// complexity is selected, ties broken by higher mean AUC.  Candidates
// with no completed fold are excluded before ranking.  The decision is
// a comparison of recorded intervals, reproducible from the returned
// rows alone.
func Rank(cands []*Candidate) []Ranked {

	var rows []Ranked
	for _, c := range cands {
		if c == nil || c.NFolds == 0 {
			continue
		}
		lo, hi := c.Interval()
		rows = append(rows, Ranked{
			Family:     c.Family,
			Complexity: c.Complexity,
			Config:     c.Config,
			MeanAUC:    c.MeanAUC,
			SEAUC:      c.SEAUC,
			Lo:         lo,
			Hi:         hi,
			NFolds:     c.NFolds,
		})
	}

	if len(rows) == 0 {
		return rows
	}

	sort.SliceStable(rows, func(a, b int) bool {
		return rows[a].MeanAUC > rows[b].MeanAUC
	})

	best := rows[0]

	sel := 0
	for i := 1; i < len(rows); i++ {
		r := rows[i]
		if r.Hi < best.Lo {
			// Interval entirely below the best candidate's interval:
			// distinguishable, not eligible.
			continue
		}
		if r.Complexity < rows[sel].Complexity {
			sel = i
		}
	}
	rows[sel].Selected = true

	return rows
}

// Selected returns the selected row of a ranking produced by Rank.
func Selected(rows []Ranked) (Ranked, bool) {
	for _, r := range rows {
		if r.Selected {
			return r, true
		}
	}
	return Ranked{}, false
}
