package learn

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math"
	"math/rand"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/ucsf-bhhi/statewide-survey-non-response/design"
)

// FoldScore is the outcome of one (repeat, fold) evaluation of one
// candidate.  A failed fit leaves OK false and records the reason; the
// cell is missing from aggregation but the search continues.
type FoldScore struct {
	Rep     int     `json:"rep"`
	Fold    int     `json:"fold"`
	OK      bool    `json:"ok"`
	Metrics Metrics `json:"metrics"`
	Err     string  `json:"err,omitempty"`
}

// Candidate is one (family, configuration) cell of the search grid
// with its per-fold scores and AUC summary.
type Candidate struct {
	Family     string      `json:"family"`
	Complexity int         `json:"complexity"`
	Config     Config      `json:"config"`
	Folds      []FoldScore `json:"folds"`

	// MeanAUC and SEAUC summarize AUC over the completed folds;
	// NFolds counts them.  With no completed fold the candidate is
	// excluded from ranking.
	MeanAUC float64 `json:"mean_auc"`
	SEAUC   float64 `json:"se_auc"`
	NFolds  int     `json:"n_folds"`
}

// summarize fills the AUC summary from the per-fold scores.
func (c *Candidate) summarize() {

	var sum float64
	var n int
	for _, fs := range c.Folds {
		if fs.OK {
			sum += fs.Metrics.AUC
			n++
		}
	}
	c.NFolds = n
	if n == 0 {
		c.MeanAUC = math.NaN()
		c.SEAUC = math.NaN()
		return
	}

	c.MeanAUC = sum / float64(n)

	var ss float64
	for _, fs := range c.Folds {
		if fs.OK {
			d := fs.Metrics.AUC - c.MeanAUC
			ss += d * d
		}
	}
	if n > 1 {
		c.SEAUC = math.Sqrt(ss/float64(n-1)) / math.Sqrt(float64(n))
	}
}

// Interval returns the 95% confidence interval for the candidate's
// mean cross-validated AUC.
func (c *Candidate) Interval() (lo, hi float64) {
	z := distuv.UnitNormal.Quantile(0.975)
	return c.MeanAUC - z*c.SEAUC, c.MeanAUC + z*c.SEAUC
}

// SearchResult holds every candidate evaluated for every family.
type SearchResult struct {
	Candidates []Candidate `json:"candidates"`
}

// Best returns the candidate with the highest mean AUC for the named
// family, or nil when the family produced no completed fold.
func (r *SearchResult) Best(family string) *Candidate {

	var best *Candidate
	for i := range r.Candidates {
		c := &r.Candidates[i]
		if c.Family != family || c.NFolds == 0 {
			continue
		}
		if best == nil || c.MeanAUC > best.MeanAUC {
			best = c
		}
	}
	return best
}

// Families returns the distinct family names in first-seen order.
func (r *SearchResult) Families() []string {

	var names []string
	seen := make(map[string]bool)
	for _, c := range r.Candidates {
		if !seen[c.Family] {
			seen[c.Family] = true
			names = append(names, c.Family)
		}
	}
	return names
}

// Search runs the hyperparameter search over a fixed fold assignment.
type Search struct {

	// Learners are the classifier families to tune.
	Learners []Learner

	// Folds is the repeated stratified fold assignment, shared by
	// every candidate.
	Folds *design.Folds

	// Candidates is the number of random hyperparameter draws per
	// family; duplicate draws are collapsed.
	Candidates int

	// Workers bounds the number of concurrent fit tasks.
	Workers int

	// Seed drives the hyperparameter draws.
	Seed int64

	// Log, if set, receives fold-failure and progress messages.
	Log *slog.Logger
}

// familySeed derives a per-family seed so adding a family does not
// shift the draws of the others.
func familySeed(seed int64, family string) int64 {
	h := fnv.New64a()
	h.Write([]byte(family))
	return seed + int64(h.Sum64()&0x7fffffff)
}

// task is one (candidate, repeat, fold) fit-and-score unit.
type task struct {
	learner Learner
	cand    int
	rep     int
	fold    int
}

// Run evaluates every candidate of every family on the full fold grid
// and returns the per-fold scores with AUC summaries.  The tasks are
// independent; they run on an errgroup pool bounded by Workers, and
// each writes only its own FoldScore slot.
func (s *Search) Run(ctx context.Context, ds *design.Dataset) (*SearchResult, error) {

	if s.Candidates < 1 {
		return nil, fmt.Errorf("learn: candidate count %d", s.Candidates)
	}
	workers := s.Workers
	if workers < 1 {
		workers = 1
	}

	res := &SearchResult{}
	var tasks []task

	for _, lr := range s.Learners {

		rng := rand.New(rand.NewSource(familySeed(s.Seed, lr.Name())))

		seen := make(map[string]int)
		for k := 0; k < s.Candidates; k++ {
			cfg := lr.Sample(rng)
			if _, dup := seen[cfg.Key()]; dup {
				continue
			}
			seen[cfg.Key()] = len(res.Candidates)

			ci := len(res.Candidates)
			res.Candidates = append(res.Candidates, Candidate{
				Family:     lr.Name(),
				Complexity: lr.Complexity(),
				Config:     cfg,
				Folds:      make([]FoldScore, s.Folds.Repeats*s.Folds.K),
			})

			for r := 0; r < s.Folds.Repeats; r++ {
				for f := 0; f < s.Folds.K; f++ {
					tasks = append(tasks, task{learner: lr, cand: ci, rep: r, fold: f})
				}
			}
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, tk := range tasks {
		tk := tk
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cand := &res.Candidates[tk.cand]
			slot := &cand.Folds[tk.rep*s.Folds.K+tk.fold]
			*slot = s.fitScore(ds, tk.learner, cand.Config, tk.rep, tk.fold)
			if !slot.OK && s.Log != nil {
				s.Log.Warn("fold fit failed",
					"family", cand.Family, "config", cand.Config.Key(),
					"rep", tk.rep, "fold", tk.fold, "err", slot.Err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range res.Candidates {
		res.Candidates[i].summarize()
	}

	if s.Log != nil {
		s.Log.Debug("search complete", "candidates", len(res.Candidates), "tasks", len(tasks))
	}

	return res, nil
}

// fitScore trains one candidate on the complement of one fold and
// scores the held-out fold.  Predictor columns that are constant
// within the training fold are dropped for this fold only.
func (s *Search) fitScore(ds *design.Dataset, lr Learner, cfg Config, rep, fold int) FoldScore {

	fs := FoldScore{Rep: rep, Fold: fold}

	train, test := s.Folds.Split(ds, rep, fold)

	cc := train.ConstantCols()
	train = train.DropCols(cc)
	test = test.DropCols(cc)

	model, err := lr.Fit(train, cfg)
	if err != nil {
		fs.Err = err.Error()
		return fs
	}

	m := Evaluate(test.Y, test.W, model.Prob(test.X))
	if !m.Valid() {
		fs.Err = "non-finite metric"
		return fs
	}

	fs.OK = true
	fs.Metrics = m
	return fs
}
