package learn

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/ucsf-bhhi/statewide-survey-non-response/design"
)

// EnsembleFamily is the family name of the stacked ensemble in
// rankings and snapshots.
const EnsembleFamily = "stacked ensemble"

// EnsembleComplexity places the ensemble last in the simplicity
// ordering used by model selection.
const EnsembleComplexity = 99

// Stacker evaluates the stacked ensemble: out-of-fold predicted
// probabilities from each tuned base family become the features of an
// L1-regularized logistic meta-learner, tuned over a fixed penalty
// grid on the same repeated-fold structure as the base search.
type Stacker struct {

	// Bases are the base families and Configs their tuned
	// hyperparameters, index-aligned.
	Bases   []Learner
	Configs []Config

	// Meta is the meta-learner family.  Each penalty value from
	// Penalties is passed to it as the "lambda" hyperparameter.
	Meta Learner

	// Penalties is the fixed geometric grid of meta penalties.
	Penalties []float64

	Folds   *design.Folds
	Workers int
	Log     *slog.Logger
}

// StackResult holds the per-penalty evaluation of the meta-learner,
// plus the out-of-fold base predictions needed to train the final
// ensemble.
type StackResult struct {
	Families   []string    `json:"families"`
	Candidates []Candidate `json:"candidates"`

	// oof[r][k][i] is the predicted probability for observation i
	// from base family k, trained without the fold containing i in
	// repeat r.  ok[r][f] is false when any base family failed on
	// that cell; its rows are excluded from meta training and its
	// score is missing.
	oof [][][]float64
	ok  [][]bool
}

// Best returns the highest-AUC penalty candidate, or nil when no cell
// completed.
func (r *StackResult) Best() *Candidate {

	var best *Candidate
	for i := range r.Candidates {
		c := &r.Candidates[i]
		if c.NFolds == 0 {
			continue
		}
		if best == nil || c.MeanAUC > best.MeanAUC {
			best = c
		}
	}
	return best
}

// Run computes the out-of-fold base predictions and evaluates the
// meta-learner over the penalty grid.
func (st *Stacker) Run(ctx context.Context, ds *design.Dataset) (*StackResult, error) {

	if len(st.Bases) != len(st.Configs) {
		return nil, fmt.Errorf("learn: %d base families but %d configs", len(st.Bases), len(st.Configs))
	}
	if len(st.Bases) == 0 {
		return nil, fmt.Errorf("learn: stacking requires at least one base family")
	}

	workers := st.Workers
	if workers < 1 {
		workers = 1
	}

	res := &StackResult{}
	for _, lr := range st.Bases {
		res.Families = append(res.Families, lr.Name())
	}

	n := ds.NumObs()
	res.oof = make([][][]float64, st.Folds.Repeats)
	res.ok = make([][]bool, st.Folds.Repeats)
	for r := range res.oof {
		res.oof[r] = make([][]float64, len(st.Bases))
		for k := range res.oof[r] {
			res.oof[r][k] = make([]float64, n)
		}
		res.ok[r] = make([]bool, st.Folds.K)
		for f := range res.ok[r] {
			res.ok[r][f] = true
		}
	}

	// Base-model out-of-fold predictions.  Each task owns the slice
	// positions of one held-out fold for one family, so no locking is
	// needed; the ok flags are per (rep, fold) and only ever cleared,
	// with each family writing before g.Wait returns.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	type cell struct{ k, r, f int }
	var fails []cell
	failCh := make(chan cell, st.Folds.Repeats*st.Folds.K*len(st.Bases))

	for k := range st.Bases {
		for r := 0; r < st.Folds.Repeats; r++ {
			for f := 0; f < st.Folds.K; f++ {
				k, r, f := k, r, f
				g.Go(func() error {
					if err := gctx.Err(); err != nil {
						return err
					}

					trainRows, testRows := st.Folds.Rows(r, f)
					train := ds.Subset(trainRows)
					test := ds.Subset(testRows)

					cc := train.ConstantCols()
					train = train.DropCols(cc)
					test = test.DropCols(cc)

					model, err := st.Bases[k].Fit(train, st.Configs[k])
					if err != nil {
						if st.Log != nil {
							st.Log.Warn("base fit failed in stacking",
								"family", st.Bases[k].Name(), "rep", r, "fold", f, "err", err)
						}
						failCh <- cell{k, r, f}
						return nil
					}

					probs := model.Prob(test.X)
					for m, i := range testRows {
						res.oof[r][k][i] = probs[m]
					}
					return nil
				})
			}
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(failCh)
	for c := range failCh {
		fails = append(fails, c)
		res.ok[c.r][c.f] = false
	}

	// Meta-learner evaluation over the penalty grid, on the same fold
	// structure.  Meta training rows come only from folds whose base
	// predictions are complete, and are themselves out of fold.
	for _, lam := range st.Penalties {
		res.Candidates = append(res.Candidates, Candidate{
			Family:     EnsembleFamily,
			Complexity: EnsembleComplexity,
			Config:     Config{"lambda": lam},
			Folds:      make([]FoldScore, st.Folds.Repeats*st.Folds.K),
		})
	}

	g2, g2ctx := errgroup.WithContext(ctx)
	g2.SetLimit(workers)

	for ci := range res.Candidates {
		for r := 0; r < st.Folds.Repeats; r++ {
			for f := 0; f < st.Folds.K; f++ {
				ci, r, f := ci, r, f
				g2.Go(func() error {
					if err := g2ctx.Err(); err != nil {
						return err
					}
					cand := &res.Candidates[ci]
					slot := &cand.Folds[r*st.Folds.K+f]
					*slot = st.metaFitScore(ds, res, cand.Config, r, f)
					return nil
				})
			}
		}
	}

	if err := g2.Wait(); err != nil {
		return nil, err
	}

	for i := range res.Candidates {
		res.Candidates[i].summarize()
	}

	if st.Log != nil {
		st.Log.Debug("stacking complete", "penalties", len(st.Penalties), "base_failures", len(fails))
	}

	return res, nil
}

// metaDataset assembles the meta design matrix for one repeat from the
// out-of-fold base predictions, restricted to the given rows.
func (st *Stacker) metaDataset(ds *design.Dataset, res *StackResult, rep int, rows []int) *design.Dataset {

	md := &design.Dataset{
		Names: res.Families,
		X:     make([][]float64, len(st.Bases)),
		Y:     make([]float64, len(rows)),
		W:     make([]float64, len(rows)),
	}
	for k := range md.X {
		c := make([]float64, len(rows))
		for m, i := range rows {
			c[m] = res.oof[rep][k][i]
		}
		md.X[k] = c
	}
	for m, i := range rows {
		md.Y[m] = ds.Y[i]
		md.W[m] = ds.W[i]
	}
	return md
}

func (st *Stacker) metaFitScore(ds *design.Dataset, res *StackResult, cfg Config, rep, fold int) FoldScore {

	fs := FoldScore{Rep: rep, Fold: fold}

	if !res.ok[rep][fold] {
		fs.Err = "incomplete base predictions"
		return fs
	}

	assign := st.Folds.Assign(rep)
	trainRows, testRows := st.Folds.Rows(rep, fold)

	// Keep only training rows from folds with complete base
	// predictions.
	var keep []int
	for _, i := range trainRows {
		if res.ok[rep][assign[i]] {
			keep = append(keep, i)
		}
	}
	if len(keep) == 0 {
		fs.Err = "no usable meta training rows"
		return fs
	}

	train := st.metaDataset(ds, res, rep, keep)
	test := st.metaDataset(ds, res, rep, testRows)

	model, err := st.Meta.Fit(train, cfg)
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

// FinalModel trains the final stacked ensemble: every base family is
// refit on the full training data, and the meta-learner is fit with
// the selected penalty on the pooled out-of-fold predictions, each
// observation's base probabilities averaged over the repeats in which
// all of its cells completed.
func (st *Stacker) FinalModel(ds *design.Dataset, res *StackResult, cfg Config) (*Stacked, error) {

	n := ds.NumObs()

	// Average the out-of-fold probabilities per observation.
	feats := make([][]float64, len(st.Bases))
	for k := range feats {
		feats[k] = make([]float64, 0, n)
	}
	var y, w []float64

	for i := 0; i < n; i++ {
		var cnt float64
		probs := make([]float64, len(st.Bases))
		for r := 0; r < st.Folds.Repeats; r++ {
			if !res.ok[r][st.Folds.Assign(r)[i]] {
				continue
			}
			cnt++
			for k := range st.Bases {
				probs[k] += res.oof[r][k][i]
			}
		}
		if cnt == 0 {
			continue
		}
		for k := range st.Bases {
			feats[k] = append(feats[k], probs[k]/cnt)
		}
		y = append(y, ds.Y[i])
		w = append(w, ds.W[i])
	}

	if len(y) == 0 {
		return nil, fmt.Errorf("learn: no out-of-fold predictions available for meta training")
	}

	md := &design.Dataset{Names: res.Families, X: feats, Y: y, W: w}
	meta, err := st.Meta.Fit(md, cfg)
	if err != nil {
		return nil, fmt.Errorf("learn: fitting meta-learner: %w", err)
	}

	var bases []Model
	for k, lr := range st.Bases {
		m, err := lr.Fit(ds, st.Configs[k])
		if err != nil {
			return nil, fmt.Errorf("learn: refitting %s for the ensemble: %w", lr.Name(), err)
		}
		bases = append(bases, m)
	}

	return NewStacked(res.Families, bases, meta), nil
}
