package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ucsf-bhhi/statewide-survey-non-response/artifact"
	"github.com/ucsf-bhhi/statewide-survey-non-response/config"
	"github.com/ucsf-bhhi/statewide-survey-non-response/design"
	"github.com/ucsf-bhhi/statewide-survey-non-response/learn"
	"github.com/ucsf-bhhi/statewide-survey-non-response/learn/logit"
	"github.com/ucsf-bhhi/statewide-survey-non-response/learn/nnet"
	"github.com/ucsf-bhhi/statewide-survey-non-response/learn/tree"
	"github.com/ucsf-bhhi/statewide-survey-non-response/report"
	"github.com/ucsf-bhhi/statewide-survey-non-response/survey"
)

func fitCmd() *cobra.Command {

	return &cobra.Command{
		Use:   "fit",
		Short: "Run the model search and save the scoring artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			return runFit(cmd, cfg)
		},
	}
}

// families are the base classifier families of the search, in
// complexity order.
func families() []learn.Learner {
	return []learn.Learner{
		logit.Logit{},
		logit.ElasticNet{},
		tree.Forest{},
		tree.Boost{},
		nnet.Net{},
	}
}

func runFit(cmd *cobra.Command, cfg config.Config) error {

	log := slog.Default()

	sm, err := survey.Load(cfg.Input)
	if err != nil {
		return err
	}

	eligRate, ok := sm.EligibilityRate()
	if !ok {
		return fmt.Errorf("fit: no eligibility-determined records, cannot weight the undetermined pool")
	}
	log.Info("sample loaded", "records", sm.Len(), "eligibility_rate", eligRate)

	enc, err := design.BuildEncoder(cfg.Counties, cfg.Sites, cfg.ReferenceLevels)
	if err != nil {
		return err
	}

	ds := design.ModelData(sm, enc, eligRate)
	train, test := design.Split(ds, cfg.Search.TestFraction, cfg.Search.Seed)
	log.Info("split", "train", train.NumObs(), "test", test.NumObs())

	folds := design.NewFolds(train.Y, cfg.Search.Folds, cfg.Search.Repeats, cfg.Search.Seed+1)

	lrs := families()
	search := &learn.Search{
		Learners:   lrs,
		Folds:      folds,
		Candidates: cfg.Search.Candidates,
		Workers:    cfg.Workers,
		Seed:       cfg.Search.Seed,
		Log:        log,
	}

	started := time.Now()
	res, err := search.Run(cmd.Context(), train)
	if err != nil {
		return err
	}
	log.Info("search complete", "elapsed", time.Since(started).Round(time.Second))

	// Tuned base configurations for the ensemble; families with no
	// completed fold are left out and the ranking proceeds without
	// them.
	var bases []learn.Learner
	var baseCfgs []learn.Config
	var pool []*learn.Candidate
	for _, lr := range lrs {
		best := res.Best(lr.Name())
		if best == nil {
			log.Warn("family produced no completed fold", "family", lr.Name())
			continue
		}
		pool = append(pool, best)
		bases = append(bases, lr)
		baseCfgs = append(baseCfgs, best.Config)
	}
	if len(pool) == 0 {
		return fmt.Errorf("fit: every model family failed")
	}

	st := &learn.Stacker{
		Bases:     bases,
		Configs:   baseCfgs,
		Meta:      logit.L1{},
		Penalties: cfg.StackPenalties,
		Folds:     folds,
		Workers:   cfg.Workers,
		Log:       log,
	}
	stackRes, err := st.Run(cmd.Context(), train)
	if err != nil {
		return err
	}
	if best := stackRes.Best(); best != nil {
		pool = append(pool, best)
	} else {
		log.Warn("stacked ensemble produced no completed fold")
	}

	ranked := learn.Rank(pool)
	sel, ok := learn.Selected(ranked)
	if !ok {
		return fmt.Errorf("fit: model selection produced no candidate")
	}
	log.Info("model selected", "family", sel.Family, "mean_auc", sel.MeanAUC)

	// Final fit on the full training split, one evaluation on the
	// held-out test split.
	var model learn.Model
	var eval learn.TestEval
	if sel.Family == learn.EnsembleFamily {
		model, err = st.FinalModel(train, stackRes, sel.Config)
		if err != nil {
			return err
		}
		eval = learn.EvaluateFinal(model, test)
	} else {
		var lr learn.Learner
		for _, l := range lrs {
			if l.Name() == sel.Family {
				lr = l
			}
		}
		model, eval, err = learn.FinalFit(lr, sel.Config, train, test)
		if err != nil {
			return err
		}
	}
	log.Info("final evaluation", "test_auc", eval.AUC)

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return fmt.Errorf("fit: creating %s: %w", cfg.OutDir, err)
	}

	bundle, err := artifact.New(sel.Family, sel.Config, model, enc, eligRate)
	if err != nil {
		return err
	}
	if err := bundle.Save(filepath.Join(cfg.OutDir, "bundle.json")); err != nil {
		return err
	}

	snap := artifact.SearchSnapshot{
		RunID:      bundle.RunID,
		CreatedAt:  bundle.CreatedAt,
		Seed:       cfg.Search.Seed,
		Folds:      cfg.Search.Folds,
		Repeats:    cfg.Search.Repeats,
		Candidates: artifact.SanitizeCandidates(res.Candidates),
		Ranking:    ranked,
		Test:       &eval,
	}
	if err := artifact.WriteSnapshot(filepath.Join(cfg.OutDir, "search.json"), snap); err != nil {
		return err
	}

	stackSnap := artifact.StackSnapshot{
		RunID:      bundle.RunID,
		CreatedAt:  bundle.CreatedAt,
		Families:   stackRes.Families,
		Candidates: artifact.SanitizeCandidates(stackRes.Candidates),
	}
	if err := artifact.WriteSnapshot(filepath.Join(cfg.OutDir, "stack.json"), stackSnap); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, report.RankingTable(ranked))
	fmt.Fprintln(out, report.CalibrationTable(eval.Calibration))

	if err := report.ROCPlot(eval.ROC, filepath.Join(cfg.OutDir, "roc.png")); err != nil {
		return err
	}
	if err := report.CalibrationPlot(eval.Calibration, filepath.Join(cfg.OutDir, "calibration.png")); err != nil {
		return err
	}

	log.Info("artifacts written", "dir", cfg.OutDir, "run_id", bundle.RunID)
	return nil
}
