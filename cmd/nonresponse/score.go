package main

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ucsf-bhhi/statewide-survey-non-response/artifact"
	"github.com/ucsf-bhhi/statewide-survey-non-response/survey"
)

func scoreCmd() *cobra.Command {

	var bundlePath, inPath, outPath string

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score new raw records against a saved artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(bundlePath, inPath, outPath)
		},
	}

	cmd.Flags().StringVar(&bundlePath, "artifact", "", "path to the scoring bundle")
	cmd.Flags().StringVar(&inPath, "input", "", "raw survey CSV to score")
	cmd.Flags().StringVar(&outPath, "output", "", "destination CSV of predicted probabilities")
	cmd.MarkFlagRequired("artifact")
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("output")

	return cmd
}

func runScore(bundlePath, inPath, outPath string) error {

	b, err := artifact.Load(bundlePath)
	if err != nil {
		return err
	}
	slog.Info("bundle loaded", "run_id", b.RunID, "family", b.Family,
		"codebook", b.CodebookVersion)

	sm, err := survey.Load(inPath)
	if err != nil {
		return err
	}

	probs, err := b.Score(sm.Records)
	if err != nil {
		return err
	}

	fid, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("score: creating %s: %w", outPath, err)
	}
	defer fid.Close()

	w := csv.NewWriter(fid)
	if err := w.Write([]string{"county", "site", "nonresponse_prob"}); err != nil {
		return err
	}
	for i, r := range sm.Records {
		rec := []string{r.County, r.Site, strconv.FormatFloat(probs[i], 'f', 6, 64)}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("score: writing %s: %w", outPath, err)
	}

	slog.Info("scores written", "records", len(probs), "path", outPath)
	return nil
}
