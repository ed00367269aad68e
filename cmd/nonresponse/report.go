package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ucsf-bhhi/statewide-survey-non-response/config"
	"github.com/ucsf-bhhi/statewide-survey-non-response/diagnostics"
	"github.com/ucsf-bhhi/statewide-survey-non-response/rates"
	"github.com/ucsf-bhhi/statewide-survey-non-response/report"
	"github.com/ucsf-bhhi/statewide-survey-non-response/survey"
)

func reportCmd() *cobra.Command {

	return &cobra.Command{
		Use:   "report",
		Short: "Print the rate estimates and the comparability diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			return runReport(cmd, cfg)
		},
	}
}

func runReport(cmd *cobra.Command, cfg config.Config) error {

	sm, err := survey.Load(cfg.Input)
	if err != nil {
		return err
	}
	slog.Info("sample loaded", "records", sm.Len(),
		"unknown_codes", sm.Tally.UnknownScreenCodes,
		"unrecognized_levels", sm.Tally.TotalUnrecognized(),
		"conflicts", sm.Tally.Conflicts)

	out := cmd.OutOrStdout()

	tbl := rates.Accumulate(sm, cfg.Counties, cfg.Weighted)
	fmt.Fprintln(out, report.RatesTable(tbl, cfg.Weighted))

	for _, d := range survey.Dims {
		c := diagnostics.DeterminationContrast(sm, d)
		fmt.Fprintln(out, report.ContrastTable(c))
	}

	var rows []diagnostics.AgreementRow
	for _, d := range survey.Dims {
		rows = append(rows, diagnostics.Agreement(sm, d))
	}
	fmt.Fprintln(out, report.AgreementTable(rows))

	fmt.Fprintln(out, report.QualityTable(sm))

	return nil
}
