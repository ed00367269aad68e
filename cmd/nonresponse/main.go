// Command nonresponse runs the statewide survey non-response
// pipeline: descriptive reporting, model fitting, and scoring of new
// records against a saved artifact.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgPath string
	verbose bool
)

func rootCmd() *cobra.Command {

	cmd := &cobra.Command{
		Use:           "nonresponse",
		Short:         "Survey non-response estimation pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			lvl := slog.LevelInfo
			if verbose {
				lvl = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
		},
	}

	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to the YAML configuration")
	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")

	cmd.AddCommand(reportCmd(), fitCmd(), scoreCmd())

	return cmd
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		slog.Error("run failed", "err", err)
		os.Exit(1)
	}
}
