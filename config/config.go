// Package config loads the pipeline configuration from YAML, fills
// defaults, and validates the parts the numeric code must be able to
// rely on.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ucsf-bhhi/statewide-survey-non-response/design"
	"github.com/ucsf-bhhi/statewide-survey-non-response/survey"
)

// EnvWorkers is the environment variable that overrides the
// configured worker count.
const EnvWorkers = "NONRESPONSE_WORKERS"

// Search holds the model-search settings.
type Search struct {

	// TestFraction of the modeling data held out for the final
	// evaluation.
	TestFraction float64 `yaml:"test_fraction"`

	// Folds and Repeats of the cross-validation grid.
	Folds   int `yaml:"folds"`
	Repeats int `yaml:"repeats"`

	// Candidates is the number of random hyperparameter draws per
	// family.
	Candidates int `yaml:"candidates"`

	// Seed drives the split, the fold assignment, and the draws.
	Seed int64 `yaml:"seed"`
}

// Config is the full pipeline configuration.
type Config struct {

	// Input is the raw survey CSV.
	Input string `yaml:"input"`

	// Weighted selects weighted rate estimation; unweighted uses unit
	// weights.
	Weighted bool `yaml:"weighted"`

	// Counties are the geographic strata, in report order.
	Counties []string `yaml:"counties"`

	// Sites are the site-category levels.
	Sites []string `yaml:"sites"`

	// ReferenceLevels maps each model predictor to its designated
	// reference level.
	ReferenceLevels map[string]string `yaml:"reference_levels"`

	Search Search `yaml:"search"`

	// StackPenalties is the penalty grid of the ensemble meta-learner.
	StackPenalties []float64 `yaml:"stack_penalties"`

	// Workers bounds concurrent model fits; the NONRESPONSE_WORKERS
	// environment variable overrides it.
	Workers int `yaml:"workers"`

	// OutDir receives artifacts, snapshots, tables and figures.
	OutDir string `yaml:"outdir"`
}

// Default returns the configuration defaults, valid except for the
// empty input path.
func Default() Config {

	return Config{
		Weighted: true,
		Counties: []string{
			"Alameda", "Fresno", "Los Angeles", "Sacramento",
			"San Diego", "San Francisco", "Santa Clara", "Sonoma",
		},
		Sites: []string{"Street", "Encampment", "Shelter", "Vehicle", "Service site"},
		ReferenceLevels: map[string]string{
			design.PredCounty: "Los Angeles",
			design.PredSite:   "Street",
			"age":             "25-34",
			"gender":          "Male",
			"race":            "White",
			"disability":      "None apparent",
			"intoxication":    "Not intoxicated",
		},
		Search: Search{
			TestFraction: 0.25,
			Folds:        10,
			Repeats:      5,
			Candidates:   25,
			Seed:         20231,
		},
		StackPenalties: []float64{1e-4, 1e-3, 1e-2, 1e-1, 1},
		Workers:        4,
		OutDir:         "out",
	}
}

// Load reads a YAML configuration file over the defaults and validates
// the result.  An empty path returns the validated defaults.
func Load(path string) (Config, error) {

	cfg := Default()

	if path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(buf, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("config: %s=%q is not an integer", EnvWorkers, v)
		}
		cfg.Workers = n
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration, naming the offending field.
func (c Config) Validate() error {

	if len(c.Counties) == 0 {
		return fmt.Errorf("config: counties is empty")
	}
	if len(c.Sites) == 0 {
		return fmt.Errorf("config: sites is empty")
	}

	for _, name := range design.PredictorNames() {
		ref, ok := c.ReferenceLevels[name]
		if !ok || ref == "" {
			return fmt.Errorf("config: reference_levels lacks %s", name)
		}
		if ref == survey.Missing {
			return fmt.Errorf("config: reference_levels.%s is %s", name, survey.Missing)
		}
	}
	if !contains(c.Counties, c.ReferenceLevels[design.PredCounty]) {
		return fmt.Errorf("config: reference_levels.%s %q is not in counties",
			design.PredCounty, c.ReferenceLevels[design.PredCounty])
	}
	if !contains(c.Sites, c.ReferenceLevels[design.PredSite]) {
		return fmt.Errorf("config: reference_levels.%s %q is not in sites",
			design.PredSite, c.ReferenceLevels[design.PredSite])
	}

	s := c.Search
	if s.TestFraction <= 0 || s.TestFraction >= 1 {
		return fmt.Errorf("config: search.test_fraction %v is outside (0, 1)", s.TestFraction)
	}
	if s.Folds < 2 {
		return fmt.Errorf("config: search.folds %d is below 2", s.Folds)
	}
	if s.Repeats < 1 {
		return fmt.Errorf("config: search.repeats %d is below 1", s.Repeats)
	}
	if s.Candidates < 1 {
		return fmt.Errorf("config: search.candidates %d is below 1", s.Candidates)
	}

	if len(c.StackPenalties) == 0 {
		return fmt.Errorf("config: stack_penalties is empty")
	}
	for _, lam := range c.StackPenalties {
		if lam <= 0 {
			return fmt.Errorf("config: stack_penalties contains non-positive value %v", lam)
		}
	}

	if c.Workers < 1 {
		return fmt.Errorf("config: workers %d is below 1", c.Workers)
	}
	if c.OutDir == "" {
		return fmt.Errorf("config: outdir is empty")
	}

	return nil
}

func contains(xs []string, v string) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
