package main

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ucsf-bhhi/statewide-survey-non-response/config"
)

// writeCSV writes a small synthetic field file with every disposition
// represented.
func writeCSV(t *testing.T, path string, n int) {
	t.Helper()

	ages := []string{"Under 25", "25-34", "35-44", "45-54"}
	genders := []string{"Male", "Female", "Nonbinary"}
	races := []string{"White", "Black", "Latino", "Asian"}
	counties := []string{"Alameda", "Fresno", "Los Angeles", "Sacramento"}
	sites := []string{"Street", "Shelter"}

	rng := rand.New(rand.NewSource(5))

	var buf bytes.Buffer
	buf.WriteString("county,site,screen,finished,weight,age,gender,race,disability,intoxication," +
		"actual_age,actual_gender,actual_race,actual_disability,actual_intoxication\n")

	for i := 0; i < n; i++ {
		age := ages[rng.Intn(len(ages))]
		gender := genders[rng.Intn(len(genders))]
		race := races[rng.Intn(len(races))]

		screen := 1 + rng.Intn(6)
		finished := 0
		if screen == 1 && rng.Float64() < 0.8 {
			finished = 1
		}

		actualAge, actualGender, actualRace := "", "", ""
		if finished == 1 {
			actualAge, actualGender, actualRace = age, gender, race
		}

		fmt.Fprintf(&buf, "%s,%s,%d,%d,%.2f,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s\n",
			counties[rng.Intn(len(counties))], sites[rng.Intn(len(sites))],
			screen, finished, 0.5+rng.Float64(),
			age, gender, race, "None apparent", "Not intoxicated",
			actualAge, actualGender, actualRace, "", "")
	}

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func testConfig(t *testing.T, n int) config.Config {
	t.Helper()

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "field.csv")
	writeCSV(t, csvPath, n)

	cfg := config.Default()
	cfg.Input = csvPath
	cfg.OutDir = filepath.Join(dir, "out")
	return cfg
}

func TestRunReport(t *testing.T) {

	cfg := testConfig(t, 200)

	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, runReport(cmd, cfg))

	s := out.String()
	assert.Contains(t, s, "Non-response rates by county")
	assert.Contains(t, s, "Total")
	assert.Contains(t, s, "Determination contrast: age")
	assert.Contains(t, s, "Perceived vs self-reported agreement")
	assert.Contains(t, s, "Data quality tally")
}

func TestRunFitAndScore(t *testing.T) {

	if testing.Short() {
		t.Skip("full pipeline run")
	}

	cfg := testConfig(t, 300)
	cfg.Search.Folds = 3
	cfg.Search.Repeats = 1
	cfg.Search.Candidates = 2
	cfg.StackPenalties = []float64{0.01, 0.1}
	cfg.Workers = 2

	cmd := rootCmd()
	cmd.SetContext(context.Background())
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, runFit(cmd, cfg))

	assert.Contains(t, out.String(), "Model ranking by cross-validated AUC")

	for _, name := range []string{"bundle.json", "search.json", "stack.json", "roc.png", "calibration.png"} {
		_, err := os.Stat(filepath.Join(cfg.OutDir, name))
		assert.NoError(t, err, name)
	}

	scorePath := filepath.Join(cfg.OutDir, "scores.csv")
	require.NoError(t, runScore(filepath.Join(cfg.OutDir, "bundle.json"), cfg.Input, scorePath))

	buf, err := os.ReadFile(scorePath)
	require.NoError(t, err)
	assert.Contains(t, string(buf), "nonresponse_prob")
}
