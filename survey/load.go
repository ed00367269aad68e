package survey

import (
	"fmt"
	"os"

	"github.com/kshedden/dstream/dstream"
)

// Column names of the raw survey CSV.  The five actual_* columns may
// be entirely empty for records where self-reported demographics were
// not collected.
var csvColumns = []string{
	"county", "site", "screen", "finished", "weight",
	"age", "gender", "race", "disability", "intoxication",
	"actual_age", "actual_gender", "actual_race",
	"actual_disability", "actual_intoxication",
}

// Load reads the raw survey CSV at path into a classified sample.
// Unrecognized screening codes and demographic values are mapped to
// their sentinel levels and tallied; no record is dropped.
func Load(path string) (*Sample, error) {

	fid, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("survey: opening %s: %w", path, err)
	}
	defer fid.Close()

	types := []dstream.VarType{
		{Name: "county", Type: dstream.String},
		{Name: "site", Type: dstream.String},
		{Name: "screen", Type: dstream.Float64},
		{Name: "finished", Type: dstream.Float64},
		{Name: "weight", Type: dstream.Float64},
		{Name: "age", Type: dstream.String},
		{Name: "gender", Type: dstream.String},
		{Name: "race", Type: dstream.String},
		{Name: "disability", Type: dstream.String},
		{Name: "intoxication", Type: dstream.String},
		{Name: "actual_age", Type: dstream.String},
		{Name: "actual_gender", Type: dstream.String},
		{Name: "actual_race", Type: dstream.String},
		{Name: "actual_disability", Type: dstream.String},
		{Name: "actual_intoxication", Type: dstream.String},
	}

	da := dstream.FromCSV(fid).SetTypes(types).HasHeader().Done()

	pos := make(map[string]int)
	for k, na := range da.Names() {
		pos[na] = k
	}
	for _, na := range csvColumns {
		if _, ok := pos[na]; !ok {
			return nil, fmt.Errorf("survey: column %s not found in %s", na, path)
		}
	}

	var records []Record
	var tally Tally

	for da.Next() {

		county := da.GetPos(pos["county"]).([]string)
		site := da.GetPos(pos["site"]).([]string)
		screen := da.GetPos(pos["screen"]).([]float64)
		finished := da.GetPos(pos["finished"]).([]float64)
		weight := da.GetPos(pos["weight"]).([]float64)

		for i := range county {

			r := Record{
				County:   county[i],
				Site:     site[i],
				Screen:   ParseScreenCode(int(screen[i])),
				Finished: finished[i] != 0,
				Weight:   weight[i],
			}
			if r.Weight <= 0 {
				r.Weight = 1
			}

			for _, d := range Dims {
				raw := da.GetPos(pos[d.String()]).([]string)
				lv, ok := ParseLevel(d, raw[i])
				if !ok {
					tally.addUnrecognized(d)
				}
				r.Perceived.set(d, lv)

				araw := da.GetPos(pos["actual_"+d.String()]).([]string)
				alv, ok := ParseLevel(d, araw[i])
				if !ok {
					tally.addUnrecognized(d)
				}
				r.Actual.set(d, alv)
			}

			records = append(records, r)
		}
	}

	sm := NewSample(records)
	sm.Tally.UnrecognizedLevels = tally.UnrecognizedLevels

	return sm, nil
}
