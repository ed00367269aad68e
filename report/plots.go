package report

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/ucsf-bhhi/statewide-survey-non-response/learn"
)

// diagonal is the reference line from (0,0) to (1,1).
func diagonal() (*plotter.Line, error) {
	ln, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return nil, err
	}
	ln.LineStyle.Dashes = []vg.Length{vg.Points(3), vg.Points(3)}
	return ln, nil
}

// ROCPlot writes the ROC curve of the final model on the test split
// as a PNG.
func ROCPlot(points []learn.ROCPoint, path string) error {

	p := plot.New()
	p.Title.Text = "ROC, held-out test split"
	p.X.Label.Text = "False positive rate"
	p.Y.Label.Text = "True positive rate"

	xy := make(plotter.XYs, len(points))
	for i, pt := range points {
		xy[i].X = pt.FPR
		xy[i].Y = pt.TPR
	}

	ln, err := plotter.NewLine(xy)
	if err != nil {
		return fmt.Errorf("report: building ROC line: %w", err)
	}
	ln.Color = plotutil.Color(0)
	p.Add(ln)

	dg, err := diagonal()
	if err != nil {
		return fmt.Errorf("report: building reference line: %w", err)
	}
	p.Add(dg)

	if err := p.Save(5*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("report: writing %s: %w", path, err)
	}
	return nil
}

// CalibrationPlot writes the predicted-vs-observed calibration
// scatter as a PNG.  Empty bins are omitted.
func CalibrationPlot(bins []learn.CalibrationBin, path string) error {

	p := plot.New()
	p.Title.Text = "Calibration, held-out test split"
	p.X.Label.Text = "Mean predicted probability"
	p.Y.Label.Text = "Observed non-response rate"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	var xy plotter.XYs
	for _, b := range bins {
		if b.Count == 0 {
			continue
		}
		xy = append(xy, plotter.XY{X: b.MeanPredicted, Y: b.Observed})
	}

	sc, err := plotter.NewScatter(xy)
	if err != nil {
		return fmt.Errorf("report: building calibration scatter: %w", err)
	}
	sc.GlyphStyle.Color = plotutil.Color(1)
	sc.GlyphStyle.Radius = vg.Points(3)
	p.Add(sc)

	dg, err := diagonal()
	if err != nil {
		return fmt.Errorf("report: building reference line: %w", err)
	}
	p.Add(dg)

	if err := p.Save(5*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("report: writing %s: %w", path, err)
	}
	return nil
}
