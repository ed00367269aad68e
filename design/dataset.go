// Package design prepares model-ready data for the non-response
// prediction pipeline: dummy encoding of categorical predictors
// against explicit reference levels, importance weighting, the
// stratified train/test split, and repeated stratified fold
// assignment.
package design

import "fmt"

// Dataset holds a column-major numeric design matrix together with
// the binary outcome and the case weights.  Learners must not modify
// a dataset; fold workers share one dataset read-only.
type Dataset struct {

	// Names[j] labels column X[j].
	Names []string

	// X[j][i] is observation i of predictor j.  There is no
	// intercept column; models that need one add it internally.
	X [][]float64

	// Y[i] is the outcome, 0 or 1.
	Y []float64

	// W[i] is the case weight.
	W []float64
}

// NumObs returns the number of observations.
func (ds *Dataset) NumObs() int {
	return len(ds.Y)
}

// NumVars returns the number of predictor columns.
func (ds *Dataset) NumVars() int {
	return len(ds.X)
}

func (ds *Dataset) check() {
	for j, x := range ds.X {
		if len(x) != len(ds.Y) {
			panic(fmt.Sprintf("design: column %s has %d values, outcome has %d",
				ds.Names[j], len(x), len(ds.Y)))
		}
	}
	if len(ds.W) != len(ds.Y) {
		panic("design: weight and outcome lengths differ")
	}
}

// Subset returns a new dataset holding the given rows, in order.
func (ds *Dataset) Subset(rows []int) *Dataset {

	sub := &Dataset{
		Names: ds.Names,
		X:     make([][]float64, len(ds.X)),
		Y:     make([]float64, len(rows)),
		W:     make([]float64, len(rows)),
	}

	for j, x := range ds.X {
		c := make([]float64, len(rows))
		for k, i := range rows {
			c[k] = x[i]
		}
		sub.X[j] = c
	}
	for k, i := range rows {
		sub.Y[k] = ds.Y[i]
		sub.W[k] = ds.W[i]
	}

	return sub
}

// ConstantCols returns the indices of predictor columns with no
// variation.  Such columns are dropped per fold before fitting, since
// several model families cannot handle them.
func (ds *Dataset) ConstantCols() []int {

	var cols []int
	for j, x := range ds.X {
		if len(x) == 0 {
			cols = append(cols, j)
			continue
		}
		c := true
		for i := 1; i < len(x); i++ {
			if x[i] != x[0] {
				c = false
				break
			}
		}
		if c {
			cols = append(cols, j)
		}
	}
	return cols
}

// DropCols returns a dataset without the given predictor columns.
// The outcome and weights are shared with the receiver.
func (ds *Dataset) DropCols(cols []int) *Dataset {

	if len(cols) == 0 {
		return ds
	}

	drop := make(map[int]bool, len(cols))
	for _, j := range cols {
		drop[j] = true
	}

	out := &Dataset{Y: ds.Y, W: ds.W}
	for j, x := range ds.X {
		if drop[j] {
			continue
		}
		out.Names = append(out.Names, ds.Names[j])
		out.X = append(out.X, x)
	}

	return out
}
