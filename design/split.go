package design

import (
	"math/rand"
	"sort"
)

// classIndices partitions the row indices by outcome label.
func classIndices(y []float64) (neg, pos []int) {
	for i, v := range y {
		if v == 1 {
			pos = append(pos, i)
		} else {
			neg = append(neg, i)
		}
	}
	return neg, pos
}

// Split partitions the dataset into training and held-out test sets,
// stratified on the outcome so both parts preserve its prevalence.
// testFrac is the approximate share held out.  The partition is
// deterministic for a fixed seed.
func Split(ds *Dataset, testFrac float64, seed int64) (train, test *Dataset) {

	rng := rand.New(rand.NewSource(seed))

	var trainRows, testRows []int
	neg, pos := classIndices(ds.Y)

	for _, cls := range [][]int{neg, pos} {
		idx := append([]int(nil), cls...)
		rng.Shuffle(len(idx), func(i, j int) {
			idx[i], idx[j] = idx[j], idx[i]
		})
		nt := int(float64(len(idx)) * testFrac)
		testRows = append(testRows, idx[:nt]...)
		trainRows = append(trainRows, idx[nt:]...)
	}

	sort.Ints(trainRows)
	sort.Ints(testRows)

	return ds.Subset(trainRows), ds.Subset(testRows)
}

// Folds assigns each observation to one of k folds, separately for
// each repeat, stratified on the outcome.  assign[r][i] is the fold of
// observation i in repeat r.
type Folds struct {
	K       int
	Repeats int

	assign [][]int
}

// NewFolds builds a repeated stratified fold assignment over the given
// outcome labels, deterministic for a fixed seed.
func NewFolds(y []float64, k, repeats int, seed int64) *Folds {

	if k < 2 {
		panic("design: need at least two folds")
	}

	rng := rand.New(rand.NewSource(seed))
	f := &Folds{K: k, Repeats: repeats}

	neg, pos := classIndices(y)

	for r := 0; r < repeats; r++ {
		a := make([]int, len(y))
		for _, cls := range [][]int{neg, pos} {
			idx := append([]int(nil), cls...)
			rng.Shuffle(len(idx), func(i, j int) {
				idx[i], idx[j] = idx[j], idx[i]
			})
			// Deal the shuffled class members round-robin so fold
			// sizes differ by at most one within each class.
			for m, i := range idx {
				a[i] = m % k
			}
		}
		f.assign = append(f.assign, a)
	}

	return f
}

// Assign returns the fold of each observation in one repeat.  The
// returned slice is shared; callers must not modify it.
func (f *Folds) Assign(rep int) []int {
	return f.assign[rep]
}

// Rows returns the training and held-out row indices for one
// (repeat, fold) cell.
func (f *Folds) Rows(rep, fold int) (trainRows, testRows []int) {

	a := f.assign[rep]
	for i, g := range a {
		if g == fold {
			testRows = append(testRows, i)
		} else {
			trainRows = append(trainRows, i)
		}
	}
	return trainRows, testRows
}

// Split materializes the train and test datasets for one
// (repeat, fold) cell.
func (f *Folds) Split(ds *Dataset, rep, fold int) (train, test *Dataset) {
	trainRows, testRows := f.Rows(rep, fold)
	return ds.Subset(trainRows), ds.Subset(testRows)
}
