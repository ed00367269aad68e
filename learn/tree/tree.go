// Package tree implements the tree-based families of the non-response
// model search: a weighted CART splitter, bagged random forests, and
// stochastic gradient boosting with a logistic loss.
//
// The splitter minimizes the weighted within-node sum of squares of
// the target.  For a 0/1 target this is proportional to the Gini
// impurity, so one splitter serves both the forest's classification
// trees and the boosting residual trees.
package tree

import (
	"math"
	"math/rand"
	"sort"
)

// Node is one node of a fitted tree.  A node with a nil Left is a
// leaf and Value is its weighted mean target; otherwise observations
// with x[Feature] <= Cut descend left.
type Node struct {
	Feature int     `json:"feature,omitempty"`
	Cut     float64 `json:"cut,omitempty"`
	Value   float64 `json:"value"`
	Left    *Node   `json:"left,omitempty"`
	Right   *Node   `json:"right,omitempty"`
}

// Predict returns the leaf value for observation i of the
// column-major matrix x.
func (nd *Node) Predict(x [][]float64, i int) float64 {
	for nd.Left != nil {
		if x[nd.Feature][i] <= nd.Cut {
			nd = nd.Left
		} else {
			nd = nd.Right
		}
	}
	return nd.Value
}

// growConfig are the tree-growing controls.
type growConfig struct {

	// maxDepth bounds the tree height; a tree of depth 0 is a single
	// leaf.
	maxDepth int

	// minLeaf is the minimum weighted observation count in a leaf.
	minLeaf float64

	// mtry is the number of features considered per split; 0 means
	// all features.
	mtry int

	// rng drives the feature subsampling; nil with mtry 0 grows a
	// deterministic tree.
	rng *rand.Rand
}

// grow fits a regression tree to target t with weights w over the
// rows in idx.
func grow(x [][]float64, t, w []float64, idx []int, depth int, gc growConfig) *Node {

	var wsum, tsum float64
	for _, i := range idx {
		wsum += w[i]
		tsum += w[i] * t[i]
	}

	nd := &Node{}
	if wsum > 0 {
		nd.Value = tsum / wsum
	}

	if depth >= gc.maxDepth || wsum <= 2*gc.minLeaf {
		return nd
	}

	feat, cut, ok := bestSplit(x, t, w, idx, gc)
	if !ok {
		return nd
	}

	var left, right []int
	for _, i := range idx {
		if x[feat][i] <= cut {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	nd.Feature = feat
	nd.Cut = cut
	nd.Left = grow(x, t, w, left, depth+1, gc)
	nd.Right = grow(x, t, w, right, depth+1, gc)

	return nd
}

// bestSplit scans the candidate features for the split minimizing the
// weighted within-node sum of squares.  It returns ok false when no
// split leaves both children at least minLeaf weight.
func bestSplit(x [][]float64, t, w []float64, idx []int, gc growConfig) (int, float64, bool) {

	feats := make([]int, len(x))
	for j := range feats {
		feats[j] = j
	}
	if gc.mtry > 0 && gc.mtry < len(feats) && gc.rng != nil {
		gc.rng.Shuffle(len(feats), func(a, b int) {
			feats[a], feats[b] = feats[b], feats[a]
		})
		feats = feats[:gc.mtry]
	}

	bestGain := math.Inf(-1)
	var bestFeat int
	var bestCut float64
	found := false

	// Totals of the parent node.
	var wsum, tsum float64
	for _, i := range idx {
		wsum += w[i]
		tsum += w[i] * t[i]
	}

	ord := make([]int, len(idx))

	for _, j := range feats {

		copy(ord, idx)
		xj := x[j]
		sort.Slice(ord, func(a, b int) bool {
			return xj[ord[a]] < xj[ord[b]]
		})

		var wl, tl float64
		for k := 0; k < len(ord)-1; k++ {
			i := ord[k]
			wl += w[i]
			tl += w[i] * t[i]

			// Only cut between distinct feature values.
			if xj[ord[k+1]] == xj[i] {
				continue
			}

			wr := wsum - wl
			if wl < gc.minLeaf || wr < gc.minLeaf {
				continue
			}

			tr := tsum - tl
			// Maximizing the between-child term is equivalent to
			// minimizing the within-node sum of squares.
			gain := tl*tl/wl + tr*tr/wr

			if gain > bestGain {
				bestGain = gain
				bestFeat = j
				bestCut = (xj[i] + xj[ord[k+1]]) / 2
				found = true
			}
		}
	}

	return bestFeat, bestCut, found
}
