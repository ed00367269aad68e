package logit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ucsf-bhhi/statewide-survey-non-response/design"
)

// Floor for the IRLS weights; fitted probabilities this close to 0 or
// 1 contribute essentially nothing and would destabilize the solve.
const muEps = 1e-8

// deviance is the weighted binomial deviance at fitted means mn.
func deviance(y, w, mn []float64) float64 {

	var dev float64
	for i, yi := range y {
		mi := math.Min(math.Max(mn[i], muEps), 1-muEps)
		if yi == 1 {
			dev -= 2 * w[i] * math.Log(mi)
		} else {
			dev -= 2 * w[i] * math.Log(1-mi)
		}
	}
	return dev
}

// fitIRLS fits a weighted logistic regression with an internal
// intercept by iteratively reweighted least squares.  It returns an
// error instead of an estimate when the working least squares system
// is singular, when the deviance does not stabilize within maxiter
// iterations, or when the parameters leave the finite range.
func fitIRLS(ds *design.Dataset, maxiter int) (float64, []float64, error) {

	dtol := 1e-8

	nobs := ds.NumObs()
	if nobs == 0 {
		return 0, nil, fmt.Errorf("logit: empty dataset")
	}

	// Column 0 is the internal intercept.
	nvar := ds.NumVars() + 1

	params := make([]float64, nvar)
	linpred := make([]float64, nobs)
	mn := make([]float64, nobs)
	irlsw := make([]float64, nobs)
	adjy := make([]float64, nobs)

	xty := make([]float64, nvar)
	xtx := make([]float64, nvar*nvar)

	// xval returns entry (i, j) of the working design, with the
	// intercept as an implicit all-ones column 0.
	xval := func(j, i int) float64 {
		if j == 0 {
			return 1
		}
		return ds.X[j-1][i]
	}

	var nparam mat.VecDense
	var dev []float64

	for iter := 0; iter < maxiter; iter++ {

		zero(xtx)
		zero(xty)

		zero(linpred)
		for j := 1; j < nvar; j++ {
			xda := ds.X[j-1]
			for i := range linpred {
				linpred[i] += xda[i] * params[j]
			}
		}
		for i := range linpred {
			linpred[i] += params[0]
		}

		if iter == 0 {
			// Binomial warm start, shrunk toward 1/2.
			for i := range mn {
				mn[i] = (ds.Y[i] + 0.5) / 2
			}
		} else {
			for i := range mn {
				mn[i] = sigmoid(linpred[i])
			}
		}

		devi := deviance(ds.Y, ds.W, mn)

		// Weights and adjusted response for the working WLS problem.
		// For the logit link the link derivative is 1/(mu (1-mu)).
		for i := range mn {
			v := mn[i] * (1 - mn[i])
			if v < muEps {
				v = muEps
			}
			irlsw[i] = ds.W[i] * v
			adjy[i] = linpred[i] + (ds.Y[i]-mn[i])/v
		}

		for j1 := 0; j1 < nvar; j1++ {
			var u float64
			for i := range adjy {
				u += adjy[i] * xval(j1, i) * irlsw[i]
			}
			xty[j1] = u
			for j2 := 0; j2 <= j1; j2++ {
				var u float64
				for i := range adjy {
					u += xval(j1, i) * xval(j2, i) * irlsw[i]
				}
				xtx[j1*nvar+j2] = u
				xtx[j2*nvar+j1] = u
			}
		}

		xtxm := mat.NewDense(nvar, nvar, xtx)
		xtyv := mat.NewVecDense(nvar, xty)
		if err := nparam.SolveVec(xtxm, xtyv); err != nil {
			return 0, nil, fmt.Errorf("logit: IRLS working system is singular: %w", err)
		}
		copy(params, nparam.RawVector().Data)

		for _, v := range params {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return 0, nil, fmt.Errorf("logit: IRLS diverged")
			}
		}

		dev = append(dev, devi)
		if len(dev) > 3 && math.Abs(dev[len(dev)-1]-dev[len(dev)-2]) < dtol {
			return params[0], params[1:], nil
		}
	}

	return 0, nil, fmt.Errorf("logit: IRLS did not converge in %d iterations", maxiter)
}

func zero(x []float64) {
	for i := range x {
		x[i] = 0
	}
}
