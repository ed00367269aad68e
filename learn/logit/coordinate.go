package logit

import (
	"fmt"
	"math"

	"github.com/ucsf-bhhi/statewide-survey-non-response/design"
)

// softThreshold is the one-dimensional lasso update: hard zero inside
// the threshold, shifted toward zero outside it.
func softThreshold(z, t float64) float64 {
	switch {
	case z > t:
		return z - t
	case z < -t:
		return z + t
	}
	return 0
}

// fitCoordinate fits an elastic-net penalized weighted logistic
// regression by coordinate descent over a quadratic (IRLS) working
// approximation.  The objective is the mean weighted negative
// log-likelihood plus lam*(alpha*|b|_1 + (1-alpha)/2*|b|_2^2); the
// intercept is never penalized.
func fitCoordinate(ds *design.Dataset, lam, alpha float64) (float64, []float64, error) {

	const (
		maxOuter = 100
		maxInner = 1000
		tol      = 1e-7
	)

	nobs := ds.NumObs()
	nvar := ds.NumVars()
	if nobs == 0 {
		return 0, nil, fmt.Errorf("logit: empty dataset")
	}
	if lam < 0 || alpha < 0 || alpha > 1 {
		return 0, nil, fmt.Errorf("logit: penalty lambda=%g alpha=%g out of range", lam, alpha)
	}

	var wtot float64
	for _, w := range ds.W {
		wtot += w
	}
	if wtot == 0 {
		return 0, nil, fmt.Errorf("logit: zero total weight")
	}

	coeff := make([]float64, nvar)
	var icept float64

	linpred := make([]float64, nobs)
	v := make([]float64, nobs)   // working weights
	r := make([]float64, nobs)   // working residual z - linpred
	xv2 := make([]float64, nvar) // per-covariate curvature

	for outer := 0; outer < maxOuter; outer++ {

		// Quadratic approximation at the current point.
		for i := range linpred {
			mu := sigmoid(linpred[i])
			vi := mu * (1 - mu)
			if vi < muEps {
				vi = muEps
			}
			v[i] = ds.W[i] * vi / wtot
			// Working residual of z = linpred + (y-mu)/vi.
			r[i] = (ds.Y[i] - mu) / vi
		}

		for j := 0; j < nvar; j++ {
			var s float64
			for i, xi := range ds.X[j] {
				s += v[i] * xi * xi
			}
			xv2[j] = s
		}
		var vsum float64
		for _, vi := range v {
			vsum += vi
		}

		// Inner coordinate descent on the quadratic problem.
		var converged bool
		for inner := 0; inner < maxInner; inner++ {

			dmax := 0.0

			// Intercept update (unpenalized).
			var num float64
			for i := range r {
				num += v[i] * r[i]
			}
			d := num / vsum
			icept += d
			for i := range r {
				r[i] -= d
			}
			if math.Abs(d) > dmax {
				dmax = math.Abs(d)
			}

			for j := 0; j < nvar; j++ {
				if xv2[j] == 0 {
					// Degenerate column; leave its coefficient at zero.
					continue
				}
				xj := ds.X[j]

				var num float64
				for i, xi := range xj {
					num += v[i] * xi * r[i]
				}
				num += xv2[j] * coeff[j]

				nb := softThreshold(num, lam*alpha) / (xv2[j] + lam*(1-alpha))

				d := nb - coeff[j]
				if d != 0 {
					coeff[j] = nb
					for i, xi := range xj {
						r[i] -= d * xi
					}
					if math.Abs(d) > dmax {
						dmax = math.Abs(d)
					}
				}
			}

			if dmax < tol {
				converged = true
				break
			}
		}
		if !converged {
			return 0, nil, fmt.Errorf("logit: coordinate descent did not converge")
		}

		// Refresh the linear predictor and test outer convergence.
		var shift float64
		for i := range linpred {
			lp := icept
			for j := 0; j < nvar; j++ {
				lp += coeff[j] * ds.X[j][i]
			}
			if d := math.Abs(lp - linpred[i]); d > shift {
				shift = d
			}
			linpred[i] = lp
		}

		for _, b := range coeff {
			if math.IsNaN(b) || math.IsInf(b, 0) {
				return 0, nil, fmt.Errorf("logit: coordinate descent diverged")
			}
		}

		if shift < 1e-6 {
			return icept, coeff, nil
		}
	}

	return 0, nil, fmt.Errorf("logit: IRLS loop did not converge in %d iterations", maxOuter)
}
