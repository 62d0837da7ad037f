// Package linear implements the linear models of the attrition analysis:
// ordinary least squares (used for influence-based outlier screening) and
// binary logistic regression with L2 or L1 (lasso) penalties.
package linear

import (
	"gonum.org/v1/gonum/mat"

	"github.com/himetrics/attrition/core/model"
	"github.com/himetrics/attrition/core/parallel"
	"github.com/himetrics/attrition/pkg/errors"
)

// LinearRegression fits ordinary least squares via the normal equations.
// Beyond prediction it exposes leverage and Cook's distance, which the
// pipeline uses to flag influential rows in the income model.
type LinearRegression struct {
	model.BaseEstimator

	Weights   *mat.VecDense
	Intercept float64
	NFeatures int

	// xtxInv is kept from Fit for leverage computation.
	xtxInv *mat.Dense
}

// NewLinearRegression creates an OLS model.
func NewLinearRegression() *LinearRegression {
	return &LinearRegression{}
}

// Fit solves w = (X^T X)^{-1} X^T y with an intercept column.
func (lr *LinearRegression) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.NewModelError("LinearRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("LinearRegression.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("LinearRegression.Fit", "y must be a column vector")
	}

	lr.NFeatures = c
	XAug := augmentIntercept(X)

	var XT mat.Dense
	XT.CloneFrom(XAug.T())

	var XTX mat.Dense
	XTX.Mul(&XT, XAug)

	var XTXInv mat.Dense
	if err := XTXInv.Inverse(&XTX); err != nil {
		return errors.NewModelError("LinearRegression.Fit", "singular matrix", errors.ErrSingularMatrix)
	}

	yVec := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		yVec.SetVec(i, y.At(i, 0))
	}

	var XTy mat.VecDense
	XTy.MulVec(&XT, yVec)

	weights := mat.NewVecDense(c+1, nil)
	weights.MulVec(&XTXInv, &XTy)

	lr.Intercept = weights.AtVec(0)
	lr.Weights = mat.NewVecDense(c, nil)
	for i := 0; i < c; i++ {
		lr.Weights.SetVec(i, weights.AtVec(i+1))
	}
	lr.xtxInv = &XTXInv

	lr.SetFitted()
	return nil
}

// Predict returns fitted values for X.
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !lr.IsFitted() {
		return nil, errors.NewNotFittedError("LinearRegression", "Predict")
	}

	r, c := X.Dims()
	if c != lr.NFeatures {
		return nil, errors.NewDimensionError("LinearRegression.Predict", lr.NFeatures, c, 1)
	}

	predictions := mat.NewDense(r, 1, nil)
	parallel.ParallelizeWithThreshold(r, 1000, func(start, end int) {
		for i := start; i < end; i++ {
			pred := lr.Intercept
			for j := 0; j < c; j++ {
				pred += X.At(i, j) * lr.Weights.AtVec(j)
			}
			predictions.Set(i, 0, pred)
		}
	})
	return predictions, nil
}

// Score returns the coefficient of determination on X, y.
func (lr *LinearRegression) Score(X, y mat.Matrix) (float64, error) {
	pred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}

	r, _ := y.Dims()
	var yMean float64
	for i := 0; i < r; i++ {
		yMean += y.At(i, 0)
	}
	yMean /= float64(r)

	var tss, rss float64
	for i := 0; i < r; i++ {
		yv := y.At(i, 0)
		tss += (yv - yMean) * (yv - yMean)
		rss += (yv - pred.At(i, 0)) * (yv - pred.At(i, 0))
	}
	if tss == 0 {
		return 0, errors.NewValueError("LinearRegression.Score", "no variance in y")
	}
	return 1 - rss/tss, nil
}

// Leverages returns the hat-matrix diagonal h_ii for each row of X.
func (lr *LinearRegression) Leverages(X mat.Matrix) ([]float64, error) {
	if !lr.IsFitted() {
		return nil, errors.NewNotFittedError("LinearRegression", "Leverages")
	}
	r, c := X.Dims()
	if c != lr.NFeatures {
		return nil, errors.NewDimensionError("LinearRegression.Leverages", lr.NFeatures, c, 1)
	}

	h := make([]float64, r)
	p := c + 1
	xi := mat.NewVecDense(p, nil)
	tmp := mat.NewVecDense(p, nil)
	for i := 0; i < r; i++ {
		xi.SetVec(0, 1)
		for j := 0; j < c; j++ {
			xi.SetVec(j+1, X.At(i, j))
		}
		tmp.MulVec(lr.xtxInv, xi)
		h[i] = mat.Dot(xi, tmp)
	}
	return h, nil
}

// CooksDistances returns the Cook's distance of every row: the scaled change
// in fitted values when the row is deleted. Rows above 4/n are conventionally
// flagged as influential.
func (lr *LinearRegression) CooksDistances(X, y mat.Matrix) ([]float64, error) {
	pred, err := lr.Predict(X)
	if err != nil {
		return nil, err
	}
	h, err := lr.Leverages(X)
	if err != nil {
		return nil, err
	}

	r, c := X.Dims()
	p := float64(c + 1)
	if float64(r) <= p {
		return nil, errors.NewValueError("LinearRegression.CooksDistances", "need more rows than parameters")
	}

	var rss float64
	residuals := make([]float64, r)
	for i := 0; i < r; i++ {
		residuals[i] = y.At(i, 0) - pred.At(i, 0)
		rss += residuals[i] * residuals[i]
	}
	s2 := rss / (float64(r) - p)
	if s2 == 0 {
		return make([]float64, r), nil
	}

	d := make([]float64, r)
	for i := 0; i < r; i++ {
		denom := (1 - h[i]) * (1 - h[i])
		if denom == 0 {
			// Exact leverage 1: the row determines its own fit.
			d[i] = 0
			continue
		}
		d[i] = residuals[i] * residuals[i] / (p * s2) * h[i] / denom
	}
	return d, nil
}

func augmentIntercept(X mat.Matrix) *mat.Dense {
	r, c := X.Dims()
	out := mat.NewDense(r, c+1, nil)
	parallel.ParallelizeWithThreshold(r, 1000, func(start, end int) {
		for i := start; i < end; i++ {
			out.Set(i, 0, 1)
			for j := 0; j < c; j++ {
				out.Set(i, j+1, X.At(i, j))
			}
		}
	})
	return out
}
