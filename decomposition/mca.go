package decomposition

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/himetrics/attrition/core/model"
	"github.com/himetrics/attrition/pkg/errors"
)

// MCA is multiple correspondence analysis over a one-hot indicator matrix.
// It is the categorical counterpart of PCA for the survey-style columns.
type MCA struct {
	model.BaseEstimator

	nComponents int

	colMasses      []float64
	colCoords_     *mat.Dense // nLevels x nComponents, standard coordinates
	offset         []float64  // centering term applied in Transform
	singularValues []float64
	inertiaRatio_  []float64
	nLevels_       int
}

// MCAOption configures an MCA.
type MCAOption func(*MCA)

// NewMCA creates an MCA transformer.
func NewMCA(opts ...MCAOption) *MCA {
	mca := &MCA{nComponents: 2}
	for _, opt := range opts {
		opt(mca)
	}
	return mca
}

// WithMCAComponents sets the number of components to keep.
func WithMCAComponents(k int) MCAOption {
	return func(mca *MCA) {
		mca.nComponents = k
	}
}

// Fit runs correspondence analysis on the indicator matrix Z, whose rows are
// one-hot encoded observations. Every row must have the same total, one
// indicator per original variable.
func (mca *MCA) Fit(Z mat.Matrix) error {
	nSamples, nLevels := Z.Dims()
	if nSamples < 2 || nLevels == 0 {
		return errors.NewModelError("MCA.Fit", "need at least two samples", errors.ErrEmptyData)
	}
	if mca.nComponents < 1 || mca.nComponents >= nLevels {
		return errors.NewValidationError("n_components", "must be in [1, n_levels)", mca.nComponents)
	}
	mca.nLevels_ = nLevels

	var grand float64
	rowTotals := make([]float64, nSamples)
	colTotals := make([]float64, nLevels)
	for i := 0; i < nSamples; i++ {
		for j := 0; j < nLevels; j++ {
			v := Z.At(i, j)
			if v < 0 {
				return errors.NewValueError("MCA.Fit", "indicator matrix must be nonnegative")
			}
			rowTotals[i] += v
			colTotals[j] += v
			grand += v
		}
	}
	if grand == 0 {
		return errors.NewModelError("MCA.Fit", "all-zero indicator matrix", errors.ErrEmptyData)
	}

	rowMass := make([]float64, nSamples)
	mca.colMasses = make([]float64, nLevels)
	for i := range rowMass {
		rowMass[i] = rowTotals[i] / grand
	}
	for j := range mca.colMasses {
		mca.colMasses[j] = colTotals[j] / grand
	}

	// Standardized residuals S = Dr^{-1/2} (P - r c^T) Dc^{-1/2}.
	S := mat.NewDense(nSamples, nLevels, nil)
	for i := 0; i < nSamples; i++ {
		if rowMass[i] == 0 {
			continue
		}
		sr := math.Sqrt(rowMass[i])
		for j := 0; j < nLevels; j++ {
			if mca.colMasses[j] == 0 {
				continue
			}
			p := Z.At(i, j) / grand
			S.Set(i, j, (p-rowMass[i]*mca.colMasses[j])/(sr*math.Sqrt(mca.colMasses[j])))
		}
	}

	var svd mat.SVD
	if !svd.Factorize(S, mat.SVDThin) {
		return errors.Wrap(errors.ErrSingularMatrix, "MCA.Fit: SVD failed to converge")
	}

	var v mat.Dense
	svd.VTo(&v)
	values := svd.Values(nil)

	mca.singularValues = make([]float64, mca.nComponents)
	copy(mca.singularValues, values)

	var totalInertia float64
	for _, s := range values {
		totalInertia += s * s
	}
	mca.inertiaRatio_ = make([]float64, mca.nComponents)
	for k := 0; k < mca.nComponents; k++ {
		mca.inertiaRatio_[k] = values[k] * values[k] / totalInertia
	}

	// Column standard coordinates G = Dc^{-1/2} V.
	mca.colCoords_ = mat.NewDense(nLevels, mca.nComponents, nil)
	for j := 0; j < nLevels; j++ {
		if mca.colMasses[j] == 0 {
			continue
		}
		s := 1 / math.Sqrt(mca.colMasses[j])
		for k := 0; k < mca.nComponents; k++ {
			mca.colCoords_.Set(j, k, s*v.At(j, k))
		}
	}

	// Row coordinates follow the transition formula F = profile * G minus
	// the trivial dimension, which is a constant offset c^T G.
	mca.offset = make([]float64, mca.nComponents)
	for k := 0; k < mca.nComponents; k++ {
		var o float64
		for j := 0; j < nLevels; j++ {
			o += mca.colMasses[j] * mca.colCoords_.At(j, k)
		}
		mca.offset[k] = o
	}

	mca.SetFitted()
	return nil
}

// Transform maps indicator rows to row principal coordinates.
func (mca *MCA) Transform(Z mat.Matrix) (mat.Matrix, error) {
	if !mca.IsFitted() {
		return nil, errors.NewNotFittedError("MCA", "Transform")
	}
	r, c := Z.Dims()
	if c != mca.nLevels_ {
		return nil, errors.NewDimensionError("MCA.Transform", mca.nLevels_, c, 1)
	}

	coords := mat.NewDense(r, mca.nComponents, nil)
	for i := 0; i < r; i++ {
		var rowTotal float64
		for j := 0; j < c; j++ {
			rowTotal += Z.At(i, j)
		}
		if rowTotal == 0 {
			continue
		}
		for k := 0; k < mca.nComponents; k++ {
			var f float64
			for j := 0; j < c; j++ {
				f += Z.At(i, j) / rowTotal * mca.colCoords_.At(j, k)
			}
			coords.Set(i, k, f-mca.offset[k])
		}
	}
	return coords, nil
}

// FitTransform fits the MCA and returns the row coordinates.
func (mca *MCA) FitTransform(Z mat.Matrix) (mat.Matrix, error) {
	if err := mca.Fit(Z); err != nil {
		return nil, err
	}
	return mca.Transform(Z)
}

// ColumnCoordinates returns standard coordinates per indicator level.
func (mca *MCA) ColumnCoordinates() *mat.Dense {
	return mca.colCoords_
}

// SingularValues returns the singular values of the kept components.
func (mca *MCA) SingularValues() []float64 {
	return append([]float64(nil), mca.singularValues...)
}

// InertiaRatio returns the inertia share of each kept component.
func (mca *MCA) InertiaRatio() []float64 {
	return append([]float64(nil), mca.inertiaRatio_...)
}

// GetParams returns the hyperparameters.
func (mca *MCA) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_components": mca.nComponents,
	}
}
