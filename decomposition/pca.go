// Package decomposition implements linear dimensionality reduction for the
// numeric and categorical views of the employee data.
package decomposition

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/himetrics/attrition/core/model"
	"github.com/himetrics/attrition/pkg/errors"
)

// PCA projects standardized data onto its leading principal components.
type PCA struct {
	model.BaseEstimator

	nComponents int

	mean_                   []float64
	scale_                  []float64
	components_             *mat.Dense // nComponents x nFeatures
	explainedVariance_      []float64
	explainedVarianceRatio_ []float64
	nFeatures_              int
}

// PCAOption configures a PCA.
type PCAOption func(*PCA)

// NewPCA creates a PCA transformer.
func NewPCA(opts ...PCAOption) *PCA {
	pca := &PCA{nComponents: 2}
	for _, opt := range opts {
		opt(pca)
	}
	return pca
}

// WithPCAComponents sets the number of components to keep.
func WithPCAComponents(k int) PCAOption {
	return func(pca *PCA) {
		pca.nComponents = k
	}
}

// Fit centers and scales X to unit variance, then runs an SVD.
func (pca *PCA) Fit(X mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	if nSamples < 2 || nFeatures == 0 {
		return errors.NewModelError("PCA.Fit", "need at least two samples", errors.ErrEmptyData)
	}
	if pca.nComponents < 1 || pca.nComponents > nFeatures {
		return errors.NewValidationError("n_components", "must be in [1, n_features]", pca.nComponents)
	}
	pca.nFeatures_ = nFeatures

	pca.mean_ = make([]float64, nFeatures)
	pca.scale_ = make([]float64, nFeatures)
	for j := 0; j < nFeatures; j++ {
		var sum float64
		for i := 0; i < nSamples; i++ {
			sum += X.At(i, j)
		}
		pca.mean_[j] = sum / float64(nSamples)

		var ss float64
		for i := 0; i < nSamples; i++ {
			d := X.At(i, j) - pca.mean_[j]
			ss += d * d
		}
		variance := ss / float64(nSamples-1)
		if variance > 0 {
			pca.scale_[j] = math.Sqrt(variance)
		} else {
			pca.scale_[j] = 1
		}
	}

	centered := mat.NewDense(nSamples, nFeatures, nil)
	for i := 0; i < nSamples; i++ {
		for j := 0; j < nFeatures; j++ {
			centered.Set(i, j, (X.At(i, j)-pca.mean_[j])/pca.scale_[j])
		}
	}

	var svd mat.SVD
	if !svd.Factorize(centered, mat.SVDThin) {
		return errors.Wrap(errors.ErrSingularMatrix, "PCA.Fit: SVD failed to converge")
	}

	var v mat.Dense
	svd.VTo(&v)
	values := svd.Values(nil)

	pca.components_ = mat.NewDense(pca.nComponents, nFeatures, nil)
	pca.explainedVariance_ = make([]float64, pca.nComponents)

	var totalVar float64
	for _, s := range values {
		totalVar += s * s / float64(nSamples-1)
	}
	for k := 0; k < pca.nComponents; k++ {
		for j := 0; j < nFeatures; j++ {
			pca.components_.Set(k, j, v.At(j, k))
		}
		pca.explainedVariance_[k] = values[k] * values[k] / float64(nSamples-1)
	}
	pca.explainedVarianceRatio_ = make([]float64, pca.nComponents)
	for k := range pca.explainedVarianceRatio_ {
		pca.explainedVarianceRatio_[k] = pca.explainedVariance_[k] / totalVar
	}

	pca.SetFitted()
	return nil
}

// Transform projects X onto the fitted components.
func (pca *PCA) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !pca.IsFitted() {
		return nil, errors.NewNotFittedError("PCA", "Transform")
	}
	r, c := X.Dims()
	if c != pca.nFeatures_ {
		return nil, errors.NewDimensionError("PCA.Transform", pca.nFeatures_, c, 1)
	}

	scores := mat.NewDense(r, pca.nComponents, nil)
	for i := 0; i < r; i++ {
		for k := 0; k < pca.nComponents; k++ {
			var v float64
			for j := 0; j < c; j++ {
				v += (X.At(i, j) - pca.mean_[j]) / pca.scale_[j] * pca.components_.At(k, j)
			}
			scores.Set(i, k, v)
		}
	}
	return scores, nil
}

// FitTransform fits the PCA and returns the projected data.
func (pca *PCA) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := pca.Fit(X); err != nil {
		return nil, err
	}
	return pca.Transform(X)
}

// Components returns the loading matrix, one row per component.
func (pca *PCA) Components() *mat.Dense {
	return pca.components_
}

// ExplainedVarianceRatio returns the variance share of each kept component.
func (pca *PCA) ExplainedVarianceRatio() []float64 {
	return append([]float64(nil), pca.explainedVarianceRatio_...)
}

// ExplainedVariance returns the variance of each kept component.
func (pca *PCA) ExplainedVariance() []float64 {
	return append([]float64(nil), pca.explainedVariance_...)
}

// GetParams returns the hyperparameters.
func (pca *PCA) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_components": pca.nComponents,
	}
}
