// Package svm implements a linear support vector classifier trained with
// stochastic subgradient descent on the hinge loss.
package svm

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/himetrics/attrition/core/model"
	"github.com/himetrics/attrition/pkg/errors"
)

// LinearSVC is a binary linear SVM. It exposes signed decision values
// through DecisionFunction for ranking metrics.
type LinearSVC struct {
	model.BaseEstimator

	c           float64
	maxIter     int
	tol         float64
	randomState int64

	classes_   []int
	weights    []float64
	intercept_ float64
	nFeatures_ int
	nIter_     int
}

// LinearSVCOption configures a LinearSVC.
type LinearSVCOption func(*LinearSVC)

// NewLinearSVC creates a linear SVM classifier.
func NewLinearSVC(opts ...LinearSVCOption) *LinearSVC {
	svc := &LinearSVC{
		c:           1.0,
		maxIter:     1000,
		tol:         1e-4,
		randomState: -1,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithSVCC sets the inverse regularization strength.
func WithSVCC(c float64) LinearSVCOption {
	return func(svc *LinearSVC) {
		svc.c = c
	}
}

// WithSVCMaxIter sets the number of epochs over the data.
func WithSVCMaxIter(n int) LinearSVCOption {
	return func(svc *LinearSVC) {
		svc.maxIter = n
	}
}

// WithSVCTol sets the weight-change tolerance used to stop early.
func WithSVCTol(tol float64) LinearSVCOption {
	return func(svc *LinearSVC) {
		svc.tol = tol
	}
}

// WithSVCRandomState seeds the sample shuffling.
func WithSVCRandomState(seed int64) LinearSVCOption {
	return func(svc *LinearSVC) {
		svc.randomState = seed
	}
}

// Fit trains the SVM with the Pegasos subgradient schedule.
func (svc *LinearSVC) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("LinearSVC.Fit", "empty data", errors.ErrEmptyData)
	}
	if yRows != nSamples {
		return errors.NewDimensionError("LinearSVC.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("LinearSVC.Fit", "y must be a column vector")
	}
	if svc.c <= 0 {
		return errors.NewValidationError("C", "must be positive", svc.c)
	}

	seen := map[int]bool{}
	for i := 0; i < nSamples; i++ {
		seen[int(y.At(i, 0))] = true
	}
	if len(seen) != 2 {
		return errors.NewValueError("LinearSVC.Fit", "exactly two classes required")
	}
	svc.classes_ = make([]int, 0, 2)
	for class := range seen {
		svc.classes_ = append(svc.classes_, class)
	}
	sort.Ints(svc.classes_)
	svc.nFeatures_ = nFeatures

	// Map classes to -1/+1 targets, positive class last.
	signs := make([]float64, nSamples)
	for i := 0; i < nSamples; i++ {
		if int(y.At(i, 0)) == svc.classes_[1] {
			signs[i] = 1
		} else {
			signs[i] = -1
		}
	}

	seed := svc.randomState
	if seed < 0 {
		seed = rand.Int63()
	}
	rng := rand.New(rand.NewSource(seed))

	lambda := 1.0 / (svc.c * float64(nSamples))
	w := make([]float64, nFeatures)
	b := 0.0
	order := rng.Perm(nSamples)

	step := 0
	for epoch := 0; epoch < svc.maxIter; epoch++ {
		rng.Shuffle(nSamples, func(a, c int) { order[a], order[c] = order[c], order[a] })

		maxUpdate := 0.0
		for _, i := range order {
			step++
			eta := 1.0 / (lambda * float64(step))

			margin := b
			for j := 0; j < nFeatures; j++ {
				margin += w[j] * X.At(i, j)
			}
			margin *= signs[i]

			shrink := 1 - eta*lambda
			for j := 0; j < nFeatures; j++ {
				old := w[j]
				w[j] *= shrink
				if margin < 1 {
					w[j] += eta * signs[i] * X.At(i, j)
				}
				if d := math.Abs(w[j] - old); d > maxUpdate {
					maxUpdate = d
				}
			}
			if margin < 1 {
				b += eta * signs[i]
			}
		}

		svc.nIter_ = epoch + 1
		if maxUpdate < svc.tol {
			break
		}
	}

	if svc.nIter_ == svc.maxIter {
		errors.Warn(errors.NewConvergenceWarning("LinearSVC", svc.nIter_, ""))
	}

	svc.weights = w
	svc.intercept_ = b
	svc.SetFitted()
	return nil
}

// DecisionFunction returns signed distances to the separating hyperplane.
// Positive values favor the larger class label.
func (svc *LinearSVC) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	if !svc.IsFitted() {
		return nil, errors.NewNotFittedError("LinearSVC", "DecisionFunction")
	}

	r, c := X.Dims()
	if c != svc.nFeatures_ {
		return nil, errors.NewDimensionError("LinearSVC.DecisionFunction", svc.nFeatures_, c, 1)
	}

	scores := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		v := svc.intercept_
		for j := 0; j < c; j++ {
			v += svc.weights[j] * X.At(i, j)
		}
		scores.Set(i, 0, v)
	}
	return scores, nil
}

// Predict returns the class label by the sign of the decision value.
func (svc *LinearSVC) Predict(X mat.Matrix) (mat.Matrix, error) {
	scores, err := svc.DecisionFunction(X)
	if err != nil {
		return nil, err
	}

	r, _ := scores.Dims()
	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		if scores.At(i, 0) >= 0 {
			predictions.Set(i, 0, float64(svc.classes_[1]))
		} else {
			predictions.Set(i, 0, float64(svc.classes_[0]))
		}
	}
	return predictions, nil
}

// Classes returns the two class labels in sorted order.
func (svc *LinearSVC) Classes() []int {
	return append([]int(nil), svc.classes_...)
}

// Coef returns the learned weight vector.
func (svc *LinearSVC) Coef() []float64 {
	return append([]float64(nil), svc.weights...)
}

// Intercept returns the learned bias term.
func (svc *LinearSVC) Intercept() float64 {
	return svc.intercept_
}

// Score returns the mean accuracy on X, y.
func (svc *LinearSVC) Score(X, y mat.Matrix) (float64, error) {
	pred, err := svc.Predict(X)
	if err != nil {
		return 0, err
	}
	r, _ := y.Dims()
	correct := 0
	for i := 0; i < r; i++ {
		if pred.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(r), nil
}

// GetParams returns the hyperparameters.
func (svc *LinearSVC) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"C":            svc.c,
		"max_iter":     svc.maxIter,
		"tol":          svc.tol,
		"random_state": svc.randomState,
	}
}
