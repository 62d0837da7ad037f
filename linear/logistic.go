package linear

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/himetrics/attrition/core/model"
	"github.com/himetrics/attrition/pkg/errors"
)

// LogisticRegression is a binary classifier fit by gradient descent. The
// penalty selects plain L2 shrinkage or the lasso variant, where an L1
// proximal step after each gradient update drives weak coefficients to
// exactly zero.
type LogisticRegression struct {
	model.BaseEstimator

	// Hyperparameters
	penalty      string  // "l2", "l1" or "none"
	c            float64 // inverse regularization strength
	fitIntercept bool
	maxIter      int
	tol          float64
	randomState  int64

	// Fitted parameters
	coef      []float64
	intercept float64
	classes   []int
	nFeatures int
	nIter     int

	rng *rand.Rand
}

// LogisticRegressionOption configures a LogisticRegression.
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a binary logistic regression classifier.
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		penalty:      "l2",
		c:            1.0,
		fitIntercept: true,
		maxIter:      200,
		tol:          1e-4,
		randomState:  -1,
	}
	for _, opt := range opts {
		opt(lr)
	}
	if lr.rng == nil {
		if lr.randomState >= 0 {
			lr.rng = rand.New(rand.NewSource(lr.randomState))
		} else {
			lr.rng = rand.New(rand.NewSource(rand.Int63()))
		}
	}
	return lr
}

// WithLRPenalty sets the regularization type: "l2", "l1" or "none".
func WithLRPenalty(penalty string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.penalty = penalty
	}
}

// WithLRC sets the inverse regularization strength.
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.c = c
	}
}

// WithLRFitIntercept sets whether to fit an intercept.
func WithLRFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.fitIntercept = fit
	}
}

// WithLRMaxIter sets the iteration budget.
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.maxIter = maxIter
	}
}

// WithLRTol sets the gradient-norm stopping tolerance.
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

// WithLRRandomState sets the seed for weight initialization.
func WithLRRandomState(seed int64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.randomState = seed
		if seed >= 0 {
			lr.rng = rand.New(rand.NewSource(seed))
		}
	}
}

// Fit trains the classifier. y must be a column vector with exactly two
// distinct integer labels.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("LogisticRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if nSamples != yRows {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("LogisticRegression.Fit", "y must be a column vector")
	}

	switch lr.penalty {
	case "l1", "l2", "none":
	default:
		return errors.NewValidationError("penalty", "must be one of l1, l2, none", lr.penalty)
	}

	classes, err := extractBinaryClasses("LogisticRegression.Fit", y)
	if err != nil {
		return err
	}
	lr.classes = classes
	lr.nFeatures = nFeatures

	// Labels as 0/1 with classes[1] the positive class.
	yBin := make([]float64, nSamples)
	for i := 0; i < nSamples; i++ {
		if int(y.At(i, 0)) == lr.classes[1] {
			yBin[i] = 1
		}
	}

	lr.coef = make([]float64, nFeatures)
	for j := range lr.coef {
		lr.coef[j] = lr.rng.NormFloat64() * 0.01
	}
	lr.intercept = 0

	lambda := 0.0
	if lr.penalty != "none" {
		lambda = 1.0 / lr.c
	}

	converged := false
	gradW := make([]float64, nFeatures)
	for iter := 0; iter < lr.maxIter; iter++ {
		for j := range gradW {
			gradW[j] = 0
		}
		gradB := 0.0

		for i := 0; i < nSamples; i++ {
			z := lr.intercept
			for j := 0; j < nFeatures; j++ {
				z += X.At(i, j) * lr.coef[j]
			}
			diff := sigmoid(z) - yBin[i]
			gradB += diff
			for j := 0; j < nFeatures; j++ {
				gradW[j] += diff * X.At(i, j)
			}
		}
		for j := range gradW {
			gradW[j] /= float64(nSamples)
		}
		gradB /= float64(nSamples)

		if lr.penalty == "l2" {
			for j := range lr.coef {
				gradW[j] += lambda * lr.coef[j]
			}
		}

		step := 1.0 / (1.0 + 0.1*float64(iter))

		for j := range lr.coef {
			lr.coef[j] -= step * gradW[j]
		}
		if lr.fitIntercept {
			lr.intercept -= step * gradB
		}

		// Proximal soft-threshold step for the lasso penalty.
		if lr.penalty == "l1" {
			shrink := step * lambda
			for j := range lr.coef {
				switch {
				case lr.coef[j] > shrink:
					lr.coef[j] -= shrink
				case lr.coef[j] < -shrink:
					lr.coef[j] += shrink
				default:
					lr.coef[j] = 0
				}
			}
		}

		lr.nIter = iter + 1

		if err := errors.CheckNumericalStability("LogisticRegression.Fit", lr.coef, iter); err != nil {
			return err
		}

		maxGrad := math.Abs(gradB)
		for _, g := range gradW {
			if math.Abs(g) > maxGrad {
				maxGrad = math.Abs(g)
			}
		}
		if maxGrad < lr.tol {
			converged = true
			break
		}
	}

	if !converged {
		errors.Warn(errors.NewConvergenceWarning("LogisticRegression", lr.nIter, ""))
	}

	lr.SetFitted()
	return nil
}

// Predict returns the predicted class label for each row of X.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}

	r, _ := proba.Dims()
	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		if proba.At(i, 1) >= 0.5 {
			predictions.Set(i, 0, float64(lr.classes[1]))
		} else {
			predictions.Set(i, 0, float64(lr.classes[0]))
		}
	}
	return predictions, nil
}

// PredictProba returns class probabilities, one column per class.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !lr.IsFitted() {
		return nil, errors.NewNotFittedError("LogisticRegression", "PredictProba")
	}

	r, c := X.Dims()
	if c != lr.nFeatures {
		return nil, errors.NewDimensionError("LogisticRegression.PredictProba", lr.nFeatures, c, 1)
	}

	probas := mat.NewDense(r, 2, nil)
	for i := 0; i < r; i++ {
		z := lr.intercept
		for j := 0; j < c; j++ {
			z += X.At(i, j) * lr.coef[j]
		}
		p := sigmoid(z)
		probas.Set(i, 0, 1-p)
		probas.Set(i, 1, p)
	}
	return probas, nil
}

// Classes returns the class labels in probability column order.
func (lr *LogisticRegression) Classes() []int {
	return append([]int(nil), lr.classes...)
}

// Score returns the mean accuracy on X, y.
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	return classifierAccuracy(lr, X, y)
}

// Coef returns the fitted coefficients.
func (lr *LogisticRegression) Coef() []float64 {
	return append([]float64(nil), lr.coef...)
}

// NumNonzeroCoef counts coefficients that survived the lasso threshold.
func (lr *LogisticRegression) NumNonzeroCoef() int {
	n := 0
	for _, w := range lr.coef {
		if w != 0 {
			n++
		}
	}
	return n
}

// GetParams returns the hyperparameters.
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"penalty":       lr.penalty,
		"C":             lr.c,
		"fit_intercept": lr.fitIntercept,
		"max_iter":      lr.maxIter,
		"tol":           lr.tol,
		"random_state":  lr.randomState,
	}
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

// extractBinaryClasses collects the labels of y and requires exactly two.
func extractBinaryClasses(op string, y mat.Matrix) ([]int, error) {
	rows, _ := y.Dims()
	seen := map[int]bool{}
	for i := 0; i < rows; i++ {
		seen[int(y.At(i, 0))] = true
	}
	if len(seen) != 2 {
		return nil, errors.NewValueError(op, "y must contain exactly two classes")
	}

	classes := make([]int, 0, 2)
	for class := range seen {
		classes = append(classes, class)
	}
	if classes[0] > classes[1] {
		classes[0], classes[1] = classes[1], classes[0]
	}
	return classes, nil
}

// classifierAccuracy scores any Classifier by label agreement.
func classifierAccuracy(clf model.Predictor, X, y mat.Matrix) (float64, error) {
	pred, err := clf.Predict(X)
	if err != nil {
		return 0, err
	}
	r, _ := y.Dims()
	if r == 0 {
		return 0, errors.NewValueError("Score", "empty data")
	}
	correct := 0
	for i := 0; i < r; i++ {
		if pred.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(r), nil
}
