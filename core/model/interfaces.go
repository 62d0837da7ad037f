package model

import "gonum.org/v1/gonum/mat"

// Fitter is implemented by supervised estimators.
type Fitter interface {
	// Fit trains the estimator on X with targets y.
	Fit(X, y mat.Matrix) error
}

// Predictor produces predictions for new samples.
type Predictor interface {
	// Predict returns one prediction per row of X.
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Scorer computes a quality score on held-out data.
type Scorer interface {
	Score(X, y mat.Matrix) (float64, error)
}

// Classifier is the contract of the probability-producing classifiers. The
// linear SVM is the one exception: it ranks by decision value instead.
type Classifier interface {
	Fitter
	Predictor

	// PredictProba returns per-class probability estimates, one column per
	// class in the order reported by Classes.
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes returns the unique class labels seen during fitting.
	Classes() []int
}

// Transformer is implemented by unsupervised fitted transforms.
type Transformer interface {
	// Fit learns the transform parameters from X.
	Fit(X mat.Matrix) error

	// Transform applies the learned transform to X.
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform fits on X and returns the transformed X.
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// ParameterGetter exposes an estimator's hyperparameters.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}
