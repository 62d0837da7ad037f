package svm

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/himetrics/attrition/pkg/errors"
)

func separableData() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(10, 2, []float64{
		0.0, 0.2,
		0.3, 0.1,
		0.1, 0.4,
		0.2, 0.0,
		0.4, 0.3,
		3.0, 3.2,
		3.3, 3.1,
		3.1, 3.4,
		3.2, 3.0,
		3.4, 3.3,
	})
	y := mat.NewDense(10, 1, []float64{0, 0, 0, 0, 0, 1, 1, 1, 1, 1})
	return X, y
}

// TestLinearSVC_FitPredict tests classification on separable data
func TestLinearSVC_FitPredict(t *testing.T) {
	X, y := separableData()

	svc := NewLinearSVC(
		WithSVCC(1.0),
		WithSVCMaxIter(200),
		WithSVCRandomState(42),
	)

	if err := svc.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	score, err := svc.Score(X, y)
	if err != nil {
		t.Fatalf("Failed to score: %v", err)
	}
	if score < 0.9 {
		t.Errorf("Expected score >= 0.9 on separable data, got %v", score)
	}
}

// TestLinearSVC_DecisionFunction tests decision value ranking
func TestLinearSVC_DecisionFunction(t *testing.T) {
	X, y := separableData()

	svc := NewLinearSVC(WithSVCRandomState(1), WithSVCMaxIter(200))
	if err := svc.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	scores, err := svc.DecisionFunction(X)
	if err != nil {
		t.Fatalf("Failed to compute decision values: %v", err)
	}

	r, c := scores.Dims()
	if r != 10 || c != 1 {
		t.Fatalf("Expected scores shape (10, 1), got (%d, %d)", r, c)
	}

	// Every positive sample should score above every negative sample.
	minPos, maxNeg := scores.At(5, 0), scores.At(0, 0)
	for i := 0; i < 5; i++ {
		if scores.At(i, 0) > maxNeg {
			maxNeg = scores.At(i, 0)
		}
	}
	for i := 5; i < 10; i++ {
		if scores.At(i, 0) < minPos {
			minPos = scores.At(i, 0)
		}
	}
	if minPos <= maxNeg {
		t.Errorf("Decision values should separate classes: min positive %v, max negative %v", minPos, maxNeg)
	}
}

// TestLinearSVC_Errors tests argument validation
func TestLinearSVC_Errors(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{0, 0, 0, 1, 1, 0, 1, 1})

	svc := NewLinearSVC()
	if _, err := svc.Predict(X); err == nil {
		t.Error("Expected error when predicting without fitting")
	}

	ySingle := mat.NewDense(4, 1, []float64{1, 1, 1, 1})
	if err := svc.Fit(X, ySingle); err == nil {
		t.Error("Expected error for single-class target")
	}

	yOK := mat.NewDense(4, 1, []float64{0, 0, 1, 1})
	bad := NewLinearSVC(WithSVCC(-1))
	if err := bad.Fit(X, yOK); err == nil {
		t.Error("Expected error for negative C")
	}
}

// TestLinearSVC_ConvergenceWarning tests the warning on iteration exhaustion
func TestLinearSVC_ConvergenceWarning(t *testing.T) {
	X, y := separableData()

	var warned error
	errors.SetWarningHandler(func(w error) { warned = w })
	defer errors.SetWarningHandler(nil)

	svc := NewLinearSVC(
		WithSVCMaxIter(1),
		WithSVCTol(1e-15),
		WithSVCRandomState(5),
	)
	if err := svc.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	if warned == nil {
		t.Error("Expected a convergence warning with max_iter=1")
	}
}
