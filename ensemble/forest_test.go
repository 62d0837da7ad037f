package ensemble

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func clusterData() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(12, 2, []float64{
		0.0, 0.1,
		0.2, 0.0,
		0.1, 0.3,
		0.3, 0.2,
		0.0, 0.2,
		0.2, 0.3,
		3.0, 3.1,
		3.2, 3.0,
		3.1, 3.3,
		3.3, 3.2,
		3.0, 3.2,
		3.2, 3.3,
	})
	y := mat.NewDense(12, 1, []float64{0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1})
	return X, y
}

// TestRandomForestClassifier_FitPredict tests basic classification
func TestRandomForestClassifier_FitPredict(t *testing.T) {
	X, y := clusterData()

	rf := NewRandomForestClassifier(
		WithNEstimators(25),
		WithForestRandomState(42),
	)

	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit forest: %v", err)
	}

	predictions, err := rf.Predict(X)
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}

	for i := 0; i < 12; i++ {
		if predictions.At(i, 0) != y.At(i, 0) {
			t.Errorf("Sample %d: expected %v, got %v", i, y.At(i, 0), predictions.At(i, 0))
		}
	}
}

// TestRandomForestClassifier_PredictProba tests averaged probabilities
func TestRandomForestClassifier_PredictProba(t *testing.T) {
	X, y := clusterData()

	rf := NewRandomForestClassifier(
		WithNEstimators(25),
		WithForestRandomState(7),
	)
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit forest: %v", err)
	}

	probas, err := rf.PredictProba(X)
	if err != nil {
		t.Fatalf("Failed to predict probabilities: %v", err)
	}

	rows, cols := probas.Dims()
	if rows != 12 || cols != 2 {
		t.Fatalf("Expected probas shape (12, 2), got (%d, %d)", rows, cols)
	}

	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < cols; j++ {
			p := probas.At(i, j)
			if p < 0 || p > 1 {
				t.Errorf("Invalid probability at (%d, %d): %v", i, j, p)
			}
			sum += p
		}
		if math.Abs(sum-1.0) > 1e-6 {
			t.Errorf("Probabilities for sample %d don't sum to 1: %v", i, sum)
		}
	}
}

// TestRandomForestClassifier_Determinism tests seeded reproducibility
func TestRandomForestClassifier_Determinism(t *testing.T) {
	X, y := clusterData()

	fit := func() mat.Matrix {
		rf := NewRandomForestClassifier(
			WithNEstimators(10),
			WithForestRandomState(99),
		)
		if err := rf.Fit(X, y); err != nil {
			t.Fatalf("Failed to fit forest: %v", err)
		}
		probas, err := rf.PredictProba(X)
		if err != nil {
			t.Fatalf("Failed to predict probabilities: %v", err)
		}
		return probas
	}

	a, b := fit(), fit()
	r, c := a.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if a.At(i, j) != b.At(i, j) {
				t.Fatalf("Seeded forests disagree at (%d, %d): %v vs %v", i, j, a.At(i, j), b.At(i, j))
			}
		}
	}
}

// TestRandomForestClassifier_FeatureImportances tests averaged importances
func TestRandomForestClassifier_FeatureImportances(t *testing.T) {
	// Feature 0 separates the classes, feature 1 is noise.
	X := mat.NewDense(10, 2, []float64{
		0, 7,
		0, 2,
		0, 9,
		0, 4,
		0, 1,
		1, 8,
		1, 3,
		1, 6,
		1, 5,
		1, 0,
	})
	y := mat.NewDense(10, 1, []float64{0, 0, 0, 0, 0, 1, 1, 1, 1, 1})

	rf := NewRandomForestClassifier(
		WithNEstimators(30),
		WithForestMaxFeatures(2),
		WithForestRandomState(3),
	)
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit forest: %v", err)
	}

	imp := rf.FeatureImportances()
	if len(imp) != 2 {
		t.Fatalf("Expected 2 importances, got %d", len(imp))
	}
	if imp[0] <= imp[1] {
		t.Errorf("Feature 0 should dominate importances: %v", imp)
	}
}

// TestRandomForestClassifier_Errors tests argument validation
func TestRandomForestClassifier_Errors(t *testing.T) {
	rf := NewRandomForestClassifier()

	X := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	if _, err := rf.Predict(X); err == nil {
		t.Error("Expected error when predicting without fitting")
	}

	bad := NewRandomForestClassifier(WithNEstimators(0))
	y := mat.NewDense(2, 1, []float64{0, 1})
	if err := bad.Fit(X, y); err == nil {
		t.Error("Expected error for n_estimators=0")
	}
}
