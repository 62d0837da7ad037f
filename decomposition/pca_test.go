package decomposition

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// TestPCA_FitTransform tests projection onto the dominant direction
func TestPCA_FitTransform(t *testing.T) {
	// Strongly correlated pair plus a low-variance feature.
	X := mat.NewDense(6, 3, []float64{
		1.0, 2.0, 0.1,
		2.0, 4.1, 0.0,
		3.0, 5.9, 0.2,
		4.0, 8.2, 0.1,
		5.0, 9.8, 0.0,
		6.0, 12.1, 0.2,
	})

	pca := NewPCA(WithPCAComponents(2))
	scores, err := pca.FitTransform(X)
	if err != nil {
		t.Fatalf("Failed to fit PCA: %v", err)
	}

	r, c := scores.Dims()
	if r != 6 || c != 2 {
		t.Fatalf("Expected scores shape (6, 2), got (%d, %d)", r, c)
	}

	ratios := pca.ExplainedVarianceRatio()
	if len(ratios) != 2 {
		t.Fatalf("Expected 2 variance ratios, got %d", len(ratios))
	}
	if ratios[0] < ratios[1] {
		t.Errorf("Variance ratios should be decreasing: %v", ratios)
	}
	// The two correlated columns dominate.
	if ratios[0] < 0.6 {
		t.Errorf("First component should dominate, got ratio %v", ratios[0])
	}
	for _, ratio := range ratios {
		if ratio < 0 || ratio > 1 {
			t.Errorf("Ratio out of [0, 1]: %v", ratio)
		}
	}

	// Scores must be centered.
	for k := 0; k < c; k++ {
		var sum float64
		for i := 0; i < r; i++ {
			sum += scores.At(i, k)
		}
		if math.Abs(sum/float64(r)) > 1e-8 {
			t.Errorf("Component %d scores not centered: mean %v", k, sum/float64(r))
		}
	}
}

// TestPCA_Components tests loading matrix shape and unit norm
func TestPCA_Components(t *testing.T) {
	X := mat.NewDense(5, 4, []float64{
		1, 0, 2, 1,
		2, 1, 4, 0,
		3, 0, 6, 1,
		4, 1, 8, 0,
		5, 0, 10, 1,
	})

	pca := NewPCA(WithPCAComponents(2))
	if err := pca.Fit(X); err != nil {
		t.Fatalf("Failed to fit PCA: %v", err)
	}

	comps := pca.Components()
	r, c := comps.Dims()
	if r != 2 || c != 4 {
		t.Fatalf("Expected components shape (2, 4), got (%d, %d)", r, c)
	}

	for k := 0; k < r; k++ {
		var norm float64
		for j := 0; j < c; j++ {
			norm += comps.At(k, j) * comps.At(k, j)
		}
		if math.Abs(norm-1.0) > 1e-8 {
			t.Errorf("Component %d should have unit norm, got %v", k, norm)
		}
	}
}

// TestPCA_Errors tests argument validation
func TestPCA_Errors(t *testing.T) {
	pca := NewPCA(WithPCAComponents(2))

	if _, err := pca.Transform(mat.NewDense(2, 2, nil)); err == nil {
		t.Error("Expected error when transforming without fitting")
	}

	tooMany := NewPCA(WithPCAComponents(5))
	X := mat.NewDense(4, 2, []float64{1, 2, 3, 4, 5, 6, 7, 8})
	if err := tooMany.Fit(X); err == nil {
		t.Error("Expected error for n_components > n_features")
	}
}

// TestMCA_FitTransform tests row coordinates on a two-variable indicator
func TestMCA_FitTransform(t *testing.T) {
	// Two categorical variables, one-hot encoded: var A with 2 levels,
	// var B with 2 levels. Levels are perfectly associated.
	Z := mat.NewDense(6, 4, []float64{
		1, 0, 1, 0,
		1, 0, 1, 0,
		1, 0, 1, 0,
		0, 1, 0, 1,
		0, 1, 0, 1,
		0, 1, 0, 1,
	})

	mca := NewMCA(WithMCAComponents(2))
	coords, err := mca.FitTransform(Z)
	if err != nil {
		t.Fatalf("Failed to fit MCA: %v", err)
	}

	r, c := coords.Dims()
	if r != 6 || c != 2 {
		t.Fatalf("Expected coords shape (6, 2), got (%d, %d)", r, c)
	}

	// Identical rows map to identical coordinates.
	for i := 1; i < 3; i++ {
		if math.Abs(coords.At(i, 0)-coords.At(0, 0)) > 1e-9 {
			t.Errorf("Rows 0 and %d share a profile but differ: %v vs %v",
				i, coords.At(0, 0), coords.At(i, 0))
		}
	}

	// The two profiles separate on the first axis.
	if math.Abs(coords.At(0, 0)-coords.At(3, 0)) < 1e-6 {
		t.Error("Distinct profiles should separate on the first axis")
	}

	ratios := mca.InertiaRatio()
	if len(ratios) != 2 {
		t.Fatalf("Expected 2 inertia ratios, got %d", len(ratios))
	}
	// Perfect association puts all inertia on the first axis.
	if ratios[0] < 0.99 {
		t.Errorf("Expected first axis to carry the inertia, got %v", ratios[0])
	}
}

// TestMCA_Errors tests argument validation
func TestMCA_Errors(t *testing.T) {
	mca := NewMCA(WithMCAComponents(1))

	if _, err := mca.Transform(mat.NewDense(2, 4, nil)); err == nil {
		t.Error("Expected error when transforming without fitting")
	}

	neg := mat.NewDense(2, 2, []float64{1, -1, 0, 1})
	if err := mca.Fit(neg); err == nil {
		t.Error("Expected error for negative indicator entries")
	}
}
