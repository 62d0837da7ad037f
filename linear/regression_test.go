package linear

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/himetrics/attrition/pkg/errors"
)

func TestLinearRegression_ExactFit(t *testing.T) {
	// y = 3 + 2*x1 - x2
	X := mat.NewDense(5, 2, []float64{
		1, 0,
		2, 1,
		3, 1,
		4, 2,
		5, 5,
	})
	y := mat.NewDense(5, 1, []float64{5, 6, 8, 9, 8})

	lr := NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	if math.Abs(lr.Intercept-3) > 1e-8 {
		t.Errorf("intercept = %v, want 3", lr.Intercept)
	}
	if math.Abs(lr.Weights.AtVec(0)-2) > 1e-8 {
		t.Errorf("w0 = %v, want 2", lr.Weights.AtVec(0))
	}
	if math.Abs(lr.Weights.AtVec(1)+1) > 1e-8 {
		t.Errorf("w1 = %v, want -1", lr.Weights.AtVec(1))
	}

	score, err := lr.Score(X, y)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if math.Abs(score-1) > 1e-8 {
		t.Errorf("R2 = %v, want 1", score)
	}
}

func TestLinearRegression_NotFitted(t *testing.T) {
	lr := NewLinearRegression()
	_, err := lr.Predict(mat.NewDense(1, 1, []float64{1}))
	if err == nil {
		t.Fatal("expected NotFittedError")
	}
	var nfe *errors.NotFittedError
	if !errors.As(err, &nfe) {
		t.Errorf("expected NotFittedError, got %T", err)
	}
}

func TestLinearRegression_LeverageTrace(t *testing.T) {
	X := mat.NewDense(8, 2, []float64{
		1, 2,
		2, 1,
		3, 5,
		4, 3,
		5, 8,
		6, 2,
		7, 9,
		8, 4,
	})
	y := mat.NewDense(8, 1, []float64{3, 4, 9, 8, 14, 9, 17, 13})

	lr := NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	h, err := lr.Leverages(X)
	if err != nil {
		t.Fatalf("Leverages: %v", err)
	}

	// The hat matrix trace equals the number of parameters.
	var trace float64
	for _, v := range h {
		if v < 0 || v > 1+1e-9 {
			t.Errorf("leverage out of range: %v", v)
		}
		trace += v
	}
	if math.Abs(trace-3) > 1e-6 {
		t.Errorf("sum of leverages = %v, want 3 (p = features + intercept)", trace)
	}
}

func TestLinearRegression_CooksDistanceFlagsOutlier(t *testing.T) {
	// Near-perfect line y = 2x with one grossly off response.
	n := 20
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x := float64(i + 1)
		X.Set(i, 0, x)
		y.Set(i, 0, 2*x)
	}
	y.Set(10, 0, 60) // true value would be 22

	lr := NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	d, err := lr.CooksDistances(X, y)
	if err != nil {
		t.Fatalf("CooksDistances: %v", err)
	}

	threshold := 4.0 / float64(n)
	if d[10] <= threshold {
		t.Errorf("outlier row distance = %v, want > %v", d[10], threshold)
	}
	for i, v := range d {
		if i == 10 {
			continue
		}
		if v >= d[10] {
			t.Errorf("row %d distance %v should be below the outlier's %v", i, v, d[10])
		}
	}
}
