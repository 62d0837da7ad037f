package plots

import (
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func assertPNG(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Expected plot file at %s: %v", path, err)
	}
	if info.Size() == 0 {
		t.Fatalf("Plot file %s is empty", path)
	}
}

func TestBarChart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bar.png")
	err := BarChart("attrition by dept", "rate", []string{"Sales", "R&D", "HR"}, []float64{0.2, 0.14, 0.19}, path)
	if err != nil {
		t.Fatalf("Failed to render bar chart: %v", err)
	}
	assertPNG(t, path)

	if err := BarChart("bad", "y", []string{"a"}, []float64{1, 2}, path); err == nil {
		t.Error("Expected error for mismatched labels and values")
	}
}

func TestHistogram(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hist.png")
	values := []float64{1, 2, 2, 3, 3, 3, 4, 4, 5, 6, 7, 9}
	if err := Histogram("income", "income", values, 5, path); err != nil {
		t.Fatalf("Failed to render histogram: %v", err)
	}
	assertPNG(t, path)
}

func TestBoxPlots(t *testing.T) {
	path := filepath.Join(t.TempDir(), "box.png")
	err := BoxPlots("income by attrition", "income", []string{"stayed", "left"},
		[][]float64{{2, 3, 4, 5, 6, 10}, {1, 2, 2, 3, 4}}, path)
	if err != nil {
		t.Fatalf("Failed to render box plots: %v", err)
	}
	assertPNG(t, path)
}

func TestCorrelationHeatmap(t *testing.T) {
	corr := mat.NewSymDense(3, []float64{
		1, 0.5, -0.2,
		0.5, 1, 0.1,
		-0.2, 0.1, 1,
	})
	path := filepath.Join(t.TempDir(), "corr.png")
	if err := CorrelationHeatmap("correlations", []string{"Age", "Income", "Years"}, corr, path); err != nil {
		t.Fatalf("Failed to render heatmap: %v", err)
	}
	assertPNG(t, path)

	if err := CorrelationHeatmap("bad", []string{"Age"}, corr, path); err == nil {
		t.Error("Expected error for mismatched names")
	}
}

func TestClusterScatter(t *testing.T) {
	embedding := mat.NewDense(6, 2, []float64{
		0, 0,
		0.1, 0.1,
		5, 5,
		5.1, 5.1,
		10, 0,
		-3, 7,
	})
	labels := []int{0, 0, 1, 1, -1, -1}

	path := filepath.Join(t.TempDir(), "scatter.png")
	if err := ClusterScatter("embedding", embedding, labels, nil, path); err != nil {
		t.Fatalf("Failed to render scatter: %v", err)
	}
	assertPNG(t, path)

	named := filepath.Join(t.TempDir(), "named.png")
	if err := ClusterScatter("embedding", embedding, labels, []string{"low", "high"}, named); err != nil {
		t.Fatalf("Failed to render named scatter: %v", err)
	}
	assertPNG(t, named)
}

func TestBalloonPlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balloon.png")
	counts := [][]int{
		{30, 5},
		{12, 20},
	}
	err := BalloonPlot("cluster vs attrition", []string{"cluster 0", "cluster 1"},
		[]string{"No", "Yes"}, counts, path)
	if err != nil {
		t.Fatalf("Failed to render balloon plot: %v", err)
	}
	assertPNG(t, path)
}

func TestDensityByGroup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "density.png")
	err := DensityByGroup("age by attrition", "age", []string{"stayed", "left"},
		[][]float64{{30, 32, 35, 40, 45, 50}, {25, 27, 28, 30, 33}}, path)
	if err != nil {
		t.Fatalf("Failed to render densities: %v", err)
	}
	assertPNG(t, path)
}
