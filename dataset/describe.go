package dataset

import (
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/himetrics/attrition/pkg/errors"
)

// ColumnSummary holds the descriptive statistics of one numeric column.
type ColumnSummary struct {
	Name   string
	Mean   float64
	Std    float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// Describe computes summary statistics for the named numeric columns.
func (f *Frame) Describe(names []string) ([]ColumnSummary, error) {
	out := make([]ColumnSummary, 0, len(names))
	for _, name := range names {
		col, err := f.Floats(name)
		if err != nil {
			return nil, err
		}
		if len(col) == 0 {
			return nil, errors.NewModelError("Describe", "empty data", errors.ErrEmptyData)
		}

		sorted := append([]float64(nil), col...)
		sort.Float64s(sorted)

		out = append(out, ColumnSummary{
			Name:   name,
			Mean:   stat.Mean(col, nil),
			Std:    stat.StdDev(col, nil),
			Min:    sorted[0],
			Q1:     stat.Quantile(0.25, stat.Empirical, sorted, nil),
			Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
			Q3:     stat.Quantile(0.75, stat.Empirical, sorted, nil),
			Max:    sorted[len(sorted)-1],
		})
	}
	return out, nil
}

// CorrelationMatrix computes the Pearson correlation matrix of the named
// numeric columns.
func (f *Frame) CorrelationMatrix(names []string) (*mat.SymDense, error) {
	X, err := f.Matrix(names)
	if err != nil {
		return nil, err
	}
	corr := mat.NewSymDense(len(names), nil)
	stat.CorrelationMatrix(corr, X, nil)
	return corr, nil
}

// CrossTab tabulates two categorical columns against each other. Levels are
// sorted; Counts[i][j] is the number of rows with ALevels[i] and BLevels[j].
type CrossTab struct {
	ALevels []string
	BLevels []string
	Counts  [][]int
}

// NewCrossTab builds the contingency table of two string slices.
func NewCrossTab(a, b []string) (*CrossTab, error) {
	if len(a) == 0 {
		return nil, errors.NewValueError("NewCrossTab", "empty input")
	}
	if len(a) != len(b) {
		return nil, errors.NewDimensionError("NewCrossTab", len(a), len(b), 0)
	}

	aLevels := uniqueSorted(a)
	bLevels := uniqueSorted(b)
	aIndex := indexOf(aLevels)
	bIndex := indexOf(bLevels)

	counts := make([][]int, len(aLevels))
	for i := range counts {
		counts[i] = make([]int, len(bLevels))
	}
	for i := range a {
		counts[aIndex[a[i]]][bIndex[b[i]]]++
	}

	return &CrossTab{ALevels: aLevels, BLevels: bLevels, Counts: counts}, nil
}

// Total returns the number of tabulated rows.
func (c *CrossTab) Total() int {
	total := 0
	for i := range c.Counts {
		for j := range c.Counts[i] {
			total += c.Counts[i][j]
		}
	}
	return total
}

func uniqueSorted(values []string) []string {
	seen := map[string]bool{}
	for _, v := range values {
		seen[v] = true
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func indexOf(levels []string) map[string]int {
	index := make(map[string]int, len(levels))
	for i, level := range levels {
		index[level] = i
	}
	return index
}
