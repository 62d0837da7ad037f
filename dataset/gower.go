package dataset

import (
	"gonum.org/v1/gonum/mat"

	"github.com/himetrics/attrition/core/parallel"
	"github.com/himetrics/attrition/pkg/errors"
)

// GowerMatrix computes the pairwise Gower dissimilarity over a mixed-type
// frame. Numeric columns contribute range-normalized absolute differences,
// categorical columns contribute simple matching (0 on equal levels, 1
// otherwise); the dissimilarity is the mean contribution across columns.
// The result is a symmetric n×n matrix with a zero diagonal, suitable as
// t-SNE input.
func GowerMatrix(f *Frame, numericCols, categoricalCols []string) (*mat.Dense, error) {
	n := f.NRows()
	if n == 0 {
		return nil, errors.NewModelError("GowerMatrix", "empty data", errors.ErrEmptyData)
	}
	nVars := len(numericCols) + len(categoricalCols)
	if nVars == 0 {
		return nil, errors.NewValueError("GowerMatrix", "no columns requested")
	}

	numeric := make([][]float64, len(numericCols))
	ranges := make([]float64, len(numericCols))
	for j, name := range numericCols {
		col, err := f.Floats(name)
		if err != nil {
			return nil, err
		}
		lo, hi := col[0], col[0]
		for _, v := range col {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		r := hi - lo
		if r == 0 {
			// Constant column: identical values contribute zero either way.
			r = 1
		}
		numeric[j] = col
		ranges[j] = r
	}

	categorical := make([][]string, len(categoricalCols))
	for j, name := range categoricalCols {
		col, err := f.Strings(name)
		if err != nil {
			return nil, err
		}
		categorical[j] = col
	}

	D := mat.NewDense(n, n, nil)
	parallel.ParallelizeWithThreshold(n, 64, func(start, end int) {
		for i := start; i < end; i++ {
			for k := i + 1; k < n; k++ {
				var sum float64
				for j, col := range numeric {
					d := col[i] - col[k]
					if d < 0 {
						d = -d
					}
					sum += d / ranges[j]
				}
				for _, col := range categorical {
					if col[i] != col[k] {
						sum++
					}
				}
				// Upper triangle only; workers own disjoint row ranges.
				D.Set(i, k, sum/float64(nVars))
			}
		}
	})

	for i := 0; i < n; i++ {
		for k := i + 1; k < n; k++ {
			D.Set(k, i, D.At(i, k))
		}
	}

	return D, nil
}
