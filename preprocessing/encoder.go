package preprocessing

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/himetrics/attrition/core/model"
	"github.com/himetrics/attrition/pkg/errors"
)

// OneHotEncoder expands categorical string columns into 0/1 indicator
// columns. With DropFirst the first level of each column is omitted, which
// keeps the design matrix full-rank for the linear models; the MCA indicator
// matrix keeps every level.
type OneHotEncoder struct {
	model.BaseEstimator

	// DropFirst omits the first (reference) level of each column.
	DropFirst bool

	// Categories holds the sorted unique levels per input column.
	Categories [][]string

	// InputNames are the names of the encoded columns, parallel to Categories.
	InputNames []string

	// FeatureNames are the generated output column names, "name=level".
	FeatureNames []string
}

// NewOneHotEncoder creates a OneHotEncoder.
func NewOneHotEncoder(dropFirst bool) *OneHotEncoder {
	return &OneHotEncoder{DropFirst: dropFirst}
}

// Fit learns the level set of each categorical column. columns holds one
// slice of string values per column; names are the column names used for
// generated feature names.
func (e *OneHotEncoder) Fit(columns [][]string, names []string) error {
	if len(columns) == 0 {
		return errors.NewModelError("OneHotEncoder.Fit", "empty data", errors.ErrEmptyData)
	}
	if len(names) != len(columns) {
		return errors.NewDimensionError("OneHotEncoder.Fit", len(columns), len(names), 1)
	}

	n := len(columns[0])
	if n == 0 {
		return errors.NewModelError("OneHotEncoder.Fit", "empty data", errors.ErrEmptyData)
	}

	e.Categories = make([][]string, len(columns))
	e.InputNames = append([]string(nil), names...)
	e.FeatureNames = e.FeatureNames[:0]

	for j, col := range columns {
		if len(col) != n {
			return errors.NewDimensionError("OneHotEncoder.Fit", n, len(col), 0)
		}
		seen := map[string]bool{}
		for _, v := range col {
			seen[v] = true
		}
		levels := make([]string, 0, len(seen))
		for v := range seen {
			levels = append(levels, v)
		}
		sort.Strings(levels)
		e.Categories[j] = levels

		start := 0
		if e.DropFirst && len(levels) > 1 {
			start = 1
		}
		for _, level := range levels[start:] {
			e.FeatureNames = append(e.FeatureNames, fmt.Sprintf("%s=%s", names[j], level))
		}
	}

	e.SetFitted()
	return nil
}

// Transform encodes columns into the indicator matrix. Unseen levels are an
// error: the analysis encodes the full dataset in one pass, so any unseen
// level means the caller passed mismatched columns.
func (e *OneHotEncoder) Transform(columns [][]string) (*mat.Dense, error) {
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("OneHotEncoder", "Transform")
	}
	if len(columns) != len(e.Categories) {
		return nil, errors.NewDimensionError("OneHotEncoder.Transform", len(e.Categories), len(columns), 1)
	}

	n := len(columns[0])
	out := mat.NewDense(n, len(e.FeatureNames), nil)

	offset := 0
	for j, col := range columns {
		if len(col) != n {
			return nil, errors.NewDimensionError("OneHotEncoder.Transform", n, len(col), 0)
		}

		levels := e.Categories[j]
		index := make(map[string]int, len(levels))
		for k, level := range levels {
			index[level] = k
		}
		start := 0
		if e.DropFirst && len(levels) > 1 {
			start = 1
		}
		width := len(levels) - start

		for i, v := range col {
			k, ok := index[v]
			if !ok {
				return nil, errors.NewDataError("OneHotEncoder.Transform", e.InputNames[j], fmt.Sprintf("unseen level %q", v))
			}
			if k >= start {
				out.Set(i, offset+k-start, 1)
			}
		}
		offset += width
	}

	return out, nil
}

// FitTransform fits on columns and returns the indicator matrix.
func (e *OneHotEncoder) FitTransform(columns [][]string, names []string) (*mat.Dense, error) {
	if err := e.Fit(columns, names); err != nil {
		return nil, err
	}
	return e.Transform(columns)
}

// NumLevels returns the total number of levels across all fitted columns,
// ignoring DropFirst. MCA needs this for its inertia scaling.
func (e *OneHotEncoder) NumLevels() int {
	total := 0
	for _, levels := range e.Categories {
		total += len(levels)
	}
	return total
}

func (e *OneHotEncoder) String() string {
	return fmt.Sprintf("OneHotEncoder(drop_first=%t)", e.DropFirst)
}
