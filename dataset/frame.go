package dataset

import (
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/mat"

	"github.com/himetrics/attrition/pkg/errors"
)

// Frame wraps a gota DataFrame with the typed accessors the pipeline uses.
// Frames are immutable: every transform returns a new Frame.
type Frame struct {
	df dataframe.DataFrame
}

// Load reads the attrition CSV, checks it against the expected schema and
// rejects files with missing values. The analysis assumes a clean fixed-schema
// input, so any deviation is a hard error.
func Load(path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	df := dataframe.ReadCSV(f)
	if df.Error() != nil {
		return nil, errors.Wrap(df.Error(), "read csv")
	}

	fr := &Frame{df: df}
	if err := fr.validateSchema(); err != nil {
		return nil, err
	}
	return fr, nil
}

// FromDataFrame wraps an existing DataFrame without schema checks. Used by
// transforms and tests.
func FromDataFrame(df dataframe.DataFrame) (*Frame, error) {
	if df.Error() != nil {
		return nil, errors.Wrap(df.Error(), "dataframe")
	}
	return &Frame{df: df}, nil
}

func (f *Frame) validateSchema() error {
	names := f.df.Names()
	if len(names) != len(RawColumns) {
		return errors.NewDataError("Load", "", errors.Newf("expected %d columns, got %d", len(RawColumns), len(names)).Error())
	}
	for i, want := range RawColumns {
		if names[i] != want {
			return errors.NewDataError("Load", names[i], "unexpected column (want "+want+")")
		}
	}
	for _, name := range names {
		if f.df.Col(name).HasNaN() {
			return errors.NewDataError("Load", name, "missing values are not supported")
		}
	}
	return nil
}

// NRows returns the number of rows.
func (f *Frame) NRows() int { return f.df.Nrow() }

// NCols returns the number of columns.
func (f *Frame) NCols() int { return f.df.Ncol() }

// Names returns the column names in order.
func (f *Frame) Names() []string { return f.df.Names() }

// HasColumn reports whether the frame contains the named column.
func (f *Frame) HasColumn(name string) bool {
	for _, n := range f.df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// Floats returns the named column as float64 values.
func (f *Frame) Floats(name string) ([]float64, error) {
	if !f.HasColumn(name) {
		return nil, errors.NewDataError("Floats", name, "no such column")
	}
	return f.df.Col(name).Float(), nil
}

// Strings returns the named column as string values.
func (f *Frame) Strings(name string) ([]string, error) {
	if !f.HasColumn(name) {
		return nil, errors.NewDataError("Strings", name, "no such column")
	}
	return f.df.Col(name).Records(), nil
}

// StringColumns returns several categorical columns at once, in the order
// requested, as the column slices the OneHotEncoder consumes.
func (f *Frame) StringColumns(names []string) ([][]string, error) {
	out := make([][]string, len(names))
	for i, name := range names {
		col, err := f.Strings(name)
		if err != nil {
			return nil, err
		}
		out[i] = col
	}
	return out, nil
}

// Matrix assembles the named numeric columns into a dense design matrix,
// one column per name.
func (f *Frame) Matrix(names []string) (*mat.Dense, error) {
	if len(names) == 0 {
		return nil, errors.NewValueError("Matrix", "no columns requested")
	}
	n := f.NRows()
	out := mat.NewDense(n, len(names), nil)
	for j, name := range names {
		col, err := f.Floats(name)
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			out.Set(i, j, col[i])
		}
	}
	return out, nil
}

// Target returns the attrition label column as a 0/1 vector. Clean must have
// recoded it first.
func (f *Frame) Target() (*mat.VecDense, error) {
	col, err := f.Floats(TargetColumn)
	if err != nil {
		return nil, err
	}
	v := mat.NewVecDense(len(col), nil)
	for i, val := range col {
		if val != 0 && val != 1 {
			return nil, errors.NewDataError("Target", TargetColumn, "label not recoded to 0/1; call Clean first")
		}
		v.SetVec(i, val)
	}
	return v, nil
}

// Subset returns a new frame with the given row indices, in order.
func (f *Frame) Subset(idx []int) (*Frame, error) {
	sub := f.df.Subset(idx)
	if sub.Error() != nil {
		return nil, errors.Wrap(sub.Error(), "subset")
	}
	return &Frame{df: sub}, nil
}

// Drop returns a new frame without the named columns.
func (f *Frame) Drop(names ...string) (*Frame, error) {
	for _, name := range names {
		if !f.HasColumn(name) {
			return nil, errors.NewDataError("Drop", name, "no such column")
		}
	}
	dropped := f.df.Drop(names)
	if dropped.Error() != nil {
		return nil, errors.Wrap(dropped.Error(), "drop")
	}
	return &Frame{df: dropped}, nil
}

// WithColumn returns a new frame with s added, or replacing a column of the
// same name.
func (f *Frame) WithColumn(s series.Series) (*Frame, error) {
	mutated := f.df.Mutate(s)
	if mutated.Error() != nil {
		return nil, errors.Wrap(mutated.Error(), "mutate")
	}
	return &Frame{df: mutated}, nil
}

// DataFrame exposes the underlying gota frame for rendering.
func (f *Frame) DataFrame() dataframe.DataFrame { return f.df }
