package dataset

import (
	"github.com/go-gota/gota/series"

	"github.com/himetrics/attrition/pkg/errors"
)

// Clean prepares the raw frame for analysis: the binary target is recoded
// Yes/No to 1/0 and the constant columns are dropped. The employee number is
// kept as a row identifier.
func (f *Frame) Clean() (*Frame, error) {
	labels, err := f.Strings(TargetColumn)
	if err != nil {
		return nil, err
	}

	encoded := make([]int, len(labels))
	for i, label := range labels {
		switch label {
		case "Yes":
			encoded[i] = 1
		case "No":
			encoded[i] = 0
		default:
			return nil, errors.NewDataError("Clean", TargetColumn, "unknown level "+label)
		}
	}

	recoded, err := f.WithColumn(series.New(encoded, series.Int, TargetColumn))
	if err != nil {
		return nil, err
	}

	cleaned, err := recoded.Drop(ConstantColumns...)
	if err != nil {
		return nil, err
	}
	return cleaned, nil
}

// Engineer adds the composite satisfaction score (the mean of the four
// ordinal satisfaction/involvement columns) and drops the noisy rate columns
// plus the nearly constant performance rating.
func (f *Frame) Engineer() (*Frame, error) {
	n := f.NRows()
	score := make([]float64, n)

	for _, name := range SatisfactionColumns {
		col, err := f.Floats(name)
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			score[i] += col[i]
		}
	}
	for i := range score {
		score[i] /= float64(len(SatisfactionColumns))
	}

	withScore, err := f.WithColumn(series.New(score, series.Float, ScoreColumn))
	if err != nil {
		return nil, err
	}
	return withScore.Drop(NoisyColumns...)
}

// ModelingNumericColumns returns the numeric feature names present after
// Engineer: the schema numerics minus the dropped ones, plus the score.
func ModelingNumericColumns() []string {
	dropped := map[string]bool{}
	for _, name := range NoisyColumns {
		dropped[name] = true
	}
	out := make([]string, 0, len(NumericColumns))
	for _, name := range NumericColumns {
		if !dropped[name] {
			out = append(out, name)
		}
	}
	return append(out, ScoreColumn)
}
