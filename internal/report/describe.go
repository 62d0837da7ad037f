package report

import (
	"io"

	"github.com/himetrics/attrition/dataset"
	"github.com/himetrics/attrition/plots"
)

// describe writes the descriptive-statistics table and the exploratory
// figures for the cleaned data.
func describe(f *dataset.Frame, outDir string, out io.Writer) error {
	summaries, err := f.Describe(dataset.NumericColumns)
	if err != nil {
		return err
	}
	renderSummaries(out, summaries)

	attrition, err := targetLabels(f)
	if err != nil {
		return err
	}

	// Class balance.
	var stayed, left int
	for _, label := range attrition {
		if label == "Yes" {
			left++
		} else {
			stayed++
		}
	}
	err = plots.BarChart("Attrition", "employees", []string{"No", "Yes"},
		[]float64{float64(stayed), float64(left)}, plotPath(outDir, "attrition_bar.png"))
	if err != nil {
		return err
	}

	// Attrition rate per department.
	departments, err := f.Strings("Department")
	if err != nil {
		return err
	}
	byDept, err := dataset.NewCrossTab(departments, attrition)
	if err != nil {
		return err
	}
	rates := make([]float64, len(byDept.ALevels))
	for i := range byDept.ALevels {
		var total, yes int
		for j, level := range byDept.BLevels {
			total += byDept.Counts[i][j]
			if level == "Yes" {
				yes = byDept.Counts[i][j]
			}
		}
		if total > 0 {
			rates[i] = float64(yes) / float64(total)
		}
	}
	err = plots.BarChart("Attrition rate by department", "rate", byDept.ALevels, rates,
		plotPath(outDir, "attrition_by_department.png"))
	if err != nil {
		return err
	}

	// Age and income distributions by attrition.
	for _, spec := range []struct {
		column string
		file   string
	}{
		{"Age", "age_density.png"},
		{"MonthlyIncome", "income_density.png"},
	} {
		values, err := f.Floats(spec.column)
		if err != nil {
			return err
		}
		grouped := splitByLabel(values, attrition)
		err = plots.DensityByGroup(spec.column+" by attrition", spec.column,
			[]string{"No", "Yes"}, grouped, plotPath(outDir, spec.file))
		if err != nil {
			return err
		}
	}

	incomes, err := f.Floats("MonthlyIncome")
	if err != nil {
		return err
	}
	err = plots.Histogram("Monthly income", "MonthlyIncome", incomes, 30,
		plotPath(outDir, "income_hist.png"))
	if err != nil {
		return err
	}
	err = plots.BoxPlots("Monthly income by attrition", "MonthlyIncome",
		[]string{"No", "Yes"}, splitByLabel(incomes, attrition),
		plotPath(outDir, "income_box.png"))
	if err != nil {
		return err
	}

	// Numeric correlation structure.
	corr, err := f.CorrelationMatrix(dataset.NumericColumns)
	if err != nil {
		return err
	}
	return plots.CorrelationHeatmap("Correlations", dataset.NumericColumns, corr,
		plotPath(outDir, "correlation_heatmap.png"))
}

// targetLabels renders the 0/1 target back to No/Yes for grouping.
func targetLabels(f *dataset.Frame) ([]string, error) {
	y, err := f.Target()
	if err != nil {
		return nil, err
	}
	labels := make([]string, y.Len())
	for i := range labels {
		if y.AtVec(i) == 1 {
			labels[i] = "Yes"
		} else {
			labels[i] = "No"
		}
	}
	return labels, nil
}

// splitByLabel partitions values into the No and Yes groups, in that order.
func splitByLabel(values []float64, labels []string) [][]float64 {
	groups := make([][]float64, 2)
	for i, v := range values {
		if labels[i] == "Yes" {
			groups[1] = append(groups[1], v)
		} else {
			groups[0] = append(groups[0], v)
		}
	}
	return groups
}
