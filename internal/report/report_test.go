package report

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himetrics/attrition/dataset"
)

// writeReportCSV generates rows following the raw 35-column schema. Columns
// carry independent pseudo-random variation so the income regression stays
// full rank.
func writeReportCSV(t *testing.T, n int) string {
	t.Helper()

	cycle := func(values ...string) func(i int) string {
		return func(i int) string { return values[i%len(values)] }
	}
	num := func(f func(i int) int) func(i int) string {
		return func(i int) string { return fmt.Sprintf("%d", f(i)) }
	}

	gen := map[string]func(i int) string{
		"Age": num(func(i int) int { return 25 + (i*13)%20 }),
		"Attrition": func(i int) string {
			if i%5 == 0 {
				return "Yes"
			}
			return "No"
		},
		"BusinessTravel":          cycle("Travel_Rarely", "Travel_Frequently", "Non-Travel"),
		"DailyRate":               num(func(i int) int { return 100 + (i*37)%900 }),
		"Department":              cycle("Sales", "Research & Development", "Human Resources"),
		"DistanceFromHome":        num(func(i int) int { return 1 + (i*7)%29 }),
		"Education":               num(func(i int) int { return 1 + (i*3)%5 }),
		"EducationField":          cycle("Life Sciences", "Medical", "Marketing", "Technical Degree"),
		"EmployeeCount":           func(i int) string { return "1" },
		"EmployeeNumber":          num(func(i int) int { return i + 1 }),
		"EnvironmentSatisfaction": num(func(i int) int { return 1 + (i*11)%4 }),
		"Gender":                  cycle("Male", "Female"),
		"HourlyRate":              num(func(i int) int { return 30 + (i*17)%70 }),
		"JobInvolvement":          num(func(i int) int { return 1 + (i*5+1)%4 }),
		"JobLevel":                num(func(i int) int { return 1 + (i*7)%5 }),
		"JobRole":                 cycle("Sales Executive", "Research Scientist", "Laboratory Technician", "Manager"),
		"JobSatisfaction":         num(func(i int) int { return 1 + (i*13+2)%4 }),
		"MaritalStatus":           cycle("Single", "Married", "Divorced"),
		"MonthlyIncome":           num(func(i int) int { return 2000 + (i*137)%9000 + (i*i)%431 }),
		"MonthlyRate":             num(func(i int) int { return 5000 + (i*53)%7000 }),
		"NumCompaniesWorked":      num(func(i int) int { return (i * 3) % 9 }),
		"Over18":                  func(i int) string { return "Y" },
		"OverTime":                cycle("No", "Yes"),
		"PercentSalaryHike":       num(func(i int) int { return 11 + (i*19)%14 }),
		"PerformanceRating": num(func(i int) int {
			if i%7 == 0 {
				return 4
			}
			return 3
		}),
		"RelationshipSatisfaction": num(func(i int) int { return 1 + (i*17+3)%4 }),
		"StandardHours":            func(i int) string { return "80" },
		"StockOptionLevel":         num(func(i int) int { return (i * 29) % 4 }),
		"TotalWorkingYears":        num(func(i int) int { return (i * 23) % 40 }),
		"TrainingTimesLastYear":    num(func(i int) int { return (i * 31) % 6 }),
		"WorkLifeBalance":          num(func(i int) int { return 1 + (i*41)%4 }),
		"YearsAtCompany":           num(func(i int) int { return (i * 43) % 20 }),
		"YearsInCurrentRole":       num(func(i int) int { return (i * 47) % 15 }),
		"YearsSinceLastPromotion":  num(func(i int) int { return (i * 51) % 10 }),
		"YearsWithCurrManager":     num(func(i int) int { return (i * 57) % 17 }),
	}

	var sb strings.Builder
	sb.WriteString(strings.Join(dataset.RawColumns, ","))
	sb.WriteByte('\n')
	for i := 0; i < n; i++ {
		row := make([]string, len(dataset.RawColumns))
		for j, name := range dataset.RawColumns {
			v := gen[name](i)
			if strings.Contains(v, ",") {
				v = `"` + v + `"`
			}
			row[j] = v
		}
		sb.WriteString(strings.Join(row, ","))
		sb.WriteByte('\n')
	}

	path := filepath.Join(t.TempDir(), "hr.csv")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o600))
	return path
}

func TestRunFullPipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("full pipeline run")
	}

	const n = 120
	outDir := t.TempDir()
	var buf bytes.Buffer

	summary, err := Run(Config{
		CSVPath:      writeReportCSV(t, n),
		OutDir:       outDir,
		Seed:         42,
		TestFraction: 0.2,
		Out:          &buf,
	})
	require.NoError(t, err)

	assert.Equal(t, n, summary.Rows)
	assert.Equal(t, 35, summary.Cols)

	require.Len(t, summary.Results, 5)
	names := make(map[string]bool)
	for _, res := range summary.Results {
		names[res.Name] = true
		assert.GreaterOrEqual(t, res.Accuracy, 0.0, res.Name)
		assert.LessOrEqual(t, res.Accuracy, 1.0, res.Name)
		assert.GreaterOrEqual(t, res.AUC, 0.0, res.Name)
		assert.LessOrEqual(t, res.AUC, 1.0, res.Name)
	}
	assert.Len(t, names, 5, "one results row per model")

	assert.GreaterOrEqual(t, summary.Clusters, 0)
	assert.GreaterOrEqual(t, summary.Noise, 0)
	assert.LessOrEqual(t, summary.Noise, n)

	for _, file := range []string{
		"attrition_bar.png",
		"attrition_by_department.png",
		"age_density.png",
		"income_density.png",
		"income_hist.png",
		"income_box.png",
		"correlation_heatmap.png",
		"embedding_clusters.png",
		"embedding_attrition.png",
		"cluster_attrition.png",
		"cluster_income.png",
	} {
		info, err := os.Stat(filepath.Join(outDir, file))
		require.NoError(t, err, file)
		assert.Positive(t, info.Size(), file)
	}

	rendered := buf.String()
	assert.Contains(t, rendered, "Held-out model comparison")
	assert.Contains(t, rendered, "Held-out confusion")
	assert.Contains(t, rendered, "Cluster vs attrition")
	assert.Contains(t, rendered, "Cluster means")
}

func TestFlagOutliers(t *testing.T) {
	f, err := dataset.Load(writeReportCSV(t, 80))
	require.NoError(t, err)
	clean, err := f.Clean()
	require.NoError(t, err)

	flagged, fit, err := flagOutliers(clean)
	require.NoError(t, err)

	// The threshold is 4/n, so only a small share of rows can exceed it.
	assert.Less(t, len(flagged), 80/4)
	for _, idx := range flagged {
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, 80)
	}

	assert.LessOrEqual(t, fit.R2, 1.0)
	assert.Positive(t, fit.RMSE)
}

func TestEvaluateModelsResultsShape(t *testing.T) {
	f, err := dataset.Load(writeReportCSV(t, 100))
	require.NoError(t, err)
	clean, err := f.Clean()
	require.NoError(t, err)
	engineered, err := clean.Engineer()
	require.NoError(t, err)

	split, err := dataset.StratifiedSplit(engineered, 0.2, 7)
	require.NoError(t, err)

	results, err := evaluateModels(split, 7)
	require.NoError(t, err)
	require.Len(t, results, 5)

	wantNames := []string{
		"logistic regression",
		"lasso logistic",
		"decision tree",
		"random forest",
		"linear svm",
	}
	for i, res := range results {
		assert.Equal(t, wantNames[i], res.Name)
		require.NotNil(t, res.Confusion, res.Name)
		if res.Name == "linear svm" {
			assert.True(t, math.IsNaN(res.LogLoss), res.Name)
		} else {
			assert.Positive(t, res.LogLoss, res.Name)
		}
	}
}
