package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// synthetic rows following the raw 35-column schema, with a 20% attrition
// rate so stratification has both classes to work with.
func writeTestCSV(t *testing.T, n int) string {
	t.Helper()

	cycle := func(values ...string) func(i int) string {
		return func(i int) string { return values[i%len(values)] }
	}
	num := func(f func(i int) int) func(i int) string {
		return func(i int) string { return fmt.Sprintf("%d", f(i)) }
	}

	gen := map[string]func(i int) string{
		"Age": num(func(i int) int { return 25 + i%20 }),
		"Attrition": func(i int) string {
			if i%5 == 0 {
				return "Yes"
			}
			return "No"
		},
		"BusinessTravel":          cycle("Travel_Rarely", "Travel_Frequently", "Non-Travel"),
		"DailyRate":               num(func(i int) int { return 100 + 7*i }),
		"Department":              cycle("Sales", "Research & Development", "Human Resources"),
		"DistanceFromHome":        num(func(i int) int { return 1 + i%29 }),
		"Education":               num(func(i int) int { return 1 + i%5 }),
		"EducationField":          cycle("Life Sciences", "Medical", "Marketing", "Technical Degree"),
		"EmployeeCount":           func(i int) string { return "1" },
		"EmployeeNumber":          num(func(i int) int { return i + 1 }),
		"EnvironmentSatisfaction": num(func(i int) int { return 1 + i%4 }),
		"Gender":                  cycle("Male", "Female"),
		"HourlyRate":              num(func(i int) int { return 30 + i%70 }),
		"JobInvolvement":          num(func(i int) int { return 1 + (i+1)%4 }),
		"JobLevel":                num(func(i int) int { return 1 + i%5 }),
		"JobRole":                 cycle("Sales Executive", "Research Scientist", "Laboratory Technician", "Manager"),
		"JobSatisfaction":         num(func(i int) int { return 1 + (i+2)%4 }),
		"MaritalStatus":           cycle("Single", "Married", "Divorced"),
		"MonthlyIncome":           num(func(i int) int { return 2000 + 137*i }),
		"MonthlyRate":             num(func(i int) int { return 5000 + 11*i }),
		"NumCompaniesWorked":      num(func(i int) int { return i % 9 }),
		"Over18":                  func(i int) string { return "Y" },
		"OverTime":                cycle("No", "Yes"),
		"PercentSalaryHike":       num(func(i int) int { return 11 + i%14 }),
		"PerformanceRating": num(func(i int) int {
			if i%7 == 0 {
				return 4
			}
			return 3
		}),
		"RelationshipSatisfaction": num(func(i int) int { return 1 + (i+3)%4 }),
		"StandardHours":            func(i int) string { return "80" },
		"StockOptionLevel":         num(func(i int) int { return i % 4 }),
		"TotalWorkingYears":        num(func(i int) int { return i % 40 }),
		"TrainingTimesLastYear":    num(func(i int) int { return i % 6 }),
		"WorkLifeBalance":          num(func(i int) int { return 1 + (i+1)%4 }),
		"YearsAtCompany":           num(func(i int) int { return i % 20 }),
		"YearsInCurrentRole":       num(func(i int) int { return i % 15 }),
		"YearsSinceLastPromotion":  num(func(i int) int { return i % 10 }),
		"YearsWithCurrManager":     num(func(i int) int { return i % 17 }),
	}

	var sb strings.Builder
	sb.WriteString(strings.Join(RawColumns, ","))
	sb.WriteByte('\n')
	for i := 0; i < n; i++ {
		row := make([]string, len(RawColumns))
		for j, name := range RawColumns {
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

func loadTestFrame(t *testing.T, n int) *Frame {
	t.Helper()
	f, err := Load(writeTestCSV(t, n))
	require.NoError(t, err)
	return f
}

func TestLoadSchema(t *testing.T) {
	f := loadTestFrame(t, 40)

	assert.Equal(t, 40, f.NRows())
	assert.Equal(t, len(RawColumns), f.NCols())
	assert.Equal(t, RawColumns, f.Names())
}

func TestLoadRejectsWrongSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestCleanDropsConstantsAndRecodesTarget(t *testing.T) {
	f := loadTestFrame(t, 40)

	cleaned, err := f.Clean()
	require.NoError(t, err)

	assert.Equal(t, f.NCols()-3, cleaned.NCols(), "exactly the three constant columns drop")
	for _, name := range ConstantColumns {
		assert.False(t, cleaned.HasColumn(name), name)
	}

	y, err := cleaned.Target()
	require.NoError(t, err)
	positives := 0.0
	for i := 0; i < y.Len(); i++ {
		v := y.AtVec(i)
		require.Contains(t, []float64{0, 1}, v)
		positives += v
	}
	assert.InDelta(t, 0.2, positives/float64(y.Len()), 1e-9)
}

func TestEngineerScoreAndDrops(t *testing.T) {
	f := loadTestFrame(t, 40)
	cleaned, err := f.Clean()
	require.NoError(t, err)

	engineered, err := cleaned.Engineer()
	require.NoError(t, err)

	require.True(t, engineered.HasColumn(ScoreColumn))
	for _, name := range NoisyColumns {
		assert.False(t, engineered.HasColumn(name), name)
	}

	score, err := engineered.Floats(ScoreColumn)
	require.NoError(t, err)
	for i, v := range score {
		assert.GreaterOrEqual(t, v, 1.0, "row %d", i)
		assert.LessOrEqual(t, v, 4.0, "row %d", i)
	}

	// Row 0: Env=1, Involvement=2, Satisfaction=3, Relationship=4.
	assert.InDelta(t, 2.5, score[0], 1e-9)
}

func TestStratifiedSplit(t *testing.T) {
	f := loadTestFrame(t, 100)
	cleaned, err := f.Clean()
	require.NoError(t, err)

	split, err := StratifiedSplit(cleaned, 0.2, 7)
	require.NoError(t, err)

	assert.Equal(t, cleaned.NRows(), split.Train.NRows()+split.Test.NRows())

	// Partitions are disjoint.
	seen := map[int]bool{}
	for _, i := range split.TrainIdx {
		seen[i] = true
	}
	for _, i := range split.TestIdx {
		assert.False(t, seen[i], "row %d in both partitions", i)
	}

	rate := func(fr *Frame) float64 {
		y, err := fr.Target()
		require.NoError(t, err)
		total := 0.0
		for i := 0; i < y.Len(); i++ {
			total += y.AtVec(i)
		}
		return total / float64(y.Len())
	}
	global := rate(cleaned)
	assert.InDelta(t, global, rate(split.Train), 0.03, "train attrition rate")
	assert.InDelta(t, global, rate(split.Test), 0.03, "test attrition rate")
}

func TestStratifiedSplitDeterministic(t *testing.T) {
	f := loadTestFrame(t, 60)
	cleaned, err := f.Clean()
	require.NoError(t, err)

	a, err := StratifiedSplit(cleaned, 0.2, 42)
	require.NoError(t, err)
	b, err := StratifiedSplit(cleaned, 0.2, 42)
	require.NoError(t, err)

	assert.Equal(t, a.TestIdx, b.TestIdx)
}

func TestGowerMatrix(t *testing.T) {
	f := loadTestFrame(t, 30)
	cleaned, err := f.Clean()
	require.NoError(t, err)

	D, err := GowerMatrix(cleaned, []string{"Age", "MonthlyIncome"}, []string{"Department", "OverTime"})
	require.NoError(t, err)

	n, m := D.Dims()
	require.Equal(t, 30, n)
	require.Equal(t, 30, m)

	for i := 0; i < n; i++ {
		assert.Zero(t, D.At(i, i))
		for j := i + 1; j < n; j++ {
			d := D.At(i, j)
			assert.Equal(t, d, D.At(j, i), "symmetry at (%d,%d)", i, j)
			assert.GreaterOrEqual(t, d, 0.0)
			assert.LessOrEqual(t, d, 1.0)
		}
	}
}

func TestDescribe(t *testing.T) {
	f := loadTestFrame(t, 50)
	summaries, err := f.Describe([]string{"Age", "MonthlyIncome"})
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	for _, s := range summaries {
		assert.LessOrEqual(t, s.Min, s.Q1, s.Name)
		assert.LessOrEqual(t, s.Q1, s.Median, s.Name)
		assert.LessOrEqual(t, s.Median, s.Q3, s.Name)
		assert.LessOrEqual(t, s.Q3, s.Max, s.Name)
		assert.GreaterOrEqual(t, s.Std, 0.0, s.Name)
	}
}

func TestCorrelationMatrix(t *testing.T) {
	f := loadTestFrame(t, 50)
	corr, err := f.CorrelationMatrix([]string{"Age", "MonthlyIncome", "YearsAtCompany"})
	require.NoError(t, err)

	n := corr.SymmetricDim()
	require.Equal(t, 3, n)
	for i := 0; i < n; i++ {
		assert.InDelta(t, 1.0, corr.At(i, i), 1e-9)
		for j := 0; j < n; j++ {
			assert.LessOrEqual(t, corr.At(i, j), 1.0+1e-9)
			assert.GreaterOrEqual(t, corr.At(i, j), -1.0-1e-9)
		}
	}
}

func TestCrossTab(t *testing.T) {
	a := []string{"x", "x", "y", "y", "y"}
	b := []string{"p", "q", "p", "p", "q"}

	ct, err := NewCrossTab(a, b)
	require.NoError(t, err)

	assert.Equal(t, []string{"x", "y"}, ct.ALevels)
	assert.Equal(t, []string{"p", "q"}, ct.BLevels)
	assert.Equal(t, 5, ct.Total())
	assert.Equal(t, 1, ct.Counts[0][0])
	assert.Equal(t, 2, ct.Counts[1][0])
}
