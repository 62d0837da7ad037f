// Package report runs the attrition analysis end to end: load, clean, split,
// describe, outlier screen, feature engineering, model comparison, and the
// unsupervised profiling of the employee population.
package report

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/himetrics/attrition/dataset"
	"github.com/himetrics/attrition/linear"
	"github.com/himetrics/attrition/metrics"
	"github.com/himetrics/attrition/pkg/errors"
	"github.com/himetrics/attrition/pkg/log"
)

// Config controls one report run.
type Config struct {
	CSVPath      string
	OutDir       string
	Seed         int64
	TestFraction float64

	// Out receives the rendered tables; defaults to stdout.
	Out io.Writer
}

// Summary collects the headline numbers of a finished run.
type Summary struct {
	Rows     int
	Cols     int
	Outliers int
	Results  []ModelResult
	Clusters int
	Noise    int
}

// Run executes the full pipeline and writes plots and tables to cfg.OutDir.
func Run(cfg Config) (*Summary, error) {
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.TestFraction == 0 {
		cfg.TestFraction = 0.2
	}
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating output directory %s", cfg.OutDir)
	}

	summary := &Summary{}

	// Load
	start := time.Now()
	logger := log.Stage("load")
	raw, err := dataset.Load(cfg.CSVPath)
	if err != nil {
		return nil, err
	}
	summary.Rows, summary.Cols = raw.NRows(), raw.NCols()
	if raw.NRows() != dataset.ExpectedRows {
		logger.Warn().
			Int(log.SamplesKey, raw.NRows()).
			Msgf("expected %d rows in the canonical table", dataset.ExpectedRows)
	}
	logger.Info().
		Int(log.SamplesKey, raw.NRows()).
		Int(log.FeaturesKey, raw.NCols()).
		Int64(log.DurationMsKey, time.Since(start).Milliseconds()).
		Msg("dataset loaded")

	// Clean
	logger = log.Stage("clean")
	clean, err := raw.Clean()
	if err != nil {
		return nil, err
	}
	logger.Info().
		Int(log.FeaturesKey, clean.NCols()).
		Msg("constants dropped, target recoded")

	// Describe
	logger = log.Stage("describe")
	if err := describe(clean, cfg.OutDir, cfg.Out); err != nil {
		return nil, err
	}
	logger.Info().Msg("descriptive statistics and figures written")

	// Outliers
	logger = log.Stage("outliers")
	outliers, fit, err := flagOutliers(clean)
	if err != nil {
		return nil, err
	}
	summary.Outliers = len(outliers)
	logger.Info().
		Int("flagged", len(outliers)).
		Float64("income_r2", fit.R2).
		Float64("income_rmse", fit.RMSE).
		Msg("influential income rows by Cook's distance")

	// Engineer
	logger = log.Stage("engineer")
	engineered, err := clean.Engineer()
	if err != nil {
		return nil, err
	}
	logger.Info().
		Int(log.FeaturesKey, engineered.NCols()).
		Msg("satisfaction score added, rate columns dropped")

	// Split
	logger = log.Stage("split")
	split, err := dataset.StratifiedSplit(engineered, cfg.TestFraction, cfg.Seed)
	if err != nil {
		return nil, err
	}
	logger.Info().
		Int("train", split.Train.NRows()).
		Int("test", split.Test.NRows()).
		Msg("stratified partition fixed")

	// Classify
	logger = log.Stage("classify")
	start = time.Now()
	results, err := evaluateModels(split, cfg.Seed)
	if err != nil {
		return nil, err
	}
	summary.Results = results
	logger.Info().
		Int("models", len(results)).
		Int64(log.DurationMsKey, time.Since(start).Milliseconds()).
		Msg("held-out evaluation finished")
	renderResults(cfg.Out, results)

	// Unsupervised
	logger = log.Stage("unsupervised")
	start = time.Now()
	unsup, err := runUnsupervised(engineered, cfg.OutDir, cfg.Seed, cfg.Out)
	if err != nil {
		return nil, err
	}
	summary.Clusters = unsup.NumClusters
	summary.Noise = unsup.NumNoise
	logger.Info().
		Int(log.ClustersKey, unsup.NumClusters).
		Int("noise", unsup.NumNoise).
		Int64(log.DurationMsKey, time.Since(start).Milliseconds()).
		Msg("population structure mapped")

	return summary, nil
}

// incomeFit reports how well the screening regression explains income.
type incomeFit struct {
	R2   float64
	RMSE float64
}

// flagOutliers fits ordinary least squares of MonthlyIncome on the other
// numeric columns and returns the rows whose Cook's distance exceeds 4/n,
// together with the fit quality of the screening model.
func flagOutliers(f *dataset.Frame) ([]int, incomeFit, error) {
	covariates := make([]string, 0, len(dataset.NumericColumns))
	for _, name := range dataset.NumericColumns {
		if name != "MonthlyIncome" {
			covariates = append(covariates, name)
		}
	}

	X, err := f.Matrix(covariates)
	if err != nil {
		return nil, incomeFit{}, err
	}
	incomes, err := f.Floats("MonthlyIncome")
	if err != nil {
		return nil, incomeFit{}, err
	}
	n := len(incomes)
	y := matFromColumn(incomes)

	ols := linear.NewLinearRegression()
	if err := ols.Fit(X, y); err != nil {
		return nil, incomeFit{}, err
	}

	fitted, err := ols.Predict(X)
	if err != nil {
		return nil, incomeFit{}, err
	}
	r2, err := metrics.R2Score(columnVec(y, 0), columnVec(fitted, 0))
	if err != nil {
		return nil, incomeFit{}, err
	}
	rmse, err := metrics.RMSE(columnVec(y, 0), columnVec(fitted, 0))
	if err != nil {
		return nil, incomeFit{}, err
	}

	distances, err := ols.CooksDistances(X, y)
	if err != nil {
		return nil, incomeFit{}, err
	}

	threshold := 4.0 / float64(n)
	var flagged []int
	for i, d := range distances {
		if d > threshold {
			flagged = append(flagged, i)
		}
	}
	return flagged, incomeFit{R2: r2, RMSE: rmse}, nil
}

func plotPath(outDir, name string) string {
	return filepath.Join(outDir, name)
}
