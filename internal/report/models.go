package report

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/himetrics/attrition/dataset"
	"github.com/himetrics/attrition/ensemble"
	"github.com/himetrics/attrition/linear"
	"github.com/himetrics/attrition/metrics"
	"github.com/himetrics/attrition/pkg/errors"
	"github.com/himetrics/attrition/preprocessing"
	"github.com/himetrics/attrition/svm"
	"github.com/himetrics/attrition/tree"
)

// ModelResult is one row of the comparison table. LogLoss is NaN for models
// without probability output.
type ModelResult struct {
	Name      string
	Accuracy  float64
	AUC       float64
	LogLoss   float64
	Confusion *metrics.ConfusionMatrix
}

// featureBuilder turns a frame into the modeling design matrix:
// standardized numerics plus drop-first one-hot categoricals. Fitted on the
// train partition only.
type featureBuilder struct {
	numericNames []string
	scaler       *preprocessing.StandardScaler
	encoder      *preprocessing.OneHotEncoder
}

func newFeatureBuilder() *featureBuilder {
	return &featureBuilder{
		numericNames: dataset.ModelingNumericColumns(),
		scaler:       preprocessing.NewStandardScalerDefault(),
		encoder:      preprocessing.NewOneHotEncoder(true),
	}
}

func (b *featureBuilder) Fit(f *dataset.Frame) error {
	XNum, err := f.Matrix(b.numericNames)
	if err != nil {
		return err
	}
	if err := b.scaler.Fit(XNum); err != nil {
		return err
	}

	cols, err := f.StringColumns(dataset.CategoricalColumns)
	if err != nil {
		return err
	}
	return b.encoder.Fit(cols, dataset.CategoricalColumns)
}

func (b *featureBuilder) Transform(f *dataset.Frame) (*mat.Dense, error) {
	XNum, err := f.Matrix(b.numericNames)
	if err != nil {
		return nil, err
	}
	scaled, err := b.scaler.Transform(XNum)
	if err != nil {
		return nil, err
	}

	cols, err := f.StringColumns(dataset.CategoricalColumns)
	if err != nil {
		return nil, err
	}
	indicator, err := b.encoder.Transform(cols)
	if err != nil {
		return nil, err
	}

	n, nNum := scaled.Dims()
	_, nCat := indicator.Dims()
	out := mat.NewDense(n, nNum+nCat, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < nNum; j++ {
			out.Set(i, j, scaled.At(i, j))
		}
		for j := 0; j < nCat; j++ {
			out.Set(i, nNum+j, indicator.At(i, j))
		}
	}
	return out, nil
}

func (b *featureBuilder) FeatureNames() []string {
	names := append([]string(nil), b.numericNames...)
	return append(names, b.encoder.FeatureNames...)
}

// scorer produces a ranking score per sample for AUC. Probability models
// use the positive-class column; the SVM uses raw decision values.
type scorer interface {
	Fit(X, y mat.Matrix) error
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// evaluateModels fits the five classifiers on the train partition and
// evaluates accuracy and AUC on the held-out partition.
func evaluateModels(split *dataset.Split, seed int64) ([]ModelResult, error) {
	builder := newFeatureBuilder()
	if err := builder.Fit(split.Train); err != nil {
		return nil, err
	}
	XTrain, err := builder.Transform(split.Train)
	if err != nil {
		return nil, err
	}
	XTest, err := builder.Transform(split.Test)
	if err != nil {
		return nil, err
	}
	yTrain, err := split.Train.Target()
	if err != nil {
		return nil, err
	}
	yTest, err := split.Test.Target()
	if err != nil {
		return nil, err
	}

	lasso := linear.NewLogisticRegression(
		linear.WithLRPenalty("l1"),
		linear.WithLRC(0.5),
		linear.WithLRMaxIter(500),
		linear.WithLRRandomState(seed),
	)
	ridge := linear.NewLogisticRegression(
		linear.WithLRPenalty("l2"),
		linear.WithLRMaxIter(500),
		linear.WithLRRandomState(seed),
	)
	cart := tree.NewDecisionTreeClassifier(
		tree.WithCriterion("gini"),
		tree.WithMaxDepth(8),
		tree.WithMinSamplesLeaf(5),
	)
	forest := ensemble.NewRandomForestClassifier(
		ensemble.WithNEstimators(200),
		ensemble.WithForestMinSamplesLeaf(2),
		ensemble.WithForestRandomState(seed),
	)
	machine := svm.NewLinearSVC(
		svm.WithSVCC(1.0),
		svm.WithSVCMaxIter(100),
		svm.WithSVCRandomState(seed),
	)

	results := make([]ModelResult, 0, 5)

	type probaModel interface {
		scorer
		PredictProba(X mat.Matrix) (mat.Matrix, error)
		Classes() []int
	}

	evalProba := func(name string, m probaModel) error {
		if err := m.Fit(XTrain, yTrain); err != nil {
			return errors.Wrapf(err, "fitting %s", name)
		}
		pred, err := m.Predict(XTest)
		if err != nil {
			return err
		}
		acc, err := metrics.AccuracyMatrix(yTest, pred)
		if err != nil {
			return err
		}
		probas, err := m.PredictProba(XTest)
		if err != nil {
			return err
		}
		scores := positiveScores(probas, m.Classes())
		auc, err := metrics.AUC(yTest, scores)
		if err != nil {
			return err
		}
		logLoss, err := metrics.BinaryLogLoss(yTest, scores)
		if err != nil {
			return err
		}
		cm, err := metrics.NewConfusionMatrix(yTest, columnVec(pred, 0))
		if err != nil {
			return err
		}
		results = append(results, ModelResult{
			Name:      name,
			Accuracy:  acc,
			AUC:       auc,
			LogLoss:   logLoss,
			Confusion: cm,
		})
		return nil
	}

	if err := evalProba("logistic regression", ridge); err != nil {
		return nil, err
	}
	if err := evalProba("lasso logistic", lasso); err != nil {
		return nil, err
	}
	if err := evalProba("decision tree", cart); err != nil {
		return nil, err
	}
	if err := evalProba("random forest", forest); err != nil {
		return nil, err
	}

	// The SVM ranks by decision value instead of probability.
	if err := machine.Fit(XTrain, yTrain); err != nil {
		return nil, errors.Wrap(err, "fitting linear svm")
	}
	pred, err := machine.Predict(XTest)
	if err != nil {
		return nil, err
	}
	acc, err := metrics.AccuracyMatrix(yTest, pred)
	if err != nil {
		return nil, err
	}
	decisions, err := machine.DecisionFunction(XTest)
	if err != nil {
		return nil, err
	}
	auc, err := metrics.AUC(yTest, columnVec(decisions, 0))
	if err != nil {
		return nil, err
	}
	cm, err := metrics.NewConfusionMatrix(yTest, columnVec(pred, 0))
	if err != nil {
		return nil, err
	}
	results = append(results, ModelResult{
		Name:      "linear svm",
		Accuracy:  acc,
		AUC:       auc,
		LogLoss:   math.NaN(),
		Confusion: cm,
	})

	return results, nil
}

// positiveScores extracts the probability column of class 1.
func positiveScores(probas mat.Matrix, classes []int) *mat.VecDense {
	col := len(classes) - 1
	for j, class := range classes {
		if class == 1 {
			col = j
		}
	}
	return columnVec(probas, col)
}

func columnVec(m mat.Matrix, col int) *mat.VecDense {
	r, _ := m.Dims()
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, col))
	}
	return v
}

func matFromColumn(values []float64) *mat.Dense {
	out := mat.NewDense(len(values), 1, nil)
	for i, v := range values {
		out.Set(i, 0, v)
	}
	return out
}
