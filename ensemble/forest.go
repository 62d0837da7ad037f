// Package ensemble implements bagged ensembles of decision trees.
package ensemble

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/himetrics/attrition/core/model"
	"github.com/himetrics/attrition/core/parallel"
	"github.com/himetrics/attrition/pkg/errors"
	"github.com/himetrics/attrition/tree"
)

// RandomForestClassifier averages the class probabilities of decision trees
// fitted on bootstrap samples with per-split feature subsampling.
type RandomForestClassifier struct {
	model.BaseEstimator

	nEstimators    int
	criterion      string
	maxDepth       int
	minSamplesLeaf int
	maxFeatures    int // 0 means sqrt of the feature count
	randomState    int64

	trees      []*tree.DecisionTreeClassifier
	classes_   []int
	nClasses_  int
	nFeatures_ int
}

// RandomForestOption configures a RandomForestClassifier.
type RandomForestOption func(*RandomForestClassifier)

// NewRandomForestClassifier creates a random forest.
func NewRandomForestClassifier(opts ...RandomForestOption) *RandomForestClassifier {
	rf := &RandomForestClassifier{
		nEstimators:    100,
		criterion:      "gini",
		maxDepth:       -1,
		minSamplesLeaf: 1,
		randomState:    -1,
	}
	for _, opt := range opts {
		opt(rf)
	}
	return rf
}

// WithNEstimators sets the number of trees.
func WithNEstimators(n int) RandomForestOption {
	return func(rf *RandomForestClassifier) {
		rf.nEstimators = n
	}
}

// WithForestCriterion sets the split criterion for every tree.
func WithForestCriterion(criterion string) RandomForestOption {
	return func(rf *RandomForestClassifier) {
		rf.criterion = criterion
	}
}

// WithForestMaxDepth limits the depth of every tree; -1 means unlimited.
func WithForestMaxDepth(depth int) RandomForestOption {
	return func(rf *RandomForestClassifier) {
		rf.maxDepth = depth
	}
}

// WithForestMinSamplesLeaf sets the minimum leaf size of every tree.
func WithForestMinSamplesLeaf(n int) RandomForestOption {
	return func(rf *RandomForestClassifier) {
		rf.minSamplesLeaf = n
	}
}

// WithForestMaxFeatures sets the per-split feature sample size;
// 0 uses sqrt of the feature count.
func WithForestMaxFeatures(n int) RandomForestOption {
	return func(rf *RandomForestClassifier) {
		rf.maxFeatures = n
	}
}

// WithForestRandomState seeds bootstrap and feature sampling.
func WithForestRandomState(seed int64) RandomForestOption {
	return func(rf *RandomForestClassifier) {
		rf.randomState = seed
	}
}

// Fit trains the forest on X, y. Trees are fitted in parallel.
func (rf *RandomForestClassifier) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("RandomForestClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	if yRows != nSamples {
		return errors.NewDimensionError("RandomForestClassifier.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("RandomForestClassifier.Fit", "y must be a column vector")
	}
	if rf.nEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be at least 1", rf.nEstimators)
	}

	seen := map[int]bool{}
	for i := 0; i < nSamples; i++ {
		seen[int(y.At(i, 0))] = true
	}
	rf.classes_ = make([]int, 0, len(seen))
	for class := range seen {
		rf.classes_ = append(rf.classes_, class)
	}
	sort.Ints(rf.classes_)
	rf.nClasses_ = len(rf.classes_)
	rf.nFeatures_ = nFeatures

	maxFeatures := rf.maxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Sqrt(float64(nFeatures)))
		if maxFeatures < 1 {
			maxFeatures = 1
		}
	}

	baseSeed := rf.randomState
	if baseSeed < 0 {
		baseSeed = rand.Int63()
	}

	rf.trees = make([]*tree.DecisionTreeClassifier, rf.nEstimators)
	fitErrs := make([]error, rf.nEstimators)

	// Each worker owns a disjoint range of tree slots.
	parallel.Parallelize(rf.nEstimators, func(start, end int) {
		for t := start; t < end; t++ {
			rng := rand.New(rand.NewSource(baseSeed + int64(t)))

			// Bootstrap sample with replacement.
			XBoot := mat.NewDense(nSamples, nFeatures, nil)
			yBoot := mat.NewDense(nSamples, 1, nil)
			for i := 0; i < nSamples; i++ {
				src := rng.Intn(nSamples)
				for j := 0; j < nFeatures; j++ {
					XBoot.Set(i, j, X.At(src, j))
				}
				yBoot.Set(i, 0, y.At(src, 0))
			}

			dt := tree.NewDecisionTreeClassifier(
				tree.WithCriterion(rf.criterion),
				tree.WithMaxDepth(rf.maxDepth),
				tree.WithMinSamplesLeaf(rf.minSamplesLeaf),
				tree.WithMaxFeatures(maxFeatures),
				tree.WithTreeRandomState(baseSeed+int64(t)),
			)
			if err := dt.Fit(XBoot, yBoot); err != nil {
				fitErrs[t] = err
				continue
			}
			rf.trees[t] = dt
		}
	})

	for _, err := range fitErrs {
		if err != nil {
			return errors.Wrap(err, "RandomForestClassifier.Fit")
		}
	}

	rf.SetFitted()
	return nil
}

// PredictProba returns class probabilities averaged over all trees.
func (rf *RandomForestClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !rf.IsFitted() {
		return nil, errors.NewNotFittedError("RandomForestClassifier", "PredictProba")
	}

	r, c := X.Dims()
	if c != rf.nFeatures_ {
		return nil, errors.NewDimensionError("RandomForestClassifier.PredictProba", rf.nFeatures_, c, 1)
	}

	forestIndex := make(map[int]int, rf.nClasses_)
	for i, class := range rf.classes_ {
		forestIndex[class] = i
	}

	probas := mat.NewDense(r, rf.nClasses_, nil)
	for _, dt := range rf.trees {
		treeProbas, err := dt.PredictProba(X)
		if err != nil {
			return nil, errors.Wrap(err, "RandomForestClassifier.PredictProba")
		}
		// A bootstrap sample can miss a class, so map the tree's
		// probability columns back to the forest's class order.
		treeClasses := dt.Classes()
		for i := 0; i < r; i++ {
			for j, class := range treeClasses {
				k := forestIndex[class]
				probas.Set(i, k, probas.At(i, k)+treeProbas.At(i, j))
			}
		}
	}

	scale := 1.0 / float64(len(rf.trees))
	probas.Scale(scale, probas)
	return probas, nil
}

// Predict returns the class with the highest averaged probability.
func (rf *RandomForestClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	probas, err := rf.PredictProba(X)
	if err != nil {
		return nil, err
	}

	r, _ := probas.Dims()
	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		best, bestP := 0, probas.At(i, 0)
		for j := 1; j < rf.nClasses_; j++ {
			if probas.At(i, j) > bestP {
				best, bestP = j, probas.At(i, j)
			}
		}
		predictions.Set(i, 0, float64(rf.classes_[best]))
	}
	return predictions, nil
}

// Classes returns the class labels in probability column order.
func (rf *RandomForestClassifier) Classes() []int {
	return append([]int(nil), rf.classes_...)
}

// FeatureImportances returns impurity-decrease importances averaged over trees.
func (rf *RandomForestClassifier) FeatureImportances() []float64 {
	importances := make([]float64, rf.nFeatures_)
	if len(rf.trees) == 0 {
		return importances
	}
	for _, dt := range rf.trees {
		for j, v := range dt.GetFeatureImportances() {
			importances[j] += v
		}
	}
	for j := range importances {
		importances[j] /= float64(len(rf.trees))
	}
	return importances
}

// Score returns the mean accuracy on X, y.
func (rf *RandomForestClassifier) Score(X, y mat.Matrix) (float64, error) {
	pred, err := rf.Predict(X)
	if err != nil {
		return 0, err
	}
	r, _ := y.Dims()
	correct := 0
	for i := 0; i < r; i++ {
		if pred.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(r), nil
}

// GetParams returns the hyperparameters.
func (rf *RandomForestClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":     rf.nEstimators,
		"criterion":        rf.criterion,
		"max_depth":        rf.maxDepth,
		"min_samples_leaf": rf.minSamplesLeaf,
		"max_features":     rf.maxFeatures,
		"random_state":     rf.randomState,
	}
}
