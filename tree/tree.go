// Package tree implements a CART decision tree classifier. It is used both
// standalone and as the base learner of the random forest.
package tree

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/himetrics/attrition/core/model"
	"github.com/himetrics/attrition/pkg/errors"
)

// node is a tree node; leaves carry a class distribution.
type node struct {
	feature   int
	threshold float64
	left      *node
	right     *node

	// Leaf payload: class counts normalized to probabilities.
	probs []float64
	leaf  bool
}

// DecisionTreeClassifier is a CART classifier with gini or entropy splits.
type DecisionTreeClassifier struct {
	model.BaseEstimator

	// Hyperparameters
	criterion       string // "gini" or "entropy"
	maxDepth        int    // -1 for unlimited
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int // 0 means all features; forest sets sqrt(p)
	randomState     int64

	// Fitted state
	root        *node
	classes_    []int
	nClasses_   int
	nFeatures_  int
	importances []float64

	rng *rand.Rand
}

// DecisionTreeOption configures a DecisionTreeClassifier.
type DecisionTreeOption func(*DecisionTreeClassifier)

// NewDecisionTreeClassifier creates a CART classifier.
func NewDecisionTreeClassifier(opts ...DecisionTreeOption) *DecisionTreeClassifier {
	dt := &DecisionTreeClassifier{
		criterion:       "gini",
		maxDepth:        -1,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		randomState:     -1,
	}
	for _, opt := range opts {
		opt(dt)
	}
	if dt.rng == nil {
		if dt.randomState >= 0 {
			dt.rng = rand.New(rand.NewSource(dt.randomState))
		} else {
			dt.rng = rand.New(rand.NewSource(rand.Int63()))
		}
	}
	return dt
}

// WithCriterion sets the split criterion: "gini" or "entropy".
func WithCriterion(criterion string) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.criterion = criterion
	}
}

// WithMaxDepth limits the tree depth; -1 means unlimited.
func WithMaxDepth(depth int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.maxDepth = depth
	}
}

// WithMinSamplesSplit sets the minimum samples required to split a node.
func WithMinSamplesSplit(n int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.minSamplesSplit = n
	}
}

// WithMinSamplesLeaf sets the minimum samples required in a leaf.
func WithMinSamplesLeaf(n int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.minSamplesLeaf = n
	}
}

// WithMaxFeatures samples this many features per split; 0 uses all.
func WithMaxFeatures(n int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.maxFeatures = n
	}
}

// WithTreeRandomState seeds feature subsampling.
func WithTreeRandomState(seed int64) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.randomState = seed
		if seed >= 0 {
			dt.rng = rand.New(rand.NewSource(seed))
		}
	}
}

// Fit grows the tree on X, y.
func (dt *DecisionTreeClassifier) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("DecisionTreeClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	if yRows != nSamples {
		return errors.NewDimensionError("DecisionTreeClassifier.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("DecisionTreeClassifier.Fit", "y must be a column vector")
	}
	if dt.criterion != "gini" && dt.criterion != "entropy" {
		return errors.NewValidationError("criterion", "must be gini or entropy", dt.criterion)
	}

	// Collect sorted class labels.
	seen := map[int]bool{}
	for i := 0; i < nSamples; i++ {
		seen[int(y.At(i, 0))] = true
	}
	dt.classes_ = make([]int, 0, len(seen))
	for class := range seen {
		dt.classes_ = append(dt.classes_, class)
	}
	sort.Ints(dt.classes_)
	dt.nClasses_ = len(dt.classes_)
	dt.nFeatures_ = nFeatures
	dt.importances = make([]float64, nFeatures)

	classIndex := make(map[int]int, dt.nClasses_)
	for i, class := range dt.classes_ {
		classIndex[class] = i
	}

	labels := make([]int, nSamples)
	for i := 0; i < nSamples; i++ {
		labels[i] = classIndex[int(y.At(i, 0))]
	}

	idx := make([]int, nSamples)
	for i := range idx {
		idx[i] = i
	}

	dt.root = dt.build(X, labels, idx, 0)
	dt.normalizeImportances()

	dt.SetFitted()
	return nil
}

func (dt *DecisionTreeClassifier) build(X mat.Matrix, labels, idx []int, depth int) *node {
	counts := dt.classCounts(labels, idx)
	imp := dt.impurity(counts, len(idx))

	if imp == 0 ||
		len(idx) < dt.minSamplesSplit ||
		(dt.maxDepth >= 0 && depth >= dt.maxDepth) {
		return dt.makeLeaf(counts, len(idx))
	}

	feature, threshold, gain := dt.bestSplit(X, labels, idx, imp)
	if feature < 0 {
		return dt.makeLeaf(counts, len(idx))
	}

	var leftIdx, rightIdx []int
	for _, i := range idx {
		if X.At(i, feature) <= threshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}
	if len(leftIdx) < dt.minSamplesLeaf || len(rightIdx) < dt.minSamplesLeaf {
		return dt.makeLeaf(counts, len(idx))
	}

	dt.importances[feature] += float64(len(idx)) * gain

	return &node{
		feature:   feature,
		threshold: threshold,
		left:      dt.build(X, labels, leftIdx, depth+1),
		right:     dt.build(X, labels, rightIdx, depth+1),
	}
}

// bestSplit returns the (feature, threshold) pair with the largest impurity
// decrease, or feature -1 if no valid split exists.
func (dt *DecisionTreeClassifier) bestSplit(X mat.Matrix, labels, idx []int, parentImp float64) (int, float64, float64) {
	features := dt.candidateFeatures()

	bestFeature := -1
	bestThreshold := 0.0
	bestGain := 0.0

	n := len(idx)
	values := make([]float64, n)
	order := make([]int, n)

	for _, f := range features {
		for k, i := range idx {
			values[k] = X.At(i, f)
			order[k] = k
		}
		sort.Slice(order, func(a, b int) bool { return values[order[a]] < values[order[b]] })

		// Running left-side class counts as the sorted values sweep by.
		leftCounts := make([]int, dt.nClasses_)
		rightCounts := dt.classCounts(labels, idx)

		for k := 0; k < n-1; k++ {
			i := idx[order[k]]
			leftCounts[labels[i]]++
			rightCounts[labels[i]]--

			v, next := values[order[k]], values[order[k+1]]
			if v == next {
				continue
			}

			nLeft, nRight := k+1, n-k-1
			if nLeft < dt.minSamplesLeaf || nRight < dt.minSamplesLeaf {
				continue
			}

			impLeft := dt.impurity(leftCounts, nLeft)
			impRight := dt.impurity(rightCounts, nRight)
			gain := parentImp - (float64(nLeft)*impLeft+float64(nRight)*impRight)/float64(n)

			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = (v + next) / 2
			}
		}
	}

	return bestFeature, bestThreshold, bestGain
}

// candidateFeatures returns all features or a random subset of maxFeatures.
func (dt *DecisionTreeClassifier) candidateFeatures() []int {
	all := make([]int, dt.nFeatures_)
	for i := range all {
		all[i] = i
	}
	if dt.maxFeatures <= 0 || dt.maxFeatures >= dt.nFeatures_ {
		return all
	}
	dt.rng.Shuffle(len(all), func(a, b int) { all[a], all[b] = all[b], all[a] })
	sub := all[:dt.maxFeatures]
	sort.Ints(sub)
	return sub
}

func (dt *DecisionTreeClassifier) classCounts(labels, idx []int) []int {
	counts := make([]int, dt.nClasses_)
	for _, i := range idx {
		counts[labels[i]]++
	}
	return counts
}

func (dt *DecisionTreeClassifier) impurity(counts []int, total int) float64 {
	if total == 0 {
		return 0
	}
	switch dt.criterion {
	case "entropy":
		var h float64
		for _, c := range counts {
			if c == 0 {
				continue
			}
			p := float64(c) / float64(total)
			h -= p * math.Log2(p)
		}
		return h
	default: // gini
		g := 1.0
		for _, c := range counts {
			p := float64(c) / float64(total)
			g -= p * p
		}
		return g
	}
}

func (dt *DecisionTreeClassifier) makeLeaf(counts []int, total int) *node {
	probs := make([]float64, dt.nClasses_)
	for i, c := range counts {
		probs[i] = float64(c) / float64(total)
	}
	return &node{leaf: true, probs: probs}
}

func (dt *DecisionTreeClassifier) normalizeImportances() {
	var total float64
	for _, v := range dt.importances {
		total += v
	}
	if total == 0 {
		return
	}
	for i := range dt.importances {
		dt.importances[i] /= total
	}
}

// Predict returns the majority-class label for each row of X.
func (dt *DecisionTreeClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	probas, err := dt.PredictProba(X)
	if err != nil {
		return nil, err
	}

	r, _ := probas.Dims()
	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		best, bestP := 0, probas.At(i, 0)
		for j := 1; j < dt.nClasses_; j++ {
			if probas.At(i, j) > bestP {
				best, bestP = j, probas.At(i, j)
			}
		}
		predictions.Set(i, 0, float64(dt.classes_[best]))
	}
	return predictions, nil
}

// PredictProba returns per-class leaf frequencies for each row of X.
func (dt *DecisionTreeClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !dt.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeClassifier", "PredictProba")
	}

	r, c := X.Dims()
	if c != dt.nFeatures_ {
		return nil, errors.NewDimensionError("DecisionTreeClassifier.PredictProba", dt.nFeatures_, c, 1)
	}

	probas := mat.NewDense(r, dt.nClasses_, nil)
	for i := 0; i < r; i++ {
		n := dt.root
		for !n.leaf {
			if X.At(i, n.feature) <= n.threshold {
				n = n.left
			} else {
				n = n.right
			}
		}
		for j, p := range n.probs {
			probas.Set(i, j, p)
		}
	}
	return probas, nil
}

// Classes returns the class labels in probability column order.
func (dt *DecisionTreeClassifier) Classes() []int {
	return append([]int(nil), dt.classes_...)
}

// Score returns the mean accuracy on X, y.
func (dt *DecisionTreeClassifier) Score(X, y mat.Matrix) float64 {
	pred, err := dt.Predict(X)
	if err != nil {
		return 0
	}
	r, _ := y.Dims()
	correct := 0
	for i := 0; i < r; i++ {
		if pred.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(r)
}

// GetFeatureImportances returns the normalized impurity-decrease importances.
func (dt *DecisionTreeClassifier) GetFeatureImportances() []float64 {
	return append([]float64(nil), dt.importances...)
}

// GetDepth returns the depth of the fitted tree.
func (dt *DecisionTreeClassifier) GetDepth() int {
	var walk func(n *node) int
	walk = func(n *node) int {
		if n == nil || n.leaf {
			return 0
		}
		l, r := walk(n.left), walk(n.right)
		if l > r {
			return l + 1
		}
		return r + 1
	}
	return walk(dt.root)
}

// GetNLeaves returns the number of leaves of the fitted tree.
func (dt *DecisionTreeClassifier) GetNLeaves() int {
	var walk func(n *node) int
	walk = func(n *node) int {
		if n == nil {
			return 0
		}
		if n.leaf {
			return 1
		}
		return walk(n.left) + walk(n.right)
	}
	return walk(dt.root)
}

// GetParams returns the hyperparameters.
func (dt *DecisionTreeClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"criterion":         dt.criterion,
		"max_depth":         dt.maxDepth,
		"min_samples_split": dt.minSamplesSplit,
		"min_samples_leaf":  dt.minSamplesLeaf,
		"max_features":      dt.maxFeatures,
		"random_state":      dt.randomState,
	}
}

// SetParams sets hyperparameters by name.
func (dt *DecisionTreeClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "criterion":
			dt.criterion = value.(string)
		case "max_depth":
			dt.maxDepth = value.(int)
		case "min_samples_split":
			dt.minSamplesSplit = value.(int)
		case "min_samples_leaf":
			dt.minSamplesLeaf = value.(int)
		case "max_features":
			dt.maxFeatures = value.(int)
		case "random_state":
			dt.randomState = value.(int64)
			if dt.randomState >= 0 {
				dt.rng = rand.New(rand.NewSource(dt.randomState))
			}
		default:
			return errors.Newf("unknown parameter: %s", key)
		}
	}
	return nil
}
