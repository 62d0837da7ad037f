package dataset

import (
	"math/rand"
	"sort"

	"github.com/himetrics/attrition/pkg/errors"
)

// Split holds a disjoint train/test row partition of a frame.
type Split struct {
	Train *Frame
	Test  *Frame

	TrainIdx []int
	TestIdx  []int
}

// StratifiedSplit partitions the frame into train and test sets, sampling
// the test fraction within each target class so both partitions preserve the
// attrition rate. The seed fixes the partition across runs.
func StratifiedSplit(f *Frame, testFraction float64, seed int64) (*Split, error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, errors.NewValidationError("testFraction", "must be in (0, 1)", testFraction)
	}

	y, err := f.Target()
	if err != nil {
		return nil, err
	}
	n := y.Len()
	if n == 0 {
		return nil, errors.NewModelError("StratifiedSplit", "empty data", errors.ErrEmptyData)
	}

	// Group row indices by class, then sample within each group.
	groups := map[float64][]int{}
	for i := 0; i < n; i++ {
		label := y.AtVec(i)
		groups[label] = append(groups[label], i)
	}

	labels := make([]float64, 0, len(groups))
	for label := range groups {
		labels = append(labels, label)
	}
	sort.Float64s(labels)

	rng := rand.New(rand.NewSource(seed))
	var trainIdx, testIdx []int
	for _, label := range labels {
		idx := groups[label]
		rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })

		nTest := int(float64(len(idx))*testFraction + 0.5)
		if nTest == 0 && len(idx) > 1 {
			nTest = 1
		}
		testIdx = append(testIdx, idx[:nTest]...)
		trainIdx = append(trainIdx, idx[nTest:]...)
	}

	sort.Ints(trainIdx)
	sort.Ints(testIdx)

	train, err := f.Subset(trainIdx)
	if err != nil {
		return nil, err
	}
	test, err := f.Subset(testIdx)
	if err != nil {
		return nil, err
	}

	return &Split{Train: train, Test: test, TrainIdx: trainIdx, TestIdx: testIdx}, nil
}
