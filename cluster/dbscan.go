// Package cluster implements density-based clustering for the embedded
// employee map.
package cluster

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/himetrics/attrition/core/model"
	"github.com/himetrics/attrition/pkg/errors"
)

// NoiseLabel marks points that belong to no cluster.
const NoiseLabel = -1

// DBSCAN groups points by density. Points with at least MinSamples
// neighbors within Eps become cores; everything unreachable is noise.
type DBSCAN struct {
	model.BaseEstimator

	eps        float64
	minSamples int

	labels_    []int
	nClusters_ int
}

// DBSCANOption configures a DBSCAN.
type DBSCANOption func(*DBSCAN)

// NewDBSCAN creates a DBSCAN clusterer.
func NewDBSCAN(opts ...DBSCANOption) *DBSCAN {
	db := &DBSCAN{
		eps:        0.5,
		minSamples: 5,
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// WithEps sets the neighborhood radius.
func WithEps(eps float64) DBSCANOption {
	return func(db *DBSCAN) {
		db.eps = eps
	}
}

// WithMinSamples sets the core-point threshold, the point itself included.
func WithMinSamples(n int) DBSCANOption {
	return func(db *DBSCAN) {
		db.minSamples = n
	}
}

// FitPredict clusters the rows of X and returns one label per row.
// Noise points get NoiseLabel, clusters are numbered from 0.
func (db *DBSCAN) FitPredict(X mat.Matrix) ([]int, error) {
	n, d := X.Dims()
	if n == 0 || d == 0 {
		return nil, errors.NewModelError("DBSCAN.FitPredict", "empty data", errors.ErrEmptyData)
	}
	if db.eps <= 0 {
		return nil, errors.NewValidationError("eps", "must be positive", db.eps)
	}
	if db.minSamples < 1 {
		return nil, errors.NewValidationError("min_samples", "must be at least 1", db.minSamples)
	}

	const unvisited = -2
	labels := make([]int, n)
	for i := range labels {
		labels[i] = unvisited
	}

	neighbors := func(i int) []int {
		var out []int
		for j := 0; j < n; j++ {
			var d2 float64
			for k := 0; k < d; k++ {
				diff := X.At(i, k) - X.At(j, k)
				d2 += diff * diff
			}
			if math.Sqrt(d2) <= db.eps {
				out = append(out, j)
			}
		}
		return out
	}

	clusterID := 0
	for i := 0; i < n; i++ {
		if labels[i] != unvisited {
			continue
		}

		nbrs := neighbors(i)
		if len(nbrs) < db.minSamples {
			labels[i] = NoiseLabel
			continue
		}

		labels[i] = clusterID
		queue := append([]int(nil), nbrs...)
		for len(queue) > 0 {
			j := queue[0]
			queue = queue[1:]

			if labels[j] == NoiseLabel {
				// Border point reached from a core.
				labels[j] = clusterID
			}
			if labels[j] != unvisited {
				continue
			}
			labels[j] = clusterID

			jNbrs := neighbors(j)
			if len(jNbrs) >= db.minSamples {
				queue = append(queue, jNbrs...)
			}
		}
		clusterID++
	}

	db.labels_ = labels
	db.nClusters_ = clusterID
	db.SetFitted()
	return append([]int(nil), labels...), nil
}

// Labels returns the labels from the last FitPredict call.
func (db *DBSCAN) Labels() []int {
	return append([]int(nil), db.labels_...)
}

// NumClusters returns the number of clusters found, noise excluded.
func (db *DBSCAN) NumClusters() int {
	return db.nClusters_
}

// NumNoise returns the number of points labeled as noise.
func (db *DBSCAN) NumNoise() int {
	count := 0
	for _, l := range db.labels_ {
		if l == NoiseLabel {
			count++
		}
	}
	return count
}

// GetParams returns the hyperparameters.
func (db *DBSCAN) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"eps":         db.eps,
		"min_samples": db.minSamples,
	}
}
