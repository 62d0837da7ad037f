// Package manifold implements t-SNE for embedding precomputed pairwise
// distances into two dimensions.
package manifold

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/himetrics/attrition/core/model"
	"github.com/himetrics/attrition/core/parallel"
	"github.com/himetrics/attrition/pkg/errors"
)

const (
	exaggerationFactor = 4.0
	exaggerationIters  = 100
	momentumSwitch     = 250
)

// TSNE embeds a precomputed distance matrix into a low-dimensional map by
// matching pairwise neighbor distributions.
type TSNE struct {
	model.BaseEstimator

	nComponents  int
	perplexity   float64
	learningRate float64
	nIter        int
	randomState  int64

	embedding_ *mat.Dense
	klDiv_     float64
}

// TSNEOption configures a TSNE.
type TSNEOption func(*TSNE)

// NewTSNE creates a t-SNE embedder.
func NewTSNE(opts ...TSNEOption) *TSNE {
	t := &TSNE{
		nComponents:  2,
		perplexity:   30,
		learningRate: 200,
		nIter:        1000,
		randomState:  -1,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// WithTSNEComponents sets the embedding dimension.
func WithTSNEComponents(k int) TSNEOption {
	return func(t *TSNE) {
		t.nComponents = k
	}
}

// WithPerplexity sets the effective neighborhood size.
func WithPerplexity(p float64) TSNEOption {
	return func(t *TSNE) {
		t.perplexity = p
	}
}

// WithLearningRate sets the gradient step size.
func WithLearningRate(lr float64) TSNEOption {
	return func(t *TSNE) {
		t.learningRate = lr
	}
}

// WithTSNEIterations sets the number of gradient steps.
func WithTSNEIterations(n int) TSNEOption {
	return func(t *TSNE) {
		t.nIter = n
	}
}

// WithTSNERandomState seeds the initial embedding.
func WithTSNERandomState(seed int64) TSNEOption {
	return func(t *TSNE) {
		t.randomState = seed
	}
}

// FitTransform embeds the n x n distance matrix D and returns the n x k map.
func (t *TSNE) FitTransform(D mat.Matrix) (*mat.Dense, error) {
	n, c := D.Dims()
	if n != c {
		return nil, errors.NewValueError("TSNE.FitTransform", "distance matrix must be square")
	}
	if n < 4 {
		return nil, errors.NewModelError("TSNE.FitTransform", "need at least four samples", errors.ErrEmptyData)
	}
	if t.perplexity <= 0 || t.perplexity >= float64(n) {
		return nil, errors.NewValidationError("perplexity", "must be in (0, n_samples)", t.perplexity)
	}
	if t.nComponents < 1 {
		return nil, errors.NewValidationError("n_components", "must be at least 1", t.nComponents)
	}

	P := t.jointProbabilities(D, n)

	seed := t.randomState
	if seed < 0 {
		seed = rand.Int63()
	}
	rng := rand.New(rand.NewSource(seed))

	Y := mat.NewDense(n, t.nComponents, nil)
	for i := 0; i < n; i++ {
		for k := 0; k < t.nComponents; k++ {
			Y.Set(i, k, rng.NormFloat64()*1e-4)
		}
	}

	velocity := mat.NewDense(n, t.nComponents, nil)
	gains := mat.NewDense(n, t.nComponents, nil)
	for i := 0; i < n; i++ {
		for k := 0; k < t.nComponents; k++ {
			gains.Set(i, k, 1)
		}
	}
	grad := mat.NewDense(n, t.nComponents, nil)
	Q := mat.NewDense(n, n, nil)

	// Early exaggeration sharpens cluster separation at the start.
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			P.Set(i, j, P.At(i, j)*exaggerationFactor)
		}
	}

	for iter := 0; iter < t.nIter; iter++ {
		if iter == exaggerationIters {
			P.Scale(1/exaggerationFactor, P)
		}

		// Student-t affinities in the embedding.
		var sumQ float64
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				var d2 float64
				for k := 0; k < t.nComponents; k++ {
					d := Y.At(i, k) - Y.At(j, k)
					d2 += d * d
				}
				q := 1 / (1 + d2)
				Q.Set(i, j, q)
				Q.Set(j, i, q)
				sumQ += 2 * q
			}
		}

		// Gradient rows are independent, fan out across workers.
		parallel.ParallelizeWithThreshold(n, 64, func(start, end int) {
			for i := start; i < end; i++ {
				for k := 0; k < t.nComponents; k++ {
					grad.Set(i, k, 0)
				}
				for j := 0; j < n; j++ {
					if i == j {
						continue
					}
					q := Q.At(i, j)
					mult := (P.At(i, j) - q/sumQ) * q
					for k := 0; k < t.nComponents; k++ {
						grad.Set(i, k, grad.At(i, k)+4*mult*(Y.At(i, k)-Y.At(j, k)))
					}
				}
			}
		})

		momentum := 0.5
		if iter >= momentumSwitch {
			momentum = 0.8
		}
		for i := 0; i < n; i++ {
			for k := 0; k < t.nComponents; k++ {
				g := grad.At(i, k)
				gain := gains.At(i, k)
				if (g > 0) == (velocity.At(i, k) > 0) {
					gain *= 0.8
				} else {
					gain += 0.2
				}
				if gain < 0.01 {
					gain = 0.01
				}
				gains.Set(i, k, gain)

				v := momentum*velocity.At(i, k) - t.learningRate*gain*g
				velocity.Set(i, k, v)
				Y.Set(i, k, Y.At(i, k)+v)
			}
		}

		// Keep the embedding centered.
		for k := 0; k < t.nComponents; k++ {
			var mean float64
			for i := 0; i < n; i++ {
				mean += Y.At(i, k)
			}
			mean /= float64(n)
			for i := 0; i < n; i++ {
				Y.Set(i, k, Y.At(i, k)-mean)
			}
		}
	}

	// Final KL divergence between P and Q.
	var kl, sumQ float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j {
				sumQ += Q.At(i, j)
			}
		}
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			p := P.At(i, j)
			if i == j || p <= 0 {
				continue
			}
			q := Q.At(i, j) / sumQ
			if q < 1e-12 {
				q = 1e-12
			}
			kl += p * math.Log(p/q)
		}
	}
	t.klDiv_ = kl

	t.embedding_ = Y
	t.SetFitted()
	return Y, nil
}

// jointProbabilities converts distances to symmetric neighbor probabilities
// whose per-row entropy matches the requested perplexity.
func (t *TSNE) jointProbabilities(D mat.Matrix, n int) *mat.Dense {
	P := mat.NewDense(n, n, nil)
	logPerp := math.Log(t.perplexity)

	parallel.ParallelizeWithThreshold(n, 64, func(start, end int) {
		d2 := make([]float64, n)
		row := make([]float64, n)
		for i := start; i < end; i++ {
			for j := 0; j < n; j++ {
				d := D.At(i, j)
				d2[j] = d * d
			}
			conditionalRow(P, d2, row, i, n, logPerp)
		}
	})

	// Symmetrize and normalize to a joint distribution.
	sym := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := (P.At(i, j) + P.At(j, i)) / (2 * float64(n))
			if v < 1e-12 {
				v = 1e-12
			}
			if i == j {
				v = 0
			}
			sym.Set(i, j, v)
		}
	}
	return sym
}

// conditionalRow fills P's row i with the conditional neighbor distribution
// of point i, binary searching the precision beta until the row entropy
// matches logPerp.
func conditionalRow(P *mat.Dense, d2, row []float64, i, n int, logPerp float64) {
	beta := 1.0
	betaMin, betaMax := math.Inf(-1), math.Inf(1)

	for tries := 0; tries < 50; tries++ {
		var sum float64
		for j := 0; j < n; j++ {
			if j == i {
				row[j] = 0
				continue
			}
			row[j] = math.Exp(-d2[j] * beta)
			sum += row[j]
		}
		if sum == 0 {
			sum = 1e-12
		}

		var entropy float64
		for j := 0; j < n; j++ {
			if j == i || row[j] == 0 {
				continue
			}
			p := row[j] / sum
			entropy -= p * math.Log(p)
		}

		diff := entropy - logPerp
		if math.Abs(diff) < 1e-5 {
			break
		}
		if diff > 0 {
			betaMin = beta
			if math.IsInf(betaMax, 1) {
				beta *= 2
			} else {
				beta = (beta + betaMax) / 2
			}
		} else {
			betaMax = beta
			if math.IsInf(betaMin, -1) {
				beta /= 2
			} else {
				beta = (beta + betaMin) / 2
			}
		}
	}

	var sum float64
	for j := 0; j < n; j++ {
		if j == i {
			continue
		}
		row[j] = math.Exp(-d2[j] * beta)
		sum += row[j]
	}
	if sum == 0 {
		sum = 1e-12
	}
	for j := 0; j < n; j++ {
		if j != i {
			P.Set(i, j, row[j]/sum)
		}
	}
}

// Embedding returns the fitted low-dimensional map.
func (t *TSNE) Embedding() *mat.Dense {
	return t.embedding_
}

// KLDivergence returns the final divergence between the neighbor
// distributions of the input and the embedding.
func (t *TSNE) KLDivergence() float64 {
	return t.klDiv_
}

// GetParams returns the hyperparameters.
func (t *TSNE) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_components":  t.nComponents,
		"perplexity":    t.perplexity,
		"learning_rate": t.learningRate,
		"n_iter":        t.nIter,
		"random_state":  t.randomState,
	}
}
