package report

import (
	"io"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/himetrics/attrition/cluster"
	"github.com/himetrics/attrition/dataset"
	"github.com/himetrics/attrition/decomposition"
	"github.com/himetrics/attrition/manifold"
	"github.com/himetrics/attrition/pkg/log"
	"github.com/himetrics/attrition/plots"
	"github.com/himetrics/attrition/preprocessing"
)

const embedComponents = 4

// UnsupervisedResult carries the clustering outcome back to the summary.
type UnsupervisedResult struct {
	Labels      []int
	NumClusters int
	NumNoise    int
}

// runUnsupervised maps the full population: PCA and MCA views, a Gower
// distance matrix, a t-SNE embedding, and DBSCAN clusters with profiles.
func runUnsupervised(f *dataset.Frame, outDir string, seed int64, out io.Writer) (*UnsupervisedResult, error) {
	logger := log.Stage("unsupervised")
	numericNames := dataset.ModelingNumericColumns()

	// Numeric view.
	XNum, err := f.Matrix(numericNames)
	if err != nil {
		return nil, err
	}
	pca := decomposition.NewPCA(decomposition.WithPCAComponents(embedComponents))
	if _, err := pca.FitTransform(XNum); err != nil {
		return nil, err
	}
	logger.Info().
		Int(log.ComponentsKey, embedComponents).
		Floats64("explained_variance_ratio", pca.ExplainedVarianceRatio()).
		Msg("pca fitted")

	// Categorical view.
	catCols, err := f.StringColumns(dataset.CategoricalColumns)
	if err != nil {
		return nil, err
	}
	encoder := preprocessing.NewOneHotEncoder(false)
	indicator, err := encoder.FitTransform(catCols, dataset.CategoricalColumns)
	if err != nil {
		return nil, err
	}
	mca := decomposition.NewMCA(decomposition.WithMCAComponents(embedComponents))
	if _, err := mca.FitTransform(indicator); err != nil {
		return nil, err
	}
	logger.Info().
		Int(log.ComponentsKey, embedComponents).
		Floats64("inertia_ratio", mca.InertiaRatio()).
		Msg("mca fitted")

	// Mixed-type distances and the 2-D map.
	D, err := dataset.GowerMatrix(f, numericNames, dataset.CategoricalColumns)
	if err != nil {
		return nil, err
	}
	tsne := manifold.NewTSNE(
		manifold.WithTSNEComponents(2),
		manifold.WithPerplexity(30),
		manifold.WithTSNEIterations(750),
		manifold.WithTSNERandomState(seed),
	)
	embedding, err := tsne.FitTransform(D)
	if err != nil {
		return nil, err
	}
	logger.Info().
		Float64("kl_divergence", tsne.KLDivergence()).
		Msg("embedding fitted")

	// Density clustering over the embedding.
	minSamples := 10
	db := cluster.NewDBSCAN(
		cluster.WithEps(kDistanceEps(embedding, minSamples)),
		cluster.WithMinSamples(minSamples),
	)
	labels, err := db.FitPredict(embedding)
	if err != nil {
		return nil, err
	}

	// Figures: map colored by cluster and by attrition.
	if err := plots.ClusterScatter("Employee map by cluster", embedding, labels, nil,
		plotPath(outDir, "embedding_clusters.png")); err != nil {
		return nil, err
	}
	attrition, err := targetLabels(f)
	if err != nil {
		return nil, err
	}
	attritionAsInt := make([]int, len(attrition))
	for i, label := range attrition {
		if label == "Yes" {
			attritionAsInt[i] = 1
		}
	}
	if err := plots.ClusterScatter("Employee map by attrition", embedding, attritionAsInt,
		[]string{"stayed", "left"}, plotPath(outDir, "embedding_attrition.png")); err != nil {
		return nil, err
	}

	if err := profileClusters(f, labels, attrition, outDir, out); err != nil {
		return nil, err
	}

	return &UnsupervisedResult{
		Labels:      labels,
		NumClusters: db.NumClusters(),
		NumNoise:    db.NumNoise(),
	}, nil
}

// kDistanceEps picks the DBSCAN radius as the median distance to the k-th
// nearest neighbor, scaled up slightly so dense regions stay connected.
func kDistanceEps(X *mat.Dense, k int) float64 {
	n, d := X.Dims()
	if n <= k {
		return 1
	}

	kDists := make([]float64, n)
	dists := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var d2 float64
			for c := 0; c < d; c++ {
				diff := X.At(i, c) - X.At(j, c)
				d2 += diff * diff
			}
			dists[j] = math.Sqrt(d2)
		}
		sort.Float64s(dists)
		kDists[i] = dists[k]
	}
	sort.Float64s(kDists)
	return 1.25 * kDists[n/2]
}

// profileClusters renders contingency tables and per-cluster means.
func profileClusters(f *dataset.Frame, labels []int, attrition []string, outDir string, out io.Writer) error {
	clusterNames := make([]string, len(labels))
	for i, label := range labels {
		if label == cluster.NoiseLabel {
			clusterNames[i] = "noise"
		} else {
			clusterNames[i] = "cluster " + strconv.Itoa(label)
		}
	}

	// Cluster vs attrition, the headline contingency.
	vsAttrition, err := dataset.NewCrossTab(clusterNames, attrition)
	if err != nil {
		return err
	}
	renderCrossTab(out, "Cluster vs attrition", vsAttrition)
	if err := plots.BalloonPlot("Cluster vs attrition", vsAttrition.ALevels,
		vsAttrition.BLevels, vsAttrition.Counts, plotPath(outDir, "cluster_attrition.png")); err != nil {
		return err
	}

	// Cluster vs the strongest categorical drivers.
	for _, column := range []string{"Department", "OverTime", "JobRole"} {
		values, err := f.Strings(column)
		if err != nil {
			return err
		}
		ct, err := dataset.NewCrossTab(clusterNames, values)
		if err != nil {
			return err
		}
		renderCrossTab(out, "Cluster vs "+column, ct)
	}

	// Per-cluster means of the headline numerics.
	meansFor := []string{"Age", "MonthlyIncome", "TotalWorkingYears", dataset.ScoreColumn}
	levels := uniqueLabels(clusterNames)
	rows := make([][]float64, len(levels))
	for li, level := range levels {
		rows[li] = make([]float64, len(meansFor))
		for ci, column := range meansFor {
			values, err := f.Floats(column)
			if err != nil {
				return err
			}
			var sum float64
			var count int
			for i, name := range clusterNames {
				if name == level {
					sum += values[i]
					count++
				}
			}
			if count > 0 {
				rows[li][ci] = sum / float64(count)
			}
		}
	}
	renderClusterMeans(out, levels, meansFor, rows)

	// Income profile per cluster as a bar chart.
	incomeIdx := 1
	incomeMeans := make([]float64, len(levels))
	for li := range levels {
		incomeMeans[li] = rows[li][incomeIdx]
	}
	return plots.BarChart("Mean monthly income by cluster", "MonthlyIncome",
		levels, incomeMeans, plotPath(outDir, "cluster_income.png"))
}

func uniqueLabels(names []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, name := range names {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
