// Standard attribute keys for pipeline logging. Using fixed keys keeps stage
// logs filterable when the report output is collected as JSON.
package log

// Stage and model context.
const (
	// StageKey names the pipeline stage emitting the log line.
	// Examples: "load", "split", "classify", "embed", "cluster"
	StageKey = "stage"

	// ModelNameKey identifies the estimator type.
	// Examples: "LogisticRegression", "RandomForest", "DBSCAN"
	ModelNameKey = "model.name"

	// OperationKey specifies the estimator operation.
	// Standard values: "fit", "predict", "transform", "score"
	OperationKey = "ml.operation"
)

// Data shape.
const (
	// SamplesKey is the number of rows being processed.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of columns being processed.
	FeaturesKey = "data.features"
)

// Results.
const (
	// AccuracyKey is the held-out accuracy of a classifier.
	AccuracyKey = "metric.accuracy"

	// AUCKey is the held-out ROC-AUC of a classifier.
	AUCKey = "metric.auc"

	// ComponentsKey is the number of retained latent components.
	ComponentsKey = "decomp.components"

	// ClustersKey is the number of clusters found (noise excluded).
	ClustersKey = "cluster.count"

	// DurationMsKey records stage execution time in milliseconds.
	DurationMsKey = "perf.duration_ms"
)
