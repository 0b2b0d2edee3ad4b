package constants

const (
	// Writer defaults
	DefaultBatchSize        = 50
	DefaultWriteConcurrency = 4

	// DefaultFairnessWindowDays is the trailing window the solver counts
	// assigned slots over when breaking ties.
	DefaultFairnessWindowDays = 7

	DefaultBackupBeforeWrite = true

	// Bottleneck thresholds: a service is flagged only when both hold.
	DefaultBottleneckMinRatio = 0.10
	DefaultBottleneckMinOpen  = 2

	// Coverage rating thresholds (percent)
	CoverageExcellent = 95.0
	CoverageGood      = 85.0
	CoverageFair      = 75.0
)
