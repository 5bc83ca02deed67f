package config

import "time"

// Default values for a generation run.  Explicit configuration always wins;
// ApplyDefaults only fills zero-value fields.
const (
	DefaultDataset        = "qm9"
	DefaultCkptEpoch      = "1000"
	DefaultSampleDir      = "samples"
	DefaultNSamples       = 10000
	DefaultSampleMethod   = "direct"
	DefaultDecodeMethod   = "greedy"
	DefaultTemp           = 0.5
	DefaultNPerturbations = 100
	DefaultRadius         = 0.1
	DefaultDataDir        = "./data/qmugs"
	DefaultBatchSize      = 100
	DefaultMaxLength      = 125
	DefaultMaxHeavyAtoms  = 50

	DefaultServiceTimeout = 5 * time.Minute

	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"

	DefaultMetricsJob = "molgen"
)

// ApplyDefaults fills zero-value fields in cfg with the run defaults.
//
// NPerturbations and Radius are deliberately not touched here: zero is a
// meaningful setting for both (no perturbation neighborhood), so their
// defaults live in the loader where set-ness is known.
func ApplyDefaults(cfg *GenConfig) {
	if cfg == nil {
		return
	}

	if cfg.Dataset == "" {
		cfg.Dataset = DefaultDataset
	}
	if cfg.CkptEpoch == "" {
		cfg.CkptEpoch = DefaultCkptEpoch
	}
	if cfg.SampleDir == "" {
		cfg.SampleDir = DefaultSampleDir
	}
	if cfg.NSamples == 0 {
		cfg.NSamples = DefaultNSamples
	}
	if cfg.SampleMethod == "" {
		cfg.SampleMethod = DefaultSampleMethod
	}
	if cfg.DecodeMethod == "" {
		cfg.DecodeMethod = DefaultDecodeMethod
	}
	if cfg.Temp == 0 {
		cfg.Temp = DefaultTemp
	}
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MaxLength == 0 {
		cfg.MaxLength = DefaultMaxLength
	}
	if cfg.MaxHeavyAtoms == 0 {
		cfg.MaxHeavyAtoms = DefaultMaxHeavyAtoms
	}

	if cfg.Model.Timeout == 0 {
		cfg.Model.Timeout = DefaultServiceTimeout
	}
	if cfg.Conformer.Timeout == 0 {
		cfg.Conformer.Timeout = DefaultServiceTimeout
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	if cfg.Metrics.JobName == "" {
		cfg.Metrics.JobName = DefaultMetricsJob
	}
}
