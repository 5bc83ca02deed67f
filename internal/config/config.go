// Package config defines the configuration structures for a generation run.
// No I/O or parsing logic lives here, only plain data types and validation.
package config

import (
	"fmt"
	"time"

	"github.com/vagrantlab/molgen/internal/sampling"
	"github.com/vagrantlab/molgen/internal/vagrant"
)

// ServiceConfig holds the connection settings for one external HTTP
// collaborator (the model server or the conformer generator).
type ServiceConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogConfig holds logging tunables.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
}

// UploadConfig holds the optional object-storage destination for run
// artifacts.
type UploadConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// MetricsConfig holds the optional Pushgateway destination for run metrics.
type MetricsConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	JobName        string `mapstructure:"job_name"`
}

// GenConfig is the full configuration of one generation run.  Instances are
// treated as immutable once loaded.
type GenConfig struct {
	// Name is the experiment tag of the trained run; it keys the checkpoint
	// and output directories and nothing else, so several trained runs of
	// the same dataset can coexist.
	Name string `mapstructure:"name"`

	// Dataset is the registry key ("qm9" or "geom") naming the vocabulary
	// the model was trained on.
	Dataset string `mapstructure:"dataset"`

	// CkptEpoch selects the checkpoint file under the checkpoints
	// directory.
	CkptEpoch string `mapstructure:"ckpt_epoch"`

	// SampleDir is the root output directory for generation results.
	SampleDir string `mapstructure:"sample_dir"`

	// NSamples is the number of molecules to generate.
	NSamples int `mapstructure:"n_samples"`

	// SampleMethod is "direct" or "robust".
	SampleMethod string `mapstructure:"sample_method"`

	// DecodeMethod is "greedy" or "temp".
	DecodeMethod string `mapstructure:"decode_method"`

	// Temp is the softmax temperature used when DecodeMethod is "temp".
	Temp float64 `mapstructure:"temp"`

	// NPerturbations is the neighborhood size for robust sampling.
	NPerturbations int `mapstructure:"n_perturbations"`

	// Radius is the per-dimension perturbation half-width for robust
	// sampling.
	Radius float64 `mapstructure:"radius"`

	// DataDir holds the train/valid/test split CSV files.
	DataDir string `mapstructure:"data_dir"`

	// BatchSize bounds encoder and decoder request sizes.
	BatchSize int `mapstructure:"batch_size"`

	// NumWorkers bounds concurrent decode requests; zero means sequential.
	NumWorkers int `mapstructure:"num_workers"`

	// MaxLength drops training SMILES longer than this many characters.
	MaxLength int `mapstructure:"max_length"`

	// RemoveH selects the hydrogen-free dataset variant.
	RemoveH bool `mapstructure:"remove_h"`

	// MaxHeavyAtoms drops training molecules above this heavy-atom count.
	MaxHeavyAtoms int `mapstructure:"max_heavy_atoms"`

	// Properties lists the property heads to predict; empty disables
	// property prediction.
	Properties []string `mapstructure:"properties"`

	// CalcCoherence enables the reconstruction round-trip evaluation.
	CalcCoherence bool `mapstructure:"calc_coherence"`

	Model     ServiceConfig `mapstructure:"model"`
	Conformer ServiceConfig `mapstructure:"conformer"`
	Log       LogConfig     `mapstructure:"log"`
	Upload    UploadConfig  `mapstructure:"upload"`
	Metrics   MetricsConfig `mapstructure:"metrics"`
}

// PredictProperty reports whether any property head is requested.
func (c *GenConfig) PredictProperty() bool { return len(c.Properties) > 0 }

// Checkpoint returns the checkpoint reference selected by the run.
func (c *GenConfig) Checkpoint() vagrant.Checkpoint {
	return vagrant.Checkpoint{Name: c.Name, Epoch: c.CkptEpoch}
}

// Validate checks cross-field consistency.  It assumes defaults have already
// been applied.
func (c *GenConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config: name is required")
	}
	if c.Dataset == "" {
		return fmt.Errorf("config: dataset is required")
	}
	if c.NSamples <= 0 {
		return fmt.Errorf("config: n_samples must be positive, got %d", c.NSamples)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("config: batch_size must be positive, got %d", c.BatchSize)
	}
	switch sampling.Method(c.SampleMethod) {
	case sampling.MethodDirect, sampling.MethodRobust:
	default:
		return fmt.Errorf("config: sample_method must be %q or %q, got %q",
			sampling.MethodDirect, sampling.MethodRobust, c.SampleMethod)
	}
	if !vagrant.DecodeMethod(c.DecodeMethod).IsValid() {
		return fmt.Errorf("config: decode_method must be %q or %q, got %q",
			vagrant.DecodeGreedy, vagrant.DecodeTemp, c.DecodeMethod)
	}
	if c.Temp <= 0 {
		return fmt.Errorf("config: temp must be positive, got %g", c.Temp)
	}
	if c.NPerturbations < 0 {
		return fmt.Errorf("config: n_perturbations must not be negative, got %d", c.NPerturbations)
	}
	if c.Radius < 0 {
		return fmt.Errorf("config: radius must not be negative, got %g", c.Radius)
	}
	if c.Model.BaseURL == "" {
		return fmt.Errorf("config: model.base_url is required")
	}
	// Robust sampling with a cold latent cache also needs the conformer
	// service, but that depends on on-disk state; the pipeline reports it.
	if c.CalcCoherence && c.Conformer.BaseURL == "" {
		return fmt.Errorf("config: conformer.base_url is required when calc_coherence is set")
	}
	if c.Upload.Enabled {
		if c.Upload.Endpoint == "" || c.Upload.Bucket == "" {
			return fmt.Errorf("config: upload.endpoint and upload.bucket are required when upload is enabled")
		}
	}
	if c.Metrics.Enabled && c.Metrics.PushgatewayURL == "" {
		return fmt.Errorf("config: metrics.pushgateway_url is required when metrics are enabled")
	}
	return nil
}
