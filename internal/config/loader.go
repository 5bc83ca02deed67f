package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix for all run settings.
const envPrefix = "MOLGEN"

// newViper builds a pre-configured viper instance: YAML file type, MOLGEN_
// env prefix, automatic env binding, and a key replacer mapping "." to "_"
// so that nested keys like "model.base_url" resolve to
// MOLGEN_MODEL_BASE_URL.  Defaults are registered here rather than filled
// into zero-value struct fields so that an explicitly configured zero (for
// example n_perturbations: 0) survives unmarshalling.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dataset", DefaultDataset)
	v.SetDefault("ckpt_epoch", DefaultCkptEpoch)
	v.SetDefault("sample_dir", DefaultSampleDir)
	v.SetDefault("n_samples", DefaultNSamples)
	v.SetDefault("sample_method", DefaultSampleMethod)
	v.SetDefault("decode_method", DefaultDecodeMethod)
	v.SetDefault("temp", DefaultTemp)
	v.SetDefault("n_perturbations", DefaultNPerturbations)
	v.SetDefault("radius", DefaultRadius)
	v.SetDefault("data_dir", DefaultDataDir)
	v.SetDefault("batch_size", DefaultBatchSize)
	v.SetDefault("max_length", DefaultMaxLength)
	v.SetDefault("max_heavy_atoms", DefaultMaxHeavyAtoms)
	v.SetDefault("model.timeout", DefaultServiceTimeout)
	v.SetDefault("conformer.timeout", DefaultServiceTimeout)
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
	v.SetDefault("metrics.job_name", DefaultMetricsJob)
}

// Load reads the YAML file at configPath, merges MOLGEN_* environment
// variable overrides, applies defaults for unset fields, and validates the
// result.
func Load(configPath string) (*GenConfig, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}
	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a GenConfig entirely from MOLGEN_* environment
// variables, with no config file required.
func LoadFromEnv() (*GenConfig, error) {
	return unmarshalAndFinalize(newViper())
}

// FromMap builds a GenConfig from explicit settings, typically collected
// from command-line flags.  Environment variables still fill unset keys.
func FromMap(settings map[string]interface{}) (*GenConfig, error) {
	v := newViper()
	for key, value := range settings {
		v.Set(key, value)
	}
	return unmarshalAndFinalize(v)
}

func unmarshalAndFinalize(v *viper.Viper) (*GenConfig, error) {
	cfg := &GenConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}
