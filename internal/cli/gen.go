package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vagrantlab/molgen/internal/config"
	"github.com/vagrantlab/molgen/internal/conformer"
	"github.com/vagrantlab/molgen/internal/generation"
	"github.com/vagrantlab/molgen/internal/logging"
	"github.com/vagrantlab/molgen/internal/metrics"
	"github.com/vagrantlab/molgen/internal/storage/minio"
	"github.com/vagrantlab/molgen/internal/vagrant"
)

// newGenCommand builds the gen subcommand, which runs one full generation
// pipeline.
func newGenCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Sample molecules and write the generation CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, root)
			if err != nil {
				return err
			}
			return runGen(cmd, cfg)
		},
	}

	f := cmd.Flags()
	f.String("name", "", "experiment tag keying the checkpoint and output directories (required)")
	f.String("dataset", "", "dataset vocabulary the model was trained on (qm9, geom)")
	f.String("ckpt-epoch", "", "checkpoint epoch tag")
	f.String("sample-dir", "", "output directory root")
	f.Int("n-samples", 0, "number of molecules to generate")
	f.String("sample-method", "", "sampling strategy (direct, robust)")
	f.String("decode-method", "", "decoding strategy (greedy, temp)")
	f.Float64("temp", 0, "softmax temperature for temp decoding")
	f.Int("n-perturbations", 0, "neighbors decoded per seed in robust sampling")
	f.Float64("radius", 0, "perturbation half-width in robust sampling")
	f.String("data-dir", "", "directory with train/valid/test CSV splits")
	f.Int("batch-size", 0, "encoder and decoder batch size")
	f.Int("num-workers", 0, "concurrent decode requests (0 = sequential)")
	f.Int("max-length", 0, "drop training SMILES longer than this")
	f.Bool("remove-h", false, "use the hydrogen-free dataset variant")
	f.Int("max-heavy-atoms", 0, "drop training molecules above this heavy-atom count")
	f.StringSlice("properties", nil, "property heads to predict (e.g. homo,gap)")
	f.Bool("calc-coherence", false, "run the reconstruction round-trip evaluation")
	f.String("model-url", "", "Vagrant model server base URL")
	f.String("conformer-url", "", "conformer generator base URL")
	f.Bool("upload", false, "upload run artifacts to object storage")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"name":            "name",
	"dataset":         "dataset",
	"ckpt-epoch":      "ckpt_epoch",
	"sample-dir":      "sample_dir",
	"n-samples":       "n_samples",
	"sample-method":   "sample_method",
	"decode-method":   "decode_method",
	"temp":            "temp",
	"n-perturbations": "n_perturbations",
	"radius":          "radius",
	"data-dir":        "data_dir",
	"batch-size":      "batch_size",
	"num-workers":     "num_workers",
	"max-length":      "max_length",
	"remove-h":        "remove_h",
	"max-heavy-atoms": "max_heavy_atoms",
	"properties":      "properties",
	"calc-coherence":  "calc_coherence",
	"model-url":       "model.base_url",
	"conformer-url":   "conformer.base_url",
	"upload":          "upload.enabled",
}

// resolveConfig layers configuration sources: optional YAML file, MOLGEN_*
// environment variables, then explicitly set flags on top.
func resolveConfig(cmd *cobra.Command, root *rootOptions) (*config.GenConfig, error) {
	settings := map[string]interface{}{}

	if root.configPath != "" {
		v := viper.New()
		v.SetConfigFile(root.configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
		for _, key := range v.AllKeys() {
			settings[key] = v.Get(key)
		}
	}

	f := cmd.Flags()
	for flag, key := range flagKeys {
		if !f.Changed(flag) {
			continue
		}
		switch f.Lookup(flag).Value.Type() {
		case "int":
			settings[key], _ = f.GetInt(flag)
		case "float64":
			settings[key], _ = f.GetFloat64(flag)
		case "bool":
			settings[key], _ = f.GetBool(flag)
		case "stringSlice":
			settings[key], _ = f.GetStringSlice(flag)
		default:
			settings[key], _ = f.GetString(flag)
		}
	}
	if root.logLevel != "" {
		settings["log.level"] = root.logLevel
	}
	if root.logFormat != "" {
		settings["log.format"] = root.logFormat
	}

	return config.FromMap(settings)
}

// runGen wires the external clients and executes the pipeline.
func runGen(cmd *cobra.Command, cfg *config.GenConfig) error {
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	model, err := vagrant.NewClient(cfg.Model.BaseURL, cfg.Checkpoint(), logger,
		vagrant.WithTimeout(cfg.Model.Timeout))
	if err != nil {
		return err
	}

	var recon conformer.Reconstructor
	if cfg.Conformer.BaseURL != "" {
		client, err := conformer.NewClient(cfg.Conformer.BaseURL, logger,
			conformer.WithTimeout(cfg.Conformer.Timeout))
		if err != nil {
			return err
		}
		recon = client
	}

	var uploader generation.Uploader
	if cfg.Upload.Enabled {
		up, err := minio.NewUploader(ctx, minio.Config{
			Endpoint:  cfg.Upload.Endpoint,
			AccessKey: cfg.Upload.AccessKey,
			SecretKey: cfg.Upload.SecretKey,
			Bucket:    cfg.Upload.Bucket,
			UseSSL:    cfg.Upload.UseSSL,
		}, logger)
		if err != nil {
			return err
		}
		uploader = up
	}

	runMetrics := metrics.NewRunMetrics()
	runner := generation.NewRunner(cfg, model, recon, uploader, runMetrics, logger)

	summary, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("generation run complete",
		logging.String("run_id", summary.RunID),
		logging.Int("generated", summary.Generated),
		logging.Int("survivors", summary.Survivors),
		logging.String("output", summary.OutputPath))

	if cfg.Metrics.Enabled {
		pusher := metrics.NewPusher(cfg.Metrics.PushgatewayURL, cfg.Metrics.JobName, cfg.Name, runMetrics)
		if err := pusher.Push(); err != nil {
			// The run itself succeeded; a telemetry failure is not fatal.
			logger.Warn("failed to push run metrics", logging.Err(err))
		}
	}
	return nil
}
