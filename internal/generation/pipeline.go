// Package generation orchestrates a full sampling run: dataset and entropy
// preparation, molecule sampling, the optional coherence round trip, and
// result persistence.
package generation

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/vagrantlab/molgen/internal/coherence"
	"github.com/vagrantlab/molgen/internal/config"
	"github.com/vagrantlab/molgen/internal/conformer"
	"github.com/vagrantlab/molgen/internal/dataset"
	"github.com/vagrantlab/molgen/internal/latent"
	"github.com/vagrantlab/molgen/internal/logging"
	"github.com/vagrantlab/molgen/internal/metrics"
	"github.com/vagrantlab/molgen/internal/registry"
	"github.com/vagrantlab/molgen/internal/results"
	"github.com/vagrantlab/molgen/internal/sampling"
	"github.com/vagrantlab/molgen/internal/vagrant"
	"github.com/vagrantlab/molgen/pkg/errors"
)

// Uploader pushes run artifacts to object storage after a successful run.
type Uploader interface {
	UploadRun(ctx context.Context, name, runID string, files map[string]string) error
}

// Summary reports what a finished run produced.
type Summary struct {
	RunID      string
	Generated  int
	Survivors  int
	OutputPath string
	CacheHit   bool
}

// Runner wires the pipeline stages together.  The conformer reconstructor
// and uploader are optional; a nil reconstructor restricts the run to direct
// sampling with a warm latent cache and no coherence evaluation.
type Runner struct {
	cfg      *config.GenConfig
	model    vagrant.Model
	recon    conformer.Reconstructor
	uploader Uploader
	metrics  *metrics.RunMetrics
	logger   logging.Logger
}

// NewRunner builds a Runner.  metrics and logger may be nil.
func NewRunner(cfg *config.GenConfig, model vagrant.Model, recon conformer.Reconstructor,
	uploader Uploader, m *metrics.RunMetrics, logger logging.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if m == nil {
		m = metrics.NewRunMetrics()
	}
	return &Runner{
		cfg:      cfg,
		model:    model,
		recon:    recon,
		uploader: uploader,
		metrics:  m,
		logger:   logger.Named("generation"),
	}
}

// Run executes the full pipeline and returns a run summary.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	cfg := r.cfg
	summary := &Summary{RunID: uuid.NewString()}

	info, err := registry.Get(cfg.Dataset, cfg.RemoveH)
	if err != nil {
		return nil, err
	}
	r.logger.Info("starting generation run",
		logging.String("run_id", summary.RunID),
		logging.String("name", cfg.Name),
		logging.String("dataset", cfg.Dataset),
		logging.String("sample_method", cfg.SampleMethod),
		logging.Int("n_samples", cfg.NSamples),
		logging.Bool("remove_h", cfg.RemoveH))

	sampler, err := r.buildSampler(ctx, info, summary)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	gen, err := sampler.Sample(ctx, cfg.NSamples, sampling.Options{Decode: r.decodeOptions()})
	if err != nil {
		return nil, err
	}
	r.metrics.ObserveStage("sampling", start)
	r.metrics.MoleculesGenerated.Add(float64(len(gen.SMILES)))
	summary.Generated = len(gen.SMILES)
	r.logger.Info("sampling finished",
		logging.Int("molecules", len(gen.SMILES)),
		logging.Duration("elapsed", time.Since(start)))

	incoherence, err := r.coherenceScores(ctx, info, sampler, gen, summary)
	if err != nil {
		return nil, err
	}

	props := gen.Properties
	if !cfg.PredictProperty() {
		props = nil
	}
	rows, err := results.Assemble(gen.SMILES, props, incoherence)
	if err != nil {
		return nil, err
	}

	outPath := results.OutputPath(cfg.SampleDir, cfg.Name, cfg.SampleMethod, cfg.CkptEpoch)
	if err := results.Write(outPath, rows); err != nil {
		return nil, err
	}
	summary.OutputPath = outPath
	r.logger.Info("wrote generation results",
		logging.String("path", outPath),
		logging.Int("rows", len(rows)))

	if r.uploader != nil {
		artifacts := map[string]string{
			"gen.csv": outPath,
		}
		if meansPath := latent.MeansPath(cfg.Checkpoint().Dir()); fileExists(meansPath) {
			artifacts[latent.MeansFile] = meansPath
		}
		if err := r.uploader.UploadRun(ctx, cfg.Name, summary.RunID, artifacts); err != nil {
			return nil, err
		}
	}
	return summary, nil
}

// buildSampler constructs the configured sampling strategy.  Robust sampling
// needs the training entropy profile, which may trigger a training-set
// encoding pass when the latent cache is cold.
func (r *Runner) buildSampler(ctx context.Context, info *registry.Info, summary *Summary) (sampling.Sampler, error) {
	switch sampling.Method(r.cfg.SampleMethod) {
	case sampling.MethodDirect:
		return sampling.NewDirectSampler(r.model, r.logger), nil
	case sampling.MethodRobust:
		profile, err := r.entropyProfile(ctx, info, summary)
		if err != nil {
			return nil, err
		}
		return sampling.NewRobustSampler(r.model, profile, sampling.RobustConfig{
			NPerturbations:  r.cfg.NPerturbations,
			Radius:          r.cfg.Radius,
			DecodeBatchSize: r.cfg.BatchSize,
			Workers:         r.cfg.NumWorkers,
		}, r.logger)
	default:
		return nil, errors.Newf(errors.CodeInvalidParam, "unknown sample method %q", r.cfg.SampleMethod)
	}
}

// entropyProfile loads the cached training latent means or computes them by
// encoding the training split, then derives the per-dimension entropy
// profile.
func (r *Runner) entropyProfile(ctx context.Context, info *registry.Info, summary *Summary) (*latent.Profile, error) {
	start := time.Now()
	defer func() { r.metrics.ObserveStage("entropy", start) }()

	cachePath := latent.MeansPath(r.cfg.Checkpoint().Dir())
	means, found, err := latent.LoadMeans(cachePath)
	if err != nil {
		return nil, err
	}
	if found {
		summary.CacheHit = true
		r.metrics.CacheHit.Set(1)
		r.logger.Info("loaded cached training latents",
			logging.String("path", cachePath),
			logging.Int("molecules", len(means)))
	} else {
		if r.recon == nil {
			return nil, errors.New(errors.CodeReconstruction,
				"latent cache is cold and no conformer service is configured")
		}
		r.logger.Info("calculating training latents", logging.String("cache", cachePath))

		means, err = r.computeTrainMeans(ctx, info)
		if err != nil {
			return nil, err
		}
		if err := latent.SaveMeans(cachePath, means); err != nil {
			return nil, err
		}
		r.logger.Info("cached training latents",
			logging.String("path", cachePath),
			logging.Int("molecules", len(means)))
	}

	entropy, err := latent.CalcEntropy(means)
	if err != nil {
		return nil, err
	}
	profile := latent.NewProfile(entropy, latent.EntropyThreshold)
	r.logger.Info("calculated latent entropy",
		logging.Int("high_entropy_dims", len(profile.High)),
		logging.Int("low_entropy_dims", len(profile.Low)))
	return profile, nil
}

// computeTrainMeans encodes the training split through the model encoder,
// reconstructing geometries batch by batch via the conformer service.
func (r *Runner) computeTrainMeans(ctx context.Context, info *registry.Info) ([][]float64, error) {
	props, err := dataset.ResolveProperties(r.cfg.Properties)
	if err != nil {
		return nil, err
	}
	splits, err := dataset.LoadSplits(r.cfg.DataDir, dataset.LoadOptions{
		Properties:    props,
		MaxHeavyAtoms: r.cfg.MaxHeavyAtoms,
		MaxLength:     r.cfg.MaxLength,
	})
	if err != nil {
		return nil, err
	}
	stats, err := dataset.ComputeStats(splits.Train.Props)
	if err != nil {
		return nil, err
	}
	r.logger.Info("loaded dataset splits",
		logging.Int("train", splits.Train.Len()),
		logging.Int("valid", splits.Valid.Len()),
		logging.Int("test", splits.Test.Len()),
		logging.Any("prop_means", stats.Means),
		logging.Any("prop_mads", stats.MADs))

	source := dataset.NewConformerSource(r.recon, info, splits.Train.SMILES, r.cfg.BatchSize, r.logger)
	estimator := latent.NewEstimator(r.model, r.logger)
	means, err := estimator.Means(ctx, source)
	if err != nil {
		return nil, err
	}
	r.metrics.MoleculesDropped.Add(float64(source.Skipped()))
	return means, nil
}

// coherenceScores runs the reconstruction round trip when enabled, returning
// one nullable score per generated molecule.
func (r *Runner) coherenceScores(ctx context.Context, info *registry.Info,
	sampler sampling.Sampler, gen *sampling.Result, summary *Summary) ([]*float64, error) {
	if !r.cfg.CalcCoherence {
		summary.Survivors = len(gen.SMILES)
		return coherence.Absent(len(gen.SMILES)), nil
	}
	if r.recon == nil {
		return nil, errors.New(errors.CodeReconstruction,
			"coherence evaluation requires a conformer service")
	}

	start := time.Now()
	defer func() { r.metrics.ObserveStage("coherence", start) }()

	recon, err := r.recon.Reconstruct(ctx, gen.SMILES, info.AtomicNumbers, registry.BondTypes)
	if err != nil {
		return nil, err
	}
	survivors := recon.Survivors()
	summary.Survivors = len(survivors)
	dropped := len(gen.SMILES) - len(survivors)
	r.metrics.MoleculesDropped.Add(float64(dropped))
	if dropped > 0 {
		r.logger.Warn("molecules dropped during reconstruction",
			logging.Int("dropped", dropped),
			logging.Int("survivors", len(survivors)))
	}
	if len(survivors) == 0 {
		return coherence.Absent(len(gen.SMILES)), nil
	}

	zPrime, err := r.encodeReconstructed(ctx, recon)
	if err != nil {
		return nil, err
	}

	regen, err := sampler.Sample(ctx, len(zPrime), sampling.Options{
		Decode:      r.decodeOptions(),
		FromLatents: zPrime,
	})
	if err != nil {
		return nil, err
	}

	return coherence.Scores(gen.SMILES, gen.Latents, regen.SMILES, regen.Latents, survivors, true)
}

// encodeReconstructed passes the surviving geometries through the encoder in
// batch-size chunks and concatenates the latent means.
func (r *Runner) encodeReconstructed(ctx context.Context, recon *conformer.Result) ([][]float64, error) {
	full := recon.Batch()
	var zPrime [][]float64
	for i := 0; i < full.Len(); i += r.cfg.BatchSize {
		end := i + r.cfg.BatchSize
		if end > full.Len() {
			end = full.Len()
		}
		enc, err := r.model.Encode(ctx, full.Slice(i, end))
		if err != nil {
			return nil, err
		}
		r.metrics.EncodeRequests.Inc()
		zPrime = append(zPrime, enc.Mean...)
	}
	return zPrime, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (r *Runner) decodeOptions() vagrant.DecodeOptions {
	return vagrant.DecodeOptions{
		Method:      vagrant.DecodeMethod(r.cfg.DecodeMethod),
		Temperature: r.cfg.Temp,
	}
}
