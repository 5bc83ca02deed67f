// Package latent estimates per-dimension entropy of the Vagrant latent space
// over encoded training molecules and caches the accumulated means matrix.
// The entropy partition gates which dimensions the robust sampler may
// perturb.
package latent

import (
	"context"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/vagrantlab/molgen/internal/logging"
	"github.com/vagrantlab/molgen/internal/vagrant"
	"github.com/vagrantlab/molgen/pkg/errors"
)

const (
	// EntropyThreshold splits latent dimensions into the high-entropy set
	// (safe to perturb) and the low-entropy set (near-degenerate, held
	// fixed during robust sampling).
	EntropyThreshold = 5.0

	// MaxTrainBatches bounds the number of training batches encoded when
	// estimating entropy.
	MaxTrainBatches = 1000

	// entropyBins is the histogram resolution used for the per-dimension
	// empirical distributions.
	entropyBins = 512
)

// Profile partitions the latent dimensions by empirical entropy.  High and
// Low are disjoint, sorted, and together cover every dimension exactly once.
type Profile struct {
	// Entropy holds one estimate per latent dimension.
	Entropy []float64

	// High lists the dimensions with entropy >= the threshold.
	High []int

	// Low lists the dimensions with entropy < the threshold.
	Low []int
}

// NewProfile partitions entropy values at threshold.
func NewProfile(entropy []float64, threshold float64) *Profile {
	p := &Profile{Entropy: entropy}
	for dim, h := range entropy {
		if h >= threshold {
			p.High = append(p.High, dim)
		} else {
			p.Low = append(p.Low, dim)
		}
	}
	return p
}

// CalcEntropy estimates, for each latent dimension, the entropy of the
// empirical distribution of that dimension's values across all molecules.
// Each dimension is binned into an equal-width histogram spanning its
// observed range and the entropy is computed in nats over the normalised
// counts.  A zero-variance dimension places all mass in a single bin and
// yields exactly 0, the estimator's limiting behaviour; no special-casing
// is applied.
func CalcEntropy(means [][]float64) ([]float64, error) {
	if len(means) == 0 {
		return nil, errors.InvalidParam("means matrix is empty")
	}
	dims := len(means[0])
	for i, row := range means {
		if len(row) != dims {
			return nil, errors.Newf(errors.CodeCacheCorrupt,
				"means row %d has %d dimensions, expected %d", i, len(row), dims)
		}
	}

	col := make([]float64, len(means))
	entropy := make([]float64, dims)
	for d := 0; d < dims; d++ {
		for i, row := range means {
			col[i] = row[d]
		}
		entropy[d] = histogramEntropy(col)
	}
	return entropy, nil
}

// histogramEntropy bins values into entropyBins equal-width bins over their
// observed range and returns the entropy in nats of the normalised counts.
func histogramEntropy(values []float64) float64 {
	lo := floats.Min(values)
	hi := floats.Max(values)
	if hi == lo {
		return 0
	}

	counts := make([]float64, entropyBins)
	width := (hi - lo) / float64(entropyBins)
	for _, v := range values {
		bin := int((v - lo) / width)
		if bin >= entropyBins {
			bin = entropyBins - 1
		}
		counts[bin]++
	}

	total := float64(len(values))
	for i := range counts {
		counts[i] /= total
	}
	return stat.Entropy(counts)
}

// BatchSource yields successive encoder batches of training molecules.
// Next returns nil when the source is exhausted.
type BatchSource interface {
	Next(ctx context.Context) (*vagrant.GraphBatch, error)
}

// Estimator accumulates latent means over a bounded number of training
// batches.
type Estimator struct {
	model      vagrant.Model
	logger     logging.Logger
	maxBatches int
}

// NewEstimator constructs an Estimator capped at MaxTrainBatches.
func NewEstimator(model vagrant.Model, logger logging.Logger) *Estimator {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Estimator{
		model:      model,
		logger:     logger.Named("entropy"),
		maxBatches: MaxTrainBatches,
	}
}

// Means encodes training batches until the source is exhausted or the batch
// cap is reached, and returns the concatenated per-molecule latent means in
// input order.
func (e *Estimator) Means(ctx context.Context, source BatchSource) ([][]float64, error) {
	var means [][]float64
	for i := 0; i < e.maxBatches; i++ {
		batch, err := source.Next(ctx)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeDatasetLoad, "reading training batch")
		}
		if batch == nil {
			break
		}

		enc, err := e.model.Encode(ctx, batch)
		if err != nil {
			return nil, err
		}
		means = append(means, enc.Mean...)

		if (i+1)%100 == 0 {
			e.logger.Debug("encoded training batches",
				logging.Int("batches", i+1),
				logging.Int("molecules", len(means)))
		}
	}
	if len(means) == 0 {
		return nil, errors.New(errors.CodeDatasetLoad, "training source yielded no molecules")
	}
	return means, nil
}
