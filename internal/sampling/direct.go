package sampling

import (
	"context"

	"github.com/vagrantlab/molgen/internal/logging"
	"github.com/vagrantlab/molgen/internal/vagrant"
)

// DirectSampler decodes each latent exactly once.
type DirectSampler struct {
	model  vagrant.Model
	logger logging.Logger
}

// NewDirectSampler constructs a DirectSampler.
func NewDirectSampler(model vagrant.Model, logger logging.Logger) *DirectSampler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &DirectSampler{model: model, logger: logger.Named("direct")}
}

// Sample implements Sampler.
func (s *DirectSampler) Sample(ctx context.Context, n int, opts Options) (*Result, error) {
	latents, err := seedLatents(ctx, s.model, n, opts)
	if err != nil {
		return nil, err
	}

	decoded, err := s.model.Decode(ctx, latents, opts.Decode)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("direct sample complete", logging.Int("n", n))
	return &Result{
		SMILES:     decoded.SMILES,
		Properties: decoded.Properties,
		Latents:    latents,
	}, nil
}
