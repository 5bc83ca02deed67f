// Package sampling produces new molecules from the Vagrant latent space.
// Two strategies implement a common contract: direct decoding of prior (or
// supplied) latents, and a robustness procedure that decodes perturbed
// neighborhoods of each seed and keeps a consensus molecule.
package sampling

import (
	"context"

	"github.com/vagrantlab/molgen/internal/vagrant"
	"github.com/vagrantlab/molgen/pkg/errors"
)

// Method selects the sampling strategy.
type Method string

const (
	MethodDirect Method = "direct"
	MethodRobust Method = "robust"
)

// IsValid reports whether m is a recognised sampling method.
func (m Method) IsValid() bool {
	return m == MethodDirect || m == MethodRobust
}

// Options configures a single Sample call.
type Options struct {
	// Decode selects the decoding strategy and temperature.
	Decode vagrant.DecodeOptions

	// FromLatents, when non-nil, bypasses prior sampling and uses the
	// supplied vectors as the starting latents.  Its length must equal the
	// requested count.  Used when re-sampling from re-encoded latents
	// during coherence evaluation.
	FromLatents [][]float64
}

// Result holds the sampled molecules.  All three slices have one entry per
// requested molecule; Properties is nil when the model predicts none.
type Result struct {
	SMILES     []string
	Properties [][]float64

	// Latents are the vectors whose decodes produced SMILES.  For robust
	// sampling this is the selected neighbor per seed, not the seed itself.
	Latents [][]float64
}

// Sampler is the common sampling contract.
type Sampler interface {
	// Sample returns exactly n decoded molecules with their predicted
	// properties and the latent vectors used.
	Sample(ctx context.Context, n int, opts Options) (*Result, error)
}

// seedLatents resolves the starting latents for a Sample call: the supplied
// batch when present, otherwise n draws from the model prior.
func seedLatents(ctx context.Context, model vagrant.Model, n int, opts Options) ([][]float64, error) {
	if n <= 0 {
		return nil, errors.InvalidParam("sample count must be positive")
	}
	if opts.FromLatents != nil {
		if len(opts.FromLatents) != n {
			return nil, errors.Newf(errors.CodeInvalidParam,
				"supplied %d latents for %d requested samples", len(opts.FromLatents), n)
		}
		return opts.FromLatents, nil
	}
	return model.SamplePrior(ctx, n)
}
