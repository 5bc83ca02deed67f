package sampling

import (
	"context"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/vagrantlab/molgen/internal/latent"
	"github.com/vagrantlab/molgen/internal/logging"
	"github.com/vagrantlab/molgen/internal/vagrant"
	"github.com/vagrantlab/molgen/pkg/errors"
)

// RobustConfig tunes the neighborhood-robustness procedure.
type RobustConfig struct {
	// NPerturbations is the number of neighbors decoded per seed.  Zero
	// degenerates to direct sampling of the seeds themselves.
	NPerturbations int

	// Radius bounds the per-dimension perturbation offset.
	Radius float64

	// DecodeBatchSize chunks the neighbor decode calls.  Defaults to 100.
	DecodeBatchSize int

	// Workers bounds concurrent decode requests.  Values below 2 decode
	// sequentially.
	Workers int

	// Seed initialises the perturbation RNG; zero selects a fixed default
	// so runs are reproducible unless told otherwise.
	Seed int64
}

// RobustSampler decodes a perturbed neighborhood around each seed latent and
// keeps a consensus molecule per seed.  Only high-entropy dimensions are
// perturbed: near-degenerate dimensions decode unstably and are held fixed.
//
// The representative is the most frequent SMILES among the decoded
// neighbors; ties are broken by the candidate whose latent lies closest to
// the seed in Euclidean distance.
type RobustSampler struct {
	model   vagrant.Model
	profile *latent.Profile
	cfg     RobustConfig
	rng     *rand.Rand
	logger  logging.Logger
}

// NewRobustSampler constructs a RobustSampler over the given entropy profile.
func NewRobustSampler(model vagrant.Model, profile *latent.Profile, cfg RobustConfig, logger logging.Logger) (*RobustSampler, error) {
	if profile == nil {
		return nil, errors.InvalidParam("entropy profile is required for robust sampling")
	}
	if cfg.NPerturbations < 0 {
		return nil, errors.InvalidParam("perturbation count must be non-negative")
	}
	if cfg.Radius < 0 {
		return nil, errors.InvalidParam("perturbation radius must be non-negative")
	}
	if cfg.DecodeBatchSize <= 0 {
		cfg.DecodeBatchSize = 100
	}
	if cfg.Seed == 0 {
		cfg.Seed = 1
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &RobustSampler{
		model:   model,
		profile: profile,
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		logger:  logger.Named("robust"),
	}, nil
}

// Sample implements Sampler.
func (s *RobustSampler) Sample(ctx context.Context, n int, opts Options) (*Result, error) {
	seeds, err := seedLatents(ctx, s.model, n, opts)
	if err != nil {
		return nil, err
	}

	perSeed := s.cfg.NPerturbations
	if perSeed == 0 {
		// Boundary case: no neighborhood, decode the seeds directly.
		decoded, err := s.decodeChunked(ctx, seeds, opts.Decode)
		if err != nil {
			return nil, err
		}
		return &Result{SMILES: decoded.SMILES, Properties: decoded.Properties, Latents: seeds}, nil
	}

	neighbors := make([][]float64, 0, n*perSeed)
	for _, seed := range seeds {
		for p := 0; p < perSeed; p++ {
			neighbors = append(neighbors, s.perturb(seed))
		}
	}

	decoded, err := s.decodeChunked(ctx, neighbors, opts.Decode)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for i, seed := range seeds {
		lo := i * perSeed
		hi := lo + perSeed
		pick := selectRepresentative(seed, neighbors[lo:hi], decoded.SMILES[lo:hi])

		result.SMILES = append(result.SMILES, decoded.SMILES[lo+pick])
		result.Latents = append(result.Latents, neighbors[lo+pick])
		if decoded.Properties != nil {
			result.Properties = append(result.Properties, decoded.Properties[lo+pick])
		}
	}

	s.logger.Debug("robust sample complete",
		logging.Int("n", n),
		logging.Int("perturbations_per_seed", perSeed))
	return result, nil
}

// perturb returns a copy of seed offset uniformly within [-radius, radius]
// on every high-entropy dimension; low-entropy dimensions are untouched.
func (s *RobustSampler) perturb(seed []float64) []float64 {
	out := make([]float64, len(seed))
	copy(out, seed)
	for _, dim := range s.profile.High {
		out[dim] += (s.rng.Float64()*2 - 1) * s.cfg.Radius
	}
	return out
}

// decodeChunked splits the latents into DecodeBatchSize chunks, decodes them
// with up to Workers concurrent requests, and concatenates the results in
// input order.
func (s *RobustSampler) decodeChunked(ctx context.Context, latents [][]float64, opts vagrant.DecodeOptions) (*vagrant.DecodeResult, error) {
	type span struct{ lo, hi int }
	var spans []span
	for lo := 0; lo < len(latents); lo += s.cfg.DecodeBatchSize {
		hi := lo + s.cfg.DecodeBatchSize
		if hi > len(latents) {
			hi = len(latents)
		}
		spans = append(spans, span{lo, hi})
	}

	chunks := make([]*vagrant.DecodeResult, len(spans))
	errs := make([]error, len(spans))

	workers := s.cfg.Workers
	if workers < 2 {
		for i, sp := range spans {
			chunks[i], errs[i] = s.model.Decode(ctx, latents[sp.lo:sp.hi], opts)
			if errs[i] != nil {
				return nil, errs[i]
			}
		}
	} else {
		sem := make(chan struct{}, workers)
		var wg sync.WaitGroup
		for i, sp := range spans {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int, sp span) {
				defer wg.Done()
				defer func() { <-sem }()
				chunks[i], errs[i] = s.model.Decode(ctx, latents[sp.lo:sp.hi], opts)
			}(i, sp)
		}
		wg.Wait()
		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}
	}

	if len(chunks) == 0 {
		return &vagrant.DecodeResult{}, nil
	}

	// All chunks come from the same checkpoint, so property presence must be
	// uniform; a mix would silently misalign properties against SMILES.
	hasProps := chunks[0].Properties != nil
	out := &vagrant.DecodeResult{}
	for i, chunk := range chunks {
		if (chunk.Properties != nil) != hasProps {
			return nil, errors.Newf(errors.CodeDecodeFailed,
				"decode batch %d property presence disagrees with batch 0", i)
		}
		out.SMILES = append(out.SMILES, chunk.SMILES...)
		if hasProps {
			out.Properties = append(out.Properties, chunk.Properties...)
		}
	}
	return out, nil
}

// selectRepresentative returns the index of the consensus candidate: the
// first decode of the most frequent SMILES, with frequency ties broken by
// smallest Euclidean distance between the candidate latent and the seed.
func selectRepresentative(seed []float64, candidates [][]float64, smiles []string) int {
	counts := make(map[string]int, len(smiles))
	for _, sm := range smiles {
		counts[sm]++
	}

	best := 0
	bestCount := counts[smiles[0]]
	bestDist := floats.Distance(seed, candidates[0], 2)
	for i := 1; i < len(smiles); i++ {
		c := counts[smiles[i]]
		if c < bestCount {
			continue
		}
		d := floats.Distance(seed, candidates[i], 2)
		if c > bestCount || d < bestDist {
			best = i
			bestCount = c
			bestDist = d
		}
	}
	return best
}
