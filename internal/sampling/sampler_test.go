package sampling

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vagrantlab/molgen/internal/latent"
	"github.com/vagrantlab/molgen/internal/logging"
	"github.com/vagrantlab/molgen/internal/testutil"
	"github.com/vagrantlab/molgen/internal/vagrant"
	"github.com/vagrantlab/molgen/pkg/errors"
)

func TestMethod_IsValid(t *testing.T) {
	assert.True(t, MethodDirect.IsValid())
	assert.True(t, MethodRobust.IsValid())
	assert.False(t, Method("beam").IsValid())
}

func TestDirectSampler_Sample(t *testing.T) {
	model := &testutil.StubModel{}
	s := NewDirectSampler(model, logging.NewNopLogger())

	res, err := s.Sample(context.Background(), 5, Options{
		Decode: vagrant.DecodeOptions{Method: vagrant.DecodeGreedy},
	})
	require.NoError(t, err)
	assert.Len(t, res.SMILES, 5)
	assert.Len(t, res.Properties, 5)
	assert.Len(t, res.Latents, 5)
	assert.Equal(t, 1, model.PriorCalls)
	for _, sm := range res.SMILES {
		assert.NotEmpty(t, sm)
	}
}

func TestDirectSampler_FromLatents(t *testing.T) {
	model := &testutil.StubModel{}
	s := NewDirectSampler(model, logging.NewNopLogger())

	supplied := testutil.Latents(3)
	res, err := s.Sample(context.Background(), 3, Options{
		Decode:      vagrant.DecodeOptions{Method: vagrant.DecodeGreedy},
		FromLatents: supplied,
	})
	require.NoError(t, err)
	assert.Equal(t, supplied, res.Latents)
	assert.Equal(t, 0, model.PriorCalls, "supplied latents must bypass the prior")

	_, err = s.Sample(context.Background(), 2, Options{FromLatents: supplied})
	assert.Error(t, err, "count/latents mismatch")
}

func TestDirectSampler_InvalidCount(t *testing.T) {
	s := NewDirectSampler(&testutil.StubModel{}, logging.NewNopLogger())
	_, err := s.Sample(context.Background(), 0, Options{})
	assert.Error(t, err)
}

// fullProfile returns a profile where the first half of dimensions are high
// entropy and the rest low.
func fullProfile() *latent.Profile {
	entropy := make([]float64, vagrant.LatentDim)
	for d := 0; d < vagrant.LatentDim/2; d++ {
		entropy[d] = 6.0
	}
	return latent.NewProfile(entropy, latent.EntropyThreshold)
}

func TestRobustSampler_ZeroPerturbationsDegeneratesToDirect(t *testing.T) {
	model := &testutil.StubModel{}
	s, err := NewRobustSampler(model, fullProfile(), RobustConfig{NPerturbations: 0, Radius: 0.1}, logging.NewNopLogger())
	require.NoError(t, err)

	res, err := s.Sample(context.Background(), 4, Options{
		Decode: vagrant.DecodeOptions{Method: vagrant.DecodeGreedy},
	})
	require.NoError(t, err)
	assert.Len(t, res.SMILES, 4)
	assert.Len(t, res.Latents, 4)
}

func TestRobustSampler_PerturbsOnlyHighEntropyDims(t *testing.T) {
	profile := fullProfile()
	var decodedLatents [][]float64
	model := &testutil.StubModel{
		DecodeFn: func(_ context.Context, latents [][]float64, _ vagrant.DecodeOptions) (*vagrant.DecodeResult, error) {
			decodedLatents = append(decodedLatents, latents...)
			res := &vagrant.DecodeResult{}
			for range latents {
				res.SMILES = append(res.SMILES, "C")
			}
			return res, nil
		},
	}

	s, err := NewRobustSampler(model, profile, RobustConfig{NPerturbations: 8, Radius: 0.5}, logging.NewNopLogger())
	require.NoError(t, err)

	res, err := s.Sample(context.Background(), 2, Options{
		Decode: vagrant.DecodeOptions{Method: vagrant.DecodeGreedy},
	})
	require.NoError(t, err)
	assert.Len(t, res.SMILES, 2)
	require.Len(t, decodedLatents, 16)

	low := map[int]bool{}
	for _, d := range profile.Low {
		low[d] = true
	}
	for _, z := range decodedLatents {
		for dim, v := range z {
			if low[dim] {
				assert.Equal(t, 0.0, v, "low-entropy dim %d must stay fixed", dim)
			} else {
				assert.LessOrEqual(t, v, 0.5)
				assert.GreaterOrEqual(t, v, -0.5)
			}
		}
	}
}

func TestRobustSampler_MajorityConsensus(t *testing.T) {
	// Neighbors decode alternately to "CC" (majority) and unique strings.
	call := 0
	model := &testutil.StubModel{
		DecodeFn: func(_ context.Context, latents [][]float64, _ vagrant.DecodeOptions) (*vagrant.DecodeResult, error) {
			res := &vagrant.DecodeResult{}
			for range latents {
				if call%3 == 0 {
					res.SMILES = append(res.SMILES, fmt.Sprintf("unique-%d", call))
				} else {
					res.SMILES = append(res.SMILES, "CC")
				}
				res.Properties = append(res.Properties, []float64{float64(call)})
				call++
			}
			return res, nil
		},
	}

	s, err := NewRobustSampler(model, fullProfile(), RobustConfig{NPerturbations: 9, Radius: 0.1}, logging.NewNopLogger())
	require.NoError(t, err)

	res, err := s.Sample(context.Background(), 1, Options{
		Decode: vagrant.DecodeOptions{Method: vagrant.DecodeGreedy},
	})
	require.NoError(t, err)
	require.Len(t, res.SMILES, 1)
	assert.Equal(t, "CC", res.SMILES[0])
	assert.Len(t, res.Properties, 1)
}

func TestRobustSampler_TieBreakNearestToSeed(t *testing.T) {
	seed := make([]float64, vagrant.LatentDim)

	// Two candidates with distinct SMILES (a 1-1 tie): the nearer latent
	// must win regardless of decode order.
	candidates := [][]float64{make([]float64, vagrant.LatentDim), make([]float64, vagrant.LatentDim)}
	candidates[0][0] = 3.0
	candidates[1][0] = 0.5
	pick := selectRepresentative(seed, candidates, []string{"far", "near"})
	assert.Equal(t, 1, pick)

	pick = selectRepresentative(seed, [][]float64{candidates[1], candidates[0]}, []string{"near", "far"})
	assert.Equal(t, 0, pick)
}

func TestRobustSampler_ConfigValidation(t *testing.T) {
	model := &testutil.StubModel{}
	log := logging.NewNopLogger()

	_, err := NewRobustSampler(model, nil, RobustConfig{}, log)
	assert.Error(t, err)

	_, err = NewRobustSampler(model, fullProfile(), RobustConfig{NPerturbations: -1}, log)
	assert.Error(t, err)

	_, err = NewRobustSampler(model, fullProfile(), RobustConfig{Radius: -0.1}, log)
	assert.Error(t, err)
}

func TestRobustSampler_ConcurrentDecodePreservesOrder(t *testing.T) {
	// Decodes are derived from the latent content, so the output must match
	// the input order even when chunks are decoded concurrently.
	model := &testutil.StubModel{
		DecodeFn: func(_ context.Context, latents [][]float64, _ vagrant.DecodeOptions) (*vagrant.DecodeResult, error) {
			res := &vagrant.DecodeResult{}
			for _, z := range latents {
				res.SMILES = append(res.SMILES, fmt.Sprintf("M%d", int(z[0])))
			}
			return res, nil
		},
	}
	s, err := NewRobustSampler(model, fullProfile(), RobustConfig{
		NPerturbations:  0,
		Radius:          0.1,
		DecodeBatchSize: 2,
		Workers:         4,
	}, logging.NewNopLogger())
	require.NoError(t, err)

	seeds := testutil.Latents(10)
	for i := range seeds {
		seeds[i][0] = float64(i)
	}
	res, err := s.Sample(context.Background(), 10, Options{
		Decode:      vagrant.DecodeOptions{Method: vagrant.DecodeGreedy},
		FromLatents: seeds,
	})
	require.NoError(t, err)
	require.Len(t, res.SMILES, 10)
	for i, sm := range res.SMILES {
		assert.Equal(t, fmt.Sprintf("M%d", i), sm)
	}
}

func TestRobustSampler_MixedPropertyBatchesRejected(t *testing.T) {
	// A decoder that reports properties for some batches but not others
	// would leave the concatenated properties misaligned with SMILES.
	call := 0
	model := &testutil.StubModel{
		DecodeFn: func(_ context.Context, latents [][]float64, _ vagrant.DecodeOptions) (*vagrant.DecodeResult, error) {
			res := &vagrant.DecodeResult{}
			for range latents {
				res.SMILES = append(res.SMILES, "C")
				if call == 0 {
					res.Properties = append(res.Properties, []float64{1.5})
				}
			}
			call++
			return res, nil
		},
	}
	s, err := NewRobustSampler(model, fullProfile(), RobustConfig{
		NPerturbations:  0,
		Radius:          0.1,
		DecodeBatchSize: 2,
	}, logging.NewNopLogger())
	require.NoError(t, err)

	_, err = s.Sample(context.Background(), 6, Options{
		Decode: vagrant.DecodeOptions{Method: vagrant.DecodeGreedy},
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeDecodeFailed))
}

func TestRobustSampler_Reproducible(t *testing.T) {
	opts := Options{Decode: vagrant.DecodeOptions{Method: vagrant.DecodeGreedy}}
	var runs [][][]float64
	for i := 0; i < 2; i++ {
		var decoded [][]float64
		model := &testutil.StubModel{
			DecodeFn: func(_ context.Context, latents [][]float64, _ vagrant.DecodeOptions) (*vagrant.DecodeResult, error) {
				decoded = append(decoded, latents...)
				res := &vagrant.DecodeResult{}
				for range latents {
					res.SMILES = append(res.SMILES, "C")
				}
				return res, nil
			},
		}
		s, err := NewRobustSampler(model, fullProfile(), RobustConfig{NPerturbations: 4, Radius: 0.2, Seed: 7}, logging.NewNopLogger())
		require.NoError(t, err)
		_, err = s.Sample(context.Background(), 2, opts)
		require.NoError(t, err)
		runs = append(runs, decoded)
	}
	assert.Equal(t, runs[0], runs[1])
}
