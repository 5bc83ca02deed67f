// Package testutil provides scripted stand-ins for the external model and
// conformer services used throughout the unit tests.
package testutil

import (
	"context"
	"sync"

	"github.com/vagrantlab/molgen/internal/conformer"
	"github.com/vagrantlab/molgen/internal/vagrant"
)

// Latents returns n zero latent vectors of the model's latent dimension.
func Latents(n int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, vagrant.LatentDim)
	}
	return out
}

// SingleAtomBatch builds an encoder batch of n one-atom molecules.
func SingleAtomBatch(n int) *vagrant.GraphBatch {
	b := &vagrant.GraphBatch{}
	for i := 0; i < n; i++ {
		b.Positions = append(b.Positions, [][]float64{{0, 0, 0}})
		b.Charges = append(b.Charges, []int{6})
		b.AtomOneHot = append(b.AtomOneHot, [][]float64{{0, 1, 0, 0, 0}})
		b.BondOneHot = append(b.BondOneHot, [][]float64{{0, 0, 0, 0}})
		b.NumNodes = append(b.NumNodes, 1)
	}
	return b
}

// StubModel implements vagrant.Model with scripted behaviour.  Unset
// functions fall back to deterministic defaults: zero means, zero prior
// latents, and a fixed "C" SMILES with property 0 per decoded latent.
type StubModel struct {
	mu sync.Mutex

	EncodeFn func(ctx context.Context, batch *vagrant.GraphBatch) (*vagrant.EncodedBatch, error)
	PriorFn  func(ctx context.Context, n int) ([][]float64, error)
	DecodeFn func(ctx context.Context, latents [][]float64, opts vagrant.DecodeOptions) (*vagrant.DecodeResult, error)

	EncodeCalls int
	PriorCalls  int
	DecodeCalls int
}

// Encode implements vagrant.Model.
func (s *StubModel) Encode(ctx context.Context, batch *vagrant.GraphBatch) (*vagrant.EncodedBatch, error) {
	s.mu.Lock()
	s.EncodeCalls++
	s.mu.Unlock()
	if s.EncodeFn != nil {
		return s.EncodeFn(ctx, batch)
	}
	return &vagrant.EncodedBatch{
		Mean:   Latents(batch.Len()),
		LogVar: Latents(batch.Len()),
	}, nil
}

// SamplePrior implements vagrant.Model.
func (s *StubModel) SamplePrior(ctx context.Context, n int) ([][]float64, error) {
	s.mu.Lock()
	s.PriorCalls++
	s.mu.Unlock()
	if s.PriorFn != nil {
		return s.PriorFn(ctx, n)
	}
	return Latents(n), nil
}

// Decode implements vagrant.Model.
func (s *StubModel) Decode(ctx context.Context, latents [][]float64, opts vagrant.DecodeOptions) (*vagrant.DecodeResult, error) {
	s.mu.Lock()
	s.DecodeCalls++
	s.mu.Unlock()
	if s.DecodeFn != nil {
		return s.DecodeFn(ctx, latents, opts)
	}
	res := &vagrant.DecodeResult{}
	for range latents {
		res.SMILES = append(res.SMILES, "C")
		res.Properties = append(res.Properties, []float64{0})
	}
	return res, nil
}

// StubReconstructor implements conformer.Reconstructor.  SMILES listed in
// Fail are skipped; everything else yields a one-atom geometry.
type StubReconstructor struct {
	Fail  map[string]bool
	Calls int
}

// Reconstruct implements conformer.Reconstructor.
func (s *StubReconstructor) Reconstruct(_ context.Context, smiles []string, _ []int, _ []int) (*conformer.Result, error) {
	s.Calls++
	res := &conformer.Result{}
	for i, sm := range smiles {
		row := conformer.Row{Index: i, SMILES: sm}
		if s.Fail[sm] {
			row.SkipReason = "unparseable SMILES"
		} else {
			row.Geometry = &conformer.Geometry{
				Positions:  [][]float64{{0, 0, 0}},
				Charges:    []int{6},
				AtomOneHot: [][]float64{{0, 1, 0, 0, 0}},
				BondOneHot: [][]float64{{0, 0, 0, 0}},
			}
		}
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

// SliceBatchSource yields a fixed sequence of batches, then nil.
type SliceBatchSource struct {
	Batches []*vagrant.GraphBatch
	next    int
}

// Next implements latent.BatchSource.
func (s *SliceBatchSource) Next(_ context.Context) (*vagrant.GraphBatch, error) {
	if s.next >= len(s.Batches) {
		return nil, nil
	}
	b := s.Batches[s.next]
	s.next++
	return b, nil
}
