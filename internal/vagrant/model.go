// Package vagrant defines the contract with the Vagrant generative model and
// an HTTP client for a deployed model-serving endpoint.  The encoder/decoder
// network itself is external; this package only fixes the interface the
// generation pipeline depends on.
package vagrant

import (
	"context"
	"fmt"
	"path/filepath"
)

// LatentDim is the fixed dimensionality of the Vagrant latent space.
const LatentDim = 128

// DecodeMethod selects the decoding strategy used when turning latent vectors
// back into SMILES strings.
type DecodeMethod string

const (
	// DecodeGreedy picks the argmax token at every step.
	DecodeGreedy DecodeMethod = "greedy"
	// DecodeTemp samples tokens at the configured temperature.
	DecodeTemp DecodeMethod = "temp"
)

// IsValid reports whether m is a recognised decode method.
func (m DecodeMethod) IsValid() bool {
	return m == DecodeGreedy || m == DecodeTemp
}

// Checkpoint identifies a trained model state by run name and epoch tag.
type Checkpoint struct {
	Name  string `json:"name"`
	Epoch string `json:"epoch"`
}

// Path returns the conventional checkpoint file location,
// checkpoints/<name>/<epoch>_<name>.ckpt.
func (c Checkpoint) Path() string {
	return filepath.Join(c.Dir(), fmt.Sprintf("%s_%s.ckpt", c.Epoch, c.Name))
}

// Dir returns the per-run checkpoint directory, which also holds run
// artifacts such as the cached training latent means.
func (c Checkpoint) Dir() string {
	return filepath.Join("checkpoints", c.Name)
}

// GraphBatch is a batch of molecules in the tensor layout the encoder
// consumes: 3-D positions, integer atomic numbers, one-hot atom types and
// one-hot bond orders.  Molecules are padded to the longest entry; NumNodes
// records the true size of each.
type GraphBatch struct {
	Positions  [][][]float64 `json:"positions"`
	Charges    [][]int       `json:"charges"`
	AtomOneHot [][][]float64 `json:"atom_one_hot"`
	BondOneHot [][][]float64 `json:"bond_one_hot"`
	NumNodes   []int         `json:"num_nodes"`
}

// Len returns the number of molecules in the batch.
func (b *GraphBatch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.NumNodes)
}

// Slice returns the sub-batch covering molecules [lo, hi).
func (b *GraphBatch) Slice(lo, hi int) *GraphBatch {
	return &GraphBatch{
		Positions:  b.Positions[lo:hi],
		Charges:    b.Charges[lo:hi],
		AtomOneHot: b.AtomOneHot[lo:hi],
		BondOneHot: b.BondOneHot[lo:hi],
		NumNodes:   b.NumNodes[lo:hi],
	}
}

// EncodedBatch is the encoder output: one mean and log-variance vector of
// length LatentDim per molecule.
type EncodedBatch struct {
	Mean   [][]float64 `json:"mean"`
	LogVar [][]float64 `json:"logvar"`
}

// DecodeOptions configures a decode call.
type DecodeOptions struct {
	Method      DecodeMethod `json:"method"`
	Temperature float64      `json:"temperature"`
}

// DecodeResult is the decoder output for a batch of latents, one SMILES
// string per latent plus the property head's predictions.  Properties is nil
// when the model was loaded without property prediction.
type DecodeResult struct {
	SMILES     []string    `json:"smiles"`
	Properties [][]float64 `json:"properties"`
}

// Model is the generation pipeline's view of the Vagrant network.  All three
// calls are blocking; a failure aborts the run, no retry policy applies.
type Model interface {
	// Encode maps a molecule batch to latent means and log-variances.
	Encode(ctx context.Context, batch *GraphBatch) (*EncodedBatch, error)

	// SamplePrior draws n latent vectors from the model prior.
	SamplePrior(ctx context.Context, n int) ([][]float64, error)

	// Decode maps latent vectors to SMILES strings and predicted properties.
	Decode(ctx context.Context, latents [][]float64, opts DecodeOptions) (*DecodeResult, error)
}
