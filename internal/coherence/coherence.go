// Package coherence scores encode/decode round-trip fidelity.  A generated
// molecule is reconstructed in 3-D, re-encoded, and re-sampled; incoherence
// quantifies how far the round trip drifted from the original.  Molecules
// whose reconstruction failed receive no score at all.
package coherence

import (
	"gonum.org/v1/gonum/floats"

	"github.com/vagrantlab/molgen/pkg/errors"
)

// Scores computes per-original-molecule incoherence.  The returned slice has
// one entry per originally generated molecule; entries for rows that did not
// survive reconstruction are nil, never zero.  Alignment between originals
// and regenerated molecules follows the survivor index map, not position.
//
// In distance mode the score is the Euclidean distance between the original
// latent and the latent selected when re-sampling from the re-encoded
// vector.  Otherwise the score is binary: 0 when the regenerated SMILES
// matches the original exactly, 1 when it does not.
func Scores(
	genSMILES []string,
	genLatents [][]float64,
	regenSMILES []string,
	regenLatents [][]float64,
	survivors []int,
	dist bool,
) ([]*float64, error) {
	if len(genSMILES) != len(genLatents) {
		return nil, errors.Newf(errors.CodeInvalidParam,
			"%d generated molecules but %d latents", len(genSMILES), len(genLatents))
	}
	if len(regenSMILES) != len(survivors) || len(regenLatents) != len(survivors) {
		return nil, errors.Newf(errors.CodeInvalidParam,
			"%d survivors but %d regenerated molecules and %d latents",
			len(survivors), len(regenSMILES), len(regenLatents))
	}

	out := make([]*float64, len(genSMILES))
	for k, orig := range survivors {
		if orig < 0 || orig >= len(genSMILES) {
			return nil, errors.Newf(errors.CodeReconstruction,
				"survivor index %d out of range for %d molecules", orig, len(genSMILES))
		}
		if out[orig] != nil {
			return nil, errors.Newf(errors.CodeReconstruction,
				"survivor index %d appears twice", orig)
		}

		var score float64
		if dist {
			if len(genLatents[orig]) != len(regenLatents[k]) {
				return nil, errors.Newf(errors.CodeInvalidParam,
					"latent dimension mismatch at survivor %d", orig)
			}
			score = floats.Distance(genLatents[orig], regenLatents[k], 2)
		} else if genSMILES[orig] != regenSMILES[k] {
			score = 1
		}
		s := score
		out[orig] = &s
	}
	return out, nil
}

// Absent returns an all-nil score slice for runs where coherence evaluation
// was skipped.
func Absent(n int) []*float64 {
	return make([]*float64, n)
}
