package dataset

import (
	"context"

	"github.com/vagrantlab/molgen/internal/conformer"
	"github.com/vagrantlab/molgen/internal/logging"
	"github.com/vagrantlab/molgen/internal/registry"
	"github.com/vagrantlab/molgen/internal/vagrant"
)

// ConformerSource turns a slice of training SMILES into successive encoder
// batches by reconstructing 3-D geometries through the external conformer
// generator.  Molecules the generator cannot embed are skipped; a chunk
// where every molecule fails is skipped entirely rather than yielding an
// empty batch.
type ConformerSource struct {
	recon     conformer.Reconstructor
	info      *registry.Info
	smiles    []string
	batchSize int
	logger    logging.Logger

	pos     int
	skipped int
}

// NewConformerSource builds a source over smiles, chunked by batchSize.
func NewConformerSource(recon conformer.Reconstructor, info *registry.Info, smiles []string, batchSize int, logger logging.Logger) *ConformerSource {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ConformerSource{
		recon:     recon,
		info:      info,
		smiles:    smiles,
		batchSize: batchSize,
		logger:    logger.Named("dataset"),
	}
}

// Next yields the next non-empty encoder batch, or nil when the SMILES are
// exhausted.
func (s *ConformerSource) Next(ctx context.Context) (*vagrant.GraphBatch, error) {
	for s.pos < len(s.smiles) {
		end := s.pos + s.batchSize
		if end > len(s.smiles) {
			end = len(s.smiles)
		}
		chunk := s.smiles[s.pos:end]
		s.pos = end

		result, err := s.recon.Reconstruct(ctx, chunk, s.info.AtomicNumbers, registry.BondTypes)
		if err != nil {
			return nil, err
		}
		dropped := len(chunk) - len(result.Survivors())
		if dropped > 0 {
			s.skipped += dropped
			s.logger.Debug("skipped unreconstructable training molecules",
				logging.Int("dropped", dropped),
				logging.Int("total_skipped", s.skipped))
		}

		batch := result.Batch()
		if batch.Len() == 0 {
			continue
		}
		return batch, nil
	}
	return nil, nil
}

// Skipped reports how many training molecules failed reconstruction so far.
func (s *ConformerSource) Skipped() int { return s.skipped }
