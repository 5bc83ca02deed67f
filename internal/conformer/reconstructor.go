// Package conformer defines the contract with the external 3-D conformer
// generator and the per-row result model for its fallible batch operation.
// A SMILES string either yields a geometry or is skipped with a reason; one
// bad row never fails the whole batch.
package conformer

import (
	"context"

	"github.com/samber/lo"

	"github.com/vagrantlab/molgen/internal/vagrant"
)

// Geometry is one reconstructed 3-D structure in the tensor layout the
// Vagrant encoder consumes.
type Geometry struct {
	Positions  [][]float64 `json:"positions"`
	Charges    []int       `json:"charges"`
	AtomOneHot [][]float64 `json:"atom_one_hot"`
	BondOneHot [][]float64 `json:"bond_one_hot"`
}

// NumAtoms returns the atom count of the geometry.
func (g *Geometry) NumAtoms() int {
	if g == nil {
		return 0
	}
	return len(g.Positions)
}

// Row is the outcome for a single input SMILES.  Exactly one of Geometry and
// SkipReason is set.
type Row struct {
	// Index is the position of the SMILES in the original input slice.
	Index int `json:"index"`

	SMILES string `json:"smiles"`

	// Geometry is nil when reconstruction failed for this row.
	Geometry *Geometry `json:"geometry,omitempty"`

	// SkipReason explains why the row was dropped (e.g. "unparseable
	// SMILES", "embedding did not converge").
	SkipReason string `json:"skip_reason,omitempty"`
}

// Survived reports whether the row produced a geometry.
func (r Row) Survived() bool { return r.Geometry != nil }

// Result is the outcome of one reconstruction batch.  Rows appear in input
// order and cover every input exactly once.
type Result struct {
	Rows []Row `json:"rows"`
}

// Survivors returns the original indices of the rows that produced a
// geometry, in input order.  This is the index map the coherence evaluator
// and result writer use to keep rows aligned.
func (r *Result) Survivors() []int {
	rows := lo.Filter(r.Rows, func(row Row, _ int) bool { return row.Survived() })
	return lo.Map(rows, func(row Row, _ int) int { return row.Index })
}

// SurvivingSMILES returns the SMILES of the surviving rows, in input order.
func (r *Result) SurvivingSMILES() []string {
	rows := lo.Filter(r.Rows, func(row Row, _ int) bool { return row.Survived() })
	return lo.Map(rows, func(row Row, _ int) string { return row.SMILES })
}

// Batch assembles the surviving geometries into an encoder batch, in
// survivor order.
func (r *Result) Batch() *vagrant.GraphBatch {
	batch := &vagrant.GraphBatch{}
	for _, row := range r.Rows {
		if !row.Survived() {
			continue
		}
		g := row.Geometry
		batch.Positions = append(batch.Positions, g.Positions)
		batch.Charges = append(batch.Charges, g.Charges)
		batch.AtomOneHot = append(batch.AtomOneHot, g.AtomOneHot)
		batch.BondOneHot = append(batch.BondOneHot, g.BondOneHot)
		batch.NumNodes = append(batch.NumNodes, g.NumAtoms())
	}
	return batch
}

// Reconstructor is the external conformer-generation contract.  Species is
// the allowed atomic-number vocabulary, bondTypes the allowed bond orders.
type Reconstructor interface {
	Reconstruct(ctx context.Context, smiles []string, species []int, bondTypes []int) (*Result, error)
}
