package dataset

import (
	"math"

	"github.com/vagrantlab/molgen/pkg/errors"
)

// propKey maps the short property names accepted on the command line to the
// column headers used in the dataset CSV files.
var propKey = map[string]string{
	"homo":   "DFT_HOMO_ENERGY",
	"lumo":   "DFT_LUMO_ENERGY",
	"gap":    "DFT_HOMO_LUMO_GAP",
	"energy": "DFT_TOTAL_ENERGY",
	"dipole": "DFT_DIPOLE_TOT",
}

// ResolveProperties maps short property names to their CSV column names,
// preserving order.
func ResolveProperties(names []string) ([]string, error) {
	resolved := make([]string, 0, len(names))
	for _, name := range names {
		key, ok := propKey[name]
		if !ok {
			return nil, errors.Newf(errors.CodeInvalidParam, "unknown property %q", name)
		}
		resolved = append(resolved, key)
	}
	return resolved, nil
}

// Stats holds per-property normalization statistics computed over the
// training split.
type Stats struct {
	// Means holds the per-property arithmetic mean.
	Means []float64

	// MADs holds the per-property mean absolute deviation from the mean.
	MADs []float64
}

// ComputeStats derives means and MADs from training property rows.  props is
// row-major, one row per molecule.
func ComputeStats(props [][]float64) (*Stats, error) {
	if len(props) == 0 {
		return &Stats{}, nil
	}
	nProps := len(props[0])
	means := make([]float64, nProps)
	for _, row := range props {
		if len(row) != nProps {
			return nil, errors.New(errors.CodeDatasetLoad, "ragged property rows")
		}
		for j, v := range row {
			means[j] += v
		}
	}
	n := float64(len(props))
	for j := range means {
		means[j] /= n
	}

	mads := make([]float64, nProps)
	for _, row := range props {
		for j, v := range row {
			mads[j] += math.Abs(v - means[j])
		}
	}
	for j := range mads {
		mads[j] /= n
	}
	return &Stats{Means: means, MADs: mads}, nil
}
