package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vagrantlab/molgen/pkg/errors"
)

func TestGet_AllVariants(t *testing.T) {
	tests := []struct {
		name     string
		dataset  string
		removeH  bool
		wantH    bool
		wantSize int
	}{
		{name: "qm9_with_h", dataset: "qm9", removeH: false, wantH: true, wantSize: 5},
		{name: "qm9_no_h", dataset: "qm9", removeH: true, wantH: false, wantSize: 4},
		{name: "geom_with_h", dataset: "geom", removeH: false, wantH: true, wantSize: 16},
		{name: "geom_no_h", dataset: "geom", removeH: true, wantH: false, wantSize: 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := Get(tt.dataset, tt.removeH)
			require.NoError(t, err)
			assert.Equal(t, tt.dataset, info.Name)
			assert.Equal(t, tt.wantH, info.WithH)
			assert.Len(t, info.AtomDecoder, tt.wantSize)
		})
	}
}

func TestGet_UnknownDataset(t *testing.T) {
	for _, name := range []string{"", "qmugs", "zinc", "QM9"} {
		_, err := Get(name, false)
		require.Error(t, err, "dataset %q", name)
		assert.True(t, errors.IsCode(err, errors.CodeUnknownDataset))
	}
}

// Encoder and decoder must be exact inverses, and every auxiliary table keyed
// by atom-type index must cover the vocabulary.
func TestVariants_Consistency(t *testing.T) {
	for _, info := range Variants() {
		n := len(info.AtomDecoder)
		assert.Len(t, info.AtomEncoder, n)
		assert.Len(t, info.AtomicNumbers, n)
		assert.Len(t, info.ChargeToIndex, n)
		assert.Len(t, info.Colors, n)
		assert.Len(t, info.Radii, n)

		for sym, idx := range info.AtomEncoder {
			require.GreaterOrEqual(t, idx, 0)
			require.Less(t, idx, n)
			assert.Equal(t, sym, info.AtomDecoder[idx])
		}

		for z, idx := range info.ChargeToIndex {
			require.Less(t, idx, n)
			assert.Equal(t, z, info.AtomicNumbers[idx])
		}

		for idx := range info.AtomTypeHistogram {
			assert.Less(t, idx, n)
		}

		// The hydrogen-stripped QM9 histogram counts heavy atoms only, so
		// its largest key sits below MaxNodes.
		for nodes := range info.NodeHistogram {
			assert.LessOrEqual(t, nodes, info.MaxNodes)
		}
	}
}

func TestBondTypes(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3, 4}, BondTypes)
}
