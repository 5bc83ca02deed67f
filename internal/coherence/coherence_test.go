package coherence

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vec(vals ...float64) []float64 { return vals }

func TestScores_DistanceMode(t *testing.T) {
	gen := []string{"C", "CC", "CCO"}
	genZ := [][]float64{vec(0, 0), vec(1, 0), vec(0, 1)}

	// Molecule 1 was dropped during reconstruction.
	survivors := []int{0, 2}
	regen := []string{"C", "CCN"}
	regenZ := [][]float64{vec(3, 4), vec(0, 1)}

	scores, err := Scores(gen, genZ, regen, regenZ, survivors, true)
	require.NoError(t, err)
	require.Len(t, scores, 3)

	require.NotNil(t, scores[0])
	assert.InDelta(t, 5.0, *scores[0], 1e-12)
	assert.Nil(t, scores[1])
	require.NotNil(t, scores[2])
	assert.Equal(t, 0.0, *scores[2])
}

func TestScores_IdentityMode(t *testing.T) {
	gen := []string{"C", "CC"}
	genZ := [][]float64{vec(0), vec(0)}
	scores, err := Scores(gen, genZ, []string{"C", "CCO"}, [][]float64{vec(1), vec(2)}, []int{0, 1}, false)
	require.NoError(t, err)
	assert.Equal(t, 0.0, *scores[0])
	assert.Equal(t, 1.0, *scores[1])
}

// Alignment must follow the survivor map even when it is not the identity:
// scramble which originals survive and verify each score lands on its row.
func TestScores_ScrambledSurvivorAlignment(t *testing.T) {
	const n = 20
	gen := make([]string, n)
	genZ := make([][]float64, n)
	for i := range gen {
		gen[i] = string(rune('a' + i))
		genZ[i] = vec(float64(i), 0)
	}

	perm := rand.New(rand.NewSource(3)).Perm(n)
	survivors := perm[:12]
	regen := make([]string, len(survivors))
	regenZ := make([][]float64, len(survivors))
	for k, orig := range survivors {
		regen[k] = gen[orig]
		// Distance from original row i is exactly i.
		regenZ[k] = vec(float64(orig), float64(orig))
	}

	scores, err := Scores(gen, genZ, regen, regenZ, survivors, true)
	require.NoError(t, err)

	surviving := map[int]bool{}
	for _, s := range survivors {
		surviving[s] = true
	}
	nonNil := 0
	for i, sc := range scores {
		if surviving[i] {
			require.NotNil(t, sc, "row %d survived", i)
			assert.InDelta(t, float64(i), *sc, 1e-12, "row %d", i)
			nonNil++
		} else {
			assert.Nil(t, sc, "row %d was dropped", i)
		}
	}
	assert.Equal(t, len(survivors), nonNil)
}

func TestScores_Validation(t *testing.T) {
	_, err := Scores([]string{"C"}, nil, nil, nil, nil, true)
	assert.Error(t, err)

	_, err = Scores([]string{"C"}, [][]float64{vec(0)}, []string{"C"}, [][]float64{vec(0)}, []int{5}, true)
	assert.Error(t, err)

	_, err = Scores([]string{"C"}, [][]float64{vec(0)}, []string{"C", "C"}, [][]float64{vec(0), vec(0)}, []int{0, 0}, true)
	assert.Error(t, err)
}

func TestAbsent(t *testing.T) {
	scores := Absent(3)
	require.Len(t, scores, 3)
	for _, s := range scores {
		assert.Nil(t, s)
	}
}
