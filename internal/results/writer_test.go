package results

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemble(t *testing.T) {
	smiles := []string{"C", "CCO", "N"}
	props := [][]float64{{1.5}, {-0.25}, {3}}
	half := 0.5
	inc := []*float64{&half, nil, &half}

	rows, err := Assemble(smiles, props, inc)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "CCO", rows[1].SMILES)
	require.NotNil(t, rows[0].PredictedProperty)
	assert.Equal(t, 1.5, *rows[0].PredictedProperty)
	assert.Nil(t, rows[1].Incoherence)
	require.NotNil(t, rows[2].Incoherence)
	assert.Equal(t, 0.5, *rows[2].Incoherence)
}

func TestAssemble_NoProperties(t *testing.T) {
	rows, err := Assemble([]string{"C"}, nil, []*float64{nil})
	require.NoError(t, err)
	assert.Nil(t, rows[0].PredictedProperty)
}

func TestAssemble_LengthMismatch(t *testing.T) {
	_, err := Assemble([]string{"C", "N"}, [][]float64{{1}}, []*float64{nil, nil})
	assert.Error(t, err)

	_, err = Assemble([]string{"C", "N"}, nil, []*float64{nil})
	assert.Error(t, err)
}

func TestOutputPath(t *testing.T) {
	p := OutputPath("samples", "qm9", "robust", "1000")
	assert.Equal(t, filepath.Join("samples", "qm9_robust_1000", "qm9_gen.csv"), p)
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	path := OutputPath(dir, "qm9", "direct", "1000")

	score := 0.125
	prop := 2.5
	rows := []Row{
		{SMILES: "C", PredictedProperty: &prop, Incoherence: &score},
		{SMILES: "CCO"},
	}
	require.NoError(t, Write(path, rows))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "smiles,predicted_property,incoherence", lines[0])
	assert.Equal(t, "C,2.5,0.125", lines[1])
	assert.Equal(t, "CCO,,", lines[2])
}

func TestWrite_Overwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "gen.csv")

	require.NoError(t, Write(path, []Row{{SMILES: "C"}, {SMILES: "N"}}))
	require.NoError(t, Write(path, []Row{{SMILES: "O"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "O,,", lines[1])
}
