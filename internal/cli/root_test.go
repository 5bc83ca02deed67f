package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(args ...string) (string, error) {
	cmd := NewRootCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommand_Help(t *testing.T) {
	out, err := execute("--help")
	require.NoError(t, err)
	assert.Contains(t, out, "molgen")
	assert.Contains(t, out, "gen")
}

func TestRootCommand_Version(t *testing.T) {
	out, err := execute("--version")
	require.NoError(t, err)
	assert.Contains(t, out, "dev")
}

func TestGenCommand_RequiresName(t *testing.T) {
	_, err := execute("gen")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")
}

func TestGenCommand_UnknownFlag(t *testing.T) {
	_, err := execute("gen", "--name", "qm9", "--bogus")
	assert.Error(t, err)
}

func TestGenCommand_InvalidSampleMethod(t *testing.T) {
	_, err := execute("gen",
		"--name", "qm9",
		"--model-url", "http://localhost:9090",
		"--sample-method", "sideways")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sample_method")
}

func TestGenCommand_CoherenceNeedsConformer(t *testing.T) {
	_, err := execute("gen",
		"--name", "qm9",
		"--model-url", "http://localhost:9090",
		"--calc-coherence")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conformer")
}
