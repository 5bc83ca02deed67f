package vagrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vagrantlab/molgen/internal/logging"
	"github.com/vagrantlab/molgen/pkg/errors"
)

func testCheckpoint() Checkpoint {
	return Checkpoint{Name: "run1", Epoch: "1000"}
}

func zeroLatents(n int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, LatentDim)
	}
	return out
}

func singleAtomBatch(n int) *GraphBatch {
	b := &GraphBatch{}
	for i := 0; i < n; i++ {
		b.Positions = append(b.Positions, [][]float64{{0, 0, 0}})
		b.Charges = append(b.Charges, []int{6})
		b.AtomOneHot = append(b.AtomOneHot, [][]float64{{0, 1, 0, 0, 0}})
		b.BondOneHot = append(b.BondOneHot, [][]float64{{0, 0, 0, 0}})
		b.NumNodes = append(b.NumNodes, 1)
	}
	return b
}

func TestCheckpoint_Path(t *testing.T) {
	ckpt := testCheckpoint()
	assert.Equal(t, "checkpoints/run1/1000_run1.ckpt", ckpt.Path())
	assert.Equal(t, "checkpoints/run1", ckpt.Dir())
}

func TestNewClient_Validation(t *testing.T) {
	log := logging.NewNopLogger()

	_, err := NewClient("", testCheckpoint(), log)
	assert.Error(t, err)

	_, err = NewClient("ftp://host", testCheckpoint(), log)
	assert.Error(t, err)

	_, err = NewClient("http://host", Checkpoint{Epoch: "10"}, log)
	assert.Error(t, err)

	c, err := NewClient("http://host/", testCheckpoint(), nil)
	require.NoError(t, err)
	assert.Equal(t, "http://host", c.baseURL)
}

func TestClient_Encode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/vagrant/encode", r.URL.Path)
		require.NotEmpty(t, r.Header.Get("X-Request-ID"))

		var req encodeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "run1", req.Checkpoint.Name)

		out := EncodedBatch{
			Mean:   zeroLatents(req.Batch.Len()),
			LogVar: zeroLatents(req.Batch.Len()),
		}
		json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, testCheckpoint(), logging.NewNopLogger())
	require.NoError(t, err)

	enc, err := c.Encode(context.Background(), singleAtomBatch(3))
	require.NoError(t, err)
	assert.Len(t, enc.Mean, 3)
	assert.Len(t, enc.Mean[0], LatentDim)
}

func TestClient_Encode_EmptyBatch(t *testing.T) {
	c, err := NewClient("http://unused", testCheckpoint(), logging.NewNopLogger())
	require.NoError(t, err)
	enc, err := c.Encode(context.Background(), &GraphBatch{})
	require.NoError(t, err)
	assert.Empty(t, enc.Mean)
}

func TestClient_Encode_BadDimension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out := EncodedBatch{Mean: [][]float64{{1, 2, 3}}, LogVar: [][]float64{{1, 2, 3}}}
		json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, testCheckpoint(), logging.NewNopLogger())
	_, err := c.Encode(context.Background(), singleAtomBatch(1))
	require.Error(t, err)
}

func TestClient_SamplePrior(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req samplePriorRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		json.NewEncoder(w).Encode(samplePriorResponse{Latents: zeroLatents(req.N)})
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, testCheckpoint(), logging.NewNopLogger())
	z, err := c.SamplePrior(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, z, 7)

	_, err = c.SamplePrior(context.Background(), 0)
	assert.Error(t, err)
}

func TestClient_Decode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req decodeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DecodeGreedy, req.Options.Method)

		out := DecodeResult{
			SMILES:     make([]string, len(req.Latents)),
			Properties: make([][]float64, len(req.Latents)),
		}
		for i := range out.SMILES {
			out.SMILES[i] = "CCO"
			out.Properties[i] = []float64{-0.25}
		}
		json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, testCheckpoint(), logging.NewNopLogger())
	res, err := c.Decode(context.Background(), zeroLatents(4), DecodeOptions{Method: DecodeGreedy})
	require.NoError(t, err)
	assert.Len(t, res.SMILES, 4)
	assert.Equal(t, "CCO", res.SMILES[0])

	_, err = c.Decode(context.Background(), zeroLatents(1), DecodeOptions{Method: "beam"})
	assert.Error(t, err)
}

func TestClient_Decode_ShortProperties(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req decodeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		out := DecodeResult{
			SMILES:     make([]string, len(req.Latents)),
			Properties: [][]float64{{-0.25}},
		}
		json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, testCheckpoint(), logging.NewNopLogger())
	_, err := c.Decode(context.Background(), zeroLatents(3), DecodeOptions{Method: DecodeGreedy})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeDecodeFailed))
}

func TestClient_CheckpointMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, testCheckpoint(), logging.NewNopLogger())
	_, err := c.SamplePrior(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeCheckpointMissing))
}

func TestClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model blew up", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, testCheckpoint(), logging.NewNopLogger())
	_, err := c.SamplePrior(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeServingUnavailable))
}
