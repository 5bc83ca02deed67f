package conformer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vagrantlab/molgen/pkg/errors"
)

func reconstructServer(t *testing.T, handler func(req reconstructRequest) *Result) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/conformers/reconstruct", r.URL.Path)
		require.NotEmpty(t, r.Header.Get("X-Request-ID"))

		var req reconstructRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NoError(t, json.NewEncoder(w).Encode(handler(req)))
	}))
}

func TestClient_Reconstruct(t *testing.T) {
	srv := reconstructServer(t, func(req reconstructRequest) *Result {
		res := &Result{}
		for i, sm := range req.SMILES {
			row := Row{Index: i, SMILES: sm}
			if sm == "bad" {
				row.SkipReason = "unparseable SMILES"
			} else {
				row.Geometry = &Geometry{
					Positions:  [][]float64{{0, 0, 0}},
					Charges:    []int{6},
					AtomOneHot: [][]float64{{0, 1, 0, 0, 0}},
					BondOneHot: [][]float64{{0, 0, 0, 0}},
				}
			}
			res.Rows = append(res.Rows, row)
		}
		return res
	})
	defer srv.Close()

	c, err := NewClient(srv.URL, nil)
	require.NoError(t, err)

	res, err := c.Reconstruct(context.Background(), []string{"C", "bad", "CCO"}, []int{1, 6, 7, 8, 9}, []int{1, 2, 3, 4})
	require.NoError(t, err)
	require.Len(t, res.Rows, 3)
	assert.Equal(t, []int{0, 2}, res.Survivors())
	assert.Equal(t, []string{"C", "CCO"}, res.SurvivingSMILES())
}

func TestClient_Reconstruct_EmptyInput(t *testing.T) {
	c, err := NewClient("http://localhost:9091", nil)
	require.NoError(t, err)

	res, err := c.Reconstruct(context.Background(), nil, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
}

func TestClient_Reconstruct_RowCountMismatch(t *testing.T) {
	srv := reconstructServer(t, func(req reconstructRequest) *Result {
		return &Result{Rows: []Row{{Index: 0, SMILES: req.SMILES[0]}}}
	})
	defer srv.Close()

	c, err := NewClient(srv.URL, nil)
	require.NoError(t, err)

	_, err = c.Reconstruct(context.Background(), []string{"C", "N"}, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeReconstruction))
}

func TestClient_Reconstruct_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "embedding backend down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, nil)
	require.NoError(t, err)

	_, err = c.Reconstruct(context.Background(), []string{"C"}, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeReconstruction))
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient("", nil)
	assert.Error(t, err)

	_, err = NewClient("ftp://host", nil)
	assert.Error(t, err)
}
