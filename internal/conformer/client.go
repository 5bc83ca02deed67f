package conformer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vagrantlab/molgen/internal/logging"
	"github.com/vagrantlab/molgen/pkg/errors"
)

const defaultTimeout = 10 * time.Minute

// Client calls an HTTP conformer-generation service.  Reconstruction of large
// batches is slow (per-molecule force-field embedding), hence the generous
// default timeout.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logging.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient substitutes the underlying HTTP client, primarily for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient validates baseURL and constructs a conformer client.
func NewClient(baseURL string, logger logging.Logger, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.InvalidParam("conformer base URL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, errors.InvalidParam("conformer base URL must be http or https")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger.Named("conformer"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type reconstructRequest struct {
	SMILES    []string `json:"smiles"`
	Species   []int    `json:"species"`
	BondTypes []int    `json:"bond_types"`
}

// Reconstruct implements Reconstructor.  The response must contain one row
// per input SMILES; anything else indicates a protocol violation and fails
// the call.
func (c *Client) Reconstruct(ctx context.Context, smiles []string, species []int, bondTypes []int) (*Result, error) {
	if len(smiles) == 0 {
		return &Result{}, nil
	}

	body, err := json.Marshal(reconstructRequest{SMILES: smiles, Species: species, BondTypes: bondTypes})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/conformers/reconstruct", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeReconstruction, "conformer endpoint unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, errors.Newf(errors.CodeReconstruction,
			"conformer endpoint returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out Result
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Rows) != len(smiles) {
		return nil, errors.Newf(errors.CodeReconstruction,
			"conformer service returned %d rows for %d molecules", len(out.Rows), len(smiles))
	}

	survived := len(out.Survivors())
	c.logger.Debug("reconstruction batch",
		logging.Int("molecules", len(smiles)),
		logging.Int("survived", survived),
		logging.Duration("elapsed", time.Since(start)))

	return &out, nil
}
