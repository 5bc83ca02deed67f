package vagrant

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

const defaultTimeout = 5 * time.Minute

// Client is an HTTP implementation of Model against a Vagrant serving
// endpoint.  Every request names the checkpoint so the server can lazily load
// the requested model state.
type Client struct {
	baseURL    string
	ckpt       Checkpoint
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

// NewClient validates baseURL and constructs a serving client bound to the
// given checkpoint.
func NewClient(baseURL string, ckpt Checkpoint, logger logging.Logger, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.InvalidParam("serving base URL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, errors.InvalidParam("serving base URL must be http or https")
	}
	if ckpt.Name == "" {
		return nil, errors.InvalidParam("checkpoint name is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		ckpt:       ckpt,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger.Named("vagrant"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type encodeRequest struct {
	Checkpoint Checkpoint  `json:"checkpoint"`
	Batch      *GraphBatch `json:"batch"`
}

type samplePriorRequest struct {
	Checkpoint Checkpoint `json:"checkpoint"`
	N          int        `json:"n"`
}

type samplePriorResponse struct {
	Latents [][]float64 `json:"latents"`
}

type decodeRequest struct {
	Checkpoint Checkpoint    `json:"checkpoint"`
	Latents    [][]float64   `json:"latents"`
	Options    DecodeOptions `json:"options"`
}

// Encode implements Model.
func (c *Client) Encode(ctx context.Context, batch *GraphBatch) (*EncodedBatch, error) {
	if batch.Len() == 0 {
		return &EncodedBatch{}, nil
	}
	var out EncodedBatch
	if err := c.post(ctx, "/v1/vagrant/encode", encodeRequest{Checkpoint: c.ckpt, Batch: batch}, &out); err != nil {
		return nil, errors.Wrap(err, errors.CodeEncodeFailed, "encode request failed")
	}
	if len(out.Mean) != batch.Len() {
		return nil, errors.Newf(errors.CodeEncodeFailed,
			"encoder returned %d means for %d molecules", len(out.Mean), batch.Len())
	}
	if err := checkLatentDims(out.Mean); err != nil {
		return nil, err
	}
	return &out, nil
}

// SamplePrior implements Model.
func (c *Client) SamplePrior(ctx context.Context, n int) ([][]float64, error) {
	if n <= 0 {
		return nil, errors.InvalidParam("sample count must be positive")
	}
	var out samplePriorResponse
	if err := c.post(ctx, "/v1/vagrant/sample_prior", samplePriorRequest{Checkpoint: c.ckpt, N: n}, &out); err != nil {
		return nil, errors.Wrap(err, errors.CodeServingUnavailable, "prior sampling request failed")
	}
	if len(out.Latents) != n {
		return nil, errors.Newf(errors.CodeServingUnavailable,
			"prior returned %d latents, expected %d", len(out.Latents), n)
	}
	if err := checkLatentDims(out.Latents); err != nil {
		return nil, err
	}
	return out.Latents, nil
}

// Decode implements Model.
func (c *Client) Decode(ctx context.Context, latents [][]float64, opts DecodeOptions) (*DecodeResult, error) {
	if len(latents) == 0 {
		return &DecodeResult{}, nil
	}
	if !opts.Method.IsValid() {
		return nil, errors.Newf(errors.CodeInvalidParam, "unknown decode method %q", opts.Method)
	}
	var out DecodeResult
	if err := c.post(ctx, "/v1/vagrant/decode", decodeRequest{Checkpoint: c.ckpt, Latents: latents, Options: opts}, &out); err != nil {
		return nil, errors.Wrap(err, errors.CodeDecodeFailed, "decode request failed")
	}
	if len(out.SMILES) != len(latents) {
		return nil, errors.Newf(errors.CodeDecodeFailed,
			"decoder returned %d molecules for %d latents", len(out.SMILES), len(latents))
	}
	if out.Properties != nil && len(out.Properties) != len(latents) {
		return nil, errors.Newf(errors.CodeDecodeFailed,
			"decoder returned %d property rows for %d latents", len(out.Properties), len(latents))
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.CodeServingUnavailable, "serving endpoint unreachable")
	}
	defer resp.Body.Close()

	c.logger.Debug("serving call",
		logging.String("path", path),
		logging.Int("status", resp.StatusCode),
		logging.Duration("elapsed", time.Since(start)))

	if resp.StatusCode == http.StatusNotFound {
		return errors.Newf(errors.CodeCheckpointMissing,
			"checkpoint %s not available at serving endpoint", c.ckpt.Path())
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.Newf(errors.CodeServingUnavailable,
			"serving endpoint returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func checkLatentDims(vecs [][]float64) error {
	for i, v := range vecs {
		if len(v) != LatentDim {
			return errors.Newf(errors.CodeServingUnavailable,
				"latent %d has dimension %d, expected %d", i, len(v), LatentDim)
		}
	}
	return nil
}
