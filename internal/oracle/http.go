package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/mod/semver"

	"github.com/abhisek/mathverify/internal/verify"
)

// DefaultMinBatchVersion is the first oracle release that serves
// /verify/batch.
const DefaultMinBatchVersion = "v1.2.0"

// maxBody caps how much of a response body is read.
const maxBody = 1 << 20

// HTTPConfig configures an HTTPClient.
type HTTPConfig struct {
	BaseURL         string
	Timeout         time.Duration
	Batch           bool
	MinBatchVersion string
}

// HTTPClient is a Gateway backed by the oracle's JSON-over-HTTP API.
type HTTPClient struct {
	baseURL    string
	timeout    time.Duration
	batch      bool
	minVersion string
	client     *http.Client

	probeOnce sync.Once
	batchOK   bool
	version   string
}

// NewHTTPClient creates an HTTPClient.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("oracle base URL is required")
	}
	minVersion := cfg.MinBatchVersion
	if minVersion == "" {
		minVersion = DefaultMinBatchVersion
	}
	if !strings.HasPrefix(minVersion, "v") {
		minVersion = "v" + minVersion
	}
	if !semver.IsValid(minVersion) {
		return nil, fmt.Errorf("invalid min batch version %q", minVersion)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		timeout:    timeout,
		batch:      cfg.Batch,
		minVersion: minVersion,
		client:     &http.Client{},
	}, nil
}

type singleRequest struct {
	Kind    verify.Kind    `json:"kind"`
	Payload map[string]any `json:"payload"`
}

type batchRequest struct {
	Jobs []Job `json:"jobs"`
}

type batchResponse struct {
	Results []verify.Outcome `json:"results"`
}

type versionResponse struct {
	Version string `json:"version"`
}

func (c *HTTPClient) VerifySingle(ctx context.Context, kind verify.Kind, payload map[string]any) (verify.Outcome, error) {
	var out verify.Outcome
	if err := c.do(ctx, http.MethodPost, "/verify", singleRequest{Kind: kind, Payload: payload}, &out); err != nil {
		return verify.Outcome{}, err
	}
	return out, nil
}

func (c *HTTPClient) VerifyBatch(ctx context.Context, jobs []Job) ([]verify.Outcome, error) {
	var out batchResponse
	if err := c.do(ctx, http.MethodPost, "/verify/batch", batchRequest{Jobs: jobs}, &out); err != nil {
		return nil, err
	}
	if len(out.Results) != len(jobs) {
		return nil, &ErrBadResponse{
			Err: fmt.Errorf("batch returned %d results for %d jobs", len(out.Results), len(jobs)),
		}
	}
	return out.Results, nil
}

// SupportsBatch probes GET /version once and caches the answer. A failed
// probe means no batch support for the lifetime of the client.
func (c *HTTPClient) SupportsBatch(ctx context.Context) bool {
	if !c.batch {
		return false
	}
	c.probeOnce.Do(func() {
		var v versionResponse
		if err := c.do(ctx, http.MethodGet, "/version", nil, &v); err != nil {
			return
		}
		c.version = v.Version
		if !strings.HasPrefix(c.version, "v") {
			c.version = "v" + c.version
		}
		c.batchOK = semver.IsValid(c.version) && semver.Compare(c.version, c.minVersion) >= 0
	})
	return c.batchOK
}

// Version returns the oracle version seen by the batch probe, or "".
func (c *HTTPClient) Version() string {
	return c.version
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &ErrUnavailable{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return &ErrUnavailable{Err: fmt.Errorf("read %s response: %w", path, err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ErrUnavailable{
			Status: resp.StatusCode,
			Err:    fmt.Errorf("%s %s: %s", method, path, strings.TrimSpace(string(data))),
		}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &ErrBadResponse{Body: string(data), Err: err}
	}
	return nil
}
