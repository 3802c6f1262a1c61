package data

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ducminhle1904/dca-strategy-wizard/internal/errors"
)

const (
	httpComponent = "catalog-http"
	maxBodyBytes  = 4 << 20
)

// HTTPConfig holds the settings for the catalog service client
type HTTPConfig struct {
	BaseURL      string
	ReadTimeout  time.Duration
	ProbeTimeout time.Duration
}

// HTTPProvider talks to the catalog service. Every call carries a hard
// timeout; a timeout surfaces as a TIMEOUT error, other transport failures
// as NETWORK.
type HTTPProvider struct {
	baseURL      string
	client       *http.Client
	readTimeout  time.Duration
	probeTimeout time.Duration
}

// NewHTTPProvider creates a provider; a nil client uses a default one
func NewHTTPProvider(cfg HTTPConfig, client *http.Client) *HTTPProvider {
	if client == nil {
		client = &http.Client{}
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = DefaultProbeTimeout
	}
	return &HTTPProvider{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		client:       client,
		readTimeout:  cfg.ReadTimeout,
		probeTimeout: cfg.ProbeTimeout,
	}
}

// BaseURL returns the service root
func (p *HTTPProvider) BaseURL() string {
	return p.baseURL
}

// Fetch issues a GET for path. With a non-empty etag the request carries
// If-None-Match and a 304 answer comes back as NotModified with no payload.
func (p *HTTPProvider) Fetch(ctx context.Context, path, etag string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, p.readTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return nil, errors.NewConfigurationError(httpComponent, "fetch", err.Error())
	}
	req.Header.Set("Accept", "application/json")
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, err, "fetch").WithContext("path", path)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		io.Copy(io.Discard, resp.Body)
		tag := resp.Header.Get("ETag")
		if tag == "" {
			tag = etag
		}
		return &Response{ETag: tag, NotModified: true}, nil

	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.NewNotFoundError(httpComponent, "fetch", fmt.Sprintf("%s not found", path)).
			WithContext("status", resp.StatusCode)

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, classifyTransportError(ctx, err, "read body").WithContext("path", path)
		}
		return &Response{Payload: body, ETag: resp.Header.Get("ETag")}, nil

	default:
		return nil, errors.NewNetworkError(httpComponent, "fetch",
			fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)).
			WithContext("status", resp.StatusCode)
	}
}

// Probe calls the liveness endpoint with the short probe timeout
func (p *HTTPProvider) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+HealthPath, nil)
	if err != nil {
		return errors.NewConfigurationError(httpComponent, "probe", err.Error())
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return classifyTransportError(ctx, err, "probe")
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.NewNetworkError(httpComponent, "probe", fmt.Errorf("health returned status %d", resp.StatusCode))
	}
	return nil
}

// PostJSON sends body as JSON to path and decodes the response into out
func (p *HTTPProvider) PostJSON(ctx context.Context, path string, body, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, p.readTimeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return errors.NewDecodeError(httpComponent, "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.NewConfigurationError(httpComponent, "post", err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return classifyTransportError(ctx, err, "post").WithContext("path", path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return errors.NewNetworkError(httpComponent, "post",
			fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)).
			WithContext("status", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return errors.NewDecodeError(httpComponent, "decode response", err).WithContext("path", path)
	}
	return nil
}

func classifyTransportError(ctx context.Context, err error, operation string) *errors.EngineError {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.NewTimeoutError(httpComponent, operation, err)
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return errors.NewTimeoutError(httpComponent, operation, err)
	}
	return errors.CategorizeError(err, httpComponent, operation)
}

func escapeSegment(s string) string {
	return url.PathEscape(s)
}
