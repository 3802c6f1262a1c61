package advisory

import (
	"context"

	"github.com/ducminhle1904/dca-strategy-wizard/internal/errors"
	"github.com/ducminhle1904/dca-strategy-wizard/pkg/data"
)

// Remote endpoint paths
const (
	ValidatePath = "/v1/conditions/validate"
	SentencePath = "/v1/conditions/sentence"
)

const clientComponent = "advisory-client"

// ValidateResponse is the body of a remote validation answer
type ValidateResponse struct {
	OK     bool     `json:"ok"`
	Errors []string `json:"errors"`
}

// SentenceResponse is the body of a remote sentence answer
type SentenceResponse struct {
	Text string `json:"text"`
}

// Remote is the pair of advisory calls
type Remote interface {
	Validate(ctx context.Context, p Payload) ([]string, error)
	Sentence(ctx context.Context, p Payload) (string, error)
}

// Poster sends a JSON request and decodes the JSON answer
type Poster interface {
	PostJSON(ctx context.Context, path string, body, out interface{}) error
}

// Client calls the remote validator and sentence generator
type Client struct {
	poster Poster
}

// NewClient creates a client; the poster applies the request timeout
func NewClient(poster Poster) *Client {
	return &Client{poster: poster}
}

// NewHTTPClient creates a client over a catalog HTTP provider
func NewHTTPClient(provider *data.HTTPProvider) *Client {
	return NewClient(provider)
}

// Validate returns the remote issues for p. An answer with ok=true and no
// errors yields an empty, non-nil list.
func (c *Client) Validate(ctx context.Context, p Payload) ([]string, error) {
	var resp ValidateResponse
	if err := c.poster.PostJSON(ctx, ValidatePath, p, &resp); err != nil {
		return nil, errors.NewAdvisoryError(clientComponent, "validate", err)
	}
	if resp.Errors == nil {
		return []string{}, nil
	}
	return resp.Errors, nil
}

// Sentence returns the remote description of p
func (c *Client) Sentence(ctx context.Context, p Payload) (string, error) {
	var resp SentenceResponse
	if err := c.poster.PostJSON(ctx, SentencePath, p, &resp); err != nil {
		return "", errors.NewAdvisoryError(clientComponent, "sentence", err)
	}
	return resp.Text, nil
}
