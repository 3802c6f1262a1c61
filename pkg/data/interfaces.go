// Package data is the synchronization layer between the wizard and the
// catalog service: conditional fetches, a bounded-lifetime cache and an
// offline path backed by built-in definitions.
package data

import (
	"context"
	"time"

	"github.com/ducminhle1904/dca-strategy-wizard/pkg/catalog"
)

// Remote endpoint paths
const (
	IndicatorsPath = "/v1/indicators"
	HealthPath     = "/health"
)

// Default timing for the synchronization layer
const (
	DefaultReadTimeout  = 5 * time.Second
	DefaultProbeTimeout = 2 * time.Second
	DefaultCacheTTL     = 10 * time.Minute
)

// DefinitionPath returns the endpoint path for one indicator definition
func DefinitionPath(id string) string {
	return IndicatorsPath + "/" + escapeSegment(id)
}

// Response is the result of one conditional GET
type Response struct {
	Payload     []byte
	ETag        string
	NotModified bool
}

// Fetcher performs time-bounded requests against the catalog service
type Fetcher interface {
	// Fetch issues a GET for path; a non-empty etag makes it conditional
	Fetch(ctx context.Context, path, etag string) (*Response, error)

	// Probe checks service liveness
	Probe(ctx context.Context) error
}

// EntryCache stores the last response per request path. Entries are replaced
// whole, never mutated in place.
type EntryCache interface {
	Get(key string) (Entry, bool)
	Set(key string, entry Entry)
	Delete(key string)
	Clear()
	Size() int
}

// DefinitionSource is what the rest of the engine consumes
type DefinitionSource interface {
	ListIndicators(ctx context.Context) ([]catalog.IndicatorSummary, error)
	GetDefinition(ctx context.Context, id string) (*catalog.IndicatorDefinition, error)
}

// Outcome describes how a cached request was satisfied
type Outcome string

const (
	OutcomeFetched     Outcome = "fetched"
	OutcomeNotModified Outcome = "not_modified"
	OutcomeStale       Outcome = "stale"
	OutcomeOffline     Outcome = "offline"
	OutcomeError       Outcome = "error"
)

// Origin describes where a definition handed to callers came from
type Origin string

const (
	OriginRemote   Origin = "remote"
	OriginCache    Origin = "cache"
	OriginFallback Origin = "fallback"
)
