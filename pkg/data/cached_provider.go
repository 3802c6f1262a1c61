package data

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ducminhle1904/dca-strategy-wizard/internal/errors"
	"github.com/ducminhle1904/dca-strategy-wizard/internal/logger"
	"github.com/ducminhle1904/dca-strategy-wizard/internal/monitoring"
)

const cacheComponent = "catalog-cache"

// Decoder parses a response payload into the value cached alongside it
type Decoder func(payload []byte) (interface{}, error)

// Result is what a cached request hands back
type Result struct {
	Value     interface{}
	Payload   []byte
	Outcome   Outcome
	FetchedAt time.Time
}

// CachedProvider wraps a Fetcher with the cache policy: fresh entries are
// revalidated with their validator tag, a 304 serves the cached value as is,
// a 200 replaces the entry, and on failure any cached entry (even stale) is
// served with a warning. With nothing cached a failure becomes OFFLINE.
type CachedProvider struct {
	fetcher Fetcher
	cache   EntryCache
	ttl     time.Duration
	now     func() time.Time
	logger  *logger.Logger
}

// NewCachedProvider creates a new cached provider with an in-memory cache
func NewCachedProvider(fetcher Fetcher, ttl time.Duration, log *logger.Logger) *CachedProvider {
	return NewCachedProviderWithCache(fetcher, NewMemoryCache(), ttl, log)
}

// NewCachedProviderWithCache creates a new cached provider with a custom cache
func NewCachedProviderWithCache(fetcher Fetcher, cache EntryCache, ttl time.Duration, log *logger.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &CachedProvider{
		fetcher: fetcher,
		cache:   cache,
		ttl:     ttl,
		now:     time.Now,
		logger:  log,
	}
}

// SetClock replaces the time source; used by tests
func (p *CachedProvider) SetClock(now func() time.Time) {
	p.now = now
}

// Get returns the payload for key, following the cache policy
func (p *CachedProvider) Get(ctx context.Context, key string, decode Decoder) (*Result, error) {
	started := time.Now()
	resource := resourceLabel(key)

	cached, hasCached := p.cache.Get(key)
	now := p.now()

	etag := ""
	if hasCached && IsFresh(cached, now, p.ttl) {
		etag = cached.ETag
	}

	resp, err := p.fetcher.Fetch(ctx, key, etag)
	if err == nil && resp.NotModified {
		if hasCached {
			renewed := cached
			renewed.FetchedAt = now
			if resp.ETag != "" {
				renewed.ETag = resp.ETag
			}
			p.cache.Set(key, renewed)
			monitoring.RecordSync(resource, string(OutcomeNotModified), time.Since(started).Seconds())
			return &Result{Value: cached.Value, Payload: cached.Payload, Outcome: OutcomeNotModified, FetchedAt: now}, nil
		}
		err = errors.NewDecodeError(cacheComponent, "revalidate", fmt.Errorf("not modified without a cached entry for %s", key))
	}

	if err == nil {
		value, decodeErr := decode(resp.Payload)
		if decodeErr == nil {
			p.cache.Set(key, Entry{ETag: resp.ETag, Payload: resp.Payload, FetchedAt: now, Value: value})
			monitoring.RecordSync(resource, string(OutcomeFetched), time.Since(started).Seconds())
			return &Result{Value: value, Payload: resp.Payload, Outcome: OutcomeFetched, FetchedAt: now}, nil
		}
		err = errors.NewDecodeError(cacheComponent, "decode", decodeErr).WithContext("path", key)
	}

	if errors.IsCategory(err, errors.ErrorCategoryNotFound) {
		p.cache.Delete(key)
		monitoring.RecordSync(resource, string(OutcomeError), 0)
		return nil, err
	}

	if hasCached {
		p.logger.LogWarning(fmt.Sprintf("serving stale %s fetched %s ago", key, now.Sub(cached.FetchedAt).Round(time.Second)), err)
		monitoring.RecordSync(resource, string(OutcomeStale), 0)
		return &Result{Value: cached.Value, Payload: cached.Payload, Outcome: OutcomeStale, FetchedAt: cached.FetchedAt}, nil
	}

	monitoring.RecordSync(resource, string(OutcomeOffline), 0)
	offline := errors.NewOfflineError(cacheComponent, "get", "catalog service unreachable and nothing cached").
		WithContext("path", key)
	offline.Underlying = err
	return nil, offline
}

// Probe forwards the liveness probe
func (p *CachedProvider) Probe(ctx context.Context) error {
	return p.fetcher.Probe(ctx)
}

// Cached returns the raw cache entry for key
func (p *CachedProvider) Cached(key string) (Entry, bool) {
	return p.cache.Get(key)
}

func resourceLabel(key string) string {
	if key == IndicatorsPath {
		return "indicators"
	}
	if strings.HasPrefix(key, IndicatorsPath+"/") {
		return "definition"
	}
	return "other"
}
