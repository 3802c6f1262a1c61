package data

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/dca-strategy-wizard/internal/errors"
	"github.com/ducminhle1904/dca-strategy-wizard/internal/logger"
)

// fakeFetcher records the validator sent with each request and answers with
// the configured function
type fakeFetcher struct {
	mu       sync.Mutex
	respond  func(path, etag string) (*Response, error)
	etags    []string
	probeErr error
}

func (f *fakeFetcher) Fetch(ctx context.Context, path, etag string) (*Response, error) {
	f.mu.Lock()
	f.etags = append(f.etags, etag)
	respond := f.respond
	f.mu.Unlock()
	return respond(path, etag)
}

func (f *fakeFetcher) Probe(ctx context.Context) error {
	return f.probeErr
}

func (f *fakeFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.etags)
}

func (f *fakeFetcher) lastETag() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.etags[len(f.etags)-1]
}

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

var errUnreachable = errors.NewNetworkError("test", "fetch", stderrors.New("connection refused"))

const rsiPayload = `{"id":"RSI","label":"Relative Strength Index","version":"7","components":["line"],"pairings":[]}`

func countingDecoder(count *int) Decoder {
	return func(payload []byte) (interface{}, error) {
		*count++
		return decodeDefinition(payload)
	}
}

func newTestProvider(f *fakeFetcher) (*CachedProvider, *clock) {
	clk := &clock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	p := NewCachedProvider(f, 10*time.Minute, logger.Nop())
	p.SetClock(clk.Now)
	return p, clk
}

func TestIsFresh(t *testing.T) {
	t0 := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	entry := Entry{FetchedAt: t0}

	assert.True(t, IsFresh(entry, t0, 10*time.Minute))
	assert.True(t, IsFresh(entry, t0.Add(9*time.Minute+59*time.Second), 10*time.Minute))
	assert.False(t, IsFresh(entry, t0.Add(10*time.Minute), 10*time.Minute))
	assert.False(t, IsFresh(Entry{}, t0, 10*time.Minute))
	assert.False(t, IsFresh(entry, t0, 0))
}

func TestCachedProvider_NotModifiedServesCachedBytes(t *testing.T) {
	f := &fakeFetcher{}
	f.respond = func(path, etag string) (*Response, error) {
		if etag == `"v1"` {
			return &Response{NotModified: true}, nil
		}
		return &Response{Payload: []byte(rsiPayload), ETag: `"v1"`}, nil
	}
	p, clk := newTestProvider(f)
	decodes := 0
	path := DefinitionPath("RSI")

	first, err := p.Get(context.Background(), path, countingDecoder(&decodes))
	require.NoError(t, err)
	assert.Equal(t, OutcomeFetched, first.Outcome)
	assert.Equal(t, "", f.lastETag())

	clk.Advance(5 * time.Minute)
	second, err := p.Get(context.Background(), path, countingDecoder(&decodes))
	require.NoError(t, err)

	assert.Equal(t, `"v1"`, f.lastETag())
	assert.Equal(t, OutcomeNotModified, second.Outcome)
	assert.Equal(t, []byte(rsiPayload), second.Payload)
	assert.Same(t, first.Value, second.Value)
	assert.Equal(t, 1, decodes, "a not-modified answer must not be parsed again")

	entry, ok := p.Cached(path)
	require.True(t, ok)
	assert.Equal(t, clk.Now(), entry.FetchedAt)
}

func TestCachedProvider_ExpiredEntryIsRefetchedUnconditionally(t *testing.T) {
	f := &fakeFetcher{}
	f.respond = func(path, etag string) (*Response, error) {
		return &Response{Payload: []byte(rsiPayload), ETag: `"v1"`}, nil
	}
	p, clk := newTestProvider(f)

	_, err := p.Get(context.Background(), IndicatorsPath, decodeSummariesOrRaw)
	require.NoError(t, err)

	clk.Advance(11 * time.Minute)
	result, err := p.Get(context.Background(), IndicatorsPath, decodeSummariesOrRaw)
	require.NoError(t, err)

	assert.Equal(t, "", f.lastETag())
	assert.Equal(t, OutcomeFetched, result.Outcome)
	assert.Equal(t, 2, f.calls())
}

func decodeSummariesOrRaw(payload []byte) (interface{}, error) {
	return string(payload), nil
}

func TestCachedProvider_StaleOnError(t *testing.T) {
	f := &fakeFetcher{}
	f.respond = func(path, etag string) (*Response, error) {
		return &Response{Payload: []byte(rsiPayload), ETag: `"v1"`}, nil
	}
	p, clk := newTestProvider(f)
	t0 := clk.Now()
	path := DefinitionPath("RSI")

	_, err := p.Get(context.Background(), path, decodeDefinition)
	require.NoError(t, err)

	f.respond = func(path, etag string) (*Response, error) {
		return nil, errUnreachable
	}
	clk.Advance(30 * time.Minute)

	result, err := p.Get(context.Background(), path, decodeDefinition)
	require.NoError(t, err)
	assert.Equal(t, OutcomeStale, result.Outcome)
	assert.Equal(t, t0, result.FetchedAt)
	assert.Equal(t, []byte(rsiPayload), result.Payload)
}

func TestCachedProvider_DecodeFailureServesStale(t *testing.T) {
	f := &fakeFetcher{}
	f.respond = func(path, etag string) (*Response, error) {
		return &Response{Payload: []byte(rsiPayload), ETag: `"v1"`}, nil
	}
	p, clk := newTestProvider(f)
	path := DefinitionPath("RSI")

	_, err := p.Get(context.Background(), path, decodeDefinition)
	require.NoError(t, err)

	f.respond = func(path, etag string) (*Response, error) {
		return &Response{Payload: []byte(`{"id":`), ETag: `"v2"`}, nil
	}
	clk.Advance(time.Minute)

	result, err := p.Get(context.Background(), path, decodeDefinition)
	require.NoError(t, err)
	assert.Equal(t, OutcomeStale, result.Outcome)

	entry, _ := p.Cached(path)
	assert.Equal(t, `"v1"`, entry.ETag)
}

func TestCachedProvider_OfflineWithoutCache(t *testing.T) {
	f := &fakeFetcher{respond: func(path, etag string) (*Response, error) {
		return nil, errUnreachable
	}}
	p, _ := newTestProvider(f)

	result, err := p.Get(context.Background(), IndicatorsPath, decodeSummaries)
	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, errors.IsOffline(err))

	var engineErr *errors.EngineError
	require.True(t, stderrors.As(err, &engineErr))
	assert.Equal(t, errUnreachable, engineErr.Underlying)
}

func TestCachedProvider_NotFoundDropsEntry(t *testing.T) {
	f := &fakeFetcher{}
	f.respond = func(path, etag string) (*Response, error) {
		return &Response{Payload: []byte(rsiPayload), ETag: `"v1"`}, nil
	}
	p, clk := newTestProvider(f)
	path := DefinitionPath("RSI")

	_, err := p.Get(context.Background(), path, decodeDefinition)
	require.NoError(t, err)

	f.respond = func(path, etag string) (*Response, error) {
		return nil, errors.NewNotFoundError("test", "fetch", "gone")
	}
	clk.Advance(time.Minute)

	_, err = p.Get(context.Background(), path, decodeDefinition)
	assert.True(t, errors.IsCategory(err, errors.ErrorCategoryNotFound))

	_, ok := p.Cached(path)
	assert.False(t, ok)
}

func TestCachedProvider_NotModifiedWithoutEntry(t *testing.T) {
	f := &fakeFetcher{respond: func(path, etag string) (*Response, error) {
		return &Response{NotModified: true}, nil
	}}
	p, _ := newTestProvider(f)

	_, err := p.Get(context.Background(), IndicatorsPath, decodeSummaries)
	require.Error(t, err)
	assert.True(t, errors.IsOffline(err))
}
