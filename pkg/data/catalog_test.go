package data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/dca-strategy-wizard/internal/errors"
	"github.com/ducminhle1904/dca-strategy-wizard/internal/logger"
	"github.com/ducminhle1904/dca-strategy-wizard/internal/monitoring"
)

const listPayload = `[{"id":"RSI","label":"Relative Strength Index","version":"7"},{"id":"VWAP","label":"VWAP","version":"1"}]`

func remoteFetcher() *fakeFetcher {
	return &fakeFetcher{respond: func(path, etag string) (*Response, error) {
		switch path {
		case IndicatorsPath:
			return &Response{Payload: []byte(listPayload), ETag: `"list"`}, nil
		case DefinitionPath("RSI"):
			return &Response{Payload: []byte(rsiPayload), ETag: `"rsi"`}, nil
		default:
			return nil, errors.NewNotFoundError("test", "fetch", path+" not found")
		}
	}}
}

func newTestCatalog(f *fakeFetcher) (*Catalog, *monitoring.HealthChecker) {
	health := monitoring.NewHealthChecker()
	provider := NewCachedProvider(f, DefaultCacheTTL, logger.Nop())
	return NewCatalog(provider, health, logger.Nop()), health
}

func TestCatalog_ListIndicatorsRemote(t *testing.T) {
	cat, _ := newTestCatalog(remoteFetcher())

	summaries, err := cat.ListIndicators(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "VWAP", summaries[1].ID)
	assert.False(t, cat.Offline())
}

func TestCatalog_DefinitionsAreMemoized(t *testing.T) {
	f := remoteFetcher()
	cat, _ := newTestCatalog(f)

	first, err := cat.GetDefinition(context.Background(), "RSI")
	require.NoError(t, err)
	second, err := cat.GetDefinition(context.Background(), "rsi")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, f.calls())
	assert.Equal(t, "7", first.Version)

	origin, ok := cat.DefinitionOrigin("RSI")
	require.True(t, ok)
	assert.Equal(t, OriginRemote, origin)
	assert.Equal(t, []string{"RSI"}, cat.Known())
}

func TestCatalog_UnknownRemoteIndicatorIsNotFound(t *testing.T) {
	cat, _ := newTestCatalog(remoteFetcher())

	_, err := cat.GetDefinition(context.Background(), "ICHIMOKU")
	assert.True(t, errors.IsCategory(err, errors.ErrorCategoryNotFound))
	assert.False(t, cat.Offline(), "a 404 does not mean the service is down")

	_, err = cat.GetDefinition(context.Background(), "  ")
	assert.True(t, errors.IsCategory(err, errors.ErrorCategoryNotFound))
}

func TestCatalog_OfflineFallback(t *testing.T) {
	f := &fakeFetcher{respond: func(path, etag string) (*Response, error) {
		return nil, errUnreachable
	}}
	cat, health := newTestCatalog(f)

	summaries, err := cat.ListIndicators(context.Background())
	require.NoError(t, err)
	assert.True(t, cat.Offline())
	assert.Len(t, summaries, 7)

	def, err := cat.GetDefinition(context.Background(), "macd")
	require.NoError(t, err)
	assert.Equal(t, "MACD", def.ID)
	assert.Equal(t, "builtin-1", def.Version)

	origin, _ := cat.DefinitionOrigin("MACD")
	assert.Equal(t, OriginFallback, origin)
	assert.Empty(t, cat.Known(), "built-in definitions are not memoized")

	_, err = cat.GetDefinition(context.Background(), "VWAP")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.ErrorCategoryNotFound))
	assert.Contains(t, err.Error(), "no built-in definition for VWAP while offline")

	status := health.Status()
	assert.True(t, status.Offline)
	assert.GreaterOrEqual(t, status.Fallbacks, 1)
}

func TestCatalog_ProbeTogglesOffline(t *testing.T) {
	f := remoteFetcher()
	f.probeErr = errUnreachable
	cat, _ := newTestCatalog(f)

	require.Error(t, cat.Probe(context.Background()))
	assert.True(t, cat.Offline())

	// while offline the service is not consulted
	summaries, err := cat.ListIndicators(context.Background())
	require.NoError(t, err)
	assert.Len(t, summaries, 7)
	assert.Equal(t, 0, f.calls())

	f.probeErr = nil
	require.NoError(t, cat.Probe(context.Background()))
	assert.False(t, cat.Offline())

	def, err := cat.GetDefinition(context.Background(), "RSI")
	require.NoError(t, err)
	assert.Equal(t, "7", def.Version)
}

func TestCatalog_StaleDefinitionOrigin(t *testing.T) {
	f := remoteFetcher()
	health := monitoring.NewHealthChecker()
	provider := NewCachedProvider(f, DefaultCacheTTL, logger.Nop())

	// warm the shared cache, then lose the network
	_, err := provider.Get(context.Background(), DefinitionPath("RSI"), decodeDefinition)
	require.NoError(t, err)
	f.respond = func(path, etag string) (*Response, error) {
		return nil, errUnreachable
	}

	cat := NewCatalog(provider, health, logger.Nop())
	def, err := cat.GetDefinition(context.Background(), "RSI")
	require.NoError(t, err)
	assert.Equal(t, "7", def.Version)

	origin, _ := cat.DefinitionOrigin("RSI")
	assert.Equal(t, OriginCache, origin)
}

func TestCatalog_Lookup(t *testing.T) {
	cat, _ := newTestCatalog(remoteFetcher())
	lookup := cat.Lookup(context.Background())

	def, ok := lookup("RSI")
	require.True(t, ok)
	assert.Equal(t, "RSI", def.ID)

	_, ok = lookup("ICHIMOKU")
	assert.False(t, ok)
}

func TestCatalog_OfflineServesCachedList(t *testing.T) {
	f := remoteFetcher()
	cat, _ := newTestCatalog(f)

	_, err := cat.ListIndicators(context.Background())
	require.NoError(t, err)

	f.respond = func(path, etag string) (*Response, error) {
		return nil, errUnreachable
	}
	_, err = cat.GetDefinition(context.Background(), "VWAP")
	require.Error(t, err)
	require.True(t, cat.Offline())

	summaries, err := cat.ListIndicators(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "RSI", summaries[0].ID)
	assert.Equal(t, "7", summaries[0].Version)
	assert.Equal(t, "VWAP", summaries[1].ID)

	summaries[0].ID = "mutated"
	again, _ := cat.ListIndicators(context.Background())
	assert.Equal(t, "RSI", again[0].ID)
}

func TestCatalog_OfflineServesCachedDefinition(t *testing.T) {
	f := remoteFetcher()
	f.probeErr = errUnreachable
	provider := NewCachedProvider(f, DefaultCacheTTL, logger.Nop())

	_, err := provider.Get(context.Background(), DefinitionPath("RSI"), decodeDefinition)
	require.NoError(t, err)

	cat := NewCatalog(provider, monitoring.NewHealthChecker(), logger.Nop())
	require.Error(t, cat.Probe(context.Background()))

	def, err := cat.GetDefinition(context.Background(), "RSI")
	require.NoError(t, err)
	assert.Equal(t, "7", def.Version)
	assert.Equal(t, 1, f.calls())

	origin, _ := cat.DefinitionOrigin("RSI")
	assert.Equal(t, OriginCache, origin)

	def, err = cat.GetDefinition(context.Background(), "MACD")
	require.NoError(t, err)
	assert.Equal(t, "builtin-1", def.Version)
}
