package data

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ducminhle1904/dca-strategy-wizard/internal/errors"
	"github.com/ducminhle1904/dca-strategy-wizard/internal/logger"
	"github.com/ducminhle1904/dca-strategy-wizard/internal/monitoring"
	"github.com/ducminhle1904/dca-strategy-wizard/pkg/catalog"
)

const catalogComponent = "catalog"

// Catalog is the session view of the indicator catalog. Definitions are
// memoized by id once fetched; when the service is unreachable it serves the
// built-in definitions instead of failing.
type Catalog struct {
	provider *CachedProvider
	health   *monitoring.HealthChecker
	logger   *logger.Logger

	mu          sync.RWMutex
	offline     bool
	definitions map[string]*catalog.IndicatorDefinition
	origins     map[string]Origin
}

// NewCatalog creates a catalog over the given provider. health may be nil.
func NewCatalog(provider *CachedProvider, health *monitoring.HealthChecker, log *logger.Logger) *Catalog {
	if log == nil {
		log = logger.Nop()
	}
	return &Catalog{
		provider:    provider,
		health:      health,
		logger:      log,
		definitions: make(map[string]*catalog.IndicatorDefinition),
		origins:     make(map[string]Origin),
	}
}

// Offline reports whether the catalog is on the offline path
func (c *Catalog) Offline() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.offline
}

func (c *Catalog) setOffline(offline bool) {
	c.mu.Lock()
	changed := c.offline != offline
	c.offline = offline
	c.mu.Unlock()

	if c.health != nil {
		c.health.SetOffline(offline)
	} else {
		monitoring.SetOffline(offline)
	}
	if changed {
		if offline {
			c.logger.Warn("catalog service unreachable, using built-in definitions")
		} else {
			c.logger.Info("catalog service reachable again")
		}
	}
}

// Probe checks service liveness and switches the offline path on or off
func (c *Catalog) Probe(ctx context.Context) error {
	if err := c.provider.Probe(ctx); err != nil {
		c.setOffline(true)
		if c.health != nil {
			c.health.RecordFailure(err)
		}
		return err
	}
	c.setOffline(false)
	if c.health != nil {
		c.health.RecordSuccess()
	}
	return nil
}

// ListIndicators returns the indicator summaries. When the service cannot
// be reached the last cached list is served, however old, and the built-in
// list only when nothing was ever cached.
func (c *Catalog) ListIndicators(ctx context.Context) ([]catalog.IndicatorSummary, error) {
	if c.Offline() {
		return c.offlineSummaries(), nil
	}

	result, err := c.provider.Get(ctx, IndicatorsPath, decodeSummaries)
	if err != nil {
		c.recordFailure(err)
		if errors.RecoveryFor(err) != errors.RecoveryActionFallback {
			return nil, err
		}
		if errors.IsOffline(err) {
			c.setOffline(true)
		}
		return c.offlineSummaries(), nil
	}

	c.noteOutcome(result.Outcome)
	return copySummaries(result.Value.([]catalog.IndicatorSummary)), nil
}

func (c *Catalog) offlineSummaries() []catalog.IndicatorSummary {
	if entry, ok := c.provider.Cached(IndicatorsPath); ok {
		if summaries, ok := entry.Value.([]catalog.IndicatorSummary); ok {
			c.logger.Debugf("serving indicator list cached at %s", entry.FetchedAt.Format(time.RFC3339))
			return copySummaries(summaries)
		}
	}
	return catalog.FallbackSummaries()
}

func copySummaries(summaries []catalog.IndicatorSummary) []catalog.IndicatorSummary {
	out := make([]catalog.IndicatorSummary, len(summaries))
	copy(out, summaries)
	return out
}

// GetDefinition returns the definition for id. A definition fetched from the
// service is kept for the rest of the session.
func (c *Catalog) GetDefinition(ctx context.Context, id string) (*catalog.IndicatorDefinition, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.NewNotFoundError(catalogComponent, "get definition", "indicator id is required")
	}
	key := strings.ToUpper(id)

	c.mu.RLock()
	if def, ok := c.definitions[key]; ok {
		c.mu.RUnlock()
		return def, nil
	}
	c.mu.RUnlock()

	if c.Offline() {
		return c.fallback(id)
	}

	result, err := c.provider.Get(ctx, DefinitionPath(id), decodeDefinition)
	if err != nil {
		c.recordFailure(err)
		if errors.RecoveryFor(err) != errors.RecoveryActionFallback {
			return nil, err
		}
		if errors.IsOffline(err) {
			c.setOffline(true)
		}
		return c.fallback(id)
	}

	c.noteOutcome(result.Outcome)
	def := result.Value.(*catalog.IndicatorDefinition)

	origin := OriginRemote
	if result.Outcome == OutcomeStale {
		origin = OriginCache
	}

	c.mu.Lock()
	c.definitions[key] = def
	c.origins[key] = origin
	c.mu.Unlock()

	return def, nil
}

// DefinitionOrigin reports where the definition last handed out for id came from
func (c *Catalog) DefinitionOrigin(id string) (Origin, bool) {
	key := strings.ToUpper(strings.TrimSpace(id))
	c.mu.RLock()
	defer c.mu.RUnlock()
	origin, ok := c.origins[key]
	return origin, ok
}

// Lookup adapts the catalog to a synchronous definition lookup, for callers
// that migrate whole rule sets.
func (c *Catalog) Lookup(ctx context.Context) func(name string) (*catalog.IndicatorDefinition, bool) {
	return func(name string) (*catalog.IndicatorDefinition, bool) {
		def, err := c.GetDefinition(ctx, name)
		if err != nil {
			return nil, false
		}
		return def, true
	}
}

// Known returns the ids of every definition memoized this session
func (c *Catalog) Known() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.definitions))
	for _, def := range c.definitions {
		ids = append(ids, def.ID)
	}
	sort.Strings(ids)
	return ids
}

// fallback serves a cached definition, however old, or else the built-in
// one. Built-in definitions are not memoized so the remote copy wins once
// the service is back.
func (c *Catalog) fallback(id string) (*catalog.IndicatorDefinition, error) {
	key := strings.ToUpper(id)
	if entry, ok := c.provider.Cached(DefinitionPath(id)); ok {
		if def, ok := entry.Value.(*catalog.IndicatorDefinition); ok {
			c.mu.Lock()
			c.definitions[key] = def
			c.origins[key] = OriginCache
			c.mu.Unlock()
			return def, nil
		}
	}

	def, ok := catalog.Fallback(id)
	if !ok {
		return nil, errors.NewNotFoundError(catalogComponent, "get definition",
			fmt.Sprintf("no built-in definition for %s while offline", id))
	}
	monitoring.RecordFallback(def.ID)
	if c.health != nil {
		c.health.RecordFallback()
	}

	c.mu.Lock()
	c.origins[key] = OriginFallback
	c.mu.Unlock()

	c.logger.Debugf("using built-in definition for %s", def.ID)
	return def, nil
}

func (c *Catalog) noteOutcome(outcome Outcome) {
	if outcome == OutcomeFetched || outcome == OutcomeNotModified {
		c.setOffline(false)
		if c.health != nil {
			c.health.RecordSuccess()
		}
	}
}

func (c *Catalog) recordFailure(err error) {
	if c.health != nil {
		c.health.RecordFailure(err)
	}
}

func decodeSummaries(payload []byte) (interface{}, error) {
	var summaries []catalog.IndicatorSummary
	if err := json.Unmarshal(payload, &summaries); err != nil {
		return nil, fmt.Errorf("failed to decode indicator list: %w", err)
	}
	return summaries, nil
}

func decodeDefinition(payload []byte) (interface{}, error) {
	var def catalog.IndicatorDefinition
	if err := json.Unmarshal(payload, &def); err != nil {
		return nil, fmt.Errorf("failed to decode indicator definition: %w", err)
	}
	if def.ID == "" {
		return nil, fmt.Errorf("indicator definition has no id")
	}
	return &def, nil
}
