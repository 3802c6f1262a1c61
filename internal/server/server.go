// Package server is a reference implementation of the catalog service: the
// indicator list and definitions with conditional revalidation, plus the
// validate and sentence endpoints backed by the local engine.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ducminhle1904/dca-strategy-wizard/internal/logger"
	"github.com/ducminhle1904/dca-strategy-wizard/internal/monitoring"
	"github.com/ducminhle1904/dca-strategy-wizard/pkg/catalog"
)

// Config holds server configuration.
type Config struct {
	Addr        string
	Definitions []*catalog.IndicatorDefinition
	Logger      *logger.Logger
}

type document struct {
	body []byte
	etag string
}

// Server serves the catalog from an in-memory definition set
type Server struct {
	logger *logger.Logger
	health *monitoring.HealthChecker

	mu          sync.RWMutex
	definitions map[string]*catalog.IndicatorDefinition
	list        document
	docs        map[string]document
}

// New creates a server. With no definitions it serves the built-in set.
func New(cfg Config) (*Server, error) {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{
		logger:      log,
		health:      monitoring.NewHealthChecker(),
		definitions: make(map[string]*catalog.IndicatorDefinition),
		docs:        make(map[string]document),
	}

	defs := cfg.Definitions
	if len(defs) == 0 {
		for _, id := range catalog.FallbackIDs() {
			def, _ := catalog.Fallback(id)
			defs = append(defs, def)
		}
	}
	for _, def := range defs {
		if err := s.SetDefinition(def); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// SetDefinition adds or replaces a definition; its validator changes with
// its content.
func (s *Server) SetDefinition(def *catalog.IndicatorDefinition) error {
	if def == nil || def.ID == "" {
		return fmt.Errorf("definition requires an id")
	}
	body, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("failed to marshal definition %s: %w", def.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToUpper(def.ID)
	s.definitions[key] = def
	s.docs[key] = document{body: body, etag: etagFor(body)}
	return s.rebuildListLocked()
}

// RemoveDefinition drops a definition
func (s *Server) RemoveDefinition(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToUpper(id)
	delete(s.definitions, key)
	delete(s.docs, key)
	return s.rebuildListLocked()
}

func (s *Server) rebuildListLocked() error {
	summaries := make([]catalog.IndicatorSummary, 0, len(s.definitions))
	for _, def := range s.definitions {
		summaries = append(summaries, def.Summary())
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })

	body, err := json.Marshal(summaries)
	if err != nil {
		return fmt.Errorf("failed to marshal indicator list: %w", err)
	}
	s.list = document{body: body, etag: etagFor(body)}
	return nil
}

func (s *Server) definition(id string) (*catalog.IndicatorDefinition, document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := strings.ToUpper(id)
	def, ok := s.definitions[key]
	return def, s.docs[key], ok
}

// Router returns the HTTP handler with every route registered
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/health", s.handleHealth)
	r.Get("/status", s.health.ServeHTTP)
	r.Handle("/metrics", monitoring.NewMetricsHandler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/indicators", s.handleListIndicators)
		r.Get("/indicators/{id}", s.handleGetIndicator)
		r.Post("/conditions/validate", s.handleValidate)
		r.Post("/conditions/sentence", s.handleSentence)
	})
	return r
}

// Run serves until ctx is cancelled
func (s *Server) Run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	s.logger.Infof("catalog server listening on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
