package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ducminhle1904/dca-strategy-wizard/pkg/advisory"
	"github.com/ducminhle1904/dca-strategy-wizard/pkg/condition"
	"github.com/ducminhle1904/dca-strategy-wizard/pkg/validation"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.health.RecordSuccess()
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleListIndicators(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	doc := s.list
	s.mu.RUnlock()
	writeCacheable(w, r, doc.body, doc.etag)
}

func (s *Server) handleGetIndicator(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_, doc, ok := s.definition(id)
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown indicator: "+id)
		return
	}
	writeCacheable(w, r, doc.body, doc.etag)
}

// decodeCondition reads a payload and rebuilds its condition
func decodeCondition(w http.ResponseWriter, r *http.Request) (condition.Condition, bool) {
	var payload advisory.Payload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid payload: "+err.Error())
		return condition.Condition{}, false
	}
	c, err := payload.Condition()
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return condition.Condition{}, false
	}
	return c, true
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	c, ok := decodeCondition(w, r)
	if !ok {
		return
	}

	var issues []string
	if def, _, known := s.definition(c.Indicator.Name); known {
		issues = validation.ValidateConditionWith(c, def)
	} else {
		issues = append(validation.ValidateCondition(c), "unknown indicator: "+c.Indicator.Name)
	}
	if issues == nil {
		issues = []string{}
	}

	writeJSON(w, http.StatusOK, advisory.ValidateResponse{OK: len(issues) == 0, Errors: issues})
}

func (s *Server) handleSentence(w http.ResponseWriter, r *http.Request) {
	c, ok := decodeCondition(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, advisory.SentenceResponse{Text: condition.Describe(c)})
}
