package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

var startTime = time.Now()

// HealthChecker tracks the state of the catalog synchronization
type HealthChecker struct {
	mu          sync.RWMutex
	lastSuccess time.Time
	lastError   string
	offline     bool
	fallbacks   int
}

// HealthStatus is the JSON body served by HealthChecker
type HealthStatus struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	LastSuccess time.Time `json:"last_success"`
	Offline     bool      `json:"offline"`
	Fallbacks   int       `json:"fallbacks"`
	Uptime      string    `json:"uptime"`
	LastError   string    `json:"last_error,omitempty"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{}
}

// RecordSuccess marks a successful remote exchange
func (h *HealthChecker) RecordSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastSuccess = time.Now()
	h.lastError = ""
}

// RecordFailure keeps the last remote error for display
func (h *HealthChecker) RecordFailure(err error) {
	if err == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastError = err.Error()
}

// RecordFallback counts a built-in definition being served
func (h *HealthChecker) RecordFallback() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fallbacks++
}

// SetOffline updates the offline flag and the matching gauge
func (h *HealthChecker) SetOffline(offline bool) {
	h.mu.Lock()
	h.offline = offline
	h.mu.Unlock()
	SetOffline(offline)
}

// Status returns a snapshot
func (h *HealthChecker) Status() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	switch {
	case h.offline:
		status = "offline"
	case h.lastError != "":
		status = "degraded"
	}

	return HealthStatus{
		Status:      status,
		Timestamp:   time.Now(),
		LastSuccess: h.lastSuccess,
		Offline:     h.offline,
		Fallbacks:   h.fallbacks,
		Uptime:      time.Since(startTime).String(),
		LastError:   h.lastError,
	}
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	health := h.Status()

	w.Header().Set("Content-Type", "application/json")
	if health.Status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(health)
}
