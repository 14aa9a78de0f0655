// Package health provides HTTP health check handlers.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"

	checkTimeout = 5 * time.Second
)

// Status represents the health check response.
type Status struct {
	Status    string           `json:"status"`
	Checks    map[string]Check `json:"checks,omitempty"`
	Version   string           `json:"version,omitempty"`
	Timestamp string           `json:"timestamp"`
}

// Check represents an individual health check.
type Check struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// CheckFunc is a function that performs a health check.
type CheckFunc func(ctx context.Context) (bool, string)

// Registry holds named checks and serves the health endpoints.
type Registry struct {
	version string
	checks  map[string]CheckFunc
	mu      sync.RWMutex
	now     func() time.Time
}

// NewRegistry creates an empty registry reporting version.
func NewRegistry(version string) *Registry {
	return &Registry{
		version: version,
		checks:  make(map[string]CheckFunc),
		now:     time.Now,
	}
}

// RegisterCheck registers a health check function.
func (r *Registry) RegisterCheck(name string, check CheckFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks[name] = check
}

// Run executes every check.
func (r *Registry) Run(ctx context.Context) Status {
	r.mu.RLock()
	checks := make(map[string]CheckFunc, len(r.checks))
	for k, v := range r.checks {
		checks[k] = v
	}
	r.mu.RUnlock()

	status := Status{
		Status:    StatusHealthy,
		Version:   r.version,
		Timestamp: r.now().UTC().Format(time.RFC3339),
	}
	if len(checks) > 0 {
		status.Checks = make(map[string]Check, len(checks))
	}

	for name, check := range checks {
		healthy, msg := check(ctx)
		status.Checks[name] = Check{Healthy: healthy, Message: msg}
		if !healthy {
			status.Status = StatusDegraded
		}
	}

	return status
}

// HandleHealth returns full health status with all checks.
func (r *Registry) HandleHealth(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), checkTimeout)
	defer cancel()

	status := r.Run(ctx)

	w.Header().Set("Content-Type", "application/json")
	if status.Status != StatusHealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(status)
}

// HandleReady returns whether the service is ready to receive traffic.
func (r *Registry) HandleReady(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), checkTimeout)
	defer cancel()

	if r.Run(ctx).Status != StatusHealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("not ready"))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

// HandleLive returns whether the service is alive (simple liveness probe).
func (r *Registry) HandleLive(w http.ResponseWriter, req *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("alive"))
}
