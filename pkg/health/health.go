// Package health implements Kubernetes-style liveness and readiness probes.
//
// Registered probes are executed by a single background scheduler at a fixed
// interval. A probe flips to unhealthy only after failing failureThreshold
// consecutive runs, and flips back after successThreshold consecutive
// successes, so a single slow database round trip does not bounce the pod.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// CheckFunc reports whether one component is healthy. A nil return means
// healthy.
type CheckFunc func(ctx context.Context) error

const (
	defaultFailureThreshold = 3
	defaultSuccessThreshold = 1
)

// probe is one registered check plus its run state. All fields after check
// are guarded by the owning Health's mu; the scheduler and the HTTP
// endpoints both take it.
type probe struct {
	name    string
	timeout time.Duration
	check   CheckFunc

	healthy bool
	lastErr error
	fails   int
	passes  int
}

func (p *probe) observe(err error) {
	p.lastErr = err
	if err != nil {
		p.passes = 0
		p.fails++
		if p.fails >= defaultFailureThreshold {
			p.healthy = false
		}
		return
	}
	p.fails = 0
	p.passes++
	if p.passes >= defaultSuccessThreshold {
		p.healthy = true
	}
}

// Health runs liveness and readiness probes for a service and serves the
// /livez and /readyz endpoints.
type Health struct {
	mu        sync.Mutex
	liveness  []*probe
	readiness []*probe
	ready     bool
	cancel    context.CancelFunc
}

// New returns a Health in the not-ready state. Call SetReady(true) once the
// service finished initializing.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a probe that decides whether the process itself
// is still functioning (goroutine count, GC pauses).
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, newProbe(name, timeout, check))
}

// AddReadinessCheck registers a probe that decides whether the service can
// accept traffic (database connectivity, dependent services).
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, newProbe(name, timeout, check))
}

func newProbe(name string, timeout time.Duration, check CheckFunc) *probe {
	return &probe{
		name:    name,
		timeout: timeout,
		check:   check,
		// Assume healthy until a threshold of failures says otherwise.
		healthy: true,
	}
}

// Start launches the probe scheduler. Probes run immediately, then every
// interval, until the context is cancelled or Stop is called.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	probes := make([]*probe, 0, len(h.liveness)+len(h.readiness))
	probes = append(probes, h.liveness...)
	probes = append(probes, h.readiness...)
	h.mu.Unlock()

	go h.schedule(ctx, probes, interval)
}

func (h *Health) schedule(ctx context.Context, probes []*probe, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		for _, p := range probes {
			h.runProbe(ctx, p)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// runProbe executes the check outside the lock, then records the result.
func (h *Health) runProbe(ctx context.Context, p *probe) {
	checkCtx, cancel := context.WithTimeout(ctx, p.timeout)
	err := p.check(checkCtx)
	cancel()

	h.mu.Lock()
	p.observe(err)
	h.mu.Unlock()
}

// SetReady flips the manual readiness gate. Set it to false during graceful
// shutdown to drain traffic before stopping.
func (h *Health) SetReady(ready bool) {
	h.mu.Lock()
	h.ready = ready
	h.mu.Unlock()
}

// IsReady reports whether the manual gate is open and every readiness probe
// is passing.
func (h *Health) IsReady() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.ready {
		return false
	}
	for _, p := range h.readiness {
		if !p.healthy {
			return false
		}
	}
	return true
}

// Stop cancels the probe scheduler. Safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves /livez: 200 {"status":"ok"} when all liveness probes
// pass, 503 with per-check failures otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	failures := collectFailures(h.liveness)
	h.mu.Unlock()

	writeResponse(w, failures)
}

// ReadyEndpoint serves /readyz: 200 {"status":"ok"} when the manual gate is
// open and all readiness probes pass, 503 with details otherwise.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	failures := collectFailures(h.readiness)
	if !h.ready {
		failures["_readiness"] = "service is not ready"
	}
	h.mu.Unlock()

	writeResponse(w, failures)
}

// collectFailures must be called with mu held.
func collectFailures(probes []*probe) map[string]string {
	failures := make(map[string]string)
	for _, p := range probes {
		if p.healthy {
			continue
		}
		if p.lastErr != nil {
			failures[p.name] = p.lastErr.Error()
		} else {
			failures[p.name] = "check is unhealthy"
		}
	}
	return failures
}

func writeResponse(w http.ResponseWriter, failures map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	resp := statusResponse{Status: "ok"}
	status := http.StatusOK
	if len(failures) > 0 {
		resp.Status = "unhealthy"
		resp.Checks = failures
		status = http.StatusServiceUnavailable
	}

	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
