// Package health reports whether the vault's dependencies are usable.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Status represents the health status of a component.
type Status string

const (
	// StatusHealthy indicates the component is fully operational.
	StatusHealthy Status = "healthy"
	// StatusUnhealthy indicates the component is not operational.
	StatusUnhealthy Status = "unhealthy"
)

// ComponentStatus represents the health status of a single component.
type ComponentStatus struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Response represents the health check response.
type Response struct {
	Status     Status                     `json:"status"`
	Components map[string]ComponentStatus `json:"components"`
	Version    string                     `json:"version"`
	Uptime     string                     `json:"uptime"`
}

// Pinger is implemented by the store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Probe checks one component. A nil error means healthy.
type Probe func(ctx context.Context) error

// RoundTripper is implemented by the cipher.
type RoundTripper interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// Checker runs the registered probes.
type Checker struct {
	startTime time.Time
	version   string

	mu      sync.RWMutex
	timeout time.Duration
	probes  map[string]Probe
}

// NewChecker creates a checker with a "database" probe backed by pinger.
func NewChecker(pinger Pinger, version string) *Checker {
	c := &Checker{
		startTime: time.Now(),
		version:   version,
		timeout:   5 * time.Second,
		probes:    make(map[string]Probe),
	}
	c.Register("database", func(ctx context.Context) error {
		if pinger == nil {
			return errNotConfigured
		}
		return pinger.Ping(ctx)
	})
	return c
}

// Register adds or replaces a named probe.
func (c *Checker) Register(name string, probe Probe) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probes[name] = probe
}

// RegisterCipher adds a "cipher" probe that encrypts and decrypts a fixed
// value with rt.
func (c *Checker) RegisterCipher(rt RoundTripper) {
	c.Register("cipher", func(context.Context) error {
		const canary = "health-check"
		ct, err := rt.Encrypt(canary)
		if err != nil {
			return err
		}
		pt, err := rt.Decrypt(ct)
		if err != nil {
			return err
		}
		if pt != canary {
			return errRoundTrip
		}
		return nil
	})
}

// SetTimeout sets the timeout for health checks.
func (c *Checker) SetTimeout(timeout time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = timeout
}

// Check runs every probe and aggregates the result. The overall status is
// unhealthy if any component is.
func (c *Checker) Check(ctx context.Context) *Response {
	type namedProbe struct {
		name  string
		probe Probe
	}

	c.mu.RLock()
	timeout := c.timeout
	probes := make([]namedProbe, 0, len(c.probes))
	for name, probe := range c.probes {
		probes = append(probes, namedProbe{name, probe})
	}
	c.mu.RUnlock()
	sort.Slice(probes, func(i, j int) bool { return probes[i].name < probes[j].name })

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	overall := StatusHealthy
	components := make(map[string]ComponentStatus, len(probes))
	for _, p := range probes {
		if err := p.probe(checkCtx); err != nil {
			// Error text is not echoed since it may carry DSNs or key material.
			components[p.name] = ComponentStatus{Status: StatusUnhealthy, Message: p.name + " check failed"}
			overall = StatusUnhealthy
			continue
		}
		components[p.name] = ComponentStatus{Status: StatusHealthy, Message: "ok"}
	}

	return &Response{
		Status:     overall,
		Components: components,
		Version:    c.version,
		Uptime:     time.Since(c.startTime).Round(time.Second).String(),
	}
}

// Handler returns an HTTP handler for health checks: 200 when healthy,
// 503 otherwise.
func (c *Checker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := c.Check(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if response.Status == StatusHealthy {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		json.NewEncoder(w).Encode(response)
	}
}

var (
	errNotConfigured = errors.New("not configured")
	errRoundTrip     = errors.New("round trip mismatch")
)
