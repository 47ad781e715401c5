// Copyright (c) 2025 Girderworks and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package health provides simple health metrics for running listeners.
package health

import (
	"context"
	"net/http"
	"sync"
)

// Metric represents anything that can report its health status.
type Metric interface {
	Healthy(context.Context) bool
}

// Binary represents a health.Metric that is either healthy or not.
// The default value represents a healthy state.
type Binary struct {
	mu        sync.Mutex
	unhealthy bool
}

// Toggle toggles the state of Binary.
func (m *Binary) Toggle() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unhealthy = !m.unhealthy
}

// Healthy implements the Metric interface.
func (m *Binary) Healthy(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.unhealthy
}

// Started reports whether a listener has begun serving. The zero value
// is not started. Unlike Readiness it is one-way: once marked started,
// it never reports not started again.
type Started struct {
	once sync.Once
	b    Binary
}

// Started marks the listener as started.
func (m *Started) Started() {
	m.once.Do(m.b.Toggle)
}

// Healthy implements the Metric interface.
func (m *Started) Healthy(ctx context.Context) bool {
	return !m.b.Healthy(ctx)
}

// ServeHTTP implements the http.Handler interface.
func (m *Started) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	serveMetric(m, w, r)
}

// Readiness reports whether a listener is ready to accept requests.
// The zero value is not ready.
type Readiness struct {
	mu    sync.Mutex
	ready bool
}

// Ready marks the listener as ready.
func (m *Readiness) Ready() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready = true
}

// NotReady marks the listener as not ready.
func (m *Readiness) NotReady() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready = false
}

// Healthy implements the Metric interface.
func (m *Readiness) Healthy(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

// ServeHTTP implements the http.Handler interface.
func (m *Readiness) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	serveMetric(m, w, r)
}

func serveMetric(m Metric, w http.ResponseWriter, r *http.Request) {
	if m.Healthy(r.Context()) {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
}
