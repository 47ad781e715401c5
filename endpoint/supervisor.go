// Copyright (c) 2025 Girderworks and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package endpoint

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/girderworks/girder/config"
	"github.com/girderworks/girder/noop"
	"github.com/girderworks/girder/slogfield"
)

type supervisorOptions struct {
	logHandler slog.Handler
	overrides  map[string][]config.Source
}

// SupervisorOption configures a Supervisor.
type SupervisorOption func(*supervisorOptions)

// LogHandler configures the slog.Handler the Supervisor logs listener
// lifecycle events with.
func LogHandler(h slog.Handler) SupervisorOption {
	return func(so *supervisorOptions) {
		so.logHandler = h
	}
}

// WithConfig registers config sources holding override values for the
// given endpoint id. They are applied, in order, on top of Defaults
// every time the endpoint is started.
func WithConfig(endpointID string, srcs ...config.Source) SupervisorOption {
	return func(so *supervisorOptions) {
		so.overrides[endpointID] = append(so.overrides[endpointID], srcs...)
	}
}

// Supervisor owns the registry of running endpoints and drives their
// listeners through an Adapter.
//
// Start and Stop are safe to call for independent endpoint ids from
// different goroutines. Concurrent Start calls for the same id are
// serialized; the second one fails with ErrAlreadyRegistered.
type Supervisor struct {
	adapter   Adapter
	log       *slog.Logger
	overrides map[string][]config.Source

	mu        sync.Mutex
	endpoints map[string]*registration
}

type registration struct {
	cfg     Config
	handles []Handle
}

// NewSupervisor returns a fully initialized Supervisor delegating all
// socket handling to the given Adapter.
func NewSupervisor(adapter Adapter, opts ...SupervisorOption) *Supervisor {
	so := &supervisorOptions{
		logHandler: noop.LogHandler{},
		overrides:  make(map[string][]config.Source),
	}
	for _, opt := range opts {
		opt(so)
	}

	return &Supervisor{
		adapter:   adapter,
		log:       slog.New(so.logHandler),
		overrides: so.overrides,
		endpoints: make(map[string]*registration),
	}
}

// Start resolves the endpoint's configuration, registers it and starts
// one listener per enabled scheme, handing h to the adapter as the
// dispatch target.
//
// If neither the http nor the https section is enabled, Start succeeds
// with zero listeners bound. If any listener fails to start, listeners
// already bound by this call are unwound and the endpoint is left
// unregistered: a bind failure caused by the port being taken surfaces
// as a PortInUseError, anything else as a ListenerStartError.
func (s *Supervisor) Start(ctx context.Context, appID, endpointID string, h http.Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.endpoints[endpointID]; ok {
		return ErrAlreadyRegistered
	}

	cfg, err := Resolve(appID, endpointID, s.overrides[endpointID]...)
	if err != nil {
		return err
	}

	reg := &registration{cfg: cfg}
	for _, spec := range cfg.ListenerSpecs() {
		handle, err := s.adapter.StartListener(ctx, spec, h)
		if err != nil {
			s.unwind(ctx, reg)

			var inUse PortInUseError
			if errors.As(err, &inUse) {
				return inUse
			}
			return ListenerStartError{
				Endpoint: endpointID,
				Scheme:   spec.Scheme,
				Cause:    err,
			}
		}
		reg.handles = append(reg.handles, handle)

		s.log.Info("running endpoint listener",
			slogfield.String("endpoint", endpointID),
			slogfield.String("scheme", spec.Scheme.String()),
			slogfield.Int("port", spec.Port),
			slogfield.String("url", cfg.ExternalURL()),
		)
	}

	s.endpoints[endpointID] = reg
	return nil
}

// Stop shuts down every listener the endpoint started and deregisters
// its configuration. Listener shutdown is best-effort: adapter failures
// are logged and never prevent deregistration. Stopping an id which was
// never started returns ErrNotRegistered.
func (s *Supervisor) Stop(ctx context.Context, endpointID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.endpoints[endpointID]
	if !ok {
		return ErrNotRegistered
	}

	s.unwind(ctx, reg)
	delete(s.endpoints, endpointID)
	return nil
}

// Config returns the resolved configuration of a registered endpoint.
func (s *Supervisor) Config(endpointID string) (Config, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.endpoints[endpointID]
	if !ok {
		return Config{}, false
	}
	return reg.cfg, true
}

func (s *Supervisor) unwind(ctx context.Context, reg *registration) {
	for _, handle := range reg.handles {
		err := s.adapter.StopListener(ctx, handle.ID())
		if err == nil {
			continue
		}
		s.log.Error("failed to stop listener",
			slogfield.String("listener", handle.ID()),
			slogfield.Error(err),
		)
	}
	reg.handles = nil
}
