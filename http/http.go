// Copyright (c) 2025 Girderworks and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package http provides the default endpoint.Adapter backed by net/http.
package http

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"syscall"

	"github.com/girderworks/girder/endpoint"
	"github.com/girderworks/girder/health"
	"github.com/girderworks/girder/noop"
	"github.com/girderworks/girder/slogfield"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

type adapterOptions struct {
	logHandler slog.Handler
	tlsConfig  *tls.Config
}

// AdapterOption configures an Adapter.
type AdapterOption func(*adapterOptions)

// LogHandler configures the slog.Handler used for listener lifecycle logs.
func LogHandler(h slog.Handler) AdapterOption {
	return func(ao *adapterOptions) {
		ao.logHandler = h
	}
}

// TLSConfig overrides the tls.Config used for secure listeners. When unset,
// the certificate and key files named by the ListenerSpec are loaded instead.
func TLSConfig(cfg *tls.Config) AdapterOption {
	return func(ao *adapterOptions) {
		ao.tlsConfig = cfg
	}
}

// Adapter is an endpoint.Adapter which binds TCP sockets and serves them
// with net/http servers. Each started listener also exposes a readiness
// probe at /health/readiness alongside the dispatch target it was
// started with.
type Adapter struct {
	log       *slog.Logger
	tlsConfig *tls.Config
	listen    func(network, addr string) (net.Listener, error)

	mu        sync.Mutex
	listeners map[string]*listener
}

// NewAdapter returns a fully initialized Adapter.
func NewAdapter(opts ...AdapterOption) *Adapter {
	ao := &adapterOptions{
		logHandler: noop.LogHandler{},
	}
	for _, opt := range opts {
		opt(ao)
	}

	return &Adapter{
		log:       slog.New(ao.logHandler),
		tlsConfig: ao.tlsConfig,
		listen:    net.Listen,
		listeners: make(map[string]*listener),
	}
}

type listener struct {
	id        string
	shutdown  context.CancelFunc
	group     *errgroup.Group
	started   *health.Started
	readiness *health.Readiness
}

// ID implements the endpoint.Handle interface.
func (l *listener) ID() string {
	return l.id
}

// StartListener implements the endpoint.Adapter interface. The socket is
// bound synchronously: when StartListener returns without error the port
// is held and serving has begun on a background goroutine.
func (a *Adapter) StartListener(ctx context.Context, spec endpoint.ListenerSpec, h http.Handler) (endpoint.Handle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := spec.ID()
	if _, ok := a.listeners[id]; ok {
		return nil, fmt.Errorf("listener already started: %s", id)
	}

	ls, err := a.listen("tcp", fmt.Sprintf(":%d", spec.Port))
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return nil, endpoint.PortInUseError{Port: spec.Port}
		}
		a.log.Error("failed to listen for connections",
			slogfield.String("listener", id),
			slogfield.Error(err),
		)
		return nil, err
	}

	if spec.Scheme == endpoint.Secure {
		cfg := a.tlsConfig
		if cfg == nil {
			cert, err := tls.LoadX509KeyPair(spec.CertFile, spec.KeyFile)
			if err != nil {
				ls.Close()
				return nil, err
			}
			cfg = &tls.Config{Certificates: []tls.Certificate{cert}}
		}
		ls = tls.NewListener(ls, cfg)
	}

	started := &health.Started{}
	readiness := &health.Readiness{}
	mux := http.NewServeMux()
	mux.Handle("/health/startup", otelhttp.WithRouteTag("/health/startup", started))
	mux.Handle("/health/readiness", otelhttp.WithRouteTag("/health/readiness", readiness))
	mux.Handle("/", h)

	srv := &http.Server{
		Handler: otelhttp.NewHandler(
			mux,
			id,
			otelhttp.WithMessageEvents(otelhttp.ReadEvents, otelhttp.WriteEvents),
		),
	}

	lctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(lctx)
	g.Go(func() error {
		<-gctx.Done()

		defer a.log.Info("shut down listener", slogfield.String("listener", id))

		a.log.Info("shutting down listener", slogfield.String("listener", id))
		readiness.NotReady()
		return srv.Shutdown(context.Background())
	})
	g.Go(func() error {
		started.Started()
		readiness.Ready()
		a.log.Info("serving listener",
			slogfield.String("listener", id),
			slogfield.Int("port", spec.Port),
		)

		err := srv.Serve(ls)
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	l := &listener{
		id:        id,
		shutdown:  cancel,
		group:     g,
		started:   started,
		readiness: readiness,
	}
	a.listeners[id] = l
	return l, nil
}

// StopListener implements the endpoint.Adapter interface. Stopping an
// unknown or already stopped listener is a no-op.
func (a *Adapter) StopListener(ctx context.Context, id string) error {
	a.mu.Lock()
	l, ok := a.listeners[id]
	if ok {
		delete(a.listeners, id)
	}
	a.mu.Unlock()

	if !ok {
		return nil
	}

	l.shutdown()
	return l.group.Wait()
}
