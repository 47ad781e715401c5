// Copyright (c) 2025 Girderworks and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package endpoint

import (
	"context"
	"net/http"
)

// Scheme identifies which listener of an endpoint is being addressed.
type Scheme int

const (
	// Plain is a listener serving cleartext HTTP.
	Plain Scheme = iota

	// Secure is a listener serving HTTPS.
	Secure
)

// String implements the [fmt.Stringer] interface.
func (s Scheme) String() string {
	switch s {
	case Secure:
		return "https"
	default:
		return "http"
	}
}

// ListenerSpec is everything an Adapter needs to bind and serve one
// listener of an endpoint.
type ListenerSpec struct {
	Endpoint string
	Scheme   Scheme
	Port     int

	// CertFile and KeyFile are only set for secure listeners.
	CertFile string
	KeyFile  string

	// Options carries transport options girder does not interpret.
	Options map[string]any
}

// ID returns the scheme qualified identifier the listener is registered
// under with its Adapter, e.g. "ShopWeb.Endpoint.https".
func (s ListenerSpec) ID() string {
	return s.Endpoint + "." + s.Scheme.String()
}

// Handle represents a bound listener owned by an Adapter.
type Handle interface {
	ID() string
}

// Adapter abstracts the server backend which binds sockets and serves
// requests for an endpoint. Implementations must report a bind failure
// caused by the port already being taken as a PortInUseError so the
// Supervisor can surface it distinctly.
//
// StopListener is best-effort: stopping an unknown or already stopped
// listener must not be treated as an error.
type Adapter interface {
	StartListener(ctx context.Context, spec ListenerSpec, h http.Handler) (Handle, error)
	StopListener(ctx context.Context, id string) error
}
