// Copyright (c) 2025 Girderworks and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package endpoint

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRegistered is returned by Supervisor.Start when the
	// endpoint id is already registered.
	ErrAlreadyRegistered = errors.New("endpoint already registered")

	// ErrNotRegistered is returned by Supervisor.Stop when the
	// endpoint id is not registered.
	ErrNotRegistered = errors.New("endpoint not registered")
)

// PortInUseError reports that a listener could not bind because its
// port is already taken by another process.
type PortInUseError struct {
	Port int
}

// Error implements the [builtin.error] interface.
func (e PortInUseError) Error() string {
	return fmt.Sprintf("port %d is already in use", e.Port)
}

// ListenerStartError reports any adapter start failure which is not a
// PortInUseError. The underlying adapter error is preserved for
// diagnostics.
type ListenerStartError struct {
	Endpoint string
	Scheme   Scheme
	Cause    error
}

// Error implements the [builtin.error] interface.
func (e ListenerStartError) Error() string {
	return fmt.Sprintf("failed to start %s listener for %s: %s", e.Scheme, e.Endpoint, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ListenerStartError) Unwrap() error {
	return e.Cause
}
