// Copyright (c) 2025 Girderworks and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package girder provides a small framework for configuring and running web endpoints.
//
// A web endpoint is a named HTTP(S) surface of an application. girder resolves the
// endpoint's configuration from one or more config sources, computes its canonical
// external URL and supervises the lifecycle of its listeners through a pluggable
// server adapter. The actual HTTP serving is delegated entirely to the adapter;
// a default net/http backed adapter ships in the http package.
//
// The root package only handles the lower level process concerns: merging config
// sources, running lifecycle hooks and driving one or more Runtimes until an OS
// interrupt is received.
package girder
