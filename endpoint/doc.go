// Copyright (c) 2025 Girderworks and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package endpoint manages the lifecycle of web endpoints.
//
// An endpoint is identified by a dot separated name, e.g. "ShopWeb.Endpoint",
// and owns up to two listeners: a plain (HTTP) one and a secure (HTTPS) one.
// The Supervisor resolves the endpoint's configuration from registered config
// sources, derives a ListenerSpec per enabled scheme and delegates the actual
// socket binding and serving to an Adapter.
//
// The Supervisor never implements any HTTP behaviour itself. It only merges
// configuration, computes the endpoint's canonical external URL and keeps a
// registry of which endpoints are currently running.
package endpoint
