// Copyright (c) 2025 Girderworks and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package endpoint

import (
	"strings"
	"time"

	"github.com/girderworks/girder/config"
)

const (
	// DefaultHTTPPort is the port a plain listener binds to when
	// its config section does not name one.
	DefaultHTTPPort = 4000

	// DefaultHTTPSPort is the port a secure listener binds to when
	// its config section does not name one.
	DefaultHTTPSPort = 4040
)

// Config is the fully resolved configuration for a single web endpoint.
type Config struct {
	AppID      string `config:"-"`
	EndpointID string `config:"-"`

	// URL overrides how the endpoint's canonical external URL is
	// rendered. It never affects which ports listeners bind to.
	URL URLConfig `config:"url"`

	// HTTP and HTTPS configure the plain and secure listeners. A nil
	// section means the corresponding listener is disabled.
	HTTP  *ListenerConfig `config:"http"`
	HTTPS *ListenerConfig `config:"https"`

	Transports    TransportConfig `config:"transports"`
	SecretKeyBase string          `config:"secret_key_base"`
	Debug         bool            `config:"debug"`

	// ErrorView names the view an embedding application renders
	// errors with. Defaults to the endpoint's top-level namespace
	// segment suffixed with "ErrorView".
	ErrorView string `config:"error_view"`
}

// URLConfig is the url section of an endpoint config.
type URLConfig struct {
	Scheme string `config:"scheme"`
	Host   string `config:"host"`
	Port   int    `config:"port"`
	Path   string `config:"path"`
}

// ListenerConfig is the http or https section of an endpoint config.
// Keys which girder itself does not understand are collected into
// Options and handed to the adapter untouched.
type ListenerConfig struct {
	Port     int            `config:"port"`
	CertFile string         `config:"certfile"`
	KeyFile  string         `config:"keyfile"`
	Options  map[string]any `config:",remain"`
}

// TransportConfig is the transports section of an endpoint config.
type TransportConfig struct {
	LongPollWindow time.Duration `config:"longpoll_window"`
	Serializer     string        `config:"serializer"`
}

// Defaults returns the static defaults for the given endpoint. It is a
// pure function: both listeners disabled, host "localhost", debug off,
// no secret key and the error view derived from the endpoint id.
func Defaults(appID, endpointID string) Config {
	return Config{
		AppID:      appID,
		EndpointID: endpointID,
		URL: URLConfig{
			Host: "localhost",
		},
		Transports: TransportConfig{
			LongPollWindow: 10 * time.Second,
			Serializer:     "json",
		},
		ErrorView: errorView(endpointID),
	}
}

// Resolve overlays the given config sources onto Defaults. Values present
// in the sources win key by key; anything they leave out keeps its default.
func Resolve(appID, endpointID string, srcs ...config.Source) (Config, error) {
	cfg := Defaults(appID, endpointID)

	m, err := config.Read(srcs...)
	if err != nil {
		return cfg, err
	}

	err = m.Unmarshal(&cfg)
	if err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ListenerSpecs derives one ListenerSpec per enabled scheme. The secure
// spec inherits every option of the plain section it does not explicitly
// override, with its own values winning on conflict.
func (c Config) ListenerSpecs() []ListenerSpec {
	var specs []ListenerSpec
	if c.HTTP != nil {
		specs = append(specs, ListenerSpec{
			Endpoint: c.EndpointID,
			Scheme:   Plain,
			Port:     portOr(c.HTTP.Port, DefaultHTTPPort),
			Options:  mergeOptions(nil, c.HTTP.Options),
		})
	}
	if c.HTTPS != nil {
		var under *ListenerConfig
		if c.HTTP != nil {
			under = c.HTTP
		}
		specs = append(specs, ListenerSpec{
			Endpoint: c.EndpointID,
			Scheme:   Secure,
			Port:     portOr(c.HTTPS.Port, DefaultHTTPSPort),
			CertFile: inherit(c.HTTPS.CertFile, under, func(lc *ListenerConfig) string { return lc.CertFile }),
			KeyFile:  inherit(c.HTTPS.KeyFile, under, func(lc *ListenerConfig) string { return lc.KeyFile }),
			Options:  mergeOptions(optionsOf(under), c.HTTPS.Options),
		})
	}
	return specs
}

func portOr(port, fallback int) int {
	if port == 0 {
		return fallback
	}
	return port
}

func inherit(v string, under *ListenerConfig, get func(*ListenerConfig) string) string {
	if v != "" || under == nil {
		return v
	}
	return get(under)
}

func optionsOf(lc *ListenerConfig) map[string]any {
	if lc == nil {
		return nil
	}
	return lc.Options
}

// mergeOptions lays over onto a copy of under. over wins on conflict.
func mergeOptions(under, over map[string]any) map[string]any {
	if len(under) == 0 && len(over) == 0 {
		return nil
	}
	merged := make(map[string]any, len(under)+len(over))
	for k, v := range under {
		merged[k] = v
	}
	for k, v := range over {
		merged[k] = v
	}
	return merged
}

func errorView(endpointID string) string {
	root, _, _ := strings.Cut(endpointID, ".")
	return root + "ErrorView"
}
