// Copyright (c) 2025 Girderworks and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package endpoint

import (
	"fmt"
)

// ExternalURL computes the canonical URL the endpoint is reachable at.
//
// Scheme and port are derived from the secure listener section if present,
// then the plain one, falling back to "http" on port 80. Any field set in
// the url section wins over the derived values. Default ports (80 for
// http, 443 for https) are omitted from the rendered URL.
//
// ExternalURL is pure: it never starts, stops or otherwise touches any
// listener.
func (c Config) ExternalURL() string {
	scheme, port := "http", 80
	switch {
	case c.HTTPS != nil:
		scheme, port = "https", portOr(c.HTTPS.Port, DefaultHTTPSPort)
	case c.HTTP != nil:
		scheme, port = "http", portOr(c.HTTP.Port, DefaultHTTPPort)
	}

	host := c.URL.Host
	if host == "" {
		host = "localhost"
	}
	if c.URL.Scheme != "" {
		scheme = c.URL.Scheme
	}
	if c.URL.Port != 0 {
		port = c.URL.Port
	}

	if (scheme == "https" && port == 443) || (scheme == "http" && port == 80) {
		return fmt.Sprintf("%s://%s%s", scheme, host, c.URL.Path)
	}
	return fmt.Sprintf("%s://%s:%d%s", scheme, host, port, c.URL.Path)
}
