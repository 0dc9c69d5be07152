// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package config

import (
	"fmt"
	"net/url"
)

// validateOrigins checks a browser origin allow-list. "*" is accepted as is;
// every other entry must be scheme://host[:port] with nothing after it.
func validateOrigins(origins []string, envName string) error {
	for _, origin := range origins {
		if origin == "*" {
			continue
		}
		u, err := url.Parse(origin)
		if err != nil {
			return fmt.Errorf("%s entry %q: %w", envName, origin, err)
		}
		switch {
		case u.Scheme != "http" && u.Scheme != "https":
			return fmt.Errorf("%s entry %q: scheme must be http or https", envName, origin)
		case u.Host == "":
			return fmt.Errorf("%s entry %q: host is required", envName, origin)
		case u.Path != "" && u.Path != "/", u.RawQuery != "", u.Fragment != "":
			return fmt.Errorf("%s entry %q: must be an origin without path, query or fragment", envName, origin)
		}
	}
	return nil
}

var natsSchemes = map[string]bool{"nats": true, "tls": true, "ws": true, "wss": true}

// validateNATSURL accepts nats://, tls://, ws:// and wss:// server URLs.
func validateNATSURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if !natsSchemes[u.Scheme] {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required, e.g. nats://localhost:4222")
	}
	return nil
}
