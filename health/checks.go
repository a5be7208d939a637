package health

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/ram-framework/ram/cache"
	"github.com/ram-framework/ram/llm"
)

// defaultProbeTimeout bounds a connectivity probe when the caller passes a
// nil context.
const defaultProbeTimeout = 5 * time.Second

// CredentialCheck reports whether a server-side provider credential is
// configured. A missing or malformed key is degraded rather than unhealthy:
// analysis requests can still supply their own key.
func CredentialCheck(apiKey string) Status {
	if err := llm.ValidateAPIKey(apiKey); err != nil {
		return Degraded(
			"no server-side API key configured; requests must supply one",
			map[string]any{"error": err.Error()},
		)
	}
	return Healthy("server-side API key configured")
}

// EndpointCheck verifies TCP connectivity to an HTTP(S) endpoint.
// The context bounds the probe; nil gets a default 5-second timeout.
func EndpointCheck(ctx context.Context, rawURL string) Status {
	if rawURL == "" {
		return Unhealthy("endpoint URL cannot be empty", nil)
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return Unhealthy(
			fmt.Sprintf("invalid endpoint URL %q", rawURL),
			map[string]any{"url": rawURL},
		)
	}

	port := u.Port()
	if port == "" {
		switch u.Scheme {
		case "https":
			port = "443"
		default:
			port = "80"
		}
	}

	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), defaultProbeTimeout)
		defer cancel()
	}

	address := net.JoinHostPort(u.Hostname(), port)
	var dialer net.Dialer

	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return Unhealthy(
			fmt.Sprintf("failed to connect to %s", address),
			map[string]any{
				"url":   rawURL,
				"error": err.Error(),
			},
		)
	}
	conn.Close()

	return Healthy(fmt.Sprintf("successfully connected to %s", address))
}

// pinger is implemented by cache backends that hold a connection.
type pinger interface {
	Ping(ctx context.Context) error
}

// CacheCheck probes the snippet cache. A nil cache is degraded; backends
// without a connection to verify are healthy by construction.
func CacheCheck(ctx context.Context, c cache.SnippetCache) Status {
	if c == nil {
		return Degraded("snippet cache disabled", nil)
	}

	p, ok := c.(pinger)
	if !ok {
		return Healthy("snippet cache ready")
	}

	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), defaultProbeTimeout)
		defer cancel()
	}

	if err := p.Ping(ctx); err != nil {
		return Unhealthy("snippet cache unreachable", map[string]any{"error": err.Error()})
	}
	return Healthy("snippet cache reachable")
}
