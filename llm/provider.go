package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode"
)

// Sentinel errors for provider construction and completion failures.
// These errors can be used with errors.Is() for error checking.
var (
	// ErrMissingAPIKey indicates no API key was supplied for the provider.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrMalformedAPIKey indicates the supplied API key cannot be a valid
	// credential (for example it contains whitespace or control characters).
	ErrMalformedAPIKey = errors.New("malformed API key")

	// ErrUnknownProvider indicates the requested provider is not supported.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrUnknownModel indicates the requested model is not in the provider's
	// model catalog.
	ErrUnknownModel = errors.New("unknown model")

	// ErrRateLimited indicates the provider kept rejecting requests with a
	// rate-limit status after the configured retries were exhausted.
	ErrRateLimited = errors.New("rate limited by provider")

	// ErrNoContent indicates the provider returned a response with no usable
	// text content.
	ErrNoContent = errors.New("no content in completion response")
)

// defaultHTTPTimeout bounds a single completion request when the caller does
// not supply an HTTP client or timeout of its own.
const defaultHTTPTimeout = 60 * time.Second

// Provider is the hosted-model interface every pipeline stage talks to.
// Implementations wrap a single provider/model pair; the credential is
// captured at construction and never re-read per call.
type Provider interface {
	// Name returns the provider identifier (e.g. "gemini", "anthropic").
	Name() string

	// Model returns the resolved model identifier this provider calls.
	Model() string

	// Complete sends the request to the hosted model and returns its reply.
	// Rate-limit rejections are retried with a fixed delay before failing
	// with ErrRateLimited.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
}

// ValidateAPIKey checks that a key is plausibly a credential without making
// any network call. An empty (or all-whitespace) key returns
// ErrMissingAPIKey; a key containing whitespace, control characters, or
// non-ASCII runes returns ErrMalformedAPIKey. Keys that pass may still be
// rejected by the provider, but rejection then happens server-side.
func ValidateAPIKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrMissingAPIKey
	}

	for _, r := range key {
		if unicode.IsSpace(r) || unicode.IsControl(r) || r > unicode.MaxASCII {
			return ErrMalformedAPIKey
		}
	}

	return nil
}

// RetryPolicy controls how completion calls respond to provider rate
// limiting. A call is attempted once and retried up to Attempts more times,
// sleeping Delay between attempts. The delay is fixed, never exponential.
type RetryPolicy struct {
	// Attempts is the number of retries after the initial attempt.
	Attempts int

	// Delay is the fixed pause before each retry.
	Delay time.Duration
}

// DefaultRetryPolicy returns the standard policy: two retries with a
// two-second pause between attempts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 2, Delay: 2 * time.Second}
}

// normalize clamps nonsensical values so the retry loop always terminates.
func (p RetryPolicy) normalize() RetryPolicy {
	if p.Attempts < 0 {
		p.Attempts = 0
	}
	if p.Delay < 0 {
		p.Delay = 0
	}
	return p
}

// Config carries everything needed to construct a Provider.
type Config struct {
	// Provider selects the implementation: ProviderGemini or
	// ProviderAnthropic.
	Provider string

	// APIKey is the provider credential. Validated locally before any
	// network activity.
	APIKey string

	// Model is the requested model identifier. Empty selects the provider
	// default; unknown models resolve to the provider fallback.
	Model string

	// BaseURL overrides the provider endpoint. Used by tests; empty means
	// the real hosted endpoint.
	BaseURL string

	// HTTPClient overrides the HTTP client. When nil, a client with
	// Timeout (or defaultHTTPTimeout) is constructed.
	HTTPClient *http.Client

	// Timeout bounds a single request when HTTPClient is nil.
	Timeout time.Duration

	// Retry is the rate-limit retry policy. The zero value means no
	// retries; use DefaultRetryPolicy for the standard behavior.
	Retry RetryPolicy

	// Logger receives rate-limit and fallback warnings. Nil uses
	// slog.Default().
	Logger *slog.Logger
}

// NewProvider validates the credential and constructs the requested
// provider. The key check is purely local: a missing or malformed key fails
// here without any network call.
func NewProvider(cfg Config) (Provider, error) {
	if err := ValidateAPIKey(cfg.APIKey); err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case ProviderGemini:
		return NewGemini(cfg)
	case ProviderAnthropic:
		return NewAnthropic(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

// restClient is the HTTP plumbing shared by the provider implementations.
// It owns the fixed-delay rate-limit retry loop.
type restClient struct {
	http   *http.Client
	retry  RetryPolicy
	logger *slog.Logger
}

func newRESTClient(cfg Config) *restClient {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &restClient{
		http:   client,
		retry:  cfg.Retry.normalize(),
		logger: logger,
	}
}

// postJSON sends payload to url and decodes the JSON response into out.
// A 429 status is retried up to the policy's attempt count with a fixed
// delay between attempts; other non-2xx statuses fail immediately with a
// truncated body snippet in the error.
func (c *restClient) postJSON(ctx context.Context, op, url string, headers map[string]string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", op, err)
	}

	for attempt := 0; ; attempt++ {
		data, status, err := c.post(ctx, url, headers, body)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if status == http.StatusTooManyRequests {
			if attempt >= c.retry.Attempts {
				return fmt.Errorf("%s: %w", op, ErrRateLimited)
			}

			c.logger.Warn("provider rate limited, retrying",
				"op", op,
				"attempt", attempt+1,
				"max_attempts", c.retry.Attempts+1,
				"delay", c.retry.Delay)

			select {
			case <-time.After(c.retry.Delay):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if status < 200 || status >= 300 {
			return fmt.Errorf("%s: provider returned status %d: %s", op, status, bodySnippet(data))
		}

		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%s: decode response: %w", op, err)
		}

		return nil
	}
}

func (c *restClient) post(ctx context.Context, url string, headers map[string]string, body []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("send request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("failed to close resource", "resource", "provider response body", "error", err)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}

	return data, resp.StatusCode, nil
}

// bodySnippet truncates an error response body so provider errors stay
// readable in logs.
func bodySnippet(data []byte) string {
	const max = 512

	s := strings.TrimSpace(string(data))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
