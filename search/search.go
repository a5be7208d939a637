package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// defaultBaseURL is the DuckDuckGo Instant Answer API endpoint. It is
	// free and needs no API key.
	defaultBaseURL = "https://api.duckduckgo.com/"

	// defaultTimeout bounds a single lookup.
	defaultTimeout = 5 * time.Second
)

// QueryForIoC builds the fixed query shape used to retrieve threat context
// for one indicator value.
func QueryForIoC(value string) string {
	return fmt.Sprintf("cybersecurity %s malware analysis threat", value)
}

// Client queries the DuckDuckGo Instant Answer API for contextual snippets
// about indicators of compromise.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Config carries the optional knobs for a Client.
type Config struct {
	// BaseURL overrides the Instant Answer endpoint. Used by tests; empty
	// means the real API.
	BaseURL string

	// HTTPClient overrides the HTTP client. When nil, a client with
	// Timeout (or defaultTimeout) is constructed.
	HTTPClient *http.Client

	// Timeout bounds a single lookup when HTTPClient is nil.
	Timeout time.Duration

	// Logger receives lookup-failure notices. Nil uses slog.Default().
	Logger *slog.Logger
}

// NewClient constructs a Client.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: baseURL,
		http:    client,
		logger:  logger,
	}
}

// instantAnswer is the subset of the Instant Answer response the client
// reads.
type instantAnswer struct {
	Abstract    string `json:"Abstract"`
	AbstractURL string `json:"AbstractURL"`
	Definition  string `json:"Definition"`
}

// Answer is one retrieved snippet.
type Answer struct {
	// Text is the assembled snippet.
	Text string

	// SourceURL points at the abstract's source, when the API provided one.
	SourceURL string
}

// Lookup performs one Instant Answer query and assembles the snippet text
// from the Abstract and Definition fields. An answer with neither field
// returns empty text and no error.
func (c *Client) Lookup(ctx context.Context, query string) (Answer, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Answer{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Answer{}, fmt.Errorf("send request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("failed to close resource", "resource", "search response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return Answer{}, fmt.Errorf("instant answer API returned status %d", resp.StatusCode)
	}

	var answer instantAnswer
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return Answer{}, fmt.Errorf("decode response: %w", err)
	}

	var sb strings.Builder
	if answer.Abstract != "" {
		fmt.Fprintf(&sb, "Abstract: %s ", answer.Abstract)
	}
	if answer.Definition != "" {
		fmt.Fprintf(&sb, "Definition: %s ", answer.Definition)
	}

	return Answer{Text: sb.String(), SourceURL: answer.AbstractURL}, nil
}

// Search retrieves the snippet for a query and never fails: an empty answer
// yields a generic placeholder and a lookup error yields an indicator
// placeholder, so one flaky lookup cannot abort an analysis run.
func (c *Client) Search(ctx context.Context, query string) Answer {
	answer, err := c.Lookup(ctx, query)
	if err != nil {
		c.logger.Debug("context lookup failed, using fallback",
			"query", query,
			"error", err)
		return Answer{Text: "Cybersecurity indicator: " + query}
	}

	if answer.Text == "" {
		return Answer{Text: "General cybersecurity context for: " + query, SourceURL: answer.SourceURL}
	}

	return answer
}
