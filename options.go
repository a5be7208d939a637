package ram

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ram-framework/ram/cache"
	"github.com/ram-framework/ram/config"
	"github.com/ram-framework/ram/llm"
	"github.com/ram-framework/ram/telemetry"
)

// Option configures the Analyzer.
type Option func(*analyzerConfig)

// analyzerConfig collects the settings Options apply before the Analyzer is
// constructed. Zero values mean "use the default".
type analyzerConfig struct {
	logger         *slog.Logger
	provider       string
	model          string
	apiKey         string
	threshold      float64
	maxDisplay     int
	candidateCount int
	factory        ProviderFactory
	cache          cache.SnippetCache
	telemetry      *telemetry.Telemetry
	llmTimeout     time.Duration
	retry          llm.RetryPolicy
	searchEndpoint string
	searchTimeout  time.Duration
	searchHTTP     *http.Client
}

// WithLogger sets a custom logger for the analyzer.
// If not provided, a JSON logger writing to stdout is created.
func WithLogger(logger *slog.Logger) Option {
	return func(c *analyzerConfig) {
		c.logger = logger
	}
}

// WithProvider sets the default model provider ("gemini" or "anthropic").
// Requests may override it per analysis. The default is Gemini.
func WithProvider(provider string) Option {
	return func(c *analyzerConfig) {
		c.provider = provider
	}
}

// WithModel sets the default model identifier. Empty selects the provider's
// default model; an unknown model resolves to the provider's fallback model
// at request time.
func WithModel(model string) Option {
	return func(c *analyzerConfig) {
		c.model = model
	}
}

// WithAPIKey sets the server-side provider credential. Requests that carry
// their own key take precedence; with neither, analysis fails with an
// authentication error before any network call.
func WithAPIKey(key string) Option {
	return func(c *analyzerConfig) {
		c.apiKey = key
	}
}

// WithConfidenceThreshold sets the minimum relevance score a technique must
// reach to appear in results. Must be within [0,1]; zero selects the
// default (0.7).
func WithConfidenceThreshold(threshold float64) Option {
	return func(c *analyzerConfig) {
		c.threshold = threshold
	}
}

// WithMaxDisplay sets the default cap on techniques returned to a display
// surface. The report always carries every mapping; this cap applies at the
// API boundary.
func WithMaxDisplay(max int) Option {
	return func(c *analyzerConfig) {
		c.maxDisplay = max
	}
}

// WithCandidateCount sets how many candidate techniques the recommendation
// stage requests from the model.
func WithCandidateCount(count int) Option {
	return func(c *analyzerConfig) {
		c.candidateCount = count
	}
}

// WithProviderFactory replaces the provider constructor. Tests use this to
// substitute scripted providers; the default is llm.NewProvider.
func WithProviderFactory(factory ProviderFactory) Option {
	return func(c *analyzerConfig) {
		c.factory = factory
	}
}

// WithCache sets the snippet cache shared across analysis runs.
// If not provided, an in-memory cache with the default TTL is used.
func WithCache(snippets cache.SnippetCache) Option {
	return func(c *analyzerConfig) {
		c.cache = snippets
	}
}

// WithTelemetry sets the telemetry recorder for spans and metrics.
// If not provided, a no-op recorder is used.
func WithTelemetry(tel *telemetry.Telemetry) Option {
	return func(c *analyzerConfig) {
		c.telemetry = tel
	}
}

// WithRequestTimeout bounds a single completion request to the provider.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(c *analyzerConfig) {
		c.llmTimeout = timeout
	}
}

// WithRetryPolicy sets the fixed-delay retry policy applied to provider
// rate-limit rejections. The default is llm.DefaultRetryPolicy.
func WithRetryPolicy(policy llm.RetryPolicy) Option {
	return func(c *analyzerConfig) {
		c.retry = policy
	}
}

// WithSearchEndpoint overrides the Instant Answer API endpoint used for
// context retrieval. Tests point this at a local server.
func WithSearchEndpoint(endpoint string) Option {
	return func(c *analyzerConfig) {
		c.searchEndpoint = endpoint
	}
}

// WithSearchTimeout bounds a single context lookup.
func WithSearchTimeout(timeout time.Duration) Option {
	return func(c *analyzerConfig) {
		c.searchTimeout = timeout
	}
}

// WithSearchHTTPClient replaces the HTTP client used for context lookups.
func WithSearchHTTPClient(client *http.Client) Option {
	return func(c *analyzerConfig) {
		c.searchHTTP = client
	}
}

// FromConfig applies the analyzer-relevant settings from a loaded
// configuration file: provider, model, credential, analysis parameters,
// retry policy, and search endpoint. The cache and telemetry stacks are
// constructed separately (see NewCache and the telemetry package) because
// their lifecycles belong to the caller.
func FromConfig(cfg *config.Config) Option {
	return func(c *analyzerConfig) {
		if cfg == nil {
			return
		}
		c.provider = cfg.LLM.GetProvider()
		c.model = cfg.LLM.GetModel()
		c.apiKey = cfg.LLM.APIKey
		c.llmTimeout = cfg.LLM.GetRequestTimeout()
		c.retry = cfg.LLM.GetRetryPolicy()
		c.threshold = cfg.Analysis.GetConfidenceThreshold()
		c.maxDisplay = cfg.Analysis.GetMaxDisplay()
		c.candidateCount = cfg.Analysis.GetCandidateCount()
		c.searchEndpoint = cfg.Search.GetEndpoint()
		c.searchTimeout = cfg.Search.GetTimeout()
	}
}
