package ram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ram-framework/ram/cache"
	"github.com/ram-framework/ram/config"
	"github.com/ram-framework/ram/health"
	"github.com/ram-framework/ram/llm"
	"github.com/ram-framework/ram/pipeline"
	"github.com/ram-framework/ram/result"
	"github.com/ram-framework/ram/search"
	"github.com/ram-framework/ram/telemetry"
	"github.com/ram-framework/ram/types"
)

// ProviderFactory builds the hosted-model client for one analysis request.
// The default factory is llm.NewProvider; tests substitute their own.
type ProviderFactory func(cfg llm.Config) (llm.Provider, error)

// Request is one analysis submission. Zero-valued fields fall back to the
// analyzer's configured defaults.
type Request struct {
	// Rule is the raw SIEM rule text. Required.
	Rule string

	// Provider overrides the default provider ("gemini" or "anthropic").
	Provider string

	// Model overrides the default model.
	Model string

	// APIKey is the caller's provider credential. Empty falls back to the
	// server-side credential.
	APIKey string

	// ConfidenceThreshold overrides the minimum relevance score.
	ConfidenceThreshold float64

	// Progress, when set, receives a callback at the start of each
	// pipeline stage.
	Progress pipeline.ProgressFunc
}

// Analyzer maps SIEM rules onto ATT&CK techniques. It owns the long-lived
// dependencies (search client, snippet cache, telemetry) and constructs a
// provider and pipeline per request, since the credential and model may
// differ between requests.
//
// Example:
//
//	analyzer, err := ram.New(
//	    ram.WithAPIKey(os.Getenv("GEMINI_API_KEY")),
//	    ram.WithConfidenceThreshold(0.7),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer analyzer.Close()
//
//	report, err := analyzer.Analyze(ctx, ram.Request{Rule: ruleText})
type Analyzer struct {
	logger         *slog.Logger
	search         *search.Client
	searchEndpoint string
	cache          cache.SnippetCache
	telemetry      *telemetry.Telemetry
	provider       string
	model          string
	apiKey         string
	threshold      float64
	maxDisplay     int
	candidateCount int
	factory        ProviderFactory
	llmTimeout     time.Duration
	retry          llm.RetryPolicy
}

// New creates an Analyzer from the provided options.
func New(opts ...Option) (*Analyzer, error) {
	cfg := &analyzerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	if cfg.provider == "" {
		cfg.provider = llm.ProviderGemini
	}
	if _, err := llm.Models(cfg.provider); err != nil {
		return nil, NewConfigurationError("ram.New", err)
	}

	if cfg.threshold == 0 {
		cfg.threshold = pipeline.DefaultThreshold
	}
	if cfg.threshold < 0 || cfg.threshold > 1 {
		return nil, NewConfigurationError("ram.New",
			fmt.Errorf("%w: confidence threshold %v out of range [0,1]", ErrInvalidConfig, cfg.threshold))
	}

	if cfg.maxDisplay <= 0 {
		cfg.maxDisplay = config.DefaultMaxDisplay
	}

	if cfg.retry == (llm.RetryPolicy{}) {
		cfg.retry = llm.DefaultRetryPolicy()
	}

	if cfg.factory == nil {
		cfg.factory = llm.NewProvider
	}

	if cfg.cache == nil {
		cfg.cache = cache.NewMemory(0)
	}

	if cfg.telemetry == nil {
		cfg.telemetry = telemetry.Nop()
	}

	if cfg.searchEndpoint == "" {
		cfg.searchEndpoint = config.DefaultSearchEndpoint
	}

	return &Analyzer{
		logger: cfg.logger,
		search: search.NewClient(search.Config{
			BaseURL:    cfg.searchEndpoint,
			HTTPClient: cfg.searchHTTP,
			Timeout:    cfg.searchTimeout,
			Logger:     cfg.logger,
		}),
		searchEndpoint: cfg.searchEndpoint,
		cache:          cfg.cache,
		telemetry:      cfg.telemetry,
		provider:       cfg.provider,
		model:          cfg.model,
		apiKey:         cfg.apiKey,
		threshold:      cfg.threshold,
		maxDisplay:     cfg.maxDisplay,
		candidateCount: cfg.candidateCount,
		factory:        cfg.factory,
		llmTimeout:     cfg.llmTimeout,
		retry:          cfg.retry,
	}, nil
}

// Analyze runs the full six-stage analysis for one rule. The returned report
// carries every kept mapping; display capping is left to the caller (see
// MaxDisplay and result.Report.TopMappings).
//
// A failed run still returns the partial report alongside the error when one
// was produced.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*result.Report, error) {
	const op = "Analyzer.Analyze"

	rule := types.NewRule(req.Rule)
	if rule.IsEmpty() {
		return nil, NewValidationError(op, ErrEmptyRule)
	}

	key := strings.TrimSpace(req.APIKey)
	if key == "" {
		key = a.apiKey
	}
	if err := llm.ValidateAPIKey(key); err != nil {
		return nil, NewAuthError(op, err)
	}

	providerName := req.Provider
	if providerName == "" {
		providerName = a.provider
	}
	model := req.Model
	if model == "" {
		model = a.model
	}

	provider, err := a.factory(llm.Config{
		Provider: providerName,
		APIKey:   key,
		Model:    model,
		Timeout:  a.llmTimeout,
		Retry:    a.retry,
		Logger:   a.logger,
	})
	if err != nil {
		return nil, classifyProviderError(op, err)
	}

	threshold := req.ConfidenceThreshold
	if threshold == 0 {
		threshold = a.threshold
	}

	p, err := pipeline.New(pipeline.Config{
		Provider:       provider,
		Search:         a.search,
		Cache:          a.cache,
		Threshold:      threshold,
		CandidateCount: a.candidateCount,
		Telemetry:      a.telemetry,
		Logger:         a.logger,
		Progress:       req.Progress,
	})
	if err != nil {
		return nil, NewValidationError(op, err)
	}

	report, err := p.Run(ctx, rule)
	if err != nil {
		return report, classifyRunError(op, err)
	}
	return report, nil
}

// MaxDisplay returns the configured default cap on displayed techniques.
func (a *Analyzer) MaxDisplay() int {
	return a.maxDisplay
}

// Provider returns the configured default provider identifier.
func (a *Analyzer) Provider() string {
	return a.provider
}

// HasCredential reports whether a server-side API key is configured.
func (a *Analyzer) HasCredential() bool {
	return llm.ValidateAPIKey(a.apiKey) == nil
}

// Health reports the state of the analyzer's dependencies: the provider
// credential, the search endpoint, and the snippet cache.
func (a *Analyzer) Health(ctx context.Context) (health.Status, map[string]health.Status) {
	components := map[string]health.Status{
		"provider": health.CredentialCheck(a.apiKey),
		"search":   health.EndpointCheck(ctx, a.searchEndpoint),
		"cache":    health.CacheCheck(ctx, a.cache),
	}

	combined := health.Combine(
		components["provider"],
		components["search"],
		components["cache"],
	)
	return combined, components
}

// Close releases the analyzer's resources.
func (a *Analyzer) Close() error {
	return a.cache.Close()
}

// NewCache builds the snippet cache selected by the configuration.
func NewCache(cfg config.CacheConfig) (cache.SnippetCache, error) {
	switch backend := cfg.GetBackend(); backend {
	case config.BackendMemory:
		return cache.NewMemory(cfg.GetTTL()), nil
	case config.BackendRedis:
		return cache.NewRedis(cache.RedisOptions{
			URL: cfg.RedisURL,
			TTL: cfg.GetTTL(),
		})
	case config.BackendNone:
		return cache.Nop{}, nil
	default:
		return nil, NewConfigurationError("ram.NewCache",
			fmt.Errorf("%w: unknown cache backend %q", ErrInvalidConfig, backend))
	}
}

// classifyProviderError maps a provider-construction failure onto an error
// kind: credential problems are auth errors, unknown provider or model
// selections are validation errors, anything else is a provider error.
func classifyProviderError(op string, err error) *Error {
	switch {
	case errors.Is(err, ErrMissingAPIKey), errors.Is(err, ErrMalformedAPIKey):
		return NewAuthError(op, err)
	case errors.Is(err, ErrUnknownProvider), errors.Is(err, ErrUnknownModel):
		return NewValidationError(op, err)
	default:
		return NewProviderError(op, err)
	}
}

// classifyRunError maps a pipeline failure onto an error kind. Stage-level
// degradation never surfaces here; a run only fails on cancellation or an
// internal defect.
func classifyRunError(op string, err error) *Error {
	var verr *types.ValidationError

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewTimeoutError(op, err)
	case errors.Is(err, context.Canceled):
		return NewCanceledError(op, err)
	case errors.Is(err, ErrRateLimited):
		return NewRateLimitError(op, err)
	case errors.As(err, &verr):
		return NewValidationError(op, err)
	default:
		return NewInternalError(op, err)
	}
}
