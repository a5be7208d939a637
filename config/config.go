// Package config provides loading and parsing of ramd YAML configuration
// files. Every field has a working default, so an empty file (or no file at
// all) yields a runnable configuration; accessor methods apply the defaults
// for zero values.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ram-framework/ram/llm"
	"github.com/ram-framework/ram/prompt"
)

// Environment variables that override the configured provider credential.
const (
	EnvGeminiAPIKey    = "GEMINI_API_KEY"
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
)

// Cache backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Defaults applied by the accessor methods.
const (
	DefaultAddr                = ":8080"
	DefaultReadTimeout         = 15 * time.Second
	DefaultShutdownTimeout     = 10 * time.Second
	DefaultRequestTimeout      = 60 * time.Second
	DefaultRetryAttempts       = 2
	DefaultRetryDelay          = 2 * time.Second
	DefaultConfidenceThreshold = 0.7
	DefaultMaxDisplay          = 5
	DefaultSearchEndpoint      = "https://api.duckduckgo.com/"
	DefaultSearchTimeout       = 5 * time.Second
	DefaultCacheTTL            = time.Hour
	DefaultServiceName         = "ramd"
	DefaultLogLevel            = "info"
	DefaultLogFormat           = "text"
)

// Config represents a ramd configuration file.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	LLM       LLMConfig       `yaml:"llm"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Search    SearchConfig    `yaml:"search"`
	Cache     CacheConfig     `yaml:"cache"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// Addr is the listen address. Default: ":8080".
	Addr string `yaml:"addr,omitempty"`

	// ReadTimeout bounds reading a request.
	// Format: Go duration string (e.g. "15s"). Default: 15s.
	ReadTimeout string `yaml:"read_timeout,omitempty"`

	// WriteTimeout bounds writing a response. Analysis responses stream for
	// the lifetime of a run, so the default is "0s" (disabled).
	WriteTimeout string `yaml:"write_timeout,omitempty"`

	// ShutdownTimeout is the time to wait for in-flight requests on
	// graceful shutdown. Default: 10s.
	ShutdownTimeout string `yaml:"shutdown_timeout,omitempty"`
}

// GetAddr returns the listen address or the default value.
func (s ServerConfig) GetAddr() string {
	if s.Addr == "" {
		return DefaultAddr
	}
	return s.Addr
}

// GetReadTimeout parses the read timeout and returns a duration.
// Returns the default value if not set or invalid.
func (s ServerConfig) GetReadTimeout() time.Duration {
	return durationOr(s.ReadTimeout, DefaultReadTimeout)
}

// GetWriteTimeout parses the write timeout and returns a duration.
// Returns 0 (disabled) if not set or invalid.
func (s ServerConfig) GetWriteTimeout() time.Duration {
	return durationOr(s.WriteTimeout, 0)
}

// GetShutdownTimeout parses the shutdown timeout and returns a duration.
// Returns the default value if not set or invalid.
func (s ServerConfig) GetShutdownTimeout() time.Duration {
	return durationOr(s.ShutdownTimeout, DefaultShutdownTimeout)
}

// LLMConfig configures the hosted-model provider.
type LLMConfig struct {
	// Provider selects the implementation: "gemini" or "anthropic".
	// Default: "gemini".
	Provider string `yaml:"provider,omitempty"`

	// Model is the model identifier. Empty selects the provider default.
	Model string `yaml:"model,omitempty"`

	// APIKey is the provider credential. The matching environment variable
	// (GEMINI_API_KEY or ANTHROPIC_API_KEY) overrides it; see ApplyEnv.
	APIKey string `yaml:"api_key,omitempty"`

	// RequestTimeout bounds a single completion request.
	// Format: Go duration string. Default: 60s.
	RequestTimeout string `yaml:"request_timeout,omitempty"`

	// RetryAttempts is the number of fixed-delay retries after a rate-limit
	// rejection. Default: 2.
	RetryAttempts int `yaml:"retry_attempts,omitempty"`

	// RetryDelay is the pause before each retry.
	// Format: Go duration string. Default: 2s.
	RetryDelay string `yaml:"retry_delay,omitempty"`
}

// GetProvider returns the provider identifier or the default value.
func (l LLMConfig) GetProvider() string {
	if l.Provider == "" {
		return llm.ProviderGemini
	}
	return l.Provider
}

// GetModel returns the configured model, or the provider's default model
// when unset.
func (l LLMConfig) GetModel() string {
	if l.Model != "" {
		return l.Model
	}
	model, err := llm.DefaultModel(l.GetProvider())
	if err != nil {
		return ""
	}
	return model
}

// GetRequestTimeout parses the request timeout and returns a duration.
// Returns the default value if not set or invalid.
func (l LLMConfig) GetRequestTimeout() time.Duration {
	return durationOr(l.RequestTimeout, DefaultRequestTimeout)
}

// GetRetryAttempts returns the configured retry count or the default value.
func (l LLMConfig) GetRetryAttempts() int {
	if l.RetryAttempts <= 0 {
		return DefaultRetryAttempts
	}
	return l.RetryAttempts
}

// GetRetryDelay parses the retry delay and returns a duration.
// Returns the default value if not set or invalid.
func (l LLMConfig) GetRetryDelay() time.Duration {
	return durationOr(l.RetryDelay, DefaultRetryDelay)
}

// GetRetryPolicy assembles the provider retry policy.
func (l LLMConfig) GetRetryPolicy() llm.RetryPolicy {
	return llm.RetryPolicy{
		Attempts: l.GetRetryAttempts(),
		Delay:    l.GetRetryDelay(),
	}
}

// String implements fmt.Stringer with the credential redacted.
func (l LLMConfig) String() string {
	return fmt.Sprintf("provider=%s model=%s api_key=%s",
		l.GetProvider(), l.GetModel(), redact(l.APIKey))
}

// LogValue implements slog.LogValuer so logging the config never exposes
// the credential.
func (l LLMConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("provider", l.GetProvider()),
		slog.String("model", l.GetModel()),
		slog.String("api_key", redact(l.APIKey)),
	)
}

// AnalysisConfig configures the pipeline parameters.
type AnalysisConfig struct {
	// ConfidenceThreshold is the minimum relevance score a technique must
	// reach to appear in the results. Range [0.1, 1.0]. Default: 0.7.
	ConfidenceThreshold float64 `yaml:"confidence_threshold,omitempty"`

	// MaxDisplay caps how many techniques the API returns.
	// One of 3, 5, 10, 15. Default: 5.
	MaxDisplay int `yaml:"max_display,omitempty"`

	// CandidateCount is how many candidate techniques the recommendation
	// stage requests. Default: 11.
	CandidateCount int `yaml:"candidate_count,omitempty"`
}

// GetConfidenceThreshold returns the configured threshold or the default
// value.
func (a AnalysisConfig) GetConfidenceThreshold() float64 {
	if a.ConfidenceThreshold == 0 {
		return DefaultConfidenceThreshold
	}
	return a.ConfidenceThreshold
}

// GetMaxDisplay returns the configured display cap or the default value.
func (a AnalysisConfig) GetMaxDisplay() int {
	if a.MaxDisplay == 0 {
		return DefaultMaxDisplay
	}
	return a.MaxDisplay
}

// GetCandidateCount returns the configured candidate count or the default
// value.
func (a AnalysisConfig) GetCandidateCount() int {
	if a.CandidateCount <= 0 {
		return prompt.DefaultCandidateCount
	}
	return a.CandidateCount
}

// SearchConfig configures the web-search adapter.
type SearchConfig struct {
	// Endpoint is the Instant Answer API base URL. Default: the public
	// DuckDuckGo endpoint.
	Endpoint string `yaml:"endpoint,omitempty"`

	// Timeout bounds a single lookup.
	// Format: Go duration string. Default: 5s.
	Timeout string `yaml:"timeout,omitempty"`
}

// GetEndpoint returns the search endpoint or the default value.
func (s SearchConfig) GetEndpoint() string {
	if s.Endpoint == "" {
		return DefaultSearchEndpoint
	}
	return s.Endpoint
}

// GetTimeout parses the lookup timeout and returns a duration.
// Returns the default value if not set or invalid.
func (s SearchConfig) GetTimeout() time.Duration {
	return durationOr(s.Timeout, DefaultSearchTimeout)
}

// CacheConfig configures the snippet cache.
type CacheConfig struct {
	// Backend selects the cache implementation: "memory", "redis", or
	// "none". Default: "memory".
	Backend string `yaml:"backend,omitempty"`

	// RedisURL is the redis connection URL (redis://...). Required when
	// Backend is "redis".
	RedisURL string `yaml:"redis_url,omitempty"`

	// TTL is how long cached snippets stay valid.
	// Format: Go duration string. Default: 1h.
	TTL string `yaml:"ttl,omitempty"`
}

// GetBackend returns the cache backend or the default value.
func (c CacheConfig) GetBackend() string {
	if c.Backend == "" {
		return BackendMemory
	}
	return c.Backend
}

// GetTTL parses the snippet TTL and returns a duration.
// Returns the default value if not set or invalid.
func (c CacheConfig) GetTTL() time.Duration {
	return durationOr(c.TTL, DefaultCacheTTL)
}

// TelemetryConfig configures tracing and metrics.
type TelemetryConfig struct {
	// Enabled turns span and metric recording on. Default: false.
	Enabled bool `yaml:"enabled,omitempty"`

	// ServiceName is the resource name spans are attributed to.
	// Default: "ramd".
	ServiceName string `yaml:"service_name,omitempty"`
}

// GetServiceName returns the service name or the default value.
func (t TelemetryConfig) GetServiceName() string {
	if t.ServiceName == "" {
		return DefaultServiceName
	}
	return t.ServiceName
}

// LogConfig configures the process logger.
type LogConfig struct {
	// Level is the minimum level: "debug", "info", "warn", or "error".
	// Default: "info".
	Level string `yaml:"level,omitempty"`

	// Format selects the handler: "text" or "json". Default: "text".
	Format string `yaml:"format,omitempty"`
}

// GetLevel maps the configured level onto a slog.Level.
// Returns info if not set or unrecognized.
func (l LogConfig) GetLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "", "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetFormat returns the log format or the default value.
func (l LogConfig) GetFormat() string {
	if l.Format == "" {
		return DefaultLogFormat
	}
	return l.Format
}

// Default returns an empty configuration; the accessor methods supply every
// default, so the result is immediately runnable.
func Default() *Config {
	return &Config{}
}

// Load reads and parses a YAML configuration file from the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// ApplyEnv overlays the provider credential from the environment. The
// variable matching the configured provider wins over the file value; the
// file value survives when the variable is unset.
func (c *Config) ApplyEnv() {
	var key string
	switch c.LLM.GetProvider() {
	case llm.ProviderGemini:
		key = os.Getenv(EnvGeminiAPIKey)
	case llm.ProviderAnthropic:
		key = os.Getenv(EnvAnthropicAPIKey)
	}
	if key != "" {
		c.LLM.APIKey = key
	}
}

// Validate checks the effective configuration (defaults applied) and returns
// the first problem found.
func (c *Config) Validate() error {
	switch provider := c.LLM.GetProvider(); provider {
	case llm.ProviderGemini, llm.ProviderAnthropic:
	default:
		return fmt.Errorf("llm.provider: unknown provider %q", provider)
	}

	if t := c.Analysis.GetConfidenceThreshold(); t < 0.1 || t > 1.0 {
		return fmt.Errorf("analysis.confidence_threshold: %v out of range [0.1, 1.0]", t)
	}

	switch max := c.Analysis.GetMaxDisplay(); max {
	case 3, 5, 10, 15:
	default:
		return fmt.Errorf("analysis.max_display: %d is not one of 3, 5, 10, 15", max)
	}

	if c.Analysis.CandidateCount < 0 {
		return fmt.Errorf("analysis.candidate_count: %d must be at least 1", c.Analysis.CandidateCount)
	}

	switch backend := c.Cache.GetBackend(); backend {
	case BackendMemory, BackendNone:
	case BackendRedis:
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("cache.redis_url: required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend: unknown backend %q", backend)
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}

	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}

	for _, d := range []struct {
		name  string
		value string
	}{
		{"server.read_timeout", c.Server.ReadTimeout},
		{"server.write_timeout", c.Server.WriteTimeout},
		{"server.shutdown_timeout", c.Server.ShutdownTimeout},
		{"llm.request_timeout", c.LLM.RequestTimeout},
		{"llm.retry_delay", c.LLM.RetryDelay},
		{"search.timeout", c.Search.Timeout},
		{"cache.ttl", c.Cache.TTL},
	} {
		if d.value == "" {
			continue
		}
		if _, err := time.ParseDuration(d.value); err != nil {
			return fmt.Errorf("%s: invalid duration %q", d.name, d.value)
		}
	}

	return nil
}

// durationOr parses a duration string, substituting def when the value is
// empty or invalid.
func durationOr(raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

// redact masks a credential for display.
func redact(key string) string {
	if key == "" {
		return ""
	}
	return "[redacted]"
}
