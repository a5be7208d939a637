package ram

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ram-framework/ram/llm"
)

// Sentinel errors for common analysis failure conditions.
// These errors can be used with errors.Is() for error checking.
// The provider-related sentinels are aliases for the llm package's so that
// callers can match either way.
var (
	// ErrMissingAPIKey indicates no API key was supplied for the LLM provider.
	ErrMissingAPIKey = llm.ErrMissingAPIKey

	// ErrMalformedAPIKey indicates the supplied API key cannot be a valid
	// credential (for example it contains whitespace or control characters).
	ErrMalformedAPIKey = llm.ErrMalformedAPIKey

	// ErrEmptyRule indicates the submitted rule text was empty or whitespace.
	ErrEmptyRule = errors.New("empty rule")

	// ErrUnknownProvider indicates the requested LLM provider is not supported.
	ErrUnknownProvider = llm.ErrUnknownProvider

	// ErrUnknownModel indicates the requested model is not in the provider's
	// model catalog.
	ErrUnknownModel = llm.ErrUnknownModel

	// ErrRateLimited indicates the provider kept rejecting requests with a
	// rate-limit status after the configured retries were exhausted.
	ErrRateLimited = llm.ErrRateLimited

	// ErrNoContent indicates the provider returned a response with no usable
	// text content.
	ErrNoContent = llm.ErrNoContent

	// ErrInvalidConfig indicates the provided configuration is invalid or incomplete.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Error kinds categorize errors by their type.
const (
	// KindAuth represents authentication errors (missing or malformed API key,
	// rejected credentials).
	KindAuth = "auth"

	// KindValidation represents errors related to input validation.
	KindValidation = "validation"

	// KindProvider represents errors returned by or while talking to an LLM
	// provider.
	KindProvider = "provider"

	// KindRateLimit represents provider rate-limit rejections.
	KindRateLimit = "rate_limit"

	// KindParse represents failures to extract structured data from model output.
	KindParse = "parse"

	// KindSearch represents errors from the web-search adapter.
	KindSearch = "search"

	// KindCache represents errors from the snippet cache.
	KindCache = "cache"

	// KindConfiguration represents errors related to configuration.
	KindConfiguration = "configuration"

	// KindTimeout represents errors related to operation timeouts.
	KindTimeout = "timeout"

	// KindCanceled represents runs aborted by context cancellation.
	KindCanceled = "canceled"

	// KindInternal represents internal errors.
	KindInternal = "internal"
)

// Error is a structured error type that wraps underlying errors with
// additional context about the operation that failed and the category of
// error.
//
// Error implements the error interface and supports error unwrapping,
// making it compatible with errors.Is() and errors.As().
//
// Example usage:
//
//	err := &ram.Error{
//		Op:   "Analyzer.Analyze",
//		Kind: ram.KindAuth,
//		Err:  ram.ErrMissingAPIKey,
//	}
type Error struct {
	// Op is the operation that failed (e.g., "Gemini.Complete", "Pipeline.Run").
	Op string

	// Kind categorizes the error (e.g., KindAuth, KindParse).
	Kind string

	// Err is the underlying error that caused this error.
	Err error

	// Context provides additional context about the error (optional).
	// This can include model names, stage names, or other debugging information.
	Context map[string]any
}

// Error implements the error interface, returning a formatted error message
// that includes the operation, kind, and underlying error.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("ram: %s: %s", e.Op, e.Kind)
	}

	if len(e.Context) > 0 {
		return fmt.Sprintf("ram: %s (%s): %v [context: %+v]", e.Op, e.Kind, e.Err, e.Context)
	}

	return fmt.Sprintf("ram: %s (%s): %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error, allowing errors.Is() and errors.As()
// to work correctly with wrapped errors.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error matching for Error, allowing comparison based on
// the underlying error or the Error itself.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}

	// Check if target is an Error with matching Kind
	if t, ok := target.(*Error); ok {
		if t.Kind != "" && e.Kind == t.Kind {
			if t.Op == "" || e.Op == t.Op {
				return true
			}
		}
	}

	// Delegate to underlying error
	return errors.Is(e.Err, target)
}

// WithContext returns a copy of the error with the provided context added.
// This is useful for attaching debugging information such as the model name
// or the technique ID being scored.
func (e *Error) WithContext(ctx map[string]any) *Error {
	newErr := *e
	if newErr.Context == nil {
		newErr.Context = make(map[string]any)
	}
	for k, v := range ctx {
		newErr.Context[k] = v
	}
	return &newErr
}

// NewAuthError creates a new Error with KindAuth.
func NewAuthError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindAuth, Err: err}
}

// NewValidationError creates a new Error with KindValidation.
func NewValidationError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindValidation, Err: err}
}

// NewProviderError creates a new Error with KindProvider.
func NewProviderError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindProvider, Err: err}
}

// NewRateLimitError creates a new Error with KindRateLimit.
func NewRateLimitError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindRateLimit, Err: err}
}

// NewParseError creates a new Error with KindParse.
func NewParseError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindParse, Err: err}
}

// NewSearchError creates a new Error with KindSearch.
func NewSearchError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindSearch, Err: err}
}

// NewCacheError creates a new Error with KindCache.
func NewCacheError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindCache, Err: err}
}

// NewConfigurationError creates a new Error with KindConfiguration.
func NewConfigurationError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindConfiguration, Err: err}
}

// NewTimeoutError creates a new Error with KindTimeout.
func NewTimeoutError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindTimeout, Err: err}
}

// NewCanceledError creates a new Error with KindCanceled.
func NewCanceledError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindCanceled, Err: err}
}

// NewInternalError creates a new Error with KindInternal.
func NewInternalError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindInternal, Err: err}
}

// CloseWithLog attempts to close the provided resource and logs any error
// at warning level. This is intended for use in defer statements to ensure
// cleanup errors are not silently ignored.
//
// The name parameter should describe the resource being closed (e.g.,
// "response body", "redis client"). If logger is nil, slog.Default() is used.
//
// Example usage:
//
//	defer ram.CloseWithLog(resp.Body, logger, "response body")
func CloseWithLog(closer io.Closer, logger *slog.Logger, name string) {
	if closer == nil {
		return
	}

	if logger == nil {
		logger = slog.Default()
	}

	if err := closer.Close(); err != nil {
		logger.Warn("failed to close resource",
			"resource", name,
			"error", err)
	}
}
