// Package llm provides the hosted-model layer for rule analysis.
//
// This package defines the provider-agnostic completion types and the
// concrete REST providers, including:
//   - Message types for conversations (system, user, assistant)
//   - Completion requests and responses with generation parameters
//   - The Provider interface and the Gemini and Anthropic implementations
//   - A model catalog with per-provider menus, defaults, and fallbacks
//   - Local API key validation and fixed-delay rate-limit retries
//   - Token usage tracking across pipeline stages
//
// # Completion Requests
//
// CompletionRequest represents a request to a model for text generation.
// Use functional options to configure the request:
//
//	req := llm.NewCompletionRequest(messages,
//	    llm.WithTemperature(0.1),
//	    llm.WithTopP(0.8),
//	    llm.WithTopK(40),
//	    llm.WithMaxTokens(2048),
//	)
//
// # Providers
//
// Providers are constructed from a Config. The API key is validated locally
// before any network activity, so a missing or malformed key fails without
// a single request being sent:
//
//	provider, err := llm.NewProvider(llm.Config{
//	    Provider: llm.ProviderGemini,
//	    APIKey:   os.Getenv("GEMINI_API_KEY"),
//	    Model:    "gemini-2.0-flash-exp",
//	    Retry:    llm.DefaultRetryPolicy(),
//	})
//	if err != nil {
//	    return err
//	}
//	resp, err := provider.Complete(ctx, req)
//
// # Model Catalog
//
// Each provider exposes a fixed menu of supported models. An empty model
// selects the provider default; a model outside the menu resolves to the
// provider's fallback with a warning instead of failing:
//
//	model, fellBack, err := llm.ResolveModel(llm.ProviderGemini, "gemini-9000")
//	// model == llm.FallbackGeminiModel, fellBack == true
//
// # Rate Limiting
//
// HTTP 429 responses are retried with a fixed delay between attempts, never
// exponential backoff. When retries are exhausted the completion fails with
// ErrRateLimited.
//
// # Token Tracking
//
// Track token usage across pipeline stages with TokenTracker:
//
//	tracker := llm.NewTokenTracker()
//	tracker.Add("extract_iocs", resp.Usage)
//	total := tracker.Total()
package llm
