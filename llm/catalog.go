package llm

import (
	"errors"
	"fmt"
)

// Provider identifiers.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// Default and fallback models per provider. The fallback is substituted when
// an unknown model is requested; construction warns and degrades rather than
// failing the run.
const (
	DefaultGeminiModel  = "gemini-2.0-flash-exp"
	FallbackGeminiModel = "gemini-pro"

	DefaultAnthropicModel  = "claude-sonnet-4-0"
	FallbackAnthropicModel = "claude-3-5-haiku-latest"
)

// ModelInfo describes one entry in a provider's model menu.
type ModelInfo struct {
	// ID is the provider-side model identifier sent on the wire.
	ID string `json:"id"`

	// DisplayName is the human-readable name shown in menus.
	DisplayName string `json:"display_name"`
}

var geminiModels = []ModelInfo{
	{ID: "gemini-2.0-flash-exp", DisplayName: "Gemini 2.0 Flash (Experimental)"},
	{ID: "gemini-2.0-flash", DisplayName: "Gemini 2.0 Flash"},
	{ID: "gemini-1.5-flash", DisplayName: "Gemini 1.5 Flash"},
	{ID: "gemini-1.5-pro", DisplayName: "Gemini 1.5 Pro"},
	{ID: "gemini-pro", DisplayName: "Gemini Pro"},
}

var anthropicModels = []ModelInfo{
	{ID: "claude-sonnet-4-0", DisplayName: "Claude Sonnet 4"},
	{ID: "claude-3-7-sonnet-latest", DisplayName: "Claude 3.7 Sonnet"},
	{ID: "claude-3-5-haiku-latest", DisplayName: "Claude 3.5 Haiku"},
}

// Providers returns the supported provider identifiers.
func Providers() []string {
	return []string{ProviderGemini, ProviderAnthropic}
}

// GeminiModels returns the Gemini model menu in display order.
func GeminiModels() []ModelInfo {
	out := make([]ModelInfo, len(geminiModels))
	copy(out, geminiModels)
	return out
}

// AnthropicModels returns the Claude model menu in display order.
func AnthropicModels() []ModelInfo {
	out := make([]ModelInfo, len(anthropicModels))
	copy(out, anthropicModels)
	return out
}

// Models returns the model menu for a provider.
func Models(provider string) ([]ModelInfo, error) {
	switch provider {
	case ProviderGemini:
		return GeminiModels(), nil
	case ProviderAnthropic:
		return AnthropicModels(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
}

// DefaultModel returns the default model for a provider.
func DefaultModel(provider string) (string, error) {
	switch provider {
	case ProviderGemini:
		return DefaultGeminiModel, nil
	case ProviderAnthropic:
		return DefaultAnthropicModel, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
}

// FallbackModel returns the model substituted when an unknown model is
// requested from a provider.
func FallbackModel(provider string) (string, error) {
	switch provider {
	case ProviderGemini:
		return FallbackGeminiModel, nil
	case ProviderAnthropic:
		return FallbackAnthropicModel, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
}

// Lookup finds a model in a provider's menu. A model outside the menu
// returns ErrUnknownModel.
func Lookup(provider, model string) (ModelInfo, error) {
	menu, err := Models(provider)
	if err != nil {
		return ModelInfo{}, err
	}

	for _, m := range menu {
		if m.ID == model {
			return m, nil
		}
	}

	return ModelInfo{}, fmt.Errorf("%w: %q for provider %q", ErrUnknownModel, model, provider)
}

// ResolveModel maps a requested model to the one the provider will actually
// call. An empty request selects the provider default. A request outside the
// menu resolves to the provider's fallback model; the second return reports
// that substitution so callers can surface a warning.
func ResolveModel(provider, requested string) (string, bool, error) {
	if requested == "" {
		model, err := DefaultModel(provider)
		return model, false, err
	}

	if _, err := Lookup(provider, requested); err != nil {
		if errors.Is(err, ErrUnknownModel) {
			fallback, ferr := FallbackModel(provider)
			return fallback, true, ferr
		}
		return "", false, err
	}

	return requested, false, nil
}
