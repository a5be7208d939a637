package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const (
	// anthropicBaseURL is the hosted Anthropic API endpoint.
	anthropicBaseURL = "https://api.anthropic.com"

	// anthropicVersion is the API version header required on every request.
	anthropicVersion = "2023-06-01"

	// defaultAnthropicMaxTokens is used when the request does not set
	// MaxTokens; the messages endpoint requires max_tokens.
	defaultAnthropicMaxTokens = 4096
)

// Anthropic calls the Anthropic Messages API over REST.
type Anthropic struct {
	model   string
	apiKey  string
	baseURL string
	rest    *restClient
	logger  *slog.Logger
}

// NewAnthropic constructs an Anthropic provider. The API key is validated
// locally; an unknown model resolves to FallbackAnthropicModel with a
// warning.
func NewAnthropic(cfg Config) (*Anthropic, error) {
	if err := ValidateAPIKey(cfg.APIKey); err != nil {
		return nil, err
	}

	model, fellBack, err := ResolveModel(ProviderAnthropic, cfg.Model)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if fellBack {
		logger.Warn("unknown model requested, using fallback",
			"provider", ProviderAnthropic,
			"requested", cfg.Model,
			"model", model)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = anthropicBaseURL
	}

	return &Anthropic{
		model:   model,
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		rest:    newRESTClient(cfg),
		logger:  logger,
	}, nil
}

// Name returns the provider identifier.
func (a *Anthropic) Name() string { return ProviderAnthropic }

// Model returns the resolved model identifier.
func (a *Anthropic) Model() string { return a.model }

// Wire types for the messages endpoint.
type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature *float64           `json:"temperature,omitempty"`
	TopP        *float64           `json:"top_p,omitempty"`
	TopK        *int               `json:"top_k,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Complete sends the conversation to the messages endpoint. System messages
// are folded into the top-level system field; max_tokens defaults to
// defaultAnthropicMaxTokens because the endpoint requires it.
func (a *Anthropic) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	const op = "Anthropic.Complete"

	if req == nil || len(req.Messages) == 0 {
		return nil, fmt.Errorf("%s: no messages in request", op)
	}

	maxTokens := defaultAnthropicMaxTokens
	if req.MaxTokens != nil && *req.MaxTokens > 0 {
		maxTokens = *req.MaxTokens
	}

	payload := anthropicRequest{
		Model:       a.model,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		TopK:        req.TopK,
	}

	var system []string
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			payload.Messages = append(payload.Messages, anthropicMessage{
				Role:    "assistant",
				Content: m.Content,
			})
		default:
			payload.Messages = append(payload.Messages, anthropicMessage{
				Role:    "user",
				Content: m.Content,
			})
		}
	}
	if len(system) > 0 {
		payload.System = strings.Join(system, "\n\n")
	}

	url := a.baseURL + "/v1/messages"
	headers := map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": anthropicVersion,
	}

	var resp anthropicResponse
	if err := a.rest.postJSON(ctx, op, url, headers, payload, &resp); err != nil {
		return nil, err
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	content := sb.String()
	if content == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNoContent)
	}

	return &CompletionResponse{
		Content:      content,
		FinishReason: normalizeAnthropicStop(resp.StopReason),
		Usage: TokenUsage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			TotalTokens:  resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}, nil
}

func normalizeAnthropicStop(reason string) string {
	switch reason {
	case "end_turn", "stop_sequence", "":
		return "stop"
	case "max_tokens":
		return "length"
	case "refusal":
		return "content_filter"
	default:
		return strings.ToLower(reason)
	}
}
