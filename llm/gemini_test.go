package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func geminiTestResponse(text string) string {
	quoted, _ := json.Marshal(text)
	return `{
		"candidates": [{
			"content": {"role": "model", "parts": [{"text": ` + string(quoted) + `}]},
			"finishReason": "STOP"
		}],
		"usageMetadata": {"promptTokenCount": 12, "candidatesTokenCount": 34, "totalTokenCount": 46}
	}`
}

func TestGemini_Complete(t *testing.T) {
	var gotPath, gotKey string
	var gotPayload geminiRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(geminiTestResponse(`{"processes": ["powershell.exe"]}`))); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer server.Close()

	provider, err := NewGemini(Config{
		APIKey:  "test-key",
		Model:   "gemini-2.0-flash-exp",
		BaseURL: server.URL,
	})
	if err != nil {
		t.Fatalf("NewGemini failed: %v", err)
	}

	req := NewCompletionRequest(
		[]Message{UserMessage("extract indicators")},
		WithTemperature(0.1),
		WithTopP(0.8),
		WithTopK(40),
		WithMaxTokens(2048),
	)

	resp, err := provider.Complete(context.Background(), req)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if gotPath != "/models/gemini-2.0-flash-exp:generateContent" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("x-goog-api-key = %q", gotKey)
	}
	if len(gotPayload.Contents) != 1 || gotPayload.Contents[0].Role != "user" {
		t.Errorf("contents = %+v", gotPayload.Contents)
	}
	if gotPayload.GenerationConfig == nil {
		t.Fatal("generationConfig missing")
	}
	if got := *gotPayload.GenerationConfig.Temperature; got != 0.1 {
		t.Errorf("temperature = %v, want 0.1", got)
	}
	if got := *gotPayload.GenerationConfig.TopK; got != 40 {
		t.Errorf("topK = %v, want 40", got)
	}
	if got := *gotPayload.GenerationConfig.MaxOutputTokens; got != 2048 {
		t.Errorf("maxOutputTokens = %v, want 2048", got)
	}

	if resp.Content != `{"processes": ["powershell.exe"]}` {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.FinishReason != "stop" {
		t.Errorf("FinishReason = %q, want stop", resp.FinishReason)
	}
	if resp.Usage.TotalTokens != 46 {
		t.Errorf("TotalTokens = %d, want 46", resp.Usage.TotalTokens)
	}
}

func TestGemini_Complete_SystemInstruction(t *testing.T) {
	var gotPayload geminiRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if _, err := w.Write([]byte(geminiTestResponse("ok"))); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer server.Close()

	provider, err := NewGemini(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewGemini failed: %v", err)
	}

	req := NewCompletionRequest([]Message{
		{Role: RoleSystem, Content: "you map rules to techniques"},
		{Role: RoleUser, Content: "analyze"},
	})

	if _, err := provider.Complete(context.Background(), req); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if gotPayload.SystemInstruction == nil {
		t.Fatal("systemInstruction missing")
	}
	if got := gotPayload.SystemInstruction.Parts[0].Text; got != "you map rules to techniques" {
		t.Errorf("systemInstruction = %q", got)
	}
	if len(gotPayload.Contents) != 1 {
		t.Errorf("contents = %+v, want only the user turn", gotPayload.Contents)
	}
}

func TestGemini_Complete_RateLimitRetries(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		if _, err := w.Write([]byte(geminiTestResponse("recovered"))); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer server.Close()

	provider, err := NewGemini(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Retry:   RetryPolicy{Attempts: 2, Delay: time.Millisecond},
	})
	if err != nil {
		t.Fatalf("NewGemini failed: %v", err)
	}

	resp, err := provider.Complete(context.Background(), NewCompletionRequest([]Message{UserMessage("hi")}))
	if err != nil {
		t.Fatalf("Complete failed after retries: %v", err)
	}
	if resp.Content != "recovered" {
		t.Errorf("Content = %q", resp.Content)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestGemini_Complete_RateLimitExhausted(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	provider, err := NewGemini(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Retry:   RetryPolicy{Attempts: 1, Delay: time.Millisecond},
	})
	if err != nil {
		t.Fatalf("NewGemini failed: %v", err)
	}

	_, err = provider.Complete(context.Background(), NewCompletionRequest([]Message{UserMessage("hi")}))
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("error = %v, want ErrRateLimited", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2 (initial + 1 retry)", got)
	}
}

func TestGemini_Complete_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "internal"}}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	provider, err := NewGemini(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewGemini failed: %v", err)
	}

	_, err = provider.Complete(context.Background(), NewCompletionRequest([]Message{UserMessage("hi")}))
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error %q does not mention status", err)
	}
}

func TestGemini_Complete_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte(`{"candidates": []}`)); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer server.Close()

	provider, err := NewGemini(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewGemini failed: %v", err)
	}

	_, err = provider.Complete(context.Background(), NewCompletionRequest([]Message{UserMessage("hi")}))
	if !errors.Is(err, ErrNoContent) {
		t.Errorf("error = %v, want ErrNoContent", err)
	}
}

func TestGemini_Complete_EmptyRequest(t *testing.T) {
	provider, err := NewGemini(Config{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewGemini failed: %v", err)
	}

	if _, err := provider.Complete(context.Background(), nil); err == nil {
		t.Error("expected error for nil request")
	}
	if _, err := provider.Complete(context.Background(), &CompletionRequest{}); err == nil {
		t.Error("expected error for request without messages")
	}
}

func TestNewGemini_UnknownModelFallsBack(t *testing.T) {
	provider, err := NewGemini(Config{APIKey: "test-key", Model: "gemini-9000"})
	if err != nil {
		t.Fatalf("NewGemini failed: %v", err)
	}
	if provider.Model() != FallbackGeminiModel {
		t.Errorf("Model() = %q, want fallback %q", provider.Model(), FallbackGeminiModel)
	}
}

func TestNormalizeGeminiFinish(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"STOP", "stop"},
		{"", "stop"},
		{"MAX_TOKENS", "length"},
		{"SAFETY", "content_filter"},
		{"RECITATION", "content_filter"},
		{"OTHER", "other"},
	}

	for _, tt := range tests {
		if got := normalizeGeminiFinish(tt.in); got != tt.want {
			t.Errorf("normalizeGeminiFinish(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
