package llm

import (
	"errors"
	"net/http"
	"testing"
	"time"
)

// roundTripperFunc lets tests observe whether any HTTP request is attempted.
type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want error
	}{
		{name: "valid key", key: "AIzaSyB-test-key-1234", want: nil},
		{name: "empty", key: "", want: ErrMissingAPIKey},
		{name: "whitespace only", key: "   ", want: ErrMissingAPIKey},
		{name: "tab only", key: "\t", want: ErrMissingAPIKey},
		{name: "embedded space", key: "abc def", want: ErrMalformedAPIKey},
		{name: "trailing newline", key: "abc123\n", want: ErrMalformedAPIKey},
		{name: "control character", key: "abc\x00def", want: ErrMalformedAPIKey},
		{name: "non-ascii rune", key: "abcé", want: ErrMalformedAPIKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAPIKey(tt.key)
			if tt.want == nil {
				if err != nil {
					t.Errorf("ValidateAPIKey(%q) = %v, want nil", tt.key, err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("ValidateAPIKey(%q) = %v, want %v", tt.key, err, tt.want)
			}
		})
	}
}

func TestNewProvider_BadKeyMakesNoRequest(t *testing.T) {
	var called bool
	client := &http.Client{
		Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
			called = true
			return nil, errors.New("transport should not be used")
		}),
	}

	for _, key := range []string{"", "   ", "bad key", "bad\nkey"} {
		if _, err := NewProvider(Config{
			Provider:   ProviderGemini,
			APIKey:     key,
			HTTPClient: client,
		}); err == nil {
			t.Errorf("NewProvider with key %q succeeded, want error", key)
		}
	}

	if called {
		t.Error("key validation attempted a network request")
	}
}

func TestNewProvider_Dispatch(t *testing.T) {
	gemini, err := NewProvider(Config{Provider: ProviderGemini, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewProvider(gemini) failed: %v", err)
	}
	if gemini.Name() != ProviderGemini {
		t.Errorf("Name() = %q, want %q", gemini.Name(), ProviderGemini)
	}
	if gemini.Model() != DefaultGeminiModel {
		t.Errorf("Model() = %q, want default %q", gemini.Model(), DefaultGeminiModel)
	}

	anthropic, err := NewProvider(Config{Provider: ProviderAnthropic, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewProvider(anthropic) failed: %v", err)
	}
	if anthropic.Name() != ProviderAnthropic {
		t.Errorf("Name() = %q, want %q", anthropic.Name(), ProviderAnthropic)
	}
	if anthropic.Model() != DefaultAnthropicModel {
		t.Errorf("Model() = %q, want default %q", anthropic.Model(), DefaultAnthropicModel)
	}
}

func TestNewProvider_UnknownProvider(t *testing.T) {
	_, err := NewProvider(Config{Provider: "openai", APIKey: "test-key"})
	if !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("error = %v, want ErrUnknownProvider", err)
	}
}

func TestDefaultRetryPolicy(t *testing.T) {
	policy := DefaultRetryPolicy()

	if policy.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", policy.Attempts)
	}
	if policy.Delay != 2*time.Second {
		t.Errorf("Delay = %v, want 2s", policy.Delay)
	}
}

func TestRetryPolicy_Normalize(t *testing.T) {
	policy := RetryPolicy{Attempts: -3, Delay: -time.Second}.normalize()

	if policy.Attempts != 0 {
		t.Errorf("Attempts = %d, want 0", policy.Attempts)
	}
	if policy.Delay != 0 {
		t.Errorf("Delay = %v, want 0", policy.Delay)
	}
}

func TestBodySnippet(t *testing.T) {
	short := bodySnippet([]byte("  error text  "))
	if short != "error text" {
		t.Errorf("bodySnippet = %q", short)
	}

	long := make([]byte, 2048)
	for i := range long {
		long[i] = 'x'
	}
	got := bodySnippet(long)
	if len(got) != 512+len("...") {
		t.Errorf("len(bodySnippet(long)) = %d, want %d", len(got), 512+len("..."))
	}
}
