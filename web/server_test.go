package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ram-framework/ram"
	"github.com/ram-framework/ram/llm"
	"github.com/ram-framework/ram/types"
)

// fifoProvider replays canned completion responses in order: extract,
// translate, recommend, then one score per candidate.
type fifoProvider struct {
	mu        sync.Mutex
	responses []string
	calls     int
}

func (p *fifoProvider) Name() string  { return "gemini" }
func (p *fifoProvider) Model() string { return "gemini-2.0-flash-exp" }

func (p *fifoProvider) Complete(_ context.Context, _ *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.calls >= len(p.responses) {
		return nil, errors.New("fifoProvider: no response scripted")
	}
	content := p.responses[p.calls]
	p.calls++

	return &llm.CompletionResponse{
		Content:      content,
		FinishReason: "stop",
		Usage:        llm.TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
	}, nil
}

// happyScript scripts a full run with one indicator, two candidates, and
// scores of 0.95 and 0.4.
func happyScript() []string {
	return []string{
		`{"processes": ["mimikatz.exe"]}`,
		"This rule detects credential dumping via a known attack tool process.",
		`[
			{"id": "T1003", "name": "OS Credential Dumping", "description": "Dumping credentials from the OS"},
			{"id": "T1059", "name": "Command and Scripting Interpreter", "description": "Abuse of command interpreters"}
		]`,
		"CONFIDENCE: 0.95\nREASONING: Exact tool match",
		"CONFIDENCE: 0.4\nREASONING: Unrelated behavior",
	}
}

// countingFactory counts provider constructions so tests can assert the
// authentication short-circuit never reached the provider.
type countingFactory struct {
	mu       sync.Mutex
	calls    int
	provider llm.Provider
}

func (f *countingFactory) new(llm.Config) (llm.Provider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.provider, nil
}

func (f *countingFactory) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newWebServer builds the full stack for one test: a scripted analyzer, the
// web server around it, and an httptest listener in front.
func newWebServer(t *testing.T, factory *countingFactory, opts ...ram.Option) *httptest.Server {
	t.Helper()

	searchSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"Abstract": "Known credential dumping tool", "AbstractURL": "https://example.org/a"}`)
	}))
	t.Cleanup(searchSrv.Close)

	base := []ram.Option{
		ram.WithLogger(discardLogger()),
		ram.WithProviderFactory(factory.new),
		ram.WithSearchEndpoint(searchSrv.URL),
		ram.WithSearchHTTPClient(searchSrv.Client()),
	}

	analyzer, err := ram.New(append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { analyzer.Close() })

	server, err := New(Config{Analyzer: analyzer, Logger: discardLogger()})
	require.NoError(t, err)

	httpSrv := httptest.NewServer(server.Handler())
	t.Cleanup(httpSrv.Close)
	return httpSrv
}

func postAnalyze(t *testing.T, srv *httptest.Server, body any) (*http.Response, []byte) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/api/analyze", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestNewRequiresAnalyzer(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	factory := &countingFactory{provider: &fifoProvider{}}
	srv := newWebServer(t, factory, ram.WithAPIKey("server-side-key"))

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status     string                     `json:"status"`
		Components map[string]json.RawMessage `json:"components"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.Equal(t, "healthy", body.Status)
	for _, name := range []string{"provider", "search", "cache"} {
		assert.Contains(t, body.Components, name)
	}
}

func TestHealthEndpointDegradedWithoutCredential(t *testing.T) {
	factory := &countingFactory{provider: &fifoProvider{}}
	srv := newWebServer(t, factory)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	// Degraded still serves traffic; only unhealthy flips the status code.
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "degraded", body.Status)
}

func TestModelsEndpoint(t *testing.T) {
	factory := &countingFactory{provider: &fifoProvider{}}
	srv := newWebServer(t, factory, ram.WithAPIKey("server-side-key"))

	resp, err := http.Get(srv.URL + "/api/models")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		DefaultProvider string `json:"default_provider"`
		Providers       []struct {
			ID           string          `json:"id"`
			DefaultModel string          `json:"default_model"`
			Models       []llm.ModelInfo `json:"models"`
		} `json:"providers"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.Equal(t, llm.ProviderGemini, body.DefaultProvider)
	require.Len(t, body.Providers, 2)

	assert.Equal(t, llm.ProviderGemini, body.Providers[0].ID)
	assert.Equal(t, llm.DefaultGeminiModel, body.Providers[0].DefaultModel)
	assert.Len(t, body.Providers[0].Models, len(llm.GeminiModels()))

	assert.Equal(t, llm.ProviderAnthropic, body.Providers[1].ID)
	assert.Equal(t, llm.DefaultAnthropicModel, body.Providers[1].DefaultModel)
}

func TestExamplesEndpoint(t *testing.T) {
	factory := &countingFactory{provider: &fifoProvider{}}
	srv := newWebServer(t, factory, ram.WithAPIKey("server-side-key"))

	resp, err := http.Get(srv.URL + "/api/examples")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Examples []struct {
			Name string `json:"name"`
			Rule string `json:"rule"`
		} `json:"examples"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	require.Len(t, body.Examples, 3)
	assert.Equal(t, "Splunk - Process Creation", body.Examples[0].Name)
	assert.NotEmpty(t, body.Examples[0].Rule)
}

func TestAnalyzeEndpoint(t *testing.T) {
	factory := &countingFactory{provider: &fifoProvider{responses: happyScript()}}
	srv := newWebServer(t, factory, ram.WithAPIKey("server-side-key"))

	resp, data := postAnalyze(t, srv, map[string]any{
		"rule": `index=main EventCode=4688 Image="*\\mimikatz.exe"`,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", data)

	var report struct {
		RunID       string                   `json:"run_id"`
		Description string                   `json:"description"`
		DataSource  string                   `json:"data_source"`
		Mappings    []types.TechniqueMapping `json:"mappings"`
		TotalFound  int                      `json:"total_found"`
		Status      string                   `json:"status"`
	}
	require.NoError(t, json.Unmarshal(data, &report))

	assert.NotEmpty(t, report.RunID)
	assert.NotEmpty(t, report.Description)
	assert.NotEmpty(t, report.DataSource)
	require.Len(t, report.Mappings, 1)
	assert.Equal(t, "T1003", report.Mappings[0].TechniqueID)
	assert.Equal(t, 1, report.TotalFound)
	assert.Equal(t, "completed", report.Status)
}

func TestAnalyzeEndpointCapsMappings(t *testing.T) {
	factory := &countingFactory{provider: &fifoProvider{responses: happyScript()}}
	srv := newWebServer(t, factory, ram.WithAPIKey("server-side-key"))

	// Threshold 0.3 keeps both scored candidates; max_display 1 caps the
	// response while total_found reports the pre-cap count.
	resp, data := postAnalyze(t, srv, map[string]any{
		"rule":                 "rule text",
		"confidence_threshold": 0.3,
		"max_display":          1,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", data)

	var report struct {
		Mappings   []types.TechniqueMapping `json:"mappings"`
		TotalFound int                      `json:"total_found"`
	}
	require.NoError(t, json.Unmarshal(data, &report))

	require.Len(t, report.Mappings, 1)
	assert.Equal(t, "T1003", report.Mappings[0].TechniqueID, "cap keeps the highest-confidence mapping")
	assert.Equal(t, 2, report.TotalFound)
}

func TestAnalyzeEndpointBlankRule(t *testing.T) {
	factory := &countingFactory{provider: &fifoProvider{}}
	srv := newWebServer(t, factory, ram.WithAPIKey("server-side-key"))

	resp, data := postAnalyze(t, srv, map[string]any{"rule": "   \n\t "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Error errorPayload `json:"error"`
	}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, ram.KindValidation, body.Error.Kind)
	assert.Equal(t, 0, factory.callCount())
}

func TestAnalyzeEndpointMissingCredential(t *testing.T) {
	factory := &countingFactory{provider: &fifoProvider{}}
	srv := newWebServer(t, factory) // no server-side key

	resp, data := postAnalyze(t, srv, map[string]any{"rule": "index=main EventCode=4688"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var body struct {
		Error errorPayload `json:"error"`
	}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, ram.KindAuth, body.Error.Kind)
	assert.NotEmpty(t, body.Error.Message)

	// The credential check fails locally, before any provider construction.
	assert.Equal(t, 0, factory.callCount())
}

func TestAnalyzeEndpointMalformedBody(t *testing.T) {
	factory := &countingFactory{provider: &fifoProvider{}}
	srv := newWebServer(t, factory, ram.WithAPIKey("server-side-key"))

	resp, err := http.Post(srv.URL+"/api/analyze", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, factory.callCount())
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"auth", ram.NewAuthError("op", errors.New("x")), http.StatusUnauthorized},
		{"validation", ram.NewValidationError("op", errors.New("x")), http.StatusBadRequest},
		{"rate limit", ram.NewRateLimitError("op", errors.New("x")), http.StatusTooManyRequests},
		{"timeout", ram.NewTimeoutError("op", errors.New("x")), http.StatusGatewayTimeout},
		{"provider", ram.NewProviderError("op", errors.New("x")), http.StatusBadGateway},
		{"internal", ram.NewInternalError("op", errors.New("x")), http.StatusInternalServerError},
		{"untyped", errors.New("x"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, httpStatus(tt.err))
		})
	}
}

func TestUserErrorHidesInternalDetail(t *testing.T) {
	err := ram.NewProviderError("op", errors.New("dial tcp 10.0.0.1: connection refused"))

	payload := userError(err)
	assert.Equal(t, ram.KindProvider, payload.Kind)
	assert.NotContains(t, payload.Message, "10.0.0.1")
}

func TestStaticUI(t *testing.T) {
	factory := &countingFactory{provider: &fifoProvider{}}
	srv := newWebServer(t, factory, ram.WithAPIKey("server-side-key"))

	tests := []struct {
		path        string
		contentType string
		contains    string
	}{
		{"/", "text/html; charset=utf-8", "Rule-ATT&amp;CK Mapper"},
		{"/app.js", "application/javascript; charset=utf-8", "ws/analyze"},
		{"/style.css", "text/css; charset=utf-8", "technique"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.contentType, resp.Header.Get("Content-Type"))

			data, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Contains(t, string(data), tt.contains)
		})
	}
}
