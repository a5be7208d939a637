package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ram-framework/ram"
	"github.com/ram-framework/ram/catalog"
	"github.com/ram-framework/ram/llm"
	"github.com/ram-framework/ram/result"
)

// analyzeRequest is the body of POST /api/analyze and the first message on
// /ws/analyze. Only the rule is required; everything else falls back to the
// analyzer's configured defaults.
type analyzeRequest struct {
	Rule                string  `json:"rule"`
	Provider            string  `json:"provider,omitempty"`
	Model               string  `json:"model,omitempty"`
	APIKey              string  `json:"api_key,omitempty"`
	ConfidenceThreshold float64 `json:"confidence_threshold,omitempty"`
	MaxDisplay          int     `json:"max_display,omitempty"`
}

// analyzeResponse is a report with its mapping list capped for display.
// TotalFound preserves the pre-cap count so the UI can say "showing top N
// of M".
type analyzeResponse struct {
	*result.Report
	TotalFound int `json:"total_found"`
}

// errorPayload is the JSON shape of a failed request. Message carries only
// user-facing text; internal detail stays in the server log.
type errorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// providerMenu is one provider's entry in the GET /api/models response.
type providerMenu struct {
	ID           string          `json:"id"`
	DefaultModel string          `json:"default_model"`
	Models       []llm.ModelInfo `json:"models"`
}

func (s *Server) handleHealth(c *gin.Context) {
	combined, components := s.analyzer.Health(c.Request.Context())

	status := http.StatusOK
	if combined.IsUnhealthy() {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":     combined.State,
		"message":    combined.Message,
		"components": components,
	})
}

func (s *Server) handleModels(c *gin.Context) {
	providers := make([]providerMenu, 0, len(llm.Providers()))
	for _, id := range llm.Providers() {
		models, err := llm.Models(id)
		if err != nil {
			continue
		}
		defaultModel, _ := llm.DefaultModel(id)
		providers = append(providers, providerMenu{
			ID:           id,
			DefaultModel: defaultModel,
			Models:       models,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"default_provider": s.analyzer.Provider(),
		"providers":        providers,
	})
}

func (s *Server) handleExamples(c *gin.Context) {
	examples, err := catalog.Examples()
	if err != nil {
		s.logger.Error("example catalog unreadable", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errorPayload{
			Kind:    ram.KindInternal,
			Message: "example catalog unavailable",
		}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"examples": examples})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errorPayload{
			Kind:    ram.KindValidation,
			Message: fmt.Sprintf("invalid request body: %v", err),
		}})
		return
	}

	report, err := s.analyzer.Analyze(c.Request.Context(), ram.Request{
		Rule:                req.Rule,
		Provider:            req.Provider,
		Model:               req.Model,
		APIKey:              req.APIKey,
		ConfidenceThreshold: req.ConfidenceThreshold,
	})
	if err != nil {
		s.logger.Error("analysis failed", "error", err)
		c.JSON(httpStatus(err), gin.H{"error": userError(err)})
		return
	}

	c.JSON(http.StatusOK, s.capReport(report, req.MaxDisplay))
}

// capReport truncates the mapping list to the display limit while keeping
// the pre-cap count. A non-positive limit selects the analyzer default.
func (s *Server) capReport(r *result.Report, limit int) analyzeResponse {
	if limit <= 0 {
		limit = s.analyzer.MaxDisplay()
	}

	capped := *r
	capped.Mappings = r.TopMappings(limit)
	return analyzeResponse{Report: &capped, TotalFound: r.TotalFound()}
}

// httpStatus maps an analysis error onto an HTTP status code.
func httpStatus(err error) int {
	var rerr *ram.Error
	if !errors.As(err, &rerr) {
		return http.StatusInternalServerError
	}

	switch rerr.Kind {
	case ram.KindAuth:
		return http.StatusUnauthorized
	case ram.KindValidation:
		return http.StatusBadRequest
	case ram.KindRateLimit:
		return http.StatusTooManyRequests
	case ram.KindTimeout:
		return http.StatusGatewayTimeout
	case ram.KindProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// userError reduces an analysis error to its user-facing payload. Auth and
// validation failures carry their sentinel text (the caller needs to know
// what to fix); everything else gets a generic message and the detail goes
// to the log only.
func userError(err error) errorPayload {
	var rerr *ram.Error
	if !errors.As(err, &rerr) {
		return errorPayload{Kind: ram.KindInternal, Message: "internal error"}
	}

	payload := errorPayload{Kind: rerr.Kind}
	switch rerr.Kind {
	case ram.KindAuth, ram.KindValidation:
		payload.Message = rerr.Err.Error()
	case ram.KindRateLimit:
		payload.Message = "provider rate limit exceeded, try again shortly"
	case ram.KindTimeout:
		payload.Message = "analysis timed out"
	case ram.KindCanceled:
		payload.Message = "analysis canceled"
	case ram.KindProvider:
		payload.Message = "provider request failed"
	default:
		payload.Message = "internal error"
	}
	return payload
}
