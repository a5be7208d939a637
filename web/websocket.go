package web

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/ram-framework/ram"
	"github.com/ram-framework/ram/types"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Event types sent on /ws/analyze. A run streams one "stage" event per
// pipeline stage, then exactly one "report" or "error" event, then closes.
const (
	eventStage  = "stage"
	eventReport = "report"
	eventError  = "error"
)

type stageEvent struct {
	Type    string `json:"type"`
	Stage   string `json:"stage"`
	Step    int    `json:"step"`
	Total   int    `json:"total"`
	Message string `json:"message"`
}

type reportEvent struct {
	Type   string          `json:"type"`
	Report analyzeResponse `json:"report"`
}

type errorEvent struct {
	Type  string       `json:"type"`
	Error errorPayload `json:"error"`
}

// handleAnalyzeWS upgrades to WebSocket, reads one analysis request, and
// streams progress events followed by the final report.
func (s *Server) handleAnalyzeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	var req analyzeRequest
	if err := conn.ReadJSON(&req); err != nil {
		s.logger.Warn("websocket request unreadable", "error", err)
		s.writeEvent(conn, errorEvent{Type: eventError, Error: errorPayload{
			Kind:    ram.KindValidation,
			Message: "invalid request body",
		}})
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// Read pump: the client sends nothing after the request, so a read
	// only returns when the connection drops. That cancels the run.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	// Progress callbacks fire synchronously inside the run, so this is the
	// only goroutine writing to the connection.
	progress := func(stage types.Stage, message string) {
		event := stageEvent{
			Type:    eventStage,
			Stage:   stage.String(),
			Step:    stage.Number(),
			Total:   types.StageCount,
			Message: message,
		}
		if err := conn.WriteJSON(event); err != nil {
			cancel()
		}
	}

	report, err := s.analyzer.Analyze(ctx, ram.Request{
		Rule:                req.Rule,
		Provider:            req.Provider,
		Model:               req.Model,
		APIKey:              req.APIKey,
		ConfidenceThreshold: req.ConfidenceThreshold,
		Progress:            progress,
	})
	if err != nil {
		s.logger.Error("analysis failed", "transport", "websocket", "error", err)
		s.writeEvent(conn, errorEvent{Type: eventError, Error: userError(err)})
		return
	}

	s.writeEvent(conn, reportEvent{Type: eventReport, Report: s.capReport(report, req.MaxDisplay)})
}

// writeEvent sends the final event and a normal-closure frame so the client's
// read loop ends cleanly.
func (s *Server) writeEvent(conn *websocket.Conn, event any) {
	if err := conn.WriteJSON(event); err != nil {
		s.logger.Warn("websocket write failed", "error", err)
		return
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteMessage(websocket.CloseMessage, msg); err != nil {
		s.logger.Warn("websocket close failed", "error", err)
	}
}
