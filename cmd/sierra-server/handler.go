package main

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sierra-outfitters/sierra-agent/internal/agent"
	"github.com/sierra-outfitters/sierra-agent/internal/app"
)

// ChatHandler serves conversations over HTTP. Each session ID owns one
// orchestrator; turns within a session are serialized by the session lock,
// while different sessions run concurrently over the shared read-only
// services.
type ChatHandler struct {
	components *app.Components

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	mu           sync.Mutex
	orchestrator *agent.Orchestrator
}

func NewChatHandler(components *app.Components) *ChatHandler {
	return &ChatHandler{
		components: components,
		sessions:   make(map[string]*session),
	}
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message" binding:"required"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	LatencyMS int64  `json:"latency_ms"`
}

// HandleChat runs one conversation turn. A blank session ID starts a new
// conversation and returns the generated ID for follow-up turns.
func (h *ChatHandler) HandleChat(c *gin.Context) {
	start := time.Now()

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	log.Printf("--- New turn (session: %s, message: %.30q) ---", req.SessionID, req.Message)

	sess := h.session(req.SessionID)
	sess.mu.Lock()
	reply, err := sess.orchestrator.ProcessMessage(c.Request.Context(), req.Message)
	sess.mu.Unlock()
	if err != nil {
		// The orchestrator already degraded the reply to an apology; the
		// turn itself is an HTTP success.
		log.Printf("turn failed for session %s: %v", req.SessionID, err)
	}

	c.JSON(http.StatusOK, chatResponse{
		SessionID: req.SessionID,
		Reply:     reply,
		LatencyMS: time.Since(start).Milliseconds(),
	})
}

// HandleHealth reports liveness.
func (h *ChatHandler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *ChatHandler) session(id string) *session {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.sessions[id]; ok {
		return s
	}
	s := &session{orchestrator: h.components.NewOrchestrator()}
	h.sessions[id] = s
	return s
}
