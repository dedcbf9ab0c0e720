package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/sierra-outfitters/sierra-agent/internal/app"
	"github.com/sierra-outfitters/sierra-agent/internal/llm"
	"github.com/sierra-outfitters/sierra-agent/internal/tools"
)

// scriptedClient returns canned replies in order, failing once exhausted.
type scriptedClient struct {
	replies []string
	err     error
	calls   int
}

func (s *scriptedClient) Generate(context.Context, []llm.Message, *llm.GenerationConfig, []tools.Tool) (*llm.GenerationResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.calls > len(s.replies) {
		return nil, errors.New("scriptedClient: out of replies")
	}
	return &llm.GenerationResult{Content: s.replies[s.calls-1]}, nil
}

func testEngine(client llm.Client) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewChatHandler(&app.Components{
		Client:       client,
		Manager:      tools.NewManager(),
		Model:        "test-model",
		SystemPrompt: "persona",
	})
	engine := gin.New()
	engine.GET("/healthz", handler.HandleHealth)
	engine.POST("/api/v1/chat", handler.HandleChat)
	return engine
}

func postChat(t *testing.T, engine *gin.Engine, body map[string]string) (*httptest.ResponseRecorder, chatResponse) {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	var resp chatResponse
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("response is not JSON: %v", err)
		}
	}
	return rec, resp
}

func TestHandleChat_NewSessionGetsID(t *testing.T) {
	engine := testEngine(&scriptedClient{replies: []string{"Welcome to Sierra Outfitters! 🏔️"}})

	rec, resp := postChat(t, engine, map[string]string{"message": "hi"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if resp.SessionID == "" {
		t.Error("blank session ID was not replaced with a generated one")
	}
	if resp.Reply != "Welcome to Sierra Outfitters! 🏔️" {
		t.Errorf("reply = %q", resp.Reply)
	}
}

func TestHandleChat_SessionContinuity(t *testing.T) {
	client := &scriptedClient{replies: []string{"first", "second"}}
	engine := testEngine(client)

	_, resp := postChat(t, engine, map[string]string{"message": "turn one"})
	rec, resp2 := postChat(t, engine, map[string]string{"session_id": resp.SessionID, "message": "turn two"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp2.SessionID != resp.SessionID {
		t.Errorf("session ID changed across turns: %q vs %q", resp2.SessionID, resp.SessionID)
	}
	if resp2.Reply != "second" {
		t.Errorf("reply = %q, want the second scripted reply", resp2.Reply)
	}
}

func TestHandleChat_SessionsAreIsolated(t *testing.T) {
	client := &scriptedClient{replies: []string{"a", "b"}}
	engine := testEngine(client)

	_, respA := postChat(t, engine, map[string]string{"session_id": "session-a", "message": "hi"})
	_, respB := postChat(t, engine, map[string]string{"session_id": "session-b", "message": "hi"})
	if respA.SessionID != "session-a" || respB.SessionID != "session-b" {
		t.Errorf("session IDs not preserved: %q, %q", respA.SessionID, respB.SessionID)
	}
}

func TestHandleChat_MissingMessage(t *testing.T) {
	engine := testEngine(&scriptedClient{})

	rec, _ := postChat(t, engine, map[string]string{"session_id": "s1"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleChat_ModelFailureStillAnswers(t *testing.T) {
	terminal := errors.New("model offline")
	engine := testEngine(&scriptedClient{err: terminal})

	rec, resp := postChat(t, engine, map[string]string{"message": "hi"})
	if rec.Code != http.StatusOK {
		t.Fatalf("a failed turn must still be an HTTP success, got %d", rec.Code)
	}
	if resp.Reply == "" {
		t.Error("reply is empty; the customer should see the apology")
	}
}

func TestHandleHealth(t *testing.T) {
	engine := testEngine(&scriptedClient{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
