package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sierra-outfitters/sierra-agent/internal/tools"
)

func TestToGeminiHistory_SplitsTailFromHistory(t *testing.T) {
	messages := []Message{
		{Role: RoleSystem, Content: "persona"},
		{Role: RoleUser, Content: "where is my order?"},
	}
	history, last := toGeminiHistory(messages)
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1", len(history))
	}
	if history[0].Role != "user" {
		t.Errorf("system prompt travels as role %q, want user", history[0].Role)
	}
	if len(last) != 1 {
		t.Fatalf("last parts length = %d, want 1", len(last))
	}
	if text, ok := last[0].(genai.Text); !ok || string(text) != "where is my order?" {
		t.Errorf("last part = %#v", last[0])
	}
}

func TestToGeminiHistory_ToolRoundTrip(t *testing.T) {
	messages := []Message{
		{Role: RoleUser, Content: "look it up"},
		{
			Role: RoleAssistant,
			ToolCalls: []*tools.ToolCall{{
				ID:       "call_1",
				Type:     tools.ToolTypeFunction,
				Function: tools.ToolCallFunction{Name: "lookup_order", Arguments: `{"email":"a@b.com"}`},
			}},
		},
		{Role: RoleTool, Name: "lookup_order", ToolCallID: "call_1", Content: `{"found":true}`},
	}
	history, last := toGeminiHistory(messages)
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}

	model := history[1]
	if model.Role != "model" || len(model.Parts) != 1 {
		t.Fatalf("assistant turn converted to %+v", model)
	}
	fc, ok := model.Parts[0].(genai.FunctionCall)
	if !ok || fc.Name != "lookup_order" {
		t.Fatalf("assistant part = %#v", model.Parts[0])
	}
	if fc.Args["email"] != "a@b.com" {
		t.Errorf("arguments not decoded: %v", fc.Args)
	}

	if len(last) != 1 {
		t.Fatalf("last parts length = %d, want 1", len(last))
	}
	fr, ok := last[0].(genai.FunctionResponse)
	if !ok || fr.Name != "lookup_order" {
		t.Fatalf("tool result part = %#v", last[0])
	}
	if fr.Response["found"] != true {
		t.Errorf("tool payload not decoded: %v", fr.Response)
	}
}

func TestConvertSchema(t *testing.T) {
	in := tools.JSONSchema{
		Type: "object",
		Properties: map[string]*tools.JSONSchema{
			"email":   {Type: "string", Description: "Customer's email address"},
			"attempt": {Type: "integer"},
		},
		Required: []string{"email"},
	}
	out := convertSchema(in)
	if out.Type != genai.TypeObject {
		t.Errorf("type = %v", out.Type)
	}
	if len(out.Required) != 1 || out.Required[0] != "email" {
		t.Errorf("required = %v", out.Required)
	}
	email := out.Properties["email"]
	if email == nil || email.Type != genai.TypeString || email.Description != "Customer's email address" {
		t.Errorf("email property = %+v", email)
	}
	if attempt := out.Properties["attempt"]; attempt == nil || attempt.Type != genai.TypeInteger {
		t.Errorf("attempt property = %+v", out.Properties["attempt"])
	}
}

func TestParseGeminiResponse_TextAndToolCalls(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role: "model",
				Parts: []genai.Part{
					genai.Text("checking now"),
					genai.FunctionCall{Name: "lookup_order", Args: map[string]any{"email": "a@b.com"}},
				},
			},
		}},
	}
	result, err := parseGeminiResponse(resp)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if result.Content != "checking now" {
		t.Errorf("content = %q", result.Content)
	}
	if len(result.ToolCalls) != 1 {
		t.Fatalf("got %d tool calls, want 1", len(result.ToolCalls))
	}
	tc := result.ToolCalls[0]
	if tc.Function.Name != "lookup_order" || tc.ID == "" {
		t.Errorf("tool call = %+v", tc)
	}
}

func TestParseGeminiResponse_NoCandidates(t *testing.T) {
	if _, err := parseGeminiResponse(&genai.GenerateContentResponse{}); err == nil {
		t.Fatal("empty response must fail")
	}
}

func TestGeminiSessionModel_LeavesSharedModelUntouched(t *testing.T) {
	base := &genai.GenerativeModel{}
	c := &GeminiClient{model: base}

	temp := float32(0.1)
	available := []tools.Tool{tools.NewFunctionTool("lookup_order", "look up an order", tools.JSONSchema{Type: "object"})}
	m1 := c.sessionModel(&GenerationConfig{Temperature: &temp}, available)
	m2 := c.sessionModel(&GenerationConfig{MaxTokens: 64}, nil)

	if m1 == base || m2 == base || m1 == m2 {
		t.Fatal("sessionModel must return a fresh copy per call")
	}
	if base.Temperature != nil || base.MaxOutputTokens != nil || base.Tools != nil {
		t.Errorf("shared model was mutated: %+v", base.GenerationConfig)
	}

	if m1.Temperature == nil || *m1.Temperature != 0.1 {
		t.Errorf("temperature not applied: %v", m1.Temperature)
	}
	if len(m1.Tools) != 1 {
		t.Errorf("tools not applied: %v", m1.Tools)
	}
	if m2.MaxOutputTokens == nil || *m2.MaxOutputTokens != 64 {
		t.Errorf("max tokens not applied: %v", m2.MaxOutputTokens)
	}
	if m2.Tools != nil {
		t.Errorf("tools leaked into a call without any: %v", m2.Tools)
	}
}

func TestGeminiWithRetry_BoundsEachAttempt(t *testing.T) {
	c := &GeminiClient{retry: RetryPolicy{MaxAttempts: 1}, timeout: time.Minute}

	var sawDeadline bool
	_, err := c.withRetry(context.Background(), func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		_, sawDeadline = ctx.Deadline()
		return &genai.GenerateContentResponse{}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sawDeadline {
		t.Error("attempt context has no deadline")
	}
}

func TestGeminiWithRetry_TransientRetriedThenSucceeds(t *testing.T) {
	c := &GeminiClient{retry: RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond}, timeout: time.Minute}

	var calls int
	want := &genai.GenerateContentResponse{}
	got, err := c.withRetry(context.Background(), func(context.Context) (*genai.GenerateContentResponse, error) {
		calls++
		if calls < 3 {
			return nil, &googleapi.Error{Code: 503, Message: "backend overloaded"}
		}
		return want, nil
	})
	if err != nil {
		t.Fatalf("unexpected error after retries: %v", err)
	}
	if got != want {
		t.Error("response not passed through")
	}
	if calls != 3 {
		t.Errorf("made %d attempts, want 3", calls)
	}
}

func TestGeminiWithRetry_ClientErrorNotRetried(t *testing.T) {
	c := &GeminiClient{retry: RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond}, timeout: time.Minute}

	var calls int
	_, err := c.withRetry(context.Background(), func(context.Context) (*genai.GenerateContentResponse, error) {
		calls++
		return nil, &googleapi.Error{Code: 400, Message: "invalid request"}
	})
	if err == nil {
		t.Fatal("expected the client error back")
	}
	if calls != 1 {
		t.Errorf("made %d attempts, want 1 (4xx must not be retried)", calls)
	}
}

func TestGeminiWithRetry_CancelledContextStopsRetrying(t *testing.T) {
	c := &GeminiClient{retry: RetryPolicy{MaxAttempts: 3, InitialDelay: time.Hour}, timeout: time.Minute}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var calls int
	_, err := c.withRetry(ctx, func(context.Context) (*genai.GenerateContentResponse, error) {
		calls++
		return nil, &googleapi.Error{Code: 503}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("made %d attempts, want 1 before the backoff observed cancellation", calls)
	}
}

func TestIsTransientGeminiError(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		transient bool
	}{
		{"rate limited", &googleapi.Error{Code: 429}, true},
		{"server error", &googleapi.Error{Code: 500}, true},
		{"bad request", &googleapi.Error{Code: 400}, false},
		{"bad api key", &googleapi.Error{Code: 401}, false},
		{"attempt timeout", context.DeadlineExceeded, true},
		{"cancellation", context.Canceled, false},
		{"grpc unavailable", status.Error(codes.Unavailable, "connection reset"), true},
		{"grpc resource exhausted", status.Error(codes.ResourceExhausted, "quota"), true},
		{"grpc invalid argument", status.Error(codes.InvalidArgument, "bad schema"), false},
		{"plain error", errors.New("something else"), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := isTransientGeminiError(c.err); got != c.transient {
				t.Errorf("isTransientGeminiError(%v) = %v, want %v", c.err, got, c.transient)
			}
		})
	}
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	if _, err := NewGeminiClient("", "gemini-1.5-flash"); err == nil {
		t.Fatal("empty API key must be rejected")
	}
}
