package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sierra-outfitters/sierra-agent/internal/tools"
)

// GeminiClient talks to Google's Gemini models through the official SDK.
// The base GenerativeModel is never mutated after construction; every call
// configures its own copy, so concurrent sessions can share one client.
type GeminiClient struct {
	model   *genai.GenerativeModel
	retry   RetryPolicy
	timeout time.Duration
}

var _ Client = (*GeminiClient)(nil)

// GeminiOption customizes a GeminiClient.
type GeminiOption func(*GeminiClient)

// WithGeminiTimeout bounds each individual API attempt.
func WithGeminiTimeout(d time.Duration) GeminiOption {
	return func(c *GeminiClient) { c.timeout = d }
}

// WithGeminiRetryPolicy overrides the default retry policy.
func WithGeminiRetryPolicy(p RetryPolicy) GeminiOption {
	return func(c *GeminiClient) { c.retry = p }
}

// NewGeminiClient creates a configured client for the given Gemini model.
func NewGeminiClient(apiKey, modelID string, opts ...GeminiOption) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key cannot be empty")
	}
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	c := &GeminiClient{
		model:   client.GenerativeModel(modelID),
		retry:   DefaultRetryPolicy(),
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Generate performs one blocking request against the Gemini API. Each
// attempt runs under the client's timeout; transient failures are retried
// under the retry policy, and whatever survives it is wrapped in
// ErrModelUnavailable.
func (c *GeminiClient) Generate(
	ctx context.Context,
	messages []Message,
	config *GenerationConfig,
	availableTools []tools.Tool,
) (*GenerationResult, error) {
	if len(messages) == 0 {
		return nil, errors.New("empty message history")
	}

	chat := c.sessionModel(config, availableTools).StartChat()
	history, last := toGeminiHistory(messages)
	chat.History = history

	resp, err := c.withRetry(ctx, func(callCtx context.Context) (*genai.GenerateContentResponse, error) {
		return chat.SendMessage(callCtx, last...)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: gemini API call failed: %v", ErrModelUnavailable, err)
	}
	result, err := parseGeminiResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	return result, nil
}

// sessionModel returns a copy of the base model configured for one call.
// The copy keeps the shared model untouched while a concurrent call reads it.
func (c *GeminiClient) sessionModel(config *GenerationConfig, availableTools []tools.Tool) *genai.GenerativeModel {
	model := *c.model
	if config != nil && config.Temperature != nil {
		model.SetTemperature(*config.Temperature)
	}
	if config != nil && config.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(config.MaxTokens))
	} else {
		model.SetMaxOutputTokens(4096)
	}
	if len(availableTools) > 0 {
		model.Tools = toGeminiTools(availableTools)
	} else {
		model.Tools = nil
	}
	return &model
}

// withRetry runs the call under the retry policy, bounding every attempt
// with the client's timeout. The delay between attempts doubles each time;
// non-transient errors are returned immediately.
func (c *GeminiClient) withRetry(
	ctx context.Context,
	call func(context.Context) (*genai.GenerateContentResponse, error),
) (*genai.GenerateContentResponse, error) {
	var lastErr error
	delay := c.retry.InitialDelay

	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		callCtx := ctx
		cancel := func() {}
		if c.timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		}
		resp, err := call(callCtx)
		cancel()
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !isTransientGeminiError(err) {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// isTransientGeminiError reports whether an SDK error is worth retrying:
// rate limits, server-side failures, and attempt timeouts. Client errors
// such as a bad API key or an invalid request are terminal.
func isTransientGeminiError(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded, codes.Internal:
		return true
	}
	return false
}

// toGeminiHistory converts the transcript into SDK content history plus the
// parts to send as the current message. Tool results become FunctionResponse
// parts so the model can correlate them; the trailing run of messages after
// the last model turn forms the outgoing message.
func toGeminiHistory(messages []Message) (history []*genai.Content, last []genai.Part) {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleAssistant:
			parts := []genai.Part{}
			if msg.Content != "" {
				parts = append(parts, genai.Text(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				var args map[string]any
				if tc.Function.Arguments != "" {
					_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
				}
				parts = append(parts, genai.FunctionCall{Name: tc.Function.Name, Args: args})
			}
			if len(parts) == 0 {
				continue
			}
			contents = append(contents, &genai.Content{Role: "model", Parts: parts})
		case RoleTool:
			var payload map[string]any
			if err := json.Unmarshal([]byte(msg.Content), &payload); err != nil {
				payload = map[string]any{"result": msg.Content}
			}
			contents = append(contents, &genai.Content{
				Role:  "function",
				Parts: []genai.Part{genai.FunctionResponse{Name: msg.Name, Response: payload}},
			})
		default: // system and user turns both travel as user text
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(msg.Content)},
			})
		}
	}
	if len(contents) == 0 {
		return nil, nil
	}
	tail := contents[len(contents)-1]
	return contents[:len(contents)-1], tail.Parts
}

func toGeminiTools(toolsToConvert []tools.Tool) []*genai.Tool {
	var geminiTools []*genai.Tool
	for _, t := range toolsToConvert {
		decl := &genai.FunctionDeclaration{
			Name:        t.Function.Name,
			Description: t.Function.Description,
			Parameters:  convertSchema(t.Function.Parameters),
		}
		geminiTools = append(geminiTools, &genai.Tool{
			FunctionDeclarations: []*genai.FunctionDeclaration{decl},
		})
	}
	return geminiTools
}

func convertSchema(s tools.JSONSchema) *genai.Schema {
	out := &genai.Schema{
		Description: s.Description,
		Required:    s.Required,
	}
	switch s.Type {
	case "object":
		out.Type = genai.TypeObject
	case "string":
		out.Type = genai.TypeString
	case "number":
		out.Type = genai.TypeNumber
	case "integer":
		out.Type = genai.TypeInteger
	case "boolean":
		out.Type = genai.TypeBoolean
	}
	if s.Properties != nil {
		out.Properties = make(map[string]*genai.Schema)
		for k, v := range s.Properties {
			out.Properties[k] = convertSchema(*v)
		}
	}
	return out
}

func parseGeminiResponse(resp *genai.GenerateContentResponse) (*GenerationResult, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("no content returned from Gemini")
	}

	var contentBuilder strings.Builder
	var toolCalls []*tools.ToolCall
	for _, part := range resp.Candidates[0].Content.Parts {
		switch v := part.(type) {
		case genai.Text:
			contentBuilder.WriteString(string(v))
		case genai.FunctionCall:
			args, err := json.Marshal(v.Args)
			if err != nil {
				return nil, fmt.Errorf("could not marshal tool call args for %q: %w", v.Name, err)
			}
			toolCalls = append(toolCalls, &tools.ToolCall{
				ID:   fmt.Sprintf("gemini-toolcall-%s-%d", v.Name, len(toolCalls)),
				Type: tools.ToolTypeFunction,
				Function: tools.ToolCallFunction{
					Name:      v.Name,
					Arguments: string(args),
				},
			})
		}
	}

	result := &GenerationResult{
		Content:   strings.TrimSpace(contentBuilder.String()),
		ToolCalls: toolCalls,
	}
	if resp.UsageMetadata != nil {
		result.Usage.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		result.Usage.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		result.Usage.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return result, nil
}
