package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/sierra-outfitters/sierra-agent/internal/llm"
	"github.com/sierra-outfitters/sierra-agent/internal/tools"
)

// maxToolCycles bounds the model-call/tool-execution cycles in one user
// turn. A model that keeps requesting tools past this bound ends the turn
// with a terminal error instead of looping forever.
const maxToolCycles = 10

// apologyMessage is what the customer sees when a turn fails terminally.
const apologyMessage = "🏔️ Sorry, I encountered an error processing your request. Please try again! Onward into the unknown!"

// defaultTemperature keeps replies anchored to the tool results.
const defaultTemperature float32 = 0.1

// ErrTooManyToolCycles ends a turn whose tool loop exceeded maxToolCycles.
var ErrTooManyToolCycles = errors.New("too many tool cycles in one turn")

// Orchestrator owns the conversation state for one session and drives the
// tool-calling loop for each user turn. It is not safe for concurrent use;
// callers serialize turns per session.
type Orchestrator struct {
	client       llm.Client
	manager      *tools.Manager
	config       *llm.GenerationConfig
	systemPrompt string
	state        []llm.Message
}

// New creates an orchestrator with the given model client, tool registry and
// system prompt. The generation config applies to every model call.
func New(client llm.Client, manager *tools.Manager, model, systemPrompt string) *Orchestrator {
	temp := defaultTemperature
	return &Orchestrator{
		client:       client,
		manager:      manager,
		systemPrompt: systemPrompt,
		config: &llm.GenerationConfig{
			Model:       model,
			Temperature: &temp,
		},
	}
}

// ProcessMessage runs one user turn: the user message is appended to the
// conversation, then the model is called repeatedly, executing any tool
// calls it requests between rounds, until it answers with plain text.
//
// Every tool call gets exactly one tool result appended, in call order,
// before the next model call. Tool failures (unknown tool, bad arguments, a
// handler error) are fed back to the model as error payloads and never abort
// the turn. A terminal model failure returns an apology while the state
// keeps the partial exchange, so the next turn still has context.
func (o *Orchestrator) ProcessMessage(ctx context.Context, userMessage string) (string, error) {
	o.state = append(o.state, llm.Message{Role: llm.RoleUser, Content: userMessage})

	for cycle := 0; cycle < maxToolCycles; cycle++ {
		result, err := o.client.Generate(ctx, o.transcript(), o.config, o.manager.Definitions())
		if err != nil {
			log.Printf("model call failed terminally: %v", err)
			return apologyMessage, fmt.Errorf("model call failed: %w", err)
		}

		if len(result.ToolCalls) == 0 {
			reply := strings.TrimSpace(result.Content)
			o.state = append(o.state, llm.Message{Role: llm.RoleAssistant, Content: reply})
			return reply, nil
		}

		o.state = append(o.state, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   result.Content,
			ToolCalls: result.ToolCalls,
		})
		o.executeToolCalls(result.ToolCalls)
	}

	log.Printf("turn abandoned after %d tool cycles", maxToolCycles)
	return apologyMessage, ErrTooManyToolCycles
}

// executeToolCalls runs every requested call and appends one tool result per
// call, in the order the model returned them.
func (o *Orchestrator) executeToolCalls(calls []*tools.ToolCall) {
	for _, call := range calls {
		name := call.Function.Name
		log.Printf("executing tool %s (id=%s)", name, call.ID)

		content := o.safeExecute(name, call.Function.Arguments)
		o.state = append(o.state, llm.Message{
			Role:       llm.RoleTool,
			Name:       name,
			ToolCallID: call.ID,
			Content:    content,
		})
	}
}

// safeExecute runs one tool and converts any failure, including a panic in
// the handler, into an error payload the model can react to.
func (o *Orchestrator) safeExecute(name, arguments string) (content string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("tool %s panicked: %v", name, r)
			content = fmt.Sprintf("Error executing tool %s: internal failure", name)
		}
	}()

	result, err := o.manager.Execute(name, arguments)
	if err != nil {
		log.Printf("tool %s failed: %v", name, err)
		return fmt.Sprintf("Error executing tool %s: %v", name, err)
	}
	return result
}

// transcript returns the messages to send: the system prompt followed by the
// accumulated conversation state.
func (o *Orchestrator) transcript() []llm.Message {
	msgs := make([]llm.Message, 0, len(o.state)+1)
	if o.systemPrompt != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: o.systemPrompt})
	}
	return append(msgs, o.state...)
}

// History returns a copy of the conversation state.
func (o *Orchestrator) History() []llm.Message {
	out := make([]llm.Message, len(o.state))
	copy(out, o.state)
	return out
}

// Reset clears the conversation history while keeping the registered tools
// and system prompt.
func (o *Orchestrator) Reset() {
	o.state = nil
}
