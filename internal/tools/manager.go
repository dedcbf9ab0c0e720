package tools

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateTool is returned by Register when a tool name is already taken.
	ErrDuplicateTool = errors.New("duplicate tool name")
	// ErrUnknownTool is returned by Execute when no tool is registered under the name.
	ErrUnknownTool = errors.New("unknown tool")
)

// Manager holds the registry of available tools. All registration happens at
// startup, before the first conversation; after that the registry is only
// read, so concurrent use needs no locking.
type Manager struct {
	tools map[string]ToolExecutor
	order []string
}

func NewManager() *Manager {
	return &Manager{tools: make(map[string]ToolExecutor)}
}

// Register adds a tool to the registry. The tool's parameter schema is
// validated here, at registration time, so a malformed tool fails startup
// rather than a live conversation.
func (m *Manager) Register(tool ToolExecutor) error {
	def := tool.Definition()
	name := def.Function.Name
	if name == "" {
		return errors.New("tool has no name")
	}
	if def.Function.Parameters.Type != "object" {
		return fmt.Errorf("tool %q: top-level parameter schema must be an object, got %q", name, def.Function.Parameters.Type)
	}
	if _, exists := m.tools[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateTool, name)
	}
	m.tools[name] = tool
	m.order = append(m.order, name)
	return nil
}

// Definitions returns all registered tool schemas in registration order.
func (m *Manager) Definitions() []Tool {
	defs := make([]Tool, 0, len(m.order))
	for _, name := range m.order {
		defs = append(defs, m.tools[name].Definition())
	}
	return defs
}

// Execute runs a tool by name with the given raw JSON arguments.
func (m *Manager) Execute(name, arguments string) (string, error) {
	tool, ok := m.tools[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	return tool.Execute(arguments)
}

// Count returns the number of registered tools.
func (m *Manager) Count() int {
	return len(m.tools)
}
