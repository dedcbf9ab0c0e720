package tools

// ToolExecutor is the interface every tool implements. Definition returns the
// schema announced to the LLM; Execute runs the tool with the raw JSON
// argument string the model produced and returns a string result (usually
// JSON) that is fed back to the model as a tool message.
//
// Execute should prefer returning user-explainable problems ("Order not
// found") inside the result payload and reserve the error return for cases
// where the tool itself could not run.
type ToolExecutor interface {
	Definition() Tool
	Execute(arguments string) (string, error)
}
