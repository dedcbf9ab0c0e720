package llm

import "time"

// Shared defaults for the model clients.
const (
	defaultTimeout    = 30 * time.Second
	defaultModel      = "gpt-4o-mini"
	maxRetries        = 3
	initialRetryDelay = 1 * time.Second
)

// RetryPolicy bounds the retry behavior of a remote model call. The delay
// doubles after each failed attempt, so it is strictly increasing.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
}

// DefaultRetryPolicy returns the policy used in production: three attempts
// total with a doubling delay starting at one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: maxRetries, InitialDelay: initialRetryDelay}
}
