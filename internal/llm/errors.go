package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrModelUnavailable marks a terminal failure of the remote model call:
// every retry attempt was spent (or the failure was not retryable) and the
// current turn cannot complete. Callers should apologize, not crash.
var ErrModelUnavailable = errors.New("language model unavailable")

// APIError is a structured error from the model API.
type APIError struct {
	StatusCode int
	Message    string
	Raw        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("model API error %d: %s", e.StatusCode, e.Message)
}

// IsTransient reports whether the error is worth retrying: rate limits and
// server-side failures, but not client errors like a 400.
func (e *APIError) IsTransient() bool {
	return e.StatusCode == 429 || (e.StatusCode >= 500 && e.StatusCode < 600)
}

// parseAPIError turns a non-2xx response body into an APIError. It handles
// the OpenAI-compatible {"error": {"message": ...}} shape and falls back to
// the first line of the body.
func parseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode, Raw: string(body)}

	var wire struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &wire) == nil && wire.Error.Message != "" {
		apiErr.Message = wire.Error.Message
		return apiErr
	}

	s := strings.TrimSpace(string(body))
	if idx := strings.IndexByte(s, '\n'); idx > 0 {
		s = s[:idx]
	}
	if len(s) > 300 {
		s = s[:300] + "..."
	}
	apiErr.Message = s
	return apiErr
}
