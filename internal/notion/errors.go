package notion

import (
	"encoding/json"
	"fmt"
	"time"
)

// RetryableError indicates a transient failure (rate limit or server error)
// that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration // from the Retry-After header, zero when absent
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// APIError is a non-retryable error response from Notion.
type APIError struct {
	StatusCode int
	Code       string // e.g. "validation_error", "object_not_found"
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("notion api status %d: %s", e.StatusCode, truncate(e.Message, 200))
	}
	return fmt.Sprintf("notion api status %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Message == "" {
		return &APIError{StatusCode: status, Message: string(body)}
	}
	return &APIError{StatusCode: status, Code: payload.Code, Message: payload.Message}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
