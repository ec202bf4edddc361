package llm

import "fmt"

const (
	maxBodyInError    = 500
	maxPreviewInError = 300
)

// GatewayError is a transport-level failure: a non-retryable HTTP
// status, exhausted retries, or a failed/cancelled request.
type GatewayError struct {
	Status int    // HTTP status, 0 when the request never completed
	Body   string // response body, truncated to 500 chars
	Err    error  // underlying transport error, if any
}

// NewGatewayError creates a gateway error for an HTTP status
func NewGatewayError(status int, body string) *GatewayError {
	if len(body) > maxBodyInError {
		body = body[:maxBodyInError]
	}
	return &GatewayError{Status: status, Body: body}
}

// Error returns the formatted error message
func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("lm gateway: %v", e.Err)
	}
	return fmt.Sprintf("lm gateway: status %d: %s", e.Status, e.Body)
}

// Unwrap returns the underlying transport error
func (e *GatewayError) Unwrap() error {
	return e.Err
}

// ParseError is a content-level failure: the LM responded but the text
// did not contain a parseable structured record.
type ParseError struct {
	Reason  string // short cause ("empty input", "no JSON object found", ...)
	Length  int    // length of the original text
	Preview string // first 300 chars for diagnostics
}

// NewParseError creates a parse error carrying diagnostics of the text
func NewParseError(reason, text string) *ParseError {
	preview := text
	if len(preview) > maxPreviewInError {
		preview = preview[:maxPreviewInError]
	}
	return &ParseError{Reason: reason, Length: len(text), Preview: preview}
}

// Error returns the formatted error message
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse structured response: %s (len=%d): %q", e.Reason, e.Length, e.Preview)
}
