// ABOUTME: Error types returned by text generation clients
// ABOUTME: RemoteCallError covers transport/status/parse failures, ShapeError covers schema mismatches
package llm

import (
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// RemoteCallError reports a failed call to the text generation service:
// transport failure, non-success status, or a structured response that is not JSON.
type RemoteCallError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *RemoteCallError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("llm %s failed (status %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("llm %s failed: %v", e.Op, e.Err)
}

func (e *RemoteCallError) Unwrap() error { return e.Err }

// ShapeError reports a JSON value that does not conform to the requested schema
type ShapeError struct {
	Schema string
	Reason string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("response does not match schema %q: %s", e.Schema, e.Reason)
}

// IsRemoteCallError reports whether err is (or wraps) a RemoteCallError
func IsRemoteCallError(err error) bool {
	var rce *RemoteCallError
	return errors.As(err, &rce)
}

// IsShapeError reports whether err is (or wraps) a ShapeError
func IsShapeError(err error) bool {
	var se *ShapeError
	return errors.As(err, &se)
}

// statusCode extracts an HTTP status from go-openai errors, 0 when unknown
func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
