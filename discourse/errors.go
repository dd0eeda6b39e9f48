package discourse

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Common errors
var (
	// ErrInvalidConfig indicates invalid client settings
	ErrInvalidConfig = errors.New("invalid discourse configuration")
	// ErrUnsupportedBody indicates a request body that cannot be encoded
	ErrUnsupportedBody = errors.New("unsupported request body")
)

// APIError is returned when Discourse answers with a non-success status, or
// with a success status whose body carries an embedded error.
type APIError struct {
	StatusCode int
	Message    string
	// Errors holds the entries of the response's "errors" array, if any.
	Errors []string
	// Embedded is true when the HTTP call succeeded but the body reported a failure.
	Embedded bool
	// Document is the full decoded response, for callers that need to inspect it.
	Document *Document
}

// Error implements the error interface
func (e *APIError) Error() string {
	message := e.Message
	if len(e.Errors) > 0 {
		message += ": " + strings.Join(e.Errors, "; ")
	}
	if e.Embedded {
		return fmt.Sprintf("discourse API error: %s", message)
	}
	return fmt.Sprintf("discourse API error: status %d: %s", e.StatusCode, message)
}

// IsNotFound checks if the error indicates a not found response
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized checks if the error indicates an authentication failure
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsRateLimited checks if the error is a rate limit response the retry policy gave up on
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// AsAPIError unwraps err to an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsNotFound reports whether err is an *APIError for a 404 response.
func IsNotFound(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.IsNotFound()
}

// IsUnauthorized reports whether err is an *APIError for a 401 or 403 response.
func IsUnauthorized(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.IsUnauthorized()
}

// IsRateLimited reports whether err is an *APIError for a 429 response.
func IsRateLimited(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.IsRateLimited()
}

// newAPIError builds the error for a non-success response.
func newAPIError(resp *http.Response, doc *Document) *APIError {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    reason,
		Errors:     doc.Errors(),
		Document:   doc,
	}
}

// newEmbeddedError builds the error for a success response carrying an error record.
func newEmbeddedError(doc *Document) *APIError {
	embedded := doc.MetaData.Error
	return &APIError{
		StatusCode: embedded.StatusCode,
		Message:    embedded.Message,
		Errors:     doc.Errors(),
		Embedded:   true,
		Document:   doc,
	}
}
