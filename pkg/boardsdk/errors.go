package boardsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error codes carried in the "code" field of error bodies.
const (
	CodeValidation   = "validation_error"
	CodeUnauthorized = "unauthorized"
	CodeForbidden    = "forbidden"
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeGone         = "gone"
	CodeRateLimited  = "rate_limited"
	CodeInternal     = "internal_error"
)

// ErrEmailMismatch is returned locally, before any request is sent, when
// the signed-in user tries to answer an invitation addressed to another
// email. The server enforces the same rule.
var ErrEmailMismatch = errors.New("this invitation was sent to a different email address")

// FieldError describes one failed validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is returned for every non-2xx response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    []FieldError
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// StatusOf returns the HTTP status carried by err, or 0 when err is not an
// *APIError.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

type errorBody struct {
	Error   string       `json:"error"`
	Code    string       `json:"code"`
	Details []FieldError `json:"details"`
}

// parseErrorResponse builds an *APIError from a non-2xx response. Bodies
// that are not JSON, such as a proxy's HTML page, fall back to the status text.
func parseErrorResponse(resp *http.Response, body []byte) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && (eb.Error != "" || eb.Code != "") {
		apiErr.Code = eb.Code
		apiErr.Message = eb.Error
		apiErr.Details = eb.Details
		return apiErr
	}

	apiErr.Code = CodeInternal
	apiErr.Message = http.StatusText(resp.StatusCode)
	return apiErr
}
