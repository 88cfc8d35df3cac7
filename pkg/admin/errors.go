package admin

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// Common static errors that can be wrapped with context.
var (
	ErrConfigRequired          = errors.New("config is required")
	ErrAPIEndpointRequired     = errors.New("API endpoint is required")
	ErrUnknownResource         = errors.New("unknown resource")
	ErrUnsupportedResourceType = errors.New("unsupported resource type")
	ErrUnsupportedOperation    = errors.New("unsupported operation type")
	ErrRecordIDRequired        = errors.New("record id is required")
	ErrLoginFailed             = errors.New("login failed")
	ErrSignupFailed            = errors.New("signup failed")
	ErrMissingToken            = errors.New("response did not contain a token")
	ErrCouponNotApplied        = errors.New("coupon not applied")
	ErrOrderIDCollision        = errors.New("order id collision")
	ErrInvalidDate             = errors.New("invalid date, expected YYYY-MM-DD")
)

// OperationError is the error returned by every resource client operation.
// Error() is the user-facing message ("Failed to fetch Products", or the
// message reported by the backend); the transport failure is kept as the
// wrapped cause.
type OperationError struct {
	Op         string
	Entity     string
	Message    string
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	return e.Message
}

// Unwrap returns the underlying transport error.
func (e *OperationError) Unwrap() error {
	return e.Err
}

// ResponseError is a non-2xx HTTP response.
type ResponseError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
}

// Error implements the error interface.
func (e *ResponseError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, msg)
	}

	return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.StatusCode)
}

// Message returns the backend's structured error text: the "error" field if
// it is a non-empty string, else the "message" field, else "".
func (e *ResponseError) Message() string {
	return BackendMessage(e.Body)
}

// BackendMessage extracts the "error" or "message" string from a JSON body.
func BackendMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}

	parsed := gjson.ParseBytes(body)
	for _, field := range []string{"error", "message"} {
		value := parsed.Get(field)
		if value.Type == gjson.String && value.Str != "" {
			return value.Str
		}
	}

	return ""
}

// ShapeMismatchError reports a payload whose shape differs from what the
// operation expects. It is surfaced as a warning, never as a failure.
type ShapeMismatchError struct {
	Entity   string
	Expected string
	Got      string
}

// Error implements the error interface.
func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("unexpected %s payload: expected %s, got %s", e.Entity, e.Expected, e.Got)
}

// StatusCode returns the HTTP status attached to err, or 0.
func StatusCode(err error) int {
	opErr := &OperationError{}
	if errors.As(err, &opErr) && opErr.StatusCode != 0 {
		return opErr.StatusCode
	}

	respErr := &ResponseError{}
	if errors.As(err, &respErr) {
		return respErr.StatusCode
	}

	return 0
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsUnauthorized checks if the error is an authentication rejection.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsConflict checks if the error is a conflict error.
func IsConflict(err error) bool {
	return StatusCode(err) == http.StatusConflict
}
