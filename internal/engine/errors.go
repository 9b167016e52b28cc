package engine

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMalformedResponse is returned when a successful remote response lacks
// the fields the generated text is read from.
var ErrMalformedResponse = errors.New("malformed API response")

// StatusError is a non-2xx answer from the remote API
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

// IsBadRequest reports whether err carries an HTTP 400 from the remote API,
// which is how an invalid API key shows up.
func IsBadRequest(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusBadRequest
}

// Error codes surfaced to clients
const (
	CodeAPIKeyMissing       = "API_KEY_MISSING"
	CodeAPIKeyFailedTooMany = "API_KEY_FAILED_TOO_MANY_TIMES"
	CodeAPIRequestFailed    = "API_REQUEST_FAILED"
	CodeAPIResponseParse    = "API_RESPONSE_PARSE_ERROR"
)

// GenerateError is a generation failure with a client-facing code
type GenerateError struct {
	Code    string
	Message string
	Err     error
}

func (e *GenerateError) Error() string {
	return e.Message
}

func (e *GenerateError) Unwrap() error {
	return e.Err
}
