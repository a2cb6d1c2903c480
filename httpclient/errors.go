package httpclient

import "errors"

var (
	// ErrInvalidMaxAttempts indicates a non-positive attempt budget.
	ErrInvalidMaxAttempts = errors.New("max attempts must be greater than zero")

	// ErrRequestFailed indicates the server answered with a failure status.
	ErrRequestFailed = errors.New("request failed")
)
