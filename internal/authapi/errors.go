package authapi

import (
	"errors"
	"fmt"
)

// ErrTransport marks a request that could not be completed at all: the
// connection failed, timed out, or the response could not be read.
var ErrTransport = errors.New("auth api unreachable")

// APIError is a non-2xx response from the remote API.
type APIError struct {
	Status int
	// Message is the server's "error" field, empty when the body carried none.
	Message string
	// RequiresConfirmation is set by the login endpoint for accounts whose
	// email has not been confirmed yet; Email then names that account.
	RequiresConfirmation bool
	Email                string
	// Attempts is the login endpoint's warning after repeated failures.
	Attempts string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("auth api: status %d", e.Status)
	}
	return fmt.Sprintf("auth api: status %d: %s", e.Status, e.Message)
}

// AsAPIError unwraps err into an *APIError if it is one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}
