package domain

import "errors"

// Sentinel errors for local validation failures. These are raised by the flow
// controller before any request is issued and never reach the remote API.
var (
	ErrPasswordMismatch      = errors.New("passwords do not match")
	ErrMissingCredentials    = errors.New("email and password are required")
	ErrNoPendingConfirmation = errors.New("no pending confirmation email")
	ErrNoPendingRecovery     = errors.New("no pending recovery code")
	ErrFlowBusy              = errors.New("flow already has a request in flight")
	ErrActionUnavailable     = errors.New("action is not available in the current step")
	ErrUnknownAction         = errors.New("unknown action")
	ErrUnknownPanel          = errors.New("unknown panel")
)

// userMessages holds the text shown to the user for each local error.
var userMessages = map[error]string{
	ErrPasswordMismatch:      "Passwords do not match",
	ErrMissingCredentials:    "Email and password are required",
	ErrNoPendingConfirmation: "Email address not found. Please try signing up again.",
	ErrNoPendingRecovery:     "Recovery code not verified. Please verify your recovery code first.",
	ErrFlowBusy:              "A request is already in progress.",
	ErrActionUnavailable:     "This action is not available right now.",
}

// Message returns the user-facing text for a local validation error.
// The boolean is false when err is not one of the sentinels above.
func Message(err error) (string, bool) {
	for sentinel, msg := range userMessages {
		if errors.Is(err, sentinel) {
			return msg, true
		}
	}
	return "", false
}

// IsLocal reports whether err was raised before any request was issued.
func IsLocal(err error) bool {
	_, ok := Message(err)
	return ok || errors.Is(err, ErrUnknownAction) || errors.Is(err, ErrUnknownPanel)
}
