package domain

import (
	"context"
	"fmt"
)

// UserType distinguishes the two kinds of accounts the remote API issues
// sessions for.
type UserType string

const (
	UserTypeDeveloper UserType = "developer"
	UserTypeFarmer    UserType = "farmer"
)

// ParseUserType validates a user-type tag received from the API.
func ParseUserType(s string) (UserType, error) {
	switch UserType(s) {
	case UserTypeDeveloper, UserTypeFarmer:
		return UserType(s), nil
	default:
		return "", fmt.Errorf("unknown user type %q", s)
	}
}

// Session is the authenticated identity returned by a successful login.
type Session struct {
	Token    string
	UserID   string
	UserType UserType
}

// SessionStore persists a Session to durable client storage so that pages
// outside the auth flow can read it.
type SessionStore interface {
	SaveSession(ctx context.Context, s Session) error
}
