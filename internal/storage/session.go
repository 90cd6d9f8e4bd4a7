package storage

import (
	"context"
	"fmt"

	"github.com/nfrund/authflow/internal/domain"
)

// Keys of the session entries. Other pages read these names directly.
const (
	KeyAuthToken = "authToken"
	KeyUser      = "safezone_user"
	KeyUserType  = "userType"
)

// SessionStore writes a login session as three entries of a Store.
type SessionStore struct {
	store Store
}

// NewSessionStore creates a SessionStore on top of store.
func NewSessionStore(store Store) *SessionStore {
	return &SessionStore{store: store}
}

// SaveSession implements domain.SessionStore.
func (s *SessionStore) SaveSession(ctx context.Context, sess domain.Session) error {
	entries := []struct{ key, value string }{
		{KeyAuthToken, sess.Token},
		{KeyUser, sess.UserID},
		{KeyUserType, string(sess.UserType)},
	}
	for _, e := range entries {
		if err := s.store.Set(ctx, e.key, e.value); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
	}
	return nil
}

// LoadSession reads the session back. It returns ErrNotFound when no login
// has been stored yet.
func (s *SessionStore) LoadSession(ctx context.Context) (domain.Session, error) {
	token, err := s.store.Get(ctx, KeyAuthToken)
	if err != nil {
		return domain.Session{}, err
	}
	user, err := s.store.Get(ctx, KeyUser)
	if err != nil {
		return domain.Session{}, err
	}
	userType, err := s.store.Get(ctx, KeyUserType)
	if err != nil {
		return domain.Session{}, err
	}
	return domain.Session{Token: token, UserID: user, UserType: domain.UserType(userType)}, nil
}
