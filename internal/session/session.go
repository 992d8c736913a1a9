package session

import (
	"errors"
	"fmt"

	"github.com/shahid-dev/restopos/internal/storage"
)

const (
	tokenKey         = "token"
	authenticatedKey = "isAuthenticated"
)

// Session stores the opaque bearer credential obtained from login. The rest
// of the terminal only ever asks for the token and the authenticated flag.
type Session struct {
	store storage.Store
}

func New(st storage.Store) *Session {
	return &Session{store: st}
}

// Token returns the stored bearer token, or "" when not logged in.
func (s *Session) Token() string {
	raw, err := s.store.Get(tokenKey)
	if err != nil {
		return ""
	}
	return string(raw)
}

func (s *Session) Authenticated() bool {
	raw, err := s.store.Get(authenticatedKey)
	if err != nil {
		return false
	}
	return string(raw) == "true" && s.Token() != ""
}

func (s *Session) SetToken(token string) error {
	if token == "" {
		return errors.New("session: token must not be empty")
	}
	if err := s.store.Set(tokenKey, []byte(token)); err != nil {
		return fmt.Errorf("session: failed to store token: %w", err)
	}
	if err := s.store.Set(authenticatedKey, []byte("true")); err != nil {
		return fmt.Errorf("session: failed to store auth flag: %w", err)
	}
	return nil
}

func (s *Session) Clear() error {
	if err := s.store.Delete(tokenKey); err != nil {
		return fmt.Errorf("session: failed to clear token: %w", err)
	}
	if err := s.store.Delete(authenticatedKey); err != nil {
		return fmt.Errorf("session: failed to clear auth flag: %w", err)
	}
	return nil
}
