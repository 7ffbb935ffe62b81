package session

import (
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/valutatrade/internal/domain"
)

// Session current login, persisted so separate invocations share it.
type Session struct {
	mu    sync.Mutex
	store domain.Gateway
}

// NewSession creates a Session over store.
func NewSession(store domain.Gateway) *Session {
	return &Session{store: store}
}

// Login makes user the current user.
func (s *Session) Login(user domain.User) (domain.SessionUser, error) {
	current := domain.SessionUser{ID: user.ID, Username: user.Username}

	payload, err := json.Marshal(current)
	if err != nil {
		return domain.SessionUser{}, &domain.PersistenceError{Op: "encode", Kind: domain.KindSession, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Save(domain.KindSession, payload); err != nil {
		return domain.SessionUser{}, &domain.PersistenceError{Op: "save", Kind: domain.KindSession, Err: err}
	}
	return current, nil
}

// Logout forgets the current user. Logging out twice is not an error.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(domain.KindSession); err != nil {
		return &domain.PersistenceError{Op: "delete", Kind: domain.KindSession, Err: err}
	}
	return nil
}

// CurrentUser returns the logged-in user. An unreadable session record
// counts as logged out.
func (s *Session) CurrentUser() (domain.SessionUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := s.store.Load(domain.KindSession)
	if err != nil || payload == nil {
		return domain.SessionUser{}, domain.ErrNotLoggedIn
	}

	var current domain.SessionUser
	if err := json.Unmarshal(payload, &current); err != nil || current.ID <= 0 {
		return domain.SessionUser{}, errors.Wrap(domain.ErrNotLoggedIn, "session record is unreadable")
	}
	return current, nil
}
