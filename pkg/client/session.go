package client

import (
	"sync"

	"github.com/thelittlethings/backend/pkg/challenge"
)

// Session holds the signed-in user's credentials. It is created by Login or
// Register, cleared by Logout and read by every authenticated request.
type Session struct {
	mu       sync.RWMutex
	token    string
	userID   uint
	username string
}

// NewSession returns a session for an already issued token. Use an empty
// Session to start signed out.
func NewSession(token string, userID uint, username string) *Session {
	return &Session{token: token, userID: userID, username: username}
}

func (s *Session) set(token string, userID uint, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.userID, s.username = token, userID, username
}

// Clear signs the session out
func (s *Session) Clear() {
	s.set("", 0, "")
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SignedIn reports whether a token is held
func (s *Session) SignedIn() bool {
	return s.Token() != ""
}

// CurrentUser is the identity the challenge projector works from
func (s *Session) CurrentUser() challenge.CurrentUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return challenge.CurrentUser{ID: s.userID, Username: s.username}
}
