// Package client is the Go client for the ViralPik API used by the upload
// flow and card interactions.
package client

import (
	"sync"

	"viralpik/internal/models"
)

// User is the signed-in identity as seen by client components.
type User struct {
	ID        uint        `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email,omitempty"`
	IsCreator bool        `json:"is_creator"`
	IsAdmin   bool        `json:"is_admin"`
	Tier      models.Tier `json:"tier"`
}

// Session holds the current sign-in. It is populated by SignIn, cleared by
// SignOut and passed explicitly to every component that needs the user.
type Session struct {
	mu    sync.RWMutex
	token string
	user  *User
}

func NewSession() *Session {
	return &Session{}
}

// SignIn replaces the current identity.
func (s *Session) SignIn(token string, u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = &u
}

// SignOut forgets the identity.
func (s *Session) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
}

// Token returns the bearer token, or "" when signed out.
func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the signed-in user.
func (s *Session) User() (User, bool) {
	if s == nil {
		return User{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

func (s *Session) Authenticated() bool {
	_, ok := s.User()
	return ok
}
