// internal/domain/session.go
package domain

import (
	"github.com/google/uuid"
)

// SessionState is the login state of a Session.
type SessionState int

const (
	SessionLoggedOut SessionState = iota
	SessionLoggedIn
)

func (s SessionState) String() string {
	switch s {
	case SessionLoggedIn:
		return "LoggedIn"
	default:
		return "LoggedOut"
	}
}

// Session associates one authenticated Account with a presentation layer.
// It is created and owned by the caller and passed into every service call;
// the service never keeps one of its own. A new Session starts LoggedOut.
type Session struct {
	ID      uuid.UUID
	state   SessionState
	account *Account
}

// NewSession returns a logged out session with a fresh identifier.
func NewSession() *Session {
	return &Session{ID: uuid.New()}
}

// State returns the current login state.
func (s *Session) State() SessionState {
	return s.state
}

// Active reports whether an account is logged in.
func (s *Session) Active() bool {
	return s.state == SessionLoggedIn && s.account != nil
}

// Account returns a copy of the cached account, or nil when logged out.
func (s *Session) Account() *Account {
	if !s.Active() {
		return nil
	}
	acct := *s.account
	return &acct
}

// Login moves the session to LoggedIn for account.
func (s *Session) Login(account *Account) {
	acct := *account
	s.account = &acct
	s.state = SessionLoggedIn
}

// Refresh replaces the cached account after a mutation. It is ignored when the
// session is logged out or the account belongs to someone else.
func (s *Session) Refresh(account *Account) {
	if !s.Active() || account == nil || account.ID != s.account.ID {
		return
	}
	acct := *account
	s.account = &acct
}

// Logout clears the session subject.
func (s *Session) Logout() {
	s.account = nil
	s.state = SessionLoggedOut
}
