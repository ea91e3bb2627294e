// Package session carries the signed-in account through the terminal.
//
// A Session is created when an account signs in and dropped at sign-out.
// It is passed explicitly to whatever needs it; there is no package-level
// current session.
package session

import "time"

// Session is one signed-in account on one terminal.
type Session struct {
	Account   string    `json:"account"`
	StartedAt time.Time `json:"startedAt"`
}

// New starts a session for account.
func New(account string, now time.Time) *Session {
	return &Session{Account: account, StartedAt: now}
}

// Authenticated reports whether s belongs to an account. A nil session is
// the signed-out state.
func (s *Session) Authenticated() bool {
	return s != nil && s.Account != ""
}
