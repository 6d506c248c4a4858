// Package session tracks per-party conversation state.
package session

import (
	"log/slog"
	"sync"
)

// AuthStatus is the position of a party in the authentication flow.
type AuthStatus string

const (
	// StatusAwaitingPhone is the implicit initial state: the next input is
	// treated as a phone number to look up.
	StatusAwaitingPhone AuthStatus = "awaiting_phone"
	// StatusAwaitingClientCode means the phone lookup missed and the party
	// has been asked for their client code.
	StatusAwaitingClientCode AuthStatus = "awaiting_client_id"
	// StatusAwaitingOTP means an OTP is outstanding for the party.
	StatusAwaitingOTP AuthStatus = "awaiting_otp"
	// StatusAuthenticated is terminal for the auth flow.
	StatusAuthenticated AuthStatus = "authenticated"
)

// AuthState holds the mutable authentication state for one session.
// Only the active agent reads or writes it; the zero value means the
// party has not been seen by the auth flow yet.
type AuthState struct {
	Status      AuthStatus
	ClientID    string
	DisplayName string
	Email       string
}

// Started reports whether the auth flow has recorded any state for the
// session. The router feeds the party identifier (not the message text)
// into the agent on the first turn of an unstarted session.
func (s *AuthState) Started() bool {
	return s.Status != ""
}

// Session is the conversation state for one party, keyed by phone number.
//
// The embedded mutex serializes turns for the same party: the router holds
// it from lookup until the reply is produced, so near-simultaneous webhook
// deliveries cannot interleave state transitions.
type Session struct {
	mu sync.Mutex

	Party string
	Auth  AuthState
}

// Lock acquires the per-party turn lock.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the per-party turn lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// IsAuthenticated reports whether the party completed the auth flow.
func (s *Session) IsAuthenticated() bool {
	return s.Auth.Status == StatusAuthenticated
}

// Manager is an in-memory session store keyed by the sender's phone number.
//
// Sessions live for the process lifetime or until Clear is called; there is
// no durability across restarts. For production deployments swap in a
// Redis-backed implementation behind the same methods.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

// Get retrieves or creates the session for the given party. It never fails;
// an unseen party gets a fresh session with zero auth state.
func (m *Manager) Get(party string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[party]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Re-check under the write lock: another turn may have created it.
	if s, ok := m.sessions[party]; ok {
		return s
	}
	s = &Session{Party: party}
	m.sessions[party] = s
	slog.Info("Creating new session", "party", party)
	return s
}

// Clear removes the session for a party (logout or timeout). It is
// idempotent: clearing an absent session is a no-op.
func (m *Manager) Clear(party string) {
	m.mu.Lock()
	delete(m.sessions, party)
	m.mu.Unlock()
	slog.Info("Session cleared", "party", party)
}

// ActiveCount returns the number of live sessions, for monitoring.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
