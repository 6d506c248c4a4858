// Package router dispatches inbound messages to the correct agent.
package router

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ashureev/whatsapp-agent/internal/agent"
	"github.com/ashureev/whatsapp-agent/internal/session"
)

// Router decides which agent handles a message:
// unauthenticated parties go to the auth agent, authenticated parties get
// a placeholder until task agents are registered.
type Router struct {
	sessions *session.Manager
	auth     agent.Agent
}

// New creates a router over the given session manager and auth agent.
func New(sessions *session.Manager, auth agent.Agent) *Router {
	return &Router{sessions: sessions, auth: auth}
}

// Route processes one inbound message for a party and returns the reply.
//
// The party's session lock is held for the whole turn so concurrent
// deliveries for the same phone number are processed in arrival order.
func (r *Router) Route(ctx context.Context, party, message string) agent.Reply {
	s := r.sessions.Get(party)
	s.Lock()
	defer s.Unlock()

	if !s.IsAuthenticated() {
		slog.Info("Routing message", "party", party, "agent", r.auth.Name())

		// On the very first turn the party identifier itself seeds the
		// phone lookup; the user never types their own number.
		if !s.Auth.Started() {
			return r.auth.Handle(ctx, party, &s.Auth)
		}
		return r.auth.Handle(ctx, message, &s.Auth)
	}

	// Authenticated: task agents are future work.
	slog.Info("Authenticated party has no task agent yet", "party", party)
	return agent.Reply{Text: fmt.Sprintf(
		"👋 Hello, *%s*! You are verified. Task-based features are coming soon.\n\n"+
			"Type *logout* to end your session.", displayName(&s.Auth),
	)}
}

func displayName(st *session.AuthState) string {
	if st.DisplayName == "" {
		return "there"
	}
	return st.DisplayName
}
