// Package agent implements the conversational authentication agents.
package agent

import (
	"context"

	"github.com/ashureev/whatsapp-agent/internal/domain"
	"github.com/ashureev/whatsapp-agent/internal/session"
)

// Reply is the value an agent produces after processing one message.
// Text is the only field the transport renders back to the user;
// EndConversation is reserved for future termination signaling.
type Reply struct {
	Text            string `json:"text"`
	EndConversation bool   `json:"end_conversation"`
}

// Agent processes one inbound message against the party's session state.
//
// Handle must never return a transport error to the conversation: every
// collaborator fault is absorbed into a user-facing reply and the prior
// state is retained. The state pointer is mutated in place; the caller
// holds the party's turn lock for the duration of the call.
type Agent interface {
	// Name is the human-readable agent name, used in logs and routing.
	Name() string

	// Handle processes a user message and returns the reply to send back.
	Handle(ctx context.Context, message string, state *session.AuthState) Reply
}

// IdentityDirectory resolves a phone number or client-issued code to an
// identity record. A nil record with a nil error means not found; a non-nil
// error is a collaborator fault (transport failure, bad upstream response).
type IdentityDirectory interface {
	LookupByPhone(ctx context.Context, phone string) (*domain.IdentityRecord, error)
	LookupByClientID(ctx context.Context, code string) (*domain.IdentityRecord, error)
}

// OTPChannel issues and validates one-time codes scoped to a client identity.
type OTPChannel interface {
	// SendOTP requests OTP delivery; true means the code was dispatched.
	SendOTP(ctx context.Context, clientID string) (bool, error)

	// VerifyOTP reports whether the code is correct and not expired.
	VerifyOTP(ctx context.Context, clientID, code string) (bool, error)
}

// Notifier delivers a post-authentication confirmation message.
type Notifier interface {
	SendConfirmation(ctx context.Context, toEmail, userName string) error
}
