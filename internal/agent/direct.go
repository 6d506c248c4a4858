package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ashureev/whatsapp-agent/internal/session"
)

// DirectAuthAgent authenticates on a directory match alone, without an OTP
// hop. A confirmation email is attempted after authenticating; a delivery
// failure is reported inline but never reverts the authenticated state.
//
// This is the immediate-trust alternative to AuthAgent and is selected by
// configuration; the two are intentionally not merged because their
// security postures differ.
type DirectAuthAgent struct {
	directory IdentityDirectory
	notifier  Notifier
}

// NewDirectAuthAgent creates the direct-confirmation authentication agent.
func NewDirectAuthAgent(directory IdentityDirectory, notifier Notifier) *DirectAuthAgent {
	return &DirectAuthAgent{directory: directory, notifier: notifier}
}

// Name implements Agent.
func (a *DirectAuthAgent) Name() string { return "DirectAuthAgent" }

// Handle routes to the appropriate auth sub-step based on session state.
func (a *DirectAuthAgent) Handle(ctx context.Context, message string, state *session.AuthState) Reply {
	input := strings.TrimSpace(message)

	switch state.Status {
	case session.StatusAuthenticated:
		return Reply{Text: fmt.Sprintf(
			"You are already verified as *%s*. How can I help you today?", state.DisplayName,
		)}
	case session.StatusAwaitingClientCode:
		return a.handleClientCode(ctx, input, state)
	default:
		return a.handlePhone(ctx, input, state)
	}
}

func (a *DirectAuthAgent) handlePhone(ctx context.Context, phone string, state *session.AuthState) Reply {
	record, err := a.directory.LookupByPhone(ctx, phone)
	if err != nil {
		slog.Error("Phone lookup failed", "phone", phone, "error", err)
		return Reply{Text: replyGenericFailure}
	}
	if record != nil {
		slog.Info("Phone matched client", "phone", phone, "client_id", record.ClientID)
		return a.authenticate(ctx, record.ClientID, record.Name, record.Email, state)
	}

	state.Status = session.StatusAwaitingClientCode
	slog.Info("Phone not found in directory, requesting client code", "phone", phone)
	return Reply{Text: replyPhoneNotFound}
}

func (a *DirectAuthAgent) handleClientCode(ctx context.Context, code string, state *session.AuthState) Reply {
	record, err := a.directory.LookupByClientID(ctx, code)
	if err != nil {
		slog.Error("Client code lookup failed", "code", code, "error", err)
		return Reply{Text: replyGenericFailure}
	}
	if record == nil {
		slog.Info("Client code not found in directory", "code", code)
		return Reply{Text: replyCodeNotFound}
	}

	slog.Info("Client code matched", "code", code, "name", record.Name)
	return a.authenticate(ctx, record.ClientID, record.Name, record.Email, state)
}

// authenticate marks the session verified and sends the confirmation email.
// Authentication is committed before the notification is attempted.
func (a *DirectAuthAgent) authenticate(ctx context.Context, clientID, name, email string, state *session.AuthState) Reply {
	state.ClientID = clientID
	state.DisplayName = name
	state.Email = email
	state.Status = session.StatusAuthenticated

	slog.Info("User authenticated by directory match", "name", name, "client_id", clientID)

	text := fmt.Sprintf("✅ Verified! Welcome, *%s*.\n\nYou have been successfully authenticated.", name)
	if err := a.notifier.SendConfirmation(ctx, email, name); err != nil {
		slog.Error("Confirmation email failed", "email", email, "error", err)
		text += fmt.Sprintf(
			"\n\n⚠️ We could not deliver a confirmation email to *%s*; "+
				"your verification is still complete.", MaskEmail(email),
		)
	}
	return Reply{Text: text}
}
