package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ashureev/whatsapp-agent/internal/session"
)

const (
	replyGenericFailure = "⚠️ Something went wrong on our side. Please try again in a moment or contact support."

	replyPhoneNotFound = "🔍 I couldn't find an account linked to this phone number.\n\n" +
		"Please provide your *Client ID* so I can look you up."

	replyCodeNotFound = "❌ Sorry, I couldn't find an account with that Client ID.\n\n" +
		"Please double-check and try again, or contact support for help."

	replyOTPSendFailed = "⚠️ We found your account but were unable to send the " +
		"verification code. Please try again later or contact support."

	replyOTPInvalid = "❌ That code is incorrect or has expired.\n\n" +
		"Please try again with the correct *6-digit OTP*."
)

// AuthAgent authenticates a WhatsApp user via phone number or client code
// plus an emailed OTP.
//
// Flow:
//  1. On first contact the sender's phone number (from WhatsApp metadata)
//     is checked against the external client directory.
//  2. On a match an OTP is sent to the user's registered email.
//  3. If the phone misses, the user is asked for their client code; a code
//     match also triggers an OTP.
//  4. The user enters the OTP to complete verification.
//  5. If neither phone nor code matches, the user is directed to support.
//
// OTP retries are unbounded; there is no lockout policy.
type AuthAgent struct {
	directory IdentityDirectory
	otp       OTPChannel
}

// NewAuthAgent creates the OTP-gated authentication agent.
func NewAuthAgent(directory IdentityDirectory, otp OTPChannel) *AuthAgent {
	return &AuthAgent{directory: directory, otp: otp}
}

// Name implements Agent.
func (a *AuthAgent) Name() string { return "AuthAgent" }

// Handle routes to the appropriate auth sub-step based on session state.
func (a *AuthAgent) Handle(ctx context.Context, message string, state *session.AuthState) Reply {
	input := strings.TrimSpace(message)

	switch state.Status {
	case session.StatusAuthenticated:
		return Reply{Text: fmt.Sprintf(
			"You are already verified as *%s*. How can I help you today?", state.DisplayName,
		)}
	case session.StatusAwaitingOTP:
		return a.handleOTP(ctx, input, state)
	case session.StatusAwaitingClientCode:
		return a.handleClientCode(ctx, input, state)
	default:
		// First contact: try a phone lookup.
		return a.handlePhone(ctx, input, state)
	}
}

func (a *AuthAgent) handlePhone(ctx context.Context, phone string, state *session.AuthState) Reply {
	record, err := a.directory.LookupByPhone(ctx, phone)
	if err != nil {
		slog.Error("Phone lookup failed", "phone", phone, "error", err)
		return Reply{Text: replyGenericFailure}
	}
	if record != nil {
		slog.Info("Phone matched client", "phone", phone, "client_id", record.ClientID)
		return a.initiateOTP(ctx, record.ClientID, record.Name, record.Email, state)
	}

	state.Status = session.StatusAwaitingClientCode
	slog.Info("Phone not found in directory, requesting client code", "phone", phone)
	return Reply{Text: replyPhoneNotFound}
}

func (a *AuthAgent) handleClientCode(ctx context.Context, code string, state *session.AuthState) Reply {
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
	return a.initiateOTP(ctx, record.ClientID, record.Name, record.Email, state)
}

// initiateOTP records the resolved identity, requests OTP delivery, and on
// success advances to the awaiting-OTP state. If delivery fails the status
// is left untouched so the party is never stuck awaiting a code that was
// never sent.
func (a *AuthAgent) initiateOTP(ctx context.Context, clientID, name, email string, state *session.AuthState) Reply {
	state.ClientID = clientID
	state.DisplayName = name
	state.Email = email

	sent, err := a.otp.SendOTP(ctx, clientID)
	if err != nil {
		slog.Error("OTP send failed", "client_id", clientID, "error", err)
		return Reply{Text: replyOTPSendFailed}
	}
	if !sent {
		slog.Error("OTP delivery refused", "client_id", clientID)
		return Reply{Text: replyOTPSendFailed}
	}

	state.Status = session.StatusAwaitingOTP
	slog.Info("OTP sent", "client_id", clientID, "email", email)
	return Reply{Text: fmt.Sprintf(
		"👤 Account found: *%s*\n\n"+
			"A verification code has been sent to *%s*.\n"+
			"Please enter the *6-digit OTP* to complete verification.",
		name, MaskEmail(email),
	)}
}

func (a *AuthAgent) handleOTP(ctx context.Context, otp string, state *session.AuthState) Reply {
	valid, err := a.otp.VerifyOTP(ctx, state.ClientID, otp)
	if err != nil {
		slog.Error("OTP verification failed", "client_id", state.ClientID, "error", err)
		return Reply{Text: replyGenericFailure}
	}
	if !valid {
		slog.Info("Invalid OTP", "client_id", state.ClientID)
		return Reply{Text: replyOTPInvalid}
	}

	state.Status = session.StatusAuthenticated
	slog.Info("User authenticated via OTP", "name", state.DisplayName, "client_id", state.ClientID)
	return Reply{Text: fmt.Sprintf(
		"✅ Verified! Welcome, *%s*.\n\nYou have been successfully authenticated.",
		state.DisplayName,
	)}
}

// MaskEmail masks an email address for user-facing replies:
// "alice@example.com" becomes "a***e@example.com". Local parts of one or
// two characters keep only the first character.
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return email
	}
	masked := local[:1] + "***"
	if len(local) > 2 {
		masked += local[len(local)-1:]
	}
	return masked + "@" + domain
}
