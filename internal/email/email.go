// Package email sends transactional confirmation emails over SMTP.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"net/smtp"

	"github.com/ashureev/whatsapp-agent/internal/agent"
	"github.com/ashureev/whatsapp-agent/internal/config"
)

// Service sends account-verification confirmations using the configured
// SMTP server. It implements the Notifier capability used by the
// direct-confirmation auth agent.
type Service struct {
	cfg     config.SMTPConfig
	appName string

	// send is swapped out in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

var _ agent.Notifier = (*Service)(nil)

// NewService creates the SMTP confirmation sender.
func NewService(cfg config.SMTPConfig, appName string) *Service {
	return &Service{
		cfg:     cfg,
		appName: appName,
		send:    smtp.SendMail,
	}
}

// SendConfirmation sends an account-verification confirmation email.
func (s *Service) SendConfirmation(ctx context.Context, toEmail, userName string) error {
	addr, err := mail.ParseAddress(toEmail)
	if err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}

	msg := s.composeConfirmation(addr.Address, userName)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	host := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	slog.Info("Sending confirmation email", "to", addr.Address)

	// smtp.SendMail has no context support; run it in a goroutine so a
	// hung SMTP server cannot stall the turn past the caller's deadline.
	done := make(chan error, 1)
	go func() {
		done <- s.send(host, auth, s.cfg.From, []string{addr.Address}, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send confirmation email: %w", err)
		}
	case <-ctx.Done():
		return fmt.Errorf("send confirmation email: %w", ctx.Err())
	}

	slog.Info("Confirmation email sent", "to", addr.Address)
	return nil
}

func (s *Service) composeConfirmation(to, userName string) []byte {
	subject := fmt.Sprintf("WhatsApp Verification Confirmed — %s", s.appName)
	body := fmt.Sprintf(
		"Hello %s,\r\n\r\n"+
			"Your identity has been successfully verified on %s via WhatsApp.\r\n\r\n"+
			"If you did not initiate this verification, please contact support immediately.\r\n\r\n"+
			"Best regards,\r\nThe %s Team\r\n",
		userName, s.appName, s.appName,
	)

	return []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		s.cfg.From, to, subject, body,
	))
}
