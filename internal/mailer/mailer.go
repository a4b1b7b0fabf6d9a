// Package mailer sends transactional e-mail.
package mailer

import (
	"context"
	"fmt"
	"html"
	"time"

	"coffee-on/internal/config"

	"github.com/rs/zerolog"
	"gopkg.in/mail.v2"
)

// Mailer delivers a single HTML message.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// sender is the subset of *mail.Dialer used for delivery.
type sender interface {
	DialAndSend(m ...*mail.Message) error
}

type smtpMailer struct {
	sender sender
	from   string
	logger zerolog.Logger
}

// New returns an SMTP mailer, or a log-only mailer when no SMTP host is configured.
func New(cfg config.SMTPConfig, logger zerolog.Logger) Mailer {
	if cfg.Host == "" {
		return NewLogMailer(logger)
	}
	return NewSMTPMailer(cfg, logger)
}

// NewSMTPMailer creates a Mailer delivering through the configured SMTP server.
func NewSMTPMailer(cfg config.SMTPConfig, logger zerolog.Logger) Mailer {
	dialer := mail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	dialer.Timeout = 10 * time.Second

	return &smtpMailer{
		sender: dialer,
		from:   cfg.From,
		logger: logger.With().Str("component", "mailer").Logger(),
	}
}

func (m *smtpMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.sender.DialAndSend(msg); err != nil {
		m.logger.Error().Err(err).Str("subject", subject).Msg("failed to send e-mail")
		return fmt.Errorf("failed to send e-mail: %w", err)
	}

	m.logger.Info().Str("subject", subject).Msg("e-mail sent")
	return nil
}

type logMailer struct {
	logger zerolog.Logger
}

// NewLogMailer creates a Mailer that only logs messages. Used when SMTP is not configured.
func NewLogMailer(logger zerolog.Logger) Mailer {
	return &logMailer{logger: logger.With().Str("component", "mailer").Logger()}
}

func (m *logMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	m.logger.Info().
		Str("to", to).
		Str("subject", subject).
		Str("body", htmlBody).
		Msg("SMTP disabled, e-mail not delivered")
	return nil
}

// ResetCodeMessage renders the password recovery e-mail.
func ResetCodeMessage(name, code string) (subject, body string) {
	subject = "Código de recuperação de senha"
	body = fmt.Sprintf(
		"<p>Olá, %s!</p><p>Seu código de recuperação é: <b>%s</b></p><p>Se você não solicitou, ignore este e-mail.</p>",
		html.EscapeString(name), html.EscapeString(code),
	)
	return subject, body
}
