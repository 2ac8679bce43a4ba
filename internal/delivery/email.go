// File: internal/delivery/email.go
package delivery

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/xkilldash9x/patchreport/api/schemas"
	"github.com/xkilldash9x/patchreport/internal/config"
)

// Email sends the HTML report through an SMTP relay.
type Email struct {
	cfg    config.EmailConfig
	to     []string
	logger *zap.Logger
}

// NewEmail creates the email sink. It is disabled unless a sender, at least
// one recipient and a relay host are configured.
func NewEmail(cfg config.EmailConfig, logger *zap.Logger) *Email {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Email{
		cfg:    cfg,
		to:     cfg.Recipients(),
		logger: logger.Named("email"),
	}
}

func (e *Email) Name() string { return "email" }

func (e *Email) Enabled() bool {
	return e.cfg.From != "" && len(e.to) > 0 && e.cfg.Host != ""
}

// Message builds the outgoing mail without sending it.
func (e *Email) Message(report *schemas.Report) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(e.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", e.cfg.From, err)
	}
	if err := m.To(e.to...); err != nil {
		return nil, fmt.Errorf("invalid recipients: %w", err)
	}
	subject := e.cfg.Subject
	if subject == "" {
		subject = report.Title
	}
	m.Subject(subject)
	m.SetDate()
	m.SetBodyString(mail.TypeTextHTML, report.HTML)
	return m, nil
}

// Deliver sends the message once. STARTTLS is used when the relay offers it.
func (e *Email) Deliver(ctx context.Context, report *schemas.Report) error {
	m, err := e.Message(report)
	if err != nil {
		return err
	}

	opts := []mail.Option{mail.WithTLSPolicy(mail.TLSOpportunistic)}
	if e.cfg.Port > 0 {
		opts = append(opts, mail.WithPort(e.cfg.Port))
	}
	if e.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(e.cfg.Username),
			mail.WithPassword(e.cfg.Password),
		)
	}
	client, err := mail.NewClient(e.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("configuring smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("sending mail via %s:%d: %w", e.cfg.Host, e.cfg.Port, err)
	}
	e.logger.Info("Email notification sent", zap.Strings("to", e.to), zap.String("relay", e.cfg.Host))
	return nil
}
