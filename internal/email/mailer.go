package email

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, msg Message) (Result, error)
}

// MailerConfig holds the addressing used by Mailer.
type MailerConfig struct {
	From        string
	FromName    string
	FrontendURL string
	AdminEmail  string
}

// Mailer renders the account templates and sends them through a Sender.
type Mailer struct {
	sender Sender
	cfg    MailerConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewMailer wires sender with cfg.
func NewMailer(sender Sender, cfg MailerConfig, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FromName == "" {
		cfg.FromName = brand
	}
	return &Mailer{sender: sender, cfg: cfg, logger: logger, now: time.Now}
}

func (m *Mailer) loginURL() string {
	return strings.TrimRight(m.cfg.FrontendURL, "/") + "/login"
}

func (m *Mailer) deliver(ctx context.Context, to string, c Content) (Result, error) {
	return m.sender.Send(ctx, Message{
		FromName: m.cfg.FromName,
		From:     m.cfg.From,
		To:       []string{to},
		Subject:  c.Subject,
		HTML:     c.HTML,
		Text:     c.Text,
	})
}

// Welcome sends the registration email and, when an admin address is
// configured, the new-registration alert. A failed alert is only logged.
func (m *Mailer) Welcome(ctx context.Context, to, name string) error {
	c, err := Welcome(name, m.loginURL())
	if err != nil {
		return err
	}
	if _, err := m.deliver(ctx, to, c); err != nil {
		return err
	}
	if m.cfg.AdminEmail == "" {
		return nil
	}
	alert, err := AdminNotification(Registration{Name: name, Email: to, Registered: m.now()})
	if err != nil {
		return err
	}
	if _, err := m.deliver(ctx, m.cfg.AdminEmail, alert); err != nil {
		m.logger.Warn("admin notification failed", zap.Error(err))
	}
	return nil
}

// PasswordReset sends a generated password to the account owner.
func (m *Mailer) PasswordReset(ctx context.Context, to, name, password string) error {
	c, err := PasswordReset(name, to, password)
	if err != nil {
		return err
	}
	_, err = m.deliver(ctx, to, c)
	return err
}


