package email

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/resend/resend-go/v2"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

func formatFrom(msg Message) string {
	if msg.FromName == "" {
		return msg.From
	}
	return fmt.Sprintf("%s <%s>", msg.FromName, msg.From)
}

type resendEmails interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// Resend sends through the Resend API.
type Resend struct {
	emails resendEmails
}

// NewResend creates a Resend provider for apiKey.
func NewResend(apiKey string) *Resend {
	return &Resend{emails: resend.NewClient(apiKey).Emails}
}

// Name implements Provider.
func (*Resend) Name() string { return "resend" }

// Send implements Provider.
func (r *Resend) Send(ctx context.Context, msg Message) (string, error) {
	resp, err := r.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    formatFrom(msg),
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return "", fmt.Errorf("resend send: %w", err)
	}
	return resp.Id, nil
}

type sendgridClient interface {
	SendWithContext(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error)
}

// SendGrid sends through the SendGrid v3 API.
type SendGrid struct {
	client sendgridClient
}

// NewSendGrid creates a SendGrid provider for apiKey.
func NewSendGrid(apiKey string) *SendGrid {
	return &SendGrid{client: sendgrid.NewSendClient(apiKey)}
}

// Name implements Provider.
func (*SendGrid) Name() string { return "sendgrid" }

// Send implements Provider. Only the first recipient is used.
func (s *SendGrid) Send(ctx context.Context, msg Message) (string, error) {
	if len(msg.To) == 0 {
		return "", errors.New("sendgrid: no recipient")
	}
	from := sgmail.NewEmail(msg.FromName, msg.From)
	to := sgmail.NewEmail("", msg.To[0])
	resp, err := s.client.SendWithContext(ctx, sgmail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML))
	if err != nil {
		return "", fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	if ids := resp.Headers["X-Message-Id"]; len(ids) > 0 {
		return ids[0], nil
	}
	return "", nil
}

// SMTPConfig addresses an SMTP relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// ImplicitTLS selects SMTPS (usually port 465) instead of STARTTLS.
	ImplicitTLS bool
}

// SMTP sends through an SMTP relay with go-mail.
type SMTP struct {
	cfg  SMTPConfig
	dial func(ctx context.Context, cfg SMTPConfig, m *gomail.Msg) error
}

// NewSMTP creates an SMTP provider.
func NewSMTP(cfg SMTPConfig) *SMTP {
	return &SMTP{cfg: cfg, dial: dialAndSend}
}

func dialAndSend(ctx context.Context, cfg SMTPConfig, m *gomail.Msg) error {
	opts := []gomail.Option{gomail.WithPort(cfg.Port)}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}
	if cfg.ImplicitTLS {
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}
	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, m)
}

// Name implements Provider.
func (*SMTP) Name() string { return "smtp" }

// Send implements Provider.
func (s *SMTP) Send(ctx context.Context, msg Message) (string, error) {
	m, err := buildMsg(msg)
	if err != nil {
		return "", err
	}
	if err := s.dial(ctx, s.cfg, m); err != nil {
		return "", fmt.Errorf("smtp send: %w", err)
	}
	return m.GetMessageID(), nil
}

func buildMsg(msg Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.FromFormat(msg.FromName, msg.From); err != nil {
		return nil, fmt.Errorf("smtp from: %w", err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("smtp to: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetMessageID()
	m.SetBodyString(gomail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)
	}
	return m, nil
}

// Console logs messages instead of delivering them. It is used in
// development so registration flows work without credentials.
type Console struct {
	logger *zap.Logger
}

// NewConsole creates a Console provider.
func NewConsole(logger *zap.Logger) *Console {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Console{logger: logger}
}

// Name implements Provider.
func (*Console) Name() string { return "console" }

// Send implements Provider.
func (c *Console) Send(_ context.Context, msg Message) (string, error) {
	c.logger.Info("email (dev mode)",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("text", msg.Text),
	)
	return "dev-mode", nil
}
