package email

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/sendgrid/rest"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"
)

type fakeProvider struct {
	name string
	err  error
	sent []Message
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Send(_ context.Context, msg Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return f.name + "-id", nil
}

func TestChainFallsThroughInOrder(t *testing.T) {
	t.Parallel()

	first := &fakeProvider{name: "resend", err: errors.New("rate limited")}
	second := &fakeProvider{name: "sendgrid", err: errors.New("unauthorized")}
	third := &fakeProvider{name: "smtp"}
	var observed []string
	chain := NewChain([]Provider{first, second, third}, func(p string, ok bool) {
		if ok {
			observed = append(observed, p+":ok")
		} else {
			observed = append(observed, p+":fail")
		}
	}, nil)

	res, err := chain.Send(context.Background(), Message{To: []string{"a@b.com"}, Subject: "oi"})
	require.NoError(t, err)
	assert.Equal(t, "smtp", res.Provider)
	assert.Equal(t, "smtp-id", res.MessageID)
	require.Len(t, res.Attempts, 3)
	assert.Equal(t, "resend", res.Attempts[0].Provider)
	require.Error(t, res.Attempts[0].Err)
	require.NoError(t, res.Attempts[2].Err)
	assert.Equal(t, []string{"resend:fail", "sendgrid:fail", "smtp:ok"}, observed)
	assert.Len(t, third.sent, 1)
	assert.Equal(t, []string{"resend", "sendgrid", "smtp"}, chain.Providers())
}

func TestChainStopsAtFirstSuccess(t *testing.T) {
	t.Parallel()

	first := &fakeProvider{name: "resend"}
	second := &fakeProvider{name: "sendgrid"}
	res, err := NewChain([]Provider{first, second}, nil, nil).Send(context.Background(), Message{})
	require.NoError(t, err)
	assert.Equal(t, "resend", res.Provider)
	assert.Len(t, res.Attempts, 1)
	assert.Empty(t, second.sent)
}

func TestChainAllFail(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	chain := NewChain([]Provider{&fakeProvider{name: "resend", err: boom}, &fakeProvider{name: "smtp", err: boom}}, nil, nil)
	res, err := chain.Send(context.Background(), Message{})
	require.ErrorIs(t, err, ErrNoProvider)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "smtp: boom")
	assert.Len(t, res.Attempts, 2)

	_, err = NewChain(nil, nil, nil).Send(context.Background(), Message{})
	require.ErrorIs(t, err, ErrNoProvider)
}

func TestChainHonoursCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &fakeProvider{name: "resend"}
	_, err := NewChain([]Provider{p}, nil, nil).Send(ctx, Message{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, p.sent)
}

func TestConsoleAlwaysSucceeds(t *testing.T) {
	t.Parallel()

	id, err := NewConsole(nil).Send(context.Background(), Message{Subject: "x"})
	require.NoError(t, err)
	assert.Equal(t, "dev-mode", id)
}

type fakeResend struct {
	got *resend.SendEmailRequest
	err error
}

func (f *fakeResend) SendWithContext(_ context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	f.got = params
	if f.err != nil {
		return nil, f.err
	}
	return &resend.SendEmailResponse{Id: "re_123"}, nil
}

func TestResendProvider(t *testing.T) {
	t.Parallel()

	api := &fakeResend{}
	p := &Resend{emails: api}
	id, err := p.Send(context.Background(), Message{
		FromName: "Empresas Brasil", From: "noreply@empresasbrasil.com",
		To: []string{"a@b.com"}, Subject: "Oi", HTML: "<p>oi</p>", Text: "oi",
	})
	require.NoError(t, err)
	assert.Equal(t, "re_123", id)
	assert.Equal(t, "Empresas Brasil <noreply@empresasbrasil.com>", api.got.From)
	assert.Equal(t, []string{"a@b.com"}, api.got.To)
	assert.Equal(t, "<p>oi</p>", api.got.Html)

	api.err = errors.New("invalid api key")
	_, err = p.Send(context.Background(), Message{})
	require.ErrorContains(t, err, "resend send")
}

type fakeSendGrid struct {
	got  *sgmail.SGMailV3
	resp *rest.Response
}

func (f *fakeSendGrid) SendWithContext(_ context.Context, m *sgmail.SGMailV3) (*rest.Response, error) {
	f.got = m
	return f.resp, nil
}

func TestSendGridProvider(t *testing.T) {
	t.Parallel()

	api := &fakeSendGrid{resp: &rest.Response{StatusCode: 202, Headers: map[string][]string{"X-Message-Id": {"sg-1"}}}}
	p := &SendGrid{client: api}
	id, err := p.Send(context.Background(), Message{From: "noreply@x.com", To: []string{"a@b.com"}, Subject: "Oi", Text: "oi"})
	require.NoError(t, err)
	assert.Equal(t, "sg-1", id)
	assert.Equal(t, "Oi", api.got.Subject)
	assert.Equal(t, "noreply@x.com", api.got.From.Address)

	api.resp = &rest.Response{StatusCode: 401, Body: `{"errors":[{"message":"unauthorized"}]}`}
	_, err = p.Send(context.Background(), Message{To: []string{"a@b.com"}})
	require.ErrorContains(t, err, "status 401")

	_, err = p.Send(context.Background(), Message{})
	require.ErrorContains(t, err, "no recipient")
}

func TestSMTPProviderBuildsMultipartMessage(t *testing.T) {
	t.Parallel()

	var got *gomail.Msg
	p := &SMTP{cfg: SMTPConfig{Host: "smtp.example.com", Port: 587}, dial: func(_ context.Context, cfg SMTPConfig, m *gomail.Msg) error {
		assert.Equal(t, "smtp.example.com", cfg.Host)
		got = m
		return nil
	}}
	id, err := p.Send(context.Background(), Message{
		FromName: "Empresas Brasil", From: "noreply@empresasbrasil.com",
		To: []string{"a@b.com"}, Subject: "Oi", HTML: "<p>oi</p>", Text: "oi",
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.NotEmpty(t, id)
	assert.Equal(t, []string{"Oi"}, got.GetGenHeader(gomail.HeaderSubject))

	_, err = p.Send(context.Background(), Message{From: "not an address", To: []string{"a@b.com"}})
	require.Error(t, err)

	p.dial = func(context.Context, SMTPConfig, *gomail.Msg) error { return errors.New("connection refused") }
	_, err = p.Send(context.Background(), Message{From: "noreply@x.com", To: []string{"a@b.com"}})
	require.ErrorContains(t, err, "connection refused")
}

func TestTemplates(t *testing.T) {
	t.Parallel()

	w, err := Welcome("Maria", "https://app.example.com/login")
	require.NoError(t, err)
	assert.Contains(t, w.Subject, "Bem-vindo")
	assert.Contains(t, w.HTML, `href="https://app.example.com/login"`)
	assert.Contains(t, w.Text, "Olá, Maria!")

	r, err := PasswordReset("", "a@b.com", "Xy7pQ2")
	require.NoError(t, err)
	assert.Contains(t, r.Text, "Olá usuário,")
	assert.Contains(t, r.Text, "Nova senha: Xy7pQ2")

	a, err := AdminNotification(Registration{UserID: 9, Name: "<script>", Email: "a@b.com", Registered: time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)})
	require.NoError(t, err)
	assert.NotContains(t, a.HTML, "<script>")
	assert.Contains(t, a.Text, "03/02/2025 04:05:06")
}

type recordingSender struct {
	msgs []Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg Message) (Result, error) {
	r.msgs = append(r.msgs, msg)
	return Result{Provider: "fake"}, r.err
}

func TestMailerWelcomeNotifiesAdmin(t *testing.T) {
	t.Parallel()

	s := &recordingSender{}
	m := NewMailer(s, MailerConfig{From: "noreply@x.com", FrontendURL: "https://app.example.com", AdminEmail: "admin@x.com"}, nil)
	require.NoError(t, m.Welcome(context.Background(), "a@b.com", "Ana"))
	require.Len(t, s.msgs, 2)
	assert.Equal(t, []string{"a@b.com"}, s.msgs[0].To)
	assert.Equal(t, "Empresas Brasil", s.msgs[0].FromName)
	assert.Contains(t, s.msgs[0].HTML, "https://app.example.com/login")
	assert.Equal(t, []string{"admin@x.com"}, s.msgs[1].To)

	require.NoError(t, m.PasswordReset(context.Background(), "a@b.com", "Ana", "nova123"))
	assert.Contains(t, s.msgs[2].Text, "nova123")
}

func TestMailerPropagatesSendFailure(t *testing.T) {
	t.Parallel()

	s := &recordingSender{err: ErrNoProvider}
	m := NewMailer(s, MailerConfig{From: "noreply@x.com"}, nil)
	require.ErrorIs(t, m.Welcome(context.Background(), "a@b.com", "Ana"), ErrNoProvider)
	assert.Len(t, s.msgs, 1)
}
