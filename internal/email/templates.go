package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
)

const brand = "Empresas Brasil"

var layout = template.Must(template.New("layout").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head><meta charset="UTF-8"><title>{{.Title}}</title></head>
<body style="font-family:Arial,sans-serif;line-height:1.6;color:#333;max-width:600px;margin:0 auto;padding:20px;background:#f8f9fa">
<div style="background:#fff;border-radius:12px;padding:32px">
<div style="text-align:center;border-bottom:2px solid #3b82f6;padding-bottom:16px;margin-bottom:24px">
<div style="font-size:24px;font-weight:700;color:#3b82f6">🏢 ` + brand + `</div>
<h1 style="font-size:26px;color:#1f2937">{{.Title}}</h1>
</div>
{{range .Paragraphs}}<p>{{.}}</p>
{{end}}{{if .ButtonURL}}<p style="text-align:center;margin:28px 0"><a href="{{.ButtonURL}}" style="background:#3b82f6;color:#fff;text-decoration:none;padding:14px 28px;border-radius:8px;font-weight:600">{{.ButtonLabel}}</a></p>
<p style="background:#f3f4f6;padding:12px;border-radius:8px;font-family:monospace;font-size:12px;word-break:break-all">{{.ButtonURL}}</p>
{{end}}{{if .Details}}<div style="background:#f8fafc;border-left:4px solid #2563eb;padding:12px 16px;margin:20px 0">
{{range .Details}}<p><strong>{{.Label}}:</strong> {{.Value}}</p>
{{end}}</div>
{{end}}{{if .Note}}<div style="background:#fef3c7;border:1px solid #f59e0b;border-radius:6px;padding:12px;margin:20px 0">{{.Note}}</div>
{{end}}<div style="margin-top:32px;padding-top:16px;border-top:1px solid #e5e7eb;font-size:12px;color:#6b7280">
<p><strong>` + brand + `</strong><br>A maior base de dados empresariais do Brasil</p>
<p>Este é um email automático, não responda.</p>
</div>
</div>
</body>
</html>`))

type detail struct {
	Label string
	Value string
}

type page struct {
	Title       string
	Paragraphs  []string
	ButtonLabel string
	ButtonURL   string
	Details     []detail
	Note        string
}

// Content is a rendered subject with its HTML and plain text bodies.
type Content struct {
	Subject string
	HTML    string
	Text    string
}

func render(subject string, p page) (Content, error) {
	var html bytes.Buffer
	if err := layout.Execute(&html, p); err != nil {
		return Content{}, fmt.Errorf("render %q: %w", subject, err)
	}
	var text strings.Builder
	text.WriteString(p.Title + "\n\n")
	for _, para := range p.Paragraphs {
		text.WriteString(para + "\n\n")
	}
	if p.ButtonURL != "" {
		text.WriteString(p.ButtonURL + "\n\n")
	}
	for _, d := range p.Details {
		fmt.Fprintf(&text, "• %s: %s\n", d.Label, d.Value)
	}
	if p.Note != "" {
		text.WriteString("\n" + p.Note + "\n")
	}
	text.WriteString("\n---\n" + brand + "\nEste é um email automático, não responda.\n")
	return Content{Subject: subject, HTML: html.String(), Text: text.String()}, nil
}

func greeting(name string) string {
	if name == "" {
		return "Olá!"
	}
	return "Olá, " + name + "!"
}

// Welcome renders the message sent right after registration.
func Welcome(name, loginURL string) (Content, error) {
	return render("🏢 Bem-vindo à "+brand, page{
		Title: "Bem-vindo!",
		Paragraphs: []string{
			greeting(name),
			"Sua conta na " + brand + " foi criada com sucesso.",
			"Consulte milhões de empresas brasileiras, filtre por 20 segmentos de negócio e exporte os resultados.",
		},
		ButtonLabel: "Acessar plataforma",
		ButtonURL:   loginURL,
	})
}

// Registration holds the data shown to the administrator about a new account.
type Registration struct {
	UserID     int64
	Name       string
	Email      string
	IP         string
	Registered time.Time
}

// AdminNotification renders the new-registration alert.
func AdminNotification(r Registration) (Content, error) {
	return render("🔔 Novo Cadastro - "+r.Name, page{
		Title:      "Novo cadastro",
		Paragraphs: []string{"Um novo usuário se cadastrou na plataforma."},
		Details: []detail{
			{"Nome", r.Name},
			{"Email", r.Email},
			{"IP", r.IP},
			{"Data", r.Registered.Format("02/01/2006 15:04:05")},
			{"ID", fmt.Sprint(r.UserID)},
		},
	})
}

// PasswordReset renders the message carrying a freshly generated password.
func PasswordReset(name, address, password string) (Content, error) {
	if name == "" {
		name = "usuário"
	}
	return render("🔐 Nova Senha - "+brand, page{
		Title: "Nova senha",
		Paragraphs: []string{
			"Olá " + name + ",",
			"Uma nova senha foi gerada para sua conta no " + brand + ".",
		},
		Details: []detail{
			{"Email", address},
			{"Nova senha", password},
		},
		Note: "Após fazer login, recomendamos alterar sua senha nas configurações da conta. " +
			"Se você não solicitou esta alteração, entre em contato conosco imediatamente.",
	})
}
