// Package mailer renders html templates and delivers them over SMTP.
package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/dhruvjyotiray/natours/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// subjects maps a template name to its mail subject line
var subjects = map[string]string{
	"welcome": "Welcome to the Natours Family!",
}

// SMTPMailer implements the domain.Mailer interface
type SMTPMailer struct {
	addr     string
	from     string
	auth     smtp.Auth
	template *template.Template
}

// NewSMTPMailer parses the bundled templates and configures delivery.
// Username may be empty for an unauthenticated relay.
func NewSMTPMailer(host string, port int, username, password, from string) (*SMTPMailer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("can't parse mail templates: %w", err)
	}

	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	return &SMTPMailer{
		addr:     fmt.Sprintf("%s:%d", host, port),
		from:     from,
		auth:     auth,
		template: tmpl,
	}, nil
}

// Send renders the named template with data and delivers it to one recipient
func (m *SMTPMailer) Send(ctx context.Context, name, to string, data map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	subject, ok := subjects[name]
	if !ok {
		return fmt.Errorf("unknown mail template %s: %w", name, domain.ErrBadParamInput)
	}

	body := new(bytes.Buffer)
	if err := m.template.ExecuteTemplate(body, name+".html", data); err != nil {
		return fmt.Errorf("can't render %s template: %w", name, err)
	}

	msg := new(bytes.Buffer)
	fmt.Fprintf(msg, "From: %s\r\n", m.from)
	fmt.Fprintf(msg, "To: %s\r\n", to)
	fmt.Fprintf(msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, msg.Bytes()); err != nil {
		return fmt.Errorf("can't send %s mail to %s: %w", name, to, err)
	}

	return nil
}
