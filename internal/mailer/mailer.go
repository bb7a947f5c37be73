package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
	"time"

	"github.com/go-mail/mail/v2"
)

//go:embed "templates"
var templateFS embed.FS

type Mailer interface {
	Send(recipient, templateFile string, data any) error
}

type SMTPMailer struct {
	dialer *mail.Dialer
	sender string
}

func NewSMTPMailer(host string, port int, username, password, sender string) *SMTPMailer {
	dialer := mail.NewDialer(host, port, username, password)
	dialer.Timeout = 5 * time.Second

	return &SMTPMailer{
		dialer: dialer,
		sender: sender,
	}
}

func (m *SMTPMailer) Send(recipient, templateFile string, data any) error {
	rendered, err := render(templateFile, data)
	if err != nil {
		return err
	}

	msg := mail.NewMessage()
	msg.SetHeader("To", recipient)
	msg.SetHeader("From", m.sender)
	msg.SetHeader("Subject", rendered.subject)
	msg.SetBody("text/plain", rendered.plainBody)
	msg.AddAlternative("text/html", rendered.htmlBody)

	return m.dialer.DialAndSend(msg)
}

type message struct {
	subject   string
	plainBody string
	htmlBody  string
}

func render(templateFile string, data any) (*message, error) {
	tmpl, err := template.New("email").ParseFS(templateFS, "templates/"+templateFile)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", templateFile, err)
	}

	var msg message

	parts := []struct {
		name   string
		target *string
	}{
		{"subject", &msg.subject},
		{"plainBody", &msg.plainBody},
		{"htmlBody", &msg.htmlBody},
	}

	for _, part := range parts {
		buf := new(bytes.Buffer)

		err = tmpl.ExecuteTemplate(buf, part.name, data)
		if err != nil {
			return nil, fmt.Errorf("execute %s of %s: %w", part.name, templateFile, err)
		}

		*part.target = buf.String()
	}

	return &msg, nil
}
