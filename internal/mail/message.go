// Package mail delivers account confirmation emails through a Redis stream
// consumed by a background worker.
package mail

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/mail"
	"strings"
)

// ConfirmationSubject is the subject line of confirmation emails.
const ConfirmationSubject = "Confirm your email"

// ConfirmationMessage is the queued payload for one confirmation email.
type ConfirmationMessage struct {
	To       string `json:"to"`
	Username string `json:"username"`
	Host     string `json:"host"`
	Token    string `json:"token"`
}

// Validate checks that the message can be rendered and delivered.
func (m ConfirmationMessage) Validate() error {
	if _, err := mail.ParseAddress(m.To); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	if m.Token == "" {
		return errors.New("token is required")
	}
	if m.Host == "" {
		return errors.New("host is required")
	}
	return nil
}

// ConfirmURL is the link the recipient follows to confirm the address.
func (m ConfirmationMessage) ConfirmURL() string {
	return strings.TrimSuffix(m.Host, "/") + "/api/confirmed_email/" + m.Token
}

// Email is a rendered message ready for a Sender.
type Email struct {
	To       string
	Subject  string
	HTMLBody string
}

var confirmationTemplate = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Confirm your email</title></head>
<body>
<p>Hi {{.Username}},</p>
<p>Thanks for registering. Please confirm your email address by following the link below.</p>
<p><a href="{{.URL}}">Confirm email</a></p>
<p>If you did not create an account, you can ignore this message.</p>
</body>
</html>
`))

// Render produces the HTML confirmation email for m.
func Render(m ConfirmationMessage) (Email, error) {
	var buf bytes.Buffer
	data := struct {
		Username string
		URL      string
	}{
		Username: m.Username,
		URL:      m.ConfirmURL(),
	}
	if err := confirmationTemplate.Execute(&buf, data); err != nil {
		return Email{}, fmt.Errorf("render confirmation: %w", err)
	}
	return Email{
		To:       m.To,
		Subject:  ConfirmationSubject,
		HTMLBody: buf.String(),
	}, nil
}
