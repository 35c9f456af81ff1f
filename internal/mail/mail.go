// Package mail delivers one-time passcodes over SMTP.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/harshkumar35/finalleagalsathi-sub000/internal/config"
)

// Sender delivers an HTML message to a single recipient.
type Sender interface {
	Send(ctx context.Context, to, subject, html string) error
}

// SMTPSender sends through an SMTP relay.  A new connection is dialled per
// message; OTP traffic is too sparse to justify a pooled daemon.
type SMTPSender struct {
	cfg config.MailConfig
}

func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send dials the relay and sends one message.  gomail has no context
// support, so the dial runs in its own goroutine and Send returns ctx.Err()
// if the deadline fires first.
func (s *SMTPSender) Send(ctx context.Context, to, subject, html string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", html)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.User, s.cfg.Password)

	done := make(chan error, 1)
	go func() { done <- d.DialAndSend(m) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

var otpTemplate = template.Must(template.New("otp").Parse(`<!doctype html>
<html><body style="font-family:sans-serif">
<p>Your {{.Action}} code is</p>
<p style="font-size:28px;letter-spacing:6px"><strong>{{.Code}}</strong></p>
<p>It expires in {{.Minutes}} minutes. If you did not request it, ignore this email.</p>
</body></html>`))

var otpSubjects = map[string]string{
	"signup": "Verify your email",
	"login":  "Your login code",
	"reset":  "Reset your password",
}

var otpActions = map[string]string{
	"signup": "verification",
	"login":  "login",
	"reset":  "password reset",
}

// RenderOTP builds the subject and body of an OTP email.
func RenderOTP(purpose, code string, ttl time.Duration) (subject, body string, err error) {
	subject, ok := otpSubjects[purpose]
	if !ok {
		return "", "", fmt.Errorf("unknown otp purpose %q", purpose)
	}
	var buf bytes.Buffer
	err = otpTemplate.Execute(&buf, struct {
		Action  string
		Code    string
		Minutes int
	}{otpActions[purpose], code, int(ttl.Minutes())})
	if err != nil {
		return "", "", err
	}
	return subject, buf.String(), nil
}
