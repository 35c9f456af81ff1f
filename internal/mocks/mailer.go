package mocks

import (
	"context"
	"regexp"
	"sync"
)

// SentMail is one message captured by MockMailer.
type SentMail struct {
	To      string
	Subject string
	Body    string
}

var codePattern = regexp.MustCompile(`<strong>(\d{6})</strong>`)

// MockMailer records messages instead of sending them.
type MockMailer struct {
	SendFunc func(ctx context.Context, to, subject, html string) error

	mu   sync.Mutex
	Sent []SentMail
}

func NewMockMailer() *MockMailer { return &MockMailer{} }

// Send records the message, or delegates to SendFunc when set.
func (m *MockMailer) Send(ctx context.Context, to, subject, html string) error {
	if m.SendFunc != nil {
		if err := m.SendFunc(ctx, to, subject, html); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentMail{To: to, Subject: subject, Body: html})
	return nil
}

// LastCode extracts the OTP from the most recent message to the address.
func (m *MockMailer) LastCode(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.Sent) - 1; i >= 0; i-- {
		if m.Sent[i].To != to {
			continue
		}
		if sm := codePattern.FindStringSubmatch(m.Sent[i].Body); sm != nil {
			return sm[1]
		}
	}
	return ""
}
