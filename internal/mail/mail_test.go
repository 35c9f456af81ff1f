package mail

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshkumar35/finalleagalsathi-sub000/internal/config"
)

func TestRenderOTP(t *testing.T) {
	subject, body, err := RenderOTP("reset", "123456", 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "Reset your password", subject)
	assert.Contains(t, body, "123456")
	assert.Contains(t, body, "10 minutes")
	assert.Contains(t, body, "password reset")

	_, _, err = RenderOTP("bogus", "1", time.Minute)
	assert.Error(t, err)
}

func TestSMTPSender_HonoursDeadline(t *testing.T) {
	// A relay that accepts connections but never sends its greeting.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	conns := make(chan net.Conn, 4)
	t.Cleanup(func() {
		_ = ln.Close()
		close(conns)
		for c := range conns {
			_ = c.Close()
		}
	})
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conns <- conn
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	s := NewSMTPSender(config.MailConfig{Host: "127.0.0.1", Port: addr.Port, From: "noreply@example.com"})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = s.Send(ctx, "a@x.com", "s", "b")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}
