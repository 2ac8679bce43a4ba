// File: internal/delivery/email_test.go
package delivery

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/patchreport/internal/config"
)

// fakeRelay accepts one SMTP session and reports the DATA payload.
func fakeRelay(t *testing.T) (port int, data <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	out := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.SetDeadline(time.Now().Add(10 * time.Second))

		r := bufio.NewReader(conn)
		reply := func(s string) { _, _ = conn.Write([]byte(s + "\r\n")) }
		reply("220 localhost ESMTP test")
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			cmd := strings.ToUpper(strings.TrimSpace(line))
			switch {
			case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
				reply("250 localhost")
			case cmd == "DATA":
				reply("354 end with <CRLF>.<CRLF>")
				var body strings.Builder
				for {
					l, err := r.ReadString('\n')
					if err != nil {
						return
					}
					if l == ".\r\n" {
						break
					}
					body.WriteString(l)
				}
				out <- body.String()
				reply("250 queued")
			case cmd == "QUIT":
				reply("221 bye")
				return
			default:
				reply("250 OK")
			}
		}
	}()
	return ln.Addr().(*net.TCPAddr).Port, out
}

func TestEmail_Enabled(t *testing.T) {
	full := config.EmailConfig{From: "ops@example.com", To: "a@example.com", Host: "relay"}
	assert.True(t, NewEmail(full, zap.NewNop()).Enabled())

	for name, mutate := range map[string]func(*config.EmailConfig){
		"no sender":     func(c *config.EmailConfig) { c.From = "" },
		"no recipients": func(c *config.EmailConfig) { c.To = " , " },
		"no relay":      func(c *config.EmailConfig) { c.Host = "" },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := full
			mutate(&cfg)
			assert.False(t, NewEmail(cfg, zap.NewNop()).Enabled())
		})
	}
}

func TestEmail_Message(t *testing.T) {
	e := NewEmail(config.EmailConfig{
		From:    "ops@example.com",
		To:      " a@example.com ,b@example.com ",
		Subject: "Weekly patch status",
		Host:    "relay",
	}, zap.NewNop())

	m, err := e.Message(testReport())
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()

	assert.Contains(t, raw, "Subject: Weekly patch status")
	assert.Contains(t, raw, "a@example.com")
	assert.Contains(t, raw, "b@example.com")
	assert.Contains(t, raw, "text/html")
	assert.Contains(t, raw, "<p>hello fleet</p>")
}

func TestEmail_MessageDefaultsSubjectToTitle(t *testing.T) {
	e := NewEmail(config.EmailConfig{From: "ops@example.com", To: "a@example.com", Host: "relay"}, zap.NewNop())
	m, err := e.Message(testReport())
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Subject: Update Compliance Report - 2024-05-20")
}

func TestEmail_NilLogger(t *testing.T) {
	var e *Email
	require.NotPanics(t, func() {
		e = NewEmail(config.EmailConfig{From: "ops@example.com", To: "a@example.com", Host: "relay"}, nil)
	})
	assert.True(t, e.Enabled())
	_, err := e.Message(testReport())
	assert.NoError(t, err)
}

func TestEmail_InvalidAddress(t *testing.T) {
	e := NewEmail(config.EmailConfig{From: "not an address", To: "a@example.com", Host: "relay"}, zap.NewNop())
	_, err := e.Message(testReport())
	assert.ErrorContains(t, err, "invalid sender")
}

func TestEmail_Deliver(t *testing.T) {
	port, data := fakeRelay(t)
	e := NewEmail(config.EmailConfig{
		From: "ops@example.com",
		To:   "a@example.com",
		Host: "127.0.0.1",
		Port: port,
	}, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, e.Deliver(ctx, testReport()))

	select {
	case body := <-data:
		assert.Contains(t, body, "<p>hello fleet</p>")
	case <-ctx.Done():
		t.Fatal("relay never received DATA")
	}
}

func TestEmail_DeliverUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	e := NewEmail(config.EmailConfig{From: "ops@example.com", To: "a@example.com", Host: "127.0.0.1", Port: port}, zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.Error(t, e.Deliver(ctx, testReport()))
}
