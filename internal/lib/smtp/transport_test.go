package smtp

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-billing/internal/config"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestTransport_Connect_NoHost(t *testing.T) {
	tr := NewTransport(config.SMTP{}, newNoopLogger())

	_, err := tr.Connect()
	assert.Error(t, err)
}

func TestTransport_Connect_DialError(t *testing.T) {
	tr := NewTransport(config.SMTP{Host: "smtp.example.com", Port: "587", User: "billing@example.com"}, newNoopLogger())

	var dialed string
	tr.dial = func(_, addr string) (net.Conn, error) {
		dialed = addr
		return nil, errors.New("connection refused")
	}

	_, err := tr.Connect()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, "smtp.example.com:587", dialed)
	assert.Equal(t, "billing@example.com", tr.GetSMTPUser())
}

func TestTransport_Connect_NoStartTLS(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()

	go func() {
		buf := make([]byte, 512)
		_, _ = server.Write([]byte("220 test ESMTP\r\n"))
		_, _ = server.Read(buf) // EHLO
		_, _ = server.Write([]byte("250-test\r\n250 HELP\r\n"))
		_, _ = server.Read(buf) // QUIT
		_, _ = server.Write([]byte("221 bye\r\n"))
	}()

	tr := NewTransport(config.SMTP{Host: "localhost", Port: "25"}, newNoopLogger())
	tr.dial = func(_, _ string) (net.Conn, error) { return client, nil }

	_, err := tr.Connect()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STARTTLS")
}
