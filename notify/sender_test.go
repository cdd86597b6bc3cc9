package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSender_FallsBackToLogging(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, ok := NewSender(SMTPConfig{}, logger).(*LoggingSender)
	assert.True(t, ok)

	_, ok = NewSender(SMTPConfig{Host: "smtp.example.com", Port: 587}, logger).(*SMTPSender)
	assert.True(t, ok)
}

func TestSMTPSender_Send(t *testing.T) {
	var gotAddr, gotFrom string
	var gotAuth smtp.Auth
	s := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "u", Password: "p", From: "noreply@boma.co.ke"})
	s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom = addr, a, from
		return nil
	}

	require.NoError(t, s.Send(context.Background(), []string{"juma@example.com"}, "Hi", []byte("raw")))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "noreply@boma.co.ke", gotFrom)
	assert.NotNil(t, gotAuth)

	assert.Error(t, s.Send(context.Background(), nil, "Hi", []byte("raw")), "no recipients")

	relayErr := errors.New("535 authentication failed")
	s.send = func(string, smtp.Auth, string, []string, []byte) error { return relayErr }
	assert.ErrorIs(t, s.Send(context.Background(), []string{"juma@example.com"}, "Hi", []byte("raw")), relayErr)
}
