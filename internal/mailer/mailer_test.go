package mailer

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

type captureSender struct {
	sent []*gomail.Message
	err  error
}

func (c *captureSender) DialAndSend(m ...*gomail.Message) error {
	c.sent = append(c.sent, m...)
	return c.err
}

func booking() model.Booking {
	title, total := "Zootopia 2", int64(12000)
	return model.Booking{ID: "b-1", Date: "2026-10-18", Seats: []string{"C4"}, MovieTitle: &title, TotalPrice: &total}
}

func TestSendBookingConfirmation(t *testing.T) {
	s := &captureSender{}
	m := NewWithSender("tickets@example.com", s)

	require.NoError(t, m.SendBookingConfirmation(context.Background(), "kim@example.com", booking()))
	require.Len(t, s.sent, 1)

	msg := s.sent[0]
	assert.Equal(t, []string{"kim@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Booking confirmed: Zootopia 2"}, msg.GetHeader("Subject"))

	var raw bytes.Buffer
	_, err := msg.WriteTo(&raw)
	require.NoError(t, err)
	assert.Contains(t, raw.String(), "ticket-b-1.pdf")
}

func TestSendBookingConfirmationError(t *testing.T) {
	boom := errors.New("smtp down")
	m := NewWithSender("tickets@example.com", &captureSender{err: boom})
	err := m.SendBookingConfirmation(context.Background(), "kim@example.com", booking())
	assert.ErrorIs(t, err, boom)
}

func TestConfigEnabled(t *testing.T) {
	assert.False(t, Config{}.Enabled())
	assert.True(t, Config{Host: "smtp", Port: 587, From: "a@b.c"}.Enabled())
}
