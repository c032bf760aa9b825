// Package mailer sends booking confirmation emails over SMTP.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
	"github.com/iliyamo/cinema-ticket-booking/internal/ticket"
)

// Config holds the SMTP settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled reports whether enough settings are present to send mail.
func (c Config) Enabled() bool { return c.Host != "" && c.Port > 0 && c.From != "" }

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<h2>Booking confirmed</h2>
<p>{{.Title}}</p>
<table>
<tr><td>Date</td><td>{{.Date}}</td></tr>
<tr><td>Time</td><td>{{.Time}}</td></tr>
<tr><td>Theater</td><td>{{.Theater}}</td></tr>
<tr><td>Seats</td><td>{{.Seats}}</td></tr>
<tr><td>Total</td><td>{{.Total}}</td></tr>
</table>
<p>Booking number: {{.ID}}</p>
<p>Your ticket is attached.</p>`))

type confirmationData struct {
	ID, Title, Date, Time, Theater, Seats, Total string
}

// Sender abstracts the SMTP transport.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer renders and sends booking confirmations.
type Mailer struct {
	from   string
	sender Sender
}

// New returns a Mailer for cfg.  It does not connect until a mail is sent.
func New(cfg Config) *Mailer {
	return &Mailer{from: cfg.From, sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)}
}

// NewWithSender is New with a custom transport.
func NewWithSender(from string, s Sender) *Mailer { return &Mailer{from: from, sender: s} }

// SendBookingConfirmation mails b to the address to, with the PDF ticket
// attached.
func (m *Mailer) SendBookingConfirmation(ctx context.Context, to string, b model.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := m.Message(to, b)
	if err != nil {
		return err
	}
	if err := m.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("send confirmation to %s: %w", to, err)
	}
	return nil
}

// Message builds the confirmation email of b.
func (m *Mailer) Message(to string, b model.Booking) (*gomail.Message, error) {
	data := confirmationData{
		ID:      b.ID,
		Title:   deref(b.MovieTitle),
		Date:    b.Date,
		Time:    deref(b.Time),
		Theater: deref(b.Theater),
		Seats:   strings.Join(b.Seats, ", "),
	}
	if b.TotalPrice != nil {
		data.Total = fmt.Sprintf("%d KRW", *b.TotalPrice)
	}
	var body bytes.Buffer
	if err := confirmationTmpl.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("render confirmation: %w", err)
	}
	pdf, err := ticket.PDF(b, to)
	if err != nil {
		return nil, err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Booking confirmed: "+data.Title)
	msg.SetBody("text/html", body.String())
	msg.Attach("ticket-"+b.ID+".pdf", gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(pdf)
		return err
	}))
	return msg, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
