// Package ticket renders a booking as a scannable QR code and a printable
// PDF ticket.
package ticket

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// DefaultQRSize is the side of the QR image in pixels.
const DefaultQRSize = 300

// Payload is the text encoded in a booking's QR code.  It carries the
// booking id for lookup plus the schedule so a scan is readable offline.
func Payload(b model.Booking) string {
	return fmt.Sprintf("TICKET|%s|%d|%s|%d|%s", b.ID, b.MovieID, b.Date, b.ScheduleID, strings.Join(b.Seats, ","))
}

// QRPNG encodes the booking payload as a PNG image of size pixels.
func QRPNG(b model.Booking, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultQRSize
	}
	qr, err := qrcode.New(Payload(b), qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("generate QR code: %w", err)
	}
	png, err := qr.PNG(size)
	if err != nil {
		return nil, fmt.Errorf("encode QR to PNG: %w", err)
	}
	return png, nil
}

// QRDataURI returns the QR image as a data URI usable in an <img> tag.
func QRDataURI(b model.Booking, size int) (string, error) {
	png, err := QRPNG(b, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
