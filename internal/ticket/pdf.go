package ticket

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// PDF renders an A5 ticket for b with its QR code.  holder is printed as
// the ticket owner.
func PDF(b model.Booking, holder string) ([]byte, error) {
	png, err := QRPNG(b, DefaultQRSize)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A5", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Ticket "+b.ID, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 10, tr(orDash(b.MovieTitle)), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	imgOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	name := "qr_" + b.ID
	pdf.RegisterImageOptionsReader(name, imgOpts, bytes.NewReader(png))
	w, _ := pdf.GetPageSize()
	const qrSide = 70.0
	pdf.ImageOptions(name, (w-qrSide)/2, pdf.GetY(), qrSide, qrSide, false, imgOpts, 0, "")
	pdf.Ln(qrSide + 4)

	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(15, pdf.GetY(), w-15, pdf.GetY())
	pdf.Ln(4)

	rows := [][2]string{
		{"Date", b.Date},
		{"Time", orDash(b.Time)},
		{"Theater", orDash(b.Theater)},
		{"Seats", strings.Join(b.Seats, ", ")},
		{"Total", price(b.TotalPrice)},
		{"Holder", holder},
		{"Booking", b.ID},
	}
	for _, r := range rows {
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(35, 7, r[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 7, tr(r[1]), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render ticket pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func price(p *int64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%d KRW", *p)
}
