package ticket

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

func sample() model.Booking {
	title, theater, at, total := "Zootopia 2", "1 Theater", "10:00", int64(24000)
	return model.Booking{ID: "b-1", MovieID: 2, ScheduleID: 1, Date: "2026-10-18",
		Seats: []string{"A1", "B2"}, MovieTitle: &title, Theater: &theater, Time: &at, TotalPrice: &total}
}

func TestPayload(t *testing.T) {
	assert.Equal(t, "TICKET|b-1|2|2026-10-18|1|A1,B2", Payload(sample()))
}

func TestQR(t *testing.T) {
	png, err := QRPNG(sample(), 0)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	uri, err := QRDataURI(sample(), 128)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
}

func TestPDF(t *testing.T) {
	out, err := PDF(sample(), "kim")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	b := sample()
	b.MovieTitle, b.TotalPrice = nil, nil
	_, err = PDF(b, "")
	assert.NoError(t, err)
}
