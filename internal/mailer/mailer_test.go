package mailer

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_BookingConfirmed(t *testing.T) {
	bookingID := uuid.New()
	data := map[string]any{
		"BookingID":  bookingID,
		"MovieTitle": "Heat",
		"StartsAt":   time.Date(2030, 1, 2, 20, 30, 0, 0, time.UTC),
		"SeatIDs":    []string{"A1", "A2"},
		"TotalPrice": decimal.RequireFromString("25"),
	}

	msg, err := render("booking_confirmed.tmpl", data)

	require.NoError(t, err)
	assert.Equal(t, "Your tickets for Heat", msg.subject)
	assert.Contains(t, msg.plainBody, "Seats: A1, A2")
	assert.Contains(t, msg.plainBody, "Total: 25.00")
	assert.Contains(t, msg.plainBody, bookingID.String())
	assert.Contains(t, msg.htmlBody, "Wed, Jan 2 2030 20:30")
}

func TestRender_UnknownTemplate(t *testing.T) {
	_, err := render("missing.tmpl", nil)

	assert.Error(t, err)
}
