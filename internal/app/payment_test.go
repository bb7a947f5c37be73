package app

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/metinatakli/seat-reservation/api"
	"github.com/metinatakli/seat-reservation/internal/domain"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/stretchr/testify/suite"
)

type PaymentTestSuite struct {
	appSuite
}

func TestPaymentSuite(t *testing.T) {
	suite.Run(t, new(PaymentTestSuite))
}

func (s *PaymentTestSuite) webhook(event domain.PaymentEvent) *httptest.ResponseRecorder {
	return s.do(http.MethodPost, "/webhooks/payments", event)
}

func (s *PaymentTestSuite) getHold(hold api.HoldResponse, cookies []*http.Cookie) api.HoldResponse {
	w := s.do(http.MethodGet, "/holds/"+hold.HoldId.String(), nil, withCookies(cookies))
	s.Require().Equal(http.StatusOK, w.Code)

	var got api.HoldResponse
	s.decode(w, &got)

	return got
}

func (s *PaymentTestSuite) TestWebhook_ConfirmsHold() {
	hold, cookies := s.holdSeats("A1", "B1")

	event := domain.PaymentEvent{
		ID:            "evt_1",
		Outcome:       domain.PaymentConfirmed,
		HoldID:        hold.HoldId,
		PaymentRef:    "pi_1",
		CustomerEmail: "buyer@example.com",
	}

	w := s.webhook(event)
	s.Require().Equal(http.StatusAccepted, w.Code, w.Body.String())

	got := s.getHold(hold, cookies)
	s.Equal(api.HoldStatusConfirmed, got.Status)
	s.Require().NotNil(got.BookingId)
	s.Equal("24.00", got.TotalPrice)

	s.Equal(1, s.seatMap().FreeCount)

	s.Run("redelivery changes nothing", func() {
		w := s.webhook(event)
		s.Equal(http.StatusAccepted, w.Code)

		again := s.getHold(hold, cookies)
		s.Equal(*got.BookingId, *again.BookingId)
	})

	s.events.Wait()

	emails := s.mailer.SentEmails()
	s.Require().Len(emails, 1)
	s.Equal("buyer@example.com", emails[0].Recipient)
	s.Equal("Your tickets for Fight Club", emails[0].Subject)
}

func (s *PaymentTestSuite) TestWebhook_FailedPaymentReleasesSeats() {
	hold, cookies := s.holdSeats("A2")

	w := s.webhook(domain.PaymentEvent{
		ID:      "evt_2",
		Outcome: domain.PaymentFailed,
		HoldID:  hold.HoldId,
		Reason:  "card declined",
	})
	s.Require().Equal(http.StatusAccepted, w.Code)

	got := s.getHold(hold, cookies)
	s.Equal(api.HoldStatusReleased, got.Status)
	s.Equal(domain.ReleaseReasonPaymentFailed, got.ReleaseReason)
	s.Equal(3, s.seatMap().FreeCount)
}

func (s *PaymentTestSuite) TestWebhook_RejectedPayloads() {
	tests := []struct {
		name string
		body []byte
	}{
		{name: "not json", body: []byte("nope")},
		{name: "missing hold", body: []byte(`{"id":"evt","outcome":"confirmed"}`)},
		{name: "unknown outcome", body: []byte(`{"id":"evt","outcome":"maybe","holdId":"` + uuid.NewString() + `"}`)},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			r := httptest.NewRequest(http.MethodPost, "/webhooks/payments", bytes.NewReader(tt.body))
			w := httptest.NewRecorder()

			s.handler.ServeHTTP(w, r)

			s.Equal(http.StatusBadRequest, w.Code)
		})
	}
}

func (s *PaymentTestSuite) TestWebhook_UnknownHoldIsAcknowledged() {
	w := s.webhook(domain.PaymentEvent{
		ID:      "evt_3",
		Outcome: domain.PaymentConfirmed,
		HoldID:  uuid.New(),
	})

	s.Equal(http.StatusAccepted, w.Code)
}

func (s *PaymentTestSuite) TestFinalizeHold() {
	hold, cookies := s.holdSeats("A1")
	url := "/admin/holds/" + hold.HoldId.String() + "/outcome"

	tests := []struct {
		name       string
		token      string
		body       any
		wantStatus int
	}{
		{
			name:       "missing token",
			body:       api.PaymentOutcomeRequest{Outcome: "confirmed"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong token",
			token:      "guess",
			body:       api.PaymentOutcomeRequest{Outcome: "confirmed"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unknown outcome",
			token:      testAdminToken,
			body:       map[string]string{"outcome": "pending"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:  "confirms the hold",
			token: testAdminToken,
			body: api.PaymentOutcomeRequest{
				Outcome:       "confirmed",
				PaymentRef:    "box-office-7",
				CustomerEmail: ptr(openapi_types.Email("walkin@example.com")),
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			var opts []requestOption
			if tt.token != "" {
				opts = append(opts, asAdmin(tt.token))
			}

			w := s.do(http.MethodPost, url, tt.body, opts...)

			s.Equal(tt.wantStatus, w.Code, w.Body.String())
		})
	}

	got := s.getHold(hold, cookies)
	s.Equal(api.HoldStatusConfirmed, got.Status)
}

func (s *PaymentTestSuite) TestFinalizeHold_ReleasedHoldIsGone() {
	hold, cookies := s.holdSeats("B1")

	w := s.do(http.MethodDelete, "/holds/"+hold.HoldId.String(), nil, withCookies(cookies))
	s.Require().Equal(http.StatusNoContent, w.Code)

	w = s.do(http.MethodPost, "/admin/holds/"+hold.HoldId.String()+"/outcome",
		api.PaymentOutcomeRequest{Outcome: "confirmed", PaymentRef: "pi_late"}, asAdmin(testAdminToken))

	s.Equal(http.StatusGone, w.Code)
}

func (s *PaymentTestSuite) TestCancelBooking() {
	hold, _ := s.holdSeats("A1", "A2")

	w := s.do(http.MethodPost, "/admin/holds/"+hold.HoldId.String()+"/outcome",
		api.PaymentOutcomeRequest{Outcome: "confirmed", PaymentRef: "pi_9"}, asAdmin(testAdminToken))
	s.Require().Equal(http.StatusOK, w.Code)

	var outcome api.PaymentOutcomeResponse
	s.decode(w, &outcome)
	s.Require().NotNil(outcome.Booking)
	s.Equal(1, s.seatMap().FreeCount)

	url := "/admin/bookings/" + outcome.Booking.BookingId.String() + "/cancel"

	w = s.do(http.MethodPost, url, api.CancelBookingRequest{Reason: "show moved"}, asAdmin(testAdminToken))
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var booking api.BookingResponse
	s.decode(w, &booking)
	s.Equal(api.BookingStatusCancelled, booking.Status)
	s.NotNil(booking.CancelledAt)
	s.Equal(3, s.seatMap().FreeCount)

	w = s.do(http.MethodPost, url, nil, asAdmin(testAdminToken))
	s.Equal(http.StatusOK, w.Code, "cancelling twice returns the cancelled booking")

	w = s.do(http.MethodPost, "/admin/bookings/"+uuid.NewString()+"/cancel", nil, asAdmin(testAdminToken))
	s.Equal(http.StatusNotFound, w.Code)
}
