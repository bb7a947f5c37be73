package integration_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/metinatakli/seat-reservation/api"
	"github.com/metinatakli/seat-reservation/internal/domain"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ReservationTestSuite struct {
	BaseSuite
	showID int
}

func TestReservationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip()
	}
	suite.Run(t, new(ReservationTestSuite))
}

func (s *ReservationTestSuite) SetupTest() {
	t := s.T()

	seedMovie(t, s.app, 550, "Fight Club")

	req := api.CreateShowsRequest{
		MovieId: 550,
		Shows: []api.ShowSlot{{
			Date:  openapi_types.Date{Time: time.Now().UTC().AddDate(0, 0, 2)},
			Times: []string{"19:00"},
		}},
		Price:       "11.00",
		Rows:        2,
		SeatsPerRow: 2,
	}

	res := s.do(http.MethodPost, "/admin/shows", req, adminHeaders())
	require.Equal(t, http.StatusCreated, res.StatusCode)

	created := decode[api.CreateShowsResponse](t, res)
	require.Len(t, created.Shows, 1)

	s.showID = created.Shows[0].Id
}

func (s *ReservationTestSuite) do(method, url string, body any, headers map[string]string, cookies ...*http.Cookie) *http.Response {
	var req *http.Request
	if body != nil {
		req = prepareRequest(method, url, jsonBody(s.T(), body), headers, cookies)
	} else {
		req = prepareRequest(method, url, nil, headers, cookies)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	return rec.Result()
}

func (s *ReservationTestSuite) url(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}

func (s *ReservationTestSuite) freeSeats() int {
	res := s.do(http.MethodGet, s.url("/shows/%d/seats", s.showID), nil, nil)
	defer res.Body.Close()

	s.Require().Equal(http.StatusOK, res.StatusCode)

	return decode[api.SeatMapResponse](s.T(), res).FreeCount
}

func (s *ReservationTestSuite) TestHoldAndConfirm() {
	t := s.T()

	var buyer []*http.Cookie
	var hold api.HoldResponse

	scenarios := []Scenario{
		{
			Name:           "holds two free seats",
			Method:         http.MethodPost,
			URL:            s.url("/shows/%d/holds", s.showID),
			Body:           jsonBody(t, api.CreateHoldRequest{SeatIds: []string{"A1", "A2"}}),
			ExpectedStatus: http.StatusCreated,
			AfterTestFunc: func(t testing.TB, app *TestApp, res *http.Response) {
				buyer = res.Cookies()
				hold = decode[api.HoldResponse](t, res)

				assert.Equal(t, "22.00", hold.TotalPrice)
				assert.Equal(t, api.HoldStatusHeld, hold.Status)
			},
		},
		{
			Name:           "rejects a hold overlapping a held seat",
			Method:         http.MethodPost,
			URL:            s.url("/shows/%d/holds", s.showID),
			Body:           jsonBody(t, api.CreateHoldRequest{SeatIds: []string{"A2", "B1"}}),
			ExpectedStatus: http.StatusConflict,
			ExpectedResponse: `{
				"message": "seat(s) are not available",
				"seats": ["A2"]
			}`,
		},
	}

	for _, sc := range scenarios {
		sc.Run(t, s.handler, s.app)
	}

	require.NotNil(t, buyer)
	assert.Equal(t, 2, s.freeSeats())

	event := domain.PaymentEvent{
		ID:            "evt_integration",
		Outcome:       domain.PaymentConfirmed,
		HoldID:        hold.HoldId,
		PaymentRef:    "pi_integration",
		CustomerEmail: "buyer@example.com",
	}

	Scenario{
		Name:           "payment webhook confirms the hold",
		Method:         http.MethodPost,
		URL:            "/webhooks/payments",
		Body:           jsonBody(t, event),
		ExpectedStatus: http.StatusAccepted,
	}.Run(t, s.handler, s.app)

	Scenario{
		Name:           "redelivered webhook is accepted",
		Method:         http.MethodPost,
		URL:            "/webhooks/payments",
		Body:           jsonBody(t, event),
		ExpectedStatus: http.StatusAccepted,
	}.Run(t, s.handler, s.app)

	res := s.do(http.MethodGet, "/holds/"+hold.HoldId.String(), nil, nil, buyer...)
	require.Equal(t, http.StatusOK, res.StatusCode)

	confirmed := decode[api.HoldResponse](t, res)
	assert.Equal(t, api.HoldStatusConfirmed, confirmed.Status)
	assert.NotNil(t, confirmed.BookingId)
	assert.Equal(t, 2, s.freeSeats())

	res = s.do(http.MethodGet, "/bookings", nil, nil, buyer...)
	require.Equal(t, http.StatusOK, res.StatusCode)

	bookings := decode[api.BookingListResponse](t, res)
	require.Len(t, bookings.Bookings, 1)
	assert.Equal(t, "Fight Club", bookings.Bookings[0].MovieTitle)
	assert.ElementsMatch(t, []string{"A1", "A2"}, bookings.Bookings[0].SeatIds)

	s.app.Events.Wait()

	emails := s.app.Mailer.SentEmails()
	require.NotEmpty(t, emails)
	assert.Equal(t, "buyer@example.com", emails[len(emails)-1].Recipient)
}

func (s *ReservationTestSuite) TestHoldExpires() {
	t := s.T()

	res := s.do(http.MethodPost, s.url("/shows/%d/holds", s.showID),
		api.CreateHoldRequest{SeatIds: []string{"B1", "B2"}}, nil)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	buyer := res.Cookies()
	hold := decode[api.HoldResponse](t, res)

	assert.Equal(t, 2, s.freeSeats())

	assertEventually(t, func() bool {
		return s.freeSeats() == 4
	}, "seats of an expired hold must return to sale")

	res = s.do(http.MethodGet, "/holds/"+hold.HoldId.String(), nil, nil, buyer...)
	require.Equal(t, http.StatusOK, res.StatusCode)

	expired := decode[api.HoldResponse](t, res)
	assert.Equal(t, api.HoldStatusReleased, expired.Status)
	assert.Equal(t, domain.ReleaseReasonExpired, expired.ReleaseReason)

	Scenario{
		Name:           "late payment for an expired hold is dropped",
		Method:         http.MethodPost,
		URL:            "/webhooks/payments",
		Body:           jsonBody(t, domain.PaymentEvent{ID: "evt_late", Outcome: domain.PaymentConfirmed, HoldID: hold.HoldId, PaymentRef: "pi_late"}),
		ExpectedStatus: http.StatusAccepted,
	}.Run(t, s.handler, s.app)

	Scenario{
		Name:           "checkout of an expired hold is gone",
		Method:         http.MethodPost,
		URL:            "/holds/" + hold.HoldId.String() + "/checkout",
		Cookies:        buyer,
		ExpectedStatus: http.StatusGone,
	}.Run(t, s.handler, s.app)
}

func (s *ReservationTestSuite) TestInvalidatedShowRejectsHolds() {
	t := s.T()

	Scenario{
		Name:           "invalidates the show",
		Method:         http.MethodDelete,
		URL:            s.url("/admin/shows/%d", s.showID),
		Headers:        adminHeaders(),
		ExpectedStatus: http.StatusNoContent,
	}.Run(t, s.handler, s.app)

	Scenario{
		Name:           "no new holds",
		Method:         http.MethodPost,
		URL:            s.url("/shows/%d/holds", s.showID),
		Body:           jsonBody(t, api.CreateHoldRequest{SeatIds: []string{"A1"}}),
		ExpectedStatus: http.StatusConflict,
		AfterTestFunc: func(t testing.TB, app *TestApp, res *http.Response) {
			body := decode[api.ErrorResponse](t, res)
			assert.True(t, strings.Contains(body.Message, "not open for booking"))
		},
	}.Run(t, s.handler, s.app)
}
