package app

import (
	"net/http"

	"github.com/metinatakli/seat-reservation/api"
	"github.com/metinatakli/seat-reservation/internal/domain"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

func (app *Application) GetBookings(w http.ResponseWriter, r *http.Request, params api.GetBookingsParams) {
	err := app.validator.Struct(params)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	bookings, metadata, err := app.reservations.ListBookings(r.Context(), app.contextGetHolder(r), toPagination(params))
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	resp := api.BookingListResponse{
		Bookings: make([]api.BookingSummary, len(bookings)),
		Metadata: toApiMetadata(metadata),
	}

	for i, b := range bookings {
		resp.Bookings[i] = api.BookingSummary{
			BookingId:   b.BookingID,
			ShowId:      b.ShowID,
			MovieTitle:  b.MovieTitle,
			PosterPath:  b.PosterPath,
			StartsAt:    b.StartsAt,
			SeatIds:     b.SeatIDs,
			TotalPrice:  b.TotalPrice.StringFixed(2),
			Status:      api.BookingStatus(b.Status),
			ConfirmedAt: b.ConfirmedAt,
		}
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) CancelBooking(w http.ResponseWriter, r *http.Request, bookingId openapi_types.UUID) {
	var input api.CancelBookingRequest

	if r.ContentLength != 0 {
		err := app.readJSON(w, r, &input)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
	}

	err := app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	booking, err := app.reservations.CancelBooking(r.Context(), bookingId, input.Reason)
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toBookingResponse(booking), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toPagination(params api.GetBookingsParams) domain.Pagination {
	pagination := domain.Pagination{
		Page:     DefaultPage,
		PageSize: DefaultPageSize,
	}

	if params.Page != nil {
		pagination.Page = *params.Page
	}
	if params.PageSize != nil {
		pagination.PageSize = *params.PageSize
	}

	return pagination
}

func toApiMetadata(metadata *domain.Metadata) *api.Metadata {
	if metadata == nil {
		return nil
	}

	return &api.Metadata{
		CurrentPage:  metadata.CurrentPage,
		FirstPage:    metadata.FirstPage,
		LastPage:     metadata.LastPage,
		PageSize:     metadata.PageSize,
		TotalRecords: metadata.TotalRecords,
	}
}

func toBookingResponse(booking *domain.Booking) *api.BookingResponse {
	return &api.BookingResponse{
		BookingId:   booking.ID,
		HoldId:      booking.HoldID,
		ShowId:      booking.ShowID,
		SeatIds:     booking.SeatIDs,
		TotalPrice:  booking.TotalPrice.StringFixed(2),
		Status:      api.BookingStatus(booking.Status),
		ConfirmedAt: booking.ConfirmedAt,
		CancelledAt: booking.CancelledAt,
	}
}
