package app

import (
	"net/http"

	"github.com/metinatakli/seat-reservation/api"
	"github.com/metinatakli/seat-reservation/internal/domain"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"
)

func (app *Application) CreateHold(w http.ResponseWriter, r *http.Request, showId int) {
	var input api.CreateHoldRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	receipt, err := app.reservations.RequestSeats(r.Context(), showId, input.SeatIds, app.contextGetHolder(r))
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	resp := api.HoldResponse{
		HoldId:     receipt.HoldID,
		ShowId:     receipt.ShowID,
		SeatIds:    receipt.SeatIDs,
		Status:     api.HoldStatusHeld,
		ExpiresAt:  receipt.ExpiresAt,
		TotalPrice: receipt.TotalPrice.StringFixed(2),
	}

	err = app.writeJSON(w, http.StatusCreated, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetHold(w http.ResponseWriter, r *http.Request, holdId openapi_types.UUID) {
	hold, booking, err := app.reservations.GetHold(r.Context(), holdId, app.contextGetHolder(r))
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	var resp api.HoldResponse

	if booking != nil {
		resp = toHoldResponse(hold, booking.TotalPrice)
		resp.BookingId = &booking.ID
	} else {
		show, err := app.registry.Get(r.Context(), hold.ShowID)
		if err != nil {
			app.handleError(w, r, err)
			return
		}

		resp = toHoldResponse(hold, domain.NewHoldReceipt(hold, show.Price).TotalPrice)
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) ReleaseHold(w http.ResponseWriter, r *http.Request, holdId openapi_types.UUID) {
	err := app.reservations.ReleaseHold(r.Context(), holdId, app.contextGetHolder(r))
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *Application) CreateCheckoutSession(w http.ResponseWriter, r *http.Request, holdId openapi_types.UUID) {
	session, err := app.reservations.Checkout(r.Context(), holdId, app.contextGetHolder(r))
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, api.CheckoutSessionResponse{RedirectUrl: session.URL}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toHoldResponse(hold *domain.Hold, total decimal.Decimal) api.HoldResponse {
	return api.HoldResponse{
		HoldId:        hold.ID,
		ShowId:        hold.ShowID,
		SeatIds:       hold.SeatIDs,
		Status:        api.HoldStatus(hold.Status),
		ReleaseReason: hold.ReleaseReason,
		ExpiresAt:     hold.ExpiresAt,
		TotalPrice:    total.StringFixed(2),
	}
}
