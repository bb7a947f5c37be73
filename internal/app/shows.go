package app

import (
	"net/http"

	"github.com/metinatakli/seat-reservation/api"
	"github.com/metinatakli/seat-reservation/internal/domain"
	"github.com/metinatakli/seat-reservation/internal/shows"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"
)

func (app *Application) GetShow(w http.ResponseWriter, r *http.Request, showId int) {
	show, err := app.registry.Get(r.Context(), showId)
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toShowResponse(show), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetSeatMap(w http.ResponseWriter, r *http.Request, showId int) {
	seatMap, err := app.reservations.Availability(r.Context(), showId)
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toSeatMapResponse(seatMap), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) CreateShows(w http.ResponseWriter, r *http.Request) {
	var input api.CreateShowsRequest

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

	price, err := decimal.NewFromString(input.Price)
	if err != nil {
		app.failedValidationResponse(w, r, domain.NewValidationError("price", "must be a decimal amount"))
		return
	}

	slots := make([]shows.Slot, len(input.Shows))
	for i, slot := range input.Shows {
		slots[i] = shows.Slot{
			Date:  slot.Date.Format(openapi_types.DateFormat),
			Times: slot.Times,
		}
	}

	created, err := app.registry.CreateShows(r.Context(), shows.CreateShowsInput{
		MovieID:     input.MovieId,
		Slots:       slots,
		Price:       price,
		Rows:        input.Rows,
		SeatsPerRow: input.SeatsPerRow,
		Layout:      input.Layout,
	})
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	resp := api.CreateShowsResponse{Shows: make([]api.ShowResponse, len(created))}
	for i, show := range created {
		resp.Shows[i] = toShowResponse(show)
	}

	err = app.writeJSON(w, http.StatusCreated, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) InvalidateShow(w http.ResponseWriter, r *http.Request, showId int) {
	err := app.registry.Invalidate(r.Context(), showId)
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toShowResponse(show *domain.Show) api.ShowResponse {
	return api.ShowResponse{
		Id:       show.ID,
		MovieId:  show.MovieID,
		StartsAt: show.StartsAt,
		Price:    show.Price.StringFixed(2),
		Layout:   show.Layout,
		Status:   api.ShowStatus(show.Status),
	}
}

func toSeatMapResponse(seatMap *domain.SeatMap) api.SeatMapResponse {
	ordered := seatMap.Ordered()

	resp := api.SeatMapResponse{
		ShowId: seatMap.ShowID,
		Price:  seatMap.Price.StringFixed(2),
		Seats:  make([]api.Seat, len(ordered)),
	}

	for i, seat := range ordered {
		if seat.Status == domain.SeatFree {
			resp.FreeCount++
		}

		resp.Seats[i] = api.Seat{
			SeatId: seat.SeatID,
			Status: api.SeatStatus(seat.Status),
		}
	}

	return resp
}
