package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/metinatakli/seat-reservation/api"
	"github.com/metinatakli/seat-reservation/internal/domain"
	appvalidator "github.com/metinatakli/seat-reservation/internal/validator"
)

func (app *Application) logError(r *http.Request, err error) {
	app.contextGetLogger(r).Error(err.Error())
}

// The errorResponse() method is a generic helper for sending JSON-formatted error
// messages to the client with a given status code.
func (app *Application) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	resp := api.ErrorResponse{
		Message:   message,
		RequestId: middleware.GetReqID(r.Context()),
		Timestamp: time.Now(),
	}

	err := app.writeJSON(w, status, resp, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(500)
	}
}

func (app *Application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)

	message := "The server encountered a problem and could not process your request"
	app.errorResponse(w, r, http.StatusInternalServerError, message)
}

func (app *Application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "The requested resource not found"
	app.errorResponse(w, r, http.StatusNotFound, message)
}

func (app *Application) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	message := fmt.Sprintf("The %s method is not supported for this resource", r.Method)
	app.errorResponse(w, r, http.StatusMethodNotAllowed, message)
}

func (app *Application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (app *Application) unauthorizedAccessResponse(w http.ResponseWriter, r *http.Request) {
	message := "You must be authorized to access this resource"
	app.errorResponse(w, r, http.StatusUnauthorized, message)
}

func (app *Application) editConflictResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusConflict, err.Error())
}

func (app *Application) goneResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusGone, err.Error())
}

func (app *Application) serviceUnavailableResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)

	message := "A dependency is temporarily unavailable, please try again shortly"
	app.errorResponse(w, r, http.StatusServiceUnavailable, message)
}

func (app *Application) seatUnavailableResponse(w http.ResponseWriter, r *http.Request, err *domain.SeatUnavailableError) {
	resp := api.SeatConflictResponse{
		Message:   domain.ErrSeatUnavailable.Error(),
		RequestId: middleware.GetReqID(r.Context()),
		Timestamp: time.Now(),
		Seats:     err.Seats,
	}

	writeErr := app.writeJSON(w, http.StatusConflict, resp, nil)
	if writeErr != nil {
		app.serverErrorResponse(w, r, writeErr)
	}
}

// paramErrorResponse answers parameters that could not be bound to their
// declared type before the handler ran.
func (app *Application) paramErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var paramErr *api.InvalidParamFormatError
	if errors.As(err, &paramErr) {
		app.badRequestResponse(w, r, fmt.Errorf("invalid %s parameter", paramErr.ParamName))
		return
	}

	app.badRequestResponse(w, r, err)
}

// failedValidationResponse reports struct tag failures as well as domain
// validation errors with field level detail.
func (app *Application) failedValidationResponse(w http.ResponseWriter, r *http.Request, err error) {
	resp := api.ValidationErrorResponse{
		Message:   "One or more fields are invalid",
		RequestId: middleware.GetReqID(r.Context()),
		Timestamp: time.Now(),
	}

	var fieldErrs validator.ValidationErrors
	var domainErr *domain.ValidationError

	switch {
	case errors.As(err, &fieldErrs):
		for _, fe := range fieldErrs {
			resp.ValidationErrors = append(resp.ValidationErrors, api.ValidationError{
				Field: fe.Field(),
				Issue: appvalidator.ValidationMessage(fe),
			})
		}
	case errors.As(err, &domainErr):
		resp.ValidationErrors = []api.ValidationError{{Field: domainErr.Field, Issue: domainErr.Reason}}
	default:
		resp.ValidationErrors = []api.ValidationError{{Field: "", Issue: err.Error()}}
	}

	writeErr := app.writeJSON(w, http.StatusUnprocessableEntity, resp, nil)
	if writeErr != nil {
		app.serverErrorResponse(w, r, writeErr)
	}
}

// handleError maps reservation outcomes onto responses. Expected outcomes
// such as a taken seat or a lapsed hold get their own status codes and are
// not logged as faults.
func (app *Application) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var seatErr *domain.SeatUnavailableError

	switch {
	case errors.As(err, &seatErr):
		app.seatUnavailableResponse(w, r, seatErr)
	case errors.Is(err, domain.ErrValidation):
		app.failedValidationResponse(w, r, err)
	case errors.Is(err, domain.ErrRecordNotFound):
		app.notFoundResponse(w, r)
	case errors.Is(err, domain.ErrHoldExpired), errors.Is(err, domain.ErrHoldReleased):
		app.goneResponse(w, r, err)
	case errors.Is(err, domain.ErrShowNotBookable), errors.Is(err, domain.ErrEditConflict):
		app.editConflictResponse(w, r, err)
	case errors.Is(err, domain.ErrTransientDependency), errors.Is(err, context.DeadlineExceeded):
		app.serviceUnavailableResponse(w, r, err)
	default:
		app.serverErrorResponse(w, r, err)
	}
}
