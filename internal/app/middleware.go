package app

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/metinatakli/seat-reservation/api"
	"github.com/metinatakli/seat-reservation/internal/domain"
)

func (app *Application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")

				app.serverErrorResponse(w, r, fmt.Errorf("%s", err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (app *Application) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := app.logger.With(
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"uri", r.URL.RequestURI(),
		)

		next.ServeHTTP(w, app.contextSetLogger(r, logger))
	})
}

// ensureHolderSession gives every buyer a stable anonymous holder token
// kept in their session. Holds and bookings are scoped to it.
func (app *Application) ensureHolderSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		holder := app.sessionManager.GetString(r.Context(), SessionKeyHolder.String())

		if holder == "" {
			holder = uuid.NewString()
			app.sessionManager.Put(r.Context(), SessionKeyHolder.String(), holder)
		}

		next.ServeHTTP(w, app.contextSetHolder(r, holder))
	})
}

// requireHolderSession loads the buyer session for operations secured by
// the holderSession scheme.
func (app *Application) requireHolderSession(next http.Handler) http.Handler {
	withSession := app.sessionManager.LoadAndSave(app.ensureHolderSession(next))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Context().Value(api.HolderSessionScopes) == nil {
			next.ServeHTTP(w, r)
			return
		}

		withSession.ServeHTTP(w, r)
	})
}

// requireAdmin guards operations secured by the adminToken scheme. The
// admin surface does not exist while no token is configured.
func (app *Application) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Context().Value(api.AdminTokenScopes) == nil {
			next.ServeHTTP(w, r)
			return
		}

		if app.config.AdminToken == "" {
			app.notFoundResponse(w, r)
			return
		}

		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(app.config.AdminToken)) != 1 {
			w.Header().Set("WWW-Authenticate", "Bearer")
			app.unauthorizedAccessResponse(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// validateRequest checks parameters and bodies against the OpenAPI
// document. Requests for paths it does not describe pass through so the
// router can answer them.
func (app *Application) validateRequest(router routers.Router) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, err := router.FindRoute(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options: &openapi3filter.Options{
					AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
				},
			}

			err = openapi3filter.ValidateRequest(r.Context(), input)
			if err != nil {
				app.openapiErrorResponse(w, r, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (app *Application) openapiErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *openapi3filter.RequestError
	if !errors.As(err, &reqErr) {
		app.badRequestResponse(w, r, err)
		return
	}

	if reqErr.Parameter != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid %s parameter", reqErr.Parameter.Name))
		return
	}

	var schemaErr *openapi3.SchemaError
	if reqErr.RequestBody != nil && errors.As(reqErr.Err, &schemaErr) {
		field := strings.Join(schemaErr.JSONPointer(), ".")
		app.failedValidationResponse(w, r, domain.NewValidationError(field, schemaErr.Reason))
		return
	}

	app.badRequestResponse(w, r, errors.New("request body is invalid"))
}
