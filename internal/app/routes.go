package app

import (
	"net/http"

	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/metinatakli/seat-reservation/api"
	"github.com/riandyrn/otelchi"
)

var _ api.ServerInterface = (*Application)(nil)

func (app *Application) Routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(app.notFoundResponse)
	r.MethodNotAllowed(app.methodNotAllowedResponse)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(otelchi.Middleware(serviceName, otelchi.WithChiRoutes(r)))
	r.Use(app.logRequest)
	r.Use(app.recoverPanic)

	// Operation middlewares wrap in reverse: admin auth runs first, then the
	// holder session, then request validation.
	return api.HandlerWithOptions(app, api.ChiServerOptions{
		BaseRouter: r,
		Middlewares: []api.MiddlewareFunc{
			app.requestValidator(),
			app.requireHolderSession,
			app.requireAdmin,
		},
		ErrorHandlerFunc: app.paramErrorResponse,
	})
}

// requestValidator returns the OpenAPI validation middleware, or a
// passthrough when the embedded document cannot be loaded.
func (app *Application) requestValidator() api.MiddlewareFunc {
	router, err := openapiRouter()
	if err != nil {
		app.logger.Error("failed to load openapi document, request validation disabled", "error", err)

		return func(next http.Handler) http.Handler { return next }
	}

	return app.validateRequest(router)
}

func openapiRouter() (routers.Router, error) {
	swagger, err := api.GetSwagger()
	if err != nil {
		return nil, err
	}

	// Match requests regardless of the host they were sent to.
	swagger.Servers = nil

	return legacy.NewRouter(swagger)
}
