package app

import (
	"context"
	"log/slog"
	"net/http"
)

type sessionKey string

const (
	SessionKeyHolder = sessionKey("holder")
)

func (s sessionKey) String() string {
	return string(s)
}

type contextKey string

const (
	holderContextKey = contextKey("holder")
	loggerContextKey = contextKey("logger")
)

func (app *Application) contextSetHolder(r *http.Request, holder string) *http.Request {
	ctx := context.WithValue(r.Context(), holderContextKey, holder)
	return r.WithContext(ctx)
}

func (app *Application) contextGetHolder(r *http.Request) string {
	holder, ok := r.Context().Value(holderContextKey).(string)
	if !ok {
		panic("missing holder token from context")
	}

	return holder
}

func (app *Application) contextSetLogger(r *http.Request, logger *slog.Logger) *http.Request {
	ctx := context.WithValue(r.Context(), loggerContextKey, logger)
	return r.WithContext(ctx)
}

func (app *Application) contextGetLogger(r *http.Request) *slog.Logger {
	logger, ok := r.Context().Value(loggerContextKey).(*slog.Logger)
	if !ok {
		return app.logger
	}

	return logger
}
