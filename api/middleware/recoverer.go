package middleware

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/artx-bot/api/responses"
	pkgerrors "github.com/angelmondragon/artx-bot/pkg/errors"
	"github.com/angelmondragon/artx-bot/pkg/logger"
)

// PanicRecorder counts recovered panics; *metrics.BotMetrics satisfies it.
type PanicRecorder interface {
	IncHTTPPanic(route string)
}

// Recoverer turns a handler panic into a 500 envelope. A panicking webhook
// therefore answers 500 and the payment provider redelivers the event.
func Recoverer(logg *logger.Logger, recorder PanicRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				route := routePattern(r)
				if recorder != nil {
					recorder.IncHTTPPanic(route)
				}

				err := fmt.Errorf("panic: %v", rec)
				ctx := r.Context()
				if logg != nil {
					ctx = logg.WithFields(ctx, map[string]any{"panic": rec, "route": route})
					logg.Error(ctx, "panic.recovered", err)
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// routePattern reads the matched chi pattern; the route context is filled in
// by the time a handler panics because chi shares it by pointer.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
