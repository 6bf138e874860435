package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"

	apierrors "github.com/narvanalabs/vaulty/internal/api/errors"
)

// Recovery returns a middleware that recovers from panics, logs them and
// answers with a generic 500.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}

					requestID := middleware.GetReqID(r.Context())
					logger.Error("panic recovered",
						"error", rec,
						"error_code", apierrors.CodeInternalError,
						"stack_trace", string(debug.Stack()),
						"request_id", requestID,
						"method", r.Method,
						"path", r.URL.Path,
					)

					apierrors.WriteErrorWithRequestID(w,
						apierrors.NewInternalError("An unexpected error occurred"),
						requestID,
					)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
