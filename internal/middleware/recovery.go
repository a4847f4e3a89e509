package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Recoverer recovers from panics anywhere below it in the chain, logs the
// stack and answers 500. With verbose set the panic value is included in
// the response body, which is only appropriate for local development.
func Recoverer(logger *slog.Logger, verbose bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				logger.Error("panic recovered",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.Any("panic", rvr),
					slog.String("stack", string(debug.Stack())),
				)

				message := "Internal server error"
				if verbose {
					message = fmt.Sprintf("panic: %v", rvr)
				}
				writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", message)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
