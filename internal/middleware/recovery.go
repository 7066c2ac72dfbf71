package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"blog-api/internal/model"
)

// Recovery turns a panicking handler into a 500 envelope. http.ErrAbortHandler
// is re-raised so the server can drop the connection.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			if recovered == http.ErrAbortHandler {
				panic(recovered)
			}

			slog.Error("panic recovered",
				"method", r.Method,
				"path", r.URL.Path,
				"error", fmt.Sprintf("%v", recovered),
				"stack", string(debug.Stack()))
			writeJSON(w, http.StatusInternalServerError, model.APIResponse{
				Success: false,
				Error:   &model.APIError{Code: "INTERNAL_ERROR", Message: "Unexpected server error"},
			})
		}()

		next.ServeHTTP(w, r)
	})
}
