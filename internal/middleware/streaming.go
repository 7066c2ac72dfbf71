package middleware

import (
	"context"
	"net/http"
	"time"
)

// StreamingTimeout bounds file responses without buffering them. The
// connection write deadline is set alongside the context deadline so a
// slow client cannot hold the handler past maxDuration.
func StreamingTimeout(maxDuration time.Duration) func(http.Handler) http.Handler {
	if maxDuration <= 0 {
		maxDuration = 30 * time.Second
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), maxDuration)
			defer cancel()

			_ = http.NewResponseController(w).SetWriteDeadline(time.Now().Add(maxDuration))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
