// Package requesttime pins one "now" per request so the session timestamps
// and the submission receipt written while serving it agree.
package requesttime

import (
	"net/http"
	"time"

	"taxfile/pkg/requestcontext"
)

// Middleware pins the wall clock.
var Middleware = WithClock(time.Now)

// WithClock pins clock() at the start of each request for requestcontext.Now.
func WithClock(clock func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(requestcontext.WithTime(r.Context(), clock().UTC())))
		})
	}
}
