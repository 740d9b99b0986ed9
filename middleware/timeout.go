package middleware

import (
	"net/http"
	"time"
)

// TimeoutBody is the 503 body sent when a handler runs past its deadline
const TimeoutBody = `{"message":"request timeout"}`

// Timeout bounds every request to d. The JSON content type is set on the
// outer writer up front; http.TimeoutHandler replaces it with the handler's
// own headers when the handler finishes in time.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		th := http.TimeoutHandler(next, d, TimeoutBody)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			th.ServeHTTP(w, r)
		})
	}
}
