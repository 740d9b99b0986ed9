package middleware

import (
	"net/http"

	log "github.com/Ptt-Alertor/logrus"
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// AccessLog logs one line per request once the handler returns
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		log.WithFields(log.Fields{
			"method":    r.Method,
			"IP":        r.RemoteAddr,
			"URI":       r.URL.Path,
			"status":    rw.statusCode,
			"requestID": RequestIDFromContext(r.Context()),
		}).Info("visit")
	})
}
