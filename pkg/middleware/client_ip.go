package middleware

import (
	"net"
	"net/http"

	"github.com/onboardlens/onboardlens/pkg/audit"
)

// ClientIP records the caller's address on the request context so security
// events raised by services can name it.
func ClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			ip = host
		}
		next.ServeHTTP(w, r.WithContext(audit.WithClientIP(r.Context(), ip)))
	})
}
