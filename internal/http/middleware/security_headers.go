package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

var securityHeaders = chi.Chain(
	chimw.SetHeader("Referrer-Policy", "no-referrer"),
	chimw.SetHeader("X-Frame-Options", "DENY"),
	chimw.SetHeader("Content-Security-Policy", "frame-ancestors 'none'"),
	chimw.SetHeader("X-Content-Type-Options", "nosniff"),
)

// SecurityHeaders stops the pages from being framed and keeps the Referer off
// outbound navigation.
func SecurityHeaders(next http.Handler) http.Handler {
	return securityHeaders.Handler(next)
}
