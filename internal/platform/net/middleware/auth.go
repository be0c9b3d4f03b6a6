package middleware

import (
	"net/http"

	pnet "brigade/internal/platform/net"
)

// AuthPort extracts the caller identity from a request.
// Implementations own token parsing; the core only consumes the Identity.
type AuthPort interface {
	Parse(r *http.Request) (pnet.Identity, error)
}

// Auth stamps the parsed identity onto the request context.
// A nil port passes requests through unauthenticated.
func Auth(p AuthPort, write func(w http.ResponseWriter, status int, body any)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}
			id, err := p.Parse(r)
			if err != nil {
				status, body := pnet.Error(err, pnet.RequestID(r.Context()))
				write(w, status, body)
				return
			}
			ctx := pnet.WithIdentity(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
