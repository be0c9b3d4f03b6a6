// Package httpkit provides tiny HTTP helpers and adapters
package httpkit

import (
	"net/http"
	"strings"

	perrs "brigade/internal/platform/errors"
	pnet "brigade/internal/platform/net"
)

// ClaimsFunc parses a raw bearer token into an Identity
type ClaimsFunc func(token string) (pnet.Identity, error)

// Port implements middleware.AuthPort by reading Authorization and delegating to a ClaimsFunc
type Port struct {
	parse ClaimsFunc
}

// NewPortFunc builds a Port from a simple parser function
func NewPortFunc(fn ClaimsFunc) *Port {
	return &Port{parse: fn}
}

// Parse extracts the identity from an Authorization Bearer token
// returns unauthorized when the header is missing, malformed, or the parser returns an error
func (p *Port) Parse(r *http.Request) (pnet.Identity, error) {
	authz := r.Header.Get("Authorization")
	// normalize whitespace around the whole header
	s := strings.TrimSpace(authz)
	if s == "" {
		return pnet.Identity{}, perrs.Unauthorizedf("missing bearer token")
	}
	ls := strings.ToLower(s)
	const prefix = "bearer"
	if !strings.HasPrefix(ls, prefix) {
		return pnet.Identity{}, perrs.Unauthorizedf("missing bearer token")
	}
	raw := strings.TrimSpace(s[len(prefix):])
	if raw == "" {
		return pnet.Identity{}, perrs.Unauthorizedf("missing bearer token")
	}

	if p.parse == nil {
		return pnet.Identity{}, perrs.Unauthorizedf("invalid bearer token")
	}

	id, err := p.parse(raw)
	if err != nil {
		return pnet.Identity{}, perrs.Unauthorizedf("invalid bearer token")
	}
	return id, nil
}
