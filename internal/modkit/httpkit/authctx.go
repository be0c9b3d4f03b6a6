package httpkit

import (
	"net/http"
	"strings"

	perrs "brigade/internal/platform/errors"
	pnet "brigade/internal/platform/net"
)

// Identity returns the authenticated identity from the request context
func Identity(r *http.Request) (pnet.Identity, error) {
	id, ok := pnet.IdentityFrom(r.Context())
	if !ok || id.UserID == "" {
		return pnet.Identity{}, perrs.Unauthorizedf("missing bearer token")
	}
	return id, nil
}

// MustIdentity returns the authenticated identity or panics
// only use on routes protected by the auth middleware
func MustIdentity(r *http.Request) pnet.Identity {
	id, err := Identity(r)
	if err != nil {
		panic(err)
	}
	return id
}

// User returns the authenticated user id from the request context
func User(r *http.Request) (string, error) {
	id, err := Identity(r)
	if err != nil {
		return "", err
	}
	return id.UserID, nil
}

// Org returns the authenticated org id from the request context
func Org(r *http.Request) (string, error) {
	id, err := Identity(r)
	if err != nil {
		return "", err
	}
	if id.OrgID == "" {
		return "", perrs.Unauthorizedf("missing org scope")
	}
	return id.OrgID, nil
}

// RequireLevel enforces a minimum role level. Level 5 satisfies everything
func RequireLevel(r *http.Request, level int) (pnet.Identity, error) {
	id, err := Identity(r)
	if err != nil {
		return pnet.Identity{}, err
	}
	if id.RoleLevel < level {
		return pnet.Identity{}, perrs.Forbiddenf("requires role level %d", level)
	}
	return id, nil
}

// JWT returns the raw bearer token from the Authorization header
func JWT(r *http.Request) (string, error) {
	authz := r.Header.Get("Authorization")
	if strings.TrimSpace(authz) == "" {
		return "", perrs.Unauthorizedf("missing bearer token")
	}
	// case-insensitive Bearer prefix (don't trim the whole header first)
	const prefix = "bearer "
	if len(authz) < len(prefix) || strings.ToLower(authz[:len(prefix)]) != prefix {
		return "", perrs.Unauthorizedf("missing bearer token")
	}
	raw := strings.TrimSpace(authz[len(prefix):])
	if raw == "" {
		return "", perrs.Unauthorizedf("missing bearer token")
	}
	return raw, nil
}

// MustJWT returns the raw bearer token or panics
// only use on routes protected by the auth middleware
func MustJWT(r *http.Request) string {
	raw, err := JWT(r)
	if err != nil {
		panic(err)
	}
	return raw
}
