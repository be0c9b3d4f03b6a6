package httpkit

import (
	perrs "brigade/internal/platform/errors"
	pnet "brigade/internal/platform/net"

	"github.com/golang-jwt/jwt/v5"
)

// bearerClaims is the token payload the transport layer understands.
// Tokens are issued elsewhere; the core only reads them
type bearerClaims struct {
	OrgID     string `json:"org_id"`
	BranchID  string `json:"branch_id,omitempty"`
	RoleLevel int    `json:"role_level"`
	Platform  bool   `json:"platform,omitempty"`
	jwt.RegisteredClaims
}

// BearerClaims returns a ClaimsFunc verifying HS256 tokens with the given
// secret and mapping claims onto the request identity
func BearerClaims(secret []byte) ClaimsFunc {
	return func(token string) (pnet.Identity, error) {
		var claims bearerClaims
		_, err := jwt.ParseWithClaims(
			token,
			&claims,
			func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, perrs.Unauthorizedf("unexpected signing method %q", t.Method.Alg())
				}
				return secret, nil
			},
			jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		)
		if err != nil {
			return pnet.Identity{}, perrs.Unauthorizedf("invalid bearer token")
		}
		if claims.Subject == "" || claims.OrgID == "" {
			return pnet.Identity{}, perrs.Unauthorizedf("token missing subject or org scope")
		}
		if claims.RoleLevel < 1 || claims.RoleLevel > 5 {
			return pnet.Identity{}, perrs.Unauthorizedf("token role level out of range")
		}
		return pnet.Identity{
			UserID:    claims.Subject,
			OrgID:     claims.OrgID,
			BranchID:  claims.BranchID,
			RoleLevel: claims.RoleLevel,
			Platform:  claims.Platform,
		}, nil
	}
}

// BearerPort wires BearerClaims into an auth middleware port
func BearerPort(secret []byte) *Port {
	return NewPortFunc(BearerClaims(secret))
}
