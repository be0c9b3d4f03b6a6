package httpkit

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, method jwt.SigningMethod, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestBearerClaimsValid(t *testing.T) {
	tok := signToken(t, testSecret, jwt.SigningMethodHS256, bearerClaims{
		OrgID:     "org-1",
		BranchID:  "br-1",
		RoleLevel: 4,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	id, err := BearerClaims(testSecret)(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if id.UserID != "user-1" || id.OrgID != "org-1" || id.BranchID != "br-1" || id.RoleLevel != 4 {
		t.Fatalf("unexpected identity %+v", id)
	}
}

func TestBearerClaimsRejectsWrongSecret(t *testing.T) {
	tok := signToken(t, []byte("other"), jwt.SigningMethodHS256, bearerClaims{
		OrgID:     "org-1",
		RoleLevel: 2,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	if _, err := BearerClaims(testSecret)(tok); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestBearerClaimsRejectsExpired(t *testing.T) {
	tok := signToken(t, testSecret, jwt.SigningMethodHS256, bearerClaims{
		OrgID:     "org-1",
		RoleLevel: 2,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	if _, err := BearerClaims(testSecret)(tok); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestBearerClaimsRejectsMissingScope(t *testing.T) {
	cases := []bearerClaims{
		{RoleLevel: 2, RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"}},  // no org
		{OrgID: "org-1", RoleLevel: 2},                                             // no subject
		{OrgID: "org-1", RoleLevel: 9, RegisteredClaims: jwt.RegisteredClaims{Subject: "u"}}, // bad level
	}
	for i, c := range cases {
		tok := signToken(t, testSecret, jwt.SigningMethodHS256, c)
		if _, err := BearerClaims(testSecret)(tok); err == nil {
			t.Fatalf("case %d: expected rejection", i)
		}
	}
}
