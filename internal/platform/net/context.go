// Package net provides utilities for working with request contexts
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// ctxKey is an unexported key type for context values
type ctxKey string

const (
	keyOrgID    ctxKey = "org_id"
	keyIdentity ctxKey = "identity"
)

// Identity is the authenticated caller extracted at the transport boundary.
// The core never issues or validates tokens; it only consumes this context.
type Identity struct {
	UserID    string
	OrgID     string
	BranchID  string
	RoleLevel int
	Platform  bool
}

// WithRequest annotates context with common request scoped ids
func WithRequest(ctx context.Context, reqID, orgID string) context.Context {
	if reqID != "" {
		// set chi RequestID so chimw.GetReqID can retrieve it
		ctx = context.WithValue(ctx, chimw.RequestIDKey, reqID)
	}
	if orgID != "" {
		ctx = context.WithValue(ctx, keyOrgID, orgID)
	}
	return ctx
}

// WithIdentity annotates context with the authenticated identity
func WithIdentity(ctx context.Context, id Identity) context.Context {
	ctx = context.WithValue(ctx, keyIdentity, id)
	if id.OrgID != "" {
		ctx = context.WithValue(ctx, keyOrgID, id.OrgID)
	}
	return ctx
}

// IdentityFrom returns the identity on the context if present
func IdentityFrom(ctx context.Context) (Identity, bool) {
	v, ok := ctx.Value(keyIdentity).(Identity)
	return v, ok
}

// RequestID returns the request id on the context if present
func RequestID(ctx context.Context) string {
	if v := chimw.GetReqID(ctx); v != "" {
		return v
	}
	return ""
}

// OrgID returns the org id on the context if present
func OrgID(ctx context.Context) string {
	if v, ok := ctx.Value(keyOrgID).(string); ok {
		return v
	}
	return ""
}

// UserID returns the authenticated user id on the context if present
func UserID(ctx context.Context) string {
	if id, ok := IdentityFrom(ctx); ok {
		return id.UserID
	}
	return ""
}

// RoleLevel returns the caller's role level, 0 when unauthenticated
func RoleLevel(ctx context.Context) int {
	if id, ok := IdentityFrom(ctx); ok {
		return id.RoleLevel
	}
	return 0
}

// BranchID returns the caller's branch scope if any
func BranchID(ctx context.Context) string {
	if id, ok := IdentityFrom(ctx); ok {
		return id.BranchID
	}
	return ""
}
