package store

import "context"

type (
	orgKey      struct{}
	reqIDKey    struct{}
	platformKey struct{}
)

// WithOrg attaches an org id to the context
func WithOrg(ctx context.Context, orgID string) context.Context {
	return context.WithValue(ctx, orgKey{}, orgID)
}

// OrgID retrieves an org id from context if present
func OrgID(ctx context.Context) (string, bool) {
	v := ctx.Value(orgKey{})
	if v == nil {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// WithPlatform marks the context as platform scoped (cross org reads allowed)
func WithPlatform(ctx context.Context) context.Context {
	return context.WithValue(ctx, platformKey{}, true)
}

// IsPlatform reports if the context carries the platform claim
func IsPlatform(ctx context.Context) bool {
	v := ctx.Value(platformKey{})
	b, _ := v.(bool)
	return b
}

// WithRequestID attaches a request id to the context
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, reqIDKey{}, id)
}

// RequestID retrieves a request id from context if present
func RequestID(ctx context.Context) (string, bool) {
	v := ctx.Value(reqIDKey{})
	if v == nil {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}
