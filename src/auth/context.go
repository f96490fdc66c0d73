package auth

import "context"

type contextKey string

const AuthenticatedKey contextKey = "authenticated"

// IsAuthenticated reports whether the request passed token verification.
func IsAuthenticated(ctx context.Context) bool {
	ok, found := ctx.Value(AuthenticatedKey).(bool)
	return found && ok
}

// WithAuthenticated marks a context as verified. Exposed for handler tests.
func WithAuthenticated(ctx context.Context) context.Context {
	return context.WithValue(ctx, AuthenticatedKey, true)
}
