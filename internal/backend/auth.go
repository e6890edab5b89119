package backend

import "context"

type tokenKey struct{}

// WithToken attaches the caller's Authorization header value to ctx. Every
// request made with that context forwards it to the backend.
func WithToken(ctx context.Context, authorization string) context.Context {
	return context.WithValue(ctx, tokenKey{}, authorization)
}

func TokenFromContext(ctx context.Context) string {
	v, _ := ctx.Value(tokenKey{}).(string)
	return v
}
