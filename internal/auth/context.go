package auth

import "context"

type contextKey struct{}

// Context carries the authenticated identity for a request. UserID is the
// sole tenant-isolation key; every store query is scoped to it.
type Context struct {
	UserID    int64
	SessionID int64
}

func WithAuth(ctx context.Context, ac Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (Context, bool) {
	ac, ok := ctx.Value(contextKey{}).(Context)
	return ac, ok
}

func UserID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.UserID
}
