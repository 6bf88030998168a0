package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/durent/durent-backend/pkg/enums"
)

type callerKey struct{}

// Caller is the authenticated principal behind a request.
type Caller struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// CallerFromContext returns the caller set by Auth.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	if ctx == nil {
		return Caller{}, false
	}
	c, ok := ctx.Value(callerKey{}).(Caller)
	if !ok || c.UserID == uuid.Nil {
		return Caller{}, false
	}
	return c, true
}

func WithCaller(ctx context.Context, caller Caller) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, callerKey{}, caller)
}
