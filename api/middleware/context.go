package middleware

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey string

const (
	ctxUserID    ctxKey = "userID"
	ctxRequestID ctxKey = "requestID"
)

// WithUserID stamps the authenticated user onto the request context.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxUserID, userID)
}

// UserIDFromContext returns the authenticated user, if any.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(ctxUserID).(uuid.UUID)
	return userID, ok
}

// RequestIDFromContext returns the request id assigned by the middleware.
func RequestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(ctxRequestID).(string)
	return requestID
}
