package core

import "context"

type contextKey string

const ctxKeyUserID contextKey = "user_id"

// ContextWithUserID stamps the authenticated user's opaque identifier onto
// the context. The auth middleware is the only writer.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKeyUserID, userID)
}

// UserIDFromContext extracts the authenticated user identifier, or "" when
// the request is unauthenticated.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyUserID).(string); ok {
		return v
	}
	return ""
}
