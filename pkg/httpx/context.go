package httpx

import "context"

type ctxKey string

const ctxKeyAccountID ctxKey = "account_id"

// WithAccountID marks the request as made by accountID.
func WithAccountID(ctx context.Context, accountID uint32) context.Context {
	return context.WithValue(ctx, ctxKeyAccountID, accountID)
}

// AccountIDFromContext returns the signed-in account id, or 0 for anonymous
// callers.
func AccountIDFromContext(ctx context.Context) uint32 {
	id, _ := ctx.Value(ctxKeyAccountID).(uint32)
	return id
}
