package services

import "context"

// SessionChecker is the liveness view of the session store consumed by
// the access gate. The gate only ever asks one question.
type SessionChecker interface {
	IsActive(ctx context.Context, sessionID string) (bool, error)
}
