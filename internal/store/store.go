// Package store persists the recent prompts of each session.
package store

import (
	"context"
	"errors"
)

var ErrSessionRequired = errors.New("session id is required")

// HistoryStore keeps the ordered prompt history of a session, oldest first.
type HistoryStore interface {
	Append(ctx context.Context, sessionID, prompt string) error
	Load(ctx context.Context, sessionID string) ([]string, error)
	Clear(ctx context.Context, sessionID string) error
}

// HealthChecker is implemented by stores backed by an external service.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
