package store

import (
	"context"
	"fmt"

	"github.com/malik-dev28/OTA-AI/internal/db"
)

// DatabaseStore stores prompt history in PostgreSQL.
type DatabaseStore struct {
	db         *db.DB
	maxPrompts int
}

func NewDatabaseStore(database *db.DB, maxPrompts int) *DatabaseStore {
	return &DatabaseStore{db: database, maxPrompts: maxPrompts}
}

// Append saves a prompt and prunes the session to its newest maxPrompts rows
// in one transaction.
func (ds *DatabaseStore) Append(ctx context.Context, sessionID, prompt string) error {
	if sessionID == "" {
		return ErrSessionRequired
	}
	tx, err := ds.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO prompt_history (session_id, prompt, created_at) VALUES ($1, $2, NOW())`,
		sessionID, prompt,
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to save prompt: %w", err)
	}
	if ds.maxPrompts > 0 {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM prompt_history
			WHERE session_id = $1 AND id NOT IN (
				SELECT id FROM prompt_history
				WHERE session_id = $1
				ORDER BY id DESC
				LIMIT $2
			)`, sessionID, ds.maxPrompts,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to prune history: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit prompt: %w", err)
	}
	return nil
}

func (ds *DatabaseStore) HealthCheck(ctx context.Context) error {
	return ds.db.HealthCheck(ctx)
}

// Load returns the session's prompts, oldest first.
func (ds *DatabaseStore) Load(ctx context.Context, sessionID string) ([]string, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}
	rows, err := ds.db.QueryContext(ctx,
		`SELECT prompt FROM prompt_history WHERE session_id = $1 ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan prompt: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return out, nil
}

func (ds *DatabaseStore) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrSessionRequired
	}
	if _, err := ds.db.ExecContext(ctx, `DELETE FROM prompt_history WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
