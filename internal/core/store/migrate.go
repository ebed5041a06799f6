package store

import (
	"context"
	"errors"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		modes TEXT NOT NULL,
		result_limit INTEGER NOT NULL,
		exact INTEGER NOT NULL DEFAULT 0,
		record_count INTEGER NOT NULL,
		set_count INTEGER NOT NULL,
		total_plays INTEGER NOT NULL,
		sets_json TEXT NOT NULL,
		fetched_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_snapshots_user ON snapshots(user_id, fetched_at);`,
	`CREATE INDEX IF NOT EXISTS idx_snapshots_fetched ON snapshots(fetched_at);`,
}

// Migrate ensures the required database tables exist.
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	for _, stmt := range schemaStatements {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store migration failed: %w", err)
		}
	}

	return nil
}
