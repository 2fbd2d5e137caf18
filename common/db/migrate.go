package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// migrationLockID serializes schema changes across replicas starting together
const migrationLockID = 0x7461677376 // "tagsv"

// schema is applied idempotently on startup
var schema = []string{
	`CREATE TABLE IF NOT EXISTS tag (
		tag_id            TEXT PRIMARY KEY,
		status            TEXT NOT NULL,
		owner_id          TEXT,
		artifact          TEXT NOT NULL DEFAULT '',
		revocation_reason TEXT,
		active_tokens     JSONB NOT NULL DEFAULT '[]'::jsonb,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT tag_status_check CHECK (status IN ('ACTIVE', 'INACTIVE', 'REVOKED')),
		CONSTRAINT tag_reason_only_when_revoked CHECK (revocation_reason IS NULL OR status = 'REVOKED')
	)`,
	`CREATE INDEX IF NOT EXISTS tag_status_idx ON tag (status)`,
	`CREATE INDEX IF NOT EXISTS tag_owner_idx ON tag (owner_id) WHERE owner_id IS NOT NULL`,
}

// Migrate creates the tag schema if it does not exist. Statements run in
// one transaction under an advisory lock.
func Migrate(ctx context.Context, db *DB) error {
	err := db.InTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", int64(migrationLockID)); err != nil {
			return fmt.Errorf("acquire migration lock: %w", err)
		}
		for i, stmt := range schema {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("apply schema statement %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	db.log.Info("database schema ready", "statements", len(schema))
	return nil
}
