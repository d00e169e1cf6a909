package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migration is one versioned schema step, recorded in treasury_migrations
// so re-running Migrate is a no-op for applied versions.
type migration struct {
	Name    string
	Version string
	SQL     string
}

var migrations = []migration{
	{
		Name:    "create_treasury_transactions",
		Version: "20260101000001",
		SQL: `
CREATE TABLE IF NOT EXISTS treasury_transactions (
    id              TEXT PRIMARY KEY,
    period          TEXT NOT NULL DEFAULT '',
    direction       TEXT NOT NULL DEFAULT '',
    origin          TEXT NOT NULL DEFAULT '',
    amount_scaled   INTEGER NOT NULL DEFAULT 0,
    amount_currency TEXT NOT NULL DEFAULT '',
    reason          TEXT NOT NULL DEFAULT '',
    reference       TEXT NOT NULL DEFAULT '',
    owner_ref       TEXT NOT NULL DEFAULT '',
    actor           TEXT NOT NULL DEFAULT '',
    state           TEXT NOT NULL DEFAULT 'in_flight',
    consolidated_at TIMESTAMP,
    consolidated_by TEXT NOT NULL DEFAULT '',
    reverted_at     TIMESTAMP,
    revert_reason   TEXT NOT NULL DEFAULT '',
    reverted_by     TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMP NOT NULL,
    updated_at      TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_treasury_txns_period_state ON treasury_transactions (period, state);
CREATE INDEX IF NOT EXISTS idx_treasury_txns_period_origin ON treasury_transactions (period, origin);
CREATE INDEX IF NOT EXISTS idx_treasury_txns_state_created ON treasury_transactions (state, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_treasury_txns_owner_ref ON treasury_transactions (owner_ref, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_treasury_txns_created ON treasury_transactions (created_at DESC);
`,
	},
	{
		Name:    "create_treasury_bank",
		Version: "20260101000002",
		SQL: `
CREATE TABLE IF NOT EXISTS treasury_bank (
    key                  TEXT PRIMARY KEY,
    currency             TEXT NOT NULL DEFAULT '',
    consolidated_scaled  INTEGER NOT NULL DEFAULT 0,
    in_flight_scaled     INTEGER NOT NULL DEFAULT 0,
    simulated_scaled     INTEGER NOT NULL DEFAULT 0,
    current_period       TEXT NOT NULL DEFAULT '',
    last_consolidated_at TIMESTAMP,
    periods_consolidated INTEGER NOT NULL DEFAULT 0,
    movement_count       INTEGER NOT NULL DEFAULT 0,
    created_at           TIMESTAMP NOT NULL,
    updated_at           TIMESTAMP NOT NULL
);
`,
	},
}

// runMigrations applies pending migrations in version order.
func runMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS treasury_migrations (
    version    TEXT PRIMARY KEY,
    name       TEXT NOT NULL DEFAULT '',
    applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`)
	if err != nil {
		return fmt.Errorf("treasury/sqlite: create migrations table: %w", err)
	}

	for _, m := range migrations {
		var applied bool
		err := db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM treasury_migrations WHERE version = ?)`, m.Version,
		).Scan(&applied)
		if err != nil {
			return fmt.Errorf("treasury/sqlite: check migration %s: %w", m.Version, err)
		}
		if applied {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("treasury/sqlite: begin migration %s: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
			_ = tx.Rollback() //nolint:errcheck // rollback error is secondary to the migration error
			return fmt.Errorf("treasury/sqlite: apply migration %s (%s): %w", m.Version, m.Name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO treasury_migrations (version, name) VALUES (?, ?)`, m.Version, m.Name,
		); err != nil {
			_ = tx.Rollback() //nolint:errcheck // rollback error is secondary to the migration error
			return fmt.Errorf("treasury/sqlite: record migration %s: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("treasury/sqlite: commit migration %s: %w", m.Version, err)
		}
	}
	return nil
}
