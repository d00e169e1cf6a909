package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// migration is one versioned schema step. Steps run in order inside a
// transaction and are recorded in treasury_migrations, so re-running
// Migrate is a no-op for applied versions.
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
    amount_scaled   BIGINT NOT NULL DEFAULT 0,
    amount_currency TEXT NOT NULL DEFAULT '',
    reason          TEXT NOT NULL DEFAULT '',
    reference       TEXT NOT NULL DEFAULT '',
    owner_ref       TEXT NOT NULL DEFAULT '',
    actor           TEXT NOT NULL DEFAULT '',
    state           TEXT NOT NULL DEFAULT 'in_flight',
    consolidated_at TIMESTAMPTZ,
    consolidated_by TEXT NOT NULL DEFAULT '',
    reverted_at     TIMESTAMPTZ,
    revert_reason   TEXT NOT NULL DEFAULT '',
    reverted_by     TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_treasury_txns_period_state ON treasury_transactions (period, state);
CREATE INDEX IF NOT EXISTS idx_treasury_txns_period_origin ON treasury_transactions (period, origin);
CREATE INDEX IF NOT EXISTS idx_treasury_txns_state_created ON treasury_transactions (state, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_treasury_txns_owner_ref ON treasury_transactions (owner_ref, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_treasury_txns_reference ON treasury_transactions (reference) WHERE reference != '';
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
    consolidated_scaled  BIGINT NOT NULL DEFAULT 0,
    in_flight_scaled     BIGINT NOT NULL DEFAULT 0,
    simulated_scaled     BIGINT NOT NULL DEFAULT 0,
    current_period       TEXT NOT NULL DEFAULT '',
    last_consolidated_at TIMESTAMPTZ,
    periods_consolidated BIGINT NOT NULL DEFAULT 0,
    movement_count       BIGINT NOT NULL DEFAULT 0,
    created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
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
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`)
	if err != nil {
		return fmt.Errorf("treasury/postgres: create migrations table: %w", err)
	}

	for _, m := range migrations {
		var applied bool
		err := db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM treasury_migrations WHERE version = $1)`, m.Version,
		).Scan(&applied)
		if err != nil {
			return fmt.Errorf("treasury/postgres: check migration %s: %w", m.Version, err)
		}
		if applied {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("treasury/postgres: begin migration %s: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
			_ = tx.Rollback() //nolint:errcheck // rollback error is secondary to the migration error
			return fmt.Errorf("treasury/postgres: apply migration %s (%s): %w", m.Version, m.Name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO treasury_migrations (version, name) VALUES ($1, $2)`, m.Version, m.Name,
		); err != nil {
			_ = tx.Rollback() //nolint:errcheck // rollback error is secondary to the migration error
			return fmt.Errorf("treasury/postgres: record migration %s: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("treasury/postgres: commit migration %s: %w", m.Version, err)
		}
	}
	return nil
}
