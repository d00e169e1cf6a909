// Package sqlite provides a SQLite store implementation backed by the pure
// Go modernc.org/sqlite driver. Suited to embedded and single-node use;
// SQLite serializes writers, so the conditional updates behave like their
// PostgreSQL counterparts.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // database/sql driver

	treasury "github.com/xraph/treasury"
	"github.com/xraph/treasury/bank"
	"github.com/xraph/treasury/id"
	treasurystore "github.com/xraph/treasury/store"
	"github.com/xraph/treasury/transaction"
	"github.com/xraph/treasury/types"
)

// compile-time interface check
var _ treasurystore.Store = (*Store)(nil)

// Store implements store.Store using SQLite.
type Store struct {
	db       *sql.DB
	currency string
}

// New creates a new SQLite store. Use ":memory:" for an ephemeral database.
func New(path, currency string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("treasury/sqlite: open: %w", err)
	}

	// A single writer connection avoids SQLITE_BUSY under concurrent load.
	db.SetMaxOpenConns(1)

	return &Store{db: db, currency: currency}, nil
}

// DB returns the underlying database handle for direct access.
func (s *Store) DB() *sql.DB { return s.db }

// Migrate creates the required tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	return runMigrations(ctx, s.db)
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

const transactionColumns = `id, period, direction, origin, amount_scaled, amount_currency,
reason, reference, owner_ref, actor, state,
consolidated_at, consolidated_by, reverted_at, revert_reason, reverted_by,
created_at, updated_at`

const bankColumns = `key, currency, consolidated_scaled, in_flight_scaled, simulated_scaled,
current_period, last_consolidated_at, periods_consolidated, movement_count,
created_at, updated_at`

// ==================== Transaction log ====================

func (s *Store) AppendTransaction(ctx context.Context, t *transaction.Transaction) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO treasury_transactions (`+transactionColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID.String(), t.Period.String(), string(t.Direction), string(t.Origin),
		t.Amount.Amount, t.Amount.Currency,
		t.Reason, t.Reference, t.OwnerRef, t.Actor, string(t.State),
		t.ConsolidatedAt, t.ConsolidatedBy, t.RevertedAt, t.RevertReason, t.RevertedBy.String(),
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("treasury/sqlite: append transaction: %w", err)
	}
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, txnID id.TransactionID) (*transaction.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT `+transactionColumns+` FROM treasury_transactions WHERE id = ?`,
		txnID.String(),
	)
	t, err := scanTransaction(row)
	if err != nil {
		if isNoRows(err) {
			return nil, treasury.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("treasury/sqlite: get transaction: %w", err)
	}
	return t, nil
}

func (s *Store) ListTransactions(ctx context.Context, opts transaction.ListOpts) (*transaction.Page, error) {
	where, args := listWhere(opts)

	var total int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM treasury_transactions`+where, args...,
	).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("treasury/sqlite: count transactions: %w", err)
	}

	query := `SELECT ` + transactionColumns + ` FROM treasury_transactions` + where +
		` ORDER BY created_at DESC`
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		if opts.Limit == 0 {
			// SQLite requires LIMIT before OFFSET.
			query += " LIMIT -1"
		}
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("treasury/sqlite: list transactions: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	items := make([]*transaction.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("treasury/sqlite: scan transaction: %w", err)
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("treasury/sqlite: list transactions: %w", err)
	}

	return &transaction.Page{
		Items:  items,
		Total:  total,
		Limit:  opts.Limit,
		Offset: opts.Offset,
	}, nil
}

func listWhere(opts transaction.ListOpts) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		conds = append(conds, cond)
		args = append(args, arg)
	}

	if opts.Period != "" {
		add("period = ?", opts.Period.String())
	}
	if opts.Direction != "" {
		add("direction = ?", string(opts.Direction))
	}
	if opts.Origin != "" {
		add("origin = ?", string(opts.Origin))
	}
	if opts.State != "" {
		add("state = ?", string(opts.State))
	}
	if opts.OwnerRef != "" {
		add("owner_ref = ?", opts.OwnerRef)
	}
	if opts.Reference != "" {
		add("reference = ?", opts.Reference)
	}
	if !opts.CreatedFrom.IsZero() {
		add("created_at >= ?", opts.CreatedFrom)
	}
	if !opts.CreatedTo.IsZero() {
		add("created_at <= ?", opts.CreatedTo)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *Store) SummarizePeriod(ctx context.Context, period types.Period) (*transaction.Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT `+transactionColumns+` FROM treasury_transactions WHERE period = ?`,
		period.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("treasury/sqlite: summarize period: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	summary := transaction.NewSummary(period, s.currency)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("treasury/sqlite: scan transaction: %w", err)
		}
		summary.Accumulate(t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("treasury/sqlite: summarize period: %w", err)
	}
	return summary, nil
}

func (s *Store) MarkConsolidated(ctx context.Context, period types.Period, actor string, at time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
UPDATE treasury_transactions
SET state = ?, consolidated_at = ?, consolidated_by = ?, updated_at = ?
WHERE period = ? AND state = ?`,
		string(transaction.StateConsolidated), at, actor, at,
		period.String(), string(transaction.StateInFlight),
	)
	if err != nil {
		return 0, fmt.Errorf("treasury/sqlite: mark consolidated: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) MarkReverted(ctx context.Context, txnID, compensating id.TransactionID, reason, actor string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE treasury_transactions
SET state = ?, reverted_at = ?, revert_reason = ?, reverted_by = ?, actor = ?, updated_at = ?
WHERE id = ? AND state = ?`,
		string(transaction.StateReverted), at, reason, compensating.String(), actor, at,
		txnID.String(), string(transaction.StateInFlight),
	)
	if err != nil {
		return fmt.Errorf("treasury/sqlite: mark reverted: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return s.revertConflict(ctx, txnID)
	}
	return nil
}

// revertConflict distinguishes why a guarded revert update matched nothing.
func (s *Store) revertConflict(ctx context.Context, txnID id.TransactionID) error {
	t, err := s.GetTransaction(ctx, txnID)
	if err != nil {
		return err
	}
	switch t.State {
	case transaction.StateConsolidated:
		return treasury.ErrAlreadyConsolidated
	case transaction.StateReverted:
		return treasury.ErrAlreadyReverted
	}
	return treasury.ErrTransactionNotFound
}

// ==================== Bank aggregate ====================

func (s *Store) GetBank(ctx context.Context) (*bank.Bank, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT `+bankColumns+` FROM treasury_bank WHERE key = ?`,
		bank.SingletonKey,
	)
	b, err := scanBank(row)
	if err != nil {
		if isNoRows(err) {
			return nil, treasury.ErrBankNotFound
		}
		return nil, fmt.Errorf("treasury/sqlite: get bank: %w", err)
	}
	return b, nil
}

func (s *Store) AdjustInFlight(ctx context.Context, delta types.Money, period types.Period) (*bank.Bank, error) {
	t := now()
	row := s.db.QueryRowContext(ctx, `
INSERT INTO treasury_bank (key, currency, in_flight_scaled, current_period, movement_count, created_at, updated_at)
VALUES (?, ?, ?, ?, 1, ?, ?)
ON CONFLICT (key) DO UPDATE SET
    in_flight_scaled = in_flight_scaled + excluded.in_flight_scaled,
    movement_count   = movement_count + 1,
    current_period   = excluded.current_period,
    updated_at       = excluded.updated_at
RETURNING `+bankColumns,
		bank.SingletonKey, s.currency, delta.Amount, period.String(), t, t,
	)
	b, err := scanBank(row)
	if err != nil {
		return nil, fmt.Errorf("treasury/sqlite: adjust in-flight: %w", err)
	}
	return b, nil
}

func (s *Store) AdjustSimulated(ctx context.Context, delta types.Money) (*bank.Bank, error) {
	t := now()
	row := s.db.QueryRowContext(ctx, `
INSERT INTO treasury_bank (key, currency, simulated_scaled, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (key) DO UPDATE SET
    simulated_scaled = simulated_scaled + excluded.simulated_scaled,
    updated_at       = excluded.updated_at
RETURNING `+bankColumns,
		bank.SingletonKey, s.currency, delta.Amount, t, t,
	)
	b, err := scanBank(row)
	if err != nil {
		return nil, fmt.Errorf("treasury/sqlite: adjust simulated: %w", err)
	}
	return b, nil
}

func (s *Store) ResetSimulated(ctx context.Context) (*bank.Bank, error) {
	// Read-then-zero inside a transaction; SQLite's single writer makes
	// this equivalent to one conditional statement.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("treasury/sqlite: reset simulated: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	row := tx.QueryRowContext(ctx, `
SELECT `+bankColumns+` FROM treasury_bank WHERE key = ?`,
		bank.SingletonKey,
	)
	b, err := scanBank(row)
	if err != nil {
		if isNoRows(err) {
			// No row means nothing was ever simulated.
			return bank.ZeroBank(s.currency), nil
		}
		return nil, fmt.Errorf("treasury/sqlite: reset simulated: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
UPDATE treasury_bank SET simulated_scaled = 0, updated_at = ? WHERE key = ?`,
		now(), bank.SingletonKey,
	); err != nil {
		return nil, fmt.Errorf("treasury/sqlite: reset simulated: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("treasury/sqlite: reset simulated: %w", err)
	}
	return b, nil
}

func (s *Store) ConsolidateBank(ctx context.Context, period types.Period, at time.Time) (*bank.Bank, error) {
	row := s.db.QueryRowContext(ctx, `
UPDATE treasury_bank
SET consolidated_scaled  = consolidated_scaled + in_flight_scaled,
    in_flight_scaled     = 0,
    periods_consolidated = periods_consolidated + 1,
    last_consolidated_at = ?,
    current_period       = ?,
    updated_at           = ?
WHERE key = ?
RETURNING `+bankColumns,
		at, period.Next().String(), at, bank.SingletonKey,
	)
	b, err := scanBank(row)
	if err != nil {
		if isNoRows(err) {
			return nil, treasury.ErrBankNotFound
		}
		return nil, fmt.Errorf("treasury/sqlite: consolidate bank: %w", err)
	}
	return b, nil
}

// ==================== Helpers ====================

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(sc scanner) (*transaction.Transaction, error) {
	var (
		txnID, period, direction, origin string
		amountScaled                     int64
		amountCurrency                   string
		reason, reference, ownerRef      string
		actor, state                     string
		consolidatedAt, revertedAt       sql.NullTime
		consolidatedBy, revertReason     string
		revertedBy                       string
		createdAt, updatedAt             time.Time
	)

	err := sc.Scan(
		&txnID, &period, &direction, &origin, &amountScaled, &amountCurrency,
		&reason, &reference, &ownerRef, &actor, &state,
		&consolidatedAt, &consolidatedBy, &revertedAt, &revertReason, &revertedBy,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	parsedID, err := id.ParseTransactionID(txnID)
	if err != nil {
		return nil, err
	}
	revertedByID := id.Nil
	if revertedBy != "" {
		revertedByID, err = id.ParseTransactionID(revertedBy)
		if err != nil {
			return nil, err
		}
	}

	t := &transaction.Transaction{
		Entity: types.Entity{
			CreatedAt: createdAt,
			UpdatedAt: updatedAt,
		},
		ID:             parsedID,
		Period:         types.Period(period),
		Direction:      transaction.Direction(direction),
		Origin:         transaction.Origin(origin),
		Amount:         types.FromStored(amountScaled, amountCurrency),
		Reason:         reason,
		Reference:      reference,
		OwnerRef:       ownerRef,
		Actor:          actor,
		State:          transaction.State(state),
		ConsolidatedBy: consolidatedBy,
		RevertReason:   revertReason,
		RevertedBy:     revertedByID,
	}
	if consolidatedAt.Valid {
		t.ConsolidatedAt = &consolidatedAt.Time
	}
	if revertedAt.Valid {
		t.RevertedAt = &revertedAt.Time
	}
	return t, nil
}

func scanBank(sc scanner) (*bank.Bank, error) {
	var (
		key, currency                      string
		consolidatedScaled, inFlightScaled int64
		simulatedScaled                    int64
		currentPeriod                      string
		lastConsolidatedAt                 sql.NullTime
		periodsConsolidated, movementCount int64
		createdAt, updatedAt               time.Time
	)

	err := sc.Scan(
		&key, &currency, &consolidatedScaled, &inFlightScaled, &simulatedScaled,
		&currentPeriod, &lastConsolidatedAt, &periodsConsolidated, &movementCount,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	b := &bank.Bank{
		Entity: types.Entity{
			CreatedAt: createdAt,
			UpdatedAt: updatedAt,
		},
		Key:                 key,
		Currency:            currency,
		Consolidated:        types.FromStored(consolidatedScaled, currency),
		InFlight:            types.FromStored(inFlightScaled, currency),
		Simulated:           types.FromStored(simulatedScaled, currency),
		CurrentPeriod:       types.Period(currentPeriod),
		PeriodsConsolidated: periodsConsolidated,
		MovementCount:       movementCount,
	}
	if lastConsolidatedAt.Valid {
		b.LastConsolidatedAt = &lastConsolidatedAt.Time
	}
	return b, nil
}

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks if an error wraps sql.ErrNoRows.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
