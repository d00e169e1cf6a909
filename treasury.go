package treasury

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/treasury/bank"
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/plugin"
	"github.com/xraph/treasury/report"
	"github.com/xraph/treasury/store"
	"github.com/xraph/treasury/transaction"
	"github.com/xraph/treasury/types"
)

// Treasury is the main ledger engine. It owns the append-only transaction
// log and the singleton bank aggregate, and is the only writer of either.
type Treasury struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger

	// Configuration
	currency  string
	tolerance decimal.Decimal
	clock     func() time.Time
}

// New creates a new Treasury instance.
func New(s store.Store, opts ...Option) *Treasury {
	t := &Treasury{
		store:     s,
		plugins:   plugin.NewRegistry(),
		logger:    slog.Default(),
		currency:  "eur",
		tolerance: decimal.NewFromInt(1),
		clock:     time.Now,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Option configures a Treasury instance.
type Option func(*Treasury)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Treasury) {
		t.logger = logger
		t.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(t *Treasury) {
		_ = t.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithCurrency sets the ledger currency. Every movement and balance uses it.
func WithCurrency(currency string) Option {
	return func(t *Treasury) {
		t.currency = currency
	}
}

// WithComparisonTolerance sets the band (in major units) within which the
// multi-period trend counts as flat.
func WithComparisonTolerance(tolerance decimal.Decimal) Option {
	return func(t *Treasury) {
		t.tolerance = tolerance
	}
}

// WithClock overrides the time source. Used by tests and by backfill tooling.
func WithClock(clock func() time.Time) Option {
	return func(t *Treasury) {
		t.clock = clock
	}
}

// Start migrates the store and initializes plugins.
func (t *Treasury) Start(ctx context.Context) error {
	if err := t.store.Migrate(ctx); err != nil {
		return err
	}

	t.plugins.EmitInit(ctx, t)

	t.logger.Info("treasury started",
		"currency", t.currency,
		"plugins", t.plugins.Count(),
	)

	return nil
}

// Stop shuts down the Treasury.
func (t *Treasury) Stop() error {
	ctx := context.Background()
	t.plugins.EmitShutdown(ctx)

	return t.store.Close()
}

// ──────────────────────────────────────────────────
// Movements
// ──────────────────────────────────────────────────

// ApplyInput describes one movement to record.
type ApplyInput struct {
	Direction transaction.Direction
	Origin    transaction.Origin
	Amount    types.Money // strictly positive magnitude
	Reason    string
	Reference string
	OwnerRef  string
	Actor     string

	// Period overrides the period of the movement. Zero means the period
	// containing now.
	Period types.Period
}

// ApplyMovement validates and records one money movement: the fact is
// appended to the log in state in_flight, then the bank's in-flight balance
// absorbs the signed amount. Returns the written transaction and a snapshot
// of the aggregate after the adjustment.
func (t *Treasury) ApplyMovement(ctx context.Context, in ApplyInput) (*transaction.Transaction, *bank.Snapshot, error) {
	txn, b, err := t.applyMovement(ctx, in)
	if err != nil {
		return nil, nil, err
	}

	snap := bank.SnapshotOf(b, t.clock())
	t.plugins.EmitMovementApplied(ctx, txn, snap)

	return txn, snap, nil
}

// applyMovement is the shared write path for movements, reused by reversal
// and simulation commit so every fact enters the ledger identically.
func (t *Treasury) applyMovement(ctx context.Context, in ApplyInput) (*transaction.Transaction, *bank.Bank, error) {
	if !in.Direction.Valid() {
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidDirection, in.Direction)
	}
	if !in.Origin.Valid() {
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidOrigin, in.Origin)
	}
	if !in.Amount.IsPositive() {
		return nil, nil, fmt.Errorf("%w: got %s", ErrInvalidAmount, in.Amount.FormatMajor())
	}
	if in.Amount.Currency != t.currency {
		return nil, nil, fmt.Errorf("%w: ledger is %q, got %q", ErrCurrencyMismatch, t.currency, in.Amount.Currency)
	}
	if in.Reason == "" {
		return nil, nil, ValidationError{Field: "reason", Message: "must not be empty"}
	}

	period := in.Period
	if period == "" {
		period = types.PeriodOf(t.clock())
	} else if _, err := types.ParsePeriod(string(period)); err != nil {
		return nil, nil, err
	}

	txn := &transaction.Transaction{
		Entity:    types.NewEntity(),
		ID:        id.NewTransactionID(),
		Period:    period,
		Direction: in.Direction,
		Origin:    in.Origin,
		Amount:    in.Amount,
		Reason:    in.Reason,
		Reference: in.Reference,
		OwnerRef:  in.OwnerRef,
		Actor:     in.Actor,
		State:     transaction.StateInFlight,
	}

	if err := t.store.AppendTransaction(ctx, txn); err != nil {
		return nil, nil, err
	}

	// The log write and the aggregate adjustment are two steps. A crash
	// between them leaves the fact in the log and the aggregate behind;
	// Reconcile detects exactly that gap.
	b, err := t.store.AdjustInFlight(ctx, txn.Signed(), period)
	if err != nil {
		return nil, nil, fmt.Errorf("movement %s logged but aggregate not adjusted: %w", txn.ID, err)
	}

	t.logger.Info("movement applied",
		"transaction_id", txn.ID.String(),
		"period", period.String(),
		"direction", txn.Direction,
		"origin", txn.Origin,
		"amount", txn.Amount.String(),
		"in_flight", b.InFlight.String(),
	)

	return txn, b, nil
}

// GetTransaction retrieves a transaction by ID.
func (t *Treasury) GetTransaction(ctx context.Context, txnID id.TransactionID) (*transaction.Transaction, error) {
	return t.store.GetTransaction(ctx, txnID)
}

// ListTransactions returns a filtered, paginated page of the log,
// newest first.
func (t *Treasury) ListTransactions(ctx context.Context, opts transaction.ListOpts) (*transaction.Page, error) {
	return t.store.ListTransactions(ctx, opts)
}

// ──────────────────────────────────────────────────
// Consolidation
// ──────────────────────────────────────────────────

// ConsolidatePeriod closes an accounting period: the bank's in-flight
// balance moves into the consolidated balance, and every in-flight
// transaction of the period transitions to consolidated. Re-running for an
// already-closed period fails with ErrNothingToConsolidate.
func (t *Treasury) ConsolidatePeriod(ctx context.Context, periodLabel, actor string) (*bank.Snapshot, error) {
	period, err := types.ParsePeriod(periodLabel)
	if err != nil {
		return nil, err
	}

	summary, err := t.store.SummarizePeriod(ctx, period)
	if err != nil {
		return nil, err
	}
	if summary.CountInFlight == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNothingToConsolidate, period)
	}

	current, err := t.store.GetBank(ctx)
	if err != nil {
		return nil, err
	}
	if current.InFlight.IsZero() {
		t.logger.Warn("consolidating while the in-flight balance is zero",
			"period", period.String(),
			"transactions", summary.CountInFlight,
		)
	}
	if current.CurrentPeriod != "" && period.Before(current.CurrentPeriod) {
		t.logger.Warn("consolidating a period older than the aggregate's current period",
			"period", period.String(),
			"current_period", current.CurrentPeriod.String(),
		)
	}

	now := t.clock()

	b, err := t.store.ConsolidateBank(ctx, period, now)
	if err != nil {
		return nil, err
	}

	// The transfer moves the whole in-flight balance, which differs from the
	// period's net of live facts when the period holds an open reversal pair.
	moved := b.Consolidated.Subtract(current.Consolidated)

	// The state transition is idempotent: if the process dies here, a re-run
	// finds the remaining in-flight rows and moves zero on the aggregate.
	transitioned, err := t.store.MarkConsolidated(ctx, period, actor, now)
	if err != nil {
		return nil, fmt.Errorf("bank consolidated but transactions not transitioned for %s: %w", period, err)
	}

	t.logger.Info("period consolidated",
		"period", period.String(),
		"moved", moved.String(),
		"transactions", transitioned,
		"actor", actor,
		"consolidated", b.Consolidated.String(),
	)

	snap := bank.SnapshotOf(b, now)
	t.plugins.EmitPeriodConsolidated(ctx, period, moved, transitioned)

	return snap, nil
}

// ──────────────────────────────────────────────────
// Reversal
// ──────────────────────────────────────────────────

// RevertTransaction cancels a transaction by recording a compensating
// movement with the opposite direction in the original period, then linking
// the original to it. The log never loses the original fact.
func (t *Treasury) RevertTransaction(ctx context.Context, txnID id.TransactionID, reason, actor string) (*transaction.Transaction, error) {
	original, err := t.store.GetTransaction(ctx, txnID)
	if err != nil {
		return nil, err
	}

	switch original.State {
	case transaction.StateConsolidated:
		return nil, fmt.Errorf("%w: %s", ErrAlreadyConsolidated, txnID)
	case transaction.StateReverted:
		return nil, fmt.Errorf("%w: %s", ErrAlreadyReverted, txnID)
	}

	if reason == "" {
		reason = "reversal of " + txnID.String()
	}

	// The compensating movement lands in the original period so the period's
	// signed sum nets to zero for the pair.
	compensating, b, err := t.applyMovement(ctx, ApplyInput{
		Direction: original.Direction.Opposite(),
		Origin:    transaction.OriginManualAdjustment,
		Amount:    original.Amount,
		Reason:    reason,
		Reference: original.ID.String(),
		OwnerRef:  original.OwnerRef,
		Actor:     actor,
		Period:    original.Period,
	})
	if err != nil {
		return nil, err
	}

	now := t.clock()
	if err := t.store.MarkReverted(ctx, original.ID, compensating.ID, reason, actor, now); err != nil {
		return nil, fmt.Errorf("compensating movement %s applied but original not marked: %w", compensating.ID, err)
	}

	t.logger.Info("transaction reverted",
		"transaction_id", original.ID.String(),
		"compensating_id", compensating.ID.String(),
		"period", original.Period.String(),
		"amount", original.Amount.String(),
		"actor", actor,
		"in_flight", b.InFlight.String(),
	)

	original.State = transaction.StateReverted
	original.RevertedAt = &now
	original.RevertReason = reason
	original.RevertedBy = compensating.ID

	t.plugins.EmitTransactionReverted(ctx, original, compensating)

	return compensating, nil
}

// ──────────────────────────────────────────────────
// Balances and reports
// ──────────────────────────────────────────────────

// Snapshot returns the current formatted view of the bank aggregate.
// Before the first movement it returns an all-zero snapshot.
func (t *Treasury) Snapshot(ctx context.Context) (*bank.Snapshot, error) {
	b, err := t.store.GetBank(ctx)
	if err != nil {
		if errors.Is(err, ErrBankNotFound) {
			return bank.SnapshotOf(bank.ZeroBank(t.currency), t.clock()), nil
		}
		return nil, err
	}
	return bank.SnapshotOf(b, t.clock()), nil
}

// PeriodSummary aggregates the log for one period.
func (t *Treasury) PeriodSummary(ctx context.Context, periodLabel string) (*transaction.Summary, error) {
	period, err := types.ParsePeriod(periodLabel)
	if err != nil {
		return nil, err
	}
	return t.store.SummarizePeriod(ctx, period)
}

// CashFlow builds the cash-flow statement of one period.
func (t *Treasury) CashFlow(ctx context.Context, periodLabel string) (*report.CashFlow, error) {
	summary, err := t.PeriodSummary(ctx, periodLabel)
	if err != nil {
		return nil, err
	}
	return report.BuildCashFlow(summary), nil
}

// Compare builds the multi-period comparison across an inclusive period
// range, oldest first.
func (t *Treasury) Compare(ctx context.Context, fromLabel, toLabel string) (*report.Comparison, error) {
	from, err := types.ParsePeriod(fromLabel)
	if err != nil {
		return nil, err
	}
	to, err := types.ParsePeriod(toLabel)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		from, to = to, from
	}

	var periods []types.Period
	for p := from; !to.Before(p); p = p.Next() {
		periods = append(periods, p)
	}
	return t.compare(ctx, periods)
}

// ComparePeriods builds the comparison across an explicit list of periods,
// in the order given. Periods need not be contiguous, so the same month can
// be compared across years.
func (t *Treasury) ComparePeriods(ctx context.Context, periodLabels []string) (*report.Comparison, error) {
	periods := make([]types.Period, 0, len(periodLabels))
	for _, label := range periodLabels {
		p, err := types.ParsePeriod(label)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return t.compare(ctx, periods)
}

func (t *Treasury) compare(ctx context.Context, periods []types.Period) (*report.Comparison, error) {
	summaries := make([]*transaction.Summary, 0, len(periods))
	for _, p := range periods {
		s, err := t.store.SummarizePeriod(ctx, p)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return report.BuildComparison(summaries, t.tolerance), nil
}

// ──────────────────────────────────────────────────
// Simulation
// ──────────────────────────────────────────────────

// SimulateCost adds a projected cost to the simulation balance. Nothing is
// written to the log; the projection only shifts the simulated figure. The
// reason is informational and survives only in logs and plugin payloads.
func (t *Treasury) SimulateCost(ctx context.Context, amount types.Money, reason string) (*bank.Snapshot, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidAmount, amount.FormatMajor())
	}
	if amount.Currency != t.currency {
		return nil, fmt.Errorf("%w: ledger is %q, got %q", ErrCurrencyMismatch, t.currency, amount.Currency)
	}

	b, err := t.store.AdjustSimulated(ctx, amount)
	if err != nil {
		return nil, err
	}

	t.logger.Info("cost simulated",
		"amount", amount.String(),
		"reason", reason,
		"simulated", b.Simulated.String(),
	)

	snap := bank.SnapshotOf(b, t.clock())
	t.plugins.EmitSimulationRecorded(ctx, amount, snap)

	return snap, nil
}

// CommitSimulatedCosts converts the accumulated simulation balance into one
// real outflow movement and zeroes the simulation. Fails with
// ErrNothingSimulated when there is nothing to commit.
func (t *Treasury) CommitSimulatedCosts(ctx context.Context, actor string) (*transaction.Transaction, *bank.Snapshot, error) {
	before, err := t.store.ResetSimulated(ctx)
	if err != nil {
		return nil, nil, err
	}
	if before.Simulated.IsZero() {
		return nil, nil, ErrNothingSimulated
	}

	txn, snap, err := t.ApplyMovement(ctx, ApplyInput{
		Direction: transaction.DirectionOutflow,
		Origin:    transaction.OriginCostConsolidation,
		Amount:    before.Simulated.Abs(),
		Reason:    "consolidation of simulated costs",
		Actor:     actor,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("simulation reset but movement not applied (%s lost from projection): %w",
			before.Simulated.String(), err)
	}

	return txn, snap, nil
}

// DiscardSimulatedCosts zeroes the simulation balance without recording
// anything.
func (t *Treasury) DiscardSimulatedCosts(ctx context.Context) (*bank.Snapshot, error) {
	before, err := t.store.ResetSimulated(ctx)
	if err != nil {
		return nil, err
	}
	if before.Simulated.IsZero() {
		return nil, ErrNothingSimulated
	}

	t.logger.Info("simulated costs discarded",
		"amount", before.Simulated.String(),
	)

	b, err := t.store.GetBank(ctx)
	if err != nil {
		return nil, err
	}
	return bank.SnapshotOf(b, t.clock()), nil
}

// ──────────────────────────────────────────────────
// Reconciliation
// ──────────────────────────────────────────────────

// ReconcileResult reports whether the bank's in-flight balance matches the
// signed sum of the open facts in the log.
type ReconcileResult struct {
	Aggregate    types.Money `json:"aggregate"`
	Log          types.Money `json:"log"`
	Drift        types.Money `json:"drift"` // aggregate - log
	Consistent   bool        `json:"consistent"`
	Transactions int64       `json:"transactions"`
	CheckedAt    time.Time   `json:"checked_at"`
}

// reconcilePageSize bounds how many transactions one reconciliation page
// pulls from the store.
const reconcilePageSize = 500

// Reconcile sums the open facts of the log and compares the total against
// the bank aggregate's in-flight balance: every in-flight transaction, plus
// every reverted transaction whose compensating fact has not yet been swept
// by a consolidation. Drift means a movement crashed between the log write
// and the aggregate adjustment.
func (t *Treasury) Reconcile(ctx context.Context) (*ReconcileResult, error) {
	b, err := t.store.GetBank(ctx)
	if err != nil {
		if errors.Is(err, ErrBankNotFound) {
			b = bank.ZeroBank(t.currency)
		} else {
			return nil, err
		}
	}

	logSum := types.Zero(t.currency)
	var counted int64

	inFlight := make(map[id.TransactionID]struct{})
	opts := transaction.ListOpts{
		State: transaction.StateInFlight,
		Limit: reconcilePageSize,
	}
	for {
		page, err := t.store.ListTransactions(ctx, opts)
		if err != nil {
			return nil, err
		}
		for _, txn := range page.Items {
			logSum = logSum.Add(txn.Signed())
			inFlight[txn.ID] = struct{}{}
			counted++
		}
		if len(page.Items) < opts.Limit {
			break
		}
		opts.Offset += opts.Limit
	}

	// A reverted fact keeps its effect on the aggregate until a consolidation
	// sweeps its compensating fact. While the pair is open, both legs belong
	// in the log sum.
	reverted := make(map[id.TransactionID]*transaction.Transaction)
	opts = transaction.ListOpts{
		State: transaction.StateReverted,
		Limit: reconcilePageSize,
	}
	for {
		page, err := t.store.ListTransactions(ctx, opts)
		if err != nil {
			return nil, err
		}
		for _, txn := range page.Items {
			reverted[txn.ID] = txn
		}
		if len(page.Items) < opts.Limit {
			break
		}
		opts.Offset += opts.Limit
	}
	for _, txn := range reverted {
		// Reversal chains defer to the newest compensating fact.
		next := txn.RevertedBy
		for hops := 0; hops <= len(reverted); hops++ {
			if _, open := inFlight[next]; open {
				logSum = logSum.Add(txn.Signed())
				counted++
				break
			}
			r, ok := reverted[next]
			if !ok {
				break
			}
			next = r.RevertedBy
		}
	}

	drift := b.InFlight.Subtract(logSum)
	result := &ReconcileResult{
		Aggregate:    b.InFlight,
		Log:          logSum,
		Drift:        drift,
		Consistent:   drift.IsZero(),
		Transactions: counted,
		CheckedAt:    t.clock().UTC(),
	}

	if !result.Consistent {
		t.logger.Warn("reconciliation drift detected",
			"aggregate", b.InFlight.String(),
			"log", logSum.String(),
			"drift", drift.String(),
			"transactions", counted,
		)
		t.plugins.EmitDriftDetected(ctx, b.InFlight, logSum)
	}

	return result, nil
}
