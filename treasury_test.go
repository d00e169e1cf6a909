package treasury_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/treasury"
	"github.com/xraph/treasury/report"
	"github.com/xraph/treasury/store/memory"
	"github.com/xraph/treasury/transaction"
	"github.com/xraph/treasury/types"
)

func newEngine(t *testing.T, opts ...treasury.Option) *treasury.Treasury {
	t.Helper()

	base := []treasury.Option{
		treasury.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		treasury.WithClock(func() time.Time {
			return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
		}),
	}
	return treasury.New(memory.New("eur"), append(base, opts...)...)
}

func eur(t *testing.T, s string) types.Money {
	t.Helper()
	return types.MustParseMoney(s, "eur")
}

func mustApply(t *testing.T, eng *treasury.Treasury, in treasury.ApplyInput) *transaction.Transaction {
	t.Helper()
	txn, _, err := eng.ApplyMovement(context.Background(), in)
	if err != nil {
		t.Fatalf("ApplyMovement: %v", err)
	}
	return txn
}

func TestApplyMovement(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)

	txn, snap, err := eng.ApplyMovement(ctx, treasury.ApplyInput{
		Direction: transaction.DirectionInflow,
		Origin:    transaction.OriginModelEarnings,
		Amount:    eur(t, "1960"),
		Reason:    "march earnings",
		Actor:     "importer",
	})
	if err != nil {
		t.Fatalf("ApplyMovement: %v", err)
	}

	if txn.State != transaction.StateInFlight {
		t.Errorf("state: got %s, want in_flight", txn.State)
	}
	if txn.Period != "2026-03" {
		t.Errorf("period defaulted to %s, want 2026-03", txn.Period)
	}
	if !snap.InFlight.Equal(decimal.RequireFromString("1960")) {
		t.Errorf("in-flight: got %s, want 1960", snap.InFlight)
	}
	if snap.InFlightDisplay != "€1960.00" {
		t.Errorf("in-flight display: got %s", snap.InFlightDisplay)
	}

	// An outflow shrinks the balance.
	_, snap, err = eng.ApplyMovement(ctx, treasury.ApplyInput{
		Direction: transaction.DirectionOutflow,
		Origin:    transaction.OriginPayroll,
		Amount:    eur(t, "800"),
		Reason:    "march payroll",
		Actor:     "payroll-bot",
	})
	if err != nil {
		t.Fatalf("ApplyMovement: %v", err)
	}
	if !snap.InFlight.Equal(decimal.RequireFromString("1160")) {
		t.Errorf("in-flight after outflow: got %s, want 1160", snap.InFlight)
	}
}

func TestApplyMovementValidation(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)

	valid := treasury.ApplyInput{
		Direction: transaction.DirectionInflow,
		Origin:    transaction.OriginModelEarnings,
		Amount:    eur(t, "10"),
		Reason:    "ok",
		Actor:     "tester",
	}

	tests := []struct {
		name    string
		mutate  func(in *treasury.ApplyInput)
		wantErr error
	}{
		{"bad direction", func(in *treasury.ApplyInput) { in.Direction = "sideways" }, treasury.ErrInvalidDirection},
		{"bad origin", func(in *treasury.ApplyInput) { in.Origin = "lottery" }, treasury.ErrInvalidOrigin},
		{"zero amount", func(in *treasury.ApplyInput) { in.Amount = types.Zero("eur") }, treasury.ErrInvalidAmount},
		{"negative amount", func(in *treasury.ApplyInput) { in.Amount = eur(t, "-5") }, treasury.ErrInvalidAmount},
		{"bad period", func(in *treasury.ApplyInput) { in.Period = "march-2026" }, treasury.ErrInvalidPeriod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, _, err := eng.ApplyMovement(ctx, in)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("wrong currency", func(t *testing.T) {
		in := valid
		in.Amount = types.MustParseMoney("10", "usd")
		_, _, err := eng.ApplyMovement(ctx, in)
		if !errors.Is(err, treasury.ErrCurrencyMismatch) {
			t.Errorf("got %v, want ErrCurrencyMismatch", err)
		}
	})

	t.Run("empty reason", func(t *testing.T) {
		in := valid
		in.Reason = ""
		_, _, err := eng.ApplyMovement(ctx, in)
		var verr treasury.ValidationError
		if !errors.As(err, &verr) || verr.Field != "reason" {
			t.Errorf("got %v, want ValidationError on reason", err)
		}
	})

	// Nothing must have landed in the log or the aggregate.
	res, err := eng.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if res.Transactions != 0 || !res.Consistent {
		t.Errorf("rejected inputs leaked into the ledger: %+v", res)
	}
}

func TestSnapshotBeforeFirstMovement(t *testing.T) {
	eng := newEngine(t)

	snap, err := eng.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if !snap.Consolidated.IsZero() || !snap.InFlight.IsZero() || !snap.Simulated.IsZero() {
		t.Errorf("expected all-zero snapshot, got %+v", snap)
	}
	if snap.TotalDisplay != "€0.00" {
		t.Errorf("total display: got %s", snap.TotalDisplay)
	}
}

// A month of activity: earnings come in, payroll and a subscription go out,
// then the period closes and the balance settles.
func TestMonthlyConsolidation(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)

	mustApply(t, eng, treasury.ApplyInput{
		Direction: transaction.DirectionInflow,
		Origin:    transaction.OriginModelEarnings,
		Amount:    eur(t, "1960"),
		Reason:    "march earnings",
		Actor:     "importer",
	})
	mustApply(t, eng, treasury.ApplyInput{
		Direction: transaction.DirectionOutflow,
		Origin:    transaction.OriginPayroll,
		Amount:    eur(t, "800"),
		Reason:    "march payroll",
		Actor:     "payroll-bot",
	})
	mustApply(t, eng, treasury.ApplyInput{
		Direction: transaction.DirectionOutflow,
		Origin:    transaction.OriginFixedCost,
		Amount:    eur(t, "49"),
		Reason:    "hosting subscription",
		Actor:     "billing",
	})

	snap, err := eng.ConsolidatePeriod(ctx, "2026-03", "controller")
	if err != nil {
		t.Fatalf("ConsolidatePeriod: %v", err)
	}

	if !snap.Consolidated.Equal(decimal.RequireFromString("1111")) {
		t.Errorf("consolidated: got %s, want 1111", snap.Consolidated)
	}
	if !snap.InFlight.IsZero() {
		t.Errorf("in-flight after close: got %s, want 0", snap.InFlight)
	}
	if snap.CurrentPeriod != "2026-04" {
		t.Errorf("current period: got %s, want 2026-04", snap.CurrentPeriod)
	}

	// Every March transaction is now consolidated.
	page, err := eng.ListTransactions(ctx, transaction.ListOpts{Period: "2026-03"})
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	for _, txn := range page.Items {
		if txn.State != transaction.StateConsolidated {
			t.Errorf("transaction %s: got state %s, want consolidated", txn.ID, txn.State)
		}
	}

	// Closing the same period again has nothing to move.
	if _, err := eng.ConsolidatePeriod(ctx, "2026-03", "controller"); !errors.Is(err, treasury.ErrNothingToConsolidate) {
		t.Errorf("re-close: got %v, want ErrNothingToConsolidate", err)
	}

	// An empty period also has nothing to move.
	if _, err := eng.ConsolidatePeriod(ctx, "2026-07", "controller"); !errors.Is(err, treasury.ErrNothingToConsolidate) {
		t.Errorf("empty period: got %v, want ErrNothingToConsolidate", err)
	}

	if _, err := eng.ConsolidatePeriod(ctx, "not-a-period", "controller"); !errors.Is(err, treasury.ErrInvalidPeriod) {
		t.Errorf("bad label: got %v, want ErrInvalidPeriod", err)
	}
}

// A wrong payout gets reverted: the compensating inflow lands in the same
// period, the pair nets to zero, and the original carries the link.
func TestRevertTransaction(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)

	payout := mustApply(t, eng, treasury.ApplyInput{
		Direction: transaction.DirectionOutflow,
		Origin:    transaction.OriginPayroll,
		Amount:    eur(t, "800"),
		Reason:    "march payroll",
		OwnerRef:  "employee-7",
		Actor:     "payroll-bot",
	})

	compensating, err := eng.RevertTransaction(ctx, payout.ID, "duplicate payout", "admin")
	if err != nil {
		t.Fatalf("RevertTransaction: %v", err)
	}

	if compensating.Direction != transaction.DirectionInflow {
		t.Errorf("compensating direction: got %s, want inflow", compensating.Direction)
	}
	if compensating.Origin != transaction.OriginManualAdjustment {
		t.Errorf("compensating origin: got %s, want manual_adjustment", compensating.Origin)
	}
	if compensating.Period != payout.Period {
		t.Errorf("compensating period: got %s, want %s", compensating.Period, payout.Period)
	}
	if compensating.Reference != payout.ID.String() {
		t.Errorf("compensating reference: got %s, want %s", compensating.Reference, payout.ID)
	}
	if compensating.OwnerRef != "employee-7" {
		t.Errorf("compensating owner ref: got %s", compensating.OwnerRef)
	}

	original, err := eng.GetTransaction(ctx, payout.ID)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if original.State != transaction.StateReverted {
		t.Errorf("original state: got %s, want reverted", original.State)
	}
	if original.RevertedBy.String() != compensating.ID.String() {
		t.Errorf("RevertedBy: got %s, want %s", original.RevertedBy, compensating.ID)
	}
	if original.RevertReason != "duplicate payout" {
		t.Errorf("RevertReason: got %q", original.RevertReason)
	}

	// The pair nets to zero on the aggregate.
	snap, err := eng.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if !snap.InFlight.IsZero() {
		t.Errorf("in-flight after revert: got %s, want 0", snap.InFlight)
	}

	// Reverting twice fails.
	if _, err := eng.RevertTransaction(ctx, payout.ID, "", "admin"); !errors.Is(err, treasury.ErrAlreadyReverted) {
		t.Errorf("double revert: got %v, want ErrAlreadyReverted", err)
	}
}

// consolidationCapture records what the period-consolidated hook receives.
type consolidationCapture struct {
	moved        types.Money
	transitioned int64
}

func (c *consolidationCapture) Name() string { return "consolidation-capture" }

func (c *consolidationCapture) OnPeriodConsolidated(_ context.Context, _ types.Period, moved types.Money, transitioned int64) error {
	c.moved = moved
	c.transitioned = transitioned
	return nil
}

// Closing a period that contains a reversal moves the aggregate's full
// in-flight balance, with both legs of the pair inside it.
func TestConsolidationMovedAmountAfterReversal(t *testing.T) {
	ctx := context.Background()
	captured := &consolidationCapture{}
	eng := newEngine(t, treasury.WithPlugin(captured))

	mustApply(t, eng, treasury.ApplyInput{
		Direction: transaction.DirectionInflow,
		Origin:    transaction.OriginModelEarnings,
		Amount:    eur(t, "1960"),
		Reason:    "march earnings",
		Actor:     "importer",
	})
	payout := mustApply(t, eng, treasury.ApplyInput{
		Direction: transaction.DirectionOutflow,
		Origin:    transaction.OriginPayroll,
		Amount:    eur(t, "500"),
		Reason:    "march payroll",
		Actor:     "payroll-bot",
	})
	if _, err := eng.RevertTransaction(ctx, payout.ID, "wrong amount", "admin"); err != nil {
		t.Fatalf("RevertTransaction: %v", err)
	}

	snap, err := eng.ConsolidatePeriod(ctx, "2026-03", "controller")
	if err != nil {
		t.Fatalf("ConsolidatePeriod: %v", err)
	}
	if !snap.Consolidated.Equal(decimal.RequireFromString("1960")) {
		t.Errorf("consolidated: got %s, want 1960", snap.Consolidated)
	}
	if !captured.moved.Equal(eur(t, "1960")) {
		t.Errorf("moved: got %s, want 1960", captured.moved.FormatMajor())
	}
	// The earnings and the compensating inflow transition; the reverted
	// payout keeps its state.
	if captured.transitioned != 2 {
		t.Errorf("transitioned: got %d, want 2", captured.transitioned)
	}
}

func TestRevertConsolidatedTransaction(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)

	txn := mustApply(t, eng, treasury.ApplyInput{
		Direction: transaction.DirectionInflow,
		Origin:    transaction.OriginModelEarnings,
		Amount:    eur(t, "100"),
		Reason:    "earnings",
		Actor:     "importer",
	})
	if _, err := eng.ConsolidatePeriod(ctx, "2026-03", "controller"); err != nil {
		t.Fatalf("ConsolidatePeriod: %v", err)
	}

	if _, err := eng.RevertTransaction(ctx, txn.ID, "too late", "admin"); !errors.Is(err, treasury.ErrAlreadyConsolidated) {
		t.Errorf("got %v, want ErrAlreadyConsolidated", err)
	}
}

func TestRevertDefaultReason(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)

	txn := mustApply(t, eng, treasury.ApplyInput{
		Direction: transaction.DirectionOutflow,
		Origin:    transaction.OriginFixedCost,
		Amount:    eur(t, "49"),
		Reason:    "subscription",
		Actor:     "billing",
	})

	compensating, err := eng.RevertTransaction(ctx, txn.ID, "", "admin")
	if err != nil {
		t.Fatalf("RevertTransaction: %v", err)
	}
	want := "reversal of " + txn.ID.String()
	if compensating.Reason != want {
		t.Errorf("reason: got %q, want %q", compensating.Reason, want)
	}
}

// Projected costs accumulate in the simulation bucket, then either become one
// real consolidated outflow or vanish without a trace in the log.
func TestSimulationCommit(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)

	if _, err := eng.SimulateCost(ctx, eur(t, "49"), "hosting renewal"); err != nil {
		t.Fatalf("SimulateCost: %v", err)
	}
	snap, err := eng.SimulateCost(ctx, eur(t, "21"), "new seat licenses")
	if err != nil {
		t.Fatalf("SimulateCost: %v", err)
	}
	if !snap.Simulated.Equal(decimal.RequireFromString("70")) {
		t.Errorf("simulated: got %s, want 70", snap.Simulated)
	}

	txn, snap, err := eng.CommitSimulatedCosts(ctx, "planner")
	if err != nil {
		t.Fatalf("CommitSimulatedCosts: %v", err)
	}
	if txn.Direction != transaction.DirectionOutflow {
		t.Errorf("direction: got %s, want outflow", txn.Direction)
	}
	if txn.Origin != transaction.OriginCostConsolidation {
		t.Errorf("origin: got %s, want cost_consolidation", txn.Origin)
	}
	if !txn.Amount.Equal(eur(t, "70")) {
		t.Errorf("amount: got %s, want 70", txn.Amount.FormatMajor())
	}
	if !snap.Simulated.IsZero() {
		t.Errorf("simulated after commit: got %s, want 0", snap.Simulated)
	}
	if !snap.InFlight.Equal(decimal.RequireFromString("-70")) {
		t.Errorf("in-flight after commit: got %s, want -70", snap.InFlight)
	}

	// Nothing left to commit.
	if _, _, err := eng.CommitSimulatedCosts(ctx, "planner"); !errors.Is(err, treasury.ErrNothingSimulated) {
		t.Errorf("empty commit: got %v, want ErrNothingSimulated", err)
	}
}

func TestSimulationDiscard(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)

	if _, err := eng.SimulateCost(ctx, eur(t, "120"), "office move"); err != nil {
		t.Fatalf("SimulateCost: %v", err)
	}

	snap, err := eng.DiscardSimulatedCosts(ctx)
	if err != nil {
		t.Fatalf("DiscardSimulatedCosts: %v", err)
	}
	if !snap.Simulated.IsZero() {
		t.Errorf("simulated after discard: got %s, want 0", snap.Simulated)
	}

	// The log never saw the projection.
	page, err := eng.ListTransactions(ctx, transaction.ListOpts{})
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if page.Total != 0 {
		t.Errorf("log entries after discard: got %d, want 0", page.Total)
	}

	if _, err := eng.DiscardSimulatedCosts(ctx); !errors.Is(err, treasury.ErrNothingSimulated) {
		t.Errorf("empty discard: got %v, want ErrNothingSimulated", err)
	}
}

func TestSimulateCostValidation(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)

	if _, err := eng.SimulateCost(ctx, eur(t, "-5"), "negative"); !errors.Is(err, treasury.ErrInvalidAmount) {
		t.Errorf("negative: got %v, want ErrInvalidAmount", err)
	}

	_, err := eng.SimulateCost(ctx, types.MustParseMoney("5", "usd"), "wrong currency")
	if !errors.Is(err, treasury.ErrCurrencyMismatch) {
		t.Errorf("wrong currency: got %v, want ErrCurrencyMismatch", err)
	}
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)

	res, err := eng.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile empty: %v", err)
	}
	if !res.Consistent || res.Transactions != 0 {
		t.Errorf("empty ledger should reconcile: %+v", res)
	}

	mustApply(t, eng, treasury.ApplyInput{
		Direction: transaction.DirectionInflow,
		Origin:    transaction.OriginModelEarnings,
		Amount:    eur(t, "1960"),
		Reason:    "earnings",
		Actor:     "importer",
	})
	payout := mustApply(t, eng, treasury.ApplyInput{
		Direction: transaction.DirectionOutflow,
		Origin:    transaction.OriginPayroll,
		Amount:    eur(t, "800"),
		Reason:    "payroll",
		Actor:     "payroll-bot",
	})
	if _, err := eng.RevertTransaction(ctx, payout.ID, "oops", "admin"); err != nil {
		t.Fatalf("RevertTransaction: %v", err)
	}

	res, err = eng.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if !res.Consistent {
		t.Errorf("drift after normal operations: aggregate %s, log %s", res.Aggregate.FormatMajor(), res.Log.FormatMajor())
	}
	// The open reversal pair counts with both legs: earnings, the reverted
	// payout and its compensating inflow.
	if res.Transactions != 3 {
		t.Errorf("open transactions: got %d, want 3", res.Transactions)
	}
	if !res.Aggregate.Equal(eur(t, "1960")) {
		t.Errorf("aggregate: got %s, want 1960", res.Aggregate.FormatMajor())
	}

	// Consolidation sweeps the pair; nothing open remains.
	if _, err := eng.ConsolidatePeriod(ctx, "2026-03", "controller"); err != nil {
		t.Fatalf("ConsolidatePeriod: %v", err)
	}
	res, err = eng.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile after consolidation: %v", err)
	}
	if !res.Consistent || res.Transactions != 0 {
		t.Errorf("drift after consolidation: %+v", res)
	}
}

func TestPeriodSummary(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)

	mustApply(t, eng, treasury.ApplyInput{
		Direction: transaction.DirectionInflow,
		Origin:    transaction.OriginModelEarnings,
		Amount:    eur(t, "1960"),
		Reason:    "earnings",
		Actor:     "importer",
	})
	mustApply(t, eng, treasury.ApplyInput{
		Direction: transaction.DirectionOutflow,
		Origin:    transaction.OriginPayroll,
		Amount:    eur(t, "800"),
		Reason:    "payroll",
		Actor:     "payroll-bot",
	})

	summary, err := eng.PeriodSummary(ctx, "2026-03")
	if err != nil {
		t.Fatalf("PeriodSummary: %v", err)
	}
	if !summary.Net.Equal(eur(t, "1160")) {
		t.Errorf("net: got %s, want 1160", summary.Net.FormatMajor())
	}
	if summary.ByOrigin[transaction.OriginModelEarnings].Count != 1 {
		t.Errorf("by-origin count: %+v", summary.ByOrigin)
	}

	if _, err := eng.PeriodSummary(ctx, "bogus"); !errors.Is(err, treasury.ErrInvalidPeriod) {
		t.Errorf("bad label: got %v, want ErrInvalidPeriod", err)
	}
}

func TestCashFlow(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)

	mustApply(t, eng, treasury.ApplyInput{
		Direction: transaction.DirectionInflow,
		Origin:    transaction.OriginModelEarnings,
		Amount:    eur(t, "1960"),
		Reason:    "earnings",
		Actor:     "importer",
	})

	cf, err := eng.CashFlow(ctx, "2026-03")
	if err != nil {
		t.Fatalf("CashFlow: %v", err)
	}
	if cf.Period != "2026-03" {
		t.Errorf("period: got %s", cf.Period)
	}
	if len(cf.Lines) != len(transaction.Origins()) {
		t.Errorf("lines: got %d, want %d", len(cf.Lines), len(transaction.Origins()))
	}
}

func TestCompare(t *testing.T) {
	ctx := context.Background()

	// A movable clock lets movements land in successive periods.
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	eng := treasury.New(memory.New("eur"),
		treasury.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		treasury.WithClock(func() time.Time { return now }),
		treasury.WithComparisonTolerance(decimal.NewFromInt(1)),
	)

	for i, amount := range []string{"100", "200", "300"} {
		now = time.Date(2026, time.Month(1+i), 15, 12, 0, 0, 0, time.UTC)
		_, _, err := eng.ApplyMovement(ctx, treasury.ApplyInput{
			Direction: transaction.DirectionInflow,
			Origin:    transaction.OriginModelEarnings,
			Amount:    types.MustParseMoney(amount, "eur"),
			Reason:    "earnings",
			Actor:     "importer",
		})
		if err != nil {
			t.Fatalf("ApplyMovement: %v", err)
		}
	}

	cmp, err := eng.Compare(ctx, "2026-01", "2026-03")
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(cmp.Periods) != 3 {
		t.Fatalf("periods: got %d, want 3", len(cmp.Periods))
	}
	if cmp.Trend != report.TrendRising {
		t.Errorf("trend: got %s, want rising", cmp.Trend)
	}

	// Reversed bounds are normalized.
	swapped, err := eng.Compare(ctx, "2026-03", "2026-01")
	if err != nil {
		t.Fatalf("Compare swapped: %v", err)
	}
	if len(swapped.Periods) != 3 || swapped.Periods[0].Period != "2026-01" {
		t.Errorf("swapped bounds not normalized: %+v", swapped.Periods)
	}
}

// An explicit period list compares non-contiguous periods, e.g. the same
// month across years.
func TestComparePeriods(t *testing.T) {
	ctx := context.Background()

	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	eng := treasury.New(memory.New("eur"),
		treasury.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		treasury.WithClock(func() time.Time { return now }),
		treasury.WithComparisonTolerance(decimal.NewFromInt(1)),
	)

	for _, m := range []struct {
		at     time.Time
		amount string
	}{
		{time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC), "100"},
		{time.Date(2027, 1, 15, 12, 0, 0, 0, time.UTC), "300"},
	} {
		now = m.at
		_, _, err := eng.ApplyMovement(ctx, treasury.ApplyInput{
			Direction: transaction.DirectionInflow,
			Origin:    transaction.OriginModelEarnings,
			Amount:    types.MustParseMoney(m.amount, "eur"),
			Reason:    "earnings",
			Actor:     "importer",
		})
		if err != nil {
			t.Fatalf("ApplyMovement: %v", err)
		}
	}

	cmp, err := eng.ComparePeriods(ctx, []string{"2026-01", "2027-01"})
	if err != nil {
		t.Fatalf("ComparePeriods: %v", err)
	}
	if len(cmp.Periods) != 2 {
		t.Fatalf("periods: got %d, want 2", len(cmp.Periods))
	}
	if cmp.Trend != report.TrendRising {
		t.Errorf("trend: got %s, want rising", cmp.Trend)
	}
	if !cmp.Periods[1].Net.Equal(decimal.RequireFromString("300")) {
		t.Errorf("second period net: got %s, want 300", cmp.Periods[1].Net)
	}

	if _, err := eng.ComparePeriods(ctx, []string{"2026-13"}); !errors.Is(err, treasury.ErrInvalidPeriod) {
		t.Errorf("bad label: got %v, want ErrInvalidPeriod", err)
	}
}

func TestStartAndStop(t *testing.T) {
	ctx := context.Background()
	s := memory.New("eur")
	eng := treasury.New(s,
		treasury.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	if err := eng.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := eng.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := s.Ping(ctx); !errors.Is(err, treasury.ErrStoreClosed) {
		t.Errorf("store after Stop: got %v, want ErrStoreClosed", err)
	}
}
