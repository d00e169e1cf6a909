package treasury_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/xraph/treasury"
	"github.com/xraph/treasury/store/memory"
	"github.com/xraph/treasury/transaction"
)

// TestDocumentationExamples verifies that all examples in the documentation compile
func TestDocumentationExamples(t *testing.T) {
	// Test Quick Start example from the package docs
	t.Run("QuickStartExample", func(t *testing.T) {
		// Create store (memory for demo, use PostgreSQL in production)
		store := memory.New("eur")

		// Create treasury
		tr := treasury.New(store,
			treasury.WithLogger(slog.Default()),
			treasury.WithCurrency("eur"),
		)

		// Start (runs migrations, initializes plugins)
		ctx := context.Background()
		if err := tr.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer tr.Stop()

		// Record a movement
		txn, snap, err := tr.ApplyMovement(ctx, treasury.ApplyInput{
			Direction: transaction.DirectionInflow,
			Origin:    transaction.OriginModelEarnings,
			Amount:    treasury.MustParseMoney("1960.00", "eur"),
			Reason:    "March commission",
			Actor:     "finance-bot",
			Period:    "2026-03",
		})
		if err != nil {
			t.Fatal(err)
		}
		if txn.State != transaction.StateInFlight {
			t.Fatalf("expected in_flight, got %s", txn.State)
		}
		if snap.InFlightDisplay != "€1960.00" {
			t.Fatalf("unexpected in-flight display: %s", snap.InFlightDisplay)
		}

		// Close the period
		closed, err := tr.ConsolidatePeriod(ctx, "2026-03", "finance-bot")
		if err != nil {
			t.Fatal(err)
		}
		if closed.ConsolidatedDisplay != "€1960.00" {
			t.Fatalf("unexpected consolidated display: %s", closed.ConsolidatedDisplay)
		}
	})

	// Test reversal example from the package docs
	t.Run("ReversalExample", func(t *testing.T) {
		store := memory.New("eur")
		tr := treasury.New(store)
		ctx := context.Background()

		txn, _, err := tr.ApplyMovement(ctx, treasury.ApplyInput{
			Direction: transaction.DirectionOutflow,
			Origin:    transaction.OriginPayroll,
			Amount:    treasury.MustParseMoney("800.00", "eur"),
			Reason:    "duplicate booking",
			Actor:     "payroll-bot",
		})
		if err != nil {
			t.Fatal(err)
		}

		// Mistakes are corrected by reversal, never deletion
		comp, err := tr.RevertTransaction(ctx, txn.ID, "duplicate booking", "ops")
		if err != nil {
			t.Fatal(err)
		}
		if comp.Direction != transaction.DirectionInflow {
			t.Fatalf("expected compensating inflow, got %s", comp.Direction)
		}
	})
}
