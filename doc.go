// Package treasury provides an embeddable double-view money ledger for Go
// applications.
//
// Treasury is designed as a library, not a service. Import it directly into
// your Go application. It keeps two views of the same money that must always
// agree:
//
//   - An append-only transaction log: every movement is an immutable signed
//     fact with a business origin, corrected only by compensating entries
//   - A singleton bank aggregate: consolidated, in-flight, and simulated
//     balances mutated through atomic store primitives
//
// # Quick Start
//
// Create a treasury instance with your preferred store:
//
//	import (
//	    "github.com/xraph/treasury"
//	    "github.com/xraph/treasury/store/postgres"
//	)
//
//	// Initialize store
//	store, err := postgres.New(databaseURL, "eur")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Create treasury
//	t := treasury.New(store, treasury.WithCurrency("eur"))
//
//	// Start (runs migrations, initializes plugins)
//	if err := t.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer t.Stop()
//
// # Core Concepts
//
// Movements are signed facts. Record one with a direction, origin, and a
// strictly positive amount:
//
//	txn, snap, err := t.ApplyMovement(ctx, treasury.ApplyInput{
//	    Direction: transaction.DirectionInflow,
//	    Origin:    transaction.OriginModelEarnings,
//	    Amount:    treasury.MustParseMoney("1960.00", "eur"),
//	    Reason:    "March commission",
//	})
//
// Periods close by consolidation, which settles the in-flight balance and
// freezes the period's transactions:
//
//	snap, err := t.ConsolidatePeriod(ctx, "2026-03", "finance-bot")
//
// Mistakes are corrected by reversal, never deletion:
//
//	comp, err := t.RevertTransaction(ctx, txnID, "duplicate booking", "ops")
//
// # Money
//
// All monetary calculations use integer arithmetic to avoid floating-point
// precision issues. The Money type stores amounts as int64 scaled by 10^5,
// converts through arbitrary-precision decimals, and rounds presentation
// values with round-half-to-even.
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	txn_01h2xcejqtf2nbrexx3vqjhp41  // Transaction ID
//	bank_01h455vb4pex5vsknk084sn02q // Bank aggregate ID
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of entities.
package treasury
