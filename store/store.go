// Package store defines the unified storage interface for Treasury.
package store

import (
	"context"
	"time"

	"github.com/xraph/treasury/bank"
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/transaction"
	"github.com/xraph/treasury/types"
)

// Store is the unified storage interface for the transaction log and the
// bank aggregate. Instead of embedding the sub-interfaces, we explicitly
// declare all methods to avoid naming conflicts.
type Store interface {
	// Transaction log methods
	AppendTransaction(ctx context.Context, t *transaction.Transaction) error
	GetTransaction(ctx context.Context, txnID id.TransactionID) (*transaction.Transaction, error)
	ListTransactions(ctx context.Context, opts transaction.ListOpts) (*transaction.Page, error)
	SummarizePeriod(ctx context.Context, period types.Period) (*transaction.Summary, error)
	MarkConsolidated(ctx context.Context, period types.Period, actor string, at time.Time) (int64, error)
	MarkReverted(ctx context.Context, txnID, compensating id.TransactionID, reason, actor string, at time.Time) error

	// Bank aggregate methods
	GetBank(ctx context.Context) (*bank.Bank, error)
	AdjustInFlight(ctx context.Context, delta types.Money, period types.Period) (*bank.Bank, error)
	AdjustSimulated(ctx context.Context, delta types.Money) (*bank.Bank, error)
	ResetSimulated(ctx context.Context) (*bank.Bank, error)
	ConsolidateBank(ctx context.Context, period types.Period, at time.Time) (*bank.Bank, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
