package transaction

import (
	"context"
	"time"

	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/types"
)

// Store is the transaction log contract. Append is the only write path that
// creates transactions; every money movement in the surrounding system must
// funnel through it.
type Store interface {
	Append(ctx context.Context, t *Transaction) error
	Get(ctx context.Context, txnID id.TransactionID) (*Transaction, error)
	List(ctx context.Context, opts ListOpts) (*Page, error)
	Summarize(ctx context.Context, period types.Period) (*Summary, error)

	// MarkConsolidated bulk-transitions every in-flight transaction of the
	// period to consolidated. Idempotent: re-running only touches rows still
	// in flight. Returns the number of rows transitioned.
	MarkConsolidated(ctx context.Context, period types.Period, actor string, at time.Time) (int64, error)

	// MarkReverted transitions a single in-flight transaction to reverted
	// and stores the backward link to its compensating transaction.
	MarkReverted(ctx context.Context, txnID, compensating id.TransactionID, reason, actor string, at time.Time) error
}
