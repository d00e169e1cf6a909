package bank

import (
	"context"
	"time"

	"github.com/xraph/treasury/types"
)

// Store is the bank aggregate contract. Every mutation is a single atomic
// conditional update keyed by SingletonKey — never a read-modify-write in
// two round trips — so concurrent producers cannot lose an update.
type Store interface {
	// Get loads the singleton aggregate. ErrBankNotFound before first use.
	Get(ctx context.Context) (*Bank, error)

	// AdjustInFlight atomically adds delta to the in-flight balance, bumps
	// the movement counter and stamps the current period. An upsert creates
	// the aggregate on first use with zeroed balances.
	AdjustInFlight(ctx context.Context, delta types.Money, period types.Period) (*Bank, error)

	// AdjustSimulated atomically adds delta to the simulation balance.
	AdjustSimulated(ctx context.Context, delta types.Money) (*Bank, error)

	// ResetSimulated atomically zeroes the simulation balance and returns
	// the aggregate as it was immediately before the reset.
	ResetSimulated(ctx context.Context) (*Bank, error)

	// Consolidate atomically transfers the in-flight balance into the
	// consolidated balance, zeroes in-flight, bumps the consolidation
	// counter and stamps the consolidation time. Single conditional update,
	// safe under concurrent consolidation attempts.
	Consolidate(ctx context.Context, period types.Period, at time.Time) (*Bank, error)
}
