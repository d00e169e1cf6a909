// Package bank defines the singleton balance aggregate the ledger engine
// maintains, and the formatted snapshot callers receive.
package bank

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/treasury/types"
)

// SingletonKey is the fixed storage key of the one bank aggregate.
// There is exactly one live balance; every driver keys its conditional
// updates on this value.
const SingletonKey = "bank_main"

// Bank is the singleton mutable balance aggregate. It is created lazily on
// first use (idempotent upsert with zeroed balances) and only ever mutated
// through the engine's atomic store primitives.
type Bank struct {
	types.Entity
	Key      string `json:"key"`
	Currency string `json:"currency"`

	// Consolidated is the permanently settled balance. Only consolidation
	// moves it.
	Consolidated types.Money `json:"consolidated"`

	// InFlight accumulates every applied movement and is zeroed by
	// consolidation. Before the next consolidation it must equal the signed
	// sum of all in-flight transactions — the reconciliation property the
	// whole design protects.
	InFlight types.Money `json:"in_flight"`

	// Simulated holds forward-looking cost projections before they become
	// real movements.
	Simulated types.Money `json:"simulated"`

	CurrentPeriod       types.Period `json:"current_period"`
	LastConsolidatedAt  *time.Time   `json:"last_consolidated_at,omitempty"`
	PeriodsConsolidated int64        `json:"periods_consolidated"`
	MovementCount       int64        `json:"movement_count"`
}

// Snapshot is the caller-facing view of the aggregate. All monetary values
// are decimal plus a display string; raw stored magnitudes never cross this
// boundary.
type Snapshot struct {
	Currency string `json:"currency"`

	Consolidated        decimal.Decimal `json:"consolidated"`
	ConsolidatedDisplay string          `json:"consolidated_display"`

	InFlight        decimal.Decimal `json:"in_flight"`
	InFlightDisplay string          `json:"in_flight_display"`

	Simulated        decimal.Decimal `json:"simulated"`
	SimulatedDisplay string          `json:"simulated_display"`

	Total        decimal.Decimal `json:"total"` // consolidated + in-flight
	TotalDisplay string          `json:"total_display"`

	CurrentPeriod       types.Period `json:"current_period"`
	LastConsolidatedAt  *time.Time   `json:"last_consolidated_at,omitempty"`
	PeriodsConsolidated int64        `json:"periods_consolidated"`
	MovementCount       int64        `json:"movement_count"`
	TakenAt             time.Time    `json:"taken_at"`
}

// SnapshotOf formats the aggregate for callers.
func SnapshotOf(b *Bank, at time.Time) *Snapshot {
	total := b.Consolidated.Add(b.InFlight)
	return &Snapshot{
		Currency:            b.Currency,
		Consolidated:        b.Consolidated.Decimal(),
		ConsolidatedDisplay: b.Consolidated.String(),
		InFlight:            b.InFlight.Decimal(),
		InFlightDisplay:     b.InFlight.String(),
		Simulated:           b.Simulated.Decimal(),
		SimulatedDisplay:    b.Simulated.String(),
		Total:               total.Decimal(),
		TotalDisplay:        total.String(),
		CurrentPeriod:       b.CurrentPeriod,
		LastConsolidatedAt:  b.LastConsolidatedAt,
		PeriodsConsolidated: b.PeriodsConsolidated,
		MovementCount:       b.MovementCount,
		TakenAt:             at.UTC(),
	}
}

// ZeroBank returns an untouched aggregate, used for snapshots before the
// first movement ever lands.
func ZeroBank(currency string) *Bank {
	return &Bank{
		Key:          SingletonKey,
		Currency:     currency,
		Consolidated: types.Zero(currency),
		InFlight:     types.Zero(currency),
		Simulated:    types.Zero(currency),
	}
}
