// Package plugin provides an extensible plugin system for Treasury.
// Plugins can hook into ledger lifecycle events to extend functionality.
package plugin

import (
	"context"

	"github.com/xraph/treasury/bank"
	"github.com/xraph/treasury/transaction"
	"github.com/xraph/treasury/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnMovementApplied is called after a movement was written to the log and
// the in-flight balance was adjusted.
type OnMovementApplied interface {
	Plugin
	OnMovementApplied(ctx context.Context, txn *transaction.Transaction, snap *bank.Snapshot) error
}

// OnPeriodConsolidated is called after a period close moved the in-flight
// balance into the consolidated balance.
type OnPeriodConsolidated interface {
	Plugin
	OnPeriodConsolidated(ctx context.Context, period types.Period, moved types.Money, transitioned int64) error
}

// OnTransactionReverted is called after a transaction was canceled by a
// compensating transaction.
type OnTransactionReverted interface {
	Plugin
	OnTransactionReverted(ctx context.Context, original, compensating *transaction.Transaction) error
}

// OnSimulationRecorded is called when a projected cost is added to the
// simulation balance.
type OnSimulationRecorded interface {
	Plugin
	OnSimulationRecorded(ctx context.Context, amount types.Money, snap *bank.Snapshot) error
}

// OnDriftDetected is called when reconciliation finds the aggregate's
// in-flight balance diverging from the signed sum of the log.
type OnDriftDetected interface {
	Plugin
	OnDriftDetected(ctx context.Context, aggregate, log types.Money) error
}
