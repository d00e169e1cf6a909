// Package audithook bridges Treasury lifecycle events to an audit trail
// backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/treasury/bank"
	"github.com/xraph/treasury/plugin"
	"github.com/xraph/treasury/transaction"
	"github.com/xraph/treasury/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                = (*Extension)(nil)
	_ plugin.OnMovementApplied     = (*Extension)(nil)
	_ plugin.OnPeriodConsolidated  = (*Extension)(nil)
	_ plugin.OnTransactionReverted = (*Extension)(nil)
	_ plugin.OnSimulationRecorded  = (*Extension)(nil)
	_ plugin.OnDriftDetected       = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly — callers inject
// the concrete *chronicle.Chronicle at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Treasury lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Ledger lifecycle hooks
// ──────────────────────────────────────────────────

// OnMovementApplied implements plugin.OnMovementApplied.
func (e *Extension) OnMovementApplied(ctx context.Context, txn *transaction.Transaction, snap *bank.Snapshot) error {
	return e.record(ctx, ActionMovementApplied, SeverityInfo, OutcomeSuccess,
		ResourceTransaction, txn.ID.String(), CategoryLedger, nil,
		"period", txn.Period.String(),
		"direction", string(txn.Direction),
		"origin", string(txn.Origin),
		"amount", txn.Amount.FormatMajor(),
		"currency", txn.Amount.Currency,
		"actor", txn.Actor,
		"in_flight", snap.InFlightDisplay,
	)
}

// OnPeriodConsolidated implements plugin.OnPeriodConsolidated.
func (e *Extension) OnPeriodConsolidated(ctx context.Context, period types.Period, moved types.Money, transitioned int64) error {
	return e.record(ctx, ActionPeriodConsolidated, SeverityInfo, OutcomeSuccess,
		ResourcePeriod, period.String(), CategoryConsolidation, nil,
		"period", period.String(),
		"moved", moved.FormatMajor(),
		"currency", moved.Currency,
		"transactions", transitioned,
	)
}

// OnTransactionReverted implements plugin.OnTransactionReverted.
func (e *Extension) OnTransactionReverted(ctx context.Context, original, compensating *transaction.Transaction) error {
	return e.record(ctx, ActionTransactionReverted, SeverityWarning, OutcomeSuccess,
		ResourceTransaction, original.ID.String(), CategoryLedger, nil,
		"compensating_id", compensating.ID.String(),
		"period", original.Period.String(),
		"amount", original.Amount.FormatMajor(),
		"currency", original.Amount.Currency,
		"revert_reason", original.RevertReason,
	)
}

// OnSimulationRecorded implements plugin.OnSimulationRecorded.
func (e *Extension) OnSimulationRecorded(ctx context.Context, amount types.Money, snap *bank.Snapshot) error {
	return e.record(ctx, ActionSimulationRecorded, SeverityInfo, OutcomeSuccess,
		ResourceBank, bank.SingletonKey, CategoryLedger, nil,
		"amount", amount.FormatMajor(),
		"currency", amount.Currency,
		"simulated", snap.SimulatedDisplay,
	)
}

// OnDriftDetected implements plugin.OnDriftDetected.
func (e *Extension) OnDriftDetected(ctx context.Context, aggregate, log types.Money) error {
	return e.record(ctx, ActionDriftDetected, SeverityCritical, OutcomeFailure,
		ResourceBank, bank.SingletonKey, CategoryReconciliation, nil,
		"aggregate", aggregate.FormatMajor(),
		"log", log.FormatMajor(),
		"drift", aggregate.Subtract(log).FormatMajor(),
		"currency", aggregate.Currency,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
