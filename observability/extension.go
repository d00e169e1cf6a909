// Package observability provides a metrics extension for Treasury that
// records lifecycle event counts and amounts through an injected
// MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/treasury/bank"
	"github.com/xraph/treasury/plugin"
	"github.com/xraph/treasury/transaction"
	"github.com/xraph/treasury/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                = (*MetricsExtension)(nil)
	_ plugin.OnInit                = (*MetricsExtension)(nil)
	_ plugin.OnMovementApplied     = (*MetricsExtension)(nil)
	_ plugin.OnPeriodConsolidated  = (*MetricsExtension)(nil)
	_ plugin.OnTransactionReverted = (*MetricsExtension)(nil)
	_ plugin.OnSimulationRecorded  = (*MetricsExtension)(nil)
	_ plugin.OnDriftDetected       = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Treasury plugin to automatically track ledger metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Movement metrics
	MovementsApplied Counter
	MovementInflow   Counter
	MovementOutflow  Counter
	MovementAmount   Histogram

	// Consolidation metrics
	PeriodsConsolidated Counter
	ConsolidatedTxns    Histogram
	ConsolidatedAmount  Histogram

	// Reversal metrics
	TransactionsReverted Counter
	RevertedAmount       Histogram

	// Simulation metrics
	SimulationsRecorded Counter
	SimulatedAmount     Histogram

	// Reconciliation metrics
	DriftDetected Counter
	DriftAmount   Histogram

	// Error metrics
	StoreErrors  Counter
	PluginErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Movement metrics
		MovementsApplied: factory.Counter("treasury.movement.applied"),
		MovementInflow:   factory.Counter("treasury.movement.inflow"),
		MovementOutflow:  factory.Counter("treasury.movement.outflow"),
		MovementAmount:   factory.Histogram("treasury.movement.amount"),

		// Consolidation metrics
		PeriodsConsolidated: factory.Counter("treasury.period.consolidated"),
		ConsolidatedTxns:    factory.Histogram("treasury.period.transactions"),
		ConsolidatedAmount:  factory.Histogram("treasury.period.moved_amount"),

		// Reversal metrics
		TransactionsReverted: factory.Counter("treasury.transaction.reverted"),
		RevertedAmount:       factory.Histogram("treasury.transaction.reverted_amount"),

		// Simulation metrics
		SimulationsRecorded: factory.Counter("treasury.simulation.recorded"),
		SimulatedAmount:     factory.Histogram("treasury.simulation.amount"),

		// Reconciliation metrics
		DriftDetected: factory.Counter("treasury.reconciliation.drift"),
		DriftAmount:   factory.Histogram("treasury.reconciliation.drift_amount"),

		// Error metrics
		StoreErrors:  factory.Counter("treasury.store.errors"),
		PluginErrors: factory.Counter("treasury.plugin.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Ledger lifecycle hooks
// ──────────────────────────────────────────────────

// OnMovementApplied implements plugin.OnMovementApplied.
func (m *MetricsExtension) OnMovementApplied(_ context.Context, txn *transaction.Transaction, _ *bank.Snapshot) error {
	m.MovementsApplied.Inc()
	switch txn.Direction {
	case transaction.DirectionInflow:
		m.MovementInflow.Inc()
	case transaction.DirectionOutflow:
		m.MovementOutflow.Inc()
	}
	m.MovementAmount.Observe(majorUnits(txn.Amount))
	return nil
}

// OnPeriodConsolidated implements plugin.OnPeriodConsolidated.
func (m *MetricsExtension) OnPeriodConsolidated(_ context.Context, _ types.Period, moved types.Money, transitioned int64) error {
	m.PeriodsConsolidated.Inc()
	m.ConsolidatedTxns.Observe(float64(transitioned))
	m.ConsolidatedAmount.Observe(majorUnits(moved))
	return nil
}

// OnTransactionReverted implements plugin.OnTransactionReverted.
func (m *MetricsExtension) OnTransactionReverted(_ context.Context, original, _ *transaction.Transaction) error {
	m.TransactionsReverted.Inc()
	m.RevertedAmount.Observe(majorUnits(original.Amount))
	return nil
}

// OnSimulationRecorded implements plugin.OnSimulationRecorded.
func (m *MetricsExtension) OnSimulationRecorded(_ context.Context, amount types.Money, _ *bank.Snapshot) error {
	m.SimulationsRecorded.Inc()
	m.SimulatedAmount.Observe(majorUnits(amount))
	return nil
}

// OnDriftDetected implements plugin.OnDriftDetected.
func (m *MetricsExtension) OnDriftDetected(_ context.Context, aggregate, log types.Money) error {
	m.DriftDetected.Inc()
	m.DriftAmount.Observe(majorUnits(aggregate.Subtract(log).Abs()))
	return nil
}

// majorUnits converts a stored amount to major units for observation.
// Histograms trade exactness for aggregation; the ledger itself never
// touches floats.
func majorUnits(m types.Money) float64 {
	f, _ := m.Decimal().Float64()
	return f
}
