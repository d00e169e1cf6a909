package audithook

// Action constants for audit events.
const (
	// Movement actions
	ActionMovementApplied = "movement.applied"

	// Consolidation actions
	ActionPeriodConsolidated = "period.consolidated"

	// Reversal actions
	ActionTransactionReverted = "transaction.reverted"

	// Simulation actions
	ActionSimulationRecorded = "simulation.recorded"

	// Reconciliation actions
	ActionDriftDetected = "drift.detected"
)

// Resource constants for audit events.
const (
	ResourceTransaction = "transaction"
	ResourceBank        = "bank"
	ResourcePeriod      = "period"
)

// Category constants for audit events.
const (
	CategoryLedger         = "ledger"
	CategoryConsolidation  = "consolidation"
	CategoryReconciliation = "reconciliation"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
