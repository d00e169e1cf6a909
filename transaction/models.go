// Package transaction defines the append-only money movement facts of the
// ledger and their per-period aggregation.
package transaction

import (
	"time"

	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/types"
)

// Direction encodes the sign of a movement. Magnitudes are always strictly
// positive; the direction carries the sign.
type Direction string

const (
	DirectionInflow  Direction = "inflow"
	DirectionOutflow Direction = "outflow"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionInflow || d == DirectionOutflow
}

// Opposite returns the reversing direction.
func (d Direction) Opposite() Direction {
	if d == DirectionInflow {
		return DirectionOutflow
	}
	return DirectionInflow
}

// Sign returns +1 for inflow, -1 for outflow.
func (d Direction) Sign() int64 {
	if d == DirectionInflow {
		return 1
	}
	return -1
}

// Origin is the closed set of business reasons a movement can carry.
// Report builders switch exhaustively over it, so adding an origin is a
// compile-visible change, not a silently-ignored string.
type Origin string

const (
	OriginModelEarnings     Origin = "model_earnings"     // Commission on model bookings
	OriginFixedCost         Origin = "fixed_cost"         // Recurring agency cost entry
	OriginPayroll           Origin = "payroll"            // Staff salary run
	OriginManualAdjustment  Origin = "manual_adjustment"  // Operator correction / reversal
	OriginCostConsolidation Origin = "cost_consolidation" // Simulated costs committed as real
)

// Origins lists every origin in stable order.
func Origins() []Origin {
	return []Origin{
		OriginModelEarnings,
		OriginFixedCost,
		OriginPayroll,
		OriginManualAdjustment,
		OriginCostConsolidation,
	}
}

// Valid reports whether o is a known origin.
func (o Origin) Valid() bool {
	switch o {
	case OriginModelEarnings, OriginFixedCost, OriginPayroll,
		OriginManualAdjustment, OriginCostConsolidation:
		return true
	}
	return false
}

// State is the lifecycle state of a transaction.
type State string

const (
	// StateInFlight is the initial state of every appended fact.
	StateInFlight State = "in_flight"
	// StateConsolidated is terminal: the fact was settled at period close
	// and is immutable forever.
	StateConsolidated State = "consolidated"
	// StateReverted marks a fact canceled by a compensating transaction.
	StateReverted State = "reverted"
)

// Transaction is one signed monetary fact. Once written it is immutable
// except for the lifecycle state and the reversal linkage.
type Transaction struct {
	types.Entity
	ID        id.TransactionID `json:"id"`
	Period    types.Period     `json:"period"`
	Direction Direction        `json:"direction"`
	Origin    Origin           `json:"origin"`
	Amount    types.Money      `json:"amount"` // strictly positive magnitude
	Reason    string           `json:"reason"`
	Reference string           `json:"reference,omitempty"` // originating business record
	OwnerRef  string           `json:"owner_ref,omitempty"` // owning entity (model, employee)
	Actor     string           `json:"actor,omitempty"`
	State     State            `json:"state"`

	ConsolidatedAt *time.Time `json:"consolidated_at,omitempty"`
	ConsolidatedBy string     `json:"consolidated_by,omitempty"`

	RevertedAt   *time.Time       `json:"reverted_at,omitempty"`
	RevertReason string           `json:"revert_reason,omitempty"`
	RevertedBy   id.TransactionID `json:"reverted_by,omitempty"` // compensating transaction
}

// Signed returns the direction-signed amount.
func (t *Transaction) Signed() types.Money {
	if t.Direction == DirectionOutflow {
		return t.Amount.Negate()
	}
	return t.Amount
}

// ListOpts filters and paginates transaction queries.
// Results are always sorted newest first.
type ListOpts struct {
	Period      types.Period
	Direction   Direction
	Origin      Origin
	State       State
	OwnerRef    string
	Reference   string
	CreatedFrom time.Time
	CreatedTo   time.Time
	Limit       int
	Offset      int
}

// Page is one page of a transaction listing.
type Page struct {
	Items  []*Transaction `json:"items"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// OriginTotals aggregates one origin within a period.
type OriginTotals struct {
	Inflow  types.Money `json:"inflow"`
	Outflow types.Money `json:"outflow"`
	Net     types.Money `json:"net"`
	Count   int64       `json:"count"`
}

// Summary is the pure aggregation of the log for one period. It is the
// source of truth used to validate the bank aggregate's in-flight balance.
// Reverted transactions are excluded from the totals but counted.
type Summary struct {
	Period            types.Period            `json:"period"`
	Currency          string                  `json:"currency"`
	TotalInflow       types.Money             `json:"total_inflow"`
	TotalOutflow      types.Money             `json:"total_outflow"`
	Net               types.Money             `json:"net"`
	InFlightNet       types.Money             `json:"in_flight_net"` // signed sum of in-flight facts only
	ByOrigin          map[Origin]OriginTotals `json:"by_origin"`
	CountInFlight     int64                   `json:"count_in_flight"`
	CountConsolidated int64                   `json:"count_consolidated"`
	CountReverted     int64                   `json:"count_reverted"`
}

// NewSummary returns an empty summary with every origin bucket present,
// so report builders never hit a missing key.
func NewSummary(period types.Period, currency string) *Summary {
	byOrigin := make(map[Origin]OriginTotals, len(Origins()))
	for _, o := range Origins() {
		byOrigin[o] = OriginTotals{
			Inflow:  types.Zero(currency),
			Outflow: types.Zero(currency),
			Net:     types.Zero(currency),
		}
	}
	return &Summary{
		Period:       period,
		Currency:     currency,
		TotalInflow:  types.Zero(currency),
		TotalOutflow: types.Zero(currency),
		Net:          types.Zero(currency),
		InFlightNet:  types.Zero(currency),
		ByOrigin:     byOrigin,
	}
}

// Accumulate folds one transaction into the summary. Reverted facts only
// bump the reverted counter: their effect was canceled by a compensating
// fact that is itself part of the log.
func (s *Summary) Accumulate(t *Transaction) {
	if t.State == StateReverted {
		s.CountReverted++
		return
	}

	totals := s.ByOrigin[t.Origin]
	switch t.Direction {
	case DirectionInflow:
		s.TotalInflow = s.TotalInflow.Add(t.Amount)
		totals.Inflow = totals.Inflow.Add(t.Amount)
	case DirectionOutflow:
		s.TotalOutflow = s.TotalOutflow.Add(t.Amount)
		totals.Outflow = totals.Outflow.Add(t.Amount)
	}
	totals.Net = totals.Inflow.Subtract(totals.Outflow)
	totals.Count++
	s.ByOrigin[t.Origin] = totals

	s.Net = s.TotalInflow.Subtract(s.TotalOutflow)

	switch t.State {
	case StateInFlight:
		s.CountInFlight++
		s.InFlightNet = s.InFlightNet.Add(t.Signed())
	case StateConsolidated:
		s.CountConsolidated++
	}
}
