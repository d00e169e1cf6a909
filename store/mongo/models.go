package mongo

import (
	"time"

	"github.com/xraph/treasury/bank"
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/transaction"
	"github.com/xraph/treasury/types"
)

// ==================== Transaction models ====================

type transactionModel struct {
	ID             string     `bson:"_id"`
	Period         string     `bson:"period"`
	Direction      string     `bson:"direction"`
	Origin         string     `bson:"origin"`
	AmountScaled   int64      `bson:"amount_scaled"`
	AmountCurrency string     `bson:"amount_currency"`
	Reason         string     `bson:"reason"`
	Reference      string     `bson:"reference,omitempty"`
	OwnerRef       string     `bson:"owner_ref,omitempty"`
	Actor          string     `bson:"actor,omitempty"`
	State          string     `bson:"state"`
	ConsolidatedAt *time.Time `bson:"consolidated_at,omitempty"`
	ConsolidatedBy string     `bson:"consolidated_by,omitempty"`
	RevertedAt     *time.Time `bson:"reverted_at,omitempty"`
	RevertReason   string     `bson:"revert_reason,omitempty"`
	RevertedBy     string     `bson:"reverted_by,omitempty"`
	CreatedAt      time.Time  `bson:"created_at"`
	UpdatedAt      time.Time  `bson:"updated_at"`
}

func toTransactionModel(t *transaction.Transaction) *transactionModel {
	return &transactionModel{
		ID:             t.ID.String(),
		Period:         t.Period.String(),
		Direction:      string(t.Direction),
		Origin:         string(t.Origin),
		AmountScaled:   t.Amount.Amount,
		AmountCurrency: t.Amount.Currency,
		Reason:         t.Reason,
		Reference:      t.Reference,
		OwnerRef:       t.OwnerRef,
		Actor:          t.Actor,
		State:          string(t.State),
		ConsolidatedAt: t.ConsolidatedAt,
		ConsolidatedBy: t.ConsolidatedBy,
		RevertedAt:     t.RevertedAt,
		RevertReason:   t.RevertReason,
		RevertedBy:     t.RevertedBy.String(),
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func fromTransactionModel(m *transactionModel) (*transaction.Transaction, error) {
	txnID, err := id.ParseTransactionID(m.ID)
	if err != nil {
		return nil, err
	}

	revertedBy := id.Nil
	if m.RevertedBy != "" {
		revertedBy, err = id.ParseTransactionID(m.RevertedBy)
		if err != nil {
			return nil, err
		}
	}

	return &transaction.Transaction{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:             txnID,
		Period:         types.Period(m.Period),
		Direction:      transaction.Direction(m.Direction),
		Origin:         transaction.Origin(m.Origin),
		Amount:         types.FromStored(m.AmountScaled, m.AmountCurrency),
		Reason:         m.Reason,
		Reference:      m.Reference,
		OwnerRef:       m.OwnerRef,
		Actor:          m.Actor,
		State:          transaction.State(m.State),
		ConsolidatedAt: m.ConsolidatedAt,
		ConsolidatedBy: m.ConsolidatedBy,
		RevertedAt:     m.RevertedAt,
		RevertReason:   m.RevertReason,
		RevertedBy:     revertedBy,
	}, nil
}

// ==================== Bank models ====================

type bankModel struct {
	ID                  string     `bson:"_id"`
	Currency            string     `bson:"currency"`
	ConsolidatedScaled  int64      `bson:"consolidated_scaled"`
	InFlightScaled      int64      `bson:"in_flight_scaled"`
	SimulatedScaled     int64      `bson:"simulated_scaled"`
	CurrentPeriod       string     `bson:"current_period,omitempty"`
	LastConsolidatedAt  *time.Time `bson:"last_consolidated_at,omitempty"`
	PeriodsConsolidated int64      `bson:"periods_consolidated"`
	MovementCount       int64      `bson:"movement_count"`
	CreatedAt           time.Time  `bson:"created_at"`
	UpdatedAt           time.Time  `bson:"updated_at"`
}

func fromBankModel(m *bankModel) *bank.Bank {
	return &bank.Bank{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Key:                 m.ID,
		Currency:            m.Currency,
		Consolidated:        types.FromStored(m.ConsolidatedScaled, m.Currency),
		InFlight:            types.FromStored(m.InFlightScaled, m.Currency),
		Simulated:           types.FromStored(m.SimulatedScaled, m.Currency),
		CurrentPeriod:       types.Period(m.CurrentPeriod),
		LastConsolidatedAt:  m.LastConsolidatedAt,
		PeriodsConsolidated: m.PeriodsConsolidated,
		MovementCount:       m.MovementCount,
	}
}
