// Package report builds read-only projections from transaction summaries.
// Reports are computed on demand and never persisted, so they cannot drift
// from the log.
package report

import (
	"github.com/shopspring/decimal"

	"github.com/xraph/treasury/transaction"
	"github.com/xraph/treasury/types"
)

// CashFlowLine is one origin's contribution to a period's cash flow.
type CashFlowLine struct {
	Origin  transaction.Origin `json:"origin"`
	Label   string             `json:"label"`
	Inflow  decimal.Decimal    `json:"inflow"`
	Outflow decimal.Decimal    `json:"outflow"`
	Net     decimal.Decimal    `json:"net"`
	Count   int64              `json:"count"`
}

// CashFlow is the cash-flow statement of a single period.
type CashFlow struct {
	Period            types.Period    `json:"period"`
	Currency          string          `json:"currency"`
	Lines             []CashFlowLine  `json:"lines"`
	TotalInflow       decimal.Decimal `json:"total_inflow"`
	TotalOutflow      decimal.Decimal `json:"total_outflow"`
	Net               decimal.Decimal `json:"net"`
	NetDisplay        string          `json:"net_display"`
	CountInFlight     int64           `json:"count_in_flight"`
	CountConsolidated int64           `json:"count_consolidated"`
}

// Trend classifies the direction of travel across compared periods.
type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFlat    Trend = "flat"
	TrendFalling Trend = "falling"
)

// PeriodNet is one period's net balance within a comparison.
type PeriodNet struct {
	Period  types.Period    `json:"period"`
	Inflow  decimal.Decimal `json:"inflow"`
	Outflow decimal.Decimal `json:"outflow"`
	Net     decimal.Decimal `json:"net"`
}

// Comparison is the multi-period comparison report.
type Comparison struct {
	Periods        []PeriodNet     `json:"periods"`
	MeanNet        decimal.Decimal `json:"mean_net"`
	FirstThirdMean decimal.Decimal `json:"first_third_mean"`
	LastThirdMean  decimal.Decimal `json:"last_third_mean"`
	Trend          Trend           `json:"trend"`
	Currency       string          `json:"currency"`
}
