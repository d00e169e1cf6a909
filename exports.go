package treasury

import "github.com/xraph/treasury/types"

// Re-export common types for convenience so users don't have to import types package.

// Money is re-exported from types package.
type Money = types.Money

// Period is re-exported from types package.
type Period = types.Period

// Entity is re-exported from types package.
type Entity = types.Entity

// Re-export Money constructors
var (
	NewMoney       = types.NewMoney
	ParseMoney     = types.ParseMoney
	MustParseMoney = types.MustParseMoney
	FromStored     = types.FromStored
	Zero           = types.Zero
	Sum            = types.Sum
)

// Re-export Period constructors
var (
	PeriodOf      = types.PeriodOf
	CurrentPeriod = types.CurrentPeriod
	ParsePeriod   = types.ParsePeriod
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
