package report

import (
	"github.com/shopspring/decimal"

	"github.com/xraph/treasury/transaction"
)

// originLabel maps an origin to its statement label. The switch is
// exhaustive over the closed origin set so a new origin is a compile-visible
// change here, not a silently dropped line.
func originLabel(o transaction.Origin) string {
	switch o {
	case transaction.OriginModelEarnings:
		return "Model earnings"
	case transaction.OriginFixedCost:
		return "Fixed costs"
	case transaction.OriginPayroll:
		return "Payroll"
	case transaction.OriginManualAdjustment:
		return "Manual adjustments"
	case transaction.OriginCostConsolidation:
		return "Cost consolidation"
	}
	return string(o)
}

// BuildCashFlow derives the cash-flow statement of one period from its
// transaction summary. Lines keep the stable origin order; origins with no
// activity stay in the statement with zero values.
func BuildCashFlow(s *transaction.Summary) *CashFlow {
	lines := make([]CashFlowLine, 0, len(transaction.Origins()))
	for _, o := range transaction.Origins() {
		totals := s.ByOrigin[o]
		lines = append(lines, CashFlowLine{
			Origin:  o,
			Label:   originLabel(o),
			Inflow:  totals.Inflow.Decimal(),
			Outflow: totals.Outflow.Decimal(),
			Net:     totals.Net.Decimal(),
			Count:   totals.Count,
		})
	}

	return &CashFlow{
		Period:            s.Period,
		Currency:          s.Currency,
		Lines:             lines,
		TotalInflow:       s.TotalInflow.Decimal(),
		TotalOutflow:      s.TotalOutflow.Decimal(),
		Net:               s.Net.Decimal(),
		NetDisplay:        s.Net.String(),
		CountInFlight:     s.CountInFlight,
		CountConsolidated: s.CountConsolidated,
	}
}

// BuildComparison derives the multi-period comparison from per-period
// summaries, in the order supplied. The trend compares the mean net of the
// first third of the periods against the last third; a difference within
// tolerance counts as flat.
func BuildComparison(summaries []*transaction.Summary, tolerance decimal.Decimal) *Comparison {
	cmp := &Comparison{
		Periods: make([]PeriodNet, 0, len(summaries)),
		Trend:   TrendFlat,
	}
	if len(summaries) == 0 {
		return cmp
	}
	cmp.Currency = summaries[0].Currency

	nets := make([]decimal.Decimal, 0, len(summaries))
	total := decimal.Zero
	for _, s := range summaries {
		net := s.Net.Decimal()
		cmp.Periods = append(cmp.Periods, PeriodNet{
			Period:  s.Period,
			Inflow:  s.TotalInflow.Decimal(),
			Outflow: s.TotalOutflow.Decimal(),
			Net:     net,
		})
		nets = append(nets, net)
		total = total.Add(net)
	}
	cmp.MeanNet = total.Div(decimal.NewFromInt(int64(len(nets))))

	// Thirds never go below one period, so two-period comparisons still
	// compare first against last.
	third := len(nets) / 3
	if third == 0 {
		third = 1
	}
	cmp.FirstThirdMean = mean(nets[:third])
	cmp.LastThirdMean = mean(nets[len(nets)-third:])

	diff := cmp.LastThirdMean.Sub(cmp.FirstThirdMean)
	switch {
	case diff.Abs().LessThanOrEqual(tolerance):
		cmp.Trend = TrendFlat
	case diff.IsPositive():
		cmp.Trend = TrendRising
	default:
		cmp.Trend = TrendFalling
	}
	return cmp
}

func mean(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total.Div(decimal.NewFromInt(int64(len(values))))
}
