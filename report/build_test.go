package report

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/xraph/treasury/transaction"
	"github.com/xraph/treasury/types"
)

func summaryWithNet(period types.Period, inflow, outflow string) *transaction.Summary {
	s := transaction.NewSummary(period, "eur")
	s.TotalInflow = types.MustParseMoney(inflow, "eur")
	s.TotalOutflow = types.MustParseMoney(outflow, "eur")
	s.Net = s.TotalInflow.Subtract(s.TotalOutflow)
	return s
}

func TestBuildCashFlowIncludesAllOrigins(t *testing.T) {
	s := transaction.NewSummary("2026-03", "eur")

	inflow := &transaction.Transaction{
		Period:    "2026-03",
		Direction: transaction.DirectionInflow,
		Origin:    transaction.OriginModelEarnings,
		Amount:    types.MustParseMoney("1960", "eur"),
		State:     transaction.StateInFlight,
	}
	outflow := &transaction.Transaction{
		Period:    "2026-03",
		Direction: transaction.DirectionOutflow,
		Origin:    transaction.OriginPayroll,
		Amount:    types.MustParseMoney("800", "eur"),
		State:     transaction.StateInFlight,
	}
	s.Accumulate(inflow)
	s.Accumulate(outflow)

	cf := BuildCashFlow(s)

	if len(cf.Lines) != len(transaction.Origins()) {
		t.Fatalf("lines: got %d, want %d", len(cf.Lines), len(transaction.Origins()))
	}
	for i, o := range transaction.Origins() {
		if cf.Lines[i].Origin != o {
			t.Errorf("line %d: got origin %s, want %s", i, cf.Lines[i].Origin, o)
		}
	}

	if !cf.Net.Equal(decimal.RequireFromString("1160")) {
		t.Errorf("net: got %s, want 1160", cf.Net)
	}
	if cf.NetDisplay != "€1160.00" {
		t.Errorf("net display: got %s", cf.NetDisplay)
	}

	// Idle origins stay in the statement with zero values.
	for _, line := range cf.Lines {
		if line.Origin == transaction.OriginFixedCost && !line.Net.IsZero() {
			t.Errorf("idle origin should be zero, got %s", line.Net)
		}
	}
}

func TestBuildComparisonTrend(t *testing.T) {
	tests := []struct {
		name     string
		nets     [][2]string // inflow, outflow per period
		expected Trend
	}{
		{
			name: "rising",
			nets: [][2]string{
				{"100", "0"}, {"200", "0"}, {"300", "0"},
				{"400", "0"}, {"500", "0"}, {"600", "0"},
			},
			expected: TrendRising,
		},
		{
			name: "falling",
			nets: [][2]string{
				{"600", "0"}, {"500", "0"}, {"400", "0"},
				{"300", "0"}, {"200", "0"}, {"100", "0"},
			},
			expected: TrendFalling,
		},
		{
			name: "flat within tolerance",
			nets: [][2]string{
				{"100", "0"}, {"100.50", "0"}, {"99.80", "0"},
			},
			expected: TrendFlat,
		},
		{
			name: "two periods compare first against last",
			nets: [][2]string{
				{"100", "0"}, {"500", "0"},
			},
			expected: TrendRising,
		},
	}

	tolerance := decimal.RequireFromString("1")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summaries := make([]*transaction.Summary, 0, len(tt.nets))
			period := types.Period("2026-01")
			for _, n := range tt.nets {
				summaries = append(summaries, summaryWithNet(period, n[0], n[1]))
				period = period.Next()
			}

			cmp := BuildComparison(summaries, tolerance)
			if cmp.Trend != tt.expected {
				t.Errorf("trend: got %s, want %s (first %s, last %s)",
					cmp.Trend, tt.expected, cmp.FirstThirdMean, cmp.LastThirdMean)
			}
			if len(cmp.Periods) != len(tt.nets) {
				t.Errorf("periods: got %d, want %d", len(cmp.Periods), len(tt.nets))
			}
		})
	}
}

func TestBuildComparisonEmpty(t *testing.T) {
	cmp := BuildComparison(nil, decimal.Zero)
	if cmp.Trend != TrendFlat {
		t.Errorf("empty comparison trend: got %s, want flat", cmp.Trend)
	}
	if len(cmp.Periods) != 0 {
		t.Errorf("empty comparison periods: got %d", len(cmp.Periods))
	}
}

func TestBuildComparisonMeanNet(t *testing.T) {
	summaries := []*transaction.Summary{
		summaryWithNet("2026-01", "100", "0"),
		summaryWithNet("2026-02", "300", "100"),
	}

	cmp := BuildComparison(summaries, decimal.Zero)
	if !cmp.MeanNet.Equal(decimal.RequireFromString("150")) {
		t.Errorf("mean net: got %s, want 150", cmp.MeanNet)
	}
}
