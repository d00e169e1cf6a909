package types

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		currency string
		amount   int64
		display  string
	}{
		{"whole euros", "1960", "eur", 196000000, "€1960.00"},
		{"two decimals", "49.00", "eur", 4900000, "€49.00"},
		{"five decimals", "0.00001", "eur", 1, "€0.00"},
		{"negative", "-120.50", "usd", -12050000, "$-120.50"},
		{"zero", "0", "gbp", 0, "£0.00"},
		{"yen no decimals", "100", "jpy", 10000000, "¥100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseMoney(tt.input, tt.currency)
			if err != nil {
				t.Fatalf("ParseMoney(%q): %v", tt.input, err)
			}
			if m.Amount != tt.amount {
				t.Errorf("Amount: got %d, want %d", m.Amount, tt.amount)
			}
			if m.Currency != tt.currency {
				t.Errorf("Currency: got %s, want %s", m.Currency, tt.currency)
			}
			if m.String() != tt.display {
				t.Errorf("Display: got %s, want %s", m.String(), tt.display)
			}
		})
	}
}

func TestParseMoneyPrecision(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"six decimals", "1.000001"},
		{"not a number", "abc"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMoney(tt.input, "eur")
			if !errors.Is(err, ErrPrecision) {
				t.Errorf("got %v, want ErrPrecision", err)
			}
		})
	}
}

func TestMoneyDecimalRoundTrip(t *testing.T) {
	inputs := []string{"0", "0.00001", "1960", "-42.5", "99999999.99999"}

	for _, input := range inputs {
		m := MustParseMoney(input, "eur")
		back, err := NewMoney(m.Decimal(), "eur")
		if err != nil {
			t.Fatalf("round trip %q: %v", input, err)
		}
		if !back.Equal(m) {
			t.Errorf("round trip %q: got %d, want %d", input, back.Amount, m.Amount)
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	eur := func(s string) Money { return MustParseMoney(s, "eur") }

	tests := []struct {
		name     string
		op       func() Money
		expected Money
	}{
		{"Add", func() Money { return eur("100").Add(eur("200")) }, eur("300")},
		{"Subtract", func() Money { return eur("500").Subtract(eur("200")) }, eur("300")},
		{"Negate", func() Money { return eur("100").Negate() }, eur("-100")},
		{"Abs positive", func() Money { return eur("100").Abs() }, eur("100")},
		{"Abs negative", func() Money { return eur("-100").Abs() }, eur("100")},
		{"Complex", func() Money {
			return eur("1000").Add(eur("500")).Subtract(eur("250"))
		}, eur("1250")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.op()
			if !result.Equal(tt.expected) {
				t.Errorf("Got %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMoneyMulDecimal(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		factor   string
		expected string
	}{
		{"commission", "1960", "0.30", "588"},
		{"half cent rounds to even down", "1", "0.005", "0"},
		{"one and a half cents rounds to even up", "1", "0.015", "0.02"},
		{"identity", "49.99", "1", "49.99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := MustParseMoney(tt.base, "eur")
			factor := decimal.RequireFromString(tt.factor)
			got, err := base.MulDecimal(factor)
			if err != nil {
				t.Fatalf("MulDecimal: %v", err)
			}
			want := MustParseMoney(tt.expected, "eur")
			if !got.Equal(want) {
				t.Errorf("got %s, want %s", got.FormatMajor(), want.FormatMajor())
			}
		})
	}
}

func TestMoneyDivisionByZero(t *testing.T) {
	_, err := MustParseMoney("100", "eur").DivDecimal(decimal.Zero)
	if !errors.Is(err, ErrDivisionByZero) {
		t.Errorf("got %v, want ErrDivisionByZero", err)
	}
}

func TestMoneyCurrencyMismatch(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for currency mismatch")
		}
	}()

	// This should panic
	_ = MustParseMoney("100", "usd").Add(MustParseMoney("100", "eur"))
}

func TestMoneyJSONHidesStoredMagnitude(t *testing.T) {
	m := MustParseMoney("1960.00", "eur")

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	s := string(data)
	if strings.Contains(s, "196000000") {
		t.Errorf("JSON leaks stored magnitude: %s", s)
	}
	if !strings.Contains(s, `"value":"1960"`) {
		t.Errorf("JSON missing decimal value: %s", s)
	}
	if !strings.Contains(s, `"display":"€1960.00"`) {
		t.Errorf("JSON missing display: %s", s)
	}
}

func TestSum(t *testing.T) {
	values := []Money{
		MustParseMoney("10", "eur"),
		MustParseMoney("20.50", "eur"),
		MustParseMoney("-5.25", "eur"),
	}

	got := Sum(values...)
	want := MustParseMoney("25.25", "eur")
	if !got.Equal(want) {
		t.Errorf("got %s, want %s", got.FormatMajor(), want.FormatMajor())
	}
}
