// Package types provides common types used across Treasury.
package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// StorageScale is the number of fractional digits a Money value holds at
// rest. Stored magnitudes are always the decimal value scaled by 10^5.
const StorageScale = 5

// storageFactor is 10^StorageScale as a decimal.
var storageFactor = decimal.New(1, StorageScale)

// Conversion errors.
var (
	// ErrPrecision is returned when a decimal value carries more fractional
	// digits than the storage scale supports, or does not parse as a number.
	ErrPrecision = errors.New("treasury: amount exceeds storage precision")

	// ErrDivisionByZero is returned by DivDecimal for a zero divisor.
	ErrDivisionByZero = errors.New("treasury: division by zero")
)

// Money represents a monetary value as a scaled integer.
// All arithmetic is exact — no binary floating point, at rest or in flight.
//
// Examples:
//   - FromStored(4900000, "eur") = €49.00 (49.00000 scaled by 10^5)
//   - MustParseMoney("1960.00", "eur") = €1960.00
type Money struct {
	Amount   int64  `json:"amount"`   // Decimal value scaled by 10^StorageScale
	Currency string `json:"currency"` // ISO 4217 lowercase: "eur", "usd", "gbp"
}

// FromStored wraps an already-scaled magnitude. Callers outside the store
// layer should prefer NewMoney or ParseMoney.
func FromStored(amount int64, currency string) Money {
	return Money{Amount: amount, Currency: strings.ToLower(currency)}
}

// Zero returns a zero Money value in the specified currency.
func Zero(currency string) Money { return Money{Amount: 0, Currency: strings.ToLower(currency)} }

// NewMoney converts a decimal value into its stored representation.
// It fails with ErrPrecision when the value has more than StorageScale
// fractional digits.
func NewMoney(d decimal.Decimal, currency string) (Money, error) {
	scaled := d.Mul(storageFactor)
	if !scaled.IsInteger() {
		return Money{}, fmt.Errorf("%w: %s has more than %d fractional digits", ErrPrecision, d.String(), StorageScale)
	}
	return Money{Amount: scaled.IntPart(), Currency: strings.ToLower(currency)}, nil
}

// ParseMoney parses a decimal string into its stored representation.
// Malformed input and excess precision both fail with ErrPrecision.
func ParseMoney(s, currency string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q is not a decimal number", ErrPrecision, s)
	}
	return NewMoney(d, currency)
}

// MustParseMoney is like ParseMoney but panics on error. Use for hardcoded values.
func MustParseMoney(s, currency string) Money {
	m, err := ParseMoney(s, currency)
	if err != nil {
		panic(fmt.Sprintf("money: must parse %q: %v", s, err))
	}
	return m
}

// Decimal returns the decimal value of the stored magnitude.
// It is the pure inverse of NewMoney.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Amount, -StorageScale)
}

// Integer-exact arithmetic

// Add adds two Money values. Panics if currencies don't match.
func (m Money) Add(other Money) Money {
	m.assertSameCurrency(other)
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}
}

// Subtract subtracts another Money value. Panics if currencies don't match.
func (m Money) Subtract(other Money) Money {
	m.assertSameCurrency(other)
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}
}

// Negate returns the negative of the Money value.
func (m Money) Negate() Money {
	return Money{Amount: -m.Amount, Currency: m.Currency}
}

// Abs returns the absolute value.
func (m Money) Abs() Money {
	if m.Amount < 0 {
		return Money{Amount: -m.Amount, Currency: m.Currency}
	}
	return m
}

// Decimal arithmetic. Results are rounded to the presentation precision of
// the currency with round-half-to-even, so computing a derived value and
// storing it never re-introduces drift.

// MulDecimal multiplies the Money by a decimal factor.
func (m Money) MulDecimal(factor decimal.Decimal) (Money, error) {
	product := RoundForCurrency(m.Decimal().Mul(factor), m.Currency)
	return NewMoney(product, m.Currency)
}

// DivDecimal divides the Money by a decimal divisor.
// Fails with ErrDivisionByZero for a zero divisor.
func (m Money) DivDecimal(divisor decimal.Decimal) (Money, error) {
	if divisor.IsZero() {
		return Money{}, ErrDivisionByZero
	}
	quotient := RoundForCurrency(m.Decimal().Div(divisor), m.Currency)
	return NewMoney(quotient, m.Currency)
}

// RoundForCurrency rounds a decimal value to the presentation precision of
// the currency using round-half-to-even. Every caller that presents or
// derives a value must round through here so all paths round identically.
func RoundForCurrency(d decimal.Decimal, currency string) decimal.Decimal {
	return d.RoundBank(int32(currencyDecimals(currency)))
}

// Comparison methods

// IsZero returns true if the amount is zero.
func (m Money) IsZero() bool { return m.Amount == 0 }

// IsPositive returns true if the amount is greater than zero.
func (m Money) IsPositive() bool { return m.Amount > 0 }

// IsNegative returns true if the amount is less than zero.
func (m Money) IsNegative() bool { return m.Amount < 0 }

// Equal returns true if both Money values are equal (same amount and currency).
func (m Money) Equal(other Money) bool {
	return m.Amount == other.Amount && m.Currency == other.Currency
}

// LessThan returns true if this Money is less than other. Panics if currencies don't match.
func (m Money) LessThan(other Money) bool {
	m.assertSameCurrency(other)
	return m.Amount < other.Amount
}

// GreaterThan returns true if this Money is greater than other. Panics if currencies don't match.
func (m Money) GreaterThan(other Money) bool {
	m.assertSameCurrency(other)
	return m.Amount > other.Amount
}

// Formatting methods

// FormatMajor returns the presentation-precision string without currency
// symbol: "1960.00" for MustParseMoney("1960", "eur").
func (m Money) FormatMajor() string {
	decimals := currencyDecimals(m.Currency)
	return RoundForCurrency(m.Decimal(), m.Currency).StringFixed(int32(decimals))
}

// String returns a human-readable string with currency symbol.
// Examples: "€1960.00", "$49.00", "¥100"
func (m Money) String() string {
	return currencySymbol(m.Currency) + m.FormatMajor()
}

// MarshalJSON implements json.Marshaler. The stored magnitude never crosses
// the JSON boundary — only the decimal value and its display form.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Value    string `json:"value"`
		Currency string `json:"currency"`
		Display  string `json:"display"`
	}{
		Value:    m.Decimal().String(),
		Currency: m.Currency,
		Display:  m.String(),
	})
}

// Helper functions

// assertSameCurrency panics if currencies don't match.
func (m Money) assertSameCurrency(other Money) {
	if m.Currency != other.Currency {
		panic(fmt.Sprintf("money: currency mismatch: %s != %s", m.Currency, other.Currency))
	}
}

// currencySymbol returns the symbol for a currency code.
func currencySymbol(currency string) string {
	symbols := map[string]string{
		"usd": "$",
		"eur": "€",
		"gbp": "£",
		"jpy": "¥",
		"cad": "C$",
		"aud": "A$",
		"chf": "CHF ",
		"cny": "¥",
		"sek": "kr ",
		"nzd": "NZ$",
	}
	if sym, ok := symbols[strings.ToLower(currency)]; ok {
		return sym
	}
	return strings.ToUpper(currency) + " "
}

// currencyDecimals returns the presentation precision for a currency.
// Storage precision is always StorageScale; presentation is what users see.
func currencyDecimals(currency string) int {
	zeroDecimal := map[string]bool{
		"jpy": true, // Japanese Yen
		"krw": true, // Korean Won
		"vnd": true, // Vietnamese Dong
		"clp": true, // Chilean Peso
		"pyg": true, // Paraguayan Guarani
		"idr": true, // Indonesian Rupiah
	}
	if zeroDecimal[strings.ToLower(currency)] {
		return 0
	}
	return 2
}

// Sum calculates the sum of multiple Money values. All must have the same currency.
func Sum(values ...Money) Money {
	if len(values) == 0 {
		return Zero("eur")
	}

	result := values[0]
	for i := 1; i < len(values); i++ {
		result = result.Add(values[i])
	}
	return result
}
