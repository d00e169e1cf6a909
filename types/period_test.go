package types

import (
	"errors"
	"testing"
	"time"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		input string
		want  Period
		ok    bool
	}{
		{"2026-03", "2026-03", true},
		{"1999-12", "1999-12", true},
		{"2026-13", "", false},
		{"2026-3", "", false},
		{"march", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePeriod(tt.input)
			if tt.ok {
				if err != nil {
					t.Fatalf("ParsePeriod(%q): %v", tt.input, err)
				}
				if got != tt.want {
					t.Errorf("got %s, want %s", got, tt.want)
				}
				return
			}
			if !errors.Is(err, ErrInvalidPeriod) {
				t.Errorf("got %v, want ErrInvalidPeriod", err)
			}
		})
	}
}

func TestPeriodOf(t *testing.T) {
	// Local time near a month boundary must use the UTC month.
	loc := time.FixedZone("UTC+10", 10*3600)
	instant := time.Date(2026, 4, 1, 5, 0, 0, 0, loc) // 2026-03-31 19:00 UTC

	if got := PeriodOf(instant); got != "2026-03" {
		t.Errorf("got %s, want 2026-03", got)
	}
}

func TestPeriodNext(t *testing.T) {
	tests := []struct {
		period Period
		next   Period
	}{
		{"2026-01", "2026-02"},
		{"2026-12", "2027-01"},
	}

	for _, tt := range tests {
		if got := tt.period.Next(); got != tt.next {
			t.Errorf("%s.Next(): got %s, want %s", tt.period, got, tt.next)
		}
	}
}

func TestPeriodBefore(t *testing.T) {
	if !Period("2026-01").Before("2026-02") {
		t.Error("2026-01 should be before 2026-02")
	}
	if Period("2026-02").Before("2026-02") {
		t.Error("a period is not before itself")
	}
	if Period("2027-01").Before("2026-12") {
		t.Error("2027-01 should not be before 2026-12")
	}
}
