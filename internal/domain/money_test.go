package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPercentOfRoundsHalfAwayFromZero(t *testing.T) {
	cases := []struct {
		amount int64
		pct    string
		want   int64
	}{
		{amount: 10000, pct: "1.5", want: 150},
		{amount: 333, pct: "1.5", want: 5},
		{amount: 100, pct: "0.5", want: 1},
		{amount: 99, pct: "0.5", want: 0},
		{amount: 250000, pct: "5", want: 12500},
		{amount: 1000, pct: "0", want: 0},
	}
	for _, tc := range cases {
		got := PercentOf(tc.amount, decimal.RequireFromString(tc.pct))
		if got != tc.want {
			t.Fatalf("PercentOf(%d, %s) = %d, want %d", tc.amount, tc.pct, got, tc.want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	got, err := ParseAmount(" 123.45 ")
	if err != nil || got != 12345 {
		t.Fatalf("expected 12345, got %d (%v)", got, err)
	}
	if got, _ := ParseAmount("10"); got != 1000 {
		t.Fatalf("expected 1000, got %d", got)
	}
	if got, err := ParseAmount("92233720368547758.07"); err != nil || got != math.MaxInt64 {
		t.Fatalf("expected max int64 cents, got %d (%v)", got, err)
	}
	for _, raw := range []string{"", "abc", "1.234", "100000000000000000", "92233720368547758.08", "1e30", "-1e30"} {
		if _, err := ParseAmount(raw); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount for %q, got %v", raw, err)
		}
	}
}

func TestFormatCents(t *testing.T) {
	if got := FormatCents(12345); got != "123.45" {
		t.Fatalf("unexpected format: %s", got)
	}
	if got := FormatCents(-5); got != "-0.05" {
		t.Fatalf("unexpected negative format: %s", got)
	}
}
