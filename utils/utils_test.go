package utils_test

import (
	"math"
	"testing"
	"time"

	"github.com/meenmo/hwlib/utils"
)

func TestAddMonth(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in     string
		months int
		want   string
	}{
		{"2025-01-31", 1, "2025-02-28"},
		{"2024-01-31", 1, "2024-02-29"},
		{"2025-03-15", 12, "2026-03-15"},
		{"2025-05-31", -1, "2025-04-30"},
	}
	for _, tc := range cases {
		in, err := utils.ParseDate(tc.in)
		if err != nil {
			t.Fatalf("ParseDate: %v", err)
		}
		if got := utils.AddMonth(in, tc.months).Format("2006-01-02"); got != tc.want {
			t.Fatalf("AddMonth(%s, %d) mismatch: got %s want %s", tc.in, tc.months, got, tc.want)
		}
	}
}

func TestYearFraction(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC)

	if got, want := utils.YearFraction(start, end, utils.ACT365F), 181.0/365.0; math.Abs(got-want) > 1e-15 {
		t.Fatalf("ACT/365F mismatch: got %v want %v", got, want)
	}
	if got, want := utils.YearFraction(start, end, utils.ACT360), 181.0/360.0; math.Abs(got-want) > 1e-15 {
		t.Fatalf("ACT/360 mismatch: got %v want %v", got, want)
	}
	if got := utils.YearFraction(start, end, utils.Thirty360); math.Abs(got-0.5) > 1e-15 {
		t.Fatalf("30/360 mismatch: got %v", got)
	}
	if err := utils.CheckDayCount("BUS/252"); err == nil {
		t.Fatalf("expected unsupported day count error")
	}
}
