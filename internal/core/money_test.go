package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0", "0", true},
		{"$5.50", "5.5", true},
		{" 2.50 ", "2.5", true},
		{"-1", "", false},
		{"+1", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestFormatCurrency(t *testing.T) {
	cases := map[string]string{
		"0":      "$0.00",
		"9.8555": "$9.86",
		"1234.5": "$1234.50",
		"-3.1":   "-$3.10",
		"0.004":  "$0.00",
	}
	for in, want := range cases {
		if got := FormatCurrency(decimal.RequireFromString(in)); got != want {
			t.Errorf("FormatCurrency(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestPercentAndNearlyEqual(t *testing.T) {
	if got := Percent(decimal.NewFromInt(50), decimal.NewFromInt(200)); got != 25 {
		t.Fatalf("Percent = %v, want 25", got)
	}
	if got := Percent(decimal.NewFromInt(50), decimal.Zero); got != 0 {
		t.Fatalf("Percent with zero whole = %v, want 0", got)
	}
	if !NearlyEqual(decimal.RequireFromString("10.0005"), decimal.NewFromInt(10)) {
		t.Fatal("expected values within epsilon to be equal")
	}
	if NearlyEqual(decimal.RequireFromString("10.01"), decimal.NewFromInt(10)) {
		t.Fatal("expected values beyond epsilon to differ")
	}
}
