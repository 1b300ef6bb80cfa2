package utils

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRoundMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"5.99994", "6"},
		{"5.005", "5.01"}, // half rounds up
		{"5.004", "5"},
		{"180", "180"},
		{"0.125", "0.13"},
	}
	for _, tc := range tests {
		got := RoundMoney(decimal.RequireFromString(tc.in))
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Errorf("RoundMoney(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	if _, err := ParseAmount("0"); err == nil {
		t.Error("zero amount accepted")
	}
	if _, err := ParseAmount("-5"); err == nil {
		t.Error("negative amount accepted")
	}
	if _, err := ParseAmount("abc"); err == nil {
		t.Error("garbage accepted")
	}
	got, err := ParseAmount("100.50")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(decimal.RequireFromString("100.50")) {
		t.Errorf("ParseAmount = %s, want 100.50", got)
	}
}

func TestParseRate(t *testing.T) {
	if _, err := ParseRate("1"); err == nil {
		t.Error("rate of 1 accepted")
	}
	if _, err := ParseRate("-0.01"); err == nil {
		t.Error("negative rate accepted")
	}
	got, err := ParseRate("0.018")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(decimal.RequireFromString("0.018")) {
		t.Errorf("ParseRate = %s, want 0.018", got)
	}
	if _, err := ParseRate("0"); err != nil {
		t.Errorf("zero rate rejected: %v", err)
	}
}

func TestGenerateReference(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		ref, err := GenerateReference(PayoutReference)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(ref, "PO-") {
			t.Fatalf("reference %q missing PO- prefix", ref)
		}
		if seen[ref] {
			t.Fatalf("duplicate reference %q", ref)
		}
		seen[ref] = true
	}
}
