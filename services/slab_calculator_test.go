package services

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/resellpay/resellpay_backend/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func payoutSlabs() []models.Slab {
	return []models.Slab{
		{MinAmount: dec("0"), MaxAmount: decPtr("10000"), FlatFee: dec("10")},
		{MinAmount: dec("10001"), MaxAmount: decPtr("50000"), FlatFee: dec("12")},
		{MinAmount: dec("50001"), MaxAmount: decPtr("200000"), FlatFee: dec("18")},
		{MinAmount: dec("200001"), FlatFee: dec("25")},
	}
}

func TestResolveSlabFee(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		want    string
		wantErr error
	}{
		{name: "lowest slab", amount: "500", want: "10"},
		{name: "inclusive upper bound", amount: "10000", want: "10"},
		{name: "next slab starts past bound", amount: "10001", want: "12"},
		{name: "mid range", amount: "75000", want: "18"},
		{name: "inclusive upper bound of third slab", amount: "200000", want: "18"},
		{name: "catch-all", amount: "950000", want: "25"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fee, err := ResolveSlabFee(payoutSlabs(), dec(tc.amount))
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("ResolveSlabFee(%s) error = %v, want %v", tc.amount, err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveSlabFee(%s) unexpected error: %v", tc.amount, err)
			}
			if !fee.Equal(dec(tc.want)) {
				t.Errorf("ResolveSlabFee(%s) = %s, want %s", tc.amount, fee, tc.want)
			}
		})
	}
}

func TestResolveSlabFeeNoMatch(t *testing.T) {
	slabs := []models.Slab{
		{MinAmount: dec("100"), MaxAmount: decPtr("500"), FlatFee: dec("5")},
	}
	if _, err := ResolveSlabFee(slabs, dec("50")); !errors.Is(err, ErrNoSlabMatch) {
		t.Errorf("amount below first slab: error = %v, want ErrNoSlabMatch", err)
	}
	if _, err := ResolveSlabFee(slabs, dec("501")); !errors.Is(err, ErrNoSlabMatch) {
		t.Errorf("amount above bounded table: error = %v, want ErrNoSlabMatch", err)
	}
}

func TestResolveSlabFeeUnorderedInput(t *testing.T) {
	slabs := payoutSlabs()
	// Reverse the table; resolution must not depend on input order.
	for i, j := 0, len(slabs)-1; i < j; i, j = i+1, j-1 {
		slabs[i], slabs[j] = slabs[j], slabs[i]
	}
	fee, err := ResolveSlabFee(slabs, dec("75000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fee.Equal(dec("18")) {
		t.Errorf("fee = %s, want 18", fee)
	}
}

func TestValidateSlabs(t *testing.T) {
	tests := []struct {
		name    string
		slabs   []models.Slab
		wantErr bool
	}{
		{
			name:  "valid table",
			slabs: payoutSlabs(),
		},
		{
			name: "single catch-all",
			slabs: []models.Slab{
				{MinAmount: dec("0"), FlatFee: dec("5")},
			},
		},
		{
			name:    "empty",
			slabs:   nil,
			wantErr: true,
		},
		{
			name: "overlapping ranges",
			slabs: []models.Slab{
				{MinAmount: dec("0"), MaxAmount: decPtr("10000"), FlatFee: dec("10")},
				{MinAmount: dec("10000"), MaxAmount: decPtr("50000"), FlatFee: dec("12")},
			},
			wantErr: true,
		},
		{
			name: "unbounded slab not last",
			slabs: []models.Slab{
				{MinAmount: dec("0"), FlatFee: dec("10")},
				{MinAmount: dec("10001"), MaxAmount: decPtr("50000"), FlatFee: dec("12")},
			},
			wantErr: true,
		},
		{
			name: "max below min",
			slabs: []models.Slab{
				{MinAmount: dec("100"), MaxAmount: decPtr("50"), FlatFee: dec("10")},
			},
			wantErr: true,
		},
		{
			name: "negative fee",
			slabs: []models.Slab{
				{MinAmount: dec("0"), MaxAmount: decPtr("100"), FlatFee: dec("-1")},
			},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateSlabs(tc.slabs)
			if tc.wantErr && err == nil {
				t.Error("ValidateSlabs() = nil, want error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("ValidateSlabs() unexpected error: %v", err)
			}
		})
	}
}
