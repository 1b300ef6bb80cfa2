package services

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/resellpay/resellpay_backend/models"
)

// ResolveSlabFee returns the flat fee of the slab covering amount, scanning
// in ascending minAmount order. The caller is responsible for having
// validated non-overlap at assignment time; a miss here is a configuration
// bug and surfaces as ErrNoSlabMatch rather than a guessed fee.
func ResolveSlabFee(slabs []models.Slab, amount decimal.Decimal) (decimal.Decimal, error) {
	ordered := SortSlabs(slabs)
	for _, s := range ordered {
		if s.Matches(amount) {
			return s.FlatFee, nil
		}
	}
	return decimal.Zero, ErrNoSlabMatch
}

// SortSlabs returns a copy of slabs ordered by ascending minAmount.
func SortSlabs(slabs []models.Slab) []models.Slab {
	ordered := make([]models.Slab, len(slabs))
	copy(ordered, slabs)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].MinAmount.LessThan(ordered[j].MinAmount)
	})
	return ordered
}

// ValidateSlabs checks that a slab table is well formed: ranges sorted by
// minAmount must not overlap, each bounded slab must have max >= min, and
// only the last slab may omit its max (the catch-all).
func ValidateSlabs(slabs []models.Slab) error {
	if len(slabs) == 0 {
		return ErrNoSlabMatch
	}
	ordered := SortSlabs(slabs)
	for i, s := range ordered {
		if s.FlatFee.IsNegative() || s.MinAmount.IsNegative() {
			return ErrOverlappingSlabs
		}
		if s.MaxAmount != nil && s.MaxAmount.LessThan(s.MinAmount) {
			return ErrOverlappingSlabs
		}
		if s.MaxAmount == nil && i != len(ordered)-1 {
			// An unbounded slab anywhere but last swallows its successors.
			return ErrOverlappingSlabs
		}
		if i > 0 {
			prev := ordered[i-1]
			if prev.MaxAmount == nil || !s.MinAmount.GreaterThan(*prev.MaxAmount) {
				return ErrOverlappingSlabs
			}
		}
	}
	return nil
}
