package services

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Pricing and ledger error taxonomy. Validation failures are rejected before
// any mutation; ledger failures abort the compound operation with zero side
// effects.
var (
	ErrNoRateConfigured        = errors.New("no rate configured for actor and channel")
	ErrChannelInactive         = errors.New("channel is inactive")
	ErrNoSlabMatch             = errors.New("no slab matches amount")
	ErrOverlappingSlabs        = errors.New("slab ranges overlap")
	ErrSlabBelowFloor          = errors.New("slab fee below assigner floor")
	ErrInsufficientBalance     = errors.New("insufficient available balance")
	ErrInvalidLedgerTransition = errors.New("invalid ledger transition")
	ErrDataIntegrity           = errors.New("hierarchy integrity violation")
	ErrNotDirectChild          = errors.New("target is not a direct child of assigner")
	ErrDuplicateReference      = errors.New("settlement reference already exists")
	ErrActorInactive           = errors.New("actor is inactive")
	ErrNotAuthorized           = errors.New("actor lacks the required capability")
)

// RateBelowFloorError rejects a delegated rate below the assigner's floor.
type RateBelowFloorError struct {
	Actual decimal.Decimal
	Floor  decimal.Decimal
}

func (e *RateBelowFloorError) Error() string {
	return fmt.Sprintf("rate %s is below floor %s", e.Actual, e.Floor)
}
