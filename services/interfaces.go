package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/resellpay/resellpay_backend/models"
)

// Clock supplies timestamps so tests can pin time.
type Clock func() time.Time

// ActorDirectory resolves actors and their parent references. Implementations
// carry bounded timeouts; callers never walk more than
// models.MaxHierarchyDepth hops.
type ActorDirectory interface {
	GetActor(ctx context.Context, id primitive.ObjectID) (*models.Actor, error)
	GetRootActor(ctx context.Context) (*models.Actor, error)
}

// RateStore persists channels, rate assignments, tier defaults and slab
// configurations. Lookups return (nil, nil) when no row exists so resolvers
// can fall through the override chain.
type RateStore interface {
	GetChannel(ctx context.Context, id primitive.ObjectID) (*models.Channel, error)
	GetRateAssignment(ctx context.Context, actorID, channelID primitive.ObjectID) (*models.RateAssignment, error)
	GetTierRateDefault(ctx context.Context, tier models.Tier, channelID primitive.ObjectID) (*models.TierRateDefault, error)
	GetSlabConfig(ctx context.Context, ownerKey string) (*models.SlabConfig, error)
	UpsertRateAssignment(ctx context.Context, ra *models.RateAssignment) error
	UpsertSlabConfig(ctx context.Context, cfg *models.SlabConfig) error
}

// BalanceChange is one atomic mutation of a single account: deltas applied to
// the two balances plus the entry (if any) appended alongside. The store must
// apply it all-or-nothing and reject any change that would drive a balance
// negative.
type BalanceChange struct {
	AccountID      primitive.ObjectID
	AvailableDelta decimal.Decimal
	HeldDelta      decimal.Decimal
	Entry          *models.LedgerEntry
}

// LedgerStore persists accounts and their append-only entries.
type LedgerStore interface {
	GetAccount(ctx context.Context, id primitive.ObjectID) (*models.Account, error)
	GetAccountByActor(ctx context.Context, actorID primitive.ObjectID) (*models.Account, error)
	// Apply applies one or more balance changes atomically; either every
	// change lands or none does. ErrInsufficientBalance when a guard fails.
	Apply(ctx context.Context, changes ...BalanceChange) error
	ListEntries(ctx context.Context, accountID primitive.ObjectID, limit, offset int64) ([]models.LedgerEntry, error)
}

// SettlementStore persists settlements, commission records and the failed
// commission retry queue.
type SettlementStore interface {
	CreateSettlement(ctx context.Context, s *models.Settlement) error
	GetSettlement(ctx context.Context, reference string) (*models.Settlement, error)
	// TransitionSettlement flips a settlement from one status to another,
	// guarded: ErrInvalidLedgerTransition when the settlement is not
	// currently in from.
	TransitionSettlement(ctx context.Context, reference, from, to string, at time.Time) error
	SaveCommission(ctx context.Context, c *models.Commission) error
	SaveCommissionFailure(ctx context.Context, f *models.CommissionFailure) error
	PendingCommissionFailures(ctx context.Context, limit int64) ([]models.CommissionFailure, error)
	ResolveCommissionFailure(ctx context.Context, id primitive.ObjectID) error
}
