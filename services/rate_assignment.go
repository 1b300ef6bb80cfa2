package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/resellpay/resellpay_backend/models"
)

// RateAssignmentService validates and applies downward pricing delegation.
// The single invariant it defends: no actor is ever priced below
// max(channel cost basis, assigner's own effective pricing). All checks run
// before any write; a rejection leaves nothing partially applied.
type RateAssignmentService struct {
	actors   ActorDirectory
	rates    RateStore
	resolver *RateResolver
	cache    *PricingCache
	now      Clock
}

func NewRateAssignmentService(actors ActorDirectory, rates RateStore, resolver *RateResolver, cache *PricingCache, now Clock) *RateAssignmentService {
	return &RateAssignmentService{actors: actors, rates: rates, resolver: resolver, cache: cache, now: now}
}

// AssignRate upserts the target's percentage rate on an inbound channel.
// Idempotent per (target, channel).
func (s *RateAssignmentService) AssignRate(ctx context.Context, assignerID, targetID, channelID primitive.ObjectID, rate decimal.Decimal) error {
	assigner, target, err := s.loadPair(ctx, assignerID, targetID)
	if err != nil {
		return err
	}

	channel, err := s.rates.GetChannel(ctx, channelID)
	if err != nil {
		return fmt.Errorf("loading channel: %w", err)
	}
	if channel == nil {
		return ErrNoRateConfigured
	}
	if !channel.IsActive {
		return ErrChannelInactive
	}
	if channel.Direction != models.DirectionInbound {
		return fmt.Errorf("channel %s is not an inbound channel", channel.Code)
	}

	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("rate must be in [0,1), got %s", rate)
	}

	floor, err := s.resolver.FloorRate(ctx, assigner, channel)
	if err != nil {
		return err
	}
	if rate.LessThan(floor) {
		return &RateBelowFloorError{Actual: rate, Floor: floor}
	}

	now := s.now()
	if err := s.rates.UpsertRateAssignment(ctx, &models.RateAssignment{
		ActorID:    target.ID,
		ChannelID:  channel.ID,
		Rate:       rate,
		AssignedBy: assigner.ID,
		Enabled:    true,
		UpdatedAt:  now,
	}); err != nil {
		return fmt.Errorf("saving rate assignment: %w", err)
	}

	if s.cache != nil {
		s.cache.Bump(ctx)
	}
	return nil
}

// DisableRateAssignment removes the target's override so pricing falls back
// to its tier default. The fallback may be absent (resolution then fails
// loudly) but is never allowed to sit below the channel's cost basis.
func (s *RateAssignmentService) DisableRateAssignment(ctx context.Context, assignerID, targetID, channelID primitive.ObjectID) error {
	assigner, target, err := s.loadPair(ctx, assignerID, targetID)
	if err != nil {
		return err
	}

	channel, err := s.rates.GetChannel(ctx, channelID)
	if err != nil {
		return fmt.Errorf("loading channel: %w", err)
	}
	if channel == nil {
		return ErrNoRateConfigured
	}

	fallback, err := s.rates.GetTierRateDefault(ctx, target.Tier, channel.ID)
	if err != nil {
		return fmt.Errorf("loading tier default: %w", err)
	}
	if fallback != nil && fallback.Rate.LessThan(channel.CostBasis) {
		return &RateBelowFloorError{Actual: fallback.Rate, Floor: channel.CostBasis}
	}

	if err := s.rates.UpsertRateAssignment(ctx, &models.RateAssignment{
		ActorID:    target.ID,
		ChannelID:  channel.ID,
		Rate:       decimal.Zero,
		AssignedBy: assigner.ID,
		Enabled:    false,
		UpdatedAt:  s.now(),
	}); err != nil {
		return fmt.Errorf("disabling rate assignment: %w", err)
	}

	if s.cache != nil {
		s.cache.Bump(ctx)
	}
	return nil
}

// AssignSlabs upserts the target's payout slab table after checking the
// ranges are non-overlapping and no fee undercuts the assigner's own fee for
// an overlapping amount range.
func (s *RateAssignmentService) AssignSlabs(ctx context.Context, assignerID, targetID primitive.ObjectID, slabs []models.Slab) error {
	assigner, target, err := s.loadPair(ctx, assignerID, targetID)
	if err != nil {
		return err
	}

	if err := ValidateSlabs(slabs); err != nil {
		return err
	}

	if !assigner.IsRoot() {
		assignerSlabs, err := s.resolver.EffectiveSlabs(ctx, assigner.ID)
		if err != nil {
			return fmt.Errorf("loading assigner slabs: %w", err)
		}
		if err := checkSlabFloor(slabs, assignerSlabs); err != nil {
			return err
		}
	}

	if err := s.rates.UpsertSlabConfig(ctx, &models.SlabConfig{
		OwnerKey:   target.ID.Hex(),
		Slabs:      SortSlabs(slabs),
		AssignedBy: assigner.ID,
		UpdatedAt:  s.now(),
	}); err != nil {
		return fmt.Errorf("saving slab config: %w", err)
	}

	if s.cache != nil {
		s.cache.Bump(ctx)
	}
	return nil
}

// AssignTierSlabs upserts the fallback slab table for a whole tier. Actors
// without a table of their own resolve payout fees against it. Only the root
// authority may set tier fallbacks; there is no child-of check because the
// table applies hierarchy-wide.
func (s *RateAssignmentService) AssignTierSlabs(ctx context.Context, assignerID primitive.ObjectID, tier models.Tier, slabs []models.Slab) error {
	assigner, err := s.actors.GetActor(ctx, assignerID)
	if err != nil {
		return fmt.Errorf("loading assigner: %w", err)
	}
	if assigner == nil || !assigner.IsActive {
		return ErrActorInactive
	}
	if !assigner.IsRoot() {
		return ErrNotAuthorized
	}

	if err := ValidateSlabs(slabs); err != nil {
		return err
	}

	if err := s.rates.UpsertSlabConfig(ctx, &models.SlabConfig{
		OwnerKey:   string(tier),
		Slabs:      SortSlabs(slabs),
		AssignedBy: assigner.ID,
		UpdatedAt:  s.now(),
	}); err != nil {
		return fmt.Errorf("saving tier slab config: %w", err)
	}

	if s.cache != nil {
		s.cache.Bump(ctx)
	}
	return nil
}

func (s *RateAssignmentService) loadPair(ctx context.Context, assignerID, targetID primitive.ObjectID) (*models.Actor, *models.Actor, error) {
	assigner, err := s.actors.GetActor(ctx, assignerID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading assigner: %w", err)
	}
	if assigner == nil || !assigner.IsActive {
		return nil, nil, ErrActorInactive
	}
	if !models.HasCapability(assigner.Tier, models.CapAssignPricing) {
		return nil, nil, ErrNotAuthorized
	}

	target, err := s.actors.GetActor(ctx, targetID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading target: %w", err)
	}
	if target == nil || !target.IsActive {
		return nil, nil, ErrActorInactive
	}

	// The root authority may assign to anyone; everyone else only to a
	// direct child.
	if !assigner.IsRoot() {
		if target.ParentID == nil || *target.ParentID != assigner.ID {
			return nil, nil, ErrNotDirectChild
		}
	}
	return assigner, target, nil
}

// checkSlabFloor rejects any target slab whose fee is lower than the
// assigner's fee for an overlapping amount range.
func checkSlabFloor(target, assigner []models.Slab) error {
	for _, t := range target {
		for _, a := range assigner {
			if !slabsOverlap(t, a) {
				continue
			}
			if t.FlatFee.LessThan(a.FlatFee) {
				return ErrSlabBelowFloor
			}
		}
	}
	return nil
}

func slabsOverlap(a, b models.Slab) bool {
	if b.MaxAmount != nil && a.MinAmount.GreaterThan(*b.MaxAmount) {
		return false
	}
	if a.MaxAmount != nil && b.MinAmount.GreaterThan(*a.MaxAmount) {
		return false
	}
	return true
}
