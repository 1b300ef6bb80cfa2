package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/resellpay/resellpay_backend/models"
)

// RateResolver resolves the pricing effective for an actor on a channel,
// following the override chain: actor-specific enabled assignment, then the
// actor's tier default, then failure. Outbound pricing resolves a slab table
// the same way and delegates the range match to the slab calculator.
type RateResolver struct {
	actors ActorDirectory
	rates  RateStore
	cache  *PricingCache // optional; nil skips caching
}

func NewRateResolver(actors ActorDirectory, rates RateStore, cache *PricingCache) *RateResolver {
	return &RateResolver{actors: actors, rates: rates, cache: cache}
}

// EffectiveInboundRate returns the percentage rate the actor pays on an
// inbound channel.
func (r *RateResolver) EffectiveInboundRate(ctx context.Context, actorID, channelID primitive.ObjectID) (decimal.Decimal, error) {
	channel, err := r.rates.GetChannel(ctx, channelID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("loading channel: %w", err)
	}
	if channel == nil {
		return decimal.Zero, ErrNoRateConfigured
	}
	if !channel.IsActive {
		return decimal.Zero, ErrChannelInactive
	}

	if r.cache != nil {
		if rate, ok := r.cache.GetRate(ctx, actorID, channelID); ok {
			return rate, nil
		}
	}

	rate, err := r.resolveInbound(ctx, actorID, channelID)
	if err != nil {
		return decimal.Zero, err
	}

	if r.cache != nil {
		r.cache.PutRate(ctx, actorID, channelID, rate)
	}
	return rate, nil
}

func (r *RateResolver) resolveInbound(ctx context.Context, actorID, channelID primitive.ObjectID) (decimal.Decimal, error) {
	assignment, err := r.rates.GetRateAssignment(ctx, actorID, channelID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("loading rate assignment: %w", err)
	}
	if assignment != nil && assignment.Enabled {
		return assignment.Rate, nil
	}

	actor, err := r.actors.GetActor(ctx, actorID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("loading actor: %w", err)
	}
	if actor == nil {
		return decimal.Zero, ErrNoRateConfigured
	}

	fallback, err := r.rates.GetTierRateDefault(ctx, actor.Tier, channelID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("loading tier default: %w", err)
	}
	if fallback != nil {
		return fallback.Rate, nil
	}
	return decimal.Zero, ErrNoRateConfigured
}

// EffectiveOutboundFee returns the flat payout fee for the actor at the given
// amount: the actor's own slab set if one exists, otherwise the tier's.
func (r *RateResolver) EffectiveOutboundFee(ctx context.Context, actorID primitive.ObjectID, amount decimal.Decimal) (decimal.Decimal, error) {
	slabs, err := r.EffectiveSlabs(ctx, actorID)
	if err != nil {
		return decimal.Zero, err
	}
	return ResolveSlabFee(slabs, amount)
}

// EffectiveSlabs resolves the slab table effective for an actor.
func (r *RateResolver) EffectiveSlabs(ctx context.Context, actorID primitive.ObjectID) ([]models.Slab, error) {
	cfg, err := r.rates.GetSlabConfig(ctx, actorID.Hex())
	if err != nil {
		return nil, fmt.Errorf("loading slab config: %w", err)
	}
	if cfg != nil && len(cfg.Slabs) > 0 {
		return cfg.Slabs, nil
	}

	actor, err := r.actors.GetActor(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("loading actor: %w", err)
	}
	if actor == nil {
		return nil, ErrNoRateConfigured
	}

	cfg, err = r.rates.GetSlabConfig(ctx, string(actor.Tier))
	if err != nil {
		return nil, fmt.Errorf("loading tier slab config: %w", err)
	}
	if cfg != nil && len(cfg.Slabs) > 0 {
		return cfg.Slabs, nil
	}
	return nil, ErrNoRateConfigured
}

// FloorRate is the lowest rate an assigner may delegate on a channel: the
// channel's cost basis for the root authority, the assigner's own effective
// rate otherwise (never below cost basis by induction).
func (r *RateResolver) FloorRate(ctx context.Context, assigner *models.Actor, channel *models.Channel) (decimal.Decimal, error) {
	if assigner.IsRoot() {
		return channel.CostBasis, nil
	}
	own, err := r.EffectiveInboundRate(ctx, assigner.ID, channel.ID)
	if err != nil {
		return decimal.Zero, err
	}
	if own.LessThan(channel.CostBasis) {
		// Never silently default below the processor's floor.
		return channel.CostBasis, nil
	}
	return own, nil
}
