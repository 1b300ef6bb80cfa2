package services

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/resellpay/resellpay_backend/models"
	"github.com/resellpay/resellpay_backend/utils"
)

// CommissionEngine splits a settled inbound transaction's margin across the
// actor hierarchy. Each level earns amount * (rate charged to its child - its
// own rate); the walk ends at the root authority, whose own rate is the
// channel's cost basis. The fan-out is not transactional across accounts: a
// failed credit is logged and queued for retry, and never rolls back the
// settlement or the other levels' credits.
type CommissionEngine struct {
	actors      ActorDirectory
	rates       RateStore
	resolver    *RateResolver
	ledger      *Ledger
	ledgerStore LedgerStore
	settlements SettlementStore
	now         Clock
}

func NewCommissionEngine(actors ActorDirectory, rates RateStore, resolver *RateResolver, ledger *Ledger, ledgerStore LedgerStore, settlements SettlementStore, now Clock) *CommissionEngine {
	return &CommissionEngine{
		actors:      actors,
		rates:       rates,
		resolver:    resolver,
		ledger:      ledger,
		ledgerStore: ledgerStore,
		settlements: settlements,
		now:         now,
	}
}

// Distribute walks upward from the leaf actor, crediting each level's margin.
// Exceeding the hop bound means the hierarchy data is corrupt and surfaces as
// ErrDataIntegrity instead of looping.
func (e *CommissionEngine) Distribute(ctx context.Context, leafActorID, channelID primitive.ObjectID, amount decimal.Decimal, reference string) ([]models.Commission, error) {
	channel, err := e.rates.GetChannel(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("loading channel: %w", err)
	}
	if channel == nil {
		return nil, ErrNoRateConfigured
	}

	leaf, err := e.actors.GetActor(ctx, leafActorID)
	if err != nil {
		return nil, fmt.Errorf("loading leaf actor: %w", err)
	}
	if leaf == nil {
		return nil, ErrDataIntegrity
	}

	childRate, err := e.resolver.EffectiveInboundRate(ctx, leaf.ID, channelID)
	if err != nil {
		return nil, err
	}

	var commissions []models.Commission
	node := leaf.ParentID
	for hops := 0; node != nil; hops++ {
		if hops >= models.MaxHierarchyDepth {
			return commissions, fmt.Errorf("%w: hierarchy above actor %s exceeds %d hops", ErrDataIntegrity, leafActorID.Hex(), models.MaxHierarchyDepth)
		}

		actor, err := e.actors.GetActor(ctx, *node)
		if err != nil {
			return commissions, fmt.Errorf("loading ancestor: %w", err)
		}
		if actor == nil {
			return commissions, fmt.Errorf("%w: dangling parent reference %s", ErrDataIntegrity, node.Hex())
		}

		var ownRate decimal.Decimal
		if actor.IsRoot() {
			ownRate = channel.CostBasis
		} else {
			ownRate, err = e.resolver.EffectiveInboundRate(ctx, actor.ID, channelID)
			if err != nil {
				return commissions, fmt.Errorf("resolving rate for ancestor %s: %w", actor.ID.Hex(), err)
			}
		}

		if childRate.GreaterThan(ownRate) {
			margin := utils.RoundMoney(amount.Mul(childRate.Sub(ownRate)))
			if margin.IsPositive() {
				c, err := e.creditLevel(ctx, actor, childRate, ownRate, margin, reference)
				if err != nil {
					// The settlement already succeeded; this level's margin
					// is owed, not lost. Queue it and keep walking.
					log.Printf("commission credit failed for actor %s on %s: %v", actor.ID.Hex(), reference, err)
					e.queueFailure(ctx, actor.ID, margin, reference, err)
				} else {
					commissions = append(commissions, *c)
				}
			}
			childRate = ownRate
		}

		if actor.IsRoot() {
			break
		}
		node = actor.ParentID
	}

	return commissions, nil
}

func (e *CommissionEngine) creditLevel(ctx context.Context, actor *models.Actor, childRate, ownRate, margin decimal.Decimal, reference string) (*models.Commission, error) {
	acct, err := e.ledgerStore.GetAccountByActor(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("loading account: %w", err)
	}
	if acct == nil {
		return nil, fmt.Errorf("actor %s has no account", actor.ID.Hex())
	}

	if err := e.ledger.CommissionCredit(ctx, acct.ID, margin, reference); err != nil {
		return nil, err
	}

	c := &models.Commission{
		Reference: reference,
		ActorID:   actor.ID,
		AccountID: acct.ID,
		ChildRate: childRate,
		OwnRate:   ownRate,
		Amount:    margin,
		CreatedAt: e.now(),
	}
	if err := e.settlements.SaveCommission(ctx, c); err != nil {
		// The credit is already on the ledger; losing the record is a
		// reporting gap, not a balance error.
		log.Printf("saving commission record failed for %s: %v", reference, err)
	}
	return c, nil
}

func (e *CommissionEngine) queueFailure(ctx context.Context, actorID primitive.ObjectID, amount decimal.Decimal, reference string, cause error) {
	if err := e.settlements.SaveCommissionFailure(ctx, &models.CommissionFailure{
		Reference: reference,
		ActorID:   actorID,
		Amount:    amount,
		Reason:    cause.Error(),
		CreatedAt: e.now(),
	}); err != nil {
		log.Printf("queueing commission failure for %s failed: %v", reference, err)
	}
}

// RetryFailedCommissions re-applies queued commission credits. Run from a
// background loop; individual failures stay queued for the next pass.
func (e *CommissionEngine) RetryFailedCommissions(ctx context.Context, limit int64) {
	failures, err := e.settlements.PendingCommissionFailures(ctx, limit)
	if err != nil {
		log.Printf("loading pending commission failures: %v", err)
		return
	}

	for _, f := range failures {
		acct, err := e.ledgerStore.GetAccountByActor(ctx, f.ActorID)
		if err != nil || acct == nil {
			log.Printf("retry: account lookup failed for actor %s: %v", f.ActorID.Hex(), err)
			continue
		}
		if err := e.ledger.CommissionCredit(ctx, acct.ID, f.Amount, f.Reference); err != nil {
			log.Printf("retry: commission credit still failing for %s: %v", f.Reference, err)
			continue
		}
		if err := e.settlements.ResolveCommissionFailure(ctx, f.ID); err != nil {
			log.Printf("retry: marking commission failure %s resolved: %v", f.ID.Hex(), err)
		}
	}
}
