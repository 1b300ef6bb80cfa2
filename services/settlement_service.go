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

// SettlementService is the surface the transaction-settlement workflow calls
// into: price a charge, settle an inbound collection (credit plus commission
// fan-out), and drive the payout hold/success/failure state machine. It owns
// no network calls; processor I/O lives with the caller.
type SettlementService struct {
	actors      ActorDirectory
	resolver    *RateResolver
	ledger      *Ledger
	ledgerStore LedgerStore
	settlements SettlementStore
	engine      *CommissionEngine
	now         Clock
}

func NewSettlementService(actors ActorDirectory, resolver *RateResolver, ledger *Ledger, ledgerStore LedgerStore, settlements SettlementStore, engine *CommissionEngine, now Clock) *SettlementService {
	return &SettlementService{
		actors:      actors,
		resolver:    resolver,
		ledger:      ledger,
		ledgerStore: ledgerStore,
		settlements: settlements,
		engine:      engine,
		now:         now,
	}
}

// ResolveCharge prices a prospective transaction without mutating anything.
// Inbound channels charge a percentage of the amount; outbound channels
// charge the resolved flat slab fee on top of the amount.
func (s *SettlementService) ResolveCharge(ctx context.Context, actorID, channelID primitive.ObjectID, amount decimal.Decimal, direction models.ChannelDirection) (*models.ChargeQuote, error) {
	if err := requirePositive(amount); err != nil {
		return nil, err
	}

	switch direction {
	case models.DirectionInbound:
		rate, err := s.resolver.EffectiveInboundRate(ctx, actorID, channelID)
		if err != nil {
			return nil, err
		}
		charge := utils.RoundMoney(amount.Mul(rate))
		return &models.ChargeQuote{
			Rate:      &rate,
			Charge:    charge,
			NetAmount: amount.Sub(charge),
		}, nil
	case models.DirectionOutbound:
		fee, err := s.resolver.EffectiveOutboundFee(ctx, actorID, amount)
		if err != nil {
			return nil, err
		}
		charge := utils.RoundMoney(fee)
		return &models.ChargeQuote{
			Fee:       &charge,
			Charge:    charge,
			NetAmount: amount,
		}, nil
	default:
		return nil, fmt.Errorf("unknown direction %q", direction)
	}
}

// SettleInbound records a settled inbound collection: the leaf actor is
// credited the net amount, and the margin between the leaf's rate and the
// channel cost basis fans out as commissions. Commission failures never flip
// the settlement's status.
func (s *SettlementService) SettleInbound(ctx context.Context, actorID, channelID primitive.ObjectID, amount decimal.Decimal, reference string) (*models.Settlement, error) {
	actor, err := s.activeActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	quote, err := s.ResolveCharge(ctx, actor.ID, channelID, amount, models.DirectionInbound)
	if err != nil {
		return nil, err
	}

	now := s.now()
	settlement := &models.Settlement{
		Reference: reference,
		ActorID:   actor.ID,
		ChannelID: &channelID,
		Direction: models.DirectionInbound,
		Amount:    amount,
		Charge:    quote.Charge,
		NetAmount: quote.NetAmount,
		Status:    models.SettlementCreated,
		CreatedAt: now,
	}
	if err := s.settlements.CreateSettlement(ctx, settlement); err != nil {
		return nil, err
	}

	acct, err := s.accountFor(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	if err := s.ledger.Credit(ctx, acct.ID, quote.NetAmount, reference); err != nil {
		if terr := s.settlements.TransitionSettlement(ctx, reference, models.SettlementCreated, models.SettlementFailed, s.now()); terr != nil {
			log.Printf("marking inbound settlement %s failed: %v", reference, terr)
		}
		return nil, err
	}

	if err := s.settlements.TransitionSettlement(ctx, reference, models.SettlementCreated, models.SettlementSuccess, s.now()); err != nil {
		return nil, err
	}
	settlement.Status = models.SettlementSuccess

	if _, err := s.engine.Distribute(ctx, actor.ID, channelID, amount, reference); err != nil {
		// The settlement stands; distribution gaps are reconciled
		// out-of-band.
		log.Printf("commission distribution incomplete for %s: %v", reference, err)
	}

	return settlement, nil
}

// SettlePayoutHold opens an outbound settlement: the principal is held on the
// actor's account and the resolved slab fee is charged, credited entirely to
// the platform. No hierarchy split exists for payouts; flat-fee economics are
// the product design, not a gap.
func (s *SettlementService) SettlePayoutHold(ctx context.Context, actorID primitive.ObjectID, amount decimal.Decimal, reference string) (*models.Settlement, error) {
	actor, err := s.activeActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	fee, err := s.resolver.EffectiveOutboundFee(ctx, actor.ID, amount)
	if err != nil {
		return nil, err
	}
	fee = utils.RoundMoney(fee)

	settlement := &models.Settlement{
		Reference: reference,
		ActorID:   actor.ID,
		Direction: models.DirectionOutbound,
		Amount:    amount,
		Charge:    fee,
		NetAmount: amount,
		Status:    models.SettlementCreated,
		CreatedAt: s.now(),
	}
	if err := s.settlements.CreateSettlement(ctx, settlement); err != nil {
		return nil, err
	}

	acct, err := s.accountFor(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	platformAcct, err := s.platformAccount(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.ledger.PayoutHold(ctx, acct.ID, platformAcct.ID, amount, fee, reference); err != nil {
		if terr := s.settlements.TransitionSettlement(ctx, reference, models.SettlementCreated, models.SettlementFailed, s.now()); terr != nil {
			log.Printf("marking payout %s failed: %v", reference, terr)
		}
		return nil, err
	}

	return settlement, nil
}

// SettlePayoutSuccess commits a pending payout's hold after the processor
// confirmed it. Only CREATED settlements may transition.
func (s *SettlementService) SettlePayoutSuccess(ctx context.Context, reference string) error {
	settlement, err := s.outboundSettlement(ctx, reference)
	if err != nil {
		return err
	}

	if settlement.Status != models.SettlementCreated {
		return ErrInvalidLedgerTransition
	}

	acct, err := s.accountFor(ctx, settlement.ActorID)
	if err != nil {
		return err
	}
	// Release before flipping the status: if the ledger write fails the
	// settlement stays CREATED and the callback can be retried.
	if err := s.ledger.ReleaseOnSuccess(ctx, acct.ID, settlement.Amount, reference); err != nil {
		return err
	}
	return s.settlements.TransitionSettlement(ctx, reference, models.SettlementCreated, models.SettlementSuccess, s.now())
}

// SettlePayoutFailure returns a failed payout's hold to the actor's available
// balance. The slab fee stays charged; refunding it is a separate manual
// adjustment if support decides to.
func (s *SettlementService) SettlePayoutFailure(ctx context.Context, reference string) error {
	settlement, err := s.outboundSettlement(ctx, reference)
	if err != nil {
		return err
	}

	if settlement.Status != models.SettlementCreated {
		return ErrInvalidLedgerTransition
	}

	acct, err := s.accountFor(ctx, settlement.ActorID)
	if err != nil {
		return err
	}
	if err := s.ledger.ReleaseOnFailure(ctx, acct.ID, settlement.Amount, reference); err != nil {
		return err
	}
	return s.settlements.TransitionSettlement(ctx, reference, models.SettlementCreated, models.SettlementFailed, s.now())
}

func (s *SettlementService) outboundSettlement(ctx context.Context, reference string) (*models.Settlement, error) {
	settlement, err := s.settlements.GetSettlement(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("loading settlement: %w", err)
	}
	if settlement == nil {
		return nil, ErrInvalidLedgerTransition
	}
	if settlement.Direction != models.DirectionOutbound {
		return nil, ErrInvalidLedgerTransition
	}
	return settlement, nil
}

func (s *SettlementService) activeActor(ctx context.Context, actorID primitive.ObjectID) (*models.Actor, error) {
	actor, err := s.actors.GetActor(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("loading actor: %w", err)
	}
	if actor == nil || !actor.IsActive {
		return nil, ErrActorInactive
	}
	return actor, nil
}

func (s *SettlementService) accountFor(ctx context.Context, actorID primitive.ObjectID) (*models.Account, error) {
	acct, err := s.ledgerStore.GetAccountByActor(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("loading account: %w", err)
	}
	if acct == nil {
		return nil, fmt.Errorf("actor %s has no account", actorID.Hex())
	}
	return acct, nil
}

func (s *SettlementService) platformAccount(ctx context.Context) (*models.Account, error) {
	root, err := s.actors.GetRootActor(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading root actor: %w", err)
	}
	if root == nil {
		return nil, fmt.Errorf("%w: no root authority configured", ErrDataIntegrity)
	}
	return s.accountFor(ctx, root.ID)
}
