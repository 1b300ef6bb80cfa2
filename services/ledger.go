package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/resellpay/resellpay_backend/models"
)

const ledgerLockStripes = 128

// Ledger applies balance mutations to actor accounts. All operations against
// one account are serialized through a striped per-account lock, so
// concurrent credits, debits and holds cannot interleave and break the
// non-negative balance invariant. Operations on distinct accounts proceed in
// parallel. Compound operations (transfer, payout hold) take every involved
// lock before reading and apply their changes as one atomic store write.
type Ledger struct {
	store LedgerStore
	locks [ledgerLockStripes]sync.Mutex
	now   Clock
}

func NewLedger(store LedgerStore, now Clock) *Ledger {
	return &Ledger{store: store, now: now}
}

func (l *Ledger) stripe(id primitive.ObjectID) int {
	h := fnv.New32a()
	h.Write(id[:])
	return int(h.Sum32() % ledgerLockStripes)
}

// lockPair acquires the stripes for two accounts in ascending stripe order.
// The fixed global order prevents deadlock between concurrent transfers in
// opposite directions.
func (l *Ledger) lockPair(a, b primitive.ObjectID) func() {
	sa, sb := l.stripe(a), l.stripe(b)
	if sa == sb {
		l.locks[sa].Lock()
		return l.locks[sa].Unlock
	}
	if sa > sb {
		sa, sb = sb, sa
	}
	l.locks[sa].Lock()
	l.locks[sb].Lock()
	return func() {
		l.locks[sb].Unlock()
		l.locks[sa].Unlock()
	}
}

// Credit adds amount to the account's available balance.
func (l *Ledger) Credit(ctx context.Context, accountID primitive.ObjectID, amount decimal.Decimal, reference string) error {
	return l.credit(ctx, accountID, amount, reference, models.EntryCredit)
}

// CommissionCredit credits a commission margin, recorded with its own entry
// kind so statements distinguish it from plain credits.
func (l *Ledger) CommissionCredit(ctx context.Context, accountID primitive.ObjectID, amount decimal.Decimal, reference string) error {
	return l.credit(ctx, accountID, amount, reference, models.EntryCommission)
}

func (l *Ledger) credit(ctx context.Context, accountID primitive.ObjectID, amount decimal.Decimal, reference, kind string) error {
	if err := requirePositive(amount); err != nil {
		return err
	}

	s := l.stripe(accountID)
	l.locks[s].Lock()
	defer l.locks[s].Unlock()

	acct, err := l.loadAccount(ctx, accountID)
	if err != nil {
		return err
	}

	return l.store.Apply(ctx, BalanceChange{
		AccountID:      acct.ID,
		AvailableDelta: amount,
		Entry:          l.entry(acct.ID, amount, acct.Available.Add(amount), kind, reference),
	})
}

// Debit removes amount from the account's available balance.
func (l *Ledger) Debit(ctx context.Context, accountID primitive.ObjectID, amount decimal.Decimal, reference string) error {
	if err := requirePositive(amount); err != nil {
		return err
	}

	s := l.stripe(accountID)
	l.locks[s].Lock()
	defer l.locks[s].Unlock()

	acct, err := l.loadAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if acct.Available.LessThan(amount) {
		return ErrInsufficientBalance
	}

	return l.store.Apply(ctx, BalanceChange{
		AccountID:      acct.ID,
		AvailableDelta: amount.Neg(),
		Entry:          l.entry(acct.ID, amount.Neg(), acct.Available.Sub(amount), models.EntryDebit, reference),
	})
}

// Hold moves amount from available to held, reserving it for a pending
// outbound transfer.
func (l *Ledger) Hold(ctx context.Context, accountID primitive.ObjectID, amount decimal.Decimal, reference string) error {
	if err := requirePositive(amount); err != nil {
		return err
	}

	s := l.stripe(accountID)
	l.locks[s].Lock()
	defer l.locks[s].Unlock()

	acct, err := l.loadAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if acct.Available.LessThan(amount) {
		return ErrInsufficientBalance
	}

	return l.store.Apply(ctx, BalanceChange{
		AccountID:      acct.ID,
		AvailableDelta: amount.Neg(),
		HeldDelta:      amount,
		Entry:          l.entry(acct.ID, amount.Neg(), acct.Available.Sub(amount), models.EntryHold, reference),
	})
}

// ReleaseOnSuccess commits a hold: the funds have left the system, so held
// shrinks and no available-balance entry is written.
func (l *Ledger) ReleaseOnSuccess(ctx context.Context, accountID primitive.ObjectID, amount decimal.Decimal, reference string) error {
	if err := requirePositive(amount); err != nil {
		return err
	}

	s := l.stripe(accountID)
	l.locks[s].Lock()
	defer l.locks[s].Unlock()

	acct, err := l.loadAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if acct.Held.LessThan(amount) {
		return ErrInvalidLedgerTransition
	}

	return l.store.Apply(ctx, BalanceChange{
		AccountID: acct.ID,
		HeldDelta: amount.Neg(),
	})
}

// ReleaseOnFailure returns a hold to the available balance, recording exactly
// one REFUND entry.
func (l *Ledger) ReleaseOnFailure(ctx context.Context, accountID primitive.ObjectID, amount decimal.Decimal, reference string) error {
	if err := requirePositive(amount); err != nil {
		return err
	}

	s := l.stripe(accountID)
	l.locks[s].Lock()
	defer l.locks[s].Unlock()

	acct, err := l.loadAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if acct.Held.LessThan(amount) {
		return ErrInvalidLedgerTransition
	}

	return l.store.Apply(ctx, BalanceChange{
		AccountID:      acct.ID,
		AvailableDelta: amount,
		HeldDelta:      amount.Neg(),
		Entry:          l.entry(acct.ID, amount, acct.Available.Add(amount), models.EntryRefund, reference),
	})
}

// Transfer moves amount between two accounts as one atomic unit: either both
// the debit and the credit land, or neither mutates state.
func (l *Ledger) Transfer(ctx context.Context, fromID, toID primitive.ObjectID, amount decimal.Decimal, reference string) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	if fromID == toID {
		return fmt.Errorf("transfer from an account to itself")
	}

	unlock := l.lockPair(fromID, toID)
	defer unlock()

	from, err := l.loadAccount(ctx, fromID)
	if err != nil {
		return err
	}
	to, err := l.loadAccount(ctx, toID)
	if err != nil {
		return err
	}
	if from.Available.LessThan(amount) {
		return ErrInsufficientBalance
	}

	return l.store.Apply(ctx,
		BalanceChange{
			AccountID:      from.ID,
			AvailableDelta: amount.Neg(),
			Entry:          l.entry(from.ID, amount.Neg(), from.Available.Sub(amount), models.EntryDebit, reference),
		},
		BalanceChange{
			AccountID:      to.ID,
			AvailableDelta: amount,
			Entry:          l.entry(to.ID, amount, to.Available.Add(amount), models.EntryCredit, reference),
		},
	)
}

// PayoutHold reserves a payout's principal and charges its flat fee to the
// platform account in one atomic unit. The account needs amount+fee
// available; on any failure nothing is applied.
func (l *Ledger) PayoutHold(ctx context.Context, accountID, platformID primitive.ObjectID, amount, fee decimal.Decimal, reference string) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	if fee.IsNegative() {
		return fmt.Errorf("fee must not be negative, got %s", fee)
	}

	unlock := l.lockPair(accountID, platformID)
	defer unlock()

	acct, err := l.loadAccount(ctx, accountID)
	if err != nil {
		return err
	}
	platform, err := l.loadAccount(ctx, platformID)
	if err != nil {
		return err
	}
	if acct.Available.LessThan(amount.Add(fee)) {
		return ErrInsufficientBalance
	}

	changes := []BalanceChange{{
		AccountID:      acct.ID,
		AvailableDelta: amount.Neg(),
		HeldDelta:      amount,
		Entry:          l.entry(acct.ID, amount.Neg(), acct.Available.Sub(amount), models.EntryHold, reference),
	}}
	if fee.IsPositive() {
		changes = append(changes,
			BalanceChange{
				AccountID:      acct.ID,
				AvailableDelta: fee.Neg(),
				Entry:          l.entry(acct.ID, fee.Neg(), acct.Available.Sub(amount).Sub(fee), models.EntryDebit, reference),
			},
			BalanceChange{
				AccountID:      platform.ID,
				AvailableDelta: fee,
				Entry:          l.entry(platform.ID, fee, platform.Available.Add(fee), models.EntryCredit, reference),
			},
		)
	}
	return l.store.Apply(ctx, changes...)
}

// Statement returns a page of an account's entries, newest first.
func (l *Ledger) Statement(ctx context.Context, accountID primitive.ObjectID, limit, offset int64) ([]models.LedgerEntry, error) {
	return l.store.ListEntries(ctx, accountID, limit, offset)
}

func (l *Ledger) loadAccount(ctx context.Context, accountID primitive.ObjectID) (*models.Account, error) {
	acct, err := l.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("loading account: %w", err)
	}
	if acct == nil {
		return nil, fmt.Errorf("account %s not found", accountID.Hex())
	}
	return acct, nil
}

func (l *Ledger) entry(accountID primitive.ObjectID, delta, resulting decimal.Decimal, kind, reference string) *models.LedgerEntry {
	return &models.LedgerEntry{
		AccountID:        accountID,
		Delta:            delta,
		ResultingBalance: resulting,
		Kind:             kind,
		Reference:        reference,
		CreatedAt:        l.now(),
	}
}

func requirePositive(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be positive, got %s", amount)
	}
	return nil
}
