package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/resellpay/resellpay_backend/models"
)

func newLedgerFixture(t *testing.T) (*memBackend, *Ledger, *models.Account, *models.Account) {
	t.Helper()
	m := newMemBackend()
	root, platformAcct := m.addActor("root", models.TierAdmin, nil)
	_, acct := m.addActor("retailer", models.TierRetailer, root)
	return m, NewLedger(m, testClock), acct, platformAcct
}

func TestCreditDebitRoundTrip(t *testing.T) {
	ctx := context.Background()
	m, ledger, acct, _ := newLedgerFixture(t)

	if err := ledger.Credit(ctx, acct.ID, dec("100"), "IN-1"); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := ledger.Debit(ctx, acct.ID, dec("40"), "ADJ-1"); err != nil {
		t.Fatalf("debit: %v", err)
	}

	available, held := m.balance(acct.ID)
	if !available.Equal(dec("60")) || !held.IsZero() {
		t.Errorf("balance = %s/%s, want 60/0", available, held)
	}

	// Replaying the entries reproduces the balance.
	sum := decimal.Zero
	for _, e := range m.entriesFor(acct.ID) {
		sum = sum.Add(e.Delta)
		if !e.ResultingBalance.Equal(sum) {
			t.Errorf("entry %s: resulting balance %s, replay says %s", e.Kind, e.ResultingBalance, sum)
		}
	}
	if !sum.Equal(available) {
		t.Errorf("entry replay = %s, balance = %s", sum, available)
	}
}

func TestDebitInsufficient(t *testing.T) {
	ctx := context.Background()
	m, ledger, acct, _ := newLedgerFixture(t)
	m.setBalance(acct, "10")

	if err := ledger.Debit(ctx, acct.ID, dec("10.01"), "ADJ-1"); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("overdraft: error = %v, want ErrInsufficientBalance", err)
	}
	available, _ := m.balance(acct.ID)
	if !available.Equal(dec("10")) {
		t.Errorf("balance after rejected debit = %s, want 10", available)
	}
	if len(m.entriesFor(acct.ID)) != 0 {
		t.Error("rejected debit wrote a ledger entry")
	}
}

func TestHoldAndReleaseOnFailure(t *testing.T) {
	ctx := context.Background()
	m, ledger, acct, _ := newLedgerFixture(t)
	m.setBalance(acct, "500")

	if err := ledger.Hold(ctx, acct.ID, dec("200"), "PO-1"); err != nil {
		t.Fatalf("hold: %v", err)
	}
	available, held := m.balance(acct.ID)
	if !available.Equal(dec("300")) || !held.Equal(dec("200")) {
		t.Fatalf("after hold: balance = %s/%s, want 300/200", available, held)
	}

	if err := ledger.ReleaseOnFailure(ctx, acct.ID, dec("200"), "PO-1"); err != nil {
		t.Fatalf("release on failure: %v", err)
	}
	available, held = m.balance(acct.ID)
	if !available.Equal(dec("500")) || !held.IsZero() {
		t.Fatalf("after release: balance = %s/%s, want 500/0", available, held)
	}

	// Exactly one HOLD and one REFUND entry.
	var holds, refunds int
	for _, e := range m.entriesFor(acct.ID) {
		switch e.Kind {
		case models.EntryHold:
			holds++
		case models.EntryRefund:
			refunds++
		}
	}
	if holds != 1 || refunds != 1 {
		t.Errorf("entries: %d holds, %d refunds, want 1 and 1", holds, refunds)
	}
}

func TestReleaseOnSuccess(t *testing.T) {
	ctx := context.Background()
	m, ledger, acct, _ := newLedgerFixture(t)
	m.setBalance(acct, "500")

	if err := ledger.Hold(ctx, acct.ID, dec("200"), "PO-1"); err != nil {
		t.Fatalf("hold: %v", err)
	}
	entriesBefore := len(m.entriesFor(acct.ID))

	if err := ledger.ReleaseOnSuccess(ctx, acct.ID, dec("200"), "PO-1"); err != nil {
		t.Fatalf("release on success: %v", err)
	}
	available, held := m.balance(acct.ID)
	if !available.Equal(dec("300")) || !held.IsZero() {
		t.Fatalf("after success: balance = %s/%s, want 300/0", available, held)
	}
	// The funds left the system; no available-balance entry is written.
	if got := len(m.entriesFor(acct.ID)); got != entriesBefore {
		t.Errorf("release on success wrote %d new entries, want 0", got-entriesBefore)
	}

	// Releasing more than held is an invalid transition.
	if err := ledger.ReleaseOnSuccess(ctx, acct.ID, dec("1"), "PO-1"); !errors.Is(err, ErrInvalidLedgerTransition) {
		t.Errorf("over-release: error = %v, want ErrInvalidLedgerTransition", err)
	}
}

func TestTransferAtomicity(t *testing.T) {
	ctx := context.Background()
	m, ledger, acct, platform := newLedgerFixture(t)
	m.setBalance(acct, "50")

	if err := ledger.Transfer(ctx, acct.ID, platform.ID, dec("80"), "TRF-1"); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("overdraft transfer: error = %v, want ErrInsufficientBalance", err)
	}
	fromAvail, _ := m.balance(acct.ID)
	toAvail, _ := m.balance(platform.ID)
	if !fromAvail.Equal(dec("50")) || !toAvail.IsZero() {
		t.Errorf("balances after rejected transfer = %s and %s, want 50 and 0", fromAvail, toAvail)
	}

	if err := ledger.Transfer(ctx, acct.ID, platform.ID, dec("30"), "TRF-2"); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	fromAvail, _ = m.balance(acct.ID)
	toAvail, _ = m.balance(platform.ID)
	if !fromAvail.Equal(dec("20")) || !toAvail.Equal(dec("30")) {
		t.Errorf("balances after transfer = %s and %s, want 20 and 30", fromAvail, toAvail)
	}
}

func TestPayoutHold(t *testing.T) {
	ctx := context.Background()
	m, ledger, acct, platform := newLedgerFixture(t)
	m.setBalance(acct, "100")

	// Needs amount+fee available; 95+10 > 100.
	if err := ledger.PayoutHold(ctx, acct.ID, platform.ID, dec("95"), dec("10"), "PO-1"); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("underfunded payout hold: error = %v, want ErrInsufficientBalance", err)
	}
	available, held := m.balance(acct.ID)
	if !available.Equal(dec("100")) || !held.IsZero() {
		t.Fatalf("rejected hold mutated balance: %s/%s", available, held)
	}

	if err := ledger.PayoutHold(ctx, acct.ID, platform.ID, dec("80"), dec("10"), "PO-2"); err != nil {
		t.Fatalf("payout hold: %v", err)
	}
	available, held = m.balance(acct.ID)
	if !available.Equal(dec("10")) || !held.Equal(dec("80")) {
		t.Errorf("actor balance = %s/%s, want 10/80", available, held)
	}
	platAvail, _ := m.balance(platform.ID)
	if !platAvail.Equal(dec("10")) {
		t.Errorf("platform fee credit = %s, want 10", platAvail)
	}
}

func TestConcurrentLedgerOperations(t *testing.T) {
	ctx := context.Background()
	m, ledger, acct, platform := newLedgerFixture(t)
	m.setBalance(acct, "1000")
	m.setBalance(platform, "1000")

	const workers = 16
	var wg sync.WaitGroup
	wg.Add(workers * 2)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if err := ledger.Transfer(ctx, acct.ID, platform.ID, dec("5"), "TRF-a"); err != nil {
				t.Errorf("transfer a->b: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			// Opposite direction on the same pair; lock ordering must
			// keep this deadlock-free.
			if err := ledger.Transfer(ctx, platform.ID, acct.ID, dec("3"), "TRF-b"); err != nil {
				t.Errorf("transfer b->a: %v", err)
			}
		}()
	}
	wg.Wait()

	aAvail, _ := m.balance(acct.ID)
	bAvail, _ := m.balance(platform.ID)
	if !aAvail.Equal(dec("968")) {
		t.Errorf("account balance = %s, want 968", aAvail)
	}
	if !bAvail.Equal(dec("1032")) {
		t.Errorf("platform balance = %s, want 1032", bAvail)
	}
	if !aAvail.Add(bAvail).Equal(dec("2000")) {
		t.Errorf("total = %s, want 2000", aAvail.Add(bAvail))
	}
}
