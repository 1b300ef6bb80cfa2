package services

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/resellpay/resellpay_backend/models"
)

// commissionFixture builds the four-level chain used across these tests:
// root (cost basis 0.8%) -> md at 1.0% -> dist at 1.5% -> retailer at 1.8%.
func commissionFixture(t *testing.T) (*memBackend, *CommissionEngine, *models.Channel, map[string]*models.Account) {
	t.Helper()
	ctx := context.Background()
	m := newMemBackend()
	root, rootAcct := m.addActor("root", models.TierAdmin, nil)
	md, mdAcct := m.addActor("md", models.TierMasterDistributor, root)
	dist, distAcct := m.addActor("dist", models.TierDistributor, md)
	retailer, retailerAcct := m.addActor("retailer", models.TierRetailer, dist)
	channel := m.addChannel("UPI", models.DirectionInbound, "0.008", true)

	for actor, rate := range map[*models.Actor]string{
		md:       "0.010",
		dist:     "0.015",
		retailer: "0.018",
	} {
		m.UpsertRateAssignment(ctx, &models.RateAssignment{
			ActorID:   actor.ID,
			ChannelID: channel.ID,
			Rate:      dec(rate),
			Enabled:   true,
		})
	}

	resolver := NewRateResolver(m, m, nil)
	ledger := NewLedger(m, testClock)
	engine := NewCommissionEngine(m, m, resolver, ledger, m, m, testClock)

	accounts := map[string]*models.Account{
		"root":     rootAcct,
		"md":       mdAcct,
		"dist":     distAcct,
		"retailer": retailerAcct,
	}
	return m, engine, channel, accounts
}

func TestDistributeMargins(t *testing.T) {
	ctx := context.Background()
	m, engine, channel, accounts := commissionFixture(t)
	retailerID := accounts["retailer"].ActorID

	commissions, err := engine.Distribute(ctx, retailerID, channel.ID, dec("10000"), "IN-1")
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}
	if len(commissions) != 3 {
		t.Fatalf("got %d commissions, want 3", len(commissions))
	}

	// 10000 * (0.018-0.015) = 30 to dist, *(0.015-0.010) = 50 to md,
	// *(0.010-0.008) = 20 to root.
	want := map[string]string{"dist": "30", "md": "50", "root": "20"}
	for name, amount := range want {
		available, _ := m.balance(accounts[name].ID)
		if !available.Equal(dec(amount)) {
			t.Errorf("%s commission balance = %s, want %s", name, available, amount)
		}
	}

	// The leaf earns nothing from its own transaction.
	leafAvail, _ := m.balance(accounts["retailer"].ID)
	if !leafAvail.IsZero() {
		t.Errorf("retailer balance = %s, want 0", leafAvail)
	}

	// Every credit carries the COMMISSION entry kind and the reference.
	for _, name := range []string{"dist", "md", "root"} {
		entries := m.entriesFor(accounts[name].ID)
		if len(entries) != 1 {
			t.Fatalf("%s: %d entries, want 1", name, len(entries))
		}
		if entries[0].Kind != models.EntryCommission || entries[0].Reference != "IN-1" {
			t.Errorf("%s entry = %s/%s, want COMMISSION/IN-1", name, entries[0].Kind, entries[0].Reference)
		}
	}
}

func TestDistributeEqualRatesEarnNothing(t *testing.T) {
	ctx := context.Background()
	m, engine, channel, accounts := commissionFixture(t)

	// Pin dist to md's rate; dist's margin disappears, md's absorbs it.
	m.UpsertRateAssignment(ctx, &models.RateAssignment{
		ActorID:   accounts["dist"].ActorID,
		ChannelID: channel.ID,
		Rate:      dec("0.010"),
		Enabled:   true,
	})

	commissions, err := engine.Distribute(ctx, accounts["retailer"].ActorID, channel.ID, dec("10000"), "IN-2")
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}
	// md's level carries no margin, so no commission record is written for it.
	if len(commissions) != 2 {
		t.Fatalf("got %d commissions, want 2", len(commissions))
	}

	distAvail, _ := m.balance(accounts["dist"].ID)
	if !distAvail.Equal(dec("80")) { // 10000 * (0.018-0.010)
		t.Errorf("dist margin = %s, want 80", distAvail)
	}
	mdAvail, _ := m.balance(accounts["md"].ID)
	if !mdAvail.IsZero() {
		t.Errorf("md margin = %s, want 0 (same rate as child)", mdAvail)
	}
	rootAvail, _ := m.balance(accounts["root"].ID)
	if !rootAvail.Equal(dec("20")) {
		t.Errorf("root margin = %s, want 20", rootAvail)
	}
}

func TestDistributeQueuesFailedCredits(t *testing.T) {
	ctx := context.Background()
	m, engine, channel, accounts := commissionFixture(t)

	// Break md's account; its credit must queue without stopping the walk.
	m.mu.Lock()
	m.brokenAccounts[accounts["md"].ID] = true
	m.mu.Unlock()

	commissions, err := engine.Distribute(ctx, accounts["retailer"].ActorID, channel.ID, dec("10000"), "IN-3")
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}
	if len(commissions) != 2 {
		t.Fatalf("got %d commissions, want 2 (md's queued)", len(commissions))
	}

	rootAvail, _ := m.balance(accounts["root"].ID)
	if !rootAvail.Equal(dec("20")) {
		t.Errorf("root still credited after md failure: %s, want 20", rootAvail)
	}

	pending, _ := m.PendingCommissionFailures(ctx, 10)
	if len(pending) != 1 {
		t.Fatalf("got %d pending failures, want 1", len(pending))
	}
	if !pending[0].Amount.Equal(dec("50")) || pending[0].Reference != "IN-3" {
		t.Errorf("queued failure = %+v, want amount 50 on IN-3", pending[0])
	}

	// Heal the account and retry; the queue drains and the credit lands.
	m.mu.Lock()
	delete(m.brokenAccounts, accounts["md"].ID)
	m.mu.Unlock()
	engine.RetryFailedCommissions(ctx, 10)

	mdAvail, _ := m.balance(accounts["md"].ID)
	if !mdAvail.Equal(dec("50")) {
		t.Errorf("md balance after retry = %s, want 50", mdAvail)
	}
	pending, _ = m.PendingCommissionFailures(ctx, 10)
	if len(pending) != 0 {
		t.Errorf("%d failures still pending after retry, want 0", len(pending))
	}
}

func TestDistributeHopBound(t *testing.T) {
	ctx := context.Background()
	m, engine, channel, accounts := commissionFixture(t)

	// Corrupt the chain into a cycle: md's parent becomes dist.
	m.mu.Lock()
	mdID := accounts["md"].ActorID
	distID := accounts["dist"].ActorID
	m.actors[mdID].ParentID = &distID
	m.mu.Unlock()

	_, err := engine.Distribute(ctx, accounts["retailer"].ActorID, channel.ID, dec("10000"), "IN-4")
	if !errors.Is(err, ErrDataIntegrity) {
		t.Errorf("cyclic hierarchy: error = %v, want ErrDataIntegrity", err)
	}
}

func TestDistributeUnknownLeaf(t *testing.T) {
	ctx := context.Background()
	_, engine, channel, _ := commissionFixture(t)

	_, err := engine.Distribute(ctx, primitive.NewObjectID(), channel.ID, dec("100"), "IN-5")
	if !errors.Is(err, ErrDataIntegrity) {
		t.Errorf("unknown leaf: error = %v, want ErrDataIntegrity", err)
	}
}
