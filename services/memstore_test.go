package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/resellpay/resellpay_backend/models"
)

// memBackend is an in-memory implementation of ActorDirectory, RateStore,
// LedgerStore and SettlementStore, used to exercise the services without
// a database.
type memBackend struct {
	mu sync.Mutex

	actors       map[primitive.ObjectID]*models.Actor
	channels     map[primitive.ObjectID]*models.Channel
	assignments  map[string]*models.RateAssignment
	tierDefaults map[string]*models.TierRateDefault
	slabConfigs  map[string]*models.SlabConfig

	accounts map[primitive.ObjectID]*models.Account
	entries  []models.LedgerEntry

	settlements map[string]*models.Settlement
	commissions []models.Commission
	failures    []models.CommissionFailure

	// brokenAccounts makes Apply fail for any change touching these
	// accounts, simulating a storage fault.
	brokenAccounts map[primitive.ObjectID]bool
}

func newMemBackend() *memBackend {
	return &memBackend{
		actors:         make(map[primitive.ObjectID]*models.Actor),
		channels:       make(map[primitive.ObjectID]*models.Channel),
		assignments:    make(map[string]*models.RateAssignment),
		tierDefaults:   make(map[string]*models.TierRateDefault),
		slabConfigs:    make(map[string]*models.SlabConfig),
		accounts:       make(map[primitive.ObjectID]*models.Account),
		settlements:    make(map[string]*models.Settlement),
		brokenAccounts: make(map[primitive.ObjectID]bool),
	}
}

func testClock() time.Time {
	return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
}

func (m *memBackend) addActor(name string, tier models.Tier, parent *models.Actor) (*models.Actor, *models.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()

	actor := &models.Actor{
		ID:       primitive.NewObjectID(),
		Name:     name,
		Email:    name + "@example.com",
		Tier:     tier,
		IsActive: true,
	}
	if parent != nil {
		actor.ParentID = &parent.ID
	}
	m.actors[actor.ID] = actor

	acct := &models.Account{
		ID:        primitive.NewObjectID(),
		ActorID:   actor.ID,
		Available: decimal.Zero,
		Held:      decimal.Zero,
	}
	m.accounts[acct.ID] = acct
	return actor, acct
}

func (m *memBackend) addChannel(code string, direction models.ChannelDirection, costBasis string, active bool) *models.Channel {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := &models.Channel{
		ID:        primitive.NewObjectID(),
		Code:      code,
		Name:      code,
		Direction: direction,
		CostBasis: decimal.RequireFromString(costBasis),
		IsActive:  active,
	}
	m.channels[ch.ID] = ch
	return ch
}

func (m *memBackend) setBalance(acct *models.Account, available string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[acct.ID].Available = decimal.RequireFromString(available)
}

func (m *memBackend) balance(id primitive.ObjectID) (available, held decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acct := m.accounts[id]
	return acct.Available, acct.Held
}

func rateKeyOf(actorID, channelID primitive.ObjectID) string {
	return actorID.Hex() + ":" + channelID.Hex()
}

// ActorDirectory

func (m *memBackend) GetActor(ctx context.Context, id primitive.ObjectID) (*models.Actor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	actor, ok := m.actors[id]
	if !ok {
		return nil, nil
	}
	cp := *actor
	return &cp, nil
}

func (m *memBackend) GetRootActor(ctx context.Context) (*models.Actor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.actors {
		if a.Tier == models.TierAdmin && a.IsActive {
			cp := *a
			return &cp, nil
		}
	}
	return nil, errors.New("no root actor")
}

// RateStore

func (m *memBackend) GetChannel(ctx context.Context, id primitive.ObjectID) (*models.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.channels[id]
	if !ok {
		return nil, nil
	}
	cp := *ch
	return &cp, nil
}

func (m *memBackend) GetRateAssignment(ctx context.Context, actorID, channelID primitive.ObjectID) (*models.RateAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ra, ok := m.assignments[rateKeyOf(actorID, channelID)]
	if !ok {
		return nil, nil
	}
	cp := *ra
	return &cp, nil
}

func (m *memBackend) GetTierRateDefault(ctx context.Context, tier models.Tier, channelID primitive.ObjectID) (*models.TierRateDefault, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.tierDefaults[string(tier)+":"+channelID.Hex()]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (m *memBackend) GetSlabConfig(ctx context.Context, ownerKey string) (*models.SlabConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.slabConfigs[ownerKey]
	if !ok {
		return nil, nil
	}
	cp := *cfg
	return &cp, nil
}

func (m *memBackend) UpsertRateAssignment(ctx context.Context, ra *models.RateAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *ra
	m.assignments[rateKeyOf(ra.ActorID, ra.ChannelID)] = &cp
	return nil
}

func (m *memBackend) UpsertSlabConfig(ctx context.Context, cfg *models.SlabConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *cfg
	m.slabConfigs[cfg.OwnerKey] = &cp
	return nil
}

func (m *memBackend) setTierDefault(tier models.Tier, channelID primitive.ObjectID, rate string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tierDefaults[string(tier)+":"+channelID.Hex()] = &models.TierRateDefault{
		Tier:      tier,
		ChannelID: channelID,
		Rate:      decimal.RequireFromString(rate),
	}
}

// LedgerStore

func (m *memBackend) GetAccount(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acct, ok := m.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *acct
	return &cp, nil
}

func (m *memBackend) GetAccountByActor(ctx context.Context, actorID primitive.ObjectID) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, acct := range m.accounts {
		if acct.ActorID == actorID {
			cp := *acct
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memBackend) Apply(ctx context.Context, changes ...BalanceChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Validate every change before mutating anything.
	next := make(map[primitive.ObjectID]*models.Account, len(changes))
	for _, c := range changes {
		if m.brokenAccounts[c.AccountID] {
			return errors.New("storage fault")
		}
		acct, ok := next[c.AccountID]
		if !ok {
			stored, found := m.accounts[c.AccountID]
			if !found {
				return errors.New("account not found")
			}
			cp := *stored
			acct = &cp
			next[c.AccountID] = acct
		}
		acct.Available = acct.Available.Add(c.AvailableDelta)
		acct.Held = acct.Held.Add(c.HeldDelta)
		if acct.Available.IsNegative() || acct.Held.IsNegative() {
			return ErrInsufficientBalance
		}
	}

	for id, acct := range next {
		m.accounts[id] = acct
	}
	for _, c := range changes {
		if c.Entry != nil {
			e := *c.Entry
			e.ID = primitive.NewObjectID()
			m.entries = append(m.entries, e)
		}
	}
	return nil
}

func (m *memBackend) ListEntries(ctx context.Context, accountID primitive.ObjectID, limit, offset int64) ([]models.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.LedgerEntry
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].AccountID == accountID {
			out = append(out, m.entries[i])
		}
	}
	if offset < int64(len(out)) {
		out = out[offset:]
	} else {
		out = nil
	}
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memBackend) entriesFor(accountID primitive.ObjectID) []models.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.LedgerEntry
	for _, e := range m.entries {
		if e.AccountID == accountID {
			out = append(out, e)
		}
	}
	return out
}

// SettlementStore

func (m *memBackend) CreateSettlement(ctx context.Context, s *models.Settlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.settlements[s.Reference]; exists {
		return ErrDuplicateReference
	}
	cp := *s
	cp.ID = primitive.NewObjectID()
	m.settlements[s.Reference] = &cp
	return nil
}

func (m *memBackend) GetSettlement(ctx context.Context, reference string) (*models.Settlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settlements[reference]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memBackend) TransitionSettlement(ctx context.Context, reference, from, to string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settlements[reference]
	if !ok || s.Status != from {
		return ErrInvalidLedgerTransition
	}
	s.Status = to
	s.ProcessedAt = &at
	return nil
}

func (m *memBackend) SaveCommission(ctx context.Context, c *models.Commission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	cp.ID = primitive.NewObjectID()
	m.commissions = append(m.commissions, cp)
	return nil
}

func (m *memBackend) SaveCommissionFailure(ctx context.Context, f *models.CommissionFailure) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *f
	cp.ID = primitive.NewObjectID()
	m.failures = append(m.failures, cp)
	return nil
}

func (m *memBackend) PendingCommissionFailures(ctx context.Context, limit int64) ([]models.CommissionFailure, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CommissionFailure
	for _, f := range m.failures {
		if !f.Resolved {
			out = append(out, f)
		}
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
	}
	return out, nil
}

func (m *memBackend) ResolveCommissionFailure(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.failures {
		if m.failures[i].ID == id {
			m.failures[i].Resolved = true
			return nil
		}
	}
	return errors.New("failure not found")
}
