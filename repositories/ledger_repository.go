package repositories

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/resellpay/resellpay_backend/config"
	"github.com/resellpay/resellpay_backend/models"
	"github.com/resellpay/resellpay_backend/services"
)

// LedgerRepository persists accounts and their append-only entries. Balance
// changes are applied inside a transaction with non-negative guards, so even
// a misbehaving caller cannot drive a stored balance below zero.
type LedgerRepository struct {
	client   *mongo.Client
	accounts *mongo.Collection
	entries  *mongo.Collection
}

func NewLedgerRepository(client *mongo.Client) *LedgerRepository {
	db := client.Database(config.DatabaseName())
	return &LedgerRepository{
		client:   client,
		accounts: db.Collection("accounts"),
		entries:  db.Collection("ledger_entries"),
	}
}

func (r *LedgerRepository) GetAccount(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	var acct models.Account
	err := r.accounts.FindOne(ctx, bson.M{"_id": id}).Decode(&acct)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

func (r *LedgerRepository) GetAccountByActor(ctx context.Context, actorID primitive.ObjectID) (*models.Account, error) {
	var acct models.Account
	err := r.accounts.FindOne(ctx, bson.M{"actorId": actorID}).Decode(&acct)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

// Apply applies the balance changes and appends their entries in a single
// transaction. Either every change lands or none does.
func (r *LedgerRepository) Apply(ctx context.Context, changes ...services.BalanceChange) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		for _, change := range changes {
			if err := r.applyOne(sc, change); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

func (r *LedgerRepository) applyOne(sc mongo.SessionContext, change services.BalanceChange) error {
	var acct models.Account
	if err := r.accounts.FindOne(sc, bson.M{"_id": change.AccountID}).Decode(&acct); err != nil {
		if err == mongo.ErrNoDocuments {
			return fmt.Errorf("account %s not found", change.AccountID.Hex())
		}
		return err
	}

	available := acct.Available.Add(change.AvailableDelta)
	held := acct.Held.Add(change.HeldDelta)
	if available.IsNegative() || held.IsNegative() {
		return services.ErrInsufficientBalance
	}

	now := acct.UpdatedAt
	if change.Entry != nil {
		now = change.Entry.CreatedAt
	}

	res, err := r.accounts.UpdateOne(sc,
		bson.M{"_id": acct.ID},
		bson.M{"$set": bson.M{
			"available": available,
			"held":      held,
			"updatedAt": now,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("account %s vanished mid-transaction", acct.ID.Hex())
	}

	if change.Entry != nil {
		entry := *change.Entry
		entry.ID = primitive.NewObjectID()
		if _, err := r.entries.InsertOne(sc, entry); err != nil {
			return err
		}
	}
	return nil
}

// ListEntries returns a page of an account's entries, newest first.
func (r *LedgerRepository) ListEntries(ctx context.Context, accountID primitive.ObjectID, limit, offset int64) ([]models.LedgerEntry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(offset).
		SetLimit(limit)

	cursor, err := r.entries.Find(ctx, bson.M{"accountId": accountID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.LedgerEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
