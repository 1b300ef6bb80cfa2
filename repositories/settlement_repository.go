package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/resellpay/resellpay_backend/config"
	"github.com/resellpay/resellpay_backend/models"
	"github.com/resellpay/resellpay_backend/services"
)

// SettlementRepository persists settlements, commission records and the
// failed-commission retry queue. The unique reference index backs duplicate
// detection; status transitions are guarded updates so the CREATED ->
// SUCCESS|FAILED state machine cannot be bypassed by racing callers.
type SettlementRepository struct {
	settlements *mongo.Collection
	commissions *mongo.Collection
	failures    *mongo.Collection
}

func NewSettlementRepository(client *mongo.Client) *SettlementRepository {
	db := client.Database(config.DatabaseName())
	return &SettlementRepository{
		settlements: db.Collection("settlements"),
		commissions: db.Collection("commissions"),
		failures:    db.Collection("commission_failures"),
	}
}

func (r *SettlementRepository) CreateSettlement(ctx context.Context, s *models.Settlement) error {
	s.ID = primitive.NewObjectID()
	_, err := r.settlements.InsertOne(ctx, s)
	if mongo.IsDuplicateKeyError(err) {
		return services.ErrDuplicateReference
	}
	return err
}

func (r *SettlementRepository) GetSettlement(ctx context.Context, reference string) (*models.Settlement, error) {
	var s models.Settlement
	err := r.settlements.FindOne(ctx, bson.M{"reference": reference}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SettlementRepository) TransitionSettlement(ctx context.Context, reference, from, to string, at time.Time) error {
	res, err := r.settlements.UpdateOne(ctx,
		bson.M{"reference": reference, "status": from},
		bson.M{"$set": bson.M{"status": to, "processedAt": at}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return services.ErrInvalidLedgerTransition
	}
	return nil
}

// ListSettlements returns an actor's settlements, newest first.
func (r *SettlementRepository) ListSettlements(ctx context.Context, actorID primitive.ObjectID, limit, offset int64) ([]models.Settlement, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(offset).
		SetLimit(limit)

	cursor, err := r.settlements.Find(ctx, bson.M{"actorId": actorID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var settlements []models.Settlement
	if err := cursor.All(ctx, &settlements); err != nil {
		return nil, err
	}
	return settlements, nil
}

func (r *SettlementRepository) SaveCommission(ctx context.Context, c *models.Commission) error {
	c.ID = primitive.NewObjectID()
	_, err := r.commissions.InsertOne(ctx, c)
	return err
}

// ListCommissions returns an actor's earned commissions, newest first.
func (r *SettlementRepository) ListCommissions(ctx context.Context, actorID primitive.ObjectID, limit, offset int64) ([]models.Commission, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(offset).
		SetLimit(limit)

	cursor, err := r.commissions.Find(ctx, bson.M{"actorId": actorID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var commissions []models.Commission
	if err := cursor.All(ctx, &commissions); err != nil {
		return nil, err
	}
	return commissions, nil
}

func (r *SettlementRepository) SaveCommissionFailure(ctx context.Context, f *models.CommissionFailure) error {
	f.ID = primitive.NewObjectID()
	_, err := r.failures.InsertOne(ctx, f)
	return err
}

func (r *SettlementRepository) PendingCommissionFailures(ctx context.Context, limit int64) ([]models.CommissionFailure, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetLimit(limit)

	cursor, err := r.failures.Find(ctx, bson.M{"resolved": false}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var failures []models.CommissionFailure
	if err := cursor.All(ctx, &failures); err != nil {
		return nil, err
	}
	return failures, nil
}

func (r *SettlementRepository) ResolveCommissionFailure(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.failures.UpdateOne(ctx,
		bson.M{"_id": id, "resolved": false},
		bson.M{"$set": bson.M{"resolved": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return services.ErrInvalidLedgerTransition
	}
	return nil
}
