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
)

// RateRepository persists channels, rate assignments, tier defaults and slab
// configurations. Assignments are versioned by upsert; nothing is
// destructively edited.
type RateRepository struct {
	channels     *mongo.Collection
	assignments  *mongo.Collection
	tierDefaults *mongo.Collection
	slabConfigs  *mongo.Collection
}

func NewRateRepository(client *mongo.Client) *RateRepository {
	db := client.Database(config.DatabaseName())
	return &RateRepository{
		channels:     db.Collection("channels"),
		assignments:  db.Collection("rate_assignments"),
		tierDefaults: db.Collection("tier_rate_defaults"),
		slabConfigs:  db.Collection("slab_configs"),
	}
}

func (r *RateRepository) GetChannel(ctx context.Context, id primitive.ObjectID) (*models.Channel, error) {
	var channel models.Channel
	err := r.channels.FindOne(ctx, bson.M{"_id": id}).Decode(&channel)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &channel, nil
}

func (r *RateRepository) GetChannelByCode(ctx context.Context, code string) (*models.Channel, error) {
	var channel models.Channel
	err := r.channels.FindOne(ctx, bson.M{"code": code}).Decode(&channel)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &channel, nil
}

func (r *RateRepository) ListChannels(ctx context.Context) ([]models.Channel, error) {
	cursor, err := r.channels.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var channels []models.Channel
	if err := cursor.All(ctx, &channels); err != nil {
		return nil, err
	}
	return channels, nil
}

func (r *RateRepository) CreateChannel(ctx context.Context, channel *models.Channel) error {
	channel.ID = primitive.NewObjectID()
	_, err := r.channels.InsertOne(ctx, channel)
	return err
}

func (r *RateRepository) SetChannelActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	res, err := r.channels.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"isActive":  active,
		"updatedAt": time.Now(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *RateRepository) GetRateAssignment(ctx context.Context, actorID, channelID primitive.ObjectID) (*models.RateAssignment, error) {
	var ra models.RateAssignment
	err := r.assignments.FindOne(ctx, bson.M{"actorId": actorID, "channelId": channelID}).Decode(&ra)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ra, nil
}

func (r *RateRepository) GetTierRateDefault(ctx context.Context, tier models.Tier, channelID primitive.ObjectID) (*models.TierRateDefault, error) {
	var def models.TierRateDefault
	err := r.tierDefaults.FindOne(ctx, bson.M{"tier": tier, "channelId": channelID}).Decode(&def)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &def, nil
}

func (r *RateRepository) UpsertTierRateDefault(ctx context.Context, def *models.TierRateDefault) error {
	filter := bson.M{"tier": def.Tier, "channelId": def.ChannelID}
	update := bson.M{
		"$set": bson.M{
			"rate":      def.Rate,
			"updatedAt": def.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"tier":      def.Tier,
			"channelId": def.ChannelID,
		},
	}
	_, err := r.tierDefaults.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (r *RateRepository) GetSlabConfig(ctx context.Context, ownerKey string) (*models.SlabConfig, error) {
	var cfg models.SlabConfig
	err := r.slabConfigs.FindOne(ctx, bson.M{"ownerKey": ownerKey}).Decode(&cfg)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *RateRepository) UpsertRateAssignment(ctx context.Context, ra *models.RateAssignment) error {
	filter := bson.M{"actorId": ra.ActorID, "channelId": ra.ChannelID}
	update := bson.M{
		"$set": bson.M{
			"rate":       ra.Rate,
			"assignedBy": ra.AssignedBy,
			"enabled":    ra.Enabled,
			"updatedAt":  ra.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"actorId":   ra.ActorID,
			"channelId": ra.ChannelID,
			"createdAt": ra.UpdatedAt,
		},
	}
	_, err := r.assignments.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (r *RateRepository) UpsertSlabConfig(ctx context.Context, cfg *models.SlabConfig) error {
	filter := bson.M{"ownerKey": cfg.OwnerKey}
	update := bson.M{
		"$set": bson.M{
			"slabs":      cfg.Slabs,
			"assignedBy": cfg.AssignedBy,
			"updatedAt":  cfg.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"ownerKey":  cfg.OwnerKey,
			"createdAt": cfg.UpdatedAt,
		},
	}
	_, err := r.slabConfigs.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}
