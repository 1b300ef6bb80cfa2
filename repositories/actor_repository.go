package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/resellpay/resellpay_backend/config"
	"github.com/resellpay/resellpay_backend/models"
	"github.com/resellpay/resellpay_backend/services"
)

// ActorRepository is the hierarchy directory: actor lookups, parent walks and
// onboarding. An actor and its wallet account are created together and never
// deleted, only deactivated.
type ActorRepository struct {
	client   *mongo.Client
	actors   *mongo.Collection
	accounts *mongo.Collection
}

func NewActorRepository(client *mongo.Client) *ActorRepository {
	db := client.Database(config.DatabaseName())
	return &ActorRepository{
		client:   client,
		actors:   db.Collection("actors"),
		accounts: db.Collection("accounts"),
	}
}

func (r *ActorRepository) GetActor(ctx context.Context, id primitive.ObjectID) (*models.Actor, error) {
	var actor models.Actor
	err := r.actors.FindOne(ctx, bson.M{"_id": id}).Decode(&actor)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &actor, nil
}

func (r *ActorRepository) GetRootActor(ctx context.Context) (*models.Actor, error) {
	var actor models.Actor
	err := r.actors.FindOne(ctx, bson.M{"tier": models.TierAdmin, "isActive": true}).Decode(&actor)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &actor, nil
}

func (r *ActorRepository) GetActorByEmail(ctx context.Context, email string) (*models.Actor, error) {
	var actor models.Actor
	err := r.actors.FindOne(ctx, bson.M{"email": email}).Decode(&actor)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &actor, nil
}

// CreateWithAccount inserts the actor and its zero-balance account in one
// transaction.
func (r *ActorRepository) CreateWithAccount(ctx context.Context, actor *models.Actor) (*models.Account, error) {
	session, err := r.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("starting session: %w", err)
	}
	defer session.EndSession(ctx)

	actor.ID = primitive.NewObjectID()
	account := &models.Account{
		ID:        primitive.NewObjectID(),
		ActorID:   actor.ID,
		Available: decimal.Zero,
		Held:      decimal.Zero,
		CreatedAt: actor.CreatedAt,
		UpdatedAt: actor.CreatedAt,
	}

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := r.actors.InsertOne(sc, actor); err != nil {
			return nil, err
		}
		if _, err := r.accounts.InsertOne(sc, account); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (r *ActorRepository) ListChildren(ctx context.Context, parentID primitive.ObjectID) ([]models.Actor, error) {
	cursor, err := r.actors.Find(ctx, bson.M{"parentId": parentID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var children []models.Actor
	if err := cursor.All(ctx, &children); err != nil {
		return nil, err
	}
	return children, nil
}

// AncestryChain returns the actors from id up to the root, bounded by the
// hierarchy depth limit so corrupt parent references cannot loop.
func (r *ActorRepository) AncestryChain(ctx context.Context, id primitive.ObjectID) ([]models.Actor, error) {
	var chain []models.Actor
	current := &id
	for hops := 0; current != nil; hops++ {
		if hops >= models.MaxHierarchyDepth {
			return nil, fmt.Errorf("%w: ancestry of %s exceeds %d hops", services.ErrDataIntegrity, id.Hex(), models.MaxHierarchyDepth)
		}
		actor, err := r.GetActor(ctx, *current)
		if err != nil {
			return nil, err
		}
		if actor == nil {
			return nil, fmt.Errorf("%w: dangling parent reference %s", services.ErrDataIntegrity, current.Hex())
		}
		chain = append(chain, *actor)
		current = actor.ParentID
	}
	return chain, nil
}

// Deactivate marks an actor inactive. Actors are never deleted.
func (r *ActorRepository) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.actors.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"isActive":  false,
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
