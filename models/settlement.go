package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Settlement statuses. Outbound settlements move CREATED -> SUCCESS or
// CREATED -> FAILED and nothing else; inbound settlements are recorded
// directly as SUCCESS.
const (
	SettlementCreated = "created"
	SettlementSuccess = "success"
	SettlementFailed  = "failed"
)

// Settlement is one settled (or pending-payout) transaction against the
// platform, keyed by its external reference.
type Settlement struct {
	ID          primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	Reference   string              `json:"reference" bson:"reference"`
	ActorID     primitive.ObjectID  `json:"actorId" bson:"actorId"`
	ChannelID   *primitive.ObjectID `json:"channelId,omitempty" bson:"channelId,omitempty"`
	Direction   ChannelDirection    `json:"direction" bson:"direction"`
	Amount      decimal.Decimal     `json:"amount" bson:"amount"`
	Charge      decimal.Decimal     `json:"charge" bson:"charge"`
	NetAmount   decimal.Decimal     `json:"netAmount" bson:"netAmount"`
	Status      string              `json:"status" bson:"status"`
	CreatedAt   time.Time           `json:"createdAt" bson:"createdAt"`
	ProcessedAt *time.Time          `json:"processedAt,omitempty" bson:"processedAt,omitempty"`
}

// ChargeQuote is the priced outcome of resolveCharge: the effective rate or
// flat fee, the resulting charge, and what the actor nets.
type ChargeQuote struct {
	Rate      *decimal.Decimal `json:"rate,omitempty"`
	Fee       *decimal.Decimal `json:"fee,omitempty"`
	Charge    decimal.Decimal  `json:"charge"`
	NetAmount decimal.Decimal  `json:"netAmount"`
}

// Commission is one level's margin on a settled inbound transaction.
type Commission struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Reference string             `json:"reference" bson:"reference"`
	ActorID   primitive.ObjectID `json:"actorId" bson:"actorId"`
	AccountID primitive.ObjectID `json:"accountId" bson:"accountId"`
	ChildRate decimal.Decimal    `json:"childRate" bson:"childRate"`
	OwnRate   decimal.Decimal    `json:"ownRate" bson:"ownRate"`
	Amount    decimal.Decimal    `json:"amount" bson:"amount"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// CommissionFailure queues a commission credit that could not be applied, for
// out-of-band retry. The primary settlement is never rolled back for one.
type CommissionFailure struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Reference string             `json:"reference" bson:"reference"`
	ActorID   primitive.ObjectID `json:"actorId" bson:"actorId"`
	Amount    decimal.Decimal    `json:"amount" bson:"amount"`
	Reason    string             `json:"reason" bson:"reason"`
	Resolved  bool               `json:"resolved" bson:"resolved"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}
