package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RateAssignment is the percentage rate an ancestor assigned to an actor for
// an inbound channel. Rates are fractions in [0,1). One assignment exists per
// (actor, channel); updates are upserts, never destructive edits.
type RateAssignment struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ActorID    primitive.ObjectID `json:"actorId" bson:"actorId"`
	ChannelID  primitive.ObjectID `json:"channelId" bson:"channelId"`
	Rate       decimal.Decimal    `json:"rate" bson:"rate"`
	AssignedBy primitive.ObjectID `json:"assignedBy" bson:"assignedBy"`
	Enabled    bool               `json:"enabled" bson:"enabled"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// TierRateDefault is the fallback rate for a whole tier on a channel, used
// when an actor has no enabled assignment of its own.
type TierRateDefault struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Tier      Tier               `json:"tier" bson:"tier"`
	ChannelID primitive.ObjectID `json:"channelId" bson:"channelId"`
	Rate      decimal.Decimal    `json:"rate" bson:"rate"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}
