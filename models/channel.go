package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChannelDirection distinguishes collection channels from payout channels.
type ChannelDirection string

const (
	DirectionInbound  ChannelDirection = "INBOUND"
	DirectionOutbound ChannelDirection = "OUTBOUND"
)

// Channel is a priced payment instrument. Inbound channels carry a percentage
// cost basis; outbound channels are priced by flat-fee slabs and the cost
// basis is the processor's minimum fee.
type Channel struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Code      string             `json:"code" bson:"code"`
	Name      string             `json:"name" bson:"name"`
	Direction ChannelDirection   `json:"direction" bson:"direction"`
	CostBasis decimal.Decimal    `json:"costBasis" bson:"costBasis"`
	IsActive  bool               `json:"isActive" bson:"isActive"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}
