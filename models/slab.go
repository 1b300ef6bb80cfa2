package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Slab maps an amount range to a flat fee. MinAmount is inclusive; MaxAmount
// is inclusive when set, and a nil MaxAmount makes the slab the catch-all for
// everything at or above MinAmount.
type Slab struct {
	MinAmount decimal.Decimal  `json:"minAmount" bson:"minAmount"`
	MaxAmount *decimal.Decimal `json:"maxAmount,omitempty" bson:"maxAmount,omitempty"`
	FlatFee   decimal.Decimal  `json:"flatFee" bson:"flatFee"`
}

// Matches reports whether amount falls inside the slab's range.
func (s Slab) Matches(amount decimal.Decimal) bool {
	if amount.LessThan(s.MinAmount) {
		return false
	}
	if s.MaxAmount == nil {
		return true
	}
	return amount.LessThanOrEqual(*s.MaxAmount)
}

// SlabConfig is the ordered, non-overlapping fee table owned by an actor or a
// tier. OwnerKey is the actor's hex id, or the tier name for tier defaults.
type SlabConfig struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	OwnerKey   string             `json:"ownerKey" bson:"ownerKey"`
	Slabs      []Slab             `json:"slabs" bson:"slabs"`
	AssignedBy primitive.ObjectID `json:"assignedBy,omitempty" bson:"assignedBy,omitempty"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt" bson:"updatedAt"`
}
