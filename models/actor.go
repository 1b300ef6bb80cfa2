package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Tier identifies an actor's level in the reseller hierarchy.
type Tier string

const (
	TierAdmin             Tier = "admin"
	TierWhiteLabel        Tier = "whitelabel"
	TierMasterDistributor Tier = "masterdistributor"
	TierDistributor       Tier = "distributor"
	TierRetailer          Tier = "retailer"
)

// MaxHierarchyDepth bounds every upward walk through parent references.
// Nothing upstream guarantees acyclicity, so walks must never trust the data.
const MaxHierarchyDepth = 32

type Actor struct {
	ID        primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	Name      string              `json:"name" bson:"name"`
	Email     string              `json:"email" bson:"email"`
	Password  string              `json:"password,omitempty" bson:"password"`
	Tier      Tier                `json:"tier" bson:"tier"`
	ParentID  *primitive.ObjectID `json:"parentId,omitempty" bson:"parentId,omitempty"`
	IsActive  bool                `json:"isActive" bson:"isActive"`
	CreatedAt time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// IsRoot reports whether the actor sits at the top of the hierarchy.
func (a *Actor) IsRoot() bool {
	return a.Tier == TierAdmin
}

// ValidTier reports whether t is one of the known hierarchy tiers.
func ValidTier(t Tier) bool {
	switch t {
	case TierAdmin, TierWhiteLabel, TierMasterDistributor, TierDistributor, TierRetailer:
		return true
	}
	return false
}

// ChildTiers returns the tiers an actor of tier t may onboard directly below it.
func ChildTiers(t Tier) []Tier {
	switch t {
	case TierAdmin:
		return []Tier{TierWhiteLabel, TierMasterDistributor, TierDistributor, TierRetailer}
	case TierWhiteLabel:
		return []Tier{TierMasterDistributor}
	case TierMasterDistributor:
		return []Tier{TierDistributor}
	case TierDistributor:
		return []Tier{TierRetailer}
	}
	return nil
}
