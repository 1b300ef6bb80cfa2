package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Account is an actor's wallet. Available and Held are both non-negative at
// all times; funds move between them through hold/release, never directly.
type Account struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ActorID   primitive.ObjectID `json:"actorId" bson:"actorId"`
	Available decimal.Decimal    `json:"available" bson:"available"`
	Held      decimal.Decimal    `json:"held" bson:"held"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Ledger entry kinds. Entries are write-once; replaying them in creation
// order reproduces the account's available balance exactly.
const (
	EntryCredit     = "CREDIT"
	EntryDebit      = "DEBIT"
	EntryHold       = "HOLD"
	EntryRefund     = "REFUND"
	EntryCommission = "COMMISSION"
)

type LedgerEntry struct {
	ID               primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	AccountID        primitive.ObjectID `json:"accountId" bson:"accountId"`
	Delta            decimal.Decimal    `json:"delta" bson:"delta"`
	ResultingBalance decimal.Decimal    `json:"resultingBalance" bson:"resultingBalance"`
	Kind             string             `json:"kind" bson:"kind"`
	Reference        string             `json:"reference" bson:"reference"`
	CreatedAt        time.Time          `json:"createdAt" bson:"createdAt"`
}
