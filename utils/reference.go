package utils

import (
	"crypto/rand"
	"encoding/base32"
	"strings"

	"github.com/google/uuid"
)

// ReferenceType tags a generated reference with the flow that created it.
type ReferenceType string

const (
	InboundReference    ReferenceType = "IN"
	PayoutReference     ReferenceType = "PO"
	AdjustmentReference ReferenceType = "ADJ"
	TransferReference   ReferenceType = "TRF"
)

// GenerateReference generates a unique settlement reference.
// Format: {TYPE}-{RANDOM} where RANDOM is 10 base32 characters.
// Example: IN-ABC123XY45, PO-XYZ789QW12
func GenerateReference(refType ReferenceType) (string, error) {
	randomBytes := make([]byte, 7)
	_, err := rand.Read(randomBytes)
	if err != nil {
		return "", err
	}

	randomStr := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes)
	randomStr = strings.ToUpper(randomStr)
	if len(randomStr) > 10 {
		randomStr = randomStr[:10]
	}

	return string(refType) + "-" + randomStr, nil
}

// GenerateIdempotencyKey returns a UUID for deduplicating processor calls.
func GenerateIdempotencyKey() string {
	return uuid.NewString()
}
