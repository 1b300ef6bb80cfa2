package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	pricingVersionKey = "pricing:version"
	pricingCacheTTL   = 15 * time.Minute
)

// PricingCache is a versioned snapshot of resolved effective rates. Every
// assignment write bumps the version, which orphans all previously cached
// entries at once; there is no mutable in-process config global to
// invalidate. A missing or unreachable Redis degrades to plain store lookups.
type PricingCache struct {
	rdb *redis.Client
}

func NewPricingCache(rdb *redis.Client) *PricingCache {
	if rdb == nil {
		return nil
	}
	return &PricingCache{rdb: rdb}
}

// Version returns the current snapshot version.
func (c *PricingCache) Version(ctx context.Context) (int64, error) {
	v, err := c.rdb.Get(ctx, pricingVersionKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return v, err
}

// Bump advances the snapshot version. Called by the assignment service after
// every successful rate or slab write; this is the cache's only refresh
// trigger.
func (c *PricingCache) Bump(ctx context.Context) {
	if err := c.rdb.Incr(ctx, pricingVersionKey).Err(); err != nil {
		log.Printf("pricing cache: version bump failed: %v", err)
	}
}

// GetRate returns a cached effective rate for the current snapshot version.
func (c *PricingCache) GetRate(ctx context.Context, actorID, channelID primitive.ObjectID) (decimal.Decimal, bool) {
	version, err := c.Version(ctx)
	if err != nil {
		return decimal.Zero, false
	}
	raw, err := c.rdb.Get(ctx, rateKey(version, actorID, channelID)).Result()
	if err != nil {
		return decimal.Zero, false
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return rate, true
}

// PutRate stores a resolved rate under the current snapshot version.
func (c *PricingCache) PutRate(ctx context.Context, actorID, channelID primitive.ObjectID, rate decimal.Decimal) {
	version, err := c.Version(ctx)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, rateKey(version, actorID, channelID), rate.String(), pricingCacheTTL).Err(); err != nil {
		log.Printf("pricing cache: put failed: %v", err)
	}
}

func rateKey(version int64, actorID, channelID primitive.ObjectID) string {
	return fmt.Sprintf("pricing:v%d:rate:%s:%s", version, actorID.Hex(), channelID.Hex())
}
