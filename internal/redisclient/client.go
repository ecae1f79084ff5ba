package redisclient

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/reserve_offer.lua
var reserveOfferScript string

//go:embed scripts/release_offer.lua
var releaseOfferScript string

// GateResult is the outcome of a fast-path stock gate check.
type GateResult int

const (
	// GateGranted means the gate accepted the decrement; the database
	// remains the authority and the caller must release on DB failure.
	GateGranted GateResult = iota
	// GateSoldOut means the gate rejected the reservation outright.
	GateSoldOut
	// GateUntracked means the offer has no gate counter; callers fall
	// through to the database path.
	GateUntracked
)

type Client struct {
	rdb           *redis.Client
	reserveScript *redis.Script
	releaseScript *redis.Script
}

// NewClient creates a new Redis client with Lua scripts loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewClientWithRedis(rdb), nil
}

// NewClientWithRedis wraps an existing Redis connection (used by redismock tests)
func NewClientWithRedis(rdb *redis.Client) *Client {
	return &Client{
		rdb:           rdb,
		reserveScript: redis.NewScript(reserveOfferScript),
		releaseScript: redis.NewScript(releaseOfferScript),
	}
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func offerStockKey(offerID int64) string {
	return fmt.Sprintf("offer_stock:%d", offerID)
}

// ReserveOfferStock runs the atomic gate decrement for an offer.
func (c *Client) ReserveOfferStock(ctx context.Context, offerID int64, quantity int) (GateResult, error) {
	result, err := c.reserveScript.Run(ctx, c.rdb, []string{offerStockKey(offerID)}, quantity).Result()
	if err != nil {
		return GateUntracked, fmt.Errorf("reserve offer script failed: %w", err)
	}

	code, ok := result.(int64)
	if !ok {
		return GateUntracked, fmt.Errorf("unexpected script result type")
	}

	switch code {
	case 1:
		return GateGranted, nil
	case 0:
		return GateSoldOut, nil
	default:
		return GateUntracked, nil
	}
}

// ReleaseOfferStock returns gate stock after a failed commit or a cancellation.
func (c *Client) ReleaseOfferStock(ctx context.Context, offerID int64, quantity int) error {
	_, err := c.releaseScript.Run(ctx, c.rdb, []string{offerStockKey(offerID)}, quantity).Result()
	if err != nil {
		return fmt.Errorf("release offer script failed: %w", err)
	}
	return nil
}

// InitOfferStock seeds the gate counter with the remaining stock of an offer.
func (c *Client) InitOfferStock(ctx context.Context, offerID int64, remaining int) error {
	return c.rdb.Set(ctx, offerStockKey(offerID), remaining, 0).Err()
}

// GetOfferStock reads the current gate counter for an offer.
func (c *Client) GetOfferStock(ctx context.Context, offerID int64) (int, error) {
	remaining, err := c.rdb.Get(ctx, offerStockKey(offerID)).Int()
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

// CacheScanToken records a committed award token for the fast duplicate
// pre-check. The database unique index stays the actual guard.
func (c *Client) CacheScanToken(ctx context.Context, token string, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("scan_token:%s", token), "1", ttl).Err()
}

// IsScanTokenCached reports whether a token is already known to be used.
func (c *Client) IsScanTokenCached(ctx context.Context, token string) (bool, error) {
	result, err := c.rdb.Exists(ctx, fmt.Sprintf("scan_token:%s", token)).Result()
	if err != nil {
		return false, err
	}
	return result > 0, nil
}
