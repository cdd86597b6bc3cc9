package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/boma/rent-engine/payments"
)

// Connect opens a client and verifies the server answers within five seconds.
func Connect(addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return rdb, nil
}

// ReminderGuard claims reminder keys with SET NX so that several API
// replicas running the job send each reminder once per day.
type ReminderGuard struct {
	client redis.Cmdable
	prefix string
}

var _ payments.ReminderGuard = (*ReminderGuard)(nil)

func NewReminderGuard(client redis.Cmdable) *ReminderGuard {
	return &ReminderGuard{client: client, prefix: "rent:reminder:"}
}

func (g *ReminderGuard) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.prefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	return ok, nil
}
