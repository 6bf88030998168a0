package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	defaultClaimTTL = 25 * time.Hour
	fireKeyLayout   = "200601021504"
)

// FireGuard decides which replica runs a given scheduled fire.
type FireGuard interface {
	Claim(ctx context.Context, job string, fire time.Time) (bool, error)
}

// cronFireStore defines the operations used by RedisFireGuard.
type cronFireStore interface {
	ClaimCronFire(ctx context.Context, job, fire, owner string, ttl time.Duration) (bool, error)
	CronFireOwner(ctx context.Context, job, fire string) (string, bool, error)
	ReleaseCronFire(ctx context.Context, job, fire string) error
}

// RedisFireGuard claims each (job, fire minute) pair with SETNX + TTL. Claims
// are never released, so a failed fire is not retried by another replica.
type RedisFireGuard struct {
	client cronFireStore
	ttl    time.Duration
	owner  string
}

// NewRedisFireGuard constructs a Redis-backed guard.
func NewRedisFireGuard(client cronFireStore, ttl time.Duration) (*RedisFireGuard, error) {
	if client == nil {
		return nil, errors.New("redis client required for fire guard")
	}
	if ttl <= 0 {
		ttl = defaultClaimTTL
	}
	return &RedisFireGuard{client: client, ttl: ttl, owner: uuid.NewString()}, nil
}

// Claim reports whether this process owns the fire.
func (g *RedisFireGuard) Claim(ctx context.Context, job string, fire time.Time) (bool, error) {
	ok, err := g.client.ClaimCronFire(ctx, job, FireKey(fire), g.owner, g.ttl)
	if err != nil {
		return false, fmt.Errorf("claim cron fire: %w", err)
	}
	return ok, nil
}

// Owner reports which process claimed the fire, if any.
func (g *RedisFireGuard) Owner(ctx context.Context, job string, fire time.Time) (string, bool, error) {
	owner, ok, err := g.client.CronFireOwner(ctx, job, FireKey(fire))
	if err != nil {
		return "", false, fmt.Errorf("lookup cron fire: %w", err)
	}
	return owner, ok, nil
}

// Release drops the marker so an operator can replay the fire.
func (g *RedisFireGuard) Release(ctx context.Context, job string, fire time.Time) error {
	if err := g.client.ReleaseCronFire(ctx, job, FireKey(fire)); err != nil {
		return fmt.Errorf("release cron fire: %w", err)
	}
	return nil
}

// FireKey renders the minute-resolution UTC key for a fire.
func FireKey(fire time.Time) string {
	return fire.UTC().Truncate(time.Minute).Format(fireKeyLayout)
}
