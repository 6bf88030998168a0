package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/durent/durent-backend/pkg/config"
	"github.com/durent/durent-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	keyNamespace    = "durent"
	rateLimitPrefix = "rate_limit"
	cronPrefix      = "cron"
)

var errNotInitialized = errors.New("redis client not initialized")

// hitScript increments a fixed-window counter, arms its expiry on the first
// hit and returns {count, pttl}.
const hitScript = `
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {n, redis.call("PTTL", KEYS[1])}
`

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	SetNX(context.Context, string, any, time.Duration) *redis.BoolCmd
	Del(context.Context, ...string) *redis.IntCmd
	Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd
}

// Client holds the scheduler fire markers and the trigger rate-limit counters.
type Client struct {
	store cmdable
	raw   *redis.Client
}

// New bootstraps a Redis client with pooling/timeouts and verifies connectivity.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"addr": opts.Addr, "db": opts.DB}), "redis connection established")
	}
	return &Client{store: raw, raw: raw}, nil
}

// URL wins over Address; pool and timeout settings fill whatever the URL left unset.
func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	var opts *redis.Options
	switch {
	case cfg.URL != "":
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	case cfg.Address != "":
		opts = &redis.Options{Addr: cfg.Address, Password: cfg.Password, DB: cfg.DB}
	default:
		return nil, errors.New("redis url or address is required")
	}

	if opts.DB == 0 {
		opts.DB = cfg.DB
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if opts.MinIdleConns == 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

// Hit counts one request against the fixed window for scope and reports the
// running count plus the time left until the window resets.
func (c *Client) Hit(ctx context.Context, scope string, window time.Duration) (int64, time.Duration, error) {
	if c.store == nil {
		return 0, 0, errNotInitialized
	}
	if window <= 0 {
		return 0, 0, errors.New("rate limit window must be positive")
	}
	vals, err := c.store.Eval(ctx, hitScript, []string{c.RateLimitKey(scope)}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, 0, fmt.Errorf("rate limit hit: %w", err)
	}
	if len(vals) != 2 {
		return 0, 0, fmt.Errorf("rate limit hit: unexpected reply %v", vals)
	}
	resetIn := time.Duration(vals[1]) * time.Millisecond
	if resetIn < 0 {
		resetIn = window
	}
	return vals[0], resetIn, nil
}

func (c *Client) RateLimitKey(scope string) string {
	return c.buildKey(rateLimitPrefix, scope)
}

// CronFireKey returns the marker key claimed by a scheduled job fire.
func (c *Client) CronFireKey(job, fire string) string {
	return c.buildKey(cronPrefix, job, fire)
}

// ClaimCronFire records that owner runs the given job fire. It reports false
// when another replica already holds the marker.
func (c *Client) ClaimCronFire(ctx context.Context, job, fire, owner string, ttl time.Duration) (bool, error) {
	if c.store == nil {
		return false, errNotInitialized
	}
	return c.store.SetNX(ctx, c.CronFireKey(job, fire), owner, ttl).Result()
}

// CronFireOwner returns who claimed a fire. ok is false when nobody did.
func (c *Client) CronFireOwner(ctx context.Context, job, fire string) (owner string, ok bool, err error) {
	if c.store == nil {
		return "", false, errNotInitialized
	}
	owner, err = c.store.Get(ctx, c.CronFireKey(job, fire)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return owner, true, nil
}

// ReleaseCronFire drops a fire marker; used by operators replaying a fire by hand.
func (c *Client) ReleaseCronFire(ctx context.Context, job, fire string) error {
	if c.store == nil {
		return errNotInitialized
	}
	return c.store.Del(ctx, c.CronFireKey(job, fire)).Err()
}

func (c *Client) Ping(ctx context.Context) error {
	if c.store == nil {
		return errNotInitialized
	}
	return c.store.Ping(ctx).Err()
}

func (c *Client) Close() error {
	if c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

func (c *Client) buildKey(parts ...string) string {
	clean := []string{keyNamespace}
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			clean = append(clean, part)
		}
	}
	return strings.Join(clean, ":")
}
