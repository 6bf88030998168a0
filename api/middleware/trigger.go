package middleware

import (
	"context"
	"crypto/subtle"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/durent/durent-backend/api/responses"
	pkgerrors "github.com/durent/durent-backend/pkg/errors"
	"github.com/durent/durent-backend/pkg/logger"
)

// TriggerSecretHeader carries the shared secret used by external schedulers.
const TriggerSecretHeader = "X-Cron-Secret"

// rateLimiterStore counts hits in a fixed window and reports when it resets.
type rateLimiterStore interface {
	Hit(ctx context.Context, scope string, window time.Duration) (int64, time.Duration, error)
}

// TriggerSecret rejects requests whose X-Cron-Secret does not match secret.
// An empty secret leaves the route open.
func TriggerSecret(secret string, logg *logger.Logger) func(http.Handler) http.Handler {
	secret = strings.TrimSpace(secret)
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := strings.TrimSpace(r.Header.Get(TriggerSecretHeader))
			if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid trigger secret"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TriggerRateLimitPolicy defines the per-IP throttle for manual job triggers.
type TriggerRateLimitPolicy struct {
	name        string
	window      time.Duration
	limit       int
	trustedHops int
}

// NewTriggerRateLimitPolicy builds a policy with the supplied window and limit.
func NewTriggerRateLimitPolicy(name string, window time.Duration, limit int) TriggerRateLimitPolicy {
	return TriggerRateLimitPolicy{
		name:   strings.ToLower(strings.TrimSpace(name)),
		window: window,
		limit:  limit,
	}
}

// WithTrustedProxies sets how many reverse proxies in front of the service
// append to X-Forwarded-For. Zero keys on the TCP peer address only.
func (p TriggerRateLimitPolicy) WithTrustedProxies(hops int) TriggerRateLimitPolicy {
	p.trustedHops = max(hops, 0)
	return p
}

func (p TriggerRateLimitPolicy) enabled() bool {
	return p.window > 0 && p.limit > 0
}

func (p TriggerRateLimitPolicy) normalizedName() string {
	if p.name == "" {
		return "trigger"
	}
	return p.name
}

func (p TriggerRateLimitPolicy) scope(ip string) string {
	if ip == "" {
		return ""
	}
	return fmt.Sprintf("trigger:%s:%s", p.normalizedName(), ip)
}

// TriggerRateLimit enforces a fixed-window counter per client IP.
func TriggerRateLimit(policy TriggerRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := clientIP(r, policy.trustedHops)
			scope := policy.scope(ip)
			if scope == "" {
				next.ServeHTTP(w, r)
				return
			}

			count, resetIn, err := store.Hit(ctx, scope, policy.window)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if count > int64(policy.limit) {
				respondRateLimited(ctx, logg, w, policy, ip, count, resetIn)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func respondRateLimited(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy TriggerRateLimitPolicy, ip string, count int64, resetIn time.Duration) {
	retryAfter := int(math.Ceil(resetIn.Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}
	if logg != nil {
		logCtx := logg.WithFields(ctx, map[string]any{
			"policy":         policy.normalizedName(),
			"ip":             ip,
			"attempts":       count,
			"limit":          policy.limit,
			"window_seconds": int(policy.window.Seconds()),
			"retry_after":    retryAfter,
		})
		logg.Warn(logCtx, "trigger.rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded").
		WithDetails(map[string]any{"retry_after_seconds": retryAfter}))
}

// clientIP resolves the caller address. Entries left of the trusted hops in
// X-Forwarded-For are client supplied and never used.
func clientIP(r *http.Request, trustedHops int) string {
	if r == nil {
		return ""
	}
	if trustedHops > 0 {
		var hops []string
		for _, header := range r.Header.Values("X-Forwarded-For") {
			for _, part := range strings.Split(header, ",") {
				hops = append(hops, strings.TrimSpace(part))
			}
		}
		if len(hops) >= trustedHops {
			if ip := net.ParseIP(hops[len(hops)-trustedHops]); ip != nil {
				return ip.String()
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
