package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/invoicely/internal/config"
	obsmetrics "github.com/smallbiznis/invoicely/internal/observability/metrics"
	"go.uber.org/zap"
)

const keyAuthAttempt = "invoicely:ratelimit:%s:%s"

// AuthLimiter throttles sign-in and sign-up attempts per client IP. It uses
// the shared Redis bucket when configured and an in-process bucket otherwise
// or when Redis fails.
type AuthLimiter struct {
	enabled bool
	rate    float64
	burst   int

	bucket  *TokenBucket
	local   *localBuckets
	metrics *obsmetrics.Metrics
	log     *zap.Logger
}

func NewAuthLimiter(cfg config.Config, client *redis.Client, metrics *obsmetrics.Metrics, log *zap.Logger) *AuthLimiter {
	limitCfg := cfg.RateLimit
	enabled := limitCfg.Enabled && limitCfg.LoginRate > 0 && limitCfg.LoginBurst > 0
	return &AuthLimiter{
		enabled: enabled,
		rate:    limitCfg.LoginRate,
		burst:   limitCfg.LoginBurst,
		bucket:  NewTokenBucket(client),
		local:   newLocalBuckets(),
		metrics: metrics,
		log:     log.Named("ratelimit"),
	}
}

func (l *AuthLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// Allow consumes one attempt for clientIP on endpoint.
func (l *AuthLimiter) Allow(ctx context.Context, endpoint, clientIP string) *RateLimitResult {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}
	}
	key := fmt.Sprintf(keyAuthAttempt, strings.TrimSpace(endpoint), strings.TrimSpace(clientIP))

	result := l.allow(ctx, key)
	if result.Allowed {
		l.metrics.RecordRateLimitAllowed(ctx, endpoint)
	} else {
		l.metrics.RecordRateLimitDenied(ctx, endpoint, "exhausted")
	}
	return result
}

func (l *AuthLimiter) allow(ctx context.Context, key string) *RateLimitResult {
	if l.bucket != nil {
		result, err := l.bucket.Allow(ctx, key, l.rate, l.burst)
		if err == nil {
			return result
		}
		l.log.Warn("redis rate limit failed, using local bucket", zap.Error(err))
	}
	return l.local.Allow(key, l.rate, l.burst)
}
