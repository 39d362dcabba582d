package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/invoicely/internal/config"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newLimiter(enabled bool, rate float64, burst int) *AuthLimiter {
	cfg := config.Config{RateLimit: config.RateLimitConfig{
		Enabled:    enabled,
		LoginRate:  rate,
		LoginBurst: burst,
	}}
	return NewAuthLimiter(cfg, nil, nil, zap.NewNop())
}

func TestAuthLimiterDeniesAfterBurst(t *testing.T) {
	l := newLimiter(true, 0.01, 2)
	ctx := context.Background()

	assert.True(t, l.Allow(ctx, "login", "10.0.0.1").Allowed)
	assert.True(t, l.Allow(ctx, "login", "10.0.0.1").Allowed)

	denied := l.Allow(ctx, "login", "10.0.0.1")
	assert.False(t, denied.Allowed)
	assert.Greater(t, denied.RetryAfter, time.Duration(0))

	assert.True(t, l.Allow(ctx, "login", "10.0.0.2").Allowed, "other clients keep their own bucket")
	assert.True(t, l.Allow(ctx, "signup", "10.0.0.1").Allowed, "endpoints are limited separately")
}

func TestAuthLimiterDisabledAllowsAll(t *testing.T) {
	l := newLimiter(false, 0.01, 1)
	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow(context.Background(), "login", "10.0.0.1").Allowed)
	}
}

func TestLocalBucketsRefillAndEvict(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := newLocalBuckets()
	b.now = func() time.Time { return now }

	assert.True(t, b.Allow("k", 1, 1).Allowed)
	assert.False(t, b.Allow("k", 1, 1).Allowed)

	now = now.Add(time.Second)
	assert.True(t, b.Allow("k", 1, 1).Allowed)

	now = now.Add(localIdleTTL + time.Minute)
	b.Allow("other", 1, 1)
	_, kept := b.entries["k"]
	assert.False(t, kept)
}

func TestTokenBucketValidation(t *testing.T) {
	var bucket *TokenBucket
	res, err := bucket.Allow(context.Background(), "k", 1, 1)
	assert.Error(t, err)
	assert.False(t, res.Allowed)

	assert.Error(t, validate("", 1, 1))
	assert.Error(t, validate("k", 0, 1))
	assert.Error(t, validate("k", 1, 0))
	assert.NoError(t, validate("k", 1, 1))
}

func TestCasts(t *testing.T) {
	assert.Equal(t, int64(1), castToInt(int64(1)))
	assert.Equal(t, int64(3), castToInt("3"))
	assert.Equal(t, 2.5, castToFloat("2.5"))
	assert.Equal(t, 0.0, castToFloat("x"))
	assert.Equal(t, 2*time.Second, defaultBucketTTL(1, 1))
}
