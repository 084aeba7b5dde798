package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowEnforcesBurst(t *testing.T) {
	limiter := New(10, 10)

	for i := 0; i < 10; i++ {
		require.True(t, limiter.Allow(), "request %d should be within burst", i)
	}

	assert.False(t, limiter.Allow(), "burst exhausted, request should be rejected")

	// 10 req/s refills one token every 100ms.
	time.Sleep(110 * time.Millisecond)
	assert.True(t, limiter.Allow(), "request should be allowed after refill")
}

func TestBurstDefaultsToRate(t *testing.T) {
	limiter := New(5, 0)

	for i := 0; i < 5; i++ {
		require.True(t, limiter.Allow())
	}
	assert.False(t, limiter.Allow())
}

func TestZeroRateIsUnlimited(t *testing.T) {
	limiter := New(0, 0)

	for i := 0; i < 1000; i++ {
		require.True(t, limiter.Allow(), "unlimited limiter rejected request %d", i)
	}
}

func TestWaitBlocksUntilToken(t *testing.T) {
	limiter := New(10, 1)
	ctx := context.Background()

	require.NoError(t, limiter.Wait(ctx))

	start := time.Now()
	require.NoError(t, limiter.Wait(ctx))
	elapsed := time.Since(start)

	// One token at 10 req/s takes ~100ms; allow for timing jitter.
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.LessOrEqual(t, elapsed, 300*time.Millisecond)
}

func TestWaitRespectsContext(t *testing.T) {
	limiter := New(1, 1)
	require.True(t, limiter.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.Error(t, limiter.Wait(ctx))
}

func TestTokens(t *testing.T) {
	limiter := New(10, 10)

	for i := 0; i < 5; i++ {
		limiter.Allow()
	}

	remaining := limiter.Tokens()
	assert.GreaterOrEqual(t, remaining, 4.0)
	assert.LessOrEqual(t, remaining, 6.0)
}

func BenchmarkAllow(b *testing.B) {
	limiter := New(1_000_000, 1_000_000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		limiter.Allow()
	}
}
