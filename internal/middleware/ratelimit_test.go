package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRateLimiter_SlidingWindow(t *testing.T) {
	now := time.Now()
	limiter := NewMemoryRateLimiter()
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "signin:10.0.0.1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := limiter.Allow(ctx, "signin:10.0.0.1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	// Other keys are unaffected.
	allowed, err = limiter.Allow(ctx, "signin:10.0.0.2", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	// Once the earliest hits age out the key recovers.
	now = now.Add(61 * time.Second)
	allowed, err = limiter.Allow(ctx, "signin:10.0.0.1", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestMemoryRateLimiter_DeniedAttemptsDoNotExtendWindow(t *testing.T) {
	now := time.Now()
	limiter := NewMemoryRateLimiter()
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	allowed, err := limiter.Allow(ctx, "k", 1, time.Minute)
	require.NoError(t, err)
	require.True(t, allowed)

	// Hammering while denied must not push recovery further out.
	for i := 0; i < 10; i++ {
		now = now.Add(time.Second)
		allowed, err = limiter.Allow(ctx, "k", 1, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)
	}

	now = now.Add(51 * time.Second)
	allowed, err = limiter.Allow(ctx, "k", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.10:5123"
	assert.Equal(t, "192.0.2.10", ClientIP(r))

	r.Header.Set("X-Real-IP", "203.0.113.7")
	assert.Equal(t, "203.0.113.7", ClientIP(r))

	r.Header.Set("X-Forwarded-For", "198.51.100.4, 10.0.0.1")
	assert.Equal(t, "198.51.100.4", ClientIP(r), "first forwarded hop wins")
}
