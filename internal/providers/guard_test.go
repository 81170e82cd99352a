package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGuardCachesWithinMinInterval(t *testing.T) {
	g := NewSourceGuard(GuardConfig{Name: "test", TTL: time.Minute, MinInterval: time.Minute, MaxRetries: 2})

	calls := 0
	fn := func(ctx context.Context) (any, error) {
		calls++
		return []string{"payload"}, nil
	}

	first, cached, err := g.Fetch(context.Background(), fn)
	require.NoError(t, err)
	require.False(t, cached)

	second, cached, err := g.Fetch(context.Background(), fn)
	require.NoError(t, err)
	require.True(t, cached)
	require.Equal(t, 1, calls)

	// Same reference, not a re-decoded copy.
	require.True(t, &first.([]string)[0] == &second.([]string)[0])
}

func TestGuardServesStaleOnFailure(t *testing.T) {
	g := NewSourceGuard(GuardConfig{Name: "test", TTL: time.Minute, MinInterval: time.Nanosecond, MaxRetries: 2})

	_, _, err := g.Fetch(context.Background(), func(ctx context.Context) (any, error) {
		return "good", nil
	})
	require.NoError(t, err)

	// Expire the min-interval window so the next call goes upstream.
	g.lastFetch = time.Now().Add(-2 * time.Minute)
	g.limiter.SetBurst(1)

	upstreamErr := errors.New("boom")
	val, cached, err := g.Fetch(context.Background(), func(ctx context.Context) (any, error) {
		return nil, upstreamErr
	})
	require.True(t, cached)
	require.Equal(t, "good", val)
	// The failure is surfaced alongside the stale data.
	require.ErrorIs(t, err, upstreamErr)
}

func TestGuardBackoffBlocksRetries(t *testing.T) {
	g := NewSourceGuard(GuardConfig{Name: "test", TTL: time.Minute, MinInterval: time.Nanosecond, MaxRetries: 3})

	calls := 0
	fail := func(ctx context.Context) (any, error) {
		calls++
		return nil, errors.New("down")
	}

	_, _, err := g.Fetch(context.Background(), fail)
	require.Error(t, err)
	require.Equal(t, 1, calls)
	require.Equal(t, 1, g.retries)

	// Inside the backoff window nothing goes upstream.
	_, _, err = g.Fetch(context.Background(), fail)
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestGuardBackoffGrowsAndCaps(t *testing.T) {
	g := NewSourceGuard(GuardConfig{Name: "test", TTL: time.Minute, MinInterval: time.Nanosecond, MaxRetries: 2})

	fail := func(ctx context.Context) (any, error) { return nil, errors.New("down") }
	for i := 0; i < 5; i++ {
		g.nextAttempt = time.Time{} // force the attempt through
		g.limiter.SetLimit(1e9)
		g.Fetch(context.Background(), fail)
	}
	// Doublings stop at MaxRetries: 2^2 * 10s.
	require.Equal(t, 2, g.retries)
	require.WithinDuration(t, time.Now().Add(40*time.Second), g.nextAttempt, 2*time.Second)
}

func TestGuardRecoveryResetsBackoff(t *testing.T) {
	g := NewSourceGuard(GuardConfig{Name: "test", TTL: time.Minute, MinInterval: time.Nanosecond, MaxRetries: 2})

	g.Fetch(context.Background(), func(ctx context.Context) (any, error) {
		return nil, errors.New("down")
	})
	require.Equal(t, 1, g.retries)

	g.nextAttempt = time.Time{}
	g.limiter.SetLimit(1e9)
	_, _, err := g.Fetch(context.Background(), func(ctx context.Context) (any, error) {
		return "back", nil
	})
	require.NoError(t, err)
	require.Zero(t, g.retries)
	require.True(t, g.nextAttempt.IsZero())
}

func TestGuardHealthSnapshot(t *testing.T) {
	g := NewSourceGuard(GuardConfig{Name: "dex-search", TTL: time.Minute, MinInterval: time.Minute, MaxRetries: 2})
	g.Fetch(context.Background(), func(ctx context.Context) (any, error) { return "x", nil })
	g.Fetch(context.Background(), func(ctx context.Context) (any, error) { return "x", nil })

	h := g.Health()
	require.Equal(t, "dex-search", h.Source)
	require.Equal(t, int64(1), h.CacheHits)
	require.Equal(t, int64(1), h.CacheMisses)
	require.False(t, h.CircuitOpen)
	require.False(t, h.LastSuccess.IsZero())
}

func TestIsThrottled(t *testing.T) {
	require.True(t, IsThrottled(ErrUpstreamThrottled))
	wrapped := errors.Join(errors.New("ctx"), ErrUpstreamThrottled)
	require.True(t, IsThrottled(wrapped))
	require.False(t, IsThrottled(errors.New("other")))
}
