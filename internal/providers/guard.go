package providers

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// GuardConfig holds per-source cache and pacing settings.
type GuardConfig struct {
	Name        string        `yaml:"name"`
	TTL         time.Duration `yaml:"ttl"`          // cache freshness window
	MinInterval time.Duration `yaml:"min_interval"` // no network calls closer than this
	MaxRetries  int           `yaml:"max_retries"`  // backoff attempts before stale fallback
}

// SourceGuard wraps one upstream source with a TTL cache, a min-interval
// gate, exponential backoff scheduling, and a circuit breaker. Cached values
// are immutable snapshots; consumers never mutate a returned result, and two
// fetches inside the min-interval return the same reference.
type SourceGuard struct {
	cfg     GuardConfig
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker

	mu          sync.Mutex
	cached      any
	lastFetch   time.Time
	retries     int
	nextAttempt time.Time
	lastErr     error

	hits, misses int64
	lastSuccess  time.Time
	lastFailure  time.Time
}

// SourceHealth is a point-in-time view of a guard, exposed at /health.
type SourceHealth struct {
	Source      string    `json:"source"`
	CircuitOpen bool      `json:"circuit_open"`
	Retries     int       `json:"retries"`
	CacheAgeMS  int64     `json:"cache_age_ms"`
	CacheHits   int64     `json:"cache_hits"`
	CacheMisses int64     `json:"cache_misses"`
	LastSuccess time.Time `json:"last_success,omitempty"`
	LastFailure time.Time `json:"last_failure,omitempty"`
}

// NewSourceGuard builds a guard for one named source.
func NewSourceGuard(cfg GuardConfig) *SourceGuard {
	if cfg.TTL <= 0 {
		cfg.TTL = 2 * time.Minute
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = time.Minute
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	return &SourceGuard{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        cfg.Name,
			MaxRequests: 1,
			Timeout:     cfg.TTL,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > uint32(cfg.MaxRetries)+2
			},
		}),
	}
}

// Fetch returns the guarded result of fn. The bool reports whether the value
// came from cache. When a stale cached value is served alongside an upstream
// failure, both the value and the error are returned; callers use the error
// only as a degradation signal, never as a reason to drop the data.
func (g *SourceGuard) Fetch(ctx context.Context, fn func(context.Context) (any, error)) (any, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()

	// Min-interval gate: inside the window the cached snapshot is the answer.
	if g.cached != nil && now.Sub(g.lastFetch) < g.cfg.MinInterval {
		g.hits++
		return g.cached, true, nil
	}

	// Backoff window from a previous failure still open.
	if now.Before(g.nextAttempt) {
		if g.cached != nil {
			g.hits++
			return g.cached, true, nil
		}
		return nil, false, g.lastErr
	}

	// Sustained-rate cap, independent of the failure backoff.
	if !g.limiter.Allow() {
		if g.cached != nil {
			g.hits++
			return g.cached, true, nil
		}
		return nil, false, ErrUpstreamThrottled
	}

	g.misses++
	data, err := g.breaker.Execute(func() (any, error) { return fn(ctx) })
	if err == nil {
		g.cached = data
		g.lastFetch = now
		g.lastSuccess = now
		g.retries = 0
		g.nextAttempt = time.Time{}
		g.lastErr = nil
		return data, false, nil
	}

	// Failure: schedule the next attempt with exponential backoff, capped at
	// MaxRetries doublings, then keep falling through to the stale cache.
	g.lastFailure = now
	g.lastErr = err
	if g.retries < g.cfg.MaxRetries {
		g.retries++
	}
	backoff := time.Duration(1<<uint(g.retries)) * 10 * time.Second
	g.nextAttempt = now.Add(backoff)

	log.Warn().
		Str("source", g.cfg.Name).
		Int("retries", g.retries).
		Dur("backoff", backoff).
		Err(err).
		Msg("source fetch failed")

	if g.cached != nil {
		g.hits++
		return g.cached, true, err
	}
	return nil, false, err
}

// Health snapshots the guard state.
func (g *SourceGuard) Health() SourceHealth {
	g.mu.Lock()
	defer g.mu.Unlock()

	var age int64
	if !g.lastFetch.IsZero() {
		age = time.Since(g.lastFetch).Milliseconds()
	}
	return SourceHealth{
		Source:      g.cfg.Name,
		CircuitOpen: g.breaker.State() == gobreaker.StateOpen,
		Retries:     g.retries,
		CacheAgeMS:  age,
		CacheHits:   g.hits,
		CacheMisses: g.misses,
		LastSuccess: g.lastSuccess,
		LastFailure: g.lastFailure,
	}
}
