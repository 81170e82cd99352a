// Package feed orchestrates the pipeline: guarded fetch, normalize, scam
// filter, classify, rank, narrate, publish. One tick is a straight-line pass
// over an in-memory slice; the published snapshot is replaced whole, never
// mutated.
package feed

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/trenchpulse/trenchpulse/internal/config"
	"github.com/trenchpulse/trenchpulse/internal/domain"
	"github.com/trenchpulse/trenchpulse/internal/narrative"
	"github.com/trenchpulse/trenchpulse/internal/providers"
	"github.com/trenchpulse/trenchpulse/internal/scam"
	"github.com/trenchpulse/trenchpulse/internal/signal"
	"github.com/trenchpulse/trenchpulse/internal/telemetry"
)

// maxTickInterval is the ceiling the 429 widening can reach.
const maxTickInterval = 5 * time.Minute

// Assembler runs the periodic pipeline and owns the published snapshot.
type Assembler struct {
	cfg     *config.Config
	sources []*Source
	gecko   *providers.CoinGeckoClient

	geckoTrendingGuard   *providers.SourceGuard
	geckoCategoriesGuard *providers.SourceGuard

	snapshot atomic.Pointer[domain.FeedSnapshot]
	interval atomic.Int64 // current adaptive tick interval, nanoseconds

	tickMu sync.Mutex // at-most-one tick in flight

	// Subscribers receive each newly published snapshot (best effort).
	subMu sync.Mutex
	subs  []chan *domain.FeedSnapshot
}

// NewAssembler wires the assembler from config and clients.
func NewAssembler(cfg *config.Config, dex *providers.DexScreenerClient, gecko *providers.CoinGeckoClient) *Assembler {
	a := &Assembler{
		cfg:     cfg,
		sources: BuildSources(cfg, dex),
		gecko:   gecko,
		geckoTrendingGuard: providers.NewSourceGuard(providers.GuardConfig{
			Name:        "coingecko-trending",
			TTL:         cfg.CacheTTL,
			MinInterval: cfg.MinFetchInterval,
			MaxRetries:  cfg.MaxRetries,
		}),
		geckoCategoriesGuard: providers.NewSourceGuard(providers.GuardConfig{
			Name:        "coingecko-categories",
			TTL:         cfg.CacheTTL,
			MinInterval: cfg.MinFetchInterval,
			MaxRetries:  cfg.MaxRetries,
		}),
	}
	a.interval.Store(int64(cfg.TickInterval))
	return a
}

// Snapshot returns the most recently published snapshot, or nil before the
// first successful tick.
func (a *Assembler) Snapshot() *domain.FeedSnapshot {
	return a.snapshot.Load()
}

// Interval returns the current adaptive tick interval.
func (a *Assembler) Interval() time.Duration {
	return time.Duration(a.interval.Load())
}

// SourceHealth reports guard state for every configured source.
func (a *Assembler) SourceHealth() []providers.SourceHealth {
	out := make([]providers.SourceHealth, 0, len(a.sources)+2)
	for _, s := range a.sources {
		out = append(out, s.Health())
	}
	out = append(out, a.geckoTrendingGuard.Health(), a.geckoCategoriesGuard.Health())
	return out
}

// Subscribe returns a channel that receives each published snapshot. Slow
// receivers miss snapshots rather than blocking publication.
func (a *Assembler) Subscribe() (<-chan *domain.FeedSnapshot, func()) {
	ch := make(chan *domain.FeedSnapshot, 1)
	a.subMu.Lock()
	a.subs = append(a.subs, ch)
	a.subMu.Unlock()

	cancel := func() {
		a.subMu.Lock()
		defer a.subMu.Unlock()
		for i, sub := range a.subs {
			if sub == ch {
				a.subs = append(a.subs[:i], a.subs[i+1:]...)
				return
			}
		}
	}
	return ch, cancel
}

// Run drives the main tick loop plus the faster secondary refreshers until
// ctx is cancelled.
func (a *Assembler) Run(ctx context.Context) {
	a.Tick(ctx)

	metricsTicker := time.NewTicker(a.cfg.MetricsRefresh)
	narrativeTicker := time.NewTicker(a.cfg.NarrativeRefresh)
	defer metricsTicker.Stop()
	defer narrativeTicker.Stop()

	timer := time.NewTimer(a.Interval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			a.Tick(ctx)
			timer.Reset(a.Interval())
		case <-metricsTicker.C:
			a.refreshDerived(time.Now())
		case <-narrativeTicker.C:
			a.refreshNarratives(ctx)
		}
	}
}

// Tick executes one full pipeline pass. A tick that starts while the
// previous one is still running is skipped.
func (a *Assembler) Tick(ctx context.Context) {
	if !a.tickMu.TryLock() {
		log.Warn().Msg("tick skipped: previous tick still running")
		return
	}
	defer a.tickMu.Unlock()

	start := time.Now()
	merged, throttled, anyOK := a.fetchAll(ctx)

	if throttled {
		a.widenInterval()
	} else if anyOK {
		a.narrowInterval()
	}

	if len(merged) == 0 {
		// Total upstream failure: keep serving the previous snapshot, marked
		// stale. Never synthesize market data.
		if prev := a.snapshot.Load(); prev != nil {
			stale := *prev
			stale.Stale = true
			a.publish(&stale)
		}
		log.Warn().Msg("tick produced no tokens; serving stale snapshot")
		return
	}

	tokens := a.annotate(merged)
	tokens = dedupFirstWins(tokens)
	signal.SortByHeat(tokens)
	if len(tokens) > a.cfg.Sources.MaxFeedTokens {
		tokens = tokens[:a.cfg.Sources.MaxFeedTokens]
	}

	trending, categories := a.fetchSecondary(ctx)
	narratives := narrative.Aggregate(tokens, trending, categories)

	snap := &domain.FeedSnapshot{
		Tokens:      tokens,
		Narratives:  narratives,
		Pulse:       BuildPulse(tokens, a.cfg.Sources.PulseOtherSplit),
		LastUpdated: time.Now(),
	}
	a.publish(snap)

	telemetry.TickDuration.Observe(time.Since(start).Seconds())
	telemetry.FeedSize.Set(float64(len(tokens)))
	telemetry.NarrativeCount.Set(float64(len(narratives)))
	log.Info().
		Int("tokens", len(tokens)).
		Int("narratives", len(narratives)).
		Dur("took", time.Since(start)).
		Msg("tick published")
}

// fetchAll runs every source in parallel with all-settled semantics: failed
// sources contribute nothing, the rest still land, in configured order.
func (a *Assembler) fetchAll(ctx context.Context) (merged []domain.Token, throttled, anyOK bool) {
	results := make([][]domain.Token, len(a.sources))
	errs := make([]error, len(a.sources))

	var wg sync.WaitGroup
	for i, src := range a.sources {
		wg.Add(1)
		go func(i int, src *Source) {
			defer wg.Done()
			results[i], errs[i] = src.Fetch(ctx)
		}(i, src)
	}
	wg.Wait()

	for i := range a.sources {
		if providers.IsThrottled(errs[i]) {
			throttled = true
		}
		if errs[i] == nil && results[i] != nil {
			anyOK = true
		}
		merged = append(merged, results[i]...)
	}
	return merged, throttled, anyOK
}

// annotate runs the scoring stages in their required order: scam detection,
// classification, scam gate, confidence adjustment, heat.
func (a *Assembler) annotate(in []domain.Token) []domain.Token {
	out := make([]domain.Token, 0, len(in))
	for _, t := range in {
		t.ScamCheck = scam.Detect(&t)
		if t.ScamCheck.ShouldFilter {
			telemetry.FilteredTokens.Inc()
			continue
		}

		c := signal.Gate(signal.Classify(&t), t.ScamCheck)
		t.Tag = c.Tag
		t.Edge = c.Edge
		t.SignalType = c.Signal
		t.IsUrgent = c.Urgent
		t.Confidence = scam.AdjustConfidence(c.Confidence, t.ScamCheck)
		t.Velocity = signal.Velocity(&t)
		t.HeatScore = signal.Heat(&t)
		out = append(out, t)
	}
	return out
}

// fetchSecondary pulls the CoinGecko social signals through their guards;
// both are optional inputs.
func (a *Assembler) fetchSecondary(ctx context.Context) ([]providers.TrendingCoin, []providers.CategoryStat) {
	var trending []providers.TrendingCoin
	var categories []providers.CategoryStat

	if val, _, err := a.geckoTrendingGuard.Fetch(ctx, func(ctx context.Context) (any, error) {
		return a.gecko.Trending(ctx)
	}); err == nil && val != nil {
		trending = val.([]providers.TrendingCoin)
	}
	if val, _, err := a.geckoCategoriesGuard.Fetch(ctx, func(ctx context.Context) (any, error) {
		return a.gecko.Categories(ctx)
	}); err == nil && val != nil {
		categories = val.([]providers.CategoryStat)
	}
	return trending, categories
}

// refreshDerived recomputes drift-sensitive annotations on the existing
// snapshot without upstream pressure. Age is re-derived from the creation
// timestamp so the launch bonuses decay between ticks.
func (a *Assembler) refreshDerived(now time.Time) {
	prev := a.snapshot.Load()
	if prev.Empty() {
		return
	}
	tokens := make([]domain.Token, len(prev.Tokens))
	copy(tokens, prev.Tokens)
	for i := range tokens {
		if tokens[i].CreatedAt > 0 {
			age := float64(now.UnixMilli()-tokens[i].CreatedAt) / 3.6e6
			if age < 0 {
				age = 0
			}
			tokens[i].AgeHours = age
		}
		tokens[i].HeatScore = signal.Heat(&tokens[i])
	}
	signal.SortByHeat(tokens)

	snap := *prev
	snap.Tokens = tokens
	a.publish(&snap)
}

// refreshNarratives recomputes the narrative view from the existing snapshot.
func (a *Assembler) refreshNarratives(ctx context.Context) {
	prev := a.snapshot.Load()
	if prev.Empty() {
		return
	}
	trending, categories := a.fetchSecondary(ctx)

	snap := *prev
	snap.Narratives = narrative.Aggregate(prev.Tokens, trending, categories)
	a.publish(&snap)
}

func (a *Assembler) publish(snap *domain.FeedSnapshot) {
	a.snapshot.Store(snap)

	a.subMu.Lock()
	defer a.subMu.Unlock()
	for _, ch := range a.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

// widenInterval doubles the tick interval after a 429, up to the ceiling.
func (a *Assembler) widenInterval() {
	cur := time.Duration(a.interval.Load())
	next := cur * 2
	if next > maxTickInterval {
		next = maxTickInterval
	}
	a.interval.Store(int64(next))
	telemetry.TickInterval.Set(next.Seconds())
	log.Warn().Dur("interval", next).Msg("throttled upstream; widening tick interval")
}

// narrowInterval halves the interval back toward the configured floor after
// a successful cycle.
func (a *Assembler) narrowInterval() {
	cur := time.Duration(a.interval.Load())
	if cur <= a.cfg.TickInterval {
		return
	}
	next := cur / 2
	if next < a.cfg.TickInterval {
		next = a.cfg.TickInterval
	}
	a.interval.Store(int64(next))
	telemetry.TickInterval.Set(next.Seconds())
}

// dedupFirstWins keeps the first-seen record per address, preserving
// encounter order.
func dedupFirstWins(tokens []domain.Token) []domain.Token {
	seen := make(map[string]bool, len(tokens))
	out := tokens[:0:0]
	for _, t := range tokens {
		if seen[t.Address] {
			continue
		}
		seen[t.Address] = true
		out = append(out, t)
	}
	return out
}
