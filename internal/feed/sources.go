package feed

import (
	"context"
	"strings"
	"time"

	"github.com/trenchpulse/trenchpulse/internal/config"
	"github.com/trenchpulse/trenchpulse/internal/domain"
	"github.com/trenchpulse/trenchpulse/internal/normalize"
	"github.com/trenchpulse/trenchpulse/internal/providers"
	"github.com/trenchpulse/trenchpulse/internal/telemetry"
)

// Source is one guarded upstream feed of normalized tokens. The guard caches
// the normalized slice, so consumers inside the min-interval window get the
// same immutable value back.
type Source struct {
	Name  string
	guard *providers.SourceGuard
	fetch func(context.Context) ([]domain.Token, error)
}

// Fetch runs the guarded fetch. Errors are returned alongside any stale data
// so the caller can degrade instead of dropping the source.
func (s *Source) Fetch(ctx context.Context) ([]domain.Token, error) {
	val, cached, err := s.guard.Fetch(ctx, func(ctx context.Context) (any, error) {
		tokens, err := s.fetch(ctx)
		if err != nil {
			return nil, err
		}
		for i := range tokens {
			tokens[i].Source = s.Name
		}
		return tokens, nil
	})
	switch {
	case cached:
		telemetry.CacheHits.WithLabelValues(s.Name).Inc()
	case err != nil:
		telemetry.SourceFetches.WithLabelValues(s.Name, "error").Inc()
	default:
		telemetry.SourceFetches.WithLabelValues(s.Name, "ok").Inc()
	}
	if val == nil {
		return nil, err
	}
	return val.([]domain.Token), err
}

// Health exposes the underlying guard state.
func (s *Source) Health() providers.SourceHealth { return s.guard.Health() }

// BuildSources wires the configured upstream clients into guarded sources,
// in the fixed order that dedup encounter-order depends on.
func BuildSources(cfg *config.Config, dex *providers.DexScreenerClient) []*Source {
	guardCfg := func(name string) providers.GuardConfig {
		return providers.GuardConfig{
			Name:        name,
			TTL:         cfg.CacheTTL,
			MinInterval: cfg.MinFetchInterval,
			MaxRetries:  cfg.MaxRetries,
		}
	}

	terms := newTermRotation(cfg.Sources.SearchTerms, cfg.Sources.TermsPerTick)

	sources := []*Source{
		{
			Name:  "dex-search",
			guard: providers.NewSourceGuard(guardCfg("dex-search")),
			fetch: func(ctx context.Context) ([]domain.Token, error) {
				var all []domain.Token
				for _, term := range terms.next() {
					pairs, err := dex.Search(ctx, term)
					if err != nil {
						return nil, err
					}
					all = append(all, normalize.Pairs(pairs, time.Now())...)
				}
				return all, nil
			},
		},
		{
			Name:  "token-profiles",
			guard: providers.NewSourceGuard(guardCfg("token-profiles")),
			fetch: func(ctx context.Context) ([]domain.Token, error) {
				return fetchByProfiles(ctx, dex, dex.TokenProfilesLatest)
			},
		},
		{
			Name:  "token-boosts",
			guard: providers.NewSourceGuard(guardCfg("token-boosts")),
			fetch: func(ctx context.Context) ([]domain.Token, error) {
				return fetchByProfiles(ctx, dex, dex.TokenBoostsTop)
			},
		},
		{
			Name:  "pumpfun",
			guard: providers.NewSourceGuard(guardCfg("pumpfun")),
			fetch: func(ctx context.Context) ([]domain.Token, error) {
				pairs, err := dex.Search(ctx, "pump")
				if err != nil {
					return nil, err
				}
				return filterPumpFunStyle(normalize.Pairs(pairs, time.Now())), nil
			},
		},
	}

	for _, eco := range cfg.Sources.Ecosystems {
		eco := eco
		sources = append(sources, &Source{
			Name:  "ecosystem-" + eco,
			guard: providers.NewSourceGuard(guardCfg("ecosystem-" + eco)),
			fetch: func(ctx context.Context) ([]domain.Token, error) {
				pairs, err := dex.Search(ctx, eco)
				if err != nil {
					return nil, err
				}
				return filterEcosystem(normalize.Pairs(pairs, time.Now()), eco), nil
			},
		})
	}

	return sources
}

// fetchByProfiles resolves a profile feed into pair data via the batch
// endpoint, chunked to its address limit.
func fetchByProfiles(ctx context.Context, dex *providers.DexScreenerClient, list func(context.Context) ([]providers.TokenProfile, error)) ([]domain.Token, error) {
	profiles, err := list(ctx)
	if err != nil {
		return nil, err
	}
	addresses := make([]string, 0, len(profiles))
	for _, p := range profiles {
		if p.TokenAddress != "" {
			addresses = append(addresses, p.TokenAddress)
		}
	}

	var all []domain.Token
	for start := 0; start < len(addresses); start += providers.TokensBatchLimit {
		end := start + providers.TokensBatchLimit
		if end > len(addresses) {
			end = len(addresses)
		}
		pairs, err := dex.TokensBatch(ctx, addresses[start:end])
		if err != nil {
			// Partial results beat none; the first chunk may have landed.
			if len(all) > 0 {
				return all, nil
			}
			return nil, err
		}
		all = append(all, normalize.Pairs(pairs, time.Now())...)
	}
	return all, nil
}

// filterPumpFunStyle keeps young, low-cap, bonding-curve-style tokens.
func filterPumpFunStyle(tokens []domain.Token) []domain.Token {
	out := tokens[:0:0]
	for _, t := range tokens {
		if t.IsPumpFunStyle && t.AgeHours < 24 && t.MarketCap < 1_000_000 {
			out = append(out, t)
		}
	}
	return out
}

// filterEcosystem keeps pairs whose name, symbol, or link suggests ecosystem
// membership.
func filterEcosystem(tokens []domain.Token, eco string) []domain.Token {
	eco = strings.ToLower(eco)
	out := tokens[:0:0]
	for _, t := range tokens {
		if strings.Contains(strings.ToLower(t.Name), eco) ||
			strings.Contains(strings.ToLower(t.Symbol), eco) ||
			strings.Contains(strings.ToLower(t.URL), eco) {
			out = append(out, t)
		}
	}
	return out
}

// termRotation cycles a small window through the configured search terms so
// consecutive ticks sample different parts of the long tail.
type termRotation struct {
	terms []string
	per   int
	pos   int
}

func newTermRotation(terms []string, per int) *termRotation {
	if per > len(terms) {
		per = len(terms)
	}
	return &termRotation{terms: terms, per: per}
}

func (r *termRotation) next() []string {
	if len(r.terms) == 0 {
		return nil
	}
	out := make([]string, 0, r.per)
	for i := 0; i < r.per; i++ {
		out = append(out, r.terms[(r.pos+i)%len(r.terms)])
	}
	r.pos = (r.pos + r.per) % len(r.terms)
	return out
}
