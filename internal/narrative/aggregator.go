package narrative

import (
	"fmt"
	"sort"

	"github.com/trenchpulse/trenchpulse/internal/domain"
	"github.com/trenchpulse/trenchpulse/internal/providers"
)

// Relevance scoring weights. Cross-source confirmation dominates; mention
// volume saturates quickly so one noisy source cannot fake a narrative.
const (
	weightPerSource  = 25
	weightPerMention = 10
	mentionCap       = 30
	bonusViral       = 20
	bonusHigh        = 10
	bonusSecondary   = 10 // a non-dex source (coingecko) confirmed the theme
	bonusHotCategory = 5
	bonusTokenExists = 10
	relevanceFloor   = 20
	relevanceCeiling = 100
	maxNarratives    = 12
)

// hotCategories get a small standing bonus while their cycle runs.
var hotCategories = map[domain.Category]bool{
	domain.CategoryAITech:    true,
	domain.CategoryPolitical: true,
}

type bucket struct {
	category domain.Category
	sources  map[string]bool
	mentions int
	top      *domain.Token // hottest member, by heat
}

// Aggregate recomputes the narrative view from scratch over the annotated,
// scam-filtered token set plus the secondary CoinGecko signals.
func Aggregate(tokens []domain.Token, trending []providers.TrendingCoin, categories []providers.CategoryStat) []domain.Narrative {
	buckets := map[domain.Category]*bucket{}
	get := func(c domain.Category) *bucket {
		b, ok := buckets[c]
		if !ok {
			b = &bucket{category: c, sources: map[string]bool{}}
			buckets[c] = b
		}
		return b
	}

	for i := range tokens {
		t := &tokens[i]
		b := get(Categorize(t.Name + " " + t.Symbol))
		b.mentions++
		src := t.Source
		if src == "" {
			src = "dexscreener"
		}
		b.sources[src] = true
		if b.top == nil || t.HeatScore > b.top.HeatScore {
			b.top = t
		}
	}

	for _, coin := range trending {
		b := get(Categorize(coin.Name + " " + coin.Symbol))
		b.mentions++
		b.sources["coingecko-trending"] = true
	}
	for _, cat := range categories {
		if cat.MarketCapChange24h <= 0 {
			continue
		}
		b := get(Categorize(cat.Name))
		b.mentions++
		b.sources["coingecko-categories"] = true
	}

	out := make([]domain.Narrative, 0, len(buckets))
	for _, b := range buckets {
		n := build(b, tokens)
		if n.RelevanceScore > relevanceFloor {
			out = append(out, n)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].RelevanceScore != out[j].RelevanceScore {
			return out[i].RelevanceScore > out[j].RelevanceScore
		}
		return out[i].Category < out[j].Category
	})
	if len(out) > maxNarratives {
		out = out[:maxNarratives]
	}
	return out
}

func build(b *bucket, tokens []domain.Token) domain.Narrative {
	engagement := engagementTier(b, tokens)

	score := float64(weightPerSource * len(b.sources))
	mentions := float64(weightPerMention * b.mentions)
	if mentions > mentionCap {
		mentions = mentionCap
	}
	score += mentions

	switch engagement {
	case domain.EngagementViral:
		score += bonusViral
	case domain.EngagementHigh:
		score += bonusHigh
	}
	if b.sources["coingecko-trending"] || b.sources["coingecko-categories"] {
		score += bonusSecondary
	}
	if hotCategories[b.category] {
		score += bonusHotCategory
	}
	if b.top != nil {
		score += bonusTokenExists
	}
	if score > relevanceCeiling {
		score = relevanceCeiling
	}

	sources := make([]string, 0, len(b.sources))
	for s := range b.sources {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	n := domain.Narrative{
		Category:       b.category,
		Text:           fmt.Sprintf("%s: %d mentions across %d sources", b.category, b.mentions, len(b.sources)),
		Sources:        sources,
		Mentions:       b.mentions,
		Engagement:     engagement,
		RelevanceScore: score,
	}
	if b.top != nil {
		n.TokenRef = b.top.Address
	}
	return n
}

// engagementTier derives the tier from the bucket members' market movement.
// Viral price action outranks everything; short of that, a coingecko-trending
// confirmation marks the bucket trending. The confirmation itself is already
// scored through bonusSecondary, so the trending tier carries no extra bonus.
func engagementTier(b *bucket, tokens []domain.Token) domain.Engagement {
	tier := domain.EngagementMedium
	for i := range tokens {
		t := &tokens[i]
		if Categorize(t.Name+" "+t.Symbol) != b.category {
			continue
		}
		if t.PriceChange1h > 30 || t.Volume24h > 500_000 {
			return domain.EngagementViral
		}
		if t.PriceChange1h > 10 || t.Volume24h > 100_000 {
			tier = domain.EngagementHigh
		}
	}
	if b.sources["coingecko-trending"] {
		return domain.EngagementTrending
	}
	return tier
}
