package narrative

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trenchpulse/trenchpulse/internal/domain"
	"github.com/trenchpulse/trenchpulse/internal/providers"
)

func aiToken(addr string, heat float64) domain.Token {
	return domain.Token{
		Address:   addr,
		Symbol:    "AGNT",
		Name:      "AI Agent Coin",
		Source:    "dex-search",
		HeatScore: heat,
	}
}

func TestAggregateSingleSourceBucket(t *testing.T) {
	tokens := []domain.Token{aiToken("a1", 100), aiToken("a2", 50)}
	out := Aggregate(tokens, nil, nil)

	require.Len(t, out, 1)
	n := out[0]
	require.Equal(t, domain.CategoryAITech, n.Category)
	require.Equal(t, 2, n.Mentions)
	require.Equal(t, []string{"dex-search"}, n.Sources)
	// 25 (one source) + 20 (two mentions) + 5 (hot category) + 10 (token ref).
	require.Equal(t, float64(60), n.RelevanceScore)
	require.Equal(t, "a1", n.TokenRef, "token ref follows the hottest member")
}

func TestAggregateCrossSourceConfirmation(t *testing.T) {
	tokens := []domain.Token{aiToken("a1", 100)}
	trending := []providers.TrendingCoin{{Name: "Virtuals Protocol", Symbol: "AI"}}
	out := Aggregate(tokens, trending, nil)

	require.Len(t, out, 1)
	n := out[0]
	require.Equal(t, 2, len(n.Sources))
	// 50 (two sources) + 20 (two mentions) + 10 (secondary) + 5 (hot) + 10 (ref).
	// The trending tier labels the confirmation; it does not score it twice.
	require.Equal(t, float64(95), n.RelevanceScore)
	require.Equal(t, domain.EngagementTrending, n.Engagement)
}

func TestAggregateNegativeCategoryChangeIgnored(t *testing.T) {
	cats := []providers.CategoryStat{
		{Name: "Gaming", MarketCapChange24h: -5},
	}
	out := Aggregate(nil, nil, cats)
	require.Empty(t, out)
}

func TestAggregateMentionSaturation(t *testing.T) {
	tokens := make([]domain.Token, 10)
	for i := range tokens {
		tokens[i] = aiToken(string(rune('a'+i))+"1", float64(i))
	}
	out := Aggregate(tokens, nil, nil)
	require.Len(t, out, 1)
	// Mentions contribute at most 30: 25 + 30 + 5 + 10.
	require.Equal(t, float64(70), out[0].RelevanceScore)
}

func TestAggregateCapsAtTwelve(t *testing.T) {
	// Two tokens per category across every bucket clears the floor; the
	// output must still cap at twelve narratives.
	names := []string{
		"ai agent", "trump", "elon", "dog", "game", "yield farm",
		"bonk", "pizza", "etf", "wojak meme", "mystery one", "mystery two",
	}
	var tokens []domain.Token
	for i, n := range names {
		for j := 0; j < 2; j++ {
			tokens = append(tokens, domain.Token{
				Address: string(rune('a'+i)) + string(rune('0'+j)),
				Symbol:  "X",
				Name:    n,
				Source:  "dex-search",
			})
		}
	}
	out := Aggregate(tokens, nil, nil)
	require.LessOrEqual(t, len(out), 12)
	require.NotEmpty(t, out)

	// Sorted by relevance descending.
	for i := 1; i < len(out); i++ {
		require.GreaterOrEqual(t, out[i-1].RelevanceScore, out[i].RelevanceScore)
	}
}

func TestEngagementTiers(t *testing.T) {
	viral := []domain.Token{{Name: "ai coin", PriceChange1h: 40, HeatScore: 10}}
	out := Aggregate(viral, nil, nil)
	require.Len(t, out, 1)
	require.Equal(t, domain.EngagementViral, out[0].Engagement)

	high := []domain.Token{{Name: "ai coin", PriceChange1h: 15, HeatScore: 10}}
	out = Aggregate(high, nil, nil)
	require.Len(t, out, 1)
	require.Equal(t, domain.EngagementHigh, out[0].Engagement)

	medium := []domain.Token{{Name: "ai coin", PriceChange1h: 2, HeatScore: 10}}
	out = Aggregate(medium, nil, nil)
	require.Len(t, out, 1)
	require.Equal(t, domain.EngagementMedium, out[0].Engagement)

	// A coingecko-trending confirmation lifts a quiet bucket to trending,
	// but viral price action still wins.
	confirm := []providers.TrendingCoin{{Name: "ai thing"}}
	out = Aggregate(high, confirm, nil)
	require.Len(t, out, 1)
	require.Equal(t, domain.EngagementTrending, out[0].Engagement)

	out = Aggregate(viral, confirm, nil)
	require.Len(t, out, 1)
	require.Equal(t, domain.EngagementViral, out[0].Engagement)
}

func TestRelevanceCeiling(t *testing.T) {
	tokens := make([]domain.Token, 5)
	for i := range tokens {
		tokens[i] = domain.Token{
			Address:       string(rune('a' + i)),
			Name:          "ai agent",
			Source:        "source-" + string(rune('a'+i)),
			PriceChange1h: 50,
		}
	}
	trending := []providers.TrendingCoin{{Name: "ai thing"}}
	out := Aggregate(tokens, trending, nil)
	require.Len(t, out, 1)
	require.Equal(t, float64(100), out[0].RelevanceScore)
}
