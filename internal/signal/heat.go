package signal

import (
	"math"
	"sort"

	"github.com/trenchpulse/trenchpulse/internal/domain"
)

// Heat weights. Short-horizon movement dominates; volume and transaction
// flow add a slow floor, freshness and urgency add fixed bonuses.
const (
	heatW5m    = 8
	heatW1h    = 4
	heatW6h    = 1.5
	heatVolDiv = 10_000
	heatTxnDiv = 100

	heatBonusUnder24h = 40
	heatBonusUnder72h = 20
	heatBonusUrgent   = 50
)

// Heat computes the ranking scalar for one annotated token.
func Heat(t *domain.Token) float64 {
	score := heatW5m*math.Abs(t.PriceChange5m) +
		heatW1h*math.Abs(t.PriceChange1h) +
		heatW6h*math.Abs(t.PriceChange6h) +
		t.Volume24h/heatVolDiv +
		float64(t.Txns24h)/heatTxnDiv

	switch {
	case t.AgeHours < 24:
		score += heatBonusUnder24h
	case t.AgeHours < 72:
		score += heatBonusUnder72h
	}
	if t.IsUrgent {
		score += heatBonusUrgent
	}
	return score
}

// SortByHeat orders tokens by heat descending. Ties break on higher
// confidence, then lexicographically earlier address, so the published order
// is a deterministic total order.
func SortByHeat(tokens []domain.Token) {
	sort.SliceStable(tokens, func(i, j int) bool {
		a, b := &tokens[i], &tokens[j]
		if a.HeatScore != b.HeatScore {
			return a.HeatScore > b.HeatScore
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return a.Address < b.Address
	})
}
