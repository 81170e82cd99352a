// Package scam scores adversarial market-data patterns. The detector is a
// pure function of a normalized token's numeric fields; the thresholds are
// fixed constants pinned by tests, not tunables.
package scam

import (
	"math"

	"github.com/trenchpulse/trenchpulse/internal/domain"
)

// Terminal classification cut-offs.
const (
	filterScore   = 70
	highRiskScore = 40
)

// Detect evaluates every indicator against t and returns the combined
// verdict. Indicators are additive; honeypot-shaped and bleed-shaped
// indicators also set their flags regardless of the total.
func Detect(t *domain.Token) domain.ScamCheck {
	var check domain.ScamCheck

	add := func(score float64, warning string) {
		check.ScamScore += score
		check.Warnings = append(check.Warnings, warning)
	}

	ratio := t.MCapLiqRatio()
	switch {
	case ratio > 100:
		add(40, "Extreme mcap/liquidity ratio: likely unsellable")
	case ratio > 50:
		add(20, "High mcap/liquidity ratio")
	}

	if t.BuyRatio > 0.95 && math.Abs(t.PriceChange1h) < 2 && t.Txns24h > 100 {
		add(50, "Honeypot pattern: heavy buys, flat price")
		check.IsPotentialHoneypot = true
	}

	if t.Txns1h == 0 && t.Volume1h == 0 && t.MarketCap > 10_000 {
		add(15, "Zero recent activity despite market cap")
	}

	if t.BuyRatio >= 0.98 && t.Volume24h > 10_000 {
		add(35, "Sells appear blocked: almost no sell transactions")
		check.IsPotentialHoneypot = true
	}

	if t.Liquidity < 1_000 && t.MarketCap > 100_000 {
		add(45, "Fake market cap: no real liquidity behind it")
		check.IsHighRisk = true
	}

	if t.AgeHours < 0.5 && t.PriceChange1h > 500 && t.BuyRatio > 0.9 {
		add(25, "Coordinated pump on a minutes-old token")
	}

	if t.BuyRatio > 0.55 && t.PriceChange1h < -5 && t.PriceChange6h < -10 && t.PriceChange24h < -15 {
		add(25, "Slow bleed: price falls while buys dominate")
		check.IsHighRisk = true
	}

	if t.BuyRatio > 0.75 && t.PriceChange1h < -10 && t.Txns24h > 50 {
		add(20, "Possible sell tax: dumping despite buy pressure")
	}

	if check.ScamScore >= filterScore {
		check.ShouldFilter = true
	}
	if check.ScamScore >= highRiskScore {
		check.IsHighRisk = true
	}
	return check
}

// AdjustConfidence applies the scam downgrade tiers to a classifier
// confidence and clamps the result to [10,95]. The tiers are not continuous
// (a score of 39 loses 20 while 40 loses 35); the jump at each boundary is
// intentional and pinned by tests.
func AdjustConfidence(confidence float64, check domain.ScamCheck) float64 {
	switch {
	case check.ScamScore >= 60:
		confidence -= 50
	case check.ScamScore >= 40:
		confidence -= 35
	case check.ScamScore >= 20:
		confidence -= 20
	case check.ScamScore > 0:
		confidence -= 10
	}
	if confidence < 10 {
		confidence = 10
	}
	if confidence > 95 {
		confidence = 95
	}
	return confidence
}
