// Package signal assigns each token exactly one tag from an ordered rule
// table and ranks the merged feed by heat. Rule order is load-bearing: the
// first match wins, and the kill-switch rules sit on top so a dead pair can
// never carry a positive label.
package signal

import (
	"fmt"
	"math"

	"github.com/trenchpulse/trenchpulse/internal/domain"
	"github.com/trenchpulse/trenchpulse/internal/format"
)

// Classification is the outcome of the rule table for one token, before the
// scam gate and confidence adjustment are applied.
type Classification struct {
	Tag        domain.Tag
	Edge       string
	Signal     domain.SignalType
	Confidence float64
	Urgent     bool
}

// Classify evaluates the ordered rule table against t. Pure function of the
// token's numeric fields and the fixed thresholds.
func Classify(t *domain.Token) Classification {
	// Rule 1: DEAD overrides any positive signal.
	if t.Volume1h < 500 || t.Txns1h < 5 {
		return Classification{
			Tag:        domain.TagDead,
			Edge:       fmt.Sprintf("only %s vol and %d trades last hour", format.Compact(t.Volume1h), t.Txns1h),
			Signal:     domain.SignalNeutral,
			Confidence: 15,
		}
	}

	// Rule 2: LOW ACTIVITY, unless price is moving hard anyway.
	if (t.Volume1h < 1000 || t.Txns1h < 10) && math.Abs(t.PriceChange1h) < 20 {
		return Classification{
			Tag:        domain.TagLowActivity,
			Edge:       fmt.Sprintf("thin tape: %s vol, %d trades/h", format.Compact(t.Volume1h), t.Txns1h),
			Signal:     domain.SignalNeutral,
			Confidence: 25,
		}
	}

	// Rule 3: launches under an hour old, unless the move is already
	// pump-grade (those fall through to the pump rules).
	if t.AgeHours < 1 && t.PriceChange5m <= 15 {
		if t.PriceChange5m > 5 && t.Volume1h > 2000 && t.Liquidity > 5000 {
			return Classification{
				Tag:        domain.TagEarlyMover,
				Edge:       fmt.Sprintf("%s in 5m on a launch %d min old", format.Percent(t.PriceChange5m), int(t.AgeHours*60)),
				Signal:     domain.SignalBullish,
				Confidence: 60,
				Urgent:     true,
			}
		}
		return Classification{
			Tag:        domain.TagNewLaunch,
			Edge:       fmt.Sprintf("launched %d min ago, %s liquidity", int(t.AgeHours*60), format.Compact(t.Liquidity)),
			Signal:     domain.SignalNeutral,
			Confidence: 40,
		}
	}

	// Rule 4: PUMPING with validation gates; gates failing demotes to VERIFY.
	if t.PriceChange5m > 15 && t.PriceChange1h > 20 {
		if t.Volume1h > 5000 && t.Txns1h > 20 && t.BuyRatio > 0.45 {
			return Classification{
				Tag:        domain.TagPumping,
				Edge:       fmt.Sprintf("%s in 5m, %s in 1h on %s vol", format.Percent(t.PriceChange5m), format.Percent(t.PriceChange1h), format.Compact(t.Volume1h)),
				Signal:     domain.SignalBullish,
				Confidence: 80,
				Urgent:     true,
			}
		}
		return verify(t, "pump-shaped move without volume confirmation")
	}

	// Rule 5: MOONING with a volume gate.
	if t.PriceChange1h > 50 {
		if t.Volume1h > 10_000 {
			return Classification{
				Tag:        domain.TagMooning,
				Edge:       fmt.Sprintf("%s in 1h, %s traded", format.Percent(t.PriceChange1h), format.Compact(t.Volume1h)),
				Signal:     domain.SignalBullish,
				Confidence: 78,
				Urgent:     true,
			}
		}
		return verify(t, "vertical candle on thin volume")
	}

	// RUNNER: sustained day-long trend still making highs.
	if t.PriceChange24h > 100 && t.PriceChange1h > 0 && t.Volume24h > 50_000 {
		return Classification{
			Tag:        domain.TagRunner,
			Edge:       fmt.Sprintf("%s in 24h and still climbing", format.Percent(t.PriceChange24h)),
			Signal:     domain.SignalBullish,
			Confidence: 70,
		}
	}

	// Rule 6: REVERSAL off a deep 24h drawdown.
	if t.PriceChange24h < -25 && t.PriceChange1h > 10 && t.BuyRatio > 0.55 {
		return Classification{
			Tag:        domain.TagReversal,
			Edge:       fmt.Sprintf("%s off the lows after %s day", format.Percent(t.PriceChange1h), format.Percent(t.PriceChange24h)),
			Signal:     domain.SignalBullish,
			Confidence: 65,
		}
	}

	// DIP BUY: sharp hourly dip being bought right now.
	if t.PriceChange1h < -15 && t.PriceChange5m > 2 && t.BuyRatio > 0.6 {
		return Classification{
			Tag:        domain.TagDipBuy,
			Edge:       fmt.Sprintf("dip %s being bought, buy ratio %.2f", format.Percent(t.PriceChange1h), t.BuyRatio),
			Signal:     domain.SignalBullish,
			Confidence: 60,
		}
	}

	// ACCUMULATING: buy-side dominance without price expansion yet.
	if t.BuyRatio > 0.65 && math.Abs(t.PriceChange1h) < 10 && t.Volume1h > 3000 {
		return Classification{
			Tag:        domain.TagAccumulating,
			Edge:       fmt.Sprintf("buy ratio %.2f on %s vol, price flat", t.BuyRatio, format.Compact(t.Volume1h)),
			Signal:     domain.SignalBullish,
			Confidence: 55,
		}
	}

	// COILING: tightening range with live volume.
	if math.Abs(t.PriceChange1h) < 3 && math.Abs(t.PriceChange6h) < 5 && t.Volume1h > 2000 {
		return Classification{
			Tag:        domain.TagCoiling,
			Edge:       fmt.Sprintf("range tightening, %s vol/h", format.Compact(t.Volume1h)),
			Signal:     domain.SignalNeutral,
			Confidence: 50,
		}
	}

	// VOL SURGE: hourly volume running well above the daily average pace.
	if t.Volume1h > 10_000 && t.Volume1h > (t.Volume24h/24)*3 {
		return Classification{
			Tag:        domain.TagVolSurge,
			Edge:       fmt.Sprintf("%s this hour vs %s daily pace", format.Compact(t.Volume1h), format.Compact(t.Volume24h/24)),
			Signal:     domain.SignalBullish,
			Confidence: 58,
		}
	}

	// WHALES: few trades moving serious size.
	if t.Volume1h > 20_000 && t.Txns1h > 0 && t.Volume1h/float64(t.Txns1h) > 2000 {
		return Classification{
			Tag:        domain.TagWhales,
			Edge:       fmt.Sprintf("avg trade %s across %d fills", format.Compact(t.Volume1h/float64(t.Txns1h)), t.Txns1h),
			Signal:     domain.SignalBullish,
			Confidence: 55,
		}
	}

	// DISTRIBUTION: quiet sell-side dominance.
	if t.BuyRatio < 0.4 && math.Abs(t.PriceChange1h) < 5 {
		return Classification{
			Tag:        domain.TagDistribution,
			Edge:       fmt.Sprintf("sellers in control (buy ratio %.2f), price pinned", t.BuyRatio),
			Signal:     domain.SignalBearish,
			Confidence: 55,
		}
	}

	// SELLING: sell pressure with price following.
	if t.BuyRatio < 0.35 && t.PriceChange1h < -5 {
		return Classification{
			Tag:        domain.TagSelling,
			Edge:       fmt.Sprintf("%s in 1h, buy ratio %.2f", format.Percent(t.PriceChange1h), t.BuyRatio),
			Signal:     domain.SignalBearish,
			Confidence: 60,
		}
	}

	// DUMPING: hard markdown.
	if t.PriceChange1h < -20 || (t.PriceChange5m < -10 && t.PriceChange1h < -10) {
		return Classification{
			Tag:        domain.TagDumping,
			Edge:       fmt.Sprintf("%s in 1h, %s in 5m", format.Percent(t.PriceChange1h), format.Percent(t.PriceChange5m)),
			Signal:     domain.SignalBearish,
			Confidence: 70,
		}
	}

	// HOLDING: balanced, quiet tape.
	if math.Abs(t.PriceChange1h) < 2 && math.Abs(t.PriceChange24h) < 5 {
		return Classification{
			Tag:        domain.TagHolding,
			Edge:       fmt.Sprintf("steady at %s, %s day", format.Price(t.Price), format.Percent(t.PriceChange24h)),
			Signal:     domain.SignalNeutral,
			Confidence: 45,
		}
	}

	// Default: direction of the last hour decides.
	if t.PriceChange1h > 0 {
		return Classification{
			Tag:        domain.TagActive,
			Edge:       fmt.Sprintf("%s in 1h on %s vol", format.Percent(t.PriceChange1h), format.Compact(t.Volume1h)),
			Signal:     domain.SignalNeutral,
			Confidence: 40,
		}
	}
	return Classification{
		Tag:        domain.TagWatching,
		Edge:       fmt.Sprintf("%s in 1h, waiting for a move", format.Percent(t.PriceChange1h)),
		Signal:     domain.SignalNeutral,
		Confidence: 35,
	}
}

func verify(t *domain.Token, reason string) Classification {
	return Classification{
		Tag:        domain.TagVerify,
		Edge:       fmt.Sprintf("%s (%s in 1h)", reason, format.Percent(t.PriceChange1h)),
		Signal:     domain.SignalNeutral,
		Confidence: 30,
	}
}

// Gate applies the post-classification scam demotion: a positive tag on a
// honeypot-flagged or high-risk token becomes VERIFY, with the first warning
// prepended to the edge string.
func Gate(c Classification, check domain.ScamCheck) Classification {
	if !c.Tag.IsPositive() {
		return c
	}
	if !check.IsPotentialHoneypot && !check.IsHighRisk {
		return c
	}
	c.Tag = domain.TagVerify
	c.Signal = domain.SignalNeutral
	c.Urgent = false
	if len(check.Warnings) > 0 {
		c.Edge = check.Warnings[0] + ": " + c.Edge
	}
	return c
}

// Velocity maps short-horizon momentum to a [0,10] scale.
func Velocity(t *domain.Token) float64 {
	v := math.Abs(t.PriceChange5m)/3 + math.Abs(t.PriceChange1h)/10
	if v > 10 {
		return 10
	}
	return v
}
