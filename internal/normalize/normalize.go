// Package normalize flattens heterogeneous upstream pair records into the
// canonical Token shape. Every numeric passes a finiteness check; upstream
// values are coerced, clamped, and never trusted.
package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/trenchpulse/trenchpulse/internal/domain"
	"github.com/trenchpulse/trenchpulse/internal/providers"
)

// graduatedAgeHours and graduatedLiquidity bound the "young low-cap Raydium"
/// provenance heuristic: one week old and under 500k pooled.
const (
	graduatedAgeHours  = 168
	graduatedLiquidity = 500_000
)

// Pair converts one aggregator pair record into a canonical Token. The second
// return is false when the record must be dropped (missing base address or
// not on Solana).
func Pair(p providers.Pair, now time.Time) (domain.Token, bool) {
	if p.BaseToken.Address == "" || p.ChainID != "solana" {
		return domain.Token{}, false
	}

	t := domain.Token{
		Address:     p.BaseToken.Address,
		Symbol:      p.BaseToken.Symbol,
		Name:        p.BaseToken.Name,
		PairAddress: p.PairAddress,
		DexID:       p.DexID,
		URL:         p.URL,

		Price:          num(parsePrice(p.PriceUsd)),
		PriceChange5m:  num(p.PriceChange.M5),
		PriceChange1h:  num(p.PriceChange.H1),
		PriceChange6h:  num(p.PriceChange.H6),
		PriceChange24h: num(p.PriceChange.H24),

		Volume5m:  num(p.Volume.M5),
		Volume1h:  num(p.Volume.H1),
		Volume6h:  num(p.Volume.H6),
		Volume24h: num(p.Volume.H24),

		MarketCap: num(p.MarketCap),
		CreatedAt: p.PairCreatedAt,
	}

	if t.MarketCap == 0 {
		t.MarketCap = num(p.Fdv)
	}
	if p.Liquidity != nil {
		t.Liquidity = num(p.Liquidity.Usd)
	}
	if p.Info != nil {
		t.ImageURL = p.Info.ImageURL
	}

	t.Txns1h = p.Txns.H1.Buys + p.Txns.H1.Sells
	t.Txns24h = p.Txns.H24.Buys + p.Txns.H24.Sells
	t.BuyRatio = buyRatio(p.Txns.H24.Buys, p.Txns.H24.Sells)

	if t.CreatedAt > 0 {
		t.AgeHours = float64(now.UnixMilli()-t.CreatedAt) / 3.6e6
		if t.AgeHours < 0 {
			t.AgeHours = 0
		}
	} else {
		t.AgeHours = math.Inf(1)
	}

	t.Provenance, t.IsPumpFunStyle = provenance(&t)
	return t, true
}

// Pairs converts a batch, dropping records that fail the gate.
func Pairs(in []providers.Pair, now time.Time) []domain.Token {
	out := make([]domain.Token, 0, len(in))
	for _, p := range in {
		if t, ok := Pair(p, now); ok {
			out = append(out, t)
		}
	}
	return out
}

// buyRatio computes buys/(buys+sells) with a zero-guard default of 0.5 and a
// hard clamp to [0,1].
func buyRatio(buys, sells int) float64 {
	total := buys + sells
	if total <= 0 {
		return 0.5
	}
	r := float64(buys) / float64(total)
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

// provenance classifies how the token reached its venue. Bonding-curve
// signals (pump dexes, "pump" suffix, pump.fun links) and the young low-cap
// Raydium heuristic are kept as distinct labels; IsPumpFunStyle is their OR.
func provenance(t *domain.Token) (domain.Provenance, bool) {
	dex := strings.ToLower(t.DexID)
	switch {
	case dex == "pumpfun" || dex == "pumpswap",
		strings.HasSuffix(strings.ToLower(t.Address), "pump"),
		strings.Contains(strings.ToLower(t.URL), "pump.fun"):
		return domain.ProvenanceBondingCurve, true
	case dex == "raydium" && t.AgeHours < graduatedAgeHours && t.Liquidity < graduatedLiquidity:
		return domain.ProvenanceGraduated, true
	}
	return domain.ProvenanceUnknown, false
}

// parsePrice coerces the string price field; bad input becomes zero.
func parsePrice(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// num maps non-finite values to zero so every downstream computation stays
// finite.
func num(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
