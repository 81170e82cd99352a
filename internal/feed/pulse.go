package feed

import (
	"sort"
	"strings"

	"github.com/trenchpulse/trenchpulse/internal/domain"
)

// Venues named directly in the pulse summary; everything else lands in the
// estimated bucket.
var pulseDexes = []string{"raydium", "pumpfun", "pumpswap", "meteora", "orca"}

// BuildPulse attributes 24h volume across venues. Volume with no direct
// Meteora/Orca attribution is split between the two by otherSplit (Meteora
// share); those rows are flagged estimated because the split is a display
// heuristic, not a measurement.
func BuildPulse(tokens []domain.Token, otherSplit float64) []domain.DexVolume {
	byDex := map[string]float64{}
	var total, other float64

	for i := range tokens {
		t := &tokens[i]
		dex := strings.ToLower(t.DexID)
		total += t.Volume24h
		if contains(pulseDexes, dex) {
			byDex[dex] += t.Volume24h
		} else {
			other += t.Volume24h
		}
	}
	if total == 0 {
		return nil
	}

	estimated := map[string]bool{}
	if other > 0 {
		byDex["meteora"] += other * otherSplit
		byDex["orca"] += other * (1 - otherSplit)
		estimated["meteora"] = true
		estimated["orca"] = true
	}

	out := make([]domain.DexVolume, 0, len(byDex))
	for dex, vol := range byDex {
		if vol == 0 {
			continue
		}
		out = append(out, domain.DexVolume{
			DexID:     dex,
			Volume24h: vol,
			Share:     vol / total,
			Estimated: estimated[dex],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Volume24h != out[j].Volume24h {
			return out[i].Volume24h > out[j].Volume24h
		}
		return out[i].DexID < out[j].DexID
	})
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
