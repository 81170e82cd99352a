package llm

import (
	"fmt"
	"strings"

	"github.com/trenchpulse/trenchpulse/internal/domain"
	"github.com/trenchpulse/trenchpulse/internal/format"
	"github.com/trenchpulse/trenchpulse/internal/sanitize"
)

// AnalysisResult is the strict schema the analyze prompt pins. The system
// prompt instructs the model to reply with exactly this object.
type AnalysisResult struct {
	NarrativeName    string   `json:"narrative_name"`
	Confidence       float64  `json:"confidence"`     // [0,100]
	VelocityScore    float64  `json:"velocity_score"` // [1,10]
	AlertLevel       string   `json:"alert_level"`    // LOW|MEDIUM|HIGH|URGENT
	Summary          string   `json:"summary"`
	Catalysts        []string `json:"catalysts"`
	SuggestedTickers []string `json:"suggested_tickers"`
	RiskVectors      []string `json:"risk_vectors"`
	Timeline         string   `json:"timeline"`
	ActionableIntel  string   `json:"actionable_intel"`
}

// TokenIntel is the fixed-key schema of the token-intel endpoint.
type TokenIntel struct {
	NarrativeHook string   `json:"narrative_hook"`
	LikelyOrigin  string   `json:"likely_origin"`
	SocialSignals []string `json:"social_signals"`
	NarrativeFit  string   `json:"narrative_fit"`
	TimingRead    string   `json:"timing_read"` // EARLY|MID|LATE|UNKNOWN
	ThePlay       string   `json:"the_play"`
	RedFlags      []string `json:"red_flags"`
	SimilarPlays  []string `json:"similar_plays"`
	AlphaTake     string   `json:"alpha_take"`
}

const analyzeSystemPrompt = `You are a Solana memecoin narrative analyst.
Respond with a single JSON object and nothing else. Schema:
{
  "narrative_name": string,
  "confidence": number 0-100,
  "velocity_score": number 1-10,
  "alert_level": "LOW" | "MEDIUM" | "HIGH" | "URGENT",
  "summary": string,
  "catalysts": [string],
  "suggested_tickers": [string],
  "risk_vectors": [string],
  "timeline": string,
  "actionable_intel": string
}
Do not invent token addresses. Do not include markdown.`

const tokenIntelSystemPrompt = `You are a memecoin trench analyst reading one token.
Respond with a single JSON object and nothing else. Schema:
{
  "narrative_hook": string,
  "likely_origin": string,
  "social_signals": [string],
  "narrative_fit": string,
  "timing_read": "EARLY" | "MID" | "LATE" | "UNKNOWN",
  "the_play": string,
  "red_flags": [string],
  "similar_plays": [string],
  "alpha_take": string
}
Do not include markdown.`

// AnalyzePrompt builds the system and user prompts for a narrative query,
// enriching it with sanitized live feed context.
func AnalyzePrompt(query string, liveData []domain.Token) (system, user string) {
	var b strings.Builder
	b.WriteString("Query: ")
	b.WriteString(sanitize.Truncate(query, sanitize.MaxQueryLen))
	b.WriteString("\n")

	if len(liveData) > 0 {
		b.WriteString("\nLive market context (top tokens by heat):\n")
		limit := len(liveData)
		if limit > 15 {
			limit = 15
		}
		for i := 0; i < limit; i++ {
			t := &liveData[i]
			fmt.Fprintf(&b, "- %s (%s): price %s, 1h %s, 24h vol %s, tag %s\n",
				sanitize.Truncate(t.Symbol, sanitize.MaxSymbolLen),
				sanitize.Truncate(t.Name, sanitize.MaxNameLen),
				format.Price(t.Price),
				format.Percent(t.PriceChange1h),
				format.Compact(t.Volume24h),
				t.Tag)
		}
	}
	return analyzeSystemPrompt, b.String()
}

// TokenIntelPrompt builds the prompts for a single-token read. All free-text
// fields arrive pre-truncated by the handler's validation.
func TokenIntelPrompt(t *domain.Token, description string) (system, user string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Token: %s (%s)\n", sanitize.Truncate(t.Symbol, sanitize.MaxSymbolLen), sanitize.Truncate(t.Name, sanitize.MaxNameLen))
	if description != "" {
		fmt.Fprintf(&b, "Description: %s\n", sanitize.Truncate(description, sanitize.MaxDescriptionLen))
	}
	fmt.Fprintf(&b, "Price: %s\n", format.Price(t.Price))
	fmt.Fprintf(&b, "Change: 5m %s, 1h %s, 24h %s\n", format.Percent(t.PriceChange5m), format.Percent(t.PriceChange1h), format.Percent(t.PriceChange24h))
	fmt.Fprintf(&b, "Volume 24h: %s, liquidity: %s, mcap: %s\n", format.Compact(t.Volume24h), format.Compact(t.Liquidity), format.Compact(t.MarketCap))
	fmt.Fprintf(&b, "Buy ratio: %.2f, txns 24h: %d\n", t.BuyRatio, t.Txns24h)
	if t.HasAge() {
		fmt.Fprintf(&b, "Age: %.1f hours\n", t.AgeHours)
	}
	if t.IsPumpFunStyle {
		b.WriteString("Launched pump.fun style\n")
	}
	return tokenIntelSystemPrompt, b.String()
}
