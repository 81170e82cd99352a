package httpapi

import (
	"github.com/trenchpulse/trenchpulse/internal/domain"
	"github.com/trenchpulse/trenchpulse/internal/llm"
	"github.com/trenchpulse/trenchpulse/internal/sanitize"
)

// Escaping happens here, at the render boundary. Upstream text and model
// output are stored raw and escaped once on the way out.

func escapeTokens(tokens []domain.Token) []domain.Token {
	out := make([]domain.Token, len(tokens))
	for i, t := range tokens {
		out[i] = escapeToken(t)
	}
	return out
}

func escapeToken(t domain.Token) domain.Token {
	t.Symbol = sanitize.EscapeHTML(t.Symbol)
	t.Name = sanitize.EscapeHTML(t.Name)
	t.Edge = sanitize.EscapeHTML(t.Edge)
	if t.ImageURL != "" && !sanitize.ValidURL(t.ImageURL) {
		t.ImageURL = ""
	}
	if t.URL != "" && !sanitize.ValidURL(t.URL) {
		t.URL = ""
	}
	if len(t.ScamCheck.Warnings) > 0 {
		warnings := make([]string, len(t.ScamCheck.Warnings))
		for i, w := range t.ScamCheck.Warnings {
			warnings[i] = sanitize.EscapeHTML(w)
		}
		t.ScamCheck.Warnings = warnings
	}
	return t
}

func escapeNarratives(narratives []domain.Narrative) []domain.Narrative {
	out := make([]domain.Narrative, len(narratives))
	for i, n := range narratives {
		n.Text = sanitize.EscapeHTML(n.Text)
		out[i] = n
	}
	return out
}

func escapeStrings(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = sanitize.EscapeHTML(s)
	}
	return out
}

func clampAnalysis(a *llm.AnalysisResult) {
	if a.Confidence < 0 {
		a.Confidence = 0
	} else if a.Confidence > 100 {
		a.Confidence = 100
	}
	if a.VelocityScore < 1 {
		a.VelocityScore = 1
	} else if a.VelocityScore > 10 {
		a.VelocityScore = 10
	}
	switch a.AlertLevel {
	case "LOW", "MEDIUM", "HIGH", "URGENT":
	default:
		a.AlertLevel = "MEDIUM"
	}
}

func escapeAnalysis(a *llm.AnalysisResult) {
	a.NarrativeName = sanitize.EscapeHTML(a.NarrativeName)
	a.Summary = sanitize.EscapeHTML(a.Summary)
	a.Timeline = sanitize.EscapeHTML(a.Timeline)
	a.ActionableIntel = sanitize.EscapeHTML(a.ActionableIntel)
	a.Catalysts = escapeStrings(a.Catalysts)
	a.SuggestedTickers = escapeStrings(a.SuggestedTickers)
	a.RiskVectors = escapeStrings(a.RiskVectors)
}

func clampIntel(t *llm.TokenIntel) {
	switch t.TimingRead {
	case "EARLY", "MID", "LATE", "UNKNOWN":
	default:
		t.TimingRead = "UNKNOWN"
	}
}

func escapeIntel(t *llm.TokenIntel) {
	t.NarrativeHook = sanitize.EscapeHTML(t.NarrativeHook)
	t.LikelyOrigin = sanitize.EscapeHTML(t.LikelyOrigin)
	t.NarrativeFit = sanitize.EscapeHTML(t.NarrativeFit)
	t.ThePlay = sanitize.EscapeHTML(t.ThePlay)
	t.AlphaTake = sanitize.EscapeHTML(t.AlphaTake)
	t.SocialSignals = escapeStrings(t.SocialSignals)
	t.RedFlags = escapeStrings(t.RedFlags)
	t.SimilarPlays = escapeStrings(t.SimilarPlays)
}

// sampleNarratives is static placeholder content for cold starts, clearly
// flagged via isSample so clients never mistake it for live data.
func sampleNarratives() []domain.Narrative {
	return []domain.Narrative{
		{
			Category:       domain.CategoryAITech,
			Text:           "AI agent tokens rotating on framework launches",
			Sources:        []string{"sample"},
			Mentions:       3,
			Engagement:     domain.EngagementHigh,
			RelevanceScore: 72,
		},
		{
			Category:       domain.CategoryAnimal,
			Text:           "Dog coin revival rotating through new launches",
			Sources:        []string{"sample"},
			Mentions:       2,
			Engagement:     domain.EngagementMedium,
			RelevanceScore: 55,
		},
		{
			Category:       domain.CategorySolanaMeta,
			Text:           "Launchpad wars driving ecosystem token flows",
			Sources:        []string{"sample"},
			Mentions:       2,
			Engagement:     domain.EngagementMedium,
			RelevanceScore: 48,
		},
	}
}
