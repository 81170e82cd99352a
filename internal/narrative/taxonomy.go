// Package narrative clusters the annotated feed into cultural themes and
// scores each theme's cross-source attention.
package narrative

import (
	"strings"

	"github.com/trenchpulse/trenchpulse/internal/domain"
)

// taxonomy is the fixed keyword map. Order matters: the first category whose
// keyword matches wins, and EMERGING is the fallback for everything else.
var taxonomy = []struct {
	category domain.Category
	keywords []string
}{
	{domain.CategoryAITech, []string{"ai", "gpt", "agent", "neural", "bot", "llm", "intelligence", "compute"}},
	{domain.CategoryPolitical, []string{"trump", "maga", "biden", "election", "president", "politic", "freedom"}},
	{domain.CategoryCelebrity, []string{"elon", "musk", "kanye", "drake", "celeb", "kardashian", "snoop"}},
	{domain.CategoryAnimal, []string{"dog", "doge", "shib", "inu", "cat", "kitty", "frog", "pepe", "monkey", "ape", "bear", "bull", "hippo", "penguin"}},
	{domain.CategoryGaming, []string{"game", "gaming", "play", "quest", "rpg", "arcade", "pixel"}},
	{domain.CategoryDefi, []string{"defi", "yield", "stake", "swap", "farm", "vault", "lend"}},
	{domain.CategorySolanaMeta, []string{"sol", "solana", "bonk", "wif", "jup", "pump"}},
	{domain.CategoryFoodObject, []string{"pizza", "burger", "taco", "coffee", "banana", "potato", "rock", "chair", "sock"}},
	{domain.CategoryNewsEvent, []string{"etf", "halving", "fed", "rate", "war", "olympic", "moon landing"}},
	{domain.CategoryMemeCulture, []string{"meme", "wojak", "chad", "gigachad", "npc", "based", "rekt", "wagmi", "vibe"}},
}

// Categorize maps free text (name, symbol, description concatenated) to a
// taxonomy bucket. The text is untrusted; it is only ever substring-matched.
func Categorize(text string) domain.Category {
	lower := strings.ToLower(text)
	for _, entry := range taxonomy {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.category
			}
		}
	}
	return domain.CategoryEmerging
}
