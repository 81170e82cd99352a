package domain

// Category is a narrative taxonomy bucket.
type Category string

const (
	CategoryAITech      Category = "AI_TECH"
	CategoryPolitical   Category = "POLITICAL"
	CategoryCelebrity   Category = "CELEBRITY"
	CategoryMemeCulture Category = "MEME_CULTURE"
	CategoryAnimal      Category = "ANIMAL"
	CategoryGaming      Category = "GAMING"
	CategoryNewsEvent   Category = "NEWS_EVENT"
	CategoryDefi        Category = "DEFI"
	CategorySolanaMeta  Category = "SOLANA_META"
	CategoryFoodObject  Category = "FOOD_OBJECT"
	CategoryEmerging    Category = "EMERGING"
)

// Engagement tiers, computed from downstream market metrics.
type Engagement string

const (
	EngagementMedium   Engagement = "medium"
	EngagementHigh     Engagement = "high"
	EngagementViral    Engagement = "viral"
	EngagementTrending Engagement = "trending"
)

// Narrative is a cultural cluster of tokens sharing taxonomy keywords.
// Recomputed from scratch every tick; never persisted.
type Narrative struct {
	Category       Category   `json:"category"`
	Text           string     `json:"text"`
	Sources        []string   `json:"sources"`
	Mentions       int        `json:"mentions"`
	Engagement     Engagement `json:"engagement"`
	RelevanceScore float64    `json:"relevanceScore"` // [0,100]
	TokenRef       string     `json:"tokenRef,omitempty"`
}

// WatchlistEntry is owned by the client and persisted through the opaque KV
// store; the core only ever treats it as a filter predicate.
type WatchlistEntry struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
	AddedAt int64  `json:"addedAt"` // epoch ms
}
