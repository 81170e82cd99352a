package domain

import "time"

// DexVolume is one venue's share of 24h volume in the market pulse summary.
type DexVolume struct {
	DexID     string  `json:"dexId"`
	Volume24h float64 `json:"volume24h"`
	Share     float64 `json:"share"` // [0,1]
	Estimated bool    `json:"estimated,omitempty"`
}

// FeedSnapshot is one published tick result. Snapshots are immutable after
// publication; the assembler replaces the whole value, never fields.
type FeedSnapshot struct {
	Tokens      []Token     `json:"tokens"`
	Narratives  []Narrative `json:"narratives"`
	Pulse       []DexVolume `json:"pulse,omitempty"`
	LastUpdated time.Time   `json:"lastUpdated"`
	Stale       bool        `json:"stale,omitempty"`
}

// Empty reports whether the snapshot carries no market data at all.
func (s *FeedSnapshot) Empty() bool {
	return s == nil || (len(s.Tokens) == 0 && len(s.Narratives) == 0)
}
