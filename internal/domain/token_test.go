package domain

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestTokenMarshalUnboundedAge(t *testing.T) {
	tok := Token{Address: "x", AgeHours: math.Inf(1)}
	data, err := json.Marshal(tok)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"ageHours":null`) {
		t.Errorf("unbounded age should serialize as null, got %s", data)
	}

	var back Token
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !math.IsInf(back.AgeHours, 1) {
		t.Errorf("null ageHours should round-trip to +Inf, got %v", back.AgeHours)
	}
}

func TestTokenMarshalFiniteAge(t *testing.T) {
	tok := Token{Address: "x", AgeHours: 36.5}
	data, err := json.Marshal(tok)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Token
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.AgeHours != 36.5 {
		t.Errorf("ageHours = %v, want 36.5", back.AgeHours)
	}
}

func TestTagIsPositive(t *testing.T) {
	positive := []Tag{TagNewLaunch, TagEarlyMover, TagPumping, TagMooning, TagRunner, TagReversal, TagDipBuy, TagAccumulating, TagCoiling, TagVolSurge, TagWhales}
	for _, tag := range positive {
		if !tag.IsPositive() {
			t.Errorf("%s should be positive", tag)
		}
	}
	negative := []Tag{TagDead, TagDumping, TagSelling, TagDistribution, TagVerify, TagWatching, TagHolding, TagActive, TagLowActivity}
	for _, tag := range negative {
		if tag.IsPositive() {
			t.Errorf("%s should not be positive", tag)
		}
	}
}

func TestSnapshotEmpty(t *testing.T) {
	var nilSnap *FeedSnapshot
	if !nilSnap.Empty() {
		t.Error("nil snapshot should be empty")
	}
	if !(&FeedSnapshot{}).Empty() {
		t.Error("zero snapshot should be empty")
	}
	if (&FeedSnapshot{Tokens: []Token{{}}}).Empty() {
		t.Error("populated snapshot should not be empty")
	}
}

func TestMCapLiqRatio(t *testing.T) {
	tok := Token{MarketCap: 100, Liquidity: 0}
	if got := tok.MCapLiqRatio(); got != 0 {
		t.Errorf("zero liquidity ratio = %v, want 0", got)
	}
	tok.Liquidity = 4
	if got := tok.MCapLiqRatio(); got != 25 {
		t.Errorf("ratio = %v, want 25", got)
	}
}
