package domain

import (
	"encoding/json"
	"math"
)

// SignalType is the coarse direction of a token's classified signal.
type SignalType string

const (
	SignalBullish SignalType = "bullish"
	SignalBearish SignalType = "bearish"
	SignalNeutral SignalType = "neutral"
)

// Tag is the closed set of signal labels a token can carry. Exactly one tag
// is assigned per token per tick; ordering of the rule table decides ties.
type Tag string

const (
	TagNewLaunch    Tag = "NEW LAUNCH"
	TagEarlyMover   Tag = "EARLY MOVER"
	TagPumping      Tag = "PUMPING"
	TagMooning      Tag = "MOONING"
	TagRunner       Tag = "RUNNER"
	TagReversal     Tag = "REVERSAL"
	TagDipBuy       Tag = "DIP BUY"
	TagAccumulating Tag = "ACCUMULATING"
	TagCoiling      Tag = "COILING"
	TagVolSurge     Tag = "VOL SURGE"
	TagWhales       Tag = "WHALES"
	TagDistribution Tag = "DISTRIBUTION"
	TagSelling      Tag = "SELLING"
	TagDumping      Tag = "DUMPING"
	TagHolding      Tag = "HOLDING"
	TagActive       Tag = "ACTIVE"
	TagWatching     Tag = "WATCHING"
	TagDead         Tag = "DEAD"
	TagLowActivity  Tag = "LOW ACTIVITY"
	TagVerify       Tag = "VERIFY"
)

// positiveTags are the tags a honeypot-flagged token may never keep.
var positiveTags = map[Tag]bool{
	TagNewLaunch:    true,
	TagEarlyMover:   true,
	TagPumping:      true,
	TagMooning:      true,
	TagRunner:       true,
	TagReversal:     true,
	TagDipBuy:       true,
	TagAccumulating: true,
	TagCoiling:      true,
	TagVolSurge:     true,
	TagWhales:       true,
}

// IsPositive reports whether the tag belongs to the positive set that the
// scam gate demotes to VERIFY.
func (t Tag) IsPositive() bool { return positiveTags[t] }

// Provenance labels how a token reached its current venue. The upstream
// heuristics conflate bonding-curve launches with Raydium graduations, so
// both labels are kept distinct.
type Provenance string

const (
	ProvenanceBondingCurve Provenance = "bonding-curve"
	ProvenanceGraduated    Provenance = "graduated"
	ProvenanceUnknown      Provenance = ""
)

// ScamCheck is the scam detector verdict attached to every token.
type ScamCheck struct {
	ScamScore           float64  `json:"scamScore"`
	Warnings            []string `json:"warnings,omitempty"`
	IsPotentialHoneypot bool     `json:"isPotentialHoneypot"`
	IsHighRisk          bool     `json:"isHighRisk"`
	ShouldFilter        bool     `json:"shouldFilter"`
}

// Token is the canonical, annotated shape every upstream pair record is
// flattened into. Numeric fields are always finite after normalization.
type Token struct {
	// Identity
	Address     string `json:"address"`
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	PairAddress string `json:"pairAddress"`
	DexID       string `json:"dexId"`
	ImageURL    string `json:"imageUrl,omitempty"`
	URL         string `json:"url,omitempty"`

	// Price & change (percent, signed)
	Price          float64 `json:"price"`
	PriceChange5m  float64 `json:"priceChange5m"`
	PriceChange1h  float64 `json:"priceChange1h"`
	PriceChange6h  float64 `json:"priceChange6h"`
	PriceChange24h float64 `json:"priceChange24h"`

	// Volume (USD)
	Volume5m  float64 `json:"volume5m"`
	Volume1h  float64 `json:"volume1h"`
	Volume6h  float64 `json:"volume6h"`
	Volume24h float64 `json:"volume24h"`

	// Depth
	Liquidity float64 `json:"liquidity"`
	MarketCap float64 `json:"marketCap"`

	// Flow
	Txns24h  int     `json:"txns24h"`
	Txns1h   int     `json:"txns1h"`
	BuyRatio float64 `json:"buyRatio"` // buys/(buys+sells), 0.5 when undefined

	// Time
	CreatedAt int64   `json:"createdAt,omitempty"` // epoch ms, 0 when unknown
	AgeHours  float64 `json:"ageHours"`            // +Inf when CreatedAt missing

	// Provenance
	IsPumpFunStyle bool       `json:"isPumpFunStyle"`
	Provenance     Provenance `json:"provenance,omitempty"`

	// Source that first contributed this token within a tick.
	Source string `json:"source,omitempty"`

	// Annotations (populated by the pipeline, never trusted upstream)
	SignalType SignalType `json:"signalType,omitempty"`
	Tag        Tag        `json:"tag,omitempty"`
	Edge       string     `json:"edge,omitempty"`
	Confidence float64    `json:"confidence"` // [10,95] after scam adjustment
	Velocity   float64    `json:"velocity"`   // [0,10]
	HeatScore  float64    `json:"heatScore"`
	ScamCheck  ScamCheck  `json:"scamCheck"`
	IsUrgent   bool       `json:"isUrgent"`
}

// HasAge reports whether the token had a usable creation timestamp.
func (t *Token) HasAge() bool { return !math.IsInf(t.AgeHours, 1) }

// MarshalJSON emits unbounded age as null; +Inf is not representable in JSON.
func (t Token) MarshalJSON() ([]byte, error) {
	type alias Token
	out := struct {
		alias
		AgeHours any `json:"ageHours"`
	}{alias: alias(t)}
	if t.HasAge() {
		out.AgeHours = t.AgeHours
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores null age to +Inf.
func (t *Token) UnmarshalJSON(b []byte) error {
	type alias Token
	aux := struct {
		*alias
		AgeHours *float64 `json:"ageHours"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if aux.AgeHours == nil {
		t.AgeHours = math.Inf(1)
	} else {
		t.AgeHours = *aux.AgeHours
	}
	return nil
}

// MCapLiqRatio returns marketCap/liquidity, or 0 when liquidity is zero.
func (t *Token) MCapLiqRatio() float64 {
	if t.Liquidity <= 0 {
		return 0
	}
	return t.MarketCap / t.Liquidity
}
