package providers

// Wire types for the public DEX aggregator. Numeric price fields arrive as
// strings and are coerced during normalization, never trusted here.

// Pair is a single trading pair record as returned by the aggregator.
type Pair struct {
	ChainID       string      `json:"chainId"`
	DexID         string      `json:"dexId"`
	URL           string      `json:"url"`
	PairAddress   string      `json:"pairAddress"`
	BaseToken     PairToken   `json:"baseToken"`
	QuoteToken    PairToken   `json:"quoteToken"`
	PriceNative   string      `json:"priceNative"`
	PriceUsd      string      `json:"priceUsd"`
	Txns          PairTxns    `json:"txns"`
	Volume        PairWindows `json:"volume"`
	PriceChange   PairWindows `json:"priceChange"`
	Liquidity     *Liquidity  `json:"liquidity"` // nullable upstream
	Fdv           float64     `json:"fdv"`
	MarketCap     float64     `json:"marketCap"`
	PairCreatedAt int64       `json:"pairCreatedAt"` // epoch ms
	Info          *PairInfo   `json:"info"`
}

// PairToken identifies one side of a pair.
type PairToken struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// Liquidity is the pooled depth of a pair.
type Liquidity struct {
	Usd   float64 `json:"usd"`
	Base  float64 `json:"base"`
	Quote float64 `json:"quote"`
}

// PairTxns carries buy/sell counts per lookback window.
type PairTxns struct {
	M5  TxnCounts `json:"m5"`
	H1  TxnCounts `json:"h1"`
	H6  TxnCounts `json:"h6"`
	H24 TxnCounts `json:"h24"`
}

// TxnCounts is a buys/sells pair.
type TxnCounts struct {
	Buys  int `json:"buys"`
	Sells int `json:"sells"`
}

// PairWindows holds one float per lookback window, shared by volume and
// price-change payloads.
type PairWindows struct {
	M5  float64 `json:"m5"`
	H1  float64 `json:"h1"`
	H6  float64 `json:"h6"`
	H24 float64 `json:"h24"`
}

// PairInfo carries optional presentation metadata.
type PairInfo struct {
	ImageURL string        `json:"imageUrl"`
	Websites []PairWebsite `json:"websites"`
	Socials  []PairSocial  `json:"socials"`
}

// PairWebsite is a labeled project link.
type PairWebsite struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// PairSocial is a social handle link.
type PairSocial struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// searchResponse wraps search and batch endpoints.
type searchResponse struct {
	SchemaVersion string `json:"schemaVersion"`
	Pairs         []Pair `json:"pairs"`
}

// TokenProfile is a recently listed token address (profiles/boosts feeds).
type TokenProfile struct {
	ChainID      string `json:"chainId"`
	TokenAddress string `json:"tokenAddress"`
	Icon         string `json:"icon"`
	URL          string `json:"url"`
	Description  string `json:"description"`
}
