package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultCoinGeckoBaseURL is the free-tier API root.
const DefaultCoinGeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoClient provides the secondary social-signal feeds. Free tier,
// conservative usage: the guard layer keeps these calls far apart.
type CoinGeckoClient struct {
	baseURL  string
	client   *http.Client
	deadline time.Duration
}

// TrendingCoin is one entry of the trending search feed.
type TrendingCoin struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Symbol        string  `json:"symbol"`
	MarketCapRank int     `json:"market_cap_rank"`
	Thumb         string  `json:"thumb"`
	Score         float64 `json:"score"`
}

type trendingResponse struct {
	Coins []struct {
		Item TrendingCoin `json:"item"`
	} `json:"coins"`
}

// CategoryStat is one market category with aggregate momentum.
type CategoryStat struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	MarketCap          float64 `json:"market_cap"`
	MarketCapChange24h float64 `json:"market_cap_change_24h"`
	Volume24h          float64 `json:"volume_24h"`
}

// NewCoinGeckoClient builds a client with the given per-call deadline.
func NewCoinGeckoClient(baseURL string, deadline time.Duration) *CoinGeckoClient {
	if baseURL == "" {
		baseURL = DefaultCoinGeckoBaseURL
	}
	if deadline <= 0 {
		deadline = 8 * time.Second
	}
	return &CoinGeckoClient{
		baseURL:  baseURL,
		client:   &http.Client{Timeout: deadline},
		deadline: deadline,
	}
}

// Trending returns the current trending-search coins.
func (c *CoinGeckoClient) Trending(ctx context.Context) ([]TrendingCoin, error) {
	var resp trendingResponse
	if err := c.getJSON(ctx, c.baseURL+"/search/trending", &resp); err != nil {
		return nil, err
	}
	coins := make([]TrendingCoin, 0, len(resp.Coins))
	for _, wrapped := range resp.Coins {
		coins = append(coins, wrapped.Item)
	}
	return coins, nil
}

// Categories returns market categories ordered by 24h market cap change.
func (c *CoinGeckoClient) Categories(ctx context.Context) ([]CategoryStat, error) {
	var cats []CategoryStat
	u := c.baseURL + "/coins/categories?order=market_cap_change_24h_desc"
	if err := c.getJSON(ctx, u, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

func (c *CoinGeckoClient) getJSON(ctx context.Context, u string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.deadline)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", ErrUpstreamTimeout, u)
		}
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %s", ErrUpstreamThrottled, u)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: HTTP %d from %s", ErrUpstreamUnavailable, resp.StatusCode, u)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamShapeMismatch, err)
	}

	log.Debug().
		Str("url", u).
		Dur("duration", time.Since(start)).
		Msg("coingecko request ok")
	return nil
}
