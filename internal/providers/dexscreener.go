package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultDexBaseURL is the public aggregator root. The API is unauthenticated;
// no auth header may ever be attached to these calls.
const DefaultDexBaseURL = "https://api.dexscreener.com"

// TokensBatchLimit is the maximum addresses one batch call accepts.
const TokensBatchLimit = 30

// DexScreenerClient wraps the public DEX aggregator endpoints used by the
// pipeline. All methods apply the configured hard deadline and translate
// failures into the shared upstream error kinds.
type DexScreenerClient struct {
	baseURL  string
	client   *http.Client
	deadline time.Duration
}

// NewDexScreenerClient builds a client with the given per-call deadline.
func NewDexScreenerClient(baseURL string, deadline time.Duration) *DexScreenerClient {
	if baseURL == "" {
		baseURL = DefaultDexBaseURL
	}
	if deadline <= 0 {
		deadline = 8 * time.Second
	}
	return &DexScreenerClient{
		baseURL:  baseURL,
		client:   &http.Client{Timeout: deadline},
		deadline: deadline,
	}
}

// Search returns pairs matching a free-text query.
func (c *DexScreenerClient) Search(ctx context.Context, term string) ([]Pair, error) {
	u := fmt.Sprintf("%s/latest/dex/search?q=%s", c.baseURL, url.QueryEscape(term))
	var resp searchResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	return resp.Pairs, nil
}

// TokenProfilesLatest returns recently listed token profiles, filtered to the
// Solana chain.
func (c *DexScreenerClient) TokenProfilesLatest(ctx context.Context) ([]TokenProfile, error) {
	var profiles []TokenProfile
	if err := c.getJSON(ctx, c.baseURL+"/token-profiles/latest/v1", &profiles); err != nil {
		return nil, err
	}
	return filterSolana(profiles), nil
}

// TokenBoostsTop returns boosted (paid-promoted) token profiles on Solana.
func (c *DexScreenerClient) TokenBoostsTop(ctx context.Context) ([]TokenProfile, error) {
	var profiles []TokenProfile
	if err := c.getJSON(ctx, c.baseURL+"/token-boosts/top/v1", &profiles); err != nil {
		return nil, err
	}
	return filterSolana(profiles), nil
}

// TokensBatch returns pair data for up to TokensBatchLimit addresses in one
// call. Longer inputs are truncated rather than rejected; callers chunk.
func (c *DexScreenerClient) TokensBatch(ctx context.Context, addresses []string) ([]Pair, error) {
	if len(addresses) == 0 {
		return nil, nil
	}
	if len(addresses) > TokensBatchLimit {
		addresses = addresses[:TokensBatchLimit]
	}
	u := fmt.Sprintf("%s/tokens/v1/solana/%s", c.baseURL, strings.Join(addresses, ","))
	var raw json.RawMessage
	if err := c.getJSON(ctx, u, &raw); err != nil {
		return nil, err
	}
	var pairs []Pair
	if err := json.Unmarshal(raw, &pairs); err == nil {
		return pairs, nil
	}
	// Older deployments wrap the batch payload in {pairs: [...]}.
	var resp searchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamShapeMismatch, err)
	}
	return resp.Pairs, nil
}

// getJSON performs one GET with the hard deadline and decodes into out.
func (c *DexScreenerClient) getJSON(ctx context.Context, u string, out any) error {
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
		Msg("dexscreener request ok")
	return nil
}

func filterSolana(profiles []TokenProfile) []TokenProfile {
	out := profiles[:0:0]
	for _, p := range profiles {
		if p.ChainID == "solana" {
			out = append(out, p)
		}
	}
	return out
}
