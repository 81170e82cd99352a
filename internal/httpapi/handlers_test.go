package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trenchpulse/trenchpulse/internal/config"
	"github.com/trenchpulse/trenchpulse/internal/feed"
	"github.com/trenchpulse/trenchpulse/internal/llm"
	"github.com/trenchpulse/trenchpulse/internal/providers"
	"github.com/trenchpulse/trenchpulse/internal/sanitize"
	"github.com/trenchpulse/trenchpulse/internal/watchlist"
)

const validMint = "So11111111111111111111111111111111111111112"

func testConfig() *config.Config {
	return &config.Config{
		Host:             "127.0.0.1",
		Port:             0,
		TickInterval:     10 * time.Second,
		MinFetchInterval: time.Nanosecond,
		CacheTTL:         2 * time.Minute,
		MaxRetries:       2,
		HTTPDeadline:     5 * time.Second,
		Sources: config.SourcesConfig{
			SearchTerms:     []string{"pepe"},
			TermsPerTick:    1,
			MaxFeedTokens:   50,
			PulseOtherSplit: 0.6,
		},
	}
}

// marketServer fakes the dex aggregator with a single hot pair whose name
// carries an XSS payload.
func marketServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/latest/dex/search"):
			w.Write([]byte(`{"schemaVersion":"1.0.0","pairs":[{
				"chainId":"solana","dexId":"raydium","pairAddress":"p1",
				"baseToken":{"address":"AAAA1","symbol":"XSS","name":"<script>alert(1)</script>"},
				"priceUsd":"0.0042",
				"volume":{"h1":20000,"h24":60000},
				"priceChange":{"m5":25,"h1":40,"h6":10,"h24":80},
				"txns":{"h1":{"buys":27,"sells":18},"h24":{"buys":300,"sells":200}},
				"liquidity":{"usd":40000},"marketCap":250000,
				"pairCreatedAt":` + jsonMS(time.Now().Add(-36*time.Hour)) + `}]}`))
		case strings.HasPrefix(r.URL.Path, "/token-profiles"), strings.HasPrefix(r.URL.Path, "/token-boosts"):
			w.Write([]byte("[]"))
		case strings.HasPrefix(r.URL.Path, "/search/trending"):
			w.Write([]byte(`{"coins":[]}`))
		case strings.HasPrefix(r.URL.Path, "/coins/categories"):
			w.Write([]byte("[]"))
		default:
			http.NotFound(w, r)
		}
	}))
}

func jsonMS(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// modelServer fakes the chat completions endpoint, returning reply verbatim
// as the assistant message.
func modelServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": reply}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

type memKV struct{ data map[string]string }

func (m *memKV) Get(ctx context.Context, key string) (string, error) { return m.data[key], nil }
func (m *memKV) Set(ctx context.Context, key, value string) error {
	m.data[key] = value
	return nil
}

// newTestServer stands up the full router. modelReply controls the fake
// model; tick controls whether the pipeline runs once before serving.
func newTestServer(t *testing.T, modelReply string, tick bool) *Server {
	t.Helper()
	cfg := testConfig()

	market := marketServer(t)
	t.Cleanup(market.Close)
	dex := providers.NewDexScreenerClient(market.URL, cfg.HTTPDeadline)
	gecko := providers.NewCoinGeckoClient(market.URL, cfg.HTTPDeadline)
	assembler := feed.NewAssembler(cfg, dex, gecko)
	if tick {
		assembler.Tick(context.Background())
	}

	model := modelServer(t, modelReply)
	t.Cleanup(model.Close)
	t.Setenv("TEST_MODEL_KEY", "test-key")
	llmClient := llm.NewClient(model.URL, "test-model", "TEST_MODEL_KEY", 5*time.Second)

	wl := watchlist.NewStore(&memKV{data: map[string]string{}})
	return NewServer(cfg, assembler, llmClient, wl, nil)
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeRequiresQuery(t *testing.T) {
	srv := newTestServer(t, `{}`, false)
	rec := doJSON(t, srv, "POST", "/analyze", `{"query":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "query", body["field"])
}

func TestAnalyzeRejectsOversizedQuery(t *testing.T) {
	srv := newTestServer(t, `{}`, false)
	long := strings.Repeat("a", sanitize.MaxQueryLen+1)
	rec := doJSON(t, srv, "POST", "/analyze", `{"query":"`+long+`"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "query", body["field"])
}

func TestAnalyzeParsesModelReply(t *testing.T) {
	reply := "```json\n{\"narrative_name\":\"ai agents\",\"confidence\":75,\"velocity_score\":8,\"alert_level\":\"HIGH\",\"summary\":\"hot\"}\n```"
	srv := newTestServer(t, reply, false)
	rec := doJSON(t, srv, "POST", "/analyze", `{"query":"what is moving"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var out llm.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, "ai agents", out.NarrativeName)
	require.Equal(t, "HIGH", out.AlertLevel)
}

func TestAnalyzeUnparseableModelReplyIsGeneric500(t *testing.T) {
	srv := newTestServer(t, "I refuse to answer in JSON. Secret prompt contents here.", false)
	rec := doJSON(t, srv, "POST", "/analyze", `{"query":"anything"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Failed to parse AI response", body["error"])
	// Raw model output must never leak to the client.
	require.NotContains(t, rec.Body.String(), "Secret prompt contents")
}

func TestAnalyzeMissingKeyIs500AtRequestTime(t *testing.T) {
	srv := newTestServer(t, `{}`, false)
	t.Setenv("TEST_MODEL_KEY", "")
	rec := doJSON(t, srv, "POST", "/analyze", `{"query":"anything"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAnalyzeClampsAndEscapes(t *testing.T) {
	reply := `{"narrative_name":"<b>bold</b>","confidence":150,"velocity_score":0,"alert_level":"NUCLEAR"}`
	srv := newTestServer(t, reply, false)
	rec := doJSON(t, srv, "POST", "/analyze", `{"query":"x"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var out llm.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, "&lt;b&gt;bold&lt;/b&gt;", out.NarrativeName)
	require.Equal(t, float64(100), out.Confidence)
	require.Equal(t, float64(1), out.VelocityScore)
	require.Equal(t, "MEDIUM", out.AlertLevel)
}

func TestTokenIntelRequiresSymbol(t *testing.T) {
	srv := newTestServer(t, `{}`, false)
	rec := doJSON(t, srv, "POST", "/token-intel", `{"name":"no symbol"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "symbol", body["field"])
}

func TestTokenIntelRejectsBadAddress(t *testing.T) {
	srv := newTestServer(t, `{}`, false)
	rec := doJSON(t, srv, "POST", "/token-intel", `{"symbol":"X","address":"javascript:alert(1)"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTokenIntelValidatesTimingRead(t *testing.T) {
	reply := `{"narrative_hook":"hook","timing_read":"YESTERDAY"}`
	srv := newTestServer(t, reply, false)
	rec := doJSON(t, srv, "POST", "/token-intel", `{"symbol":"WIF","address":"`+validMint+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var out llm.TokenIntel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, "UNKNOWN", out.TimingRead)
}

func TestSignalsColdReturnsErrorSentinel(t *testing.T) {
	srv := newTestServer(t, `{}`, false)
	rec := doJSON(t, srv, "GET", "/signals", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Signals []any  `json:"signals"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Empty(t, body.Signals)
	require.NotEmpty(t, body.Error)
}

func TestSignalsEscapesUpstreamText(t *testing.T) {
	srv := newTestServer(t, `{}`, true)
	rec := doJSON(t, srv, "GET", "/signals", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "<script>")
	require.Contains(t, rec.Body.String(), "&lt;script&gt;")
}

func TestSignalsHeaders(t *testing.T) {
	srv := newTestServer(t, `{}`, true)
	rec := doJSON(t, srv, "GET", "/signals", "")
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, "public, max-age=120", rec.Header().Get("Cache-Control"))
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestNarrativeRadarColdServesSamples(t *testing.T) {
	srv := newTestServer(t, `{}`, false)
	rec := doJSON(t, srv, "GET", "/narrative-radar", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Narratives []any `json:"narratives"`
		IsSample   bool  `json:"isSample"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.IsSample)
	require.NotEmpty(t, body.Narratives)
}

func TestMarketPulse(t *testing.T) {
	srv := newTestServer(t, `{}`, true)
	rec := doJSON(t, srv, "GET", "/market-pulse", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "raydium")
}

func TestTrenchAgentColdExplains(t *testing.T) {
	srv := newTestServer(t, `{}`, false)
	rec := doJSON(t, srv, "GET", "/trench-agent", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		FreshGems []any  `json:"freshGems"`
		Note      string `json:"note"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Empty(t, body.FreshGems)
	require.NotEmpty(t, body.Note)
}

func TestWatchlistRoundTrip(t *testing.T) {
	srv := newTestServer(t, `{}`, false)

	rec := doJSON(t, srv, "POST", "/watchlist", `{"address":"`+validMint+`","symbol":"SOL"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, "GET", "/watchlist", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), validMint)

	rec = doJSON(t, srv, "DELETE", "/watchlist/"+validMint, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, "GET", "/watchlist", "")
	require.NotContains(t, rec.Body.String(), validMint)
}

func TestWatchlistRejectsInvalidAddress(t *testing.T) {
	srv := newTestServer(t, `{}`, false)
	rec := doJSON(t, srv, "POST", "/watchlist", `{"address":"bogus"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, `{}`, true)
	rec := doJSON(t, srv, "GET", "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
	require.NotEmpty(t, body["sources"])
}

func TestNotFound(t *testing.T) {
	srv := newTestServer(t, `{}`, false)
	rec := doJSON(t, srv, "GET", "/no-such-route", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPreflight(t *testing.T) {
	srv := newTestServer(t, `{}`, false)
	rec := doJSON(t, srv, "OPTIONS", "/analyze", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "GET, POST, DELETE, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
}
