package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/trenchpulse/trenchpulse/internal/config"
	"github.com/trenchpulse/trenchpulse/internal/domain"
	"github.com/trenchpulse/trenchpulse/internal/feed"
	"github.com/trenchpulse/trenchpulse/internal/llm"
	"github.com/trenchpulse/trenchpulse/internal/sanitize"
	"github.com/trenchpulse/trenchpulse/internal/telemetry"
	"github.com/trenchpulse/trenchpulse/internal/watchlist"
)

// Handlers carries the components the endpoints dispatch into.
type Handlers struct {
	cfg       *config.Config
	assembler *feed.Assembler
	model     *llm.Client
	watch     *watchlist.Store
}

// NewHandlers builds the handler set.
func NewHandlers(cfg *config.Config, assembler *feed.Assembler, model *llm.Client, watch *watchlist.Store) *Handlers {
	return &Handlers{cfg: cfg, assembler: assembler, model: model, watch: watch}
}

// ---- model proxy ----

type analyzeRequest struct {
	Query    string         `json:"query"`
	LiveData []domain.Token `json:"liveData"`
}

// Analyze validates the query, enriches it with live feed context, forwards
// to the model, and returns only parsed JSON. Raw model text never leaves
// the server.
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeFieldError(w, "body", "invalid JSON body")
		return
	}
	if req.Query == "" {
		h.writeFieldError(w, "query", "query is required")
		return
	}
	if len(req.Query) > sanitize.MaxQueryLen {
		h.writeFieldError(w, "query", fmt.Sprintf("query exceeds %d characters", sanitize.MaxQueryLen))
		return
	}

	liveData := req.LiveData
	if len(liveData) == 0 {
		if snap := h.assembler.Snapshot(); snap != nil {
			liveData = snap.Tokens
		}
	}

	system, user := llm.AnalyzePrompt(req.Query, liveData)
	raw, err := h.model.Complete(r.Context(), system, user)
	if err != nil {
		telemetry.ModelCalls.WithLabelValues("analyze", "error").Inc()
		h.writeModelError(w, err)
		return
	}

	var result llm.AnalysisResult
	if err := llm.ParseReply(raw, &result); err != nil {
		telemetry.ModelCalls.WithLabelValues("analyze", "unparseable").Inc()
		log.Error().Str("raw", raw).Msg("model reply unparseable")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to parse AI response"}, 0)
		return
	}

	telemetry.ModelCalls.WithLabelValues("analyze", "ok").Inc()
	clampAnalysis(&result)
	escapeAnalysis(&result)
	h.writeJSON(w, http.StatusOK, result, 0)
}

type tokenIntelRequest struct {
	Address        string  `json:"address"`
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	Price          float64 `json:"price"`
	PriceChange5m  float64 `json:"priceChange5m"`
	PriceChange1h  float64 `json:"priceChange1h"`
	PriceChange24h float64 `json:"priceChange24h"`
	Volume24h      float64 `json:"volume24h"`
	Liquidity      float64 `json:"liquidity"`
	MarketCap      float64 `json:"marketCap"`
	BuyRatio       float64 `json:"buyRatio"`
	Txns24h        int     `json:"txns24h"`
	AgeHours       float64 `json:"ageHours"`
	IsPumpFunStyle bool    `json:"isPumpFunStyle"`
}

// TokenIntel reads one token through the model. Free-text fields are capped
// before they reach the prompt; addresses must look like Solana accounts.
func (h *Handlers) TokenIntel(w http.ResponseWriter, r *http.Request) {
	var req tokenIntelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeFieldError(w, "body", "invalid JSON body")
		return
	}
	if req.Symbol == "" {
		h.writeFieldError(w, "symbol", "symbol is required")
		return
	}
	if len(req.Symbol) > sanitize.MaxSymbolLen {
		h.writeFieldError(w, "symbol", fmt.Sprintf("symbol exceeds %d characters", sanitize.MaxSymbolLen))
		return
	}
	if req.Address != "" && !sanitize.IsSolanaAddress(req.Address) {
		h.writeFieldError(w, "address", "not a valid solana address")
		return
	}

	t := domain.Token{
		Address:        req.Address,
		Symbol:         sanitize.Truncate(req.Symbol, sanitize.MaxSymbolLen),
		Name:           sanitize.Truncate(req.Name, sanitize.MaxNameLen),
		Price:          req.Price,
		PriceChange5m:  req.PriceChange5m,
		PriceChange1h:  req.PriceChange1h,
		PriceChange24h: req.PriceChange24h,
		Volume24h:      req.Volume24h,
		Liquidity:      req.Liquidity,
		MarketCap:      req.MarketCap,
		BuyRatio:       req.BuyRatio,
		Txns24h:        req.Txns24h,
		AgeHours:       req.AgeHours,
		IsPumpFunStyle: req.IsPumpFunStyle,
	}

	system, user := llm.TokenIntelPrompt(&t, sanitize.Truncate(req.Description, sanitize.MaxDescriptionLen))
	raw, err := h.model.Complete(r.Context(), system, user)
	if err != nil {
		telemetry.ModelCalls.WithLabelValues("token-intel", "error").Inc()
		h.writeModelError(w, err)
		return
	}

	var intel llm.TokenIntel
	if err := llm.ParseReply(raw, &intel); err != nil {
		telemetry.ModelCalls.WithLabelValues("token-intel", "unparseable").Inc()
		log.Error().Str("raw", raw).Msg("model reply unparseable")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to parse AI response"}, 0)
		return
	}

	telemetry.ModelCalls.WithLabelValues("token-intel", "ok").Inc()
	clampIntel(&intel)
	escapeIntel(&intel)
	h.writeJSON(w, http.StatusOK, intel, 0)
}

// ---- read feed ----

// Signals serves the ranked feed. When nothing was ever fetched it returns
// an explicit error sentinel; it never fabricates rows.
func (h *Handlers) Signals(w http.ResponseWriter, r *http.Request) {
	snap := h.assembler.Snapshot()
	if snap.Empty() {
		h.writeJSON(w, http.StatusOK, map[string]any{
			"signals": []domain.Token{},
			"error":   "no market data available",
		}, h.ttlSeconds())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"signals":     escapeTokens(snap.Tokens),
		"lastUpdated": snap.LastUpdated,
		"stale":       snap.Stale,
	}, h.ttlSeconds())
}

// NarrativeRadar serves the narrative list; a cold, empty pipeline yields a
// clearly labeled sample set so the UI has something to render.
func (h *Handlers) NarrativeRadar(w http.ResponseWriter, r *http.Request) {
	snap := h.assembler.Snapshot()
	if snap.Empty() || len(snap.Narratives) == 0 {
		h.writeJSON(w, http.StatusOK, map[string]any{
			"narratives": sampleNarratives(),
			"isSample":   true,
		}, h.ttlSeconds())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"narratives":  escapeNarratives(snap.Narratives),
		"lastUpdated": snap.LastUpdated,
		"cached":      true,
		"stale":       snap.Stale,
	}, h.ttlSeconds())
}

// traderRow is a flow-oriented view over the hottest tokens.
type traderRow struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Action    string  `json:"action"` // BUYING | SELLING | MIXED
	Volume24h float64 `json:"volume24h"`
	HeatScore float64 `json:"heatScore"`
}

// SocialTrends derives a trader-flow view from the live feed. It reports
// only what the market data shows; nothing is invented.
func (h *Handlers) SocialTrends(w http.ResponseWriter, r *http.Request) {
	snap := h.assembler.Snapshot()
	if snap.Empty() {
		h.writeJSON(w, http.StatusOK, map[string]any{
			"traders": []traderRow{},
			"note":    "no market data available",
		}, h.ttlSeconds())
		return
	}

	limit := len(snap.Tokens)
	if limit > 20 {
		limit = 20
	}
	rows := make([]traderRow, 0, limit)
	for i := 0; i < limit; i++ {
		t := &snap.Tokens[i]
		action := "MIXED"
		if t.BuyRatio > 0.6 {
			action = "BUYING"
		} else if t.BuyRatio < 0.4 {
			action = "SELLING"
		}
		rows = append(rows, traderRow{
			Symbol:    sanitize.EscapeHTML(t.Symbol),
			Name:      sanitize.EscapeHTML(t.Name),
			Address:   t.Address,
			Action:    action,
			Volume24h: t.Volume24h,
			HeatScore: t.HeatScore,
		})
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"traders":     rows,
		"lastUpdated": snap.LastUpdated,
		"stale":       snap.Stale,
	}, h.ttlSeconds())
}

// TrenchAgent serves fresh bonding-curve-style launches. When degraded it
// returns empty arrays with an explanation, never invented gems.
func (h *Handlers) TrenchAgent(w http.ResponseWriter, r *http.Request) {
	snap := h.assembler.Snapshot()
	if snap.Empty() {
		h.writeJSON(w, http.StatusOK, map[string]any{
			"freshGems": []domain.Token{},
			"note":      "no fresh launches: upstream sources degraded or cold",
		}, h.ttlSeconds())
		return
	}

	gems := make([]domain.Token, 0, 16)
	for _, t := range snap.Tokens {
		if t.IsPumpFunStyle && t.AgeHours < 24 {
			gems = append(gems, t)
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"freshGems":   escapeTokens(gems),
		"lastUpdated": snap.LastUpdated,
		"stale":       snap.Stale,
	}, h.ttlSeconds())
}

// MarketPulse serves the per-dex volume attribution summary.
func (h *Handlers) MarketPulse(w http.ResponseWriter, r *http.Request) {
	snap := h.assembler.Snapshot()
	if snap.Empty() {
		h.writeJSON(w, http.StatusOK, map[string]any{"pulse": []domain.DexVolume{}}, h.ttlSeconds())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"pulse":       snap.Pulse,
		"lastUpdated": snap.LastUpdated,
	}, h.ttlSeconds())
}

// ---- watchlist ----

func (h *Handlers) WatchlistGet(w http.ResponseWriter, r *http.Request) {
	entries, err := h.watch.List(r.Context())
	if err != nil {
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "watchlist unavailable"}, 0)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"watchlist": entries}, 0)
}

func (h *Handlers) WatchlistAdd(w http.ResponseWriter, r *http.Request) {
	var entry domain.WatchlistEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		h.writeFieldError(w, "body", "invalid JSON body")
		return
	}
	if err := h.watch.Add(r.Context(), entry); err != nil {
		if errors.Is(err, watchlist.ErrInvalidAddress) {
			h.writeFieldError(w, "address", "not a valid solana address")
			return
		}
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "watchlist unavailable"}, 0)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "added"}, 0)
}

func (h *Handlers) WatchlistRemove(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	if err := h.watch.Remove(r.Context(), address); err != nil {
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "watchlist unavailable"}, 0)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "removed"}, 0)
}

// ---- operational ----

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"status":        "ok",
		"tick_interval": h.assembler.Interval().String(),
		"sources":       h.assembler.SourceHealth(),
	}
	if snap := h.assembler.Snapshot(); snap != nil {
		payload["last_updated"] = snap.LastUpdated
		payload["tokens"] = len(snap.Tokens)
	}
	h.writeJSON(w, http.StatusOK, payload, 0)
}

func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"}, 0)
}

// ---- helpers ----

func (h *Handlers) ttlSeconds() int {
	return int(h.cfg.CacheTTL / time.Second)
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any, ttlSeconds int) {
	w.Header().Set("Content-Type", "application/json")
	if ttlSeconds > 0 {
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", ttlSeconds))
	} else {
		w.Header().Set("Cache-Control", "no-store")
	}
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("response encode failed")
	}
}

func (h *Handlers) writeFieldError(w http.ResponseWriter, field, msg string) {
	h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg, "field": field}, 0)
}

// writeModelError maps model-path failures to a generic 5xx. Details go to
// the log only.
func (h *Handlers) writeModelError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("model call failed")
	msg := "AI analysis unavailable"
	if errors.Is(err, llm.ErrConfigMissing) {
		msg = "AI analysis not configured"
	}
	h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": msg}, 0)
}
