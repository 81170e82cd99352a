// Package httpapi exposes the read feed, the model proxy endpoints, and the
// watchlist surface. Responses are JSON only; every string that originated
// upstream or from the model is HTML-escaped on the way out.
package httpapi

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/trenchpulse/trenchpulse/internal/config"
	"github.com/trenchpulse/trenchpulse/internal/feed"
	"github.com/trenchpulse/trenchpulse/internal/llm"
	"github.com/trenchpulse/trenchpulse/internal/stream"
	"github.com/trenchpulse/trenchpulse/internal/watchlist"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

// Server is the HTTP front of the pipeline.
type Server struct {
	router   *mux.Router
	server   *http.Server
	handlers *Handlers
	cfg      *config.Config
}

// NewServer wires routes and middleware around the given components.
func NewServer(cfg *config.Config, assembler *feed.Assembler, model *llm.Client, wl *watchlist.Store, hub *stream.Hub) *Server {
	router := mux.NewRouter()

	s := &Server{
		router:   router,
		cfg:      cfg,
		handlers: NewHandlers(cfg, assembler, model, wl),
	}
	s.setupRoutes(hub)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes(hub *stream.Hub) {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)
	s.router.Use(s.corsMiddleware)

	// Model proxy endpoints.
	s.router.HandleFunc("/analyze", s.handlers.Analyze).Methods("POST", "OPTIONS")
	s.router.HandleFunc("/token-intel", s.handlers.TokenIntel).Methods("POST", "OPTIONS")

	// Read feed endpoints.
	s.router.HandleFunc("/signals", s.handlers.Signals).Methods("GET")
	s.router.HandleFunc("/narrative-radar", s.handlers.NarrativeRadar).Methods("GET")
	s.router.HandleFunc("/social-trends", s.handlers.SocialTrends).Methods("GET")
	s.router.HandleFunc("/trench-agent", s.handlers.TrenchAgent).Methods("GET")
	s.router.HandleFunc("/market-pulse", s.handlers.MarketPulse).Methods("GET")

	// Watchlist.
	s.router.HandleFunc("/watchlist", s.handlers.WatchlistGet).Methods("GET")
	s.router.HandleFunc("/watchlist", s.handlers.WatchlistAdd).Methods("POST")
	s.router.HandleFunc("/watchlist/{address}", s.handlers.WatchlistRemove).Methods("DELETE")

	// Operational.
	s.router.HandleFunc("/health", s.handlers.Health).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	if hub != nil {
		s.router.HandleFunc("/ws", hub.Serve).Methods("GET")
	}

	s.router.NotFoundHandler = http.HandlerFunc(s.handlers.NotFound)
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()[:8]
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		log.Debug().
			Str("request_id", fmt.Sprint(r.Context().Value(requestIDKey))).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// corsMiddleware opens the API to any origin; it is a public read surface.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Start begins serving; blocks until the listener fails or is shut down.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrade pass through the logging wrapper.
func (rw *responseWrapper) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("underlying writer does not support hijack")
	}
	return hj.Hijack()
}
