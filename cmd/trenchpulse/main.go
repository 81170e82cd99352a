// TrenchPulse serves a real-time Solana memecoin intelligence feed.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trenchpulse/trenchpulse/internal/config"
	"github.com/trenchpulse/trenchpulse/internal/feed"
	"github.com/trenchpulse/trenchpulse/internal/httpapi"
	"github.com/trenchpulse/trenchpulse/internal/llm"
	"github.com/trenchpulse/trenchpulse/internal/providers"
	"github.com/trenchpulse/trenchpulse/internal/stream"
	"github.com/trenchpulse/trenchpulse/internal/watchlist"
)

var (
	configPath string
	logLevel   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "trenchpulse",
		Short: "Solana memecoin signal and narrative engine",
		Long: `TrenchPulse polls public market aggregators, classifies tokens into
trading signals, clusters them into narratives, and serves the result over
HTTP and websocket.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "optional YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd(), scanCmd(), versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the feed pipeline and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dex := providers.NewDexScreenerClient(cfg.DexBaseURL, cfg.HTTPDeadline)
	gecko := providers.NewCoinGeckoClient(cfg.GeckoBaseURL, cfg.HTTPDeadline)
	assembler := feed.NewAssembler(cfg, dex, gecko)
	model := llm.NewClient(cfg.ModelURL, cfg.ModelName, cfg.ModelKeyEnv, 30*time.Second)
	watch := watchlist.NewStore(watchlist.NewRedisKV(cfg.RedisAddr))
	hub := stream.NewHub(assembler)

	server := httpapi.NewServer(cfg, assembler, model, watch, hub)

	go assembler.Run(ctx)
	go hub.Run(ctx)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	log.Info().
		Int("port", cfg.Port).
		Dur("tick_interval", cfg.TickInterval).
		Msg("trenchpulse started")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown incomplete: %w", err)
	}
	log.Info().Msg("trenchpulse stopped")
	return nil
}

func scanCmd() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one pipeline tick and print the snapshot as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(raw)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the full snapshot instead of the signal summary")
	return cmd
}

func runScan(raw bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	dex := providers.NewDexScreenerClient(cfg.DexBaseURL, cfg.HTTPDeadline)
	gecko := providers.NewCoinGeckoClient(cfg.GeckoBaseURL, cfg.HTTPDeadline)
	assembler := feed.NewAssembler(cfg, dex, gecko)

	assembler.Tick(ctx)
	snap := assembler.Snapshot()
	if snap.Empty() {
		return fmt.Errorf("no market data available")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if raw {
		return enc.Encode(snap)
	}

	type row struct {
		Symbol     string  `json:"symbol"`
		Signal     string  `json:"signal"`
		Tag        string  `json:"tag"`
		Confidence float64 `json:"confidence"`
		Heat       float64 `json:"heat"`
		Edge       string  `json:"edge"`
	}
	rows := make([]row, 0, len(snap.Tokens))
	for _, t := range snap.Tokens {
		rows = append(rows, row{
			Symbol:     t.Symbol,
			Signal:     string(t.SignalType),
			Tag:        string(t.Tag),
			Confidence: t.Confidence,
			Heat:       t.HeatScore,
			Edge:       t.Edge,
		})
	}
	return enc.Encode(map[string]any{
		"tokens":     rows,
		"narratives": snap.Narratives,
		"pulse":      snap.Pulse,
		"updated":    snap.LastUpdated,
	})
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("trenchpulse v1.0.0")
		},
	}
}
