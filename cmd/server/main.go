// Package main runs the landing page server: page rendering, simulated
// staking panels, wallet balance lookups and the live update channel.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mlm-landing/internal/config"
	"mlm-landing/internal/landing"
	"mlm-landing/internal/session"
	"mlm-landing/internal/solana"
	"mlm-landing/internal/staking"
	"mlm-landing/internal/wallet"
	"mlm-landing/internal/web"
)

func main() {
	// Load .env file if exists
	config.LoadEnvFile(".env")

	// Parse flags (env vars as defaults)
	configPath := flag.String("config", envOr("CONFIG_PATH", "config.yaml"), "Path to YAML config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	rpcEndpoint := flag.String("rpc-endpoint", "", "Solana RPC HTTP endpoint (overrides config)")
	watch := flag.Bool("watch-balance", false, "Subscribe to connected wallets for live balance updates")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *rpcEndpoint != "" {
		cfg.Solana.RPCEndpoint = *rpcEndpoint
	}
	if *watch {
		cfg.Solana.WatchBalance = true
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Solana clients
	rpc := solana.NewHTTPClient(cfg.RPCEndpoint(),
		solana.WithMaxRetries(cfg.Solana.MaxRetries),
		solana.WithCommitment(cfg.Solana.Commitment),
	)
	logger.Printf("Using %s cluster via %s", cfg.Network(), rpc.Endpoint())

	var ws solana.WSClient
	if cfg.Solana.WatchBalance {
		wsCfg := solana.DefaultWSConfig()
		wsCfg.Commitment = cfg.Solana.Commitment
		wsCfg.Logger = log.New(os.Stdout, "[solana-ws] ", log.LstdFlags|log.Lshortfile)
		client, err := solana.NewWSClient(ctx, cfg.WSEndpoint(), &wsCfg)
		if err != nil {
			// Balances still load over RPC on connect.
			logger.Printf("WARN: balance subscriptions disabled: %v", err)
		} else {
			defer client.Close()
			ws = client
		}
	}

	// Sessions
	sessCfg := session.Config{
		Landing: landing.DefaultConfig(),
		Staking: staking.DefaultConfig(),
		Wallet:  wallet.DefaultConfig(),
	}
	sessCfg.Landing.CountdownWindow = cfg.Landing.CountdownWindow
	sessCfg.Staking.ActionDelay = cfg.Staking.ActionDelay
	sessCfg.Staking.RewardInterval = cfg.Staking.RewardInterval
	sessCfg.Staking.RewardIncrement = cfg.RewardIncrement()
	sessCfg.Wallet.Network = cfg.Network()
	sessCfg.Wallet.Watch = ws != nil

	sessionLogger := log.New(os.Stdout, "[session] ", log.LstdFlags|log.Lshortfile)
	store := session.NewStore(sessCfg, rpc, ws, sessionLogger)
	defer store.Close()

	sweeper, err := session.NewSweeper(store, cfg.Session.TTL, cfg.Session.SweepInterval, sessionLogger)
	if err != nil {
		logger.Fatalf("Failed to schedule session sweep: %v", err)
	}
	sweeper.Start()

	// HTTP server
	srv := web.NewServer(store, web.Options{
		PushInterval: cfg.Server.LivePushInterval,
		Network:      cfg.Network(),
		RPCEndpoint:  rpc.Endpoint(),
		RPC:          rpc,
	}, logger, log.New(os.Stdout, "[ws] ", log.LstdFlags|log.Lshortfile))

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("Starting HTTP server on %s", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
	case err := <-errCh:
		logger.Printf("HTTP server error: %v", err)
	}
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stop()

	go func() {
		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-shutdownCtx.Done():
		}
	}()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP shutdown: %v", err)
	}
	sweeper.Stop(shutdownCtx)

	logger.Println("Shutdown complete")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
