// Command identityd serves the HTTP identity provider the authpage
// console can use with provider kind "http".
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/panyam/authpage/config"
	"github.com/panyam/authpage/internal/backends"
	"github.com/panyam/authpage/providers/httpidp"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	addr := flag.String("addr", "", "listen address (overrides http.address)")
	flag.Parse()

	// Bootstrap logger for config loading.
	log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{TimeFormat: time.TimeOnly}))

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
	}
	if *addr != "" {
		cfg.HTTP.Address = *addr
	}
	if cfg.Provider == nil || cfg.Provider.Secret == "" {
		log.Error("provider.secret is required to sign id tokens")
		os.Exit(1)
	}

	// Re-create logger with configured level.
	log = slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      cfg.Level(),
		TimeFormat: time.TimeOnly,
	}))
	log.Info("config loaded", "address", cfg.HTTP.Address, "accounts", cfg.Accounts.Kind, "log_level", cfg.Level().String())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir, closeAccounts, err := backends.NewDirectory(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open account store", "error", err)
		os.Exit(1)
	}
	defer closeAccounts()

	server := httpidp.NewServer(dir,
		httpidp.WithServerLogger(log),
		httpidp.WithTokenTTL(cfg.TokenTTL()),
		httpidp.WithRateLimiter(httpidp.NewKeyedLimiter(cfg.HTTP.LoginPerMinute, cfg.HTTP.LoginBurst)))

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
		cancel()
	}()

	log.Info("identityd starting", "address", cfg.HTTP.Address)
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Error("http server error", "error", err)
		os.Exit(1)
	}
}
