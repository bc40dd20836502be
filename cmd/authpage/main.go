// Command authpage is the login page in a terminal: it signs in as a guest
// (or with -token), then reads signup, login and logout commands.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	ap "github.com/panyam/authpage"
	"github.com/panyam/authpage/config"
	"github.com/panyam/authpage/console"
	"github.com/panyam/authpage/internal/backends"
)

func main() {
	configPath := flag.String("config", "", "path to config file (empty for defaults, which have no provider)")
	token := flag.String("token", "", "custom token to sign in with instead of a guest session")
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
	if *token != "" {
		cfg.InitialAuthToken = *token
	}

	// Re-create logger with configured level.
	log = slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      cfg.Level(),
		TimeFormat: time.TimeOnly,
	}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	provider, closeProvider, err := backends.NewProvider(ctx, cfg, log)
	if err != nil {
		log.Error("failed to create identity provider", "error", err)
		os.Exit(1)
	}
	defer closeProvider()

	profiles, closeProfiles, err := backends.OpenProfileStore(ctx, cfg.Profiles)
	if err != nil {
		log.Error("failed to open profile store", "kind", cfg.Profiles.Kind, "error", err)
		os.Exit(1)
	}
	defer closeProfiles()

	renderer := console.NewRenderer(os.Stdout)
	rec := ap.NewReconciler(ap.Options{
		AppID:        cfg.AppID,
		InitialToken: cfg.InitialAuthToken,
		Provider:     provider,
		Profiles:     profiles,
		Renderer:     renderer,
		Policy:       cfg.RetryPolicy(),
		Logger:       log,
	})
	defer rec.Close()

	// Errors are already on screen; the shell stays usable.
	_ = rec.Initialize(ctx)

	shell := console.NewShell(rec, os.Stdin, os.Stdout, console.WithTerminal(int(os.Stdin.Fd())))
	if err := shell.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error("shell error", "error", err)
		os.Exit(1)
	}
}
