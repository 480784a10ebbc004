package app

import (
	"context"
	"fmt"
	"time"

	"github.com/dhkim0920/coinfolio/internal/api"
	"github.com/dhkim0920/coinfolio/internal/config"
	"github.com/dhkim0920/coinfolio/internal/logging"
	"github.com/dhkim0920/coinfolio/internal/prefs"
	"github.com/dhkim0920/coinfolio/internal/session"
	"github.com/dhkim0920/coinfolio/internal/state"
	"github.com/dhkim0920/coinfolio/internal/ui"
)

// Options configure the coinfolio application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/coinfolio/prefs.toml
	PollEvery  int    // seconds; zero uses default
	Debug      bool
}

// Run boots the coinfolio TUI until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(cfg.LogPath(), opts.Debug)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = log.Sync() }()

	userPrefs := prefs.Load(opts.PrefsPath)

	client, err := api.NewClient(cfg.APIBase)
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}

	tokens := session.NewTokenStore(cfg.TokenPath())
	sessions := session.NewManager(client, tokens, log.Named("session"))
	client.SetTokenSource(sessions)

	// Settle the session before anything renders: either a valid stored
	// token, a cookie refresh, or a clean signed-out state.
	sessions.CheckAndRefresh(ctx)
	go sessions.RunAutoRefresh(ctx)

	store := &state.Store{}
	svc := NewService(client, store, log.Named("fetch"))

	interval := defaultPollInterval
	if opts.PollEvery > 0 {
		interval = time.Duration(opts.PollEvery) * time.Second
	}
	StartPoller(ctx, svc, sessions, interval, log.Named("poller"))

	uiOpts := ui.Options{
		Context:   ctx,
		Client:    client,
		Sessions:  sessions,
		Store:     store,
		Loader:    svc,
		PollTick:   interval,
		ThemeName:  userPrefs.Theme,
		ChartRange: userPrefs.ChartRange,
		PrefsPath:  opts.PrefsPath,
		Log:        log.Named("ui"),
	}
	return ui.Run(uiOpts)
}
