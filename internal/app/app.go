package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/five82/roomdeck/internal/config"
	"github.com/five82/roomdeck/internal/detail"
	"github.com/five82/roomdeck/internal/logging"
	"github.com/five82/roomdeck/internal/players"
	"github.com/five82/roomdeck/internal/prefs"
	"github.com/five82/roomdeck/internal/state"
	"github.com/five82/roomdeck/internal/supervisor"
	"github.com/five82/roomdeck/internal/transport"
	"github.com/five82/roomdeck/internal/ui"
)

var log = logging.Logger("app")

// Options configure the roomdeck application. Non-zero fields override the
// config file and environment.
type Options struct {
	ConfigPath   string
	PrefsPath    string // empty uses default ~/.config/roomdeck/prefs.toml
	APIURL       string
	PollInterval time.Duration
}

// Run boots the dashboard until the UI exits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	if err := logging.Setup(logging.Options{File: cfg.LogFile, Level: cfg.LogLevel}); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs, err := prefs.Load(prefsPath)
	if err != nil {
		log.Warnf("load prefs, using defaults: %v", err)
	}

	rt, err := start(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	log.Infow("roomdeck started", "api", cfg.APIURL, "push", cfg.PushEnabled, "poll", cfg.PollInterval)

	return ui.Run(ctx, ui.Options{
		Store:      rt.store,
		Conn:       rt.supervisor,
		Detail:     rt.detail,
		Controller: rt.client,
		Config:     &cfg,
		ThemeName:  userPrefs.Theme,
		SortOrder:  userPrefs.Sort,
		PrefsPath:  prefsPath,
	})
}

// loadConfig layers flags over the file and environment, then validates.
func loadConfig(opts Options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if api := strings.TrimSpace(opts.APIURL); api != "" {
		cfg.APIURL = api
	}
	if opts.PollInterval > 0 {
		cfg.PollInterval = opts.PollInterval
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// runtime owns the long-lived components between start and Close.
type runtime struct {
	client     *players.Client
	store      *state.Store
	supervisor *supervisor.Supervisor
	detail     *detail.Poller
}

// start wires client, store, supervisor and detail poller, and starts the
// supervisor. The detail poller stays idle until a detail view opens.
func start(ctx context.Context, cfg config.Config) (*runtime, error) {
	client, err := players.NewClient(cfg.APIURL)
	if err != nil {
		return nil, fmt.Errorf("init players client: %w", err)
	}

	store := state.NewStore()
	sup := supervisor.New(supervisor.Options{
		Store: store,
		Prober: transport.PushProber{
			Enabled: cfg.PushEnabled,
			Options: transport.PushOptions{
				URL:         client.PushURL(cfg.PushPath),
				Event:       cfg.PushEvent,
				Backoff:     cfg.PushBackoff,
				MaxAttempts: cfg.PushMaxRetries,
			},
		},
		Fetcher:      client,
		PollInterval: cfg.PollInterval,
		Backstop:     cfg.BackstopPolling,
	})
	if err := sup.Start(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("start supervisor: %w", err)
	}

	return &runtime{
		client:     client,
		store:      store,
		supervisor: sup,
		detail:     detail.NewPoller(client, cfg.DetailInterval),
	}, nil
}

// Close stops every background goroutine, detail loop first, then disposes
// the store.
func (r *runtime) Close() {
	r.detail.Close()
	r.supervisor.Stop()
	r.store.Close()
}
