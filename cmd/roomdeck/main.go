package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/roomdeck/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "config path (optional, defaults to ~/.config/roomdeck/config.toml)")
	prefsPath := flag.String("prefs", "", "prefs path (optional, defaults to ~/.config/roomdeck/prefs.toml)")
	apiURL := flag.String("api", "", "audio controller API address, e.g. 127.0.0.1:8080 (optional)")
	poll := flag.Duration("poll", 0, "roster poll interval, e.g. 2s (optional, defaults to 5s)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		PrefsPath:  *prefsPath,
		APIURL:     *apiURL,
	}
	if *poll > 0 {
		opts.PollInterval = *poll
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "roomdeck: %v\n", err)
		return 1
	}
	return 0
}
