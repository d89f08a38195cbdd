package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/handiism/mixdl/internal/catalog"
	"github.com/handiism/mixdl/internal/config"
	"github.com/handiism/mixdl/internal/download"
	"github.com/handiism/mixdl/internal/logging"
)

func run(ctx context.Context, cmd *cli.Command) error {
	locator := cmd.Args().First()
	if locator == "" {
		cli.ShowRootCommandHelp(cmd)
		return fmt.Errorf("missing mix URL")
	}

	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	logger := logging.NewLogger(os.Stderr, settings.Debug)

	cat, err := catalog.NewFromSettings(settings, logger)
	if err != nil {
		return err
	}

	events := make(chan download.Event, 64)
	pipeline, err := download.NewPipeline(settings, cat, func(event download.Event) {
		events <- event
	})
	if err != nil {
		return err
	}

	var session *download.Session
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(events)
		var err error
		session, err = pipeline.Run(gctx, locator, settings.DownloadsPath)
		return err
	})
	g.Go(func() error {
		newRenderer(logging.Observer(logger)).consume(events)
		return nil
	})

	err = g.Wait()
	if session != nil {
		printSummary(session, err)
	}
	return err
}

// loadSettings merges config file, environment and flags, in that order.
func loadSettings(cmd *cli.Command) (*config.Settings, error) {
	settings := config.DefaultSettings()
	if path := cmd.String("config"); path != "" {
		var err error
		settings, err = config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	settings.LoadEnv()

	if output := cmd.String("output"); output != "" {
		settings.DownloadsPath = output
	}
	if key := cmd.String("api-key"); key != "" {
		settings.APIKey = key
	}
	if cmd.Bool("debug") {
		settings.Debug = true
	}
	if format := cmd.String("playlist-format"); format != "" {
		settings.PlaylistFormat = format
	}
	if cmd.Bool("no-cover") {
		settings.SaveCoverArtInFolder = false
	}
	if cmd.IsSet("max-retries") {
		settings.RateLimitMaxRetries = int(cmd.Int("max-retries"))
	}

	return settings, nil
}

func printSummary(session *download.Session, err error) {
	fmt.Println()
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	if err != nil {
		fmt.Printf("Stopped after %d tracks in %s\n", len(session.Files), session.Dir)
		return
	}
	fmt.Printf("Complete! Downloaded %d tracks (%d skipped)\n", len(session.Files), session.Skipped)
	fmt.Printf("   Folder:   %s\n", session.Dir)
	fmt.Printf("   Playlist: %s\n", session.PlaylistPath)
}
