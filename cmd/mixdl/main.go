package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:      "mixdl",
		Usage:     "Download a mix with tags, cover art and a playlist",
		Version:   "0.1.0",
		ArgsUsage: "<mix-url>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory (overrides config)",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (.json, .toml, .yaml)",
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "Catalog API key, 40 characters",
				Sources: cli.EnvVars("MIXDL_API_KEY"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Show debug output",
			},
			&cli.StringFlag{
				Name:  "playlist-format",
				Usage: "Playlist format: m3u, pls, wpl or zpl",
			},
			&cli.BoolFlag{
				Name:  "no-cover",
				Usage: "Do not save cover art",
			},
			&cli.IntFlag{
				Name:  "max-retries",
				Usage: "Give up after this many rate limit cooldowns (0 retries forever)",
			},
		},
		Action: run,
	}

	// Handle interrupts
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nInterrupted, cancelling...")
		cancel()
	}()

	if err := app.Run(ctx, os.Args); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Download cancelled.")
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
