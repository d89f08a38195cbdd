package main

import (
	"fmt"
	"os"

	"github.com/handiism/mixdl/internal/config"
	"github.com/handiism/mixdl/internal/tui"
)

func main() {
	settings := config.DefaultSettings()
	if len(os.Args) > 1 {
		loaded, err := config.Load(os.Args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		settings = loaded
	}
	settings.LoadEnv()

	if err := tui.Run(settings); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
