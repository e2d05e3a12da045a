package main

import (
	"fmt"
	"os"

	"github.com/handiism/feed-downloader/internal/config"
	"github.com/handiism/feed-downloader/internal/logging"
	"github.com/handiism/feed-downloader/internal/tui"
	flag "github.com/spf13/pflag"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.StringP("config", "c", "", "Path to config file (yaml, json or toml)")
	flag.Parse()

	settings, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}

	// The terminal belongs to the UI, so logs only go to log.path.
	logger, closer, err := logging.New(settings.Log, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closer.Close()

	if err := tui.Run(settings, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
