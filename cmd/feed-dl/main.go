package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/handiism/feed-downloader/internal/app"
	"github.com/handiism/feed-downloader/internal/config"
	"github.com/handiism/feed-downloader/internal/download"
	"github.com/handiism/feed-downloader/internal/logging"
	"github.com/spf13/cobra"
)

// Exit codes. Item failures never change the exit code.
const (
	codeOK      = 0
	codeError   = 1
	codeAborted = 130
)

// flagKeys binds command line flags to setting keys.
var flagKeys = map[string]string{
	"download.output_root":     "output",
	"download.max_parallel":    "parallel",
	"download.max_retries":     "retries",
	"download.request_timeout": "timeout",
	"download.backoff_unit":    "backoff",
	"progress.path":            "progress-file",
	"failure_log.path":         "failure-log",
	"playlist.create":          "playlist",
	"cover_art.save_in_folder": "cover-art",
}

type options struct {
	configPath   string
	noTags       bool
	resetCorrupt bool
	verbose      bool
	dryRun       bool
}

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

func execute(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return codeOK
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		fmt.Fprintf(stderr, "Error: %v\n", exitErr.err)
		return exitErr.code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return codeError
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	opts := &options{}
	defaults := config.DefaultSettings()

	cmd := &cobra.Command{
		Use:   "feed-dl <feed-url>",
		Short: "Download the media files listed in an RSS feed or HTML page",
		Long: "feed-dl downloads every media enclosure of an RSS/Atom feed (or every media link of an\n" +
			"HTML listing) into <output>/<feed host>/. Completed items are remembered, so running it\n" +
			"again only fetches new or previously failed items.\n\n" +
			"For interactive mode, use: feed-tui",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], opts, stdout)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "Path to config file (yaml, json or toml)")
	f.StringP("output", "o", defaults.Download.OutputRoot, "Output root directory")
	f.IntP("parallel", "p", defaults.Download.MaxParallel, "Maximum parallel downloads")
	f.Int("retries", defaults.Download.MaxRetries, "Attempts per item")
	f.Duration("timeout", defaults.Download.RequestTimeout, "Timeout of a single request")
	f.Duration("backoff", defaults.Download.BackoffUnit, "Backoff unit, multiplied by 2^attempt")
	f.String("progress-file", defaults.Progress.Path, "Progress record")
	f.String("failure-log", defaults.FailureLog.Path, "Failure log")
	f.Bool("playlist", defaults.Playlist.Create, "Create a playlist of downloaded files")
	f.Bool("cover-art", defaults.CoverArt.SaveInFolder, "Save feed cover art next to the media")
	f.BoolVar(&opts.noTags, "no-tags", false, "Do not modify ID3 tags")
	f.BoolVar(&opts.resetCorrupt, "reset-corrupt", false, "Start over when the progress record is unreadable")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Show verbose output")
	f.BoolVar(&opts.dryRun, "dry-run", false, "List pending items without downloading")

	return cmd
}

func run(cmd *cobra.Command, feedURL string, opts *options, stdout io.Writer) error {
	settings, err := config.Load(opts.configPath, config.WithFlags(cmd.Flags(), flagKeys))
	if err != nil {
		return &exitError{code: codeError, err: fmt.Errorf("load config: %w", err)}
	}
	if opts.noTags {
		settings.Tags.Modify = false
	}
	if opts.resetCorrupt {
		settings.Progress.OnCorrupt = config.OnCorruptReset
	}
	if opts.verbose {
		settings.Log.Level = "debug"
	}

	logger, closer, err := logging.New(settings.Log, os.Stderr)
	if err != nil {
		return &exitError{code: codeError, err: err}
	}
	defer closer.Close()

	runner := app.NewRunner(settings, logger)
	defer runner.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if opts.dryRun {
		return plan(ctx, runner, feedURL, stdout)
	}

	// First interrupt stops dispatching, second aborts in-flight downloads.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
			return
		}
		fmt.Fprintln(stdout, "\nInterrupted, finishing current downloads (press Ctrl+C again to abort)...")
		runner.Stop()

		select {
		case <-sigCh:
		case <-ctx.Done():
			return
		}
		fmt.Fprintln(stdout, "\nAborting...")
		cancel()
	}()

	runner.OnEvent(func(e app.Event) {
		if e.Level == app.LevelVerbose && !opts.verbose {
			return
		}
		fmt.Fprintln(stdout, prefix(e.Level)+e.Message)
	})
	runner.OnProgress(func(p download.Progress) {
		fmt.Fprintln(stdout, progressLine(p))
	})

	fmt.Fprintln(stdout, "Feed Downloader")
	fmt.Fprintln(stdout, "----------------------------------------")

	result, err := runner.Run(ctx, feedURL)
	if err != nil {
		if ctx.Err() != nil {
			return &exitError{code: codeAborted, err: errors.New("download aborted")}
		}
		return &exitError{code: codeError, err: err}
	}

	fmt.Fprintln(stdout, "----------------------------------------")
	if r := result.Report; r != nil {
		fmt.Fprintf(stdout, "Complete! %d downloaded, %d failed, %d already done\n", r.Succeeded, r.Failed, r.Prior)
	}
	return nil
}

func plan(ctx context.Context, runner *app.Runner, feedURL string, stdout io.Writer) error {
	f, pending, err := runner.Plan(ctx, feedURL)
	if err != nil {
		return &exitError{code: codeError, err: err}
	}

	fmt.Fprintf(stdout, "%s: %d items, %d to download\n", f.Title, len(f.Items), len(pending))
	for _, item := range pending {
		fmt.Fprintf(stdout, "  %s\n", item)
	}
	fmt.Fprintln(stdout, "\n[Dry run - not downloading]")
	return nil
}

// progressLine renders finished/total items followed by the split of those
// items into downloads and failures.
func progressLine(p download.Progress) string {
	line := fmt.Sprintf("   [%d/%d done] %d downloaded, %d failed", p.Completed, p.Total, p.Succeeded, p.Failed)
	if p.Aborted > 0 {
		line += fmt.Sprintf(", %d interrupted", p.Aborted)
	}
	return line
}

func prefix(level app.Level) string {
	switch level {
	case app.LevelError:
		return "✗ "
	case app.LevelWarning:
		return "! "
	case app.LevelSuccess:
		return "✓ "
	case app.LevelInfo:
		return "› "
	default:
		return "  "
	}
}
